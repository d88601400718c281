// Package jobs tracks asynchronous generation runs in memory.
package jobs

import (
	"time"

	"github.com/google/uuid"
)

// Status is a job lifecycle state.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// maxProgress bounds the per-job progress log; older lines fall off.
const maxProgress = 200

// Result is the outcome of one completed generation run.
type Result struct {
	SourceID    string `json:"source_id"`
	SourceTitle string `json:"source_title"`
	SourceType  string `json:"source_type"`
	File        string `json:"file"`
	Count       int    `json:"count"`
}

// Job is a point-in-time snapshot of one run.
type Job struct {
	ID        string    `json:"job_id"`
	URL       string    `json:"url"`
	Status    Status    `json:"status"`
	Progress  []string  `json:"progress"`
	Result    *Result   `json:"result,omitempty"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type job struct {
	id        string
	url       string
	status    Status
	progress  []string
	result    *Result
	err       string
	createdAt time.Time
	updatedAt time.Time
}

func (j *job) snapshot() Job {
	progress := make([]string, len(j.progress))
	copy(progress, j.progress)
	var res *Result
	if j.result != nil {
		r := *j.result
		res = &r
	}
	return Job{
		ID:        j.id,
		URL:       j.url,
		Status:    j.status,
		Progress:  progress,
		Result:    res,
		Error:     j.err,
		CreatedAt: j.createdAt,
		UpdatedAt: j.updatedAt,
	}
}

type createReq struct {
	url  string
	resp chan string
}

type getReq struct {
	id   string
	resp chan getResp
}

type getResp struct {
	job Job
	ok  bool
}

type mutateReq struct {
	id    string
	apply func(*job)
}

// Store holds jobs in memory.
//
// Concurrency model: a single internal loop (goroutine) owns the job map.
// Public methods communicate with this loop through channels, so no
// mutexes are required.
type Store struct {
	createCh chan createReq
	getCh    chan getReq
	mutateCh chan mutateReq
	stopCh   chan struct{}
	stopped  chan struct{}
}

// NewStore creates a Store and starts its loop.
func NewStore() *Store {
	s := &Store{
		createCh: make(chan createReq),
		getCh:    make(chan getReq),
		// Unbuffered so a mutation is owned by the loop before the
		// caller moves on; a Get issued afterwards sees it applied.
		mutateCh: make(chan mutateReq),
		stopCh:   make(chan struct{}),
		stopped:  make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *Store) run() {
	defer close(s.stopped)
	all := make(map[string]*job)

	for {
		select {
		case <-s.stopCh:
			return

		case req := <-s.createCh:
			id := uuid.NewString()
			now := time.Now()
			all[id] = &job{
				id:        id,
				url:       req.url,
				status:    StatusQueued,
				createdAt: now,
				updatedAt: now,
			}
			req.resp <- id

		case req := <-s.getCh:
			if j, ok := all[req.id]; ok {
				req.resp <- getResp{job: j.snapshot(), ok: true}
			} else {
				req.resp <- getResp{}
			}

		case req := <-s.mutateCh:
			if j, ok := all[req.id]; ok {
				req.apply(j)
				j.updatedAt = time.Now()
			}
		}
	}
}

// Close stops the store loop.
func (s *Store) Close() {
	close(s.stopCh)
	<-s.stopped
}

// Create registers a new queued job and returns its id.
func (s *Store) Create(url string) string {
	resp := make(chan string, 1)
	select {
	case s.createCh <- createReq{url: url, resp: resp}:
		return <-resp
	case <-s.stopped:
		return ""
	}
}

// Get returns a snapshot of one job.
func (s *Store) Get(id string) (Job, bool) {
	resp := make(chan getResp, 1)
	select {
	case s.getCh <- getReq{id: id, resp: resp}:
		r := <-resp
		return r.job, r.ok
	case <-s.stopped:
		return Job{}, false
	}
}

func (s *Store) mutate(id string, apply func(*job)) {
	select {
	case s.mutateCh <- mutateReq{id: id, apply: apply}:
	case <-s.stopped:
	}
}

// SetRunning marks a job as running.
func (s *Store) SetRunning(id string) {
	s.mutate(id, func(j *job) { j.status = StatusRunning })
}

// Progress appends one progress line, keeping only the newest lines once
// the bound is hit.
func (s *Store) Progress(id, msg string) {
	s.mutate(id, func(j *job) {
		j.progress = append(j.progress, msg)
		if len(j.progress) > maxProgress {
			j.progress = j.progress[len(j.progress)-maxProgress:]
		}
	})
}

// Complete marks a job as completed with its result.
func (s *Store) Complete(id string, res Result) {
	s.mutate(id, func(j *job) {
		j.status = StatusCompleted
		j.result = &res
	})
}

// Fail marks a job as failed with an error message.
func (s *Store) Fail(id, errMsg string) {
	s.mutate(id, func(j *job) {
		j.status = StatusFailed
		j.err = errMsg
	})
}
