package studio

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/marlowe/inkwell/internal/apperr"
	"github.com/marlowe/inkwell/internal/checksum"
	"github.com/marlowe/inkwell/internal/fetch"
	"github.com/marlowe/inkwell/internal/index"
	"github.com/marlowe/inkwell/internal/llm"
	"github.com/marlowe/inkwell/internal/models"
	"github.com/marlowe/inkwell/internal/parse"
	"github.com/marlowe/inkwell/internal/sse"
	"github.com/marlowe/inkwell/internal/storage"
)

const videoURL = "https://www.youtube.com/watch?v=abc123xyz"

var draftBody = strings.TrimSpace(strings.Repeat("The quick brown fox jumps over the lazy dog. ", 4))

// modelReply builds a parseable reply with one section per title.
func modelReply(titles ...string) string {
	sections := make([]string, 0, len(titles))
	for _, title := range titles {
		sections = append(sections, "**"+title+"**\n\n"+draftBody)
	}
	return strings.Join(sections, "\n---\n")
}

type fakeModel struct {
	reply   string
	err     error
	prompts []llm.Prompts
}

func (f *fakeModel) Complete(_ context.Context, p llm.Prompts) (string, error) {
	f.prompts = append(f.prompts, p)
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

type fakeFetcher struct {
	res   *fetch.Result
	err   error
	calls int
}

func (f *fakeFetcher) Fetch(_ context.Context, _ string) (*fetch.Result, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.res, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

type env struct {
	svc     *Service
	store   storage.Provider
	csv     *storage.CSVLog
	db      *index.DB
	broker  *sse.Broker
	model   *fakeModel
	fetcher *fakeFetcher
	dataDir string
}

func newEnv(t *testing.T, mode parse.Mode) *env {
	t.Helper()
	dataDir := t.TempDir()
	store, err := storage.NewFS(dataDir)
	if err != nil {
		t.Fatal(err)
	}
	csvLog := storage.NewCSVLog(filepath.Join(dataDir, storage.MasterCSV))

	db, err := index.Open(filepath.Join(dataDir, "index.db"))
	if err != nil {
		t.Fatalf("index.Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	broker := sse.NewBroker(time.Millisecond)
	t.Cleanup(broker.Close)

	model := &fakeModel{}
	fetcher := &fakeFetcher{}
	svc := NewService(store, csvLog, db, model, fetcher, broker, Config{Mode: mode}, testLogger())

	return &env{
		svc:     svc,
		store:   store,
		csv:     csvLog,
		db:      db,
		broker:  broker,
		model:   model,
		fetcher: fetcher,
		dataDir: dataDir,
	}
}

func videoRequest() GenerateRequest {
	return GenerateRequest{
		URL:        videoURL,
		Title:      "My Video",
		Transcript: "Speaker one said a lot of interesting things about habits.",
	}
}

func TestGenerate_VideoStrict(t *testing.T) {
	e := newEnv(t, parse.ModeStrict)
	e.model.reply = modelReply("First Draft", "Second Draft")

	events := e.broker.Subscribe()
	defer e.broker.Unsubscribe(events)

	var lines []string
	res, err := e.svc.Generate(context.Background(), videoRequest(), func(msg string) {
		lines = append(lines, msg)
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	wantID := checksum.ShortID(videoURL)
	if res.SourceID != wantID {
		t.Errorf("SourceID = %q, want %q", res.SourceID, wantID)
	}
	if res.Count != 2 || res.SourceTitle != "My Video" || res.SourceType != models.SourceTypeVideo {
		t.Errorf("result = %+v", res)
	}
	if len(lines) == 0 {
		t.Error("expected progress lines")
	}

	if _, err := e.store.Read(storage.DraftPath("My Video")); err != nil {
		t.Errorf("draft file missing: %v", err)
	}
	data, err := e.store.Read(storage.TranscriptPath("My Video"))
	if err != nil {
		t.Fatalf("transcript missing: %v", err)
	}
	if h := storage.ParseTranscript(data); h.SourceID != wantID {
		t.Errorf("transcript source id = %q, want %q", h.SourceID, wantID)
	}

	rows, err := e.csv.ReadAll()
	if err != nil || len(rows) != 2 {
		t.Fatalf("csv rows = %d (%v), want 2", len(rows), err)
	}
	if rows[0].Article.Title != "First Draft" || rows[1].Article.Title != "Second Draft" {
		t.Errorf("csv order = %q, %q", rows[0].Article.Title, rows[1].Article.Title)
	}

	drafts, err := e.db.DraftsBySource(wantID)
	if err != nil || len(drafts) != 2 {
		t.Fatalf("index drafts = %d (%v), want 2", len(drafts), err)
	}

	// Two draft.created events reach subscribers.
	time.Sleep(50 * time.Millisecond)
	created := 0
	for done := false; !done; {
		select {
		case msg := <-events:
			if strings.Contains(string(msg), "draft.created") {
				created++
			}
		default:
			done = true
		}
	}
	if created != 2 {
		t.Errorf("draft.created events = %d, want 2", created)
	}
}

func TestGenerate_SkipsExistingUnlessForced(t *testing.T) {
	e := newEnv(t, parse.ModeStrict)
	e.model.reply = modelReply("Only Draft")

	if _, err := e.svc.Generate(context.Background(), videoRequest(), nil); err != nil {
		t.Fatalf("first Generate: %v", err)
	}

	_, err := e.svc.Generate(context.Background(), videoRequest(), nil)
	if !errors.Is(err, apperr.ErrAlreadyExists) {
		t.Fatalf("err = %v, want ErrAlreadyExists", err)
	}

	req := videoRequest()
	req.Force = true
	if _, err := e.svc.Generate(context.Background(), req, nil); err != nil {
		t.Fatalf("forced Generate: %v", err)
	}
}

func TestGenerate_EmptyParseDumpsReply(t *testing.T) {
	e := newEnv(t, parse.ModeStrict)
	e.model.reply = "no structure here at all"

	_, err := e.svc.Generate(context.Background(), videoRequest(), nil)
	if !errors.Is(err, apperr.ErrEmptyResult) {
		t.Fatalf("err = %v, want ErrEmptyResult", err)
	}

	dump, rerr := e.store.Read(storage.DebugDumpFile)
	if rerr != nil {
		t.Fatalf("debug dump missing: %v", rerr)
	}
	if string(dump) != e.model.reply {
		t.Errorf("dump = %q, want raw reply", dump)
	}
}

func TestGenerate_NotesMode(t *testing.T) {
	e := newEnv(t, parse.ModeNotes)
	e.model.reply = modelReply("Noted Draft") + "\n---\nA short companion note for the draft."

	res, err := e.svc.Generate(context.Background(), videoRequest(), nil)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if res.Count != 1 {
		t.Fatalf("count = %d, want 1", res.Count)
	}

	if len(e.model.prompts) != 1 || !strings.Contains(e.model.prompts[0].System, "Key Insight") {
		t.Error("notes system prompt not used")
	}

	rows, _ := e.csv.ReadAll()
	if len(rows) != 1 || rows[0].Article.Note1 != "A short companion note for the draft." {
		t.Fatalf("csv note_1 = %+v", rows)
	}
	if rows[0].Article.Fields == nil {
		t.Error("expected decomposed fields in notes mode")
	}

	notes, err := e.store.Read(storage.NotesPath("My Video", "Noted Draft"))
	if err != nil {
		t.Fatalf("notes file missing: %v", err)
	}
	if !strings.Contains(string(notes), "NOTE 1:") {
		t.Errorf("notes content = %q", notes)
	}
}

func TestGenerate_ArticleSource(t *testing.T) {
	e := newEnv(t, parse.ModeStrict)
	url := "https://blog.example.com/essay"
	e.model.reply = modelReply("Essay Draft")
	e.fetcher.res = &fetch.Result{
		ID:      "blog-example-com-essay",
		URL:     url,
		Title:   "The Essay",
		Content: draftBody,
	}

	res, err := e.svc.Generate(context.Background(), GenerateRequest{URL: url}, nil)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if e.fetcher.calls != 1 {
		t.Errorf("fetcher calls = %d, want 1", e.fetcher.calls)
	}
	if res.SourceTitle != "The Essay" || res.SourceType != models.SourceTypeArticle {
		t.Errorf("result = %+v", res)
	}
	if res.SourceID != checksum.ShortID(url) {
		t.Errorf("SourceID = %q, want url checksum", res.SourceID)
	}
}

func TestGenerate_FetchErrorPropagates(t *testing.T) {
	e := newEnv(t, parse.ModeStrict)
	e.fetcher.err = errors.New("fetch: boom")

	_, err := e.svc.Generate(context.Background(), GenerateRequest{URL: "https://blog.example.com/essay"}, nil)
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Fatalf("err = %v, want fetch error", err)
	}
}

func TestGenerate_ModelErrorPropagates(t *testing.T) {
	e := newEnv(t, parse.ModeStrict)
	e.model.err = apperr.ErrUpstream

	_, err := e.svc.Generate(context.Background(), videoRequest(), nil)
	if !errors.Is(err, apperr.ErrUpstream) {
		t.Fatalf("err = %v, want ErrUpstream", err)
	}
	if _, rerr := e.store.Read(storage.DraftPath("My Video")); rerr == nil {
		t.Error("draft file should not exist after model failure")
	}
}

func TestGenerate_SavedTranscriptFallback(t *testing.T) {
	e := newEnv(t, parse.ModeStrict)
	e.model.reply = modelReply("Recovered Draft")

	id := checksum.ShortID(videoURL)
	saved := storage.RenderTranscript("Saved Title", id, models.SourceTypeVideo, "transcript text from an earlier run")
	if err := e.store.Write(storage.TranscriptPath("Saved Title"), saved); err != nil {
		t.Fatal(err)
	}

	res, err := e.svc.Generate(context.Background(), GenerateRequest{URL: videoURL}, nil)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if res.SourceTitle != "Saved Title" {
		t.Errorf("title = %q, want saved transcript title", res.SourceTitle)
	}
}

func TestGenerate_VideoWithoutTranscriptFails(t *testing.T) {
	e := newEnv(t, parse.ModeStrict)

	_, err := e.svc.Generate(context.Background(), GenerateRequest{URL: videoURL}, nil)
	if err == nil || !strings.Contains(err.Error(), "no transcript") {
		t.Fatalf("err = %v, want no-transcript error", err)
	}
}

func TestGenerate_UnknownSourceType(t *testing.T) {
	e := newEnv(t, parse.ModeStrict)

	_, err := e.svc.Generate(context.Background(), GenerateRequest{URL: "https://x.test", SourceType: "podcast"}, nil)
	if err == nil || !strings.Contains(err.Error(), "unknown source type") {
		t.Fatalf("err = %v", err)
	}
}
