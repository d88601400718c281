package studio

import (
	"context"
	"log/slog"

	"github.com/marlowe/inkwell/internal/jobs"
	"github.com/marlowe/inkwell/internal/sse"
)

// RunJob executes one generation run under a tracked job, mirroring its
// lifecycle into the job store and the event stream. Intended to run in
// its own goroutine; the context should outlive the HTTP request that
// queued the job.
func RunJob(ctx context.Context, svc *Service, store *jobs.Store, broker *sse.Broker, jobID string, req GenerateRequest) {
	store.SetRunning(jobID)
	broker.PublishJobEvent("running", jobID, nil)

	progress := func(msg string) {
		store.Progress(jobID, msg)
		broker.PublishJobEvent("progress", jobID, map[string]any{"message": msg})
	}

	res, err := svc.Generate(ctx, req, progress)
	if err != nil {
		store.Fail(jobID, err.Error())
		broker.PublishJobEvent("failed", jobID, map[string]any{"error": err.Error()})
		svc.logger.Error("studio: generation failed", slog.String("job_id", jobID), slog.String("url", req.URL), slog.String("error", err.Error()))
		return
	}

	store.Complete(jobID, jobs.Result{
		SourceID:    res.SourceID,
		SourceTitle: res.SourceTitle,
		SourceType:  res.SourceType,
		File:        res.File,
		Count:       res.Count,
	})
	broker.PublishJobEvent("completed", jobID, map[string]any{
		"source_id": res.SourceID,
		"count":     res.Count,
	})
	svc.logger.Info("studio: generation completed",
		slog.String("job_id", jobID),
		slog.String("source_id", res.SourceID),
		slog.Int("count", res.Count))
}
