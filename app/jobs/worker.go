package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/leafmark/leafmark/app/database"
)

const (
	JobTypeScrapeFeed       = "scrape_feed"
	JobTypeScrapeBookmark   = "scrape_bookmark"
	JobTypeArchiveThumbnail = "archive_thumbnail"
	JobTypeImportFeeds      = "import_feeds"
)

// Handler executes one job. Handlers are independent service-shaped units;
// the worker loop stays agnostic to how many job types exist.
type Handler interface {
	Run(ctx context.Context, job *database.Job) error
}

type HandlerFunc func(ctx context.Context, job *database.Job) error

func (f HandlerFunc) Run(ctx context.Context, job *database.Job) error {
	return f(ctx, job)
}

// Worker drains the queue, dispatches each job to the handler registered for
// its type and records the terminal status. Handler errors never unwind past
// the loop; their message is stored verbatim on the job. Failed is terminal:
// there is no automatic retry.
type Worker struct {
	queue    *Queue
	jobs     database.JobStore
	handlers map[string]Handler
}

func NewWorker(queue *Queue, jobs database.JobStore) *Worker {
	return &Worker{
		queue:    queue,
		jobs:     jobs,
		handlers: make(map[string]Handler),
	}
}

func (w *Worker) Register(jobType string, handler Handler) {
	w.handlers[jobType] = handler
}

// Run consumes the queue until it closes or ctx is cancelled. Safe to run
// from multiple goroutines sharing one Worker.
func (w *Worker) Run(ctx context.Context) {
	for {
		id, ok := w.queue.Pop(ctx)
		if !ok {
			return
		}
		w.handle(ctx, id)
	}
}

func (w *Worker) handle(ctx context.Context, id string) {
	started := time.Now()

	job, err := w.jobs.GetJob(id)
	if err != nil {
		slog.Error("Failed to load job", "job_id", id, "error", err)
		return
	}

	if job.Status != database.JobStatusPending {
		slog.Warn("Skipping job in non-pending state", "job_id", id, "status", job.Status)
		return
	}

	handlerErr := w.dispatch(ctx, job)

	if handlerErr != nil {
		slog.Error("Job failed", "job_id", id, "type", job.JobType, "duration", time.Since(started), "error", handlerErr)
		if err := w.jobs.FailJob(id, handlerErr.Error(), time.Now().UTC()); err != nil {
			slog.Error("Failed to record job failure", "job_id", id, "error", err)
		}
		return
	}

	slog.Info("Job completed", "job_id", id, "type", job.JobType, "duration", time.Since(started))
	if err := w.jobs.CompleteJob(id, time.Now().UTC()); err != nil {
		slog.Error("Failed to record job completion", "job_id", id, "error", err)
	}
}

func (w *Worker) dispatch(ctx context.Context, job *database.Job) error {
	handler, ok := w.handlers[job.JobType]
	if !ok {
		return fmt.Errorf("no handler registered for job type %q", job.JobType)
	}
	return handler.Run(ctx, job)
}
