package jobs

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/leafmark/leafmark/app/database"
)

// Enqueuer persists a job row and pushes its id onto the queue. The row is
// written before the push so a popped id always has a loadable payload.
type Enqueuer struct {
	queue *Queue
	jobs  database.JobStore
}

func NewEnqueuer(queue *Queue, jobs database.JobStore) *Enqueuer {
	return &Enqueuer{
		queue: queue,
		jobs:  jobs,
	}
}

func (e *Enqueuer) Enqueue(jobType string, payload any, groupID string) (*database.Job, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal job payload: %w", err)
	}

	job := database.Job{
		ID:        uuid.NewString(),
		JobType:   jobType,
		Data:      data,
		Status:    database.JobStatusPending,
		GroupID:   groupID,
		CreatedAt: time.Now().UTC(),
	}

	if err := e.jobs.SaveJob(job); err != nil {
		return nil, fmt.Errorf("failed to save job: %w", err)
	}

	if err := e.queue.Push(job.ID); err != nil {
		return nil, fmt.Errorf("failed to push job %s: %w", job.ID, err)
	}

	return &job, nil
}
