package database

import (
	"database/sql"
	"fmt"
	"time"
)

var _ JobStore = (*JobRepository)(nil)

// JobRepository handles database operations for background jobs
type JobRepository struct {
	db *DB
}

func NewJobRepository(db *DB) *JobRepository {
	return &JobRepository{db: db}
}

func (r *JobRepository) SaveJob(job Job) error {
	var groupID any
	if job.GroupID != "" {
		groupID = job.GroupID
	}

	_, err := r.db.Exec(`
		INSERT INTO jobs (id, job_type, data, status, group_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, job.ID, job.JobType, string(job.Data), job.Status, groupID, job.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to save job: %w", mapConstraintError(err))
	}

	return nil
}

func (r *JobRepository) GetJob(id string) (*Job, error) {
	var job Job
	var data string
	var groupID, message sql.NullString
	var completedAt sql.NullTime

	err := r.db.QueryRow(`
		SELECT id, job_type, data, status, group_id, message, created_at, completed_at
		FROM jobs
		WHERE id = ?
	`, id).Scan(&job.ID, &job.JobType, &data, &job.Status, &groupID, &message,
		&job.CreatedAt, &completedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	job.Data = []byte(data)
	job.GroupID = groupID.String
	job.Message = message.String
	if completedAt.Valid {
		t := completedAt.Time
		job.CompletedAt = &t
	}

	return &job, nil
}

func (r *JobRepository) CompleteJob(id string, completedAt time.Time) error {
	return r.finishJob(id, JobStatusCompleted, "", completedAt)
}

func (r *JobRepository) FailJob(id string, message string, completedAt time.Time) error {
	return r.finishJob(id, JobStatusFailed, message, completedAt)
}

func (r *JobRepository) finishJob(id string, status JobStatus, message string, completedAt time.Time) error {
	var msg any
	if message != "" {
		msg = message
	}

	res, err := r.db.Exec(`
		UPDATE jobs
		SET status = ?, message = ?, completed_at = ?
		WHERE id = ?
	`, status, msg, completedAt.UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to finish job: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *JobRepository) DeleteJob(id string) error {
	_, err := r.db.Exec(`DELETE FROM jobs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete job: %w", err)
	}
	return nil
}

func (r *JobRepository) GetJobCounts() (map[JobStatus]int, error) {
	rows, err := r.db.Query(`SELECT status, COUNT(*) FROM jobs GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to get job counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[JobStatus]int)
	for rows.Next() {
		var status JobStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan job count row: %w", err)
		}
		counts[status] = count
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating job count rows: %w", err)
	}

	return counts, nil
}
