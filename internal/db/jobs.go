package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

const jobColumns = `id, store_id, job_kind, status, progress, total_items,
	items_processed, error_message, started_at, completed_at, created_at`

// CreateExtractionJob creates a new extraction job record
func (db *DB) CreateExtractionJob(ctx context.Context, job *ExtractionJob) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	job.CreatedAt = time.Now().UTC()
	if job.JobKind == "" {
		job.JobKind = "full"
	}
	if job.Status == "" {
		job.Status = JobStatusPending
	}

	query := `
		INSERT INTO extraction_jobs (id, store_id, job_kind, status, progress,
			total_items, items_processed, error_message, started_at, completed_at,
			created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := db.ExecContext(ctx, query,
		job.ID,
		job.StoreID,
		job.JobKind,
		job.Status,
		job.Progress,
		job.TotalItems,
		job.ItemsProcessed,
		job.ErrorMessage,
		job.StartedAt,
		job.CompletedAt,
		job.CreatedAt,
	)
	return err
}

func scanJob(row *sql.Row) (*ExtractionJob, error) {
	job := &ExtractionJob{}
	err := row.Scan(
		&job.ID,
		&job.StoreID,
		&job.JobKind,
		&job.Status,
		&job.Progress,
		&job.TotalItems,
		&job.ItemsProcessed,
		&job.ErrorMessage,
		&job.StartedAt,
		&job.CompletedAt,
		&job.CreatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return job, nil
}

// GetExtractionJob retrieves a job by ID
func (db *DB) GetExtractionJob(ctx context.Context, id string) (*ExtractionJob, error) {
	query := `SELECT ` + jobColumns + ` FROM extraction_jobs WHERE id = ?`
	return scanJob(db.QueryRowContext(ctx, query, id))
}

// LatestExtractionJob retrieves the most recently created job for a store
func (db *DB) LatestExtractionJob(ctx context.Context, storeID string) (*ExtractionJob, error) {
	query := `
		SELECT ` + jobColumns + `
		FROM extraction_jobs
		WHERE store_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`
	return scanJob(db.QueryRowContext(ctx, query, storeID))
}

// ListExtractionJobs retrieves job history for a store, newest first
func (db *DB) ListExtractionJobs(ctx context.Context, storeID string, limit int) ([]ExtractionJob, error) {
	query := `
		SELECT ` + jobColumns + `
		FROM extraction_jobs
		WHERE store_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`

	rows, err := db.QueryContext(ctx, query, storeID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []ExtractionJob
	for rows.Next() {
		var job ExtractionJob
		err := rows.Scan(
			&job.ID,
			&job.StoreID,
			&job.JobKind,
			&job.Status,
			&job.Progress,
			&job.TotalItems,
			&job.ItemsProcessed,
			&job.ErrorMessage,
			&job.StartedAt,
			&job.CompletedAt,
			&job.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	if jobs == nil {
		jobs = []ExtractionJob{}
	}

	return jobs, nil
}

// MarkJobStarted transitions a pending job into the processing state
func (db *DB) MarkJobStarted(ctx context.Context, id string, when time.Time) error {
	query := `
		UPDATE extraction_jobs
		SET status = ?, started_at = ?
		WHERE id = ?
	`

	result, err := db.ExecContext(ctx, query, JobStatusProcessing, when, id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// UpdateJobCounts updates the progress counters of a running job
func (db *DB) UpdateJobCounts(ctx context.Context, id string, itemsProcessed, totalItems, progress int) error {
	query := `
		UPDATE extraction_jobs
		SET items_processed = ?, total_items = ?, progress = ?
		WHERE id = ?
	`

	result, err := db.ExecContext(ctx, query, itemsProcessed, totalItems, progress, id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// MarkJobCompleted transitions a job into its successful terminal state
func (db *DB) MarkJobCompleted(ctx context.Context, id string, when time.Time) error {
	query := `
		UPDATE extraction_jobs
		SET status = ?, progress = 100, completed_at = ?
		WHERE id = ?
	`

	result, err := db.ExecContext(ctx, query, JobStatusCompleted, when, id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// MarkJobFailed transitions a job into its failed terminal state
func (db *DB) MarkJobFailed(ctx context.Context, id string, when time.Time, message string) error {
	query := `
		UPDATE extraction_jobs
		SET status = ?, error_message = ?, completed_at = ?
		WHERE id = ?
	`

	result, err := db.ExecContext(ctx, query, JobStatusFailed, message, when, id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}

	return nil
}
