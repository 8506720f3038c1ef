package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/praxislabs/praxis/internal/domain"
)

type IndexJobRepository struct {
	db dbtx
}

func NewIndexJobRepository(pool *pgxpool.Pool) *IndexJobRepository {
	return &IndexJobRepository{db: pool}
}

func (r *IndexJobRepository) Create(ctx context.Context, job *domain.IndexJob) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO index_jobs (id, org_id, course_id, kind, status, retry_count, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		job.ID, job.OrgID, job.CourseID, job.Kind, job.Status, job.Retries, job.CreatedAt,
	)
	return err
}

// ClaimPending atomically moves up to limit pending jobs into processing
// and returns them. Concurrent workers never claim the same job.
func (r *IndexJobRepository) ClaimPending(ctx context.Context, limit int) ([]domain.IndexJob, error) {
	rows, err := r.db.Query(ctx,
		`WITH claimable AS (
			SELECT id FROM index_jobs
			WHERE status = $1
			ORDER BY created_at
			FOR UPDATE SKIP LOCKED
			LIMIT $2
		 )
		 UPDATE index_jobs SET status = $3
		 WHERE id IN (SELECT id FROM claimable)
		 RETURNING id, org_id, course_id, kind, status, retry_count, last_error, created_at, processed_at`,
		domain.IndexJobStatusPending, limit, domain.IndexJobStatusProcessing,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []domain.IndexJob
	for rows.Next() {
		var job domain.IndexJob
		var lastError *string
		if err := rows.Scan(&job.ID, &job.OrgID, &job.CourseID, &job.Kind, &job.Status,
			&job.Retries, &lastError, &job.CreatedAt, &job.ProcessedAt); err != nil {
			return nil, err
		}
		if lastError != nil {
			job.Error = *lastError
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

func (r *IndexJobRepository) UpdateStatus(ctx context.Context, jobID string, status domain.IndexJobStatus, lastError string) error {
	var processedAt *time.Time
	if status == domain.IndexJobStatusCompleted || status == domain.IndexJobStatusFailed {
		now := time.Now().UTC()
		processedAt = &now
	}
	_, err := r.db.Exec(ctx,
		`UPDATE index_jobs SET status = $2, last_error = $3, processed_at = $4 WHERE id = $1`,
		jobID, status, nullableString(lastError), processedAt,
	)
	return err
}

// Requeue puts a failed attempt back into pending with an incremented
// retry counter.
func (r *IndexJobRepository) Requeue(ctx context.Context, jobID string, lastError string) error {
	_, err := r.db.Exec(ctx,
		`UPDATE index_jobs
		 SET status = $2, retry_count = retry_count + 1, last_error = $3
		 WHERE id = $1`,
		jobID, domain.IndexJobStatusPending, nullableString(lastError),
	)
	return err
}

func (r *IndexJobRepository) CountByStatus(ctx context.Context, status domain.IndexJobStatus) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM index_jobs WHERE status = $1`, status,
	).Scan(&count)
	return count, err
}
