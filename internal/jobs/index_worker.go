package jobs

import (
	"context"
	"fmt"
	"log"

	"github.com/praxislabs/praxis/internal/domain"
	"github.com/praxislabs/praxis/internal/service"
)

const (
	// MaxRetries is the maximum number of attempts for a failed job
	MaxRetries = 3

	// claimBatchSize bounds how many jobs one poll claims
	claimBatchSize = 10
)

// IndexJobRepository defines the interface for index job persistence
type IndexJobRepository interface {
	// ClaimPending claims up to limit pending jobs for this worker
	ClaimPending(ctx context.Context, limit int) ([]domain.IndexJob, error)

	// UpdateStatus records a job's terminal or intermediate status
	UpdateStatus(ctx context.Context, jobID string, status domain.IndexJobStatus, errMsg string) error

	// Requeue returns a failed attempt to pending with an incremented
	// retry count
	Requeue(ctx context.Context, jobID string, errMsg string) error
}

// Indexer defines the index maintenance operations the worker drives
type Indexer interface {
	Reindex(ctx context.Context, orgID, courseID string) (*service.ReindexResult, error)
	Delete(ctx context.Context, courseID string) (*service.DeleteResult, error)
}

// IndexWorker drains the index job queue, regenerating or removing
// course index records as publish and unpublish actions demand.
type IndexWorker struct {
	repo    IndexJobRepository
	indexer Indexer
}

// NewIndexWorker creates a new IndexWorker instance
func NewIndexWorker(repo IndexJobRepository, indexer Indexer) *IndexWorker {
	return &IndexWorker{
		repo:    repo,
		indexer: indexer,
	}
}

// ProcessJobs implements the JobProcessor interface
func (w *IndexWorker) ProcessJobs(ctx context.Context) error {
	jobs, err := w.repo.ClaimPending(ctx, claimBatchSize)
	if err != nil {
		return fmt.Errorf("failed to claim pending jobs: %w", err)
	}
	if len(jobs) == 0 {
		return nil
	}

	log.Printf("Processing %d pending index jobs", len(jobs))

	for _, job := range jobs {
		if err := w.processJob(ctx, job); err != nil {
			log.Printf("Error processing job %s: %v", job.ID, err)
		}
	}
	return nil
}

func (w *IndexWorker) processJob(ctx context.Context, job domain.IndexJob) error {
	var err error
	switch job.Kind {
	case domain.IndexJobReindex:
		log.Printf("Processing job %s: reindex course %s", job.ID, job.CourseID)
		_, err = w.indexer.Reindex(ctx, job.OrgID, job.CourseID)
	case domain.IndexJobDelete:
		log.Printf("Processing job %s: delete index for course %s", job.ID, job.CourseID)
		_, err = w.indexer.Delete(ctx, job.CourseID)
	default:
		// An unknown kind can never succeed; fail it outright.
		return w.repo.UpdateStatus(ctx, job.ID, domain.IndexJobStatusFailed,
			fmt.Sprintf("unknown job kind %q", job.Kind))
	}

	if err != nil {
		return w.handleJobFailure(ctx, job, err)
	}

	if err := w.repo.UpdateStatus(ctx, job.ID, domain.IndexJobStatusCompleted, ""); err != nil {
		return fmt.Errorf("failed to update job status to completed: %w", err)
	}

	log.Printf("Job %s completed successfully", job.ID)
	return nil
}

// handleJobFailure requeues a failed job until its retries run out.
func (w *IndexWorker) handleJobFailure(ctx context.Context, job domain.IndexJob, jobErr error) error {
	log.Printf("Job %s failed: %v", job.ID, jobErr)

	if job.Retries+1 >= MaxRetries {
		log.Printf("Job %s exceeded max retries (%d), marking as failed", job.ID, MaxRetries)
		errMsg := fmt.Sprintf("max retries exceeded: %v", jobErr)
		if err := w.repo.UpdateStatus(ctx, job.ID, domain.IndexJobStatusFailed, errMsg); err != nil {
			return fmt.Errorf("failed to update job status to failed: %w", err)
		}
		return nil
	}

	log.Printf("Job %s will be retried (attempt %d/%d)", job.ID, job.Retries+1, MaxRetries)
	errMsg := fmt.Sprintf("retry %d: %v", job.Retries+1, jobErr)
	if err := w.repo.Requeue(ctx, job.ID, errMsg); err != nil {
		return fmt.Errorf("failed to requeue job: %w", err)
	}
	return nil
}
