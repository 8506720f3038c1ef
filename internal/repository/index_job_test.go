//go:build integration

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praxislabs/praxis/internal/domain"
)

func seedIndexJob(ctx context.Context, t *testing.T, repo *IndexJobRepository, orgID, courseID string, createdAt time.Time) string {
	t.Helper()
	job := &domain.IndexJob{
		ID:        uuid.NewString(),
		OrgID:     orgID,
		CourseID:  courseID,
		Kind:      domain.IndexJobReindex,
		Status:    domain.IndexJobStatusPending,
		CreatedAt: createdAt,
	}
	require.NoError(t, repo.Create(ctx, job))
	return job.ID
}

func TestIndexJobRepository_ClaimPending(t *testing.T) {
	ctx, pool := newIntegrationPool(t)
	repo := NewIndexJobRepository(pool)

	first := seedIndexJob(ctx, t, repo, uuid.NewString(), uuid.NewString(), utcNow().Add(-time.Minute))
	second := seedIndexJob(ctx, t, repo, uuid.NewString(), uuid.NewString(), utcNow())

	jobs, err := repo.ClaimPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, first, jobs[0].ID)
	assert.Equal(t, second, jobs[1].ID)
	assert.Equal(t, domain.IndexJobStatusProcessing, jobs[0].Status)

	// Claimed jobs are not claimable again.
	jobs, err = repo.ClaimPending(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, jobs)
}

func TestIndexJobRepository_ClaimPending_HonorsLimit(t *testing.T) {
	ctx, pool := newIntegrationPool(t)
	repo := NewIndexJobRepository(pool)

	for i := 0; i < 3; i++ {
		seedIndexJob(ctx, t, repo, uuid.NewString(), uuid.NewString(), utcNow().Add(time.Duration(i)*time.Second))
	}

	jobs, err := repo.ClaimPending(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, jobs, 2)

	jobs, err = repo.ClaimPending(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, jobs, 1)
}

func TestIndexJobRepository_UpdateStatus(t *testing.T) {
	ctx, pool := newIntegrationPool(t)
	repo := NewIndexJobRepository(pool)

	jobID := seedIndexJob(ctx, t, repo, uuid.NewString(), uuid.NewString(), utcNow())

	require.NoError(t, repo.UpdateStatus(ctx, jobID, domain.IndexJobStatusCompleted, ""))

	var status string
	var lastError *string
	var processedAt *time.Time
	err := pool.QueryRow(ctx,
		`SELECT status, last_error, processed_at FROM index_jobs WHERE id = $1`, jobID,
	).Scan(&status, &lastError, &processedAt)
	require.NoError(t, err)
	assert.Equal(t, string(domain.IndexJobStatusCompleted), status)
	assert.Nil(t, lastError)
	require.NotNil(t, processedAt)
}

func TestIndexJobRepository_UpdateStatus_FailedRecordsError(t *testing.T) {
	ctx, pool := newIntegrationPool(t)
	repo := NewIndexJobRepository(pool)

	jobID := seedIndexJob(ctx, t, repo, uuid.NewString(), uuid.NewString(), utcNow())

	require.NoError(t, repo.UpdateStatus(ctx, jobID, domain.IndexJobStatusFailed, "embed quota exceeded"))

	var lastError *string
	var processedAt *time.Time
	err := pool.QueryRow(ctx,
		`SELECT last_error, processed_at FROM index_jobs WHERE id = $1`, jobID,
	).Scan(&lastError, &processedAt)
	require.NoError(t, err)
	require.NotNil(t, lastError)
	assert.Equal(t, "embed quota exceeded", *lastError)
	assert.NotNil(t, processedAt)
}

func TestIndexJobRepository_Requeue(t *testing.T) {
	ctx, pool := newIntegrationPool(t)
	repo := NewIndexJobRepository(pool)

	jobID := seedIndexJob(ctx, t, repo, uuid.NewString(), uuid.NewString(), utcNow())

	claimed, err := repo.ClaimPending(ctx, 1)
	require.NoError(t, err)
	require.Len(t, claimed, 1)

	require.NoError(t, repo.Requeue(ctx, jobID, "transient failure"))

	jobs, err := repo.ClaimPending(ctx, 1)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, jobID, jobs[0].ID)
	assert.Equal(t, 1, jobs[0].Retries)
	assert.Equal(t, "transient failure", jobs[0].Error)
}

func TestIndexJobRepository_CountByStatus(t *testing.T) {
	ctx, pool := newIntegrationPool(t)
	repo := NewIndexJobRepository(pool)

	seedIndexJob(ctx, t, repo, uuid.NewString(), uuid.NewString(), utcNow())
	jobID := seedIndexJob(ctx, t, repo, uuid.NewString(), uuid.NewString(), utcNow())
	require.NoError(t, repo.UpdateStatus(ctx, jobID, domain.IndexJobStatusFailed, "boom"))

	pending, err := repo.CountByStatus(ctx, domain.IndexJobStatusPending)
	require.NoError(t, err)
	assert.Equal(t, 1, pending)

	failed, err := repo.CountByStatus(ctx, domain.IndexJobStatusFailed)
	require.NoError(t, err)
	assert.Equal(t, 1, failed)
}
