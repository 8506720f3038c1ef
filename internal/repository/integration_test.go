//go:build integration

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/praxislabs/praxis/internal/domain"
	"github.com/praxislabs/praxis/internal/testutil"
)

// newIntegrationPool starts a dedicated Postgres container, migrates
// it, and returns a connected pool. Containers are per-test so tests
// never see each other's rows.
func newIntegrationPool(t *testing.T) (context.Context, *pgxpool.Pool) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	t.Cleanup(func() { pc.Terminate(ctx) })

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	t.Cleanup(pool.Close)
	return ctx, pool
}

func seedOrg(ctx context.Context, t *testing.T, pool *pgxpool.Pool) string {
	t.Helper()
	id := uuid.NewString()
	_, err := pool.Exec(ctx,
		`INSERT INTO organizations (id, name) VALUES ($1, $2)`, id, "org-"+id[:8])
	if err != nil {
		t.Fatalf("seed org: %v", err)
	}
	return id
}

func seedCourse(ctx context.Context, t *testing.T, pool *pgxpool.Pool, orgID, title string, status domain.CourseStatus) string {
	t.Helper()
	id := uuid.NewString()
	_, err := pool.Exec(ctx,
		`INSERT INTO courses (id, org_id, title, status) VALUES ($1, $2, $3, $4)`,
		id, orgID, title, status)
	if err != nil {
		t.Fatalf("seed course: %v", err)
	}
	return id
}

func seedProfile(ctx context.Context, t *testing.T, pool *pgxpool.Pool, orgID, name string, role domain.Role) string {
	t.Helper()
	id := uuid.NewString()
	_, err := pool.Exec(ctx,
		`INSERT INTO profiles (id, org_id, full_name, role) VALUES ($1, $2, $3, $4)`,
		id, orgID, name, role)
	if err != nil {
		t.Fatalf("seed profile: %v", err)
	}
	return id
}

// utcNow truncates to microseconds to match Postgres timestamp
// resolution on round trips.
func utcNow() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
