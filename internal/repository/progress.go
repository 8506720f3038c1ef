package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ProgressAggregate is the per-user learning aggregate consumed by
// team reports.
type ProgressAggregate struct {
	TotalMinutes     int
	CompletedCourses int
	LastActivity     time.Time
}

type ProgressRepository struct {
	db dbtx
}

func NewProgressRepository(pool *pgxpool.Pool) *ProgressRepository {
	return &ProgressRepository{db: pool}
}

// AggregateByUsers returns learning totals for the given user ids.
// Users with no progress rows are absent from the result.
func (r *ProgressRepository) AggregateByUsers(ctx context.Context, userIDs []string) (map[string]ProgressAggregate, error) {
	aggregates := make(map[string]ProgressAggregate)
	if len(userIDs) == 0 {
		return aggregates, nil
	}

	rows, err := r.db.Query(ctx,
		`SELECT user_id,
		        COALESCE(SUM(minutes), 0),
		        COUNT(*) FILTER (WHERE completed),
		        MAX(updated_at)
		 FROM progress_records WHERE user_id = ANY($1) GROUP BY user_id`,
		userIDs,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var userID string
		var agg ProgressAggregate
		if err := rows.Scan(&userID, &agg.TotalMinutes, &agg.CompletedCourses, &agg.LastActivity); err != nil {
			return nil, err
		}
		aggregates[userID] = agg
	}
	return aggregates, rows.Err()
}
