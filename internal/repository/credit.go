package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

type CreditRepository struct {
	db dbtx
}

func NewCreditRepository(pool *pgxpool.Pool) *CreditRepository {
	return &CreditRepository{db: pool}
}

// SumByUsers returns summed ledger amounts for the given user ids.
// Users without ledger entries are absent from the result.
func (r *CreditRepository) SumByUsers(ctx context.Context, userIDs []string) (map[string]float64, error) {
	sums := make(map[string]float64)
	if len(userIDs) == 0 {
		return sums, nil
	}

	rows, err := r.db.Query(ctx,
		`SELECT user_id, COALESCE(SUM(amount), 0)
		 FROM credit_ledger WHERE user_id = ANY($1) GROUP BY user_id`,
		userIDs,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var userID string
		var sum float64
		if err := rows.Scan(&userID, &sum); err != nil {
			return nil, err
		}
		sums[userID] = sum
	}
	return sums, rows.Err()
}
