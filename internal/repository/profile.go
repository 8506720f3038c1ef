package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/praxislabs/praxis/internal/domain"
)

type ProfileRepository struct {
	db dbtx
}

func NewProfileRepository(pool *pgxpool.Pool) *ProfileRepository {
	return &ProfileRepository{db: pool}
}

func (r *ProfileRepository) Create(ctx context.Context, p *domain.Profile) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO profiles (id, org_id, full_name, role, insights, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		p.ID, p.OrgID, p.FullName, p.Role, p.Insights, p.CreatedAt, p.UpdatedAt,
	)
	return err
}

func (r *ProfileRepository) GetByID(ctx context.Context, id string) (*domain.Profile, error) {
	var p domain.Profile
	err := r.db.QueryRow(ctx,
		`SELECT id, org_id, full_name, role, insights, created_at, updated_at
		 FROM profiles WHERE id = $1`,
		id,
	).Scan(&p.ID, &p.OrgID, &p.FullName, &p.Role, &p.Insights, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrProfileNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *ProfileRepository) ListByOrg(ctx context.Context, orgID string) ([]*domain.Profile, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, org_id, full_name, role, insights, created_at, updated_at
		 FROM profiles WHERE org_id = $1 ORDER BY full_name ASC`,
		orgID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var profiles []*domain.Profile
	for rows.Next() {
		var p domain.Profile
		if err := rows.Scan(&p.ID, &p.OrgID, &p.FullName, &p.Role, &p.Insights, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		profiles = append(profiles, &p)
	}
	return profiles, rows.Err()
}

// UpdateInsights replaces the insight list for a profile. The list is
// append-only at the service level; this just persists the new state.
func (r *ProfileRepository) UpdateInsights(ctx context.Context, id string, insights []string) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE profiles SET insights = $1, updated_at = $2 WHERE id = $3`,
		insights, time.Now().UTC(), id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrProfileNotFound
	}
	return nil
}
