package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/praxislabs/praxis/internal/domain"
)

type ResourceRepository struct {
	db dbtx
}

func NewResourceRepository(pool *pgxpool.Pool) *ResourceRepository {
	return &ResourceRepository{db: pool}
}

func (r *ResourceRepository) GetByID(ctx context.Context, id string) (*domain.Resource, error) {
	var res domain.Resource
	var url *string
	err := r.db.QueryRow(ctx,
		`SELECT id, org_id, title, description, author_name, url, created_at
		 FROM resources WHERE id = $1`,
		id,
	).Scan(&res.ID, &res.OrgID, &res.Title, &res.Description, &res.AuthorName, &url, &res.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrResourceNotFound
		}
		return nil, err
	}
	if url != nil {
		res.URL = *url
	}
	return &res, nil
}
