package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/praxislabs/praxis/internal/domain"
)

type CollectionRepository struct {
	db dbtx
}

func NewCollectionRepository(pool *pgxpool.Pool) *CollectionRepository {
	return &CollectionRepository{db: pool}
}

// GetWithItems fetches a collection and its ordered items.
func (r *CollectionRepository) GetWithItems(ctx context.Context, id string) (*domain.Collection, error) {
	var col domain.Collection
	err := r.db.QueryRow(ctx,
		`SELECT id, org_id, title, description, created_at
		 FROM collections WHERE id = $1`,
		id,
	).Scan(&col.ID, &col.OrgID, &col.Title, &col.Description, &col.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCollectionNotFound
		}
		return nil, err
	}

	rows, err := r.db.Query(ctx,
		`SELECT collection_id, item_type, item_id, position
		 FROM collection_items WHERE collection_id = $1 ORDER BY position ASC`,
		id,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var item domain.CollectionItem
		if err := rows.Scan(&item.CollectionID, &item.ItemType, &item.ItemID, &item.Position); err != nil {
			return nil, err
		}
		col.Items = append(col.Items, &item)
	}
	return &col, rows.Err()
}
