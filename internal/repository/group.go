package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/praxislabs/praxis/internal/domain"
)

type GroupRepository struct {
	db dbtx
}

func NewGroupRepository(pool *pgxpool.Pool) *GroupRepository {
	return &GroupRepository{db: pool}
}

func (r *GroupRepository) GetByID(ctx context.Context, id string) (*domain.Group, error) {
	var g domain.Group
	var rule *string
	err := r.db.QueryRow(ctx,
		`SELECT id, org_id, name, is_dynamic, rule, created_at
		 FROM groups WHERE id = $1`,
		id,
	).Scan(&g.ID, &g.OrgID, &g.Name, &g.IsDynamic, &rule, &g.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrGroupNotFound
		}
		return nil, err
	}
	if rule != nil {
		g.Rule = *rule
	}
	return &g, nil
}

// ListGroupIDsForUser returns ids of static groups the user belongs to.
func (r *GroupRepository) ListGroupIDsForUser(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.db.Query(ctx,
		`SELECT group_id FROM group_members WHERE user_id = $1`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListMemberIDs returns user ids with static membership rows in a group.
func (r *GroupRepository) ListMemberIDs(ctx context.Context, groupID string) ([]string, error) {
	rows, err := r.db.Query(ctx,
		`SELECT user_id FROM group_members WHERE group_id = $1`,
		groupID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
