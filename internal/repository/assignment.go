package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/praxislabs/praxis/internal/domain"
)

type AssignmentRepository struct {
	db dbtx
}

func NewAssignmentRepository(pool *pgxpool.Pool) *AssignmentRepository {
	return &AssignmentRepository{db: pool}
}

func (r *AssignmentRepository) Create(ctx context.Context, a *domain.ContentAssignment) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO content_assignments (id, org_id, assignee_type, assignee_id, content_type, content_id, assignment_type, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		a.ID, a.OrgID, a.AssigneeType, a.AssigneeID, a.ContentType, a.ContentID, a.AssignmentType, a.CreatedAt,
	)
	return err
}

// ListForUser returns assignments made directly to a user.
func (r *AssignmentRepository) ListForUser(ctx context.Context, userID string) ([]*domain.ContentAssignment, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, org_id, assignee_type, assignee_id, content_type, content_id, assignment_type, created_at
		 FROM content_assignments
		 WHERE assignee_type = $1 AND assignee_id = $2`,
		domain.AssigneeUser, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAssignmentRows(rows)
}

// ListForGroups returns assignments made to any of the given groups.
func (r *AssignmentRepository) ListForGroups(ctx context.Context, groupIDs []string) ([]*domain.ContentAssignment, error) {
	if len(groupIDs) == 0 {
		return nil, nil
	}
	rows, err := r.db.Query(ctx,
		`SELECT id, org_id, assignee_type, assignee_id, content_type, content_id, assignment_type, created_at
		 FROM content_assignments
		 WHERE assignee_type = $1 AND assignee_id = ANY($2)`,
		domain.AssigneeGroup, groupIDs,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAssignmentRows(rows)
}

// ListForOrg returns organization-wide assignments.
func (r *AssignmentRepository) ListForOrg(ctx context.Context, orgID string) ([]*domain.ContentAssignment, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, org_id, assignee_type, assignee_id, content_type, content_id, assignment_type, created_at
		 FROM content_assignments
		 WHERE assignee_type = $1 AND org_id = $2`,
		domain.AssigneeOrg, orgID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAssignmentRows(rows)
}

func scanAssignmentRows(rows pgx.Rows) ([]*domain.ContentAssignment, error) {
	var results []*domain.ContentAssignment
	for rows.Next() {
		var a domain.ContentAssignment
		if err := rows.Scan(&a.ID, &a.OrgID, &a.AssigneeType, &a.AssigneeID, &a.ContentType, &a.ContentID, &a.AssignmentType, &a.CreatedAt); err != nil {
			return nil, err
		}
		results = append(results, &a)
	}
	return results, rows.Err()
}
