package repository

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	"github.com/praxislabs/praxis/internal/domain"
)

// EmbeddingSearchResult is one similarity hit from the tenant index.
type EmbeddingSearchResult struct {
	ID         string
	SourceID   string
	CourseID   string
	Content    string
	Similarity float32
}

// EmbeddingRepository persists chunk-level vector records. Records are
// only ever inserted or deleted wholesale per course, never updated.
type EmbeddingRepository struct {
	db dbtx
}

func NewEmbeddingRepository(pool *pgxpool.Pool) *EmbeddingRepository {
	return &EmbeddingRepository{db: pool}
}

func NewEmbeddingRepositoryWithTx(tx dbtx) *EmbeddingRepository {
	return &EmbeddingRepository{db: tx}
}

func (r *EmbeddingRepository) Insert(ctx context.Context, e *domain.CourseEmbedding) error {
	metadata, err := json.Marshal(e.Metadata)
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx,
		`INSERT INTO course_embeddings
			(id, source_type, source_id, org_id, course_id, collection_id, user_id, content, embedding, metadata, created_at)
		 VALUES
			($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		e.ID,
		e.SourceType,
		e.SourceID,
		e.OrgID,
		nullableString(e.CourseID),
		nullableString(e.CollectionID),
		nullableString(e.UserID),
		e.Content,
		pgvector.NewVector(e.Embedding),
		metadata,
		e.CreatedAt,
	)
	return err
}

// DeleteByCourse removes every org_course record for a course,
// regardless of chunk granularity. Returns the number deleted.
func (r *EmbeddingRepository) DeleteByCourse(ctx context.Context, courseID string) (int64, error) {
	cmdTag, err := r.db.Exec(ctx,
		`DELETE FROM course_embeddings WHERE source_type = $1 AND course_id = $2`,
		domain.EmbeddingSourceOrgCourse, courseID,
	)
	if err != nil {
		return 0, err
	}
	return cmdTag.RowsAffected(), nil
}

func (r *EmbeddingRepository) CountByCourse(ctx context.Context, orgID, courseID string) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM course_embeddings
		 WHERE source_type = $1 AND org_id = $2 AND course_id = $3`,
		domain.EmbeddingSourceOrgCourse, orgID, courseID,
	).Scan(&count)
	return count, err
}

// SearchByOrg runs cosine similarity over the organization's records.
// Results never cross the org boundary; courseID narrows to one course
// when set.
func (r *EmbeddingRepository) SearchByOrg(ctx context.Context, orgID string, embedding []float32, courseID string, limit int) ([]*EmbeddingSearchResult, error) {
	if limit <= 0 {
		limit = 5
	}

	vec := pgvector.NewVector(embedding)

	query := `
		SELECT id, source_id, course_id, content,
		       1.0 / (1.0 + (embedding <=> $1)) AS similarity
		FROM course_embeddings
		WHERE org_id = $2`
	args := []any{vec, orgID}

	if courseID != "" {
		query += ` AND course_id = $3`
		args = append(args, courseID)
	}

	query += ` ORDER BY similarity DESC LIMIT $` + strconv.Itoa(len(args)+1)
	args = append(args, limit)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanEmbeddingResults(rows)
}

func scanEmbeddingResults(rows pgx.Rows) ([]*EmbeddingSearchResult, error) {
	results := make([]*EmbeddingSearchResult, 0)
	for rows.Next() {
		var res EmbeddingSearchResult
		var courseID *string
		if err := rows.Scan(&res.ID, &res.SourceID, &courseID, &res.Content, &res.Similarity); err != nil {
			return nil, err
		}
		if courseID != nil {
			res.CourseID = *courseID
		}
		results = append(results, &res)
	}
	return results, rows.Err()
}
