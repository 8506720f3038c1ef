package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/praxislabs/praxis/internal/domain"
	"github.com/praxislabs/praxis/internal/pagination"
)

type CoursePageResult struct {
	Items      []*domain.Course
	NextCursor string
	HasMore    bool
}

type CourseRepository struct {
	db dbtx
}

func NewCourseRepository(pool *pgxpool.Pool) *CourseRepository {
	return &CourseRepository{db: pool}
}

func NewCourseRepositoryWithTx(tx pgx.Tx) *CourseRepository {
	return &CourseRepository{db: tx}
}

func (r *CourseRepository) Create(ctx context.Context, c *domain.Course) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO courses (id, org_id, title, description, category, author_name, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		c.ID, c.OrgID, c.Title, c.Description, c.Category, c.AuthorName, c.Status, c.CreatedAt, c.UpdatedAt,
	)
	return err
}

func (r *CourseRepository) GetByID(ctx context.Context, id string) (*domain.Course, error) {
	var c domain.Course
	err := r.db.QueryRow(ctx,
		`SELECT id, org_id, title, description, category, author_name, status, created_at, updated_at
		 FROM courses WHERE id = $1`,
		id,
	).Scan(&c.ID, &c.OrgID, &c.Title, &c.Description, &c.Category, &c.AuthorName, &c.Status, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCourseNotFound
		}
		return nil, err
	}
	return &c, nil
}

// GetHierarchy fetches a course with its modules and lessons in position order.
func (r *CourseRepository) GetHierarchy(ctx context.Context, id string) (*domain.Course, error) {
	course, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	moduleRows, err := r.db.Query(ctx,
		`SELECT id, course_id, title, description, position
		 FROM course_modules WHERE course_id = $1 ORDER BY position ASC`,
		id,
	)
	if err != nil {
		return nil, err
	}
	defer moduleRows.Close()

	byID := make(map[string]*domain.Module)
	for moduleRows.Next() {
		var m domain.Module
		if err := moduleRows.Scan(&m.ID, &m.CourseID, &m.Title, &m.Description, &m.Position); err != nil {
			return nil, err
		}
		course.Modules = append(course.Modules, &m)
		byID[m.ID] = &m
	}
	if err := moduleRows.Err(); err != nil {
		return nil, err
	}

	lessonRows, err := r.db.Query(ctx,
		`SELECT l.id, l.module_id, l.title, l.description, l.transcript, l.transcript_key, l.position
		 FROM lessons l
		 JOIN course_modules m ON m.id = l.module_id
		 WHERE m.course_id = $1
		 ORDER BY m.position ASC, l.position ASC`,
		id,
	)
	if err != nil {
		return nil, err
	}
	defer lessonRows.Close()

	for lessonRows.Next() {
		var l domain.Lesson
		var transcript, transcriptKey *string
		if err := lessonRows.Scan(&l.ID, &l.ModuleID, &l.Title, &l.Description, &transcript, &transcriptKey, &l.Position); err != nil {
			return nil, err
		}
		if transcript != nil {
			l.Transcript = *transcript
		}
		if transcriptKey != nil {
			l.TranscriptKey = *transcriptKey
		}
		if m, ok := byID[l.ModuleID]; ok {
			m.Lessons = append(m.Lessons, &l)
		}
	}
	return course, lessonRows.Err()
}

// ListPublishedByOrg returns every published course in an organization.
func (r *CourseRepository) ListPublishedByOrg(ctx context.Context, orgID string) ([]*domain.Course, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, org_id, title, description, category, author_name, status, created_at, updated_at
		 FROM courses WHERE org_id = $1 AND status = $2 ORDER BY updated_at DESC`,
		orgID, domain.CourseStatusPublished,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCourseRows(rows)
}

func (r *CourseRepository) ListByOrgWithCursor(ctx context.Context, orgID string, cursor *pagination.Cursor, limit int) (*CoursePageResult, error) {
	if limit <= 0 {
		limit = 20
	}

	var rows pgx.Rows
	var err error

	if cursor != nil {
		rows, err = r.db.Query(ctx,
			`SELECT id, org_id, title, description, category, author_name, status, created_at, updated_at
			 FROM courses
			 WHERE org_id = $1 AND (updated_at, id) < ($2, $3)
			 ORDER BY updated_at DESC, id DESC
			 LIMIT $4`,
			orgID, cursor.Timestamp, cursor.LastID, limit+1,
		)
	} else {
		rows, err = r.db.Query(ctx,
			`SELECT id, org_id, title, description, category, author_name, status, created_at, updated_at
			 FROM courses
			 WHERE org_id = $1
			 ORDER BY updated_at DESC, id DESC
			 LIMIT $2`,
			orgID, limit+1,
		)
	}

	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items, err := scanCourseRows(rows)
	if err != nil {
		return nil, err
	}

	hasMore := len(items) > limit
	if hasMore {
		items = items[:limit]
	}

	var nextCursor string
	if hasMore && len(items) > 0 {
		lastItem := items[len(items)-1]
		nextCursor = pagination.EncodeCursor(lastItem.ID, lastItem.UpdatedAt)
	}

	return &CoursePageResult{
		Items:      items,
		NextCursor: nextCursor,
		HasMore:    hasMore,
	}, nil
}

func (r *CourseRepository) UpdateStatus(ctx context.Context, id string, status domain.CourseStatus) error {
	cmdTag, err := r.db.Exec(ctx,
		`UPDATE courses SET status = $1, updated_at = $2 WHERE id = $3`,
		status, time.Now().UTC(), id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrCourseNotFound
	}
	return nil
}

// GetModuleWithCourse fetches a module and its parent course, used for
// assignment enrichment fallbacks.
func (r *CourseRepository) GetModuleWithCourse(ctx context.Context, moduleID string) (*domain.Module, *domain.Course, error) {
	var m domain.Module
	var c domain.Course
	err := r.db.QueryRow(ctx,
		`SELECT m.id, m.course_id, m.title, m.description, m.position,
		        c.id, c.org_id, c.title, c.description, c.category, c.author_name, c.status, c.created_at, c.updated_at
		 FROM course_modules m
		 JOIN courses c ON c.id = m.course_id
		 WHERE m.id = $1`,
		moduleID,
	).Scan(&m.ID, &m.CourseID, &m.Title, &m.Description, &m.Position,
		&c.ID, &c.OrgID, &c.Title, &c.Description, &c.Category, &c.AuthorName, &c.Status, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, domain.ErrModuleNotFound
		}
		return nil, nil, err
	}
	return &m, &c, nil
}

// GetLessonWithPath fetches a lesson plus its parent module and course.
func (r *CourseRepository) GetLessonWithPath(ctx context.Context, lessonID string) (*domain.Lesson, *domain.Module, *domain.Course, error) {
	var l domain.Lesson
	var m domain.Module
	var c domain.Course
	var transcript, transcriptKey *string
	err := r.db.QueryRow(ctx,
		`SELECT l.id, l.module_id, l.title, l.description, l.transcript, l.transcript_key, l.position,
		        m.id, m.course_id, m.title, m.description, m.position,
		        c.id, c.org_id, c.title, c.description, c.category, c.author_name, c.status, c.created_at, c.updated_at
		 FROM lessons l
		 JOIN course_modules m ON m.id = l.module_id
		 JOIN courses c ON c.id = m.course_id
		 WHERE l.id = $1`,
		lessonID,
	).Scan(&l.ID, &l.ModuleID, &l.Title, &l.Description, &transcript, &transcriptKey, &l.Position,
		&m.ID, &m.CourseID, &m.Title, &m.Description, &m.Position,
		&c.ID, &c.OrgID, &c.Title, &c.Description, &c.Category, &c.AuthorName, &c.Status, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, nil, domain.ErrLessonNotFound
		}
		return nil, nil, nil, err
	}
	if transcript != nil {
		l.Transcript = *transcript
	}
	if transcriptKey != nil {
		l.TranscriptKey = *transcriptKey
	}
	return &l, &m, &c, nil
}

func scanCourseRows(rows pgx.Rows) ([]*domain.Course, error) {
	var results []*domain.Course
	for rows.Next() {
		var c domain.Course
		if err := rows.Scan(&c.ID, &c.OrgID, &c.Title, &c.Description, &c.Category, &c.AuthorName, &c.Status, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		results = append(results, &c)
	}
	return results, rows.Err()
}
