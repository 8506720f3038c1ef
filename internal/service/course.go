package service

import (
	"context"
	"time"

	"github.com/praxislabs/praxis/internal/domain"
	"github.com/praxislabs/praxis/internal/pagination"
	"github.com/praxislabs/praxis/internal/repository"
	"github.com/praxislabs/praxis/internal/telemetry"
)

// CourseRepositoryInterface defines the course persistence interface
// for lifecycle operations
type CourseRepositoryInterface interface {
	GetByID(ctx context.Context, id string) (*domain.Course, error)
	ListByOrgWithCursor(ctx context.Context, orgID string, cursor *pagination.Cursor, limit int) (*repository.CoursePageResult, error)
	UpdateStatus(ctx context.Context, id string, status domain.CourseStatus) error
}

// IndexJobRepositoryInterface defines the job queue writes
type IndexJobRepositoryInterface interface {
	Create(ctx context.Context, job *domain.IndexJob) error
}

// CourseService handles course lifecycle. Publishing and unpublishing
// enqueue index jobs so the vector index follows course visibility.
type CourseService struct {
	courseRepo CourseRepositoryInterface
	jobRepo    IndexJobRepositoryInterface
	uuidGen    UUIDGenerator
}

// NewCourseService creates a new CourseService instance
func NewCourseService(courseRepo CourseRepositoryInterface, jobRepo IndexJobRepositoryInterface) *CourseService {
	return &CourseService{
		courseRepo: courseRepo,
		jobRepo:    jobRepo,
		uuidGen:    &DefaultUUIDGenerator{},
	}
}

// NewCourseServiceWithUUIDGen creates a CourseService with a custom
// UUID generator (for testing)
func NewCourseServiceWithUUIDGen(courseRepo CourseRepositoryInterface, jobRepo IndexJobRepositoryInterface, uuidGen UUIDGenerator) *CourseService {
	s := NewCourseService(courseRepo, jobRepo)
	s.uuidGen = uuidGen
	return s
}

type ListCoursesInput struct {
	OrgID  string
	Cursor string
	Limit  int
}

type ListCoursesOutput struct {
	Items   []*domain.Course
	Cursor  string
	HasMore bool
}

// Publish marks a course published and enqueues a reindex job.
func (s *CourseService) Publish(ctx context.Context, orgID, courseID string) (*domain.Course, error) {
	return s.transition(ctx, orgID, courseID, domain.CourseStatusPublished, domain.IndexJobReindex)
}

// Unpublish returns a course to draft and enqueues removal of its
// index records.
func (s *CourseService) Unpublish(ctx context.Context, orgID, courseID string) (*domain.Course, error) {
	return s.transition(ctx, orgID, courseID, domain.CourseStatusDraft, domain.IndexJobDelete)
}

func (s *CourseService) transition(ctx context.Context, orgID, courseID string, status domain.CourseStatus, kind domain.IndexJobKind) (*domain.Course, error) {
	ctx, span := telemetry.StartSpan(ctx, "CourseService.transition", telemetry.SpanAttributes{
		OrgID:     orgID,
		CourseID:  courseID,
		Operation: string(kind),
	})
	defer span.End()

	course, err := s.courseRepo.GetByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if course.OrgID != orgID {
		return nil, domain.ErrCourseNotFound
	}

	if err := s.courseRepo.UpdateStatus(ctx, courseID, status); err != nil {
		return nil, err
	}
	course.Status = status

	job := &domain.IndexJob{
		ID:        s.uuidGen.NewString(),
		CourseID:  courseID,
		OrgID:     orgID,
		Kind:      kind,
		Status:    domain.IndexJobStatusPending,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.jobRepo.Create(ctx, job); err != nil {
		return nil, err
	}

	return course, nil
}

// ListCourses pages through an organization's courses newest-first.
func (s *CourseService) ListCourses(ctx context.Context, input ListCoursesInput) (*ListCoursesOutput, error) {
	cursor, _ := pagination.DecodeCursor(input.Cursor)
	limit := input.Limit
	if limit <= 0 {
		limit = 20
	}

	result, err := s.courseRepo.ListByOrgWithCursor(ctx, input.OrgID, cursor, limit)
	if err != nil {
		return nil, err
	}

	return &ListCoursesOutput{
		Items:   result.Items,
		Cursor:  result.NextCursor,
		HasMore: result.HasMore,
	}, nil
}
