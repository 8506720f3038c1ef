package service

import (
	"context"
	"log"

	"github.com/praxislabs/praxis/internal/domain"
	"github.com/praxislabs/praxis/internal/telemetry"
)

const unknownContentTitle = "Unknown Content"

// AssignmentRepositoryInterface defines the assignment reads the
// resolver needs
type AssignmentRepositoryInterface interface {
	ListForUser(ctx context.Context, userID string) ([]*domain.ContentAssignment, error)
	ListForGroups(ctx context.Context, groupIDs []string) ([]*domain.ContentAssignment, error)
	ListForOrg(ctx context.Context, orgID string) ([]*domain.ContentAssignment, error)
}

// MembershipRepository resolves a user's static group memberships
type MembershipRepository interface {
	ListGroupIDsForUser(ctx context.Context, userID string) ([]string, error)
}

// ContentRepository fetches display metadata per content type
type ContentRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Course, error)
	GetModuleWithCourse(ctx context.Context, moduleID string) (*domain.Module, *domain.Course, error)
	GetLessonWithPath(ctx context.Context, lessonID string) (*domain.Lesson, *domain.Module, *domain.Course, error)
}

// ResourceRepositoryInterface fetches standalone resources
type ResourceRepositoryInterface interface {
	GetByID(ctx context.Context, id string) (*domain.Resource, error)
}

// AssignmentService merges per-user, per-group, and per-organization
// assignments into one deduplicated, enriched view.
type AssignmentService struct {
	assignmentRepo AssignmentRepositoryInterface
	profileRepo    ScopeProfileRepository
	membershipRepo MembershipRepository
	contentRepo    ContentRepository
	resourceRepo   ResourceRepositoryInterface
}

// NewAssignmentService creates a new AssignmentService instance
func NewAssignmentService(
	assignmentRepo AssignmentRepositoryInterface,
	profileRepo ScopeProfileRepository,
	membershipRepo MembershipRepository,
	contentRepo ContentRepository,
	resourceRepo ResourceRepositoryInterface,
) *AssignmentService {
	return &AssignmentService{
		assignmentRepo: assignmentRepo,
		profileRepo:    profileRepo,
		membershipRepo: membershipRepo,
		contentRepo:    contentRepo,
		resourceRepo:   resourceRepo,
	}
}

// ResolveForUser returns the user's effective assignments: one record
// per (contentType, contentId), from the highest-priority tier present,
// enriched with display metadata. orgID is the caller's tenant; users
// outside it are reported as not found.
func (s *AssignmentService) ResolveForUser(ctx context.Context, orgID, userID string) ([]*domain.EnrichedAssignment, error) {
	ctx, span := telemetry.StartSpan(ctx, "AssignmentService.ResolveForUser", telemetry.SpanAttributes{
		OrgID:     orgID,
		UserID:    userID,
		Operation: "resolve",
	})
	defer span.End()

	profile, err := s.profileRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile.OrgID != orgID {
		return nil, domain.ErrProfileNotFound
	}

	groupIDs, err := s.membershipRepo.ListGroupIDsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	direct, err := s.assignmentRepo.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	var group []*domain.ContentAssignment
	if len(groupIDs) > 0 {
		group, err = s.assignmentRepo.ListForGroups(ctx, groupIDs)
		if err != nil {
			return nil, err
		}
	}
	org, err := s.assignmentRepo.ListForOrg(ctx, profile.OrgID)
	if err != nil {
		return nil, err
	}

	all := make([]*domain.ContentAssignment, 0, len(direct)+len(group)+len(org))
	all = append(all, direct...)
	all = append(all, group...)
	all = append(all, org...)

	effective := dedupeByTier(all)

	enriched := make([]*domain.EnrichedAssignment, 0, len(effective))
	for _, assignment := range effective {
		enriched = append(enriched, s.enrich(ctx, assignment))
	}
	return enriched, nil
}

// dedupeByTier keeps one assignment per content key, preferring the
// highest tier. On equal tiers the first-seen record wins; input order
// among tiers does not matter since a later higher-tier record still
// replaces an earlier lower one.
func dedupeByTier(assignments []*domain.ContentAssignment) []*domain.ContentAssignment {
	byKey := make(map[string]int, len(assignments))
	result := make([]*domain.ContentAssignment, 0, len(assignments))

	for _, a := range assignments {
		key := a.ContentKey()
		idx, seen := byKey[key]
		if !seen {
			byKey[key] = len(result)
			result = append(result, a)
			continue
		}
		if domain.TierPriority(a.AssigneeType) > domain.TierPriority(result[idx].AssigneeType) {
			result[idx] = a
		}
	}
	return result
}

// enrich attaches display metadata for one assignment. A failed fetch
// yields a placeholder record rather than dropping the row.
func (s *AssignmentService) enrich(ctx context.Context, a *domain.ContentAssignment) *domain.EnrichedAssignment {
	enriched, err := s.lookupContent(ctx, a)
	if err != nil {
		log.Printf("assignments: enrichment failed for %s %s: %v", a.ContentType, a.ContentID, err)
		return &domain.EnrichedAssignment{Assignment: a, Title: unknownContentTitle}
	}
	return enriched
}

func (s *AssignmentService) lookupContent(ctx context.Context, a *domain.ContentAssignment) (*domain.EnrichedAssignment, error) {
	switch a.ContentType {
	case domain.ContentCourse:
		course, err := s.contentRepo.GetByID(ctx, a.ContentID)
		if err != nil {
			return nil, err
		}
		return &domain.EnrichedAssignment{
			Assignment:  a,
			Title:       course.Title,
			Description: course.Description,
			Author:      course.AuthorName,
		}, nil

	case domain.ContentModule:
		module, course, err := s.contentRepo.GetModuleWithCourse(ctx, a.ContentID)
		if err != nil {
			return nil, err
		}
		description := module.Description
		if description == "" {
			description = course.Title
		}
		return &domain.EnrichedAssignment{
			Assignment:  a,
			Title:       module.Title,
			Description: description,
			Author:      course.AuthorName,
		}, nil

	case domain.ContentLesson:
		lesson, module, course, err := s.contentRepo.GetLessonWithPath(ctx, a.ContentID)
		if err != nil {
			return nil, err
		}
		description := lesson.Description
		if description == "" {
			description = course.Title + " / " + module.Title
		}
		return &domain.EnrichedAssignment{
			Assignment:  a,
			Title:       lesson.Title,
			Description: description,
			Author:      course.AuthorName,
		}, nil

	case domain.ContentResource:
		resource, err := s.resourceRepo.GetByID(ctx, a.ContentID)
		if err != nil {
			return nil, err
		}
		return &domain.EnrichedAssignment{
			Assignment:  a,
			Title:       resource.Title,
			Description: resource.Description,
			Author:      resource.AuthorName,
		}, nil
	}

	return nil, domain.ErrInvalidContentType
}
