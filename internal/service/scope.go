package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/praxislabs/praxis/internal/domain"
	"github.com/praxislabs/praxis/internal/repository"
	"github.com/praxislabs/praxis/internal/telemetry"
)

const (
	// lessonPreviewChars bounds the transcript excerpt emitted per lesson.
	lessonPreviewChars = 500
	// retrievalLimit bounds the similarity hits appended per request.
	retrievalLimit = 5

	noTranscriptSentinel = "No transcript available for this lesson."

	platformDescriptor = "Praxis is a multi-tenant learning platform. " +
		"Organizations publish courses built from modules and lessons, curate " +
		"collections, assign content to members and groups, and track progress " +
		"through completions, learning time, and earned credits."
)

// ScopeCourseRepository defines the course reads the resolver needs
type ScopeCourseRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Course, error)
	GetHierarchy(ctx context.Context, id string) (*domain.Course, error)
}

// ScopeCollectionRepository defines the collection reads the resolver needs
type ScopeCollectionRepository interface {
	GetWithItems(ctx context.Context, id string) (*domain.Collection, error)
}

// ScopeProfileRepository defines the profile reads the resolver needs
type ScopeProfileRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Profile, error)
}

// TeamReportBuilder produces the team report consumed by TEAM scopes
type TeamReportBuilder interface {
	BuildContext(ctx context.Context, orgID, groupID string) (string, error)
}

// Retriever runs similarity search over the organization's vector index
type Retriever interface {
	SearchByOrg(ctx context.Context, orgID string, embedding []float32, courseID string, limit int) ([]*repository.EmbeddingSearchResult, error)
}

// ScopeResolver assembles ordered context items for an agent request.
// Item order is significant: primary-scope items come first, retrieval
// hits next, and the user profile last, since downstream prompt
// construction truncates from the tail.
type ScopeResolver struct {
	courseRepo     ScopeCourseRepository
	collectionRepo ScopeCollectionRepository
	profileRepo    ScopeProfileRepository
	teamBuilder    TeamReportBuilder
	retriever      Retriever
	embedder       EmbeddingClient
	transcripts    TranscriptStore
}

// NewScopeResolver creates a new ScopeResolver instance. teamBuilder,
// retriever, embedder, and transcripts may be nil; the matching items
// are omitted or truncated.
func NewScopeResolver(
	courseRepo ScopeCourseRepository,
	collectionRepo ScopeCollectionRepository,
	profileRepo ScopeProfileRepository,
	teamBuilder TeamReportBuilder,
	retriever Retriever,
	embedder EmbeddingClient,
	transcripts TranscriptStore,
) *ScopeResolver {
	return &ScopeResolver{
		courseRepo:     courseRepo,
		collectionRepo: collectionRepo,
		profileRepo:    profileRepo,
		teamBuilder:    teamBuilder,
		retriever:      retriever,
		embedder:       embedder,
		transcripts:    transcripts,
	}
}

// Resolve produces the ordered context item list for a scope. query is
// used for supplemental similarity retrieval when non-empty.
func (s *ScopeResolver) Resolve(ctx context.Context, orgID string, scope domain.ContextScope, query string) ([]domain.ContextItem, error) {
	ctx, span := telemetry.StartSpan(ctx, "ScopeResolver.Resolve", telemetry.SpanAttributes{
		OrgID:     orgID,
		UserID:    scope.UserID,
		Operation: string(scope.Type),
	})
	defer span.End()

	var items []domain.ContextItem
	var err error

	switch scope.Type {
	case domain.ScopeCourse:
		items, err = s.resolveCourse(ctx, orgID, scope.ID)
	case domain.ScopeCollection:
		items, err = s.resolveCollection(ctx, orgID, scope.ID)
	case domain.ScopePlatform:
		items = []domain.ContextItem{{
			ID:      "platform",
			Type:    domain.ContextItemPlatform,
			Content: platformDescriptor,
		}}
	case domain.ScopeTeam:
		items, err = s.resolveTeam(ctx, orgID, scope.ID)
	default:
		// Scope types without a handler contribute no primary items.
	}
	if err != nil {
		return nil, err
	}

	items = append(items, s.retrievalItems(ctx, orgID, scope, query)...)

	if scope.UserID != "" {
		if profile := s.profileItem(ctx, orgID, scope.UserID); profile != nil {
			items = append(items, *profile)
		}
	}

	return items, nil
}

func (s *ScopeResolver) resolveCourse(ctx context.Context, orgID, courseID string) ([]domain.ContextItem, error) {
	course, err := s.courseRepo.GetHierarchy(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if course.OrgID != orgID {
		return nil, domain.ErrCourseNotFound
	}

	items := []domain.ContextItem{{
		ID:      course.ID,
		Type:    domain.ContextItemCourseMeta,
		Content: courseMetaContent(course),
	}}

	for _, module := range course.Modules {
		for _, lesson := range module.Lessons {
			items = append(items, domain.ContextItem{
				ID:      lesson.ID,
				Type:    domain.ContextItemLesson,
				Content: lessonPreview(module, lesson, s.lessonTranscript(ctx, lesson)),
			})
		}
	}
	return items, nil
}

func (s *ScopeResolver) resolveCollection(ctx context.Context, orgID, collectionID string) ([]domain.ContextItem, error) {
	collection, err := s.collectionRepo.GetWithItems(ctx, collectionID)
	if err != nil {
		return nil, err
	}
	if collection.OrgID != orgID {
		return nil, domain.ErrCollectionNotFound
	}

	items := make([]domain.ContextItem, 0, len(collection.Items))
	for _, item := range collection.Items {
		switch item.ItemType {
		case domain.CollectionItemCourse:
			course, err := s.courseRepo.GetByID(ctx, item.ItemID)
			if err != nil {
				log.Printf("scope: collection %s course %s fetch failed: %v", collectionID, item.ItemID, err)
				continue
			}
			items = append(items, domain.ContextItem{
				ID:      course.ID,
				Type:    domain.ContextItemCourse,
				Content: courseSummary(course),
			})
		default:
			// Item types without a handler are omitted, not errors.
		}
	}
	return items, nil
}

func (s *ScopeResolver) resolveTeam(ctx context.Context, orgID, groupID string) ([]domain.ContextItem, error) {
	if s.teamBuilder == nil {
		return nil, nil
	}
	report, err := s.teamBuilder.BuildContext(ctx, orgID, groupID)
	if err != nil {
		return nil, err
	}
	id := "team"
	if groupID != "" {
		id = "team-" + groupID
	}
	return []domain.ContextItem{{
		ID:      id,
		Type:    domain.ContextItemTeamReport,
		Content: report,
	}}, nil
}

// retrievalItems appends similarity hits for the query. Retrieval is
// supplemental: every failure is logged and yields no items.
func (s *ScopeResolver) retrievalItems(ctx context.Context, orgID string, scope domain.ContextScope, query string) []domain.ContextItem {
	if query == "" || s.retriever == nil || s.embedder == nil {
		return nil
	}

	vector, err := s.embedder.GenerateEmbedding(ctx, query)
	if err != nil || len(vector) == 0 {
		if err != nil {
			log.Printf("scope: query embedding failed: %v", err)
		}
		return nil
	}

	courseID := ""
	if scope.Type == domain.ScopeCourse {
		courseID = scope.ID
	}

	results, err := s.retriever.SearchByOrg(ctx, orgID, vector, courseID, retrievalLimit)
	if err != nil {
		log.Printf("scope: similarity search failed: %v", err)
		return nil
	}

	items := make([]domain.ContextItem, 0, len(results))
	for _, res := range results {
		items = append(items, domain.ContextItem{
			ID:         res.SourceID,
			Type:       domain.ContextItemRetrieval,
			Content:    res.Content,
			Similarity: res.Similarity,
		})
	}
	return items
}

// profileItem builds the trailing user-profile item. Profiles outside
// the caller's organization contribute nothing.
func (s *ScopeResolver) profileItem(ctx context.Context, orgID, userID string) *domain.ContextItem {
	profile, err := s.profileRepo.GetByID(ctx, userID)
	if err != nil {
		log.Printf("scope: profile %s fetch failed: %v", userID, err)
		return nil
	}
	if profile.OrgID != orgID {
		log.Printf("scope: profile %s is outside org %s, omitting", userID, orgID)
		return nil
	}
	return &domain.ContextItem{
		ID:   profile.ID,
		Type: domain.ContextItemUserProfile,
		Content: fmt.Sprintf("Name: %s\nRole: %s\nOrganization: %s",
			profile.FullName, profile.Role, profile.OrgID),
	}
}

func courseMetaContent(c *domain.Course) string {
	var parts []string
	parts = append(parts, "Title: "+c.Title)
	if c.Description != "" {
		parts = append(parts, "Description: "+c.Description)
	}
	if c.AuthorName != "" {
		parts = append(parts, "Author: "+c.AuthorName)
	}
	return strings.Join(parts, "\n")
}

func courseSummary(c *domain.Course) string {
	if c.Description == "" {
		return c.Title
	}
	return c.Title + ": " + c.Description
}

// lessonTranscript returns the lesson's transcript text, reading it
// from object storage when only a key is stored. A failed load is
// treated as no transcript, matching the indexer.
func (s *ScopeResolver) lessonTranscript(ctx context.Context, l *domain.Lesson) string {
	if l.Transcript != "" {
		return l.Transcript
	}
	if l.TranscriptKey == "" || s.transcripts == nil {
		return ""
	}
	text, err := s.transcripts.GetObjectText(ctx, l.TranscriptKey)
	if err != nil {
		log.Printf("scope: transcript load failed for lesson %s: %v", l.ID, err)
		return ""
	}
	return text
}

func lessonPreview(m *domain.Module, l *domain.Lesson, transcript string) string {
	header := fmt.Sprintf("Module: %s\nLesson: %s", m.Title, l.Title)
	body := transcript
	if body == "" {
		body = noTranscriptSentinel
	}
	runes := []rune(body)
	if len(runes) > lessonPreviewChars {
		body = string(runes[:lessonPreviewChars]) + "..."
	}
	return header + "\n" + body
}
