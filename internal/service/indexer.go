package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/praxislabs/praxis/internal/domain"
	"github.com/praxislabs/praxis/internal/telemetry"
)

// chunkThreshold is the block length above which course content is run
// through the chunker instead of embedded whole.
const chunkThreshold = 1200

// EmbeddingClient defines the interface for generating embeddings
type EmbeddingClient interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// IndexerCourseRepository defines the course reads the indexer needs
type IndexerCourseRepository interface {
	GetHierarchy(ctx context.Context, id string) (*domain.Course, error)
	ListPublishedByOrg(ctx context.Context, orgID string) ([]*domain.Course, error)
}

// IndexerEmbeddingRepository defines the vector-record writes the indexer needs
type IndexerEmbeddingRepository interface {
	Insert(ctx context.Context, e *domain.CourseEmbedding) error
	DeleteByCourse(ctx context.Context, courseID string) (int64, error)
}

// TranscriptStore loads lesson transcripts held in object storage
type TranscriptStore interface {
	GetObjectText(ctx context.Context, key string) (string, error)
}

// ReindexResult reports the outcome of reindexing one course
type ReindexResult struct {
	EmbeddingCount int
}

// DeleteResult reports the outcome of removing a course's index records
type DeleteResult struct {
	DeletedCount int64
}

// RegenerateResult accumulates outcomes across every published course
// in an organization. Success holds only when Errors is empty.
type RegenerateResult struct {
	CourseCount    int
	EmbeddingCount int
	Errors         []string
}

func (r *RegenerateResult) Success() bool {
	return len(r.Errors) == 0
}

// IndexerService maintains the chunked vector index for organization
// course content. Records are replaced wholesale per course, never
// patched in place.
type IndexerService struct {
	courseRepo    IndexerCourseRepository
	embeddingRepo IndexerEmbeddingRepository
	client        EmbeddingClient
	transcripts   TranscriptStore
	uuidGen       UUIDGenerator
}

// NewIndexerService creates a new IndexerService instance. transcripts
// may be nil when no object store is configured.
func NewIndexerService(
	courseRepo IndexerCourseRepository,
	embeddingRepo IndexerEmbeddingRepository,
	client EmbeddingClient,
	transcripts TranscriptStore,
) *IndexerService {
	return &IndexerService{
		courseRepo:    courseRepo,
		embeddingRepo: embeddingRepo,
		client:        client,
		transcripts:   transcripts,
		uuidGen:       &DefaultUUIDGenerator{},
	}
}

// NewIndexerServiceWithUUIDGen creates an IndexerService with a custom
// UUID generator (for testing)
func NewIndexerServiceWithUUIDGen(
	courseRepo IndexerCourseRepository,
	embeddingRepo IndexerEmbeddingRepository,
	client EmbeddingClient,
	transcripts TranscriptStore,
	uuidGen UUIDGenerator,
) *IndexerService {
	s := NewIndexerService(courseRepo, embeddingRepo, client, transcripts)
	s.uuidGen = uuidGen
	return s
}

// contentUnit is one embeddable block of course content
type contentUnit struct {
	sourceID string
	text     string
}

// Reindex replaces every index record for a course. The course fetch is
// the only hard failure; per-chunk embedding or insert failures are
// logged, skipped, and reflected in a reduced count.
func (s *IndexerService) Reindex(ctx context.Context, orgID, courseID string) (*ReindexResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "IndexerService.Reindex", telemetry.SpanAttributes{
		OrgID:     orgID,
		CourseID:  courseID,
		Operation: "reindex",
	})
	defer span.End()

	course, err := s.courseRepo.GetHierarchy(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if course.OrgID != orgID {
		return nil, domain.ErrCourseNotFound
	}

	// Full replacement: old records go first so a repeat run never
	// accumulates duplicates.
	if _, err := s.embeddingRepo.DeleteByCourse(ctx, courseID); err != nil {
		return nil, err
	}

	units := s.buildContentUnits(ctx, course)

	var mu sync.Mutex
	count := 0
	now := time.Now().UTC()

	g, gctx := errgroup.WithContext(ctx)
	for _, unit := range units {
		unit := unit
		g.Go(func() error {
			n := s.embedUnit(gctx, orgID, courseID, unit, now)
			mu.Lock()
			count += n
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return &ReindexResult{EmbeddingCount: count}, nil
}

// embedUnit chunks one content unit, embeds each chunk, and inserts the
// surviving records. Returns the number inserted.
func (s *IndexerService) embedUnit(ctx context.Context, orgID, courseID string, unit contentUnit, now time.Time) int {
	var chunks []string
	if len([]rune(unit.text)) > chunkThreshold {
		chunks = Chunk(unit.text, DefaultChunkSize, DefaultChunkOverlap)
	} else {
		chunks = []string{unit.text}
	}

	inserted := 0
	for i, chunk := range chunks {
		vector, err := s.client.GenerateEmbedding(ctx, chunk)
		if err != nil {
			log.Printf("indexer: embedding failed for %s chunk %d: %v", unit.sourceID, i, err)
			continue
		}
		if len(vector) == 0 {
			log.Printf("indexer: empty embedding for %s chunk %d, skipping", unit.sourceID, i)
			continue
		}

		record := &domain.CourseEmbedding{
			ID:         s.uuidGen.NewString(),
			SourceType: domain.EmbeddingSourceOrgCourse,
			SourceID:   unit.sourceID,
			OrgID:      orgID,
			CourseID:   courseID,
			Content:    chunk,
			Embedding:  vector,
			Metadata: domain.ChunkMetadata{
				ChunkIndex:  i,
				TotalChunks: len(chunks),
			},
			CreatedAt: now,
		}
		if err := s.embeddingRepo.Insert(ctx, record); err != nil {
			log.Printf("indexer: insert failed for %s chunk %d: %v", unit.sourceID, i, err)
			continue
		}
		inserted++
	}
	return inserted
}

// buildContentUnits flattens a course hierarchy into embeddable text
// blocks: one course overview, one block per module, one per lesson.
func (s *IndexerService) buildContentUnits(ctx context.Context, course *domain.Course) []contentUnit {
	units := []contentUnit{{
		sourceID: "course-" + course.ID,
		text:     buildCourseOverview(course),
	}}

	for _, module := range course.Modules {
		units = append(units, contentUnit{
			sourceID: "module-" + module.ID,
			text:     buildModuleBlock(course, module),
		})
		for _, lesson := range module.Lessons {
			units = append(units, contentUnit{
				sourceID: "lesson-" + lesson.ID,
				text:     buildLessonBlock(course, module, lesson, s.loadTranscript(ctx, lesson)),
			})
		}
	}

	return units
}

// loadTranscript returns the lesson transcript, reading it from object
// storage when only a key is stored. A failed load is treated as no
// transcript.
func (s *IndexerService) loadTranscript(ctx context.Context, lesson *domain.Lesson) string {
	if lesson.Transcript != "" {
		return lesson.Transcript
	}
	if lesson.TranscriptKey == "" || s.transcripts == nil {
		return ""
	}
	text, err := s.transcripts.GetObjectText(ctx, lesson.TranscriptKey)
	if err != nil {
		log.Printf("indexer: transcript load failed for lesson %s: %v", lesson.ID, err)
		return ""
	}
	return text
}

// Delete removes every index record for a course regardless of chunk
// granularity.
func (s *IndexerService) Delete(ctx context.Context, courseID string) (*DeleteResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "IndexerService.Delete", telemetry.SpanAttributes{
		CourseID:  courseID,
		Operation: "delete",
	})
	defer span.End()

	deleted, err := s.embeddingRepo.DeleteByCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	return &DeleteResult{DeletedCount: deleted}, nil
}

// RegenerateAll reindexes every published course in the organization,
// accumulating counts and per-course error strings.
func (s *IndexerService) RegenerateAll(ctx context.Context, orgID string) (*RegenerateResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "IndexerService.RegenerateAll", telemetry.SpanAttributes{
		OrgID:     orgID,
		Operation: "regenerate_all",
	})
	defer span.End()

	courses, err := s.courseRepo.ListPublishedByOrg(ctx, orgID)
	if err != nil {
		return nil, err
	}

	result := &RegenerateResult{}
	for _, course := range courses {
		reindexed, err := s.Reindex(ctx, orgID, course.ID)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("course %s: %v", course.ID, err))
			continue
		}
		result.CourseCount++
		result.EmbeddingCount += reindexed.EmbeddingCount
	}
	return result, nil
}

func buildCourseOverview(c *domain.Course) string {
	var parts []string
	parts = append(parts, "Course: "+c.Title)
	if c.Category != "" {
		parts = append(parts, "Category: "+c.Category)
	}
	if c.AuthorName != "" {
		parts = append(parts, "Author: "+c.AuthorName)
	}
	if c.Description != "" {
		parts = append(parts, c.Description)
	}
	return strings.Join(parts, "\n")
}

func buildModuleBlock(c *domain.Course, m *domain.Module) string {
	var parts []string
	parts = append(parts, "Course: "+c.Title)
	parts = append(parts, "Module: "+m.Title)
	if m.Description != "" {
		parts = append(parts, m.Description)
	}
	return strings.Join(parts, "\n")
}

func buildLessonBlock(c *domain.Course, m *domain.Module, l *domain.Lesson, transcript string) string {
	var parts []string
	parts = append(parts, "Course: "+c.Title)
	parts = append(parts, "Module: "+m.Title)
	parts = append(parts, "Lesson: "+l.Title)
	if l.Description != "" {
		parts = append(parts, l.Description)
	}
	if transcript != "" {
		parts = append(parts, transcript)
	}
	return strings.Join(parts, "\n")
}
