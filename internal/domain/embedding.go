package domain

import "time"

// EmbeddingSourceType identifies what produced an embedding record
type EmbeddingSourceType string

const (
	// EmbeddingSourceOrgCourse marks records produced by course indexing.
	// All such records carry the owning organization's id; a record with
	// a missing or foreign org id breaks tenant isolation.
	EmbeddingSourceOrgCourse EmbeddingSourceType = "org_course"
)

// ChunkMetadata describes a chunk's position within its source text
type ChunkMetadata struct {
	ChunkIndex  int `json:"chunk_index"`
	TotalChunks int `json:"total_chunks"`
}

// CourseEmbedding is one chunk-level vector record in the tenant index.
// SourceID identifies the owning entity within the course hierarchy
// (course-{id}, module-{id}, lesson-{id}). Records are never patched:
// regeneration deletes every record for the course and recreates them.
type CourseEmbedding struct {
	ID           string
	SourceType   EmbeddingSourceType
	SourceID     string
	OrgID        string
	CourseID     string
	CollectionID string
	UserID       string
	Content      string
	Embedding    []float32
	Metadata     ChunkMetadata
	CreatedAt    time.Time
}
