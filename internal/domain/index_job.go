package domain

import "time"

// IndexJobStatus represents the status of an index job
type IndexJobStatus string

const (
	IndexJobStatusPending    IndexJobStatus = "pending"
	IndexJobStatusProcessing IndexJobStatus = "processing"
	IndexJobStatusCompleted  IndexJobStatus = "completed"
	IndexJobStatusFailed     IndexJobStatus = "failed"
)

// IndexJobKind is the operation an index job performs
type IndexJobKind string

const (
	IndexJobReindex IndexJobKind = "reindex"
	IndexJobDelete  IndexJobKind = "delete"
)

// IndexJob queues course index regeneration or deletion, enqueued on
// publish and unpublish and drained by the background worker.
type IndexJob struct {
	ID          string
	CourseID    string
	OrgID       string
	Kind        IndexJobKind
	Status      IndexJobStatus
	Retries     int
	Error       string
	CreatedAt   time.Time
	ProcessedAt *time.Time
}

// ValidIndexJobStatus reports whether s is a known job status
func ValidIndexJobStatus(s IndexJobStatus) bool {
	switch s {
	case IndexJobStatusPending, IndexJobStatusProcessing, IndexJobStatusCompleted, IndexJobStatusFailed:
		return true
	}
	return false
}
