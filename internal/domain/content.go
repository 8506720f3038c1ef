package domain

import "time"

// CourseStatus represents the publication status of a course
type CourseStatus string

const (
	CourseStatusDraft     CourseStatus = "draft"
	CourseStatusPublished CourseStatus = "published"
	CourseStatusArchived  CourseStatus = "archived"
)

// Course represents an organization-owned course
type Course struct {
	ID          string
	OrgID       string
	Title       string
	Description string
	Category    string
	AuthorName  string
	Status      CourseStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// Modules is populated by hierarchy fetches, nil otherwise.
	Modules []*Module
}

// Module represents an ordered section within a course
type Module struct {
	ID          string
	CourseID    string
	Title       string
	Description string
	Position    int

	Lessons []*Lesson
}

// Lesson represents a single unit of learning content.
// Transcript holds inline text; TranscriptKey points at an object-store
// blob for transcripts too large to keep inline.
type Lesson struct {
	ID            string
	ModuleID      string
	Title         string
	Description   string
	Transcript    string
	TranscriptKey string
	Position      int
}

// Resource represents standalone assignable content (document, link, video)
type Resource struct {
	ID          string
	OrgID       string
	Title       string
	Description string
	AuthorName  string
	URL         string
	CreatedAt   time.Time
}

// CollectionItemType identifies the kind of entity a collection item points at
type CollectionItemType string

const (
	CollectionItemCourse   CollectionItemType = "course"
	CollectionItemResource CollectionItemType = "resource"
)

// Collection represents a curated, ordered set of content references
type Collection struct {
	ID          string
	OrgID       string
	Title       string
	Description string
	CreatedAt   time.Time

	Items []*CollectionItem
}

// CollectionItem is one polymorphic entry in a collection
type CollectionItem struct {
	CollectionID string
	ItemType     CollectionItemType
	ItemID       string
	Position     int
}

// ValidCourseStatus reports whether s is a known course status
func ValidCourseStatus(s CourseStatus) bool {
	switch s {
	case CourseStatusDraft, CourseStatusPublished, CourseStatusArchived:
		return true
	}
	return false
}

// ValidateCourse checks required fields on a course
func ValidateCourse(c *Course) error {
	if c.ID == "" || c.OrgID == "" || c.Title == "" {
		return ErrMissingRequiredField
	}
	if !ValidCourseStatus(c.Status) {
		return ErrInvalidCourseStatus
	}
	return nil
}
