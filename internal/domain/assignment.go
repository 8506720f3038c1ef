package domain

import "time"

// AssigneeType is the authority tier an assignment was made at
type AssigneeType string

const (
	AssigneeUser  AssigneeType = "user"
	AssigneeGroup AssigneeType = "group"
	AssigneeOrg   AssigneeType = "org"
)

// ContentType identifies what kind of content an assignment targets
type ContentType string

const (
	ContentCourse   ContentType = "course"
	ContentModule   ContentType = "module"
	ContentLesson   ContentType = "lesson"
	ContentResource ContentType = "resource"
)

// AssignmentType distinguishes mandatory from suggested content
type AssignmentType string

const (
	AssignmentRequired    AssignmentType = "required"
	AssignmentRecommended AssignmentType = "recommended"
)

// ContentAssignment assigns a piece of content to a user, group, or
// whole organization. The same content may be assigned through several
// tiers; the effective assignment is the highest-priority tier present.
type ContentAssignment struct {
	ID             string
	OrgID          string
	AssigneeType   AssigneeType
	AssigneeID     string
	ContentType    ContentType
	ContentID      string
	AssignmentType AssignmentType
	CreatedAt      time.Time
}

// TierPriority scores assignee tiers for deduplication: user > group > org.
func TierPriority(t AssigneeType) int {
	switch t {
	case AssigneeUser:
		return 3
	case AssigneeGroup:
		return 2
	case AssigneeOrg:
		return 1
	}
	return 0
}

// ContentKey returns the deduplication key for an assignment
func (a *ContentAssignment) ContentKey() string {
	return string(a.ContentType) + "/" + a.ContentID
}

// ValidateAssignment checks enum fields on an assignment
func ValidateAssignment(a *ContentAssignment) error {
	if a.ID == "" || a.OrgID == "" || a.AssigneeID == "" || a.ContentID == "" {
		return ErrMissingRequiredField
	}
	switch a.AssigneeType {
	case AssigneeUser, AssigneeGroup, AssigneeOrg:
	default:
		return ErrInvalidAssigneeType
	}
	switch a.ContentType {
	case ContentCourse, ContentModule, ContentLesson, ContentResource:
	default:
		return ErrInvalidContentType
	}
	switch a.AssignmentType {
	case AssignmentRequired, AssignmentRecommended:
	default:
		return ErrInvalidAssignmentType
	}
	return nil
}

// EnrichedAssignment is an effective assignment joined with display
// metadata for the assigned content.
type EnrichedAssignment struct {
	Assignment  *ContentAssignment
	Title       string
	Description string
	Author      string
}
