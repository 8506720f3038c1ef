package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTierPriority(t *testing.T) {
	tests := []struct {
		name     string
		tier     AssigneeType
		expected int
	}{
		{"user tier is highest", AssigneeUser, 3},
		{"group tier is middle", AssigneeGroup, 2},
		{"org tier is lowest", AssigneeOrg, 1},
		{"unknown tier scores zero", AssigneeType("team"), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, TierPriority(tt.tier))
		})
	}
}

func TestContentKey(t *testing.T) {
	a := &ContentAssignment{ContentType: ContentCourse, ContentID: "5"}
	b := &ContentAssignment{ContentType: ContentLesson, ContentID: "5"}

	assert.Equal(t, "course/5", a.ContentKey())
	assert.Equal(t, "lesson/5", b.ContentKey())
	assert.NotEqual(t, a.ContentKey(), b.ContentKey())
}

func TestValidateAssignment(t *testing.T) {
	valid := func() *ContentAssignment {
		return &ContentAssignment{
			ID:             "a1",
			OrgID:          "org1",
			AssigneeType:   AssigneeUser,
			AssigneeID:     "u1",
			ContentType:    ContentCourse,
			ContentID:      "c1",
			AssignmentType: AssignmentRequired,
		}
	}

	tests := []struct {
		name    string
		mutate  func(*ContentAssignment)
		wantErr error
	}{
		{"valid assignment", func(a *ContentAssignment) {}, nil},
		{"missing org", func(a *ContentAssignment) { a.OrgID = "" }, ErrMissingRequiredField},
		{"missing content id", func(a *ContentAssignment) { a.ContentID = "" }, ErrMissingRequiredField},
		{"bad assignee type", func(a *ContentAssignment) { a.AssigneeType = "role" }, ErrInvalidAssigneeType},
		{"bad content type", func(a *ContentAssignment) { a.ContentType = "quiz" }, ErrInvalidContentType},
		{"bad assignment type", func(a *ContentAssignment) { a.AssignmentType = "optional" }, ErrInvalidAssignmentType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := valid()
			tt.mutate(a)
			err := ValidateAssignment(a)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.Equal(t, tt.wantErr, err)
			}
		})
	}
}
