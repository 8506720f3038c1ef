package domain

import "time"

// ScopeType identifies what an agent request is grounded in
type ScopeType string

const (
	ScopeCourse     ScopeType = "COURSE"
	ScopeCollection ScopeType = "COLLECTION"
	ScopePlatform   ScopeType = "PLATFORM"
	ScopeUser       ScopeType = "USER"
	ScopeTeam       ScopeType = "TEAM"
)

// ContextScope describes what an agent is looking at. Constructed per
// request, never persisted.
type ContextScope struct {
	Type   ScopeType
	ID     string
	UserID string
}

// ContextItemType tags a context item for prompt assembly and citations
type ContextItemType string

const (
	ContextItemCourseMeta  ContextItemType = "COURSE_META"
	ContextItemLesson      ContextItemType = "LESSON"
	ContextItemCourse      ContextItemType = "COURSE"
	ContextItemPlatform    ContextItemType = "PLATFORM"
	ContextItemRetrieval   ContextItemType = "RETRIEVAL"
	ContextItemTeamReport  ContextItemType = "TEAM_REPORT"
	ContextItemUserProfile ContextItemType = "USER_PROFILE"
)

// ContextItem is one atomic unit of grounding text. Items are ordered:
// downstream prompt construction treats earlier items as higher priority
// when truncating. Similarity is set only on retrieval items.
type ContextItem struct {
	ID         string          `json:"id"`
	Type       ContextItemType `json:"type"`
	Content    string          `json:"content"`
	Similarity float32         `json:"similarity,omitempty"`
}

// AgentConfig is a stored agent persona: a system instruction plus the
// model identifier to answer with. Model identifiers are opaque strings.
type AgentConfig struct {
	AgentType         string
	SystemInstruction string
	Model             string
	UpdatedAt         time.Time
}

// ConversationRole is the author of a conversation turn
type ConversationRole string

const (
	ConversationRoleUser  ConversationRole = "user"
	ConversationRoleModel ConversationRole = "model"
)

// Conversation groups an exchange between one user and one agent persona
type Conversation struct {
	ID        string
	UserID    string
	AgentType string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ConversationMessage is one turn in a conversation
type ConversationMessage struct {
	ID             string
	ConversationID string
	Role           ConversationRole
	Content        string
	CreatedAt      time.Time
}

// AgentInteraction is one audit log row for an agent response. Written
// best-effort after every response; never read back by this subsystem.
type AgentInteraction struct {
	ID             string
	OrgID          string
	UserID         string
	ConversationID string
	AgentType      string
	Model          string
	Prompt         string
	Response       string
	Sources        []ContextItem
	Insight        string
	CreatedAt      time.Time
}
