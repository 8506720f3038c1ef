package service

import (
	"context"
	"time"

	"github.com/praxislabs/praxis/internal/domain"
	"github.com/praxislabs/praxis/internal/pagination"
	"github.com/praxislabs/praxis/internal/repository"
)

// ConversationRepositoryInterface defines the conversation persistence
// interface
type ConversationRepositoryInterface interface {
	Create(ctx context.Context, c *domain.Conversation) error
	GetByID(ctx context.Context, id string) (*domain.Conversation, error)
	ListMessages(ctx context.Context, conversationID string) ([]*domain.ConversationMessage, error)
	ListByUserWithCursor(ctx context.Context, userID string, cursor *pagination.Cursor, limit int) (*repository.ConversationPageResult, error)
}

// ConversationService handles conversation reads and creation. All
// operations are tenant-scoped: conversations carry no org column, so
// ownership is established through the owner profile's organization.
type ConversationService struct {
	repo        ConversationRepositoryInterface
	profileRepo ScopeProfileRepository
	uuidGen     UUIDGenerator
}

// NewConversationService creates a new ConversationService instance
func NewConversationService(repo ConversationRepositoryInterface, profileRepo ScopeProfileRepository) *ConversationService {
	return &ConversationService{repo: repo, profileRepo: profileRepo, uuidGen: &DefaultUUIDGenerator{}}
}

// NewConversationServiceWithUUIDGen creates a ConversationService with
// a custom UUID generator (for testing)
func NewConversationServiceWithUUIDGen(repo ConversationRepositoryInterface, profileRepo ScopeProfileRepository, uuidGen UUIDGenerator) *ConversationService {
	return &ConversationService{repo: repo, profileRepo: profileRepo, uuidGen: uuidGen}
}

// requireMember checks that the user exists inside the caller's
// organization. A user in another tenant is indistinguishable from a
// missing one.
func (s *ConversationService) requireMember(ctx context.Context, orgID, userID string) error {
	profile, err := s.profileRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if profile.OrgID != orgID {
		return domain.ErrProfileNotFound
	}
	return nil
}

type ListConversationsInput struct {
	OrgID  string
	UserID string
	Cursor string
	Limit  int
}

type ListConversationsOutput struct {
	Items   []*domain.Conversation
	Cursor  string
	HasMore bool
}

// Start creates an empty conversation for a user and agent type. The
// user must belong to the caller's organization.
func (s *ConversationService) Start(ctx context.Context, orgID, userID, agentType string) (*domain.Conversation, error) {
	if userID == "" {
		return nil, domain.NewDomainError(domain.ErrCodeValidation, "user ID is required")
	}
	if agentType == "" {
		return nil, domain.NewDomainError(domain.ErrCodeValidation, "agent type is required")
	}
	if err := s.requireMember(ctx, orgID, userID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	conversation := &domain.Conversation{
		ID:        s.uuidGen.NewString(),
		UserID:    userID,
		AgentType: agentType,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, conversation); err != nil {
		return nil, err
	}
	return conversation, nil
}

// GetWithMessages returns a conversation and its full message history,
// oldest first. A conversation owned by another tenant's user is
// reported as not found.
func (s *ConversationService) GetWithMessages(ctx context.Context, orgID, conversationID string) (*domain.Conversation, []*domain.ConversationMessage, error) {
	conversation, err := s.repo.GetByID(ctx, conversationID)
	if err != nil {
		return nil, nil, err
	}
	if err := s.requireMember(ctx, orgID, conversation.UserID); err != nil {
		return nil, nil, domain.ErrConversationNotFound
	}
	messages, err := s.repo.ListMessages(ctx, conversationID)
	if err != nil {
		return nil, nil, err
	}
	return conversation, messages, nil
}

// List pages through a user's conversations, most recently updated
// first.
func (s *ConversationService) List(ctx context.Context, input ListConversationsInput) (*ListConversationsOutput, error) {
	if err := s.requireMember(ctx, input.OrgID, input.UserID); err != nil {
		return nil, err
	}
	cursor, _ := pagination.DecodeCursor(input.Cursor)
	limit := input.Limit
	if limit <= 0 {
		limit = 20
	}

	result, err := s.repo.ListByUserWithCursor(ctx, input.UserID, cursor, limit)
	if err != nil {
		return nil, err
	}
	return &ListConversationsOutput{
		Items:   result.Items,
		Cursor:  result.NextCursor,
		HasMore: result.HasMore,
	}, nil
}
