//go:build integration

package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/praxislabs/praxis/internal/domain"
	"github.com/praxislabs/praxis/internal/pagination"
)

func seedConversation(ctx context.Context, t *testing.T, repo *ConversationRepository, userID string, ts time.Time) *domain.Conversation {
	t.Helper()
	c := &domain.Conversation{
		ID:        uuid.NewString(),
		UserID:    userID,
		AgentType: "tutor",
		CreatedAt: ts,
		UpdatedAt: ts,
	}
	require.NoError(t, repo.Create(ctx, c))
	return c
}

func TestConversationRepository_CreateAndGet(t *testing.T) {
	ctx, pool := newIntegrationPool(t)
	repo := NewConversationRepository(pool)

	c := seedConversation(ctx, t, repo, uuid.NewString(), utcNow())

	retrieved, err := repo.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, c.UserID, retrieved.UserID)
	assert.Equal(t, "tutor", retrieved.AgentType)

	_, err = repo.GetByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, domain.ErrConversationNotFound)
}

func TestConversationRepository_AppendMessage_BumpsUpdatedAt(t *testing.T) {
	ctx, pool := newIntegrationPool(t)
	repo := NewConversationRepository(pool)

	started := utcNow().Add(-time.Hour)
	c := seedConversation(ctx, t, repo, uuid.NewString(), started)

	msgAt := utcNow()
	msg := &domain.ConversationMessage{
		ID:             uuid.NewString(),
		ConversationID: c.ID,
		Role:           domain.ConversationRoleUser,
		Content:        "how do indexes work?",
		CreatedAt:      msgAt,
	}
	require.NoError(t, repo.AppendMessage(ctx, msg))

	retrieved, err := repo.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, msgAt, retrieved.UpdatedAt)
}

func TestConversationRepository_ListMessages_OldestFirst(t *testing.T) {
	ctx, pool := newIntegrationPool(t)
	repo := NewConversationRepository(pool)

	c := seedConversation(ctx, t, repo, uuid.NewString(), utcNow())

	base := utcNow()
	turns := []struct {
		role    domain.ConversationRole
		content string
	}{
		{domain.ConversationRoleUser, "question"},
		{domain.ConversationRoleModel, "answer"},
		{domain.ConversationRoleUser, "followup"},
	}
	for i, turn := range turns {
		require.NoError(t, repo.AppendMessage(ctx, &domain.ConversationMessage{
			ID:             uuid.NewString(),
			ConversationID: c.ID,
			Role:           turn.role,
			Content:        turn.content,
			CreatedAt:      base.Add(time.Duration(i) * time.Second),
		}))
	}

	messages, err := repo.ListMessages(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, messages, 3)
	assert.Equal(t, "question", messages[0].Content)
	assert.Equal(t, domain.ConversationRoleModel, messages[1].Role)
	assert.Equal(t, "followup", messages[2].Content)
}

func TestConversationRepository_ListByUserWithCursor(t *testing.T) {
	ctx, pool := newIntegrationPool(t)
	repo := NewConversationRepository(pool)

	userID := uuid.NewString()
	base := utcNow().Add(-time.Hour)
	for i := 0; i < 4; i++ {
		c := &domain.Conversation{
			ID:        uuid.NewString(),
			UserID:    userID,
			AgentType: fmt.Sprintf("agent-%d", i),
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
			UpdatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		require.NoError(t, repo.Create(ctx, c))
	}
	// Another user's conversations stay out of the page.
	seedConversation(ctx, t, repo, uuid.NewString(), utcNow())

	page1, err := repo.ListByUserWithCursor(ctx, userID, nil, 3)
	require.NoError(t, err)
	require.Len(t, page1.Items, 3)
	assert.True(t, page1.HasMore)
	assert.Equal(t, "agent-3", page1.Items[0].AgentType)

	cursor, err := pagination.DecodeCursor(page1.NextCursor)
	require.NoError(t, err)

	page2, err := repo.ListByUserWithCursor(ctx, userID, cursor, 3)
	require.NoError(t, err)
	require.Len(t, page2.Items, 1)
	assert.False(t, page2.HasMore)
	assert.Equal(t, "agent-0", page2.Items[0].AgentType)
}

func TestConversationRepository_StatsByUsers(t *testing.T) {
	ctx, pool := newIntegrationPool(t)
	repo := NewConversationRepository(pool)

	active := uuid.NewString()
	quiet := uuid.NewString()

	older := utcNow().Add(-time.Hour)
	latest := utcNow()
	seedConversation(ctx, t, repo, active, older)
	seedConversation(ctx, t, repo, active, latest)

	stats, err := repo.StatsByUsers(ctx, []string{active, quiet})
	require.NoError(t, err)

	s, ok := stats[active]
	require.True(t, ok)
	assert.Equal(t, 2, s.Count)
	assert.Equal(t, latest, s.LastActivity)

	// Users without conversations are absent, not zero valued.
	_, ok = stats[quiet]
	assert.False(t, ok)
}

func TestConversationRepository_StatsByUsers_Empty(t *testing.T) {
	ctx, pool := newIntegrationPool(t)
	repo := NewConversationRepository(pool)

	stats, err := repo.StatsByUsers(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, stats)
}
