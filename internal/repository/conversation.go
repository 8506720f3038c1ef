package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/praxislabs/praxis/internal/domain"
	"github.com/praxislabs/praxis/internal/pagination"
)

type ConversationPageResult struct {
	Items      []*domain.Conversation
	NextCursor string
	HasMore    bool
}

// ConversationStats is the per-user conversation aggregate consumed by
// team reports.
type ConversationStats struct {
	Count        int
	LastActivity time.Time
}

type ConversationRepository struct {
	db dbtx
}

func NewConversationRepository(pool *pgxpool.Pool) *ConversationRepository {
	return &ConversationRepository{db: pool}
}

func (r *ConversationRepository) Create(ctx context.Context, c *domain.Conversation) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO conversations (id, user_id, agent_type, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		c.ID, c.UserID, c.AgentType, c.CreatedAt, c.UpdatedAt,
	)
	return err
}

func (r *ConversationRepository) GetByID(ctx context.Context, id string) (*domain.Conversation, error) {
	var c domain.Conversation
	err := r.db.QueryRow(ctx,
		`SELECT id, user_id, agent_type, created_at, updated_at
		 FROM conversations WHERE id = $1`,
		id,
	).Scan(&c.ID, &c.UserID, &c.AgentType, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrConversationNotFound
		}
		return nil, err
	}
	return &c, nil
}

// AppendMessage inserts a message and bumps the conversation timestamp.
func (r *ConversationRepository) AppendMessage(ctx context.Context, m *domain.ConversationMessage) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO conversation_messages (id, conversation_id, role, content, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		m.ID, m.ConversationID, m.Role, m.Content, m.CreatedAt,
	)
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx,
		`UPDATE conversations SET updated_at = $1 WHERE id = $2`,
		m.CreatedAt, m.ConversationID,
	)
	return err
}

func (r *ConversationRepository) ListMessages(ctx context.Context, conversationID string) ([]*domain.ConversationMessage, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, conversation_id, role, content, created_at
		 FROM conversation_messages WHERE conversation_id = $1 ORDER BY created_at ASC`,
		conversationID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []*domain.ConversationMessage
	for rows.Next() {
		var m domain.ConversationMessage
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, &m)
	}
	return messages, rows.Err()
}

func (r *ConversationRepository) ListByUserWithCursor(ctx context.Context, userID string, cursor *pagination.Cursor, limit int) (*ConversationPageResult, error) {
	if limit <= 0 {
		limit = 20
	}

	var rows pgx.Rows
	var err error

	if cursor != nil {
		rows, err = r.db.Query(ctx,
			`SELECT id, user_id, agent_type, created_at, updated_at
			 FROM conversations
			 WHERE user_id = $1 AND (updated_at, id) < ($2, $3)
			 ORDER BY updated_at DESC, id DESC
			 LIMIT $4`,
			userID, cursor.Timestamp, cursor.LastID, limit+1,
		)
	} else {
		rows, err = r.db.Query(ctx,
			`SELECT id, user_id, agent_type, created_at, updated_at
			 FROM conversations
			 WHERE user_id = $1
			 ORDER BY updated_at DESC, id DESC
			 LIMIT $2`,
			userID, limit+1,
		)
	}

	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*domain.Conversation
	for rows.Next() {
		var c domain.Conversation
		if err := rows.Scan(&c.ID, &c.UserID, &c.AgentType, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	hasMore := len(items) > limit
	if hasMore {
		items = items[:limit]
	}

	var nextCursor string
	if hasMore && len(items) > 0 {
		lastItem := items[len(items)-1]
		nextCursor = pagination.EncodeCursor(lastItem.ID, lastItem.UpdatedAt)
	}

	return &ConversationPageResult{
		Items:      items,
		NextCursor: nextCursor,
		HasMore:    hasMore,
	}, nil
}

// StatsByUsers returns conversation counts and most recent activity for
// the given user ids. Users without conversations are absent.
func (r *ConversationRepository) StatsByUsers(ctx context.Context, userIDs []string) (map[string]ConversationStats, error) {
	stats := make(map[string]ConversationStats)
	if len(userIDs) == 0 {
		return stats, nil
	}

	rows, err := r.db.Query(ctx,
		`SELECT user_id, COUNT(*), MAX(updated_at)
		 FROM conversations WHERE user_id = ANY($1) GROUP BY user_id`,
		userIDs,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var userID string
		var s ConversationStats
		if err := rows.Scan(&userID, &s.Count, &s.LastActivity); err != nil {
			return nil, err
		}
		stats[userID] = s
	}
	return stats, rows.Err()
}
