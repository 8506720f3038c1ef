package repository

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/praxislabs/praxis/internal/domain"
)

// InteractionRepository writes the agent audit log. Rows are write-only
// from the engine's point of view.
type InteractionRepository struct {
	db dbtx
}

func NewInteractionRepository(pool *pgxpool.Pool) *InteractionRepository {
	return &InteractionRepository{db: pool}
}

func (r *InteractionRepository) Create(ctx context.Context, i *domain.AgentInteraction) error {
	sources, err := json.Marshal(i.Sources)
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx,
		`INSERT INTO agent_interactions
			(id, org_id, user_id, conversation_id, agent_type, model, prompt, response, sources, insight, created_at)
		 VALUES
			($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		i.ID,
		nullableString(i.OrgID),
		nullableString(i.UserID),
		nullableString(i.ConversationID),
		i.AgentType,
		i.Model,
		i.Prompt,
		i.Response,
		sources,
		nullableString(i.Insight),
		i.CreatedAt,
	)
	return err
}
