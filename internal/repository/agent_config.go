package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/praxislabs/praxis/internal/domain"
)

type AgentConfigRepository struct {
	db dbtx
}

func NewAgentConfigRepository(pool *pgxpool.Pool) *AgentConfigRepository {
	return &AgentConfigRepository{db: pool}
}

func (r *AgentConfigRepository) GetByType(ctx context.Context, agentType string) (*domain.AgentConfig, error) {
	var cfg domain.AgentConfig
	err := r.db.QueryRow(ctx,
		`SELECT agent_type, system_instruction, model, updated_at
		 FROM agent_configs WHERE agent_type = $1`,
		agentType,
	).Scan(&cfg.AgentType, &cfg.SystemInstruction, &cfg.Model, &cfg.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAgentConfigNotFound
		}
		return nil, err
	}
	return &cfg, nil
}

func (r *AgentConfigRepository) Upsert(ctx context.Context, cfg *domain.AgentConfig) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO agent_configs (agent_type, system_instruction, model, updated_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (agent_type)
		 DO UPDATE SET system_instruction = $2, model = $3, updated_at = $4`,
		cfg.AgentType, cfg.SystemInstruction, cfg.Model, cfg.UpdatedAt,
	)
	return err
}
