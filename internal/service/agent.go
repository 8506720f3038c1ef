package service

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/praxislabs/praxis/internal/domain"
	"github.com/praxislabs/praxis/internal/openai"
	"github.com/praxislabs/praxis/internal/telemetry"
)

const (
	insightStartTag = "[INSIGHT]"
	insightEndTag   = "[/INSIGHT]"

	// DefaultAgentModel answers for agent types with no stored config.
	DefaultAgentModel = "gpt-4o-mini"

	defaultSystemInstruction = "You are a helpful learning assistant. Ground " +
		"your answers in the provided context and say so when the context does " +
		"not cover the question."
)

// CompletionClient defines the interface for chat completion calls
type CompletionClient interface {
	Complete(ctx context.Context, model string, messages []openai.ChatMessage) (string, error)
}

// ContextResolver produces the ordered context items for a scope
type ContextResolver interface {
	Resolve(ctx context.Context, orgID string, scope domain.ContextScope, query string) ([]domain.ContextItem, error)
}

// AgentConfigRepositoryInterface defines the persona config reads
type AgentConfigRepositoryInterface interface {
	GetByType(ctx context.Context, agentType string) (*domain.AgentConfig, error)
}

// InsightProfileRepository defines the profile reads and writes used
// for insight capture
type InsightProfileRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Profile, error)
	UpdateInsights(ctx context.Context, id string, insights []string) error
}

// InteractionRepositoryInterface defines the audit log writes
type InteractionRepositoryInterface interface {
	Create(ctx context.Context, i *domain.AgentInteraction) error
}

// ConversationWriter reads conversation ownership and appends turns
type ConversationWriter interface {
	GetByID(ctx context.Context, id string) (*domain.Conversation, error)
	AppendMessage(ctx context.Context, m *domain.ConversationMessage) error
}

// HistoryTurn is one prior exchange turn supplied by the caller
type HistoryTurn struct {
	Role domain.ConversationRole `json:"role"`
	Text string                  `json:"text"`
}

// RespondInput carries one agent request
type RespondInput struct {
	OrgID          string
	UserID         string
	AgentType      string
	Message        string
	Scope          domain.ContextScope
	History        []HistoryTurn
	ConversationID string
	PageContext    string
}

// RespondOutput is the agent's answer plus the context items it was
// grounded in, returned for citation display.
type RespondOutput struct {
	Text    string
	Sources []domain.ContextItem
}

// AgentService produces grounded agent responses. The completion call
// is the only hard failure; context resolution, insight capture,
// conversation writes, and audit logging are all best-effort.
type AgentService struct {
	configRepo      AgentConfigRepositoryInterface
	resolver        ContextResolver
	completions     CompletionClient
	profileRepo     InsightProfileRepository
	interactionRepo InteractionRepositoryInterface
	conversations   ConversationWriter
	uuidGen         UUIDGenerator
	defaultModel    string
}

// NewAgentService creates a new AgentService instance. conversations
// may be nil when turn persistence is not wanted.
func NewAgentService(
	configRepo AgentConfigRepositoryInterface,
	resolver ContextResolver,
	completions CompletionClient,
	profileRepo InsightProfileRepository,
	interactionRepo InteractionRepositoryInterface,
	conversations ConversationWriter,
) *AgentService {
	return &AgentService{
		configRepo:      configRepo,
		resolver:        resolver,
		completions:     completions,
		profileRepo:     profileRepo,
		interactionRepo: interactionRepo,
		conversations:   conversations,
		uuidGen:         &DefaultUUIDGenerator{},
		defaultModel:    DefaultAgentModel,
	}
}

// NewAgentServiceWithUUIDGen creates an AgentService with a custom UUID
// generator (for testing)
func NewAgentServiceWithUUIDGen(
	configRepo AgentConfigRepositoryInterface,
	resolver ContextResolver,
	completions CompletionClient,
	profileRepo InsightProfileRepository,
	interactionRepo InteractionRepositoryInterface,
	conversations ConversationWriter,
	uuidGen UUIDGenerator,
) *AgentService {
	s := NewAgentService(configRepo, resolver, completions, profileRepo, interactionRepo, conversations)
	s.uuidGen = uuidGen
	return s
}

// Respond answers one agent request.
func (s *AgentService) Respond(ctx context.Context, input RespondInput) (*RespondOutput, error) {
	ctx, span := telemetry.StartSpan(ctx, "AgentService.Respond", telemetry.SpanAttributes{
		OrgID:     input.OrgID,
		UserID:    input.UserID,
		AgentType: input.AgentType,
		Operation: "respond",
	})
	defer span.End()

	instruction, model := s.lookupPersona(ctx, input.AgentType)

	sources := s.resolveContext(ctx, input)
	prompt := buildPrompt(instruction, sources, input.PageContext, input.Message)

	messages := make([]openai.ChatMessage, 0, len(input.History)+1)
	for _, turn := range input.History {
		role := openai.RoleUser
		if turn.Role == domain.ConversationRoleModel {
			role = openai.RoleAssistant
		}
		messages = append(messages, openai.ChatMessage{Role: role, Content: turn.Text})
	}
	messages = append(messages, openai.ChatMessage{Role: openai.RoleUser, Content: prompt})

	raw, err := s.completions.Complete(ctx, model, messages)
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	text, insight := extractInsight(raw)

	if insight != "" && input.UserID != "" {
		s.saveInsight(ctx, input.OrgID, input.UserID, insight)
	}

	s.appendTurns(ctx, input, text)

	s.logInteraction(ctx, &domain.AgentInteraction{
		ID:             s.uuidGen.NewString(),
		OrgID:          input.OrgID,
		UserID:         input.UserID,
		ConversationID: input.ConversationID,
		AgentType:      input.AgentType,
		Model:          model,
		Prompt:         prompt,
		Response:       text,
		Sources:        sources,
		Insight:        insight,
		CreatedAt:      time.Now().UTC(),
	})

	return &RespondOutput{Text: text, Sources: sources}, nil
}

// lookupPersona returns the stored instruction and model for an agent
// type, or fixed defaults when no config exists. Config misses never
// surface.
func (s *AgentService) lookupPersona(ctx context.Context, agentType string) (string, string) {
	cfg, err := s.configRepo.GetByType(ctx, agentType)
	if err != nil || cfg == nil {
		return defaultSystemInstruction, s.defaultModel
	}
	instruction := cfg.SystemInstruction
	if instruction == "" {
		instruction = defaultSystemInstruction
	}
	model := cfg.Model
	if model == "" {
		model = s.defaultModel
	}
	return instruction, model
}

// resolveContext returns the scope's context items; a resolution
// failure is logged and yields an empty context.
func (s *AgentService) resolveContext(ctx context.Context, input RespondInput) []domain.ContextItem {
	sources, err := s.resolver.Resolve(ctx, input.OrgID, input.Scope, input.Message)
	if err != nil {
		log.Printf("agent: context resolution failed for scope %s: %v", input.Scope.Type, err)
		return nil
	}
	return sources
}

// saveInsight appends a deduplicated insight to the user's profile.
// Profiles outside the caller's organization are never written.
func (s *AgentService) saveInsight(ctx context.Context, orgID, userID, insight string) {
	profile, err := s.profileRepo.GetByID(ctx, userID)
	if err != nil {
		log.Printf("agent: insight profile fetch failed for %s: %v", userID, err)
		return
	}
	if profile.OrgID != orgID {
		log.Printf("agent: insight target %s is outside org %s, skipping", userID, orgID)
		return
	}
	for _, existing := range profile.Insights {
		if existing == insight {
			return
		}
	}
	updated := append(profile.Insights, insight)
	if err := s.profileRepo.UpdateInsights(ctx, userID, updated); err != nil {
		log.Printf("agent: insight save failed for %s: %v", userID, err)
	}
}

// appendTurns persists the user and model turns when the request names
// an existing conversation. The conversation's owner must belong to
// the caller's organization. Failures are logged only.
func (s *AgentService) appendTurns(ctx context.Context, input RespondInput, response string) {
	if s.conversations == nil || input.ConversationID == "" {
		return
	}
	conversation, err := s.conversations.GetByID(ctx, input.ConversationID)
	if err != nil {
		log.Printf("agent: conversation fetch failed for %s: %v", input.ConversationID, err)
		return
	}
	owner, err := s.profileRepo.GetByID(ctx, conversation.UserID)
	if err != nil || owner.OrgID != input.OrgID {
		log.Printf("agent: conversation %s is outside org %s, skipping turns", input.ConversationID, input.OrgID)
		return
	}
	now := time.Now().UTC()
	turns := []*domain.ConversationMessage{
		{
			ID:             s.uuidGen.NewString(),
			ConversationID: input.ConversationID,
			Role:           domain.ConversationRoleUser,
			Content:        input.Message,
			CreatedAt:      now,
		},
		{
			ID:             s.uuidGen.NewString(),
			ConversationID: input.ConversationID,
			Role:           domain.ConversationRoleModel,
			Content:        response,
			CreatedAt:      now,
		},
	}
	for _, turn := range turns {
		if err := s.conversations.AppendMessage(ctx, turn); err != nil {
			log.Printf("agent: conversation append failed for %s: %v", input.ConversationID, err)
			return
		}
	}
}

func (s *AgentService) logInteraction(ctx context.Context, interaction *domain.AgentInteraction) {
	if err := s.interactionRepo.Create(ctx, interaction); err != nil {
		log.Printf("agent: interaction log failed: %v", err)
	}
}

// buildPrompt assembles the fixed prompt envelope. Section order is
// part of the contract.
func buildPrompt(instruction string, sources []domain.ContextItem, pageContext, message string) string {
	var sb strings.Builder
	sb.WriteString("SYSTEM INSTRUCTION:\n")
	sb.WriteString(instruction)
	sb.WriteString("\n\nCONTEXT:\n")
	sb.WriteString(flattenContext(sources, pageContext))
	sb.WriteString("\n\nUSER QUESTION:\n")
	sb.WriteString(message)
	return sb.String()
}

// flattenContext renders context items as one text block, each item
// prefixed by its bracketed type tag.
func flattenContext(sources []domain.ContextItem, pageContext string) string {
	blocks := make([]string, 0, len(sources)+1)
	for _, item := range sources {
		blocks = append(blocks, "["+string(item.Type)+"] "+item.Content)
	}
	if pageContext != "" {
		blocks = append(blocks, "[PAGE] "+pageContext)
	}
	if len(blocks) == 0 {
		return "(no context available)"
	}
	return strings.Join(blocks, "\n\n")
}

// extractInsight strips a single delimited insight marker from the
// response. A start tag without a matching end tag is left untouched.
func extractInsight(text string) (string, string) {
	start := strings.Index(text, insightStartTag)
	if start < 0 {
		return text, ""
	}
	rest := text[start+len(insightStartTag):]
	end := strings.Index(rest, insightEndTag)
	if end < 0 {
		return text, ""
	}

	insight := strings.TrimSpace(rest[:end])
	cleaned := text[:start] + rest[end+len(insightEndTag):]
	return strings.TrimSpace(cleaned), insight
}
