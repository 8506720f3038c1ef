package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/praxislabs/praxis/internal/api"
	"github.com/praxislabs/praxis/internal/api/middleware"
	"github.com/praxislabs/praxis/internal/domain"
	"github.com/praxislabs/praxis/internal/service"
)

type AgentResponder interface {
	Respond(ctx context.Context, input service.RespondInput) (*service.RespondOutput, error)
}

type AgentHandler struct {
	svc AgentResponder
}

func NewAgentHandler(svc AgentResponder) *AgentHandler {
	return &AgentHandler{svc: svc}
}

type ScopeRequest struct {
	Type   string `json:"type"`
	ID     string `json:"id"`
	UserID string `json:"user_id"`
}

type ChatRequest struct {
	UserID         string                `json:"user_id"`
	AgentType      string                `json:"agent_type"`
	Message        string                `json:"message"`
	Scope          ScopeRequest          `json:"scope"`
	History        []service.HistoryTurn `json:"history"`
	ConversationID string                `json:"conversation_id"`
	PageContext    string                `json:"page_context"`
}

type ChatResponse struct {
	Text    string               `json:"text"`
	Sources []domain.ContextItem `json:"sources"`
}

func (h *AgentHandler) Chat(w http.ResponseWriter, r *http.Request) {
	orgID := middleware.GetOrgID(r.Context())
	if orgID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.UserID == "" {
		api.Error(w, http.StatusBadRequest, "user_id is required")
		return
	}
	if req.Message == "" {
		api.Error(w, http.StatusBadRequest, "message is required")
		return
	}
	if req.AgentType == "" {
		api.Error(w, http.StatusBadRequest, "agent_type is required")
		return
	}

	scopeType := domain.ScopeType(req.Scope.Type)
	if scopeType == "" {
		scopeType = domain.ScopePlatform
	}
	if !isValidScopeType(scopeType) {
		api.Error(w, http.StatusBadRequest, "invalid scope type")
		return
	}

	scopeUserID := req.Scope.UserID
	if scopeUserID == "" {
		scopeUserID = req.UserID
	}

	input := service.RespondInput{
		OrgID:     orgID,
		UserID:    req.UserID,
		AgentType: req.AgentType,
		Message:   req.Message,
		Scope: domain.ContextScope{
			Type:   scopeType,
			ID:     req.Scope.ID,
			UserID: scopeUserID,
		},
		History:        req.History,
		ConversationID: req.ConversationID,
		PageContext:    req.PageContext,
	}

	output, err := h.svc.Respond(r.Context(), input)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, ChatResponse{
		Text:    output.Text,
		Sources: output.Sources,
	})
}

func isValidScopeType(t domain.ScopeType) bool {
	switch t {
	case domain.ScopeCourse, domain.ScopeCollection, domain.ScopePlatform,
		domain.ScopeUser, domain.ScopeTeam:
		return true
	}
	return false
}
