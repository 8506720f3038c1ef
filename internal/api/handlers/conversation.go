package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/praxislabs/praxis/internal/api"
	"github.com/praxislabs/praxis/internal/api/middleware"
	"github.com/praxislabs/praxis/internal/domain"
	"github.com/praxislabs/praxis/internal/service"
)

type ConversationServiceInterface interface {
	Start(ctx context.Context, orgID, userID, agentType string) (*domain.Conversation, error)
	GetWithMessages(ctx context.Context, orgID, conversationID string) (*domain.Conversation, []*domain.ConversationMessage, error)
	List(ctx context.Context, input service.ListConversationsInput) (*service.ListConversationsOutput, error)
}

type ConversationHandler struct {
	svc ConversationServiceInterface
}

func NewConversationHandler(svc ConversationServiceInterface) *ConversationHandler {
	return &ConversationHandler{svc: svc}
}

type StartConversationRequest struct {
	UserID    string `json:"user_id"`
	AgentType string `json:"agent_type"`
}

type ConversationResponse struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	AgentType string `json:"agent_type"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type MessageResponse struct {
	ID        string `json:"id"`
	Role      string `json:"role"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at"`
}

func conversationToResponse(c *domain.Conversation) *ConversationResponse {
	return &ConversationResponse{
		ID:        c.ID,
		UserID:    c.UserID,
		AgentType: c.AgentType,
		CreatedAt: c.CreatedAt.Format("2006-01-02T15:04:05Z"),
		UpdatedAt: c.UpdatedAt.Format("2006-01-02T15:04:05Z"),
	}
}

func (h *ConversationHandler) Start(w http.ResponseWriter, r *http.Request) {
	orgID := middleware.GetOrgID(r.Context())
	if orgID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req StartConversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.UserID == "" {
		api.Error(w, http.StatusBadRequest, "user_id is required")
		return
	}
	if req.AgentType == "" {
		api.Error(w, http.StatusBadRequest, "agent_type is required")
		return
	}

	conversation, err := h.svc.Start(r.Context(), orgID, req.UserID, req.AgentType)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusCreated, conversationToResponse(conversation))
}

type ConversationDetailResponse struct {
	Conversation *ConversationResponse `json:"conversation"`
	Messages     []*MessageResponse    `json:"messages"`
}

func (h *ConversationHandler) Get(w http.ResponseWriter, r *http.Request) {
	orgID := middleware.GetOrgID(r.Context())
	if orgID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		api.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	conversation, messages, err := h.svc.GetWithMessages(r.Context(), orgID, id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	responses := make([]*MessageResponse, len(messages))
	for i, m := range messages {
		responses[i] = &MessageResponse{
			ID:        m.ID,
			Role:      string(m.Role),
			Content:   m.Content,
			CreatedAt: m.CreatedAt.Format("2006-01-02T15:04:05Z"),
		}
	}

	api.Success(w, http.StatusOK, ConversationDetailResponse{
		Conversation: conversationToResponse(conversation),
		Messages:     responses,
	})
}

type ConversationListResponse struct {
	Items   []*ConversationResponse `json:"items"`
	Cursor  string                  `json:"cursor,omitempty"`
	HasMore bool                    `json:"has_more"`
}

func (h *ConversationHandler) List(w http.ResponseWriter, r *http.Request) {
	orgID := middleware.GetOrgID(r.Context())
	if orgID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		api.Error(w, http.StatusBadRequest, "user_id is required")
		return
	}

	cursor := r.URL.Query().Get("cursor")
	limitStr := r.URL.Query().Get("limit")
	limit := 20
	if limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	output, err := h.svc.List(r.Context(), service.ListConversationsInput{
		OrgID:  orgID,
		UserID: userID,
		Cursor: cursor,
		Limit:  limit,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	responses := make([]*ConversationResponse, len(output.Items))
	for i, c := range output.Items {
		responses[i] = conversationToResponse(c)
	}

	api.Success(w, http.StatusOK, ConversationListResponse{
		Items:   responses,
		Cursor:  output.Cursor,
		HasMore: output.HasMore,
	})
}
