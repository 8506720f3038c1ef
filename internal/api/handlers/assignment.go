package handlers

import (
	"context"
	"net/http"

	"github.com/praxislabs/praxis/internal/api"
	"github.com/praxislabs/praxis/internal/api/middleware"
	"github.com/praxislabs/praxis/internal/domain"
)

type AssignmentResolver interface {
	ResolveForUser(ctx context.Context, orgID, userID string) ([]*domain.EnrichedAssignment, error)
}

type AssignmentHandler struct {
	svc AssignmentResolver
}

func NewAssignmentHandler(svc AssignmentResolver) *AssignmentHandler {
	return &AssignmentHandler{svc: svc}
}

type AssignmentResponse struct {
	ID             string `json:"id"`
	AssigneeType   string `json:"assignee_type"`
	ContentType    string `json:"content_type"`
	ContentID      string `json:"content_id"`
	AssignmentType string `json:"assignment_type"`
	Title          string `json:"title"`
	Description    string `json:"description,omitempty"`
	Author         string `json:"author,omitempty"`
	CreatedAt      string `json:"created_at"`
}

type AssignmentListResponse struct {
	Items []*AssignmentResponse `json:"items"`
}

func assignmentToResponse(a *domain.EnrichedAssignment) *AssignmentResponse {
	return &AssignmentResponse{
		ID:             a.Assignment.ID,
		AssigneeType:   string(a.Assignment.AssigneeType),
		ContentType:    string(a.Assignment.ContentType),
		ContentID:      a.Assignment.ContentID,
		AssignmentType: string(a.Assignment.AssignmentType),
		Title:          a.Title,
		Description:    a.Description,
		Author:         a.Author,
		CreatedAt:      a.Assignment.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
}

func (h *AssignmentHandler) List(w http.ResponseWriter, r *http.Request) {
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

	assignments, err := h.svc.ResolveForUser(r.Context(), orgID, userID)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	responses := make([]*AssignmentResponse, len(assignments))
	for i, a := range assignments {
		responses[i] = assignmentToResponse(a)
	}

	api.Success(w, http.StatusOK, AssignmentListResponse{Items: responses})
}
