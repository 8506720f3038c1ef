package handlers

import (
	"context"
	"net/http"

	"github.com/praxislabs/praxis/internal/api"
	"github.com/praxislabs/praxis/internal/api/middleware"
)

type TeamReporter interface {
	BuildContextForRequester(ctx context.Context, orgID, requesterID, groupID string) (string, error)
}

type TeamHandler struct {
	svc TeamReporter
}

func NewTeamHandler(svc TeamReporter) *TeamHandler {
	return &TeamHandler{svc: svc}
}

type TeamReportResponse struct {
	Report string `json:"report"`
}

func (h *TeamHandler) Report(w http.ResponseWriter, r *http.Request) {
	orgID := middleware.GetOrgID(r.Context())
	if orgID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	requesterID := r.URL.Query().Get("requester_id")
	if requesterID == "" {
		api.Error(w, http.StatusBadRequest, "requester_id is required")
		return
	}
	groupID := r.URL.Query().Get("group_id")

	report, err := h.svc.BuildContextForRequester(r.Context(), orgID, requesterID, groupID)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	// An empty report means the requester lacks admin access.
	if report == "" {
		api.Error(w, http.StatusForbidden, "forbidden")
		return
	}

	api.Success(w, http.StatusOK, TeamReportResponse{Report: report})
}
