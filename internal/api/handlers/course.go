package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/praxislabs/praxis/internal/api"
	"github.com/praxislabs/praxis/internal/api/middleware"
	"github.com/praxislabs/praxis/internal/domain"
	"github.com/praxislabs/praxis/internal/service"
)

type CourseServiceInterface interface {
	Publish(ctx context.Context, orgID, courseID string) (*domain.Course, error)
	Unpublish(ctx context.Context, orgID, courseID string) (*domain.Course, error)
	ListCourses(ctx context.Context, input service.ListCoursesInput) (*service.ListCoursesOutput, error)
}

type IndexService interface {
	Reindex(ctx context.Context, orgID, courseID string) (*service.ReindexResult, error)
	RegenerateAll(ctx context.Context, orgID string) (*service.RegenerateResult, error)
}

type CourseHandler struct {
	svc     CourseServiceInterface
	indexer IndexService
}

func NewCourseHandler(svc CourseServiceInterface, indexer IndexService) *CourseHandler {
	return &CourseHandler{svc: svc, indexer: indexer}
}

type CourseResponse struct {
	ID          string `json:"id"`
	OrgID       string `json:"org_id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category,omitempty"`
	AuthorName  string `json:"author_name,omitempty"`
	Status      string `json:"status"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

func courseToResponse(c *domain.Course) *CourseResponse {
	return &CourseResponse{
		ID:          c.ID,
		OrgID:       c.OrgID,
		Title:       c.Title,
		Description: c.Description,
		Category:    c.Category,
		AuthorName:  c.AuthorName,
		Status:      string(c.Status),
		CreatedAt:   c.CreatedAt.Format("2006-01-02T15:04:05Z"),
		UpdatedAt:   c.UpdatedAt.Format("2006-01-02T15:04:05Z"),
	}
}

func (h *CourseHandler) Publish(w http.ResponseWriter, r *http.Request) {
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

	course, err := h.svc.Publish(r.Context(), orgID, id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, courseToResponse(course))
}

func (h *CourseHandler) Unpublish(w http.ResponseWriter, r *http.Request) {
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

	course, err := h.svc.Unpublish(r.Context(), orgID, id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, courseToResponse(course))
}

type CourseListResponse struct {
	Items   []*CourseResponse `json:"items"`
	Cursor  string            `json:"cursor,omitempty"`
	HasMore bool              `json:"has_more"`
}

func (h *CourseHandler) List(w http.ResponseWriter, r *http.Request) {
	orgID := middleware.GetOrgID(r.Context())
	if orgID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
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

	output, err := h.svc.ListCourses(r.Context(), service.ListCoursesInput{
		OrgID:  orgID,
		Cursor: cursor,
		Limit:  limit,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	responses := make([]*CourseResponse, len(output.Items))
	for i, c := range output.Items {
		responses[i] = courseToResponse(c)
	}

	api.Success(w, http.StatusOK, CourseListResponse{
		Items:   responses,
		Cursor:  output.Cursor,
		HasMore: output.HasMore,
	})
}

type ReindexResponse struct {
	EmbeddingCount int `json:"embedding_count"`
}

// Reindex rebuilds a course's index synchronously, bypassing the job
// queue. Publish and unpublish enqueue jobs instead.
func (h *CourseHandler) Reindex(w http.ResponseWriter, r *http.Request) {
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

	result, err := h.indexer.Reindex(r.Context(), orgID, id)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, ReindexResponse{EmbeddingCount: result.EmbeddingCount})
}

type RegenerateResponse struct {
	CourseCount    int      `json:"course_count"`
	EmbeddingCount int      `json:"embedding_count"`
	Errors         []string `json:"errors,omitempty"`
}

func (h *CourseHandler) Regenerate(w http.ResponseWriter, r *http.Request) {
	orgID := middleware.GetOrgID(r.Context())
	if orgID == "" {
		api.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	result, err := h.indexer.RegenerateAll(r.Context(), orgID)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	status := http.StatusOK
	if !result.Success() {
		status = http.StatusMultiStatus
	}

	api.Success(w, status, RegenerateResponse{
		CourseCount:    result.CourseCount,
		EmbeddingCount: result.EmbeddingCount,
		Errors:         result.Errors,
	})
}
