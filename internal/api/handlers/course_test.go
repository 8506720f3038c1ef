package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/praxislabs/praxis/internal/domain"
	"github.com/praxislabs/praxis/internal/service"
)

type MockCourseService struct {
	mock.Mock
}

func (m *MockCourseService) Publish(ctx context.Context, orgID, courseID string) (*domain.Course, error) {
	args := m.Called(ctx, orgID, courseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Course), args.Error(1)
}

func (m *MockCourseService) Unpublish(ctx context.Context, orgID, courseID string) (*domain.Course, error) {
	args := m.Called(ctx, orgID, courseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Course), args.Error(1)
}

func (m *MockCourseService) ListCourses(ctx context.Context, input service.ListCoursesInput) (*service.ListCoursesOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ListCoursesOutput), args.Error(1)
}

type MockIndexService struct {
	mock.Mock
}

func (m *MockIndexService) Reindex(ctx context.Context, orgID, courseID string) (*service.ReindexResult, error) {
	args := m.Called(ctx, orgID, courseID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ReindexResult), args.Error(1)
}

func (m *MockIndexService) RegenerateAll(ctx context.Context, orgID string) (*service.RegenerateResult, error) {
	args := m.Called(ctx, orgID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.RegenerateResult), args.Error(1)
}

func newTestCourse() *domain.Course {
	now := time.Now().UTC()
	return &domain.Course{
		ID:         "course-1",
		OrgID:      "org-456",
		Title:      "Go Fundamentals",
		AuthorName: "Pat Morgan",
		Status:     domain.CourseStatusPublished,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func courseRequest(method, url, id string) *http.Request {
	req := requestWithOrgID(method, url, nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func TestCourseHandler_Publish_Success(t *testing.T) {
	mockSvc := new(MockCourseService)
	handler := NewCourseHandler(mockSvc, new(MockIndexService))

	mockSvc.On("Publish", mock.Anything, "org-456", "course-1").Return(newTestCourse(), nil)

	req := courseRequest(http.MethodPost, "/courses/course-1/publish", "course-1")
	w := httptest.NewRecorder()

	handler.Publish(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "published", data["status"])
	mockSvc.AssertExpectations(t)
}

func TestCourseHandler_Publish_NotFound(t *testing.T) {
	mockSvc := new(MockCourseService)
	handler := NewCourseHandler(mockSvc, new(MockIndexService))

	mockSvc.On("Publish", mock.Anything, "org-456", "ghost").Return(nil, domain.ErrCourseNotFound)

	req := courseRequest(http.MethodPost, "/courses/ghost/publish", "ghost")
	w := httptest.NewRecorder()

	handler.Publish(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCourseHandler_Unpublish_Success(t *testing.T) {
	mockSvc := new(MockCourseService)
	handler := NewCourseHandler(mockSvc, new(MockIndexService))

	course := newTestCourse()
	course.Status = domain.CourseStatusDraft
	mockSvc.On("Unpublish", mock.Anything, "org-456", "course-1").Return(course, nil)

	req := courseRequest(http.MethodPost, "/courses/course-1/unpublish", "course-1")
	w := httptest.NewRecorder()

	handler.Unpublish(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockSvc.AssertExpectations(t)
}

func TestCourseHandler_List_Success(t *testing.T) {
	mockSvc := new(MockCourseService)
	handler := NewCourseHandler(mockSvc, new(MockIndexService))

	mockSvc.On("ListCourses", mock.Anything, service.ListCoursesInput{
		OrgID: "org-456",
		Limit: 20,
	}).Return(&service.ListCoursesOutput{
		Items:   []*domain.Course{newTestCourse()},
		HasMore: false,
	}, nil)

	req := requestWithOrgID(http.MethodGet, "/courses", nil)
	w := httptest.NewRecorder()

	handler.List(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	mockSvc.AssertExpectations(t)
}

func TestCourseHandler_Reindex_Success(t *testing.T) {
	mockIndexer := new(MockIndexService)
	handler := NewCourseHandler(new(MockCourseService), mockIndexer)

	mockIndexer.On("Reindex", mock.Anything, "org-456", "course-1").
		Return(&service.ReindexResult{EmbeddingCount: 7}, nil)

	req := courseRequest(http.MethodPost, "/courses/course-1/reindex", "course-1")
	w := httptest.NewRecorder()

	handler.Reindex(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, float64(7), data["embedding_count"])
	mockIndexer.AssertExpectations(t)
}

func TestCourseHandler_Regenerate_PartialFailure(t *testing.T) {
	mockIndexer := new(MockIndexService)
	handler := NewCourseHandler(new(MockCourseService), mockIndexer)

	mockIndexer.On("RegenerateAll", mock.Anything, "org-456").Return(&service.RegenerateResult{
		CourseCount:    3,
		EmbeddingCount: 20,
		Errors:         []string{"course course-3: embedding provider unavailable"},
	}, nil)

	req := requestWithOrgID(http.MethodPost, "/index/regenerate", nil)
	w := httptest.NewRecorder()

	handler.Regenerate(w, req)

	assert.Equal(t, http.StatusMultiStatus, w.Code)
	assert.Contains(t, w.Body.String(), "course-3")
}

func TestCourseHandler_Unauthorized(t *testing.T) {
	handler := NewCourseHandler(new(MockCourseService), new(MockIndexService))

	req := httptest.NewRequest(http.MethodGet, "/courses", nil)
	w := httptest.NewRecorder()

	handler.List(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
