package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/praxislabs/praxis/internal/api"
	"github.com/praxislabs/praxis/internal/api/handlers"
	"github.com/praxislabs/praxis/internal/api/middleware"
)

type RouterConfig struct {
	AuthValidator       middleware.AuthValidator
	AgentHandler        *handlers.AgentHandler
	AssignmentHandler   *handlers.AssignmentHandler
	TeamHandler         *handlers.TeamHandler
	CourseHandler       *handlers.CourseHandler
	ConversationHandler *handlers.ConversationHandler
	AuthHandler         *handlers.AuthHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	const maxBodyBytes int64 = 5 * 1024 * 1024

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.APIKeyAuth(cfg.AuthValidator))

		r.Post("/agent/chat", cfg.AgentHandler.Chat)

		r.Get("/assignments", cfg.AssignmentHandler.List)

		r.Get("/team/report", cfg.TeamHandler.Report)

		r.Route("/courses", func(r chi.Router) {
			r.Get("/", cfg.CourseHandler.List)
			r.Post("/{id}/publish", cfg.CourseHandler.Publish)
			r.Post("/{id}/unpublish", cfg.CourseHandler.Unpublish)
			r.Post("/{id}/reindex", cfg.CourseHandler.Reindex)
		})

		r.Post("/index/regenerate", cfg.CourseHandler.Regenerate)

		r.Route("/conversations", func(r chi.Router) {
			r.Post("/", cfg.ConversationHandler.Start)
			r.Get("/", cfg.ConversationHandler.List)
			r.Get("/{id}", cfg.ConversationHandler.Get)
		})
	})

	r.Post("/orgs", cfg.AuthHandler.CreateOrg)
	r.Post("/apikeys", cfg.AuthHandler.CreateAPIKey)

	return r
}
