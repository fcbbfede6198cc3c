package server

import (
	"net/http"

	"github.com/cloo-solutions/grootai/internal/api"
	"github.com/cloo-solutions/grootai/internal/api/handlers"
	"github.com/cloo-solutions/grootai/internal/api/middleware"
	"github.com/go-chi/chi/v5"
)

// maxBodyBytes caps tool arguments and conversation uploads.
const maxBodyBytes int64 = 1 << 20

type RouterConfig struct {
	// APIToken guards every route but /health. Empty disables auth.
	APIToken            string
	ToolsHandler        *handlers.ToolsHandler
	ConversationHandler *handlers.ConversationHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.BearerToken(cfg.APIToken))

		r.Route("/tools", func(r chi.Router) {
			r.Get("/", cfg.ToolsHandler.List)
			r.Post("/{name}", cfg.ToolsHandler.Invoke)
		})

		r.Route("/conversations/{id}", func(r chi.Router) {
			r.Put("/", cfg.ConversationHandler.Put)
			r.Get("/", cfg.ConversationHandler.Get)
			r.Delete("/", cfg.ConversationHandler.Delete)
			r.Post("/turns", cfg.ConversationHandler.Append)
		})
	})

	return r
}
