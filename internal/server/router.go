package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/deskwise/deskwise/internal/api"
	"github.com/deskwise/deskwise/internal/api/handlers"
	"github.com/deskwise/deskwise/internal/api/middleware"
)

type RouterConfig struct {
	HelpdeskHandler *handlers.HelpdeskHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	const maxBodyBytes int64 = 1 * 1024 * 1024

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/submit", cfg.HelpdeskHandler.Submit)
	r.Post("/classify", cfg.HelpdeskHandler.Classify)
	r.Get("/status", cfg.HelpdeskHandler.Status)

	return r
}
