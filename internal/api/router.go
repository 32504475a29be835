package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
)

// DefaultRequestsPerMinute is the per-IP rate limit when none is configured.
const DefaultRequestsPerMinute = 120

// NewRouter builds and returns the Chi router with all routes configured.
// Static assets and the health endpoint sit outside the rate limit; pages are
// limited to requestsPerMinute per IP and are never cached.
func NewRouter(handlers *Handlers, requestsPerMinute int, deps map[string]Pinger, log *slog.Logger) *chi.Mux {
	if requestsPerMinute <= 0 {
		requestsPerMinute = DefaultRequestsPerMinute
	}

	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	r.Get("/health", HealthHandlerFunc(deps, log))
	r.Handle("/static/*", http.StripPrefix("/static/", staticHandler()))

	r.Group(func(r chi.Router) {
		r.Use(httprate.LimitByIP(requestsPerMinute, time.Minute))
		r.Use(NoStore)

		r.Get("/", handlers.Radar)
		r.Post("/executar", handlers.Execute)
		r.Get("/destinos/sugestoes", handlers.Suggestions)

		r.Get("/resultados", handlers.Results)
		r.Post("/telegram", handlers.SendToTelegram)

		r.Get("/alertas", handlers.Alerts)
		r.Post("/alertas", handlers.CreateAlert)
		r.Delete("/alertas/{id}", handlers.DeleteAlert)
		r.Post("/alertas/{id}/excluir", handlers.DeleteAlert)

		r.Get("/lab-milhas", handlers.LabForm)
		r.Post("/lab-milhas", handlers.ProcessText)

		r.Get("/settings", handlers.Settings)
		r.Get("/settings/status", handlers.SchedulerStatus)
		r.Get("/settings/logs", handlers.ExecutionLogs)
		r.Post("/settings/destinos", handlers.ReloadDestinations)
		r.Post("/settings/{acao}", handlers.SchedulerAction)
	})

	return r
}

// Ensure chi.Mux implements http.Handler.
var _ http.Handler = (*chi.Mux)(nil)
