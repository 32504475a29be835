package api

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"
)

// Handlers holds the dependencies for all HTTP handlers.
type Handlers struct {
	backend Backend
	catalog DestinationSearcher
	history SearchHistory
	monitor SchedulerMonitor
	pages   map[string]*template.Template
	log     *slog.Logger
	now     func() time.Time
}

// Option configures Handlers.
type Option func(*Handlers)

// WithLocation sets the time zone used to split offers into today and
// yesterday. The default is the server's local zone.
func WithLocation(loc *time.Location) Option {
	return func(h *Handlers) {
		h.now = func() time.Time { return time.Now().In(loc) }
	}
}

// NewHandlers constructs Handlers with all required dependencies.
// history may be nil when no database is configured.
func NewHandlers(b Backend, catalog DestinationSearcher, history SearchHistory, monitor SchedulerMonitor, log *slog.Logger, opts ...Option) (*Handlers, error) {
	pages, err := parsePages()
	if err != nil {
		return nil, err
	}
	h := &Handlers{
		backend: b,
		catalog: catalog,
		history: history,
		monitor: monitor,
		pages:   pages,
		log:     log,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// render writes data as JSON when the client asks for it, otherwise as the
// named HTML page.
func (h *Handlers) render(w http.ResponseWriter, r *http.Request, status int, page, title string, data any) {
	if wantsJSON(r) {
		writeJSON(w, status, data)
		return
	}

	t, ok := h.pages[page]
	if !ok {
		h.log.Error("unknown page template", "page", page)
		writeProblem(w, r, http.StatusInternalServerError, "page not found")
		return
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", view{Title: title, Active: page, Data: data}); err != nil {
		h.log.Error("template render failed", "page", page, "err", err)
		writeProblem(w, r, http.StatusInternalServerError, "failed to render page")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// redirect sends the browser back to a page after a form post.
func redirect(w http.ResponseWriter, r *http.Request, to string) {
	http.Redirect(w, r, to, http.StatusSeeOther)
}

// HealthHandlerFunc returns an http.HandlerFunc that probes every configured
// dependency. A nil entry in deps is skipped and reported as "disabled".
func HealthHandlerFunc(deps map[string]Pinger, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		status := http.StatusOK
		body := map[string]string{}

		for name, p := range deps {
			if p == nil {
				body[name] = "disabled"
				continue
			}
			if err := p.Ping(ctx); err != nil {
				log.Error(fmt.Sprintf("health check: %s ping failed", name), "err", err)
				body[name] = "error"
				status = http.StatusServiceUnavailable
				continue
			}
			body[name] = "ok"
		}

		body["status"] = "ok"
		if status != http.StatusOK {
			body["status"] = "degraded"
		}
		writeJSON(w, status, body)
	}
}
