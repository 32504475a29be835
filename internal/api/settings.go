package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/neexbeast/partiu085-web/internal/backend"
	"github.com/neexbeast/partiu085-web/internal/offer"
)

// settingsPage shows the scheduler state, its controls and recent logs.
type settingsPage struct {
	Status  backend.SchedulerStatus `json:"status"`
	Summary string                  `json:"resumo"`
	Logs    []string                `json:"logs"`
	Updated string                  `json:"atualizado,omitempty"`
	Message string                  `json:"message,omitempty"`
}

// Settings handles GET /settings.
// Status and logs are loaded concurrently.
func (h *Handlers) Settings(w http.ResponseWriter, r *http.Request) {
	var (
		status backend.SchedulerStatus
		logs   backend.LogsResponse
	)

	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		status = h.monitor.SchedulerStatus(ctx)
		return nil
	})
	g.Go(func() error {
		logs = h.monitor.ExecutionLogs(ctx)
		return nil
	})
	_ = g.Wait()

	h.render(w, r, http.StatusOK, pageSettings, "Configurações", settingsPage{
		Status:  status,
		Summary: status.Summary(),
		Logs:    logs.Logs,
		Updated: offer.Ago(h.monitor.StatusUpdatedAt(), h.now()),
		Message: r.URL.Query().Get("msg"),
	})
}

// SchedulerStatus handles GET /settings/status.
func (h *Handlers) SchedulerStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.monitor.SchedulerStatus(r.Context()))
}

// ExecutionLogs handles GET /settings/logs.
func (h *Handlers) ExecutionLogs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.monitor.ExecutionLogs(r.Context()))
}

// SchedulerAction handles POST /settings/{acao}, where acao is iniciar,
// pausar or agora. The status is refreshed right after the action.
func (h *Handlers) SchedulerAction(w http.ResponseWriter, r *http.Request) {
	var action func(context.Context) backend.Status
	switch acao := chi.URLParam(r, "acao"); acao {
	case "iniciar":
		action = h.backend.StartScheduler
	case "pausar":
		action = h.backend.PauseScheduler
	case "agora":
		action = h.backend.RunSchedulerNow
	default:
		writeProblem(w, r, http.StatusNotFound, "unknown scheduler action "+acao)
		return
	}

	st := action(r.Context())
	status := h.monitor.RefreshStatus(r.Context())

	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, map[string]any{
			"success": st.Success,
			"message": st.Message,
			"status":  status,
		})
		return
	}

	if st.Success {
		redirect(w, r, "/settings")
		return
	}
	redirect(w, r, "/settings?msg="+url.QueryEscape(st.Message))
}

// ReloadDestinations handles POST /settings/destinos.
// It drops the cached destination list and fetches it again.
func (h *Handlers) ReloadDestinations(w http.ResponseWriter, r *http.Request) {
	list := h.catalog.Reload(r.Context())

	msg := fmt.Sprintf("Lista de destinos atualizada: %d destinos.", len(list))
	if len(list) == 0 {
		msg = "Não foi possível carregar a lista de destinos."
	}

	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, map[string]any{
			"success": len(list) > 0,
			"message": msg,
			"total":   len(list),
		})
		return
	}
	redirect(w, r, "/settings?msg="+url.QueryEscape(msg))
}
