package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/neexbeast/partiu085-web/internal/backend"
	"github.com/neexbeast/partiu085-web/internal/destination"
	"github.com/neexbeast/partiu085-web/internal/offer"
)

// alertsPage lists saved alerts and the create form.
type alertsPage struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Alerts  []backend.Alert `json:"alertas"`
	Errors  []string        `json:"errors,omitempty"`
	Form    alertForm       `json:"-"`
}

type alertForm struct {
	Destination string
	DepartDate  string
	ReturnDate  string
	TargetPrice string
}

func (h *Handlers) alertsPage(r *http.Request) alertsPage {
	res := h.backend.Alerts(r.Context())
	return alertsPage{Success: res.Success, Message: res.Message, Alerts: res.Alerts}
}

// Alerts handles GET /alertas.
func (h *Handlers) Alerts(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, pageAlerts, "Alertas", h.alertsPage(r))
}

// CreateAlert handles POST /alertas.
// Only the first destination of a multi-destination input is used.
func (h *Handlers) CreateAlert(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeProblem(w, r, http.StatusBadRequest, "invalid form body")
		return
	}

	form := alertForm{
		Destination: r.PostForm.Get("destino"),
		DepartDate:  strings.TrimSpace(r.PostForm.Get("data_ida")),
		ReturnDate:  strings.TrimSpace(r.PostForm.Get("data_volta")),
		TargetPrice: strings.TrimSpace(r.PostForm.Get("preco_alvo")),
	}

	codes := destination.Terms(form.Destination)
	price := offer.ParsePrice(form.TargetPrice)
	if len(codes) == 0 || form.DepartDate == "" || price <= 0 {
		msg := "Preencha Destino, Data de Ida e Preço Alvo."
		if wantsJSON(r) {
			writeProblem(w, r, http.StatusBadRequest, msg, msg)
			return
		}
		page := h.alertsPage(r)
		page.Errors = []string{msg}
		page.Form = form
		h.render(w, r, http.StatusBadRequest, pageAlerts, "Alertas", page)
		return
	}

	st := h.backend.AddAlert(r.Context(), backend.AlertInput{
		Destination: codes[0],
		DepartDate:  form.DepartDate,
		ReturnDate:  form.ReturnDate,
		TargetPrice: price,
	})
	h.afterAlertMutation(w, r, st)
}

// DeleteAlert handles DELETE /alertas/{id} and POST /alertas/{id}/excluir.
func (h *Handlers) DeleteAlert(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	st := h.backend.DeleteAlert(r.Context(), id)
	h.afterAlertMutation(w, r, st)
}

// afterAlertMutation answers a create or delete. JSON clients get the
// refetched list; browsers are redirected so the list is fetched again.
func (h *Handlers) afterAlertMutation(w http.ResponseWriter, r *http.Request, st backend.Status) {
	if !st.Success {
		h.log.Warn("alert mutation failed", "path", r.URL.Path, "message", st.Message)
	}

	if wantsJSON(r) {
		page := h.alertsPage(r)
		page.Success, page.Message = st.Success, st.Message
		writeJSON(w, http.StatusOK, page)
		return
	}
	redirect(w, r, "/alertas")
}
