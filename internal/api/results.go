package api

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/neexbeast/partiu085-web/internal/offer"
)

// resultsPage is the grouped results grid.
type resultsPage struct {
	Filter  string       `json:"filtro"`
	Success bool         `json:"success"`
	Message string       `json:"message,omitempty"`
	Groups  offer.Groups `json:"grupos"`
	Total   int          `json:"total"`
	Now     time.Time    `json:"-"`
}

// Results handles GET /resultados?filtro=.
func (h *Handlers) Results(w http.ResponseWriter, r *http.Request) {
	filter := strings.TrimSpace(r.URL.Query().Get("filtro"))
	now := h.now()

	res := h.backend.Results(r.Context())
	groups := offer.Group(res.Results, filter, now)

	h.render(w, r, http.StatusOK, pageResults, "Resultados", resultsPage{
		Filter:  filter,
		Success: res.Success,
		Message: res.Message,
		Groups:  groups,
		Total:   groups.Total(),
		Now:     now,
	})
}

// SendToTelegram handles POST /telegram.
// The form carries the offer as JSON in the "oferta" field; browsers are sent
// back to the page named in "voltar".
func (h *Handlers) SendToTelegram(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeProblem(w, r, http.StatusBadRequest, "invalid form body")
		return
	}

	var o offer.Offer
	if err := json.Unmarshal([]byte(r.PostForm.Get("oferta")), &o); err != nil {
		writeProblem(w, r, http.StatusBadRequest, "oferta must be a JSON offer")
		return
	}
	if o.Destination == "" {
		writeProblem(w, r, http.StatusBadRequest, "oferta has no destination")
		return
	}

	st := h.backend.SendOfferToTelegram(r.Context(), o)
	if !st.Success {
		h.log.Warn("telegram send failed", "destination", o.Destination, "message", st.Message)
	}

	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, st)
		return
	}
	redirect(w, r, backTo(r.PostForm.Get("voltar")))
}

// returnPages are the pages that render offer cards with a Telegram button.
var returnPages = map[string]bool{"/resultados": true, "/lab-milhas": true}

// backTo only allows the local card pages as redirect targets.
func backTo(target string) string {
	u, err := url.Parse(target)
	if err != nil || u.Scheme != "" || u.Host != "" || u.User != nil || !returnPages[u.Path] {
		return "/resultados"
	}
	if u.RawQuery != "" {
		return u.Path + "?" + u.RawQuery
	}
	return u.Path
}
