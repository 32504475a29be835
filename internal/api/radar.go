package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/neexbeast/partiu085-web/internal/backend"
	"github.com/neexbeast/partiu085-web/internal/destination"
	"github.com/neexbeast/partiu085-web/internal/offer"
	"github.com/neexbeast/partiu085-web/internal/storage"
)

const recentSearchLimit = 8

// radarPage is the search form state.
type radarPage struct {
	SearchMode   string                 `json:"modo_busca"`
	Destinations string                 `json:"destinos"`
	DepartDate   string                 `json:"data_ida"`
	ReturnDate   string                 `json:"data_volta"`
	Success      bool                   `json:"success"`
	Message      string                 `json:"message,omitempty"`
	Errors       []string               `json:"errors,omitempty"`
	Recent       []storage.SearchRecord `json:"recentes"`
}

// searchMode maps the form's tab to the backend mode.
func searchMode(tab string) offer.Mode {
	if tab == "flex" {
		return offer.ModeManualFlex
	}
	return offer.ModeManual
}

func (h *Handlers) recentSearches(r *http.Request) []storage.SearchRecord {
	if h.history == nil {
		return []storage.SearchRecord{}
	}
	recent, err := h.history.RecentSearches(r.Context(), "", recentSearchLimit)
	if err != nil {
		h.log.Warn("loading recent searches failed", "err", err)
		return []storage.SearchRecord{}
	}
	return recent
}

// Radar handles GET /.
func (h *Handlers) Radar(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, pageRadar, "Radar Livre", radarPage{
		SearchMode: "exact",
		Recent:     h.recentSearches(r),
	})
}

// Execute handles POST /executar.
// Validates the form, starts a manual search and re-renders the form with the outcome.
func (h *Handlers) Execute(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeProblem(w, r, http.StatusBadRequest, "invalid form body")
		return
	}

	page := radarPage{
		SearchMode:   r.PostForm.Get("modo"),
		Destinations: strings.ToUpper(strings.TrimSpace(r.PostForm.Get("destinos"))),
		DepartDate:   strings.TrimSpace(r.PostForm.Get("data_ida")),
		ReturnDate:   strings.TrimSpace(r.PostForm.Get("data_volta")),
	}
	if page.SearchMode != "flex" {
		page.SearchMode = "exact"
	}

	codes := destination.Terms(page.Destinations)
	if len(codes) == 0 || page.DepartDate == "" {
		page.Errors = []string{"Preencha os destinos e a data inicial!"}
		if wantsJSON(r) {
			writeProblem(w, r, http.StatusBadRequest, page.Errors[0], page.Errors...)
			return
		}
		page.Recent = h.recentSearches(r)
		h.render(w, r, http.StatusBadRequest, pageRadar, "Radar Livre", page)
		return
	}

	req := backend.SearchRequest{
		Mode:         searchMode(page.SearchMode),
		Destinations: codes,
		DepartDate:   page.DepartDate,
		ReturnDate:   page.ReturnDate,
	}
	st := h.backend.Execute(r.Context(), req)

	page.Success = st.Success
	if st.Success {
		page.Message = "Busca concluída! Verifique os resultados na aba Resultados."
	} else {
		page.Message = "Erro ao iniciar busca."
	}

	if h.history != nil {
		if _, err := h.history.RecordSearch(r.Context(), storage.SearchRecord{
			Mode:         req.Mode,
			Destinations: req.Destinations,
			DepartDate:   req.DepartDate,
			ReturnDate:   req.ReturnDate,
			Success:      st.Success,
			Message:      st.Message,
		}); err != nil {
			h.log.Warn("recording search failed", "destinations", codes, "err", err)
		}
	}

	page.Recent = h.recentSearches(r)
	h.render(w, r, http.StatusOK, pageRadar, "Radar Livre", page)
}

// suggestion is one autocomplete entry.
type suggestion struct {
	destination.Destination
	Label string `json:"label"`
	Value string `json:"value"`
}

// Suggestions handles GET /destinos/sugestoes?q=&limit=.
// Value is the input with the trailing term replaced by the suggestion.
func (h *Handlers) Suggestions(w http.ResponseWriter, r *http.Request) {
	input := r.URL.Query().Get("q")

	limit := destination.DefaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeProblem(w, r, http.StatusBadRequest, "limit must be an integer")
			return
		}
		limit = n
	}

	matches := h.catalog.Search(r.Context(), input, limit)
	out := make([]suggestion, 0, len(matches))
	for _, d := range matches {
		out = append(out, suggestion{
			Destination: d,
			Label:       d.Label(),
			Value:       destination.Complete(input, d.IATA),
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"termo":     destination.ActiveTerm(input),
		"sugestoes": out,
	})
}
