package api

import (
	"net/http"
	"strings"

	"github.com/neexbeast/partiu085-web/internal/backend"
	"github.com/neexbeast/partiu085-web/internal/offer"
)

// labPage is the promo text converter. Exactly one of Offer, Text or Error is
// set after a submission.
type labPage struct {
	Input string       `json:"texto"`
	Mode  string       `json:"modo,omitempty"`
	Kind  string       `json:"tipo,omitempty"`
	Offer *offer.Offer `json:"oferta,omitempty"`
	Text  string       `json:"conteudo,omitempty"`
	Error string       `json:"erro,omitempty"`
}

// LabForm handles GET /lab-milhas.
func (h *Handlers) LabForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, pageLab, "Conversor de Textos", labPage{})
}

// ProcessText handles POST /lab-milhas.
// modo is "reais" (convert to a cash offer) or "reescrever" (rewrite the text).
func (h *Handlers) ProcessText(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeProblem(w, r, http.StatusBadRequest, "invalid form body")
		return
	}

	page := labPage{
		Input: r.PostForm.Get("texto"),
		Mode:  r.PostForm.Get("modo"),
	}
	if page.Mode != backend.TextModeReescrever {
		page.Mode = backend.TextModeReais
	}

	if strings.TrimSpace(page.Input) == "" {
		if wantsJSON(r) {
			writeProblem(w, r, http.StatusBadRequest, "texto is required")
			return
		}
		h.render(w, r, http.StatusOK, pageLab, "Conversor de Textos", page)
		return
	}

	res := h.backend.ProcessText(r.Context(), page.Input, page.Mode)
	o, isOffer := res.Offer()
	text, isText := res.Text()
	switch {
	case res.Success && isOffer:
		page.Kind, page.Offer = "voo", &o
	case res.Success && isText:
		page.Kind, page.Text = "texto", text
	default:
		page.Kind = "erro"
		page.Error = res.Message
		if page.Error == "" {
			page.Error = "Erro desconhecido ao processar texto."
		}
	}

	h.render(w, r, http.StatusOK, pageLab, "Conversor de Textos", page)
}
