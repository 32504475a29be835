package api

import (
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/neexbeast/partiu085-web/internal/destination"
	"github.com/neexbeast/partiu085-web/internal/offer"
)

//go:embed templates/*.html static/*
var assets embed.FS

// Page template names, one file per page under templates/.
const (
	pageRadar    = "radar"
	pageResults  = "resultados"
	pageAlerts   = "alertas"
	pageLab      = "lab"
	pageSettings = "settings"
)

var pageNames = []string{pageRadar, pageResults, pageAlerts, pageLab, pageSettings}

var funcs = template.FuncMap{
	"money":  offer.FormatMoney,
	"dateBR": offer.FormatDateBR,
	"join":   strings.Join,
	"offerJSON": func(o offer.Offer) (string, error) {
		b, err := json.Marshal(o)
		return string(b), err
	},
	"card": func(o offer.Offer, now time.Time, back string) cardView {
		return cardView{Offer: o, Now: now, Back: back}
	},
	"zeroTime": func() time.Time { return time.Time{} },
	"debounceMs": func() int64 {
		return destination.Debounce.Milliseconds()
	},
}

// cardView feeds the offer card partial. Back is where the Telegram button
// returns the browser.
type cardView struct {
	Offer offer.Offer
	Now   time.Time
	Back  string
}

// view is what every page template receives.
type view struct {
	Title  string
	Active string
	Data   any
}

// parsePages builds one template set per page, each sharing the layout and
// the offer card partial.
func parsePages() (map[string]*template.Template, error) {
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		t, err := template.New(name).Funcs(funcs).ParseFS(assets,
			"templates/layout.html",
			"templates/card.html",
			"templates/"+name+".html",
		)
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", name, err)
		}
		pages[name] = t
	}
	return pages, nil
}

// staticHandler serves the embedded static/ directory.
func staticHandler() http.Handler {
	sub, err := fs.Sub(assets, "static")
	if err != nil {
		panic(fmt.Sprintf("static assets: %v", err))
	}
	return http.FileServer(http.FS(sub))
}
