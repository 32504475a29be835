package offer

import (
	"sort"
	"strings"
	"time"
)

// Window is how long an offer stays visible after it was found.
const Window = 48 * time.Hour

// Groups holds the visible offers split by the day they were found.
type Groups struct {
	Today     []Offer `json:"hoje"`
	Yesterday []Offer `json:"ontem"`
}

// Total returns the number of visible offers.
func (g Groups) Total() int {
	return len(g.Today) + len(g.Yesterday)
}

// BelowBaseline reports whether an automated offer is still interesting:
// AUTO offers with a positive baseline must be priced at or below it.
// Offers of any other mode always pass.
func (o Offer) BelowBaseline() bool {
	if o.Mode != ModeAuto || o.Baseline <= 0 {
		return true
	}
	return o.Price <= o.Baseline
}

// Group filters offers by destination, drops stale and over-baseline ones,
// and buckets the rest into today and yesterday relative to now. Both buckets
// are sorted by ascending price; ties keep their input order.
func Group(offers []Offer, filter string, now time.Time) Groups {
	term := strings.ToUpper(strings.TrimSpace(filter))
	yesterday := now.AddDate(0, 0, -1)

	g := Groups{Today: []Offer{}, Yesterday: []Offer{}}

	for _, o := range offers {
		if term != "" && !strings.Contains(strings.ToUpper(o.Destination), term) {
			continue
		}

		o.FoundAt = ParseTimestamp(o.Timestamp, now)
		o.Price = clampPrice(o.Price)

		if !o.BelowBaseline() {
			continue
		}
		if now.Sub(o.FoundAt) > Window {
			continue
		}

		// Anything not found yesterday lands in today, including clock skew
		// from the future.
		if sameDay(o.FoundAt, yesterday) {
			g.Yesterday = append(g.Yesterday, o)
		} else {
			g.Today = append(g.Today, o)
		}
	}

	sortByPrice(g.Today)
	sortByPrice(g.Yesterday)

	return g
}

func sortByPrice(offers []Offer) {
	sort.SliceStable(offers, func(i, j int) bool {
		return offers[i].Price < offers[j].Price
	})
}

// sameDay compares calendar days in b's location.
func sameDay(a, b time.Time) bool {
	a = a.In(b.Location())
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
