package offer

import (
	"math"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// HighlightBelow marks offers cheap enough to stand out on a card.
const HighlightBelow = 2500

var foundAgoMagnitudes = []humanize.RelTimeMagnitude{
	{D: time.Minute, Format: "agora mesmo", DivBy: time.Second},
	{D: time.Hour, Format: "%d min %s", DivBy: time.Minute},
	{D: 2 * time.Hour, Format: "1 hora %s", DivBy: 1},
	{D: 24 * time.Hour, Format: "%d horas %s", DivBy: time.Hour},
	{D: 48 * time.Hour, Format: "1 dia %s", DivBy: 1},
	{D: math.MaxInt64, Format: "%d dias %s", DivBy: 24 * time.Hour},
}

// FormatMoney renders v in pt-BR notation, e.g. 1234.5 -> "1.234,50".
func FormatMoney(v float64) string {
	return humanize.FormatFloat("#.###,##", v)
}

// FormatMiles renders a whole number of miles, e.g. 150000 -> "150.000".
func FormatMiles(v float64) string {
	return humanize.FormatFloat("#.###,", v)
}

// FormatDateBR turns "2025-11-20" into "20/11/2025". Other input is
// returned unchanged.
func FormatDateBR(s string) string {
	if s == "" {
		return "--/--"
	}
	parts := strings.Split(s, "-")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return s
	}
	return parts[2] + "/" + parts[1] + "/" + parts[0]
}

// HasReturn reports whether the offer is a round trip.
func (o Offer) HasReturn() bool {
	return len(o.ReturnDate) > 5
}

// FoundAgo describes how long ago the offer was found, in Portuguese.
func (o Offer) FoundAgo(now time.Time) string {
	return Ago(o.FoundAt, now)
}

// Ago renders the time elapsed since t, e.g. "5 min atrás". A zero t gives "".
func Ago(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}
	if t.After(now) {
		return "agora mesmo"
	}
	return humanize.CustomRelTime(t, now, "atrás", "", foundAgoMagnitudes)
}

// ModeLabel is the badge text shown on a card.
func (o Offer) ModeLabel() string {
	switch o.Mode {
	case ModeAuto:
		return "Auto"
	case ModeMiles:
		return "Milhas"
	default:
		return "Manual"
	}
}

// PriceCaption explains what the displayed price covers.
func (o Offer) PriceCaption() string {
	switch {
	case o.Mode == ModeMiles:
		return "Preço em Milhas"
	case o.HasReturn():
		return "Total (Ida + Volta)"
	default:
		return "Preço por pessoa"
	}
}

// DisplayPrice is the headline number on a card. Mileage offers carry the
// miles in Baseline and the cash price in Price.
func (o Offer) DisplayPrice() string {
	if o.Mode == ModeMiles {
		return FormatMiles(o.Baseline)
	}
	if o.Currency == "" {
		return FormatMoney(o.Price)
	}
	return o.Currency + " " + FormatMoney(o.Price)
}

// Highlight reports whether the card should be flagged as a bargain.
func (o Offer) Highlight() bool {
	return o.Price > 0 && o.Price < HighlightBelow
}
