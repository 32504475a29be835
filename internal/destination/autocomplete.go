package destination

import (
	"strings"
	"time"
)

const (
	// DefaultLimit caps the suggestion list when the caller does not ask
	// for a size.
	DefaultLimit = 12
	MinLimit     = 5
	MaxLimit     = 12

	// Debounce is how long the input waits after the last keystroke before
	// asking for suggestions.
	Debounce = 120 * time.Millisecond
)

// ActiveTerm returns the search term of a multi-destination input: the text
// after the last comma, trimmed and upper-cased.
func ActiveTerm(input string) string {
	if i := strings.LastIndex(input, ","); i >= 0 {
		input = input[i+1:]
	}
	return strings.ToUpper(strings.TrimSpace(input))
}

// ClampLimit keeps a requested suggestion count within bounds. Zero or
// negative means DefaultLimit.
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit < MinLimit:
		return MinLimit
	case limit > MaxLimit:
		return MaxLimit
	default:
		return limit
	}
}

// Search filters list by the active term of input, matching the IATA code,
// the city or the full label. An empty term yields no suggestions.
func Search(list []Destination, input string, limit int) []Destination {
	term := ActiveTerm(input)
	if term == "" {
		return nil
	}
	limit = ClampLimit(limit)

	out := make([]Destination, 0, limit)
	for _, d := range list {
		if len(out) == limit {
			break
		}
		if strings.Contains(strings.ToUpper(d.IATA), term) ||
			strings.Contains(strings.ToUpper(d.City), term) ||
			strings.Contains(strings.ToUpper(d.Label()), term) {
			out = append(out, d)
		}
	}
	return out
}

// Complete replaces the trailing, incomplete term of input with iata and
// appends a separator for the next entry. Earlier selections are kept.
//
//	Complete("MIA, li", "LIS") == "MIA, LIS, "
func Complete(input, iata string) string {
	parts := strings.Split(input, ",")
	parts[len(parts)-1] = iata

	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToUpper(strings.TrimSpace(p))
		if p != "" {
			kept = append(kept, p)
		}
	}
	if len(kept) == 0 {
		return ""
	}
	return strings.Join(kept, ", ") + ", "
}

// Terms splits a multi-destination input into upper-cased codes, dropping
// empty entries.
func Terms(input string) []string {
	var out []string
	for _, p := range strings.Split(input, ",") {
		p = strings.ToUpper(strings.TrimSpace(p))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
