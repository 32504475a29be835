package offer

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// currencyTokens are stripped from price strings before parsing. Longer
// tokens come first so "US$" is not left as "US".
var currencyTokens = []string{"US$", "U$", "R$", "BRL", "USD", "EUR", "GBP", "$", "€", "£"}

// plainDecimal is what a price must look like once separators are resolved.
// ParseFloat alone would also take hex, exponents and underscores.
var plainDecimal = regexp.MustCompile(`^[0-9]+(\.[0-9]+)?$`)

// NormalizePrice converts a backend price value into a non-negative number.
// Anything that cannot be read as a price normalizes to zero.
func NormalizePrice(v any) float64 {
	switch p := v.(type) {
	case nil:
		return 0
	case float64:
		return clampPrice(p)
	case float32:
		return clampPrice(float64(p))
	case int:
		return clampPrice(float64(p))
	case int64:
		return clampPrice(float64(p))
	case json.Number:
		if f, err := p.Float64(); err == nil {
			return clampPrice(f)
		}
		return ParsePrice(p.String())
	case string:
		return ParsePrice(p)
	default:
		return 0
	}
}

// ParsePrice reads a locale-formatted price such as "R$ 1.234,56" or
// "US$ 1,234.56". The rightmost of ',' and '.' is the decimal separator when
// both appear; a lone '.' followed by exactly three digits is a thousands
// separator.
func ParsePrice(s string) float64 {
	s = strings.ToUpper(strings.TrimSpace(s))
	for _, tok := range currencyTokens {
		s = strings.ReplaceAll(s, tok, "")
	}
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	if s == "" {
		return 0
	}

	lastComma := strings.LastIndex(s, ",")
	lastDot := strings.LastIndex(s, ".")

	switch {
	case lastComma >= 0 && lastDot >= 0:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		if strings.Count(s, ",") == 1 {
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastDot >= 0:
		if strings.Count(s, ".") > 1 || len(s)-lastDot-1 == 3 {
			s = strings.ReplaceAll(s, ".", "")
		}
	}

	if !plainDecimal.MatchString(s) {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return clampPrice(f)
}

func clampPrice(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0
	}
	return f
}

// Zone-less layouts are read in the location of the reference time.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseTimestamp parses a discovery timestamp written either as
// "2006-01-02 15:04:05" or ISO-8601. Empty or unparseable input yields now.
func ParseTimestamp(s string, now time.Time) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return now
	}
	if len(s) > 10 && s[10] == ' ' {
		s = s[:10] + "T" + strings.TrimSpace(s[11:])
	}

	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, now.Location()); err == nil {
			return t
		}
	}
	return now
}
