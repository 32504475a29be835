package offer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Mode classifies how an offer was found.
type Mode string

const (
	ModeAuto       Mode = "AUTO"
	ModeManual     Mode = "MANUAL"
	ModeManualFlex Mode = "MANUAL_FLEX"
	ModeMiles      Mode = "MILHAS (R$)"
)

// Field aliases seen in backend payloads. The first non-empty alias wins.
var (
	destinationKeys = []string{"destino", "destination", "iata_destino", "dest"}
	originKeys      = []string{"origem", "origin", "iata_origem"}
	priceKeys       = []string{"preco", "price", "valor", "preco_total"}
	departKeys      = []string{"data_ida", "data"}
	timestampKeys   = []string{"timestamp", "data_hora", "created_at"}
)

// Offer is a discovered flight or mileage deal.
type Offer struct {
	Origin          string   `json:"origem"`
	Destination     string   `json:"destino"`
	DepartDate      string   `json:"data_ida"`
	ReturnDate      string   `json:"data_volta,omitempty"`
	Price           float64  `json:"preco"`
	Currency        string   `json:"moeda,omitempty"`
	Link            string   `json:"link,omitempty"`
	Timestamp       string   `json:"timestamp,omitempty"`
	Mode            Mode     `json:"modo,omitempty"`
	Baseline        float64  `json:"baseline,omitempty"`
	BaselinePercent *float64 `json:"percentual_baseline,omitempty"`

	// FoundAt is the parsed Timestamp, filled in by Group.
	FoundAt time.Time `json:"-"`
}

// UnmarshalJSON decodes a raw backend record, resolving field aliases and
// normalizing the price and baseline.
func (o *Offer) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return fmt.Errorf("decoding offer: %w", err)
	}
	if raw == nil {
		*o = Offer{}
		return nil
	}

	*o = Offer{
		Origin:      strings.ToUpper(firstString(raw, originKeys...)),
		Destination: strings.ToUpper(firstString(raw, destinationKeys...)),
		DepartDate:  firstString(raw, departKeys...),
		ReturnDate:  firstString(raw, "data_volta"),
		Price:       NormalizePrice(firstValue(raw, priceKeys...)),
		Currency:    firstString(raw, "moeda", "currency"),
		Link:        firstString(raw, "link", "url"),
		Timestamp:   firstString(raw, timestampKeys...),
		Mode:        Mode(strings.ToUpper(firstString(raw, "modo", "mode"))),
		Baseline:    NormalizePrice(raw["baseline"]),
	}

	if v, ok := raw["percentual_baseline"]; ok && v != nil {
		p := NormalizePrice(v)
		o.BaselinePercent = &p
	}

	return nil
}

// firstValue returns the first non-nil, non-empty value among keys.
func firstValue(raw map[string]any, keys ...string) any {
	for _, k := range keys {
		v, ok := raw[k]
		if !ok || v == nil {
			continue
		}
		if s, isStr := v.(string); isStr && strings.TrimSpace(s) == "" {
			continue
		}
		return v
	}
	return nil
}

// firstString is firstValue rendered as a trimmed string.
func firstString(raw map[string]any, keys ...string) string {
	switch v := firstValue(raw, keys...).(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}
