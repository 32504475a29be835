package destination

// Destination is an entry of the reference list used for autocomplete.
type Destination struct {
	IATA    string `json:"iata"`
	City    string `json:"cidade"`
	Country string `json:"pais"`
}

// Label is the display name, e.g. "Miami (EUA)".
func (d Destination) Label() string {
	if d.Country == "" {
		return d.City
	}
	return d.City + " (" + d.Country + ")"
}
