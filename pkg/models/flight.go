package models

// FlightPoint represents one end of a flight segment as rendered by the
// airline's results page
type FlightPoint struct {
	Time string `json:"time,omitempty"`
	City string `json:"city,omitempty"`
	Date string `json:"date,omitempty"`
}

// Fare represents a single bookable fare class on a flight. Prices are kept
// as site-native strings; the sites disagree on currency symbols and
// formatting, so no numeric parsing happens here.
type Fare struct {
	Type  string `json:"fare_type"`
	Price string `json:"price,omitempty"`
}

// Availability states reported by sites that expose a per-flight status
// (Overland renders SOLD OUT banners instead of fare listings).
const (
	StatusAvailable         = "AVAILABLE"
	StatusNotAvailable      = "NOT_AVAILABLE"
	StatusPriceNotAvailable = "PRICE_NOT_AVAILABLE"
)

// FlightResult represents one extracted flight card. Fields an extractor
// could not locate stay empty rather than failing the whole card.
type FlightResult struct {
	FlightNumber string      `json:"flight_number,omitempty"`
	Departure    FlightPoint `json:"departure"`
	Arrival      FlightPoint `json:"arrival"`
	Price        string      `json:"price,omitempty"`
	Status       string      `json:"status,omitempty"`
	Fares        []Fare      `json:"fares"`
}

// FlightData represents the normalized output of one site search: the
// outbound flight list and, for round trips, the return list
type FlightData struct {
	Departure []FlightResult `json:"departure"`
	Return    []FlightResult `json:"return,omitempty"`
}

// IsEmpty reports whether the search produced no flights in either direction
func (d *FlightData) IsEmpty() bool {
	return d == nil || (len(d.Departure) == 0 && len(d.Return) == 0)
}
