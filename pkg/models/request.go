package models

// TripType represents the journey shape of a flight search
type TripType string

const (
	TripTypeOneWay    TripType = "one-way"
	TripTypeRoundTrip TripType = "round-trip"
)

// Valid reports whether the trip type is one of the supported values
func (t TripType) Valid() bool {
	return t == TripTypeOneWay || t == TripTypeRoundTrip
}

// ParseTripType parses a trip type string, falling back to round-trip for
// unrecognized values
func ParseTripType(s string) TripType {
	if t := TripType(s); t.Valid() {
		return t
	}
	return TripTypeRoundTrip
}

// SearchRequest represents one flight search as submitted by the caller.
// It is constructed once per search and read concurrently by every site
// task; it must never be mutated after validation.
type SearchRequest struct {
	DepartureCity string   `json:"departure_city" query:"departure_city" validate:"required"`
	ArrivalCity   string   `json:"arrival_city" query:"arrival_city" validate:"required"`
	DepartureDate string   `json:"departure_date" query:"departure_date" validate:"required"` // "06 Jun 2025"
	ReturnDate    string   `json:"return_date,omitempty" query:"return_date"`
	TripType      TripType `json:"trip_type,omitempty" query:"trip_type" validate:"omitempty,oneof=one-way round-trip"`
	Adults        int      `json:"adults" query:"adults" validate:"min=1,max=9"`
	Children      int      `json:"children" query:"children" validate:"min=0,max=8"`
	Infants       int      `json:"infants" query:"infants" validate:"min=0,ltefield=Adults"`
	Airline       string   `json:"airline,omitempty" query:"airline"`   // optional site-key filter
	ProxyIP       string   `json:"proxyIP,omitempty" query:"proxyIP"`   // optional outbound proxy
	CallbackURL   string   `json:"callback_url,omitempty" query:"-"`    // async searches only
}

// ApplyDefaults fills in the defaults for fields the caller omitted
func (r *SearchRequest) ApplyDefaults() {
	if r.Adults == 0 {
		r.Adults = 1
	}
	r.TripType = ParseTripType(string(r.TripType))
}

// Validate checks the passenger bounds and trip shape beyond what struct
// tags express
func (r *SearchRequest) Validate() error {
	if r.DepartureCity == "" || r.ArrivalCity == "" || r.DepartureDate == "" {
		return ErrMissingSearchFields
	}
	if r.Adults < 1 || r.Adults > 9 {
		return ErrAdultsOutOfRange
	}
	if r.Children < 0 || r.Children > 8 {
		return ErrChildrenOutOfRange
	}
	if r.Infants < 0 || r.Infants > r.Adults {
		return ErrInfantsExceedAdults
	}
	if r.TripType == TripTypeRoundTrip && r.ReturnDate == "" {
		return ErrMissingReturnDate
	}
	return nil
}

// IsRoundTrip reports whether the search includes a return leg
func (r *SearchRequest) IsRoundTrip() bool {
	return r.TripType == TripTypeRoundTrip
}

// TotalPassengers returns the combined passenger count
func (r *SearchRequest) TotalPassengers() int {
	return r.Adults + r.Children + r.Infants
}
