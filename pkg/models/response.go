package models

import (
	"math"
	"time"
)

// SearchOutcome represents one site's result envelope inside the aggregate
// search response. Success with an empty flight list means the site answered
// but had no flights; Error populated with Data nil means the site could not
// be searched.
type SearchOutcome struct {
	Airline    string      `json:"airline"`
	Success    bool        `json:"success"`
	Data       *FlightData `json:"data"`
	Error      string      `json:"error,omitempty"`
	SearchTime float64     `json:"search_time"` // seconds, 2 decimal places
}

// SuccessOutcome builds a successful outcome for a site
func SuccessOutcome(airline string, data *FlightData, elapsed time.Duration) SearchOutcome {
	return SearchOutcome{
		Airline:    airline,
		Success:    true,
		Data:       data,
		SearchTime: roundSeconds(elapsed),
	}
}

// FailureOutcome builds a failed outcome for a site
func FailureOutcome(airline string, errMsg string, elapsed time.Duration) SearchOutcome {
	return SearchOutcome{
		Airline:    airline,
		Success:    false,
		Error:      errMsg,
		SearchTime: roundSeconds(elapsed),
	}
}

func roundSeconds(d time.Duration) float64 {
	return math.Round(d.Seconds()*100) / 100
}

// PassengerCounts echoes the requested passenger mix in the search summary
type PassengerCounts struct {
	Adults   int `json:"adults"`
	Children int `json:"children"`
	Infants  int `json:"infants"`
}

// SearchStatistics summarizes per-site success counts for one search
type SearchStatistics struct {
	TotalAirlinesSearched int `json:"total_airlines_searched"`
	SuccessfulSearches    int `json:"successful_searches"`
	FailedSearches        int `json:"failed_searches"`
}

// SearchSummary echoes the request parameters alongside the statistics
type SearchSummary struct {
	DepartureCity    string           `json:"departure_city"`
	ArrivalCity      string           `json:"arrival_city"`
	DepartureDate    string           `json:"departure_date"`
	ReturnDate       *string          `json:"return_date"`
	TripType         TripType         `json:"trip_type"`
	Passengers       PassengerCounts  `json:"passengers"`
	SearchStatistics SearchStatistics `json:"search_statistics"`
}

// Overall search status values
const (
	SearchStatusSuccess   = "success"
	SearchStatusNoResults = "no_results"
)

// SearchResponse is the aggregate response for one search: summary,
// per-airline outcomes keyed by site key, and an overall status
type SearchResponse struct {
	SearchSummary   SearchSummary            `json:"search_summary"`
	AirlineResults  map[string]SearchOutcome `json:"airline_results"`
	SearchTimestamp string                   `json:"search_timestamp"`
	Status          string                   `json:"status"` // "success" or "no_results"
}

// BuildSearchResponse wraps raw per-site outcomes with summary statistics
func BuildSearchResponse(req *SearchRequest, results map[string]SearchOutcome) *SearchResponse {
	successful := 0
	for _, outcome := range results {
		if outcome.Success {
			successful++
		}
	}

	var returnDate *string
	if req.IsRoundTrip() {
		returnDate = &req.ReturnDate
	}

	status := SearchStatusNoResults
	if successful > 0 {
		status = SearchStatusSuccess
	}

	return &SearchResponse{
		SearchSummary: SearchSummary{
			DepartureCity: req.DepartureCity,
			ArrivalCity:   req.ArrivalCity,
			DepartureDate: req.DepartureDate,
			ReturnDate:    returnDate,
			TripType:      req.TripType,
			Passengers: PassengerCounts{
				Adults:   req.Adults,
				Children: req.Children,
				Infants:  req.Infants,
			},
			SearchStatistics: SearchStatistics{
				TotalAirlinesSearched: len(results),
				SuccessfulSearches:    successful,
				FailedSearches:        len(results) - successful,
			},
		},
		AirlineResults:  results,
		SearchTimestamp: time.Now().UTC().Format("2006-01-02 15:04:05 UTC"),
		Status:          status,
	}
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Version   string            `json:"version"`
	Uptime    time.Duration     `json:"uptime"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	RequestID string    `json:"request_id"`
	Timestamp time.Time `json:"timestamp"`
}
