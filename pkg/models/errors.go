package models

import "errors"

var (
	// ErrMissingSearchFields indicates a required search field was not supplied
	ErrMissingSearchFields = errors.New("departure_city, arrival_city and departure_date are required")

	// ErrAdultsOutOfRange indicates the adult count is outside 1-9
	ErrAdultsOutOfRange = errors.New("adults must be between 1 and 9")

	// ErrChildrenOutOfRange indicates the child count is outside 0-8
	ErrChildrenOutOfRange = errors.New("children must be between 0 and 8")

	// ErrInfantsExceedAdults indicates more infants than adults were requested
	ErrInfantsExceedAdults = errors.New("infants cannot exceed number of adults")

	// ErrMissingReturnDate indicates a round-trip search without a return date
	ErrMissingReturnDate = errors.New("return_date is required for round-trip searches")
)
