package utils

import (
	"errors"
	"fmt"
	"net/http"
)

// CustomError represents a custom application error
type CustomError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

func (e *CustomError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s", e.Message, e.Detail)
	}
	return e.Message
}

// Common error constructors
func NewBadRequestError(message string) *CustomError {
	return &CustomError{
		Code:    http.StatusBadRequest,
		Message: message,
	}
}

func NewInternalServerError(message string) *CustomError {
	return &CustomError{
		Code:    http.StatusInternalServerError,
		Message: message,
	}
}

func NewTimeoutError(message string) *CustomError {
	return &CustomError{
		Code:    http.StatusRequestTimeout,
		Message: message,
	}
}

func NewValidationError(detail string) *CustomError {
	return &CustomError{
		Code:    http.StatusBadRequest,
		Message: "Validation failed",
		Detail:  detail,
	}
}

// Scraping specific errors

// NewSessionCreationError reports that a browser session could not be launched
func NewSessionCreationError(detail string) *CustomError {
	return &CustomError{
		Code:    http.StatusInternalServerError,
		Message: "Browser session creation failed",
		Detail:  detail,
	}
}

// NewNavigationError reports that the target site could not be reached or
// did not render its results page
func NewNavigationError(detail string) *CustomError {
	return &CustomError{
		Code:    http.StatusBadGateway,
		Message: "Site navigation failed",
		Detail:  detail,
	}
}

// NewChallengeUnresolvedError reports that a bot challenge blocked the search
func NewChallengeUnresolvedError(detail string) *CustomError {
	return &CustomError{
		Code:    http.StatusForbidden,
		Message: "Bot challenge could not be resolved",
		Detail:  detail,
	}
}

// NewExtractionError reports that a results page rendered but no flight data
// could be extracted from it
func NewExtractionError(detail string) *CustomError {
	return &CustomError{
		Code:    http.StatusUnprocessableEntity,
		Message: "No flight data extracted",
		Detail:  detail,
	}
}

// NewTaskError reports an unexpected failure inside one site's search task
func NewTaskError(detail string) *CustomError {
	return &CustomError{
		Code:    http.StatusInternalServerError,
		Message: "Search task failed",
		Detail:  detail,
	}
}

// IsChallengeError reports whether err is a challenge-resolution failure
func IsChallengeError(err error) bool {
	var ce *CustomError
	return errors.As(err, &ce) && ce.Code == http.StatusForbidden
}

// IsSessionError reports whether err is a session-creation failure
func IsSessionError(err error) bool {
	var ce *CustomError
	return errors.As(err, &ce) && ce.Message == "Browser session creation failed"
}
