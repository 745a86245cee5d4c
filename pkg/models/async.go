package models

import (
	"time"
)

// AsyncStatus represents the status of an async operation
type AsyncStatus string

const (
	AsyncStatusAccepted   AsyncStatus = "ACCEPTED"
	AsyncStatusProcessing AsyncStatus = "PROCESSING"
	AsyncStatusSuccess    AsyncStatus = "SUCCESS"
	AsyncStatusFailure    AsyncStatus = "FAILURE"
)

// AsyncSearchResponse represents the immediate response from the async
// search endpoint
type AsyncSearchResponse struct {
	ProcessID string      `json:"processId"`
	Status    AsyncStatus `json:"status"`
	Message   string      `json:"message"`
	Timestamp time.Time   `json:"timestamp"`
}

// AsyncTaskStatusResponse represents the response for task status queries
type AsyncTaskStatusResponse struct {
	ProcessID      string                 `json:"processId"`
	Status         AsyncStatus            `json:"status"`
	Data           interface{}            `json:"data,omitempty"`
	Error          string                 `json:"error,omitempty"`
	CreatedAt      time.Time              `json:"createdAt"`
	CompletedAt    *time.Time             `json:"completedAt,omitempty"`
	ProcessingTime *time.Duration         `json:"processingTime,omitempty"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
}

// AsyncSearchCompletionData represents the completion data for search tasks
type AsyncSearchCompletionData struct {
	Response *SearchResponse `json:"response,omitempty"`
}

// AsyncTaskListResponse represents the response for listing tasks
type AsyncTaskListResponse struct {
	Success bool                      `json:"success"`
	Tasks   []AsyncTaskStatusResponse `json:"tasks"`
	Count   int                       `json:"count"`
}

// AsyncErrorResponse represents an error response for async operations
type AsyncErrorResponse struct {
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	ProcessID string    `json:"processId,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// CreateAsyncSearchResponse creates a successful async search response
func CreateAsyncSearchResponse(processID string) *AsyncSearchResponse {
	return &AsyncSearchResponse{
		ProcessID: processID,
		Status:    AsyncStatusAccepted,
		Message:   "Flight search accepted for background processing",
		Timestamp: time.Now(),
	}
}

// CreateAsyncErrorResponse creates an error response for async operations
func CreateAsyncErrorResponse(error, message string, processID ...string) *AsyncErrorResponse {
	response := &AsyncErrorResponse{
		Error:     error,
		Message:   message,
		Timestamp: time.Now(),
	}

	if len(processID) > 0 && processID[0] != "" {
		response.ProcessID = processID[0]
	}

	return response
}

// IsCompleted checks if the async task has completed (success or failure)
func (r *AsyncTaskStatusResponse) IsCompleted() bool {
	return r.Status == AsyncStatusSuccess || r.Status == AsyncStatusFailure
}

// IsSuccessful checks if the async task completed successfully
func (r *AsyncTaskStatusResponse) IsSuccessful() bool {
	return r.Status == AsyncStatusSuccess
}
