package background

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"aerofinder-utils/internal/callback"
	"aerofinder-utils/internal/logging"
	"aerofinder-utils/internal/logging/types"
)

// TaskCompletionLogger handles structured logging for task completion and
// delivers completion webhooks when a task carries a callback URL
type TaskCompletionLogger struct {
	logger         types.Logger
	callbackClient *callback.Client
}

// NewTaskCompletionLogger creates a new task completion logger
func NewTaskCompletionLogger() *TaskCompletionLogger {
	return &TaskCompletionLogger{
		logger: logging.GetGlobalLogger(),
	}
}

// NewTaskCompletionLoggerWithCallback creates a task completion logger
// that also posts completion webhooks
func NewTaskCompletionLoggerWithCallback(callbackClient *callback.Client) *TaskCompletionLogger {
	return &TaskCompletionLogger{
		logger:         logging.GetGlobalLogger(),
		callbackClient: callbackClient,
	}
}

// TaskCompletionLog represents the structured log entry for task completion
type TaskCompletionLog struct {
	ProcessID      string                 `json:"processId"`
	Status         string                 `json:"status"`
	Data           interface{}            `json:"data,omitempty"`
	Error          string                 `json:"error,omitempty"`
	Timestamp      time.Time              `json:"timestamp"`
	Operation      string                 `json:"operation"`
	ProcessingTime string                 `json:"processing_time"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
}

// LogTaskCompletion logs task completion to stdout in structured JSON
// format and fires the completion webhook if one was requested
func (l *TaskCompletionLogger) LogTaskCompletion(result *TaskResult) error {
	logEntry := TaskCompletionLog{
		ProcessID:      result.ProcessID,
		Status:         string(result.Status),
		Data:           result.Data,
		Error:          result.Error,
		Timestamp:      time.Now(),
		Operation:      string(result.Type),
		ProcessingTime: processingTimeString(result),
		Metadata:       result.Metadata,
	}

	jsonData, err := json.Marshal(logEntry)
	if err != nil {
		l.logger.Error("Failed to marshal task completion log", map[string]interface{}{
			"error": err.Error(),
		})
		return fmt.Errorf("failed to marshal task completion log: %w", err)
	}

	// Captured by container orchestrators
	fmt.Println(string(jsonData))

	l.logger.Info("Background task completed", map[string]interface{}{
		"process_id":      result.ProcessID,
		"status":          result.Status,
		"operation":       result.Type,
		"processing_time": processingTimeString(result),
	})

	if l.callbackClient != nil {
		if callbackURL := callbackURLFrom(result); callbackURL != "" {
			if err := l.sendTaskCallback(context.Background(), callbackURL, result); err != nil {
				l.logger.Error("Failed to send task callback", map[string]interface{}{
					"process_id": result.ProcessID,
					"error":      err.Error(),
				})
			}
		}
	}

	return nil
}

// LogTaskAccepted logs when a task is accepted for processing
func (l *TaskCompletionLogger) LogTaskAccepted(processID string, taskType TaskType) {
	l.logger.Info("Background task accepted", map[string]interface{}{
		"process_id": processID,
		"operation":  taskType,
		"status":     "ACCEPTED",
	})
}

// LogTaskStart logs when a task starts processing
func (l *TaskCompletionLogger) LogTaskStart(processID string, taskType TaskType) {
	l.logger.Info("Background task started", map[string]interface{}{
		"process_id": processID,
		"operation":  taskType,
		"status":     "PROCESSING",
	})
}

// LogTaskError logs task errors during processing
func (l *TaskCompletionLogger) LogTaskError(processID string, taskType TaskType, err error) {
	l.logger.Error("Background task failed", map[string]interface{}{
		"process_id": processID,
		"operation":  taskType,
		"status":     "FAILURE",
		"error":      err.Error(),
	})
}

// LogTaskSuccess logs successful task completion
func (l *TaskCompletionLogger) LogTaskSuccess(processID string, taskType TaskType, processingTime time.Duration) {
	l.logger.Info("Background task completed successfully", map[string]interface{}{
		"process_id":      processID,
		"operation":       taskType,
		"status":          "SUCCESS",
		"processing_time": processingTime.String(),
	})
}

// sendTaskCallback posts the completion webhook for a finished task
func (l *TaskCompletionLogger) sendTaskCallback(ctx context.Context, callbackURL string, result *TaskResult) error {
	data := &callback.SearchCallbackData{
		ProcessID:      result.ProcessID,
		Status:         string(result.Status),
		Data:           result.Data,
		Error:          result.Error,
		Timestamp:      time.Now().Format(time.RFC3339Nano),
		Operation:      string(result.Type),
		ProcessingTime: processingTimeString(result),
	}
	return l.callbackClient.SendSearchCallback(ctx, callbackURL, data)
}

// callbackURLFrom pulls the requested webhook URL out of task metadata
func callbackURLFrom(result *TaskResult) string {
	if result.Metadata == nil {
		return ""
	}
	if url, ok := result.Metadata["callback_url"].(string); ok {
		return url
	}
	return ""
}

func processingTimeString(result *TaskResult) string {
	if result.ProcessingTime == nil {
		return "0s"
	}
	return result.ProcessingTime.String()
}
