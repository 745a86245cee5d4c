package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"aerofinder-utils/internal/background"
	"aerofinder-utils/internal/config"
	"aerofinder-utils/internal/logging"
	"aerofinder-utils/internal/scraper"
	"aerofinder-utils/pkg/models"
	"aerofinder-utils/pkg/utils"
)

// AsyncSearchHandler accepts a flight search for background processing and
// returns a process ID immediately. Completion is observable through the
// status endpoint and, when callback_url is set, the completion webhook.
func AsyncSearchHandler(cfg *config.Config, orchestrator *scraper.Orchestrator, cache *utils.RedisClient, taskManager background.TaskManager) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := utils.GenerateRequestID()
		logger := logging.GetGlobalLogger()
		c.Set("request_id", requestID)

		var req models.SearchRequest
		if err := c.Bind(&req); err != nil {
			logger.Error("Failed to parse async search request", map[string]interface{}{
				"request_id": requestID,
				"error":      err.Error(),
			})
			return c.JSON(http.StatusBadRequest, models.CreateAsyncErrorResponse(
				"invalid_request",
				"Invalid request body: "+err.Error(),
			))
		}

		req.ApplyDefaults()

		if err := searchValidator.Struct(&req); err != nil {
			logger.Error("Async search request validation failed", map[string]interface{}{
				"request_id": requestID,
				"error":      err.Error(),
			})
			return c.JSON(http.StatusBadRequest, models.CreateAsyncErrorResponse(
				"validation_failed",
				"Request validation failed: "+err.Error(),
			))
		}
		if err := req.Validate(); err != nil {
			return c.JSON(http.StatusBadRequest, models.CreateAsyncErrorResponse(
				"validation_failed",
				err.Error(),
			))
		}

		processID := utils.GenerateProcessID()

		logger.Info("Submitting flight search for background processing", map[string]interface{}{
			"request_id":     requestID,
			"process_id":     processID,
			"departure_city": req.DepartureCity,
			"arrival_city":   req.ArrivalCity,
			"airline":        req.Airline,
			"has_callback":   req.CallbackURL != "",
		})

		execute := func(taskCtx context.Context) (*models.SearchResponse, error) {
			results, err := orchestrator.SearchAllAirlines(taskCtx, &req, req.Airline)
			if err != nil {
				return nil, err
			}
			response := models.BuildSearchResponse(&req, results)

			if cache != nil && cfg.Cache.Enabled && response.Status == models.SearchStatusSuccess {
				if cacheErr := cache.SetSearchResults(taskCtx, &req, response); cacheErr != nil {
					logger.Warn("Failed to cache async search results", map[string]interface{}{
						"process_id": processID,
						"error":      cacheErr.Error(),
					})
				}
			}
			return response, nil
		}

		ctx := c.Request().Context()
		if err := taskManager.SubmitSearchTask(ctx, processID, &req, execute); err != nil {
			logger.Error("Failed to submit background search task", map[string]interface{}{
				"request_id": requestID,
				"process_id": processID,
				"error":      err.Error(),
			})
			return c.JSON(http.StatusInternalServerError, models.CreateAsyncErrorResponse(
				"task_submission_failed",
				fmt.Sprintf("Failed to submit search task: %v", err),
				processID,
			))
		}

		return c.JSON(http.StatusAccepted, models.CreateAsyncSearchResponse(processID))
	}
}

// AsyncSearchStatusHandler reports the status or final result of a
// background search by process ID
func AsyncSearchStatusHandler(taskManager background.TaskManager) echo.HandlerFunc {
	return func(c echo.Context) error {
		logger := logging.GetGlobalLogger()

		processID := c.Param("processId")
		if processID == "" {
			return c.JSON(http.StatusBadRequest, models.CreateAsyncErrorResponse(
				"missing_process_id",
				"Process ID is required",
			))
		}

		result, err := taskManager.GetTaskResult(c.Request().Context(), processID)
		if err != nil {
			logger.Debug("Task lookup failed", map[string]interface{}{
				"process_id": processID,
				"error":      err.Error(),
			})
			return c.JSON(http.StatusNotFound, models.CreateAsyncErrorResponse(
				"task_not_found",
				fmt.Sprintf("No task found for process ID %s", processID),
				processID,
			))
		}

		return c.JSON(http.StatusOK, taskStatusResponse(result))
	}
}

// AsyncTaskListHandler lists all known background tasks for monitoring
func AsyncTaskListHandler(taskManager background.TaskManager) echo.HandlerFunc {
	return func(c echo.Context) error {
		results, err := taskManager.ListTasks(c.Request().Context())
		if err != nil {
			return c.JSON(http.StatusInternalServerError, models.CreateAsyncErrorResponse(
				"task_list_failed",
				"Failed to list background tasks: "+err.Error(),
			))
		}

		tasks := make([]models.AsyncTaskStatusResponse, 0, len(results))
		for _, result := range results {
			tasks = append(tasks, taskStatusResponse(result))
		}

		return c.JSON(http.StatusOK, models.AsyncTaskListResponse{
			Success: true,
			Tasks:   tasks,
			Count:   len(tasks),
		})
	}
}

// taskStatusResponse maps a stored task onto the status response shape
func taskStatusResponse(result *background.TaskResult) models.AsyncTaskStatusResponse {
	return models.AsyncTaskStatusResponse{
		ProcessID:      result.ProcessID,
		Status:         models.AsyncStatus(result.Status),
		Data:           result.Data,
		Error:          result.Error,
		CreatedAt:      result.CreatedAt,
		CompletedAt:    result.CompletedAt,
		ProcessingTime: result.ProcessingTime,
		Metadata:       result.Metadata,
	}
}
