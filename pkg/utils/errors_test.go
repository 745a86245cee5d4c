package utils_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"aerofinder-utils/pkg/utils"
)

func TestErrorConstructors(t *testing.T) {
	tests := []struct {
		name        string
		err         *utils.CustomError
		wantCode    int
		wantMessage string
	}{
		{"bad request", utils.NewBadRequestError("bad input"), http.StatusBadRequest, "bad input"},
		{"internal", utils.NewInternalServerError("boom"), http.StatusInternalServerError, "boom"},
		{"timeout", utils.NewTimeoutError("too slow"), http.StatusRequestTimeout, "too slow"},
		{"validation", utils.NewValidationError("no airport code"), http.StatusBadRequest, "Validation failed"},
		{"session creation", utils.NewSessionCreationError("launch failed"), http.StatusInternalServerError, "Browser session creation failed"},
		{"navigation", utils.NewNavigationError("dns failure"), http.StatusBadGateway, "Site navigation failed"},
		{"challenge", utils.NewChallengeUnresolvedError("turnstile"), http.StatusForbidden, "Bot challenge could not be resolved"},
		{"extraction", utils.NewExtractionError("no cards"), http.StatusUnprocessableEntity, "No flight data extracted"},
		{"task", utils.NewTaskError("panic"), http.StatusInternalServerError, "Search task failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantCode, tt.err.Code)
			assert.Equal(t, tt.wantMessage, tt.err.Message)
		})
	}
}

func TestCustomErrorMessage(t *testing.T) {
	withDetail := utils.NewNavigationError("dns failure")
	assert.Equal(t, "Site navigation failed: dns failure", withDetail.Error())

	withoutDetail := utils.NewBadRequestError("bad input")
	assert.Equal(t, "bad input", withoutDetail.Error())
}

func TestIsChallengeError(t *testing.T) {
	challengeErr := utils.NewChallengeUnresolvedError("blocked")

	assert.True(t, utils.IsChallengeError(challengeErr))
	assert.True(t, utils.IsChallengeError(fmt.Errorf("scrape failed: %w", challengeErr)))
	assert.False(t, utils.IsChallengeError(utils.NewNavigationError("down")))
	assert.False(t, utils.IsChallengeError(errors.New("plain error")))
	assert.False(t, utils.IsChallengeError(nil))
}

func TestIsSessionError(t *testing.T) {
	sessionErr := utils.NewSessionCreationError("no chrome")

	assert.True(t, utils.IsSessionError(sessionErr))
	assert.True(t, utils.IsSessionError(fmt.Errorf("attempt 2: %w", sessionErr)))
	assert.False(t, utils.IsSessionError(utils.NewInternalServerError("boom")))
	assert.False(t, utils.IsSessionError(errors.New("plain error")))
}
