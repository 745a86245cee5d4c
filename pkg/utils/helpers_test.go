package utils_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"aerofinder-utils/pkg/utils"
)

func TestGenerateRequestID(t *testing.T) {
	first := utils.GenerateRequestID()
	second := utils.GenerateRequestID()

	assert.NotEmpty(t, first)
	assert.NotEqual(t, first, second)
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		input time.Duration
		want  string
	}{
		{500 * time.Millisecond, "500ms"},
		{2500 * time.Millisecond, "2.50s"},
		{90 * time.Second, "1.5m"},
		{150 * time.Minute, "2.5h"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, utils.FormatDuration(tt.input))
		})
	}
}

func TestContains(t *testing.T) {
	slice := []string{"airpeace", "maxair"}

	assert.True(t, utils.Contains(slice, "maxair"))
	assert.False(t, utils.Contains(slice, "overland"))
	assert.False(t, utils.Contains(nil, "overland"))
}

func TestGetStringOrDefault(t *testing.T) {
	assert.Equal(t, "value", utils.GetStringOrDefault("value", "fallback"))
	assert.Equal(t, "fallback", utils.GetStringOrDefault("", "fallback"))
}

func TestFindRegexMatch(t *testing.T) {
	t.Run("returns submatch groups", func(t *testing.T) {
		matches := utils.FindRegexMatch(`data-sitekey="0xABC123"`, `data-sitekey="([^"]+)"`)
		assert.Equal(t, []string{`data-sitekey="0xABC123"`, "0xABC123"}, matches)
	})

	t.Run("no match", func(t *testing.T) {
		assert.Nil(t, utils.FindRegexMatch("plain text", `data-sitekey="([^"]+)"`))
	})

	t.Run("invalid pattern", func(t *testing.T) {
		assert.Nil(t, utils.FindRegexMatch("anything", `([`))
	})
}

func TestRandomDuration(t *testing.T) {
	min := 100 * time.Millisecond
	max := 200 * time.Millisecond

	for i := 0; i < 50; i++ {
		d := utils.RandomDuration(min, max)
		assert.GreaterOrEqual(t, d, min)
		assert.Less(t, d, max)
	}

	assert.Equal(t, min, utils.RandomDuration(min, min))
	assert.Equal(t, max, utils.RandomDuration(max, min))
}

func TestSleepWithContext(t *testing.T) {
	t.Run("sleeps out the duration", func(t *testing.T) {
		err := utils.SleepWithContext(context.Background(), 10*time.Millisecond)
		assert.NoError(t, err)
	})

	t.Run("returns early on cancellation", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		started := time.Now()
		err := utils.SleepWithContext(ctx, 5*time.Second)

		assert.ErrorIs(t, err, context.Canceled)
		assert.Less(t, time.Since(started), time.Second)
	})
}

func TestCleanText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"trims and collapses", "  Air   Peace  ", "Air Peace"},
		{"newlines and tabs", "07:10\n\t\tLagos", "07:10 Lagos"},
		{"already clean", "P4 7120", "P4 7120"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, utils.CleanText(tt.input))
		})
	}
}
