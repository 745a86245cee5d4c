package utils_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"aerofinder-utils/pkg/utils"
)

func TestExtractAirportCode(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain city and code", "Lagos (LOS)", "LOS"},
		{"last group wins", "Murtala Muhammed (Lagos) (LOS)", "LOS"},
		{"lowercase code", "Abuja (abv)", "ABV"},
		{"padded code", "Kano ( KAN )", "KAN"},
		{"code only", "(QOW)", "QOW"},
		{"no code", "Port Harcourt", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, utils.ExtractAirportCode(tt.input))
		})
	}
}

func TestParseSearchDate(t *testing.T) {
	t.Run("padded day", func(t *testing.T) {
		parsed, err := utils.ParseSearchDate("06 Jun 2025")
		assert.NoError(t, err)
		assert.Equal(t, time.Date(2025, time.June, 6, 0, 0, 0, 0, time.UTC), parsed)
	})

	t.Run("single digit day", func(t *testing.T) {
		parsed, err := utils.ParseSearchDate("6 Jun 2025")
		assert.NoError(t, err)
		assert.Equal(t, 6, parsed.Day())
	})

	t.Run("surrounding whitespace", func(t *testing.T) {
		_, err := utils.ParseSearchDate("  06 Jun 2025 ")
		assert.NoError(t, err)
	})

	t.Run("wrong format", func(t *testing.T) {
		_, err := utils.ParseSearchDate("2025-06-06")
		assert.Error(t, err)
	})
}

func TestConvertDate(t *testing.T) {
	tests := []struct {
		name   string
		layout string
		want   string
	}{
		{"crane", utils.DateLayoutCrane, "06.06.2025"},
		{"videcom", utils.DateLayoutVidecom, "06-Jun-2025"},
		{"iso", utils.DateLayoutISO, "2025-06-06"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := utils.ConvertDate("06 Jun 2025", tt.layout)
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("invalid input", func(t *testing.T) {
		_, err := utils.ConvertDate("June 6th", utils.DateLayoutISO)
		assert.Error(t, err)
	})
}
