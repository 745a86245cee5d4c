package models_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"aerofinder-utils/pkg/models"
)

func validRequest() models.SearchRequest {
	return models.SearchRequest{
		DepartureCity: "Lagos (LOS)",
		ArrivalCity:   "Abuja (ABV)",
		DepartureDate: "06 Jun 2025",
		ReturnDate:    "10 Jun 2025",
		TripType:      models.TripTypeRoundTrip,
		Adults:        1,
	}
}

func TestSearchRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*models.SearchRequest)
		wantErr error
	}{
		{
			name:   "valid round trip",
			mutate: func(r *models.SearchRequest) {},
		},
		{
			name: "valid one way without return date",
			mutate: func(r *models.SearchRequest) {
				r.TripType = models.TripTypeOneWay
				r.ReturnDate = ""
			},
		},
		{
			name: "valid full passenger mix",
			mutate: func(r *models.SearchRequest) {
				r.Adults = 9
				r.Children = 8
				r.Infants = 9
			},
		},
		{
			name: "missing departure city",
			mutate: func(r *models.SearchRequest) {
				r.DepartureCity = ""
			},
			wantErr: models.ErrMissingSearchFields,
		},
		{
			name: "missing arrival city",
			mutate: func(r *models.SearchRequest) {
				r.ArrivalCity = ""
			},
			wantErr: models.ErrMissingSearchFields,
		},
		{
			name: "missing departure date",
			mutate: func(r *models.SearchRequest) {
				r.DepartureDate = ""
			},
			wantErr: models.ErrMissingSearchFields,
		},
		{
			name: "zero adults",
			mutate: func(r *models.SearchRequest) {
				r.Adults = 0
			},
			wantErr: models.ErrAdultsOutOfRange,
		},
		{
			name: "too many adults",
			mutate: func(r *models.SearchRequest) {
				r.Adults = 10
			},
			wantErr: models.ErrAdultsOutOfRange,
		},
		{
			name: "too many children",
			mutate: func(r *models.SearchRequest) {
				r.Children = 9
			},
			wantErr: models.ErrChildrenOutOfRange,
		},
		{
			name: "more infants than adults",
			mutate: func(r *models.SearchRequest) {
				r.Adults = 2
				r.Infants = 3
			},
			wantErr: models.ErrInfantsExceedAdults,
		},
		{
			name: "round trip without return date",
			mutate: func(r *models.SearchRequest) {
				r.ReturnDate = ""
			},
			wantErr: models.ErrMissingReturnDate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)

			err := req.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSearchRequestApplyDefaults(t *testing.T) {
	t.Run("fills adults and trip type", func(t *testing.T) {
		req := models.SearchRequest{}
		req.ApplyDefaults()

		assert.Equal(t, 1, req.Adults)
		assert.Equal(t, models.TripTypeRoundTrip, req.TripType)
	})

	t.Run("keeps explicit values", func(t *testing.T) {
		req := models.SearchRequest{Adults: 3, TripType: models.TripTypeOneWay}
		req.ApplyDefaults()

		assert.Equal(t, 3, req.Adults)
		assert.Equal(t, models.TripTypeOneWay, req.TripType)
	})
}

func TestParseTripType(t *testing.T) {
	tests := []struct {
		input string
		want  models.TripType
	}{
		{"one-way", models.TripTypeOneWay},
		{"round-trip", models.TripTypeRoundTrip},
		{"", models.TripTypeRoundTrip},
		{"return", models.TripTypeRoundTrip},
		{"ONE-WAY", models.TripTypeRoundTrip},
	}

	for _, tt := range tests {
		t.Run("input "+tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, models.ParseTripType(tt.input))
		})
	}
}

func TestSearchRequestIsRoundTrip(t *testing.T) {
	req := validRequest()
	assert.True(t, req.IsRoundTrip())

	req.TripType = models.TripTypeOneWay
	assert.False(t, req.IsRoundTrip())
}

func TestSearchRequestTotalPassengers(t *testing.T) {
	req := validRequest()
	req.Adults = 2
	req.Children = 3
	req.Infants = 1

	assert.Equal(t, 6, req.TotalPassengers())
}
