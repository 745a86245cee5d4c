package crane_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aerofinder-utils/internal/scraper/sites/crane"
	"aerofinder-utils/pkg/models"
)

func roundTripRequest() *models.SearchRequest {
	return &models.SearchRequest{
		DepartureCity: "Lagos (LOS)",
		ArrivalCity:   "Abuja (ABV)",
		DepartureDate: "06 Jun 2025",
		ReturnDate:    "10 Jun 2025",
		TripType:      models.TripTypeRoundTrip,
		Adults:        2,
		Children:      1,
		Infants:       1,
	}
}

func oneWayRequest() *models.SearchRequest {
	return &models.SearchRequest{
		DepartureCity: "Lagos (LOS)",
		ArrivalCity:   "Abuja (ABV)",
		DepartureDate: "06 Jun 2025",
		TripType:      models.TripTypeOneWay,
		Adults:        1,
	}
}

func TestBuildAvailabilityURLSimple(t *testing.T) {
	tests := []struct {
		name string
		site models.SiteConfig
		req  *models.SearchRequest
		want string
	}{
		{
			name: "round trip",
			site: models.SiteConfig{Key: "airpeace", URL: "https://book-airpeace.crane.aero/ibe/availability"},
			req:  roundTripRequest(),
			want: "https://book-airpeace.crane.aero/ibe/availability" +
				"?tripType=ROUND_TRIP&depPort=LOS&arrPort=ABV" +
				"&departureDate=06.06.2025&returnDate=10.06.2025" +
				"&adult=2&child=1&infant=1&lang=en",
		},
		{
			name: "one way omits return date",
			site: models.SiteConfig{Key: "ibomair", URL: "https://book.ibomair.com/ibe/availability"},
			req:  oneWayRequest(),
			want: "https://book.ibomair.com/ibe/availability" +
				"?tripType=ONE_WAY&depPort=LOS&arrPort=ABV" +
				"&departureDate=06.06.2025" +
				"&adult=1&child=0&infant=0&lang=en",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := crane.BuildAvailabilityURL(tt.site, tt.req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuildAvailabilityURLAeroContractors(t *testing.T) {
	site := models.SiteConfig{Key: "flyaero", URL: "https://book.flyaero.com/ibe/availability"}

	t.Run("one way repeats departure date", func(t *testing.T) {
		got, err := crane.BuildAvailabilityURL(site, oneWayRequest())
		require.NoError(t, err)
		assert.Equal(t, "https://book.flyaero.com/ibe/availability"+
			"?currency=NGN&lang=en"+
			"&departureDate=06.06.2025&returnDate=06.06.2025"+
			"&depPort=LOS&arrPort=ABV"+
			"&adult=1&child=0&infant=0&tripType=ONE_WAY", got)
	})

	t.Run("round trip", func(t *testing.T) {
		got, err := crane.BuildAvailabilityURL(site, roundTripRequest())
		require.NoError(t, err)
		assert.Equal(t, "https://book.flyaero.com/ibe/availability"+
			"?currency=NGN&lang=en"+
			"&departureDate=06.06.2025&returnDate=10.06.2025"+
			"&depPort=LOS&arrPort=ABV"+
			"&adult=2&child=1&infant=1&tripType=ROUND_TRIP", got)
	})
}

func TestBuildAvailabilityURLArikAir(t *testing.T) {
	site := models.SiteConfig{Key: "arikair", URL: "https://ibe.arikair.com/ibe/availability"}

	got, err := crane.BuildAvailabilityURL(site, roundTripRequest())
	require.NoError(t, err)
	assert.Equal(t, "https://ibe.arikair.com/ibe/availability"+
		"?tripType=ROUND_TRIP&depPort=LOS&arrPort=ABV"+
		"&departureDate=06.06.2025&returnDate=10.06.2025"+
		"&passengerQuantities[0][passengerType]=ADULT&passengerQuantities[0][passengerSubType]=&passengerQuantities[0][quantity]=2"+
		"&passengerQuantities[1][passengerType]=CHILD&passengerQuantities[1][passengerSubType]=&passengerQuantities[1][quantity]=1"+
		"&passengerQuantities[2][passengerType]=INFANT&passengerQuantities[2][passengerSubType]=&passengerQuantities[2][quantity]=1"+
		"&currency=&cabinClass=&lang=EN&nationality=&promoCode=&accountCode=&affiliateCode=&clickId="+
		"&withCalendar=&isMobileCalendar=&market=&isFFPoint=&_ga=", got)
}

func TestBuildAvailabilityURLArikAirOneWay(t *testing.T) {
	site := models.SiteConfig{Key: "arikair", URL: "https://ibe.arikair.com/ibe/availability"}

	got, err := crane.BuildAvailabilityURL(site, oneWayRequest())
	require.NoError(t, err)
	// The return date stays in the grammar as an empty parameter
	assert.Contains(t, got, "&returnDate=&passengerQuantities[0]")
	assert.Contains(t, got, "tripType=ONE_WAY")
	assert.Contains(t, got, "passengerQuantities[0][quantity]=1")
	assert.Contains(t, got, "passengerQuantities[2][quantity]=0")
}

func TestBuildAvailabilityURLBadInput(t *testing.T) {
	site := models.SiteConfig{Key: "airpeace", URL: "https://book-airpeace.crane.aero/ibe/availability"}

	t.Run("no airport code", func(t *testing.T) {
		req := roundTripRequest()
		req.DepartureCity = "Lagos"
		_, err := crane.BuildAvailabilityURL(site, req)
		assert.ErrorContains(t, err, "no airport code")
	})

	t.Run("unparseable departure date", func(t *testing.T) {
		req := roundTripRequest()
		req.DepartureDate = "June 6th"
		_, err := crane.BuildAvailabilityURL(site, req)
		assert.Error(t, err)
	})

	t.Run("unparseable return date", func(t *testing.T) {
		req := roundTripRequest()
		req.ReturnDate = "whenever"
		_, err := crane.BuildAvailabilityURL(site, req)
		assert.Error(t, err)
	})
}
