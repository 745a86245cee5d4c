package overland_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aerofinder-utils/internal/config"
	"aerofinder-utils/internal/scraper/sites/overland"
	"aerofinder-utils/pkg/models"
)

const overlandResultsPage = `<html><body>
<div id="outboundFlightListContainer">
	<div class="flightItemNew">
		<div class="flightItem_titleLeft">
			<div class="flightItem_titleTime"><strong>08:00</strong></div>
			<div class="flightItem_titleTime"><strong>09:10</strong></div>
		</div>
		<div class="flightItem_titleRight"><strong>OF 1153</strong></div>
		<span class="minPrice">NGN 125,000</span>
		<button class="js-flightItem_titleBtn__btn" aria-controls="farePanel-1"></button>
	</div>
	<div class="flightItemNew">
		<div class="flightItem_titleLeft">
			<div class="flightItem_titleTime"><strong>12:45</strong></div>
			<div class="flightItem_titleTime"><strong>13:55</strong></div>
		</div>
		<div class="flightItem_titleRight"><strong>OF 1155</strong></div>
		<div class="flightBlockSelect">SOLD OUT</div>
	</div>
	<div class="flightItemNew">
		<div class="flightItem_titleLeft">
			<div class="flightItem_titleTime"><strong>16:20</strong></div>
			<div class="flightItem_titleTime"><strong>17:30</strong></div>
		</div>
		<div class="flightItem_titleRight"><strong>OF 1157</strong></div>
	</div>
</div>
<div id="farePanel-1">
	<div class="flight-class__box" data-bookable="true" data-classname="Economy Saver">
		<button class="btn-class">NGN 125,000</button>
	</div>
	<div class="flight-class__box" data-bookable="true" data-classname="Economy Flex">
		<button class="btn-class">NGN 145,000</button>
	</div>
	<div class="flight-class__box" data-bookable="false" data-classname="Business">
		<button class="btn-class">NGN 300,000</button>
	</div>
</div>
<div id="inboundFlightListContainer">
	<div class="flightItemNew">
		<div class="flightItem_titleLeft">
			<div class="flightItem_titleTime"><strong>10:30</strong></div>
			<div class="flightItem_titleTime"><strong>11:40</strong></div>
		</div>
		<div class="flightItem_titleRight"><strong>OF 1154</strong></div>
		<span class="minPrice">NGN 118,500</span>
		<button class="js-flightItem_titleBtn__btn" aria-controls="farePanel-9"></button>
	</div>
</div>
<div id="farePanel-9">
	<div class="flight-class__box" data-bookable="true" data-classname="Economy Saver">
		<button class="btn-class">NGN 118,500</button>
	</div>
</div>
</body></html>`

func overlandSite() models.SiteConfig {
	return models.SiteConfig{
		Key:    "overland",
		Name:   "Overland Airways",
		URL:    "https://bookings.overlandairways.com",
		Family: models.FamilyOverland,
	}
}

func overlandRequest() *models.SearchRequest {
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

func TestBuildResultsURL(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*models.SearchRequest)
		url    string
		want   string
	}{
		{
			name:   "round trip",
			mutate: func(r *models.SearchRequest) {},
			url:    "https://bookings.overlandairways.com",
			want:   "https://bookings.overlandairways.com/flight-results/LOS-ABV/2025-06-06/2025-06-10/2/1/1",
		},
		{
			name: "one way uses NA return segment",
			mutate: func(r *models.SearchRequest) {
				r.TripType = models.TripTypeOneWay
				r.ReturnDate = ""
				r.Adults, r.Children, r.Infants = 1, 0, 0
			},
			url:  "https://bookings.overlandairways.com",
			want: "https://bookings.overlandairways.com/flight-results/LOS-ABV/2025-06-06/NA/1/0/0",
		},
		{
			name:   "trailing slash trimmed",
			mutate: func(r *models.SearchRequest) {},
			url:    "https://bookings.overlandairways.com/",
			want:   "https://bookings.overlandairways.com/flight-results/LOS-ABV/2025-06-06/2025-06-10/2/1/1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			site := overlandSite()
			site.URL = tt.url
			req := overlandRequest()
			tt.mutate(req)

			got, err := overland.BuildResultsURL(site, req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuildResultsURLNoAirportCode(t *testing.T) {
	req := overlandRequest()
	req.ArrivalCity = "Abuja"

	_, err := overland.BuildResultsURL(overlandSite(), req)
	assert.ErrorContains(t, err, "no airport code")
}

func TestExtractFlightsAvailabilityStates(t *testing.T) {
	data, err := overland.ExtractFlights(overlandResultsPage, true)
	require.NoError(t, err)

	require.Len(t, data.Departure, 3)
	require.Len(t, data.Return, 1)

	available := data.Departure[0]
	assert.Equal(t, "OF 1153", available.FlightNumber)
	assert.Equal(t, "08:00", available.Departure.Time)
	assert.Equal(t, "09:10", available.Arrival.Time)
	assert.Equal(t, models.StatusAvailable, available.Status)
	assert.Equal(t, "NGN 125,000", available.Price)
	// Only bookable class boxes count as fares
	assert.Equal(t, []models.Fare{
		{Type: "Economy Saver", Price: "NGN 125,000"},
		{Type: "Economy Flex", Price: "NGN 145,000"},
	}, available.Fares)

	soldOut := data.Departure[1]
	assert.Equal(t, "OF 1155", soldOut.FlightNumber)
	assert.Equal(t, models.StatusNotAvailable, soldOut.Status)
	assert.Empty(t, soldOut.Price)
	assert.Empty(t, soldOut.Fares)

	priceless := data.Departure[2]
	assert.Equal(t, "OF 1157", priceless.FlightNumber)
	assert.Equal(t, models.StatusPriceNotAvailable, priceless.Status)
	assert.Empty(t, priceless.Fares)

	inbound := data.Return[0]
	assert.Equal(t, "OF 1154", inbound.FlightNumber)
	assert.Equal(t, models.StatusAvailable, inbound.Status)
	assert.Equal(t, []models.Fare{{Type: "Economy Saver", Price: "NGN 118,500"}}, inbound.Fares)
}

func TestExtractFlightsOneWay(t *testing.T) {
	data, err := overland.ExtractFlights(overlandResultsPage, false)
	require.NoError(t, err)

	assert.Len(t, data.Departure, 3)
	assert.Empty(t, data.Return)
}

// pageSession serves a canned results page and records interactions
type pageSession struct {
	html      string
	navigated []string
	evals     []string
	waited    []string
}

func (s *pageSession) ID() string                { return "sess-test" }
func (s *pageSession) SiteKey() string           { return "overland" }
func (s *pageSession) Family() models.SiteFamily { return models.FamilyOverland }

func (s *pageSession) Navigate(ctx context.Context, url string) error {
	s.navigated = append(s.navigated, url)
	return nil
}

func (s *pageSession) WaitForSelector(ctx context.Context, selector string, timeout time.Duration) error {
	s.waited = append(s.waited, selector)
	return nil
}

func (s *pageSession) Click(ctx context.Context, selector string) error       { return nil }
func (s *pageSession) Input(ctx context.Context, selector, text string) error { return nil }

func (s *pageSession) Eval(ctx context.Context, js string) error {
	s.evals = append(s.evals, js)
	return nil
}

func (s *pageSession) EvalString(ctx context.Context, js string) (string, error) { return "", nil }
func (s *pageSession) HTML(ctx context.Context) (string, error)                  { return s.html, nil }
func (s *pageSession) CurrentURL(ctx context.Context) (string, error)            { return "", nil }
func (s *pageSession) Title(ctx context.Context) (string, error)                 { return "", nil }
func (s *pageSession) Screenshot(ctx context.Context) ([]byte, error)            { return nil, nil }
func (s *pageSession) SimulateHumanActivity(ctx context.Context) error           { return nil }
func (s *pageSession) Close() error                                              { return nil }

func TestScrapeExpandsAccordions(t *testing.T) {
	sess := &pageSession{html: overlandResultsPage}
	adapter := overland.NewAdapter(&config.Config{})

	data, err := adapter.Scrape(context.Background(), sess, overlandSite(), overlandRequest())

	require.NoError(t, err)
	assert.Len(t, data.Departure, 3)
	assert.Len(t, data.Return, 1)

	require.Len(t, sess.navigated, 1)
	assert.Equal(t, "https://bookings.overlandairways.com/flight-results/LOS-ABV/2025-06-06/2025-06-10/2/1/1", sess.navigated[0])
	assert.Equal(t, []string{".flightItem"}, sess.waited)

	require.Len(t, sess.evals, 1)
	assert.Contains(t, sess.evals[0], "js-flightItem_titleBtn__btn")
}

func TestScrapeEmptyResults(t *testing.T) {
	sess := &pageSession{html: `<html><body><div id="outboundFlightListContainer"></div></body></html>`}
	adapter := overland.NewAdapter(&config.Config{})

	_, err := adapter.Scrape(context.Background(), sess, overlandSite(), overlandRequest())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "No flight data extracted")
}

func TestAdapterFamily(t *testing.T) {
	assert.Equal(t, models.FamilyOverland, overland.NewAdapter(&config.Config{}).Family())
}
