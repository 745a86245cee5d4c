package greenafrica_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aerofinder-utils/internal/config"
	"aerofinder-utils/internal/scraper/sites/greenafrica"
	"aerofinder-utils/pkg/models"
)

const greenafricaBookingPage = `<html><body>
<div class="flex flex-col gap-16 mt-12 w-full bookings-container">
	<div class="chakra-accordion__item">
		<button class="chakra-accordion__button">
			<h3 class="text-h4">06:55</h3>
			<h3 class="lg:text-[30px]">08:05</h3>
			<p>Flight no.</p>
			<p>Q9 310</p>
		</button>
		<div class="chakra-accordion__panel">
			<div class="grid lg:hidden">
				<div class="box-shadow">
					<h4 class="text-h4">gClassic</h4>
					<button class="border-brand_blue"><span class="notranslate">&#8358;51,000</span></button>
				</div>
			</div>
			<div class="hidden lg:grid">
				<div class="box-shadow">
					<h4 class="text-h4">gClassic</h4>
					<button class="border-brand_blue"><span class="notranslate">&#8358;52,000</span></button>
				</div>
				<div class="box-shadow">
					<h4 class="text-h4">gFlex</h4>
					<button class="border-brand_blue"><span class="notranslate">&#8358;65,500</span></button>
				</div>
				<div class="box-shadow">
					<h4 class="text-h4">gSuite</h4>
					<button class="border-brand_blue"><span class="notranslate"></span></button>
				</div>
			</div>
		</div>
	</div>
	<div class="chakra-accordion__item">
		<button class="chakra-accordion__button">
			<h3 class="text-h4">11:20</h3>
			<h3 class="text-h4">12:30</h3>
		</button>
	</div>
</div>
<div class="flex flex-col gap-16 mt-12 w-full bookings-container">
	<div class="chakra-accordion__item">
		<button class="chakra-accordion__button">
			<h3 class="text-h4">09:40</h3>
			<h3 class="text-h4">10:50</h3>
			<p>Flight no.</p>
			<p>Q9 311</p>
		</button>
		<div class="chakra-accordion__panel">
			<div class="hidden lg:grid">
				<div class="box-shadow">
					<h4 class="text-h4">gClassic</h4>
					<button class="border-brand_blue"><span class="notranslate">&#8358;49,900</span></button>
				</div>
			</div>
		</div>
	</div>
</div>
</body></html>`

func greenafricaSite() models.SiteConfig {
	return models.SiteConfig{
		Key:    "greenafrica",
		Name:   "Green Africa",
		URL:    "https://greenafrica.com",
		Family: models.FamilyGreenAfrica,
	}
}

func greenafricaRequest() *models.SearchRequest {
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
	t.Run("one way", func(t *testing.T) {
		req := greenafricaRequest()
		req.TripType = models.TripTypeOneWay
		req.ReturnDate = ""
		req.Adults, req.Children, req.Infants = 1, 0, 0

		got, err := greenafrica.BuildResultsURL(greenafricaSite(), req)
		require.NoError(t, err)
		assert.Equal(t, "https://greenafrica.com/booking/select"+
			"?origin=LOS&destination=ABV&departure=2025-06-06"+
			"&adt=1&chd=0&inf=0&promocode=", got)
	})

	t.Run("round trip inserts return and round flag", func(t *testing.T) {
		site := greenafricaSite()
		site.URL = "https://greenafrica.com/"

		got, err := greenafrica.BuildResultsURL(site, greenafricaRequest())
		require.NoError(t, err)
		assert.Equal(t, "https://greenafrica.com/booking/select"+
			"?origin=LOS&destination=ABV&departure=2025-06-06"+
			"&return=2025-06-10&round=1"+
			"&adt=2&chd=1&inf=1&promocode=", got)
	})

	t.Run("no airport code", func(t *testing.T) {
		req := greenafricaRequest()
		req.ArrivalCity = "Abuja"
		_, err := greenafrica.BuildResultsURL(greenafricaSite(), req)
		assert.ErrorContains(t, err, "no airport code")
	})
}

func TestExtractFlightsRoundTrip(t *testing.T) {
	data, err := greenafrica.ExtractFlights(greenafricaBookingPage, true)
	require.NoError(t, err)

	require.Len(t, data.Departure, 2)
	require.Len(t, data.Return, 1)

	first := data.Departure[0]
	assert.Equal(t, "Q9 310", first.FlightNumber)
	assert.Equal(t, "06:55", first.Departure.Time)
	assert.Equal(t, "08:05", first.Arrival.Time)
	// Desktop grid only; the priceless gSuite box drops out
	assert.Equal(t, []models.Fare{
		{Type: "gClassic", Price: "₦52,000"},
		{Type: "gFlex", Price: "₦65,500"},
	}, first.Fares)

	second := data.Departure[1]
	assert.Empty(t, second.FlightNumber)
	assert.Equal(t, "11:20", second.Departure.Time)
	assert.Equal(t, "12:30", second.Arrival.Time)
	assert.Empty(t, second.Fares)

	inbound := data.Return[0]
	assert.Equal(t, "Q9 311", inbound.FlightNumber)
	assert.Equal(t, []models.Fare{{Type: "gClassic", Price: "₦49,900"}}, inbound.Fares)
}

func TestExtractFlightsOneWay(t *testing.T) {
	data, err := greenafrica.ExtractFlights(greenafricaBookingPage, false)
	require.NoError(t, err)

	assert.Len(t, data.Departure, 2)
	assert.Empty(t, data.Return)
}

func TestExtractFlightsEmptyPage(t *testing.T) {
	data, err := greenafrica.ExtractFlights(`<html><body><div class="spinner"></div></body></html>`, true)
	require.NoError(t, err)

	assert.True(t, data.IsEmpty())
}

// pageSession serves a canned booking page and records interactions
type pageSession struct {
	html      string
	navigated []string
	evals     []string
	waited    []string
}

func (s *pageSession) ID() string                { return "sess-test" }
func (s *pageSession) SiteKey() string           { return "greenafrica" }
func (s *pageSession) Family() models.SiteFamily { return models.FamilyGreenAfrica }

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
	sess := &pageSession{html: greenafricaBookingPage}
	adapter := greenafrica.NewAdapter(&config.Config{})

	data, err := adapter.Scrape(context.Background(), sess, greenafricaSite(), greenafricaRequest())

	require.NoError(t, err)
	assert.Len(t, data.Departure, 2)
	assert.Len(t, data.Return, 1)

	require.Len(t, sess.navigated, 1)
	assert.Equal(t, "https://greenafrica.com/booking/select"+
		"?origin=LOS&destination=ABV&departure=2025-06-06"+
		"&return=2025-06-10&round=1"+
		"&adt=2&chd=1&inf=1&promocode=", sess.navigated[0])
	assert.Equal(t, []string{".bookings-container"}, sess.waited)

	require.Len(t, sess.evals, 1)
	assert.Contains(t, sess.evals[0], "chakra-accordion__button")
}

func TestScrapeEmptyResults(t *testing.T) {
	sess := &pageSession{html: `<html><body></body></html>`}
	adapter := greenafrica.NewAdapter(&config.Config{})

	_, err := adapter.Scrape(context.Background(), sess, greenafricaSite(), greenafricaRequest())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "No flight data extracted")
}

func TestAdapterFamily(t *testing.T) {
	assert.Equal(t, models.FamilyGreenAfrica, greenafrica.NewAdapter(&config.Config{}).Family())
}
