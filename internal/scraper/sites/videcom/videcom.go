package videcom

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"aerofinder-utils/internal/config"
	"aerofinder-utils/internal/logging"
	"aerofinder-utils/internal/logging/types"
	"aerofinder-utils/internal/scraper/challenge"
	"aerofinder-utils/internal/scraper/session"
	"aerofinder-utils/internal/scraper/sites"
	"aerofinder-utils/pkg/models"
	"aerofinder-utils/pkg/utils"
)

const (
	departureTableID = "calView_0"
	returnTableID    = "calView_1"

	// formWait bounds how long the booking form may take to render
	formWait = 10 * time.Second

	// resultsWait bounds how long the calendar view may take after submit
	resultsWait = 10 * time.Second

	// farePanels is how many classband columns a VARS results row can carry
	farePanels = 4
)

// Adapter drives the Videcom VARS booking panels (Max Air, United Nigeria,
// Rano Air, Binani Air). VARS has no availability URL: the adapter fills
// the search form through page script and submits it, pacing interactions
// with small random waits.
type Adapter struct {
	config     *config.Config
	challenges challenge.Checker
	logger     types.Logger
}

// NewAdapter creates the Videcom site adapter
func NewAdapter(cfg *config.Config, challenges challenge.Checker) *Adapter {
	return &Adapter{
		config:     cfg,
		challenges: challenges,
		logger:     logging.GetGlobalLogger().WithField("adapter", "videcom"),
	}
}

// Family returns the site family this adapter drives
func (a *Adapter) Family() models.SiteFamily {
	return models.FamilyVidecom
}

// Scrape searches one VARS panel: load the form, fill it, submit, clear any
// reCAPTCHA, then parse the rendered calendar views.
func (a *Adapter) Scrape(ctx context.Context, sess session.Session, site models.SiteConfig, req *models.SearchRequest) (*models.FlightData, error) {
	a.logger.Info("Navigating to booking form", map[string]interface{}{
		"site": site.Key,
		"url":  site.URL,
	})

	if err := sess.Navigate(ctx, site.URL); err != nil {
		return nil, utils.NewNavigationError(err.Error())
	}

	if err := sess.WaitForSelector(ctx, "#Origin", formWait); err != nil {
		return nil, utils.NewNavigationError(fmt.Sprintf("booking form did not render: %v", err))
	}

	if err := a.fillForm(ctx, sess, req); err != nil {
		return nil, err
	}

	if err := a.submitSearch(ctx, sess, site); err != nil {
		return nil, err
	}

	html, err := sess.HTML(ctx)
	if err != nil {
		return nil, utils.NewNavigationError(err.Error())
	}

	data, err := ExtractFlights(html, req.IsRoundTrip())
	if err != nil {
		return nil, err
	}
	if data.IsEmpty() {
		sites.SaveFailureScreenshot(ctx, a.config, sess, a.logger)
		return nil, utils.NewExtractionError(fmt.Sprintf("no flights parsed for %s", site.Key))
	}

	a.logger.Info("Videcom search completed", map[string]interface{}{
		"site":              site.Key,
		"departure_flights": len(data.Departure),
		"return_flights":    len(data.Return),
	})
	return data, nil
}

// fillForm drives the VARS search form. Airports are picked by matching the
// IATA code in the option text, and dates and passenger counts are set by
// script so the page's own widgets stay out of the way. Missing fields are
// tolerated: the form differs slightly between carriers.
func (a *Adapter) fillForm(ctx context.Context, sess session.Session, req *models.SearchRequest) error {
	depDate, err := utils.ConvertDate(req.DepartureDate, utils.DateLayoutVidecom)
	if err != nil {
		return err
	}

	retDate := ""
	if req.IsRoundTrip() {
		if retDate, err = utils.ConvertDate(req.ReturnDate, utils.DateLayoutVidecom); err != nil {
			return err
		}
	}

	// VARS defaults to round trip; one-way needs the radio label clicked
	if !req.IsRoundTrip() {
		if err := sess.Click(ctx, `label[for="ReturnTrip2"]`); err != nil {
			a.logger.Warn("One-way selector click failed, continuing", map[string]interface{}{
				"error": err.Error(),
			})
		} else if err := utils.SleepWithContext(ctx, utils.RandomDuration(1*time.Second, 2*time.Second)); err != nil {
			return err
		}
	}

	depCode := utils.ExtractAirportCode(req.DepartureCity)
	arrCode := utils.ExtractAirportCode(req.ArrivalCity)

	if err := sess.Eval(ctx, selectAirportScript("Origin", depCode)); err != nil {
		return utils.NewNavigationError(fmt.Sprintf("origin selection failed: %v", err))
	}
	if err := utils.SleepWithContext(ctx, 1*time.Second); err != nil {
		return err
	}

	script := fmt.Sprintf(`() => {
		%[1]s

		const destSelect = document.getElementById('Destination');
		if (destSelect) {
			const options = Array.from(destSelect.options);
			const match = options.find((option) => extractAirportCode(option.textContent) === '%[2]s');
			if (match) {
				destSelect.value = match.value;
				destSelect.dispatchEvent(new Event('change', { bubbles: true }));
			}
		}

		const depDateField = document.getElementById('departuredate');
		if (depDateField) depDateField.value = '%[3]s';

		const retDateField = document.getElementById('returndate');
		if (retDateField && '%[4]s' !== '') retDateField.value = '%[4]s';

		const adultSelect = document.getElementById('NumberOfAdults');
		if (adultSelect) adultSelect.value = '%[5]d';

		const childSelect = document.getElementById('NumberOfChildren');
		if (childSelect) childSelect.value = '%[6]d';

		const infantSelect = document.getElementById('NumberOfInfants');
		if (infantSelect) infantSelect.value = '%[7]d';
	}`, airportCodeJS, arrCode, depDate, retDate, req.Adults, req.Children, req.Infants)

	if err := sess.Eval(ctx, script); err != nil {
		return utils.NewNavigationError(fmt.Sprintf("form fill failed: %v", err))
	}
	return utils.SleepWithContext(ctx, 1*time.Second)
}

// submitSearch clicks the search button, clears any reCAPTCHA gate, and
// waits for the calendar view to render
func (a *Adapter) submitSearch(ctx context.Context, sess session.Session, site models.SiteConfig) error {
	if err := sess.Click(ctx, "#submitButton"); err != nil {
		return utils.NewNavigationError(fmt.Sprintf("submit click failed: %v", err))
	}

	if err := utils.SleepWithContext(ctx, utils.RandomDuration(1*time.Second, 2*time.Second)); err != nil {
		return err
	}

	if !a.challenges.HandleRecaptcha(ctx, sess) {
		return utils.NewChallengeUnresolvedError(fmt.Sprintf("recaptcha blocked %s", site.Key))
	}

	if err := sess.WaitForSelector(ctx, "#"+departureTableID, resultsWait); err != nil {
		return utils.NewNavigationError(fmt.Sprintf("calendar view did not render: %v", err))
	}
	return nil
}

// airportCodeJS mirrors the option-text matching done elsewhere: the IATA
// code is the last parenthesized group in the displayed name
const airportCodeJS = `function extractAirportCode(text) {
			const matches = [...text.matchAll(/\(([^)]+)\)/g)];
			if (matches.length > 0) {
				return matches[matches.length - 1][1].toUpperCase();
			}
			return '';
		}`

// selectAirportScript builds the script that picks the select option whose
// text carries the wanted airport code
func selectAirportScript(elementID, code string) string {
	return fmt.Sprintf(`() => {
		%[1]s

		const select = document.getElementById('%[2]s');
		if (select) {
			const options = Array.from(select.options);
			const match = options.find((option) => extractAirportCode(option.textContent) === '%[3]s');
			if (match) {
				select.value = match.value;
				select.dispatchEvent(new Event('change', { bubbles: true }));
			}
		}
	}`, airportCodeJS, elementID, code)
}

// ExtractFlights parses the rendered calendar views. Videcom renders times
// only; there are no city or date cells on the results rows.
func ExtractFlights(html string, roundTrip bool) (*models.FlightData, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse results page: %w", err)
	}

	data := &models.FlightData{
		Departure: extractTable(doc, departureTableID),
	}
	if roundTrip {
		data.Return = extractTable(doc, returnTableID)
	}
	return data, nil
}

// extractTable pulls every flight panel out of one calendar view
func extractTable(doc *goquery.Document, tableID string) []models.FlightResult {
	var flights []models.FlightResult

	doc.Find("#" + tableID).Find(".flt-panel").Each(func(_ int, panel *goquery.Selection) {
		if flight := extractPanel(panel); flight != nil {
			flights = append(flights, *flight)
		}
	})
	return flights
}

// extractPanel reads one flight panel. Panels without a flight number are
// spacer rows and get dropped.
func extractPanel(panel *goquery.Selection) *models.FlightResult {
	flight := &models.FlightResult{
		FlightNumber: selectText(panel, ".flightnumber"),
		Departure: models.FlightPoint{
			Time: selectText(panel, ".cal-Depart-time .time"),
		},
		Arrival: models.FlightPoint{
			Time: selectText(panel, ".cal-Arrive-time .time"),
		},
		Fares: extractFares(panel),
	}

	if flight.FlightNumber == "" {
		return nil
	}
	return flight
}

// extractFares walks the numbered classband panels in column order. The
// class name comes from the panel's data-classband attribute when present.
func extractFares(panel *goquery.Selection) []models.Fare {
	fares := make([]models.Fare, 0, farePanels)

	for n := 1; n <= farePanels; n++ {
		fareEl := panel.Find(fmt.Sprintf(".classband-panel-%d", n)).First()
		if fareEl.Length() == 0 {
			continue
		}

		price := selectText(fareEl, ".FareClass-price")
		if price == "" {
			continue
		}

		fareType := fareEl.AttrOr("data-classband", "")
		if fareType == "" {
			fareType = fmt.Sprintf("Class_%d", n)
		}
		fares = append(fares, models.Fare{Type: fareType, Price: price})
	}
	return fares
}

func selectText(sel *goquery.Selection, selector string) string {
	return utils.CleanText(sel.Find(selector).First().Text())
}
