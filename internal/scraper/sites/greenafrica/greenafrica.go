package greenafrica

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"aerofinder-utils/internal/config"
	"aerofinder-utils/internal/logging"
	"aerofinder-utils/internal/logging/types"
	"aerofinder-utils/internal/scraper/session"
	"aerofinder-utils/internal/scraper/sites"
	"aerofinder-utils/pkg/models"
	"aerofinder-utils/pkg/utils"
)

const (
	// resultsWait bounds how long the booking page may take to render
	resultsWait = 10 * time.Second

	resultsWaitSelector = ".bookings-container"
	containersSelector  = "div.flex.flex-col.gap-16.mt-12.w-full.bookings-container"
	cardSelector        = ".chakra-accordion__item"
	timesSelector       = `h3.text-h4, h3.lg\:text-\[30px\]`
	accordionButton     = ".chakra-accordion__button"
	panelSelector       = ".chakra-accordion__panel"
	desktopGridSelector = `div.hidden.lg\:grid`
	fareBoxSelector     = "div.box-shadow"
	fareNameSelector    = "h4.text-h4"
	farePriceButton     = "button.border-brand_blue"
	farePriceSpan       = "span.notranslate"

	// flightNumberLabel precedes the designator paragraph in each card
	flightNumberLabel = "Flight no."
)

// expandAccordionsJS opens every flight accordion so the fare grids are
// present in a single page snapshot
const expandAccordionsJS = `() => {
	document.querySelectorAll('.bookings-container .chakra-accordion__button').forEach((btn) => {
		try { btn.click(); } catch (e) {}
	});
}`

// Adapter drives the Green Africa booking site. Search criteria ride in
// the select-page query string and fares sit in chakra accordion panels.
type Adapter struct {
	config *config.Config
	logger types.Logger
}

// NewAdapter creates the Green Africa site adapter
func NewAdapter(cfg *config.Config) *Adapter {
	return &Adapter{
		config: cfg,
		logger: logging.GetGlobalLogger().WithField("adapter", "greenafrica"),
	}
}

// Family returns the site family this adapter drives
func (a *Adapter) Family() models.SiteFamily {
	return models.FamilyGreenAfrica
}

// Scrape searches Green Africa: navigate to the booking select URL, expand
// every accordion, then parse the rendered page in one pass.
func (a *Adapter) Scrape(ctx context.Context, sess session.Session, site models.SiteConfig, req *models.SearchRequest) (*models.FlightData, error) {
	resultsURL, err := BuildResultsURL(site, req)
	if err != nil {
		return nil, err
	}

	a.logger.Info("Navigating to results page", map[string]interface{}{
		"site": site.Key,
		"url":  resultsURL,
	})

	if err := sess.Navigate(ctx, resultsURL); err != nil {
		return nil, utils.NewNavigationError(err.Error())
	}

	if err := sess.WaitForSelector(ctx, resultsWaitSelector, resultsWait); err != nil {
		return nil, utils.NewNavigationError(fmt.Sprintf("booking containers did not render: %v", err))
	}

	if err := sess.Eval(ctx, expandAccordionsJS); err != nil {
		a.logger.Warn("Accordion expansion failed", map[string]interface{}{
			"site":  site.Key,
			"error": err.Error(),
		})
	} else if err := utils.SleepWithContext(ctx, utils.RandomDuration(1*time.Second, 2*time.Second)); err != nil {
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

	a.logger.Info("Green Africa search completed", map[string]interface{}{
		"site":              site.Key,
		"departure_flights": len(data.Departure),
		"return_flights":    len(data.Return),
	})
	return data, nil
}

// BuildResultsURL renders the booking select query string. Round trips
// insert the return date and round flag between departure and the
// passenger counts.
func BuildResultsURL(site models.SiteConfig, req *models.SearchRequest) (string, error) {
	depPort := utils.ExtractAirportCode(req.DepartureCity)
	arrPort := utils.ExtractAirportCode(req.ArrivalCity)
	if depPort == "" || arrPort == "" {
		return "", utils.NewValidationError(fmt.Sprintf("no airport code in %q / %q", req.DepartureCity, req.ArrivalCity))
	}

	depDate, err := utils.ConvertDate(req.DepartureDate, utils.DateLayoutISO)
	if err != nil {
		return "", err
	}

	params := []string{
		"origin=" + depPort,
		"destination=" + arrPort,
		"departure=" + depDate,
	}
	if req.IsRoundTrip() {
		retDate, err := utils.ConvertDate(req.ReturnDate, utils.DateLayoutISO)
		if err != nil {
			return "", err
		}
		params = append(params, "return="+retDate, "round=1")
	}
	params = append(params,
		fmt.Sprintf("adt=%d", req.Adults),
		fmt.Sprintf("chd=%d", req.Children),
		fmt.Sprintf("inf=%d", req.Infants),
		"promocode=",
	)

	return fmt.Sprintf("%s/booking/select?%s",
		strings.TrimRight(site.URL, "/"), strings.Join(params, "&")), nil
}

// ExtractFlights parses the rendered booking page with its accordions
// already expanded. The first bookings container holds departure flights,
// the second holds return flights.
func ExtractFlights(html string, roundTrip bool) (*models.FlightData, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse booking page: %w", err)
	}

	containers := doc.Find(containersSelector)
	data := &models.FlightData{
		Departure: extractContainer(containers.Eq(0)),
	}
	if roundTrip && containers.Length() > 1 {
		data.Return = extractContainer(containers.Eq(1))
	}
	return data, nil
}

// extractContainer pulls every accordion card out of one direction's list
func extractContainer(container *goquery.Selection) []models.FlightResult {
	var flights []models.FlightResult

	container.Find(cardSelector).Each(func(_ int, card *goquery.Selection) {
		flights = append(flights, extractCard(card))
	})
	return flights
}

// extractCard reads one accordion card. Missing pieces degrade to empty
// fields; the card itself is always kept.
func extractCard(card *goquery.Selection) models.FlightResult {
	flight := models.FlightResult{Fares: extractFares(card)}

	times := card.Find(timesSelector)
	if times.Length() >= 2 {
		flight.Departure.Time = utils.CleanText(times.Eq(0).Text())
		flight.Arrival.Time = utils.CleanText(times.Eq(1).Text())
	}
	flight.FlightNumber = extractFlightNumber(card)
	return flight
}

// extractFlightNumber finds the paragraph labelled Flight no. and takes
// the paragraph after it
func extractFlightNumber(card *goquery.Selection) string {
	var number string

	paragraphs := card.Find("p")
	paragraphs.EachWithBreak(func(i int, p *goquery.Selection) bool {
		if !strings.Contains(p.Text(), flightNumberLabel) {
			return true
		}
		if i+1 < paragraphs.Length() {
			number = utils.CleanText(paragraphs.Eq(i + 1).Text())
		}
		return false
	})
	return number
}

// extractFares reads the desktop fare grid out of the card's expanded
// accordion panel
func extractFares(card *goquery.Selection) []models.Fare {
	fares := []models.Fare{}

	grid := card.Find(panelSelector).First().Find(desktopGridSelector).First()
	if grid.Length() == 0 {
		return fares
	}

	grid.Find(fareBoxSelector).Each(func(_ int, box *goquery.Selection) {
		name := utils.CleanText(box.Find(fareNameSelector).First().Text())
		price := utils.CleanText(box.Find(farePriceButton).First().Find(farePriceSpan).First().Text())
		if name == "" || price == "" {
			return
		}
		fares = append(fares, models.Fare{Type: name, Price: price})
	})
	return fares
}
