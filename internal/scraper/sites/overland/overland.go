package overland

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
	outboundContainerID = "outboundFlightListContainer"
	inboundContainerID  = "inboundFlightListContainer"

	// resultsWait bounds how long the flight list may take to render
	resultsWait = 10 * time.Second
)

// Adapter drives the Overland Airways booking site. Overland encodes the
// whole search in the results URL path and renders per-flight availability
// states; fare classes sit in accordion panels that must be expanded before
// they exist in the DOM.
type Adapter struct {
	config *config.Config
	logger types.Logger
}

// NewAdapter creates the Overland site adapter
func NewAdapter(cfg *config.Config) *Adapter {
	return &Adapter{
		config: cfg,
		logger: logging.GetGlobalLogger().WithField("adapter", "overland"),
	}
}

// Family returns the site family this adapter drives
func (a *Adapter) Family() models.SiteFamily {
	return models.FamilyOverland
}

// Scrape searches Overland: navigate to the results URL, expand every fare
// accordion, then parse the rendered page in one pass.
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

	if err := sess.WaitForSelector(ctx, ".flightItem", resultsWait); err != nil {
		return nil, utils.NewNavigationError(fmt.Sprintf("flight list did not render: %v", err))
	}

	// Expand all fare accordions up front so a single HTML fetch sees the
	// fare panels. Sold-out cards have no expand button and are unaffected.
	if err := sess.Eval(ctx, expandAccordionsJS); err != nil {
		a.logger.Warn("Fare accordion expansion failed", map[string]interface{}{
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

	a.logger.Info("Overland search completed", map[string]interface{}{
		"site":              site.Key,
		"departure_flights": len(data.Departure),
		"return_flights":    len(data.Return),
	})
	return data, nil
}

// expandAccordionsJS clicks every fare expansion button on the page
const expandAccordionsJS = `() => {
	document.querySelectorAll('.js-flightItem_titleBtn__btn').forEach((btn) => {
		try { btn.click(); } catch (e) {}
	});
}`

// BuildResultsURL renders the Overland path grammar:
// /flight-results/{DEP}-{ARR}/{date}/{returnDate|NA}/{adults}/{children}/{infants}
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

	retDate := "NA"
	if req.IsRoundTrip() {
		if retDate, err = utils.ConvertDate(req.ReturnDate, utils.DateLayoutISO); err != nil {
			return "", err
		}
	}

	return fmt.Sprintf("%s/flight-results/%s-%s/%s/%s/%d/%d/%d",
		strings.TrimRight(site.URL, "/"), depPort, arrPort, depDate, retDate,
		req.Adults, req.Children, req.Infants), nil
}

// ExtractFlights parses the rendered results page with its accordions
// already expanded
func ExtractFlights(html string, roundTrip bool) (*models.FlightData, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse results page: %w", err)
	}

	data := &models.FlightData{
		Departure: extractContainer(doc, outboundContainerID),
	}
	if roundTrip {
		data.Return = extractContainer(doc, inboundContainerID)
	}
	return data, nil
}

// extractContainer pulls every flight card out of one direction's list
func extractContainer(doc *goquery.Document, containerID string) []models.FlightResult {
	var flights []models.FlightResult

	doc.Find("#" + containerID).Find(".flightItemNew").Each(func(_ int, card *goquery.Selection) {
		flights = append(flights, extractCard(doc, card))
	})
	return flights
}

// extractCard reads one flight card. Overland renders an availability state
// per flight: sold-out cards carry a SOLD OUT banner instead of a price,
// and only available cards have bookable fare panels.
func extractCard(doc *goquery.Document, card *goquery.Selection) models.FlightResult {
	times := card.Find(".flightItem_titleLeft .flightItem_titleTime")

	flight := models.FlightResult{
		FlightNumber: selectText(card, ".flightItem_titleRight strong"),
		Departure: models.FlightPoint{
			Time: utils.CleanText(times.Eq(0).Find("strong").First().Text()),
		},
		Arrival: models.FlightPoint{
			Time: utils.CleanText(times.Eq(1).Find("strong").First().Text()),
		},
		Fares: []models.Fare{},
	}

	statusText := selectText(card, ".flightBlockSelect")
	switch {
	case strings.Contains(statusText, "SOLD OUT"):
		flight.Status = models.StatusNotAvailable
	default:
		if price := selectText(card, ".minPrice"); price != "" {
			flight.Price = price
			flight.Status = models.StatusAvailable
			flight.Fares = extractFares(doc, card)
		} else {
			flight.Status = models.StatusPriceNotAvailable
		}
	}
	return flight
}

// extractFares resolves the card's fare panel through the expand button's
// aria-controls id and reads the bookable class boxes
func extractFares(doc *goquery.Document, card *goquery.Selection) []models.Fare {
	fares := []models.Fare{}

	panelID := card.Find(".js-flightItem_titleBtn__btn").First().AttrOr("aria-controls", "")
	if panelID == "" {
		return fares
	}

	doc.Find("#" + panelID).Find(".flight-class__box[data-bookable='true']").Each(func(_ int, box *goquery.Selection) {
		price := selectText(box, ".btn-class")
		if price == "" {
			return
		}
		fares = append(fares, models.Fare{
			Type:  box.AttrOr("data-classname", ""),
			Price: price,
		})
	})
	return fares
}

func selectText(sel *goquery.Selection, selector string) string {
	return utils.CleanText(sel.Find(selector).First().Text())
}
