package valuejet

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
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
	outboundContainerID = "outbound"
	inboundContainerID  = "inbound"

	// resultsWait bounds how long the flight list may take to render
	resultsWait = 10 * time.Second

	// ValueJet ships a utility-class frontend, so the selectors are long
	// class chains rather than semantic hooks
	cardSelector      = "div.flex.flex-col.w-full.border.border-gray-200.rounded-lg"
	cardWaitSelector  = `div.flex.flex-col.w-full.border.border-gray-200.rounded-lg.lg\:pb-4.mb-4`
	depInfoSelector   = "span.flex.basis-1.flex-col.pb-1"
	arrInfoSelector   = "span.flex.basis-1.flex-col.items-end.pb-1"
	timeSelector      = "span.text-primary.text-2xl.font-semibold"
	meridiemSelector  = "span.text-sm.font-semibold"
	detailsSelector   = "div.font-roboto.flex.flex-col.basis-3"
	fareRowSelector   = "div.grid.grid-cols-6 > button"
	fareNameSelector  = "span.text-header"
	farePriceSelector = "h5.text-lg.text-primary.font-bold"
)

// flightNumberPattern matches airline-code-plus-digits flight designators
var flightNumberPattern = regexp.MustCompile(`^[A-Z]{2,3}\d{2,4}$`)

// fareButtonSelectors is the cascade used to find each card's fare
// expansion button; the frontend has shipped several variants
var fareButtonSelectors = []string{
	"button.bg-primary.text-white.font-black.font-roboto.w-full.text-xl.capitalize",
	"button.bg-primary.text-white",
	"button[class*='bg-primary'][class*='text-white']",
}

// farePanelSelectors is the cascade used to find the expanded fare panel
// inside a card
var farePanelSelectors = []string{
	"div.p-accordion-content",
	"div[role='region']",
	"div.chakra-collapse",
	"div.chakra-accordion__panel",
	"div.grid.grid-cols-6",
	"div.flex.flex-col.gap-4",
}

// Adapter drives the ValueJet booking site. The whole search rides in a
// single requestInfo query parameter, and fare classes live in accordion
// panels behind a per-card expansion button.
type Adapter struct {
	config *config.Config
	logger types.Logger
}

// NewAdapter creates the ValueJet site adapter
func NewAdapter(cfg *config.Config) *Adapter {
	return &Adapter{
		config: cfg,
		logger: logging.GetGlobalLogger().WithField("adapter", "valuejet"),
	}
}

// Family returns the site family this adapter drives
func (a *Adapter) Family() models.SiteFamily {
	return models.FamilyValueJet
}

// Scrape searches ValueJet: navigate to the results URL, expand every fare
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

	if err := sess.WaitForSelector(ctx, "#"+outboundContainerID, resultsWait); err != nil {
		return nil, utils.NewNavigationError(fmt.Sprintf("results container did not render: %v", err))
	}
	if err := sess.WaitForSelector(ctx, cardWaitSelector, resultsWait); err != nil {
		return nil, utils.NewNavigationError(fmt.Sprintf("flight cards did not render: %v", err))
	}

	if err := sess.Eval(ctx, expandFaresJS()); err != nil {
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

	a.logger.Info("ValueJet search completed", map[string]interface{}{
		"site":              site.Key,
		"departure_flights": len(data.Departure),
		"return_flights":    len(data.Return),
	})
	return data, nil
}

// BuildResultsURL renders the requestInfo grammar: an inline object literal
// with quoted airports and dates, fully percent-encoded. till stays empty
// for one-way trips.
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

	retDate := ""
	if req.IsRoundTrip() {
		if retDate, err = utils.ConvertDate(req.ReturnDate, utils.DateLayoutISO); err != nil {
			return "", err
		}
	}

	requestInfo := fmt.Sprintf("dep:'%s',arr:'%s',on:'%s',till:'%s',p.a:%d,p.c:%d,p.i:%d",
		depPort, arrPort, depDate, retDate, req.Adults, req.Children, req.Infants)

	return fmt.Sprintf("%s/flight-result?requestInfo=%s",
		strings.TrimRight(site.URL, "/"), url.QueryEscape(requestInfo)), nil
}

// expandFaresJS clicks the first matching fare button in every flight card
func expandFaresJS() string {
	return fmt.Sprintf(`() => {
		const selectors = ['%s'];
		document.querySelectorAll('#%s %s, #%s %s').forEach((card) => {
			for (const selector of selectors) {
				const btn = card.querySelector(selector);
				if (btn) {
					try { btn.click(); } catch (e) {}
					break;
				}
			}
		});
	}`, strings.Join(fareButtonSelectors, `', '`),
		outboundContainerID, cardSelector, inboundContainerID, cardSelector)
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

	doc.Find("#" + containerID).Find(cardSelector).Each(func(_ int, card *goquery.Selection) {
		flights = append(flights, extractCard(card))
	})
	return flights
}

// extractCard reads one flight card. Missing pieces degrade to empty
// fields; the card itself is always kept.
func extractCard(card *goquery.Selection) models.FlightResult {
	return models.FlightResult{
		FlightNumber: extractFlightNumber(card),
		Departure: models.FlightPoint{
			Time: extractPointTime(card.Find(depInfoSelector).First()),
		},
		Arrival: models.FlightPoint{
			Time: extractPointTime(card.Find(arrInfoSelector).First()),
		},
		Fares: extractFares(card),
	}
}

// extractPointTime joins the clock reading and its AM/PM marker
func extractPointTime(info *goquery.Selection) string {
	if info.Length() == 0 {
		return ""
	}

	clock := utils.CleanText(info.Find(timeSelector).First().Text())
	meridiem := utils.CleanText(info.Find(meridiemSelector).First().Text())
	if clock == "" {
		return ""
	}
	if meridiem == "" {
		return clock
	}
	return clock + " " + meridiem
}

// extractFlightNumber looks for a designator-shaped paragraph inside the
// details column, falling back to the first paragraph
func extractFlightNumber(card *goquery.Selection) string {
	details := card.Find(detailsSelector).First()
	if details.Length() == 0 {
		return ""
	}

	var number string
	paragraphs := details.Find("p")
	paragraphs.EachWithBreak(func(_ int, p *goquery.Selection) bool {
		text := utils.CleanText(p.Text())
		if flightNumberPattern.MatchString(text) {
			number = text
			return false
		}
		return true
	})
	if number == "" && paragraphs.Length() > 0 {
		number = utils.CleanText(paragraphs.First().Text())
	}
	return number
}

// extractFares finds the card's expanded fare panel and reads the fare
// grid. A price containing Sold Out collapses to that marker.
func extractFares(card *goquery.Selection) []models.Fare {
	fares := []models.Fare{}

	var panel *goquery.Selection
	for _, selector := range farePanelSelectors {
		if found := card.Find(selector).First(); found.Length() > 0 {
			panel = found
			break
		}
	}
	if panel == nil {
		return fares
	}

	panel.Find(fareRowSelector).Each(func(_ int, btn *goquery.Selection) {
		name := utils.CleanText(btn.Find(fareNameSelector).First().Text())
		price := utils.CleanText(btn.Find(farePriceSelector).First().Text())
		if name == "" || price == "" {
			return
		}
		if strings.Contains(price, "Sold Out") {
			price = "Sold Out"
		}
		fares = append(fares, models.Fare{Type: name, Price: price})
	})
	return fares
}
