package crane

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/cenkalti/backoff/v4"

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
	departureTableID = "availability-flight-table-0"
	returnTableID    = "availability-flight-table-1"

	// resultsWait bounds how long the availability table may take to render
	resultsWait = 10 * time.Second

	// settleWait gives the protection layer time to interpose after
	// navigation before the page is inspected
	settleWait = 3 * time.Second

	// challengeWait bounds how long a managed challenge may run per attempt
	challengeWait = 20 * time.Second
)

// fareClasses names the fare columns by table position
var fareClasses = []string{"ECONOMY", "PREMIUM", "BUSINESS"}

// Adapter drives the Crane IBE deployments (Air Peace, Arik Air, Aero
// Contractors, Ibom Air, NG Eagle, UMZA). Crane renders the full results
// page from a single availability URL, so the adapter navigates directly
// and never touches the search form.
type Adapter struct {
	config     *config.Config
	sessions   session.Factory
	challenges challenge.Checker
	logger     types.Logger
}

// NewAdapter creates the Crane site adapter. The session factory is used to
// restart the browser between retry attempts.
func NewAdapter(cfg *config.Config, sessions session.Factory, challenges challenge.Checker) *Adapter {
	return &Adapter{
		config:     cfg,
		sessions:   sessions,
		challenges: challenges,
		logger:     logging.GetGlobalLogger().WithField("adapter", "crane"),
	}
}

// Family returns the site family this adapter drives
func (a *Adapter) Family() models.SiteFamily {
	return models.FamilyCrane
}

// Scrape searches one Crane site. Crane deployments sit behind aggressive
// bot protection, so blocked or broken attempts are retried on a fresh
// browser session with exponential backoff between attempts. An empty but
// well-formed results page is not retried.
func (a *Adapter) Scrape(ctx context.Context, sess session.Session, site models.SiteConfig, req *models.SearchRequest) (*models.FlightData, error) {
	availabilityURL, err := BuildAvailabilityURL(site, req)
	if err != nil {
		return nil, err
	}

	maxAttempts := a.config.Workers.MaxRetries
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	// Retry attempts swap in sessions of their own; the caller still owns
	// the session it passed and Close is idempotent either way.
	current := sess
	defer func() {
		if current != sess {
			current.Close()
		}
	}()

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 2 * time.Second
	bo.MaxInterval = 15 * time.Second
	bo.MaxElapsedTime = 0

	var (
		data    *models.FlightData
		attempt int
	)

	operation := func() error {
		attempt++
		if attempt > 1 {
			a.logger.Info("Restarting browser session for retry", map[string]interface{}{
				"site":    site.Key,
				"attempt": attempt,
			})
			current.Close()

			fresh, err := a.sessions.Create(ctx, site, req.ProxyIP)
			if err != nil {
				return backoff.Permanent(err)
			}
			current = fresh
		}

		result, err := a.attemptSearch(ctx, current, site, availabilityURL, req)
		if err != nil {
			a.logger.Warn("Scrape attempt failed", map[string]interface{}{
				"site":    site.Key,
				"attempt": attempt,
				"error":   err.Error(),
			})
			return err
		}
		data = result
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(bo, uint64(maxAttempts-1)), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		a.logger.Error("All scrape attempts failed", map[string]interface{}{
			"site":     site.Key,
			"attempts": attempt,
			"error":    err.Error(),
		})
		return nil, err
	}

	a.logger.Info("Crane search completed", map[string]interface{}{
		"site":              site.Key,
		"attempts":          attempt,
		"departure_flights": len(data.Departure),
		"return_flights":    len(data.Return),
	})
	return data, nil
}

// attemptSearch runs a single navigate-check-extract pass. Retriable
// failures come back as plain errors; dead ends are wrapped with
// backoff.Permanent so the retry loop stops early.
func (a *Adapter) attemptSearch(ctx context.Context, sess session.Session, site models.SiteConfig, availabilityURL string, req *models.SearchRequest) (*models.FlightData, error) {
	a.logger.Debug("Navigating to availability page", map[string]interface{}{
		"site": site.Key,
		"url":  availabilityURL,
	})

	if err := sess.Navigate(ctx, availabilityURL); err != nil {
		return nil, utils.NewNavigationError(err.Error())
	}

	if err := utils.SleepWithContext(ctx, settleWait); err != nil {
		return nil, backoff.Permanent(err)
	}

	if !a.challenges.CheckAndResolve(ctx, sess, challengeWait) {
		return nil, utils.NewChallengeUnresolvedError(fmt.Sprintf("challenge blocked %s", site.Key))
	}

	if err := sess.WaitForSelector(ctx, "#"+departureTableID, resultsWait); err != nil {
		return nil, utils.NewNavigationError(fmt.Sprintf("results table did not render: %v", err))
	}

	html, err := sess.HTML(ctx)
	if err != nil {
		return nil, utils.NewNavigationError(err.Error())
	}

	data, err := ExtractFlights(html, site.Key, req.IsRoundTrip())
	if err != nil {
		return nil, backoff.Permanent(err)
	}
	if data.IsEmpty() {
		sites.SaveFailureScreenshot(ctx, a.config, sess, a.logger)
		return nil, backoff.Permanent(utils.NewExtractionError(fmt.Sprintf("no flights parsed for %s", site.Key)))
	}
	return data, nil
}

// ExtractFlights parses a rendered availability page. The departure leg
// always renders under availability-flight-table-0; round trips add the -1
// table for the return leg.
func ExtractFlights(html, siteKey string, roundTrip bool) (*models.FlightData, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse results page: %w", err)
	}

	data := &models.FlightData{
		Departure: extractTable(doc, departureTableID, siteKey),
	}
	if roundTrip {
		data.Return = extractTable(doc, returnTableID, siteKey)
	}
	return data, nil
}

// extractTable pulls every journey card out of one results table. Cards are
// processed concurrently and written back by position, so output order
// always matches page order.
func extractTable(doc *goquery.Document, tableID, siteKey string) []models.FlightResult {
	cards := doc.Find("#" + tableID).Find(".js-journey")
	if cards.Length() == 0 {
		return nil
	}

	results := make([]*models.FlightResult, cards.Length())
	var wg sync.WaitGroup

	cards.Each(func(i int, card *goquery.Selection) {
		wg.Add(1)
		go func(i int, card *goquery.Selection) {
			defer wg.Done()
			results[i] = extractCard(card, siteKey)
		}(i, card)
	})
	wg.Wait()

	flights := make([]models.FlightResult, 0, len(results))
	for _, r := range results {
		if r != nil {
			flights = append(flights, *r)
		}
	}
	return flights
}

// extractCard reads one journey card. A card without a flight number is a
// layout artifact and gets dropped.
func extractCard(card *goquery.Selection, siteKey string) *models.FlightResult {
	blocks := card.Find(".desktop-route-block .info-block")
	if blocks.Length() < 2 {
		return nil
	}

	departure := blocks.First()
	arrival := blocks.Last()

	flight := &models.FlightResult{
		FlightNumber: selectText(card, ".flight-no"),
		Departure: models.FlightPoint{
			Time: selectText(departure, ".time"),
			City: selectText(departure, ".port"),
			Date: selectText(departure, ".date"),
		},
		Arrival: models.FlightPoint{
			Time: selectText(arrival, ".time"),
			City: selectText(arrival, ".port"),
			Date: selectText(arrival, ".date"),
		},
		Fares: extractFares(card, siteKey),
	}

	if flight.FlightNumber == "" {
		return nil
	}
	return flight
}

// extractFares reads up to the first three fare columns. Arik Air's theme
// renders different fare markup than the other Crane deployments.
func extractFares(card *goquery.Selection, siteKey string) []models.Fare {
	fareSelector := ".branded-fare-item"
	priceSelectors := []string{".currency", ".currency-best-offer"}
	if siteKey == "arikair" {
		fareSelector = ".fare-item"
		priceSelectors = []string{".price-best-offer", ".price-block"}
	}

	fares := make([]models.Fare, 0, len(fareClasses))
	card.Find(fareSelector).EachWithBreak(func(i int, item *goquery.Selection) bool {
		if i >= len(fareClasses) {
			return false
		}
		// Sold-out columns render a no-seat marker instead of a price
		if item.Find(".no-seat-text").Length() > 0 {
			return true
		}

		var price string
		for _, sel := range priceSelectors {
			if price = selectText(item, sel); price != "" {
				break
			}
		}
		if price == "" {
			return true
		}

		fares = append(fares, models.Fare{Type: fareClasses[i], Price: price})
		return true
	})
	return fares
}

func selectText(sel *goquery.Selection, selector string) string {
	return utils.CleanText(sel.Find(selector).First().Text())
}
