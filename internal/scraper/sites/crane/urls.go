package crane

import (
	"fmt"
	"strings"

	"aerofinder-utils/pkg/models"
	"aerofinder-utils/pkg/utils"
)

// BuildAvailabilityURL renders the direct availability URL for a Crane site.
// Three query grammars are live across the Crane deployments: Arik Air's
// indexed passengerQuantities format, Aero Contractors' currency-first
// format, and the plain format the rest use. Parameters are joined by hand
// because the deployments are sensitive to parameter order.
func BuildAvailabilityURL(site models.SiteConfig, req *models.SearchRequest) (string, error) {
	depPort := utils.ExtractAirportCode(req.DepartureCity)
	arrPort := utils.ExtractAirportCode(req.ArrivalCity)
	if depPort == "" || arrPort == "" {
		return "", utils.NewValidationError(fmt.Sprintf("no airport code in %q / %q", req.DepartureCity, req.ArrivalCity))
	}

	depDate, err := utils.ConvertDate(req.DepartureDate, utils.DateLayoutCrane)
	if err != nil {
		return "", err
	}

	retDate := ""
	if req.IsRoundTrip() {
		if retDate, err = utils.ConvertDate(req.ReturnDate, utils.DateLayoutCrane); err != nil {
			return "", err
		}
	}

	switch site.Key {
	case "arikair":
		return buildArikAirURL(site.URL, depPort, arrPort, depDate, retDate, req), nil
	case "flyaero":
		return buildAeroContractorsURL(site.URL, depPort, arrPort, depDate, retDate, req), nil
	default:
		return buildSimpleURL(site.URL, depPort, arrPort, depDate, retDate, req), nil
	}
}

// buildSimpleURL renders the plain grammar used by Air Peace, Ibom Air,
// NG Eagle and UMZA. returnDate appears only on round trips.
func buildSimpleURL(baseURL, depPort, arrPort, depDate, retDate string, req *models.SearchRequest) string {
	params := []string{
		"tripType=" + tripTypeParam(req),
		"depPort=" + depPort,
		"arrPort=" + arrPort,
		"departureDate=" + depDate,
	}
	if req.IsRoundTrip() {
		params = append(params, "returnDate="+retDate)
	}
	params = append(params,
		fmt.Sprintf("adult=%d", req.Adults),
		fmt.Sprintf("child=%d", req.Children),
		fmt.Sprintf("infant=%d", req.Infants),
		"lang=en",
	)
	return baseURL + "?" + strings.Join(params, "&")
}

// buildAeroContractorsURL renders the flyaero grammar: currency leads and
// returnDate is always present, repeating the departure date for one-way
// trips.
func buildAeroContractorsURL(baseURL, depPort, arrPort, depDate, retDate string, req *models.SearchRequest) string {
	if !req.IsRoundTrip() {
		retDate = depDate
	}
	params := []string{
		"currency=NGN",
		"lang=en",
		"departureDate=" + depDate,
		"returnDate=" + retDate,
		"depPort=" + depPort,
		"arrPort=" + arrPort,
		fmt.Sprintf("adult=%d", req.Adults),
		fmt.Sprintf("child=%d", req.Children),
		fmt.Sprintf("infant=%d", req.Infants),
		"tripType=" + tripTypeParam(req),
	}
	return baseURL + "?" + strings.Join(params, "&")
}

// buildArikAirURL renders the passengerQuantities grammar. Every passenger
// type appears even at quantity zero, and the deployment expects its fixed
// tail of empty parameters.
func buildArikAirURL(baseURL, depPort, arrPort, depDate, retDate string, req *models.SearchRequest) string {
	params := []string{
		"tripType=" + tripTypeParam(req),
		"depPort=" + depPort,
		"arrPort=" + arrPort,
		"departureDate=" + depDate,
		"returnDate=" + retDate,
	}

	quantities := []struct {
		passengerType string
		count         int
	}{
		{"ADULT", req.Adults},
		{"CHILD", req.Children},
		{"INFANT", req.Infants},
	}
	for i, q := range quantities {
		params = append(params,
			fmt.Sprintf("passengerQuantities[%d][passengerType]=%s", i, q.passengerType),
			fmt.Sprintf("passengerQuantities[%d][passengerSubType]=", i),
			fmt.Sprintf("passengerQuantities[%d][quantity]=%d", i, q.count),
		)
	}

	params = append(params,
		"currency=", "cabinClass=", "lang=EN", "nationality=", "promoCode=",
		"accountCode=", "affiliateCode=", "clickId=", "withCalendar=",
		"isMobileCalendar=", "market=", "isFFPoint=", "_ga=",
	)
	return baseURL + "?" + strings.Join(params, "&")
}

func tripTypeParam(req *models.SearchRequest) string {
	if req.IsRoundTrip() {
		return "ROUND_TRIP"
	}
	return "ONE_WAY"
}
