// Package checkout builds booking links for a chosen transit option.
package checkout

import (
	"net/url"
	"strings"
	"time"

	"github.com/pkordes/detour/internal/domain"
	"github.com/pkordes/detour/internal/provider"
)

// DefaultExpiry is how long a checkout link is shown as valid.
const DefaultExpiry = 30 * time.Minute

const defaultTime = "09:00"

var bookingURLs = map[string]string{
	"Deutsche Bahn":   "https://www.bahn.de/buchung/start",
	"DB":              "https://www.bahn.de/buchung/start",
	"ICE":             "https://www.bahn.de/buchung/start",
	"SNCF":            "https://www.sncf-connect.com/en-en",
	"TGV":             "https://www.sncf-connect.com/en-en",
	"OUIGO":           "https://www.ouigo.com/en/search",
	"Trenitalia":      "https://www.trenitalia.com/en/buying-your-ticket.html",
	"Frecciarossa":    "https://www.trenitalia.com/en/buying-your-ticket.html",
	"Italo":           "https://www.italotreno.it/en/booking",
	"Renfe":           "https://www.renfe.com/en/en/booking",
	"Eurostar":        "https://www.eurostar.com/en-gb/booking",
	"Thalys":          "https://www.thalys.com/en/booking",
	"SBB":             "https://www.sbb.ch/en/buying/pages/fahrplan/fahrplan.xhtml",
	"OBB":             "https://shop.oebb.at/en/ticket",
	"RailJet":         "https://shop.oebb.at/en/ticket",
	"NS":              "https://www.ns.nl/en/journeyplanner",
	"PKP":             "https://www.intercity.pl/en/booking",
	"Czech Railways":  "https://www.cd.cz/en/booking",
	"RegioJet":        "https://www.regiojet.com/search",
	"FlixBus":         "https://www.flixbus.com/bus-routes",
	"FlixTrain":       "https://www.flixtrain.com/train-routes",
	"BlaBlaBus":       "https://www.blablacar.com/bus",
	"Omio":            "https://www.omio.com/search",
	"KTX":             "https://www.letskorail.com",
	"Korail":          "https://www.letskorail.com",
	"SRT":             "https://etk.srail.kr",
	"Korean Air":      "https://www.koreanair.com/booking",
	"Asiana Airlines": "https://flyasiana.com/booking",
}

var modeDefaults = map[domain.TransportType]string{
	domain.Train:  "https://www.omio.com/trains",
	domain.Bus:    "https://www.omio.com/buses",
	domain.Flight: "https://www.omio.com/flights",
}

// Link is a booking URL and the moment it stops being shown as valid.
type Link struct {
	URL       string
	ExpiresAt time.Time
}

// Builder builds checkout links.
type Builder struct {
	expiry time.Duration
	now    func() time.Time
}

// NewBuilder returns a Builder whose links expire after expiry.
// A non-positive expiry uses DefaultExpiry.
func NewBuilder(expiry time.Duration) *Builder {
	if expiry <= 0 {
		expiry = DefaultExpiry
	}
	return &Builder{expiry: expiry, now: time.Now}
}

// WithClock returns a copy of b that reads the time from now.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	cp := *b
	cp.now = now
	return &cp
}

// Build returns the booking link for o on the route in req.
// A deep link carried in o.Details wins over anything constructed.
func (b *Builder) Build(o domain.TransitOption, req domain.TravelRequest) Link {
	link := Link{ExpiresAt: b.now().UTC().Add(b.expiry)}
	if strings.HasPrefix(o.Details, "http") {
		link.URL = o.Details
		return link
	}
	link.URL = searchURL(o, req)
	return link
}

func searchURL(o domain.TransitOption, req domain.TravelRequest) string {
	key := strings.ToLower(o.Provider)
	origin := provider.NormalizeCity(req.Origin)
	destination := provider.NormalizeCity(req.Destination)
	depTime := req.DepartureTime
	if depTime == "" {
		depTime = defaultTime
	}

	switch {
	case strings.Contains(key, "sncf"), strings.Contains(key, "tgv"), strings.Contains(key, "ouigo"):
		return "https://www.sncf-connect.com/app/en-en/home/search/od" +
			"?origin=" + url.QueryEscape(origin) +
			"&destination=" + url.QueryEscape(destination) +
			"&outwardDate=" + url.QueryEscape(req.DepartureDate) + "T" + url.QueryEscape(depTime) + ":00"

	case strings.Contains(key, "db"), strings.Contains(key, "deutsche bahn"):
		return "https://int.bahn.de/en/buchung/fahrplan/suche" +
			"#sts=true&so=" + url.QueryEscape(origin) +
			"&zo=" + url.QueryEscape(destination) +
			"&kl=2&r=" + url.QueryEscape(dbDate(req.DepartureDate))

	case strings.Contains(key, "flixbus"), strings.Contains(key, "flixtrain"):
		return "https://shop.flixbus.com/search" +
			"?departureCity=" + url.QueryEscape(origin) +
			"&arrivalCity=" + url.QueryEscape(destination) +
			"&rideDate=" + url.QueryEscape(req.DepartureDate) +
			"&adult=1&_locale=en_US"
	}

	if u, ok := bookingURLs[o.Provider]; ok {
		return u
	}
	if u, ok := modeDefaults[o.TransportType]; ok {
		return u
	}
	return "https://www.omio.com/search"
}

// dbDate converts YYYY-MM-DD into DD.MM.YYYY.
func dbDate(date string) string {
	parts := strings.Split(date, "-")
	if len(parts) != 3 {
		return date
	}
	return parts[2] + "." + parts[1] + "." + parts[0]
}
