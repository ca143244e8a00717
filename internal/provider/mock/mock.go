// Package mock generates plausible transit options from a route catalogue.
// It stands in for live timetables during development and demos.
package mock

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pkordes/detour/internal/domain"
	"github.com/pkordes/detour/internal/provider"
)

const (
	defaultCenterHour = 11
	firstDeparture    = 7
	lastDeparture     = 21
	latestDeparture   = 22
	departureStep     = 3
	durationJitter    = 5
	priceJitter       = 3000
	currency          = "KRW"
)

var departureMinutes = []int{0, 10, 20, 30, 40, 50}

// Generator is a provider.Provider for one transport type.
type Generator struct {
	mode      domain.TransportType
	catalogue *Catalogue

	mu  sync.Mutex
	rnd *rand.Rand
}

var _ provider.Provider = (*Generator)(nil)

// New returns a Generator for mode. The seed makes output reproducible.
func New(mode domain.TransportType, catalogue *Catalogue, seed uint64) *Generator {
	return &Generator{
		mode:      mode,
		catalogue: catalogue,
		rnd:       rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

func (g *Generator) Name() string {
	return "mock-" + string(g.mode)
}

// Search returns one option per catalogue template for the route, or the
// mode's fallback templates when the route is unknown.
func (g *Generator) Search(ctx context.Context, req provider.SearchRequest) ([]domain.TransitOption, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	date, err := time.Parse(time.DateOnly, req.Date)
	if err != nil {
		return nil, fmt.Errorf("mock.Generator.Search: %w: departure date %q", domain.ErrValidation, req.Date)
	}

	templates, _ := g.catalogue.templates(g.mode, req.Origin, req.Destination)
	mc := g.catalogue.Modes[g.mode]
	if mc == nil {
		return []domain.TransitOption{}, nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	departures := g.departures(date, req.Time, len(templates))
	options := make([]domain.TransitOption, 0, len(templates))
	for i, tmpl := range templates {
		dep := departures[i]
		if pinned, ok := parseClock(tmpl.Depart); ok {
			dep = time.Date(date.Year(), date.Month(), date.Day(), pinned/60, pinned%60, 0, 0, time.UTC)
		}
		duration := max(mc.MinDuration, tmpl.Duration+g.rnd.IntN(2*durationJitter+1)-durationJitter)
		price := max(mc.MinPrice, tmpl.Price+float64(g.rnd.IntN(2*priceJitter+1)-priceJitter))

		options = append(options, domain.TransitOption{
			TransportType:   g.mode,
			Provider:        tmpl.Provider,
			DepartureTime:   dep,
			ArrivalTime:     dep.Add(time.Duration(duration) * time.Minute),
			DurationMinutes: duration,
			Price:           price,
			Currency:        currency,
			Transfers:       tmpl.Transfers,
			Details:         fmt.Sprintf("%s %s→%s", tmpl.Provider, req.Origin, req.Destination),
		})
	}
	return options, nil
}

// departures spreads count departures from two hours before the preferred
// hour in three-hour steps, pulling late ones back under the evening cutoff.
func (g *Generator) departures(date time.Time, preferred string, count int) []time.Time {
	center := defaultCenterHour
	if m, ok := parseClock(preferred); ok {
		center = m / 60
	} else if preferred != "" {
		center = 12
	}

	start := max(firstDeparture, center-2)
	times := make([]time.Time, count)
	for i := range count {
		hour := start + i*departureStep
		if hour > lastDeparture {
			hour = lastDeparture - (count - 1 - i)
		}
		minute := departureMinutes[g.rnd.IntN(len(departureMinutes))]
		times[i] = time.Date(date.Year(), date.Month(), date.Day(), min(hour, latestDeparture), minute, 0, 0, time.UTC)
	}
	return times
}

// parseClock parses HH:MM into minutes after midnight.
func parseClock(s string) (int, bool) {
	h, m, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return 0, false
	}
	hour, err := strconv.Atoi(h)
	if err != nil || hour < 0 || hour > 23 {
		return 0, false
	}
	minute, err := strconv.Atoi(m)
	if err != nil || minute < 0 || minute > 59 {
		return 0, false
	}
	return hour*60 + minute, true
}
