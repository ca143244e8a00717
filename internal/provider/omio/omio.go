// Package omio searches omio.com for train and bus options by driving a
// headless browser through its search form and reading the result cards.
package omio

import (
	"context"
	"fmt"
	"time"

	"github.com/pkordes/detour/internal/domain"
	"github.com/pkordes/detour/internal/provider"
)

// maxCards bounds how many result cards are read per search.
const maxCards = 15

// Query is one route search on the Omio form.
type Query struct {
	Origin      string
	Destination string
	Date        time.Time
}

// Browser runs a search and returns the visible text of each result card,
// in page order. *ChromeBrowser satisfies it.
type Browser interface {
	ResultCards(ctx context.Context, q Query, limit int) ([]string, error)
}

// Provider is a provider.Provider backed by Omio search results.
type Provider struct {
	browser Browser
}

var _ provider.Provider = (*Provider)(nil)

func New(b Browser) *Provider {
	return &Provider{browser: b}
}

func (p *Provider) Name() string {
	return "omio"
}

// Search returns one option per result card that carries two clock times and
// a euro price. Cards missing either are skipped.
func (p *Provider) Search(ctx context.Context, req provider.SearchRequest) ([]domain.TransitOption, error) {
	date, err := time.Parse(time.DateOnly, req.Date)
	if err != nil {
		return nil, fmt.Errorf("omio.Provider.Search: %w: departure date %q", domain.ErrValidation, req.Date)
	}

	cards, err := p.browser.ResultCards(ctx, Query{
		Origin:      provider.NormalizeCity(req.Origin),
		Destination: provider.NormalizeCity(req.Destination),
		Date:        date,
	}, maxCards)
	if err != nil {
		return nil, fmt.Errorf("omio.Provider.Search: %w", err)
	}

	options := make([]domain.TransitOption, 0, len(cards))
	for _, text := range cards[:min(len(cards), maxCards)] {
		if o, ok := parseCard(text, date); ok {
			options = append(options, o)
		}
	}
	return options, nil
}
