package omio_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/detour/internal/domain"
	"github.com/pkordes/detour/internal/provider"
	"github.com/pkordes/detour/internal/provider/omio"
)

// mockBrowser is a hand-written test double for omio.Browser.
type mockBrowser struct {
	cards []string
	err   error

	gotQuery omio.Query
	gotLimit int
}

func (m *mockBrowser) ResultCards(_ context.Context, q omio.Query, limit int) ([]string, error) {
	m.gotQuery, m.gotLimit = q, limit
	return m.cards, m.err
}

var _ omio.Browser = (*omio.ChromeBrowser)(nil)

func search(t *testing.T, cards ...string) []domain.TransitOption {
	t.Helper()
	got, err := omio.New(&mockBrowser{cards: cards}).Search(context.Background(),
		provider.SearchRequest{Origin: "Berlin", Destination: "Munich", Date: "2026-03-15"})
	require.NoError(t, err)
	return got
}

func TestProvider_Search_ParsesCard(t *testing.T) {
	got := search(t, "14:30 → 18:45\n4h 15min · 1 change\nDeutsche Bahn ICE\n€29.90")

	require.Len(t, got, 1)
	o := got[0]
	assert.Equal(t, domain.Train, o.TransportType)
	assert.Equal(t, "Deutsche Bahn", o.Provider)
	assert.Equal(t, time.Date(2026, 3, 15, 14, 30, 0, 0, time.UTC), o.DepartureTime)
	assert.Equal(t, time.Date(2026, 3, 15, 18, 45, 0, 0, time.UTC), o.ArrivalTime)
	assert.Equal(t, 255, o.DurationMinutes)
	assert.Equal(t, 29.9, o.Price)
	assert.Equal(t, "EUR", o.Currency)
	assert.Equal(t, 1, o.Transfers)
	assert.Equal(t, "Deutsche Bahn 14:30-18:45", o.Details)
}

func TestProvider_Search_CardVariants(t *testing.T) {
	tests := []struct {
		name      string
		card      string
		mode      domain.TransportType
		carrier   string
		minutes   int
		price     float64
		transfers int
	}{
		{"overnight bus", "22:15\n07:30\nFlixBus\nDirect\n€ 39,50", domain.Bus, "FlixBus", 555, 39.5, 0},
		{"hours only", "08:00 - 12:00 4h SNCF TGV €59 2 changes", domain.Train, "SNCF", 240, 59, 2},
		{"minutes only", "09:05 10:40 95min RegioJet €12", domain.Train, "RegioJet", 95, 12, 0},
		{"unknown carrier", "06:10 09:00 €45", domain.Train, "Omio", 170, 45, 0},
		{"word match only", "10:00 13:00 Business class on FlixTrain €30", domain.Train, "FlixTrain", 180, 30, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := search(t, tt.card)

			require.Len(t, got, 1)
			assert.Equal(t, tt.mode, got[0].TransportType)
			assert.Equal(t, tt.carrier, got[0].Provider)
			assert.Equal(t, tt.minutes, got[0].DurationMinutes)
			assert.Equal(t, tt.price, got[0].Price)
			assert.Equal(t, tt.transfers, got[0].Transfers)
		})
	}
}

func TestProvider_Search_SkipsIncompleteCards(t *testing.T) {
	got := search(t,
		"",
		"14:30 only one time €20",
		"14:30 18:45 no price",
		"07:00 09:00 Eurostar €80",
	)

	require.Len(t, got, 1)
	assert.Equal(t, "Eurostar", got[0].Provider)
}

func TestProvider_Search_Query(t *testing.T) {
	b := &mockBrowser{}
	p := omio.New(b)

	got, err := p.Search(context.Background(), provider.SearchRequest{Origin: "파리", Destination: "Lyon", Date: "2026-03-15"})

	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, "Paris", b.gotQuery.Origin)
	assert.Equal(t, "Lyon", b.gotQuery.Destination)
	assert.Equal(t, time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC), b.gotQuery.Date)
	assert.Equal(t, 15, b.gotLimit)
	assert.Equal(t, "omio", p.Name())
}

func TestProvider_Search_Errors(t *testing.T) {
	_, err := omio.New(&mockBrowser{}).Search(context.Background(), provider.SearchRequest{Date: "15/03/2026"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	crashed := errors.New("chrome exited")
	_, err = omio.New(&mockBrowser{err: crashed}).Search(context.Background(), provider.SearchRequest{Date: "2026-03-15"})
	assert.ErrorIs(t, err, crashed)
}
