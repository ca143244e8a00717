package mock_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/detour/internal/domain"
	"github.com/pkordes/detour/internal/provider"
	"github.com/pkordes/detour/internal/provider/mock"
)

func catalogue(t *testing.T) *mock.Catalogue {
	t.Helper()
	c, err := mock.DefaultCatalogue()
	require.NoError(t, err)
	return c
}

func search(t *testing.T, g *mock.Generator, req provider.SearchRequest) []domain.TransitOption {
	t.Helper()
	got, err := g.Search(context.Background(), req)
	require.NoError(t, err)
	return got
}

func TestGenerator_KnownFlightRoute(t *testing.T) {
	g := mock.New(domain.Flight, catalogue(t), 1)

	got := search(t, g, provider.SearchRequest{Origin: "서울", Destination: "부산", Date: "2026-03-14"})

	require.Len(t, got, 4)
	for _, o := range got {
		assert.Equal(t, domain.Flight, o.TransportType)
		assert.Equal(t, "KRW", o.Currency)
		assert.GreaterOrEqual(t, o.DurationMinutes, 40)
		assert.GreaterOrEqual(t, o.Price, 30000.0)
		assert.Equal(t, o.DepartureTime.Add(timeMinutes(o.DurationMinutes)), o.ArrivalTime)
		assert.Equal(t, "2026-03-14", o.DepartureTime.Format("2006-01-02"))
		assert.Contains(t, o.Details, "서울→부산")
	}
	assert.Equal(t, "Korean Air", got[0].Provider)
	assert.Equal(t, "mock-flight", g.Name())
}

func TestGenerator_ReverseRouteAndAliases(t *testing.T) {
	g := mock.New(domain.Flight, catalogue(t), 1)

	got := search(t, g, provider.SearchRequest{Origin: "Busan", Destination: "Seoul", Date: "2026-03-14"})

	assert.Len(t, got, 4)
}

func TestGenerator_UnknownRouteUsesFallback(t *testing.T) {
	g := mock.New(domain.Flight, catalogue(t), 1)

	got := search(t, g, provider.SearchRequest{Origin: "Paris", Destination: "Lyon", Date: "2026-03-14"})

	require.Len(t, got, 1)
	assert.Equal(t, "Korean Air", got[0].Provider)
}

func TestGenerator_DeparturesFollowPreferredTime(t *testing.T) {
	g := mock.New(domain.Flight, catalogue(t), 7)

	got := search(t, g, provider.SearchRequest{Origin: "서울", Destination: "부산", Date: "2026-03-14", Time: "14:00"})

	// 12, 15, 18, 21
	hours := make([]int, len(got))
	for i, o := range got {
		hours[i] = o.DepartureTime.Hour()
	}
	assert.Equal(t, []int{12, 15, 18, 21}, hours)
}

func TestGenerator_LateDeparturesPulledBack(t *testing.T) {
	g := mock.New(domain.Flight, catalogue(t), 7)

	got := search(t, g, provider.SearchRequest{Origin: "서울", Destination: "부산", Date: "2026-03-14", Time: "20:00"})

	// start 18: 18, then 21, then 24->20, 27->21
	hours := make([]int, len(got))
	for i, o := range got {
		hours[i] = o.DepartureTime.Hour()
	}
	assert.Equal(t, []int{18, 21, 20, 21}, hours)
}

func TestGenerator_PinnedDeparture(t *testing.T) {
	g := mock.New(domain.Train, catalogue(t), 3)

	got := search(t, g, provider.SearchRequest{Origin: "서울", Destination: "부산", Date: "2026-03-14"})

	require.Len(t, got, 3)
	night := got[2]
	assert.Equal(t, "Mugunghwa", night.Provider)
	assert.Equal(t, 22, night.DepartureTime.Hour())
	assert.Equal(t, 30, night.DepartureTime.Minute())
	assert.Equal(t, 1, night.Transfers)
}

func TestGenerator_SameSeedSameOutput(t *testing.T) {
	req := provider.SearchRequest{Origin: "서울", Destination: "제주", Date: "2026-03-14"}

	a := search(t, mock.New(domain.Flight, catalogue(t), 42), req)
	b := search(t, mock.New(domain.Flight, catalogue(t), 42), req)

	assert.Equal(t, a, b)
}

func TestGenerator_BadDate(t *testing.T) {
	g := mock.New(domain.Bus, catalogue(t), 1)

	_, err := g.Search(context.Background(), provider.SearchRequest{Origin: "서울", Destination: "부산", Date: "14/03/2026"})

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestGenerator_CancelledContext(t *testing.T) {
	g := mock.New(domain.Bus, catalogue(t), 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := g.Search(ctx, provider.SearchRequest{Origin: "서울", Destination: "부산", Date: "2026-03-14"})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseCatalogue_RequiresFallback(t *testing.T) {
	_, err := mock.ParseCatalogue([]byte("modes:\n  bus:\n    routes: []\n"))

	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestParseCatalogue_RejectsUnknownMode(t *testing.T) {
	_, err := mock.ParseCatalogue([]byte("modes:\n  ferry:\n    fallback: [{provider: x, duration: 1, price: 1}]\n"))

	assert.ErrorIs(t, err, domain.ErrValidation)
}

func timeMinutes(n int) time.Duration { return time.Duration(n) * time.Minute }
