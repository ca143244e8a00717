package checkout_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/pkordes/detour/internal/checkout"
	"github.com/pkordes/detour/internal/domain"
)

var fixedNow = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

func builder() *checkout.Builder {
	return checkout.NewBuilder(0).WithClock(func() time.Time { return fixedNow })
}

func parisRequest() domain.TravelRequest {
	return domain.TravelRequest{Origin: "파리", Destination: "뮌헨", DepartureDate: "2026-03-14", DepartureTime: "08:30"}
}

func TestBuild_DeepLinkWins(t *testing.T) {
	o := domain.TransitOption{Provider: "SNCF", TransportType: domain.Train, Details: "https://www.omio.com/deep/123"}

	got := builder().Build(o, parisRequest())

	assert.Equal(t, "https://www.omio.com/deep/123", got.URL)
}

func TestBuild_ExpiresAfterThirtyMinutes(t *testing.T) {
	got := builder().Build(domain.TransitOption{Provider: "KTX"}, parisRequest())

	assert.Equal(t, fixedNow.Add(30*time.Minute), got.ExpiresAt)
}

func TestBuild_CustomExpiry(t *testing.T) {
	b := checkout.NewBuilder(5 * time.Minute).WithClock(func() time.Time { return fixedNow })

	got := b.Build(domain.TransitOption{Provider: "KTX"}, parisRequest())

	assert.Equal(t, fixedNow.Add(5*time.Minute), got.ExpiresAt)
}

func TestBuild_ProviderURLs(t *testing.T) {
	tests := []struct {
		name    string
		option  domain.TransitOption
		req     domain.TravelRequest
		wantURL string
	}{
		{
			name:    "sncf search",
			option:  domain.TransitOption{Provider: "TGV inOui", TransportType: domain.Train},
			req:     parisRequest(),
			wantURL: "https://www.sncf-connect.com/app/en-en/home/search/od?origin=Paris&destination=Munich&outwardDate=2026-03-14T08%3A30:00",
		},
		{
			name:    "db fragment uses DD.MM.YYYY",
			option:  domain.TransitOption{Provider: "DB Fernverkehr AG", TransportType: domain.Train},
			req:     parisRequest(),
			wantURL: "https://int.bahn.de/en/buchung/fahrplan/suche#sts=true&so=Paris&zo=Munich&kl=2&r=14.03.2026",
		},
		{
			name:    "flixbus shop",
			option:  domain.TransitOption{Provider: "FlixBus", TransportType: domain.Bus},
			req:     parisRequest(),
			wantURL: "https://shop.flixbus.com/search?departureCity=Paris&arrivalCity=Munich&rideDate=2026-03-14&adult=1&_locale=en_US",
		},
		{
			name:    "static table",
			option:  domain.TransitOption{Provider: "Eurostar", TransportType: domain.Train},
			req:     parisRequest(),
			wantURL: "https://www.eurostar.com/en-gb/booking",
		},
		{
			name:    "mode default",
			option:  domain.TransitOption{Provider: "Jeju Air", TransportType: domain.Flight},
			req:     parisRequest(),
			wantURL: "https://www.omio.com/flights",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := builder().Build(tc.option, tc.req)
			assert.Equal(t, tc.wantURL, got.URL)
		})
	}
}

func TestBuild_SNCFDefaultsMorningTime(t *testing.T) {
	req := parisRequest()
	req.DepartureTime = ""

	got := builder().Build(domain.TransitOption{Provider: "OUIGO"}, req)

	assert.True(t, strings.HasSuffix(got.URL, "outwardDate=2026-03-14T09%3A00:00"), got.URL)
}
