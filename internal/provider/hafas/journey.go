package hafas

import (
	"strings"
	"time"

	"github.com/pkordes/detour/internal/domain"
)

type location struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type journeysResponse struct {
	Journeys []journey `json:"journeys"`
}

type journey struct {
	Legs  []leg  `json:"legs"`
	Price *price `json:"price"`
}

type price struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

type leg struct {
	Departure        string `json:"departure"`
	PlannedDeparture string `json:"plannedDeparture"`
	Arrival          string `json:"arrival"`
	PlannedArrival   string `json:"plannedArrival"`
	Line             *line  `json:"line"`
}

type line struct {
	Name        string    `json:"name"`
	Mode        string    `json:"mode"`
	Product     string    `json:"product"`
	ProductName string    `json:"productName"`
	Operator    *operator `json:"operator"`
}

type operator struct {
	Name string `json:"name"`
}

// parseJourney converts a journey into an option. Journeys without a transit
// leg, without times, or with a non-positive duration are dropped.
func parseJourney(j journey) (domain.TransitOption, bool) {
	if len(j.Legs) == 0 {
		return domain.TransitOption{}, false
	}

	var transit []leg
	for _, l := range j.Legs {
		if l.Line != nil {
			transit = append(transit, l)
		}
	}
	if len(transit) == 0 {
		return domain.TransitOption{}, false
	}

	first, last := j.Legs[0], j.Legs[len(j.Legs)-1]
	dep, ok := parseTime(first.Departure, first.PlannedDeparture)
	if !ok {
		return domain.TransitOption{}, false
	}
	arr, ok := parseTime(last.Arrival, last.PlannedArrival)
	if !ok {
		return domain.TransitOption{}, false
	}
	// Legs may cross time zones; the duration comes from the offset-aware
	// instants, the stored times from the station clocks.
	minutes := int(arr.Sub(dep).Minutes())
	if minutes <= 0 {
		return domain.TransitOption{}, false
	}

	amount, currency := 0.0, defaultCurrency
	if j.Price != nil {
		amount = j.Price.Amount
		if j.Price.Currency != "" {
			currency = j.Price.Currency
		}
	}

	ln := transit[0].Line
	mode := domain.Train
	if ln.Mode == "bus" || ln.Product == "bus" || ln.Product == "regionalBus" {
		mode = domain.Bus
	}

	operatorName := ln.ProductName
	if ln.Operator != nil && ln.Operator.Name != "" {
		operatorName = ln.Operator.Name
	}
	if operatorName == "" {
		operatorName = "DB"
	}

	names := make([]string, 0, len(transit))
	for _, l := range transit {
		if l.Line.Name != "" {
			names = append(names, l.Line.Name)
		}
	}

	return domain.TransitOption{
		TransportType:   mode,
		Provider:        operatorName,
		DepartureTime:   domain.WallClock(dep),
		ArrivalTime:     domain.WallClock(arr),
		DurationMinutes: minutes,
		Price:           amount,
		Currency:        currency,
		Transfers:       len(transit) - 1,
		Details:         strings.Join(names, " → "),
	}, true
}

// parseTime reads the realtime value, falling back to the planned one. Values
// without an offset are read as UTC.
func parseTime(actual, planned string) (time.Time, bool) {
	s := actual
	if s == "" {
		s = planned
	}
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t, err = time.Parse("2006-01-02T15:04:05", s)
		if err != nil {
			return time.Time{}, false
		}
	}
	return t, true
}
