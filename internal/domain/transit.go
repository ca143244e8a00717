// Package domain contains the core data types for the detour service.
// This package has no internal dependencies and is imported by every other
// internal package (ranking, provider, repo, service, handler).
package domain

import (
	"fmt"
	"strings"
	"time"
)

// TransportType is the vehicle class of a transit option.
type TransportType string

const (
	Train  TransportType = "train"
	Flight TransportType = "flight"
	Bus    TransportType = "bus"
)

// ParseTransportType maps a case-insensitive name onto a TransportType.
func ParseTransportType(s string) (TransportType, error) {
	switch t := TransportType(strings.ToLower(strings.TrimSpace(s))); t {
	case Train, Flight, Bus:
		return t, nil
	default:
		return "", fmt.Errorf("%w: unknown transport type %q", ErrValidation, s)
	}
}

// TransitOption is one candidate journey produced by a provider.
// DepartureTime and ArrivalTime are naive wall-clock values: the location is
// always UTC and the clock reading is the local time at the station.
// DurationMinutes is provider-supplied and not derived from the two times.
type TransitOption struct {
	TransportType   TransportType `json:"transport_type"`
	Provider        string        `json:"provider"`
	DepartureTime   time.Time     `json:"departure_time"`
	ArrivalTime     time.Time     `json:"arrival_time"`
	DurationMinutes int           `json:"duration_minutes"`
	Price           float64       `json:"price"`
	Currency        string        `json:"currency"`
	Transfers       int           `json:"transfers"`
	Details         string        `json:"details"`
}

// ScoredOption pairs an option with its final score and the ordered list of
// scoring rules that fired, joined by ExplainSeparator.
type ScoredOption struct {
	Option       TransitOption `json:"option"`
	Score        float64       `json:"score"`
	ScoreExplain string        `json:"score_explain"`
}

// ExplainSeparator joins the fragments of ScoredOption.ScoreExplain.
const ExplainSeparator = " | "

// WallClock drops the location of t and keeps its clock reading, which is how
// every provider timestamp is stored.
func WallClock(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC)
}
