package domain

import (
	"fmt"
	"strings"
)

// PrimaryGoal is the single optimisation criterion that drives the base score.
type PrimaryGoal string

const (
	Fastest        PrimaryGoal = "fastest"
	Cheapest       PrimaryGoal = "cheapest"
	LeastTransfers PrimaryGoal = "least_transfers"
	Comfort        PrimaryGoal = "comfort"
)

// ParsePrimaryGoal maps a case-insensitive name onto a PrimaryGoal.
func ParsePrimaryGoal(s string) (PrimaryGoal, error) {
	switch g := PrimaryGoal(strings.ToLower(strings.TrimSpace(s))); g {
	case Fastest, Cheapest, LeastTransfers, Comfort:
		return g, nil
	default:
		return "", fmt.Errorf("%w: unknown primary goal %q", ErrValidation, s)
	}
}

// Preferences are the user's ranking preferences.
// A nil or empty ModePreference means every transport type is acceptable.
// A nil MaxTransfers means there is no transfer cap.
type Preferences struct {
	PrimaryGoal      PrimaryGoal     `json:"primary_goal"`
	ModePreference   []TransportType `json:"mode_preference,omitempty"`
	MaxTransfers     *int            `json:"max_transfers,omitempty"`
	AvoidNight       bool            `json:"avoid_night"`
	AvoidLongLayover bool            `json:"avoid_long_layover"`
}

// DefaultPreferences returns the preferences used when a form leaves them out.
func DefaultPreferences() Preferences {
	return Preferences{PrimaryGoal: Fastest}
}

// AllowsMode reports whether t passes the mode preference.
func (p Preferences) AllowsMode(t TransportType) bool {
	if len(p.ModePreference) == 0 {
		return true
	}
	for _, m := range p.ModePreference {
		if m == t {
			return true
		}
	}
	return false
}
