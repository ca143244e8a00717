// Package provider defines the source of candidate transit options and the
// decorators and fan-out used to query several sources for one request.
package provider

import (
	"context"
	"errors"
	"strings"

	"github.com/pkordes/detour/internal/domain"
)

// ErrTemporary marks a provider failure worth retrying (timeouts, 5xx, 429).
var ErrTemporary = errors.New("temporary provider error")

// SearchRequest is what a provider needs to look up options.
// Date is YYYY-MM-DD; Time is an optional HH:MM preferred departure.
// Preferences are informational: providers return every option and ranking
// applies them, but a planning agent can mention them to its model.
type SearchRequest struct {
	Origin      string
	Destination string
	Date        string
	Time        string
	Passengers  int
	Preferences domain.Preferences
}

// NewSearchRequest builds a SearchRequest from a travel request.
func NewSearchRequest(req domain.TravelRequest) SearchRequest {
	return SearchRequest{
		Origin:      strings.TrimSpace(req.Origin),
		Destination: strings.TrimSpace(req.Destination),
		Date:        req.DepartureDate,
		Time:        req.DepartureTime,
		Passengers:  max(req.PassengerCount, 1),
		Preferences: req.Preferences,
	}
}

func (r SearchRequest) key() string {
	return strings.Join([]string{r.Origin, r.Destination, r.Date, r.Time}, ":")
}

// Provider returns candidate options for a route.
// An empty result with a nil error means the provider knows no options.
type Provider interface {
	Name() string
	Search(ctx context.Context, req SearchRequest) ([]domain.TransitOption, error)
}
