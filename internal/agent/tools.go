package agent

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/pkordes/detour/internal/domain"
	"github.com/pkordes/detour/internal/provider"
)

type tool struct {
	name        string
	description string
	mode        domain.TransportType
}

var tools = []tool{
	{"search_trains", "Search train options between two cities on a date.", domain.Train},
	{"search_buses", "Search long-distance bus options between two cities on a date.", domain.Bus},
	{"search_flights", "Search flight options between two cities on a date.", domain.Flight},
}

func toolByName(name string) (tool, bool) {
	for _, t := range tools {
		if t.name == name {
			return t, true
		}
	}
	return tool{}, false
}

func toolSpecs() []ToolSpec {
	specs := make([]ToolSpec, len(tools))
	for i, t := range tools {
		specs[i] = ToolSpec{
			Name:        t.name,
			Description: t.description,
			Properties: map[string]any{
				"origin":      map[string]any{"type": "string", "description": "Departure city"},
				"destination": map[string]any{"type": "string", "description": "Arrival city"},
				"date":        map[string]any{"type": "string", "description": "Departure date, YYYY-MM-DD"},
				"time":        map[string]any{"type": "string", "description": "Preferred departure time, HH:MM"},
			},
			Required: []string{"origin", "destination", "date"},
		}
	}
	return specs
}

type searchInput struct {
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
	Date        string `json:"date"`
	Time        string `json:"time"`
}

// request turns the model's tool input into a search. Passenger count and
// preferences always come from the original request.
func (t tool) request(base provider.SearchRequest, raw json.RawMessage) (provider.SearchRequest, error) {
	var in searchInput
	if err := json.Unmarshal(raw, &in); err != nil {
		return provider.SearchRequest{}, fmt.Errorf("invalid %s input: %w", t.name, err)
	}
	in.Origin = strings.TrimSpace(in.Origin)
	in.Destination = strings.TrimSpace(in.Destination)
	if in.Origin == "" || in.Destination == "" {
		return provider.SearchRequest{}, fmt.Errorf("invalid %s input: origin and destination are required", t.name)
	}
	if _, err := time.Parse(time.DateOnly, in.Date); err != nil {
		return provider.SearchRequest{}, fmt.Errorf("invalid %s input: date must be YYYY-MM-DD", t.name)
	}
	if in.Time != "" {
		if _, err := time.Parse("15:04", in.Time); err != nil {
			return provider.SearchRequest{}, fmt.Errorf("invalid %s input: time must be HH:MM", t.name)
		}
	}

	req := base
	req.Origin = in.Origin
	req.Destination = in.Destination
	req.Date = in.Date
	req.Time = in.Time
	return req, nil
}
