package mock

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/pkordes/detour/internal/domain"
)

//go:embed routes.yaml
var defaultRoutes []byte

// template is one operator on one route.
type template struct {
	Provider  string  `yaml:"provider"`
	Duration  int     `yaml:"duration"`
	Price     float64 `yaml:"price"`
	Transfers int     `yaml:"transfers"`
	// Depart pins the departure to HH:MM instead of spreading it.
	Depart string `yaml:"depart"`
}

type route struct {
	From    string     `yaml:"from"`
	To      string     `yaml:"to"`
	Options []template `yaml:"options"`
}

type modeCatalogue struct {
	MinDuration int        `yaml:"min_duration"`
	MinPrice    float64    `yaml:"min_price"`
	Fallback    []template `yaml:"fallback"`
	Routes      []route    `yaml:"routes"`

	byPair map[[2]string][]template
}

// Catalogue holds the route templates for every transport type.
type Catalogue struct {
	Aliases map[string]string                       `yaml:"aliases"`
	Modes   map[domain.TransportType]*modeCatalogue `yaml:"modes"`
}

// DefaultCatalogue returns the embedded Korean route catalogue.
func DefaultCatalogue() (*Catalogue, error) {
	return ParseCatalogue(defaultRoutes)
}

// ParseCatalogue decodes a YAML route catalogue.
func ParseCatalogue(data []byte) (*Catalogue, error) {
	var c Catalogue
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("mock.ParseCatalogue: %w", err)
	}
	for mode, mc := range c.Modes {
		if _, err := domain.ParseTransportType(string(mode)); err != nil {
			return nil, fmt.Errorf("mock.ParseCatalogue: %w", err)
		}
		if len(mc.Fallback) == 0 {
			return nil, fmt.Errorf("mock.ParseCatalogue: %s: %w: fallback is required", mode, domain.ErrValidation)
		}
		mc.byPair = make(map[[2]string][]template, 2*len(mc.Routes))
		for _, r := range mc.Routes {
			mc.byPair[[2]string{r.From, r.To}] = r.Options
			if _, ok := mc.byPair[[2]string{r.To, r.From}]; !ok {
				mc.byPair[[2]string{r.To, r.From}] = r.Options
			}
		}
	}
	return &c, nil
}

func (c *Catalogue) city(name string) string {
	if canonical, ok := c.Aliases[name]; ok {
		return canonical
	}
	return name
}

// templates returns the templates for a route and whether the route is known.
func (c *Catalogue) templates(mode domain.TransportType, origin, destination string) ([]template, bool) {
	mc, ok := c.Modes[mode]
	if !ok {
		return nil, false
	}
	if t, ok := mc.byPair[[2]string{c.city(origin), c.city(destination)}]; ok {
		return t, true
	}
	return mc.Fallback, false
}
