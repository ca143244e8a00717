// Package hafas queries the DB transport.rest (HAFAS) API for European train
// and bus journeys.
package hafas

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pkordes/detour/internal/cache"
	"github.com/pkordes/detour/internal/domain"
	"github.com/pkordes/detour/internal/provider"
)

const (
	DefaultBaseURL  = "https://v6.db.transport.rest"
	maxResults      = 10
	defaultCurrency = "EUR"
	locationTTL     = 24 * time.Hour
)

// Client is a provider.Provider backed by a HAFAS REST endpoint.
type Client struct {
	baseURL   string
	http      *http.Client
	locations *cache.Cache[string]
}

var _ provider.Provider = (*Client)(nil)

// New returns a Client for baseURL. Station lookups are memoised in locations,
// which may be shared between clients.
func New(baseURL string, httpClient *http.Client, locations *cache.Cache[string]) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 20 * time.Second}
	}
	if locations == nil {
		locations = cache.New[string]()
	}
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		http:      httpClient,
		locations: locations,
	}
}

func (c *Client) Name() string {
	return "hafas"
}

// Search resolves both cities to station ids and returns the parsed journeys.
// A city that resolves to no station yields an empty result, not an error.
func (c *Client) Search(ctx context.Context, req provider.SearchRequest) ([]domain.TransitOption, error) {
	fromID, err := c.resolveLocation(ctx, provider.NormalizeCity(req.Origin))
	if err != nil {
		return nil, fmt.Errorf("hafas.Client.Search: origin: %w", err)
	}
	toID, err := c.resolveLocation(ctx, provider.NormalizeCity(req.Destination))
	if err != nil {
		return nil, fmt.Errorf("hafas.Client.Search: destination: %w", err)
	}
	if fromID == "" || toID == "" {
		return []domain.TransitOption{}, nil
	}

	depTime := req.Time
	if depTime == "" {
		depTime = "00:00"
	}
	q := url.Values{}
	q.Set("from", fromID)
	q.Set("to", toID)
	q.Set("departure", req.Date+"T"+depTime)
	q.Set("results", strconv.Itoa(maxResults))
	q.Set("tickets", "true")

	var body journeysResponse
	if err := c.get(ctx, "/journeys", q, &body); err != nil {
		return nil, fmt.Errorf("hafas.Client.Search: journeys: %w", err)
	}

	options := make([]domain.TransitOption, 0, len(body.Journeys))
	for _, j := range body.Journeys {
		if o, ok := parseJourney(j); ok {
			options = append(options, o)
		}
	}
	return options, nil
}

func (c *Client) resolveLocation(ctx context.Context, query string) (string, error) {
	if id, ok := c.locations.Get(query); ok {
		return id, nil
	}

	q := url.Values{}
	q.Set("query", query)
	q.Set("results", "1")
	q.Set("stops", "true")
	q.Set("addresses", "false")
	q.Set("poi", "false")

	var stations []location
	if err := c.get(ctx, "/locations", q, &stations); err != nil {
		return "", err
	}
	if len(stations) == 0 || stations[0].ID == "" {
		return "", nil
	}
	c.locations.Set(query, stations[0].ID, locationTTL)
	return stations[0].ID, nil
}

func (c *Client) get(ctx context.Context, path string, q url.Values, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v", provider.ErrTemporary, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return fmt.Errorf("%w: %s returned %d", provider.ErrTemporary, path, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("%s returned %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
