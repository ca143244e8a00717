package provider

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/pkordes/detour/internal/domain"
)

// Observer is told about every provider call the Collector makes.
// metrics.Recorder satisfies it.
type Observer interface {
	ObserveProviderSearch(provider string, took time.Duration, options int, err error)
}

// Collector fans a search out to every provider at once and merges what comes
// back. A failing provider is logged and skipped; it never fails the batch.
type Collector struct {
	providers  []Provider
	timeout    time.Duration
	maxRetries int
	backoff    time.Duration
	observer   Observer
}

// CollectorConfig configures NewCollector. Zero values fall back to a 20s
// timeout, 2 retries and an 80ms initial backoff; a negative MaxRetries
// disables retrying.
type CollectorConfig struct {
	Timeout    time.Duration
	MaxRetries int
	Backoff    time.Duration
	Observer   Observer
}

func NewCollector(providers []Provider, cfg CollectorConfig) *Collector {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	} else if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 2
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = 80 * time.Millisecond
	}
	return &Collector{
		providers:  providers,
		timeout:    cfg.Timeout,
		maxRetries: cfg.MaxRetries,
		backoff:    cfg.Backoff,
		observer:   cfg.Observer,
	}
}

// Result is the merged outcome of one Collect call.
type Result struct {
	Options   []domain.TransitOption
	Succeeded []string
	Failed    []string
}

type providerResult struct {
	index   int
	options []domain.TransitOption
	err     error
}

// Collect queries every provider concurrently, each under its own timeout, and
// returns the options in provider registration order.
func (c *Collector) Collect(ctx context.Context, req SearchRequest) Result {
	resCh := make(chan providerResult, len(c.providers))
	for i, p := range c.providers {
		go func() {
			providerCtx, cancel := context.WithTimeout(ctx, c.timeout)
			defer cancel()
			start := time.Now()
			options, err := c.searchWithRetry(providerCtx, p, req)
			if c.observer != nil {
				c.observer.ObserveProviderSearch(p.Name(), time.Since(start), len(options), err)
			}
			resCh <- providerResult{index: i, options: options, err: err}
		}()
	}

	results := make([]providerResult, len(c.providers))
	for range c.providers {
		res := <-resCh
		results[res.index] = res
	}

	out := Result{Options: make([]domain.TransitOption, 0)}
	for i, res := range results {
		name := c.providers[i].Name()
		if res.err != nil {
			slog.WarnContext(ctx, "provider search failed", "provider", name, "error", res.err)
			out.Failed = append(out.Failed, name)
			continue
		}
		out.Succeeded = append(out.Succeeded, name)
		out.Options = append(out.Options, res.options...)
	}
	return out
}

func (c *Collector) searchWithRetry(ctx context.Context, p Provider, req SearchRequest) ([]domain.TransitOption, error) {
	backoff := c.backoff
	for attempt := 0; ; attempt++ {
		options, err := p.Search(ctx, req)
		if err == nil {
			return options, nil
		}
		if !errors.Is(err, ErrTemporary) || attempt == c.maxRetries {
			return nil, err
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
			backoff *= 2
		}
	}
}
