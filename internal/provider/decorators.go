package provider

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/pkordes/detour/internal/cache"
	"github.com/pkordes/detour/internal/domain"
)

type rateLimitedProvider struct {
	provider Provider
	limiter  *rate.Limiter
}

// NewRateLimitedProvider caps calls to p at perSecond with a burst of one.
// A non-positive rate disables limiting.
func NewRateLimitedProvider(p Provider, perSecond float64) Provider {
	if perSecond <= 0 {
		return p
	}
	return &rateLimitedProvider{
		provider: p,
		limiter:  rate.NewLimiter(rate.Limit(perSecond), 1),
	}
}

func (r *rateLimitedProvider) Name() string {
	return r.provider.Name()
}

func (r *rateLimitedProvider) Search(ctx context.Context, req SearchRequest) ([]domain.TransitOption, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("provider.%s: rate limit: %w", r.provider.Name(), err)
	}
	return r.provider.Search(ctx, req)
}

type cachedProvider struct {
	provider Provider
	cache    *cache.Cache[[]domain.TransitOption]
	ttl      time.Duration
}

// NewCachedProvider memoises successful searches of p in c for ttl.
// Errors are never cached.
func NewCachedProvider(p Provider, c *cache.Cache[[]domain.TransitOption], ttl time.Duration) Provider {
	return &cachedProvider{provider: p, cache: c, ttl: ttl}
}

// NewOptionCache returns a cache that copies option slices in and out.
func NewOptionCache() *cache.Cache[[]domain.TransitOption] {
	return cache.New(cache.WithClone(func(o []domain.TransitOption) []domain.TransitOption {
		return slices.Clone(o)
	}))
}

func (c *cachedProvider) Name() string {
	return c.provider.Name()
}

func (c *cachedProvider) Search(ctx context.Context, req SearchRequest) ([]domain.TransitOption, error) {
	key := c.provider.Name() + ":" + req.key()
	if options, ok := c.cache.Get(key); ok {
		return options, nil
	}
	options, err := c.provider.Search(ctx, req)
	if err != nil {
		return nil, err
	}
	c.cache.Set(key, options, c.ttl)
	return options, nil
}

type modeFilterProvider struct {
	provider Provider
	modes    []domain.TransportType
}

// NewModeFilterProvider keeps only the options of p whose transport type is
// one of modes.
func NewModeFilterProvider(p Provider, modes ...domain.TransportType) Provider {
	return &modeFilterProvider{provider: p, modes: modes}
}

func (m *modeFilterProvider) Name() string {
	names := make([]string, len(m.modes))
	for i, mode := range m.modes {
		names[i] = string(mode)
	}
	return m.provider.Name() + "/" + strings.Join(names, "+")
}

func (m *modeFilterProvider) Search(ctx context.Context, req SearchRequest) ([]domain.TransitOption, error) {
	options, err := m.provider.Search(ctx, req)
	if err != nil {
		return nil, err
	}
	kept := make([]domain.TransitOption, 0, len(options))
	for _, o := range options {
		if slices.Contains(m.modes, o.TransportType) {
			kept = append(kept, o)
		}
	}
	return kept, nil
}

type fallbackProvider struct {
	primary   Provider
	secondary Provider
}

// NewFallbackProvider queries primary and, when it fails or finds nothing,
// secondary. Only the secondary's error is returned.
func NewFallbackProvider(primary, secondary Provider) Provider {
	return &fallbackProvider{primary: primary, secondary: secondary}
}

func (f *fallbackProvider) Name() string {
	return f.primary.Name() + "|" + f.secondary.Name()
}

func (f *fallbackProvider) Search(ctx context.Context, req SearchRequest) ([]domain.TransitOption, error) {
	options, err := f.primary.Search(ctx, req)
	switch {
	case err != nil:
		slog.WarnContext(ctx, "provider failed, using fallback",
			"provider", f.primary.Name(), "fallback", f.secondary.Name(), "error", err)
	case len(options) > 0:
		return options, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	return f.secondary.Search(ctx, req)
}

type groupProvider struct {
	name      string
	providers []Provider
}

// NewGroupProvider presents providers as one source named name. They are
// queried in order and their options concatenated; any error fails the group.
func NewGroupProvider(name string, providers ...Provider) Provider {
	return &groupProvider{name: name, providers: providers}
}

func (g *groupProvider) Name() string {
	return g.name
}

func (g *groupProvider) Search(ctx context.Context, req SearchRequest) ([]domain.TransitOption, error) {
	var out []domain.TransitOption
	for _, p := range g.providers {
		options, err := p.Search(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("provider.%s: %w", g.name, err)
		}
		out = append(out, options...)
	}
	return out, nil
}
