// Package agent lets a language model plan the option search. The model is
// given one search tool per transport type and decides which to call and with
// which arguments; every option a tool returns is kept for ranking. When the
// model is unavailable or fails, the search falls back to querying every
// provider directly.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/pkordes/detour/internal/domain"
	"github.com/pkordes/detour/internal/provider"
)

// DefaultMaxRounds bounds the model turns of one search.
const DefaultMaxRounds = 10

// ToolCall is one tool invocation requested by the model.
type ToolCall struct {
	ID    string
	Name  string
	Input json.RawMessage
}

// ToolResult answers a ToolCall.
type ToolResult struct {
	CallID  string
	Content string
	IsError bool
}

// ToolSpec describes a tool to the model. Properties and Required form its
// JSON input schema.
type ToolSpec struct {
	Name        string
	Description string
	Properties  map[string]any
	Required    []string
}

// Session is one conversation with the model.
type Session interface {
	// Next sends the results of the previous turn's calls (none on the first
	// turn) and returns the calls of the next turn. No calls means the model
	// has finished.
	Next(ctx context.Context, results []ToolResult) ([]ToolCall, error)
}

// Model starts conversations. *ClaudeModel satisfies it.
type Model interface {
	Start(system, prompt string, tools []ToolSpec) Session
}

// Searcher gathers options from providers. *provider.Collector satisfies it.
type Searcher interface {
	Collect(ctx context.Context, req provider.SearchRequest) provider.Result
}

// ErrNoModel is returned by plan when no model is configured.
var ErrNoModel = errors.New("no model configured")

// Collector is a drop-in replacement for provider.Collector that lets a model
// choose the searches.
type Collector struct {
	model     Model
	direct    Searcher
	maxRounds int
}

// Option configures a Collector.
type Option func(*Collector)

// WithMaxRounds overrides DefaultMaxRounds.
func WithMaxRounds(n int) Option {
	return func(c *Collector) {
		if n > 0 {
			c.maxRounds = n
		}
	}
}

// New returns a Collector. A nil model makes every search go straight to
// direct.
func New(model Model, direct Searcher, opts ...Option) *Collector {
	c := &Collector{model: model, direct: direct, maxRounds: DefaultMaxRounds}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Collect runs the model's tool loop. Any model failure, or a plan that
// finds no options, falls back to a direct search with req.
func (c *Collector) Collect(ctx context.Context, req provider.SearchRequest) provider.Result {
	res, err := c.plan(ctx, req)
	switch {
	case err == nil && len(res.Options) > 0:
		return res
	case ctx.Err() != nil:
		return provider.Result{Options: []domain.TransitOption{}}
	case errors.Is(err, ErrNoModel):
	case err != nil:
		slog.WarnContext(ctx, "agent failed, searching directly", "error", err)
	default:
		slog.InfoContext(ctx, "agent found no options, searching directly")
	}
	return c.direct.Collect(ctx, req)
}

func (c *Collector) plan(ctx context.Context, req provider.SearchRequest) (provider.Result, error) {
	if c.model == nil {
		return provider.Result{}, ErrNoModel
	}

	session := c.model.Start(systemPrompt, userPrompt(req), toolSpecs())
	out := provider.Result{Options: []domain.TransitOption{}}
	var results []ToolResult
	for range c.maxRounds {
		calls, err := session.Next(ctx, results)
		if err != nil {
			return provider.Result{}, fmt.Errorf("agent.Collector.plan: %w", err)
		}
		if len(calls) == 0 {
			return out, nil
		}
		results = make([]ToolResult, len(calls))
		for i, call := range calls {
			results[i] = c.run(ctx, req, call, &out)
		}
	}
	slog.WarnContext(ctx, "agent stopped after max rounds", "rounds", c.maxRounds)
	return out, nil
}

// run executes one tool call and merges its options into out.
func (c *Collector) run(ctx context.Context, req provider.SearchRequest, call ToolCall, out *provider.Result) ToolResult {
	t, ok := toolByName(call.Name)
	if !ok {
		return ToolResult{CallID: call.ID, Content: fmt.Sprintf("unknown tool %q", call.Name), IsError: true}
	}
	search, err := t.request(req, call.Input)
	if err != nil {
		return ToolResult{CallID: call.ID, Content: err.Error(), IsError: true}
	}

	found := c.direct.Collect(ctx, search)
	options := make([]domain.TransitOption, 0, len(found.Options))
	for _, o := range found.Options {
		if o.TransportType == t.mode {
			options = append(options, o)
		}
	}
	slog.DebugContext(ctx, "agent tool call", "tool", call.Name, "options", len(options))

	out.Options = append(out.Options, options...)
	out.Succeeded = mergeNames(out.Succeeded, found.Succeeded)
	out.Failed = mergeNames(out.Failed, found.Failed)

	body, err := json.Marshal(options)
	if err != nil {
		return ToolResult{CallID: call.ID, Content: err.Error(), IsError: true}
	}
	return ToolResult{CallID: call.ID, Content: string(body)}
}

func mergeNames(have, add []string) []string {
	for _, n := range add {
		if !slices.Contains(have, n) {
			have = append(have, n)
		}
	}
	return have
}

const systemPrompt = "You are a travel assistant finding a replacement journey after a cancellation. " +
	"Use the search tools to gather options for the traveller's route. " +
	"Call search_trains and search_buses at least once, and search_flights when flying is plausible. " +
	"Reply briefly once you have searched; ranking happens afterwards."

func userPrompt(req provider.SearchRequest) string {
	lines := []string{
		"Find alternatives for this trip.",
		"",
		"Origin: " + req.Origin,
		"Destination: " + req.Destination,
		"Date: " + req.Date,
	}
	if req.Time != "" {
		lines = append(lines, "Preferred departure: "+req.Time)
	}
	prefs := req.Preferences
	if prefs.PrimaryGoal != "" {
		lines = append(lines, "Priority: "+string(prefs.PrimaryGoal))
	}
	if prefs.AvoidNight {
		lines = append(lines, "Avoid night travel")
	}
	if prefs.AvoidLongLayover {
		lines = append(lines, "Avoid long layovers")
	}
	if len(prefs.ModePreference) > 0 {
		modes := make([]string, len(prefs.ModePreference))
		for i, m := range prefs.ModePreference {
			modes[i] = string(m)
		}
		lines = append(lines, "Preferred modes: "+strings.Join(modes, ", "))
	}
	if prefs.MaxTransfers != nil {
		lines = append(lines, fmt.Sprintf("Maximum transfers: %d", *prefs.MaxTransfers))
	}
	return strings.Join(lines, "\n")
}
