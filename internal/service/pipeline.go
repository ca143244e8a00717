// Package service contains the business logic for the detour service.
// Services validate inputs, enforce business rules, and orchestrate repo and
// provider calls. No SQL or HTTP lives here.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/pkordes/detour/internal/checkout"
	"github.com/pkordes/detour/internal/domain"
	"github.com/pkordes/detour/internal/metrics"
	"github.com/pkordes/detour/internal/provider"
	"github.com/pkordes/detour/internal/ranking"
	"github.com/pkordes/detour/internal/repo"
)

// Collector gathers candidate options from every configured provider.
// *provider.Collector satisfies it.
type Collector interface {
	Collect(ctx context.Context, req provider.SearchRequest) provider.Result
}

// LinkBuilder turns the chosen option into a checkout link.
// *checkout.Builder satisfies it.
type LinkBuilder interface {
	Build(o domain.TransitOption, req domain.TravelRequest) checkout.Link
}

// PipelineObserver is told when a run starts and how it ended.
// *metrics.Recorder satisfies it.
type PipelineObserver interface {
	PipelineStarted() func(outcome string)
}

// User-facing status messages.
const (
	msgNoResults        = "no results found"
	msgProcessingFailed = "processing failed"
)

// Pipeline processes one travel request end to end:
// processing -> collect -> rank -> checkout link -> save -> done,
// with any failure recorded as an error status.
type Pipeline struct {
	statuses  repo.StatusRepo
	results   repo.ResultRepo
	collector Collector
	links     LinkBuilder
	observer  PipelineObserver
}

// NewPipeline constructs a Pipeline. observer may be nil.
func NewPipeline(statuses repo.StatusRepo, results repo.ResultRepo, collector Collector, links LinkBuilder, observer PipelineObserver) *Pipeline {
	return &Pipeline{
		statuses:  statuses,
		results:   results,
		collector: collector,
		links:     links,
		observer:  observer,
	}
}

// Process runs req through the pipeline and returns the saved result.
// The status record for req.ResponseID always ends in done or error.
func (p *Pipeline) Process(ctx context.Context, req domain.TravelRequest) (domain.RecommendationResult, error) {
	finish := func(string) {}
	if p.observer != nil {
		finish = p.observer.PipelineStarted()
	}

	res, err := p.run(ctx, req)
	if err != nil {
		msg, outcome := msgProcessingFailed, metrics.OutcomeError
		if errors.Is(err, domain.ErrNoOptions) {
			msg, outcome = msgNoResults, metrics.OutcomeEmpty
		}
		slog.ErrorContext(ctx, "processing failed", "response_id", req.ResponseID, "error", err)
		if _, serr := p.statuses.Set(context.WithoutCancel(ctx), domain.ProcessingStatus{
			ResponseID:   req.ResponseID,
			Status:       domain.StatusError,
			ErrorMessage: &msg,
		}); serr != nil {
			slog.ErrorContext(ctx, "record error status", "response_id", req.ResponseID, "error", serr)
		}
		finish(outcome)
		return domain.RecommendationResult{}, fmt.Errorf("service.Pipeline.Process: %w", err)
	}

	finish(metrics.OutcomeOK)
	return res, nil
}

func (p *Pipeline) run(ctx context.Context, req domain.TravelRequest) (domain.RecommendationResult, error) {
	if err := context.Cause(ctx); err != nil {
		return domain.RecommendationResult{}, err
	}
	if _, err := p.statuses.Set(ctx, domain.ProcessingStatus{ResponseID: req.ResponseID, Status: domain.StatusProcessing}); err != nil {
		return domain.RecommendationResult{}, err
	}

	collected := p.collector.Collect(ctx, provider.NewSearchRequest(req))
	if len(collected.Options) == 0 {
		return domain.RecommendationResult{}, domain.ErrNoOptions
	}

	best, _ := ranking.Best(collected.Options, req.Preferences)
	link := p.links.Build(best.Option, req)

	original := req
	saved, err := p.results.Save(ctx, domain.RecommendationResult{
		ResponseID:      req.ResponseID,
		Origin:          req.Origin,
		Destination:     req.Destination,
		TransportType:   best.Option.TransportType,
		Provider:        best.Option.Provider,
		DepartureTime:   best.Option.DepartureTime,
		ArrivalTime:     best.Option.ArrivalTime,
		DurationMinutes: best.Option.DurationMinutes,
		Price:           best.Option.Price,
		Currency:        best.Option.Currency,
		Transfers:       best.Option.Transfers,
		CheckoutURL:     link.URL,
		Score:           best.Score,
		ScoreExplain:    best.ScoreExplain,
		ExpiresAt:       &link.ExpiresAt,
		OriginalRequest: &original,
	})
	if err != nil {
		return domain.RecommendationResult{}, err
	}

	resultID := saved.ResultID
	if _, err := p.statuses.Set(ctx, domain.ProcessingStatus{
		ResponseID: req.ResponseID,
		Status:     domain.StatusDone,
		ResultID:   &resultID,
	}); err != nil {
		return domain.RecommendationResult{}, err
	}

	slog.InfoContext(ctx, "processing complete",
		"response_id", req.ResponseID,
		"result_id", saved.ResultID,
		"options", len(collected.Options),
		"failed_providers", collected.Failed,
	)
	return saved, nil
}
