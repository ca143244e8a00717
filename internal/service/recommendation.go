package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkordes/detour/internal/domain"
	"github.com/pkordes/detour/internal/form"
	"github.com/pkordes/detour/internal/repo"
)

// Dispatch queues a travel request for background processing.
// *Dispatcher satisfies it.
type Dispatch interface {
	Dispatch(ctx context.Context, req domain.TravelRequest) error
}

// RecommendationService is the entry point for webhooks and the JSON API:
// it accepts travel requests, exposes their status and serves results.
type RecommendationService struct {
	statuses   repo.StatusRepo
	results    repo.ResultRepo
	dispatcher Dispatch
}

// NewRecommendationService constructs a RecommendationService.
func NewRecommendationService(statuses repo.StatusRepo, results repo.ResultRepo, d Dispatch) *RecommendationService {
	return &RecommendationService{statuses: statuses, results: results, dispatcher: d}
}

// Submit records req as pending and queues it.
// Returns domain.ErrValidation if req is incomplete.
func (s *RecommendationService) Submit(ctx context.Context, req domain.TravelRequest) error {
	if err := form.Validate(req); err != nil {
		return fmt.Errorf("service.RecommendationService.Submit: %w", err)
	}
	if _, err := s.statuses.Set(ctx, domain.ProcessingStatus{ResponseID: req.ResponseID, Status: domain.StatusPending}); err != nil {
		return fmt.Errorf("service.RecommendationService.Submit: %w", err)
	}
	if err := s.dispatcher.Dispatch(ctx, req); err != nil {
		return fmt.Errorf("service.RecommendationService.Submit: %w", err)
	}
	return nil
}

// Regenerate re-runs the request behind an existing result and returns its
// response id. Results saved without their request are rebuilt from their
// own fields.
// Returns domain.ErrNotFound if the result does not exist.
func (s *RecommendationService) Regenerate(ctx context.Context, resultID string) (string, error) {
	res, err := s.results.Get(ctx, resultID)
	if err != nil {
		return "", fmt.Errorf("service.RecommendationService.Regenerate: %w", err)
	}
	req := res.Request()
	if err := s.Submit(ctx, req); err != nil {
		return "", fmt.Errorf("service.RecommendationService.Regenerate: %w", err)
	}
	return req.ResponseID, nil
}

// CreateResult stores a result produced outside the pipeline.
// Returns domain.ErrValidation when required fields are missing.
func (s *RecommendationService) CreateResult(ctx context.Context, res domain.RecommendationResult) (domain.RecommendationResult, error) {
	if err := validateResult(res); err != nil {
		return domain.RecommendationResult{}, err
	}
	saved, err := s.results.Save(ctx, res)
	if err != nil {
		return domain.RecommendationResult{}, fmt.Errorf("service.RecommendationService.CreateResult: %w", err)
	}
	return saved, nil
}

// GetResult returns a result by id.
// Returns domain.ErrNotFound if it does not exist or the id is malformed.
func (s *RecommendationService) GetResult(ctx context.Context, resultID string) (domain.RecommendationResult, error) {
	res, err := s.results.Get(ctx, resultID)
	if err != nil {
		return domain.RecommendationResult{}, fmt.Errorf("service.RecommendationService.GetResult: %w", err)
	}
	return res, nil
}

// ListResults returns one page of results, newest first, and the total count.
// Always returns a non-nil slice.
func (s *RecommendationService) ListResults(ctx context.Context, p domain.PaginationParams) ([]domain.RecommendationResult, int64, error) {
	results, total, err := s.results.ListPaged(ctx, p)
	if err != nil {
		return nil, 0, fmt.Errorf("service.RecommendationService.ListResults: %w", err)
	}
	if results == nil {
		results = []domain.RecommendationResult{}
	}
	return results, total, nil
}

// GetStatus returns the processing status of a travel request.
// Returns domain.ErrNotFound if it is unknown.
func (s *RecommendationService) GetStatus(ctx context.Context, responseID string) (domain.ProcessingStatus, error) {
	st, err := s.statuses.Get(ctx, responseID)
	if err != nil {
		return domain.ProcessingStatus{}, fmt.Errorf("service.RecommendationService.GetStatus: %w", err)
	}
	return st, nil
}

// LatestActiveStatus returns the newest pending or processing status.
// Returns domain.ErrNotFound if nothing is in flight.
func (s *RecommendationService) LatestActiveStatus(ctx context.Context) (domain.ProcessingStatus, error) {
	st, err := s.statuses.LatestActive(ctx)
	if err != nil {
		return domain.ProcessingStatus{}, fmt.Errorf("service.RecommendationService.LatestActiveStatus: %w", err)
	}
	return st, nil
}

// validateResult enforces the fields every stored result must carry.
func validateResult(res domain.RecommendationResult) error {
	switch {
	case strings.TrimSpace(res.ResponseID) == "":
		return fmt.Errorf("%w: response_id is required", domain.ErrValidation)
	case strings.TrimSpace(res.Origin) == "" || strings.TrimSpace(res.Destination) == "":
		return fmt.Errorf("%w: origin and destination are required", domain.ErrValidation)
	case res.DepartureTime.IsZero() || res.ArrivalTime.IsZero():
		return fmt.Errorf("%w: departure_time and arrival_time are required", domain.ErrValidation)
	case res.DurationMinutes < 0 || res.Transfers < 0 || res.Price < 0:
		return fmt.Errorf("%w: duration, transfers and price must not be negative", domain.ErrValidation)
	}
	if _, err := domain.ParseTransportType(string(res.TransportType)); err != nil {
		return err
	}
	return nil
}

// ExportResults returns every stored result, newest first.
func (s *RecommendationService) ExportResults(ctx context.Context) ([]domain.RecommendationResult, error) {
	out := []domain.RecommendationResult{}
	for page := 1; ; page++ {
		params := domain.PaginationParams{Page: page, Limit: domain.MaxPageLimit}
		batch, total, err := s.results.ListPaged(ctx, params)
		if err != nil {
			return nil, fmt.Errorf("service.RecommendationService.ExportResults: %w", err)
		}
		out = append(out, batch...)
		if len(batch) < params.Limit || page >= params.TotalPages(total) {
			return out, nil
		}
	}
}
