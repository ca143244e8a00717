package service_test

import (
	"context"
	"sync"

	"github.com/pkordes/detour/internal/checkout"
	"github.com/pkordes/detour/internal/domain"
	"github.com/pkordes/detour/internal/provider"
	"github.com/pkordes/detour/internal/repo"
)

// ---- mock repos ------------------------------------------------------------

// mockStatusRepo is a hand-written test double for repo.StatusRepo.
// When set is nil it records every status written.
type mockStatusRepo struct {
	set          func(ctx context.Context, s domain.ProcessingStatus) (domain.ProcessingStatus, error)
	get          func(ctx context.Context, responseID string) (domain.ProcessingStatus, error)
	latestActive func(ctx context.Context) (domain.ProcessingStatus, error)

	mu      sync.Mutex
	written []domain.ProcessingStatus
}

func (m *mockStatusRepo) Set(ctx context.Context, s domain.ProcessingStatus) (domain.ProcessingStatus, error) {
	m.mu.Lock()
	m.written = append(m.written, s)
	m.mu.Unlock()
	if m.set != nil {
		return m.set(ctx, s)
	}
	return s, nil
}
func (m *mockStatusRepo) Get(ctx context.Context, responseID string) (domain.ProcessingStatus, error) {
	return m.get(ctx, responseID)
}
func (m *mockStatusRepo) LatestActive(ctx context.Context) (domain.ProcessingStatus, error) {
	return m.latestActive(ctx)
}

func (m *mockStatusRepo) history() []domain.Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Status, 0, len(m.written))
	for _, s := range m.written {
		out = append(out, s.Status)
	}
	return out
}

func (m *mockStatusRepo) last() domain.ProcessingStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.written[len(m.written)-1]
}

// compile-time check: mockStatusRepo must satisfy repo.StatusRepo.
var _ repo.StatusRepo = (*mockStatusRepo)(nil)

// mockResultRepo is a hand-written test double for repo.ResultRepo.
type mockResultRepo struct {
	save      func(ctx context.Context, r domain.RecommendationResult) (domain.RecommendationResult, error)
	get       func(ctx context.Context, resultID string) (domain.RecommendationResult, error)
	listPaged func(ctx context.Context, p domain.PaginationParams) ([]domain.RecommendationResult, int64, error)
}

func (m *mockResultRepo) Save(ctx context.Context, r domain.RecommendationResult) (domain.RecommendationResult, error) {
	return m.save(ctx, r)
}
func (m *mockResultRepo) Get(ctx context.Context, resultID string) (domain.RecommendationResult, error) {
	return m.get(ctx, resultID)
}
func (m *mockResultRepo) ListPaged(ctx context.Context, p domain.PaginationParams) ([]domain.RecommendationResult, int64, error) {
	return m.listPaged(ctx, p)
}

// compile-time check: mockResultRepo must satisfy repo.ResultRepo.
var _ repo.ResultRepo = (*mockResultRepo)(nil)

// ---- mock collaborators ----------------------------------------------------

type mockCollector struct {
	collect func(ctx context.Context, req provider.SearchRequest) provider.Result
}

func (m *mockCollector) Collect(ctx context.Context, req provider.SearchRequest) provider.Result {
	return m.collect(ctx, req)
}

type mockLinks struct{}

func (mockLinks) Build(o domain.TransitOption, _ domain.TravelRequest) checkout.Link {
	return checkout.Link{URL: "https://example.test/" + o.Provider, ExpiresAt: o.DepartureTime}
}

type mockObserver struct {
	mu       sync.Mutex
	outcomes []string
}

func (m *mockObserver) PipelineStarted() func(string) {
	return func(outcome string) {
		m.mu.Lock()
		m.outcomes = append(m.outcomes, outcome)
		m.mu.Unlock()
	}
}

type mockProcessor struct {
	process func(ctx context.Context, req domain.TravelRequest) (domain.RecommendationResult, error)
}

func (m *mockProcessor) Process(ctx context.Context, req domain.TravelRequest) (domain.RecommendationResult, error) {
	return m.process(ctx, req)
}

type mockDispatch struct {
	dispatch func(ctx context.Context, req domain.TravelRequest) error
}

func (m *mockDispatch) Dispatch(ctx context.Context, req domain.TravelRequest) error {
	return m.dispatch(ctx, req)
}
