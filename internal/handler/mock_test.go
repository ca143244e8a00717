package handler_test

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/pkordes/detour/internal/domain"
	"github.com/pkordes/detour/internal/form"
	"github.com/pkordes/detour/internal/handler"
)

// mockService is a hand-written test double for handler.RecommendationServicer.
// Unset functions panic, which fails the test that reached them.
type mockService struct {
	submit             func(ctx context.Context, req domain.TravelRequest) error
	regenerate         func(ctx context.Context, resultID string) (string, error)
	createResult       func(ctx context.Context, res domain.RecommendationResult) (domain.RecommendationResult, error)
	getResult          func(ctx context.Context, resultID string) (domain.RecommendationResult, error)
	exportResults      func(ctx context.Context) ([]domain.RecommendationResult, error)
	listResults        func(ctx context.Context, p domain.PaginationParams) ([]domain.RecommendationResult, int64, error)
	getStatus          func(ctx context.Context, responseID string) (domain.ProcessingStatus, error)
	latestActiveStatus func(ctx context.Context) (domain.ProcessingStatus, error)
}

func (m *mockService) Submit(ctx context.Context, req domain.TravelRequest) error {
	return m.submit(ctx, req)
}
func (m *mockService) Regenerate(ctx context.Context, resultID string) (string, error) {
	return m.regenerate(ctx, resultID)
}
func (m *mockService) CreateResult(ctx context.Context, res domain.RecommendationResult) (domain.RecommendationResult, error) {
	return m.createResult(ctx, res)
}
func (m *mockService) GetResult(ctx context.Context, resultID string) (domain.RecommendationResult, error) {
	return m.getResult(ctx, resultID)
}
func (m *mockService) ExportResults(ctx context.Context) ([]domain.RecommendationResult, error) {
	return m.exportResults(ctx)
}
func (m *mockService) ListResults(ctx context.Context, p domain.PaginationParams) ([]domain.RecommendationResult, int64, error) {
	return m.listResults(ctx, p)
}
func (m *mockService) GetStatus(ctx context.Context, responseID string) (domain.ProcessingStatus, error) {
	return m.getStatus(ctx, responseID)
}
func (m *mockService) LatestActiveStatus(ctx context.Context) (domain.ProcessingStatus, error) {
	return m.latestActiveStatus(ctx)
}

// compile-time check: mockService must satisfy handler.RecommendationServicer.
var _ handler.RecommendationServicer = (*mockService)(nil)

type recordingObserver struct {
	mu   sync.Mutex
	seen []string
}

func (o *recordingObserver) WebhookReceived(source, outcome string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.seen = append(o.seen, source+"/"+outcome)
}

// ---- helpers ---------------------------------------------------------------

const testResultID = "8a7f3c1e-2b4d-4e6f-9a8b-1c2d3e4f5a6b"

var testNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func newRouter(svc handler.RecommendationServicer, mutate ...func(*handler.Config)) http.Handler {
	cfg := handler.Config{
		Tally:    form.NewTally(nil),
		Typeform: form.NewTypeform(),
		OpenAPI:  []byte("openapi: 3.0.3\n"),
		Now:      func() time.Time { return testNow },
	}
	for _, m := range mutate {
		m(&cfg)
	}
	return handler.NewServer(svc, cfg).Routes(handler.Middlewares{})
}

func storedResult() domain.RecommendationResult {
	dep := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	expires := testNow.Add(30 * time.Minute)
	return domain.RecommendationResult{
		ResultID:        testResultID,
		ResponseID:      "resp-abc",
		Origin:          "Seoul",
		Destination:     "Busan",
		TransportType:   domain.Train,
		Provider:        "KTX",
		DepartureTime:   dep,
		ArrivalTime:     dep.Add(155 * time.Minute),
		DurationMinutes: 155,
		Price:           59800,
		Currency:        "KRW",
		CheckoutURL:     "https://www.letskorail.com/",
		Score:           87.5,
		ScoreExplain:    "duration 155 min",
		CreatedAt:       testNow.Add(-time.Minute),
		ExpiresAt:       &expires,
	}
}
