// Package handler implements the HTTP surface of the detour service: form
// webhooks, the JSON API, the result pages and the operational endpoints.
// All handlers are methods on Server. Methods are split into files by
// resource, and Routes mounts them on a chi router.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pkordes/detour/internal/domain"
)

// RecommendationServicer defines the business operations the handlers depend on.
// Defining the interface here lets handler tests inject a mock without a
// store or a running pipeline.
type RecommendationServicer interface {
	Submit(ctx context.Context, req domain.TravelRequest) error
	Regenerate(ctx context.Context, resultID string) (string, error)
	CreateResult(ctx context.Context, res domain.RecommendationResult) (domain.RecommendationResult, error)
	GetResult(ctx context.Context, resultID string) (domain.RecommendationResult, error)
	ExportResults(ctx context.Context) ([]domain.RecommendationResult, error)
	ListResults(ctx context.Context, p domain.PaginationParams) ([]domain.RecommendationResult, int64, error)
	GetStatus(ctx context.Context, responseID string) (domain.ProcessingStatus, error)
	LatestActiveStatus(ctx context.Context) (domain.ProcessingStatus, error)
}

// FormParser turns a raw webhook body into a travel request.
// *form.Tally and *form.Typeform satisfy it.
type FormParser interface {
	Parse(body []byte) (domain.TravelRequest, error)
}

// WebhookObserver counts webhook deliveries by source and outcome.
// *metrics.Recorder satisfies it.
type WebhookObserver interface {
	WebhookReceived(source, outcome string)
}

// Config carries the Server's collaborators other than the service.
type Config struct {
	Tally          FormParser
	Typeform       FormParser
	TallySecret    string
	TypeformSecret string

	// Observer may be nil.
	Observer WebhookObserver
	// Metrics serves GET /metrics when set.
	Metrics http.Handler
	// OpenAPI is served verbatim at GET /openapi.yaml.
	OpenAPI []byte
	// Now defaults to time.Now; result pages compare expiry against it.
	Now func() time.Time
}

// Middlewares groups the middleware applied to one route group only.
type Middlewares struct {
	Webhook []func(http.Handler) http.Handler
	API     []func(http.Handler) http.Handler
}

// Server holds the handlers' dependencies.
type Server struct {
	svc   RecommendationServicer
	cfg   Config
	pages *pages
}

// NewServer constructs the Server with all its dependencies.
func NewServer(svc RecommendationServicer, cfg Config) *Server {
	if cfg.Observer == nil {
		cfg.Observer = noopObserver{}
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Server{svc: svc, cfg: cfg, pages: newPages()}
}

// Routes returns the router with every endpoint mounted.
func (s *Server) Routes(mw Middlewares) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.GetHealth)
	r.Get("/openapi.yaml", s.GetOpenAPI)
	if s.cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.cfg.Metrics)
	}

	r.Route("/webhook", func(r chi.Router) {
		r.Use(mw.Webhook...)
		r.Post("/tally", s.TallyWebhook)
		r.Post("/typeform", s.TypeformWebhook)
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(mw.API...)
		r.Post("/results", s.CreateResult)
		r.Get("/results", s.ListResults)
		r.Get("/results/export", s.ExportResults)
		r.Get("/results/{result_id}", s.GetResult)
		r.Post("/results/{result_id}/regenerate", s.RegenerateResult)
		r.Get("/status/latest", s.GetLatestStatus)
		r.Get("/status/{response_id}", s.GetStatus)
	})

	r.Get("/wait", s.WaitPage)
	r.Get("/r/{result_id}", s.ResultPage)

	return r
}

type noopObserver struct{}

func (noopObserver) WebhookReceived(string, string) {}
