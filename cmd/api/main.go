// Package main is the entry point for the detour API server.
// Its sole responsibility is wiring dependencies together and starting the server.
// No business logic belongs here.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/pkordes/detour/internal/agent"
	"github.com/pkordes/detour/internal/checkout"
	"github.com/pkordes/detour/internal/config"
	"github.com/pkordes/detour/internal/domain"
	"github.com/pkordes/detour/internal/form"
	"github.com/pkordes/detour/internal/handler"
	"github.com/pkordes/detour/internal/metrics"
	"github.com/pkordes/detour/internal/middleware"
	"github.com/pkordes/detour/internal/provider"
	"github.com/pkordes/detour/internal/provider/hafas"
	"github.com/pkordes/detour/internal/provider/mock"
	"github.com/pkordes/detour/internal/provider/omio"
	"github.com/pkordes/detour/internal/repo"
	"github.com/pkordes/detour/internal/service"
	"github.com/pkordes/detour/migrations"
	"github.com/pkordes/detour/spec"
)

func main() {
	// --- Config -----------------------------------------------------------
	cfg, err := config.Load()
	if err != nil {
		// Use plain stderr before the logger is configured.
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}

	// --- Logger -----------------------------------------------------------
	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		logLevel = slog.LevelInfo
	}
	logger := slog.New(middleware.NewContextHandler(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})))
	slog.SetDefault(logger)

	// --- Storage ----------------------------------------------------------
	statuses, results, closeStore, err := openStores(context.Background(), cfg)
	if err != nil {
		slog.Error("failed to open storage", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	// --- Pipeline ---------------------------------------------------------
	rec := metrics.New()

	providers, err := buildProviders(cfg)
	if err != nil {
		slog.Error("failed to build providers", "error", err)
		os.Exit(1)
	}
	collector := buildCollector(cfg, providers, rec)

	pipeline := service.NewPipeline(statuses, results, collector, checkout.NewBuilder(cfg.CheckoutExpiry), rec)
	dispatcher := service.NewDispatcher(pipeline, cfg.WorkerConcurrency, cfg.PipelineTimeout)
	svc := service.NewRecommendationService(statuses, results, dispatcher)

	// --- Handlers ---------------------------------------------------------
	keys := form.DefaultTallyKeyMap()
	if cfg.TallyKeyMapPath != "" {
		keys, err = form.LoadKeyMap(cfg.TallyKeyMapPath)
		if err != nil {
			slog.Error("failed to load tally key map", "path", cfg.TallyKeyMapPath, "error", err)
			os.Exit(1)
		}
	}

	server := handler.NewServer(svc, handler.Config{
		Tally:          form.NewTally(keys),
		Typeform:       form.NewTypeform(),
		TallySecret:    cfg.TallySigningSecret,
		TypeformSecret: cfg.TypeformSecret,
		Observer:       rec,
		Metrics:        rec.Handler(),
		OpenAPI:        spec.OpenAPI,
	})

	gzip, err := middleware.NewGzipHandler()
	if err != nil {
		slog.Error("failed to build gzip middleware", "error", err)
		os.Exit(1)
	}
	maxBody := middleware.NewMaxBodySizeHandler(cfg.MaxBodyBytes)

	// --- Router -----------------------------------------------------------
	// Middleware is applied in order: RequestID → RealIP → Logger → Recoverer → CORS.
	// Webhooks are additionally rate limited; the JSON API is gzipped.
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewSlogLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.NewCORSHandler(cfg.CORSOrigins))

	r.Mount("/", server.Routes(handler.Middlewares{
		Webhook: []func(http.Handler) http.Handler{middleware.NewRateLimitHandler(cfg.WebhookRateLimit), maxBody},
		API:     []func(http.Handler) http.Handler{maxBody, gzip},
	}))

	// --- HTTP Server ------------------------------------------------------
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown: wait for OS signal, then give in-flight requests and
	// background pipelines up to 15 seconds to complete.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting",
			"addr", srv.Addr,
			"postgres", cfg.UsesPostgres(),
			"hafas", cfg.HAFASEnabled,
			"omio", cfg.OmioEnabled,
			"agent", cfg.AnthropicAPIKey != "",
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-stop
	slog.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
	if err := dispatcher.Shutdown(ctx); err != nil {
		slog.Error("pipelines did not drain", "error", err)
	}
	slog.Info("server stopped")
}

// openStores returns Postgres-backed stores when DATABASE_URL is set and
// file-backed stores under DATA_DIR otherwise. Migrations run at startup.
func openStores(ctx context.Context, cfg config.Config) (repo.StatusRepo, repo.ResultRepo, func(), error) {
	if !cfg.UsesPostgres() {
		statuses, err := repo.NewFileStatusRepo(filepath.Join(cfg.DataDir, "statuses"))
		if err != nil {
			return nil, nil, nil, err
		}
		results, err := repo.NewFileResultRepo(cfg.DataDir)
		if err != nil {
			return nil, nil, nil, err
		}
		slog.Info("using file storage", "dir", cfg.DataDir)
		return statuses, results, func() {}, nil
	}

	// New() does not open connections immediately; the first query does.
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, nil, err
	}
	slog.Info("database connection established")

	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()
	applied, err := migrations.Up(ctx, db)
	if err != nil {
		pool.Close()
		return nil, nil, nil, err
	}
	slog.Info("migrations applied", "count", applied)

	return repo.NewStatusRepo(pool), repo.NewResultRepo(pool), pool.Close, nil
}

// buildProviders assembles the option sources. Flights always come from the
// mock generator; trains and buses come from HAFAS when it is enabled and
// from the mock generator otherwise. With Omio enabled, Omio is asked first
// and the train and bus source only answers when Omio fails or finds nothing.
// Every source is rate limited and its searches memoised.
func buildProviders(cfg config.Config) ([]provider.Provider, error) {
	catalogue, err := mock.DefaultCatalogue()
	if err != nil {
		return nil, err
	}
	seed := cfg.MockSeed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}

	options := provider.NewOptionCache()
	wrap := func(p provider.Provider) provider.Provider {
		p = provider.NewRateLimitedProvider(p, float64(cfg.ProviderRateLimit))
		if cfg.SearchCacheTTL > 0 {
			p = provider.NewCachedProvider(p, options, cfg.SearchCacheTTL)
		}
		return p
	}

	flights := wrap(mock.New(domain.Flight, catalogue, seed))
	var ground []provider.Provider
	if cfg.HAFASEnabled {
		client := hafas.New(cfg.HAFASBaseURL, &http.Client{Timeout: cfg.ProviderTimeout}, nil)
		ground = []provider.Provider{provider.NewModeFilterProvider(wrap(client), domain.Train, domain.Bus)}
	} else {
		ground = []provider.Provider{
			wrap(mock.New(domain.Train, catalogue, seed+1)),
			wrap(mock.New(domain.Bus, catalogue, seed+2)),
		}
	}
	if !cfg.OmioEnabled {
		return append([]provider.Provider{flights}, ground...), nil
	}

	secondary := ground[0]
	if len(ground) > 1 {
		secondary = provider.NewGroupProvider("mock-ground", ground...)
	}
	browser := omio.NewChromeBrowser(cfg.OmioBaseURL, cfg.OmioTimeout,
		omio.WithHeadless(cfg.OmioHeadless),
		omio.WithDebugDir(cfg.OmioDebugDir),
	)
	primary := provider.NewModeFilterProvider(wrap(omio.New(browser)), domain.Train, domain.Bus)
	return []provider.Provider{flights, provider.NewFallbackProvider(primary, secondary)}, nil
}

// buildCollector fans searches out over providers. With an Anthropic key the
// planning agent drives the searches and falls back to the plain fan-out.
func buildCollector(cfg config.Config, providers []provider.Provider, observer provider.Observer) service.Collector {
	// A browser search plus its fallback must fit in one provider slot.
	timeout := cfg.ProviderTimeout
	if cfg.OmioEnabled {
		timeout += cfg.OmioTimeout
	}
	direct := provider.NewCollector(providers, provider.CollectorConfig{
		Timeout:  timeout,
		Observer: observer,
	})
	if cfg.AnthropicAPIKey == "" {
		return direct
	}
	model := agent.NewClaudeModel(cfg.AnthropicAPIKey, cfg.AnthropicModel)
	return agent.New(model, direct, agent.WithMaxRounds(cfg.AgentMaxRounds))
}
