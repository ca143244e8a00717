// Package config loads and validates application configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds all configuration values for the API server.
// Values are populated by Load from environment variables; the env tag names
// the variable behind each field.
type Config struct {
	// Port is the TCP port the HTTP server listens on. Defaults to "8080".
	Port string `env:"PORT" validate:"required,numeric"`

	// LogLevel controls the minimum log level. Defaults to "info".
	// Valid values: debug, info, warn, error.
	LogLevel string `env:"LOG_LEVEL" validate:"oneof=debug info warn error"`

	// CORSOrigins is the list of allowed cross-origin request origins.
	// Defaults to ["http://localhost:5173"] (Vite dev server).
	// Set CORS_ORIGINS to a comma-separated list to override.
	CORSOrigins []string `env:"CORS_ORIGINS" validate:"dive,url"`

	// DatabaseURL is the Postgres connection string. When empty, statuses
	// and results are stored as JSON files under DataDir.
	DatabaseURL string `env:"DATABASE_URL"`

	// DataDir is the file store root; statuses live in DataDir/statuses.
	DataDir string `env:"DATA_DIR" validate:"required"`

	// Webhook signing secrets. Empty disables verification for that source.
	TallySigningSecret string `env:"TALLY_SIGNING_SECRET"`
	TypeformSecret     string `env:"TYPEFORM_SECRET"`

	// TallyKeyMapPath optionally points at a YAML file overriding the
	// built-in Tally field-key map.
	TallyKeyMapPath string `env:"TALLY_KEY_MAP_PATH"`

	// HAFASEnabled replaces the mock train and bus providers with the HAFAS client.
	HAFASEnabled bool   `env:"HAFAS_ENABLED"`
	HAFASBaseURL string `env:"HAFAS_BASE_URL" validate:"required_if=HAFASEnabled true,omitempty,url"`

	// OmioEnabled puts the Omio browser search in front of the train and bus
	// providers; they are only queried when Omio fails or finds nothing.
	OmioEnabled  bool          `env:"OMIO_ENABLED"`
	OmioBaseURL  string        `env:"OMIO_BASE_URL" validate:"required_if=OmioEnabled true,omitempty,url"`
	OmioHeadless bool          `env:"OMIO_HEADLESS"`
	OmioTimeout  time.Duration `env:"OMIO_TIMEOUT" validate:"gt=0"`
	// OmioDebugDir receives a screenshot of every failed Omio search.
	OmioDebugDir string `env:"OMIO_DEBUG_DIR"`

	// AnthropicAPIKey enables the planning agent. Without it every search
	// queries all providers directly.
	AnthropicAPIKey string `env:"ANTHROPIC_API_KEY"`
	AnthropicModel  string `env:"ANTHROPIC_MODEL" validate:"required"`
	AgentMaxRounds  int    `env:"AGENT_MAX_ROUNDS" validate:"gte=1"`

	// MockSeed seeds the mock providers. Zero picks a seed at startup.
	MockSeed uint64 `env:"MOCK_SEED"`

	ProviderTimeout   time.Duration `env:"PROVIDER_TIMEOUT" validate:"gt=0"`
	ProviderRateLimit int           `env:"PROVIDER_RATE_LIMIT" validate:"gte=0"`
	SearchCacheTTL    time.Duration `env:"SEARCH_CACHE_TTL" validate:"gte=0"`
	CheckoutExpiry    time.Duration `env:"CHECKOUT_EXPIRY" validate:"gt=0"`
	MaxBodyBytes      int64         `env:"MAX_BODY_BYTES" validate:"gt=0"`
	WorkerConcurrency int           `env:"WORKER_CONCURRENCY" validate:"gte=1"`
	PipelineTimeout   time.Duration `env:"PIPELINE_TIMEOUT" validate:"gt=0"`
	WebhookRateLimit  int           `env:"WEBHOOK_RATE_LIMIT" validate:"gte=0"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("env")
	})
	return v
}

// Load reads configuration from environment variables and returns a Config.
// A .env file in the working directory is loaded first when present; it never
// overrides variables that are already set.
// Returns an error naming every variable that is malformed or out of range.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	var bad []string
	p := parser{bad: &bad}

	cfg := Config{
		Port:               getEnv("PORT", "8080"),
		LogLevel:           strings.ToLower(getEnv("LOG_LEVEL", "info")),
		CORSOrigins:        splitCSV(getEnv("CORS_ORIGINS", "http://localhost:5173")),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		DataDir:            getEnv("DATA_DIR", "./data/results"),
		TallySigningSecret: os.Getenv("TALLY_SIGNING_SECRET"),
		TypeformSecret:     os.Getenv("TYPEFORM_SECRET"),
		TallyKeyMapPath:    os.Getenv("TALLY_KEY_MAP_PATH"),
		HAFASEnabled:       p.bool("HAFAS_ENABLED", false),
		HAFASBaseURL:       getEnv("HAFAS_BASE_URL", "https://v6.db.transport.rest"),
		OmioEnabled:        p.bool("OMIO_ENABLED", false),
		OmioBaseURL:        getEnv("OMIO_BASE_URL", "https://www.omio.com"),
		OmioHeadless:       p.bool("OMIO_HEADLESS", true),
		OmioTimeout:        p.duration("OMIO_TIMEOUT", 60*time.Second),
		OmioDebugDir:       os.Getenv("OMIO_DEBUG_DIR"),
		AnthropicAPIKey:    os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicModel:     getEnv("ANTHROPIC_MODEL", "claude-sonnet-4-20250514"),
		AgentMaxRounds:     p.int("AGENT_MAX_ROUNDS", 10),
		MockSeed:           p.uint64("MOCK_SEED", 0),
		ProviderTimeout:    p.duration("PROVIDER_TIMEOUT", 20*time.Second),
		ProviderRateLimit:  p.int("PROVIDER_RATE_LIMIT", 5),
		SearchCacheTTL:     p.duration("SEARCH_CACHE_TTL", 5*time.Minute),
		CheckoutExpiry:     p.duration("CHECKOUT_EXPIRY", 30*time.Minute),
		MaxBodyBytes:       int64(p.int("MAX_BODY_BYTES", 1<<20)),
		WorkerConcurrency:  p.int("WORKER_CONCURRENCY", 4),
		PipelineTimeout:    p.duration("PIPELINE_TIMEOUT", 2*time.Minute),
		WebhookRateLimit:   p.int("WEBHOOK_RATE_LIMIT", 10),
	}

	if err := validate.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return Config{}, fmt.Errorf("validate config: %w", err)
		}
		for _, fe := range verrs {
			bad = append(bad, fe.Field())
		}
	}

	if len(bad) > 0 {
		return Config{}, fmt.Errorf("invalid environment variables: %s", strings.Join(bad, ", "))
	}
	return cfg, nil
}

// UsesPostgres reports whether statuses and results are stored in Postgres.
func (c Config) UsesPostgres() bool {
	return c.DatabaseURL != ""
}

// parser reads typed variables and records the names of those that do not parse.
type parser struct {
	bad *[]string
}

func (p parser) int(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		*p.bad = append(*p.bad, key)
		return fallback
	}
	return n
}

func (p parser) uint64(key string, fallback uint64) uint64 {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		*p.bad = append(*p.bad, key)
		return fallback
	}
	return n
}

func (p parser) bool(key string, fallback bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		*p.bad = append(*p.bad, key)
		return fallback
	}
	return b
}

func (p parser) duration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		*p.bad = append(*p.bad, key)
		return fallback
	}
	return d
}

// getEnv returns the value of the environment variable named by key,
// or fallback if the variable is not set or is empty.
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// splitCSV splits a comma-separated string into a trimmed slice, ignoring empty entries.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}
