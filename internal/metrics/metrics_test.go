package metrics_test

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/detour/internal/metrics"
)

func TestRecorder_ObserveProviderSearch(t *testing.T) {
	r := metrics.New()

	r.ObserveProviderSearch("mock-flight", 10*time.Millisecond, 4, nil)
	r.ObserveProviderSearch("hafas", time.Second, 0, errors.New("boom"))
	r.ObserveProviderSearch("hafas", time.Second, 0, nil)

	n, err := testutil.GatherAndCount(r.Registry(), "detour_provider_search_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 3, n, "one series per provider/outcome pair")

	expected := `
# HELP detour_provider_options_total Transit options returned by each provider.
# TYPE detour_provider_options_total counter
detour_provider_options_total{provider="hafas"} 0
detour_provider_options_total{provider="mock-flight"} 4
`
	assert.NoError(t, testutil.GatherAndCompare(r.Registry(), strings.NewReader(expected), "detour_provider_options_total"))
}

func TestRecorder_Pipeline(t *testing.T) {
	r := metrics.New()

	done := r.PipelineStarted()
	running := `
# HELP detour_pipeline_in_flight Travel requests currently being processed.
# TYPE detour_pipeline_in_flight gauge
detour_pipeline_in_flight 1
`
	assert.NoError(t, testutil.GatherAndCompare(r.Registry(), strings.NewReader(running), "detour_pipeline_in_flight"))
	done(metrics.OutcomeOK)

	r.PipelineStarted()(metrics.OutcomeError)

	expected := `
# HELP detour_pipeline_runs_total Travel requests processed, by outcome.
# TYPE detour_pipeline_runs_total counter
detour_pipeline_runs_total{outcome="error"} 1
detour_pipeline_runs_total{outcome="ok"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(r.Registry(), strings.NewReader(expected), "detour_pipeline_runs_total"))

	gauge := `
# HELP detour_pipeline_in_flight Travel requests currently being processed.
# TYPE detour_pipeline_in_flight gauge
detour_pipeline_in_flight 0
`
	assert.NoError(t, testutil.GatherAndCompare(r.Registry(), strings.NewReader(gauge), "detour_pipeline_in_flight"))
}

func TestRecorder_Webhooks(t *testing.T) {
	r := metrics.New()

	r.WebhookReceived("tally", metrics.OutcomeOK)
	r.WebhookReceived("tally", metrics.OutcomeOK)
	r.WebhookReceived("typeform", metrics.OutcomeRejected)

	expected := `
# HELP detour_webhooks_total Webhook deliveries, by form provider and outcome.
# TYPE detour_webhooks_total counter
detour_webhooks_total{outcome="ok",source="tally"} 2
detour_webhooks_total{outcome="rejected",source="typeform"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(r.Registry(), strings.NewReader(expected), "detour_webhooks_total"))
}

func TestRecorder_Handler(t *testing.T) {
	r := metrics.New()
	r.WebhookReceived("tally", metrics.OutcomeOK)

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, _ := io.ReadAll(rec.Body)
	assert.Contains(t, string(body), `detour_webhooks_total{outcome="ok",source="tally"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}
