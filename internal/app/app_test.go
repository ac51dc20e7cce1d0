package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"macrocli/internal/config"
	apierrors "macrocli/internal/errors"
	"macrocli/internal/infrastructure"
	"macrocli/internal/shared/testutil"
)

func newTestApp(t *testing.T, mutate func(*config.Config)) *Application {
	t.Helper()
	cfg := config.Default()
	cfg.Pipeline.BaseDir = t.TempDir()
	cfg.Telemetry.MetricExporter = "none"
	if mutate != nil {
		mutate(cfg)
	}

	logger, _ := testutil.NewTestLogger(t)
	providers, err := infrastructure.InitializeOTel(cfg.Telemetry, logger)
	require.NoError(t, err)
	t.Cleanup(func() { providers.Shutdown(context.Background()) })

	a, err := NewApplication(cfg, logger, providers)
	require.NoError(t, err)
	require.NoError(t, a.Paths.EnsureDirectories())
	return a
}

func (a *Application) do(t *testing.T, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	a.Router.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestNewApplication_RequiresDependencies(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)

	_, err := NewApplication(nil, logger, &infrastructure.OTelProviders{})
	assert.Error(t, err)

	_, err = NewApplication(config.Default(), logger, nil)
	assert.Error(t, err)
}

func TestApplication_Routes(t *testing.T) {
	a := newTestApp(t, nil)
	require.NoError(t, os.WriteFile(a.Paths.FinalDataset,
		[]byte("date,CPI_Total\n2020-01-01,257.9\n2020-02-01,258.6\n"), 0644))

	tests := []struct {
		method string
		target string
		status int
	}{
		{http.MethodGet, "/api/health", http.StatusOK},
		{http.MethodGet, "/api/version", http.StatusOK},
		{http.MethodGet, "/api/datasets", http.StatusOK},
		{http.MethodGet, "/api/datasets/final_dataset?from=2020-02", http.StatusOK},
		{http.MethodGet, "/api/datasets/final_dataset/csv", http.StatusOK},
		{http.MethodGet, "/api/analysis", http.StatusOK},
		{http.MethodGet, "/api/datasets/clean_energy", http.StatusNotFound},
		{http.MethodGet, "/api/nothing", http.StatusNotFound},
		{http.MethodPost, "/api/datasets", http.StatusMethodNotAllowed},
		{http.MethodGet, "/metrics", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.target, func(t *testing.T) {
			rec := a.do(t, tt.method, tt.target)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
		})
	}
}

func TestApplication_ProblemDetails(t *testing.T) {
	a := newTestApp(t, nil)

	rec := a.do(t, http.MethodGet, "/api/datasets/final_dataset?from=nope")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var problem map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	assert.Equal(t, apierrors.TypeValidation, problem["type"])
	assert.Equal(t, "/api/datasets/final_dataset", problem["instance"])
	assert.Equal(t, rec.Header().Get("X-Request-ID"), problem["trace_id"])
}

func TestApplication_RateLimit(t *testing.T) {
	a := newTestApp(t, func(cfg *config.Config) {
		cfg.Server.RateLimit = config.RateLimitConfig{Enabled: true, RPS: 1, Burst: 1}
	})

	assert.Equal(t, http.StatusOK, a.do(t, http.MethodGet, "/api/version").Code)
	assert.Equal(t, http.StatusTooManyRequests, a.do(t, http.MethodGet, "/api/version").Code)
}

func TestApplication_PrometheusEndpoint(t *testing.T) {
	a := newTestApp(t, func(cfg *config.Config) {
		cfg.Telemetry.MetricExporter = "prometheus"
	})

	a.do(t, http.MethodGet, "/api/version")
	rec := a.do(t, http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total")
}

func TestApplication_ServeAndShutdown(t *testing.T) {
	a := newTestApp(t, func(cfg *config.Config) {
		cfg.Server.ShutdownTimeout = 2 * time.Second
	})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Serve(ctx, ln) }()

	resp, err := http.Get(fmt.Sprintf("http://%s/api/version", ln.Addr()))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), config.AppVersion)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
