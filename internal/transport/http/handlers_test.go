package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"macrocli/internal/analytics"
	"macrocli/internal/config"
	apierrors "macrocli/internal/errors"
	"macrocli/internal/services"
	"macrocli/internal/shared/testutil"
)

const finalFixture = "date,CPI_Total,Unemp_Total\n" +
	"2019-11-01,255.1,3.6\n" +
	"2019-12-01,255.9,\n" +
	"2020-01-01,257.9,3.5\n" +
	"2020-02-01,258.6,3.5\n"

type testServer struct {
	paths  *config.Paths
	router chi.Router
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	cfg := config.Default().Pipeline
	cfg.BaseDir = t.TempDir()
	paths, err := config.GetPaths(cfg)
	require.NoError(t, err)
	require.NoError(t, paths.EnsureDirectories())

	logger, _ := testutil.NewTestLogger(t)
	errorHandler := apierrors.NewErrorHandler(logger, false)
	data := NewDataHandler(services.NewDatasetService(paths, logger), logger, errorHandler, nil)
	health := NewHealthHandler(services.NewHealthService("test", paths, logger), logger)

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", health.HealthCheck)
		r.Get("/version", health.Version)
		r.Mount("/datasets", data.Routes())
		r.Get("/analysis", data.Analysis)
	})
	return &testServer{paths: paths, router: r}
}

func (s *testServer) write(t *testing.T, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(s.paths.ProcessedPath(name), []byte(content), 0644))
}

func (s *testServer) get(t *testing.T, target string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	var body map[string]any
	if json.Valid(rec.Body.Bytes()) {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec, body
}

func TestDataHandler_ListDatasets(t *testing.T) {
	s := newTestServer(t)
	s.write(t, config.FinalDatasetFile, finalFixture)

	rec, body := s.get(t, "/api/datasets")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), body["count"])

	datasets := body["datasets"].([]any)
	first := datasets[0].(map[string]any)
	assert.Equal(t, config.FinalDatasetFile, first["name"])
	assert.Equal(t, float64(4), first["rows"])
}

func TestDataHandler_GetDataset(t *testing.T) {
	s := newTestServer(t)
	s.write(t, config.FinalDatasetFile, finalFixture)

	tests := []struct {
		name        string
		target      string
		wantStatus  int
		wantRows    int
		wantColumns []any
		wantType    string
	}{
		{
			name:        "whole table",
			target:      "/api/datasets/final_dataset",
			wantStatus:  http.StatusOK,
			wantRows:    4,
			wantColumns: []any{"CPI_Total", "Unemp_Total"},
		},
		{
			name:        "window and columns",
			target:      "/api/datasets/final_dataset.csv?from=2019-12&to=2020-01&columns=Unemp_Total",
			wantStatus:  http.StatusOK,
			wantRows:    2,
			wantColumns: []any{"Unemp_Total"},
		},
		{
			name:        "repeated columns parameter",
			target:      "/api/datasets/final_dataset?columns=Unemp_Total&columns=CPI_Total",
			wantStatus:  http.StatusOK,
			wantRows:    4,
			wantColumns: []any{"Unemp_Total", "CPI_Total"},
		},
		{
			name:       "malformed month",
			target:     "/api/datasets/final_dataset?from=2020-13",
			wantStatus: http.StatusBadRequest,
			wantType:   apierrors.TypeValidation,
		},
		{
			name:       "malformed column",
			target:     "/api/datasets/final_dataset?columns=CPI_Total,1x",
			wantStatus: http.StatusBadRequest,
			wantType:   apierrors.TypeValidation,
		},
		{
			name:       "unknown column",
			target:     "/api/datasets/final_dataset?columns=Gas_Price",
			wantStatus: http.StatusBadRequest,
			wantType:   apierrors.TypeValidation,
		},
		{
			name:       "inverted range",
			target:     "/api/datasets/final_dataset?from=2020-02&to=2019-12",
			wantStatus: http.StatusBadRequest,
			wantType:   apierrors.TypeValidation,
		},
		{
			name:       "missing dataset",
			target:     "/api/datasets/clean_news_sentiment",
			wantStatus: http.StatusNotFound,
			wantType:   apierrors.TypeDatasetNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, body := s.get(t, tt.target)
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())

			if tt.wantType != "" {
				assert.Equal(t, tt.wantType, body["type"])
				assert.Equal(t, float64(tt.wantStatus), body["status"])
				return
			}
			assert.Equal(t, tt.wantColumns, body["columns"])
			assert.Len(t, body["rows"], tt.wantRows)
		})
	}
}

func TestDataHandler_GetDataset_NullCells(t *testing.T) {
	s := newTestServer(t)
	s.write(t, config.FinalDatasetFile, finalFixture)

	_, body := s.get(t, "/api/datasets/final_dataset?from=2019-12&to=2019-12")
	rows := body["rows"].([]any)
	require.Len(t, rows, 1)

	row := rows[0].(map[string]any)
	assert.Equal(t, "2019-12-01", row["date"])
	values := row["values"].(map[string]any)
	assert.Equal(t, 255.9, values["CPI_Total"])
	assert.Contains(t, values, "Unemp_Total")
	assert.Nil(t, values["Unemp_Total"])
}

func TestDataHandler_DownloadDataset(t *testing.T) {
	s := newTestServer(t)
	s.write(t, config.FinalDatasetFile, finalFixture)

	rec, _ := s.get(t, "/api/datasets/final_dataset/csv")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, finalFixture, rec.Body.String())
	assert.Equal(t, `attachment; filename="final_dataset.csv"`, rec.Header().Get("Content-Disposition"))
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")

	rec, body := s.get(t, "/api/datasets/missing/csv")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, apierrors.TypeDatasetNotFound, body["type"])
}

func TestDataHandler_Analysis(t *testing.T) {
	s := newTestServer(t)

	rec, body := s.get(t, "/api/analysis")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, apierrors.TypeDatasetNotFound, body["type"])

	s.write(t, config.FinalDatasetFile, finalFixture)
	rec, body = s.get(t, "/api/analysis")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(4), body["rows"])
}

type failingService struct {
	DatasetServiceInterface
	err error
}

func (f failingService) Analysis(context.Context) (*analytics.Report, error) {
	return nil, f.err
}

func TestDataHandler_Analysis_ServiceFailure(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	h := NewDataHandler(failingService{err: context.DeadlineExceeded}, logger, apierrors.NewErrorHandler(logger, false), nil)

	rec := httptest.NewRecorder()
	h.Analysis(rec, httptest.NewRequest(http.MethodGet, "/api/analysis", nil))

	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
	assert.True(t, logs.ContainsMessage("request_failed"))
}

func TestHealthHandler(t *testing.T) {
	s := newTestServer(t)

	rec, body := s.get(t, "/api/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "degraded", body["status"])

	s.write(t, config.FinalDatasetFile, finalFixture)
	_, body = s.get(t, "/api/health")
	assert.Equal(t, "ok", body["status"])

	require.NoError(t, os.RemoveAll(s.paths.ProcessedDir))
	rec, body = s.get(t, "/api/health")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "unavailable", body["status"])

	rec, body = s.get(t, "/api/version")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "test", body["version"])
}

func TestMetricsHandler(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	errorHandler := apierrors.NewErrorHandler(logger, false)

	rec := httptest.NewRecorder()
	NewMetricsHandler(nil, errorHandler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	exporter := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("# HELP up\n"))
	})
	rec = httptest.NewRecorder()
	NewMetricsHandler(exporter, errorHandler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "# HELP up\n", rec.Body.String())
}

func TestSplitColumns(t *testing.T) {
	assert.Nil(t, splitColumns(nil))
	assert.Equal(t, []string{"a", "b", "c"}, splitColumns([]string{"a, b", "", "c,"}))
}
