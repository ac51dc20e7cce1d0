package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "macrocli/internal/errors"
	"macrocli/internal/middleware"
	"macrocli/internal/services"
	"macrocli/internal/timeseries"
)

// DataHandler handles dataset HTTP requests with RFC 7807 compliance
type DataHandler struct {
	service      DatasetServiceInterface
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
	validator    *middleware.QueryValidator
}

// datasetQuery is the decoded query string of GET /api/datasets/{name}
type datasetQuery struct {
	From    string   `query:"from" validate:"omitempty,month"`
	To      string   `query:"to" validate:"omitempty,month"`
	Columns []string `query:"columns" validate:"max=64,dive,column"`
}

// NewDataHandler creates a new data handler with RFC 7807 error handling
func NewDataHandler(service DatasetServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler, validator *middleware.QueryValidator) *DataHandler {
	if validator == nil {
		validator = middleware.NewQueryValidator()
	}
	return &DataHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "data_handler")),
		errorHandler: errorHandler,
		validator:    validator,
	}
}

// Routes returns the dataset routes, mounted at /api/datasets
func (h *DataHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/", h.ListDatasets)
	r.Route("/{name}", func(r chi.Router) {
		r.Get("/", h.GetDataset)
		r.Get("/csv", h.DownloadDataset)
	})

	return r
}

// ListDatasets handles GET /api/datasets
func (h *DataHandler) ListDatasets(w http.ResponseWriter, r *http.Request) {
	datasets, err := h.service.ListDatasets(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]any{
		"datasets": datasets,
		"count":    len(datasets),
	})
}

// GetDataset handles GET /api/datasets/{name}
func (h *DataHandler) GetDataset(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	q, err := h.parseQuery(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	view, err := h.service.GetDataset(r.Context(), name, q)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.DebugContext(r.Context(), "dataset_served",
		slog.String("dataset", view.Name),
		slog.Int("rows", len(view.Rows)),
		slog.Int("columns", len(view.Columns)),
	)
	render.JSON(w, r, view)
}

// DownloadDataset handles GET /api/datasets/{name}/csv
func (h *DataHandler) DownloadDataset(w http.ResponseWriter, r *http.Request) {
	path, err := h.service.DatasetPath(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	filename := filepath.Base(path)
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	h.logger.InfoContext(r.Context(), "dataset_download",
		slog.String("dataset", filename),
		slog.String("remote_addr", middleware.GetRealIP(r)),
	)
	http.ServeFile(w, r, path)
}

// Analysis handles GET /api/analysis
func (h *DataHandler) Analysis(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.Analysis(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, report)
}

// parseQuery decodes and validates from, to and columns
func (h *DataHandler) parseQuery(r *http.Request) (services.DatasetQuery, error) {
	values := r.URL.Query()
	raw := datasetQuery{
		From:    strings.TrimSpace(values.Get("from")),
		To:      strings.TrimSpace(values.Get("to")),
		Columns: splitColumns(values["columns"]),
	}
	if err := h.validator.ValidateStruct(raw); err != nil {
		return services.DatasetQuery{}, err
	}

	var q services.DatasetQuery
	var err error
	if q.From, err = optionalMonth(raw.From); err != nil {
		return q, apierrors.InvalidParameter("from", err)
	}
	if q.To, err = optionalMonth(raw.To); err != nil {
		return q, apierrors.InvalidParameter("to", err)
	}
	q.Columns = raw.Columns
	return q, nil
}

// splitColumns accepts both ?columns=a,b and ?columns=a&columns=b
func splitColumns(params []string) []string {
	var columns []string
	for _, p := range params {
		for _, c := range strings.Split(p, ",") {
			if c = strings.TrimSpace(c); c != "" {
				columns = append(columns, c)
			}
		}
	}
	return columns
}

func optionalMonth(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return timeseries.ParseMonth(s)
}
