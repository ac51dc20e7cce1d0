package services

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"macrocli/internal/analytics"
	"macrocli/internal/config"
	apierrors "macrocli/internal/errors"
	"macrocli/internal/exporter"
	"macrocli/internal/files"
	"macrocli/internal/infrastructure"
	"macrocli/internal/timeseries"
)

// DatasetInfo describes one processed table on disk
type DatasetInfo struct {
	Name      string    `json:"name"`
	Rows      int       `json:"rows"`
	Columns   int       `json:"columns"`
	From      string    `json:"from,omitempty"`
	To        string    `json:"to,omitempty"`
	SizeBytes int64     `json:"size_bytes"`
	Modified  time.Time `json:"modified"`
}

// DatasetQuery narrows a dataset read. Zero months leave that side open and
// an empty column list selects every column.
type DatasetQuery struct {
	From    time.Time
	To      time.Time
	Columns []string
}

// DatasetRow is one month of a dataset; missing cells encode as null
type DatasetRow struct {
	Date   string                     `json:"date"`
	Values map[string]analytics.Float `json:"values"`
}

// DatasetView is a dataset restricted by a DatasetQuery
type DatasetView struct {
	Name    string       `json:"name"`
	Columns []string     `json:"columns"`
	Rows    []DatasetRow `json:"rows"`
}

// DatasetService reads the processed tables written by the pipeline
type DatasetService struct {
	paths     *config.Paths
	discovery *files.Discovery
	logger    *slog.Logger
}

// NewDatasetService creates a dataset service over paths.ProcessedDir
func NewDatasetService(paths *config.Paths, logger *slog.Logger) *DatasetService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DatasetService{
		paths:     paths,
		discovery: files.NewDiscovery(paths.ProcessedDir),
		logger:    infrastructure.WithComponent(logger, "dataset_service"),
	}
}

// ListDatasets returns every CSV table in the processed directory. A missing
// directory lists nothing; a table that cannot be decoded is listed without
// row and column counts.
func (ds *DatasetService) ListDatasets(ctx context.Context) ([]DatasetInfo, error) {
	found, err := ds.discovery.FindCSVFiles(ds.paths.ProcessedDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []DatasetInfo{}, nil
		}
		return nil, apierrors.NewStorageError("failed to list datasets", err)
	}

	datasets := make([]DatasetInfo, 0, len(found))
	for _, f := range found {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		info := DatasetInfo{Name: f.Name, SizeBytes: f.Size, Modified: f.ModTime}
		t, err := exporter.ReadTable(f.Path)
		if err != nil {
			ds.logDataError(ctx, "list", "dataset_unreadable",
				slog.String("dataset", f.Name),
				slog.String("error", err.Error()))
		} else {
			info.Rows = t.Len()
			info.Columns = len(t.Columns())
			if months := t.Months(); len(months) > 0 {
				info.From = months[0].Format(timeseries.MonthLayout)
				info.To = months[len(months)-1].Format(timeseries.MonthLayout)
			}
		}
		datasets = append(datasets, info)
	}

	ds.logger.DebugContext(ctx, "datasets_listed", slog.Int("count", len(datasets)))
	return datasets, nil
}

// GetDataset reads one table and applies q
func (ds *DatasetService) GetDataset(ctx context.Context, name string, q DatasetQuery) (*DatasetView, error) {
	name, t, err := ds.load(ctx, name)
	if err != nil {
		return nil, err
	}

	if !q.From.IsZero() && !q.To.IsZero() && q.To.Before(q.From) {
		return nil, apierrors.NewAppValidationError(fmt.Sprintf("%v: to %s is before from %s", ErrInvalidRange,
			q.To.Format(timeseries.MonthLayout), q.From.Format(timeseries.MonthLayout)))
	}

	if len(q.Columns) > 0 {
		for _, c := range q.Columns {
			if !t.HasColumn(c) {
				return nil, apierrors.NewAppValidationError(fmt.Sprintf("%v %s in %s", ErrUnknownColumn, c, name)).
					WithContext("available_columns", t.Columns())
			}
		}
		t = t.Select(q.Columns...)
	}
	t = t.Restrict(queryWindow(q))

	view := &DatasetView{
		Name:    name,
		Columns: t.Columns(),
		Rows:    make([]DatasetRow, 0, t.Len()),
	}
	for i, month := range t.Months() {
		row := t.Row(i)
		values := make(map[string]analytics.Float, len(row))
		for c, v := range row {
			values[c] = analytics.Float(v)
		}
		view.Rows = append(view.Rows, DatasetRow{Date: month.Format(timeseries.DateLayout), Values: values})
	}

	return view, nil
}

// DatasetPath resolves name to the table file for download
func (ds *DatasetService) DatasetPath(ctx context.Context, name string) (string, error) {
	name, err := normalizeName(name)
	if err != nil {
		return "", err
	}

	path := ds.paths.ProcessedPath(name)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", apierrors.NewNotFoundError("dataset " + name)
		}
		return "", apierrors.NewStorageError("failed to stat dataset", err)
	}
	return path, nil
}

// Analysis runs the analytics report on the final dataset
func (ds *DatasetService) Analysis(ctx context.Context) (*analytics.Report, error) {
	_, t, err := ds.load(ctx, config.FinalDatasetFile)
	if err != nil {
		return nil, err
	}
	return analytics.Analyze(t), nil
}

// load reads a table by name, mapping filesystem failures to AppErrors
func (ds *DatasetService) load(ctx context.Context, name string) (string, *timeseries.Table, error) {
	name, err := normalizeName(name)
	if err != nil {
		return "", nil, err
	}
	if err := ctx.Err(); err != nil {
		return "", nil, err
	}

	t, err := exporter.ReadTable(ds.paths.ProcessedPath(name))
	switch {
	case err == nil:
		return name, t, nil
	case errors.Is(err, fs.ErrNotExist):
		return "", nil, apierrors.NewNotFoundError("dataset " + name)
	default:
		ds.logDataError(ctx, "read", "dataset_unreadable",
			slog.String("dataset", name),
			slog.String("error", err.Error()))
		return "", nil, apierrors.NewParsingError("dataset "+name+" is not a valid table", err).
			WithContext("dataset", name)
	}
}

// normalizeName accepts a bare table name or a CSV file name in the processed directory
func normalizeName(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.ContainsAny(name, `/\`) || strings.HasPrefix(name, ".") {
		return "", apierrors.NewAppValidationError(fmt.Sprintf("%v: %q", ErrInvalidDatasetName, name))
	}
	if !strings.HasSuffix(strings.ToLower(name), ".csv") {
		name += ".csv"
	}
	return name, nil
}

// queryWindow turns the optional query months into an inclusive window
func queryWindow(q DatasetQuery) timeseries.Window {
	w := timeseries.Window{
		Start: time.Date(1, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC),
	}
	if !q.From.IsZero() {
		w.Start = q.From
	}
	if !q.To.IsZero() {
		w.End = q.To
	}
	return w
}
