package http

import (
	"context"

	"macrocli/internal/analytics"
	"macrocli/internal/services"
)

// DatasetServiceInterface defines the dataset reads the handlers need
type DatasetServiceInterface interface {
	ListDatasets(ctx context.Context) ([]services.DatasetInfo, error)
	GetDataset(ctx context.Context, name string, q services.DatasetQuery) (*services.DatasetView, error)
	DatasetPath(ctx context.Context, name string) (string, error)
	Analysis(ctx context.Context) (*analytics.Report, error)
}

var _ DatasetServiceInterface = (*services.DatasetService)(nil)
