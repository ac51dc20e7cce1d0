package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"time"

	"macrocli/internal/config"
)

// HealthService reports whether the API can serve pipeline outputs
type HealthService struct {
	version   string
	paths     *config.Paths
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                   `json:"status"`
	Timestamp time.Time                `json:"timestamp"`
	Version   string                   `json:"version"`
	Runtime   map[string]any           `json:"runtime,omitempty"`
	Services  map[string]ServiceHealth `json:"services,omitempty"`
}

// ServiceHealth represents individual dependency health
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// NewHealthService creates a health service
func NewHealthService(version string, paths *config.Paths, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthService{
		version:   version,
		paths:     paths,
		startTime: time.Now(),
		logger:    logger.With(slog.String("component", "health_service")),
	}
}

// HealthCheck returns the overall status: "ok" when the processed directory
// is readable and the final dataset exists, "degraded" when only the
// directory is readable, "unavailable" otherwise.
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "ok",
		Timestamp: time.Now(),
		Version:   hs.version,
		Services: map[string]ServiceHealth{
			"processed_dir": hs.checkDir(hs.paths.ProcessedDir),
			"raw_dir":       hs.checkDir(hs.paths.RawDir),
			"final_dataset": hs.checkFinalDataset(),
		},
		Runtime: map[string]any{
			"uptime_seconds": time.Since(hs.startTime).Seconds(),
			"go_version":     runtime.Version(),
			"goroutines":     runtime.NumGoroutine(),
		},
	}

	switch {
	case status.Services["processed_dir"].Status != "ready":
		status.Status = "unavailable"
	case status.Services["final_dataset"].Status != "ready":
		status.Status = "degraded"
	}

	hs.logger.DebugContext(ctx, "health_checked", slog.String("status", status.Status))
	return status
}

// Healthy reports whether a status should be served with 200
func (s HealthStatus) Healthy() bool {
	return s.Status != "unavailable"
}

// Version returns version information
func (hs *HealthService) Version() map[string]any {
	return map[string]any{
		"version":    hs.version,
		"go_version": runtime.Version(),
		"os":         runtime.GOOS,
		"arch":       runtime.GOARCH,
		"start_time": hs.startTime.Format(time.RFC3339),
	}
}

func (hs *HealthService) checkDir(dir string) ServiceHealth {
	info, err := os.Stat(dir)
	if err != nil {
		return ServiceHealth{Status: "not_ready", Message: fmt.Sprintf("directory not accessible: %s", dir)}
	}
	if !info.IsDir() {
		return ServiceHealth{Status: "not_ready", Message: fmt.Sprintf("not a directory: %s", dir)}
	}
	return ServiceHealth{Status: "ready"}
}

func (hs *HealthService) checkFinalDataset() ServiceHealth {
	info, err := os.Stat(hs.paths.FinalDataset)
	if err != nil {
		return ServiceHealth{Status: "not_ready", Message: "final dataset not built, run the pipeline"}
	}
	return ServiceHealth{
		Status:  "ready",
		Message: "updated " + info.ModTime().UTC().Format(time.RFC3339),
	}
}
