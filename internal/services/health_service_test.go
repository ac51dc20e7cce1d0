package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"macrocli/internal/config"
)

func TestHealthService_HealthCheck(t *testing.T) {
	tests := []struct {
		name        string
		setup       func(t *testing.T, paths *config.Paths)
		wantStatus  string
		wantHealthy bool
	}{
		{
			name:        "no processed directory",
			setup:       func(t *testing.T, paths *config.Paths) {},
			wantStatus:  "unavailable",
			wantHealthy: false,
		},
		{
			name: "directory without final dataset",
			setup: func(t *testing.T, paths *config.Paths) {
				assert.NoError(t, paths.EnsureDirectories())
			},
			wantStatus:  "degraded",
			wantHealthy: true,
		},
		{
			name: "final dataset present",
			setup: func(t *testing.T, paths *config.Paths) {
				assert.NoError(t, paths.EnsureDirectories())
				writeProcessed(t, paths, config.FinalDatasetFile, finalFixture)
			},
			wantStatus:  "ok",
			wantHealthy: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default().Pipeline
			cfg.BaseDir = t.TempDir()
			paths, err := config.GetPaths(cfg)
			assert.NoError(t, err)
			tt.setup(t, paths)

			status := NewHealthService("1.2.3", paths, nil).HealthCheck(context.Background())

			assert.Equal(t, tt.wantStatus, status.Status)
			assert.Equal(t, tt.wantHealthy, status.Healthy())
			assert.Equal(t, "1.2.3", status.Version)
			assert.Contains(t, status.Services, "raw_dir")
			assert.Equal(t, "not_ready", status.Services["raw_dir"].Status, "raw dir is never created by the API")
			assert.Contains(t, status.Runtime, "go_version")
		})
	}
}

func TestHealthService_Version(t *testing.T) {
	paths := newTestPaths(t)
	info := NewHealthService("9.9.9", paths, nil).Version()

	assert.Equal(t, "9.9.9", info["version"])
	assert.NotEmpty(t, info["go_version"])
}
