package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "macrocli.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, DefaultRawDir, cfg.Pipeline.RawDir)
	assert.Equal(t, DefaultProcessedDir, cfg.Pipeline.ProcessedDir)
	assert.Equal(t, "2016-01-01", cfg.Pipeline.WindowStart)
	assert.Equal(t, "2025-12-31", cfg.Pipeline.WindowEnd)
	assert.True(t, cfg.Pipeline.Parallel)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "json", cfg.Logging.Format)
	require.NoError(t, cfg.Validate())
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name        string
		env         map[string]string
		file        string
		wantErr     bool
		validateCfg func(*testing.T, *Config)
	}{
		{
			name: "defaults with no file and no env",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, DefaultRawDir, cfg.Pipeline.RawDir)
				assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
				assert.Equal(t, "info", cfg.Logging.Level)
			},
		},
		{
			name: "file overrides defaults and keeps missing keys",
			file: "pipeline:\n  raw_dir: /srv/raw\n  window_start: \"2018-01-01\"\nlogging:\n  level: debug\n",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "/srv/raw", cfg.Pipeline.RawDir)
				assert.Equal(t, "2018-01-01", cfg.Pipeline.WindowStart)
				assert.Equal(t, DefaultWindowEnd, cfg.Pipeline.WindowEnd)
				assert.Equal(t, DefaultProcessedDir, cfg.Pipeline.ProcessedDir)
				assert.Equal(t, "debug", cfg.Logging.Level)
			},
		},
		{
			name: "env overrides file",
			file: "pipeline:\n  raw_dir: /srv/raw\n",
			env: map[string]string{
				"MACRO_PIPELINE_RAW_DIR":  "/env/raw",
				"MACRO_PIPELINE_PARALLEL": "false",
				"MACRO_SERVER_PORT":       "9191",
			},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "/env/raw", cfg.Pipeline.RawDir)
				assert.False(t, cfg.Pipeline.Parallel)
				assert.Equal(t, 9191, cfg.Server.Port)
			},
		},
		{
			name:    "window end before start",
			env:     map[string]string{"MACRO_PIPELINE_WINDOW_END": "2015-01-01"},
			wantErr: true,
		},
		{
			name:    "malformed window date",
			env:     map[string]string{"MACRO_PIPELINE_WINDOW_START": "01/01/2016"},
			wantErr: true,
		},
		{
			name:    "unknown log level",
			env:     map[string]string{"MACRO_LOGGING_LEVEL": "verbose"},
			wantErr: true,
		},
		{
			name:    "invalid yaml",
			file:    "pipeline: [",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := ""
			if tt.file != "" {
				path = writeConfigFile(t, tt.file)
			}

			cfg, err := Load(path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.validateCfg(t, cfg)
		})
	}
}

func TestPipelineConfig_Window(t *testing.T) {
	w, err := Default().Pipeline.Window()
	require.NoError(t, err)
	assert.Equal(t, 2016, w.Start.Year())
	assert.Equal(t, time.December, w.End.Month())
}

func TestValidate_FileOutputNeedsPath(t *testing.T) {
	cfg := Default()
	cfg.Logging.Output = "file"
	cfg.Logging.FilePath = ""
	assert.Error(t, cfg.Validate())
}
