package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Paths contains the resolved data directories and well-known files.
// Every field is absolute.
type Paths struct {
	BaseDir      string
	RawDir       string
	ProcessedDir string

	// Processed outputs
	CleanCPI      string
	CleanEnergy   string
	CleanLabor    string
	CleanNews     string
	FinalDataset  string
	FinalWorkbook string
	RunManifest   string
}

// GetPaths resolves the pipeline directories. Relative raw and processed
// directories are taken relative to BaseDir, and BaseDir relative to the
// working directory.
func GetPaths(cfg PipelineConfig) (*Paths, error) {
	base := cfg.BaseDir
	if base == "" {
		base = "."
	}
	base, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve base directory: %w", err)
	}

	resolve := func(dir string) string {
		if filepath.IsAbs(dir) {
			return filepath.Clean(dir)
		}
		return filepath.Join(base, dir)
	}

	processed := resolve(cfg.ProcessedDir)
	return &Paths{
		BaseDir:      base,
		RawDir:       resolve(cfg.RawDir),
		ProcessedDir: processed,

		CleanCPI:      filepath.Join(processed, CleanCPIFile),
		CleanEnergy:   filepath.Join(processed, CleanEnergyFile),
		CleanLabor:    filepath.Join(processed, CleanLaborFile),
		CleanNews:     filepath.Join(processed, CleanNewsFile),
		FinalDataset:  filepath.Join(processed, FinalDatasetFile),
		FinalWorkbook: filepath.Join(processed, FinalWorkbookFile),
		RunManifest:   filepath.Join(processed, RunManifestFile),
	}, nil
}

// RawPath returns the path of a file in the raw directory
func (p *Paths) RawPath(name string) string {
	return filepath.Join(p.RawDir, name)
}

// ProcessedPath returns the path of a file in the processed directory
func (p *Paths) ProcessedPath(name string) string {
	return filepath.Join(p.ProcessedDir, name)
}

// EnsureDirectories creates the processed directory if it doesn't exist.
// The raw directory belongs to the fetchers and is never created here.
func (p *Paths) EnsureDirectories() error {
	if err := os.MkdirAll(p.ProcessedDir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", p.ProcessedDir, err)
	}
	slog.Debug("ensured directory exists", slog.String("directory", p.ProcessedDir))
	return nil
}

// LogPathResolution logs the resolved directories at debug level
func (p *Paths) LogPathResolution() {
	slog.Debug("resolved paths",
		slog.String("base_dir", p.BaseDir),
		slog.String("raw_dir", p.RawDir),
		slog.String("processed_dir", p.ProcessedDir))
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
