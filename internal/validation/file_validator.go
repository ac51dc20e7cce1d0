package validation

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"macrocli/internal/config"
	"macrocli/internal/dataprocessing"
)

// FileValidator checks the pipeline directories and the raw inputs before a run
type FileValidator struct {
	logger *slog.Logger
}

// NewFileValidator creates a new file validator
func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{
		logger: logger,
	}
}

// SourceInputs lists the raw files a source reads and which of them exist
type SourceInputs struct {
	Source   dataprocessing.Source `json:"source"`
	Expected []string              `json:"expected"`
	Found    []string              `json:"found"`
}

// Absent reports whether none of the source's inputs exist
func (s SourceInputs) Absent() bool {
	return len(s.Found) == 0
}

// expectedInputs maps each source to its raw file names or glob patterns
func expectedInputs(source dataprocessing.Source) []string {
	switch source {
	case dataprocessing.SourceCPI:
		return []string{config.CPIRawFile}
	case dataprocessing.SourceEnergy:
		return []string{config.GasolineRawFile, config.DieselRawFile, config.CrudeRawFile}
	case dataprocessing.SourceLabor:
		return []string{config.UnemploymentTotalRawFile, config.UnemploymentMenRawFile, config.UnemploymentWomenRawFile}
	case dataprocessing.SourceNews:
		return []string{config.NewsRawPattern, config.NewsRawArchive}
	default:
		return nil
	}
}

// ValidateInputDirectory validates that the raw directory exists
func (v *FileValidator) ValidateInputDirectory(dir string) error {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		v.logger.Warn("raw_dir_missing", slog.String("directory", dir))
		return fmt.Errorf("input directory %s does not exist", dir)
	}
	if err != nil {
		return fmt.Errorf("failed to stat directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}
	return nil
}

// ValidateOutputDirectory ensures output directory exists and is writable
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		v.logger.Error("output_dir_create_failed",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	testFile := filepath.Join(dir, ".write_test")
	file, err := os.Create(testFile)
	if err != nil {
		v.logger.Error("output_dir_not_writable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("output directory %s is not writable: %w", dir, err)
	}
	file.Close()
	os.Remove(testFile)
	return nil
}

// CheckSources looks up the raw inputs of sources in rawDir. Absent inputs are
// not an error: the parser reports them and the merge skips the empty table.
func (v *FileValidator) CheckSources(rawDir string, sources ...dataprocessing.Source) ([]SourceInputs, error) {
	if len(sources) == 0 {
		sources = dataprocessing.Sources()
	}

	report := make([]SourceInputs, 0, len(sources))
	for _, src := range sources {
		inputs := SourceInputs{Source: src, Expected: expectedInputs(src), Found: []string{}}
		for _, pattern := range inputs.Expected {
			matches, err := filepath.Glob(filepath.Join(rawDir, pattern))
			if err != nil {
				return nil, fmt.Errorf("failed to check for files: %w", err)
			}
			for _, m := range matches {
				if info, err := os.Stat(m); err == nil && !info.IsDir() {
					inputs.Found = append(inputs.Found, filepath.Base(m))
				}
			}
		}

		if inputs.Absent() {
			v.logger.Warn("raw_input_missing",
				slog.String("source", string(src)),
				slog.Any("expected", inputs.Expected))
		} else {
			v.logger.Debug("raw_input_found",
				slog.String("source", string(src)),
				slog.Int("files", len(inputs.Found)))
		}
		report = append(report, inputs)
	}
	return report, nil
}
