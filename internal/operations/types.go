package operations

import (
	"time"

	"macrocli/internal/dataprocessing"
)

// Pipeline step identifiers
const (
	StageIDMerge  = "merge"
	StageIDExport = "export"

	sourceStagePrefix = "clean_"
)

// Pipeline step names
const (
	StageNameMerge  = "Merge Sources"
	StageNameExport = "Workbook Export"
)

// SourceStageID returns the step identifier that cleans source
func SourceStageID(source dataprocessing.Source) string {
	return sourceStagePrefix + string(source)
}

// Context keys for operation state
const (
	ContextKeyFinalTable = "table:final"

	contextKeyTablePrefix = "table:"
)

// TableContextKey returns the state context key holding the cleaned table of source
func TableContextKey(source dataprocessing.Source) string {
	return contextKeyTablePrefix + string(source)
}

// Default timeouts
const (
	DefaultStageTimeout = 5 * time.Minute
	DefaultMergeTimeout = 2 * time.Minute
)

// ExecutionMode defines how independent steps are executed
type ExecutionMode string

const (
	ExecutionModeSequential ExecutionMode = "sequential"
	ExecutionModeParallel   ExecutionMode = "parallel"
)

// RetryConfig defines retry behavior for steps
type RetryConfig struct {
	MaxAttempts  int           `json:"max_attempts"`
	InitialDelay time.Duration `json:"initial_delay"`
	MaxDelay     time.Duration `json:"max_delay"`
	Multiplier   float64       `json:"multiplier"`
}

// NewRetryConfig returns the default retry configuration
func NewRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:  3,
		InitialDelay: 1 * time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}
}

// OperationRequest represents a request to execute the pipeline.
// An empty Steps list runs every registered step.
type OperationRequest struct {
	ID    string   `json:"id"`
	Steps []string `json:"steps,omitempty"`
}

// OperationResponse represents the response from an operation execution
type OperationResponse struct {
	ID       string                `json:"id"`
	Status   OperationStatusValue  `json:"status"`
	Duration time.Duration         `json:"duration"`
	Steps    map[string]*StepState `json:"steps"`
	Manifest *PipelineManifest     `json:"manifest,omitempty"`
	Error    string                `json:"error,omitempty"`
}
