package operations

import (
	"time"

	"macrocli/internal/config"
)

// Config represents the operation execution configuration
type Config struct {
	// Execution mode (sequential or parallel)
	ExecutionMode ExecutionMode `json:"execution_mode"`

	// Timeout applied to steps without an entry in StageTimeouts
	DefaultTimeout time.Duration `json:"default_timeout"`

	// Step-specific timeouts
	StageTimeouts map[string]time.Duration `json:"stage_timeouts"`

	// Retry configuration for retryable step errors
	RetryConfig RetryConfig `json:"retry_config"`

	// Whether to continue on non-fatal step failures
	ContinueOnError bool `json:"continue_on_error"`

	// Maximum concurrent steps within a wave (parallel mode)
	MaxConcurrency int `json:"max_concurrency"`

	// Where the run manifest is written; empty disables it
	ManifestPath string `json:"manifest_path"`
}

// NewConfig returns the default operation configuration
func NewConfig() *Config {
	return &Config{
		ExecutionMode:  ExecutionModeSequential,
		DefaultTimeout: DefaultStageTimeout,
		StageTimeouts: map[string]time.Duration{
			StageIDMerge: DefaultMergeTimeout,
		},
		RetryConfig:     NewRetryConfig(),
		ContinueOnError: true,
		MaxConcurrency:  4,
	}
}

// FromPipelineConfig derives the execution configuration from the application config
func FromPipelineConfig(cfg config.PipelineConfig, paths *config.Paths) *Config {
	c := NewConfig()
	if cfg.Parallel {
		c.ExecutionMode = ExecutionModeParallel
	}
	if cfg.StageTimeout > 0 {
		c.DefaultTimeout = cfg.StageTimeout
	}
	if paths != nil {
		c.ManifestPath = paths.RunManifest
	}
	return c
}

// GetStageTimeout returns the timeout for a specific Step
func (c *Config) GetStageTimeout(stageID string) time.Duration {
	if timeout, ok := c.StageTimeouts[stageID]; ok && timeout > 0 {
		return timeout
	}
	if c.DefaultTimeout > 0 {
		return c.DefaultTimeout
	}
	return DefaultStageTimeout
}

// SetStageTimeout sets the timeout for a specific Step
func (c *Config) SetStageTimeout(stageID string, timeout time.Duration) {
	if c.StageTimeouts == nil {
		c.StageTimeouts = make(map[string]time.Duration)
	}
	c.StageTimeouts[stageID] = timeout
}

// ConfigBuilder provides a fluent interface for building operation configurations
type ConfigBuilder struct {
	config *Config
}

// NewConfigBuilder creates a new configuration builder
func NewConfigBuilder() *ConfigBuilder {
	return &ConfigBuilder{
		config: NewConfig(),
	}
}

// WithExecutionMode sets the execution mode
func (b *ConfigBuilder) WithExecutionMode(mode ExecutionMode) *ConfigBuilder {
	b.config.ExecutionMode = mode
	return b
}

// WithStageTimeout sets the timeout for a Step
func (b *ConfigBuilder) WithStageTimeout(stageID string, timeout time.Duration) *ConfigBuilder {
	b.config.SetStageTimeout(stageID, timeout)
	return b
}

// WithRetryConfig sets the retry configuration
func (b *ConfigBuilder) WithRetryConfig(config RetryConfig) *ConfigBuilder {
	b.config.RetryConfig = config
	return b
}

// WithContinueOnError sets whether to continue on errors
func (b *ConfigBuilder) WithContinueOnError(continueOnError bool) *ConfigBuilder {
	b.config.ContinueOnError = continueOnError
	return b
}

// WithMaxConcurrency sets the maximum concurrency
func (b *ConfigBuilder) WithMaxConcurrency(maxConcurrency int) *ConfigBuilder {
	b.config.MaxConcurrency = maxConcurrency
	return b
}

// WithManifestPath sets where the run manifest is written
func (b *ConfigBuilder) WithManifestPath(path string) *ConfigBuilder {
	b.config.ManifestPath = path
	return b
}

// Build returns the built configuration
func (b *ConfigBuilder) Build() *Config {
	return b.config
}
