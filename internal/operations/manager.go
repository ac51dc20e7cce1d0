package operations

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"macrocli/internal/files"
	"macrocli/internal/infrastructure"
	"macrocli/internal/timeseries"
)

// Manager orchestrates operation execution
type Manager struct {
	registry *Registry
	config   *Config
	tracer   *OperationTracer
	files    *files.Manager
	window   timeseries.Window
	logger   *slog.Logger
}

// NewManager creates a new operation manager. window is recorded in the run manifest.
func NewManager(registry *Registry, config *Config, window timeseries.Window, tracer *OperationTracer, logger *slog.Logger) *Manager {
	if registry == nil {
		registry = NewRegistry()
	}
	if config == nil {
		config = NewConfig()
	}
	if tracer == nil {
		tracer = NewNoopTracer()
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Manager{
		registry: registry,
		config:   config,
		tracer:   tracer,
		files:    files.NewManager(nil, logger),
		window:   window,
		logger:   infrastructure.WithComponent(logger, "pipeline"),
	}
}

// RegisterStage registers a Step with the operation
func (m *Manager) RegisterStage(step Step) error {
	return m.registry.Register(step)
}

// GetRegistry returns the registry for accessing registered stages
func (m *Manager) GetRegistry() *Registry {
	return m.registry
}

// GetConfig returns the current configuration
func (m *Manager) GetConfig() *Config {
	return m.config
}

// Execute runs the requested steps wave by wave. Steps within a wave run
// concurrently in parallel mode; a wave starts only when the previous one
// has finished.
func (m *Manager) Execute(ctx context.Context, req OperationRequest) (*OperationResponse, error) {
	if req.ID == "" {
		req.ID = infrastructure.GenerateTraceID()
	}
	ctx = infrastructure.WithTraceID(ctx, req.ID)

	state := NewOperationState(req.ID)
	state.Manifest = NewPipelineManifest(req.ID, m.window)

	levels, err := m.plan(req.Steps)
	if err != nil {
		m.logOperationError(ctx, req.ID, err)
		state.Fail(err)
		return m.createResponse(state), err
	}

	stepCount := 0
	for _, level := range levels {
		for _, step := range level {
			state.SetStage(step.ID(), NewStepState(step.ID(), step.Name()))
			stepCount++
		}
	}

	ctx, span := m.tracer.TraceOperationExecution(ctx, req.ID, stepCount)
	defer span.End()

	state.Start()
	m.logOperationStart(ctx, req.ID, stepCount, len(levels))

	for _, level := range levels {
		if err = m.executeLevel(ctx, state, level); err != nil {
			break
		}
	}

	m.skipRemaining(state, levels, "pipeline stopped")
	switch {
	case err != nil && ctx.Err() != nil:
		state.Cancel()
	case err != nil:
		state.Fail(err)
	default:
		state.Complete()
	}

	state.Manifest.Finish(state.GetStatus(), err)
	if m.config.ManifestPath != "" {
		if saveErr := state.Manifest.SaveToFile(m.files, m.config.ManifestPath); saveErr != nil {
			m.logger.ErrorContext(ctx, "manifest_write_failed",
				slog.String("path", m.config.ManifestPath),
				slog.String("error", saveErr.Error()))
			if err == nil {
				err = saveErr
			}
		}
	}

	m.tracer.RecordOperationCompletion(span, state.GetStatus(), state.Duration(), err)
	m.logOperationComplete(ctx, req.ID, state.Duration(), state.GetStatus())
	return m.createResponse(state), err
}

// plan returns the execution waves restricted to the requested step IDs
func (m *Manager) plan(ids []string) ([][]Step, error) {
	levels, err := m.registry.GetExecutionLevels()
	if err != nil {
		return nil, fmt.Errorf("failed to get dependency order: %w", err)
	}
	if len(ids) == 0 {
		return levels, nil
	}

	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		if !m.registry.Has(id) {
			return nil, fmt.Errorf("%w: %s", ErrStepNotFound, id)
		}
		wanted[id] = true
	}

	var selected [][]Step
	for _, level := range levels {
		var keep []Step
		for _, step := range level {
			if wanted[step.ID()] {
				keep = append(keep, step)
			}
		}
		if len(keep) > 0 {
			selected = append(selected, keep)
		}
	}
	return selected, nil
}

// executeLevel runs one wave of independent steps
func (m *Manager) executeLevel(ctx context.Context, state *OperationState, level []Step) error {
	if m.config.ExecutionMode == ExecutionModeParallel && len(level) > 1 {
		g, gctx := errgroup.WithContext(ctx)
		if m.config.MaxConcurrency > 0 {
			g.SetLimit(m.config.MaxConcurrency)
		}
		for _, step := range level {
			g.Go(func() error {
				return m.runStep(gctx, state, step)
			})
		}
		return g.Wait()
	}

	for _, step := range level {
		if err := ctx.Err(); err != nil {
			return NewCancellationError(step.ID(), err)
		}
		if err := m.runStep(ctx, state, step); err != nil {
			return err
		}
	}
	return nil
}

// runStep executes a step and decides whether its failure stops the pipeline
func (m *Manager) runStep(ctx context.Context, state *OperationState, step Step) error {
	err := m.executeStage(ctx, state, step)
	if err == nil {
		return nil
	}

	m.logStageError(ctx, state.ID, step.ID(), err)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return NewCancellationError(step.ID(), ctxErr)
	}
	if IsFatal(err) || !m.config.ContinueOnError {
		return err
	}

	m.logger.WarnContext(ctx, "stage_failed_continuing",
		slog.String("operation_id", state.ID),
		slog.String("step", step.ID()),
		slog.String("error", err.Error()))
	return nil
}

// executeStage executes a single Step with retry logic
func (m *Manager) executeStage(ctx context.Context, state *OperationState, step Step) error {
	stepState := state.GetStage(step.ID())
	if stepState == nil {
		return NewFatalError(step.ID(), "step state not found", nil)
	}

	if err := m.checkDependencies(state, step); err != nil {
		m.logger.WarnContext(ctx, "dependencies_not_met",
			slog.String("operation_id", state.ID),
			slog.String("step", step.ID()),
			slog.String("error", err.Error()))
		reason := fmt.Sprintf("dependencies not met: %v", err)
		stepState.Skip(reason)
		state.Manifest.RecordStageSkip(step.ID(), step.Name(), reason)
		return nil
	}

	if err := step.Validate(state); err != nil {
		reason := fmt.Sprintf("validation failed: %v", err)
		stepState.Skip(reason)
		state.Manifest.RecordStageSkip(step.ID(), step.Name(), reason)
		return NewValidationError(step.ID(), err.Error())
	}

	timeout := m.config.GetStageTimeout(step.ID())
	stageCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	stageCtx, span := m.tracer.TraceStageExecution(stageCtx, state.ID, step.ID())
	defer span.End()

	retryConfig := m.config.RetryConfig
	attempts := max(retryConfig.MaxAttempts, 1)
	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		stepState.Start()
		state.Manifest.RecordStageStart(step.ID(), step.Name())
		m.logStageStart(stageCtx, state.ID, step.ID(), attempt)

		startTime := time.Now()
		err := step.Execute(stageCtx, state)
		duration := time.Since(startTime)

		if err == nil {
			stepState.Complete()
			state.Manifest.RecordStageEnd(step.ID(), StepStatusCompleted, nil)
			m.tracer.RecordStageCompletion(stageCtx, span, step.ID(), duration, StepStatusCompleted, nil)
			m.logStageComplete(stageCtx, state.ID, step.ID(), duration)
			return nil
		}

		if errors.Is(stageCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			lastErr = NewTimeoutError(step.ID(), timeout.String())
			m.tracer.RecordStageCompletion(stageCtx, span, step.ID(), duration, StepStatusFailed, lastErr)
			break
		}

		lastErr = err
		m.tracer.RecordStageCompletion(stageCtx, span, step.ID(), duration, StepStatusFailed, err)
		if !IsRetryable(err) || attempt >= attempts {
			break
		}

		delay := m.calculateRetryDelay(attempt, retryConfig)
		m.logger.WarnContext(ctx, "stage_retry",
			slog.String("operation_id", state.ID),
			slog.String("step", step.ID()),
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", attempts),
			slog.Duration("delay", delay),
			slog.String("error", err.Error()))

		select {
		case <-time.After(delay):
		case <-stageCtx.Done():
			attempt = attempts
		}
	}

	stepState.Fail(lastErr)
	state.Manifest.RecordStageEnd(step.ID(), StepStatusFailed, lastErr)
	return WrapError(lastErr, step.ID(), "step execution failed")
}

// checkDependencies verifies that the dependencies taking part in this run
// have finished. A failed dependency is accepted when ContinueOnError is set.
func (m *Manager) checkDependencies(state *OperationState, step Step) error {
	for _, dep := range step.GetDependencies() {
		depState := state.GetStage(dep)
		if depState == nil {
			continue
		}
		switch status := depState.GetStatus(); status {
		case StepStatusCompleted:
		case StepStatusFailed:
			if !m.config.ContinueOnError {
				return NewDependencyError(step.ID(), dep, "dependency failed")
			}
		default:
			return NewDependencyError(step.ID(), dep, fmt.Sprintf("dependency not completed (status: %s)", status))
		}
	}
	return nil
}

// skipRemaining marks steps that never started as skipped
func (m *Manager) skipRemaining(state *OperationState, levels [][]Step, reason string) {
	for _, level := range levels {
		for _, step := range level {
			if s := state.GetStage(step.ID()); s != nil && s.GetStatus() == StepStatusPending {
				s.Skip(reason)
				state.Manifest.RecordStageSkip(step.ID(), step.Name(), reason)
			}
		}
	}
}

// calculateRetryDelay grows the delay geometrically up to MaxDelay
func (m *Manager) calculateRetryDelay(attempt int, config RetryConfig) time.Duration {
	multiplier := config.Multiplier
	if multiplier < 1 {
		multiplier = 1
	}
	delay := time.Duration(float64(config.InitialDelay) * math.Pow(multiplier, float64(attempt-1)))
	if config.MaxDelay > 0 && delay > config.MaxDelay {
		delay = config.MaxDelay
	}
	return delay
}

// createResponse creates an operation response from state
func (m *Manager) createResponse(state *OperationState) *OperationResponse {
	resp := &OperationResponse{
		ID:       state.ID,
		Status:   state.GetStatus(),
		Duration: state.Duration(),
		Steps:    state.Snapshot(),
		Manifest: state.Manifest,
	}

	if state.Error != nil {
		resp.Error = state.Error.Error()
	}

	return resp
}
