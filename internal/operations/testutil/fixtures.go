package testutil

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"macrocli/internal/operations"
)

// CreateTestConfig returns a sequential configuration without retry delays
func CreateTestConfig() *operations.Config {
	return operations.NewConfigBuilder().
		WithExecutionMode(operations.ExecutionModeSequential).
		WithRetryConfig(operations.RetryConfig{
			MaxAttempts:  3,
			InitialDelay: time.Millisecond,
			MaxDelay:     5 * time.Millisecond,
			Multiplier:   2,
		}).
		Build()
}

// CreateSuccessfulStage creates a step that always succeeds
func CreateSuccessfulStage(id, name string, deps ...string) *MockStage {
	return &MockStage{
		IDValue:           id,
		NameValue:         name,
		DependenciesValue: deps,
	}
}

// CreateRecordingStage creates a step that records its ID when it runs
func CreateRecordingStage(rec *Recorder, id string, deps ...string) *MockStage {
	return &MockStage{
		IDValue:           id,
		NameValue:         id,
		DependenciesValue: deps,
		ExecuteFunc: func(ctx context.Context, state *operations.OperationState) error {
			rec.Record(id)
			return nil
		},
	}
}

// CreateFailingStage creates a step that always fails
func CreateFailingStage(id, name string, err error, deps ...string) *MockStage {
	if err == nil {
		err = errors.New("step failed")
	}

	return &MockStage{
		IDValue:           id,
		NameValue:         name,
		DependenciesValue: deps,
		ExecuteFunc: func(ctx context.Context, state *operations.OperationState) error {
			return err
		},
	}
}

// CreateRetryableStage creates a step that fails failCount times with a retryable error, then succeeds
func CreateRetryableStage(id, name string, failCount int, deps ...string) *MockStage {
	var attempts atomic.Int32

	return &MockStage{
		IDValue:           id,
		NameValue:         name,
		DependenciesValue: deps,
		ExecuteFunc: func(ctx context.Context, state *operations.OperationState) error {
			if int(attempts.Add(1)) <= failCount {
				return operations.NewExecutionError(id, errors.New("temporary failure"), true)
			}
			return nil
		},
	}
}

// CreateBlockingStage creates a step that waits until its context is done
func CreateBlockingStage(id, name string, started chan<- string, deps ...string) *MockStage {
	return &MockStage{
		IDValue:           id,
		NameValue:         name,
		DependenciesValue: deps,
		ExecuteFunc: func(ctx context.Context, state *operations.OperationState) error {
			if started != nil {
				started <- id
			}
			<-ctx.Done()
			return ctx.Err()
		},
	}
}
