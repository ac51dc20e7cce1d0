package operations_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"macrocli/internal/operations"
	"macrocli/internal/operations/testutil"
	"macrocli/internal/timeseries"
)

func newTestManager(t *testing.T, cfg *operations.Config, steps ...operations.Step) *operations.Manager {
	t.Helper()
	registry := operations.NewRegistry()
	for _, s := range steps {
		require.NoError(t, registry.Register(s))
	}
	window, err := timeseries.NewWindow("2016-01-01", "2025-12-31")
	require.NoError(t, err)
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	return operations.NewManager(registry, cfg, window, nil, logger)
}

func statusOf(resp *operations.OperationResponse, id string) operations.StepStatus {
	if s, ok := resp.Steps[id]; ok {
		return s.Status
	}
	return ""
}

func TestManagerExecute_DependencyOrder(t *testing.T) {
	rec := &testutil.Recorder{}
	m := newTestManager(t, testutil.CreateTestConfig(),
		testutil.CreateRecordingStage(rec, "merge", "clean_a", "clean_b"),
		testutil.CreateRecordingStage(rec, "clean_a"),
		testutil.CreateRecordingStage(rec, "clean_b"),
	)

	resp, err := m.Execute(context.Background(), operations.OperationRequest{ID: "run-1"})
	require.NoError(t, err)

	assert.Equal(t, "run-1", resp.ID)
	assert.Equal(t, operations.OperationStatusCompleted, resp.Status)
	assert.Equal(t, []string{"clean_a", "clean_b", "merge"}, rec.Order())
	for _, id := range []string{"clean_a", "clean_b", "merge"} {
		assert.Equal(t, operations.StepStatusCompleted, statusOf(resp, id), id)
	}
}

func TestManagerExecute_ParallelWave(t *testing.T) {
	var arrived sync.WaitGroup
	arrived.Add(2)
	rendezvous := func(ctx context.Context, state *operations.OperationState) error {
		arrived.Done()
		done := make(chan struct{})
		go func() {
			arrived.Wait()
			close(done)
		}()
		select {
		case <-done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	cfg := testutil.CreateTestConfig()
	cfg.ExecutionMode = operations.ExecutionModeParallel
	cfg.DefaultTimeout = 5 * time.Second

	rec := &testutil.Recorder{}
	m := newTestManager(t, cfg,
		&testutil.MockStage{IDValue: "clean_a", NameValue: "a", ExecuteFunc: rendezvous},
		&testutil.MockStage{IDValue: "clean_b", NameValue: "b", ExecuteFunc: rendezvous},
		testutil.CreateRecordingStage(rec, "merge", "clean_a", "clean_b"),
	)

	resp, err := m.Execute(context.Background(), operations.OperationRequest{})
	require.NoError(t, err, "both sources must be running at the same time")
	assert.Equal(t, operations.StepStatusCompleted, statusOf(resp, "clean_a"))
	assert.Equal(t, operations.StepStatusCompleted, statusOf(resp, "clean_b"))
	assert.Equal(t, []string{"merge"}, rec.Order())
	assert.NotEmpty(t, resp.ID, "a run id is generated")
}

func TestManagerExecute_ContinueOnError(t *testing.T) {
	rec := &testutil.Recorder{}
	m := newTestManager(t, testutil.CreateTestConfig(),
		testutil.CreateFailingStage("clean_a", "a", errors.New("disk full")),
		testutil.CreateRecordingStage(rec, "clean_b"),
		testutil.CreateRecordingStage(rec, "merge", "clean_a", "clean_b"),
	)

	resp, err := m.Execute(context.Background(), operations.OperationRequest{})
	require.NoError(t, err)

	assert.Equal(t, operations.StepStatusFailed, statusOf(resp, "clean_a"))
	assert.Contains(t, resp.Steps["clean_a"].Message, "disk full")
	assert.Equal(t, []string{"clean_b", "merge"}, rec.Order())
}

func TestManagerExecute_StopOnError(t *testing.T) {
	cfg := testutil.CreateTestConfig()
	cfg.ContinueOnError = false

	rec := &testutil.Recorder{}
	m := newTestManager(t, cfg,
		testutil.CreateFailingStage("clean_a", "a", errors.New("boom")),
		testutil.CreateRecordingStage(rec, "clean_b"),
		testutil.CreateRecordingStage(rec, "merge", "clean_a", "clean_b"),
	)

	resp, err := m.Execute(context.Background(), operations.OperationRequest{})
	require.Error(t, err)
	assert.Equal(t, operations.ErrorTypeExecution, operations.GetErrorType(err))

	assert.Equal(t, operations.OperationStatusFailed, resp.Status)
	assert.Empty(t, rec.Order())
	assert.Equal(t, operations.StepStatusSkipped, statusOf(resp, "clean_b"))
	assert.Equal(t, operations.StepStatusSkipped, statusOf(resp, "merge"))
}

func TestManagerExecute_FatalErrorStops(t *testing.T) {
	rec := &testutil.Recorder{}
	fatal := operations.NewFatalError("merge", "merge failed", errors.New("no data"))
	m := newTestManager(t, testutil.CreateTestConfig(),
		testutil.CreateFailingStage("merge", "merge", fatal),
		testutil.CreateRecordingStage(rec, "export", "merge"),
	)

	resp, err := m.Execute(context.Background(), operations.OperationRequest{})
	require.Error(t, err)
	assert.True(t, operations.IsFatal(err))
	assert.Equal(t, operations.OperationStatusFailed, resp.Status)
	assert.Empty(t, rec.Order())
	assert.Equal(t, operations.StepStatusSkipped, statusOf(resp, "export"))
}

func TestManagerExecute_Retry(t *testing.T) {
	step := testutil.CreateRetryableStage("clean_a", "a", 2)
	m := newTestManager(t, testutil.CreateTestConfig(), step)

	resp, err := m.Execute(context.Background(), operations.OperationRequest{})
	require.NoError(t, err)
	assert.Equal(t, operations.StepStatusCompleted, statusOf(resp, "clean_a"))
	assert.Equal(t, 3, resp.Steps["clean_a"].Attempts)
	assert.Equal(t, 3, step.GetExecuteCalls())
}

func TestManagerExecute_NonRetryableRunsOnce(t *testing.T) {
	step := testutil.CreateFailingStage("clean_a", "a", nil)
	m := newTestManager(t, testutil.CreateTestConfig(), step)

	_, err := m.Execute(context.Background(), operations.OperationRequest{})
	require.NoError(t, err)
	assert.Equal(t, 1, step.GetExecuteCalls())
}

func TestManagerExecute_Timeout(t *testing.T) {
	cfg := testutil.CreateTestConfig()
	cfg.ContinueOnError = false
	cfg.SetStageTimeout("slow", 20*time.Millisecond)

	m := newTestManager(t, cfg, testutil.CreateBlockingStage("slow", "slow", nil))

	resp, err := m.Execute(context.Background(), operations.OperationRequest{})
	require.Error(t, err)
	assert.Equal(t, operations.ErrorTypeTimeout, operations.GetErrorType(err))
	assert.Equal(t, operations.StepStatusFailed, statusOf(resp, "slow"))
}

func TestManagerExecute_Cancellation(t *testing.T) {
	started := make(chan string, 1)
	rec := &testutil.Recorder{}
	m := newTestManager(t, testutil.CreateTestConfig(),
		testutil.CreateBlockingStage("clean_a", "a", started),
		testutil.CreateRecordingStage(rec, "merge", "clean_a"),
	)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	resp, err := m.Execute(ctx, operations.OperationRequest{})
	require.Error(t, err)
	assert.Equal(t, operations.ErrorTypeCancellation, operations.GetErrorType(err))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, operations.OperationStatusCancelled, resp.Status)
	assert.Empty(t, rec.Order())
}

func TestManagerExecute_SelectedSteps(t *testing.T) {
	rec := &testutil.Recorder{}
	m := newTestManager(t, testutil.CreateTestConfig(),
		testutil.CreateRecordingStage(rec, "clean_a"),
		testutil.CreateRecordingStage(rec, "merge", "clean_a"),
	)

	resp, err := m.Execute(context.Background(), operations.OperationRequest{Steps: []string{"merge"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"merge"}, rec.Order(), "dependencies outside the run are not required")
	assert.NotContains(t, resp.Steps, "clean_a")

	_, err = m.Execute(context.Background(), operations.OperationRequest{Steps: []string{"nope"}})
	assert.ErrorIs(t, err, operations.ErrStepNotFound)
}

func TestManagerExecute_ValidationFailure(t *testing.T) {
	step := &testutil.MockStage{
		IDValue:      "clean_a",
		NameValue:    "a",
		ValidateFunc: func(*operations.OperationState) error { return errors.New("raw dir missing") },
	}
	m := newTestManager(t, testutil.CreateTestConfig(), step)

	resp, err := m.Execute(context.Background(), operations.OperationRequest{})
	require.NoError(t, err)
	assert.Equal(t, operations.StepStatusSkipped, statusOf(resp, "clean_a"))
	assert.Equal(t, 0, step.GetExecuteCalls())
}

func TestManagerExecute_WritesManifest(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run_manifest.json")
	cfg := testutil.CreateTestConfig()
	cfg.ManifestPath = path

	m := newTestManager(t, cfg,
		testutil.CreateSuccessfulStage("clean_a", "Clean a"),
		testutil.CreateFailingStage("clean_b", "Clean b", errors.New("bad header")),
	)

	_, err := m.Execute(context.Background(), operations.OperationRequest{ID: "run-42"})
	require.NoError(t, err)

	manifest, err := operations.LoadManifestFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "run-42", manifest.RunID)
	assert.Equal(t, "completed", manifest.Status)
	assert.Equal(t, operations.WindowInfo{Start: "2016-01-01", End: "2025-12-31"}, manifest.Window)
	require.Len(t, manifest.Stages, 2)

	byID := map[string]operations.StageExecution{}
	for _, s := range manifest.Stages {
		byID[s.StageID] = s
	}
	assert.Equal(t, operations.StepStatusCompleted, byID["clean_a"].Status)
	assert.NotEmpty(t, byID["clean_a"].Duration)
	assert.Equal(t, operations.StepStatusFailed, byID["clean_b"].Status)
	assert.Contains(t, byID["clean_b"].Error, "bad header")
}
