package operations

import (
	"sort"
	"sync"
	"time"

	"macrocli/internal/dataprocessing"
	"macrocli/internal/timeseries"
)

// OperationStatusValue represents the overall operation status enum
type OperationStatusValue string

const (
	OperationStatusPending   OperationStatusValue = "pending"
	OperationStatusRunning   OperationStatusValue = "running"
	OperationStatusCompleted OperationStatusValue = "completed"
	OperationStatusFailed    OperationStatusValue = "failed"
	OperationStatusCancelled OperationStatusValue = "cancelled"
)

// OperationState represents the complete state of an operation execution.
// Steps exchange tables through Context; the manifest records what they produced.
type OperationState struct {
	mu sync.RWMutex

	ID        string               `json:"id"`
	Status    OperationStatusValue `json:"status"`
	StartTime time.Time            `json:"start_time"`
	EndTime   *time.Time           `json:"end_time,omitempty"`

	Steps    map[string]*StepState `json:"steps"`
	Context  map[string]any        `json:"-"`
	Manifest *PipelineManifest     `json:"-"`

	Error error `json:"-"`
}

// NewOperationState creates a new operation state
func NewOperationState(id string) *OperationState {
	return &OperationState{
		ID:        id,
		Status:    OperationStatusPending,
		StartTime: time.Now(),
		Steps:     make(map[string]*StepState),
		Context:   make(map[string]any),
	}
}

// Start marks the operation as running
func (p *OperationState) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Status = OperationStatusRunning
	p.StartTime = time.Now()
}

// Complete marks the operation as completed
func (p *OperationState) Complete() {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := time.Now()
	p.EndTime = &now
	p.Status = OperationStatusCompleted
}

// Fail marks the operation as failed
func (p *OperationState) Fail(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := time.Now()
	p.EndTime = &now
	p.Status = OperationStatusFailed
	p.Error = err
}

// Cancel marks the operation as cancelled
func (p *OperationState) Cancel() {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := time.Now()
	p.EndTime = &now
	p.Status = OperationStatusCancelled
}

// GetStatus returns the overall status
func (p *OperationState) GetStatus() OperationStatusValue {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.Status
}

// GetStage returns the state of a specific Step
func (p *OperationState) GetStage(stageID string) *StepState {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.Steps[stageID]
}

// SetStage updates the state of a specific Step
func (p *OperationState) SetStage(stageID string, state *StepState) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Steps[stageID] = state
}

// GetContext retrieves a value from the operation context
func (p *OperationState) GetContext(key string) (any, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	val, ok := p.Context[key]
	return val, ok
}

// SetContext sets a value in the operation context
func (p *OperationState) SetContext(key string, value any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Context[key] = value
}

// SetTable stores the cleaned table of a source for downstream steps
func (p *OperationState) SetTable(source dataprocessing.Source, t *timeseries.Table) {
	p.SetContext(TableContextKey(source), t)
}

// GetTable returns the cleaned table of a source produced earlier in this run
func (p *OperationState) GetTable(source dataprocessing.Source) (*timeseries.Table, bool) {
	v, ok := p.GetContext(TableContextKey(source))
	if !ok {
		return nil, false
	}
	t, ok := v.(*timeseries.Table)
	return t, ok && t != nil
}

// Duration returns the duration of the operation execution
func (p *OperationState) Duration() time.Duration {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.EndTime != nil {
		return p.EndTime.Sub(p.StartTime)
	}
	return time.Since(p.StartTime)
}

// stagesWithStatus returns the IDs of steps in status, sorted
func (p *OperationState) stagesWithStatus(status StepStatus) []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	var ids []string
	for id, step := range p.Steps {
		if step.GetStatus() == status {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// GetCompletedStages returns the IDs of completed steps
func (p *OperationState) GetCompletedStages() []string {
	return p.stagesWithStatus(StepStatusCompleted)
}

// GetFailedStages returns the IDs of failed steps
func (p *OperationState) GetFailedStages() []string {
	return p.stagesWithStatus(StepStatusFailed)
}

// HasFailures returns true if any Step has failed
func (p *OperationState) HasFailures() bool {
	return len(p.GetFailedStages()) > 0
}

// IsComplete returns true if no Step is pending or active
func (p *OperationState) IsComplete() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, step := range p.Steps {
		if s := step.GetStatus(); s == StepStatusPending || s == StepStatusActive {
			return false
		}
	}
	return true
}

// Snapshot returns copies of the Step states safe to hand to callers
func (p *OperationState) Snapshot() map[string]*StepState {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make(map[string]*StepState, len(p.Steps))
	for k, v := range p.Steps {
		v.mu.RLock()
		cp := &StepState{
			ID:        v.ID,
			Name:      v.Name,
			Status:    v.Status,
			StartTime: v.StartTime,
			EndTime:   v.EndTime,
			Attempts:  v.Attempts,
			Message:   v.Message,
			Error:     v.Error,
			Metadata:  make(map[string]any, len(v.Metadata)),
		}
		for mk, mv := range v.Metadata {
			cp.Metadata[mk] = mv
		}
		v.mu.RUnlock()
		out[k] = cp
	}
	return out
}
