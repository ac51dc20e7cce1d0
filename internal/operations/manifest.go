package operations

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"
	"time"

	"macrocli/internal/config"
	"macrocli/internal/dataprocessing"
	"macrocli/internal/files"
	"macrocli/internal/timeseries"
)

// PipelineManifest records what one run did: the window, how each step
// ended, the tables written and the per source record counts.
// It is the single source of truth written to run_manifest.json.
type PipelineManifest struct {
	mu sync.RWMutex

	RunID     string     `json:"run_id"`
	Version   string     `json:"version"`
	StartTime time.Time  `json:"start_time"`
	EndTime   *time.Time `json:"end_time,omitempty"`
	Window    WindowInfo `json:"window"`

	Stages  []StageExecution                                       `json:"stages"`
	Tables  map[string]*TableInfo                                  `json:"tables"`
	Sources map[dataprocessing.Source]*dataprocessing.SourceReport `json:"sources"`

	Status string `json:"status"` // "pending", "running", "completed", "failed"
	Error  string `json:"error,omitempty"`
}

// WindowInfo is the analysis window as written in the manifest
type WindowInfo struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// TableInfo describes a table written by a step
type TableInfo struct {
	Name      string    `json:"name"`
	Path      string    `json:"path"`
	Rows      int       `json:"rows"`
	Columns   []string  `json:"columns"`
	From      string    `json:"from,omitempty"`
	To        string    `json:"to,omitempty"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

// StageExecution tracks the execution of a single stage
type StageExecution struct {
	StageID   string     `json:"stage_id"`
	StageName string     `json:"stage_name"`
	StartTime time.Time  `json:"start_time"`
	EndTime   *time.Time `json:"end_time,omitempty"`
	Duration  string     `json:"duration,omitempty"`
	Status    StepStatus `json:"status"`
	Error     string     `json:"error,omitempty"`
}

// NewPipelineManifest creates a new pipeline manifest
func NewPipelineManifest(runID string, window timeseries.Window) *PipelineManifest {
	return &PipelineManifest{
		RunID:     runID,
		Version:   config.AppVersion,
		StartTime: time.Now(),
		Window: WindowInfo{
			Start: window.Start.Format(timeseries.DateLayout),
			End:   window.End.Format(timeseries.DateLayout),
		},
		Stages:  []StageExecution{},
		Tables:  make(map[string]*TableInfo),
		Sources: make(map[dataprocessing.Source]*dataprocessing.SourceReport),
		Status:  "pending",
	}
}

// stage returns the entry for stageID, creating it when missing.
// Callers hold the write lock.
func (m *PipelineManifest) stage(stageID, stageName string) *StageExecution {
	for i := range m.Stages {
		if m.Stages[i].StageID == stageID {
			return &m.Stages[i]
		}
	}
	m.Stages = append(m.Stages, StageExecution{
		StageID:   stageID,
		StageName: stageName,
		Status:    StepStatusPending,
	})
	return &m.Stages[len(m.Stages)-1]
}

// RecordStageStart records the start of a stage execution. A retry reuses the entry.
func (m *PipelineManifest) RecordStageStart(stageID, stageName string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.stage(stageID, stageName)
	s.StartTime = time.Now()
	s.EndTime = nil
	s.Status = StepStatusActive
	s.Error = ""
	m.Status = "running"
}

// RecordStageEnd records how a stage finished
func (m *PipelineManifest) RecordStageEnd(stageID string, status StepStatus, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.stage(stageID, stageID)
	now := time.Now()
	s.EndTime = &now
	if !s.StartTime.IsZero() {
		s.Duration = now.Sub(s.StartTime).String()
	}
	s.Status = status
	if err != nil {
		s.Error = err.Error()
	}
}

// RecordStageSkip records a stage that never ran
func (m *PipelineManifest) RecordStageSkip(stageID, stageName, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.stage(stageID, stageName)
	s.Status = StepStatusSkipped
	s.Error = reason
}

// IsStageCompleted checks if a stage has been completed
func (m *PipelineManifest) IsStageCompleted(stageID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, stage := range m.Stages {
		if stage.StageID == stageID && stage.Status == StepStatusCompleted {
			return true
		}
	}
	return false
}

// AddSourceReport records the parse summary of a source
func (m *PipelineManifest) AddSourceReport(report *dataprocessing.SourceReport) {
	if report == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sources[report.Source] = report
}

// AddTable records a table written to path by stageID
func (m *PipelineManifest) AddTable(name, path, stageID string, t *timeseries.Table) {
	info := &TableInfo{
		Name:      name,
		Path:      path,
		Rows:      t.Len(),
		Columns:   t.Columns(),
		CreatedBy: stageID,
		CreatedAt: time.Now(),
	}
	if months := t.Months(); len(months) > 0 {
		info.From = months[0].Format(timeseries.MonthLayout)
		info.To = months[len(months)-1].Format(timeseries.MonthLayout)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.Tables[name] = info
}

// GetTable returns the information recorded for a table
func (m *PipelineManifest) GetTable(name string) (*TableInfo, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	info, ok := m.Tables[name]
	return info, ok
}

// TableNames returns the recorded table names, sorted
func (m *PipelineManifest) TableNames() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.Tables))
	for name := range m.Tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Finish records the final status of the run
func (m *PipelineManifest) Finish(status OperationStatusValue, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	m.EndTime = &now
	m.Status = string(status)
	if err != nil {
		m.Error = err.Error()
	}
}

// WriteTo encodes the manifest as indented JSON
func (m *PipelineManifest) WriteTo(w io.Writer) (int64, error) {
	m.mu.RLock()
	data, err := json.MarshalIndent(m, "", "  ")
	m.mu.RUnlock()
	if err != nil {
		return 0, fmt.Errorf("failed to marshal manifest: %w", err)
	}
	n, err := w.Write(append(data, '\n'))
	return int64(n), err
}

// SaveToFile writes the manifest to path atomically
func (m *PipelineManifest) SaveToFile(manager *files.Manager, path string) error {
	err := manager.WriteAtomic(path, func(w io.Writer) error {
		_, err := m.WriteTo(w)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to write manifest file: %w", err)
	}
	return nil
}

// LoadManifestFromFile loads a manifest from a JSON file
func LoadManifestFromFile(path string) (*PipelineManifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest file: %w", err)
	}

	var manifest PipelineManifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("failed to unmarshal manifest: %w", err)
	}

	return &manifest, nil
}
