// Package models defines the core domain models for workflow orchestration.
package models

import "time"

// WorkflowStatus represents the lifecycle state of a workflow execution.
type WorkflowStatus string

const (
	WorkflowStatusCreated   WorkflowStatus = "created"
	WorkflowStatusRunning   WorkflowStatus = "running"
	WorkflowStatusPaused    WorkflowStatus = "paused"
	WorkflowStatusCompleted WorkflowStatus = "completed"
	WorkflowStatusFailed    WorkflowStatus = "failed"
	WorkflowStatusCancelled WorkflowStatus = "cancelled"
)

// MetadataPersistFailures counts snapshot writes that failed during execution.
// Persistence is best-effort; the counter makes outages visible to operators.
const MetadataPersistFailures = "persist_failures"

// Workflow is an ordered sequence of steps executed as one logical process.
// The engine owns all runtime fields while the workflow is executing.
type Workflow struct {
	ID          string          `json:"workflow_id"           yaml:"workflow_id"`
	Name        string          `json:"name"                  yaml:"name"         validate:"required,min=3"`
	Description string          `json:"description,omitempty" yaml:"description"`
	Steps       []*WorkflowStep `json:"steps"                 yaml:"steps"        validate:"required,min=1,dive"`
	Source      string          `json:"source,omitempty"      yaml:"source"`
	NotifySlack bool            `json:"notify_slack"          yaml:"notify_slack"`
	SaveState   bool            `json:"save_state"            yaml:"save_state"`

	Status           WorkflowStatus `json:"status"`
	CurrentStepIndex int            `json:"current_step_index"`
	StartTime        *time.Time     `json:"start_time,omitempty"`
	EndTime          *time.Time     `json:"end_time,omitempty"`
	Metadata         map[string]any `json:"metadata,omitempty"`
}

// Duration returns the total wall-clock execution time, or 0 when either
// boundary timestamp is missing.
func (w *Workflow) Duration() time.Duration {
	if w.StartTime == nil || w.EndTime == nil {
		return 0
	}

	return w.EndTime.Sub(*w.StartTime)
}

// StepResults aggregates non-nil step results keyed by step name.
func (w *Workflow) StepResults() map[string]any {
	results := make(map[string]any)

	for _, step := range w.Steps {
		if step.Result != nil {
			results[step.Name] = step.Result
		}
	}

	return results
}

// Clone returns a copy safe to serialize while the engine keeps mutating
// the original: the step list and metadata map are copied. Step params
// and results are shared.
func (w *Workflow) Clone() *Workflow {
	clone := *w
	clone.Steps = make([]*WorkflowStep, len(w.Steps))

	for i, step := range w.Steps {
		copied := *step
		clone.Steps[i] = &copied
	}

	if w.Metadata != nil {
		clone.Metadata = make(map[string]any, len(w.Metadata))
		for key, value := range w.Metadata {
			clone.Metadata[key] = value
		}
	}

	return &clone
}

// IsTerminal reports whether the workflow reached a final state.
func (w *Workflow) IsTerminal() bool {
	switch w.Status {
	case WorkflowStatusCompleted, WorkflowStatusFailed, WorkflowStatusCancelled:
		return true
	default:
		return false
	}
}
