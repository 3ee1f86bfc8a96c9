package models

import "time"

// StepStatus represents the lifecycle state of a single workflow step.
type StepStatus string

const (
	StepStatusPending         StepStatus = "pending"
	StepStatusRunning         StepStatus = "running"
	StepStatusCompleted       StepStatus = "completed"
	StepStatusFailed          StepStatus = "failed"
	StepStatusSkipped         StepStatus = "skipped"
	StepStatusWaitingApproval StepStatus = "waiting_approval"
)

// Step configuration defaults applied by the YAML loader.
const (
	DefaultStepTimeoutSeconds    = 300
	DefaultStepRetryCount        = 0
	DefaultStepRetryDelaySeconds = 5
)

// WorkflowStep is one ordered unit of work inside a workflow. Configuration
// fields are immutable once created; runtime fields are mutated exclusively
// by the engine during execution.
type WorkflowStep struct {
	Name              string         `json:"name"                         yaml:"name"                validate:"required"`
	Action            string         `json:"action"                       yaml:"action"              validate:"required"`
	Description       string         `json:"description,omitempty"        yaml:"description"`
	Params            map[string]any `json:"params,omitempty"             yaml:"params"`
	RequiresApproval  bool           `json:"requires_approval"            yaml:"requires_approval"`
	ContinueOnFailure bool           `json:"continue_on_failure"          yaml:"continue_on_failure"`
	TimeoutSeconds    int            `json:"timeout_seconds"              yaml:"timeout_seconds"     validate:"gt=0"`
	RetryCount        int            `json:"retry_count"                  yaml:"retry_count"         validate:"gte=0"`
	RetryDelaySeconds int            `json:"retry_delay_seconds"          yaml:"retry_delay_seconds" validate:"gte=0"`

	Status    StepStatus `json:"status"`
	Result    any        `json:"result,omitempty"`
	Error     string     `json:"error,omitempty"`
	StartTime *time.Time `json:"start_time,omitempty"`
	EndTime   *time.Time `json:"end_time,omitempty"`
	Attempt   int        `json:"attempt"`
}

// Timeout returns the step timeout as a duration.
func (s *WorkflowStep) Timeout() time.Duration {
	return time.Duration(s.TimeoutSeconds) * time.Second
}

// RetryDelay returns the delay between retry attempts as a duration.
func (s *WorkflowStep) RetryDelay() time.Duration {
	return time.Duration(s.RetryDelaySeconds) * time.Second
}

// ApplyDefaults fills zero-valued configuration fields with their documented
// defaults. Called by the YAML loader and by the API when accepting
// definitions.
func (s *WorkflowStep) ApplyDefaults() {
	if s.TimeoutSeconds == 0 {
		s.TimeoutSeconds = DefaultStepTimeoutSeconds
	}

	if s.RetryDelaySeconds == 0 {
		s.RetryDelaySeconds = DefaultStepRetryDelaySeconds
	}

	if s.Status == "" {
		s.Status = StepStatusPending
	}
}
