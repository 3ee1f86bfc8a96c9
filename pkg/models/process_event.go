package models

import "time"

// ProcessStatus is the lifecycle state carried by a process notification.
type ProcessStatus string

const (
	ProcessStatusStarted         ProcessStatus = "started"
	ProcessStatusInProgress      ProcessStatus = "in_progress"
	ProcessStatusCompleted       ProcessStatus = "completed"
	ProcessStatusFailed          ProcessStatus = "failed"
	ProcessStatusPendingApproval ProcessStatus = "pending_approval"
	ProcessStatusApproved        ProcessStatus = "approved"
	ProcessStatusRejected        ProcessStatus = "rejected"
)

// EventSource identifies the subsystem a process notification originates from.
type EventSource string

const (
	SourceWorkflowEngine EventSource = "workflow_engine"
	SourceABTesting      EventSource = "ab_testing"
	SourceDriftMonitor   EventSource = "drift_monitor"
	SourceBookExtraction EventSource = "book_extraction"
	SourceSynthesis      EventSource = "synthesis"
	SourceTestRunner     EventSource = "test_runner"
	SourceScheduler      EventSource = "scheduler"
)

// ProcessEvent is a lifecycle notification for a named process, consumed by
// the notifier. ThreadTS carries the correlation handle used to group
// related messages in the destination channel.
type ProcessEvent struct {
	ProcessID   string         `json:"process_id"   validate:"required"`
	ProcessName string         `json:"process_name" validate:"required"`
	Status      ProcessStatus  `json:"status"       validate:"required"`
	Source      EventSource    `json:"source"`
	Timestamp   time.Time      `json:"timestamp"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	ThreadTS    string         `json:"thread_ts,omitempty"`
}
