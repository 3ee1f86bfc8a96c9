package models_test

import (
	"testing"
	"time"

	"github.com/hoopmetrics/playbook/pkg/models"
	"github.com/stretchr/testify/assert"
)

func TestWorkflowDuration(t *testing.T) {
	t.Parallel()

	start := time.Date(2025, 10, 14, 3, 0, 0, 0, time.UTC)
	end := start.Add(90 * time.Second)

	workflow := &models.Workflow{StartTime: &start, EndTime: &end}
	assert.Equal(t, 90*time.Second, workflow.Duration())

	assert.Zero(t, (&models.Workflow{StartTime: &start}).Duration())
	assert.Zero(t, (&models.Workflow{}).Duration())
}

func TestWorkflowStepResults(t *testing.T) {
	t.Parallel()

	workflow := &models.Workflow{
		Steps: []*models.WorkflowStep{
			{Name: "fetch", Result: map[string]any{"games": 12}},
			{Name: "validate"},
			{Name: "load", Result: "ok"},
		},
	}

	results := workflow.StepResults()
	assert.Len(t, results, 2)
	assert.Equal(t, "ok", results["load"])
	assert.NotContains(t, results, "validate")
}

func TestWorkflowIsTerminal(t *testing.T) {
	t.Parallel()

	terminal := []models.WorkflowStatus{
		models.WorkflowStatusCompleted,
		models.WorkflowStatusFailed,
		models.WorkflowStatusCancelled,
	}
	for _, status := range terminal {
		assert.True(t, (&models.Workflow{Status: status}).IsTerminal(), string(status))
	}

	active := []models.WorkflowStatus{
		models.WorkflowStatusCreated,
		models.WorkflowStatusRunning,
		models.WorkflowStatusPaused,
	}
	for _, status := range active {
		assert.False(t, (&models.Workflow{Status: status}).IsTerminal(), string(status))
	}
}

func TestWorkflowClone(t *testing.T) {
	t.Parallel()

	workflow := &models.Workflow{
		ID:   "wf-clone",
		Name: "nightly sync",
		Steps: []*models.WorkflowStep{
			{Name: "fetch", Action: "http_request", Status: models.StepStatusCompleted, Attempt: 1},
			{Name: "load", Action: "log", Status: models.StepStatusPending},
		},
		Status:   models.WorkflowStatusRunning,
		Metadata: map[string]any{"persist_failures": 1},
	}

	clone := workflow.Clone()

	assert.Equal(t, workflow.ID, clone.ID)
	assert.Equal(t, models.WorkflowStatusRunning, clone.Status)
	assert.Equal(t, 1, clone.Metadata["persist_failures"])

	// Mutating the original after cloning must not show through.
	workflow.Status = models.WorkflowStatusCompleted
	workflow.Steps[1].Status = models.StepStatusRunning
	workflow.Steps[1].Attempt = 3
	workflow.Metadata["persist_failures"] = 2

	assert.Equal(t, models.WorkflowStatusRunning, clone.Status)
	assert.Equal(t, models.StepStatusPending, clone.Steps[1].Status)
	assert.Zero(t, clone.Steps[1].Attempt)
	assert.Equal(t, 1, clone.Metadata["persist_failures"])
}

func TestStepApplyDefaults(t *testing.T) {
	t.Parallel()

	step := &models.WorkflowStep{Name: "fetch", Action: "http_request"}
	step.ApplyDefaults()

	assert.Equal(t, models.DefaultStepTimeoutSeconds, step.TimeoutSeconds)
	assert.Equal(t, models.DefaultStepRetryDelaySeconds, step.RetryDelaySeconds)
	assert.Equal(t, models.StepStatusPending, step.Status)
}

func TestStepApplyDefaults_KeepsExplicitValues(t *testing.T) {
	t.Parallel()

	step := &models.WorkflowStep{
		Name:              "fetch",
		Action:            "http_request",
		TimeoutSeconds:    30,
		RetryDelaySeconds: 1,
		Status:            models.StepStatusCompleted,
	}
	step.ApplyDefaults()

	assert.Equal(t, 30, step.TimeoutSeconds)
	assert.Equal(t, 1, step.RetryDelaySeconds)
	assert.Equal(t, models.StepStatusCompleted, step.Status)
}

func TestStepDurationsFromConfig(t *testing.T) {
	t.Parallel()

	step := &models.WorkflowStep{TimeoutSeconds: 30, RetryDelaySeconds: 5}

	assert.Equal(t, 30*time.Second, step.Timeout())
	assert.Equal(t, 5*time.Second, step.RetryDelay())
}

func TestNewTriggerEvent(t *testing.T) {
	t.Parallel()

	event := models.NewTriggerEvent(models.TriggerProcessComplete, "drift_monitor", map[string]any{"psi": 0.02})

	assert.NotEmpty(t, event.ID)
	assert.Equal(t, models.TriggerProcessComplete, event.EventType)
	assert.Equal(t, "drift_monitor", event.Source)
	assert.WithinDuration(t, time.Now().UTC(), event.Timestamp, time.Minute)
	assert.Equal(t, 0.02, event.Data["psi"])

	// IDs are unique per event.
	other := models.NewTriggerEvent(models.TriggerProcessComplete, "drift_monitor", nil)
	assert.NotEqual(t, event.ID, other.ID)
}
