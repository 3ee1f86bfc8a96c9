// Package testutil provides test data builders shared across packages.
package testutil

import (
	"github.com/google/uuid"
	"github.com/hoopmetrics/playbook/pkg/models"
)

// CreateTestStep builds a WorkflowStep with sane defaults that overrides
// can adjust.
func CreateTestStep(overrides ...func(*models.WorkflowStep)) *models.WorkflowStep {
	step := &models.WorkflowStep{
		Name:              "test-step",
		Action:            "noop",
		Params:            map[string]any{},
		TimeoutSeconds:    models.DefaultStepTimeoutSeconds,
		RetryDelaySeconds: 0,
		Status:            models.StepStatusPending,
	}

	for _, override := range overrides {
		override(step)
	}

	return step
}

// CreateTestWorkflow builds a Workflow around the given steps. State saving
// and Slack notification are off by default so tests stay hermetic.
func CreateTestWorkflow(steps []*models.WorkflowStep, overrides ...func(*models.Workflow)) *models.Workflow {
	workflow := &models.Workflow{
		ID:          uuid.New().String(),
		Name:        "test workflow",
		Description: "workflow used in tests",
		Steps:       steps,
		Source:      string(models.SourceWorkflowEngine),
		Status:      models.WorkflowStatusCreated,
	}

	for _, override := range overrides {
		override(workflow)
	}

	return workflow
}

// WithAction sets the step's action name.
func WithAction(action string) func(*models.WorkflowStep) {
	return func(s *models.WorkflowStep) {
		s.Action = action
	}
}

// WithName sets the step's name.
func WithName(name string) func(*models.WorkflowStep) {
	return func(s *models.WorkflowStep) {
		s.Name = name
	}
}

// WithRetries configures the step's retry budget with no delay.
func WithRetries(count int) func(*models.WorkflowStep) {
	return func(s *models.WorkflowStep) {
		s.RetryCount = count
		s.RetryDelaySeconds = 0
	}
}

// WithContinueOnFailure marks the step's failure as tolerated.
func WithContinueOnFailure() func(*models.WorkflowStep) {
	return func(s *models.WorkflowStep) {
		s.ContinueOnFailure = true
	}
}

// WithTimeoutSeconds sets the step timeout.
func WithTimeoutSeconds(seconds int) func(*models.WorkflowStep) {
	return func(s *models.WorkflowStep) {
		s.TimeoutSeconds = seconds
	}
}
