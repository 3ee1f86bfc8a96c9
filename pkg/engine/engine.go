// Package engine drives workflow execution: ordered steps with per-step
// timeout, retry, and failure-tolerance policy, best-effort state
// persistence, and lifecycle notification fan-out.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hoopmetrics/playbook/pkg/models"
	"github.com/hoopmetrics/playbook/pkg/otelhelper"
	"github.com/hoopmetrics/playbook/pkg/persistence"
	"github.com/hoopmetrics/playbook/pkg/protocol"
	"github.com/hoopmetrics/playbook/pkg/registry"
	"github.com/hoopmetrics/playbook/pkg/triggerbus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Engine executes workflows sequentially, one step at a time. Multiple
// workflows may execute concurrently in the same process; the running set
// and the trigger bus are the only shared state between them.
type Engine struct {
	registry *registry.Registry
	states   persistence.StateRepository
	notifier protocol.Notifier
	bus      *triggerbus.Bus
	tracer   trace.Tracer
	logger   *slog.Logger

	// mu guards the running set and every runtime field of the workflows in
	// it. Configuration fields are immutable during execution and read
	// lock-free.
	mu      sync.Mutex
	running map[string]*models.Workflow
}

// NewEngine wires the engine with its collaborators. The notifier and bus
// may be nil; the corresponding emissions are skipped.
func NewEngine(
	reg *registry.Registry,
	states persistence.StateRepository,
	notifier protocol.Notifier,
	bus *triggerbus.Bus,
	logger *slog.Logger,
) *Engine {
	return &Engine{
		registry: reg,
		states:   states,
		notifier: notifier,
		bus:      bus,
		tracer:   otel.Tracer("playbook/engine"),
		logger:   logger.With("module", "workflow_engine"),
		running:  make(map[string]*models.Workflow),
	}
}

// RegisterAction registers an action under a name. Last-write-wins.
func (e *Engine) RegisterAction(name string, action protocol.Action) {
	e.registry.Register(name, action)
}

// ExecuteWorkflow drives the workflow to completion, failure, or
// cancellation, mutating it in place. Returns true iff every step completed
// or failed with continue_on_failure set. Engine-internal defects aside, no
// error escapes: action failures are recorded on their steps.
func (e *Engine) ExecuteWorkflow(ctx context.Context, workflow *models.Workflow) bool {
	if workflow.ID == "" {
		workflow.ID = uuid.New().String()
	}

	logger := e.logger.With("workflow_id", workflow.ID, "workflow_name", workflow.Name)

	ctx, span := otelhelper.StartSpan(ctx, e.tracer, "workflow.execute",
		attribute.String(otelhelper.WorkflowIDKey, workflow.ID),
		attribute.String(otelhelper.WorkflowNameKey, workflow.Name),
		attribute.Int("playbook.workflow.steps", len(workflow.Steps)),
	)
	defer span.End()

	now := time.Now().UTC()
	workflow.Status = models.WorkflowStatusRunning
	workflow.StartTime = &now

	if workflow.Metadata == nil {
		workflow.Metadata = make(map[string]any)
	}

	e.mu.Lock()
	e.running[workflow.ID] = workflow
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		delete(e.running, workflow.ID)
		e.mu.Unlock()
	}()

	logger.Info("Starting workflow execution", "steps", len(workflow.Steps))
	e.notifyProcess(ctx, workflow, models.ProcessStatusStarted, map[string]any{
		"steps": len(workflow.Steps),
	})
	e.persistState(ctx, workflow, logger)

	var failedStep *models.WorkflowStep

	for index, step := range workflow.Steps {
		if e.isCancelled(workflow.ID) {
			logger.Info("Workflow cancelled, stopping execution", "at_step", index)
			span.SetAttributes(attribute.String("playbook.workflow.outcome", "cancelled"))

			return false
		}

		// Resumed workflows skip steps that already reached a terminal
		// disposition in a previous run.
		if step.Status == models.StepStatusCompleted ||
			(step.Status == models.StepStatusFailed && step.ContinueOnFailure) {
			continue
		}

		e.mu.Lock()
		workflow.CurrentStepIndex = index
		e.mu.Unlock()

		err := e.executeStep(ctx, workflow, step, logger)
		e.persistState(ctx, workflow, logger)

		if err != nil {
			if step.ContinueOnFailure {
				logger.Warn("Step failed, tolerated by continue_on_failure",
					"step", step.Name, "error", err)

				continue
			}

			failedStep = step

			break
		}
	}

	e.mu.Lock()

	if workflow.Status == models.WorkflowStatusCancelled {
		e.mu.Unlock()

		return false
	}

	end := time.Now().UTC()
	workflow.EndTime = &end

	if failedStep != nil {
		workflow.Status = models.WorkflowStatusFailed
	} else {
		workflow.Status = models.WorkflowStatusCompleted
	}

	e.mu.Unlock()

	if failedStep != nil {
		e.persistState(ctx, workflow, logger)

		logger.Error("Workflow failed",
			"failed_step", failedStep.Name,
			"error", failedStep.Error,
			"duration", workflow.Duration())

		span.SetStatus(codes.Error, failedStep.Error)
		span.SetAttributes(attribute.String("playbook.workflow.failed_step", failedStep.Name))

		if e.notifier != nil && workflow.NotifySlack {
			e.notifier.NotifyWorkflowFailed(ctx, workflow.ID, workflow.Name,
				failedStep.Name, failedStep.Error, workflow.Duration())
		}

		if e.bus != nil {
			e.bus.EmitProcessFailed(ctx, workflow.ID, workflow.Name, workflow.Source, failedStep.Error)
		}

		return false
	}

	e.persistState(ctx, workflow, logger)

	logger.Info("Workflow completed",
		"duration", workflow.Duration(),
		"steps", len(workflow.Steps))

	if e.notifier != nil && workflow.NotifySlack {
		e.notifier.NotifyWorkflowComplete(ctx, workflow.ID, workflow.Name,
			workflow.Duration(), len(workflow.Steps))
	}

	if e.bus != nil {
		e.bus.EmitProcessComplete(ctx, workflow.ID, workflow.Name, workflow.Source,
			workflow.StepResults())
	}

	return true
}

// executeStep runs one step through its retry budget. The returned error is
// the step's terminal failure; nil means the step completed.
func (e *Engine) executeStep(ctx context.Context, workflow *models.Workflow, step *models.WorkflowStep, logger *slog.Logger) error {
	stepLogger := logger.With("step", step.Name, "action", step.Action)

	ctx, span := otelhelper.StartSpan(ctx, e.tracer, "workflow.step",
		attribute.String(otelhelper.StepNameKey, step.Name),
		attribute.String(otelhelper.StepActionKey, step.Action),
	)
	defer span.End()

	if step.RequiresApproval {
		// Approval is requested but does not gate execution: the request is
		// fire-and-forget and the step proceeds immediately. External
		// callers approve or reject through the notification channel after
		// the fact.
		e.mu.Lock()
		step.Status = models.StepStatusWaitingApproval
		e.mu.Unlock()

		stepLogger.Warn("Step requires approval; requesting and proceeding without blocking")

		if e.notifier != nil && workflow.NotifySlack {
			e.notifier.RequestApproval(ctx, workflow.ID, step.Name, step.Description, 60)
		}
	}

	for {
		now := time.Now().UTC()

		e.mu.Lock()
		step.Status = models.StepStatusRunning
		step.StartTime = &now
		step.Attempt++
		e.mu.Unlock()

		stepLogger.Info("Executing step", "attempt", step.Attempt)
		e.notifyProcess(ctx, workflow, models.ProcessStatusInProgress, map[string]any{
			"step":    step.Name,
			"attempt": step.Attempt,
		})

		action, ok := e.registry.Resolve(step.Action)
		if !ok {
			// Registration errors are not retriable; no attempt at the
			// action was ever possible.
			err := fmt.Errorf("action %q is not registered", step.Action)
			e.failStep(step, err)
			otelhelper.SetError(span, err)

			return err
		}

		result, err := e.invoke(ctx, action, step, stepLogger)
		if err == nil {
			end := time.Now().UTC()

			e.mu.Lock()
			step.Status = models.StepStatusCompleted
			step.Result = result
			step.EndTime = &end
			step.Error = ""
			e.mu.Unlock()

			stepLogger.Info("Step completed", "attempt", step.Attempt)

			return nil
		}

		e.failStep(step, err)
		stepLogger.Error("Step attempt failed",
			"attempt", step.Attempt,
			"error", err)

		if step.Attempt > step.RetryCount {
			otelhelper.SetError(span, err, attribute.Int("playbook.step.attempts", step.Attempt))

			return err
		}

		stepLogger.Info("Retrying step",
			"delay_seconds", step.RetryDelaySeconds,
			"attempts_remaining", step.RetryCount-step.Attempt+1)

		select {
		case <-time.After(step.RetryDelay()):
		case <-ctx.Done():
			otelhelper.SetError(span, ctx.Err())

			return ctx.Err()
		}
	}
}

// invoke runs the action with a hard wall-clock timeout. The timeout holds
// even against an action that ignores its context and never returns; the
// abandoned goroutine is left to finish on its own.
func (e *Engine) invoke(ctx context.Context, action protocol.Action, step *models.WorkflowStep, logger *slog.Logger) (any, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, step.Timeout())
	defer cancel()

	type outcome struct {
		result any
		err    error
	}

	done := make(chan outcome, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("action panicked: %v", r)}
			}
		}()

		result, err := action.Execute(timeoutCtx, step.Params, logger)
		done <- outcome{result: result, err: err}
	}()

	select {
	case o := <-done:
		return o.result, o.err
	case <-timeoutCtx.Done():
		return nil, fmt.Errorf("action %q timed out after %ds", step.Action, step.TimeoutSeconds)
	}
}

func (e *Engine) failStep(step *models.WorkflowStep, err error) {
	end := time.Now().UTC()

	e.mu.Lock()
	step.Status = models.StepStatusFailed
	step.Error = err.Error()
	step.EndTime = &end
	e.mu.Unlock()
}

// ResumeWorkflow loads the last persisted snapshot for a workflow. It does
// not restart execution; the caller re-invokes ExecuteWorkflow. Returns
// (nil, nil) when no snapshot exists.
func (e *Engine) ResumeWorkflow(ctx context.Context, workflowID string) (*models.Workflow, error) {
	if e.states == nil {
		return nil, nil
	}

	workflow, err := e.states.WorkflowByID(ctx, workflowID)
	if err != nil {
		e.logger.Error("Failed to load workflow snapshot", "workflow_id", workflowID, "error", err)

		return nil, err
	}

	return workflow, nil
}

// CancelWorkflow cancels a currently-running workflow. Cooperative: an
// in-flight action runs to completion or its own timeout; the engine stops
// before the next step. Returns false when the workflow is not running in
// this process.
func (e *Engine) CancelWorkflow(ctx context.Context, workflowID string) bool {
	e.mu.Lock()

	workflow, ok := e.running[workflowID]
	if !ok || workflow.IsTerminal() {
		e.mu.Unlock()

		return false
	}

	now := time.Now().UTC()
	workflow.Status = models.WorkflowStatusCancelled
	workflow.EndTime = &now

	e.mu.Unlock()

	e.logger.Info("Workflow cancelled", "workflow_id", workflowID)
	e.persistState(ctx, workflow, e.logger)

	e.mu.Lock()
	delete(e.running, workflowID)
	e.mu.Unlock()

	return true
}

// GetWorkflowStatus returns the in-memory snapshot of a running workflow,
// falling back to the persisted snapshot, or nil when neither exists.
func (e *Engine) GetWorkflowStatus(ctx context.Context, workflowID string) map[string]any {
	e.mu.Lock()

	if workflow, ok := e.running[workflowID]; ok {
		snapshot := statusSnapshot(workflow)
		e.mu.Unlock()

		return snapshot
	}

	e.mu.Unlock()

	if e.states == nil {
		return nil
	}

	persisted, err := e.states.WorkflowByID(ctx, workflowID)
	if err != nil || persisted == nil {
		return nil
	}

	return statusSnapshot(persisted)
}

// statusSnapshot copies the workflow's runtime state into a detached map.
// For a running workflow the caller must hold e.mu; nothing in the result
// aliases the live workflow.
func statusSnapshot(workflow *models.Workflow) map[string]any {
	steps := make([]map[string]any, 0, len(workflow.Steps))
	for _, step := range workflow.Steps {
		steps = append(steps, map[string]any{
			"name":    step.Name,
			"action":  step.Action,
			"status":  string(step.Status),
			"attempt": step.Attempt,
			"error":   step.Error,
		})
	}

	metadata := make(map[string]any, len(workflow.Metadata))
	for key, value := range workflow.Metadata {
		metadata[key] = value
	}

	return map[string]any{
		"workflow_id":        workflow.ID,
		"name":               workflow.Name,
		"status":             string(workflow.Status),
		"current_step_index": workflow.CurrentStepIndex,
		"steps":              steps,
		"metadata":           metadata,
	}
}

func (e *Engine) isCancelled(workflowID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	workflow, ok := e.running[workflowID]

	return !ok || workflow.Status == models.WorkflowStatusCancelled
}

// persistState snapshots the workflow. Persistence is best-effort: failures
// are logged and counted in the workflow metadata, never aborting execution.
func (e *Engine) persistState(ctx context.Context, workflow *models.Workflow, logger *slog.Logger) {
	if e.states == nil || !workflow.SaveState {
		return
	}

	// Serialization must not read runtime fields the executing goroutine is
	// still mutating; save a detached copy taken under the lock.
	e.mu.Lock()
	snapshot := workflow.Clone()
	e.mu.Unlock()

	if err := e.states.SaveWorkflow(ctx, snapshot); err != nil {
		e.mu.Lock()
		count, _ := workflow.Metadata[models.MetadataPersistFailures].(int)
		workflow.Metadata[models.MetadataPersistFailures] = count + 1
		e.mu.Unlock()

		logger.Error("Failed to persist workflow state",
			"workflow_id", workflow.ID,
			"failures", count+1,
			"error", err)
	}
}

func (e *Engine) notifyProcess(ctx context.Context, workflow *models.Workflow, status models.ProcessStatus, metadata map[string]any) {
	if e.notifier == nil || !workflow.NotifySlack {
		return
	}

	source := models.EventSource(workflow.Source)
	if source == "" {
		source = models.SourceWorkflowEngine
	}

	e.notifier.NotifyProcessEvent(ctx, models.ProcessEvent{
		ProcessID:   workflow.ID,
		ProcessName: workflow.Name,
		Status:      status,
		Source:      source,
		Timestamp:   time.Now().UTC(),
		Metadata:    metadata,
	}, protocol.NotifyOptions{})
}
