package web

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/gofiber/fiber/v3"
	"github.com/hoopmetrics/playbook/pkg/engine"
	"github.com/hoopmetrics/playbook/pkg/models"
	"github.com/hoopmetrics/playbook/pkg/persistence"
	"github.com/hoopmetrics/playbook/pkg/triggerbus"
)

// Handlers implements the HTTP endpoints.
type Handlers struct {
	engine *engine.Engine
	bus    *triggerbus.Bus
	states persistence.StateRepository
	logger *slog.Logger
}

func NewHandlers(eng *engine.Engine, bus *triggerbus.Bus, states persistence.StateRepository, logger *slog.Logger) *Handlers {
	return &Handlers{
		engine: eng,
		bus:    bus,
		states: states,
		logger: logger.With("module", "web_handlers"),
	}
}

// Health reports liveness plus the state store's health.
func (h *Handlers) Health(c fiber.Ctx) error {
	status := fiber.Map{"status": "ok"}

	if h.states != nil {
		if err := h.states.HealthCheck(c.Context()); err != nil {
			status["status"] = "degraded"
			status["state_store"] = err.Error()
		}
	}

	return c.JSON(status)
}

// SubmitWorkflow accepts a declarative workflow definition, starts it
// asynchronously, and answers 202 with the workflow id.
func (h *Handlers) SubmitWorkflow(c fiber.Ctx) error {
	workflow, err := engine.ParseWorkflowDefinition(c.Body())
	if err != nil {
		return badRequest(c, err.Error())
	}

	// Execution outlives the request; detach from the request context.
	go func() {
		h.engine.ExecuteWorkflow(context.Background(), workflow)
	}()

	h.logger.Info("Workflow submitted", "workflow_id", workflow.ID, "name", workflow.Name)

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"workflow_id": workflow.ID,
		"status":      string(models.WorkflowStatusRunning),
	})
}

// GetWorkflowStatus returns the running or persisted snapshot of a workflow.
func (h *Handlers) GetWorkflowStatus(c fiber.Ctx) error {
	status := h.engine.GetWorkflowStatus(c.Context(), c.Params("id"))
	if status == nil {
		return notFound(c, "workflow not found")
	}

	return c.JSON(status)
}

// CancelWorkflow requests cooperative cancellation of a running workflow.
func (h *Handlers) CancelWorkflow(c fiber.Ctx) error {
	if !h.engine.CancelWorkflow(c.Context(), c.Params("id")) {
		return notFound(c, "workflow is not running")
	}

	return c.JSON(fiber.Map{
		"workflow_id": c.Params("id"),
		"status":      string(models.WorkflowStatusCancelled),
	})
}

// RecentEvents returns the most recent trigger events, optionally filtered
// by event type.
func (h *Handlers) RecentEvents(c fiber.Ctx) error {
	limit := 10

	if limitStr := c.Query("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed <= 0 {
			return badRequest(c, "limit must be a positive integer")
		}

		limit = parsed
	}

	eventType := models.TriggerEventType(c.Query("event_type"))
	events := h.bus.RecentEvents(eventType, limit)

	return c.JSON(fiber.Map{
		"events": events,
		"count":  len(events),
	})
}

// ReceiveWebhook publishes an inbound webhook payload as a trigger event.
func (h *Handlers) ReceiveWebhook(c fiber.Ctx) error {
	source := c.Params("source")

	var payload map[string]any
	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&payload); err != nil {
			return badRequest(c, "body must be a JSON object")
		}
	}

	event := models.NewTriggerEvent(models.TriggerWebhook, source, payload)
	h.bus.Emit(c.Context(), event)

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"event_id": event.ID,
	})
}
