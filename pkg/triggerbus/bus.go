// Package triggerbus provides synchronous in-process publish/subscribe for
// trigger events, with a bounded audit log for introspection.
package triggerbus

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/hoopmetrics/playbook/pkg/models"
)

// DefaultLogSize bounds the in-memory event log; oldest entries are evicted
// first.
const DefaultLogSize = 1000

// Handler reacts to a trigger event. A handler error is logged and isolated:
// it does not stop later handlers and never propagates to the emitter.
type Handler func(ctx context.Context, event models.TriggerEvent) error

// Bus decouples event producers from consumers. Emission is synchronous: by
// the time Emit returns, every registered handler has run or failed and been
// logged. Safe for concurrent cooperative use.
type Bus struct {
	mu       sync.Mutex
	logger   *slog.Logger
	handlers map[models.TriggerEventType][]Handler
	all      []Handler
	log      []models.TriggerEvent
	maxLog   int
}

func NewBus(logger *slog.Logger) *Bus {
	return NewBusWithLogSize(logger, DefaultLogSize)
}

func NewBusWithLogSize(logger *slog.Logger, maxLog int) *Bus {
	if maxLog <= 0 {
		maxLog = DefaultLogSize
	}

	return &Bus{
		logger:   logger.With("module", "trigger_bus"),
		handlers: make(map[models.TriggerEventType][]Handler),
		maxLog:   maxLog,
	}
}

// Register appends a handler for an event type. Handlers run in
// registration order on every matching event.
func (b *Bus) Register(eventType models.TriggerEventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

// RegisterAll appends a handler invoked for every event regardless of type,
// after the type-specific handlers.
func (b *Bus) RegisterAll(handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.all = append(b.all, handler)
}

// Emit appends the event to the bounded log, then synchronously invokes
// every handler registered for its type.
func (b *Bus) Emit(ctx context.Context, event models.TriggerEvent) {
	b.mu.Lock()

	b.log = append(b.log, event)
	if len(b.log) > b.maxLog {
		b.log = b.log[len(b.log)-b.maxLog:]
	}

	handlers := make([]Handler, 0, len(b.handlers[event.EventType])+len(b.all))
	handlers = append(handlers, b.handlers[event.EventType]...)
	handlers = append(handlers, b.all...)

	b.mu.Unlock()

	for _, handler := range handlers {
		b.invoke(ctx, handler, event)
	}
}

func (b *Bus) invoke(ctx context.Context, handler Handler, event models.TriggerEvent) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Trigger handler panicked",
				"event_type", event.EventType,
				"event_id", event.ID,
				"panic", fmt.Sprintf("%v", r))
		}
	}()

	if err := handler(ctx, event); err != nil {
		b.logger.Error("Trigger handler failed",
			"event_type", event.EventType,
			"event_id", event.ID,
			"error", err)
	}
}

// RecentEvents returns up to limit most recent events in chronological
// order, optionally filtered by type. An empty eventType matches all.
func (b *Bus) RecentEvents(eventType models.TriggerEventType, limit int) []models.TriggerEvent {
	if limit <= 0 {
		limit = 10
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	matched := make([]models.TriggerEvent, 0, limit)

	for i := len(b.log) - 1; i >= 0 && len(matched) < limit; i-- {
		if eventType == "" || b.log[i].EventType == eventType {
			matched = append(matched, b.log[i])
		}
	}

	// Reverse into chronological order, oldest of the slice first.
	for i, j := 0, len(matched)-1; i < j; i, j = i+1, j-1 {
		matched[i], matched[j] = matched[j], matched[i]
	}

	return matched
}

// EmitProcessComplete publishes a process.complete event for a finished
// external process.
func (b *Bus) EmitProcessComplete(ctx context.Context, processID, processName, source string, results map[string]any) {
	event := models.NewTriggerEvent(models.TriggerProcessComplete, source, map[string]any{
		"process_id":   processID,
		"process_name": processName,
		"results":      results,
	})
	b.Emit(ctx, event)
}

// EmitProcessFailed publishes a process.failed event.
func (b *Bus) EmitProcessFailed(ctx context.Context, processID, processName, source, errMsg string) {
	event := models.NewTriggerEvent(models.TriggerProcessFailed, source, map[string]any{
		"process_id":   processID,
		"process_name": processName,
		"error":        errMsg,
	})
	b.Emit(ctx, event)
}

// EmitSynthesisComplete publishes a synthesis.complete event for a finished
// synthesis job.
func (b *Bus) EmitSynthesisComplete(ctx context.Context, jobID string, formulaCount int, outputPath string) {
	event := models.NewTriggerEvent(models.TriggerSynthesisComplete, "synthesis", map[string]any{
		"job_id":        jobID,
		"formula_count": formulaCount,
		"output_path":   outputPath,
	})
	b.Emit(ctx, event)
}

// EmitMCPToolComplete publishes an mcp.tool.complete event.
func (b *Bus) EmitMCPToolComplete(ctx context.Context, toolName string, result map[string]any) {
	event := models.NewTriggerEvent(models.TriggerMCPToolComplete, "mcp", map[string]any{
		"tool_name": toolName,
		"result":    result,
	})
	b.Emit(ctx, event)
}

// EmitTestComplete publishes a test.complete event for a finished test run.
func (b *Bus) EmitTestComplete(ctx context.Context, suite string, passed, failed int) {
	event := models.NewTriggerEvent(models.TriggerTestComplete, "test_runner", map[string]any{
		"suite":  suite,
		"passed": passed,
		"failed": failed,
	})
	b.Emit(ctx, event)
}
