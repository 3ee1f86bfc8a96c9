package triggerbus_test

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/hoopmetrics/playbook/pkg/models"
	"github.com/hoopmetrics/playbook/pkg/triggerbus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmit_FanOutInRegistrationOrder(t *testing.T) {
	t.Parallel()

	bus := triggerbus.NewBus(slog.Default())

	var invocations []string

	for i := 0; i < 3; i++ {
		label := fmt.Sprintf("handler-%d", i)
		bus.Register(models.TriggerManual, func(_ context.Context, event models.TriggerEvent) error {
			invocations = append(invocations, label)

			return nil
		})
	}

	event := models.NewTriggerEvent(models.TriggerManual, "test", nil)
	bus.Emit(context.Background(), event)

	assert.Equal(t, []string{"handler-0", "handler-1", "handler-2"}, invocations)
}

func TestEmit_HandlerErrorDoesNotStopFanOut(t *testing.T) {
	t.Parallel()

	bus := triggerbus.NewBus(slog.Default())

	calls := 0

	bus.Register(models.TriggerManual, func(_ context.Context, _ models.TriggerEvent) error {
		calls++

		return errors.New("first handler failed")
	})
	bus.Register(models.TriggerManual, func(_ context.Context, _ models.TriggerEvent) error {
		calls++

		panic("second handler panicked")
	})
	bus.Register(models.TriggerManual, func(_ context.Context, _ models.TriggerEvent) error {
		calls++

		return nil
	})

	// Must not panic through to the emitter.
	bus.Emit(context.Background(), models.NewTriggerEvent(models.TriggerManual, "test", nil))

	assert.Equal(t, 3, calls)
}

func TestEmit_OnlyMatchingTypeHandlersRun(t *testing.T) {
	t.Parallel()

	bus := triggerbus.NewBus(slog.Default())

	manual, webhook := 0, 0

	bus.Register(models.TriggerManual, func(_ context.Context, _ models.TriggerEvent) error {
		manual++

		return nil
	})
	bus.Register(models.TriggerWebhook, func(_ context.Context, _ models.TriggerEvent) error {
		webhook++

		return nil
	})

	bus.Emit(context.Background(), models.NewTriggerEvent(models.TriggerManual, "test", nil))

	assert.Equal(t, 1, manual)
	assert.Equal(t, 0, webhook)
}

func TestRegisterAll_ReceivesEveryEvent(t *testing.T) {
	t.Parallel()

	bus := triggerbus.NewBus(slog.Default())

	all := 0

	bus.RegisterAll(func(_ context.Context, _ models.TriggerEvent) error {
		all++

		return nil
	})

	bus.Emit(context.Background(), models.NewTriggerEvent(models.TriggerManual, "test", nil))
	bus.Emit(context.Background(), models.NewTriggerEvent(models.TriggerWebhook, "test", nil))

	assert.Equal(t, 2, all)
}

func TestLogBound_EvictsOldestFirst(t *testing.T) {
	t.Parallel()

	bus := triggerbus.NewBusWithLogSize(slog.Default(), 5)

	for i := 0; i < 8; i++ {
		event := models.NewTriggerEvent(models.TriggerManual, "test", map[string]any{"seq": i})
		bus.Emit(context.Background(), event)
	}

	events := bus.RecentEvents("", 100)
	require.Len(t, events, 5)

	// The five most recent, chronological.
	assert.Equal(t, 3, events[0].Data["seq"])
	assert.Equal(t, 7, events[4].Data["seq"])
}

func TestRecentEvents_FilterAndLimit(t *testing.T) {
	t.Parallel()

	bus := triggerbus.NewBus(slog.Default())

	for i := 0; i < 4; i++ {
		bus.Emit(context.Background(), models.NewTriggerEvent(models.TriggerManual, "test", map[string]any{"seq": i}))
		bus.Emit(context.Background(), models.NewTriggerEvent(models.TriggerWebhook, "test", nil))
	}

	manual := bus.RecentEvents(models.TriggerManual, 2)
	require.Len(t, manual, 2)
	assert.Equal(t, models.TriggerManual, manual[0].EventType)
	assert.Equal(t, 2, manual[0].Data["seq"])
	assert.Equal(t, 3, manual[1].Data["seq"])

	everything := bus.RecentEvents("", 100)
	assert.Len(t, everything, 8)
}

func TestConvenienceEmitters(t *testing.T) {
	t.Parallel()

	bus := triggerbus.NewBus(slog.Default())
	ctx := context.Background()

	received := make(map[models.TriggerEventType]models.TriggerEvent)

	for _, eventType := range []models.TriggerEventType{
		models.TriggerProcessComplete,
		models.TriggerProcessFailed,
		models.TriggerSynthesisComplete,
		models.TriggerMCPToolComplete,
		models.TriggerTestComplete,
	} {
		bus.Register(eventType, func(_ context.Context, event models.TriggerEvent) error {
			received[event.EventType] = event

			return nil
		})
	}

	bus.EmitProcessComplete(ctx, "p1", "drift check", "drift_monitor", map[string]any{"psi": 0.02})
	bus.EmitProcessFailed(ctx, "p2", "ab compare", "ab_testing", "t-test failed to converge")
	bus.EmitSynthesisComplete(ctx, "job-9", 14, "s3://formulas/out.json")
	bus.EmitMCPToolComplete(ctx, "book_reader", map[string]any{"pages": 12})
	bus.EmitTestComplete(ctx, "integration", 40, 2)

	require.Len(t, received, 5)
	assert.Equal(t, "drift check", received[models.TriggerProcessComplete].Data["process_name"])
	assert.Equal(t, "t-test failed to converge", received[models.TriggerProcessFailed].Data["error"])
	assert.Equal(t, 14, received[models.TriggerSynthesisComplete].Data["formula_count"])
	assert.Equal(t, "book_reader", received[models.TriggerMCPToolComplete].Data["tool_name"])
	assert.Equal(t, 40, received[models.TriggerTestComplete].Data["passed"])
}
