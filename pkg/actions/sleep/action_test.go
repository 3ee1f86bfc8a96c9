package sleep_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/hoopmetrics/playbook/pkg/actions/sleep"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecute_SleepsForConfiguredDuration(t *testing.T) {
	t.Parallel()

	action, err := sleep.NewFactory().Create(nil)
	require.NoError(t, err)

	start := time.Now()
	result, err := action.Execute(context.Background(), map[string]any{"seconds": 0.05}, slog.Default())
	require.NoError(t, err)

	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
	assert.Equal(t, map[string]any{"slept_seconds": 0.05}, result)
}

func TestExecute_AcceptsIntegerSeconds(t *testing.T) {
	t.Parallel()

	action, err := sleep.NewFactory().Create(nil)
	require.NoError(t, err)

	_, err = action.Execute(context.Background(), map[string]any{"seconds": 0}, slog.Default())
	assert.NoError(t, err)
}

func TestExecute_RejectsMissingSeconds(t *testing.T) {
	t.Parallel()

	action, err := sleep.NewFactory().Create(nil)
	require.NoError(t, err)

	_, err = action.Execute(context.Background(), map[string]any{}, slog.Default())
	assert.Error(t, err)
}

func TestExecute_CancelledContextStopsSleep(t *testing.T) {
	t.Parallel()

	action, err := sleep.NewFactory().Create(nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	_, err = action.Execute(ctx, map[string]any{"seconds": 10.0}, slog.Default())

	require.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
}
