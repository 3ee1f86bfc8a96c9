package log_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	logaction "github.com/hoopmetrics/playbook/pkg/actions/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecute_WritesMessageAtRequestedLevel(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	action, err := logaction.NewFactory().Create(nil)
	require.NoError(t, err)

	result, err := action.Execute(context.Background(), map[string]any{
		"message": "lineup refresh complete",
		"level":   "warn",
	}, logger)
	require.NoError(t, err)

	assert.Equal(t, map[string]any{"logged": "lineup refresh complete"}, result)
	assert.Contains(t, buf.String(), "level=WARN")
	assert.Contains(t, buf.String(), "lineup refresh complete")
}

func TestExecute_DefaultsToInfoLevel(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	logger := slog.New(slog.NewTextHandler(&buf, nil))

	action, err := logaction.NewFactory().Create(nil)
	require.NoError(t, err)

	_, err = action.Execute(context.Background(), map[string]any{"message": "hello"}, logger)
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "level=INFO")
}

func TestSchema_RequiresMessage(t *testing.T) {
	t.Parallel()

	schema := logaction.NewFactory().Schema()
	assert.Equal(t, []any{"message"}, schema["required"])
}
