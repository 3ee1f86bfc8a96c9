// Package sleep provides an action that waits for a configured duration,
// useful for pacing external jobs and for exercising timeout handling.
package sleep

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hoopmetrics/playbook/pkg/protocol"
)

type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (*Factory) ID() string {
	return "sleep"
}

func (*Factory) Create(_ map[string]any) (protocol.Action, error) {
	return &Action{}, nil
}

func (*Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"seconds": map[string]any{"type": "number", "minimum": 0},
		},
		"required": []any{"seconds"},
	}
}

type Action struct{}

func (a *Action) Execute(ctx context.Context, params map[string]any, logger *slog.Logger) (any, error) {
	seconds, ok := params["seconds"].(float64)
	if !ok {
		if i, isInt := params["seconds"].(int); isInt {
			seconds = float64(i)
		} else {
			return nil, fmt.Errorf("sleep action requires a numeric seconds param")
		}
	}

	duration := time.Duration(seconds * float64(time.Second))
	logger.Info("Sleeping", "duration", duration)

	select {
	case <-time.After(duration):
		return map[string]any{"slept_seconds": seconds}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
