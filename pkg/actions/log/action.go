// Package log provides an action that writes a message to the process log.
package log

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hoopmetrics/playbook/pkg/protocol"
)

type Factory struct{}

func NewFactory() *Factory {
	return &Factory{}
}

func (*Factory) ID() string {
	return "log"
}

func (*Factory) Create(_ map[string]any) (protocol.Action, error) {
	return &Action{}, nil
}

func (*Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"message": map[string]any{"type": "string"},
			"level":   map[string]any{"type": "string", "enum": []any{"debug", "info", "warn", "error"}},
		},
		"required": []any{"message"},
	}
}

type Action struct{}

func (a *Action) Execute(_ context.Context, params map[string]any, logger *slog.Logger) (any, error) {
	message := fmt.Sprintf("%v", params["message"])
	level, _ := params["level"].(string)

	switch level {
	case "debug":
		logger.Debug(message)
	case "warn":
		logger.Warn(message)
	case "error":
		logger.Error(message)
	default:
		logger.Info(message)
	}

	return map[string]any{"logged": message}, nil
}
