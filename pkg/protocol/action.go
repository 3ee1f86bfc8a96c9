// Package protocol defines the interfaces and contracts the engine consumes.
package protocol

import (
	"context"
	"log/slog"
)

// Action is a named, registered unit of work a workflow step delegates to.
// Params are the step's configured parameters; the returned value is opaque
// to the engine and stored on the step as its result.
type Action interface {
	Execute(ctx context.Context, params map[string]any, logger *slog.Logger) (any, error)
}

// ActionFunc adapts a plain function to the Action interface.
type ActionFunc func(ctx context.Context, params map[string]any, logger *slog.Logger) (any, error)

func (f ActionFunc) Execute(ctx context.Context, params map[string]any, logger *slog.Logger) (any, error) {
	return f(ctx, params, logger)
}

// ActionFactory creates action instances and describes their configuration.
// Native actions implement this so the registry can validate step params
// against the declared JSON schema before execution.
type ActionFactory interface {
	// ID returns the registry key this action is registered under.
	ID() string

	// Create instantiates the action with the given static configuration.
	Create(config map[string]any) (Action, error)

	// Schema returns the JSON schema describing the action's params.
	Schema() map[string]any
}
