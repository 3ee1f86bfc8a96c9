// Package registry maps action names to executable action implementations.
package registry

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/hoopmetrics/playbook/pkg/protocol"
	"github.com/xeipuuv/gojsonschema"
)

// Registry holds the actions a workflow step can name. Registration is
// last-write-wins: registering under an existing name silently replaces the
// previous action. Intended to be populated at start-up, before any
// workflow executes.
type Registry struct {
	mu      sync.RWMutex
	logger  *slog.Logger
	actions map[string]protocol.Action
	schemas map[string]map[string]any
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger:  logger,
		actions: make(map[string]protocol.Action),
		schemas: make(map[string]map[string]any),
	}
}

// Register binds an action under a name. A duplicate name overwrites the
// previous registration.
func (r *Registry) Register(name string, action protocol.Action) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.actions[name]; exists {
		r.logger.Warn("Overwriting registered action", "action", name)
	}

	r.actions[name] = action
}

// RegisterFactory creates the action from its factory and registers it under
// the factory's ID, remembering the declared params schema.
func (r *Registry) RegisterFactory(factory protocol.ActionFactory, config map[string]any) error {
	action, err := factory.Create(config)
	if err != nil {
		return fmt.Errorf("failed to create action %q: %w", factory.ID(), err)
	}

	r.Register(factory.ID(), action)

	r.mu.Lock()
	r.schemas[factory.ID()] = factory.Schema()
	r.mu.Unlock()

	return nil
}

// Resolve returns the action registered under name.
func (r *Registry) Resolve(name string) (protocol.Action, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	action, ok := r.actions[name]

	return action, ok
}

// Names returns the registered action names, unordered.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.actions))
	for name := range r.actions {
		names = append(names, name)
	}

	return names
}

// ValidateParams checks step params against the action's declared JSON
// schema. Actions registered without a schema accept any params.
func (r *Registry) ValidateParams(name string, params map[string]any) error {
	r.mu.RLock()
	schema, ok := r.schemas[name]
	r.mu.RUnlock()

	if !ok || schema == nil {
		return nil
	}

	if params == nil {
		params = map[string]any{}
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(schema),
		gojsonschema.NewGoLoader(params),
	)
	if err != nil {
		return fmt.Errorf("failed to validate params for action %q: %w", name, err)
	}

	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			details = append(details, desc.String())
		}

		return fmt.Errorf("invalid params for action %q: %s", name, strings.Join(details, "; "))
	}

	return nil
}
