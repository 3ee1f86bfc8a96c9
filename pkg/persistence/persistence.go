// Package persistence defines the workflow state storage contract and the
// URL-scheme dispatch used to select a backing store.
package persistence

import (
	"context"
	"strings"

	"github.com/hoopmetrics/playbook/pkg/models"
)

// StateRepository stores workflow snapshots, one per workflow ID. Reads of
// an absent workflow return (nil, nil) rather than an error.
type StateRepository interface {
	SaveWorkflow(ctx context.Context, workflow *models.Workflow) error
	WorkflowByID(ctx context.Context, workflowID string) (*models.Workflow, error)
	DeleteWorkflow(ctx context.Context, workflowID string) error
	Workflows(ctx context.Context) ([]*models.Workflow, error)
	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}

// Scheme extracts the provider scheme from a state URL, defaulting to file.
func Scheme(stateURL string) string {
	parts := strings.SplitN(stateURL, "://", 2)
	if len(parts) != 2 {
		return "file"
	}

	switch parts[0] {
	case "file", "redis", "rediss":
		return parts[0]
	default:
		return "file"
	}
}
