// Package file provides file-based persistence for workflow snapshots.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/hoopmetrics/playbook/pkg/models"
	"github.com/hoopmetrics/playbook/pkg/persistence"
)

// Repository stores one <workflow_id>.json file per workflow under a state
// directory.
type Repository struct {
	root string
}

// NewRepository creates a repository rooted at the given directory. Accepts
// either a bare path or a file:// URL.
func NewRepository(root string) *Repository {
	return &Repository{root: strings.Replace(root, "file://", "", 1)}
}

var _ persistence.StateRepository = (*Repository)(nil)

func (r *Repository) workflowPath(workflowID string) string {
	return filepath.Clean(path.Join(r.root, workflowID+".json"))
}

// SaveWorkflow writes the full workflow snapshot, creating the state
// directory on first use.
func (r *Repository) SaveWorkflow(_ context.Context, workflow *models.Workflow) error {
	if err := os.MkdirAll(r.root, 0750); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	data, err := json.MarshalIndent(workflow, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal workflow %s: %w", workflow.ID, err)
	}

	return os.WriteFile(r.workflowPath(workflow.ID), data, 0600)
}

// WorkflowByID reads a snapshot back; returns (nil, nil) when no snapshot
// exists for the ID.
func (r *Repository) WorkflowByID(_ context.Context, workflowID string) (*models.Workflow, error) {
	body, err := os.ReadFile(r.workflowPath(workflowID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to read workflow %s: %w", workflowID, err)
	}

	var workflow models.Workflow
	if err := json.Unmarshal(body, &workflow); err != nil {
		return nil, fmt.Errorf("failed to unmarshal workflow %s: %w", workflowID, err)
	}

	return &workflow, nil
}

// DeleteWorkflow removes a snapshot; deleting an absent snapshot is not an
// error.
func (r *Repository) DeleteWorkflow(_ context.Context, workflowID string) error {
	err := os.Remove(r.workflowPath(workflowID))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete workflow %s: %w", workflowID, err)
	}

	return nil
}

// Workflows lists every persisted snapshot.
func (r *Repository) Workflows(ctx context.Context) ([]*models.Workflow, error) {
	root := os.DirFS(r.root)

	jsonFiles, err := fs.Glob(root, "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list state directory: %w", err)
	}

	workflows := make([]*models.Workflow, 0, len(jsonFiles))

	for _, file := range jsonFiles {
		workflowID := strings.TrimSuffix(file, ".json")

		workflow, err := r.WorkflowByID(ctx, workflowID)
		if err != nil {
			return nil, err
		}

		if workflow != nil {
			workflows = append(workflows, workflow)
		}
	}

	return workflows, nil
}

// HealthCheck verifies the state directory exists.
func (r *Repository) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(r.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

// Close is a no-op for file persistence.
func (r *Repository) Close(_ context.Context) error {
	return nil
}
