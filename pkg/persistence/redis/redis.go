// Package redis provides Redis-backed persistence for workflow snapshots,
// used when multiple engine processes share state.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hoopmetrics/playbook/pkg/models"
	"github.com/hoopmetrics/playbook/pkg/persistence"
	goredis "github.com/redis/go-redis/v9"
)

const keyPrefix = "playbook:workflow:"

// Repository stores each workflow snapshot as a JSON value under
// playbook:workflow:<id>.
type Repository struct {
	client goredis.UniversalClient
	ttl    time.Duration
}

// NewRepository connects using a redis:// URL. A non-zero ttl expires
// snapshots of workflows that are never touched again.
func NewRepository(redisURL string, ttl time.Duration) (*Repository, error) {
	opts, err := goredis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	return &Repository{
		client: goredis.NewClient(opts),
		ttl:    ttl,
	}, nil
}

var _ persistence.StateRepository = (*Repository)(nil)

func (r *Repository) SaveWorkflow(ctx context.Context, workflow *models.Workflow) error {
	data, err := json.Marshal(workflow)
	if err != nil {
		return fmt.Errorf("failed to marshal workflow %s: %w", workflow.ID, err)
	}

	if err := r.client.Set(ctx, keyPrefix+workflow.ID, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save workflow %s: %w", workflow.ID, err)
	}

	return nil
}

func (r *Repository) WorkflowByID(ctx context.Context, workflowID string) (*models.Workflow, error) {
	body, err := r.client.Get(ctx, keyPrefix+workflowID).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
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

func (r *Repository) DeleteWorkflow(ctx context.Context, workflowID string) error {
	if err := r.client.Del(ctx, keyPrefix+workflowID).Err(); err != nil {
		return fmt.Errorf("failed to delete workflow %s: %w", workflowID, err)
	}

	return nil
}

func (r *Repository) Workflows(ctx context.Context) ([]*models.Workflow, error) {
	var (
		workflows []*models.Workflow
		cursor    uint64
	)

	for {
		keys, next, err := r.client.Scan(ctx, cursor, keyPrefix+"*", 100).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to scan workflows: %w", err)
		}

		for _, key := range keys {
			workflow, err := r.WorkflowByID(ctx, key[len(keyPrefix):])
			if err != nil {
				return nil, err
			}

			if workflow != nil {
				workflows = append(workflows, workflow)
			}
		}

		cursor = next
		if cursor == 0 {
			break
		}
	}

	return workflows, nil
}

func (r *Repository) HealthCheck(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *Repository) Close(_ context.Context) error {
	return r.client.Close()
}
