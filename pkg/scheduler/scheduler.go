// Package scheduler emits scheduled trigger events from cron expressions.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hoopmetrics/playbook/pkg/models"
	"github.com/hoopmetrics/playbook/pkg/triggerbus"
	"github.com/robfig/cron/v3"
)

// Entry binds a cron expression to the workflow it triggers.
type Entry struct {
	ID             string `yaml:"id"              validate:"required"`
	CronExpression string `yaml:"cron"            validate:"required"`
	WorkflowID     string `yaml:"workflow_id"     validate:"required"`
}

// Scheduler runs cron entries and publishes a scheduled trigger event on
// each tick. Consumers react to the events; the scheduler itself never
// touches the engine.
type Scheduler struct {
	bus    *triggerbus.Bus
	cron   *cron.Cron
	logger *slog.Logger
}

func NewScheduler(bus *triggerbus.Bus, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		bus:    bus,
		cron:   cron.New(),
		logger: logger.With("module", "scheduler"),
	}
}

// Add registers a cron entry. The expression uses the standard 5-field
// format.
func (s *Scheduler) Add(entry Entry) error {
	if entry.ID == "" || entry.WorkflowID == "" {
		return errors.New("schedule entry requires an id and a workflow_id")
	}

	if _, err := cron.ParseStandard(entry.CronExpression); err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", entry.CronExpression, err)
	}

	_, err := s.cron.AddFunc(entry.CronExpression, func() {
		s.logger.Info("Schedule fired",
			"schedule_id", entry.ID,
			"workflow_id", entry.WorkflowID)

		event := models.NewTriggerEvent(models.TriggerScheduled, string(models.SourceScheduler), map[string]any{
			"schedule_id": entry.ID,
			"cron":        entry.CronExpression,
		})
		event.WorkflowID = entry.WorkflowID

		s.bus.Emit(context.Background(), event)
	})
	if err != nil {
		return fmt.Errorf("failed to add schedule %q: %w", entry.ID, err)
	}

	return nil
}

// Start begins firing schedules in a background goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("Scheduler started", "entries", len(s.cron.Entries()))
}

// Stop halts scheduling; the returned context completes when in-flight jobs
// finish.
func (s *Scheduler) Stop() context.Context {
	s.logger.Info("Scheduler stopping")

	return s.cron.Stop()
}
