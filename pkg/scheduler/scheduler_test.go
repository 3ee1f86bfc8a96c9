package scheduler_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/hoopmetrics/playbook/pkg/scheduler"
	"github.com/hoopmetrics/playbook/pkg/triggerbus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdd_AcceptsStandardCronExpressions(t *testing.T) {
	t.Parallel()

	sched := scheduler.NewScheduler(triggerbus.NewBus(slog.Default()), slog.Default())

	entries := []scheduler.Entry{
		{ID: "nightly-drift", CronExpression: "0 6 * * *", WorkflowID: "drift-check"},
		{ID: "hourly-sync", CronExpression: "@hourly", WorkflowID: "stats-sync"},
	}

	for _, entry := range entries {
		assert.NoError(t, sched.Add(entry))
	}
}

func TestAdd_RejectsInvalidExpression(t *testing.T) {
	t.Parallel()

	sched := scheduler.NewScheduler(triggerbus.NewBus(slog.Default()), slog.Default())

	err := sched.Add(scheduler.Entry{ID: "broken", CronExpression: "not a cron", WorkflowID: "wf"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid cron expression")
}

func TestAdd_RequiresIDAndWorkflowID(t *testing.T) {
	t.Parallel()

	sched := scheduler.NewScheduler(triggerbus.NewBus(slog.Default()), slog.Default())

	assert.Error(t, sched.Add(scheduler.Entry{CronExpression: "* * * * *", WorkflowID: "wf"}))
	assert.Error(t, sched.Add(scheduler.Entry{ID: "nightly", CronExpression: "* * * * *"}))
}

func TestLoadEntries(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "schedules.yaml")
	content := `
schedules:
  - id: nightly-drift
    cron: "0 6 * * *"
    workflow_id: drift-check
  - id: weekly-synthesis
    cron: "0 4 * * 1"
    workflow_id: formula-synthesis
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	entries, err := scheduler.LoadEntries(path)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "nightly-drift", entries[0].ID)
	assert.Equal(t, "0 6 * * *", entries[0].CronExpression)
	assert.Equal(t, "drift-check", entries[0].WorkflowID)
	assert.Equal(t, "formula-synthesis", entries[1].WorkflowID)
}

func TestLoadEntries_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := scheduler.LoadEntries(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
