package web_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hoopmetrics/playbook/pkg/engine"
	"github.com/hoopmetrics/playbook/pkg/models"
	"github.com/hoopmetrics/playbook/pkg/persistence/file"
	"github.com/hoopmetrics/playbook/pkg/protocol"
	"github.com/hoopmetrics/playbook/pkg/registry"
	"github.com/hoopmetrics/playbook/pkg/triggerbus"
	"github.com/hoopmetrics/playbook/pkg/web"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAPI(t *testing.T) (*web.API, *triggerbus.Bus, *engine.Engine) {
	t.Helper()

	logger := slog.Default()
	reg := registry.NewRegistry(logger)
	states := file.NewRepository(t.TempDir())
	bus := triggerbus.NewBus(logger)
	eng := engine.NewEngine(reg, states, nil, bus, logger)

	eng.RegisterAction("noop", protocol.ActionFunc(func(_ context.Context, _ map[string]any, _ *slog.Logger) (any, error) {
		return "ok", nil
	}))

	return web.NewAPI(eng, bus, states, logger), bus, eng
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))

	return body
}

func TestHealth(t *testing.T) {
	t.Parallel()

	api, _, _ := newTestAPI(t)

	resp, err := api.App().Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, "ok", body["status"])
}

func TestSubmitWorkflow_AcceptsDefinitionAndRunsIt(t *testing.T) {
	t.Parallel()

	api, _, eng := newTestAPI(t)

	definition := `
name: nightly sync
steps:
  - name: fetch
    action: noop
`

	req := httptest.NewRequest(http.MethodPost, "/workflows", strings.NewReader(definition))
	resp, err := api.App().Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	body := decodeBody(t, resp)
	workflowID, _ := body["workflow_id"].(string)
	require.NotEmpty(t, workflowID)

	// Execution is asynchronous; wait for the terminal snapshot.
	require.Eventually(t, func() bool {
		status := eng.GetWorkflowStatus(context.Background(), workflowID)

		return status != nil && status["status"] == string(models.WorkflowStatusCompleted)
	}, 5*time.Second, 10*time.Millisecond)
}

func TestSubmitWorkflow_RejectsInvalidDefinition(t *testing.T) {
	t.Parallel()

	api, _, _ := newTestAPI(t)

	req := httptest.NewRequest(http.MethodPost, "/workflows", strings.NewReader("name: only a name"))
	resp, err := api.App().Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetWorkflowStatus_UnknownWorkflowIs404(t *testing.T) {
	t.Parallel()

	api, _, _ := newTestAPI(t)

	resp, err := api.App().Test(httptest.NewRequest(http.MethodGet, "/workflows/no-such-id", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCancelWorkflow_NotRunningIs404(t *testing.T) {
	t.Parallel()

	api, _, _ := newTestAPI(t)

	resp, err := api.App().Test(httptest.NewRequest(http.MethodDelete, "/workflows/no-such-id", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRecentEvents_FilterByTypeAndLimit(t *testing.T) {
	t.Parallel()

	api, bus, _ := newTestAPI(t)
	ctx := context.Background()

	bus.EmitProcessComplete(ctx, "p1", "drift check", "drift_monitor", nil)
	bus.EmitProcessFailed(ctx, "p2", "ab compare", "ab_testing", "diverged")
	bus.EmitProcessComplete(ctx, "p3", "book extraction", "book_extraction", nil)

	resp, err := api.App().Test(httptest.NewRequest(http.MethodGet, "/events?event_type=process.complete&limit=5", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, float64(2), body["count"])
}

func TestRecentEvents_RejectsBadLimit(t *testing.T) {
	t.Parallel()

	api, _, _ := newTestAPI(t)

	resp, err := api.App().Test(httptest.NewRequest(http.MethodGet, "/events?limit=zero", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestReceiveWebhook_PublishesTriggerEvent(t *testing.T) {
	t.Parallel()

	api, bus, _ := newTestAPI(t)

	var received []models.TriggerEvent

	bus.Register(models.TriggerWebhook, func(_ context.Context, event models.TriggerEvent) error {
		received = append(received, event)

		return nil
	})

	req := httptest.NewRequest(http.MethodPost, "/webhooks/league_feed", strings.NewReader(`{"game_id":"0042400101"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := api.App().Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.NotEmpty(t, body["event_id"])

	require.Len(t, received, 1)
	assert.Equal(t, "league_feed", received[0].Source)
	assert.Equal(t, "0042400101", received[0].Data["game_id"])
}
