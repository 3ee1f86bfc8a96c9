// Package web exposes the workflow engine over HTTP: submitting and
// cancelling workflows, querying status, inspecting recent trigger events,
// and receiving inbound webhooks.
package web

import (
	"log/slog"

	"github.com/gofiber/fiber/v3"
	"github.com/hoopmetrics/playbook/pkg/engine"
	"github.com/hoopmetrics/playbook/pkg/persistence"
	"github.com/hoopmetrics/playbook/pkg/triggerbus"
)

// API hosts the fiber application around the engine and trigger bus.
type API struct {
	app      *fiber.App
	handlers *Handlers
	logger   *slog.Logger
}

func NewAPI(eng *engine.Engine, bus *triggerbus.Bus, states persistence.StateRepository, logger *slog.Logger) *API {
	app := fiber.New(fiber.Config{
		AppName: "playbook-api",
	})

	api := &API{
		app:      app,
		handlers: NewHandlers(eng, bus, states, logger),
		logger:   logger.With("module", "web"),
	}

	api.routes()

	return api
}

func (a *API) routes() {
	a.app.Get("/health", a.handlers.Health)

	a.app.Post("/workflows", a.handlers.SubmitWorkflow)
	a.app.Get("/workflows/:id", a.handlers.GetWorkflowStatus)
	a.app.Delete("/workflows/:id", a.handlers.CancelWorkflow)

	a.app.Get("/events", a.handlers.RecentEvents)
	a.app.Post("/webhooks/:source", a.handlers.ReceiveWebhook)
}

// App returns the underlying fiber application, used by tests.
func (a *API) App() *fiber.App {
	return a.app
}

// Listen serves the API on addr until shutdown.
func (a *API) Listen(addr string) error {
	a.logger.Info("API listening", "addr", addr)

	return a.app.Listen(addr)
}

// Shutdown gracefully stops the server.
func (a *API) Shutdown() error {
	return a.app.Shutdown()
}
