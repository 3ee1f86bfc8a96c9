package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/hoopmetrics/playbook/pkg/channels/gochannel"
	"github.com/hoopmetrics/playbook/pkg/channels/kafka"
	"github.com/hoopmetrics/playbook/pkg/engine"
	"github.com/hoopmetrics/playbook/pkg/log"
	"github.com/hoopmetrics/playbook/pkg/models"
	"github.com/hoopmetrics/playbook/pkg/otelhelper"
	"github.com/hoopmetrics/playbook/pkg/relay"
	"github.com/hoopmetrics/playbook/pkg/scheduler"
	"github.com/hoopmetrics/playbook/pkg/triggerbus"
	"github.com/hoopmetrics/playbook/pkg/web"
	cli "github.com/urfave/cli/v3"
)

func NewRunCommand() *cli.Command {
	return &cli.Command{
		Name:    "run",
		Aliases: []string{"r"},
		Usage:   "Run the engine, HTTP API, scheduler, and event relay",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "state-url",
				Usage:   "State store URL (file://<dir> or redis://...)",
				Value:   "file://./data/state",
				Sources: cli.EnvVars("STATE_URL"),
			},
			&cli.StringFlag{
				Name:    "port",
				Usage:   "HTTP API listen port",
				Value:   "8080",
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:    "event-relay",
				Usage:   "Trigger event relay channel (kafka, memory, none)",
				Value:   "none",
				Sources: cli.EnvVars("EVENT_RELAY"),
			},
			&cli.StringFlag{
				Name:    "workflows-dir",
				Usage:   "Directory of workflow definition YAML files, keyed by workflow id",
				Value:   "./workflows",
				Sources: cli.EnvVars("WORKFLOWS_DIR"),
			},
			&cli.StringFlag{
				Name:    "schedules",
				Usage:   "Path to the schedules YAML file",
				Sources: cli.EnvVars("SCHEDULES_FILE"),
			},
			&cli.StringFlag{
				Name:    "slack-bot-token",
				Usage:   "Slack bot token for lifecycle notifications",
				Sources: cli.EnvVars("SLACK_BOT_TOKEN"),
			},
			&cli.StringFlag{
				Name:    "slack-channel",
				Usage:   "Slack channel for lifecycle notifications",
				Sources: cli.EnvVars("SLACK_CHANNEL"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
			&cli.StringFlag{
				Name:    "log-format",
				Usage:   "Log format (text, json)",
				Value:   "text",
				Sources: cli.EnvVars("LOG_FORMAT"),
			},
			&cli.BoolFlag{
				Name:    "tracing",
				Usage:   "Export spans over OTLP/HTTP (see OTEL_EXPORTER_OTLP_* for the endpoint)",
				Sources: cli.EnvVars("TRACING_ENABLED"),
			},
		},
		Action: runAction,
	}
}

func runAction(ctx context.Context, command *cli.Command) error {
	log.Setup(command.String("log-level"), command.String("log-format"))
	logger := log.WithModule("playbook")

	logger.InfoContext(ctx, "Initializing Playbook")

	if command.Bool("tracing") {
		if _, err := otelhelper.NewTracer(ctx, "playbook"); err != nil {
			return fmt.Errorf("failed to initialize tracing: %w", err)
		}
	}

	reg := newRegistry(logger)

	states := newStateRepository(command.String("state-url"))
	defer func() {
		if err := states.Close(ctx); err != nil {
			logger.ErrorContext(ctx, "Failed to close state store", "error", err)
		}
	}()

	slack := newNotifier(command.String("slack-bot-token"), command.String("slack-channel"), logger)
	bus := triggerbus.NewBus(logger)
	eng := engine.NewEngine(reg, states, slack, bus, logger)

	if err := attachRelay(command.String("event-relay"), bus, logger); err != nil {
		return err
	}

	workflowsDir := command.String("workflows-dir")
	bus.Register(models.TriggerScheduled, func(ctx context.Context, event models.TriggerEvent) error {
		return runScheduledWorkflow(ctx, eng, workflowsDir, event)
	})

	if schedulesPath := command.String("schedules"); schedulesPath != "" {
		entries, err := scheduler.LoadEntries(schedulesPath)
		if err != nil {
			return err
		}

		sched := scheduler.NewScheduler(bus, logger)
		for _, entry := range entries {
			if err := sched.Add(entry); err != nil {
				return err
			}
		}

		sched.Start()
		defer sched.Stop()
	}

	api := web.NewAPI(eng, bus, states, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- api.Listen(":" + command.String("port"))
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		logger.InfoContext(ctx, "Shutting down", "signal", sig.String())

		return api.Shutdown()
	}
}

func attachRelay(channel string, bus *triggerbus.Bus, logger *slog.Logger) error {
	switch channel {
	case "kafka":
		pub, _, err := kafka.CreateChannel(watermill.NewSlogLogger(logger), "playbook")
		if err != nil {
			return fmt.Errorf("failed to create kafka channel: %w", err)
		}

		relay.NewRelay(pub, logger).Attach(bus)
	case "memory":
		pub, _ := gochannel.CreateChannel(watermill.NewSlogLogger(logger))
		relay.NewRelay(pub, logger).Attach(bus)
	case "none", "":
	default:
		return fmt.Errorf("unsupported event relay channel: %s", channel)
	}

	return nil
}

// runScheduledWorkflow loads the definition named by a scheduled trigger
// event and executes it.
func runScheduledWorkflow(ctx context.Context, eng *engine.Engine, workflowsDir string, event models.TriggerEvent) error {
	if event.WorkflowID == "" {
		return fmt.Errorf("scheduled event %s has no workflow_id", event.ID)
	}

	path := filepath.Join(workflowsDir, event.WorkflowID+".yaml")

	workflow, err := engine.LoadWorkflowFromYAML(path)
	if err != nil {
		return err
	}

	workflow.ID = event.WorkflowID
	eng.ExecuteWorkflow(ctx, workflow)

	return nil
}
