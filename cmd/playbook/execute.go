package main

import (
	"context"
	"errors"

	"github.com/hoopmetrics/playbook/pkg/engine"
	"github.com/hoopmetrics/playbook/pkg/log"
	"github.com/hoopmetrics/playbook/pkg/triggerbus"
	cli "github.com/urfave/cli/v3"
)

func NewExecuteCommand() *cli.Command {
	return &cli.Command{
		Name:    "execute",
		Aliases: []string{"x"},
		Usage:   "Execute a single workflow definition and exit",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "file",
				Aliases:  []string{"f"},
				Usage:    "Path to the workflow definition YAML",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "state-url",
				Usage:   "State store URL (file://<dir> or redis://...)",
				Value:   "file://./data/state",
				Sources: cli.EnvVars("STATE_URL"),
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
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"), "text")
			logger := log.WithModule("playbook")

			workflow, err := engine.LoadWorkflowFromYAML(command.String("file"))
			if err != nil {
				return err
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

			if !eng.ExecuteWorkflow(ctx, workflow) {
				return errors.New("workflow failed")
			}

			return nil
		},
	}
}
