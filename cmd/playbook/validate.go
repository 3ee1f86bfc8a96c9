package main

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/hoopmetrics/playbook/pkg/engine"
	"github.com/hoopmetrics/playbook/pkg/log"
	cli "github.com/urfave/cli/v3"
)

func NewValidateCommand() *cli.Command {
	return &cli.Command{
		Name:    "validate",
		Aliases: []string{"v"},
		Usage:   "Validate a workflow definition without executing it",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "file",
				Aliases:  []string{"f"},
				Usage:    "Path to the workflow definition YAML",
				Required: true,
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup("warn", "text")
			logger := log.WithModule("playbook")

			workflow, err := engine.LoadWorkflowFromYAML(command.String("file"))
			if err != nil {
				return err
			}

			reg := newRegistry(logger)

			for _, step := range workflow.Steps {
				if _, ok := reg.Resolve(step.Action); !ok {
					known := reg.Names()
					sort.Strings(known)

					return fmt.Errorf("step %q names unregistered action %q (registered: %s)",
						step.Name, step.Action, strings.Join(known, ", "))
				}

				if err := reg.ValidateParams(step.Action, step.Params); err != nil {
					return fmt.Errorf("step %q: %w", step.Name, err)
				}
			}

			fmt.Printf("workflow %q is valid: %d steps\n", workflow.Name, len(workflow.Steps))

			return nil
		},
	}
}
