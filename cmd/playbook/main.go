package main

import (
	"context"
	"os"

	cli "github.com/urfave/cli/v3"
)

func main() {
	cmd := &cli.Command{
		Name:                  "playbook",
		EnableShellCompletion: true,
		Usage:                 "Workflow orchestration for the analytics platform",
		Commands: []*cli.Command{
			NewRunCommand(),
			NewExecuteCommand(),
			NewValidateCommand(),
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		panic(err)
	}
}
