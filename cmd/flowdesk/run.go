package main

import (
	"context"
	"fmt"

	cli "github.com/urfave/cli/v3"
)

func newRunCommand() *cli.Command {
	return &cli.Command{
		Name:      "run",
		Usage:     "Execute a workflow document against a single query",
		ArgsUsage: "<file>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "query",
				Aliases:  []string{"q"},
				Usage:    "Query to send through the workflow",
				Required: true,
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			cfg, err := loadConfig(command)
			if err != nil {
				return err
			}
			doc, err := readDocument(command)
			if err != nil {
				return err
			}

			a, err := newApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.store.Replace(doc.Snapshot()); err != nil {
				return fmt.Errorf("load workflow: %w", err)
			}

			msg, exec, err := a.chat.Send(ctx, command.String("query"))
			if err != nil {
				return err
			}
			w := command.Root().Writer
			if exec.Simulated {
				fmt.Fprintln(w, "(simulated)")
			}
			fmt.Fprintln(w, msg.Content)
			return nil
		},
	}
}
