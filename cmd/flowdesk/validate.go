package main

import (
	"context"
	"fmt"
	"os"

	cli "github.com/urfave/cli/v3"

	"github.com/soochol/flowdesk/internal/codec"
	"github.com/soochol/flowdesk/internal/validation"
)

func readDocument(command *cli.Command) (codec.Document, error) {
	path := command.Args().First()
	if path == "" {
		return codec.Document{}, fmt.Errorf("missing workflow file argument")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return codec.Document{}, fmt.Errorf("read workflow: %w", err)
	}
	return codec.Deserialize(data)
}

func newValidateCommand() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Aliases:   []string{"v"},
		Usage:     "Check an exported workflow document",
		ArgsUsage: "<file>",
		Action: func(ctx context.Context, command *cli.Command) error {
			doc, err := readDocument(command)
			if err != nil {
				return err
			}
			report, err := validation.Validate(doc.Nodes, doc.Edges)
			if err != nil {
				return fmt.Errorf("%s: %w", validation.Code(err), err)
			}

			w := command.Root().Writer
			fmt.Fprintf(w, "valid: %d nodes, %d edges\n", len(doc.Nodes), len(doc.Edges))
			for _, adv := range report.Advisories {
				fmt.Fprintf(w, "  %s: %s\n", adv.Code, adv.Message)
			}
			return nil
		},
	}
}
