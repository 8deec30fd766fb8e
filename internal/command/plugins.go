// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/ZENFALLACY/weather-harvester/internal/meta"
	"github.com/ZENFALLACY/weather-harvester/internal/output"
	"github.com/ZENFALLACY/weather-harvester/internal/plugins"
)

var pluginColumns = []output.Column{
	{Key: "name", Title: "NAME"},
	{Key: "version", Title: "VERSION"},
	{Key: "description", Title: "DESCRIPTION"},
}

func listPluginsCommandAction(m *meta.Meta) cli.ActionFunc {
	return func(_ context.Context, cmd *cli.Command) error {
		debugArgs(m, cmd)

		format, err := output.ParseFormat(cmd.String("output"))
		if err != nil {
			return fmt.Errorf("%w: %w", ErrUsage, err)
		}

		registered := plugins.Default(logger(m)).Plugins()
		rows := make([]map[string]any, 0, len(registered))
		for _, p := range registered {
			rows = append(rows, map[string]any{
				"name":        p.Name(),
				"version":     p.Version(),
				"description": p.Description(),
			})
		}

		switch format {
		case output.FormatJSON:
			return output.WriteJSON(m.Stdout, rows)
		case output.FormatYAML:
			return output.WriteYAML(m.Stdout, rows)
		}

		if len(rows) == 0 {
			fmt.Fprintln(m.Stdout, "No plugins found.")
			return nil
		}
		fmt.Fprintf(m.Stdout, "Available plugins (%d):\n\n", len(rows))
		output.TableWriter(m.Stdout, rows, pluginColumns, output.TableOptions{
			Color:  output.Colorize(m.Stdout),
			Titles: cmd.Bool("titles"),
		})
		return nil
	}
}

// ListPluginsCommandBuilder builds the list-plugins subcommand.
func ListPluginsCommandBuilder(_ *cli.Command, m *meta.Meta) *cli.Command {
	return &cli.Command{
		Name:  "list-plugins",
		Usage: "list the registered payload plugins",
		Flags: []cli.Flag{
			newTitlesFlag(),
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "output format: summary (table), json, yaml",
				Value:   string(output.FormatSummary),
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			return ctx, FlagValidators("output", cmd.String("output"), JammedFlagValidator, OutputValidator)
		},
		Action: listPluginsCommandAction(m),
	}
}
