// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/ZENFALLACY/weather-harvester/internal/meta"
)

func testConfigCommandAction(m *meta.Meta) cli.ActionFunc {
	return func(_ context.Context, cmd *cli.Command) error {
		debugArgs(m, cmd)

		source := m.Config.Source
		if source == "" {
			source = "(none, defaults and environment only)"
		}

		w := m.Stdout
		fmt.Fprintln(w, "[OK] Configuration loaded successfully")
		fmt.Fprintf(w, "  Profile: %s\n", m.Profile)
		fmt.Fprintf(w, "  File: %s\n", source)
		fmt.Fprintln(w)

		if err := m.Settings.Validate(); err != nil {
			fmt.Fprintln(w, "[FAIL] Configuration validation failed")
			fmt.Fprintf(w, "  %v\n", err)
			return fmt.Errorf("%w: %w", ErrConfig, err)
		}
		fmt.Fprintln(w, "[OK] Configuration is valid")

		if cmd.Bool("show") || cmd.Bool("verbose") {
			fmt.Fprintln(w, "\nConfiguration values:")
			for _, kv := range m.Settings.Values() {
				fmt.Fprintf(w, "  %s: %s\n", kv.Key, kv.Value)
			}
		}
		return nil
	}
}

// TestConfigCommandBuilder builds the test-config subcommand.
func TestConfigCommandBuilder(_ *cli.Command, m *meta.Meta) *cli.Command {
	return &cli.Command{
		Name:  "test-config",
		Usage: "load and validate the configuration",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "show",
				Usage: "print the effective values, secrets masked",
			},
		},
		Action: testConfigCommandAction(m),
	}
}
