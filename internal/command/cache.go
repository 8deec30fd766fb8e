// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/ZENFALLACY/weather-harvester/internal/meta"
	"github.com/ZENFALLACY/weather-harvester/internal/output"
	"github.com/ZENFALLACY/weather-harvester/internal/store"
)

// requireStore opens the cache or fails; the cache subcommands have nothing
// to do without one.
func requireStore(ctx context.Context, m *meta.Meta) (*store.Store, error) {
	st := openStore(ctx, m)
	if st == nil {
		return nil, store.ErrCacheUnavailable
	}
	return st, nil
}

func cacheStatsAction(m *meta.Meta) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		debugArgs(m, cmd)

		format, err := output.ParseFormat(cmd.String("output"))
		if err != nil {
			return fmt.Errorf("%w: %w", ErrUsage, err)
		}
		st, err := requireStore(ctx, m)
		if err != nil {
			return err
		}

		stats := st.Stats()
		switch format {
		case output.FormatJSON:
			return output.WriteJSON(m.Stdout, stats)
		case output.FormatYAML:
			return output.WriteYAML(m.Stdout, stats)
		default:
			return output.RenderStats(m.Stdout, stats)
		}
	}
}

func cacheClearAction(m *meta.Meta) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		debugArgs(m, cmd)

		st, err := requireStore(ctx, m)
		if err != nil {
			return err
		}
		fmt.Fprintf(m.Stdout, "Removed %d cache entries from %s\n", st.Clear(), st.Location())
		return nil
	}
}

func cacheCleanupAction(m *meta.Meta) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		debugArgs(m, cmd)

		st, err := requireStore(ctx, m)
		if err != nil {
			return err
		}
		fmt.Fprintf(m.Stdout, "Removed %d expired cache entries from %s\n", st.CleanupExpired(), st.Location())
		return nil
	}
}

// CacheCommandBuilder builds the cache subcommand and its children.
func CacheCommandBuilder(_ *cli.Command, m *meta.Meta) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "inspect and maintain the response cache",
		Commands: []*cli.Command{
			{
				Name:  "stats",
				Usage: "show entry counts and size",
				Flags: []cli.Flag{
					NewOutputFlag(m, "output format: summary, json, yaml"),
				},
				Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
					return ctx, FlagValidators("output", cmd.String("output"), JammedFlagValidator, OutputValidator)
				},
				Action: cacheStatsAction(m),
			},
			{
				Name:   "clear",
				Usage:  "remove every entry",
				Action: cacheClearAction(m),
			},
			{
				Name:   "cleanup",
				Usage:  "remove expired entries",
				Action: cacheCleanupAction(m),
			},
		},
	}
}
