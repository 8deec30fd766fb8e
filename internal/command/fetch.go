// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/ZENFALLACY/weather-harvester/internal/fetcher"
	"github.com/ZENFALLACY/weather-harvester/internal/meta"
	"github.com/ZENFALLACY/weather-harvester/internal/output"
	"github.com/ZENFALLACY/weather-harvester/internal/plugins"
)

// DefaultLocation is fetched when neither --location nor the profile's
// locations name one.
const DefaultLocation = "London"

func fetchCommandValidator(_ context.Context, cmd *cli.Command) error {
	if cmd.IsSet("location") {
		if err := FlagValidators("location", cmd.String("location"), JammedFlagValidator, NotBlankValidator); err != nil {
			return err
		}
	}
	return FlagValidators("output", cmd.String("output"), JammedFlagValidator, OutputValidator)
}

// fetchLocation picks --location, else the first configured location.
func fetchLocation(cmd *cli.Command, m *meta.Meta) string {
	if cmd.IsSet("location") {
		return cmd.String("location")
	}
	if len(m.Settings.Locations) > 0 {
		return m.Settings.Locations[0]
	}
	return DefaultLocation
}

func fetchCommandAction(m *meta.Meta) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		debugArgs(m, cmd)

		if err := validateSettings(m); err != nil {
			return err
		}
		format, err := output.ParseFormat(cmd.String("output"))
		if err != nil {
			return fmt.Errorf("%w: %w", ErrUsage, err)
		}

		st := openStore(ctx, m)
		f := newFetcher(m, st)

		var opts []fetcher.FetchOption
		if cmd.Bool("no-cache") {
			opts = append(opts, fetcher.WithoutCache())
		}

		location := fetchLocation(cmd, m)
		payload, err := f.Fetch(ctx, location, opts...)
		if err != nil {
			return fmt.Errorf("failed to fetch weather for %q: %w", location, err)
		}

		payload = plugins.Default(logger(m)).Apply(payload)
		return output.Render(m.Stdout, payload, format)
	}
}

// FetchCommandBuilder builds the fetch subcommand.
func FetchCommandBuilder(_ *cli.Command, m *meta.Meta) *cli.Command {
	return &cli.Command{
		Name:      "fetch",
		Usage:     "fetch current weather for one location",
		UsageText: "weather-harvester fetch [--location NAME|LAT,LON] [--no-cache] [--output summary|json|yaml]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "location",
				Aliases: []string{"l"},
				Usage:   "city name or lat,lon (default: first configured location, else " + DefaultLocation + ")",
			},
			&cli.BoolFlag{
				Name:  "no-cache",
				Usage: "bypass the cache for this request",
			},
			NewOutputFlag(m, "output format: summary, json, yaml"),
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			return ctx, fetchCommandValidator(ctx, cmd)
		},
		Action: fetchCommandAction(m),
	}
}
