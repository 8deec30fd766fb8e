// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/tidwall/gjson"
	"github.com/urfave/cli/v3"

	"github.com/ZENFALLACY/weather-harvester/internal/attrs"
	"github.com/ZENFALLACY/weather-harvester/internal/meta"
	"github.com/ZENFALLACY/weather-harvester/internal/monitor"
	"github.com/ZENFALLACY/weather-harvester/internal/output"
	"github.com/ZENFALLACY/weather-harvester/internal/plugins"
)

// ErrAllLocationsFailed is returned by monitor --once when no location could
// be fetched.
var ErrAllLocationsFailed = errors.New("every location failed")

// defaultMonitorAttrs are the --once table columns before --attrs applies.
var defaultMonitorAttrs = []string{
	"location:LOCATION",
	"name:NAME",
	"temp_c:TEMP °C",
	"humidity:HUMIDITY %",
	"wind_speed:WIND m/s",
	"conditions:CONDITIONS",
	"status:STATUS",
	"alerts:ALERTS",
}

func monitorCommandValidator(_ context.Context, cmd *cli.Command) error {
	if cmd.IsSet("locations") || cmd.Args().Len() > 0 {
		locs := append(cmd.StringSlice("locations"), cmd.Args().Slice()...)
		if err := FlagValidators("locations", locs, NotBlankValidator); err != nil {
			return err
		}
	}
	if err := FlagValidators("interval", cmd.Duration("interval"), PositiveDurationValidator); err != nil {
		return err
	}
	if err := FlagValidators("output", cmd.String("output"), JammedFlagValidator, OutputValidator); err != nil {
		return err
	}
	if err := FlagValidators("attrs", cmd.String("attrs"), JammedFlagValidator, AttrsValidator); err != nil {
		return err
	}
	return FlagValidators("filter", cmd.String("filter"), JammedFlagValidator, FilterValidator)
}

// monitorLocations picks --locations plus any positional arguments, else the
// configured locations, else DefaultLocation.
func monitorLocations(cmd *cli.Command, m *meta.Meta) []string {
	if locs := append(cmd.StringSlice("locations"), cmd.Args().Slice()...); len(locs) > 0 {
		return locs
	}
	if len(m.Settings.Locations) > 0 {
		return m.Settings.Locations
	}
	return []string{DefaultLocation}
}

func monitorCommandAction(m *meta.Meta) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		debugArgs(m, cmd)

		if err := validateSettings(m); err != nil {
			return err
		}

		l := logger(m)
		s := m.Settings
		st := openStore(ctx, m)

		cfg := monitor.Config{
			Locations:       monitorLocations(cmd, m),
			Interval:        cmd.Duration("interval"),
			Parallel:        cmd.Bool("parallel"),
			BreakerFailures: s.BreakerFailures,
			BreakerTimeout:  s.BreakerWait(),
		}
		opts := []monitor.Option{
			monitor.WithEnricher(plugins.Default(l)),
			monitor.WithChecker(newAlertManager(m)),
			monitor.WithLogger(l),
		}

		if cmd.Bool("once") {
			mon := monitor.New(cfg, newFetcher(m, st), opts...)
			return emitResults(cmd, m, mon.RunOnce(ctx))
		}

		opts = append(opts, monitor.WithReporter(func(r monitor.Result) {
			if r.Err == nil && len(r.Alerts) == 0 {
				l.Infof("%s: No alerts", r.Location)
			}
		}))
		mon := monitor.New(cfg, newFetcher(m, st), opts...)

		ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := mon.Run(ctx); err != nil {
			if errors.Is(err, monitor.ErrNoLocations) {
				return fmt.Errorf("%w: %w", ErrUsage, err)
			}
			return err
		}
		return nil
	}
}

// resultRows flattens results into table rows.
func resultRows(results []monitor.Result) []map[string]any {
	rows := make([]map[string]any, 0, len(results))
	for _, r := range results {
		row := map[string]any{
			"location": r.Location,
			"status":   "ok",
		}
		switch {
		case r.Skipped:
			row["status"] = "skipped"
			row["error"] = r.Err.Error()
		case r.Err != nil:
			row["status"] = "error"
			row["error"] = r.Err.Error()
		default:
			raw := r.Payload.JSON()
			row["name"] = gjson.GetBytes(raw, "name").Value()
			row["temp_c"] = gjson.GetBytes(raw, "main.temp_celsius").Value()
			row["humidity"] = gjson.GetBytes(raw, "main.humidity").Value()
			row["wind_speed"] = gjson.GetBytes(raw, "wind.speed").Value()
			row["conditions"] = gjson.GetBytes(raw, "weather.0.description").Value()
		}
		if len(r.Alerts) > 0 {
			row["alerts"] = strings.Join(r.Alerts, "; ")
		}
		rows = append(rows, row)
	}
	return rows
}

// emitResults writes one iteration's results and fails when every location
// failed.
func emitResults(cmd *cli.Command, m *meta.Meta, results []monitor.Result) error {
	format, err := output.ParseFormat(cmd.String("output"))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUsage, err)
	}
	filters, err := output.BuildFilters(cmd.String("filter"))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUsage, err)
	}

	rows := output.FilterRows(resultRows(results), filters)
	output.SortDataset(rows, cmd.String("sort"))

	switch format {
	case output.FormatJSON:
		err = output.WriteJSON(m.Stdout, rows)
	case output.FormatYAML:
		err = output.WriteYAML(m.Stdout, rows)
	default:
		al, aerr := BuildAttrs(cmd, defaultMonitorAttrs...)
		if aerr != nil {
			return fmt.Errorf("%w: %w", ErrUsage, aerr)
		}
		columns, projected := project(rows, al)
		output.TableWriter(m.Stdout, projected, columns, output.TableOptions{
			Color:  output.Colorize(m.Stdout),
			Titles: cmd.Bool("titles"),
		})
	}
	if err != nil {
		return err
	}

	var lastErr error
	for _, r := range results {
		if r.Err == nil {
			return nil
		}
		lastErr = r.Err
	}
	if lastErr == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrAllLocationsFailed, lastErr)
}

// MonitorCommandBuilder builds the monitor subcommand.
func MonitorCommandBuilder(_ *cli.Command, m *meta.Meta) *cli.Command {
	return &cli.Command{
		Name:      "monitor",
		Usage:     "poll locations on an interval and raise alerts",
		UsageText: "weather-harvester monitor [-l LOCATION]... [--interval 5m] [--parallel] [--once] [LOCATION...]",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:    "locations",
				Aliases: []string{"l"},
				Usage:   "location to monitor, city name or lat,lon; repeatable (default: configured locations)",
			},
			NewIntervalFlag(m),
			&cli.BoolFlag{
				Name:    "parallel",
				Aliases: []string{"p"},
				Usage:   "fetch locations concurrently",
			},
			&cli.BoolFlag{
				Name:  "once",
				Usage: "run a single iteration, print the results and exit",
			},
			newAttrsFlag(),
			newFilterFlag(),
			newSortFlag(),
			newTitlesFlag(),
			NewOutputFlag(m, "output format for --once: summary (table), json, yaml"),
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			return ctx, monitorCommandValidator(ctx, cmd)
		},
		Action: monitorCommandAction(m),
	}
}

// project maps the visible attrs to table columns and applies their
// transforms to copies of the rows.
func project(rows []map[string]any, al attrs.AttrList) ([]output.Column, []map[string]any) {
	included := al.Included()
	columns := make([]output.Column, 0, len(included))
	for _, a := range included {
		columns = append(columns, output.Column{Key: a.Key, Title: a.OutputKey})
	}

	out := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		p := make(map[string]any, len(included))
		for _, a := range included {
			p[a.Key] = a.Transform(row[a.Key])
		}
		out = append(out, p)
	}
	return columns, out
}
