// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/ZENFALLACY/weather-harvester/internal/config"
	mylog "github.com/ZENFALLACY/weather-harvester/internal/log"
	"github.com/ZENFALLACY/weather-harvester/internal/meta"
)

// InitApp builds the root command. The config file and profile are sniffed
// from args up front so that flag value sources can point at the file; each
// runnable subcommand then loads and applies them for real in its Before.
func InitApp(ctx context.Context, args []string, stdout, stderr io.Writer) (*cli.Command, *meta.Meta) {
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}

	m := &meta.Meta{
		Args:    args,
		Profile: config.DefaultProfile,
		Stdout:  stdout,
		Stderr:  stderr,
	}
	if p := sniffFlag(args, "profile"); p != "" {
		m.Profile = p
	}
	if path, err := config.Path(sniffFlag(args, "config")); err == nil {
		m.ConfigSource = path
	}

	app := &cli.Command{
		Name:      "weather-harvester",
		Usage:     "resilient weather data fetching and monitoring",
		Writer:    stdout,
		ErrWriter: stderr,
		Flags:     NewRootFlags(),

		// "lat,lon" is one location, not two.
		DisableSliceFlagSeparator: true,

		After: func(context.Context, *cli.Command) error {
			return m.Close()
		},
	}

	app.Commands = append(app.Commands,
		FetchCommandBuilder(app, m),
		MonitorCommandBuilder(app, m),
		ListPluginsCommandBuilder(app, m),
		TestConfigCommandBuilder(app, m),
		CacheCommandBuilder(app, m),
		CompletionCommandBuilder(app, m),
	)

	for _, cmd := range app.Commands {
		prepare(cmd, m)
	}

	return app, m
}

// prepare sorts flags for the --help text and runs setup ahead of every
// runnable command's own Before. Root flags are persistent, so a leaf sees
// --profile and friends wherever they appear on the command line.
func prepare(cmd *cli.Command, m *meta.Meta) {
	sort.Slice(cmd.Flags, func(i, j int) bool {
		return cmd.Flags[i].Names()[0] < cmd.Flags[j].Names()[0]
	})
	for _, sub := range cmd.Commands {
		prepare(sub, m)
	}

	if cmd.Action == nil {
		return
	}
	if skip, _ := cmd.Metadata[metaSkipSetup].(bool); skip {
		return
	}

	before := cmd.Before
	cmd.Before = func(ctx context.Context, c *cli.Command) (context.Context, error) {
		if err := setup(c, m); err != nil {
			return ctx, err
		}
		if before == nil {
			return ctx, nil
		}
		return before(ctx, c)
	}
}

// metaSkipSetup marks commands that run without configuration.
const metaSkipSetup = "skipSetup"

// setup loads the settings for the selected profile and builds the logger.
func setup(cmd *cli.Command, m *meta.Meta) error {
	m.Profile = cmd.String("profile")

	settings, cfg, err := config.LoadSettings(cmd.String("config"), m.Profile)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConfig, err)
	}
	m.Settings = settings
	m.Config = cfg
	m.ConfigSource = cfg.Source

	level := cmd.String("log-level")
	if level == "" {
		level = settings.LogLevel
	}
	file := cmd.String("log-file")
	if file == "" {
		file = settings.LogFile
	}

	logger, closer, err := mylog.InitLogger(mylog.Options{
		Level:   level,
		Verbose: cmd.Bool("verbose"),
		Console: m.Stderr,
		File:    file,
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConfig, err)
	}
	m.Logger = logger
	m.OnClose(closer)

	logger.WithField("profile", m.Profile).WithField("config", cfg.Source).Debug("configuration loaded")
	return nil
}

// sniffFlag finds --name value or --name=value in args. It stops at "--".
func sniffFlag(args []string, name string) string {
	long := "--" + name
	for i := 1; i < len(args); i++ {
		a := args[i]
		switch {
		case a == "--":
			return ""
		case a == long && i+1 < len(args):
			return args[i+1]
		case strings.HasPrefix(a, long+"="):
			return strings.TrimPrefix(a, long+"=")
		}
	}
	return ""
}
