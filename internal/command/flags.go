// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	altsrc "github.com/urfave/cli-altsrc/v3"
	yaml "github.com/urfave/cli-altsrc/v3/yaml"
	"github.com/urfave/cli/v3"

	"github.com/ZENFALLACY/weather-harvester/internal/config"
	mylog "github.com/ZENFALLACY/weather-harvester/internal/log"
	"github.com/ZENFALLACY/weather-harvester/internal/meta"
	"github.com/ZENFALLACY/weather-harvester/internal/monitor"
	"github.com/ZENFALLACY/weather-harvester/internal/output"
)

// NewRootFlags are the flags every subcommand inherits.
func NewRootFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "config",
			Usage: "path to the configuration file (" + config.EnvConfig + ", else " + config.FileName + " in the user config dirs)",
		},
		&cli.StringFlag{
			Name:  "profile",
			Usage: "configuration profile to use",
			Value: config.DefaultProfile,
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "log level: debug, info, warn, error, fatal",
			Sources: cli.NewValueSourceChain(
				cli.EnvVar(mylog.EnvLevel),
			),
		},
		&cli.StringFlag{
			Name:  "log-file",
			Usage: "also write JSON log records to this file",
		},
		&cli.BoolFlag{
			Name:        "verbose",
			Aliases:     []string{"v"},
			Usage:       "enable debug logging",
			HideDefault: true,
		},
	}
}

// NewOutputFlag builds --output, sourced from the profile's then the top
// level "output" key of the config file.
func NewOutputFlag(m *meta.Meta, usage string) *cli.StringFlag {
	flag := &cli.StringFlag{
		Name:    "output",
		Aliases: []string{"o"},
		Usage:   usage,
		Value:   string(output.FormatSummary),
	}
	return NameSpacedValueChainFlagFromConfigFile(m.Profile, m.ConfigSource, flag)
}

// NewIntervalFlag builds --interval, sourced like --output.
func NewIntervalFlag(m *meta.Meta) *cli.DurationFlag {
	flag := &cli.DurationFlag{
		Name:    "interval",
		Aliases: []string{"i"},
		Usage:   "time between monitoring iterations",
		Value:   monitor.DefaultInterval,
	}
	if m.ConfigSource != "" {
		flag.Sources = cli.NewValueSourceChain(
			yaml.YAML(m.Profile+".interval", altsrc.StringSourcer(m.ConfigSource)),
			yaml.YAML("interval", altsrc.StringSourcer(m.ConfigSource)),
		)
	}
	return flag
}

// NameSpacedValueChainFlagFromConfigFile adds namespaced and global config file
// sources to the given flag's Sources chain.
func NameSpacedValueChainFlagFromConfigFile(ns string, path string, flag *cli.StringFlag) *cli.StringFlag {
	if path == "" {
		return flag
	}

	src := yaml.YAML(ns+"."+flag.Name, altsrc.StringSourcer(path))
	flag.Sources.Chain = append(flag.Sources.Chain, src)

	src = yaml.YAML(flag.Name, altsrc.StringSourcer(path))
	flag.Sources.Chain = append(flag.Sources.Chain, src)

	return flag
}

func newAttrsFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "attrs",
		Aliases: []string{"a"},
		Usage:   "comma-separated table columns as key[:title[:transform]], !key hides, *::u applies to all",
	}
}

func newFilterFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "filter",
		Aliases: []string{"f"},
		Usage:   "comma-separated list of filters to apply to results, e.g. temp_c>25,alerts@Wind",
	}
}

func newSortFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "sort",
		Aliases: []string{"s"},
		Usage:   "comma-separated list of columns to sort the results by (-col descending)",
	}
}

func newTitlesFlag() *cli.BoolWithInverseFlag {
	return &cli.BoolWithInverseFlag{
		Name:  "titles",
		Usage: "show column titles with table output",
		Value: true,
	}
}
