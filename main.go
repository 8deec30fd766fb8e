// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package main

//go:generate go run ./tools/docgen -root .

import (
	"context"
	"fmt"
	"os"

	"github.com/apex/log"
	"github.com/joho/godotenv"

	"github.com/ZENFALLACY/weather-harvester/internal/command"
	"github.com/ZENFALLACY/weather-harvester/internal/version"
)

var ctx = context.Background()

func main() {
	os.Exit(realMain())
}

func realMain() int {
	// A missing .env is the normal case.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warn("failed to load .env")
	}

	args := os.Args

	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, "No command specified.")
		args = append(args, "--help")
	}

	// Short-circuit --version. -v is --verbose.
	for _, a := range args[1:] {
		if a == "--" {
			break
		}
		if a == "--version" {
			fmt.Println(version.Version)
			return command.ExitSuccess
		}
	}

	app, _ := command.InitApp(ctx, args, os.Stdout, os.Stderr)

	if err := app.Run(ctx, args); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return command.ExitCode(err)
	}

	return command.ExitSuccess
}
