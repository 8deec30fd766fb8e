// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

// Command docgen renders man and tldr pages for every weather-harvester
// subcommand. Names, usage and flags come from the command tree itself;
// docs/commands/<name>.md adds the description, examples and notes.
package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	md2man "github.com/cpuguy83/go-md2man/v2/md2man"
	"github.com/urfave/cli/v3"

	"github.com/ZENFALLACY/weather-harvester/internal/command"
)

const (
	program = "weather-harvester"
	homeURL = "https://github.com/ZENFALLACY/weather-harvester"
)

func main() {
	var (
		repoRoot string
		check    bool
	)

	flag.StringVar(&repoRoot, "root", ".", "repo root")
	flag.BoolVar(&check, "check", false, "list stale pages and fail instead of writing them")
	flag.Parse()

	app, _ := command.InitApp(context.Background(), nil, io.Discard, io.Discard)

	stale, err := generate(app, repoRoot, !check)
	if err != nil {
		fatalf("%v", err)
	}
	if check && len(stale) > 0 {
		fatalf("docs are stale, run go generate:\n  %s", strings.Join(stale, "\n  "))
	}
}

// generate renders the pages for every visible subcommand of app. It returns
// the pages whose content changed, writing them only when write is set.
func generate(app *cli.Command, repoRoot string, write bool) ([]string, error) {
	prose, err := loadProse(filepath.Join(repoRoot, "docs", "commands"))
	if err != nil {
		return nil, err
	}

	pages := buildPages(app)
	known := map[string]bool{}
	for _, p := range pages {
		known[p.Name] = true
	}
	for name := range prose {
		if !known[name] {
			return nil, fmt.Errorf("docs/commands/%s.md does not match any command", name)
		}
	}

	manDir := filepath.Join(repoRoot, "docs", "man", "share", "man1")
	tldrDir := filepath.Join(repoRoot, "docs", "tldr")

	var changed []string
	for _, p := range pages {
		p.Prose = prose[p.Name]
		outputs := []struct {
			path string
			data []byte
		}{
			{filepath.Join(manDir, program+"-"+p.Name+".1"), md2man.Render([]byte(renderMan(p)))},
			{filepath.Join(tldrDir, program+"-"+p.Name+".md"), []byte(renderTLDR(p))},
		}
		for _, o := range outputs {
			diff, err := syncFile(o.path, o.data, write)
			if err != nil {
				return changed, fmt.Errorf("writing %s: %w", o.path, err)
			}
			if diff {
				changed = append(changed, o.path)
			}
		}
	}
	return changed, nil
}

// syncFile reports whether path differs from data, ignoring surrounding
// whitespace, and rewrites it when write is set.
func syncFile(path string, data []byte, write bool) (bool, error) {
	old, err := os.ReadFile(path)
	switch {
	case err == nil:
		if bytes.Equal(bytes.TrimSpace(old), bytes.TrimSpace(data)) {
			return false, nil
		}
	case !errors.Is(err, fs.ErrNotExist):
		return false, err
	}

	if !write {
		return true, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, err
	}
	return true, os.WriteFile(path, data, 0o644)
}

func fatalf(f string, a ...any) {
	fmt.Fprintf(os.Stderr, f+"\n", a...)
	os.Exit(1)
}
