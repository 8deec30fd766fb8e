// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/russross/blackfriday/v2"
)

type example struct {
	Desc string
	Cmd  string
}

// prose is the hand-written part of a command doc.
type prose struct {
	Description string
	Examples    []example
	Notes       string
}

var sections = map[string]bool{"description": true, "examples": true, "notes": true}

// loadProse reads every docs/commands/<name>.md under dir, keyed by name.
func loadProse(dir string) (map[string]prose, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading commands dir %s: %w", dir, err)
	}

	out := map[string]prose{}
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".md" {
			continue
		}
		raw, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		p, err := parseProse(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", e.Name(), err)
		}
		out[strings.TrimSuffix(e.Name(), ".md")] = p
	}
	return out, nil
}

// parseProse splits a doc into its "## " sections. Description and notes
// stay markdown; the examples section is parsed into description/command
// pairs.
func parseProse(raw []byte) (prose, error) {
	found := map[string]string{}

	var name string
	var body strings.Builder
	flush := func() {
		if name != "" {
			found[name] = strings.TrimSpace(body.String())
		}
		body.Reset()
	}
	for _, line := range strings.Split(string(raw), "\n") {
		if h, ok := strings.CutPrefix(line, "## "); ok {
			flush()
			name = strings.ToLower(strings.TrimSpace(h))
			if !sections[name] {
				return prose{}, fmt.Errorf("unknown section %q", h)
			}
			continue
		}
		body.WriteString(line)
		body.WriteString("\n")
	}
	flush()

	return prose{
		Description: found["description"],
		Examples:    parseExamples([]byte(found["examples"])),
		Notes:       found["notes"],
	}, nil
}

// parseExamples collects the examples from every code block in md.
func parseExamples(md []byte) []example {
	var exs []example
	root := blackfriday.New(blackfriday.WithExtensions(blackfriday.CommonExtensions)).Parse(md)
	root.Walk(func(n *blackfriday.Node, entering bool) blackfriday.WalkStatus {
		if entering && n.Type == blackfriday.CodeBlock {
			exs = append(exs, pairExamples(string(n.Literal))...)
		}
		return blackfriday.GoToNext
	})
	return exs
}

// pairExamples pairs each "# description" line with the command after it.
// A command without a description gets an empty one.
func pairExamples(code string) []example {
	var exs []example
	desc := ""
	for _, line := range strings.Split(code, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case line == "":
		case strings.HasPrefix(line, "#"):
			desc = strings.TrimSpace(strings.TrimPrefix(line, "#"))
		default:
			exs = append(exs, example{Desc: desc, Cmd: strings.Join(strings.Fields(line), " ")})
			desc = ""
		}
	}
	return exs
}
