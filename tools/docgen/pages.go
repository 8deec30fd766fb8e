// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"strings"

	"github.com/urfave/cli/v3"
)

type flagDoc struct {
	Names   []string
	Value   bool
	Usage   string
	Default string
}

// page is one top-level subcommand. Sub holds its own subcommands, named by
// their full path ("cache stats").
type page struct {
	Name      string
	Usage     string
	ArgsUsage string
	Flags     []flagDoc
	Global    []flagDoc
	Sub       []page
	Prose     prose
}

func buildPages(app *cli.Command) []page {
	global := flagDocs(app.Flags)

	var pages []page
	for _, c := range app.Commands {
		if c.Hidden {
			continue
		}
		p := newPage(c, c.Name)
		p.Global = global
		pages = append(pages, p)
	}
	return pages
}

func newPage(c *cli.Command, name string) page {
	p := page{
		Name:      name,
		Usage:     c.Usage,
		ArgsUsage: c.ArgsUsage,
		Flags:     flagDocs(c.Flags),
	}
	for _, sub := range c.Commands {
		if sub.Hidden {
			continue
		}
		p.Sub = append(p.Sub, newPage(sub, name+" "+sub.Name))
	}
	return p
}

// flagDocs describes the visible flags. The cli flag types expose their
// documentation through optional methods, so each is probed separately.
func flagDocs(flags []cli.Flag) []flagDoc {
	var docs []flagDoc
	for _, f := range flags {
		if v, ok := f.(interface{ IsVisible() bool }); ok && !v.IsVisible() {
			continue
		}

		d := flagDoc{Names: f.Names()}
		if u, ok := f.(interface{ GetUsage() string }); ok {
			d.Usage = u.GetUsage()
		}
		if v, ok := f.(interface{ TakesValue() bool }); ok {
			d.Value = v.TakesValue()
		}
		if v, ok := f.(interface{ GetDefaultText() string }); ok && d.Value {
			d.Default = strings.Trim(v.GetDefaultText(), `"`)
		}
		docs = append(docs, d)
	}
	return docs
}

// switches renders the flag names as they are typed: --name or -n.
func (d flagDoc) switches() []string {
	out := make([]string, 0, len(d.Names))
	for _, n := range d.Names {
		if len(n) == 1 {
			out = append(out, "-"+n)
		} else {
			out = append(out, "--"+n)
		}
	}
	return out
}
