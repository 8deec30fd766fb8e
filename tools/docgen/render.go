// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"regexp"
	"strings"
)

// renderMan builds the man page as markdown for md2man.
func renderMan(p page) string {
	full := program + "-" + strings.ReplaceAll(p.Name, " ", "-")

	var b strings.Builder
	fmt.Fprintf(&b, "# %s 1\n\n", strings.ToUpper(full))
	fmt.Fprintf(&b, "# NAME\n\n%s - %s\n\n", full, escape(p.Usage))

	b.WriteString("# SYNOPSIS\n\n")
	fmt.Fprintf(&b, "**%s %s** [*flags*]", program, p.Name)
	if p.ArgsUsage != "" {
		fmt.Fprintf(&b, " %s", escape(p.ArgsUsage))
	}
	b.WriteString("\n\n")

	if p.Prose.Description != "" {
		fmt.Fprintf(&b, "# DESCRIPTION\n\n%s\n\n", p.Prose.Description)
	}
	writeFlags(&b, "# OPTIONS", p.Flags)

	if len(p.Sub) > 0 {
		b.WriteString("# COMMANDS\n\n")
		for _, sub := range p.Sub {
			fmt.Fprintf(&b, "## %s\n\n%s\n\n", sub.Name, escape(sub.Usage))
			writeFlags(&b, "", sub.Flags)
		}
	}
	writeFlags(&b, "# GLOBAL OPTIONS", p.Global)

	if len(p.Prose.Examples) > 0 {
		b.WriteString("# EXAMPLES\n\n")
		for _, ex := range p.Prose.Examples {
			if ex.Desc != "" {
				fmt.Fprintf(&b, "%s:\n\n", escape(ex.Desc))
			}
			fmt.Fprintf(&b, "```\n%s\n```\n\n", ex.Cmd)
		}
	}
	if p.Prose.Notes != "" {
		fmt.Fprintf(&b, "# NOTES\n\n%s\n\n", p.Prose.Notes)
	}

	fmt.Fprintf(&b, "# SEE ALSO\n\n**%s**(1)\n", program)
	return b.String()
}

func writeFlags(b *strings.Builder, heading string, flags []flagDoc) {
	if len(flags) == 0 {
		return
	}
	if heading != "" {
		b.WriteString(heading + "\n\n")
	}
	for _, f := range flags {
		names := f.switches()
		for i, n := range names {
			names[i] = "**" + n + "**"
		}
		b.WriteString("- " + strings.Join(names, ", "))
		if f.Value {
			b.WriteString(" *value*")
		}
		if f.Usage != "" {
			b.WriteString(": " + escape(f.Usage))
		}
		if f.Default != "" {
			fmt.Fprintf(b, " (default: %s)", escape(f.Default))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
}

// renderTLDR builds the tldr page: one line of usage, then the examples.
func renderTLDR(p page) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s-%s\n\n", program, strings.ReplaceAll(p.Name, " ", "-"))
	fmt.Fprintf(&b, "> %s.\n", sentence(p.Usage))
	fmt.Fprintf(&b, "> More information: %s.\n", homeURL)

	exs := p.Prose.Examples
	if len(exs) == 0 {
		exs = []example{{Desc: "Show help for the command", Cmd: program + " " + p.Name + " --help"}}
	}
	for _, ex := range exs {
		desc := ex.Desc
		if desc == "" {
			desc = sentence(p.Usage)
		}
		fmt.Fprintf(&b, "\n- %s:\n\n`%s`\n", desc, placeholderRe.ReplaceAllString(ex.Cmd, "{{$1}}"))
	}
	return b.String()
}

// placeholderRe matches <placeholder>, which tldr writes as {{placeholder}}.
var placeholderRe = regexp.MustCompile(`<([^<>]+)>`)

var markdownEscaper = strings.NewReplacer(`\`, `\\`, "*", `\*`, "_", `\_`, "`", "\\`", "<", `\<`)

func escape(s string) string {
	return markdownEscaper.Replace(s)
}

func sentence(s string) string {
	s = strings.TrimSuffix(strings.TrimSpace(s), ".")
	if s == "" {
		return program
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
