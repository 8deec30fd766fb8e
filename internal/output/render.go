// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss/v2"
	"github.com/dustin/go-humanize"
	"github.com/tidwall/gjson"
	"golang.org/x/term"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v2"

	"github.com/ZENFALLACY/weather-harvester/internal/fetcher"
	"github.com/ZENFALLACY/weather-harvester/internal/store"
)

// Format selects how a payload is written.
type Format string

const (
	FormatSummary Format = "summary"
	FormatJSON    Format = "json"
	FormatYAML    Format = "yaml"
)

// Formats lists the accepted --output values.
var Formats = []string{string(FormatSummary), string(FormatJSON), string(FormatYAML)}

const (
	kelvinOffset = 273.15
	ruleWidth    = 50
	notAvailable = "N/A"
)

// ParseFormat maps a flag value to a Format. Empty means summary.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatSummary, nil
	case FormatSummary, FormatJSON, FormatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported output format %q (want one of %s)", s, strings.Join(Formats, ", "))
	}
}

// Render writes payload to w in the requested format.
func Render(w io.Writer, payload fetcher.Payload, format Format) error {
	switch format {
	case FormatJSON:
		return WriteJSON(w, payload)
	case FormatYAML:
		return WriteYAML(w, payload)
	case FormatSummary, "":
		return writeSummary(w, payload, Colorize(w))
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}

// WriteJSON writes v as indented JSON followed by a newline.
func WriteJSON(w io.Writer, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode json: %w", err)
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}

// WriteYAML writes v as a YAML document.
func WriteYAML(w io.Writer, v any) error {
	b, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode yaml: %w", err)
	}
	_, err = w.Write(b)
	return err
}

// Colorize reports whether styled output should be sent to w. NO_COLOR
// always wins.
func Colorize(w io.Writer) bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// palette holds the styling funcs for one render. Without color they return
// their input unchanged.
type palette struct {
	title func(string) string
	label func(string) string
}

func newPalette(color bool) palette {
	plain := func(s string) string { return s }
	if !color {
		return palette{title: plain, label: plain}
	}
	title := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(defaultHeaderColor))
	label := lipgloss.NewStyle().Bold(true)
	return palette{
		title: func(s string) string { return title.Render(s) },
		label: func(s string) string { return label.Render(s) },
	}
}

func writeSummary(w io.Writer, payload fetcher.Payload, color bool) error {
	doc := string(payload.JSON())
	get := func(path string) gjson.Result { return gjson.Get(doc, path) }
	p := newPalette(color)
	rule := strings.Repeat("=", ruleWidth)

	location := get("name").String()
	if location == "" {
		location = "Unknown"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "\n%s\n%s\n%s\n", rule, p.title("Weather Report: "+location), rule)

	line := func(label, value string) {
		fmt.Fprintf(&sb, "%s %s\n", p.label(label+":"), value)
	}

	line("Temperature", temperature(get))
	if cat := get("main.temp_category"); cat.Exists() {
		fmt.Fprintf(&sb, "  Category: %s\n", cat.String())
	}

	cond := notAvailable
	if d := get("weather.0.description").String(); d != "" {
		cond = cases.Title(language.English).String(d)
	}
	line("Conditions", cond)
	line("Humidity", orNA(get("main.humidity"))+"%")
	line("Pressure", orNA(get("main.pressure"))+" hPa")
	line("Wind Speed", orNA(get("wind.speed"))+" m/s")

	if insights := get("insights").Array(); len(insights) > 0 {
		fmt.Fprintf(&sb, "\n%s\n", p.label("Insights:"))
		for _, i := range insights {
			fmt.Fprintf(&sb, "  • %s\n", i.String())
		}
	}
	fmt.Fprintf(&sb, "%s\n", rule)

	_, err := io.WriteString(w, sb.String())
	return err
}

// temperature prefers the converted values added by plugins and falls back to
// converting the raw kelvin reading.
func temperature(get func(string) gjson.Result) string {
	c, f := get("main.temp_celsius"), get("main.temp_fahrenheit")
	switch {
	case c.Exists() && f.Exists():
		return fmt.Sprintf("%.1f°C (%.1f°F)", c.Float(), f.Float())
	case get("main.temp").Type == gjson.Number:
		celsius := get("main.temp").Float() - kelvinOffset
		return fmt.Sprintf("%.1f°C (%.1f°F)", celsius, celsius*9/5+32)
	default:
		return notAvailable
	}
}

func orNA(r gjson.Result) string {
	if !r.Exists() || r.Type == gjson.Null {
		return notAvailable
	}
	return r.String()
}

// RenderStats writes a human readable cache summary.
func RenderStats(w io.Writer, stats store.Stats) error {
	p := newPalette(Colorize(w))

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s\n", p.title("Cache Statistics"))
	fmt.Fprintf(&sb, "  Location:        %s\n", stats.Location)
	fmt.Fprintf(&sb, "  Total entries:   %s\n", humanize.Comma(int64(stats.Total)))
	fmt.Fprintf(&sb, "  Valid entries:   %s\n", humanize.Comma(int64(stats.Valid)))
	fmt.Fprintf(&sb, "  Expired entries: %s\n", humanize.Comma(int64(stats.Expired)))
	fmt.Fprintf(&sb, "  Total size:      %s\n", humanize.Bytes(uint64(max(stats.TotalSizeBytes, 0)))) //nolint:gosec

	_, err := io.WriteString(w, sb.String())
	return err
}
