// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss/v2"
	"github.com/charmbracelet/lipgloss/v2/table"
)

const (
	defaultHeaderColor = "#f6be00"
	defaultEvenColor   = "#ffffff"
	defaultOddColor    = "#00c8f0"
)

// Column names a row key and the title shown for it.
type Column struct {
	Key   string
	Title string
}

// TableOptions controls TableWriter.
type TableOptions struct {
	Color   bool
	Titles  bool
	Padding int
	// Empty replaces missing values. Defaults to "-".
	Empty string
}

// TableWriter renders rows as a borderless table, one line per row, in the
// order of columns.
func TableWriter(w io.Writer, rows []map[string]any, columns []Column, opts TableOptions) {
	if len(rows) == 0 || len(columns) == 0 {
		return
	}
	if opts.Empty == "" {
		opts.Empty = "-"
	}

	var (
		headerStyle  = lipgloss.NewStyle().Align(lipgloss.Left)
		cellStyle    = lipgloss.NewStyle().Padding(0, 0).Align(lipgloss.Left)
		evenRowStyle = cellStyle
		oddRowStyle  = cellStyle
	)

	if opts.Color {
		headerStyle = headerStyle.Foreground(lipgloss.Color(defaultHeaderColor))
		evenRowStyle = evenRowStyle.Foreground(lipgloss.Color(defaultEvenColor))
		oddRowStyle = oddRowStyle.Foreground(lipgloss.Color(defaultOddColor))
	}

	cells := make([][]string, 0, len(rows))
	for _, r := range rows {
		line := make([]string, 0, len(columns))
		for _, c := range columns {
			line = append(line, InterfaceToString(r[c.Key], opts.Empty))
		}
		cells = append(cells, line)
	}

	t := table.New().
		BorderBottom(false).
		BorderTop(false).
		BorderLeft(false).
		BorderRight(false).
		Border(lipgloss.HiddenBorder()).
		StyleFunc(func(row, col int) lipgloss.Style {
			var style lipgloss.Style
			switch {
			case row == table.HeaderRow:
				style = headerStyle
			case row%2 == 0:
				style = evenRowStyle
			default:
				style = oddRowStyle
			}
			if col > 0 {
				style = style.PaddingLeft(opts.Padding)
			}
			return style
		}).
		Headers().
		Rows(cells...)

	if opts.Titles {
		headers := make([]string, 0, len(columns))
		for _, c := range columns {
			headers = append(headers, c.Title)
		}
		// https://github.com/charmbracelet/lipgloss/issues/261
		t = t.Headers(headers...).BorderHeader(false)
	}
	fmt.Fprintln(w, t)
}

// InterfaceToString converts a row value to its display form. nil, empty
// strings and empty collections become the optional empty value; numeric zero
// is a real reading and is kept.
func InterfaceToString(value any, emptyValue ...string) string {
	empty := ""
	if len(emptyValue) > 0 {
		empty = emptyValue[0]
	}

	switch v := value.(type) {
	case nil:
		return empty
	case string:
		if v == "" {
			return empty
		}
		return v
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case []any:
		if len(v) == 0 {
			return empty
		}
	case []string:
		if len(v) == 0 {
			return empty
		}
	case map[string]any:
		if len(v) == 0 {
			return empty
		}
	}

	b, err := json.Marshal(value)
	if err != nil {
		return fmt.Sprintf("%v", value)
	}
	return string(b)
}
