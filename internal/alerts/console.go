// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package alerts

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/ZENFALLACY/weather-harvester/internal/fetcher"
)

// ConsoleNotifier prints alerts as a block of text. Styling is only applied
// when the writer is a terminal.
type ConsoleNotifier struct {
	w      io.Writer
	color  bool
	now    func() time.Time
	header lipgloss.Style
	bullet lipgloss.Style
}

var _ Notifier = (*ConsoleNotifier)(nil)

// NewConsoleNotifier writes to w.
func NewConsoleNotifier(w io.Writer) *ConsoleNotifier {
	color := false
	if f, ok := w.(*os.File); ok {
		color = term.IsTerminal(int(f.Fd()))
	}

	r := lipgloss.NewRenderer(w)
	return &ConsoleNotifier{
		w:      w,
		color:  color,
		now:    time.Now,
		header: r.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
		bullet: r.NewStyle().Foreground(lipgloss.Color("11")),
	}
}

func (c *ConsoleNotifier) style(s lipgloss.Style, text string) string {
	if !c.color {
		return text
	}
	return s.Render(text)
}

// Notify implements Notifier.
func (c *ConsoleNotifier) Notify(location string, messages []string, _ fetcher.Payload) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "\n%s\n", c.style(c.header, "⚠ WEATHER ALERT"))
	fmt.Fprintf(&sb, "Location: %s\n", location)
	fmt.Fprintf(&sb, "Time: %s\n\n", c.now().UTC().Format("2006-01-02 15:04:05 UTC"))
	for _, m := range messages {
		fmt.Fprintf(&sb, "  %s %s\n", c.style(c.bullet, "•"), m)
	}
	sb.WriteString("\n")

	_, err := io.WriteString(c.w, sb.String())
	return err
}
