package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
)

// UI provides user-friendly output utilities.
type UI struct {
	out      io.Writer
	jsonMode bool
}

// NewUI creates a new UI writing to out.
func NewUI(out io.Writer, jsonMode, noColor bool) *UI {
	if noColor || jsonMode {
		color.NoColor = true
	}
	return &UI{out: out, jsonMode: jsonMode}
}

// Success prints a success message.
func (ui *UI) Success(format string, args ...any) {
	if ui.jsonMode {
		return
	}
	color.New(color.FgGreen).Fprintf(ui.out, "✓ %s\n", fmt.Sprintf(format, args...))
}

// Info prints an informational message.
func (ui *UI) Info(format string, args ...any) {
	if ui.jsonMode {
		return
	}
	color.New(color.FgCyan).Fprintf(ui.out, "ℹ %s\n", fmt.Sprintf(format, args...))
}

// Warning prints a warning message.
func (ui *UI) Warning(format string, args ...any) {
	if ui.jsonMode {
		return
	}
	color.New(color.FgYellow).Fprintf(ui.out, "⚠ %s\n", fmt.Sprintf(format, args...))
}

// Section prints a bold header.
func (ui *UI) Section(title string) {
	if ui.jsonMode {
		return
	}
	bold := color.New(color.Bold)
	bold.Fprintln(ui.out, title)
	bold.Fprintln(ui.out, strings.Repeat("─", len([]rune(title))))
}

// KeyValue prints an aligned key and value.
func (ui *UI) KeyValue(key, value string) {
	if ui.jsonMode {
		return
	}
	fmt.Fprintf(ui.out, "  %s %s\n", color.New(color.Faint).Sprintf("%-12s", key+":"), value)
}

// Text prints a block of text as is.
func (ui *UI) Text(s string) {
	if ui.jsonMode {
		return
	}
	fmt.Fprintln(ui.out, s)
}

// Table displays rows under headers.
func (ui *UI) Table(headers []string, rows [][]string) {
	if ui.jsonMode {
		return
	}
	w := tabwriter.NewWriter(ui.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, color.New(color.Bold).Sprint(strings.Join(headers, "\t")))
	for _, row := range rows {
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	_ = w.Flush()
}

// JSON prints v when --json is set and reports whether it did.
func (ui *UI) JSON(v any) (bool, error) {
	if !ui.jsonMode {
		return false, nil
	}
	enc := json.NewEncoder(ui.out)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return true, enc.Encode(v)
}
