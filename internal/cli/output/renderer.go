// Package output renders command results as styled text for terminals or as
// JSON for pipes and scripting.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/jedib0t/go-pretty/v6/table"
	"golang.org/x/term"
)

// Mode selects the output format.
type Mode string

const (
	// ModeAuto picks text on a TTY and JSON otherwise.
	ModeAuto Mode = "auto"
	ModeText Mode = "text"
	ModeJSON Mode = "json"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// Renderer writes command output in the selected mode.
type Renderer struct {
	out  io.Writer
	err  io.Writer
	mode Mode
}

// NewRenderer creates a renderer. ModeAuto resolves to text when stdout is a
// terminal and JSON otherwise.
func NewRenderer(out, errOut io.Writer, mode Mode) *Renderer {
	if mode == "" || mode == ModeAuto {
		mode = ModeJSON
		if f, ok := out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
			mode = ModeText
		}
	}
	return &Renderer{out: out, err: errOut, mode: mode}
}

// Mode returns the resolved output mode.
func (r *Renderer) Mode() Mode { return r.mode }

// JSON reports whether the renderer emits JSON.
func (r *Renderer) JSON() bool { return r.mode == ModeJSON }

// Title prints a bold section heading in text mode; no-op in JSON mode.
func (r *Renderer) Title(s string) {
	if r.mode == ModeText {
		fmt.Fprintln(r.out, titleStyle.Render(s))
	}
}

// Success prints a confirmation line in text mode; no-op in JSON mode.
func (r *Renderer) Success(format string, args ...any) {
	if r.mode == ModeText {
		fmt.Fprintln(r.out, successStyle.Render(fmt.Sprintf(format, args...)))
	}
}

// Muted prints de-emphasized detail in text mode; no-op in JSON mode.
func (r *Renderer) Muted(format string, args ...any) {
	if r.mode == ModeText {
		fmt.Fprintln(r.out, mutedStyle.Render(fmt.Sprintf(format, args...)))
	}
}

// Error prints an error line to the error stream in either mode.
func (r *Renderer) Error(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if r.mode == ModeJSON {
		_ = json.NewEncoder(r.err).Encode(map[string]string{"error": msg})
		return
	}
	fmt.Fprintln(r.err, errorStyle.Render("Error: "+msg))
}

// Raw writes a preformatted block, such as compiled SQL, without styling.
func (r *Renderer) Raw(s string) {
	fmt.Fprintln(r.out, s)
}

// Object emits a value as indented JSON. Used by JSON mode for structured
// results; text-mode callers usually prefer Table or Raw.
func (r *Renderer) Object(v any) error {
	enc := json.NewEncoder(r.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Table renders rows. Text mode draws a styled table; JSON mode emits an
// array of objects keyed by column name.
func (r *Renderer) Table(header []string, rows [][]any) error {
	if r.mode == ModeJSON {
		out := make([]map[string]any, 0, len(rows))
		for _, row := range rows {
			obj := make(map[string]any, len(header))
			for i, col := range header {
				if i < len(row) {
					obj[col] = row[i]
				}
			}
			out = append(out, obj)
		}
		return r.Object(out)
	}

	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetStyle(table.StyleLight)
	hdr := make(table.Row, len(header))
	for i, h := range header {
		hdr[i] = h
	}
	t.AppendHeader(hdr)
	for _, row := range rows {
		t.AppendRow(table.Row(row))
	}
	t.Render()
	return nil
}
