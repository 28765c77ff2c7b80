// Package output provides styling helpers for terminal output.
package output

import (
	"io"

	"github.com/muesli/termenv"
)

// Styles wraps a termenv output and renders the text roles used in
// reports and running totals. Status lines use the cli package's lipgloss
// styles. Colors degrade to plain text when w is not a terminal.
type Styles struct {
	output *termenv.Output
}

// NewStyles creates a Styles instance for w.
func NewStyles(w io.Writer) *Styles {
	return &Styles{output: termenv.NewOutput(w)}
}

func (s *Styles) color(text, code string, bold bool) string {
	style := s.output.String(text).Foreground(s.output.Color(code))
	if bold {
		style = style.Bold()
	}
	return style.String()
}

// Warning renders text yellow and bold.
func (s *Styles) Warning(text string) string { return s.color(text, "3", true) }

// Money renders a formatted amount in magenta.
func (s *Styles) Money(text string) string { return s.color(text, "5", false) }

// Heading renders a section title in bold.
func (s *Styles) Heading(text string) string {
	return s.output.String(text).Bold().String()
}

// Dim renders secondary information faint.
func (s *Styles) Dim(text string) string {
	return s.output.String(text).Faint().String()
}
