package main

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/albertocavalcante/go-simdplan/internal/diag"
)

// styles renders diagnostic lines, with color when the stream is a
// terminal.
type styles struct {
	w        io.Writer
	enabled  bool
	info     lipgloss.Style
	warning  lipgloss.Style
	errStyle lipgloss.Style
}

func newStyles(w io.Writer) *styles {
	s := &styles{w: w, enabled: isTerminal(w)}
	r := lipgloss.NewRenderer(w)
	s.info = r.NewStyle().Foreground(lipgloss.Color("6"))
	s.warning = r.NewStyle().Foreground(lipgloss.Color("3")).Bold(true)
	s.errStyle = r.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	return s
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func (s *styles) render(style lipgloss.Style, label string) string {
	if !s.enabled {
		return label
	}
	return style.Render(label)
}

// line writes one diagnostic.
func (s *styles) line(l diag.Line) {
	label := s.render(s.info, "info:")
	if l.Level == diag.Warn {
		label = s.render(s.warning, "warning:")
	}
	fmt.Fprintf(s.w, "%s %s\n", label, l.Text)
}

func (s *styles) error(msg string) {
	fmt.Fprintf(s.w, "%s %s\n", s.render(s.errStyle, "error:"), msg)
}
