// Package output renders search results for the command line.
package output

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
	"github.com/rubiojr/minigrep/pkg/config"
	"github.com/rubiojr/minigrep/pkg/grep"
)

// Styles decorates the parts of an output line. The zero value prints plain text.
type Styles struct {
	enabled    bool
	lineNumber lipgloss.Style
	separator  lipgloss.Style
	match      lipgloss.Style
	count      lipgloss.Style
}

// ColorStyles returns the terminal palette bound to out.
func ColorStyles(out io.Writer) Styles {
	r := lipgloss.NewRenderer(out)
	// The caller already decided that colors are wanted, even when out is
	// not a terminal (--color=always).
	r.SetColorProfile(termenv.ANSI256)

	return Styles{
		enabled:    true,
		lineNumber: r.NewStyle().Foreground(lipgloss.Color("34")),
		separator:  r.NewStyle().Foreground(lipgloss.Color("240")),
		match:      r.NewStyle().Bold(true).Foreground(lipgloss.Color("203")),
		count:      r.NewStyle().Bold(true).Foreground(lipgloss.Color("33")),
	}
}

// UseColor resolves a color mode for out. "auto" colors only terminals.
func UseColor(mode string, out io.Writer) bool {
	switch mode {
	case config.ColorAlways:
		return true
	case config.ColorNever:
		return false
	}
	return IsTTY(out)
}

// IsTTY checks if output is a terminal.
func IsTTY(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return false
}

// Writer prints grep results, one per line.
type Writer struct {
	out    io.Writer
	styles Styles
}

// New creates a Writer. With color set, lines are styled with ColorStyles.
func New(out io.Writer, color bool) *Writer {
	w := &Writer{out: out}
	if color {
		w.styles = ColorStyles(out)
	}
	return w
}

// Write prints res following the mode table: a count when Options.Count is
// set (checked first), "num:line" when Options.LineNumbers is set, the bare
// line otherwise.
func (w *Writer) Write(res grep.Result) error {
	if res.Options.Count {
		_, err := fmt.Fprintln(w.out, w.render(w.styles.count, strconv.Itoa(res.Count())))
		return err
	}

	highlight := w.styles.enabled && !res.Options.IgnoreCase && res.Query != ""
	for _, m := range res.Matches {
		line := m.Line
		if highlight {
			line = strings.ReplaceAll(line, res.Query, w.styles.match.Render(res.Query))
		}

		var err error
		if res.Options.LineNumbers {
			_, err = fmt.Fprintf(w.out, "%s%s%s\n",
				w.render(w.styles.lineNumber, strconv.Itoa(m.Number)),
				w.render(w.styles.separator, ":"),
				line)
		} else {
			_, err = fmt.Fprintln(w.out, line)
		}
		if err != nil {
			return err
		}
	}

	return nil
}

func (w *Writer) render(style lipgloss.Style, s string) string {
	if !w.styles.enabled {
		return s
	}
	return style.Render(s)
}
