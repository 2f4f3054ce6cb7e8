// Package ui - Terminal user interface
// CLI output with tables, colors and summary boxes.
package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"
	"unicode/utf8"
)

// Colors for terminal output
const (
	Reset  = "\033[0m"
	Bold   = "\033[1m"
	Dim    = "\033[2m"
	Red    = "\033[31m"
	Green  = "\033[32m"
	Yellow = "\033[33m"
	Blue   = "\033[34m"
	Cyan   = "\033[36m"
)

// Writer is the UI output destination
type Writer struct {
	out       io.Writer
	noColor   bool
	verbosity int
}

// NewWriter creates a UI writer
func NewWriter(out io.Writer, noColor bool) *Writer {
	if out == nil {
		out = os.Stdout
	}
	return &Writer{
		out:       out,
		noColor:   noColor,
		verbosity: 1,
	}
}

// SetVerbosity sets output verbosity (0=quiet, 1=normal, 2=verbose)
func (w *Writer) SetVerbosity(level int) {
	w.verbosity = level
}

// Color applies c to text unless colors are disabled
func (w *Writer) Color(c, text string) string {
	if w.noColor {
		return text
	}
	return c + text + Reset
}

// Print writes formatted text
func (w *Writer) Print(format string, args ...interface{}) {
	fmt.Fprintf(w.out, format, args...)
}

// Println writes a line with newline
func (w *Writer) Println(format string, args ...interface{}) {
	fmt.Fprintf(w.out, format+"\n", args...)
}

// Header prints a section header
func (w *Writer) Header(title string) {
	w.Println("")
	w.Println("%s", w.Color(Bold+Cyan, "━━━ "+title+" ━━━"))
	w.Println("")
}

// SubHeader prints a subsection header
func (w *Writer) SubHeader(title string) {
	w.Println("%s", w.Color(Bold, "▸ "+title))
}

// Success prints a success message
func (w *Writer) Success(format string, args ...interface{}) {
	w.Println("%s%s", w.Color(Green, "✓ "), fmt.Sprintf(format, args...))
}

// Warning prints a warning
func (w *Writer) Warning(format string, args ...interface{}) {
	w.Println("%s%s", w.Color(Yellow, "⚠ "), fmt.Sprintf(format, args...))
}

// Error prints an error
func (w *Writer) Error(format string, args ...interface{}) {
	w.Println("%s%s", w.Color(Red, "✗ "), fmt.Sprintf(format, args...))
}

// Info prints an info message
func (w *Writer) Info(format string, args ...interface{}) {
	if w.verbosity < 1 {
		return
	}
	w.Println("%s%s", w.Color(Blue, "ℹ "), fmt.Sprintf(format, args...))
}

// Debug prints a debug message
func (w *Writer) Debug(format string, args ...interface{}) {
	if w.verbosity < 2 {
		return
	}
	w.Println("%s", w.Color(Dim, "  "+fmt.Sprintf(format, args...)))
}

// Align is the horizontal alignment of a table column
type Align int

const (
	// AlignLeft pads on the right
	AlignLeft Align = iota

	// AlignRight pads on the left, for numbers
	AlignRight
)

// Table renders a table
type Table struct {
	w       *Writer
	headers []string
	aligns  []Align
	rows    [][]string
	widths  []int
}

// NewTable creates a table with left-aligned columns
func (w *Writer) NewTable(headers ...string) *Table {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = utf8.RuneCountInString(h)
	}
	return &Table{
		w:       w,
		headers: headers,
		aligns:  make([]Align, len(headers)),
		rows:    [][]string{},
		widths:  widths,
	}
}

// AlignRight right-aligns the given columns
func (t *Table) AlignRight(columns ...int) *Table {
	for _, c := range columns {
		if c >= 0 && c < len(t.aligns) {
			t.aligns[c] = AlignRight
		}
	}
	return t
}

// AddRow adds a row to the table
func (t *Table) AddRow(cells ...string) {
	// Pad or truncate cells to match header count
	row := make([]string, len(t.headers))
	for i := range row {
		if i < len(cells) {
			row[i] = cells[i]
		}
		if n := utf8.RuneCountInString(row[i]); n > t.widths[i] {
			t.widths[i] = n
		}
	}
	t.rows = append(t.rows, row)
}

// Render prints the table
func (t *Table) Render() {
	t.w.Print("%s\n", t.w.Color(Bold, t.line(t.headers)))

	sep := make([]string, len(t.widths))
	for i, w := range t.widths {
		sep[i] = strings.Repeat("─", w)
	}
	t.w.Println("%s", strings.Join(sep, "─┼─"))

	for _, row := range t.rows {
		t.w.Print("%s\n", t.line(row))
	}
}

func (t *Table) line(cells []string) string {
	parts := make([]string, len(cells))
	for i, cell := range cells {
		pad := strings.Repeat(" ", t.widths[i]-utf8.RuneCountInString(cell))
		if t.aligns[i] == AlignRight {
			parts[i] = pad + cell
		} else {
			parts[i] = cell + pad
		}
	}
	return strings.TrimRight(strings.Join(parts, " │ "), " ")
}

// Summary renders a boxed headline figure with supporting lines
type Summary struct {
	w        *Writer
	Title    string
	Label    string
	Value    string
	Details  []string
	Warnings int
	Duration time.Duration
}

// NewSummary creates a summary box
func (w *Writer) NewSummary(title string) *Summary {
	return &Summary{w: w, Title: title}
}

// Render prints the summary
func (s *Summary) Render() {
	s.w.Header(s.Title)

	headline := fmt.Sprintf("  %s: %s", s.Label, s.Value)
	width := utf8.RuneCountInString(headline) + 2
	if width < 37 {
		width = 37
	}
	pad := strings.Repeat(" ", width-utf8.RuneCountInString(headline))

	s.w.Println("%s", s.w.Color(Bold, "╭"+strings.Repeat("─", width)+"╮"))
	s.w.Println("%s%s%s", s.w.Color(Bold, "│"), s.w.Color(Green, headline+pad), s.w.Color(Bold, "│"))
	s.w.Println("%s", s.w.Color(Bold, "╰"+strings.Repeat("─", width)+"╯"))

	for _, d := range s.Details {
		s.w.Println("%s", s.w.Color(Dim, "  "+d))
	}
	if s.Warnings > 0 {
		s.w.Warning("%d warnings", s.Warnings)
	}
	if s.Duration > 0 {
		s.w.Println("%s", s.w.Color(Dim, "Completed in "+FormatDuration(s.Duration)))
	}
}

// FormatDuration renders d for humans
func FormatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return "< 1ms"
	}
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
}
