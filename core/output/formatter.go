// Package output provides output formatting for quotes, convergence runs and
// book valuations. This package produces human and machine-readable outputs.
package output

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"option-lattice/core/book"
	"option-lattice/core/determinism"
	"option-lattice/core/lattice"
)

// Format represents output format type
type Format string

const (
	// FormatCLI is a human-readable CLI table
	FormatCLI Format = "cli"

	// FormatJSON is machine-readable JSON
	FormatJSON Format = "json"

	// FormatMarkdown is a markdown report
	FormatMarkdown Format = "markdown"
)

// ParseFormat accepts a format name in any case; "md" is short for markdown
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "cli", "":
		return FormatCLI, nil
	case "json":
		return FormatJSON, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	}
	return "", fmt.Errorf("unknown output format %q (want cli, json or markdown)", s)
}

// Formatter produces output in a specific format
type Formatter interface {
	// Format returns the format type
	Format() Format

	// RenderQuote renders a single priced option
	RenderQuote(w io.Writer, q *Quote) error

	// RenderConvergence renders values across doubling step counts
	RenderConvergence(w io.Writer, c *Convergence) error

	// RenderValuation renders a priced book
	RenderValuation(w io.Writer, v *book.Valuation) error
}

// Metadata contains execution context
type Metadata struct {
	// Timestamp is when the run started
	Timestamp time.Time `json:"timestamp"`

	// DurationMs is how long the run took
	DurationMs int64 `json:"duration_ms"`

	// InputHash identifies the request by value
	InputHash determinism.StableID `json:"input_hash,omitempty"`

	// Version is the tool version
	Version string `json:"version,omitempty"`
}

// NewMetadata stamps a run that started at started
func NewMetadata(started time.Time, inputHash determinism.StableID, version string) Metadata {
	return Metadata{
		Timestamp:  started.UTC(),
		DurationMs: time.Since(started).Milliseconds(),
		InputHash:  inputHash,
		Version:    version,
	}
}

// Quote is a single priced option
type Quote struct {
	*lattice.Result
	Metadata Metadata `json:"metadata"`
}

// Convergence is a sequence of values for one request at doubling step counts
type Convergence struct {
	Request  lattice.Request            `json:"request"`
	Points   []lattice.ConvergencePoint `json:"points"`
	Metadata Metadata                   `json:"metadata"`
}

// Options control rendering
type Options struct {
	// Precision is the number of decimals shown for option values
	Precision int32

	// NoColor disables ANSI colors in cli output
	NoColor bool
}

// DefaultOptions returns the rendering defaults
func DefaultOptions() Options {
	return Options{Precision: 6}
}

// Registry manages formatter registration
type Registry struct {
	formatters map[Format]Formatter
}

// NewRegistry creates a registry holding the cli, json and markdown formatters
func NewRegistry(opts Options) *Registry {
	r := &Registry{formatters: make(map[Format]Formatter)}
	_ = r.Register(NewCLIFormatter(opts))
	_ = r.Register(NewJSONFormatter())
	_ = r.Register(NewMarkdownFormatter(opts))
	return r
}

// Register adds a formatter to the registry
func (r *Registry) Register(f Formatter) error {
	if _, exists := r.formatters[f.Format()]; exists {
		return fmt.Errorf("formatter %q already registered", f.Format())
	}
	r.formatters[f.Format()] = f
	return nil
}

// Get returns a formatter for a format type
func (r *Registry) Get(format Format) (Formatter, bool) {
	f, ok := r.formatters[format]
	return f, ok
}

// All returns all registered formatters ordered by format name
func (r *Registry) All() []Formatter {
	all := make([]Formatter, 0, len(r.formatters))
	for _, f := range r.formatters {
		all = append(all, f)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Format() < all[j].Format() })
	return all
}

// fixed renders v with the given number of decimals, half away from zero
func fixed(v float64, places int32) string {
	return decimal.NewFromFloat(v).StringFixed(places)
}

// money renders a market value to cents
func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// riskNeutralWarning explains a probability outside [0, 1]
func riskNeutralWarning(f lattice.Factors) string {
	return fmt.Sprintf("risk-neutral probability q=%s is outside [0, 1]; values may not be arbitrage-free", fixed(f.Prob, 6))
}
