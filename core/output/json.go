package output

import (
	"encoding/json"
	"io"

	"option-lattice/core/book"
)

// JSONFormatter writes indented JSON with full float precision
type JSONFormatter struct{}

// NewJSONFormatter creates a JSON formatter
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

// Format returns FormatJSON
func (f *JSONFormatter) Format() Format {
	return FormatJSON
}

// RenderQuote writes the quote as JSON
func (f *JSONFormatter) RenderQuote(w io.Writer, q *Quote) error {
	return encode(w, q)
}

// RenderConvergence writes the convergence run as JSON
func (f *JSONFormatter) RenderConvergence(w io.Writer, c *Convergence) error {
	return encode(w, c)
}

// RenderValuation writes the valuation as JSON
func (f *JSONFormatter) RenderValuation(w io.Writer, v *book.Valuation) error {
	return encode(w, v)
}

func encode(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
