package output

import (
	"fmt"
	"io"
	"strings"

	"option-lattice/core/book"
)

// MarkdownFormatter writes GitHub-flavoured markdown reports
type MarkdownFormatter struct {
	opts Options
}

// NewMarkdownFormatter creates a markdown formatter
func NewMarkdownFormatter(opts Options) *MarkdownFormatter {
	return &MarkdownFormatter{opts: opts}
}

// Format returns FormatMarkdown
func (f *MarkdownFormatter) Format() Format {
	return FormatMarkdown
}

// RenderQuote writes the quote as a heading and two tables
func (f *MarkdownFormatter) RenderQuote(w io.Writer, q *Quote) error {
	var b strings.Builder
	req := q.Request

	fmt.Fprintf(&b, "## %s %g/%g\n\n", req.Type, req.Underlying, req.Strike)
	fmt.Fprintf(&b, "**Value:** %s\n\n", fixed(q.Value, f.opts.Precision))
	if !q.RiskNeutral {
		fmt.Fprintf(&b, "> **Warning:** %s\n\n", riskNeutralWarning(q.Factors))
	}

	b.WriteString("| Input | Value |\n|---|---:|\n")
	fmt.Fprintf(&b, "| Volatility | %g |\n", req.Volatility)
	fmt.Fprintf(&b, "| Risk-free rate | %g |\n", req.RiskFreeRate)
	fmt.Fprintf(&b, "| Maturity | %g |\n", req.Maturity)
	fmt.Fprintf(&b, "| Steps | %d |\n", req.Steps)
	fmt.Fprintf(&b, "| Dividend yield (%%) | %g |\n", req.DividendYield)
	fmt.Fprintf(&b, "| Dividends per year | %d |\n", req.DividendsPerYear)
	fmt.Fprintf(&b, "| Early exercise nodes | %d |\n\n", q.ExerciseNodes)

	b.WriteString("| Greek | Value |\n|---|---:|\n")
	fmt.Fprintf(&b, "| Delta | %s |\n", fixed(q.Greeks.Delta, f.opts.Precision))
	fmt.Fprintf(&b, "| Gamma | %s |\n", fixed(q.Greeks.Gamma, f.opts.Precision))
	fmt.Fprintf(&b, "| Theta | %s |\n", fixed(q.Greeks.Theta, f.opts.Precision))

	_, err := io.WriteString(w, b.String())
	return err
}

// RenderConvergence writes one table row per step count
func (f *MarkdownFormatter) RenderConvergence(w io.Writer, c *Convergence) error {
	var b strings.Builder
	fmt.Fprintf(&b, "## Convergence: %s %g/%g\n\n", c.Request.Type, c.Request.Underlying, c.Request.Strike)
	b.WriteString("| Steps | Value | Change |\n|---:|---:|---:|\n")
	for i, p := range c.Points {
		change := ""
		if i > 0 {
			change = fixed(p.Change, f.opts.Precision+2)
		}
		fmt.Fprintf(&b, "| %d | %s | %s |\n", p.Steps, fixed(p.Value, f.opts.Precision), change)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// RenderValuation writes position and total tables
func (f *MarkdownFormatter) RenderValuation(w io.Writer, v *book.Valuation) error {
	var b strings.Builder
	fmt.Fprintf(&b, "## Book %s\n\n", v.Book)

	b.WriteString("| Position | Type | Quantity | Unit Price | Market Value | Currency |\n")
	b.WriteString("|---|---|---:|---:|---:|---|\n")
	for _, p := range v.Positions {
		if p.Error != "" {
			fmt.Fprintf(&b, "| %s | %s | %s | error | - | %s |\n", p.Name, p.Type, p.Quantity, p.Currency)
			continue
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s |\n",
			p.Name, p.Type, p.Quantity, fixed(p.UnitPrice, f.opts.Precision), money(p.MarketValue), p.Currency)
	}

	b.WriteString("\n### Totals\n\n| Currency | Positions | Market Value |\n|---|---:|---:|\n")
	for _, t := range v.Totals {
		fmt.Fprintf(&b, "| %s | %d | %s |\n", t.Currency, t.Positions, money(t.MarketValue))
	}

	if v.Failed > 0 {
		fmt.Fprintf(&b, "\n### Failures (%d)\n\n", v.Failed)
		for _, p := range v.Positions {
			if p.Error != "" {
				fmt.Fprintf(&b, "- `%s`: %s\n", p.Name, p.Error)
			}
		}
	}

	fmt.Fprintf(&b, "\n_Run `%s`, %d lattices._\n", v.RunID, v.Lattices)

	_, err := io.WriteString(w, b.String())
	return err
}
