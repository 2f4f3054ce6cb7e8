package output

import (
	"fmt"
	"io"
	"time"

	"option-lattice/core/book"
	"option-lattice/core/ui"
)

// CLIFormatter renders tables for a terminal
type CLIFormatter struct {
	opts Options
}

// NewCLIFormatter creates a CLI formatter
func NewCLIFormatter(opts Options) *CLIFormatter {
	return &CLIFormatter{opts: opts}
}

// Format returns FormatCLI
func (f *CLIFormatter) Format() Format {
	return FormatCLI
}

// RenderQuote prints the value box, the lattice factors and the Greeks
func (f *CLIFormatter) RenderQuote(w io.Writer, q *Quote) error {
	out := ui.NewWriter(w, f.opts.NoColor)
	req := q.Request

	s := out.NewSummary("American Option Value")
	s.Label = req.Type.String()
	s.Value = fixed(q.Value, f.opts.Precision)
	s.Details = []string{
		fmt.Sprintf("underlying %g, strike %g, volatility %g", req.Underlying, req.Strike, req.Volatility),
		fmt.Sprintf("rate %g, maturity %g, dividend yield %g%% paid %d/yr", req.RiskFreeRate, req.Maturity, req.DividendYield, req.DividendsPerYear),
		fmt.Sprintf("steps %d, early exercise at %d nodes", req.Steps, q.ExerciseNodes),
	}
	s.Duration = time.Duration(q.Metadata.DurationMs) * time.Millisecond
	s.Render()

	if !q.RiskNeutral {
		out.Println("")
		out.Warning("%s", riskNeutralWarning(q.Factors))
	}

	out.Println("")
	out.SubHeader("Lattice Factors")
	factors := out.NewTable("Factor", "Value").AlignRight(1)
	factors.AddRow("dt", fixed(q.Factors.Dt, 10))
	factors.AddRow("up", fixed(q.Factors.Up, 10))
	factors.AddRow("down", fixed(q.Factors.Down, 10))
	factors.AddRow("growth", fixed(q.Factors.Growth, 10))
	factors.AddRow("q", fixed(q.Factors.Prob, 10))
	factors.AddRow("1-q", fixed(q.Factors.ProbDown, 10))
	factors.AddRow("compounding", fixed(q.Factors.Compounding, 10))
	factors.AddRow("periodic dividend", fixed(q.Factors.PeriodicDividend, 10))
	factors.Render()

	out.Println("")
	out.SubHeader("Greeks")
	greeks := out.NewTable("Greek", "Value").AlignRight(1)
	greeks.AddRow("delta", fixed(q.Greeks.Delta, f.opts.Precision))
	greeks.AddRow("gamma", fixed(q.Greeks.Gamma, f.opts.Precision))
	greeks.AddRow("theta", fixed(q.Greeks.Theta, f.opts.Precision))
	greeks.Render()
	return nil
}

// RenderConvergence prints one row per step count
func (f *CLIFormatter) RenderConvergence(w io.Writer, c *Convergence) error {
	out := ui.NewWriter(w, f.opts.NoColor)
	out.Header(fmt.Sprintf("Convergence: %s %g/%g", c.Request.Type, c.Request.Underlying, c.Request.Strike))

	table := out.NewTable("Steps", "Value", "Change").AlignRight(0, 1, 2)
	for i, p := range c.Points {
		change := ""
		if i > 0 {
			change = fixed(p.Change, f.opts.Precision+2)
		}
		table.AddRow(fmt.Sprint(p.Steps), fixed(p.Value, f.opts.Precision), change)
	}
	table.Render()

	out.Println("")
	out.Println("%s", out.Color(ui.Dim, "Completed in "+ui.FormatDuration(time.Duration(c.Metadata.DurationMs)*time.Millisecond)))
	return nil
}

// RenderValuation prints positions, failures and per-currency totals
func (f *CLIFormatter) RenderValuation(w io.Writer, v *book.Valuation) error {
	out := ui.NewWriter(w, f.opts.NoColor)
	out.Header("Book " + v.Book)

	positions := out.NewTable("Position", "Type", "Steps", "Quantity", "Multiplier", "Unit Price", "Market Value", "Currency").
		AlignRight(2, 3, 4, 5, 6)
	for _, p := range v.Positions {
		if p.Error != "" {
			positions.AddRow(p.Name, p.Type.String(), fmt.Sprint(p.Steps), p.Quantity.String(), p.Multiplier.String(), "error", "-", p.Currency)
			continue
		}
		positions.AddRow(p.Name, p.Type.String(), fmt.Sprint(p.Steps), p.Quantity.String(), p.Multiplier.String(),
			fixed(p.UnitPrice, f.opts.Precision), money(p.MarketValue), p.Currency)
	}
	positions.Render()

	if v.Failed > 0 {
		out.Println("")
		out.Warning("%d positions failed to price", v.Failed)
		for _, p := range v.Positions {
			if p.Error != "" {
				out.Error("%s: %s", p.Name, p.Error)
			}
		}
	}

	for _, p := range v.Positions {
		if p.Error == "" && !p.RiskNeutral {
			out.Warning("%s: risk-neutral probability outside [0, 1]", p.Name)
		}
	}

	out.Println("")
	out.SubHeader("Totals")
	totals := out.NewTable("Currency", "Positions", "Market Value").AlignRight(1, 2)
	for _, t := range v.Totals {
		totals.AddRow(t.Currency, fmt.Sprint(t.Positions), money(t.MarketValue))
	}
	totals.Render()

	out.Println("")
	out.Println("%s", out.Color(ui.Dim, fmt.Sprintf("run %s, %d lattices, completed in %s", v.RunID, v.Lattices, ui.FormatDuration(v.Duration))))
	return nil
}
