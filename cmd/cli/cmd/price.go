// Package cmd - price command
package cmd

import (
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"option-lattice/core/book"
	"option-lattice/core/lattice"
	"option-lattice/core/output"
	"option-lattice/internal/config"
	"option-lattice/internal/logging"
)

// requestFlags are the contract inputs shared by price and converge.
// Defaults reproduce the reference scenario: a one-day put on 282.02 struck at 285.
type requestFlags struct {
	optionType       string
	underlying       float64
	strike           float64
	volatility       float64
	rate             float64
	maturity         float64
	steps            int
	dividendYield    float64
	dividendsPerYear int
}

func (f *requestFlags) bind(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVarP(&f.optionType, "type", "t", "put", "option type (call, put, c, p)")
	fs.Float64VarP(&f.underlying, "underlying", "s", 282.02, "spot price of the underlying")
	fs.Float64VarP(&f.strike, "strike", "k", 285, "strike price")
	fs.Float64Var(&f.volatility, "volatility", 0.3088, "annualised volatility (0.2 = 20%)")
	fs.Float64VarP(&f.rate, "rate", "r", 0, "risk-free rate, continuous (default from config)")
	fs.Float64VarP(&f.maturity, "maturity", "T", 1.0/365, "time to expiry in years")
	fs.IntVarP(&f.steps, "steps", "n", 0, "lattice steps (default from config)")
	fs.Float64VarP(&f.dividendYield, "dividend-yield", "y", 1.98, "dividend yield in percent (1.98 = 1.98%)")
	fs.IntVar(&f.dividendsPerYear, "dividends-per-year", 0, "dividend payments per year (default from config)")
}

// request builds the lattice request, filling unset flags from config
func (f *requestFlags) request(cmd *cobra.Command, cfg *config.Config) (lattice.Request, error) {
	typ, err := lattice.ParseOptionType(f.optionType)
	if err != nil {
		return lattice.Request{}, err
	}

	req := lattice.Request{
		Underlying:       f.underlying,
		Strike:           f.strike,
		Volatility:       f.volatility,
		RiskFreeRate:     cfg.Lattice.DefaultRiskFreeRate,
		Maturity:         f.maturity,
		Steps:            cfg.Lattice.DefaultSteps,
		DividendYield:    f.dividendYield,
		DividendsPerYear: cfg.Lattice.DefaultDividendsPerYear,
		Type:             typ,
	}
	fs := cmd.Flags()
	if fs.Changed("rate") {
		req.RiskFreeRate = f.rate
	}
	if fs.Changed("steps") {
		req.Steps = f.steps
	}
	if fs.Changed("dividends-per-year") {
		req.DividendsPerYear = f.dividendsPerYear
	}
	return req, nil
}

var (
	priceFlags  requestFlags
	priceFormat string
)

// priceCmd represents the price command
var priceCmd = &cobra.Command{
	Use:   "price",
	Short: "Price a single American option",
	Long: `Build the lattice for one option and print its value, the derived
lattice factors and tree Greeks.

With no flags the reference scenario is priced.

Examples:
  option-lattice price
  option-lattice price --type call
  option-lattice price -t p -s 100 -k 95 --volatility 0.25 -r 0.03 -T 0.5 -n 200 -y 0
  option-lattice price --format json`,
	Args: cobra.NoArgs,
	RunE: runPrice,
}

func init() {
	priceFlags.bind(priceCmd)
	priceCmd.Flags().StringVarP(&priceFormat, "format", "f", "", "output format (cli, json, markdown)")
}

func runPrice(cmd *cobra.Command, args []string) error {
	start := time.Now()
	cfg := config.Get()

	req, err := priceFlags.request(cmd, cfg)
	if err != nil {
		return err
	}
	formatter, err := formatterFor(cfg, priceFormat)
	if err != nil {
		return err
	}

	res, err := newPricer(cfg).Evaluate(req)
	if err != nil {
		return err
	}
	if !res.RiskNeutral {
		logging.Warn("risk-neutral probability outside [0, 1]", zap.Float64("q", res.Factors.Prob))
	}

	return formatter.RenderQuote(cmd.OutOrStdout(), &output.Quote{
		Result:   res,
		Metadata: output.NewMetadata(start, book.Fingerprint(req), version),
	})
}
