package lattice

import (
	"math"
)

// Request is the full parameter set of one pricing call.
// It is passed by value and never modified by the pricer.
type Request struct {
	// Underlying is the current price of the underlying asset
	Underlying float64 `json:"underlying" yaml:"underlying"`

	// Strike is the contract strike price
	Strike float64 `json:"strike" yaml:"strike"`

	// Volatility is the annualised volatility as a decimal (0.2 = 20%)
	Volatility float64 `json:"volatility" yaml:"volatility"`

	// RiskFreeRate is the annualised risk-free rate as a decimal
	RiskFreeRate float64 `json:"risk_free_rate" yaml:"risk_free_rate"`

	// Maturity is the time to expiry in years
	Maturity float64 `json:"maturity" yaml:"maturity"`

	// Steps is the number of lattice time steps N
	Steps int `json:"steps" yaml:"steps"`

	// DividendYield is quoted as a percent value (1.98 = 1.98%)
	DividendYield float64 `json:"dividend_yield" yaml:"dividend_yield"`

	// DividendsPerYear is the number of dividend payments per year
	DividendsPerYear int `json:"dividends_per_year" yaml:"dividends_per_year"`

	// Type selects the payoff
	Type OptionType `json:"type" yaml:"type"`
}

// Validate rejects requests that would put NaN or Inf into the lattice.
// Every failure wraps ErrInvalidParameter.
func (r Request) Validate() error {
	floats := []struct {
		field string
		value float64
	}{
		{"underlying", r.Underlying},
		{"strike", r.Strike},
		{"volatility", r.Volatility},
		{"risk_free_rate", r.RiskFreeRate},
		{"maturity", r.Maturity},
		{"dividend_yield", r.DividendYield},
	}
	for _, f := range floats {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return &ParameterError{Field: f.field, Value: f.value, Reason: "must be finite"}
		}
	}

	if r.Steps <= 0 {
		return &ParameterError{Field: "steps", Value: r.Steps, Reason: "must be positive"}
	}
	if r.Maturity <= 0 {
		return &ParameterError{Field: "maturity", Value: r.Maturity, Reason: "must be positive"}
	}
	if r.DividendsPerYear <= 0 {
		return &ParameterError{Field: "dividends_per_year", Value: r.DividendsPerYear, Reason: "must be positive"}
	}
	if r.Volatility < 0 {
		return &ParameterError{Field: "volatility", Value: r.Volatility, Reason: "must not be negative"}
	}
	if r.Volatility == 0 {
		return &ParameterError{Field: "volatility", Value: r.Volatility, Reason: "zero volatility collapses the lattice (u == d)"}
	}
	if r.Underlying <= 0 {
		return &ParameterError{Field: "underlying", Value: r.Underlying, Reason: "must be positive"}
	}
	if r.Strike <= 0 {
		return &ParameterError{Field: "strike", Value: r.Strike, Reason: "must be positive"}
	}
	if !r.Type.IsValid() {
		return &ParameterError{Field: "type", Reason: "must be CALL or PUT, got " + quoteType(r.Type)}
	}
	return nil
}

// WithSteps returns a copy of r with a different step count
func (r Request) WithSteps(n int) Request {
	r.Steps = n
	return r
}

// WithUnderlying returns a copy of r with a different underlying price
func (r Request) WithUnderlying(s float64) Request {
	r.Underlying = s
	return r
}

func quoteType(t OptionType) string {
	if t == "" {
		return "empty"
	}
	return `"` + string(t) + `"`
}
