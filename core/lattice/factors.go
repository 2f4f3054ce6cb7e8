package lattice

import (
	"math"
)

// maxLogPrice is ln(math.MaxFloat64); lattice prices above it are not representable
var maxLogPrice = math.Log(math.MaxFloat64)

// Factors are the per-step quantities shared by every node of the lattice
type Factors struct {
	// Dt is the time increment per step, Maturity/N
	Dt float64 `json:"dt"`

	// Up is the multiplicative up-move u = exp(sigma*sqrt(dt))
	Up float64 `json:"up"`

	// Down is the down-move d = 1/u
	Down float64 `json:"down"`

	// Growth is R = exp((r - y)*dt) with y taken as given
	Growth float64 `json:"growth"`

	// Prob is the risk-neutral up probability q = (R-d)/(u-d)
	Prob float64 `json:"prob"`

	// ProbDown is 1-q
	ProbDown float64 `json:"prob_down"`

	// Compounding is exp(r*dt), the multiplier applied to continuation values
	Compounding float64 `json:"compounding"`

	// PeriodicDividend is the flat amount added to every exercise value
	PeriodicDividend float64 `json:"periodic_dividend"`
}

// DeriveFactors validates req and computes its lattice factors.
// No grid is allocated; an error here means none would have been.
func DeriveFactors(req Request) (Factors, error) {
	if err := req.Validate(); err != nil {
		return Factors{}, err
	}

	n := float64(req.Steps)
	dt := req.Maturity / n
	step := req.Volatility * math.Sqrt(dt)

	f := Factors{Dt: dt}
	f.Up = math.Exp(step)
	f.Down = 1 / f.Up
	f.Growth = math.Exp((req.RiskFreeRate - req.DividendYield) * dt)
	f.Compounding = math.Exp(req.RiskFreeRate * dt)

	checks := []struct {
		name  string
		value float64
	}{
		{"up", f.Up},
		{"down", f.Down},
		{"growth", f.Growth},
		{"compounding", f.Compounding},
	}
	for _, c := range checks {
		if !isFinite(c.value) || c.value == 0 {
			return Factors{}, &OverflowError{Factor: c.name, Value: c.value}
		}
	}

	// sigma*sqrt(dt) below float resolution makes u and d identical
	spread := f.Up - f.Down
	if spread == 0 {
		return Factors{}, &OverflowError{Factor: "up-down", Value: spread}
	}

	f.Prob = (f.Growth - f.Down) / spread
	if !isFinite(f.Prob) {
		return Factors{}, &OverflowError{Factor: "prob", Value: f.Prob}
	}
	f.ProbDown = 1 - f.Prob

	if top := math.Log(req.Underlying) + n*step; top > maxLogPrice {
		return Factors{}, &OverflowError{Factor: "max_price", Value: math.Exp(top)}
	}

	f.PeriodicDividend = req.Underlying * (req.DividendYield / 100) / float64(req.DividendsPerYear)
	if !isFinite(f.PeriodicDividend) {
		return Factors{}, &OverflowError{Factor: "periodic_dividend", Value: f.PeriodicDividend}
	}

	return f, nil
}

// RiskNeutral reports whether q is a probability, i.e. d <= R <= u.
// Outside that band the lattice admits arbitrage and values may go negative.
func (f Factors) RiskNeutral() bool {
	return f.Prob >= 0 && f.Prob <= 1
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
