package lattice

import (
	"errors"
	"math"
	"testing"
)

// TestInvalidParametersFailFast proves malformed requests never reach the grid
func TestInvalidParametersFailFast(t *testing.T) {
	base := atTheMoney(Put, 10)

	tests := []struct {
		name  string
		mut   func(*Request)
		field string
	}{
		{"zero steps", func(r *Request) { r.Steps = 0 }, "steps"},
		{"negative steps", func(r *Request) { r.Steps = -5 }, "steps"},
		{"zero maturity", func(r *Request) { r.Maturity = 0 }, "maturity"},
		{"negative maturity", func(r *Request) { r.Maturity = -1 }, "maturity"},
		{"zero dividends per year", func(r *Request) { r.DividendsPerYear = 0 }, "dividends_per_year"},
		{"negative volatility", func(r *Request) { r.Volatility = -0.2 }, "volatility"},
		{"zero volatility", func(r *Request) { r.Volatility = 0 }, "volatility"},
		{"zero underlying", func(r *Request) { r.Underlying = 0 }, "underlying"},
		{"negative strike", func(r *Request) { r.Strike = -1 }, "strike"},
		{"NaN rate", func(r *Request) { r.RiskFreeRate = math.NaN() }, "risk_free_rate"},
		{"infinite underlying", func(r *Request) { r.Underlying = math.Inf(1) }, "underlying"},
		{"infinite dividend yield", func(r *Request) { r.DividendYield = math.Inf(-1) }, "dividend_yield"},
		{"missing type", func(r *Request) { r.Type = "" }, "type"},
		{"unknown type", func(r *Request) { r.Type = "STRADDLE" }, "type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := base
			tt.mut(&req)

			_, err := Price(req)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !errors.Is(err, ErrInvalidParameter) {
				t.Fatalf("expected ErrInvalidParameter, got %v", err)
			}
			var pe *ParameterError
			if !errors.As(err, &pe) {
				t.Fatalf("expected *ParameterError, got %T", err)
			}
			if pe.Field != tt.field {
				t.Errorf("field: got %q, want %q", pe.Field, tt.field)
			}
		})
	}
}

// TestNumericOverflowDetected proves exploding factors are reported, not propagated
func TestNumericOverflowDetected(t *testing.T) {
	tests := []struct {
		name   string
		mut    func(*Request)
		factor string
	}{
		{
			name:   "up factor overflows",
			mut:    func(r *Request) { r.Volatility = 1000; r.Maturity = 1; r.Steps = 1 },
			factor: "up",
		},
		{
			name:   "growth overflows",
			mut:    func(r *Request) { r.RiskFreeRate = 1e6; r.Steps = 1 },
			factor: "growth",
		},
		{
			name:   "top of lattice overflows",
			mut:    func(r *Request) { r.Volatility = 5; r.Maturity = 100; r.Steps = 2000 },
			factor: "max_price",
		},
		{
			name:   "backward pass overflows with finite factors",
			mut:    func(r *Request) { r.RiskFreeRate = 800; r.Steps = 100 },
			factor: "value",
		},
		{
			name:   "up and down indistinguishable",
			mut:    func(r *Request) { r.Volatility = 1e-300 },
			factor: "up-down",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := atTheMoney(Call, 10)
			tt.mut(&req)

			_, err := Price(req)
			if !errors.Is(err, ErrNumericOverflow) {
				t.Fatalf("expected ErrNumericOverflow, got %v", err)
			}
			var oe *OverflowError
			if !errors.As(err, &oe) {
				t.Fatalf("expected *OverflowError, got %T", err)
			}
			if oe.Factor != tt.factor {
				t.Errorf("factor: got %q, want %q", oe.Factor, tt.factor)
			}
		})
	}
}

// TestUnstableProbabilityNeverReturnsNonFinite covers both payoffs on a lattice
// whose factors pass every check but whose values explode
func TestUnstableProbabilityNeverReturnsNonFinite(t *testing.T) {
	for _, typ := range []OptionType{Call, Put} {
		t.Run(typ.String(), func(t *testing.T) {
			req := atTheMoney(typ, 100)
			req.RiskFreeRate = 800

			if _, err := DeriveFactors(req); err != nil {
				t.Fatalf("factors should be finite: %v", err)
			}
			v, err := Price(req)
			if !errors.Is(err, ErrNumericOverflow) {
				t.Fatalf("Price = %v, %v; want ErrNumericOverflow", v, err)
			}
			if _, err := NewPricer().Evaluate(req); !errors.Is(err, ErrNumericOverflow) {
				t.Errorf("Evaluate: got %v, want ErrNumericOverflow", err)
			}
		})
	}
}

// TestParseOptionType covers the accepted spellings
func TestParseOptionType(t *testing.T) {
	tests := []struct {
		in      string
		want    OptionType
		wantErr bool
	}{
		{"C", Call, false},
		{"call", Call, false},
		{" CALL ", Call, false},
		{"P", Put, false},
		{"put", Put, false},
		{"x", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := ParseOptionType(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidParameter) {
				t.Errorf("ParseOptionType(%q): expected ErrInvalidParameter, got %v", tt.in, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseOptionType(%q) = %q, %v; want %q", tt.in, got, err, tt.want)
		}
	}

	var typ OptionType
	if err := typ.UnmarshalText([]byte("p")); err != nil || typ != Put {
		t.Errorf("UnmarshalText(p) = %q, %v", typ, err)
	}
}
