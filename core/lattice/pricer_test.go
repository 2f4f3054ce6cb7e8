package lattice

import (
	"math"
	"testing"
)

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func atTheMoney(t OptionType, steps int) Request {
	return Request{
		Underlying:       100,
		Strike:           100,
		Volatility:       0.2,
		RiskFreeRate:     0.05,
		Maturity:         1,
		Steps:            steps,
		DividendYield:    0,
		DividendsPerYear: 1,
		Type:             t,
	}
}

func referenceScenario(t OptionType) Request {
	return Request{
		Underlying:       282.02,
		Strike:           285,
		Volatility:       0.3088,
		RiskFreeRate:     0.05,
		Maturity:         1.0 / 365,
		Steps:            100,
		DividendYield:    1.98,
		DividendsPerYear: 4,
		Type:             t,
	}
}

// TestSingleStepMatchesHandDerivation prices N=1 and rebuilds the value from the formulas
func TestSingleStepMatchesHandDerivation(t *testing.T) {
	req := atTheMoney(Call, 1)

	got, err := Price(req)
	if err != nil {
		t.Fatalf("Price: %v", err)
	}

	u := math.Exp(0.2 * math.Sqrt(1.0))
	d := 1 / u
	R := math.Exp(0.05)
	q := (R - d) / (u - d)
	upPayoff := math.Max(100*u-100, 0)
	downPayoff := math.Max(100*d-100, 0)
	continuation := math.Exp(0.05) * (q*upPayoff + (1-q)*downPayoff)
	exercise := 100.0 - 100.0 + 0
	want := math.Max(continuation, exercise)

	if !almostEqual(got, want, 1e-9) {
		t.Fatalf("N=1 call: got %.15f, want %.15f", got, want)
	}
	if !almostEqual(got, 13.441403640251089, 1e-9) {
		t.Fatalf("N=1 call: got %.15f, want 13.441403640251089", got)
	}
}

// TestReferenceScenario pins the documented 282.02/285 put
func TestReferenceScenario(t *testing.T) {
	tests := []struct {
		name string
		req  Request
		want float64
	}{
		{name: "put", req: referenceScenario(Put), want: 6.065049840701117},
		{name: "call", req: referenceScenario(Call), want: 0.7469590714683834},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Price(tt.req)
			if err != nil {
				t.Fatalf("Price: %v", err)
			}
			if !almostEqual(got, tt.want, 1e-6) {
				t.Errorf("got %.12f, want %.12f", got, tt.want)
			}
		})
	}
}

// TestPriceIsDeterministic proves repeated calls return the identical value
func TestPriceIsDeterministic(t *testing.T) {
	req := referenceScenario(Put)
	first, err := Price(req)
	if err != nil {
		t.Fatalf("Price: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, _ := Price(req)
		if again != first {
			t.Fatalf("run %d: got %v, first run %v", i, again, first)
		}
	}
}

// TestGridShapeInvariant checks every price node against S*u^(i-j)*d^j
func TestGridShapeInvariant(t *testing.T) {
	req := atTheMoney(Put, 60)
	l, err := NewPricer().Build(req)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if want := 61 * 62 / 2; l.Prices.Len() != want {
		t.Fatalf("triangular storage holds %d nodes, want %d", l.Prices.Len(), want)
	}

	u, d := l.Factors.Up, l.Factors.Down
	for i := 0; i <= req.Steps; i++ {
		for j := 0; j <= i; j++ {
			want := req.Underlying * math.Pow(u, float64(i-j)) * math.Pow(d, float64(j))
			got := l.Prices.At(i, j)
			if !almostEqual(got, want, 1e-9*want) {
				t.Fatalf("node (%d,%d): got %.12f, want %.12f", i, j, got, want)
			}
		}
	}
}

// TestRecombination checks that an up-move followed by a down-move returns to the same price
func TestRecombination(t *testing.T) {
	l, err := NewPricer().Build(atTheMoney(Call, 10))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if got := l.Prices.At(2, 1); !almostEqual(got, 100, 1e-12) {
		t.Errorf("node (2,1) = %v, want 100", got)
	}
	if got := l.Prices.At(10, 5); !almostEqual(got, 100, 1e-9) {
		t.Errorf("node (10,5) = %v, want 100", got)
	}
}

// TestTerminalPayoff checks the last slice holds the intrinsic values
func TestTerminalPayoff(t *testing.T) {
	for _, typ := range []OptionType{Call, Put} {
		t.Run(typ.String(), func(t *testing.T) {
			req := atTheMoney(typ, 20)
			l, err := NewPricer().Build(req)
			if err != nil {
				t.Fatalf("Build: %v", err)
			}
			for k := 0; k <= req.Steps; k++ {
				s := l.Prices.At(req.Steps, k)
				want := math.Max(s-req.Strike, 0)
				if typ == Put {
					want = math.Max(req.Strike-s, 0)
				}
				if got := l.Values.At(req.Steps, k); got != want {
					t.Fatalf("payoff at k=%d: got %v, want %v", k, got, want)
				}
			}
		})
	}
}

// TestEarlyExerciseDominatesIntrinsic checks every interior node is at least its exercise value
func TestEarlyExerciseDominatesIntrinsic(t *testing.T) {
	req := referenceScenario(Put)
	l, err := NewPricer().Build(req)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	div := l.Factors.PeriodicDividend
	for i := 0; i < req.Steps; i++ {
		for j := 0; j <= i; j++ {
			exercise := req.Strike - l.Prices.At(i, j) + div
			if l.Values.At(i, j) < exercise {
				t.Fatalf("node (%d,%d) value %v below exercise %v", i, j, l.Values.At(i, j), exercise)
			}
		}
	}
	if l.ExerciseNodes == 0 {
		t.Error("expected early exercise somewhere in a dividend-paying in-the-money put")
	}
}

// TestMonotonicityInUnderlying checks calls rise and puts fall with the spot price
func TestMonotonicityInUnderlying(t *testing.T) {
	spots := []float64{60, 80, 90, 95, 100, 105, 110, 120, 150}

	prevCall, prevPut := -1.0, math.Inf(1)
	for _, s := range spots {
		call, err := Price(atTheMoney(Call, 50).WithUnderlying(s))
		if err != nil {
			t.Fatalf("call at %v: %v", s, err)
		}
		put, err := Price(atTheMoney(Put, 50).WithUnderlying(s))
		if err != nil {
			t.Fatalf("put at %v: %v", s, err)
		}
		if call < prevCall {
			t.Errorf("call decreased at S=%v: %v < %v", s, call, prevCall)
		}
		if put > prevPut {
			t.Errorf("put increased at S=%v: %v > %v", s, put, prevPut)
		}
		prevCall, prevPut = call, put
	}
}

// TestNonNegativity prices a spread of risk-neutral requests and checks the floor
func TestNonNegativity(t *testing.T) {
	for _, typ := range []OptionType{Call, Put} {
		for _, s := range []float64{10, 50, 100, 200, 1000} {
			for _, vol := range []float64{0.05, 0.2, 0.8} {
				req := atTheMoney(typ, 40).WithUnderlying(s)
				req.Volatility = vol

				res, err := NewPricer().Evaluate(req)
				if err != nil {
					t.Fatalf("%s S=%v vol=%v: %v", typ, s, vol, err)
				}
				if !res.RiskNeutral {
					t.Fatalf("%s S=%v vol=%v: expected q in [0,1], got %v", typ, s, vol, res.Factors.Prob)
				}
				if res.Value < 0 {
					t.Errorf("%s S=%v vol=%v: negative value %v", typ, s, vol, res.Value)
				}
			}
		}
	}
}

// TestDeepMoneyness checks the deep in- and out-of-the-money limits
func TestDeepMoneyness(t *testing.T) {
	deepCall := atTheMoney(Call, 50).WithUnderlying(300)
	deepCall.RiskFreeRate = 0

	call, err := Price(deepCall)
	if err != nil {
		t.Fatalf("Price: %v", err)
	}
	if call < 200 || !almostEqual(call, 200, 1e-6) {
		t.Errorf("deep ITM call with r=0: got %v, want ~200", call)
	}

	withRate, err := Price(atTheMoney(Call, 50).WithUnderlying(300))
	if err != nil {
		t.Fatalf("Price: %v", err)
	}
	if withRate < 200 {
		t.Errorf("deep ITM call below intrinsic: %v", withRate)
	}

	put, err := Price(atTheMoney(Put, 50).WithUnderlying(300))
	if err != nil {
		t.Fatalf("Price: %v", err)
	}
	if put > 1e-6 {
		t.Errorf("deep OTM put: got %v, want ~0", put)
	}
}

// TestParallelMatchesSequential requires bit-identical grids from both paths
func TestParallelMatchesSequential(t *testing.T) {
	req := referenceScenario(Put).WithSteps(400)

	seq, err := NewPricer().Build(req)
	if err != nil {
		t.Fatalf("sequential Build: %v", err)
	}
	par, err := NewPricer(WithWorkers(4), WithParallelThreshold(8)).Build(req)
	if err != nil {
		t.Fatalf("parallel Build: %v", err)
	}

	for i := 0; i <= req.Steps; i++ {
		a, b := seq.Values.Row(i), par.Values.Row(i)
		for j := range a {
			if a[j] != b[j] {
				t.Fatalf("node (%d,%d): sequential %v, parallel %v", i, j, a[j], b[j])
			}
		}
	}
	if seq.ExerciseNodes != par.ExerciseNodes {
		t.Errorf("exercise nodes: sequential %d, parallel %d", seq.ExerciseNodes, par.ExerciseNodes)
	}
}

// TestGreeksSigns checks the tree sensitivities have the expected direction
func TestGreeksSigns(t *testing.T) {
	call, err := NewPricer().Evaluate(atTheMoney(Call, 100))
	if err != nil {
		t.Fatalf("Evaluate call: %v", err)
	}
	put, err := NewPricer().Evaluate(atTheMoney(Put, 100))
	if err != nil {
		t.Fatalf("Evaluate put: %v", err)
	}

	if call.Greeks.Delta <= 0 || call.Greeks.Delta >= 1 {
		t.Errorf("call delta %v outside (0,1)", call.Greeks.Delta)
	}
	if put.Greeks.Delta >= 0 || put.Greeks.Delta <= -1 {
		t.Errorf("put delta %v outside (-1,0)", put.Greeks.Delta)
	}
	if call.Greeks.Gamma <= 0 || put.Greeks.Gamma <= 0 {
		t.Errorf("gamma should be positive: call %v, put %v", call.Greeks.Gamma, put.Greeks.Gamma)
	}

	single, err := NewPricer().Evaluate(atTheMoney(Call, 1))
	if err != nil {
		t.Fatalf("Evaluate N=1: %v", err)
	}
	if single.Greeks.Gamma != 0 || single.Greeks.Theta != 0 {
		t.Errorf("N=1 should only carry delta, got %+v", single.Greeks)
	}
}

// TestGridPanicsOutsideTriangle proves the padding region is not addressable
func TestGridPanicsOutsideTriangle(t *testing.T) {
	g := newGrid(3)
	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected panic reading node (1,2)")
		}
	}()
	g.At(1, 2)
}
