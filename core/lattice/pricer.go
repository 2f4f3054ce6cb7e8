package lattice

import (
	"math"
	"sync"

	"go.uber.org/zap"
)

// DefaultParallelThreshold is the narrowest slice split across workers
const DefaultParallelThreshold = 512

// Lattice holds both grids of one pricing call
type Lattice struct {
	Request Request
	Factors Factors

	// Prices holds the underlying price at every node
	Prices *Grid

	// Values holds the option value at every node
	Values *Grid

	// ExerciseNodes counts interior nodes where exercise beat continuation
	ExerciseNodes int
}

// Value returns the option value at the root node
func (l *Lattice) Value() float64 {
	return l.Values.At(0, 0)
}

// Pricer runs the three lattice phases. The zero configuration is sequential;
// a Pricer holds no per-call state and may be shared between goroutines.
type Pricer struct {
	workers           int
	parallelThreshold int
	logger            *zap.Logger
}

// Option configures a Pricer
type Option func(*Pricer)

// WithWorkers splits wide slices of the backward pass across n goroutines
func WithWorkers(n int) Option {
	return func(p *Pricer) {
		if n > 0 {
			p.workers = n
		}
	}
}

// WithParallelThreshold sets the narrowest slice that is split across workers
func WithParallelThreshold(width int) Option {
	return func(p *Pricer) {
		if width > 0 {
			p.parallelThreshold = width
		}
	}
}

// WithLogger attaches a logger for debug output of derived factors
func WithLogger(logger *zap.Logger) Option {
	return func(p *Pricer) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewPricer creates a pricer
func NewPricer(opts ...Option) *Pricer {
	p := &Pricer{
		workers:           1,
		parallelThreshold: DefaultParallelThreshold,
		logger:            zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

var defaultPricer = NewPricer()

// Price values req with the sequential pricer
func Price(req Request) (float64, error) {
	return defaultPricer.Price(req)
}

// Price returns the option value at the root of the lattice
func (p *Pricer) Price(req Request) (float64, error) {
	l, err := p.Build(req)
	if err != nil {
		return 0, err
	}
	return l.Value(), nil
}

// Build validates req, then runs forward construction, terminal payoff and
// backward induction, returning both populated grids.
func (p *Pricer) Build(req Request) (*Lattice, error) {
	f, err := DeriveFactors(req)
	if err != nil {
		return nil, err
	}

	p.logger.Debug("lattice factors",
		zap.String("type", req.Type.String()),
		zap.Int("steps", req.Steps),
		zap.Float64("dt", f.Dt),
		zap.Float64("up", f.Up),
		zap.Float64("down", f.Down),
		zap.Float64("growth", f.Growth),
		zap.Float64("prob", f.Prob),
		zap.Float64("periodic_dividend", f.PeriodicDividend),
		zap.Bool("risk_neutral", f.RiskNeutral()),
	)

	l := &Lattice{
		Request: req,
		Factors: f,
		Prices:  newGrid(req.Steps),
		Values:  newGrid(req.Steps),
	}

	forward(l.Prices, req.Underlying, f.Up, f.Down)
	if top := l.Prices.At(req.Steps, 0); !isFinite(top) {
		return nil, &OverflowError{Factor: "max_price", Value: top}
	}

	k := kernel{
		sign:        req.Type.sign(),
		strike:      req.Strike,
		dividend:    f.PeriodicDividend,
		prob:        f.Prob,
		probDown:    f.ProbDown,
		compounding: f.Compounding,
	}
	k.terminal(l.Values.Row(req.Steps), l.Prices.Row(req.Steps))
	l.ExerciseNodes = p.backward(k, l)
	if err := checkValues(l.Values); err != nil {
		return nil, err
	}

	return l, nil
}

// checkValues rejects a value grid whose root, or any node read for Greeks, is
// not finite. With q far outside [0, 1] the backward pass can overflow even
// though every factor is finite.
func checkValues(values *Grid) error {
	for i := 0; i <= values.Steps() && i <= 2; i++ {
		for _, v := range values.Row(i) {
			if !isFinite(v) {
				return &OverflowError{Factor: "value", Value: v}
			}
		}
	}
	return nil
}

// forward fills the price grid: the all-up node of each slice comes from the
// previous all-up node, every other node is one down-move from its upper-left neighbour.
func forward(prices *Grid, underlying, up, down float64) {
	prev := prices.Row(0)
	prev[0] = underlying
	for i := 1; i <= prices.Steps(); i++ {
		row := prices.Row(i)
		row[0] = prev[0] * up
		for j := 1; j <= i; j++ {
			row[j] = prev[j-1] * down
		}
		prev = row
	}
}

func (p *Pricer) backward(k kernel, l *Lattice) int {
	exercised := 0
	for i := l.Request.Steps - 1; i >= 0; i-- {
		cur := l.Values.Row(i)
		next := l.Values.Row(i + 1)
		spot := l.Prices.Row(i)

		width := i + 1
		if p.workers > 1 && width >= p.parallelThreshold {
			exercised += p.parallelSlice(k, cur, next, spot)
			continue
		}
		exercised += k.induct(cur, next, spot, 0, width)
	}
	return exercised
}

// parallelSlice splits one slice into contiguous chunks. Nodes of a slice only
// read the next slice, so chunks never overlap and results match the sequential pass.
func (p *Pricer) parallelSlice(k kernel, cur, next, spot []float64) int {
	width := len(cur)
	chunk := (width + p.workers - 1) / p.workers
	counts := make([]int, p.workers)

	var wg sync.WaitGroup
	for w := 0; w < p.workers; w++ {
		lo := w * chunk
		if lo >= width {
			break
		}
		hi := lo + chunk
		if hi > width {
			hi = width
		}
		wg.Add(1)
		go func(w, lo, hi int) {
			defer wg.Done()
			counts[w] = k.induct(cur, next, spot, lo, hi)
		}(w, lo, hi)
	}
	wg.Wait()

	total := 0
	for _, c := range counts {
		total += c
	}
	return total
}

// kernel is the per-node arithmetic, with the option type already folded into sign
type kernel struct {
	sign        float64
	strike      float64
	dividend    float64
	prob        float64
	probDown    float64
	compounding float64
}

func (k kernel) terminal(values, spot []float64) {
	for j, s := range spot {
		values[j] = math.Max(k.sign*(s-k.strike), 0)
	}
}

func (k kernel) induct(cur, next, spot []float64, lo, hi int) int {
	exercised := 0
	for j := lo; j < hi; j++ {
		// float64 conversions keep the compiler from fusing into FMA, so
		// values are identical on every architecture
		continuation := k.compounding * (float64(k.prob*next[j]) + float64(k.probDown*next[j+1]))
		exercise := float64(k.sign*(spot[j]-k.strike)) + k.dividend
		if exercise > continuation {
			exercised++
		}
		cur[j] = math.Max(continuation, exercise)
	}
	return exercised
}
