package book

import (
	"context"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"option-lattice/core/determinism"
	"option-lattice/core/lattice"
)

// PositionValue is the priced form of one position
type PositionValue struct {
	Name        string               `json:"name"`
	Type        lattice.OptionType   `json:"type"`
	Steps       int                  `json:"steps"`
	Quantity    decimal.Decimal      `json:"quantity"`
	Multiplier  decimal.Decimal      `json:"multiplier"`
	Currency    string               `json:"currency"`
	Fingerprint determinism.StableID `json:"fingerprint"`
	UnitPrice   float64              `json:"unit_price"`
	MarketValue decimal.Decimal      `json:"market_value"`
	Greeks      lattice.Greeks       `json:"greeks"`
	RiskNeutral bool                 `json:"risk_neutral"`
	Error       string               `json:"error,omitempty"`
	err         error
}

// Err returns the pricing error for a failed position
func (p PositionValue) Err() error {
	return p.err
}

// CurrencyTotal sums market values of priced positions in one currency
type CurrencyTotal struct {
	Currency    string          `json:"currency"`
	MarketValue decimal.Decimal `json:"market_value"`
	Positions   int             `json:"positions"`
}

// Valuation is the result of pricing a whole book
type Valuation struct {
	RunID     string          `json:"run_id"`
	Book      string          `json:"book"`
	Positions []PositionValue `json:"positions"`
	Totals    []CurrencyTotal `json:"totals"`

	// Lattices is the number of distinct requests actually built
	Lattices int `json:"lattices"`

	Failed    int           `json:"failed"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration_ns"`
}

// Valuer prices books with bounded concurrency
type Valuer struct {
	pricer  *lattice.Pricer
	workers int
	logger  *zap.Logger
}

// NewValuer creates a valuer. workers <= 0 means one per CPU.
func NewValuer(pricer *lattice.Pricer, workers int, logger *zap.Logger) *Valuer {
	if pricer == nil {
		pricer = lattice.NewPricer()
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Valuer{pricer: pricer, workers: workers, logger: logger}
}

type outcome struct {
	result *lattice.Result
	err    error
}

// Value prices every position of b. A position that fails to price is
// recorded with its error and left out of the totals; only cancellation of
// ctx aborts the run.
func (v *Valuer) Value(ctx context.Context, b *Book) (*Valuation, error) {
	started := time.Now()
	runID := uuid.NewString()
	logger := v.logger.With(zap.String("run_id", runID), zap.String("book", b.Name))

	fingerprints := make([]determinism.StableID, len(b.Positions))
	index := make(map[determinism.StableID]int)
	var requests []lattice.Request
	for i, p := range b.Positions {
		fp := Fingerprint(p.Request)
		fingerprints[i] = fp
		if _, ok := index[fp]; !ok {
			index[fp] = len(requests)
			requests = append(requests, p.Request)
		}
	}

	outcomes := make([]outcome, len(requests))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(v.workers)
	for i := range requests {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := v.pricer.Evaluate(requests[i])
			outcomes[i] = outcome{result: res, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		logger.Warn("book valuation canceled", zap.Error(err))
		return nil, err
	}

	val := &Valuation{
		RunID:     runID,
		Book:      b.Name,
		Positions: make([]PositionValue, len(b.Positions)),
		Lattices:  len(requests),
		StartedAt: started.UTC(),
	}

	totals := make(map[string]determinism.Money)
	counts := make(map[string]int)
	for i, p := range b.Positions {
		out := outcomes[index[fingerprints[i]]]
		pv := PositionValue{
			Name:        p.Name,
			Type:        p.Request.Type,
			Steps:       p.Request.Steps,
			Quantity:    p.Quantity,
			Multiplier:  p.Multiplier,
			Currency:    p.Currency,
			Fingerprint: fingerprints[i],
		}
		if out.err != nil {
			pv.err = out.err
			pv.Error = out.err.Error()
			val.Failed++
			logger.Warn("position failed", zap.String("position", p.Name), zap.Error(out.err))
			val.Positions[i] = pv
			continue
		}

		pv.UnitPrice = out.result.Value
		pv.Greeks = out.result.Greeks
		pv.RiskNeutral = out.result.RiskNeutral
		pv.MarketValue = decimal.NewFromFloat(out.result.Value).Mul(p.Quantity).Mul(p.Multiplier)
		val.Positions[i] = pv

		total, ok := totals[p.Currency]
		if !ok {
			total = determinism.Zero(p.Currency)
		}
		totals[p.Currency] = total.Add(determinism.NewMoneyFromDecimal(pv.MarketValue, p.Currency))
		counts[p.Currency]++
	}

	for _, currency := range determinism.SortedKeys(totals) {
		val.Totals = append(val.Totals, CurrencyTotal{
			Currency:    currency,
			MarketValue: totals[currency].Amount(),
			Positions:   counts[currency],
		})
	}

	val.Duration = time.Since(started)
	logger.Info("book valued",
		zap.Int("positions", len(b.Positions)),
		zap.Int("lattices", val.Lattices),
		zap.Int("failed", val.Failed),
		zap.Duration("duration", val.Duration))
	return val, nil
}
