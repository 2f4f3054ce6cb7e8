package lattice

import (
	"context"
	"fmt"
	"math"
)

// ConvergencePoint is one run of a step-doubling study
type ConvergencePoint struct {
	Steps int     `json:"steps"`
	Value float64 `json:"value"`

	// Change is Value minus the previous point's value (zero for the first point)
	Change float64 `json:"change"`
}

// MaxConvergenceSteps bounds the largest lattice a study may build
const MaxConvergenceSteps = 1 << 16

// Converge prices req at fromSteps, 2*fromSteps, ... for doublings+1 runs.
// ctx is checked between runs; a single run is never interrupted.
func (p *Pricer) Converge(ctx context.Context, req Request, fromSteps, doublings int) ([]ConvergencePoint, error) {
	if fromSteps <= 0 {
		return nil, &ParameterError{Field: "from_steps", Value: fromSteps, Reason: "must be positive"}
	}
	if doublings < 0 {
		return nil, &ParameterError{Field: "doublings", Value: doublings, Reason: "must not be negative"}
	}
	if last := float64(fromSteps) * math.Pow(2, float64(doublings)); last > MaxConvergenceSteps {
		return nil, &ParameterError{Field: "doublings", Value: doublings,
			Reason: fmt.Sprintf("final step count %.0f exceeds %d", last, MaxConvergenceSteps)}
	}

	points := make([]ConvergencePoint, 0, doublings+1)
	steps := fromSteps
	for k := 0; k <= doublings; k++ {
		if err := ctx.Err(); err != nil {
			return points, err
		}
		v, err := p.Price(req.WithSteps(steps))
		if err != nil {
			return points, err
		}
		pt := ConvergencePoint{Steps: steps, Value: v}
		if k > 0 {
			pt.Change = v - points[k-1].Value
		}
		points = append(points, pt)
		steps *= 2
	}
	return points, nil
}
