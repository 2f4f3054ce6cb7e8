package lattice

// Greeks are read off the first two slices of a built lattice
type Greeks struct {
	// Delta is dV/dS between the two nodes of slice 1
	Delta float64 `json:"delta"`

	// Gamma is the change in delta across slice 2 (zero when N < 2)
	Gamma float64 `json:"gamma"`

	// Theta is (V(2,1) - V(0,0)) / 2dt per year (zero when N < 2)
	Theta float64 `json:"theta"`
}

// Result is a priced request with its diagnostics
type Result struct {
	Request       Request `json:"request"`
	Value         float64 `json:"value"`
	Factors       Factors `json:"factors"`
	Greeks        Greeks  `json:"greeks"`
	ExerciseNodes int     `json:"exercise_nodes"`
	RiskNeutral   bool    `json:"risk_neutral"`
}

// Evaluate prices req and derives tree sensitivities from the same lattice
func (p *Pricer) Evaluate(req Request) (*Result, error) {
	l, err := p.Build(req)
	if err != nil {
		return nil, err
	}
	g := l.Greeks()
	for _, v := range []float64{g.Delta, g.Gamma, g.Theta} {
		if !isFinite(v) {
			return nil, &OverflowError{Factor: "greeks", Value: v}
		}
	}
	return &Result{
		Request:       req,
		Value:         l.Value(),
		Factors:       l.Factors,
		Greeks:        g,
		ExerciseNodes: l.ExerciseNodes,
		RiskNeutral:   l.Factors.RiskNeutral(),
	}, nil
}

// Greeks computes delta from slice 1 and gamma/theta from slice 2
func (l *Lattice) Greeks() Greeks {
	var g Greeks
	s, v := l.Prices, l.Values

	g.Delta = (v.At(1, 0) - v.At(1, 1)) / (s.At(1, 0) - s.At(1, 1))
	if l.Request.Steps < 2 {
		return g
	}

	upper := (v.At(2, 0) - v.At(2, 1)) / (s.At(2, 0) - s.At(2, 1))
	lower := (v.At(2, 1) - v.At(2, 2)) / (s.At(2, 1) - s.At(2, 2))
	g.Gamma = (upper - lower) / ((s.At(2, 0) - s.At(2, 2)) / 2)
	g.Theta = (v.At(2, 1) - v.At(0, 0)) / (2 * l.Factors.Dt)
	return g
}
