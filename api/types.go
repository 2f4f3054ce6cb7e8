// Package api - API types for option pricing
// These types define the contract for the /price, /converge and /book endpoints.
// The API is stateless and deterministic: equal bodies give equal values.
package api

import (
	"option-lattice/core/book"
	"option-lattice/core/lattice"
)

// PriceRequest is the input to POST /price. Optional fields left out take
// the server's configured defaults.
type PriceRequest struct {
	Type       string   `json:"type"`
	Underlying *float64 `json:"underlying"`
	Strike     *float64 `json:"strike"`
	Volatility *float64 `json:"volatility"`
	Maturity   *float64 `json:"maturity"`

	// Optional
	RiskFreeRate     *float64 `json:"risk_free_rate,omitempty"`
	Steps            *int     `json:"steps,omitempty"`
	DividendYield    *float64 `json:"dividend_yield,omitempty"`
	DividendsPerYear *int     `json:"dividends_per_year,omitempty"`
}

// ConvergeRequest is the input to POST /converge
type ConvergeRequest struct {
	PriceRequest

	// FromSteps is the first step count (defaults to the request's steps)
	FromSteps int `json:"from_steps,omitempty"`

	// Doublings is how many times the step count doubles after the first run
	Doublings int `json:"doublings"`
}

// ErrorBody is the payload of every non-2xx response
type ErrorBody struct {
	Code      string                 `json:"code"`
	Message   string                 `json:"message"`
	Context   map[string]interface{} `json:"context,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
}

// ErrorResponse wraps ErrorBody
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// HealthResponse is returned by GET /health
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Time    string `json:"time"`
}

// VersionResponse is returned by GET /version
type VersionResponse struct {
	Version    string `json:"version"`
	Engine     string `json:"engine"`
	APIVersion string `json:"api_version"`
}

// toRequest fills defaults and checks that required fields are present
func (r PriceRequest) toRequest(d book.Defaults) (lattice.Request, error) {
	required := []struct {
		field string
		value *float64
	}{
		{"underlying", r.Underlying},
		{"strike", r.Strike},
		{"volatility", r.Volatility},
		{"maturity", r.Maturity},
	}
	for _, f := range required {
		if f.value == nil {
			return lattice.Request{}, &lattice.ParameterError{Field: f.field, Reason: "is required"}
		}
	}

	typ, err := lattice.ParseOptionType(r.Type)
	if err != nil {
		return lattice.Request{}, err
	}

	req := lattice.Request{
		Underlying:       *r.Underlying,
		Strike:           *r.Strike,
		Volatility:       *r.Volatility,
		RiskFreeRate:     d.RiskFreeRate,
		Maturity:         *r.Maturity,
		Steps:            d.Steps,
		DividendsPerYear: d.DividendsPerYear,
		Type:             typ,
	}
	if r.RiskFreeRate != nil {
		req.RiskFreeRate = *r.RiskFreeRate
	}
	if r.Steps != nil {
		req.Steps = *r.Steps
	}
	if r.DividendYield != nil {
		req.DividendYield = *r.DividendYield
	}
	if r.DividendsPerYear != nil {
		req.DividendsPerYear = *r.DividendsPerYear
	}
	return req, nil
}
