// Package book - Option books and their concurrent valuation.
// A book is a named list of positions, each a lattice request with a size.
// Books are read from HCL, YAML or JSON files.
package book

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"

	"option-lattice/core/determinism"
	"option-lattice/core/lattice"
)

// ErrInvalidBook wraps every structural problem found while loading a book
var ErrInvalidBook = errors.New("invalid book")

// Position is one line of a book
type Position struct {
	// Name is unique within the book
	Name string `json:"name"`

	// Request is the full lattice request for one unit
	Request lattice.Request `json:"request"`

	// Quantity is the number of contracts held (negative for short)
	Quantity decimal.Decimal `json:"quantity"`

	// Multiplier converts one contract into units of the underlying
	Multiplier decimal.Decimal `json:"multiplier"`

	// Currency is the settlement currency
	Currency string `json:"currency"`
}

// Book is a named list of positions
type Book struct {
	Name      string     `json:"name"`
	Source    string     `json:"source,omitempty"`
	Positions []Position `json:"positions"`
}

// Defaults fill fields a book entry leaves out. A book's own defaults block
// is layered over the Defaults passed to the loader.
type Defaults struct {
	Steps            int
	DividendsPerYear int
	RiskFreeRate     float64
	Multiplier       decimal.Decimal
	Currency         string
}

// entry is the format-independent shape of one option block
type entry struct {
	Name             string   `yaml:"name"`
	Type             string   `yaml:"type"`
	Underlying       *float64 `yaml:"underlying"`
	Strike           *float64 `yaml:"strike"`
	Volatility       *float64 `yaml:"volatility"`
	RiskFreeRate     *float64 `yaml:"risk_free_rate"`
	Maturity         *float64 `yaml:"maturity"`
	Steps            *int     `yaml:"steps"`
	DividendYield    *float64 `yaml:"dividend_yield"`
	DividendsPerYear *int     `yaml:"dividends_per_year"`
	Quantity         *float64 `yaml:"quantity"`
	Multiplier       *float64 `yaml:"multiplier"`
	Currency         string   `yaml:"currency"`
}

// defaultsEntry is the format-independent shape of a defaults block
type defaultsEntry struct {
	Steps            *int     `yaml:"steps"`
	RiskFreeRate     *float64 `yaml:"risk_free_rate"`
	DividendsPerYear *int     `yaml:"dividends_per_year"`
	Multiplier       *float64 `yaml:"multiplier"`
	Currency         string   `yaml:"currency"`
}

// Load reads a book file, choosing the parser by extension
func Load(path string, base Defaults) (*Book, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read book: %w", err)
	}

	var b *Book
	switch strings.ToLower(filepath.Ext(path)) {
	case ".hcl":
		b, err = ParseHCL(src, path, base)
	case ".yaml", ".yml", ".json":
		b, err = ParseYAML(src, path, base)
	default:
		return nil, fmt.Errorf("%w: %s: unsupported extension (want .hcl, .yaml, .yml or .json)", ErrInvalidBook, path)
	}
	if err != nil {
		return nil, err
	}
	return b, nil
}

// assemble layers defaults and turns entries into positions
func assemble(name, source string, base Defaults, fileDefaults defaultsEntry, entries []entry) (*Book, error) {
	d, err := base.apply(fileDefaults)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: defaults: %v", ErrInvalidBook, source, err)
	}
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	}

	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: %s: no options defined", ErrInvalidBook, source)
	}

	b := &Book{Name: name, Source: source, Positions: make([]Position, 0, len(entries))}
	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		if e.Name == "" {
			return nil, fmt.Errorf("%w: %s: option without a name", ErrInvalidBook, source)
		}
		if seen[e.Name] {
			return nil, fmt.Errorf("%w: %s: duplicate option %q", ErrInvalidBook, source, e.Name)
		}
		seen[e.Name] = true

		p, err := e.resolve(d)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: option %q: %v", ErrInvalidBook, source, e.Name, err)
		}
		b.Positions = append(b.Positions, p)
	}
	return b, nil
}

func (d Defaults) apply(f defaultsEntry) (Defaults, error) {
	if f.Steps != nil {
		d.Steps = *f.Steps
	}
	if f.RiskFreeRate != nil {
		d.RiskFreeRate = *f.RiskFreeRate
	}
	if f.DividendsPerYear != nil {
		d.DividendsPerYear = *f.DividendsPerYear
	}
	if f.Multiplier != nil {
		m, err := finiteDecimal("multiplier", *f.Multiplier)
		if err != nil {
			return d, err
		}
		d.Multiplier = m
	}
	if f.Currency != "" {
		d.Currency = f.Currency
	}
	if d.Multiplier.IsZero() {
		d.Multiplier = decimal.NewFromInt(1)
	}
	if d.Currency == "" {
		d.Currency = "USD"
	}
	return d, nil
}

func (e entry) resolve(d Defaults) (Position, error) {
	required := []struct {
		field string
		value *float64
	}{
		{"underlying", e.Underlying},
		{"strike", e.Strike},
		{"volatility", e.Volatility},
		{"maturity", e.Maturity},
	}
	for _, r := range required {
		if r.value == nil {
			return Position{}, fmt.Errorf("missing %s", r.field)
		}
	}
	if e.Type == "" {
		return Position{}, fmt.Errorf("missing type")
	}
	typ, err := lattice.ParseOptionType(e.Type)
	if err != nil {
		return Position{}, err
	}

	req := lattice.Request{
		Underlying:       *e.Underlying,
		Strike:           *e.Strike,
		Volatility:       *e.Volatility,
		RiskFreeRate:     d.RiskFreeRate,
		Maturity:         *e.Maturity,
		Steps:            d.Steps,
		DividendsPerYear: d.DividendsPerYear,
		Type:             typ,
	}
	if e.RiskFreeRate != nil {
		req.RiskFreeRate = *e.RiskFreeRate
	}
	if e.Steps != nil {
		req.Steps = *e.Steps
	}
	if e.DividendYield != nil {
		req.DividendYield = *e.DividendYield
	}
	if e.DividendsPerYear != nil {
		req.DividendsPerYear = *e.DividendsPerYear
	}

	p := Position{
		Name:       e.Name,
		Request:    req,
		Quantity:   decimal.NewFromInt(1),
		Multiplier: d.Multiplier,
		Currency:   d.Currency,
	}
	if e.Quantity != nil {
		if p.Quantity, err = finiteDecimal("quantity", *e.Quantity); err != nil {
			return Position{}, err
		}
	}
	if e.Multiplier != nil {
		if p.Multiplier, err = finiteDecimal("multiplier", *e.Multiplier); err != nil {
			return Position{}, err
		}
	}
	if e.Currency != "" {
		p.Currency = e.Currency
	}
	return p, nil
}

// finiteDecimal converts a position size, refusing NaN and infinities
func finiteDecimal(field string, v float64) (decimal.Decimal, error) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return decimal.Decimal{}, fmt.Errorf("%s must be finite, got %v", field, v)
	}
	return decimal.NewFromFloat(v), nil
}

var fingerprints = determinism.NewIDGenerator("lattice-request")

// Fingerprint identifies a request by value. Positions with equal fingerprints
// share one lattice during valuation.
func Fingerprint(req lattice.Request) determinism.StableID {
	return fingerprints.Generate(
		determinism.CanonicalFloat(req.Underlying),
		determinism.CanonicalFloat(req.Strike),
		determinism.CanonicalFloat(req.Volatility),
		determinism.CanonicalFloat(req.RiskFreeRate),
		determinism.CanonicalFloat(req.Maturity),
		fmt.Sprint(req.Steps),
		determinism.CanonicalFloat(req.DividendYield),
		fmt.Sprint(req.DividendsPerYear),
		req.Type.String(),
	)
}
