package book

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
	"github.com/zclconf/go-cty/cty/gocty"
)

var fileSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "name"},
	},
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "locals"},
		{Type: "defaults"},
		{Type: "option", LabelNames: []string{"name"}},
	},
}

// functions available to every expression in an HCL book
var functions = map[string]function.Function{
	"days":   yearFraction(365),
	"weeks":  yearFraction(52),
	"months": yearFraction(12),
	"min":    stdlib.MinFunc,
	"max":    stdlib.MaxFunc,
	"abs":    stdlib.AbsoluteFunc,
}

// yearFraction converts a count of periods into years, e.g. days(30) = 30/365
func yearFraction(perYear float64) function.Function {
	return function.New(&function.Spec{
		Params: []function.Parameter{{Name: "n", Type: cty.Number}},
		Type:   function.StaticReturnType(cty.Number),
		Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
			n, _ := args[0].AsBigFloat().Float64()
			return cty.NumberFloatVal(n / perYear), nil
		},
	})
}

var defaultsSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "steps"},
		{Name: "risk_free_rate"},
		{Name: "dividends_per_year"},
		{Name: "multiplier"},
		{Name: "currency"},
	},
}

var optionSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "type"},
		{Name: "underlying"},
		{Name: "strike"},
		{Name: "volatility"},
		{Name: "risk_free_rate"},
		{Name: "maturity"},
		{Name: "steps"},
		{Name: "dividend_yield"},
		{Name: "dividends_per_year"},
		{Name: "quantity"},
		{Name: "multiplier"},
		{Name: "currency"},
	},
}

// ParseHCL parses a book written in HCL:
//
//	name = "desk"
//	defaults { steps = 200 }
//	option "spy-put" { type = "put" ... }
//
// Attribute values are expressions: maturity = days(30) and strike = local.spot
// are accepted, with values defined in locals blocks.
func ParseHCL(src []byte, filename string, base Defaults) (*Book, error) {
	file, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, diagError(filename, diags)
	}

	content, diags := file.Body.Content(fileSchema)
	if diags.HasErrors() {
		return nil, diagError(filename, diags)
	}

	ctx, err := evalContext(content.Blocks)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidBook, filename, err)
	}

	var name string
	if attr, ok := content.Attributes["name"]; ok {
		if err := decodeAttr(ctx, attr, &name); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrInvalidBook, filename, err)
		}
	}

	var defaults defaultsEntry
	var entries []entry
	seenDefaults := false
	for _, block := range content.Blocks {
		switch block.Type {
		case "defaults":
			if seenDefaults {
				return nil, fmt.Errorf("%w: %s:%d: more than one defaults block", ErrInvalidBook, filename, block.DefRange.Start.Line)
			}
			seenDefaults = true
			d, err := decodeDefaults(ctx, block.Body)
			if err != nil {
				return nil, fmt.Errorf("%w: %s:%d: defaults: %v", ErrInvalidBook, filename, block.DefRange.Start.Line, err)
			}
			defaults = d
		case "option":
			e, err := decodeOption(ctx, block.Body)
			if err != nil {
				return nil, fmt.Errorf("%w: %s:%d: option %q: %v", ErrInvalidBook, filename, block.DefRange.Start.Line, block.Labels[0], err)
			}
			e.Name = block.Labels[0]
			entries = append(entries, e)
		}
	}

	return assemble(name, filename, base, defaults, entries)
}

// evalContext resolves every locals block. Locals may refer to each other in
// any order; a cycle or an unknown name is an error.
func evalContext(blocks hcl.Blocks) (*hcl.EvalContext, error) {
	pending := make(map[string]*hcl.Attribute)
	for _, block := range blocks {
		if block.Type != "locals" {
			continue
		}
		attrs, diags := block.Body.JustAttributes()
		if diags.HasErrors() {
			return nil, diags
		}
		for name, attr := range attrs {
			if _, dup := pending[name]; dup {
				return nil, fmt.Errorf("local %q defined twice", name)
			}
			pending[name] = attr
		}
	}

	resolved := make(map[string]cty.Value, len(pending))
	ctx := &hcl.EvalContext{Functions: functions}
	for len(pending) > 0 {
		progressed := false
		for name, attr := range pending {
			if !refsResolved(attr.Expr, resolved) {
				continue
			}
			ctx.Variables = map[string]cty.Value{"local": cty.ObjectVal(resolved)}
			val, diags := attr.Expr.Value(ctx)
			if diags.HasErrors() {
				return nil, diags
			}
			resolved[name] = val
			delete(pending, name)
			progressed = true
		}
		if !progressed {
			names := make([]string, 0, len(pending))
			for name := range pending {
				names = append(names, name)
			}
			sort.Strings(names)
			return nil, fmt.Errorf("cannot resolve locals %s (cycle or unknown reference)", strings.Join(names, ", "))
		}
	}

	ctx.Variables = map[string]cty.Value{"local": cty.ObjectVal(resolved)}
	return ctx, nil
}

// refsResolved reports whether every local.<name> in expr is already known
func refsResolved(expr hcl.Expression, resolved map[string]cty.Value) bool {
	for _, traversal := range expr.Variables() {
		if traversal.RootName() != "local" || len(traversal) < 2 {
			continue
		}
		attr, ok := traversal[1].(hcl.TraverseAttr)
		if !ok {
			continue
		}
		if _, ok := resolved[attr.Name]; !ok {
			return false
		}
	}
	return true
}

func decodeDefaults(ctx *hcl.EvalContext, body hcl.Body) (defaultsEntry, error) {
	var d defaultsEntry
	content, diags := body.Content(defaultsSchema)
	if diags.HasErrors() {
		return d, diags
	}
	attrs := content.Attributes
	if err := optionalInt(ctx, attrs, "steps", &d.Steps); err != nil {
		return d, err
	}
	if err := optionalFloat(ctx, attrs, "risk_free_rate", &d.RiskFreeRate); err != nil {
		return d, err
	}
	if err := optionalInt(ctx, attrs, "dividends_per_year", &d.DividendsPerYear); err != nil {
		return d, err
	}
	if err := optionalFloat(ctx, attrs, "multiplier", &d.Multiplier); err != nil {
		return d, err
	}
	if err := optionalString(ctx, attrs, "currency", &d.Currency); err != nil {
		return d, err
	}
	return d, nil
}

func decodeOption(ctx *hcl.EvalContext, body hcl.Body) (entry, error) {
	var e entry
	content, diags := body.Content(optionSchema)
	if diags.HasErrors() {
		return e, diags
	}
	attrs := content.Attributes

	floats := []struct {
		name string
		dst  **float64
	}{
		{"underlying", &e.Underlying},
		{"strike", &e.Strike},
		{"volatility", &e.Volatility},
		{"risk_free_rate", &e.RiskFreeRate},
		{"maturity", &e.Maturity},
		{"dividend_yield", &e.DividendYield},
		{"quantity", &e.Quantity},
		{"multiplier", &e.Multiplier},
	}
	for _, f := range floats {
		if err := optionalFloat(ctx, attrs, f.name, f.dst); err != nil {
			return e, err
		}
	}
	if err := optionalInt(ctx, attrs, "steps", &e.Steps); err != nil {
		return e, err
	}
	if err := optionalInt(ctx, attrs, "dividends_per_year", &e.DividendsPerYear); err != nil {
		return e, err
	}
	if err := optionalString(ctx, attrs, "type", &e.Type); err != nil {
		return e, err
	}
	if err := optionalString(ctx, attrs, "currency", &e.Currency); err != nil {
		return e, err
	}
	return e, nil
}

func optionalFloat(ctx *hcl.EvalContext, attrs hcl.Attributes, name string, dst **float64) error {
	attr, ok := attrs[name]
	if !ok {
		return nil
	}
	var v float64
	if err := decodeAttr(ctx, attr, &v); err != nil {
		return err
	}
	*dst = &v
	return nil
}

func optionalInt(ctx *hcl.EvalContext, attrs hcl.Attributes, name string, dst **int) error {
	attr, ok := attrs[name]
	if !ok {
		return nil
	}
	var v int
	if err := decodeAttr(ctx, attr, &v); err != nil {
		return err
	}
	*dst = &v
	return nil
}

func optionalString(ctx *hcl.EvalContext, attrs hcl.Attributes, name string, dst *string) error {
	attr, ok := attrs[name]
	if !ok {
		return nil
	}
	return decodeAttr(ctx, attr, dst)
}

// decodeAttr evaluates an attribute and converts it into dst
func decodeAttr(ctx *hcl.EvalContext, attr *hcl.Attribute, dst interface{}) error {
	val, diags := attr.Expr.Value(ctx)
	if diags.HasErrors() {
		return diags
	}
	if val.IsNull() {
		return fmt.Errorf("%s: null value", attr.Name)
	}
	if _, ok := dst.(*string); ok && val.Type() != cty.String {
		return fmt.Errorf("%s: expected a string, got %s", attr.Name, val.Type().FriendlyName())
	}
	if err := gocty.FromCtyValue(val, dst); err != nil {
		return fmt.Errorf("%s: %v", attr.Name, err)
	}
	return nil
}

func diagError(filename string, diags hcl.Diagnostics) error {
	var msgs []string
	for _, diag := range diags {
		if diag.Severity != hcl.DiagError {
			continue
		}
		line := 0
		if diag.Subject != nil {
			line = diag.Subject.Start.Line
		}
		msgs = append(msgs, fmt.Sprintf("line %d: %s: %s", line, diag.Summary, diag.Detail))
	}
	return fmt.Errorf("%w: %s: %s", ErrInvalidBook, filename, strings.Join(msgs, "; "))
}
