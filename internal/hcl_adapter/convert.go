// This file evaluates attribute expressions and converts the resulting cty
// values into Go values.

package hcl_adapter

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

// stringsAttr evaluates expr to a list of strings. A single string becomes a
// one-element list; an absent or null attribute yields nil.
func stringsAttr(ctx context.Context, expr hcl.Expression, attrName string) ([]string, error) {
	val, ok, err := evalAttr(ctx, expr, attrName)
	if err != nil || !ok {
		return nil, err
	}

	if val.Type() == cty.String {
		return []string{val.AsString()}, nil
	}

	listVal, err := convert.Convert(val, cty.List(cty.String))
	if err != nil {
		return nil, fmt.Errorf("attribute '%s' must be a string or a list of strings: %w", attrName, err)
	}
	if !listVal.IsWhollyKnown() {
		return nil, fmt.Errorf("attribute '%s' has unknown values", attrName)
	}

	var out []string
	if err := gocty.FromCtyValue(listVal, &out); err != nil {
		return nil, fmt.Errorf("attribute '%s': %w", attrName, err)
	}
	return out, nil
}

// intAttr evaluates expr to a whole number. An absent attribute yields 0.
func intAttr(ctx context.Context, expr hcl.Expression, attrName string) (int, error) {
	val, ok, err := evalAttr(ctx, expr, attrName)
	if err != nil || !ok {
		return 0, err
	}

	numVal, err := convert.Convert(val, cty.Number)
	if err != nil {
		return 0, fmt.Errorf("attribute '%s' must be a number: %w", attrName, err)
	}

	var n int
	if err := gocty.FromCtyValue(numVal, &n); err != nil {
		return 0, fmt.Errorf("attribute '%s' must be a whole number: %w", attrName, err)
	}
	return n, nil
}

// evalAttr evaluates an optional attribute. ok is false when the attribute
// was not written or evaluates to null.
func evalAttr(ctx context.Context, expr hcl.Expression, attrName string) (cty.Value, bool, error) {
	if !isExprDefined(ctx, expr, attrName) {
		return cty.NilVal, false, nil
	}
	val, diags := expr.Value(nil)
	if diags.HasErrors() {
		return cty.NilVal, false, fmt.Errorf("invalid value for attribute '%s': %w", attrName, diags)
	}
	if val.IsNull() {
		return cty.NilVal, false, nil
	}
	return val, true, nil
}
