package hcl_adapter

import (
	"context"
	"fmt"
	"math"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"

	"github.com/vk/reactgrid/internal/ctxlog"
	"github.com/vk/reactgrid/internal/sm"
)

// isExprDefined checks if an HCL expression was actually present in the source
// code. The HCL decoder populates omitted optional fields with zero-width
// placeholder expressions, so a nil check is not enough.
func isExprDefined(ctx context.Context, expr hcl.Expression, attrName string) bool {
	if expr == nil {
		return false
	}
	exprRange := expr.Range()
	isDefined := exprRange.End.Byte > exprRange.Start.Byte

	ctxlog.FromContext(ctx).Debug("Checking if HCL attribute was explicitly defined.",
		"attribute", attrName,
		"hcl_range", exprRange.String(),
		"is_defined", isDefined,
	)
	return isDefined
}

// payloadFromExpr evaluates a payload attribute. A string is taken byte for
// byte; a list of numbers must hold values in 0..255.
func payloadFromExpr(ctx context.Context, expr hcl.Expression) (sm.Message, error) {
	if !isExprDefined(ctx, expr, "payload") {
		return sm.Empty, nil
	}
	val, diags := expr.Value(nil)
	if diags.HasErrors() {
		return sm.Empty, fmt.Errorf("invalid payload: %w", diags)
	}
	if val.IsNull() {
		return sm.Empty, nil
	}
	if !val.IsWhollyKnown() {
		return sm.Empty, fmt.Errorf("payload must be a constant value")
	}

	ty := val.Type()
	switch {
	case ty == cty.String:
		return sm.MessageFromString(val.AsString()), nil
	case ty.IsTupleType() || ty.IsListType():
		list, err := convert.Convert(val, cty.List(cty.Number))
		if err != nil {
			return sm.Empty, fmt.Errorf("payload list must contain only numbers: %w", err)
		}
		var nums []int64
		if err := gocty.FromCtyValue(list, &nums); err != nil {
			return sm.Empty, fmt.Errorf("payload list must contain only whole numbers: %w", err)
		}
		buf := make([]byte, len(nums))
		for i, n := range nums {
			if n < 0 || n > math.MaxUint8 {
				return sm.Empty, fmt.Errorf("payload byte %d is out of range 0..255: %d", i, n)
			}
			buf[i] = byte(n)
		}
		return sm.NewMessage(buf), nil
	default:
		return sm.Empty, fmt.Errorf("payload must be a string or a list of bytes, got %s", ty.FriendlyName())
	}
}
