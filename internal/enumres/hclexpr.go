package enumres

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/gocty"
)

type hclExpr struct {
	expr hcl.Expression
	src  string
}

// HCLExpr wraps an initializer decoded from an HCL manifest. Sibling
// enumerators are plain variables; bitwise operations are available as the
// functions bor, band, bxor, bnot, shl and shr.
func HCLExpr(expr hcl.Expression, src string) Expr {
	return &hclExpr{expr: expr, src: strings.TrimSpace(src)}
}

// ParseHCLExpr parses src as an HCL expression.
func ParseHCLExpr(src string) (Expr, error) {
	expr, diags := hclsyntax.ParseExpression([]byte(src), "initializer", hcl.InitialPos)
	if diags.HasErrors() {
		return nil, fmt.Errorf("%w: %q: %s", ErrBadValue, src, diags.Error())
	}
	return HCLExpr(expr, src), nil
}

func (h *hclExpr) References() []string {
	seen := make(map[string]bool)
	var refs []string
	for _, t := range h.expr.Variables() {
		name := t.RootName()
		if !seen[name] {
			seen[name] = true
			refs = append(refs, name)
		}
	}
	sort.Strings(refs)
	return refs
}

func (h *hclExpr) String() string { return h.src }

func (h *hclExpr) Eval(env map[string]int64) (int64, error) {
	vars := make(map[string]cty.Value, len(env))
	for name, v := range env {
		vars[name] = cty.NumberIntVal(v)
	}
	ctx := &hcl.EvalContext{Variables: vars, Functions: bitwiseFunctions}
	val, diags := h.expr.Value(ctx)
	if diags.HasErrors() {
		return 0, fmt.Errorf("%w: %q: %s", ErrBadValue, h.src, diags.Error())
	}
	var n int64
	if err := gocty.FromCtyValue(val, &n); err != nil {
		return 0, fmt.Errorf("%w: %q: %v", ErrBadValue, h.src, err)
	}
	return n, nil
}

var bitwiseFunctions = map[string]function.Function{
	"bor":  binaryIntFunc(func(a, b int64) (int64, error) { return a | b, nil }),
	"band": binaryIntFunc(func(a, b int64) (int64, error) { return a & b, nil }),
	"bxor": binaryIntFunc(func(a, b int64) (int64, error) { return a ^ b, nil }),
	"shl":  binaryIntFunc(shift(func(a int64, s uint) int64 { return a << s })),
	"shr":  binaryIntFunc(shift(func(a int64, s uint) int64 { return a >> s })),
	"bnot": function.New(&function.Spec{
		Params: []function.Parameter{{Name: "a", Type: cty.Number}},
		Type:   function.StaticReturnType(cty.Number),
		Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
			var a int64
			if err := gocty.FromCtyValue(args[0], &a); err != nil {
				return cty.NilVal, function.NewArgError(0, err)
			}
			return cty.NumberIntVal(^a), nil
		},
	}),
}

func shift(op func(int64, uint) int64) func(a, b int64) (int64, error) {
	return func(a, b int64) (int64, error) {
		if b < 0 || b > 63 {
			return 0, fmt.Errorf("shift count %d out of range", b)
		}
		return op(a, uint(b)), nil
	}
}

func binaryIntFunc(op func(a, b int64) (int64, error)) function.Function {
	return function.New(&function.Spec{
		Params: []function.Parameter{
			{Name: "a", Type: cty.Number},
			{Name: "b", Type: cty.Number},
		},
		Type: function.StaticReturnType(cty.Number),
		Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
			var a, b int64
			if err := gocty.FromCtyValue(args[0], &a); err != nil {
				return cty.NilVal, function.NewArgError(0, err)
			}
			if err := gocty.FromCtyValue(args[1], &b); err != nil {
				return cty.NilVal, function.NewArgError(1, err)
			}
			r, err := op(a, b)
			if err != nil {
				return cty.NilVal, err
			}
			return cty.NumberIntVal(r), nil
		},
	})
}
