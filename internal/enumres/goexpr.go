package enumres

import (
	"fmt"
	"go/ast"
	"go/constant"
	"go/parser"
	"go/token"
	"regexp"
	"sort"
	"strings"
)

// integer suffixes such as 1u or 0x10UL carry no value information
var intSuffix = regexp.MustCompile(`\b(0[xX][0-9a-fA-F]+|[0-9]+)[uUlL]+\b`)

type goExpr struct {
	src  string
	expr ast.Expr
	refs []string
}

// ParseGoExpr parses a C-like constant expression: integer literals (decimal,
// hex, octal, character), sibling names, parentheses, unary - + ~ and the binary
// operators + - * / % & | ^ << >>.
func ParseGoExpr(src string) (Expr, error) {
	text := strings.TrimSpace(src)
	if text == "" {
		return nil, fmt.Errorf("%w: empty initializer", ErrBadValue)
	}
	text = intSuffix.ReplaceAllString(text, "$1")
	text = strings.ReplaceAll(text, "~", "^")
	expr, err := parser.ParseExpr(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrBadValue, src, err)
	}

	seen := make(map[string]bool)
	var refs []string
	var bad error
	ast.Inspect(expr, func(n ast.Node) bool {
		switch n := n.(type) {
		case *ast.Ident:
			if !seen[n.Name] {
				seen[n.Name] = true
				refs = append(refs, n.Name)
			}
		case *ast.BasicLit, *ast.BinaryExpr, *ast.UnaryExpr, *ast.ParenExpr, nil:
		default:
			if bad == nil {
				bad = fmt.Errorf("%w: %q: unsupported expression %T", ErrBadValue, src, n)
			}
			return false
		}
		return true
	})
	if bad != nil {
		return nil, bad
	}
	sort.Strings(refs)
	return &goExpr{src: strings.TrimSpace(src), expr: expr, refs: refs}, nil
}

func (g *goExpr) References() []string { return g.refs }
func (g *goExpr) String() string       { return g.src }

func (g *goExpr) Eval(env map[string]int64) (int64, error) {
	v, err := foldConst(g.expr, env)
	if err != nil {
		return 0, err
	}
	v = constant.ToInt(v)
	if v.Kind() != constant.Int {
		return 0, fmt.Errorf("%w: %q is not an integer", ErrBadValue, g.src)
	}
	n, exact := constant.Int64Val(v)
	if !exact {
		return 0, fmt.Errorf("%w: %q overflows", ErrBadValue, g.src)
	}
	return n, nil
}

func foldConst(expr ast.Expr, env map[string]int64) (constant.Value, error) {
	switch e := expr.(type) {
	case *ast.BasicLit:
		switch e.Kind {
		case token.INT, token.CHAR:
			v := constant.MakeFromLiteral(e.Value, e.Kind, 0)
			if v.Kind() == constant.Unknown {
				return nil, fmt.Errorf("%w: bad literal %s", ErrBadValue, e.Value)
			}
			return constant.ToInt(v), nil
		default:
			return nil, fmt.Errorf("%w: literal %s is not an integer", ErrBadValue, e.Value)
		}
	case *ast.Ident:
		v, ok := env[e.Name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownEnumerator, e.Name)
		}
		return constant.MakeInt64(v), nil
	case *ast.ParenExpr:
		return foldConst(e.X, env)
	case *ast.UnaryExpr:
		x, err := foldConst(e.X, env)
		if err != nil {
			return nil, err
		}
		switch e.Op {
		case token.ADD, token.SUB, token.XOR:
			return constant.UnaryOp(e.Op, x, 0), nil
		}
		return nil, fmt.Errorf("%w: unsupported operator %s", ErrBadValue, e.Op)
	case *ast.BinaryExpr:
		x, err := foldConst(e.X, env)
		if err != nil {
			return nil, err
		}
		y, err := foldConst(e.Y, env)
		if err != nil {
			return nil, err
		}
		switch e.Op {
		case token.ADD, token.SUB, token.MUL, token.REM, token.AND, token.OR, token.XOR, token.AND_NOT:
			if e.Op == token.REM && constant.Sign(y) == 0 {
				return nil, fmt.Errorf("%w: division by zero", ErrBadValue)
			}
			return constant.BinaryOp(x, e.Op, y), nil
		case token.QUO:
			if constant.Sign(y) == 0 {
				return nil, fmt.Errorf("%w: division by zero", ErrBadValue)
			}
			return constant.BinaryOp(x, token.QUO_ASSIGN, y), nil
		case token.SHL, token.SHR:
			s, ok := constant.Uint64Val(y)
			if !ok || s > 63 {
				return nil, fmt.Errorf("%w: shift count %s out of range", ErrBadValue, y)
			}
			return constant.Shift(x, e.Op, uint(s)), nil
		}
		return nil, fmt.Errorf("%w: unsupported operator %s", ErrBadValue, e.Op)
	}
	return nil, fmt.Errorf("%w: unsupported expression %T", ErrBadValue, expr)
}
