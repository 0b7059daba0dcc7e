// Package enumres resolves enumerator initializers to integer values.
//
// Initializers may reference any sibling enumerator of the same enum, in any
// declaration order. All (name, expression) pairs are collected first, a
// dependency graph is ordered topologically, and each expression is then
// evaluated against the values resolved so far. An enumerator without an
// initializer takes its predecessor's value plus one (zero for the first).
package enumres

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/Alia5/metagen/metaobject"
)

// MaxEnumerators is the hard limit of enumerators per enum.
const MaxEnumerators = 16

var (
	ErrTooManyEnumerators = errors.New("too many enumerators")
	ErrScopedEnum         = errors.New("scoped enums are not supported")
	ErrEnumCycle          = errors.New("enumerator initializers form a cycle")
	ErrUnknownEnumerator  = errors.New("unknown enumerator")
	ErrDuplicateName      = errors.New("duplicate enumerator")
	ErrBadValue           = errors.New("invalid enumerator value")
	ErrEmptyEnum          = errors.New("enum declares no enumerators")
)

// Expr is an enumerator initializer.
type Expr interface {
	// References lists the sibling names the expression reads.
	References() []string
	// Eval computes the value given the resolved siblings.
	Eval(env map[string]int64) (int64, error)
	String() string
}

// Enumerator is one (name, initializer) pair. Expr is nil for an implicit value.
type Enumerator struct {
	Name string
	Expr Expr
	Pos  string
}

// Enum is an enum declaration awaiting resolution.
type Enum struct {
	Name        string
	Scoped      bool
	Enumerators []Enumerator
	Pos         string
}

// Resolve evaluates every enumerator of e and returns the values in
// declaration order.
func Resolve(e Enum) ([]metaobject.EnumValue, error) {
	if e.Scoped {
		return nil, fmt.Errorf("%s: enum %s: %w", e.Pos, e.Name, ErrScopedEnum)
	}
	if len(e.Enumerators) == 0 {
		return nil, fmt.Errorf("%s: enum %s: %w", e.Pos, e.Name, ErrEmptyEnum)
	}
	if len(e.Enumerators) > MaxEnumerators {
		return nil, fmt.Errorf("%s: enum %s declares %d enumerators, the limit is %d: %w",
			e.Pos, e.Name, len(e.Enumerators), MaxEnumerators, ErrTooManyEnumerators)
	}

	byName := make(map[string]int, len(e.Enumerators))
	for i, en := range e.Enumerators {
		if j, ok := byName[en.Name]; ok {
			return nil, fmt.Errorf("%s: enum %s: %w %q (first declared at %s)",
				en.Pos, e.Name, ErrDuplicateName, en.Name, e.Enumerators[j].Pos)
		}
		byName[en.Name] = i
	}

	g := simple.NewDirectedGraph()
	for i := range e.Enumerators {
		g.AddNode(simple.Node(i))
	}
	for i, en := range e.Enumerators {
		for _, dep := range dependencies(e.Enumerators, i) {
			j, ok := byName[dep]
			if !ok {
				return nil, fmt.Errorf("%s: enum %s: enumerator %s references %q: %w",
					en.Pos, e.Name, en.Name, dep, ErrUnknownEnumerator)
			}
			if j == i {
				return nil, fmt.Errorf("%s: enum %s: enumerator %s references itself: %w",
					en.Pos, e.Name, en.Name, ErrEnumCycle)
			}
			g.SetEdge(g.NewEdge(simple.Node(j), simple.Node(i)))
		}
	}

	order, err := topo.SortStabilized(g, byID)
	if err != nil {
		var cycles topo.Unorderable
		if errors.As(err, &cycles) {
			return nil, fmt.Errorf("%s: enum %s: %w: %s", e.Pos, e.Name, ErrEnumCycle, describeCycles(e.Enumerators, cycles))
		}
		return nil, fmt.Errorf("%s: enum %s: %w", e.Pos, e.Name, err)
	}

	env := make(map[string]int64, len(e.Enumerators))
	for _, n := range order {
		i := int(n.ID())
		en := e.Enumerators[i]
		v, err := evaluate(e.Enumerators, i, env)
		if err != nil {
			return nil, fmt.Errorf("%s: enum %s: enumerator %s: %w", en.Pos, e.Name, en.Name, err)
		}
		if v < math.MinInt32 || v > math.MaxUint32 {
			return nil, fmt.Errorf("%s: enum %s: enumerator %s: %w: %d does not fit in 32 bits",
				en.Pos, e.Name, en.Name, ErrBadValue, v)
		}
		env[en.Name] = v
	}

	out := make([]metaobject.EnumValue, len(e.Enumerators))
	for i, en := range e.Enumerators {
		out[i] = metaobject.EnumValue{Name: en.Name, Value: int32(uint32(env[en.Name]))}
	}
	return out, nil
}

func dependencies(ens []Enumerator, i int) []string {
	if ens[i].Expr != nil {
		return ens[i].Expr.References()
	}
	if i == 0 {
		return nil
	}
	return []string{ens[i-1].Name}
}

func evaluate(ens []Enumerator, i int, env map[string]int64) (int64, error) {
	if ens[i].Expr != nil {
		return ens[i].Expr.Eval(env)
	}
	if i == 0 {
		return 0, nil
	}
	return env[ens[i-1].Name] + 1, nil
}

func byID(nodes []graph.Node) {
	sort.Slice(nodes, func(a, b int) bool { return nodes[a].ID() < nodes[b].ID() })
}

func describeCycles(ens []Enumerator, cycles topo.Unorderable) string {
	var parts []string
	for _, component := range cycles {
		names := make([]string, 0, len(component))
		for _, n := range component {
			names = append(names, ens[n.ID()].Name)
		}
		sort.Strings(names)
		parts = append(parts, strings.Join(names, " <-> "))
	}
	sort.Strings(parts)
	return strings.Join(parts, "; ")
}
