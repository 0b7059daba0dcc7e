package enumres_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alia5/metagen/internal/enumres"
)

func goEnum(t *testing.T, name string, pairs ...string) enumres.Enum {
	t.Helper()
	e := enumres.Enum{Name: name, Pos: "test"}
	for i := 0; i < len(pairs); i += 2 {
		en := enumres.Enumerator{Name: pairs[i], Pos: fmt.Sprintf("test:%d", i/2+1)}
		if pairs[i+1] != "" {
			expr, err := enumres.ParseGoExpr(pairs[i+1])
			require.NoError(t, err)
			en.Expr = expr
		}
		e.Enumerators = append(e.Enumerators, en)
	}
	return e
}

func values(t *testing.T, e enumres.Enum) []int32 {
	t.Helper()
	resolved, err := enumres.Resolve(e)
	require.NoError(t, err)
	out := make([]int32, len(resolved))
	for i, v := range resolved {
		assert.Equal(t, e.Enumerators[i].Name, v.Name, "declaration order must be kept")
		out[i] = v.Value
	}
	return out
}

func TestResolveTutorialEnum(t *testing.T) {
	e := goEnum(t, "MyEnum",
		"Blue", "",
		"Red", "",
		"Green", "",
		"Yellow", "45",
		"Violet", "Blue + Green*3",
	)
	assert.Equal(t, []int32{0, 1, 2, 45, 6}, values(t, e))
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name  string
		pairs []string
		want  []int32
	}{
		{
			name:  "implicit values continue after explicit",
			pairs: []string{"A", "", "B", "10", "C", "", "D", ""},
			want:  []int32{0, 10, 11, 12},
		},
		{
			name:  "forward reference",
			pairs: []string{"Both", "Left | Right", "Left", "0x1", "Right", "1 << 1"},
			want:  []int32{3, 1, 2},
		},
		{
			name:  "implicit after forward reference",
			pairs: []string{"A", "C - 1", "B", "", "C", "7"},
			want:  []int32{6, 7, 7},
		},
		{
			name:  "negative and complement",
			pairs: []string{"Neg", "-5", "Mask", "~0", "Hex", "0xFFu"},
			want:  []int32{-5, -1, 255},
		},
		{
			name:  "integer division and modulo",
			pairs: []string{"Q", "7 / 2", "R", "7 % 4"},
			want:  []int32{3, 3},
		},
		{
			name:  "unsigned 32-bit pattern",
			pairs: []string{"High", "0x80000000"},
			want:  []int32{-2147483648},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, values(t, goEnum(t, "E", tt.pairs...)))
		})
	}
}

func TestResolveErrors(t *testing.T) {
	seventeen := make([]string, 0, 34)
	for i := 0; i < 17; i++ {
		seventeen = append(seventeen, fmt.Sprintf("V%d", i), "")
	}

	tests := []struct {
		name string
		enum enumres.Enum
		want error
	}{
		{name: "seventeen enumerators", enum: goEnum(t, "Big", seventeen...), want: enumres.ErrTooManyEnumerators},
		{name: "cycle", enum: goEnum(t, "C", "A", "B + 1", "B", "A + 1"), want: enumres.ErrEnumCycle},
		{name: "self reference", enum: goEnum(t, "S", "A", "A + 1"), want: enumres.ErrEnumCycle},
		{name: "unknown sibling", enum: goEnum(t, "U", "A", "Missing"), want: enumres.ErrUnknownEnumerator},
		{name: "duplicate name", enum: goEnum(t, "D", "A", "", "A", ""), want: enumres.ErrDuplicateName},
		{name: "division by zero", enum: goEnum(t, "Z", "A", "1 / 0"), want: enumres.ErrBadValue},
		{name: "out of range", enum: goEnum(t, "R", "A", "1 << 40"), want: enumres.ErrBadValue},
		{name: "empty", enum: enumres.Enum{Name: "Empty"}, want: enumres.ErrEmptyEnum},
		{name: "scoped", enum: enumres.Enum{Name: "Scoped", Scoped: true, Enumerators: []enumres.Enumerator{{Name: "A"}}}, want: enumres.ErrScopedEnum},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := enumres.Resolve(tt.enum)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestSixteenEnumeratorsAllowed(t *testing.T) {
	pairs := make([]string, 0, 32)
	for i := 0; i < enumres.MaxEnumerators; i++ {
		pairs = append(pairs, fmt.Sprintf("V%d", i), "")
	}
	got := values(t, goEnum(t, "Sixteen", pairs...))
	assert.Len(t, got, 16)
	assert.Equal(t, int32(15), got[15])
}

func TestParseGoExprRejectsCalls(t *testing.T) {
	_, err := enumres.ParseGoExpr("len(x)")
	assert.ErrorIs(t, err, enumres.ErrBadValue)

	_, err = enumres.ParseGoExpr("   ")
	assert.ErrorIs(t, err, enumres.ErrBadValue)
}

func TestHCLExpressions(t *testing.T) {
	mk := func(name, src string) enumres.Enumerator {
		en := enumres.Enumerator{Name: name}
		if src != "" {
			expr, err := enumres.ParseHCLExpr(src)
			require.NoError(t, err)
			en.Expr = expr
		}
		return en
	}

	e := enumres.Enum{Name: "MyEnum", Enumerators: []enumres.Enumerator{
		mk("Blue", ""),
		mk("Red", ""),
		mk("Green", ""),
		mk("Yellow", "45"),
		mk("Violet", "Blue + Green * 3"),
		mk("Mask", "bor(shl(1, 4), Red)"),
	}}
	assert.Equal(t, []int32{0, 1, 2, 45, 6, 17}, values(t, e))

	expr, err := enumres.ParseHCLExpr("Red + Blue * Red")
	require.NoError(t, err)
	assert.Equal(t, []string{"Blue", "Red"}, expr.References())

	frac := enumres.Enum{Name: "F", Enumerators: []enumres.Enumerator{mk("Half", "1 / 2")}}
	_, err = enumres.Resolve(frac)
	assert.ErrorIs(t, err, enumres.ErrBadValue)
}
