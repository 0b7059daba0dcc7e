package builder_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alia5/metagen/internal/builder"
	"github.com/Alia5/metagen/internal/collector"
	"github.com/Alia5/metagen/internal/enumres"
	"github.com/Alia5/metagen/metaobject"
)

func collect(t *testing.T, class collector.ClassRequest, reqs ...collector.Request) *collector.ClassDecls {
	t.Helper()
	c := collector.New()
	require.NoError(t, c.DeclareClass(class))
	for _, r := range reqs {
		r.Class = class.Name
		require.NoError(t, c.Add(r))
	}
	decls, err := c.Finalize()
	require.NoError(t, err)
	require.Len(t, decls, 1)
	return decls[0]
}

func private() *metaobject.Access {
	a := metaobject.AccessPrivate
	return &a
}

func TestBuildIndicesFollowDeclarationOrder(t *testing.T) {
	decls := collect(t, collector.ClassRequest{Name: "Tutorial", SuperClass: "QObject"},
		collector.Request{Category: metaobject.CategorySlot, Name: "zeta"},
		collector.Request{Category: metaobject.CategorySignal, Name: "changed", Params: "(int)", Explicit: true},
		collector.Request{Category: metaobject.CategorySlot, Name: "alpha"},
		collector.Request{Category: metaobject.CategoryInvokable, Name: "mid"},
		collector.Request{Category: metaobject.CategorySlot, Name: "beta"},
	)

	cd, err := builder.Build(decls, nil)
	require.NoError(t, err)

	names := func(ms []metaobject.MethodDescriptor) []string {
		var out []string
		for i, m := range ms {
			assert.Equal(t, i, m.Index)
			out = append(out, m.Name)
		}
		return out
	}
	assert.Equal(t, []string{"zeta", "alpha", "beta"}, names(cd.Slots))
	assert.Equal(t, []string{"changed"}, names(cd.Signals))
	assert.Equal(t, []string{"mid"}, names(cd.Methods))
	assert.Equal(t, "QObject", cd.SuperClass)
	assert.Equal(t, 5, cd.MethodCount())
}

func TestBuildAccessAndFlags(t *testing.T) {
	decls := collect(t, collector.ClassRequest{Name: "C"},
		collector.Request{Category: metaobject.CategorySlot, Name: "plain"},
		collector.Request{Category: metaobject.CategorySlot, Name: "old",
			Modifiers: collector.Modifiers{Access: private(), Compat: true, Scriptable: true}},
		collector.Request{Category: metaobject.CategorySignal, Name: "sig", Params: "(int a = 0)", Explicit: true},
	)

	cd, err := builder.Build(decls, nil)
	require.NoError(t, err)

	assert.Equal(t, metaobject.AccessPublic, cd.Slots[0].Access)
	assert.Equal(t, metaobject.MethodFlags(0), cd.Slots[0].Flags)
	assert.Equal(t, "void", cd.Slots[0].ReturnType)

	old := cd.Slots[1]
	assert.Equal(t, metaobject.AccessPrivate, old.Access)
	assert.True(t, old.Flags.Has(metaobject.FlagCompat|metaobject.FlagScriptable))
	assert.False(t, old.Flags.Has(metaobject.FlagCloned))

	require.Len(t, cd.Signals, 2)
	assert.Equal(t, "sig(int)", cd.Signals[0].Signature())
	assert.Equal(t, "sig()", cd.Signals[1].Signature())
	assert.True(t, cd.Signals[1].Flags.Has(metaobject.FlagCloned))
	assert.Equal(t, 1, cd.Signals[1].Index)
	for _, s := range cd.Signals {
		assert.True(t, s.IsSignal())
		assert.Equal(t, metaobject.AccessPublic, s.Access)
	}
}

func TestBuildAmbiguousOverload(t *testing.T) {
	tests := []struct {
		name string
		reqs []collector.Request
	}{
		{
			name: "identical slots",
			reqs: []collector.Request{
				{Category: metaobject.CategorySlot, Name: "f", Params: "(int)", Explicit: true, Pos: "c.go:3"},
				{Category: metaobject.CategorySlot, Name: "f", Params: "(const int &)", Explicit: true, Pos: "c.go:9"},
			},
		},
		{
			name: "slot and invokable",
			reqs: []collector.Request{
				{Category: metaobject.CategorySlot, Name: "f", Params: "()", Explicit: true, Pos: "c.go:3"},
				{Category: metaobject.CategoryInvokable, Name: "f", Params: "()", Explicit: true, Pos: "c.go:9"},
			},
		},
		{
			name: "clone collides with explicit overload",
			reqs: []collector.Request{
				{Category: metaobject.CategorySlot, Name: "f", Params: "(int, int = 0)", Explicit: true, Pos: "c.go:3"},
				{Category: metaobject.CategorySlot, Name: "f", Params: "(int)", Explicit: true, Pos: "c.go:9"},
			},
		},
		{
			name: "constructors",
			reqs: []collector.Request{
				{Category: metaobject.CategoryConstructor, Params: "(int)", Explicit: true, Pos: "c.go:3"},
				{Category: metaobject.CategoryConstructor, Params: "(int x)", Explicit: true, Pos: "c.go:9"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decls := collect(t, collector.ClassRequest{Name: "C"}, tt.reqs...)
			_, err := builder.Build(decls, nil)
			require.ErrorIs(t, err, builder.ErrAmbiguousOverload)
			assert.Contains(t, err.Error(), "c.go:3")
			assert.Contains(t, err.Error(), "c.go:9")
		})
	}
}

func TestBuildSignalOnGadget(t *testing.T) {
	decls := collect(t, collector.ClassRequest{Name: "G", Kind: metaobject.KindGadget},
		collector.Request{Category: metaobject.CategorySignal, Name: "changed"},
	)
	_, err := builder.Build(decls, nil)
	assert.ErrorIs(t, err, builder.ErrSignalOnGadget)
}

func TestBuildConstructors(t *testing.T) {
	decls := collect(t, collector.ClassRequest{Name: "InvokableTutorial", Kind: metaobject.KindGadget},
		collector.Request{Category: metaobject.CategoryConstructor, Params: "(int, int)", Explicit: true},
		collector.Request{Category: metaobject.CategoryConstructor, Params: "(void*, void* = nullptr)", Explicit: true},
	)

	cd, err := builder.Build(decls, nil)
	require.NoError(t, err)

	want := []metaobject.ConstructorDescriptor{
		{Params: []metaobject.Param{{Type: "int"}, {Type: "int"}}, Index: 0},
		{Params: []metaobject.Param{{Type: "void*"}, {Type: "void*"}}, Index: 1},
		{Params: []metaobject.Param{{Type: "void*"}}, Index: 2, Cloned: true},
	}
	if diff := cmp.Diff(want, cd.Constructors); diff != "" {
		t.Errorf("constructors mismatch (-want +got):\n%s", diff)
	}
}

func TestResolveAndBuildEnums(t *testing.T) {
	expr := func(s string) enumres.Expr {
		e, err := enumres.ParseGoExpr(s)
		require.NoError(t, err)
		return e
	}
	decls := collect(t, collector.ClassRequest{Name: "C"},
		collector.Request{Category: metaobject.CategoryEnum, Name: "MyEnum", Enumerators: []enumres.Enumerator{
			{Name: "Blue"}, {Name: "Red"}, {Name: "Green"},
			{Name: "Yellow", Expr: expr("45")},
			{Name: "Violet", Expr: expr("Blue + Green*3")},
		}},
		collector.Request{Category: metaobject.CategoryEnum, Name: "Options",
			Modifiers:   collector.Modifiers{Flag: true, Alias: "Option"},
			Enumerators: []enumres.Enumerator{{Name: "A", Expr: expr("1")}, {Name: "B", Expr: expr("A << 1")}},
		},
	)

	enums, err := builder.ResolveEnums(decls)
	require.NoError(t, err)
	cd, err := builder.Build(decls, enums)
	require.NoError(t, err)

	want := []metaobject.EnumDescriptor{
		{Name: "MyEnum", Values: []metaobject.EnumValue{
			{Name: "Blue", Value: 0}, {Name: "Red", Value: 1}, {Name: "Green", Value: 2},
			{Name: "Yellow", Value: 45}, {Name: "Violet", Value: 6},
		}},
		{Name: "Options", Alias: "Option", IsFlag: true, Values: []metaobject.EnumValue{
			{Name: "A", Value: 1}, {Name: "B", Value: 2},
		}},
	}
	if diff := cmp.Diff(want, cd.Enums); diff != "" {
		t.Errorf("enums mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildDuplicateEnum(t *testing.T) {
	decls := collect(t, collector.ClassRequest{Name: "C"})
	enums := []metaobject.EnumDescriptor{
		{Name: "E", Values: []metaobject.EnumValue{{Name: "A"}}},
		{Name: "E", Values: []metaobject.EnumValue{{Name: "B"}}},
	}
	_, err := builder.Build(decls, enums)
	assert.ErrorIs(t, err, builder.ErrAmbiguousOverload)
}

func TestBuildEmptyClass(t *testing.T) {
	decls := collect(t, collector.ClassRequest{Name: "Empty", SuperClass: "QObject"})
	cd, err := builder.Build(decls, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, cd.MethodCount())
	assert.Empty(t, cd.Constructors)
	assert.Empty(t, cd.Enums)
}
