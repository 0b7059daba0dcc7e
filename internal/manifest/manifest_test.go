package manifest

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alia5/metagen/internal/builder"
	"github.com/Alia5/metagen/internal/collector"
	"github.com/Alia5/metagen/internal/enumres"
	"github.com/Alia5/metagen/metaobject"
)

func declare(t *testing.T, src string) ([]*collector.ClassDecls, error) {
	t.Helper()
	m := New(nil)
	require.NoError(t, m.AddSource("input.hcl", []byte(src)))
	c := collector.New()
	if err := m.Declare(c); err != nil {
		return nil, err
	}
	return c.Finalize()
}

func loadTestdata(t *testing.T) map[string]*collector.ClassDecls {
	t.Helper()
	m := New(nil)
	require.NoError(t, m.AddDir("testdata"))
	assert.Equal(t, 2, m.Files())

	c := collector.New()
	require.NoError(t, m.Declare(c))
	decls, err := c.Finalize()
	require.NoError(t, err)

	out := make(map[string]*collector.ClassDecls)
	for _, d := range decls {
		out[d.Name] = d
	}
	return out
}

func TestTutorialManifest(t *testing.T) {
	decls := loadTestdata(t)
	require.Len(t, decls, 6)

	obj := decls["MyObject"]
	require.NotNil(t, obj)
	assert.Equal(t, "QObject", obj.SuperClass)
	want := []collector.Member{
		{Category: metaobject.CategorySignal, Name: "mySignal", Params: []metaobject.Param{{Type: "QString", Name: "name"}}, ReturnType: "void"},
		{Category: metaobject.CategorySlot, Name: "mySlot", Params: []metaobject.Param{{Type: "QString", Name: "name"}}, ReturnType: "void"},
	}
	if diff := cmp.Diff(want, obj.Members, cmpopts.IgnoreFields(collector.Member{}, "Pos")); diff != "" {
		t.Errorf("members mismatch (-want +got):\n%s", diff)
	}
	assert.Contains(t, obj.Members[0].Pos, "tutorial.hcl")

	slots := decls["SlotTutorial"].ByCategory(metaobject.CategorySlot)
	require.Len(t, slots, 6)
	require.NotNil(t, slots[2].Access)
	assert.Equal(t, metaobject.AccessPrivate, *slots[2].Access)
	assert.Nil(t, slots[1].Access)

	gadget := decls["InvokableTutorial"]
	assert.Equal(t, metaobject.KindGadget, gadget.Kind)
	ctors := gadget.ByCategory(metaobject.CategoryConstructor)
	require.Len(t, ctors, 3)
	assert.True(t, ctors[2].Cloned)
	assert.Equal(t, "InvokableTutorial", ctors[2].Name)
}

func TestEnumExpressions(t *testing.T) {
	decls := loadTestdata(t)

	enums, err := builder.ResolveEnums(decls["EnumTutorial"])
	require.NoError(t, err)
	require.Len(t, enums, 1)
	var got []int32
	for _, v := range enums[0].Values {
		got = append(got, v.Value)
	}
	assert.Equal(t, []int32{0, 1, 2, 45, 6}, got)
	assert.Equal(t, "Blue + Green * 3", decls["EnumTutorial"].Enums[0].Enumerators[4].Expr.String())
}

func TestJSONManifest(t *testing.T) {
	d := loadTestdata(t)["Settings"]
	require.NotNil(t, d)
	assert.Equal(t, metaobject.KindGadget, d.Kind)
	assert.Equal(t, []metaobject.ClassInfo{{Name: "Author", Value: "Jane Doe"}}, d.ClassInfo)

	enums, err := builder.ResolveEnums(d)
	require.NoError(t, err)
	require.Len(t, enums, 1)
	assert.Equal(t, metaobject.EnumDescriptor{
		Name:   "Option",
		Alias:  "Options",
		IsFlag: true,
		Values: []metaobject.EnumValue{{Name: "None", Value: 0}, {Name: "A", Value: 1}, {Name: "B", Value: 2}, {Name: "All", Value: 3}},
	}, enums[0])

	inv := d.ByCategory(metaobject.CategoryInvokable)
	require.Len(t, inv, 1)
	assert.Equal(t, "bool", inv[0].ReturnType)
	assert.True(t, inv[0].Scriptable)
}

func TestManifestErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want error
	}{
		{
			name: "unknown top-level block",
			src:  `widget "W" {}`,
			want: ErrInvalidManifest,
		},
		{
			name: "unknown member attribute",
			src: `object "O" {
  slot "s" { virtual = true }
}`,
			want: ErrInvalidManifest,
		},
		{
			name: "bad access",
			src: `object "O" {
  slot "s" { access = "friend" }
}`,
			want: ErrInvalidManifest,
		},
		{
			name: "classinfo without value",
			src: `object "O" {
  classinfo "Author" {}
}`,
			want: ErrInvalidManifest,
		},
		{
			name: "private signal",
			src: `object "O" {
  signal "s" { access = "private" }
}`,
			want: collector.ErrInvalidModifier,
		},
		{
			name: "scriptable signal",
			src: `object "O" {
  signal "s" { scriptable = true }
}`,
			want: collector.ErrInvalidModifier,
		},
		{
			name: "constructor with return type",
			src: `gadget "G" {
  constructor { returns = "int" }
}`,
			want: collector.ErrInvalidModifier,
		},
		{
			name: "ambiguous overload",
			src: `object "O" {
  slot "s" { params = "(int)" }
  slot "s" {}
}`,
			want: collector.ErrMissingDisambiguation,
		},
		{
			name: "conflicting class",
			src: `object "O" { super = "A" }
object "O" { super = "B" }`,
			want: collector.ErrConflictingClass,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := declare(t, tt.src)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestScopedEnumRejectedOnResolve(t *testing.T) {
	decls, err := declare(t, `gadget "G" {
  enum "E" {
    scoped = true
    enumerator "A" {}
  }
}`)
	require.NoError(t, err)
	_, err = builder.ResolveEnums(decls[0])
	assert.ErrorIs(t, err, enumres.ErrScopedEnum)
}

func TestAddSourceSyntaxError(t *testing.T) {
	m := New(nil)
	assert.Error(t, m.AddSource("broken.hcl", []byte(`object "O" {`)))
	assert.Error(t, m.AddSource("broken.hcl.json", []byte(`{"object": `)))
	assert.Error(t, m.AddDir(filepath.Join("testdata", "missing")))
	assert.Equal(t, 0, m.Files())
}
