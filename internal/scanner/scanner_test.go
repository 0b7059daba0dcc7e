package scanner

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alia5/metagen/internal/builder"
	"github.com/Alia5/metagen/internal/collector"
	"github.com/Alia5/metagen/metaobject"
)

var ignorePos = cmpopts.IgnoreFields(collector.Member{}, "Pos")

func access(a metaobject.Access) *metaobject.Access { return &a }

func declare(t *testing.T, src string) ([]*collector.ClassDecls, error) {
	t.Helper()
	s := New(nil)
	require.NoError(t, s.AddSource("input.go", []byte(src)))
	c := collector.New()
	if err := s.Declare(c); err != nil {
		return nil, err
	}
	return c.Finalize()
}

func scanTutorial(t *testing.T) map[string]*collector.ClassDecls {
	t.Helper()
	s := New(nil)
	require.NoError(t, s.AddDir(filepath.Join("testdata", "tutorial")))
	assert.Equal(t, 1, s.Files())

	c := collector.New()
	require.NoError(t, s.Declare(c))
	decls, err := c.Finalize()
	require.NoError(t, err)

	var names []string
	byName := make(map[string]*collector.ClassDecls)
	for _, d := range decls {
		names = append(names, d.Name)
		byName[d.Name] = d
	}
	assert.Equal(t, []string{"MyObject", "SlotTutorial", "SignalTutorial", "InvokableTutorial", "EnumTutorial"}, names)
	return byName
}

func TestScanTutorialIntroduction(t *testing.T) {
	d := scanTutorial(t)["MyObject"]
	require.NotNil(t, d)
	assert.Equal(t, "QObject", d.SuperClass)
	assert.Equal(t, metaobject.KindObject, d.Kind)

	want := []collector.Member{
		{Category: metaobject.CategorySignal, Name: "mySignal", Params: []metaobject.Param{{Type: "QString", Name: "name"}}, ReturnType: "void"},
		{Category: metaobject.CategorySlot, Name: "mySlot", Params: []metaobject.Param{{Type: "QString", Name: "name"}}, ReturnType: "void"},
	}
	if diff := cmp.Diff(want, d.Members, ignorePos); diff != "" {
		t.Errorf("members mismatch (-want +got):\n%s", diff)
	}
}

func TestScanTutorialSlots(t *testing.T) {
	d := scanTutorial(t)["SlotTutorial"]
	require.NotNil(t, d)

	slot := func(name string, a *metaobject.Access, params ...metaobject.Param) collector.Member {
		return collector.Member{Category: metaobject.CategorySlot, Name: name, Params: params, ReturnType: "void", Access: a}
	}
	want := []collector.Member{
		slot("overload", nil),
		slot("overload", nil, metaobject.Param{Type: "int"}),
		slot("overload", access(metaobject.AccessPrivate), metaobject.Param{Type: "double"}),
		slot("overload", access(metaobject.AccessPrivate), metaobject.Param{Type: "int"}, metaobject.Param{Type: "int"}),
		slot("protectedSlot", access(metaobject.AccessProtected)),
		slot("privateSlot", access(metaobject.AccessPrivate)),
	}
	if diff := cmp.Diff(want, d.Members, ignorePos, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("members mismatch (-want +got):\n%s", diff)
	}
}

func TestScanTutorialSignals(t *testing.T) {
	d := scanTutorial(t)["SignalTutorial"]
	require.NotNil(t, d)

	var sigs []string
	for _, m := range d.ByCategory(metaobject.CategorySignal) {
		sigs = append(sigs, metaobject.Signature(m.Name, m.Params))
		assert.Equal(t, []string{"a", "b"}, []string{m.Params[0].Name, m.Params[1].Name})
	}
	assert.Equal(t, []string{"sig1(int,int)", "sig2(int,int)", "overload(int,int)"}, sigs)
}

func TestScanTutorialGadget(t *testing.T) {
	d := scanTutorial(t)["InvokableTutorial"]
	require.NotNil(t, d)
	assert.Equal(t, metaobject.KindGadget, d.Kind)
	assert.Empty(t, d.SuperClass)

	ctor := func(cloned bool, types ...string) collector.Member {
		m := collector.Member{Category: metaobject.CategoryConstructor, Name: "InvokableTutorial", Cloned: cloned}
		for _, typ := range types {
			m.Params = append(m.Params, metaobject.Param{Type: typ})
		}
		return m
	}
	want := []collector.Member{
		ctor(false, "int", "int"),
		ctor(false, "void*", "void*"),
		ctor(true, "void*"),
		{Category: metaobject.CategoryInvokable, Name: "myInvokable", ReturnType: "void"},
	}
	if diff := cmp.Diff(want, d.Members, ignorePos, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("members mismatch (-want +got):\n%s", diff)
	}
}

func TestScanTutorialEnumFromConstBlock(t *testing.T) {
	d := scanTutorial(t)["EnumTutorial"]
	require.NotNil(t, d)

	enums, err := builder.ResolveEnums(d)
	require.NoError(t, err)
	require.Len(t, enums, 1)

	want := metaobject.EnumDescriptor{
		Name: "MyEnum",
		Values: []metaobject.EnumValue{
			{Name: "Blue", Value: 0},
			{Name: "Red", Value: 1},
			{Name: "Green", Value: 2},
			{Name: "Yellow", Value: 45},
			{Name: "Violet", Value: 6},
		},
	}
	assert.Equal(t, want, enums[0])
}

func TestInferredSignature(t *testing.T) {
	decls, err := declare(t, `package p

//meta:object Thing
type Thing struct{}

//meta:invokable
func (t *Thing) Compute(a int64, names []string, opts map[string]any, _ *Thing) float64 { return 0 }

//meta:slot setData ret=bool scriptable compat
func (t *Thing) SetData(data []byte) {}
`)
	require.NoError(t, err)
	require.Len(t, decls, 1)

	want := []collector.Member{
		{
			Category: metaobject.CategorySlot, Name: "setData",
			Params:     []metaobject.Param{{Type: "QByteArray", Name: "data"}},
			ReturnType: "bool", Compat: true, Scriptable: true,
		},
		{
			Category: metaobject.CategoryInvokable, Name: "compute",
			Params: []metaobject.Param{
				{Type: "qlonglong", Name: "a"},
				{Type: "QStringList", Name: "names"},
				{Type: "QVariantMap", Name: "opts"},
				{Type: "Thing*"},
			},
			ReturnType: "double",
		},
	}
	got := append(decls[0].ByCategory(metaobject.CategorySlot), decls[0].ByCategory(metaobject.CategoryInvokable)...)
	if diff := cmp.Diff(want, got, ignorePos); diff != "" {
		t.Errorf("members mismatch (-want +got):\n%s", diff)
	}
}

func TestClassInfoAndFlags(t *testing.T) {
	decls, err := declare(t, `package p

//meta:gadget Settings
//meta:classinfo Author "Jane Doe"
//meta:classinfo Version 2
//meta:flag Option {None = 0, A = 1 << 0, B = 1 << 1, All = A | B} alias=Options
type settings struct{}
`)
	require.NoError(t, err)
	require.Len(t, decls, 1)
	d := decls[0]
	assert.Equal(t, "Settings", d.Name)
	assert.Equal(t, []metaobject.ClassInfo{{Name: "Author", Value: "Jane Doe"}, {Name: "Version", Value: "2"}}, d.ClassInfo)

	enums, err := builder.ResolveEnums(d)
	require.NoError(t, err)
	require.Len(t, enums, 1)
	assert.True(t, enums[0].IsFlag)
	assert.Equal(t, "Options", enums[0].Alias)
	assert.Equal(t, int32(3), enums[0].Values[3].Value)
}

func TestDeclareErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want error
	}{
		{
			name: "method on unannotated type",
			src:  "package p\ntype T struct{}\n//meta:slot\nfunc (T) F() {}\n",
			want: ErrUnannotatedReceiver,
		},
		{
			name: "unknown directive",
			src:  "package p\n//meta:object T\n//meta:property x\ntype T struct{}\n",
			want: ErrUnknownDirective,
		},
		{
			name: "member on plain function",
			src:  "package p\n//meta:object T\ntype T struct{}\n//meta:slot\nfunc F() {}\n",
			want: ErrUnannotatedReceiver,
		},
		{
			name: "member on var",
			src:  "package p\n//meta:slot f\nvar x int\n",
			want: ErrBadDirective,
		},
		{
			name: "unknown modifier",
			src:  "package p\n//meta:object T\n//meta:slot f() virtual\ntype T struct{}\n",
			want: ErrBadDirective,
		},
		{
			name: "variadic method",
			src:  "package p\n//meta:object T\ntype T struct{}\n//meta:slot\nfunc (T) F(xs ...int) {}\n",
			want: ErrUnsupportedGoType,
		},
		{
			name: "multiple results",
			src:  "package p\n//meta:object T\ntype T struct{}\n//meta:invokable\nfunc (T) F() (int, error) { return 0, nil }\n",
			want: ErrUnsupportedGoType,
		},
		{
			name: "channel parameter",
			src:  "package p\n//meta:object T\ntype T struct{}\n//meta:slot\nfunc (T) F(c chan int) {}\n",
			want: ErrUnsupportedGoType,
		},
		{
			name: "enum without const block",
			src:  "package p\n//meta:gadget T\n//meta:enum Missing\ntype T struct{}\n",
			want: ErrUnknownEnumType,
		},
		{
			name: "unbalanced group",
			src:  "package p\n//meta:object T\n//meta:slot f(int\ntype T struct{}\n",
			want: ErrBadDirective,
		},
		{
			name: "private signal",
			src:  "package p\n//meta:object T\n//meta:signal s() private\ntype T struct{}\n",
			want: collector.ErrInvalidModifier,
		},
		{
			name: "named constructor",
			src:  "package p\n//meta:gadget T\n//meta:constructor make(int)\ntype T struct{}\n",
			want: ErrBadDirective,
		},
		{
			name: "class directive on method",
			src:  "package p\n//meta:object T\ntype T struct{}\n//meta:object\nfunc (T) F() {}\n",
			want: ErrBadDirective,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := declare(t, tt.src)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestInferredOverloadNeedsDisambiguation(t *testing.T) {
	_, err := declare(t, `package p

//meta:object T
type T struct{}

//meta:slot update
func (T) UpdateInt(v int) {}

//meta:slot update
func (T) UpdateString(v string) {}
`)
	assert.ErrorIs(t, err, collector.ErrMissingDisambiguation)
}

func TestScanSignalsFeedBuilder(t *testing.T) {
	d := scanTutorial(t)["SlotTutorial"]
	cd, err := builder.Build(d, nil)
	require.NoError(t, err)
	require.Len(t, cd.Slots, 6)
	assert.Equal(t, "overload(int,int)", cd.Slots[3].Signature())
	assert.Equal(t, metaobject.AccessPrivate, cd.Slots[3].Access)
	assert.Equal(t, metaobject.AccessPublic, cd.Slots[0].Access)
}

func TestUnrelatedConstBlocksAreIgnored(t *testing.T) {
	decls, err := declare(t, `package p

type Dur int64

const (
	Second Dur = Dur(1000)
	Minute     = 60 * Second
)

//meta:object T
type T struct{}

//meta:slot
func (t *T) F() {}
`)
	require.NoError(t, err)
	require.Len(t, decls, 1)
	assert.Equal(t, "T", decls[0].Name)
	require.Len(t, decls[0].Members, 1)
	assert.Equal(t, "f", decls[0].Members[0].Name)
}

func TestEnumFromConstBlockWithUnsupportedInitializer(t *testing.T) {
	_, err := declare(t, `package p

type Dur int64

const (
	Second Dur = Dur(1000)
	Minute     = 60 * Second
)

//meta:gadget T
//meta:enum Dur
type T struct{}
`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "const Second")
}
