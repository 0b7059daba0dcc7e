package metaobject_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alia5/metagen/metaobject"
)

func record(name, super string, kind metaobject.Kind) *metaobject.MetaObject {
	return &metaobject.MetaObject{
		ClassName:  name,
		SuperClass: super,
		Kind:       kind,
		Layout:     metaobject.DefaultLayout,
		StringData: []byte(name),
		Data:       make([]uint32, metaobject.HeaderFieldCount+1),
	}
}

func TestRegisterIsIdempotent(t *testing.T) {
	r := metaobject.NewRegistry()
	mo := record("MyObject", "QObject", metaobject.KindObject)

	require.NoError(t, r.Register(mo))
	before := r.Classes()

	require.NoError(t, r.Register(mo))
	require.NoError(t, r.Register(record("MyObject", "QObject", metaobject.KindObject)), "an equal copy is accepted")

	assert.Equal(t, before, r.Classes())
	assert.Equal(t, 1, r.Len())
	got, ok := r.Lookup("MyObject")
	require.True(t, ok)
	assert.Same(t, mo, got)
}

func TestRegisterConflict(t *testing.T) {
	r := metaobject.NewRegistry()
	require.NoError(t, r.Register(record("A", "QObject", metaobject.KindObject)))

	tests := []struct {
		name string
		mo   *metaobject.MetaObject
	}{
		{"different superclass", record("A", "QWidget", metaobject.KindObject)},
		{"different kind", record("A", "QObject", metaobject.KindGadget)},
		{"different layout", func() *metaobject.MetaObject {
			mo := record("A", "QObject", metaobject.KindObject)
			mo.Layout = metaobject.Qt5Rev7
			return mo
		}()},
		{"different data", func() *metaobject.MetaObject {
			mo := record("A", "QObject", metaobject.KindObject)
			mo.Data[0] = 8
			return mo
		}()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, r.Register(tt.mo), metaobject.ErrConflictingRegistration)
		})
	}
	assert.Equal(t, 1, r.Len())
}

func TestRegisterRejectsNameless(t *testing.T) {
	r := metaobject.NewRegistry()
	assert.ErrorIs(t, r.Register(nil), metaobject.ErrMalformedBlob)
	assert.ErrorIs(t, r.Register(&metaobject.MetaObject{}), metaobject.ErrMalformedBlob)
}

func TestRegisterAllConcurrently(t *testing.T) {
	r := metaobject.NewRegistry()
	mos := []*metaobject.MetaObject{
		record("A", "", metaobject.KindObject),
		record("B", "A", metaobject.KindObject),
		record("G", "", metaobject.KindGadget),
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, r.RegisterAll(mos...))
		}()
	}
	wg.Wait()

	assert.Equal(t, []string{"A", "B", "G"}, r.Classes())
}

func TestSuperChain(t *testing.T) {
	r := metaobject.NewRegistry()
	require.NoError(t, r.RegisterAll(
		record("Base", "QObject", metaobject.KindObject),
		record("Mid", "Base", metaobject.KindObject),
		record("Leaf", "Mid", metaobject.KindObject),
		record("Root", "", metaobject.KindObject),
		record("X", "Y", metaobject.KindObject),
		record("Y", "X", metaobject.KindObject),
	))

	tests := []struct {
		name string
		want []string
	}{
		{"Leaf", []string{"Leaf", "Mid", "Base", "QObject"}},
		{"Root", []string{"Root"}},
		{"Unknown", []string{"Unknown"}},
		{"X", []string{"X", "Y"}},
		{"", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.SuperChain(tt.name))
		})
	}
}

func TestInherits(t *testing.T) {
	r := metaobject.NewRegistry()
	require.NoError(t, r.RegisterAll(
		record("Base", "QObject", metaobject.KindObject),
		record("Leaf", "Base", metaobject.KindObject),
		record("Value", "", metaobject.KindGadget),
	))

	ok, err := r.Inherits("Leaf", "QObject")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.Inherits("Leaf", "Leaf")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.Inherits("Base", "Leaf")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = r.Inherits("Value", "Value")
	assert.ErrorIs(t, err, metaobject.ErrNotDispatchCapable)

	mo, found := r.Lookup("Value")
	require.True(t, found, "value-only classes stay visible to static lookups")
	assert.False(t, mo.DispatchCapable())

	_, err = r.Inherits("Missing", "QObject")
	assert.Error(t, err)
}

func TestDefaultRegistry(t *testing.T) {
	mo := record("metaobject_test::DefaultProbe", "", metaobject.KindGadget)
	require.NoError(t, metaobject.Default.Register(mo))
	require.NoError(t, metaobject.Default.Register(mo))

	got, ok := metaobject.Default.Lookup(mo.ClassName)
	require.True(t, ok)
	assert.Same(t, mo, got)
}
