package strtab_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Alia5/metagen/internal/strtab"
)

func TestAddDeduplicates(t *testing.T) {
	tab := strtab.New()

	a := tab.Add("overload")
	b := tab.Add("")
	c := tab.Add("overload")

	assert.Equal(t, 0, a)
	assert.Equal(t, 1, b)
	assert.Equal(t, a, c, "identical text must share one entry")
	assert.Equal(t, 2, tab.Len())
}

func TestOffsetsFirstOccurrence(t *testing.T) {
	tab := strtab.New()
	for _, s := range []string{"MyObject", "mySignal", "", "name", "mySignal", "mySlot"} {
		tab.Add(s)
	}

	want := []strtab.Entry{
		{Value: "MyObject", Index: 0, Offset: 0},
		{Value: "mySignal", Index: 1, Offset: 9},
		{Value: "", Index: 2, Offset: 18},
		{Value: "name", Index: 3, Offset: 19},
		{Value: "mySlot", Index: 4, Offset: 24},
	}
	assert.Equal(t, want, tab.Entries())
	assert.Equal(t, 31, tab.Size())
	assert.Equal(t, []byte("MyObject\x00mySignal\x00\x00name\x00mySlot\x00"), tab.Bytes())
}

func TestNoNormalization(t *testing.T) {
	tab := strtab.New()
	tab.Add("Value")
	tab.Add("value")
	tab.Add("value ")

	assert.Equal(t, 3, tab.Len())
	i, ok := tab.Index("value")
	assert.True(t, ok)
	assert.Equal(t, 1, i)
	_, ok = tab.Index("VALUE")
	assert.False(t, ok)
}
