// Package strtab builds the deduplicated string table of a class.
//
// Strings are keyed on their exact bytes; no normalization or case folding is
// applied. Indices and byte offsets are assigned in first-occurrence order,
// each string occupying len+1 bytes (NUL terminated).
package strtab

// Entry is one deduplicated string.
type Entry struct {
	Value  string
	Index  int
	Offset int
}

// Table accumulates strings. The zero value is not usable; call New.
type Table struct {
	entries []Entry
	index   map[string]int
	size    int
}

func New() *Table {
	return &Table{index: make(map[string]int)}
}

// Add registers s and returns its index. Adding a string that is already
// present returns the existing index.
func (t *Table) Add(s string) int {
	if i, ok := t.index[s]; ok {
		return i
	}
	i := len(t.entries)
	t.entries = append(t.entries, Entry{Value: s, Index: i, Offset: t.size})
	t.index[s] = i
	t.size += len(s) + 1
	return i
}

// Index returns the index of s, if registered.
func (t *Table) Index(s string) (int, bool) {
	i, ok := t.index[s]
	return i, ok
}

// Offset returns the byte offset of entry i.
func (t *Table) Offset(i int) int { return t.entries[i].Offset }

// Len is the number of distinct strings.
func (t *Table) Len() int { return len(t.entries) }

// Size is the total number of bytes including terminators.
func (t *Table) Size() int { return t.size }

// Entries returns a copy of the entries in index order.
func (t *Table) Entries() []Entry {
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Bytes returns the concatenated, NUL-terminated strings.
func (t *Table) Bytes() []byte {
	out := make([]byte, 0, t.size)
	for _, e := range t.entries {
		out = append(out, e.Value...)
		out = append(out, 0)
	}
	return out
}
