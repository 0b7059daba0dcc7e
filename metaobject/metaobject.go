package metaobject

import (
	"bytes"
	"errors"
	"slices"
)

var (
	ErrUnsupportedLayout       = errors.New("unsupported layout")
	ErrConflictingRegistration = errors.New("conflicting registration")
	ErrNotDispatchCapable      = errors.New("class is not dispatch-capable")
	ErrMalformedBlob           = errors.New("malformed meta-object")
)

// Field positions inside the fixed-size header of the data array.
const (
	HeaderRevision = iota
	HeaderClassName
	HeaderClassInfoCount
	HeaderClassInfoIndex
	HeaderMethodCount
	HeaderMethodIndex
	HeaderPropertyCount
	HeaderPropertyIndex
	HeaderEnumCount
	HeaderEnumIndex
	HeaderConstructorCount
	HeaderConstructorIndex
	HeaderFlags
	HeaderSignalCount

	HeaderFieldCount
)

// Record sizes, in uint fields.
const (
	ClassInfoRecordSize = 2
	MethodRecordSize    = 5
	EnumValueRecordSize = 2
)

// Method record flag bits.
const (
	MethodTypeMethod      uint32 = 0x00
	MethodTypeSignal      uint32 = 0x04
	MethodTypeSlot        uint32 = 0x08
	MethodTypeConstructor uint32 = 0x0c
	MethodTypeMask        uint32 = 0x0c
	MethodAccessMask      uint32 = 0x03
	MethodCompatibility   uint32 = 0x10
	MethodCloned          uint32 = 0x20
	MethodScriptable      uint32 = 0x40
)

const (
	// EnumIsFlag marks an enum usable as a flag set.
	EnumIsFlag uint32 = 0x1
	// ClassPropertyAccessInStaticMetaCall is set in the header flags of
	// value-only classes.
	ClassPropertyAccessInStaticMetaCall uint32 = 0x1
	// UnresolvedType marks a type field holding a string index instead of a
	// built-in type id.
	UnresolvedType uint32 = 0x80000000
)

// MetaObject is the serialized record of one class: the data array and the
// string data the consuming runtime reads in place, plus the registration
// link to the superclass.
type MetaObject struct {
	ClassName string
	// SuperClass names the superclass; empty is the "no superclass" sentinel.
	SuperClass string
	Kind       Kind
	Layout     Layout
	StringData []byte
	Data       []uint32
}

// DataBytes encodes the data array in the layout's byte order.
func (m *MetaObject) DataBytes() []byte {
	order := m.Layout.ByteOrder()
	out := make([]byte, 4*len(m.Data))
	for i, v := range m.Data {
		order.PutUint32(out[4*i:], v)
	}
	return out
}

// MarshalBinary returns the data array followed by the string data.
func (m *MetaObject) MarshalBinary() ([]byte, error) {
	out := m.DataBytes()
	return append(out, m.StringData...), nil
}

// Equal reports whether two records describe the same class with identical
// bytes.
func (m *MetaObject) Equal(o *MetaObject) bool {
	if m == nil || o == nil {
		return m == o
	}
	return m.ClassName == o.ClassName &&
		m.SuperClass == o.SuperClass &&
		m.Kind == o.Kind &&
		m.Layout == o.Layout &&
		bytes.Equal(m.StringData, o.StringData) &&
		slices.Equal(m.Data, o.Data)
}

// DispatchCapable reports whether the class takes part in dynamic dispatch.
func (m *MetaObject) DispatchCapable() bool { return m.Kind == KindObject }
