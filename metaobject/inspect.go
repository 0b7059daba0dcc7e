package metaobject

import (
	"fmt"
	"strings"
)

// MethodInfo is a method or constructor record decoded from a MetaObject.
type MethodInfo struct {
	Index      int
	Name       string
	Tag        string
	Flags      uint32
	ReturnType string
	ParamTypes []string
	ParamNames []string
}

// Signature returns "name(type,type)".
func (mi MethodInfo) Signature() string {
	return mi.Name + "(" + strings.Join(mi.ParamTypes, ",") + ")"
}

// Access decodes the access level from the record flags.
func (mi MethodInfo) Access() Access { return Access(mi.Flags & MethodAccessMask) }

// EnumInfo is an enum record decoded from a MetaObject.
type EnumInfo struct {
	Name   string
	Alias  string
	Flags  uint32
	Keys   []string
	Values []int32
}

func (m *MetaObject) field(i int) (uint32, error) {
	if i < 0 || i >= len(m.Data) {
		return 0, fmt.Errorf("%w: data index %d out of range (len %d)", ErrMalformedBlob, i, len(m.Data))
	}
	return m.Data[i], nil
}

// StringCount returns the number of strings in the string data.
func (m *MetaObject) StringCount() int {
	hs := m.Layout.StringHeaderSize()
	if len(m.StringData) < hs {
		return 0
	}
	off, _, err := m.stringHeader(0)
	if err != nil {
		return 0
	}
	return off / hs
}

func (m *MetaObject) stringHeader(i int) (offset, size int, err error) {
	hs := m.Layout.StringHeaderSize()
	base := i * hs
	if i < 0 || base+hs > len(m.StringData) {
		return 0, 0, fmt.Errorf("%w: string %d out of range", ErrMalformedBlob, i)
	}
	order := m.Layout.ByteOrder()
	size = int(int32(order.Uint32(m.StringData[base+4:])))
	if m.Layout.PointerSize == 8 {
		offset = int(int64(order.Uint64(m.StringData[base+16:])))
	} else {
		offset = int(int32(order.Uint32(m.StringData[base+12:])))
	}
	return offset, size, nil
}

// StringAt returns the i-th entry of the string data.
func (m *MetaObject) StringAt(i int) (string, error) {
	offset, size, err := m.stringHeader(i)
	if err != nil {
		return "", err
	}
	start := i*m.Layout.StringHeaderSize() + offset
	if size < 0 || start < 0 || start+size > len(m.StringData) {
		return "", fmt.Errorf("%w: string %d spans outside the string data", ErrMalformedBlob, i)
	}
	return string(m.StringData[start : start+size]), nil
}

func (m *MetaObject) typeName(t uint32) (string, error) {
	if t&UnresolvedType != 0 {
		return m.StringAt(int(t &^ UnresolvedType))
	}
	if name, ok := BuiltinTypeName(t); ok {
		return name, nil
	}
	return "", fmt.Errorf("%w: unknown built-in type id %d", ErrMalformedBlob, t)
}

// Revision returns the revision recorded in the header.
func (m *MetaObject) Revision() int {
	v, _ := m.field(HeaderRevision)
	return int(v)
}

// ClassInfos decodes the class info pairs.
func (m *MetaObject) ClassInfos() ([]ClassInfo, error) {
	count, err := m.field(HeaderClassInfoCount)
	if err != nil {
		return nil, err
	}
	base, _ := m.field(HeaderClassInfoIndex)
	out := make([]ClassInfo, 0, count)
	for i := 0; i < int(count); i++ {
		ni, err := m.field(int(base) + i*ClassInfoRecordSize)
		if err != nil {
			return nil, err
		}
		vi, err := m.field(int(base) + i*ClassInfoRecordSize + 1)
		if err != nil {
			return nil, err
		}
		name, err := m.StringAt(int(ni))
		if err != nil {
			return nil, err
		}
		value, err := m.StringAt(int(vi))
		if err != nil {
			return nil, err
		}
		out = append(out, ClassInfo{Name: name, Value: value})
	}
	return out, nil
}

// Methods decodes the method table: signals, then slots, then invokables.
func (m *MetaObject) Methods() ([]MethodInfo, error) {
	return m.decodeMethods(HeaderMethodCount, HeaderMethodIndex)
}

// Constructors decodes the constructor table.
func (m *MetaObject) Constructors() ([]MethodInfo, error) {
	return m.decodeMethods(HeaderConstructorCount, HeaderConstructorIndex)
}

func (m *MetaObject) decodeMethods(countField, indexField int) ([]MethodInfo, error) {
	count, err := m.field(countField)
	if err != nil {
		return nil, err
	}
	base, _ := m.field(indexField)
	out := make([]MethodInfo, 0, count)
	for i := 0; i < int(count); i++ {
		rec := int(base) + i*MethodRecordSize
		var f [MethodRecordSize]uint32
		for j := range f {
			if f[j], err = m.field(rec + j); err != nil {
				return nil, err
			}
		}
		mi := MethodInfo{Index: i, Flags: f[4]}
		if mi.Name, err = m.StringAt(int(f[0])); err != nil {
			return nil, err
		}
		if mi.Tag, err = m.StringAt(int(f[3])); err != nil {
			return nil, err
		}
		argc, params := int(f[1]), int(f[2])
		rt, err := m.field(params)
		if err != nil {
			return nil, err
		}
		if mi.ReturnType, err = m.typeName(rt); err != nil {
			return nil, err
		}
		for j := 0; j < argc; j++ {
			t, err := m.field(params + 1 + j)
			if err != nil {
				return nil, err
			}
			tn, err := m.typeName(t)
			if err != nil {
				return nil, err
			}
			n, err := m.field(params + 1 + argc + j)
			if err != nil {
				return nil, err
			}
			pn, err := m.StringAt(int(n))
			if err != nil {
				return nil, err
			}
			mi.ParamTypes = append(mi.ParamTypes, tn)
			mi.ParamNames = append(mi.ParamNames, pn)
		}
		out = append(out, mi)
	}
	return out, nil
}

// Enums decodes the enum records and their key/value data.
func (m *MetaObject) Enums() ([]EnumInfo, error) {
	count, err := m.field(HeaderEnumCount)
	if err != nil {
		return nil, err
	}
	base, _ := m.field(HeaderEnumIndex)
	size := m.Layout.EnumRecordSize()
	out := make([]EnumInfo, 0, count)
	for i := 0; i < int(count); i++ {
		rec := int(base) + i*size
		fields := make([]uint32, size)
		for j := range fields {
			if fields[j], err = m.field(rec + j); err != nil {
				return nil, err
			}
		}
		var ei EnumInfo
		if ei.Name, err = m.StringAt(int(fields[0])); err != nil {
			return nil, err
		}
		rest := fields[1:]
		ei.Alias = ei.Name
		if size == 5 {
			if ei.Alias, err = m.StringAt(int(rest[0])); err != nil {
				return nil, err
			}
			rest = rest[1:]
		}
		ei.Flags = rest[0]
		keyCount, data := int(rest[1]), int(rest[2])
		for j := 0; j < keyCount; j++ {
			k, err := m.field(data + j*EnumValueRecordSize)
			if err != nil {
				return nil, err
			}
			v, err := m.field(data + j*EnumValueRecordSize + 1)
			if err != nil {
				return nil, err
			}
			key, err := m.StringAt(int(k))
			if err != nil {
				return nil, err
			}
			ei.Keys = append(ei.Keys, key)
			ei.Values = append(ei.Values, int32(v))
		}
		out = append(out, ei)
	}
	return out, nil
}

// IndexOfMethod returns the method-table index of a normalized signature, or
// -1 when the class does not declare it.
func (m *MetaObject) IndexOfMethod(signature string) int {
	methods, err := m.Methods()
	if err != nil {
		return -1
	}
	for i, mi := range methods {
		if mi.Signature() == signature {
			return i
		}
	}
	return -1
}

// LookupMethods returns the methods named name that take argc parameters.
func (m *MetaObject) LookupMethods(name string, argc int) []MethodInfo {
	methods, err := m.Methods()
	if err != nil {
		return nil
	}
	var out []MethodInfo
	for _, mi := range methods {
		if mi.Name == name && len(mi.ParamTypes) == argc {
			out = append(out, mi)
		}
	}
	return out
}
