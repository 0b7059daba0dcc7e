// Package layout serializes class descriptors into the fixed binary layout
// read by the consuming runtime.
//
// The data array is a flat []uint32:
//
//	header (14 fields)
//	classinfo records (name, value)
//	method records (name, argc, parameters, tag, flags) for signals, slots, invokables
//	parameter blocks (return type, parameter types, parameter names), constructors last
//	enum records (name, [alias,] flags, count, data) followed by their (key, value) pairs
//	constructor records
//	0
//
// Names are string indices. Types are built-in type ids, or UnresolvedType
// combined with the string index of the type name.
package layout

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/Alia5/metagen/internal/strtab"
	"github.com/Alia5/metagen/metaobject"
)

type function struct {
	name       string
	returnType string
	params     []metaobject.Param
	tag        string
	flags      uint32
}

func (f function) argc() int { return len(f.params) }

// Serialize produces the meta-object record of cd for layout v.
func Serialize(cd *metaobject.ClassDescriptor, v metaobject.Layout) (*metaobject.MetaObject, error) {
	if err := v.Validate(); err != nil {
		return nil, err
	}
	if cd.Name == "" {
		return nil, fmt.Errorf("%w: class without a name", metaobject.ErrMalformedBlob)
	}

	methods := make([]function, 0, cd.MethodCount())
	for _, m := range cd.AllMethods() {
		methods = append(methods, methodFunction(m))
	}
	ctors := make([]function, 0, len(cd.Constructors))
	for _, c := range cd.Constructors {
		ctors = append(ctors, constructorFunction(cd.Name, c))
	}

	strs := registerStrings(cd, methods, ctors, v)

	w := &dataWriter{strs: strs}
	index := metaobject.HeaderFieldCount

	classInfoIndex := index
	index += len(cd.ClassInfo) * metaobject.ClassInfoRecordSize

	methodIndex := index
	index += len(methods) * metaobject.MethodRecordSize

	paramsIndex := index
	totalParams := 0
	for _, f := range methods {
		totalParams += f.argc() + 1
	}
	for _, f := range ctors {
		totalParams += f.argc() + 1
	}
	// return types and constructor "this" slots carry no name
	index += totalParams*2 - len(methods) - len(ctors)

	enumIndex := index
	for _, e := range cd.Enums {
		index += v.EnumRecordSize() + len(e.Values)*metaobject.EnumValueRecordSize
	}
	ctorIndex := index

	var flags uint32
	if cd.Kind == metaobject.KindGadget {
		flags |= metaobject.ClassPropertyAccessInStaticMetaCall
	}

	w.put(uint32(v.Revision))
	w.putString(cd.Name)
	w.putCountIndex(len(cd.ClassInfo), classInfoIndex)
	w.putCountIndex(len(methods), methodIndex)
	w.putCountIndex(0, 0) // properties
	w.putCountIndex(len(cd.Enums), enumIndex)
	w.putCountIndex(len(ctors), ctorIndex)
	w.put(flags)
	w.put(uint32(len(cd.Signals)))

	for _, ci := range cd.ClassInfo {
		w.putString(ci.Name)
		w.putString(ci.Value)
	}

	pi := paramsIndex
	for _, f := range methods {
		w.putFunction(f, pi)
		pi += 1 + 2*f.argc()
	}
	for _, f := range methods {
		w.putParameters(f)
	}
	for _, f := range ctors {
		w.putParameters(f)
	}

	dataIndex := enumIndex + len(cd.Enums)*v.EnumRecordSize()
	for _, e := range cd.Enums {
		w.putString(e.Name)
		if v.EnumRecordSize() == 5 {
			alias := e.Name
			if e.Alias != "" {
				alias = e.Alias
			}
			w.putString(alias)
		}
		var ef uint32
		if e.IsFlag {
			ef |= metaobject.EnumIsFlag
		}
		w.put(ef)
		w.put(uint32(len(e.Values)))
		w.put(uint32(dataIndex))
		dataIndex += len(e.Values) * metaobject.EnumValueRecordSize
	}
	for _, e := range cd.Enums {
		for _, ev := range e.Values {
			w.putString(ev.Name)
			w.put(uint32(ev.Value))
		}
	}

	for _, f := range ctors {
		w.putFunction(f, pi)
		pi += 1 + 2*f.argc()
	}
	w.put(0) // eod

	if w.err != nil {
		return nil, fmt.Errorf("serialize %s: %w", cd.Name, w.err)
	}
	if len(w.data) != ctorIndex+len(ctors)*metaobject.MethodRecordSize+1 {
		return nil, fmt.Errorf("%w: %s: data array has %d fields, expected %d", metaobject.ErrMalformedBlob,
			cd.Name, len(w.data), ctorIndex+len(ctors)*metaobject.MethodRecordSize+1)
	}

	return &metaobject.MetaObject{
		ClassName:  cd.Name,
		SuperClass: cd.SuperClass,
		Kind:       cd.Kind,
		Layout:     v,
		StringData: StringData(strs, v),
		Data:       w.data,
	}, nil
}

func methodFunction(m metaobject.MethodDescriptor) function {
	f := function{
		name:       m.Name,
		returnType: m.ReturnType,
		params:     m.Params,
		flags:      uint32(m.Access) & metaobject.MethodAccessMask,
	}
	if f.returnType == "" {
		f.returnType = "void"
	}
	switch m.Category {
	case metaobject.CategorySignal:
		f.flags |= metaobject.MethodTypeSignal
	case metaobject.CategorySlot:
		f.flags |= metaobject.MethodTypeSlot
	default:
		f.flags |= metaobject.MethodTypeMethod
	}
	if m.Flags.Has(metaobject.FlagCompat) {
		f.flags |= metaobject.MethodCompatibility
	}
	if m.Flags.Has(metaobject.FlagCloned) {
		f.flags |= metaobject.MethodCloned
	}
	if m.Flags.Has(metaobject.FlagScriptable) {
		f.flags |= metaobject.MethodScriptable
	}
	return f
}

// constructors are named after the class and have an empty, unresolved
// return type
func constructorFunction(class string, c metaobject.ConstructorDescriptor) function {
	f := function{
		name:   class,
		params: c.Params,
		flags:  metaobject.MethodTypeConstructor | uint32(metaobject.AccessPublic),
	}
	if c.Cloned {
		f.flags |= metaobject.MethodCloned
	}
	return f
}

// registerStrings fills the string table in the order the reference
// generator does; the resulting indices are part of the binary contract.
func registerStrings(cd *metaobject.ClassDescriptor, methods, ctors []function, v metaobject.Layout) *strtab.Table {
	t := strtab.New()
	t.Add(cd.Name)
	for _, ci := range cd.ClassInfo {
		t.Add(ci.Name)
		t.Add(ci.Value)
	}
	for _, list := range [][]function{methods, ctors} {
		for _, f := range list {
			t.Add(f.name)
			if _, builtin := metaobject.BuiltinType(f.returnType); !builtin {
				t.Add(f.returnType)
			}
			t.Add(f.tag)
			for _, p := range f.params {
				if _, builtin := metaobject.BuiltinType(p.Type); !builtin {
					t.Add(p.Type)
				}
				t.Add(p.Name)
			}
		}
	}
	for _, e := range cd.Enums {
		t.Add(e.Name)
		if v.EnumRecordSize() == 5 && e.Alias != "" {
			t.Add(e.Alias)
		}
		for _, ev := range e.Values {
			t.Add(ev.Name)
		}
	}
	return t
}

type dataWriter struct {
	strs *strtab.Table
	data []uint32
	err  error
}

func (w *dataWriter) put(v uint32) { w.data = append(w.data, v) }

func (w *dataWriter) putCountIndex(count, index int) {
	w.put(uint32(count))
	if count == 0 {
		index = 0
	}
	w.put(uint32(index))
}

func (w *dataWriter) putString(s string) {
	i, ok := w.strs.Index(s)
	if !ok && w.err == nil {
		w.err = fmt.Errorf("%w: string %q was not registered", metaobject.ErrMalformedBlob, s)
	}
	w.put(uint32(i))
}

func (w *dataWriter) putType(name string) {
	if id, ok := metaobject.BuiltinType(name); ok {
		w.put(id)
		return
	}
	i, ok := w.strs.Index(name)
	if !ok && w.err == nil {
		w.err = fmt.Errorf("%w: type %q was not registered", metaobject.ErrMalformedBlob, name)
	}
	w.put(metaobject.UnresolvedType | uint32(i))
}

func (w *dataWriter) putFunction(f function, paramsIndex int) {
	w.putString(f.name)
	w.put(uint32(f.argc()))
	w.put(uint32(paramsIndex))
	w.putString(f.tag)
	w.put(f.flags)
}

func (w *dataWriter) putParameters(f function) {
	w.putType(f.returnType)
	for _, p := range f.params {
		w.putType(p.Type)
	}
	for _, p := range f.params {
		w.putString(p.Name)
	}
}

// StringData lays out the string table the way the runtime reads it: one
// header per string {ref = -1, size, alloc = 0, offset}, then the characters.
// Each offset is relative to its own header. The whole block is padded to the
// pointer alignment.
func StringData(t *strtab.Table, v metaobject.Layout) []byte {
	order := v.ByteOrder()
	hs := v.StringHeaderSize()
	n := t.Len()

	var b bytes.Buffer
	b.Grow(n*hs + t.Size() + v.PointerSize)
	for _, e := range t.Entries() {
		offset := (n-e.Index)*hs + e.Offset
		_ = binary.Write(&b, order, int32(-1))
		_ = binary.Write(&b, order, int32(len(e.Value)))
		_ = binary.Write(&b, order, uint32(0))
		if v.PointerSize == 8 {
			_ = binary.Write(&b, order, uint32(0)) // padding
			_ = binary.Write(&b, order, int64(offset))
		} else {
			_ = binary.Write(&b, order, int32(offset))
		}
	}
	b.Write(t.Bytes())
	for b.Len()%v.PointerSize != 0 {
		b.WriteByte(0)
	}
	return b.Bytes()
}
