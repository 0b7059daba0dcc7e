// Package metaobject contains the descriptor model produced by the generator,
// the serialized meta-object record embedded into generated code, and the
// process-wide registry that makes those records reachable by class name.
package metaobject

import "strings"

// Kind distinguishes dispatch-capable classes from value-only classes.
type Kind uint8

const (
	// KindObject classes take part in dynamic identity and signal/slot dispatch.
	KindObject Kind = iota
	// KindGadget classes are only visible to static introspection.
	KindGadget
)

func (k Kind) String() string {
	switch k {
	case KindObject:
		return "object"
	case KindGadget:
		return "gadget"
	default:
		return "unknown"
	}
}

// Access is the member access level, encoded with the values the consuming
// runtime expects in the low two bits of a method record's flags.
type Access uint8

const (
	AccessPrivate   Access = 0x00
	AccessProtected Access = 0x01
	AccessPublic    Access = 0x02
)

// ParseAccess maps an access keyword to its Access value.
func ParseAccess(s string) (Access, bool) {
	switch strings.ToLower(s) {
	case "public":
		return AccessPublic, true
	case "protected":
		return AccessProtected, true
	case "private":
		return AccessPrivate, true
	default:
		return 0, false
	}
}

func (a Access) String() string {
	switch a {
	case AccessPublic:
		return "Public"
	case AccessProtected:
		return "Protected"
	case AccessPrivate:
		return "Private"
	default:
		return "Invalid"
	}
}

// MethodFlags is an independent bit set of method attributes.
type MethodFlags uint8

const (
	// FlagCompat marks deprecated members kept for compatibility.
	FlagCompat MethodFlags = 1 << iota
	// FlagScriptable exposes the member to scripting engines.
	FlagScriptable
	// FlagCloned marks an overload derived from trailing default arguments.
	FlagCloned
)

// Has reports whether all bits of f2 are set in f.
func (f MethodFlags) Has(f2 MethodFlags) bool { return f&f2 == f2 }

// Category is the member category a descriptor belongs to.
type Category uint8

const (
	CategorySignal Category = iota
	CategorySlot
	CategoryInvokable
	CategoryConstructor
	CategoryEnum
)

func (c Category) String() string {
	switch c {
	case CategorySignal:
		return "signal"
	case CategorySlot:
		return "slot"
	case CategoryInvokable:
		return "invokable"
	case CategoryConstructor:
		return "constructor"
	case CategoryEnum:
		return "enum"
	default:
		return "unknown"
	}
}

// OverloadGroup returns the category whose members share one overload
// namespace. Slots and invokables live in the same method table.
func (c Category) OverloadGroup() Category {
	if c == CategoryInvokable {
		return CategorySlot
	}
	return c
}

// Param is a single normalized parameter.
type Param struct {
	Type string
	Name string
}

// MethodDescriptor describes a slot, invokable or signal.
type MethodDescriptor struct {
	Name       string
	Params     []Param
	ReturnType string
	Access     Access
	Flags      MethodFlags
	Category   Category
	// Index is the position inside the member's category, assigned in
	// declaration order.
	Index int
}

// IsSignal reports whether the method is a signal.
func (m MethodDescriptor) IsSignal() bool { return m.Category == CategorySignal }

// Signature returns the normalized "name(type,type)" form used for lookups.
func (m MethodDescriptor) Signature() string {
	return Signature(m.Name, m.Params)
}

// ConstructorDescriptor describes one constructor arity.
type ConstructorDescriptor struct {
	Params []Param
	Index  int
	Cloned bool
}

// EnumValue is a resolved enumerator.
type EnumValue struct {
	Name  string
	Value int32
}

// EnumDescriptor describes an enumeration and its resolved values.
type EnumDescriptor struct {
	Name   string
	Alias  string
	IsFlag bool
	Values []EnumValue
}

// ClassInfo is a free-form name/value annotation on a class.
type ClassInfo struct {
	Name  string
	Value string
}

// ClassDescriptor is the finished, immutable metadata of one class.
type ClassDescriptor struct {
	Name string
	// SuperClass is empty when the class has no superclass.
	SuperClass   string
	Kind         Kind
	ClassInfo    []ClassInfo
	Signals      []MethodDescriptor
	Slots        []MethodDescriptor
	Methods      []MethodDescriptor
	Constructors []ConstructorDescriptor
	Enums        []EnumDescriptor
}

// MethodCount is the number of entries in the method table: signals, then
// slots, then invokables.
func (c *ClassDescriptor) MethodCount() int {
	return len(c.Signals) + len(c.Slots) + len(c.Methods)
}

// AllMethods returns the method table in the order the consuming runtime
// indexes it.
func (c *ClassDescriptor) AllMethods() []MethodDescriptor {
	out := make([]MethodDescriptor, 0, c.MethodCount())
	out = append(out, c.Signals...)
	out = append(out, c.Slots...)
	out = append(out, c.Methods...)
	return out
}

// Signature formats a normalized member signature.
func Signature(name string, params []Param) string {
	var b strings.Builder
	b.WriteString(name)
	b.WriteByte('(')
	for i, p := range params {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(p.Type)
	}
	b.WriteByte(')')
	return b.String()
}
