// Package builder turns collected declarations into a finished
// metaobject.ClassDescriptor.
package builder

import (
	"errors"
	"fmt"

	"github.com/Alia5/metagen/internal/collector"
	"github.com/Alia5/metagen/internal/enumres"
	"github.com/Alia5/metagen/metaobject"
)

var (
	ErrAmbiguousOverload = errors.New("ambiguous overload")
	ErrSignalOnGadget    = errors.New("value-only classes cannot declare signals")
)

type overloadKey struct {
	group     metaobject.Category
	signature string
}

// Build assigns per-category indices in declaration order, resolves access and
// flags, and rejects members sharing an overload key. enums are the resolved
// enums of the class in declaration order.
func Build(decls *collector.ClassDecls, enums []metaobject.EnumDescriptor) (*metaobject.ClassDescriptor, error) {
	cd := &metaobject.ClassDescriptor{
		Name:       decls.Name,
		SuperClass: decls.SuperClass,
		Kind:       decls.Kind,
		ClassInfo:  append([]metaobject.ClassInfo(nil), decls.ClassInfo...),
	}

	var errs []error
	seen := make(map[overloadKey]collector.Member)
	for _, m := range decls.Members {
		if m.Category == metaobject.CategorySignal && decls.Kind == metaobject.KindGadget {
			errs = append(errs, fmt.Errorf("%s: %s::%s: %w", m.Pos, decls.Name, m.Name, ErrSignalOnGadget))
			continue
		}
		k := overloadKey{m.Category.OverloadGroup(), metaobject.Signature(m.Name, m.Params)}
		if prev, dup := seen[k]; dup {
			errs = append(errs, fmt.Errorf("%s: %s::%s: %w: also declared at %s",
				m.Pos, decls.Name, k.signature, ErrAmbiguousOverload, prev.Pos))
			continue
		}
		seen[k] = m

		switch m.Category {
		case metaobject.CategoryConstructor:
			cd.Constructors = append(cd.Constructors, metaobject.ConstructorDescriptor{
				Params: copyParams(m.Params),
				Index:  len(cd.Constructors),
				Cloned: m.Cloned,
			})
		case metaobject.CategorySignal:
			md := method(m)
			md.Access = metaobject.AccessPublic
			md.Index = len(cd.Signals)
			cd.Signals = append(cd.Signals, md)
		case metaobject.CategorySlot:
			md := method(m)
			md.Index = len(cd.Slots)
			cd.Slots = append(cd.Slots, md)
		case metaobject.CategoryInvokable:
			md := method(m)
			md.Index = len(cd.Methods)
			cd.Methods = append(cd.Methods, md)
		default:
			errs = append(errs, fmt.Errorf("%s: %s::%s: unexpected member category %s", m.Pos, decls.Name, m.Name, m.Category))
		}
	}

	enumNames := make(map[string]bool, len(enums))
	for i, e := range enums {
		if enumNames[e.Name] {
			pos := ""
			if i < len(decls.Enums) {
				pos = decls.Enums[i].Pos
			}
			errs = append(errs, fmt.Errorf("%s: %s::%s: %w: enum declared twice", pos, decls.Name, e.Name, ErrAmbiguousOverload))
			continue
		}
		enumNames[e.Name] = true
		cd.Enums = append(cd.Enums, metaobject.EnumDescriptor{
			Name:   e.Name,
			Alias:  e.Alias,
			IsFlag: e.IsFlag,
			Values: append([]metaobject.EnumValue(nil), e.Values...),
		})
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return cd, nil
}

// ResolveEnums evaluates every enum of decls.
func ResolveEnums(decls *collector.ClassDecls) ([]metaobject.EnumDescriptor, error) {
	var errs []error
	out := make([]metaobject.EnumDescriptor, 0, len(decls.Enums))
	for _, e := range decls.Enums {
		values, err := enumres.Resolve(e.Enum)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", decls.Name, err))
			continue
		}
		out = append(out, metaobject.EnumDescriptor{Name: e.Name, Alias: e.Alias, IsFlag: e.IsFlag, Values: values})
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return out, nil
}

func method(m collector.Member) metaobject.MethodDescriptor {
	md := metaobject.MethodDescriptor{
		Name:       m.Name,
		Params:     copyParams(m.Params),
		ReturnType: m.ReturnType,
		Access:     metaobject.AccessPublic,
		Category:   m.Category,
	}
	if md.ReturnType == "" {
		md.ReturnType = "void"
	}
	if m.Access != nil {
		md.Access = *m.Access
	}
	if m.Compat {
		md.Flags |= metaobject.FlagCompat
	}
	if m.Scriptable {
		md.Flags |= metaobject.FlagScriptable
	}
	if m.Cloned {
		md.Flags |= metaobject.FlagCloned
	}
	return md
}

func copyParams(p []metaobject.Param) []metaobject.Param {
	if len(p) == 0 {
		return nil
	}
	return append([]metaobject.Param(nil), p...)
}
