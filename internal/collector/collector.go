// Package collector gathers member declarations into per-class lists.
//
// Front ends feed a Collector one Request per declared member in source order.
// Finalize checks the cross-member rules, expands trailing default arguments
// and returns one immutable ClassDecls per class.
package collector

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Alia5/metagen/internal/enumres"
	"github.com/Alia5/metagen/metaobject"
)

var (
	ErrMissingDisambiguation = errors.New("overloaded name needs an explicit parameter list")
	ErrInvalidModifier       = errors.New("modifier not allowed here")
	ErrUnknownClass          = errors.New("member declared for an undeclared class")
	ErrConflictingClass      = errors.New("class declared twice with different attributes")
	ErrInvalidName           = errors.New("invalid name")
)

// Source is a front end that turns some declaration syntax into requests.
type Source interface {
	Declare(c *Collector) error
}

// Modifiers are the per-member attributes. Which ones apply depends on the
// category; Add rejects the rest.
type Modifiers struct {
	// Access is nil when no access keyword was given.
	Access     *metaobject.Access
	Compat     bool
	Scriptable bool
	ReturnType string

	// enums only
	Flag   bool
	Alias  string
	Scoped bool
}

// Request declares one member.
type Request struct {
	Class    string
	Category metaobject.Category
	Name     string
	// Params is the raw parameter list text.
	Params string
	// Explicit is set when Params was written out rather than inferred or
	// omitted. Only explicit lists can disambiguate a reused name.
	Explicit    bool
	Modifiers   Modifiers
	Enumerators []enumres.Enumerator
	Pos         string
}

// ClassRequest declares a class.
type ClassRequest struct {
	Name       string
	SuperClass string
	Kind       metaobject.Kind
	Pos        string
}

// Member is a collected method, signal or constructor with its parameters
// parsed and normalized. Access is nil when it was not specified.
type Member struct {
	Category   metaobject.Category
	Name       string
	Params     []metaobject.Param
	ReturnType string
	Access     *metaobject.Access
	Compat     bool
	Scriptable bool
	Cloned     bool
	Pos        string
}

// EnumDecl is a collected enum awaiting value resolution.
type EnumDecl struct {
	enumres.Enum
	Alias  string
	IsFlag bool
}

// ClassDecls is the finished declaration set of one class.
type ClassDecls struct {
	Name       string
	SuperClass string
	Kind       metaobject.Kind
	Pos        string
	ClassInfo  []metaobject.ClassInfo
	// Members holds signals, slots, invokables and constructors in
	// declaration order, default-argument clones following their source.
	Members []Member
	Enums   []EnumDecl
}

// ByCategory returns the members of one category in declaration order.
func (d *ClassDecls) ByCategory(c metaobject.Category) []Member {
	var out []Member
	for _, m := range d.Members {
		if m.Category == c {
			out = append(out, m)
		}
	}
	return out
}

type pending struct {
	req    Request
	params []ParsedParam
}

type classState struct {
	decl     ClassRequest
	declared bool
	info     []metaobject.ClassInfo
	members  []pending
	enums    []EnumDecl
}

// Collector accumulates requests until Finalize.
type Collector struct {
	classes map[string]*classState
	order   []string
}

func New() *Collector {
	return &Collector{classes: make(map[string]*classState)}
}

func (c *Collector) class(name string) *classState {
	cs, ok := c.classes[name]
	if !ok {
		cs = &classState{decl: ClassRequest{Name: name}}
		c.classes[name] = cs
		c.order = append(c.order, name)
	}
	return cs
}

// DeclareClass registers a class. Declaring the same class again with the
// same attributes is accepted.
func (c *Collector) DeclareClass(r ClassRequest) error {
	if !validIdent(r.Name) {
		return fmt.Errorf("%s: %w: class %q", r.Pos, ErrInvalidName, r.Name)
	}
	cs := c.class(r.Name)
	if cs.declared {
		if cs.decl.SuperClass != r.SuperClass || cs.decl.Kind != r.Kind {
			return fmt.Errorf("%s: %w: %s (first declared at %s)", r.Pos, ErrConflictingClass, r.Name, cs.decl.Pos)
		}
		return nil
	}
	cs.decl = r
	cs.declared = true
	return nil
}

// AddClassInfo attaches a name/value annotation to a class.
func (c *Collector) AddClassInfo(class, name, value, pos string) error {
	if name == "" {
		return fmt.Errorf("%s: %w: empty classinfo name on %s", pos, ErrInvalidName, class)
	}
	cs := c.class(class)
	cs.info = append(cs.info, metaobject.ClassInfo{Name: name, Value: value})
	return nil
}

// Add records one member request. The parameter list and the modifiers are
// checked immediately; overload rules are checked by Finalize.
func (c *Collector) Add(r Request) error {
	if r.Class == "" {
		return fmt.Errorf("%s: %w: %s %q has no class", r.Pos, ErrUnknownClass, r.Category, r.Name)
	}
	if r.Category != metaobject.CategoryConstructor && !validIdent(r.Name) {
		return fmt.Errorf("%s: %w: %s %q", r.Pos, ErrInvalidName, r.Category, r.Name)
	}
	if err := checkModifiers(r); err != nil {
		return fmt.Errorf("%s: %s::%s: %w", r.Pos, r.Class, r.Name, err)
	}
	cs := c.class(r.Class)

	if r.Category == metaobject.CategoryEnum {
		cs.enums = append(cs.enums, EnumDecl{
			Enum: enumres.Enum{
				Name:        r.Name,
				Scoped:      r.Modifiers.Scoped,
				Enumerators: r.Enumerators,
				Pos:         r.Pos,
			},
			Alias:  r.Modifiers.Alias,
			IsFlag: r.Modifiers.Flag,
		})
		return nil
	}

	params, err := ParseParams(r.Params)
	if err != nil {
		return fmt.Errorf("%s: %s::%s: %w", r.Pos, r.Class, r.Name, err)
	}
	cs.members = append(cs.members, pending{req: r, params: params})
	return nil
}

func checkModifiers(r Request) error {
	m := r.Modifiers
	isEnum := r.Category == metaobject.CategoryEnum
	if !isEnum && (m.Flag || m.Alias != "" || m.Scoped) {
		return fmt.Errorf("%w: enum modifiers on a %s", ErrInvalidModifier, r.Category)
	}
	if !isEnum && len(r.Enumerators) > 0 {
		return fmt.Errorf("%w: enumerators on a %s", ErrInvalidModifier, r.Category)
	}
	switch r.Category {
	case metaobject.CategorySignal:
		if m.Access != nil && *m.Access != metaobject.AccessPublic {
			return fmt.Errorf("%w: signals are always public, got %s", ErrInvalidModifier, *m.Access)
		}
		if m.Scriptable {
			return fmt.Errorf("%w: signals cannot be scriptable", ErrInvalidModifier)
		}
	case metaobject.CategoryConstructor:
		if m.Compat || m.ReturnType != "" {
			return fmt.Errorf("%w: constructors take a parameter list only", ErrInvalidModifier)
		}
	case metaobject.CategoryEnum:
		if m.Access != nil || m.Compat || m.Scriptable || m.ReturnType != "" {
			return fmt.Errorf("%w: method modifiers on an enum", ErrInvalidModifier)
		}
		if m.Alias != "" && !validIdent(m.Alias) {
			return fmt.Errorf("%w: alias %q", ErrInvalidName, m.Alias)
		}
	}
	return nil
}

// Finalize checks overload disambiguation, expands default arguments and
// returns the classes in first-mention order.
func (c *Collector) Finalize() ([]*ClassDecls, error) {
	var errs []error
	out := make([]*ClassDecls, 0, len(c.order))
	for _, name := range c.order {
		cs := c.classes[name]
		if !cs.declared {
			pos := ""
			if len(cs.members) > 0 {
				pos = cs.members[0].req.Pos
			} else if len(cs.enums) > 0 {
				pos = cs.enums[0].Pos
			}
			errs = append(errs, fmt.Errorf("%s: %w: %s", pos, ErrUnknownClass, name))
			continue
		}
		if err := checkDisambiguation(cs); err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, finish(cs))
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return out, nil
}

func checkDisambiguation(cs *classState) error {
	type key struct {
		group metaobject.Category
		name  string
	}
	first := make(map[key]Request)
	var errs []error
	for _, p := range cs.members {
		r := p.req
		name := r.Name
		if r.Category == metaobject.CategoryConstructor {
			name = cs.decl.Name
		}
		k := key{r.Category.OverloadGroup(), name}
		prev, seen := first[k]
		if !seen {
			first[k] = r
			continue
		}
		if !prev.Explicit || !r.Explicit {
			errs = append(errs, fmt.Errorf("%s: %s::%s: %w (also declared at %s)",
				r.Pos, cs.decl.Name, name, ErrMissingDisambiguation, prev.Pos))
		}
	}
	return errors.Join(errs...)
}

func finish(cs *classState) *ClassDecls {
	d := &ClassDecls{
		Name:       cs.decl.Name,
		SuperClass: cs.decl.SuperClass,
		Kind:       cs.decl.Kind,
		Pos:        cs.decl.Pos,
		ClassInfo:  append([]metaobject.ClassInfo(nil), cs.info...),
		Enums:      append([]EnumDecl(nil), cs.enums...),
	}
	for _, p := range cs.members {
		d.Members = append(d.Members, expandDefaults(cs.decl.Name, p)...)
	}
	return d
}

// expandDefaults yields the full signature first, then one clone per omitted
// trailing default.
func expandDefaults(class string, p pending) []Member {
	r := p.req
	name := r.Name
	if r.Category == metaobject.CategoryConstructor {
		name = class
	}
	ret := ""
	if r.Category != metaobject.CategoryConstructor {
		ret = "void"
		if r.Modifiers.ReturnType != "" {
			ret = NormalizeType(r.Modifiers.ReturnType)
		}
	}

	all := make([]metaobject.Param, len(p.params))
	firstDefault := len(p.params)
	for i, pp := range p.params {
		all[i] = pp.Param
		if pp.HasDefault && i < firstDefault {
			firstDefault = i
		}
	}

	var out []Member
	for n := len(all); n >= firstDefault; n-- {
		out = append(out, Member{
			Category:   r.Category,
			Name:       name,
			Params:     append([]metaobject.Param(nil), all[:n]...),
			ReturnType: ret,
			Access:     r.Modifiers.Access,
			Compat:     r.Modifiers.Compat,
			Scriptable: r.Modifiers.Scriptable,
			Cloned:     n < len(all),
			Pos:        r.Pos,
		})
	}
	return out
}

func validIdent(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == ':' || c >= '0' && c <= '9' && i > 0 || c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' {
			continue
		}
		return false
	}
	return !strings.HasPrefix(s, ":") && !strings.HasSuffix(s, ":")
}
