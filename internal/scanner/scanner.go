// Package scanner reads //meta: comment directives from Go source and turns
// them into collector requests.
//
// Classes are Go types annotated with //meta:object or //meta:gadget. Members
// are declared either in the type's doc comment or in the doc comment of a
// method on that type:
//
//	//meta:object MyObject super=QObject
//	//meta:signal mySignal(const QString &name)
//	//meta:enum MyEnum {Blue, Red, Green, Yellow = 45, Violet = Blue + Green*3}
//	type MyObject struct{}
//
//	//meta:slot mySlot
//	func (o *MyObject) MySlot(name string) {}
//
// A member directive on a method without a parameter list takes its
// parameters and return type from the Go signature. An enum directive without
// a braced list refers to the typed const block of the same name.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"go/types"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/tools/go/packages"

	"github.com/Alia5/metagen/internal/collector"
	"github.com/Alia5/metagen/internal/enumres"
	"github.com/Alia5/metagen/metaobject"
)

var (
	ErrBadDirective        = errors.New("malformed directive")
	ErrUnknownDirective    = errors.New("unknown directive")
	ErrUnsupportedGoType   = errors.New("unsupported Go type")
	ErrUnannotatedReceiver = errors.New("receiver type has no //meta:object or //meta:gadget directive")
	ErrUnknownEnumType     = errors.New("no typed const block for enum")
)

var iotaPattern = regexp.MustCompile(`\biota\b`)

// Scanner accumulates parsed Go files. It implements collector.Source.
type Scanner struct {
	fset   *token.FileSet
	files  []*ast.File
	logger *slog.Logger
}

func New(logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scanner{fset: token.NewFileSet(), logger: logger}
}

// Files returns the number of files added so far.
func (s *Scanner) Files() int { return len(s.files) }

// AddSource parses one file from memory.
func (s *Scanner) AddSource(filename string, src []byte) error {
	file, err := parser.ParseFile(s.fset, filename, src, parser.ParseComments)
	if err != nil {
		return fmt.Errorf("parse %s: %w", filename, err)
	}
	s.files = append(s.files, file)
	return nil
}

// AddDir parses the non-test Go files of one directory in name order.
func (s *Scanner) AddDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read directory %s: %w", dir, err)
	}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") {
			continue
		}
		path := filepath.Join(dir, name)
		src, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		if err := s.AddSource(path, src); err != nil {
			return err
		}
	}
	s.logger.Debug("Scanned directory", "dir", dir, "files", len(s.files))
	return nil
}

// AddPackages loads the packages matching patterns, relative to dir, and
// adds their syntax trees.
func (s *Scanner) AddPackages(ctx context.Context, dir string, patterns ...string) error {
	cfg := &packages.Config{
		Context: ctx,
		Mode:    packages.NeedName | packages.NeedFiles | packages.NeedSyntax,
		Dir:     dir,
		Fset:    s.fset,
	}
	pkgs, err := packages.Load(cfg, patterns...)
	if err != nil {
		return fmt.Errorf("load packages %v: %w", patterns, err)
	}
	var errs []error
	packages.Visit(pkgs, nil, func(p *packages.Package) {
		for _, e := range p.Errors {
			errs = append(errs, fmt.Errorf("%s: %s", p.PkgPath, e.Error()))
		}
	})
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	for _, p := range pkgs {
		s.logger.Debug("Loaded package", "package", p.PkgPath, "files", len(p.Syntax))
		s.files = append(s.files, p.Syntax...)
	}
	return nil
}

type methodContext struct {
	name string
	typ  *ast.FuncType
}

// Declare feeds every directive to c in source order.
func (s *Scanner) Declare(c *collector.Collector) error {
	enums := s.constEnums()

	var errs []error
	classes := make(map[string]string) // Go type name -> class name

	// malformed directives are reported by the member pass
	var ignored []error
	for _, file := range s.files {
		for _, decl := range file.Decls {
			gd, ok := decl.(*ast.GenDecl)
			if !ok || gd.Tok != token.TYPE {
				continue
			}
			for _, spec := range gd.Specs {
				ts := spec.(*ast.TypeSpec)
				for _, d := range s.directives(typeDoc(gd, ts), &ignored) {
					if d.Kind != "object" && d.Kind != "gadget" {
						continue
					}
					name, err := s.declareClass(c, ts.Name.Name, d)
					if err != nil {
						errs = append(errs, err)
						continue
					}
					classes[ts.Name.Name] = name
				}
			}
		}
	}

	for _, file := range s.files {
		for _, decl := range file.Decls {
			switch decl := decl.(type) {
			case *ast.GenDecl:
				if decl.Tok != token.TYPE {
					ds := s.directives(decl.Doc, &errs)
					errs = append(errs, rejectMembers(ds)...)
					continue
				}
				for _, spec := range decl.Specs {
					ts := spec.(*ast.TypeSpec)
					ds := s.directives(typeDoc(decl, ts), &errs)
					class, ok := classes[ts.Name.Name]
					if !ok {
						errs = append(errs, rejectMembers(ds)...)
						continue
					}
					for _, d := range ds {
						if d.Kind == "object" || d.Kind == "gadget" {
							continue
						}
						if err := s.member(c, class, d, nil, enums); err != nil {
							errs = append(errs, err)
						}
					}
				}
			case *ast.FuncDecl:
				ds := s.directives(decl.Doc, &errs)
				if len(ds) == 0 {
					continue
				}
				recv := receiverType(decl)
				class, ok := classes[recv]
				if !ok {
					errs = append(errs, fmt.Errorf("%s: %w: %s", ds[0].Pos, ErrUnannotatedReceiver, decl.Name.Name))
					continue
				}
				mc := &methodContext{name: decl.Name.Name, typ: decl.Type}
				for _, d := range ds {
					if err := s.member(c, class, d, mc, enums); err != nil {
						errs = append(errs, err)
					}
				}
			}
		}
	}

	s.logger.Debug("Scanned directives", "files", len(s.files), "classes", len(classes))
	return errors.Join(errs...)
}

func typeDoc(gd *ast.GenDecl, ts *ast.TypeSpec) *ast.CommentGroup {
	if ts.Doc != nil {
		return ts.Doc
	}
	if len(gd.Specs) == 1 {
		return gd.Doc
	}
	return nil
}

func receiverType(fd *ast.FuncDecl) string {
	if fd.Recv == nil || len(fd.Recv.List) == 0 {
		return ""
	}
	t := fd.Recv.List[0].Type
	if star, ok := t.(*ast.StarExpr); ok {
		t = star.X
	}
	switch t := t.(type) {
	case *ast.Ident:
		return t.Name
	case *ast.IndexExpr:
		if id, ok := t.X.(*ast.Ident); ok {
			return id.Name
		}
	}
	return ""
}

func (s *Scanner) directives(cg *ast.CommentGroup, errs *[]error) []*Directive {
	if cg == nil {
		return nil
	}
	var out []*Directive
	for _, comment := range cg.List {
		d, err := parseDirective(comment.Text, s.fset.Position(comment.Pos()).String())
		if err != nil {
			*errs = append(*errs, err)
			continue
		}
		if d != nil {
			out = append(out, d)
		}
	}
	return out
}

func rejectMembers(ds []*Directive) []error {
	var errs []error
	for _, d := range ds {
		errs = append(errs, fmt.Errorf("%s: %w: meta:%s must annotate a class type or one of its methods",
			d.Pos, ErrBadDirective, d.Kind))
	}
	return errs
}

func (s *Scanner) declareClass(c *collector.Collector, goName string, d *Directive) (string, error) {
	kind := metaobject.KindObject
	if d.Kind == "gadget" {
		kind = metaobject.KindGadget
	}
	name := d.Name
	if name == "" {
		name = goName
	}
	for k := range d.Mods {
		if k != "super" {
			return "", fmt.Errorf("%s: %w: unknown class modifier %q", d.Pos, ErrBadDirective, k)
		}
	}
	if len(d.Args) > 0 || d.Group != "" {
		return "", fmt.Errorf("%s: %w: unexpected arguments to meta:%s", d.Pos, ErrBadDirective, d.Kind)
	}
	err := c.DeclareClass(collector.ClassRequest{
		Name:       name,
		SuperClass: d.Mods["super"],
		Kind:       kind,
		Pos:        d.Pos,
	})
	return name, err
}

func (s *Scanner) member(c *collector.Collector, class string, d *Directive, mc *methodContext, enums map[string][]constEnumerator) error {
	switch d.Kind {
	case "object", "gadget":
		return fmt.Errorf("%s: %w: meta:%s belongs on a type", d.Pos, ErrBadDirective, d.Kind)
	case "classinfo":
		return s.classInfo(c, class, d)
	case "enum", "flag":
		return s.enum(c, class, d, enums)
	case "signal", "slot", "invokable", "constructor":
		return s.method(c, class, d, mc)
	}
	return fmt.Errorf("%s: %w: meta:%s", d.Pos, ErrUnknownDirective, d.Kind)
}

func (s *Scanner) classInfo(c *collector.Collector, class string, d *Directive) error {
	if d.Name == "" || len(d.Args) == 0 {
		return fmt.Errorf("%s: %w: meta:classinfo needs a name and a value", d.Pos, ErrBadDirective)
	}
	value := strings.Join(d.Args, " ")
	if uq, err := strconv.Unquote(value); err == nil {
		value = uq
	}
	return c.AddClassInfo(class, d.Name, value, d.Pos)
}

var categories = map[string]metaobject.Category{
	"signal":      metaobject.CategorySignal,
	"slot":        metaobject.CategorySlot,
	"invokable":   metaobject.CategoryInvokable,
	"constructor": metaobject.CategoryConstructor,
}

func (s *Scanner) method(c *collector.Collector, class string, d *Directive, mc *methodContext) error {
	r := collector.Request{
		Class:    class,
		Category: categories[d.Kind],
		Name:     d.Name,
		Params:   d.Group,
		Explicit: d.Group != "",
		Pos:      d.Pos,
	}
	if r.Category == metaobject.CategoryConstructor {
		if d.Name != "" {
			return fmt.Errorf("%s: %w: constructors are named after their class", d.Pos, ErrBadDirective)
		}
		if mc == nil && d.Group == "" {
			r.Params, r.Explicit = "()", true
		}
	}
	if r.Name == "" && mc != nil && r.Category != metaobject.CategoryConstructor {
		r.Name = lowerFirst(mc.name)
	}

	for _, arg := range d.Args {
		if a, ok := metaobject.ParseAccess(arg); ok {
			r.Modifiers.Access = &a
			continue
		}
		switch arg {
		case "compat":
			r.Modifiers.Compat = true
		case "scriptable":
			r.Modifiers.Scriptable = true
		default:
			return fmt.Errorf("%s: %w: unknown modifier %q", d.Pos, ErrBadDirective, arg)
		}
	}
	for k, v := range d.Mods {
		if k != "ret" {
			return fmt.Errorf("%s: %w: unknown modifier %q", d.Pos, ErrBadDirective, k)
		}
		r.Modifiers.ReturnType = v
	}

	isCtor := r.Category == metaobject.CategoryConstructor
	if mc != nil && (!r.Explicit || r.Modifiers.ReturnType == "" && !isCtor) {
		params, ret, err := signatureFromFunc(mc.typ)
		if err != nil {
			return fmt.Errorf("%s: %s.%s: %w", d.Pos, class, mc.name, err)
		}
		if !r.Explicit {
			r.Params = params
		}
		if r.Modifiers.ReturnType == "" && ret != "void" && !isCtor {
			r.Modifiers.ReturnType = ret
		}
	}
	if r.Name == "" && !isCtor {
		return fmt.Errorf("%s: %w: meta:%s needs a name", d.Pos, ErrBadDirective, d.Kind)
	}
	return c.Add(r)
}

func (s *Scanner) enum(c *collector.Collector, class string, d *Directive, consts map[string][]constEnumerator) error {
	if d.Name == "" {
		return fmt.Errorf("%s: %w: meta:%s needs a name", d.Pos, ErrBadDirective, d.Kind)
	}
	r := collector.Request{
		Class:     class,
		Category:  metaobject.CategoryEnum,
		Name:      d.Name,
		Pos:       d.Pos,
		Modifiers: collector.Modifiers{Flag: d.Kind == "flag"},
	}
	for _, arg := range d.Args {
		if arg != "scoped" {
			return fmt.Errorf("%s: %w: unknown enum modifier %q", d.Pos, ErrBadDirective, arg)
		}
		r.Modifiers.Scoped = true
	}
	for k, v := range d.Mods {
		if k != "alias" {
			return fmt.Errorf("%s: %w: unknown enum modifier %q", d.Pos, ErrBadDirective, k)
		}
		r.Modifiers.Alias = v
	}

	if d.Group == "" {
		ces, ok := consts[d.Name]
		if !ok {
			return fmt.Errorf("%s: %w %s", d.Pos, ErrUnknownEnumType, d.Name)
		}
		for _, ce := range ces {
			en := enumres.Enumerator{Name: ce.name, Pos: ce.pos}
			if ce.src != "" {
				expr, err := enumres.ParseGoExpr(ce.src)
				if err != nil {
					return fmt.Errorf("%s: const %s: %w", ce.pos, ce.name, err)
				}
				en.Expr = expr
			}
			r.Enumerators = append(r.Enumerators, en)
		}
		return c.Add(r)
	}

	pairs, err := enumeratorList(d.Group)
	if err != nil {
		return fmt.Errorf("%s: %w: %v", d.Pos, ErrBadDirective, err)
	}
	for _, p := range pairs {
		en := enumres.Enumerator{Name: p[0], Pos: d.Pos}
		if p[1] != "" {
			if en.Expr, err = enumres.ParseGoExpr(p[1]); err != nil {
				return fmt.Errorf("%s: enum %s: %s: %w", d.Pos, d.Name, p[0], err)
			}
		}
		r.Enumerators = append(r.Enumerators, en)
	}
	return c.Add(r)
}

// constEnumerator is one constant of a typed const block. Its initializer is
// only parsed when an enum directive names the block's type.
type constEnumerator struct {
	name string
	pos  string
	src  string // empty for implicit values
}

// constEnums collects typed const blocks: a block whose first spec has an
// explicit type contributes all of its constants to that type. iota and
// implicit repetition follow the Go rules.
func (s *Scanner) constEnums() map[string][]constEnumerator {
	out := make(map[string][]constEnumerator)
	for _, file := range s.files {
		for _, decl := range file.Decls {
			gd, ok := decl.(*ast.GenDecl)
			if !ok || gd.Tok != token.CONST || len(gd.Specs) == 0 {
				continue
			}
			first := gd.Specs[0].(*ast.ValueSpec)
			typ, ok := first.Type.(*ast.Ident)
			if !ok {
				continue
			}

			var last []ast.Expr
			for i, spec := range gd.Specs {
				vs := spec.(*ast.ValueSpec)
				if len(vs.Values) > 0 {
					last = vs.Values
				}
				for j, name := range vs.Names {
					if name.Name == "_" {
						continue
					}
					ce := constEnumerator{name: name.Name, pos: s.fset.Position(name.Pos()).String()}
					if j < len(last) {
						ce.src = iotaPattern.ReplaceAllString(types.ExprString(last[j]), strconv.Itoa(i))
					}
					out[typ.Name] = append(out[typ.Name], ce)
				}
			}
		}
	}
	return out
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
