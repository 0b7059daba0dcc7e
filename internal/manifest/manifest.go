// Package manifest reads class declarations from HCL files. It is the
// declarative alternative to annotating Go source and feeds the same
// collector.
//
//	object "MyObject" {
//	  super = "QObject"
//
//	  signal "mySignal" {
//	    params = "(const QString &name)"
//	  }
//	  slot "mySlot" {
//	    params = "(const QString &name)"
//	  }
//	}
//
//	gadget "EnumTutorial" {
//	  enum "MyEnum" {
//	    enumerator "Blue" {}
//	    enumerator "Red" {}
//	    enumerator "Green" {}
//	    enumerator "Yellow" { value = 45 }
//	    enumerator "Violet" { value = Blue + Green * 3 }
//	  }
//	}
//
// Files ending in .json use the HCL JSON syntax.
package manifest

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/Alia5/metagen/internal/collector"
	"github.com/Alia5/metagen/internal/enumres"
	"github.com/Alia5/metagen/metaobject"
)

var ErrInvalidManifest = errors.New("invalid manifest")

var fileSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "object", LabelNames: []string{"name"}},
		{Type: "gadget", LabelNames: []string{"name"}},
	},
}

var classSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "super"},
	},
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "classinfo", LabelNames: []string{"name"}},
		{Type: "signal", LabelNames: []string{"name"}},
		{Type: "slot", LabelNames: []string{"name"}},
		{Type: "invokable", LabelNames: []string{"name"}},
		{Type: "constructor"},
		{Type: "enum", LabelNames: []string{"name"}},
		{Type: "flag", LabelNames: []string{"name"}},
	},
}

var enumSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "alias"},
		{Name: "scoped"},
	},
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "enumerator", LabelNames: []string{"name"}},
	},
}

var enumeratorSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "value"},
	},
}

// memberBody is the body of a signal, slot, invokable or constructor block.
type memberBody struct {
	Params     *string `hcl:"params,optional"`
	Access     *string `hcl:"access,optional"`
	Compat     bool    `hcl:"compat,optional"`
	Scriptable bool    `hcl:"scriptable,optional"`
	Returns    string  `hcl:"returns,optional"`
}

type classInfoBody struct {
	Value string `hcl:"value"`
}

var categories = map[string]metaobject.Category{
	"signal":      metaobject.CategorySignal,
	"slot":        metaobject.CategorySlot,
	"invokable":   metaobject.CategoryInvokable,
	"constructor": metaobject.CategoryConstructor,
}

// Manifest holds parsed HCL files. It implements collector.Source.
type Manifest struct {
	parser *hclparse.Parser
	files  []*hcl.File
	logger *slog.Logger
}

func New(logger *slog.Logger) *Manifest {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manifest{parser: hclparse.NewParser(), logger: logger}
}

// Files returns the number of files added so far.
func (m *Manifest) Files() int { return len(m.files) }

// AddSource parses one manifest from memory.
func (m *Manifest) AddSource(filename string, src []byte) error {
	var (
		f     *hcl.File
		diags hcl.Diagnostics
	)
	if strings.HasSuffix(filename, ".json") {
		f, diags = m.parser.ParseJSON(src, filename)
	} else {
		f, diags = m.parser.ParseHCL(src, filename)
	}
	if diags.HasErrors() {
		return fmt.Errorf("failed to parse manifest %s: %w", filename, diags)
	}
	m.files = append(m.files, f)
	return nil
}

// AddFile parses one manifest file.
func (m *Manifest) AddFile(path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return m.AddSource(path, src)
}

// AddDir parses every .hcl and .hcl.json file of dir in name order.
func (m *Manifest) AddDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read directory %s: %w", dir, err)
	}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !(strings.HasSuffix(name, ".hcl") || strings.HasSuffix(name, ".hcl.json")) {
			continue
		}
		if err := m.AddFile(filepath.Join(dir, name)); err != nil {
			return err
		}
	}
	m.logger.Debug("Loaded manifests", "dir", dir, "files", len(m.files))
	return nil
}

// Declare feeds every block to c in file order.
func (m *Manifest) Declare(c *collector.Collector) error {
	var errs []error
	for _, f := range m.files {
		content, diags := f.Body.Content(fileSchema)
		if diags.HasErrors() {
			errs = append(errs, fmt.Errorf("%w: %w", ErrInvalidManifest, diags))
			continue
		}
		for _, block := range content.Blocks {
			if err := m.declareClass(c, f, block); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

func (m *Manifest) declareClass(c *collector.Collector, f *hcl.File, block *hcl.Block) error {
	class := block.Labels[0]
	content, diags := block.Body.Content(classSchema)
	if diags.HasErrors() {
		return fmt.Errorf("%w: %w", ErrInvalidManifest, diags)
	}

	req := collector.ClassRequest{
		Name: class,
		Kind: metaobject.KindObject,
		Pos:  block.DefRange.String(),
	}
	if block.Type == "gadget" {
		req.Kind = metaobject.KindGadget
	}
	if attr, ok := content.Attributes["super"]; ok {
		if diags := gohcl.DecodeExpression(attr.Expr, nil, &req.SuperClass); diags.HasErrors() {
			return fmt.Errorf("%w: %w", ErrInvalidManifest, diags)
		}
	}
	if err := c.DeclareClass(req); err != nil {
		return err
	}

	var errs []error
	for _, b := range content.Blocks {
		var err error
		switch b.Type {
		case "classinfo":
			err = m.classInfo(c, class, b)
		case "enum", "flag":
			err = m.enum(c, f, class, b)
		default:
			err = m.member(c, class, b)
		}
		if err != nil {
			errs = append(errs, err)
		}
	}
	m.logger.Debug("Declared class", "class", class, "kind", req.Kind, "members", len(content.Blocks))
	return errors.Join(errs...)
}

func (m *Manifest) classInfo(c *collector.Collector, class string, b *hcl.Block) error {
	var body classInfoBody
	if diags := gohcl.DecodeBody(b.Body, nil, &body); diags.HasErrors() {
		return fmt.Errorf("%w: %w", ErrInvalidManifest, diags)
	}
	return c.AddClassInfo(class, b.Labels[0], body.Value, b.DefRange.String())
}

func (m *Manifest) member(c *collector.Collector, class string, b *hcl.Block) error {
	var body memberBody
	if diags := gohcl.DecodeBody(b.Body, nil, &body); diags.HasErrors() {
		return fmt.Errorf("%w: %w", ErrInvalidManifest, diags)
	}

	r := collector.Request{
		Class:    class,
		Category: categories[b.Type],
		Pos:      b.DefRange.String(),
		Modifiers: collector.Modifiers{
			Compat:     body.Compat,
			Scriptable: body.Scriptable,
			ReturnType: body.Returns,
		},
	}
	if len(b.Labels) > 0 {
		r.Name = b.Labels[0]
	}
	if body.Params != nil {
		r.Params, r.Explicit = *body.Params, true
	} else if r.Category == metaobject.CategoryConstructor {
		r.Params, r.Explicit = "()", true
	}
	if body.Access != nil {
		a, ok := metaobject.ParseAccess(*body.Access)
		if !ok {
			return fmt.Errorf("%s: %w: unknown access %q", r.Pos, ErrInvalidManifest, *body.Access)
		}
		r.Modifiers.Access = &a
	}
	return c.Add(r)
}

func (m *Manifest) enum(c *collector.Collector, f *hcl.File, class string, b *hcl.Block) error {
	content, diags := b.Body.Content(enumSchema)
	if diags.HasErrors() {
		return fmt.Errorf("%w: %w", ErrInvalidManifest, diags)
	}

	r := collector.Request{
		Class:     class,
		Category:  metaobject.CategoryEnum,
		Name:      b.Labels[0],
		Pos:       b.DefRange.String(),
		Modifiers: collector.Modifiers{Flag: b.Type == "flag"},
	}
	if attr, ok := content.Attributes["alias"]; ok {
		diags = append(diags, gohcl.DecodeExpression(attr.Expr, nil, &r.Modifiers.Alias)...)
	}
	if attr, ok := content.Attributes["scoped"]; ok {
		diags = append(diags, gohcl.DecodeExpression(attr.Expr, nil, &r.Modifiers.Scoped)...)
	}

	for _, eb := range content.Blocks {
		ec, ediags := eb.Body.Content(enumeratorSchema)
		diags = append(diags, ediags...)
		en := enumres.Enumerator{Name: eb.Labels[0], Pos: eb.DefRange.String()}
		if attr, ok := ec.Attributes["value"]; ok {
			src := string(attr.Expr.Range().SliceBytes(f.Bytes))
			en.Expr = enumres.HCLExpr(attr.Expr, src)
		}
		r.Enumerators = append(r.Enumerators, en)
	}
	if diags.HasErrors() {
		return fmt.Errorf("%w: %w", ErrInvalidManifest, diags)
	}
	return c.Add(r)
}
