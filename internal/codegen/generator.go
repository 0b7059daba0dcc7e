// Package codegen drives the whole pipeline: front ends feed a collector, the
// finished declarations are resolved, built and serialized, and the records
// are rendered into a Go file plus optional raw blobs and listings.
//
// Everything is rendered in memory first; nothing is written unless every
// class of the run succeeded.
package codegen

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Alia5/metagen/internal/builder"
	"github.com/Alia5/metagen/internal/collector"
	"github.com/Alia5/metagen/internal/layout"
	"github.com/Alia5/metagen/internal/log"
	"github.com/Alia5/metagen/metaobject"
)

// DefaultGoFile is the name of the generated Go file.
const DefaultGoFile = "zz_generated_meta.go"

var ErrNoClasses = errors.New("no classes declared")

// Options controls what Generate renders.
type Options struct {
	Layout metaobject.Layout
	// Package is the package clause of the generated Go file.
	Package   string
	OutputDir string
	// GoFile overrides DefaultGoFile. An empty Package disables the Go file.
	GoFile string
	// Blobs emits one <Class>.metaobj file per class.
	Blobs bool
	// Listing emits one <Class>.listing.txt file per class.
	Listing bool
}

// Class is one finished class.
type Class struct {
	Descriptor *metaobject.ClassDescriptor
	MetaObject *metaobject.MetaObject
}

// File is a rendered output file.
type File struct {
	Path string
	Data []byte
}

// Result holds the outcome of a successful run.
type Result struct {
	Classes []Class
	Files   []File
}

type Generator struct {
	opts   Options
	logger *slog.Logger
	blobs  log.BlobLogger
}

// New creates a generator. blobs may be nil; a zero Layout means
// metaobject.DefaultLayout.
func New(logger *slog.Logger, blobs log.BlobLogger, opts Options) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	if blobs == nil {
		blobs = log.NewBlob(nil)
	}
	if opts.GoFile == "" {
		opts.GoFile = DefaultGoFile
	}
	if opts.Layout == (metaobject.Layout{}) {
		opts.Layout = metaobject.DefaultLayout
	}
	return &Generator{opts: opts, logger: logger, blobs: blobs}
}

// Compile runs every source into one collector and turns each class into a
// meta-object. All diagnostics of a stage are reported together.
func (g *Generator) Compile(sources ...collector.Source) ([]Class, error) {
	if err := g.opts.Layout.Validate(); err != nil {
		return nil, err
	}

	c := collector.New()
	var errs []error
	for _, src := range sources {
		errs = append(errs, src.Declare(c))
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	decls, err := c.Finalize()
	if err != nil {
		return nil, err
	}
	if len(decls) == 0 {
		return nil, ErrNoClasses
	}
	g.logger.Info("Collected declarations", "classes", len(decls))

	errs = nil
	classes := make([]Class, 0, len(decls))
	for _, d := range decls {
		cls, err := g.compileClass(d)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		classes = append(classes, cls)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return classes, nil
}

func (g *Generator) compileClass(d *collector.ClassDecls) (Class, error) {
	enums, err := builder.ResolveEnums(d)
	if err != nil {
		return Class{}, err
	}
	cd, err := builder.Build(d, enums)
	if err != nil {
		return Class{}, err
	}
	mo, err := layout.Serialize(cd, g.opts.Layout)
	if err != nil {
		return Class{}, fmt.Errorf("%s: %w", d.Name, err)
	}

	g.logger.Debug("Serialized class",
		"class", cd.Name,
		"kind", cd.Kind,
		"methods", cd.MethodCount(),
		"constructors", len(cd.Constructors),
		"enums", len(cd.Enums),
		"strings", mo.StringCount(),
		"layout", g.opts.Layout)
	g.blobs.Log(cd.Name, "data", mo.DataBytes())
	g.blobs.Log(cd.Name, "stringdata", mo.StringData)
	return Class{Descriptor: cd, MetaObject: mo}, nil
}

// Generate compiles the sources and renders every output file in memory.
func (g *Generator) Generate(sources ...collector.Source) (*Result, error) {
	classes, err := g.Compile(sources...)
	if err != nil {
		return nil, err
	}

	res := &Result{Classes: classes}
	if g.opts.Package != "" {
		src, err := RenderGo(g.opts.Package, classes)
		if err != nil {
			return nil, err
		}
		res.Files = append(res.Files, File{Path: filepath.Join(g.opts.OutputDir, g.opts.GoFile), Data: src})
	}
	for _, cls := range classes {
		base := fileBase(cls.MetaObject.ClassName)
		if g.opts.Blobs {
			blob, err := cls.MetaObject.MarshalBinary()
			if err != nil {
				return nil, err
			}
			res.Files = append(res.Files, File{Path: filepath.Join(g.opts.OutputDir, base+".metaobj"), Data: blob})
		}
		if g.opts.Listing {
			listing, err := Listing(cls.MetaObject)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", cls.MetaObject.ClassName, err)
			}
			res.Files = append(res.Files, File{Path: filepath.Join(g.opts.OutputDir, base+".listing.txt"), Data: listing})
		}
	}
	g.logger.Info("Rendered outputs", "classes", len(classes), "files", len(res.Files))
	return res, nil
}

// Write writes every rendered file, creating directories as needed. Files are
// staged next to their destination first and renamed into place only after
// every file was staged, so a failed run leaves existing outputs untouched.
func (r *Result) Write(logger *slog.Logger) error {
	staged := make([]string, 0, len(r.Files))
	cleanup := func() {
		for _, tmp := range staged {
			_ = os.Remove(tmp)
		}
	}

	for _, f := range r.Files {
		tmp, err := stage(f)
		if err != nil {
			cleanup()
			return err
		}
		staged = append(staged, tmp)
	}

	for i, f := range r.Files {
		if err := os.Rename(staged[i], f.Path); err != nil {
			cleanup()
			return fmt.Errorf("write %s: %w", f.Path, err)
		}
		if logger != nil {
			logger.Debug("Wrote file", "path", f.Path, "bytes", len(f.Data))
		}
	}
	return nil
}

func stage(f File) (string, error) {
	dir := filepath.Dir(f.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(f.Path)+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("write %s: %w", f.Path, err)
	}
	_, werr := tmp.Write(f.Data)
	cerr := tmp.Close()
	if err := errors.Join(werr, cerr); err != nil {
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("write %s: %w", f.Path, err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		_ = os.Remove(tmp.Name())
		return "", err
	}
	return tmp.Name(), nil
}
