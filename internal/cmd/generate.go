package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/Alia5/metagen/internal/codegen"
	"github.com/Alia5/metagen/internal/collector"
	"github.com/Alia5/metagen/internal/log"
	"github.com/Alia5/metagen/internal/manifest"
	"github.com/Alia5/metagen/internal/scanner"
	"github.com/Alia5/metagen/metaobject"
)

// Inputs selects the declarations of a run and the layout they target.
type Inputs struct {
	Paths    []string `arg:"" optional:"" name:"input" help:"Go files, Go package directories, manifest files (.hcl, .hcl.json) or manifest directories" type:"path"`
	Packages []string `help:"Go package patterns to load with the go tool, e.g. ./..." env:"METAGEN_PACKAGES"`
	Dir      string   `help:"Directory package patterns are resolved in" default:"." type:"path" env:"METAGEN_DIR"`
	Manifest []string `help:"Additional manifest files" type:"path" env:"METAGEN_MANIFEST"`
	Layout   string   `help:"Target layout, e.g. rev8/ptr8/le or rev7" default:"rev8/ptr8/le" env:"METAGEN_LAYOUT"`
}

type Generate struct {
	Inputs  `embed:""`
	Package string `help:"Package clause of the generated Go file; empty disables it" env:"METAGEN_PACKAGE"`
	Output  string `help:"Output directory" default:"." type:"path" env:"METAGEN_OUTPUT"`
	GoFile  string `help:"Name of the generated Go file" default:"zz_generated_meta.go" env:"METAGEN_GO_FILE"`
	Blobs   bool   `help:"Write one raw <Class>.metaobj blob per class" env:"METAGEN_BLOBS"`
	Listing bool   `help:"Write one <Class>.listing.txt per class" env:"METAGEN_LISTING"`
	DryRun  bool   `help:"Compile and report without writing any file"`
}

// Run is called by Kong when the generate command is executed.
func (g *Generate) Run(logger *slog.Logger, blobs log.BlobLogger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return g.Execute(ctx, logger, blobs)
}

func (g *Generate) Execute(ctx context.Context, logger *slog.Logger, blobs log.BlobLogger) error {
	layout, err := metaobject.ParseLayout(g.Layout)
	if err != nil {
		return err
	}
	logger.Info("Starting metagen", "layout", layout, "output", g.Output)

	sources, err := g.Load(ctx, logger)
	if err != nil {
		return err
	}

	gen := codegen.New(logger, blobs, codegen.Options{
		Layout:    layout,
		Package:   g.Package,
		OutputDir: g.Output,
		GoFile:    g.GoFile,
		Blobs:     g.Blobs,
		Listing:   g.Listing,
	})
	res, err := gen.Generate(sources...)
	if err != nil {
		return err
	}
	if len(res.Files) == 0 {
		logger.Warn("Nothing to write; set --package, --blobs or --listing")
	}
	if g.DryRun {
		for _, f := range res.Files {
			logger.Info("Would write", "path", f.Path, "bytes", len(f.Data))
		}
		return nil
	}
	if err := res.Write(logger); err != nil {
		return err
	}
	logger.Info("Generated meta-objects", "classes", len(res.Classes), "files", len(res.Files))
	return nil
}

// Load splits the inputs between the Go scanner and the manifest reader.
func (in *Inputs) Load(ctx context.Context, logger *slog.Logger) ([]collector.Source, error) {
	sc := scanner.New(logger)
	mf := manifest.New(logger)

	for _, path := range append(append([]string(nil), in.Paths...), in.Manifest...) {
		if isManifest(path) {
			if err := mf.AddFile(path); err != nil {
				return nil, err
			}
			continue
		}
		st, err := os.Stat(path)
		if err != nil {
			return nil, err
		}
		if !st.IsDir() {
			if !strings.HasSuffix(path, ".go") {
				return nil, fmt.Errorf("unsupported input %s", path)
			}
			src, err := os.ReadFile(path)
			if err != nil {
				return nil, err
			}
			if err := sc.AddSource(path, src); err != nil {
				return nil, err
			}
			continue
		}
		// A directory may hold Go sources, manifests or both.
		if err := sc.AddDir(path); err != nil {
			return nil, err
		}
		if err := mf.AddDir(path); err != nil {
			return nil, err
		}
	}

	if len(in.Packages) > 0 {
		if err := sc.AddPackages(ctx, in.Dir, in.Packages...); err != nil {
			return nil, err
		}
	}
	if sc.Files() == 0 && mf.Files() == 0 {
		return nil, fmt.Errorf("no input files")
	}
	logger.Debug("Loaded inputs", "goFiles", sc.Files(), "manifests", mf.Files())
	return []collector.Source{sc, mf}, nil
}

func isManifest(path string) bool {
	return strings.HasSuffix(path, ".hcl") || strings.HasSuffix(path, ".hcl.json")
}
