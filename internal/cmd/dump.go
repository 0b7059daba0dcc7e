package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"

	"golang.org/x/term"

	"github.com/Alia5/metagen/internal/codegen"
	"github.com/Alia5/metagen/metaobject"
)

var ErrBinaryToTerminal = errors.New("refusing to write binary data to a terminal; use --output")

type Dump struct {
	Inputs `embed:""`
	Format string   `help:"Output format" enum:"text,json,yaml,toml,blob" default:"text" env:"METAGEN_DUMP_FORMAT"`
	Class  []string `help:"Only dump these classes"`
	Output string   `help:"Write to this file instead of stdout" type:"path"`
}

// Run is called by Kong when the dump command is executed.
func (d *Dump) Run(logger *slog.Logger) error {
	w, closeFn, err := d.writer()
	if err != nil {
		return err
	}
	defer closeFn()
	return d.Execute(context.Background(), logger, w, isTerminal(w))
}

// Execute compiles the inputs and writes the selected classes to w. Blob
// output is refused when tty is set.
func (d *Dump) Execute(ctx context.Context, logger *slog.Logger, w io.Writer, tty bool) error {
	if d.Format == "blob" && tty {
		return ErrBinaryToTerminal
	}
	layout, err := metaobject.ParseLayout(d.Layout)
	if err != nil {
		return err
	}
	sources, err := d.Load(ctx, logger)
	if err != nil {
		return err
	}
	classes, err := codegen.New(logger, nil, codegen.Options{Layout: layout}).Compile(sources...)
	if err != nil {
		return err
	}

	var mos []*metaobject.MetaObject
	for _, c := range classes {
		if len(d.Class) == 0 || slices.Contains(d.Class, c.MetaObject.ClassName) {
			mos = append(mos, c.MetaObject)
		}
	}
	if len(mos) == 0 {
		return fmt.Errorf("no class matches %v", d.Class)
	}

	if d.Format != "blob" {
		return codegen.WriteSummary(w, d.Format, mos...)
	}
	for _, mo := range mos {
		blob, err := mo.MarshalBinary()
		if err != nil {
			return err
		}
		if _, err := w.Write(blob); err != nil {
			return err
		}
	}
	return nil
}

func (d *Dump) writer() (io.Writer, func(), error) {
	if d.Output == "" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(d.Output)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { _ = f.Close() }, nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
