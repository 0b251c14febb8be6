package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"nikand.dev/go/cli"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/slowlang/slowc/compiler"
	"github.com/slowlang/slowc/compiler/analyze"
	"github.com/slowlang/slowc/compiler/build"
	"github.com/slowlang/slowc/compiler/format"
	"github.com/slowlang/slowc/compiler/parse"
)

func main() {
	parseCmd := &cli.Command{
		Name:        "parse",
		Description: "print the parsed program",
		Action:      parseAct,
		Args:        cli.Args{},
	}

	irCmd := &cli.Command{
		Name:        "ir",
		Description: "print the intermediate representation",
		Action:      irAct,
		Args:        cli.Args{},
	}

	asmCmd := &cli.Command{
		Name:        "asm",
		Description: "print nasm x86-64 assembly",
		Action:      asmAct,
		Args:        cli.Args{},
	}

	buildCmd := &cli.Command{
		Name:        "build",
		Description: "compile, assemble and link an executable",
		Action:      buildAct,
		Args:        cli.Args{},
		Flags: []*cli.Flag{
			cli.NewFlag("output,o", "", "output executable (default: source name without extension)"),
			cli.NewFlag("keep", false, "keep .asm and .o files next to the output"),
			cli.NewFlag("nasm", build.Default.Nasm, "assembler"),
			cli.NewFlag("ld", build.Default.Ld, "linker"),
		},
	}

	app := &cli.Command{
		Name:        "slowc",
		Description: "slowc compiles slow programs to x86-64 linux executables",
		Before:      before,
		Flags: []*cli.Flag{
			cli.NewFlag("v", "", "tlog verbosity topics (dump_ir, dump_asm, ...)"),
			cli.HelpFlag,
		},
		Commands: []*cli.Command{
			parseCmd,
			irCmd,
			asmCmd,
			buildCmd,
		},
	}

	cli.RunAndExit(app, os.Args, os.Environ())
}

// compileFile prints analysis diagnostics one per line to stdout
// and exits with status 1 if there are any.
func compileFile(ctx context.Context, name string) (*compiler.Result, error) {
	res, err := compiler.CompileFile(ctx, name)

	var ds analyze.Diagnostics
	if errors.As(err, &ds) {
		for _, d := range ds {
			fmt.Printf("%s:%v\n", name, d)
		}

		os.Exit(1)
	}

	if err != nil {
		return nil, errors.Wrap(err, "compile %v", name)
	}

	return res, nil
}

func before(c *cli.Command) error {
	if v := c.String("v"); v != "" {
		tlog.SetVerbosity(v)
	}

	return nil
}

func newContext() context.Context {
	ctx := context.Background()
	return tlog.ContextWithSpan(ctx, tlog.Root())
}

func parseAct(c *cli.Command) (err error) {
	ctx := newContext()

	for _, a := range c.Args {
		x, err := parse.ParseFile(ctx, a)
		if err != nil {
			return errors.Wrap(err, "parse %v", a)
		}

		b, err := format.Format(ctx, nil, x)
		if err != nil {
			return errors.Wrap(err, "format %v", a)
		}

		_, err = os.Stdout.Write(b)
		if err != nil {
			return errors.Wrap(err, "write")
		}
	}

	return nil
}

func irAct(c *cli.Command) (err error) {
	ctx := newContext()

	for _, a := range c.Args {
		res, err := compileFile(ctx, a)
		if err != nil {
			return err
		}

		_, err = os.Stdout.WriteString(res.IR.String())
		if err != nil {
			return errors.Wrap(err, "write")
		}
	}

	return nil
}

func asmAct(c *cli.Command) (err error) {
	ctx := newContext()

	for _, a := range c.Args {
		res, err := compileFile(ctx, a)
		if err != nil {
			return err
		}

		_, err = os.Stdout.Write(res.Asm)
		if err != nil {
			return errors.Wrap(err, "write")
		}
	}

	return nil
}

func buildAct(c *cli.Command) (err error) {
	ctx := newContext()

	if len(c.Args) != 1 {
		return errors.New("expected exactly one source file, got %d", len(c.Args))
	}

	src := c.Args[0]

	out := c.String("output")
	if out == "" {
		out = strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	}

	if out == src {
		out += ".out"
	}

	res, err := compileFile(ctx, src)
	if err != nil {
		return err
	}

	err = build.Build(ctx, res.Asm, out, build.Options{
		Nasm: c.String("nasm"),
		Ld:   c.String("ld"),
		Keep: c.Bool("keep"),
	})
	if err != nil {
		return errors.Wrap(err, "build %v", src)
	}

	return nil
}
