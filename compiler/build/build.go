package build

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"
)

type (
	Options struct {
		Nasm string
		Ld   string

		// Keep leaves the .asm and .o files next to Output.
		Keep bool
	}

	ToolError struct {
		Tool   string
		Output []byte
		Err    error
	}
)

var Default = Options{
	Nasm: "nasm",
	Ld:   "ld",
}

// Build assembles asm text with nasm and links it into the output executable.
func Build(ctx context.Context, asm []byte, output string, opts Options) (err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "build", "output", output)
	defer tr.Finish("err", &err)

	if opts.Nasm == "" {
		opts.Nasm = Default.Nasm
	}

	if opts.Ld == "" {
		opts.Ld = Default.Ld
	}

	base := strings.TrimSuffix(output, filepath.Ext(output))

	if !opts.Keep {
		var dir string

		dir, err = os.MkdirTemp("", "slowc")
		if err != nil {
			return errors.Wrap(err, "make temp dir")
		}

		defer func() {
			e := os.RemoveAll(dir)
			if err == nil && e != nil {
				err = errors.Wrap(e, "remove temp dir")
			}
		}()

		base = filepath.Join(dir, filepath.Base(base))
	}

	src := base + ".asm"
	obj := base + ".o"

	err = os.WriteFile(src, asm, 0o644)
	if err != nil {
		return errors.Wrap(err, "write asm")
	}

	err = run(ctx, opts.Nasm, "-f", "elf64", "-o", obj, src)
	if err != nil {
		return errors.Wrap(err, "assemble")
	}

	err = run(ctx, opts.Ld, "-o", output, obj)
	if err != nil {
		return errors.Wrap(err, "link")
	}

	tr.Printw("built", "asm", src, "obj", obj, "keep", opts.Keep)

	return nil
}

// Available reports whether both tools are found in PATH.
func (o Options) Available() bool {
	for _, t := range []string{o.Nasm, o.Ld} {
		if _, err := exec.LookPath(t); err != nil {
			return false
		}
	}

	return true
}

func run(ctx context.Context, name string, args ...string) error {
	var out bytes.Buffer

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &out
	cmd.Stderr = &out

	if tr := tlog.SpanFromContext(ctx); tr.If("build_cmd") {
		tr.Printw("run", "cmd", name, "args", args)
	}

	err := cmd.Run()
	if err != nil {
		return ToolError{Tool: name, Output: out.Bytes(), Err: err}
	}

	return nil
}

func (e ToolError) Error() string {
	out := strings.TrimSpace(string(e.Output))
	if out == "" {
		return e.Tool + ": " + e.Err.Error()
	}

	return e.Tool + ": " + e.Err.Error() + ": " + out
}

func (e ToolError) Unwrap() error { return e.Err }
