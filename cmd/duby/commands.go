package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/funvibe/duby/internal/ast"
	"github.com/funvibe/duby/internal/bytecode"
	"github.com/funvibe/duby/internal/catalog"
	"github.com/funvibe/duby/internal/compiler"
	"github.com/funvibe/duby/internal/types"
)

var errUsage = errors.New("invalid arguments")

func runIntrinsics(u *types.Universe, args []string) error {
	ts, err := parseTypes(u, args)
	if err != nil {
		return err
	}
	return catalog.WriteText(os.Stdout, catalog.Collect(ts...))
}

func runLookup(u *types.Universe, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("%w: lookup <type> <name> [param...]", errUsage)
	}
	target, err := u.Parse(args[0])
	if err != nil {
		return err
	}
	params, err := parseParams(u, args[2:])
	if err != nil {
		return err
	}
	in, ok := target.Intrinsics().Lookup(args[1], params...)
	if !ok {
		return fmt.Errorf("%w: no intrinsic %s%s on %s", types.ErrNoMethod, args[1], types.SignatureKey(params), target.Name())
	}
	fmt.Println(in)
	return nil
}

func parseParams(u *types.Universe, names []string) ([]types.Type, error) {
	params := make([]types.Type, len(names))
	for i, name := range names {
		t, err := u.Parse(name)
		if err != nil {
			return nil, err
		}
		params[i] = t
	}
	return params, nil
}

// runEmit compiles a static stub method whose parameters are the receiver
// and the call's arguments. In expression context the call's value is
// assigned to a local so that it is consumed.
func runEmit(u *types.Universe, args []string) error {
	expression := true
	hex := false
	for len(args) > 0 && strings.HasPrefix(args[0], "-") {
		switch args[0] {
		case "-stmt":
			expression = false
		case "-hex":
			hex = true
		default:
			return fmt.Errorf("%w: unknown flag %s", errUsage, args[0])
		}
		args = args[1:]
	}
	if len(args) < 2 {
		return fmt.Errorf("%w: emit [-stmt] [-hex] <type> <name> [param...]", errUsage)
	}

	decl := &ast.MethodDecl{
		Name:   "stub",
		Static: true,
		Params: []ast.Param{{Name: "recv", Type: args[0]}},
	}
	call := &ast.Call{Target: &ast.Local{Name: "recv"}, Name: args[1]}
	for i, p := range args[2:] {
		name := fmt.Sprintf("p%d", i)
		decl.Params = append(decl.Params, ast.Param{Name: name, Type: p})
		call.Params = append(call.Params, &ast.Local{Name: name})
	}
	var body ast.Expression = call
	if expression {
		body = &ast.Assign{Name: "result", Value: call}
	}
	decl.Body = &ast.Block{Body: []ast.Expression{body}}

	c := compiler.New(u)
	code, err := c.CompileMethod(decl)
	if err != nil {
		return err
	}
	listing := bytecode.Disassemble(code, call.String())
	if useColor(os.Stdout) {
		listing = colorize(listing)
	}
	fmt.Print(listing)

	if hex {
		raw, err := bytecode.Assemble(code)
		if err != nil {
			return err
		}
		fmt.Printf("% x\n", raw)
	}
	return nil
}

func runExport(u *types.Universe, args []string) error {
	format := "text"
	out := ""
	for len(args) > 0 && strings.HasPrefix(args[0], "-") {
		if len(args) < 2 {
			return fmt.Errorf("%w: %s needs a value", errUsage, args[0])
		}
		switch args[0] {
		case "-format":
			format = args[1]
		case "-o":
			out = args[1]
		default:
			return fmt.Errorf("%w: unknown flag %s", errUsage, args[0])
		}
		args = args[2:]
	}
	ts, err := parseTypes(u, args)
	if err != nil {
		return err
	}
	entries := catalog.Collect(ts...)

	if format == "sqlite" {
		if out == "" {
			return fmt.Errorf("%w: sqlite export needs -o", errUsage)
		}
		runID, err := catalog.SaveSQLite(context.Background(), out, entries)
		if err != nil {
			return err
		}
		fmt.Println(runID)
		return nil
	}

	if out == "" {
		return writeExport(os.Stdout, format, entries)
	}
	f, err := os.Create(out)
	if err != nil {
		return err
	}
	return writeAndClose(f, func(w io.Writer) error {
		return writeExport(w, format, entries)
	})
}

// writeAndClose runs write against wc and closes it, reporting the first
// error of the two.
func writeAndClose(wc io.WriteCloser, write func(io.Writer) error) error {
	if err := write(wc); err != nil {
		wc.Close()
		return err
	}
	return wc.Close()
}

func writeExport(w io.Writer, format string, entries []catalog.Entry) error {
	switch format {
	case "text":
		return catalog.WriteText(w, entries)
	case "yaml":
		return catalog.WriteYAML(w, entries)
	case "proto":
		data, err := catalog.EncodeProto(entries)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	case "schema":
		src, err := catalog.Schema()
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, src)
		return err
	}
	return fmt.Errorf("%w: unknown format %q", errUsage, format)
}
