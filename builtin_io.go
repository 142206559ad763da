package orb

// ---- printing and file primitives ---------------------------------------
//
// Printing goes through the runtime's output sink so embedders can
// redirect it. read/write/import block the caller; failures carry the
// offending path. import evaluates the file's contents in the caller's
// environment, so definitions land where the import happens.

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func registerIOPrimitives(rt *Runtime) {
	rt.AddPrimitive("println", opPrintln)
	rt.AddPrimitive("printf", opPrintf)
	rt.AddPrimitive("str", opStr)
	rt.AddPrimitive("read", opRead)
	rt.AddPrimitive("write", opWrite)
	rt.AddPrimitive("import", opImport)
}

func opStr(_ *Runtime, args []Value, _ *Env) (Value, error) {
	var b strings.Builder
	for _, a := range args {
		b.WriteString(DisplayValue(a))
	}
	return Str(b.String()), nil
}

func opPrintln(rt *Runtime, args []Value, _ *Env) (Value, error) {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = DisplayValue(a)
	}
	fmt.Fprintln(rt.out, strings.Join(parts, " "))
	return Nil, nil
}

func opPrintf(rt *Runtime, args []Value, _ *Env) (Value, error) {
	if len(args) == 0 || args[0].Tag != VTStr {
		return Nil, evalErrf("printf: first argument must be a format string")
	}
	rest := make([]any, len(args)-1)
	for i, a := range args[1:] {
		rest[i] = nativeArg(a)
	}
	fmt.Fprintf(rt.out, args[0].Data.(string), rest...)
	return Nil, nil
}

// nativeArg unwraps scalars so Go formatting verbs behave naturally;
// composites format through DisplayValue.
func nativeArg(v Value) any {
	switch v.Tag {
	case VTBool:
		return v.Data.(bool)
	case VTInt:
		return v.Data.(int64)
	case VTFloat:
		return v.Data.(float64)
	case VTStr, VTSymbol:
		return v.Data.(string)
	default:
		return DisplayValue(v)
	}
}

// ioPath converts a program-side path (always '/'-separated) to the host
// form. The conversion happens only here, at the I/O boundary.
func ioPath(v Value) (string, bool) {
	if v.Tag != VTStr {
		return "", false
	}
	return filepath.FromSlash(v.Data.(string)), true
}

func opRead(_ *Runtime, args []Value, _ *Env) (Value, error) {
	if len(args) != 1 {
		return Nil, evalErrf("read: expected a path")
	}
	path, ok := ioPath(args[0])
	if !ok {
		return Nil, evalErrf("read: path must be a string")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Nil, evalErrf("read: cannot read %s", args[0].Data.(string))
	}
	return Str(string(data)), nil
}

func opWrite(_ *Runtime, args []Value, _ *Env) (Value, error) {
	if len(args) != 2 {
		return Nil, evalErrf("write: expected a path and a value")
	}
	path, ok := ioPath(args[0])
	if !ok {
		return Nil, evalErrf("write: path must be a string")
	}
	if err := os.WriteFile(path, []byte(DisplayValue(args[1])), 0o644); err != nil {
		return Nil, evalErrf("write: cannot write %s", args[0].Data.(string))
	}
	return Nil, nil
}

func opImport(rt *Runtime, args []Value, env *Env) (Value, error) {
	if len(args) != 1 {
		return Nil, evalErrf("import: expected a path")
	}
	path, ok := ioPath(args[0])
	if !ok {
		return Nil, evalErrf("import: path must be a string")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Nil, evalErrf("import: cannot read %s", args[0].Data.(string))
	}
	tree, perr := rt.parseSource(string(data))
	if perr != nil {
		return Nil, evalErrf("import: %s: %s", args[0].Data.(string), perr.Error())
	}
	v, eerr := rt.eval(tree, env)
	if eerr != nil {
		return Nil, eerr
	}
	return v, nil
}
