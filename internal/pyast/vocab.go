package pyast

import (
	_ "embed"
	"strconv"
	"strings"
)

// builtins are the builtin function names of Python 3.8.1.
var builtins = []string{
	"abs", "all", "any", "ascii", "bin", "bool", "breakpoint", "bytearray",
	"bytes", "callable", "chr", "classmethod", "compile", "complex",
	"delattr", "dict", "dir", "divmod", "enumerate", "eval", "exec",
	"filter", "float", "format", "frozenset", "getattr", "globals",
	"hasattr", "hash", "help", "hex", "id", "input", "int", "isinstance",
	"issubclass", "iter", "len", "list", "locals", "map", "max",
	"memoryview", "min", "next", "object", "oct", "open", "ord", "pow",
	"print", "property", "range", "repr", "reversed", "round", "set",
	"setattr", "slice", "sorted", "staticmethod", "str", "sum", "super",
	"tuple", "type", "vars", "zip", "__import__",
}

//go:embed stdlib.txt
var stdlibText string

// Builtins returns a copy of the builtin function names.
func Builtins() []string {
	out := make([]string, len(builtins))
	copy(out, builtins)
	return out
}

// StdlibModules returns the top-level standard library module names.
func StdlibModules() []string {
	var out []string
	for _, line := range strings.Split(stdlibText, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

// ImportRef is one import statement as seen by module resolution.
type ImportRef struct {
	Module string
	Names  []string
	Level  int
	From   bool
}

// Imports collects the import statements under root in source order.
// Plain imports yield one ref per alias; from-imports yield one ref with
// every imported symbol.
func Imports(root *Node) []ImportRef {
	var refs []ImportRef
	Walk(root, func(n *Node) bool {
		switch n.Kind {
		case Import:
			for _, a := range n.Nodes("names") {
				name, _ := a.Ident("name")
				refs = append(refs, ImportRef{Module: name})
			}
			return false
		case ImportFrom:
			ref := ImportRef{From: true}
			ref.Module, _ = n.Ident("module")
			if lvl, ok := n.Field("level").(Scalar); ok {
				ref.Level, _ = strconv.Atoi(lvl.Text)
			}
			for _, a := range n.Nodes("names") {
				name, _ := a.Ident("name")
				ref.Names = append(ref.Names, name)
			}
			refs = append(refs, ref)
			return false
		}
		return true
	})
	return refs
}
