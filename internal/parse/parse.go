// Package parse reads Python source with tree-sitter and lowers the concrete
// syntax tree into the pyast model.
package parse

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"github.com/jward/bonsai/internal/pyast"
)

var (
	// ErrSyntax is returned when the source does not parse.
	ErrSyntax = errors.New("parse: syntax error")
	// ErrMode is returned for an unknown compile mode.
	ErrMode = errors.New("parse: unknown mode")
)

// Mode selects what shape of source is accepted.
type Mode string

// Compile modes.
const (
	ModeExec   Mode = "exec"
	ModeEval   Mode = "eval"
	ModeSingle Mode = "single"
)

// ParseMode validates a mode name. The empty string selects exec.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeExec:
		return ModeExec, nil
	case ModeEval, ModeSingle:
		return Mode(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrMode, s)
}

// Source parses src and returns its Module root.
func Source(ctx context.Context, src []byte, mode Mode) (*pyast.Node, error) {
	mode, err := ParseMode(string(mode))
	if err != nil {
		return nil, err
	}

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(python.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("parse: tree-sitter: %w", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		line, col := errorPosition(root)
		return nil, fmt.Errorf("%w at line %d, column %d", ErrSyntax, line, col)
	}

	l := &lowerer{src: src}
	mod := l.module(root)

	body := mod.Nodes("body")
	switch mode {
	case ModeEval:
		if len(body) != 1 || body[0].Kind != pyast.Expr {
			return nil, fmt.Errorf("%w: eval mode expects one expression", ErrSyntax)
		}
	case ModeSingle:
		if len(body) != 1 {
			return nil, fmt.Errorf("%w: single mode expects one statement, got %d", ErrSyntax, len(body))
		}
	}
	return mod, nil
}

// errorPosition returns the 1-based line and 0-based column of the first
// error or missing node.
func errorPosition(root *sitter.Node) (int, int) {
	stack := []*sitter.Node{root}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n.IsError() || n.IsMissing() {
			p := n.StartPoint()
			return int(p.Row) + 1, int(p.Column)
		}
		for i := int(n.ChildCount()) - 1; i >= 0; i-- {
			if c := n.Child(i); c != nil && (c.HasError() || c.IsMissing()) {
				stack = append(stack, c)
			}
		}
	}
	p := root.StartPoint()
	return int(p.Row) + 1, int(p.Column)
}

// lowerer carries the source bytes through one lowering pass.
type lowerer struct {
	src []byte
}

func (l *lowerer) text(n *sitter.Node) string {
	return n.Content(l.src)
}

func (l *lowerer) module(root *sitter.Node) *pyast.Node {
	return pyast.New(pyast.Module, l.stmts(root))
}

// --- concrete tree helpers ---

// named returns the named children of n, dropping comments.
func named(n *sitter.Node) []*sitter.Node {
	count := int(n.NamedChildCount())
	out := make([]*sitter.Node, 0, count)
	for i := 0; i < count; i++ {
		c := n.NamedChild(i)
		if c == nil || c.Type() == "comment" {
			continue
		}
		out = append(out, c)
	}
	return out
}

// fieldAll returns every child of n stored under field.
func fieldAll(n *sitter.Node, field string) []*sitter.Node {
	var out []*sitter.Node
	for i := 0; i < int(n.ChildCount()); i++ {
		if n.FieldNameForChild(i) == field {
			out = append(out, n.Child(i))
		}
	}
	return out
}

// hasToken reports whether n has a direct anonymous child of type tok.
func hasToken(n *sitter.Node, tok string) bool {
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(i)
		if !c.IsNamed() && c.Type() == tok {
			return true
		}
	}
	return false
}

func at(node *pyast.Node, n *sitter.Node) *pyast.Node {
	p := n.StartPoint()
	return node.At(int(p.Row)+1, int(p.Column))
}

func nodes(ns []*pyast.Node) pyast.Seq {
	out := make(pyast.Seq, len(ns))
	for i, n := range ns {
		out[i] = n
	}
	return out
}

func orNone(n *pyast.Node) pyast.Value {
	if n == nil {
		return pyast.None
	}
	return n
}

// camel turns a concrete node type such as print_statement into
// PrintStatement.
func camel(s string) string {
	var b strings.Builder
	for _, part := range strings.Split(s, "_") {
		if part == "" {
			continue
		}
		b.WriteString(strings.ToUpper(part[:1]))
		b.WriteString(part[1:])
	}
	return b.String()
}

// fallback lowers a construct outside the modelled grammar to a generic
// node named after its concrete type.
func (l *lowerer) fallback(n *sitter.Node) *pyast.Node {
	kids := named(n)
	kind := pyast.Kind(camel(n.Type()))
	if len(kids) == 0 {
		return at(pyast.New(kind, pyast.String(l.text(n)), pyast.Seq{}), n)
	}
	body := make(pyast.Seq, 0, len(kids))
	for _, c := range kids {
		if isStatement(c.Type()) {
			body = append(body, l.stmt(c))
			continue
		}
		if c.Type() == "block" {
			body = append(body, l.stmts(c)...)
			continue
		}
		body = append(body, l.expr(c))
	}
	return at(pyast.New(kind, pyast.None, body), n)
}
