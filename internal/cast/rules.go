package cast

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jward/bonsai/internal/pyast"
)

// customRules is the dispatch table. Kinds without an entry use the default
// rule.
func customRules() map[pyast.Kind]rule {
	return map[pyast.Kind]rule{
		pyast.Import:     (*build).importRule,
		pyast.ImportFrom: (*build).importRule,
		pyast.Name:       (*build).nameRule,
		pyast.Call:       (*build).callRule,
		pyast.Keyword:    (*build).keywordRule,
		pyast.Attribute:  (*build).attributeRule,
	}
}

// importRule records {origin} and {name} for every imported symbol and
// saves aliases. Import statements are forced leaves.
func (b *build) importRule(n *Node) (bool, error) {
	src := n.Source
	var module string
	switch src.Kind {
	case pyast.Import:
	case pyast.ImportFrom:
		module = fromModule(src)
	default:
		return false, fmt.Errorf("%w: %s", ErrUnsupportedImport, src.Kind)
	}

	aliases := src.Nodes("names")
	attrs := make([]any, 0, 2*len(aliases))
	for _, a := range aliases {
		name, _ := a.Ident("name")
		if asname, ok := a.Ident("asname"); ok {
			b.aliases.Set(asname, name)
			b.logger.Debug("saved alias", "alias", asname, "original", name)
		}
		qualified := name
		if src.Kind == pyast.ImportFrom {
			qualified = module + "." + name
		}
		attrs = append(attrs,
			Record{{Key: "origin", Value: b.origins.Classify(name)}},
			Record{{Key: "name", Value: qualified}},
		)
	}
	b.setCustom(n, attrs...)
	return false, nil
}

// fromModule returns the module of a from-import with its relative dots.
func fromModule(src *pyast.Node) string {
	module, _ := src.Ident("module")
	if lvl, ok := src.Field("level").(pyast.Scalar); ok {
		level, _ := strconv.Atoi(lvl.Text)
		module = strings.Repeat(".", level) + module
	}
	return module
}

// nameRule records {id, ctx}. Names are forced leaves.
func (b *build) nameRule(n *Node) (bool, error) {
	src := n.Source
	id := pyast.None.Repr()
	if s, ok := src.Field("id").(pyast.Scalar); ok {
		id = s.Repr()
	}
	ctx := string(pyast.Load)
	if c := src.Child("ctx"); c != nil {
		ctx = string(c.Kind)
	}
	b.setCustom(n, Record{{Key: "id", Value: id}, {Key: "ctx", Value: ctx}})
	return false, nil
}

// callRule classifies the callee after one alias lookup and rewrites the
// callee name to the resolved spelling.
func (b *build) callRule(n *Node) (bool, error) {
	origin := OriginUnknown
	if callee := n.Source.Child("func"); callee != nil && callee.Kind == pyast.Name {
		id, _ := callee.Ident("id")
		resolved := b.aliases.Resolve(id)
		origin = b.origins.Classify(resolved)
		if resolved != id {
			callee.SetField("id", pyast.String(resolved))
		}
		b.logger.Debug("classified call", "callee", id, "resolved", resolved, "origin", string(origin))
	}
	b.setCustom(n, Record{{Key: "origin", Value: origin}})
	b.bindChildren(n)
	return true, nil
}

// keywordRule records {arg} and continues into the value.
func (b *build) keywordRule(n *Node) (bool, error) {
	b.setCustom(n, Record{{Key: "arg", Value: rawField(n.Source, "arg")}})
	b.bindChildren(n)
	return true, nil
}

// attributeRule records {attr} and continues into the base expression.
func (b *build) attributeRule(n *Node) (bool, error) {
	b.setCustom(n, Record{{Key: "attr", Value: rawField(n.Source, "attr")}})
	b.bindChildren(n)
	return true, nil
}

// rawField returns a str field as plain text, or nil for None.
func rawField(src *pyast.Node, name string) any {
	if s, ok := src.Ident(name); ok {
		return s
	}
	return nil
}
