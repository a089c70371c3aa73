package cast

import (
	"errors"
	"log/slog"

	"github.com/jward/bonsai/internal/pyast"
)

var (
	// ErrUnsupportedImport is returned when the import rule meets a kind
	// other than Import or ImportFrom.
	ErrUnsupportedImport = errors.New("cast: unsupported node in import rule")
	// ErrNotModule is returned when the build root is not a Module.
	ErrNotModule = errors.New("cast: root is not a Module")
)

// rule handles one node whose reduced counterpart already exists. It
// reports whether the traversal continues into the node's children.
type rule func(b *build, n *Node) (bool, error)

// Builder turns source trees into reduced trees. A Builder holds only
// read-only state and can run many builds concurrently.
type Builder struct {
	classifier *Classifier
	logger     *slog.Logger
	metadata   bool
	rules      map[pyast.Kind]rule
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithLogger sets the diagnostics sink for builds.
func WithLogger(l *slog.Logger) BuilderOption {
	return func(b *Builder) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithMetadata controls whether each node records the generic dump of its
// source node as parsed. Enabled by default.
func WithMetadata(on bool) BuilderOption {
	return func(b *Builder) {
		b.metadata = on
	}
}

// NewBuilder creates a Builder classifying identifiers with c.
func NewBuilder(c *Classifier, opts ...BuilderOption) *Builder {
	b := &Builder{
		classifier: c,
		logger:     slog.New(slog.DiscardHandler),
		metadata:   true,
		rules:      customRules(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// build is the state of one Build call.
type build struct {
	*Builder
	origins *Classifier
	aliases AliasTable
	tree    *Tree
}

// Build converts root into a reduced tree.
func (b *Builder) Build(root *pyast.Node) (*Tree, error) {
	st, err := b.run(root, b.classifier)
	if err != nil {
		return nil, err
	}
	return st.tree, nil
}

// BuildWith converts root classifying against c instead of the Builder's
// own classifier. Used when the system set is resolved per file.
func (b *Builder) BuildWith(root *pyast.Node, c *Classifier) (*Tree, error) {
	st, err := b.run(root, c)
	if err != nil {
		return nil, err
	}
	return st.tree, nil
}

func (b *Builder) run(root *pyast.Node, c *Classifier) (*build, error) {
	if root == nil || root.Kind != pyast.Module {
		return nil, ErrNotModule
	}
	if c == nil {
		c = NewClassifier(nil, nil)
	}

	rootNode := newNode(root)
	st := &build{
		Builder: b,
		origins: c,
		aliases: make(AliasTable),
		tree:    &Tree{Root: rootNode, index: map[*pyast.Node]*Node{root: rootNode}},
	}

	// Dumps are taken from the source as parsed, before any rule rewrites
	// it. One pass serves every node.
	var dumps map[*pyast.Node]map[string]any
	if b.metadata {
		dumps = pyast.FormatAll(root)
	}

	// Pre-order over an explicit stack: each reduced node already exists,
	// created by its parent, when it is popped.
	stack := []*Node{rootNode}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		var (
			descend bool
			err     error
		)
		if r, ok := b.rules[n.Source.Kind]; ok {
			descend, err = r(st, n)
			if err != nil {
				return nil, err
			}
		} else {
			descend = st.defaultRule(n)
		}
		if dumps != nil {
			n.Metadata = dumps[n.Source]
		}

		if descend {
			for i := len(n.Children) - 1; i >= 0; i-- {
				stack = append(stack, n.Children[i])
			}
		}
	}
	return st, nil
}

// defaultRule creates reduced nodes for every source child of n, or turns n
// into a leaf carrying the flattened generic dump. The root never carries a
// dump.
func (b *build) defaultRule(n *Node) bool {
	if b.bindChildren(n) > 0 {
		return true
	}
	if n.Parent != nil {
		n.Attributes = pyast.FormatArgs(n.Source)
		n.IsDefaultAttributes = true
	}
	return false
}

// bindChildren creates and indexes a reduced node for each source child.
func (b *build) bindChildren(n *Node) int {
	kids := pyast.Children(n.Source)
	for _, src := range kids {
		c := newNode(src)
		n.AddChild(c)
		b.tree.index[src] = c
	}
	return len(kids)
}

func (b *build) setCustom(n *Node, attrs ...any) {
	n.Attributes = attrs
	n.IsDefaultAttributes = false
}
