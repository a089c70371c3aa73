package bonsai

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	json "github.com/goccy/go-json"

	"github.com/jward/bonsai/internal/cast"
	"github.com/jward/bonsai/internal/eval"
	"github.com/jward/bonsai/internal/parse"
	"github.com/jward/bonsai/internal/pyast"
	"github.com/jward/bonsai/internal/runtime"
	"github.com/jward/bonsai/scripts"
)

// Result is the outcome of compressing one source.
type Result struct {
	Path string
	Tree *cast.Tree
	// Document is the reduced JSON document.
	Document []byte
	// Original is the fully expanded source document.
	Original   []byte
	Comparison eval.Comparison
	// Imports lists every imported symbol with its alias and origin. The
	// ID fields are zero until the result is committed to a ledger.
	Imports []*Import
	// System is the sorted set of names resolved as system modules.
	System []string
}

// Compressor runs the parse, resolve, build, serialize and evaluate
// pipeline. It is safe for concurrent use.
type Compressor struct {
	opts       options
	runtime    *runtime.Runtime
	resolver   *runtime.Resolver
	classifier *cast.Classifier
	builder    *cast.Builder
	logger     *slog.Logger
}

// NewCompressor creates a Compressor. Without WithScriptsFS the embedded
// resolution scripts are used.
func NewCompressor(opts ...Option) (*Compressor, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return newCompressor(o)
}

func newCompressor(o options) (*Compressor, error) {
	if _, err := parse.ParseMode(string(o.mode)); err != nil {
		return nil, fmt.Errorf("bonsai: %w", err)
	}
	if o.scriptsFS == nil && o.scriptsDir == "" {
		o.scriptsFS = scripts.FS
	}

	rtOpts := []runtime.RuntimeOption{runtime.WithRuntimeLogger(o.logger)}
	if o.scriptsFS != nil {
		rtOpts = append(rtOpts, runtime.WithRuntimeFS(o.scriptsFS))
	}
	rt := runtime.NewRuntime(o.scriptsDir, rtOpts...)

	resolver, err := runtime.NewResolver(rt,
		runtime.WithSearchPaths(o.searchPaths...),
		runtime.WithCacheSize(o.cacheSize),
	)
	if err != nil {
		return nil, fmt.Errorf("bonsai: create resolver: %w", err)
	}

	builtins := pyast.Builtins()
	o.logger.Debug("builtin set", "count", len(builtins))

	classifier := cast.NewClassifier(builtins, nil)
	builder := cast.NewBuilder(classifier,
		cast.WithLogger(o.logger),
		cast.WithMetadata(o.metadata),
	)
	return &Compressor{
		opts:       o,
		runtime:    rt,
		resolver:   resolver,
		classifier: classifier,
		builder:    builder,
		logger:     o.logger,
	}, nil
}

// CompressFile reads path and compresses its content.
func (c *Compressor) CompressFile(ctx context.Context, path string) (*Result, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return c.CompressSource(ctx, path, src)
}

// CompressSource compresses src. name is recorded as the result path.
func (c *Compressor) CompressSource(ctx context.Context, name string, src []byte) (*Result, error) {
	root, err := parse.Source(ctx, src, c.opts.mode)
	if err != nil {
		return nil, err
	}

	system, err := c.resolver.Resolve(ctx, pyast.Imports(root))
	if err != nil {
		return nil, fmt.Errorf("resolve imports: %w", err)
	}
	c.logger.Debug("system set", "path", name, "modules", system)

	// The call rule renames callees in place, so the source document is
	// taken first.
	original, err := pyast.Export(root)
	if err != nil {
		return nil, fmt.Errorf("export source tree: %w", err)
	}

	tree, err := c.builder.BuildWith(root, c.classifier.WithSystem(system))
	if err != nil {
		return nil, fmt.Errorf("build: %w", err)
	}

	doc, err := json.Marshal(tree.Document())
	if err != nil {
		return nil, fmt.Errorf("serialize: %w", err)
	}

	cmp, err := eval.Analyse(original, doc)
	if err != nil {
		return nil, fmt.Errorf("evaluate: %w", err)
	}

	return &Result{
		Path:       name,
		Tree:       tree,
		Document:   doc,
		Original:   original,
		Comparison: cmp,
		Imports:    treeImports(name, tree),
		System:     system,
	}, nil
}

// treeImports pairs the {origin} and {name} records of every Import node
// with the alias written in the source.
func treeImports(path string, tree *cast.Tree) []*Import {
	var out []*Import
	tree.Walk(func(n *cast.Node) bool {
		if n.Group != cast.GroupImport {
			return true
		}
		records := n.Records()
		var aliases []*pyast.Node
		if n.Source != nil {
			aliases = n.Source.Nodes("names")
		}
		for i := 0; i+1 < len(records); i += 2 {
			imp := &Import{Path: path}
			if o, ok := records[i].Get("origin"); ok {
				if origin, ok := o.(cast.Origin); ok {
					imp.Origin = string(origin)
				}
			}
			if v, ok := records[i+1].Get("name"); ok {
				imp.Name, _ = v.(string)
			}
			if j := i / 2; j < len(aliases) {
				if asname, ok := aliases[j].Ident("asname"); ok {
					imp.Alias = &asname
				}
			}
			out = append(out, imp)
		}
		return false
	})
	return out
}
