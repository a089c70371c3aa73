package runtime

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/risor-io/risor/object"

	"github.com/jward/bonsai/internal/pyast"
)

// DefaultCacheSize bounds the module lookup cache.
const DefaultCacheSize = 4096

// extensionSuffixes are the file endings of compiled extension modules.
var extensionSuffixes = []string{".so", ".pyd"}

// Resolver computes the set of imported names that resolve to system
// modules. It runs the python resolution script once per file and is safe
// for concurrent use.
type Resolver struct {
	rt          *Runtime
	stdlib      map[string]struct{}
	searchPaths []string
	cache       *lru.Cache[string, bool]

	scriptOnce sync.Once
	script     string
	scriptErr  error
}

// ResolverOption configures a Resolver.
type ResolverOption func(*resolverConfig)

type resolverConfig struct {
	searchPaths []string
	cacheSize   int
	stdlib      []string
}

// WithSearchPaths sets the directories searched for installed modules.
func WithSearchPaths(paths ...string) ResolverOption {
	return func(c *resolverConfig) {
		c.searchPaths = append(c.searchPaths, paths...)
	}
}

// WithCacheSize bounds the number of memoized module lookups.
func WithCacheSize(n int) ResolverOption {
	return func(c *resolverConfig) {
		if n > 0 {
			c.cacheSize = n
		}
	}
}

// WithStdlib replaces the embedded standard-library module list.
func WithStdlib(modules []string) ResolverOption {
	return func(c *resolverConfig) {
		c.stdlib = modules
	}
}

// NewResolver creates a Resolver running scripts through rt.
func NewResolver(rt *Runtime, opts ...ResolverOption) (*Resolver, error) {
	cfg := resolverConfig{cacheSize: DefaultCacheSize, stdlib: pyast.StdlibModules()}
	for _, opt := range opts {
		opt(&cfg)
	}

	cache, err := lru.New[string, bool](cfg.cacheSize)
	if err != nil {
		return nil, fmt.Errorf("runtime: module cache: %w", err)
	}

	stdlib := make(map[string]struct{}, len(cfg.stdlib))
	for _, m := range cfg.stdlib {
		stdlib[m] = struct{}{}
	}
	return &Resolver{
		rt:          rt,
		stdlib:      stdlib,
		searchPaths: cfg.searchPaths,
		cache:       cache,
	}, nil
}

// Resolve returns the sorted system-module set for one file's imports.
func (r *Resolver) Resolve(ctx context.Context, imports []pyast.ImportRef) ([]string, error) {
	r.scriptOnce.Do(func() {
		r.script, r.scriptErr = r.rt.LoadScript(ResolutionScriptPath("python"))
	})
	if r.scriptErr != nil {
		return nil, r.scriptErr
	}

	m := newMarks()
	extras := map[string]any{
		"imports":       importList(imports),
		"is_stdlib":     makeIsStdlibFn(r.stdlib),
		"module_exists": makeModuleExistsFn(r.moduleExists),
		"mark_system":   makeMarkSystemFn(m),
	}
	if err := r.rt.eval(ctx, r.script, ResolutionScriptPath("python"), extras); err != nil {
		return nil, err
	}

	out := m.list()
	sort.Strings(out)
	return out, nil
}

// importList converts import refs to the list of maps the script reads.
func importList(imports []pyast.ImportRef) *object.List {
	items := make([]object.Object, len(imports))
	for i, ref := range imports {
		names := make([]object.Object, len(ref.Names))
		for j, n := range ref.Names {
			names[j] = object.NewString(n)
		}
		items[i] = object.NewMap(map[string]object.Object{
			"module": object.NewString(ref.Module),
			"names":  object.NewList(names),
			"level":  object.NewInt(int64(ref.Level)),
			"from":   object.NewBool(ref.From),
		})
	}
	return object.NewList(items)
}

// moduleExists reports whether a dotted module is found on a search path
// as a source file, a package or an extension module.
func (r *Resolver) moduleExists(name string) bool {
	if v, ok := r.cache.Get(name); ok {
		return v
	}
	found := r.lookup(name)
	r.cache.Add(name, found)
	return found
}

func (r *Resolver) lookup(name string) bool {
	rel := filepath.Join(strings.Split(name, ".")...)
	for _, dir := range r.searchPaths {
		base := filepath.Join(dir, rel)
		if isFile(base+".py") || isFile(filepath.Join(base, "__init__.py")) {
			return true
		}
		if extensionModule(filepath.Dir(base), filepath.Base(base)) {
			return true
		}
	}
	return false
}

// extensionModule matches name.so, name.pyd and tagged variants such as
// name.cpython-37m-x86_64-linux-gnu.so in dir.
func extensionModule(dir, name string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}
	for _, e := range entries {
		fn := e.Name()
		if !strings.HasPrefix(fn, name+".") {
			continue
		}
		for _, suffix := range extensionSuffixes {
			if strings.HasSuffix(fn, suffix) {
				return true
			}
		}
	}
	return false
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
