package runtime

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/risor-io/risor/object"
)

// marks collects the module names a script reports as system modules.
type marks struct {
	mu    sync.Mutex
	names map[string]struct{}
}

func newMarks() *marks {
	return &marks{names: make(map[string]struct{})}
}

func (m *marks) add(name string) {
	m.mu.Lock()
	m.names[name] = struct{}{}
	m.mu.Unlock()
}

func (m *marks) list() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.names))
	for n := range m.names {
		out = append(out, n)
	}
	return out
}

// stringArg extracts a single string argument for the builtin name.
func stringArg(name string, args []object.Object) (string, object.Object) {
	if len(args) != 1 {
		return "", object.NewArgsError(name, 1, len(args))
	}
	s, ok := args[0].(*object.String)
	if !ok {
		return "", object.Errorf("%s: expected string, got %s", name, args[0].Type())
	}
	return s.Value(), nil
}

// makeMarkSystemFn creates "mark_system".
//
// mark_system(name) → nil
func makeMarkSystemFn(m *marks) *object.Builtin {
	return object.NewBuiltin("mark_system", func(ctx context.Context, args ...object.Object) object.Object {
		name, errObj := stringArg("mark_system", args)
		if errObj != nil {
			return errObj
		}
		if name != "" {
			m.add(name)
		}
		return object.Nil
	})
}

// makeIsStdlibFn creates "is_stdlib", true when the top-level package of
// name is a standard-library module.
//
// is_stdlib(name) → bool
func makeIsStdlibFn(stdlib map[string]struct{}) *object.Builtin {
	return object.NewBuiltin("is_stdlib", func(ctx context.Context, args ...object.Object) object.Object {
		name, errObj := stringArg("is_stdlib", args)
		if errObj != nil {
			return errObj
		}
		top, _, _ := strings.Cut(name, ".")
		_, ok := stdlib[top]
		return object.NewBool(ok)
	})
}

// makeModuleExistsFn creates "module_exists", backed by the resolver's
// memoized search-path lookup.
//
// module_exists(name) → bool
func makeModuleExistsFn(lookup func(string) bool) *object.Builtin {
	return object.NewBuiltin("module_exists", func(ctx context.Context, args ...object.Object) object.Object {
		name, errObj := stringArg("module_exists", args)
		if errObj != nil {
			return errObj
		}
		return object.NewBool(lookup(name))
	})
}

// makeDottedPrefixesFn creates "dotted_prefixes".
//
// dotted_prefixes("a.b.c") → ["a", "a.b", "a.b.c"]
func makeDottedPrefixesFn() *object.Builtin {
	return object.NewBuiltin("dotted_prefixes", func(ctx context.Context, args ...object.Object) object.Object {
		name, errObj := stringArg("dotted_prefixes", args)
		if errObj != nil {
			return errObj
		}
		prefixes := dottedPrefixes(name)
		items := make([]object.Object, len(prefixes))
		for i, p := range prefixes {
			items[i] = object.NewString(p)
		}
		return object.NewList(items)
	})
}

func dottedPrefixes(name string) []string {
	if name == "" {
		return nil
	}
	parts := strings.Split(name, ".")
	out := make([]string, len(parts))
	for i := range parts {
		out[i] = strings.Join(parts[:i+1], ".")
	}
	return out
}

// logObject provides log.Debug/Info/Warn/Error methods for Risor scripts.
type logObject struct {
	logger *slog.Logger
}

func (l *logObject) Debug(msg string) { l.logger.Debug(msg, "source", "script") }

func (l *logObject) Info(msg string) { l.logger.Info(msg, "source", "script") }

func (l *logObject) Warn(msg string) { l.logger.Warn(msg, "source", "script") }

func (l *logObject) Error(msg string) { l.logger.Error(msg, "source", "script") }
