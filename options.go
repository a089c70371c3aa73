package bonsai

import (
	"io/fs"
	"log/slog"

	"github.com/jward/bonsai/internal/parse"
)

// options holds the settings shared by Compressor and Engine.
type options struct {
	logger      *slog.Logger
	scriptsDir  string
	scriptsFS   fs.FS
	searchPaths []string
	mode        parse.Mode
	metadata    bool
	cacheSize   int

	parallel bool
	workers  int
	force    bool
}

func defaultOptions() options {
	return options{
		logger:   slog.New(slog.DiscardHandler),
		mode:     parse.ModeExec,
		metadata: true,
		parallel: true,
	}
}

// Option configures a Compressor or an Engine.
type Option func(*options)

// WithParallel controls parallel compression. When true (default),
// IndexFiles compresses files on a worker pool and commits their batches
// serially. Set to false for serial mode.
func WithParallel(parallel bool) Option {
	return func(o *options) {
		o.parallel = parallel
	}
}

// WithWorkers sets the worker pool size. Zero or less uses one worker per
// CPU.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithForce makes IndexFiles recompress files whose content hash matches
// the ledger.
func WithForce(force bool) Option {
	return func(o *options) {
		o.force = force
	}
}

// WithScriptsFS loads the Risor resolution scripts from fsys instead of
// from the scripts directory on disk.
func WithScriptsFS(fsys fs.FS) Option {
	return func(o *options) {
		o.scriptsFS = fsys
	}
}

// WithLogger sets the logger for the pipeline. Library code is silent by
// default.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithSearchPaths adds directories searched for installed modules during
// import resolution.
func WithSearchPaths(paths ...string) Option {
	return func(o *options) {
		o.searchPaths = append(o.searchPaths, paths...)
	}
}

// WithMode sets the compile mode used to parse sources.
func WithMode(mode parse.Mode) Option {
	return func(o *options) {
		o.mode = mode
	}
}

// WithMetadata controls whether reduced nodes carry the generic dump of
// their source node.
func WithMetadata(on bool) Option {
	return func(o *options) {
		o.metadata = on
	}
}

// WithCacheSize bounds the module lookup cache of the resolver.
func WithCacheSize(n int) Option {
	return func(o *options) {
		o.cacheSize = n
	}
}
