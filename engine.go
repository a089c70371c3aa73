package bonsai

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/jward/bonsai/internal/runtime"
	"github.com/jward/bonsai/internal/store"
)

// ErrNoStore is returned by ledger operations on a closed Engine.
var ErrNoStore = errors.New("bonsai: engine has no store")

// scriptsHashKey is the metadata key holding the hash of the scripts that
// built the ledger.
const scriptsHashKey = "scripts_hash"

// BatchSummary counts the outcome of IndexFiles calls.
type BatchSummary struct {
	Indexed int `json:"indexed"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

// Engine orchestrates dataset runs: file discovery, change detection,
// compression and the ledger.
type Engine struct {
	store      *store.Store
	compressor *Compressor
	opts       options
	summary    BatchSummary
}

// New creates an Engine backed by a SQLite ledger at dbPath.
// Script loading priority:
//  1. If WithScriptsFS is set, use the provided fs.FS
//  2. Otherwise, if scriptsDir is non-empty, use scriptsDir on disk
//  3. Otherwise, use the embedded scripts
func New(dbPath string, scriptsDir string, opts ...Option) (*Engine, error) {
	o := defaultOptions()
	o.scriptsDir = scriptsDir
	for _, opt := range opts {
		opt(&o)
	}

	c, err := newCompressor(o)
	if err != nil {
		return nil, err
	}

	s, err := store.NewStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("bonsai: create store: %w", err)
	}
	if err := s.Migrate(); err != nil {
		s.Close()
		return nil, fmt.Errorf("bonsai: migrate: %w", err)
	}

	return &Engine{store: s, compressor: c, opts: c.opts}, nil
}

// Close releases the Engine's database resources.
func (e *Engine) Close() error {
	if e.store == nil {
		return nil
	}
	err := e.store.Close()
	e.store = nil
	return err
}

// Store returns the underlying Store for direct access.
func (e *Engine) Store() *Store {
	return e.store
}

// Compressor returns the Compressor the Engine runs files through.
func (e *Engine) Compressor() *Compressor {
	return e.compressor
}

// Summary returns the counts accumulated by IndexFiles since the Engine
// was created.
func (e *Engine) Summary() BatchSummary {
	return e.summary
}

// scriptsHash hashes every .risor file the runtime can load.
func (e *Engine) scriptsHash() string {
	sources := make(map[string]string)
	collect := func(path string) {
		if src, err := e.compressor.runtime.LoadScript(path); err == nil {
			sources[path] = src
		}
	}

	if e.opts.scriptsFS != nil {
		fs.WalkDir(e.opts.scriptsFS, ".", func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			if !d.IsDir() && strings.HasSuffix(path, ".risor") {
				collect(path)
			}
			return nil
		})
	} else if e.opts.scriptsDir != "" {
		filepath.WalkDir(e.opts.scriptsDir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			if !d.IsDir() && strings.HasSuffix(path, ".risor") {
				rel, _ := filepath.Rel(e.opts.scriptsDir, path)
				collect(filepath.ToSlash(rel))
			}
			return nil
		})
	}
	return store.ScriptsHash(sources)
}

// ScriptsChanged reports whether the resolution scripts differ from the
// ones used to build the current ledger. Returns true if the ledger has no
// stored hash (first run) or if the hash doesn't match. When true, the
// caller should rebuild the ledger from scratch.
func (e *Engine) ScriptsChanged() bool {
	if e.store == nil {
		return true
	}
	stored, err := e.store.GetMetadata(scriptsHashKey)
	if err != nil || stored == "" {
		return true
	}
	return e.scriptsHash() != stored
}

func (e *Engine) storeScriptsHash() {
	_ = e.store.SetMetadata(scriptsHashKey, e.scriptsHash())
}

// Query returns a new QueryBuilder over the ledger.
func (e *Engine) Query() *QueryBuilder {
	return &QueryBuilder{store: e.store}
}

// IndexFiles compresses the given Python files into the ledger. When
// WithParallel is enabled it uses a worker pool with serial commits;
// otherwise files are processed one at a time.
//
// For each file:
//  1. Skip paths that are not Python source
//  2. Skip unchanged files (same content hash) unless WithForce is set
//  3. Parse, resolve, build, serialize and evaluate
//  4. Commit the document, report and imports in one transaction
//
// A file that fails is logged, recorded in the failures table and
// skipped. Only ledger errors and context cancellation abort the run.
func (e *Engine) IndexFiles(ctx context.Context, paths []string) error {
	if e.store == nil {
		return ErrNoStore
	}
	before := e.summary

	var err error
	if e.opts.parallel {
		err = e.IndexFilesParallel(ctx, paths)
	} else {
		err = e.indexFilesSerial(ctx, paths)
	}
	if err != nil {
		return err
	}

	e.storeScriptsHash()
	e.opts.logger.Info("batch complete",
		"indexed", e.summary.Indexed-before.Indexed,
		"skipped", e.summary.Skipped-before.Skipped,
		"failed", e.summary.Failed-before.Failed,
	)
	return nil
}

func (e *Engine) indexFilesSerial(ctx context.Context, paths []string) error {
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return err
		}
		item, skip, err := e.prepareFile(path)
		if err != nil {
			return fmt.Errorf("prepare %s: %w", path, err)
		}
		if skip {
			continue
		}
		if err := e.compressFile(ctx, item); err != nil {
			if err := e.fail(path, err); err != nil {
				return err
			}
			continue
		}
		if err := e.commit(item); err != nil {
			return err
		}
	}
	return nil
}

// fail logs and records a file that could not be compressed. The returned
// error is non-nil only when the ledger write itself fails.
func (e *Engine) fail(path string, cause error) error {
	e.summary.Failed++
	e.opts.logger.Warn("skipped file", "path", path, "error", cause)
	if err := e.store.RecordFailure(path, cause, time.Now()); err != nil {
		return fmt.Errorf("record failure %s: %w", path, err)
	}
	return nil
}

func (e *Engine) commit(item *workItem) error {
	if err := e.store.CommitBatch(item.batch); err != nil {
		return fmt.Errorf("commit %s: %w", item.path, err)
	}
	e.summary.Indexed++
	return nil
}

// fillBatch writes the rows of one compressed file to ds.
func fillBatch(ds store.DataStore, res *Result) error {
	if _, err := ds.InsertDocument(&store.Document{Body: res.Document}); err != nil {
		return err
	}
	cmp := res.Comparison
	if _, err := ds.InsertReport(&store.Report{
		OriginalNodes:    cmp.Original.TotalNodes,
		OriginalEntities: cmp.Original.DistinctEntities,
		OriginalKinds:    cmp.Original.Entities,
		ReducedNodes:     cmp.Reduced.TotalNodes,
		ReducedEntities:  cmp.Reduced.DistinctEntities,
		ReducedKinds:     cmp.Reduced.Entities,
	}); err != nil {
		return err
	}
	for _, imp := range res.Imports {
		if _, err := ds.InsertImport(imp); err != nil {
			return err
		}
	}
	return nil
}

// IndexDirectory compresses every Python file under root.
// If root is inside a git repository, uses git ls-files to respect
// .gitignore. Falls back to a filesystem walk if git is unavailable.
// Hidden, vendored and __pycache__ directories are skipped either way.
func (e *Engine) IndexDirectory(ctx context.Context, root string) error {
	paths, err := gitListFiles(root)
	if err != nil {
		// Not a git repo or git not available.
		paths, err = walkListFiles(root)
		if err != nil {
			return err
		}
	}
	return e.IndexFiles(ctx, paths)
}

// skipDirs are directory names excluded from discovery.
var skipDirs = map[string]bool{
	"__pycache__":   true,
	"node_modules":  true,
	"site-packages": true,
}

// skipPath reports whether a path relative to the discovery root lies in
// an excluded directory.
func skipPath(rel string) bool {
	dirs := strings.Split(filepath.ToSlash(filepath.Dir(rel)), "/")
	for _, d := range dirs {
		if d == "." || d == "" {
			continue
		}
		if strings.HasPrefix(d, ".") || skipDirs[d] {
			return true
		}
	}
	return runtime.IsVendored(rel)
}

// gitListFiles uses git ls-files to discover tracked and untracked (but not
// ignored) Python files under root.
func gitListFiles(root string) ([]string, error) {
	// --cached: tracked files, --others: untracked files,
	// --exclude-standard: respect .gitignore, .git/info/exclude, global excludes.
	cmd := exec.Command("git", "ls-files", "--cached", "--others", "--exclude-standard")
	cmd.Dir = root
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("git ls-files: %w", err)
	}

	var paths []string
	for _, line := range strings.Split(stdout.String(), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || skipPath(line) || !runtime.IsPython(line) {
			continue
		}
		paths = append(paths, filepath.Join(root, line))
	}
	return paths, nil
}

// walkListFiles discovers Python files by walking the filesystem.
func walkListFiles(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, _ := filepath.Rel(root, path)
		if d.IsDir() {
			if rel != "." && skipPath(filepath.Join(rel, "x")) {
				return filepath.SkipDir
			}
			return nil
		}
		if !skipPath(rel) && runtime.IsPython(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk directory: %w", err)
	}
	return paths, nil
}
