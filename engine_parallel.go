package bonsai

import (
	"bytes"
	"context"
	"fmt"
	"os"
	goruntime "runtime"
	"sync"
	"time"

	"github.com/jward/bonsai/internal/runtime"
	"github.com/jward/bonsai/internal/store"
)

// workItem holds everything a compression worker needs.
type workItem struct {
	path    string
	content []byte
	batch   *store.Batch
}

// IndexFilesParallel indexes files using a three-phase parallel pipeline:
//
//	Phase A (serial):   Read files, hash check, prepare file records.
//	Phase B (parallel): Compress into per-file batches via a worker pool.
//	Phase C (serial):   Commit batches to SQLite, record failures.
func (e *Engine) IndexFilesParallel(ctx context.Context, paths []string) error {
	// ---- Phase A: Serial file preparation ----
	var items []*workItem
	for _, path := range paths {
		item, skip, err := e.prepareFile(path)
		if err != nil {
			return fmt.Errorf("prepare %s: %w", path, err)
		}
		if skip {
			continue
		}
		items = append(items, item)
	}

	if len(items) == 0 {
		return nil
	}

	// ---- Phase B: Parallel compression ----
	numWorkers := e.opts.workers
	if numWorkers <= 0 {
		numWorkers = goruntime.NumCPU()
	}
	numWorkers = max(1, min(numWorkers, len(items)))

	workCh := make(chan *workItem, len(items))
	for _, item := range items {
		workCh <- item
	}
	close(workCh)

	type result struct {
		item *workItem
		err  error
	}
	resultCh := make(chan result, len(items))

	var wg sync.WaitGroup
	for range numWorkers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// The Compressor is shared. Each item owns its Batch, so
			// workers never write to the same buffer.
			for item := range workCh {
				if ctx.Err() != nil {
					resultCh <- result{item: item, err: ctx.Err()}
					continue
				}
				resultCh <- result{item: item, err: e.compressFile(ctx, item)}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	// ---- Phase C: Serial commit ----
	for res := range resultCh {
		if err := ctx.Err(); err != nil {
			return err
		}
		if res.err != nil {
			if err := e.fail(res.item.path, res.err); err != nil {
				return err
			}
			continue
		}
		if err := e.commit(res.item); err != nil {
			return err
		}
	}
	return ctx.Err()
}

// prepareFile does Phase A work for a single file: read, hash check and
// file record. Returns (item, skip, error). skip=true means the file is
// unchanged, not Python source, or unreadable; unreadable files are
// recorded as failures. A non-nil error comes from the ledger and aborts
// the run.
func (e *Engine) prepareFile(path string) (*workItem, bool, error) {
	if !runtime.IsPython(path) {
		return nil, true, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, true, e.fail(path, fmt.Errorf("read file: %w", err))
	}
	hash := store.ContentHash(content)

	if !e.opts.force {
		existing, err := e.store.FileByPath(path)
		if err != nil {
			return nil, false, fmt.Errorf("lookup file: %w", err)
		}
		if existing != nil && existing.Hash == hash {
			e.summary.Skipped++
			return nil, true, nil
		}
	}

	// The real file ID is assigned when the batch is committed.
	batch := store.NewBatch(&store.File{
		Path:        path,
		Hash:        hash,
		LineCount:   bytes.Count(content, []byte{'\n'}) + 1,
		LastIndexed: time.Now(),
	})
	return &workItem{path: path, content: content, batch: batch}, false, nil
}

// compressFile runs the pipeline for a single file and fills its batch.
func (e *Engine) compressFile(ctx context.Context, item *workItem) error {
	res, err := e.compressor.CompressSource(ctx, item.path, item.content)
	if err != nil {
		return err
	}
	if err := fillBatch(item.batch, res); err != nil {
		return fmt.Errorf("fill batch: %w", err)
	}
	return nil
}
