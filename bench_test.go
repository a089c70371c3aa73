package bonsai

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// benchPySource is a realistic Python module with classes, loops, imports
// and calls for exercising the full pipeline.
const benchPySource = `import os
import json as j
from collections import defaultdict, OrderedDict as OD


class Registry(object):
    """Keeps named handlers in insertion order."""

    def __init__(self, root=None):
        self.root = root or os.getcwd()
        self.handlers = OD()
        self.counts = defaultdict(int)

    def register(self, name, fn, *, overwrite=False):
        if name in self.handlers and not overwrite:
            raise KeyError(name)
        self.handlers[name] = fn
        return fn

    def dispatch(self, name, *args, **kwargs):
        self.counts[name] += 1
        return self.handlers[name](*args, **kwargs)

    def dump(self, path):
        with open(os.path.join(self.root, path), "w") as fh:
            j.dump({k: v for k, v in self.counts.items()}, fh, indent=2)


def walk(root):
    for dirpath, dirnames, filenames in os.walk(root):
        dirnames[:] = [d for d in dirnames if not d.startswith(".")]
        for name in filenames:
            if name.endswith(".py"):
                yield os.path.join(dirpath, name)


def main():
    reg = Registry()
    reg.register("len", len)
    total = 0
    for path in walk("."):
        try:
            total += reg.dispatch("len", path)
        except KeyError as exc:
            print("missing", exc)
        finally:
            pass
    while total > 100:
        total //= 2
    print(f"total={total!r}")


if __name__ == "__main__":
    main()
`

func BenchmarkCompressSource(b *testing.B) {
	ctx := context.Background()
	c, err := NewCompressor()
	if err != nil {
		b.Fatal(err)
	}
	src := []byte(benchPySource)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := c.CompressSource(ctx, "bench.py", src); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkCompressSource_Large(b *testing.B) {
	ctx := context.Background()
	c, err := NewCompressor(WithMetadata(false))
	if err != nil {
		b.Fatal(err)
	}
	src := []byte(strings.Repeat(benchPySource, 20))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := c.CompressSource(ctx, "large.py", src); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkIndexFiles(b *testing.B) {
	for _, parallel := range []bool{false, true} {
		b.Run(fmt.Sprintf("parallel=%v", parallel), func(b *testing.B) {
			ctx := context.Background()
			for i := 0; i < b.N; i++ {
				b.StopTimer()
				dir := b.TempDir()
				e, err := New(filepath.Join(dir, "bench.db"), "", WithParallel(parallel))
				if err != nil {
					b.Fatal(err)
				}
				var paths []string
				for n := range 16 {
					p := filepath.Join(dir, fmt.Sprintf("mod%02d.py", n))
					if err := os.WriteFile(p, []byte(benchPySource), 0o644); err != nil {
						e.Close()
						b.Fatal(err)
					}
					paths = append(paths, p)
				}
				b.StartTimer()

				if err := e.IndexFiles(ctx, paths); err != nil {
					e.Close()
					b.Fatal(err)
				}

				b.StopTimer()
				e.Close()
				b.StartTimer()
			}
		})
	}
}
