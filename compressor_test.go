package bonsai

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/bonsai/internal/cast"
	"github.com/jward/bonsai/internal/eval"
	"github.com/jward/bonsai/internal/parse"
	"github.com/jward/bonsai/internal/sink"
)

func newTestCompressor(t *testing.T, opts ...Option) *Compressor {
	t.Helper()
	c, err := NewCompressor(opts...)
	require.NoError(t, err)
	return c
}

func compress(t *testing.T, c *Compressor, src string) *Result {
	t.Helper()
	res, err := c.CompressSource(context.Background(), "test.py", []byte(src))
	require.NoError(t, err)
	return res
}

func TestCompressSource_EmptyModule(t *testing.T) {
	t.Parallel()
	res := compress(t, newTestCompressor(t), "")

	assert.JSONEq(t, `{"CAST_type":"Module","CAST_body":[]}`, string(res.Document))
	want := eval.Report{DistinctEntities: 1, TotalNodes: 1, Entities: []string{"Module"}}
	assert.Equal(t, eval.Comparison{Original: want, Reduced: want}, res.Comparison)
	assert.Empty(t, res.Imports)
	assert.Empty(t, res.System)
}

func TestCompressSource_SystemImport(t *testing.T) {
	t.Parallel()
	res := compress(t, newTestCompressor(t), "import pprint\n")

	assert.Equal(t,
		`{"CAST_type":"Module","CAST_body":[{"CAST_type":"Import","CAST_body":[{"origin":"SYS"},{"name":"pprint"}]}]}`,
		string(res.Document))
	assert.Equal(t, []string{"pprint"}, res.System)
	assert.Equal(t, "test.py", res.Path)
}

func TestCompressSource_AliasCallResolution(t *testing.T) {
	t.Parallel()
	res := compress(t, newTestCompressor(t), "import json as j\nj(1)\n")

	doc := string(res.Document)
	assert.Contains(t, doc, `{"CAST_type":"Call","CAST_body":[{"origin":"SYS"},`)
	assert.Contains(t, doc, `{"id":"'json'","ctx":"Load"}`)
	assert.Contains(t, string(res.Original), `"id":"j"`, "the source document keeps the alias")
}

func TestCompressSource_Imports(t *testing.T) {
	t.Parallel()
	res := compress(t, newTestCompressor(t), "import os as o, pprint\nfrom . import x\n")

	require.Len(t, res.Imports, 3)

	assert.Equal(t, "os", res.Imports[0].Name)
	require.NotNil(t, res.Imports[0].Alias)
	assert.Equal(t, "o", *res.Imports[0].Alias)
	assert.Equal(t, string(cast.OriginSystem), res.Imports[0].Origin)

	assert.Equal(t, "pprint", res.Imports[1].Name)
	assert.Nil(t, res.Imports[1].Alias)

	assert.Equal(t, "..x", res.Imports[2].Name)
	assert.Equal(t, string(cast.OriginUnknown), res.Imports[2].Origin)
	for _, imp := range res.Imports {
		assert.Equal(t, "test.py", imp.Path)
		assert.Zero(t, imp.ID)
	}
}

func TestCompressSource_Compression(t *testing.T) {
	t.Parallel()
	src := `import os
from collections import OrderedDict as OD


class Cache(object):
    def __init__(self, size=8):
        self.items = OD()
        self.size = size

    def get(self, key, default=None):
        for k in list(self.items):
            while k == key:
                return self.items[k]
        return default


def main():
    c = Cache(size=len(os.listdir(".")))
    print(c.get("a"), sorted([1, 2, 3]))
`
	res := compress(t, newTestCompressor(t), src)
	cmp := res.Comparison

	assert.Less(t, cmp.Reduced.TotalNodes, cmp.Original.TotalNodes)
	assert.Less(t, cmp.Reduced.DistinctEntities, cmp.Original.DistinctEntities)
	assert.Equal(t, "Module", cmp.Original.Entities[0])
	assert.Equal(t, "Module", cmp.Reduced.Entities[0])
	assert.Contains(t, cmp.Reduced.Entities, "Loop")
	assert.NotContains(t, cmp.Reduced.Entities, "For")
	assert.NoError(t, sink.Validate(res.Document))
}

func TestCompressSource_SyntaxError(t *testing.T) {
	t.Parallel()
	_, err := newTestCompressor(t).CompressSource(context.Background(), "bad.py", []byte("def (:\n"))
	require.ErrorIs(t, err, parse.ErrSyntax)
}

func TestCompressSource_Modes(t *testing.T) {
	t.Parallel()
	c := newTestCompressor(t, WithMode(parse.ModeEval))

	res := compress(t, c, "1 + 2\n")
	assert.Equal(t, "Module", res.Comparison.Reduced.Entities[0])

	_, err := c.CompressSource(context.Background(), "x.py", []byte("a = 1\nb = 2\n"))
	require.ErrorIs(t, err, parse.ErrSyntax)
}

func TestNewCompressor_BadMode(t *testing.T) {
	t.Parallel()
	_, err := NewCompressor(WithMode("compile"))
	require.ErrorIs(t, err, parse.ErrMode)
}

func TestCompressSource_Metadata(t *testing.T) {
	t.Parallel()
	on := compress(t, newTestCompressor(t), "x = 1\n")
	assert.NotNil(t, on.Tree.Root.Metadata)

	off := compress(t, newTestCompressor(t, WithMetadata(false)), "x = 1\n")
	off.Tree.Walk(func(n *cast.Node) bool {
		assert.Nil(t, n.Metadata)
		return true
	})
	assert.Equal(t, on.Document, off.Document, "metadata never reaches the document")
}

func TestCompressSource_LongExpressionWithMetadata(t *testing.T) {
	t.Parallel()
	const terms = 2000
	src := "x = a" + strings.Repeat(" + a", terms-1) + "\n"

	res := compress(t, newTestCompressor(t), src)
	require.NotNil(t, res.Tree.Root.Metadata)
	res.Tree.Walk(func(n *cast.Node) bool {
		require.NotNil(t, n.Metadata)
		return true
	})
	// Module, Assign, the target, then a BinOp with an operator per extra
	// term plus one Name per term.
	assert.Equal(t, 3+2*(terms-1)+terms, res.Tree.Len())
}

func TestCompressSource_SearchPaths(t *testing.T) {
	t.Parallel()
	site := t.TempDir()
	writePy(t, filepath.Join(site, "localpkg", "__init__.py"), "")

	res := compress(t, newTestCompressor(t, WithSearchPaths(site)), "import localpkg\nimport missingpkg\n")
	assert.Equal(t, []string{"localpkg"}, res.System)
}

func TestCompressFile_Missing(t *testing.T) {
	t.Parallel()
	_, err := newTestCompressor(t).CompressFile(context.Background(), filepath.Join(t.TempDir(), "nope.py"))
	require.Error(t, err)
}

func TestCompressor_Concurrent(t *testing.T) {
	t.Parallel()
	c := newTestCompressor(t)
	want := compress(t, c, "import os as o\no(1)\n").Document

	done := make(chan []byte)
	for range 8 {
		go func() {
			res, err := c.CompressSource(context.Background(), "c.py", []byte("import os as o\no(1)\n"))
			if err != nil {
				done <- nil
				return
			}
			done <- res.Document
		}()
	}
	for range 8 {
		assert.Equal(t, want, <-done)
	}
}
