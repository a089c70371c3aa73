package sink

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jward/bonsai/internal/cast"
	"github.com/jward/bonsai/internal/pyast"
)

// sampleTree builds the reduced tree of:
//
//	import numpy as np
//	np(1)
func sampleTree(t *testing.T) *cast.Tree {
	t.Helper()
	alias := pyast.New(pyast.Alias, pyast.String("numpy"), pyast.String("np"))
	imp := pyast.New(pyast.Import, pyast.Seq{alias})
	callee := pyast.New(pyast.Name, pyast.String("np"), pyast.New(pyast.Load))
	call := pyast.New(pyast.Call, callee, pyast.Seq{pyast.New(pyast.Num, pyast.Raw("1"))}, pyast.Seq{})
	root := pyast.New(pyast.Module, pyast.Seq{imp, pyast.New(pyast.Expr, call)})

	tree, err := cast.NewBuilder(cast.NewClassifier(pyast.Builtins(), []string{"numpy"})).Build(root)
	require.NoError(t, err)
	return tree
}

func encode(t *testing.T, doc any) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, doc, false))
	return buf.String()
}

func TestWriteJSON_Pretty(t *testing.T) {
	t.Parallel()
	doc := &cast.Document{Type: "Module", Body: []any{}}

	var compact, pretty bytes.Buffer
	require.NoError(t, WriteJSON(&compact, doc, false))
	require.NoError(t, WriteJSON(&pretty, doc, true))

	assert.Equal(t, `{"CAST_type":"Module","CAST_body":[]}`+"\n", compact.String())
	assert.Contains(t, pretty.String(), "\n  \"CAST_type\": \"Module\"")
	assert.JSONEq(t, compact.String(), pretty.String())
}

func TestReadJSON_RoundTripShape(t *testing.T) {
	t.Parallel()
	first := encode(t, sampleTree(t).Document())

	decoded, err := ReadJSON(bytes.NewBufferString(first))
	require.NoError(t, err)
	second := encode(t, decoded)

	decoded, err = ReadJSON(bytes.NewBufferString(second))
	require.NoError(t, err)
	assert.Equal(t, second, encode(t, decoded), "decode and encode is idempotent")
	assert.JSONEq(t, first, second)
}

func TestReadJSON_Invalid(t *testing.T) {
	t.Parallel()
	_, err := ReadJSON(bytes.NewBufferString(`{"CAST_type":`))
	require.Error(t, err)
}

func TestBinary_RoundTrip(t *testing.T) {
	t.Parallel()
	tree := sampleTree(t)

	var buf bytes.Buffer
	require.NoError(t, WriteBinary(&buf, tree))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("BONSAI\x01")))

	got, err := ReadBinary(&buf)
	require.NoError(t, err)
	assert.Equal(t, tree.Len(), got.Len())
	assert.Equal(t, encode(t, tree.Document()), encode(t, got.Document()))

	got.Walk(func(n *cast.Node) bool {
		assert.Nil(t, n.Source, "decoded trees have no source links")
		if n.Parent != nil {
			assert.Nil(t, n.Metadata, "only the root dump is kept")
		}
		return true
	})
	require.NotNil(t, tree.Root.Metadata)
	assert.Contains(t, got.Root.Metadata, "Module")
}

func TestBinary_KeepsRecordKeyOrder(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	require.NoError(t, WriteBinary(&buf, sampleTree(t)))
	got, err := ReadBinary(&buf)
	require.NoError(t, err)

	var name *cast.Node
	got.Walk(func(n *cast.Node) bool {
		if n.Group == "Name" {
			name = n
		}
		return true
	})
	require.NotNil(t, name)
	b, err := json.Marshal(name.Attributes[0])
	require.NoError(t, err)
	assert.Equal(t, `{"id":"'numpy'","ctx":"Load"}`, string(b))
}

func TestReadBinary_BadMagic(t *testing.T) {
	t.Parallel()
	_, err := ReadBinary(bytes.NewBufferString(`{"CAST_type":"Module"}`))
	assert.ErrorIs(t, err, ErrMagic)

	_, err = ReadBinary(bytes.NewBuffer(nil))
	assert.ErrorIs(t, err, ErrMagic)
}

func TestReadBinary_CorruptPayload(t *testing.T) {
	t.Parallel()
	data := append([]byte("BONSAI\x01"), []byte("not lz4 at all")...)
	_, err := ReadBinary(bytes.NewReader(data))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrMagic)
}

func TestWriteFile_Atomic(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "out.json")

	require.NoError(t, WriteFile(path, func(w io.Writer) error {
		_, err := io.WriteString(w, "first")
		return err
	}))

	boom := errors.New("boom")
	err := WriteFile(path, func(w io.Writer) error {
		_, _ = io.WriteString(w, "partial")
		return boom
	})
	require.ErrorIs(t, err, boom)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "first", string(got), "a failed write leaves the old file in place")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temporary files are left behind")
}

func TestValidate(t *testing.T) {
	t.Parallel()
	require.NoError(t, Validate([]byte(encode(t, sampleTree(t).Document()))))
	require.NoError(t, Validate([]byte(`{"CAST_type":"Module","CAST_body":[]}`)))

	tests := map[string]string{
		"missing body":     `{"CAST_type":"Module"}`,
		"empty type":       `{"CAST_type":"","CAST_body":[]}`,
		"extra key":        `{"CAST_type":"Module","CAST_body":[],"x":1}`,
		"bad nested node":  `{"CAST_type":"Module","CAST_body":[{"CAST_type":"Expr"}]}`,
		"body not a list":  `{"CAST_type":"Module","CAST_body":{}}`,
		"original ast doc": `{"_type":"Module","body":[]}`,
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			err := Validate([]byte(doc))
			require.Error(t, err)
			assert.True(t, IsValidationError(err))
		})
	}

	err := Validate([]byte(`{not json`))
	require.Error(t, err)
	assert.False(t, IsValidationError(err))
}
