package sink

import (
	"bufio"
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"
	"io"

	json "github.com/goccy/go-json"
	"github.com/pierrec/lz4/v4"

	"github.com/jward/bonsai/internal/cast"
)

// ErrMagic is returned when a binary stream does not start with the
// snapshot header.
var ErrMagic = errors.New("sink: not a bonsai snapshot")

var magic = []byte("BONSAI\x01")

// snapshot is the gob form of a tree: nodes in pre-order with parent
// indexes, so neither encoding nor decoding recurses over depth.
type snapshot struct {
	Nodes []snapshotNode
}

type snapshotNode struct {
	Parent   int // -1 for the root
	Group    string
	Default  bool
	Attrs    []snapshotAttr
	Metadata []byte
}

// snapshotAttr holds either a custom record or a raw JSON attribute.
type snapshotAttr struct {
	Record []snapshotEntry
	Raw    []byte
}

type snapshotEntry struct {
	Key   string
	Value []byte
}

// WriteBinary writes t as an lz4-framed gob snapshot preceded by the magic
// header.
func WriteBinary(w io.Writer, t *cast.Tree) error {
	snap, err := toSnapshot(t)
	if err != nil {
		return err
	}
	if _, err := w.Write(magic); err != nil {
		return fmt.Errorf("sink: write header: %w", err)
	}
	zw := lz4.NewWriter(w)
	if err := gob.NewEncoder(zw).Encode(snap); err != nil {
		zw.Close()
		return fmt.Errorf("sink: encode snapshot: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("sink: flush lz4: %w", err)
	}
	return nil
}

// ReadBinary decodes a snapshot written by WriteBinary. The returned tree
// has no source links, and only its root carries metadata.
func ReadBinary(r io.Reader) (*cast.Tree, error) {
	br := bufio.NewReader(r)
	header := make([]byte, len(magic))
	if _, err := io.ReadFull(br, header); err != nil || !bytes.Equal(header, magic) {
		return nil, ErrMagic
	}

	var snap snapshot
	if err := gob.NewDecoder(lz4.NewReader(br)).Decode(&snap); err != nil {
		return nil, fmt.Errorf("sink: decode snapshot: %w", err)
	}
	return fromSnapshot(&snap)
}

func toSnapshot(t *cast.Tree) (*snapshot, error) {
	snap := &snapshot{}
	index := make(map[*cast.Node]int)
	var walkErr error
	t.Walk(func(n *cast.Node) bool {
		parent := -1
		if n.Parent != nil {
			parent = index[n.Parent]
		}
		sn := snapshotNode{Parent: parent, Group: n.Group, Default: n.IsDefaultAttributes}
		for _, a := range n.Attributes {
			attr, err := encodeAttr(a)
			if err != nil {
				walkErr = err
				return false
			}
			sn.Attrs = append(sn.Attrs, attr)
		}
		// The root dump nests every other dump; writing each node's would
		// repeat every subtree once per ancestor.
		if n.Parent == nil && n.Metadata != nil {
			b, err := json.Marshal(n.Metadata)
			if err != nil {
				walkErr = fmt.Errorf("sink: encode metadata: %w", err)
				return false
			}
			sn.Metadata = b
		}
		index[n] = len(snap.Nodes)
		snap.Nodes = append(snap.Nodes, sn)
		return true
	})
	if walkErr != nil {
		return nil, walkErr
	}
	return snap, nil
}

func encodeAttr(a any) (snapshotAttr, error) {
	if rec, ok := a.(cast.Record); ok {
		attr := snapshotAttr{Record: make([]snapshotEntry, 0, len(rec))}
		for _, e := range rec {
			b, err := json.Marshal(e.Value)
			if err != nil {
				return snapshotAttr{}, fmt.Errorf("sink: encode record %s: %w", e.Key, err)
			}
			attr.Record = append(attr.Record, snapshotEntry{Key: e.Key, Value: b})
		}
		return attr, nil
	}
	b, err := json.Marshal(a)
	if err != nil {
		return snapshotAttr{}, fmt.Errorf("sink: encode attribute: %w", err)
	}
	return snapshotAttr{Raw: b}, nil
}

func decodeAttr(sa snapshotAttr) (any, error) {
	if sa.Raw == nil {
		rec := make(cast.Record, 0, len(sa.Record))
		for _, e := range sa.Record {
			var v any
			if err := json.Unmarshal(e.Value, &v); err != nil {
				return nil, err
			}
			rec = append(rec, cast.Entry{Key: e.Key, Value: v})
		}
		return rec, nil
	}
	var v any
	if err := json.Unmarshal(sa.Raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}

func fromSnapshot(snap *snapshot) (*cast.Tree, error) {
	if len(snap.Nodes) == 0 {
		return nil, fmt.Errorf("sink: empty snapshot")
	}
	nodes := make([]*cast.Node, len(snap.Nodes))
	for i, sn := range snap.Nodes {
		n := &cast.Node{Group: sn.Group, IsDefaultAttributes: sn.Default}
		for _, sa := range sn.Attrs {
			a, err := decodeAttr(sa)
			if err != nil {
				return nil, fmt.Errorf("sink: decode attribute: %w", err)
			}
			n.Attributes = append(n.Attributes, a)
		}
		if sn.Metadata != nil {
			if err := json.Unmarshal(sn.Metadata, &n.Metadata); err != nil {
				return nil, fmt.Errorf("sink: decode metadata: %w", err)
			}
		}
		nodes[i] = n
		switch {
		case i == 0 && sn.Parent == -1:
		case sn.Parent >= 0 && sn.Parent < i:
			nodes[sn.Parent].AddChild(n)
		default:
			return nil, fmt.Errorf("sink: node %d has invalid parent %d", i, sn.Parent)
		}
	}
	return cast.NewTree(nodes[0]), nil
}
