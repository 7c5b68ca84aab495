// Index file inspection for debugging.
// Use InspectIndexFile(path) to print a human-readable dump of an .idx arena.

package rbtree

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"strings"

	diskmanager "ArenaDB/storage_engine/disk_manager"
	"ArenaDB/types"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
)

// Stats summarises an index for tooling.
type Stats struct {
	Name     string
	Rows     uint32
	Nodes    uint32
	Root     types.RowID
	Height   int
	Capacity uint32
	Bytes    int64
	Queries  uint64
}

func (t *Tree) Stats() Stats {
	return Stats{
		Name:     t.name,
		Rows:     t.RowCount(),
		Nodes:    t.NodeCount(),
		Root:     t.root(),
		Height:   t.Height(),
		Capacity: t.stg.Capacity(),
		Bytes:    t.stg.Size(),
		Queries:  t.queries.Load(),
	}
}

// NodeInfo is the decoded state of one slot.
type NodeInfo struct {
	ID     types.RowID
	Role   Role
	Color  Color
	Left   types.RowID
	Right  types.RowID
	Parent types.RowID
	Chain  []types.RowID
}

// Node decodes slot id. Siblings report prev/next in Left/Right and the
// owning primary (chain head only) in Parent.
func (t *Tree) Node(id types.RowID) NodeInfo {
	n := t.node(id)
	info := NodeInfo{
		ID:     id,
		Role:   n.role(),
		Color:  n.color(),
		Left:   n.left(),
		Right:  n.right(),
		Parent: n.parent(),
	}
	if info.Role == RolePrimary {
		for s := n.chain(); s != NIL && len(info.Chain) <= int(t.stg.Capacity()); s = t.node(s).next() {
			info.Chain = append(info.Chain, s)
		}
	}
	return info
}

// OpenForInspect attaches to an index file without a row source. Only
// structural operations (Node, Stats, Check, Dump) are usable.
func OpenForInspect(path string, logger *zap.Logger) (*Tree, error) {
	cfg := ArenaConfig(path)
	cfg.Logger = logger
	stg, err := diskmanager.Open(cfg)
	if err != nil {
		return nil, err
	}
	t := newTree(Options{Name: path, Logger: logger}, stg)
	t.queries.Store(binary.LittleEndian.Uint64(t.meta()[metaQueries:]))
	return t, nil
}

// InspectIndexFile opens an index file and prints its structure to stdout.
func InspectIndexFile(indexPath string) error {
	return InspectIndexFileTo(os.Stdout, indexPath)
}

// InspectIndexFileTo writes a human-readable dump of the index file to w.
func InspectIndexFileTo(w io.Writer, indexPath string) error {
	t, err := OpenForInspect(indexPath, nil)
	if err != nil {
		return err
	}
	defer t.Close()
	return t.Dump(w)
}

// Dump prints the header and the primaries level by level, each with its
// sibling chain.
func (t *Tree) Dump(w io.Writer) error {
	h := t.stg.Header()
	p := func(format string, args ...interface{}) { fmt.Fprintf(w, format, args...) }

	p("Index: %s\n", t.name)
	p("  arena: %s, capacity %d (%s), magic %#x rev %d\n",
		h.BlockType, h.Capacity, humanize.Bytes(uint64(t.stg.Size())), h.Magic, h.Revision)
	p("  rows %d, nodes %d, root %d, queries %d\n", t.RowCount(), t.NodeCount(), t.root(), t.QueryCount())

	root := t.root()
	if root == NIL {
		p("  (empty tree)\n")
		return nil
	}

	p("\n  Nodes (BFS):\n  ---\n")
	queue := []types.RowID{root}
	for level := 0; len(queue) > 0 && level <= int(h.Capacity); level++ {
		p("  Level %d:\n", level)
		var next []types.RowID
		for _, id := range queue {
			info := t.Node(id)
			line := fmt.Sprintf("    [row %d] %s parent=%d left=%d right=%d", id, info.Color, info.Parent, info.Left, info.Right)
			if len(info.Chain) > 0 {
				ids := make([]string, len(info.Chain))
				for i, s := range info.Chain {
					ids[i] = fmt.Sprint(s)
				}
				line += " siblings=[" + strings.Join(ids, " ") + "]"
			}
			p("%s\n", line)
			if info.Left != NIL {
				next = append(next, info.Left)
			}
			if info.Right != NIL {
				next = append(next, info.Right)
			}
		}
		queue = next
	}
	return nil
}
