// Inspect a red-black index file (.idx).
// Usage: go run ./cmd/inspect_idx [--check] [--tree] [--node N] <path-to-.idx>
// Example: go run ./cmd/inspect_idx databases/demo/indexes/students_by_age.idx
package main

import (
	"fmt"
	"os"
	"strings"

	"ArenaDB/storage_engine/access/indexfile_manager/rbtree"
	"ArenaDB/types"

	"github.com/cockroachdb/errors"
	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func main() {
	var (
		check bool
		tree  bool
		nodes []uint
	)

	cmd := &cobra.Command{
		Use:          "inspect_idx <index.idx>",
		Short:        "Print the structure of an index file",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := rbtree.OpenForInspect(args[0], nil)
			if err != nil {
				return err
			}
			defer t.Close()

			out := cmd.OutOrStdout()
			st := t.Stats()
			tw := table.NewWriter()
			tw.SetOutputMirror(out)
			tw.SetStyle(table.StyleLight)
			tw.AppendHeader(table.Row{"file", "rows", "nodes", "root", "height", "capacity", "size", "queries"})
			tw.AppendRow(table.Row{
				st.Name,
				humanize.Comma(int64(st.Rows)),
				humanize.Comma(int64(st.Nodes)),
				st.Root,
				st.Height,
				humanize.Comma(int64(st.Capacity)),
				humanize.Bytes(uint64(st.Bytes)),
				humanize.Comma(int64(st.Queries)),
			})
			tw.Render()

			if len(nodes) > 0 {
				nw := table.NewWriter()
				nw.SetOutputMirror(out)
				nw.SetStyle(table.StyleLight)
				nw.AppendHeader(table.Row{"row", "role", "color", "left/prev", "right/next", "parent", "siblings"})
				for _, id := range nodes {
					if id == 0 || id > uint(st.Capacity) {
						return errors.Newf("row %d outside capacity %d", id, st.Capacity)
					}
					info := t.Node(types.RowID(id))
					nw.AppendRow(table.Row{info.ID, info.Role, info.Color, info.Left, info.Right, info.Parent, joinIDs(info.Chain)})
				}
				nw.Render()
			}

			if tree {
				if err := t.Dump(out); err != nil {
					return err
				}
			}

			if check {
				if err := t.Check(); err != nil {
					return errors.Wrap(err, "check failed")
				}
				fmt.Fprintln(out, "check: ok")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&check, "check", false, "verify red-black and chain invariants")
	cmd.Flags().BoolVar(&tree, "tree", false, "dump every node level by level")
	cmd.Flags().UintSliceVar(&nodes, "node", nil, "decode the given slots")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func joinIDs(ids []types.RowID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprint(id)
	}
	return strings.Join(parts, " ")
}
