// Seed program: creates database "demo" with two tables, random rows and a
// few indexes, then runs sample index queries.
// Run: go run ./cmd/seed [--dir databases/demo] [--rows 1000]
// Then inspect: go run ./cmd/inspect_idx --check databases/demo/indexes/students_by_age.idx
package main

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"os"
	"time"

	storageengine "ArenaDB/storage_engine"
	"ArenaDB/types"

	"github.com/cockroachdb/errors"
	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var firstNames = []string{"Alice", "Bob", "Carol", "Dave", "Eve", "Frank", "Grace", "Heidi", "Ivan", "Judy", "Mallory", "Niaj", "Olivia", "Peggy", "Rupert", "Sybil", "Trent", "Victor", "Walter"}

var courses = [][2]string{
	{"CS101", "Intro to CS"},
	{"CS102", "Data Structures"},
	{"CS201", "Algorithms"},
	{"CS301", "Databases"},
	{"MA101", "Calculus"},
}

func main() {
	var (
		dir  string
		rows int
		seed int64
	)
	cmd := &cobra.Command{
		Use:          "seed",
		Short:        "Create a demo database with sample rows",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := os.RemoveAll(dir); err != nil {
				return errors.Wrap(err, "failed to clear demo directory")
			}
			logger, err := zap.NewDevelopment()
			if err != nil {
				return err
			}
			defer logger.Sync()

			se, err := storageengine.Open(storageengine.Config{Dir: dir, Logger: logger})
			if err != nil {
				return err
			}
			defer se.Close()
			return seedDemo(cmd.OutOrStdout(), se, rows, rand.New(rand.NewSource(seed)))
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "databases/demo", "database directory, recreated on every run")
	cmd.Flags().IntVar(&rows, "rows", 1000, "number of students to insert")
	cmd.Flags().Int64Var(&seed, "seed", time.Now().UnixNano(), "random seed")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func seedDemo(out io.Writer, se *storageengine.StorageEngine, n int, rng *rand.Rand) error {
	err := se.CreateTable(types.TableSchema{
		TableName: "students",
		Columns: []types.ColumnDef{
			{Name: "id", Type: "INT"},
			{Name: "name", Type: "CHAR", Size: 16},
			{Name: "age", Type: "INT"},
			{Name: "gpa", Type: "FLOAT"},
		},
		Indexes: []types.IndexDef{
			{Name: "pk", Columns: []string{"id"}, Unique: true},
			{Name: "by_age", Columns: []string{"age", "name"}},
		},
	})
	if err != nil {
		return err
	}
	err = se.CreateTable(types.TableSchema{
		TableName: "courses",
		Columns: []types.ColumnDef{
			{Name: "code", Type: "CHAR", Size: 8},
			{Name: "title", Type: "CHAR", Size: 24},
		},
		Indexes: []types.IndexDef{{Name: "pk", Columns: []string{"code"}, Unique: true}},
	})
	if err != nil {
		return err
	}

	start := time.Now()
	tx := se.Begin()
	for _, c := range courses {
		if _, err := se.Insert(tx, "courses", []types.Value{types.CharValue(c[0]), types.CharValue(c[1])}); err != nil {
			return errors.CombineErrors(err, se.Rollback(tx))
		}
	}
	for i := 1; i <= n; i++ {
		vals := []types.Value{
			types.IntValue(int64(i)),
			types.CharValue(firstNames[rng.Intn(len(firstNames))]),
			types.IntValue(int64(18 + rng.Intn(10))),
			types.FloatValue(float64(rng.Intn(401)) / 100),
		}
		if _, err := se.Insert(tx, "students", vals); err != nil {
			return errors.CombineErrors(err, se.Rollback(tx))
		}
	}
	if err := se.Commit(tx); err != nil {
		return err
	}
	// gpa index built over the existing rows
	if err := se.CreateIndex("students", types.IndexDef{Name: "by_gpa", Columns: []string{"gpa"}}); err != nil {
		return err
	}
	if err := se.Sync(context.Background()); err != nil {
		return err
	}
	fmt.Fprintf(out, "inserted %s students in %v\n\n", humanize.Comma(int64(n)), time.Since(start).Round(time.Millisecond))

	samples := []struct {
		title string
		q     storageengine.Query
	}{
		{"age = 21, first 5", storageengine.Query{Table: "students", Index: "by_age", Op: types.OpEQ, Values: []types.Value{types.IntValue(21)}, Limit: 5}},
		{"age = 20 and name > 'M'", storageengine.Query{Table: "students", Index: "by_age", Op: types.OpGT, Values: []types.Value{types.IntValue(20), types.CharValue("M")}, Limit: 5}},
		{"gpa >= 3.9", storageengine.Query{Table: "students", Index: "by_gpa", Op: types.OpGE, Values: []types.Value{types.FloatValue(3.9)}, Limit: 5}},
		{"age < 19 with gpa < 1", storageengine.Query{Table: "students", Index: "by_age", Op: types.OpLT, Values: []types.Value{types.IntValue(19)},
			Where: func(v []types.Value) bool { return v[3].F < 1 }, Limit: 5}},
		{"course CS301", storageengine.Query{Table: "courses", Index: "pk", Op: types.OpEQ, Values: []types.Value{types.CharValue("CS301")}}},
	}
	for _, s := range samples {
		rows, err := se.Select(nil, s.q)
		if err != nil {
			return errors.Wrapf(err, "query %q", s.title)
		}
		total, err := se.Count(nil, storageengine.Query{Table: s.q.Table, Index: s.q.Index, Op: s.q.Op, Values: s.q.Values, Where: s.q.Where})
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "--- %s (%d matching) ---\n", s.title, total)
		printRows(out, se, s.q.Table, rows)
	}

	for _, name := range se.Tables() {
		st, err := se.Stats(name)
		if err != nil {
			return err
		}
		tw := table.NewWriter()
		tw.SetOutputMirror(out)
		tw.SetStyle(table.StyleLight)
		tw.SetTitle("%s: %s rows, %s", name, humanize.Comma(int64(st.Rows)), humanize.Bytes(uint64(st.Bytes)))
		tw.AppendHeader(table.Row{"index", "rows", "height", "size"})
		for _, ix := range st.Indexes {
			tw.AppendRow(table.Row{ix.Name, humanize.Comma(int64(ix.Rows)), ix.Height, humanize.Bytes(uint64(ix.Bytes))})
		}
		tw.Render()
	}
	return nil
}

func printRows(out io.Writer, se *storageengine.StorageEngine, tableName string, rows []types.Row) {
	schema, err := se.CatalogManager.GetTableSchema(tableName)
	if err != nil {
		return
	}
	tw := table.NewWriter()
	tw.SetOutputMirror(out)
	tw.SetStyle(table.StyleLight)
	header := table.Row{"rowid"}
	for _, c := range schema.Columns {
		header = append(header, c.Name)
	}
	tw.AppendHeader(header)
	for _, r := range rows {
		line := table.Row{r.ID}
		for _, v := range r.Values {
			line = append(line, v.String())
		}
		tw.AppendRow(line)
	}
	tw.Render()
	fmt.Fprintln(out)
}
