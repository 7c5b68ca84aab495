package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	storageengine "ArenaDB/storage_engine"
	txn "ArenaDB/storage_engine/transaction_manager"
	"ArenaDB/types"

	"github.com/chzyer/readline"
	"github.com/cockroachdb/errors"
	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
)

const shellHelp = `Commands:
  tables                                        list tables
  stats <table>                                 table and index statistics
  create <table> <col:type[:size]>...           create a table (INT, FLOAT, CHAR)
  index <table> <name> <col[,col..]> [unique]   create an index
  dropindex <table> <name>                      drop an index
  drop <table>                                  drop a table
  begin | commit | rollback                     explicit transaction control
  insert <table> <value>...                     insert a row
  update <table> <rowid> <value>...             replace a row
  delete <table> <rowid>                        delete a row
  get <table> <rowid>                           fetch one row
  select <table> <index> <op> <value>... [limit N]
                                                index query, op is = >= > < <=
  scan <table> [limit N]                        every visible row
  sync                                          flush all files
  help | exit`

// shell runs one command per line. Outside begin/commit every write runs in
// its own transaction.
type shell struct {
	se  *storageengine.StorageEngine
	rl  *readline.Instance
	tx  *txn.Transaction
	out io.Writer
}

func newShell(se *storageengine.StorageEngine) (*shell, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	rl, err := readline.NewEx(&readline.Config{
		Prompt:            "arenadb> ",
		HistoryFile:       filepath.Join(home, ".arenadb_history"),
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to initialize readline")
	}
	return &shell{se: se, rl: rl, out: os.Stdout}, nil
}

func (sh *shell) Run() error {
	fmt.Fprintln(sh.out, "ArenaDB shell. Type 'help' for commands, 'exit' to quit.")
	for {
		line, err := sh.rl.Readline()
		if err != nil {
			if err == io.EOF || err == readline.ErrInterrupt {
				return nil
			}
			return err
		}
		args := splitArgs(line)
		if len(args) == 0 {
			continue
		}
		if cmd := strings.ToLower(args[0]); cmd == "exit" || cmd == "quit" {
			return nil
		}

		start := time.Now()
		if err := sh.exec(args); err != nil {
			fmt.Fprintf(sh.out, "Error: %v\n", err)
			continue
		}
		fmt.Fprintf(sh.out, "(%v)\n", time.Since(start).Round(time.Microsecond))
	}
}

func (sh *shell) Close() error {
	if sh.tx != nil {
		_ = sh.se.Rollback(sh.tx)
	}
	if sh.rl == nil {
		return nil
	}
	return sh.rl.Close()
}

func (sh *shell) prompt(p string) {
	if sh.rl != nil {
		sh.rl.SetPrompt(p)
	}
}

func (sh *shell) exec(args []string) error {
	cmd, args := strings.ToLower(args[0]), args[1:]
	switch cmd {
	case "help":
		fmt.Fprintln(sh.out, shellHelp)
		return nil
	case "tables":
		return sh.tables()
	case "stats":
		if len(args) != 1 {
			return errors.New("usage: stats <table>")
		}
		return sh.stats(args[0])
	case "create":
		return sh.create(args)
	case "index":
		return sh.index(args)
	case "dropindex":
		if len(args) != 2 {
			return errors.New("usage: dropindex <table> <name>")
		}
		return sh.se.DropIndex(args[0], args[1])
	case "drop":
		if len(args) != 1 {
			return errors.New("usage: drop <table>")
		}
		return sh.se.DropTable(args[0])
	case "begin":
		if sh.tx != nil {
			return errors.Newf("transaction %d already open", sh.tx.ID)
		}
		sh.tx = sh.se.Begin()
		sh.prompt(fmt.Sprintf("arenadb[txn %d]> ", sh.tx.ID))
		return nil
	case "commit", "rollback":
		if sh.tx == nil {
			return errors.New("no open transaction")
		}
		t := sh.tx
		sh.tx = nil
		sh.prompt("arenadb> ")
		if cmd == "commit" {
			return sh.se.Commit(t)
		}
		return sh.se.Rollback(t)
	case "insert":
		return sh.insert(args)
	case "update":
		return sh.update(args)
	case "delete":
		if len(args) != 2 {
			return errors.New("usage: delete <table> <rowid>")
		}
		id, err := parseRowID(args[1])
		if err != nil {
			return err
		}
		return sh.write(func(t *txn.Transaction) error {
			return sh.se.Delete(t, args[0], id)
		})
	case "get":
		if len(args) != 2 {
			return errors.New("usage: get <table> <rowid>")
		}
		id, err := parseRowID(args[1])
		if err != nil {
			return err
		}
		row, err := sh.se.Get(sh.tx, args[0], id)
		if err != nil {
			return err
		}
		return sh.printRows(args[0], []types.Row{row})
	case "select":
		return sh.selectRows(args)
	case "scan":
		return sh.scan(args)
	case "sync":
		return sh.se.Sync(context.Background())
	}
	return errors.Newf("unknown command %q, try 'help'", cmd)
}

// write runs fn in the open transaction, or in one of its own.
func (sh *shell) write(fn func(t *txn.Transaction) error) error {
	if sh.tx != nil {
		return fn(sh.tx)
	}
	t := sh.se.Begin()
	if err := fn(t); err != nil {
		return errors.CombineErrors(err, sh.se.Rollback(t))
	}
	return sh.se.Commit(t)
}

func (sh *shell) schema(tableName string) (types.TableSchema, error) {
	return sh.se.CatalogManager.GetTableSchema(tableName)
}

func (sh *shell) values(tableName string, texts []string) ([]types.Value, error) {
	schema, err := sh.schema(tableName)
	if err != nil {
		return nil, err
	}
	if len(texts) != len(schema.Columns) {
		return nil, errors.Newf("table %s has %d columns, got %d values", tableName, len(schema.Columns), len(texts))
	}
	vals := make([]types.Value, len(texts))
	for i, text := range texts {
		if vals[i], err = storageengine.ParseValue(schema.Columns[i], text); err != nil {
			return nil, err
		}
	}
	return vals, nil
}

func (sh *shell) insert(args []string) error {
	if len(args) < 2 {
		return errors.New("usage: insert <table> <value>...")
	}
	vals, err := sh.values(args[0], args[1:])
	if err != nil {
		return err
	}
	return sh.write(func(t *txn.Transaction) error {
		id, err := sh.se.Insert(t, args[0], vals)
		if err == nil {
			fmt.Fprintf(sh.out, "row %d inserted\n", id)
		}
		return err
	})
}

func (sh *shell) update(args []string) error {
	if len(args) < 3 {
		return errors.New("usage: update <table> <rowid> <value>...")
	}
	id, err := parseRowID(args[1])
	if err != nil {
		return err
	}
	vals, err := sh.values(args[0], args[2:])
	if err != nil {
		return err
	}
	return sh.write(func(t *txn.Transaction) error {
		newID, err := sh.se.Update(t, args[0], id, vals)
		if err == nil {
			fmt.Fprintf(sh.out, "row %d updated as row %d\n", id, newID)
		}
		return err
	})
}

func (sh *shell) create(args []string) error {
	if len(args) < 2 {
		return errors.New("usage: create <table> <col:type[:size]>...")
	}
	schema := types.TableSchema{TableName: args[0]}
	for _, colDef := range args[1:] {
		parts := strings.Split(colDef, ":")
		if len(parts) < 2 || len(parts) > 3 {
			return errors.Newf("bad column %q, want name:type[:size]", colDef)
		}
		col := types.ColumnDef{Name: parts[0], Type: strings.ToUpper(parts[1])}
		if len(parts) == 3 {
			size, err := strconv.Atoi(parts[2])
			if err != nil || size <= 0 {
				return errors.Newf("bad size in column %q", colDef)
			}
			col.Size = size
		}
		if _, err := col.Kind(); err != nil {
			return err
		}
		schema.Columns = append(schema.Columns, col)
	}
	return sh.se.CreateTable(schema)
}

func (sh *shell) index(args []string) error {
	if len(args) < 3 || len(args) > 4 {
		return errors.New("usage: index <table> <name> <col[,col..]> [unique]")
	}
	def := types.IndexDef{Name: args[1], Columns: strings.Split(args[2], ",")}
	if len(args) == 4 {
		if !strings.EqualFold(args[3], "unique") {
			return errors.Newf("unexpected %q, want 'unique'", args[3])
		}
		def.Unique = true
	}
	return sh.se.CreateIndex(args[0], def)
}

// trailingLimit strips an optional "limit N" suffix.
func trailingLimit(args []string) ([]string, int, error) {
	n := len(args)
	if n < 2 || !strings.EqualFold(args[n-2], "limit") {
		return args, 0, nil
	}
	limit, err := strconv.Atoi(args[n-1])
	if err != nil || limit < 0 {
		return nil, 0, errors.Newf("bad limit %q", args[n-1])
	}
	return args[:n-2], limit, nil
}

func (sh *shell) selectRows(args []string) error {
	args, limit, err := trailingLimit(args)
	if err != nil {
		return err
	}
	if len(args) < 4 {
		return errors.New("usage: select <table> <index> <op> <value>... [limit N]")
	}
	op, err := types.ParseOp(args[2])
	if err != nil {
		return err
	}
	vals, err := sh.se.ParseKey(args[0], args[1], args[3:])
	if err != nil {
		return err
	}
	rows, err := sh.se.Select(sh.tx, storageengine.Query{
		Table:  args[0],
		Index:  args[1],
		Op:     op,
		Values: vals,
		Limit:  limit,
	})
	if err != nil {
		return err
	}
	return sh.printRows(args[0], rows)
}

func (sh *shell) scan(args []string) error {
	args, limit, err := trailingLimit(args)
	if err != nil {
		return err
	}
	if len(args) != 1 {
		return errors.New("usage: scan <table> [limit N]")
	}
	rows, err := sh.se.Scan(sh.tx, args[0], nil)
	if err != nil {
		return err
	}
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return sh.printRows(args[0], rows)
}

func (sh *shell) printRows(tableName string, rows []types.Row) error {
	schema, err := sh.schema(tableName)
	if err != nil {
		return err
	}
	tw := table.NewWriter()
	tw.SetOutputMirror(sh.out)
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
	tw.AppendFooter(table.Row{fmt.Sprintf("%d rows", len(rows))})
	tw.Render()
	return nil
}

func (sh *shell) tables() error {
	tw := table.NewWriter()
	tw.SetOutputMirror(sh.out)
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(table.Row{"table", "rows", "indexes", "size"})
	for _, name := range sh.se.Tables() {
		st, err := sh.se.Stats(name)
		if err != nil {
			return err
		}
		tw.AppendRow(table.Row{name, humanize.Comma(int64(st.Rows)), len(st.Indexes), humanize.Bytes(uint64(st.Bytes))})
	}
	tw.Render()
	return nil
}

func (sh *shell) stats(tableName string) error {
	st, err := sh.se.Stats(tableName)
	if err != nil {
		return err
	}
	fmt.Fprintf(sh.out, "%s: %s rows, capacity %s, %s on disk\n",
		st.Table, humanize.Comma(int64(st.Rows)), humanize.Comma(int64(st.Capacity)), humanize.Bytes(uint64(st.Bytes)))

	tw := table.NewWriter()
	tw.SetOutputMirror(sh.out)
	tw.SetStyle(table.StyleLight)
	tw.AppendHeader(table.Row{"index", "columns", "unique", "rows", "nodes", "height", "queries", "size"})
	for _, ix := range st.Indexes {
		tw.AppendRow(table.Row{
			ix.Name,
			strings.Join(ix.Columns, ","),
			ix.Unique,
			humanize.Comma(int64(ix.Rows)),
			humanize.Comma(int64(ix.Nodes)),
			ix.Height,
			humanize.Comma(int64(ix.Queries)),
			humanize.Bytes(uint64(ix.Bytes)),
		})
	}
	tw.Render()
	return nil
}

func parseRowID(s string) (types.RowID, error) {
	id, err := strconv.ParseUint(s, 10, 32)
	if err != nil || id == 0 {
		return 0, errors.Newf("bad row id %q", s)
	}
	return types.RowID(id), nil
}

// splitArgs splits a command line on whitespace, keeping quoted text
// together.
func splitArgs(line string) []string {
	var (
		args  []string
		cur   strings.Builder
		quote rune
		open  bool
	)
	for _, r := range line {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				cur.WriteRune(r)
			}
		case r == '\'' || r == '"':
			quote, open = r, true
		case r == ' ' || r == '\t':
			if open {
				args = append(args, cur.String())
				cur.Reset()
				open = false
			}
		default:
			cur.WriteRune(r)
			open = true
		}
	}
	if open {
		args = append(args, cur.String())
	}
	return args
}
