package indexfile

import (
	"context"
	"os"
	"path/filepath"
	"sort"

	heapfile "ArenaDB/storage_engine/access/heapfile_manager"
	"ArenaDB/storage_engine/access/indexfile_manager/rbtree"
	diskmanager "ArenaDB/storage_engine/disk_manager"
	"ArenaDB/types"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

/*
Index File Manager owns every red-black index of every table.
Each index is one arena file, <table>_<index>.idx under BaseDir, whose node
slot N belongs to row N of the table's heap file. The heap file is both the
row source and the comparator of its indexes.
*/

func NewIndexFileManager(cfg Config) (*IndexFileManager, error) {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.BaseDir != "" {
		if err := os.MkdirAll(cfg.BaseDir, 0755); err != nil {
			return nil, errors.Wrap(err, "failed to create indexes directory")
		}
	}
	return &IndexFileManager{
		cfg:     cfg,
		indexes: make(map[string]map[string]*rbtree.Tree),
		logger:  cfg.Logger,
	}, nil
}

func (ifm *IndexFileManager) indexPath(tableName, indexName string) string {
	if ifm.cfg.BaseDir == "" {
		return ""
	}
	return filepath.Join(ifm.cfg.BaseDir, tableName+"_"+indexName+".idx")
}

func (ifm *IndexFileManager) options(hf *heapfile.HeapFile, def types.IndexDef) (rbtree.Options, error) {
	schema := hf.Schema()
	fields, err := schema.FieldList(def)
	if err != nil {
		return rbtree.Options{}, err
	}
	return rbtree.Options{
		Name:            hf.TableName() + "." + def.Name,
		Path:            ifm.indexPath(hf.TableName(), def.Name),
		Fields:          fields,
		Unique:          def.Unique,
		InitialCapacity: max(ifm.cfg.InitialCapacity, hf.Capacity()),
		MaxCapacity:     ifm.cfg.MaxRows,
		Rows:            hf,
		Comparator:      hf,
		Logger:          ifm.logger,
	}, nil
}

func (ifm *IndexFileManager) register(tableName, indexName string, tree *rbtree.Tree) {
	byName, ok := ifm.indexes[tableName]
	if !ok {
		byName = make(map[string]*rbtree.Tree)
		ifm.indexes[tableName] = byName
	}
	byName[indexName] = tree
}

// CreateIndex builds a new index over hf and fills it with every row already
// published or pending in the table. A unique index fails on committed
// duplicates and leaves nothing behind.
func (ifm *IndexFileManager) CreateIndex(hf *heapfile.HeapFile, def types.IndexDef) (*rbtree.Tree, error) {
	ifm.mu.Lock()
	defer ifm.mu.Unlock()

	if _, exists := ifm.indexes[hf.TableName()][def.Name]; exists {
		return nil, errors.Newf("index '%s' already open on table '%s'", def.Name, hf.TableName())
	}
	opts, err := ifm.options(hf, def)
	if err != nil {
		return nil, err
	}
	tree, err := rbtree.Create(opts)
	if err != nil {
		return nil, err
	}
	if err := ifm.build(tree, hf); err != nil {
		_ = tree.Drop()
		return nil, errors.Wrapf(err, "failed to build index '%s'", def.Name)
	}

	ifm.register(hf.TableName(), def.Name, tree)
	ifm.logger.Debug("index built",
		zap.String("table", hf.TableName()),
		zap.String("index", def.Name),
		zap.Uint32("rows", tree.RowCount()))
	return tree, nil
}

// build indexes every COMMIT or TRANS row of hf. Only committed rows take
// part in unique checks.
func (ifm *IndexFileManager) build(tree *rbtree.Tree, hf *heapfile.HeapFile) error {
	committed := rbtree.VisibleFunc(func(_ []byte, id types.RowID) bool {
		return hf.Ctrl(id) == types.RowCommit
	})
	var err error
	hf.Scan(func(id types.RowID, row []byte) bool {
		switch hf.Ctrl(id) {
		case types.RowCommit, types.RowTrans:
			err = tree.Add(id, row, committed)
		}
		return err == nil
	})
	return err
}

// LoadIndex opens an existing index file. A missing file is rebuilt from the
// table rows.
func (ifm *IndexFileManager) LoadIndex(hf *heapfile.HeapFile, def types.IndexDef) (*rbtree.Tree, error) {
	ifm.mu.Lock()
	if tree, exists := ifm.indexes[hf.TableName()][def.Name]; exists {
		ifm.mu.Unlock()
		return tree, nil
	}
	opts, err := ifm.options(hf, def)
	if err != nil {
		ifm.mu.Unlock()
		return nil, err
	}
	tree, err := rbtree.Open(opts)
	if err == nil {
		ifm.register(hf.TableName(), def.Name, tree)
		ifm.mu.Unlock()
		return tree, nil
	}
	ifm.mu.Unlock()

	if !errors.Is(err, diskmanager.ErrNotFound) {
		return nil, errors.Wrapf(err, "failed to load index for table '%s'", hf.TableName())
	}
	ifm.logger.Warn("index file missing, rebuilding",
		zap.String("table", hf.TableName()),
		zap.String("index", def.Name))
	return ifm.CreateIndex(hf, def)
}

func (ifm *IndexFileManager) Index(tableName, indexName string) (*rbtree.Tree, bool) {
	ifm.mu.RLock()
	defer ifm.mu.RUnlock()
	tree, ok := ifm.indexes[tableName][indexName]
	return tree, ok
}

// Indexes returns the open indexes of a table ordered by name.
func (ifm *IndexFileManager) Indexes(tableName string) []*rbtree.Tree {
	ifm.mu.RLock()
	defer ifm.mu.RUnlock()
	byName := ifm.indexes[tableName]
	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	sort.Strings(names)
	trees := make([]*rbtree.Tree, len(names))
	for i, name := range names {
		trees[i] = byName[name]
	}
	return trees
}

// AddRow adds row id to every index of the table. When one index refuses the
// row, the indexes already updated are rolled back.
func (ifm *IndexFileManager) AddRow(tableName string, id types.RowID, row []byte, vis rbtree.Visibility) error {
	trees := ifm.Indexes(tableName)
	for i, tree := range trees {
		if err := tree.Add(id, row, vis); err != nil {
			for _, done := range trees[:i] {
				if rmErr := done.Remove(id); rmErr != nil {
					ifm.logger.Warn("rollback of partial index insert failed",
						zap.String("index", done.Name()),
						zap.Uint32("row", id),
						zap.Error(rmErr))
					err = errors.CombineErrors(err, rmErr)
				}
			}
			return err
		}
	}
	return nil
}

// RemoveRow takes row id out of every index of the table.
func (ifm *IndexFileManager) RemoveRow(tableName string, id types.RowID) error {
	var err error
	for _, tree := range ifm.Indexes(tableName) {
		err = errors.CombineErrors(err, tree.Remove(id))
	}
	return err
}

// CloseIndex closes one index and removes it from the cache.
func (ifm *IndexFileManager) CloseIndex(tableName, indexName string) error {
	ifm.mu.Lock()
	defer ifm.mu.Unlock()

	tree, exists := ifm.indexes[tableName][indexName]
	if !exists {
		return nil
	}
	delete(ifm.indexes[tableName], indexName)
	if err := tree.Close(); err != nil {
		return errors.Wrapf(err, "failed to close index '%s' of table '%s'", indexName, tableName)
	}
	return nil
}

// DropIndex closes an index and deletes its file.
func (ifm *IndexFileManager) DropIndex(tableName, indexName string) error {
	ifm.mu.Lock()
	defer ifm.mu.Unlock()

	tree, exists := ifm.indexes[tableName][indexName]
	if !exists {
		return errors.Newf("index '%s' not open on table '%s'", indexName, tableName)
	}
	delete(ifm.indexes[tableName], indexName)
	return tree.Drop()
}

// DropTable drops every index of a table.
func (ifm *IndexFileManager) DropTable(tableName string) error {
	ifm.mu.Lock()
	defer ifm.mu.Unlock()

	var err error
	for _, tree := range ifm.indexes[tableName] {
		err = errors.CombineErrors(err, tree.Drop())
	}
	delete(ifm.indexes, tableName)
	return err
}

func (ifm *IndexFileManager) all() []*rbtree.Tree {
	var trees []*rbtree.Tree
	for _, byName := range ifm.indexes {
		for _, tree := range byName {
			trees = append(trees, tree)
		}
	}
	return trees
}

// SyncAll flushes every index concurrently, one goroutine per index file.
func (ifm *IndexFileManager) SyncAll(ctx context.Context) error {
	ifm.mu.RLock()
	defer ifm.mu.RUnlock()

	g, ctx := errgroup.WithContext(ctx)
	for _, tree := range ifm.all() {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return tree.Sync()
		})
	}
	return g.Wait()
}

// CloseAll closes all cached indexes and clears the cache.
func (ifm *IndexFileManager) CloseAll() error {
	ifm.mu.Lock()
	defer ifm.mu.Unlock()

	var g errgroup.Group
	for _, tree := range ifm.all() {
		g.Go(tree.Close)
	}
	err := g.Wait()
	ifm.indexes = make(map[string]map[string]*rbtree.Tree)
	return err
}
