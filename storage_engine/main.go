package storageengine

import (
	"context"
	"os"
	"path/filepath"
	"sort"

	heapfile "ArenaDB/storage_engine/access/heapfile_manager"
	indexfile "ArenaDB/storage_engine/access/indexfile_manager"
	"ArenaDB/storage_engine/bufferpool"
	"ArenaDB/storage_engine/catalog"
	checkpoint "ArenaDB/storage_engine/checkpoint_manager"
	txn "ArenaDB/storage_engine/transaction_manager"
	"ArenaDB/types"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

/*
The main file of storage engine, that wires the catalog, heap files, index
files and the transaction manager together.

	<Dir>/
	  tables/<table>_schema.json        catalog
	  metadata/*.json                   catalog
	  heap/<fileID>.heap                one row arena per table
	  indexes/<table>_<index>.idx       one node arena per index
	  checkpoint.json                   clean shutdown marker

Rows left TRANS or DIRTY by a process that died mid-transaction are reclaimed
when the engine opens after anything but a clean Close.
*/

var (
	ErrRowNotFound   = errors.New("row not found")
	ErrWriteConflict = errors.New("row is being deleted by another transaction")
)

// Open starts an engine over cfg.Dir, loading every table the catalog knows.
func Open(cfg Config) (*StorageEngine, error) {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	logger := cfg.Logger

	var heapDir, indexDir string
	if cfg.Dir != "" {
		if err := os.MkdirAll(cfg.Dir, 0755); err != nil {
			return nil, errors.Wrap(err, "failed to create db root")
		}
		heapDir = filepath.Join(cfg.Dir, "heap")
		indexDir = filepath.Join(cfg.Dir, "indexes")
	}

	cache, err := bufferpool.NewRowCache(bufferpool.Config{MaxRows: cfg.CacheRows})
	if err != nil {
		return nil, errors.Wrap(err, "failed to init row cache")
	}
	heapManager, err := heapfile.NewHeapFileManager(heapfile.Config{
		BaseDir:         heapDir,
		InitialCapacity: cfg.InitialCapacity,
		MaxRows:         cfg.MaxRows,
		Cache:           cache,
		Logger:          logger,
	})
	if err != nil {
		cache.Close()
		return nil, errors.Wrap(err, "failed to init heap file manager")
	}
	indexManager, err := indexfile.NewIndexFileManager(indexfile.Config{
		BaseDir:         indexDir,
		InitialCapacity: cfg.InitialCapacity,
		MaxRows:         cfg.MaxRows,
		Logger:          logger,
	})
	if err != nil {
		cache.Close()
		return nil, errors.Wrap(err, "failed to init index file manager")
	}

	se := &StorageEngine{
		RowCache:       cache,
		CatalogManager: catalog.NewCatalogManager(cfg.Dir, logger),
		IndexManager:   indexManager,
		HeapManager:    heapManager,
		TxnManager:     txn.NewTxnManager(logger),
		DbRoot:         cfg.Dir,
		logger:         logger,
		tables:         make(map[string]*tableHandle),
	}

	if err := se.CatalogManager.LoadAll(); err != nil {
		se.closeFiles()
		return nil, errors.Wrap(err, "failed to load catalog")
	}

	clean := true
	if cfg.Dir != "" {
		se.CheckpointManager = checkpoint.NewCheckpointManager(cfg.Dir)
		cp, err := se.CheckpointManager.LoadCheckpoint()
		if err != nil {
			se.closeFiles()
			return nil, err
		}
		clean = cp.Clean
	}
	for _, name := range se.CatalogManager.TableNames() {
		if err := se.loadTable(name, !clean); err != nil {
			se.closeFiles()
			return nil, err
		}
	}
	if se.CheckpointManager != nil {
		if err := se.CheckpointManager.SaveCheckpoint(checkpoint.Checkpoint{Clean: false}); err != nil {
			se.closeFiles()
			return nil, err
		}
	}

	logger.Info("storage engine open",
		zap.String("dir", cfg.Dir),
		zap.Int("tables", len(se.tables)),
		zap.Bool("clean", clean))
	return se, nil
}

func (se *StorageEngine) loadTable(name string, reclaim bool) error {
	schema, err := se.CatalogManager.GetTableSchema(name)
	if err != nil {
		return err
	}
	fileID, err := se.CatalogManager.GetTableFileID(name)
	if err != nil {
		return err
	}
	hf, err := se.HeapManager.LoadHeapFile(schema, fileID)
	if err != nil {
		return errors.Wrapf(err, "failed to load table '%s'", name)
	}
	for _, def := range schema.Indexes {
		if _, err := se.IndexManager.LoadIndex(hf, def); err != nil {
			return errors.Wrapf(err, "failed to load index '%s'", def.Name)
		}
	}
	if reclaim {
		if err := se.reclaim(hf); err != nil {
			return err
		}
	}
	se.addHandle(hf)
	return nil
}

// reclaim frees rows a previous process left uncommitted.
func (se *StorageEngine) reclaim(hf *heapfile.HeapFile) error {
	var orphans []types.RowID
	hf.Scan(func(id types.RowID, _ []byte) bool {
		if c := hf.Ctrl(id); c == types.RowTrans || c == types.RowDirty {
			orphans = append(orphans, id)
		}
		return true
	})
	for _, id := range orphans {
		if err := se.IndexManager.RemoveRow(hf.TableName(), id); err != nil {
			return errors.Wrapf(err, "table %s: reclaim row %d", hf.TableName(), id)
		}
		if err := hf.DeleteRow(id); err != nil {
			return err
		}
	}
	if len(orphans) > 0 {
		se.logger.Warn("reclaimed uncommitted rows",
			zap.String("table", hf.TableName()),
			zap.Int("rows", len(orphans)))
	}
	return nil
}

func (se *StorageEngine) addHandle(hf *heapfile.HeapFile) {
	se.tablesMu.Lock()
	se.tables[hf.TableName()] = &tableHandle{
		heap:       hf,
		pendingDel: make(map[types.RowID]uint64),
	}
	se.tablesMu.Unlock()
}

func (se *StorageEngine) table(name string) (*tableHandle, error) {
	se.tablesMu.RLock()
	defer se.tablesMu.RUnlock()
	th, ok := se.tables[name]
	if !ok {
		return nil, errors.Wrapf(catalog.ErrUnknownTable, "table '%s'", name)
	}
	return th, nil
}

// handles returns every open table ordered by name.
func (se *StorageEngine) handles() []*tableHandle {
	se.tablesMu.RLock()
	defer se.tablesMu.RUnlock()
	names := make([]string, 0, len(se.tables))
	for name := range se.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]*tableHandle, len(names))
	for i, name := range names {
		out[i] = se.tables[name]
	}
	return out
}

// Sync flushes every heap and index file. Writers are held off for the
// duration so no arena is remapped under the flush.
func (se *StorageEngine) Sync(ctx context.Context) error {
	handles := se.handles()
	for _, th := range handles {
		th.mu.RLock()
	}
	defer func() {
		for _, th := range handles {
			th.mu.RUnlock()
		}
	}()

	if err := se.HeapManager.SyncAll(); err != nil {
		return errors.Wrap(err, "failed to sync heap files")
	}
	if err := se.IndexManager.SyncAll(ctx); err != nil {
		return errors.Wrap(err, "failed to sync index files")
	}
	return nil
}

// Close aborts live transactions, then flushes and closes every file. Only a
// fully successful close is recorded as clean.
func (se *StorageEngine) Close() error {
	var err error
	for _, id := range se.TxnManager.ActiveTransactions() {
		if t := se.TxnManager.GetTransaction(id); t != nil {
			err = errors.CombineErrors(err, se.Rollback(t))
		}
	}
	rows := make(map[string]uint32)
	for _, th := range se.handles() {
		rows[th.heap.TableName()] = th.heap.RowCount()
	}
	err = errors.CombineErrors(err, se.closeFiles())
	if err == nil && se.CheckpointManager != nil {
		err = se.CheckpointManager.SaveCheckpoint(checkpoint.Checkpoint{Clean: true, Rows: rows})
	}

	se.tablesMu.Lock()
	se.tables = make(map[string]*tableHandle)
	se.tablesMu.Unlock()

	se.logger.Info("storage engine closed", zap.String("dir", se.DbRoot))
	return err
}

func (se *StorageEngine) closeFiles() error {
	err := se.IndexManager.CloseAll()
	err = errors.CombineErrors(err, se.HeapManager.CloseAll())
	se.RowCache.Close()
	return err
}

// Stats reports the size of a table and its indexes.
func (se *StorageEngine) Stats(tableName string) (TableStats, error) {
	th, err := se.table(tableName)
	if err != nil {
		return TableStats{}, err
	}
	schema, err := se.CatalogManager.GetTableSchema(tableName)
	if err != nil {
		return TableStats{}, err
	}
	th.mu.RLock()
	defer th.mu.RUnlock()

	st := TableStats{
		Table:    tableName,
		FileID:   th.heap.FileID(),
		Rows:     th.heap.RowCount(),
		Capacity: th.heap.Capacity(),
		Bytes:    th.heap.Size(),
	}
	for _, def := range schema.Indexes {
		tree, ok := se.IndexManager.Index(tableName, def.Name)
		if !ok {
			continue
		}
		ts := tree.Stats()
		st.Indexes = append(st.Indexes, IndexStats{
			Name:     def.Name,
			Columns:  def.Columns,
			Unique:   def.Unique,
			Rows:     ts.Rows,
			Nodes:    ts.Nodes,
			Height:   ts.Height,
			Queries:  ts.Queries,
			Capacity: ts.Capacity,
			Bytes:    ts.Bytes,
		})
	}
	return st, nil
}

// Tables lists the tables of the database.
func (se *StorageEngine) Tables() []string {
	return se.CatalogManager.TableNames()
}
