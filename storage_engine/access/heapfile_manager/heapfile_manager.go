package heapfile

import (
	"fmt"
	"os"
	"path/filepath"

	"ArenaDB/storage_engine/bufferpool"
	diskmanager "ArenaDB/storage_engine/disk_manager"
	"ArenaDB/types"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

/*
Heap file manager.
One arena per table, named <fileID>.heap under BaseDir, where fileID is the
id the catalog assigned to the table. Slot ids of the arena are the row ids
every index of the table is keyed by.
*/

func NewHeapFileManager(cfg Config) (*HeapFileManager, error) {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Cache == nil {
		cache, err := bufferpool.NewRowCache(bufferpool.Config{})
		if err != nil {
			return nil, err
		}
		cfg.Cache = cache
	}
	if cfg.BaseDir != "" {
		if err := os.MkdirAll(cfg.BaseDir, 0755); err != nil {
			return nil, errors.Wrap(err, "failed to create heap directory")
		}
	}
	return &HeapFileManager{
		cfg:        cfg,
		files:      make(map[uint32]*HeapFile),
		tableIndex: make(map[string]uint32),
		logger:     cfg.Logger,
	}, nil
}

func (hfm *HeapFileManager) heapPath(fileID uint32) string {
	if hfm.cfg.BaseDir == "" {
		return ""
	}
	return filepath.Join(hfm.cfg.BaseDir, fmt.Sprintf("%d.heap", fileID))
}

func (hfm *HeapFileManager) arenaConfig(fileID uint32) diskmanager.Config {
	return diskmanager.Config{
		Path:            hfm.heapPath(fileID),
		Magic:           types.MagicTable,
		BlockType:       types.BlockTypeRows,
		CtrlOffset:      ctrlOffset,
		InitialCapacity: hfm.cfg.InitialCapacity,
		Limit:           hfm.cfg.MaxRows,
		Logger:          hfm.logger,
	}
}

// CreateHeapfile creates the arena for a new table.
func (hfm *HeapFileManager) CreateHeapfile(schema types.TableSchema, fileID uint32) (*HeapFile, error) {
	return hfm.attach(schema, fileID, true)
}

// LoadHeapFile opens the arena of an existing table.
func (hfm *HeapFileManager) LoadHeapFile(schema types.TableSchema, fileID uint32) (*HeapFile, error) {
	return hfm.attach(schema, fileID, false)
}

func (hfm *HeapFileManager) attach(schema types.TableSchema, fileID uint32, create bool) (*HeapFile, error) {
	hfm.mu.Lock()
	defer hfm.mu.Unlock()

	if hf, exists := hfm.files[fileID]; exists {
		if create {
			return nil, errors.Newf("heap file for table '%s' already open", schema.TableName)
		}
		return hf, nil
	}

	layout, rowSize, err := newLayout(schema)
	if err != nil {
		return nil, err
	}
	cfg := hfm.arenaConfig(fileID)
	cfg.BlockSize = uint32(rowSize)

	var stg *diskmanager.Manager
	if create {
		if cfg.Path != "" {
			if _, err := os.Stat(cfg.Path); err == nil {
				return nil, errors.Newf("heapfile %d already exists", fileID)
			}
		}
		stg, err = diskmanager.Create(cfg)
	} else {
		stg, err = diskmanager.Open(cfg)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "table %s", schema.TableName)
	}

	hf := &HeapFile{
		fileID:    fileID,
		tableName: schema.TableName,
		schema:    schema,
		layout:    layout,
		rowSize:   rowSize,
		stg:       stg,
		cache:     hfm.cfg.Cache,
		filePath:  cfg.Path,
		logger:    hfm.logger.With(zap.String("table", schema.TableName)),
	}
	hfm.files[fileID] = hf
	hfm.tableIndex[schema.TableName] = fileID

	hf.logger.Debug("heap file attached",
		zap.Bool("created", create),
		zap.Int("row_size", rowSize),
		zap.Uint32("rows", stg.Allocated()))
	return hf, nil
}

func (hfm *HeapFileManager) GetHeapFileByTable(tableName string) (*HeapFile, error) {
	hfm.mu.RLock()
	defer hfm.mu.RUnlock()
	fileID, ok := hfm.tableIndex[tableName]
	if !ok {
		return nil, errors.Newf("no heap file for table '%s'", tableName)
	}
	return hfm.files[fileID], nil
}

func (hfm *HeapFileManager) CloseHeapFile(tableName string) error {
	hfm.mu.Lock()
	defer hfm.mu.Unlock()
	fileID, ok := hfm.tableIndex[tableName]
	if !ok {
		return nil
	}
	hf := hfm.files[fileID]
	delete(hfm.files, fileID)
	delete(hfm.tableIndex, tableName)
	return hf.stg.Close()
}

// DropHeapFile closes the table arena and deletes it.
func (hfm *HeapFileManager) DropHeapFile(tableName string) error {
	hfm.mu.Lock()
	defer hfm.mu.Unlock()
	fileID, ok := hfm.tableIndex[tableName]
	if !ok {
		return errors.Newf("no heap file for table '%s'", tableName)
	}
	hf := hfm.files[fileID]
	delete(hfm.files, fileID)
	delete(hfm.tableIndex, tableName)
	for id := types.RowID(1); id <= hf.stg.MaxID(); id++ {
		hf.cache.Evict(fileID, id)
	}
	return hf.stg.Drop()
}

func (hfm *HeapFileManager) SyncAll() error {
	hfm.mu.RLock()
	defer hfm.mu.RUnlock()
	var err error
	for _, hf := range hfm.files {
		err = errors.CombineErrors(err, hf.Sync())
	}
	return err
}

func (hfm *HeapFileManager) CloseAll() error {
	hfm.mu.Lock()
	defer hfm.mu.Unlock()
	var err error
	for id, hf := range hfm.files {
		err = errors.CombineErrors(err, hf.stg.Close())
		delete(hfm.files, id)
	}
	hfm.tableIndex = make(map[string]uint32)
	return err
}
