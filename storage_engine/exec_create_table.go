package storageengine

import (
	"ArenaDB/types"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

/*
This file contains the Create Table process
The table schema and mapping to the fileId is made persisted by the catalog manager
catalog manager writes the table schema to table_schema.json
and also manages the meta data like heap file counter and table_file_mapping for the table

Indexes listed in the schema are created along with the empty table.
*/

func (se *StorageEngine) CreateTable(schema types.TableSchema) error {
	tableName := schema.TableName
	if tableName == "" {
		return errors.New("table name is empty")
	}
	if len(schema.Columns) == 0 {
		return errors.Newf("table '%s' has no columns", tableName)
	}
	for _, def := range schema.Indexes {
		if _, err := schema.FieldList(def); err != nil {
			return err
		}
	}
	if se.CatalogManager.TableExists(tableName) {
		return errors.Newf("table '%s' already exists", tableName)
	}

	fileID, err := se.CatalogManager.RegisterNewTable(schema)
	if err != nil {
		return errors.Wrap(err, "failed to register table in catalog")
	}

	hf, err := se.HeapManager.CreateHeapfile(schema, fileID)
	if err != nil {
		if rerr := se.CatalogManager.UnregisterTable(tableName); rerr != nil {
			return errors.Wrapf(err, "failed to create heap file; also failed to roll back catalog entry: %v", rerr)
		}
		return errors.Wrap(err, "failed to create heap file")
	}

	for _, def := range schema.Indexes {
		if _, err := se.IndexManager.CreateIndex(hf, def); err != nil {
			err = errors.CombineErrors(err, se.IndexManager.DropTable(tableName))
			err = errors.CombineErrors(err, se.HeapManager.DropHeapFile(tableName))
			err = errors.CombineErrors(err, se.CatalogManager.UnregisterTable(tableName))
			return errors.Wrapf(err, "failed to create index '%s'", def.Name)
		}
	}

	se.addHandle(hf)
	se.logger.Info("table created",
		zap.String("table", tableName),
		zap.Uint32("file_id", fileID),
		zap.Int("indexes", len(schema.Indexes)))
	return nil
}

// DropTable deletes the table, its indexes and its files. Transactions that
// wrote to it can still finish; their writes to the table are skipped.
func (se *StorageEngine) DropTable(tableName string) error {
	th, err := se.table(tableName)
	if err != nil {
		return err
	}
	th.mu.Lock()
	defer th.mu.Unlock()

	se.tablesMu.Lock()
	delete(se.tables, tableName)
	se.tablesMu.Unlock()

	err = se.IndexManager.DropTable(tableName)
	err = errors.CombineErrors(err, se.HeapManager.DropHeapFile(tableName))
	err = errors.CombineErrors(err, se.CatalogManager.UnregisterTable(tableName))
	if err != nil {
		return errors.Wrapf(err, "failed to drop table '%s'", tableName)
	}
	se.logger.Info("table dropped", zap.String("table", tableName))
	return nil
}
