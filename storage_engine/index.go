package storageengine

import (
	"ArenaDB/storage_engine/access/indexfile_manager/rbtree"
	"ArenaDB/types"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

/*
This file contains function related to index in index files
An index is added to a live table by building it from the rows already
stored, then recording its definition in the catalog.
*/

// CreateIndex builds a new index on a table. A unique index over duplicate
// committed keys fails and leaves no trace.
func (se *StorageEngine) CreateIndex(tableName string, def types.IndexDef) error {
	th, err := se.table(tableName)
	if err != nil {
		return err
	}
	schema, err := se.CatalogManager.GetTableSchema(tableName)
	if err != nil {
		return err
	}
	if _, exists := schema.Index(def.Name); exists {
		return errors.Newf("index '%s' already exists on table '%s'", def.Name, tableName)
	}

	th.mu.Lock()
	defer th.mu.Unlock()

	if _, err := se.IndexManager.CreateIndex(th.heap, def); err != nil {
		return err
	}
	if err := se.CatalogManager.AddIndex(tableName, def); err != nil {
		return errors.CombineErrors(err, se.IndexManager.DropIndex(tableName, def.Name))
	}
	se.logger.Info("index created",
		zap.String("table", tableName),
		zap.String("index", def.Name),
		zap.Strings("columns", def.Columns),
		zap.Bool("unique", def.Unique))
	return nil
}

func (se *StorageEngine) DropIndex(tableName, indexName string) error {
	th, err := se.table(tableName)
	if err != nil {
		return err
	}
	schema, err := se.CatalogManager.GetTableSchema(tableName)
	if err != nil {
		return err
	}
	def, ok := schema.Index(indexName)
	if !ok {
		return errors.Newf("index '%s' not found on table '%s'", indexName, tableName)
	}

	th.mu.Lock()
	defer th.mu.Unlock()

	if err := se.CatalogManager.RemoveIndex(tableName, def.Name); err != nil {
		return err
	}
	if err := se.IndexManager.DropIndex(tableName, def.Name); err != nil {
		return err
	}
	se.logger.Info("index dropped", zap.String("table", tableName), zap.String("index", def.Name))
	return nil
}

// getIndex resolves an index by name, case-insensitively like the catalog.
func (se *StorageEngine) getIndex(tableName, indexName string) (*rbtree.Tree, types.IndexDef, error) {
	schema, err := se.CatalogManager.GetTableSchema(tableName)
	if err != nil {
		return nil, types.IndexDef{}, err
	}
	def, ok := schema.Index(indexName)
	if !ok {
		return nil, types.IndexDef{}, errors.Newf("index '%s' not found on table '%s'", indexName, tableName)
	}
	tree, ok := se.IndexManager.Index(tableName, def.Name)
	if !ok {
		return nil, types.IndexDef{}, errors.Newf("index '%s' of table '%s' is not open", def.Name, tableName)
	}
	return tree, def, nil
}
