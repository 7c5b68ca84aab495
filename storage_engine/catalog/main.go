package catalog

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"ArenaDB/types"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

/*
Catalog manager keeps table schemas, index definitions and the
table -> heap file id mapping, and persists them as JSON under dbRoot:

	tables/<table>_schema.json
	metadata/table_file_mapping.json
	metadata/next_file_id.json

Everything is loaded once by LoadAll when the engine opens.
*/

var ErrUnknownTable = errors.New("table does not exist")

func NewCatalogManager(dbRoot string, logger *zap.Logger) *CatalogManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogManager{
		dbRoot:        dbRoot,
		nextFileID:    1,
		TableToFileId: make(map[string]uint32),
		tableSchemas:  make(map[string]types.TableSchema),
		logger:        logger,
	}
}

func (cm *CatalogManager) persistent() bool { return cm.dbRoot != "" }

func (cm *CatalogManager) TableExists(tableName string) bool {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	_, exists := cm.tableSchemas[tableName]
	return exists
}

func (cm *CatalogManager) GetTableSchema(name string) (types.TableSchema, error) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	schema, ok := cm.tableSchemas[name]
	if !ok {
		return types.TableSchema{}, errors.Wrapf(ErrUnknownTable, "table '%s'", name)
	}
	return schema, nil
}

func (cm *CatalogManager) GetTableFileID(tableName string) (uint32, error) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	id, exists := cm.TableToFileId[tableName]
	if !exists {
		return 0, errors.Wrapf(ErrUnknownTable, "table '%s' not found in file mapping", tableName)
	}
	return id, nil
}

func (cm *CatalogManager) TableNames() []string {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	names := make([]string, 0, len(cm.tableSchemas))
	for name := range cm.tableSchemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RegisterNewTable stores the schema and returns the heap file id assigned
// to the table.
func (cm *CatalogManager) RegisterNewTable(schema types.TableSchema) (uint32, error) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	tableName := schema.TableName
	if _, exists := cm.tableSchemas[tableName]; exists {
		return 0, errors.Newf("table '%s' already exists", tableName)
	}

	fileID := cm.nextFileID
	cm.nextFileID++
	cm.tableSchemas[tableName] = schema
	cm.TableToFileId[tableName] = fileID

	if err := cm.persistAll(schema); err != nil {
		return 0, err
	}
	cm.logger.Debug("table registered", zap.String("table", tableName), zap.Uint32("file_id", fileID))
	return fileID, nil
}

func (cm *CatalogManager) UnregisterTable(tableName string) error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if _, exists := cm.tableSchemas[tableName]; !exists {
		return errors.Wrapf(ErrUnknownTable, "table '%s'", tableName)
	}
	delete(cm.tableSchemas, tableName)
	delete(cm.TableToFileId, tableName)

	if !cm.persistent() {
		return nil
	}
	schemaPath := filepath.Join(cm.dbRoot, "tables", tableName+"_schema.json")
	if err := os.Remove(schemaPath); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "failed to delete schema file")
	}
	return cm.persistTableMapping()
}

// AddIndex records a new index definition on the table.
func (cm *CatalogManager) AddIndex(tableName string, def types.IndexDef) error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	schema, ok := cm.tableSchemas[tableName]
	if !ok {
		return errors.Wrapf(ErrUnknownTable, "table '%s'", tableName)
	}
	if _, exists := schema.Index(def.Name); exists {
		return errors.Newf("index '%s' already exists on table '%s'", def.Name, tableName)
	}
	if _, err := schema.FieldList(def); err != nil {
		return err
	}
	schema.Indexes = append(append([]types.IndexDef(nil), schema.Indexes...), def)
	cm.tableSchemas[tableName] = schema
	return cm.persistSchema(schema)
}

func (cm *CatalogManager) RemoveIndex(tableName, indexName string) error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	schema, ok := cm.tableSchemas[tableName]
	if !ok {
		return errors.Wrapf(ErrUnknownTable, "table '%s'", tableName)
	}
	kept := make([]types.IndexDef, 0, len(schema.Indexes))
	for _, d := range schema.Indexes {
		if !strings.EqualFold(d.Name, indexName) {
			kept = append(kept, d)
		}
	}
	if len(kept) == len(schema.Indexes) {
		return errors.Newf("index '%s' not found on table '%s'", indexName, tableName)
	}
	schema.Indexes = kept
	cm.tableSchemas[tableName] = schema
	return cm.persistSchema(schema)
}

func (cm *CatalogManager) persistAll(schema types.TableSchema) error {
	if err := cm.persistSchema(schema); err != nil {
		return err
	}
	if err := cm.persistTableMapping(); err != nil {
		return err
	}
	return cm.persistNextFileID()
}

func (cm *CatalogManager) persistSchema(schema types.TableSchema) error {
	if !cm.persistent() {
		return nil
	}
	schemaDir := filepath.Join(cm.dbRoot, "tables")
	if err := os.MkdirAll(schemaDir, 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(schemaDir, schema.TableName+"_schema.json"), data, 0644)
}

func (cm *CatalogManager) persistTableMapping() error {
	if !cm.persistent() {
		return nil
	}
	return cm.writeMeta("table_file_mapping.json", cm.TableToFileId)
}

func (cm *CatalogManager) persistNextFileID() error {
	if !cm.persistent() {
		return nil
	}
	return cm.writeMeta("next_file_id.json", cm.nextFileID)
}

func (cm *CatalogManager) writeMeta(name string, v any) error {
	metaDir := filepath.Join(cm.dbRoot, "metadata")
	if err := os.MkdirAll(metaDir, 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(metaDir, name), data, 0644)
}

// LoadAll reads the mapping, the file id counter and every schema file.
// A root without a catalog yet loads as empty.
func (cm *CatalogManager) LoadAll() error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	cm.TableToFileId = make(map[string]uint32)
	cm.tableSchemas = make(map[string]types.TableSchema)
	cm.nextFileID = 1
	if !cm.persistent() {
		return nil
	}

	metaDir := filepath.Join(cm.dbRoot, "metadata")
	data, err := os.ReadFile(filepath.Join(metaDir, "table_file_mapping.json"))
	switch {
	case os.IsNotExist(err):
		return nil
	case err != nil:
		return errors.Wrap(err, "failed to read mapping file")
	}
	if err := json.Unmarshal(data, &cm.TableToFileId); err != nil {
		return errors.Wrap(err, "failed to unmarshal mapping")
	}

	counterData, err := os.ReadFile(filepath.Join(metaDir, "next_file_id.json"))
	if err == nil {
		var counter uint32
		if json.Unmarshal(counterData, &counter) == nil {
			cm.nextFileID = counter
		}
	} else {
		for _, id := range cm.TableToFileId {
			cm.nextFileID = max(cm.nextFileID, id+1)
		}
	}

	tablesDir := filepath.Join(cm.dbRoot, "tables")
	entries, err := os.ReadDir(tablesDir)
	if err != nil {
		return errors.Wrap(err, "failed to read tables directory")
	}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, "_schema.json") {
			continue
		}
		schemaPath := filepath.Join(tablesDir, name)
		data, err := os.ReadFile(schemaPath)
		if err != nil {
			return errors.Wrapf(err, "failed to read schema file %s", schemaPath)
		}
		var schema types.TableSchema
		if err := json.Unmarshal(data, &schema); err != nil {
			return errors.Wrapf(err, "invalid schema in file %s", schemaPath)
		}
		if _, mapped := cm.TableToFileId[schema.TableName]; !mapped {
			return errors.Newf("schema %s has no heap file mapping", schema.TableName)
		}
		cm.tableSchemas[schema.TableName] = schema
	}
	cm.logger.Debug("catalog loaded", zap.Int("tables", len(cm.tableSchemas)))
	return nil
}
