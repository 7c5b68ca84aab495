package storageengine

import (
	"strconv"
	"strings"

	"ArenaDB/types"

	"github.com/cockroachdb/errors"
)

// ParseValue converts text, as typed on a command line, into a value of the
// column's type. CHAR values may be wrapped in single or double quotes.
func ParseValue(col types.ColumnDef, text string) (types.Value, error) {
	kind, err := col.Kind()
	if err != nil {
		return types.Value{}, err
	}
	text = strings.TrimSpace(text)
	switch kind {
	case types.KindInt:
		i, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return types.Value{}, errors.Wrapf(err, "column %s: invalid INT %q", col.Name, text)
		}
		return types.IntValue(i), nil
	case types.KindFloat:
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return types.Value{}, errors.Wrapf(err, "column %s: invalid FLOAT %q", col.Name, text)
		}
		return types.FloatValue(f), nil
	default:
		if len(text) >= 2 && (text[0] == '\'' || text[0] == '"') && text[len(text)-1] == text[0] {
			text = text[1 : len(text)-1]
		}
		return types.CharValue(text), nil
	}
}

// ParseKey converts the leading key values of an index from text.
func (se *StorageEngine) ParseKey(tableName, indexName string, texts []string) ([]types.Value, error) {
	_, def, err := se.getIndex(tableName, indexName)
	if err != nil {
		return nil, err
	}
	if len(texts) > len(def.Columns) {
		return nil, errors.Newf("index %s has %d columns, got %d values", def.Name, len(def.Columns), len(texts))
	}
	schema, err := se.CatalogManager.GetTableSchema(tableName)
	if err != nil {
		return nil, err
	}
	vals := make([]types.Value, len(texts))
	for i, text := range texts {
		col := schema.Columns[schema.ColumnIndex(def.Columns[i])]
		if vals[i], err = ParseValue(col, text); err != nil {
			return nil, err
		}
	}
	return vals, nil
}
