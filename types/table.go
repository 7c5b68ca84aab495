package types

import (
	"fmt"
	"strings"
)

type ColumnDef struct {
	Name string `json:"name"`
	Type string `json:"type"`           // INT, FLOAT or CHAR
	Size int    `json:"size,omitempty"` // CHAR capacity in bytes
}

func (c ColumnDef) Kind() (ValueKind, error) {
	switch strings.ToUpper(c.Type) {
	case "INT":
		return KindInt, nil
	case "FLOAT":
		return KindFloat, nil
	case "CHAR", "VARCHAR":
		return KindChar, nil
	}
	return 0, fmt.Errorf("column %s: unsupported type %q", c.Name, c.Type)
}

// IndexDef names an index over an ordered list of columns.
type IndexDef struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
	Unique  bool     `json:"unique"`
}

type TableSchema struct {
	TableName string      `json:"table_name"`
	Columns   []ColumnDef `json:"columns"`
	Indexes   []IndexDef  `json:"indexes,omitempty"`
}

func (s *TableSchema) ColumnIndex(name string) int {
	for i, c := range s.Columns {
		if strings.EqualFold(c.Name, name) {
			return i
		}
	}
	return -1
}

// FieldList resolves index column names into schema positions.
func (s *TableSchema) FieldList(def IndexDef) ([]int, error) {
	if len(def.Columns) == 0 {
		return nil, fmt.Errorf("index %s has no columns", def.Name)
	}
	fields := make([]int, len(def.Columns))
	for i, name := range def.Columns {
		pos := s.ColumnIndex(name)
		if pos < 0 {
			return nil, fmt.Errorf("index %s: unknown column %s in table %s", def.Name, name, s.TableName)
		}
		fields[i] = pos
	}
	return fields, nil
}

func (s *TableSchema) Index(name string) (IndexDef, bool) {
	for _, d := range s.Indexes {
		if strings.EqualFold(d.Name, name) {
			return d, true
		}
	}
	return IndexDef{}, false
}
