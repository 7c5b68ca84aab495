package heapfile

import (
	"encoding/binary"
	"math"

	"ArenaDB/types"

	"github.com/cockroachdb/errors"
)

func newLayout(schema types.TableSchema) ([]fieldLayout, int, error) {
	if len(schema.Columns) == 0 {
		return nil, 0, errors.Wrapf(ErrSchema, "table %s has no columns", schema.TableName)
	}
	layout := make([]fieldLayout, len(schema.Columns))
	off := rowHeaderSize
	for i, col := range schema.Columns {
		kind, err := col.Kind()
		if err != nil {
			return nil, 0, errors.Mark(err, ErrSchema)
		}
		fl := fieldLayout{kind: kind, off: off}
		switch kind {
		case types.KindInt, types.KindFloat:
			off += 8
		case types.KindChar:
			fl.size = col.Size
			if fl.size <= 0 {
				fl.size = DefaultCharSize
			}
			if fl.size > math.MaxUint16 {
				return nil, 0, errors.Wrapf(ErrSchema, "column %s: CHAR(%d) too wide", col.Name, fl.size)
			}
			off += 2 + fl.size
		}
		layout[i] = fl
	}
	return layout, off, nil
}

func (hf *HeapFile) encode(slot []byte, vals []types.Value) error {
	if len(vals) != len(hf.layout) {
		return errors.Wrapf(ErrSchema, "table %s: %d values for %d columns", hf.tableName, len(vals), len(hf.layout))
	}
	for i, fl := range hf.layout {
		v := vals[i]
		dst := slot[fl.off:]
		switch fl.kind {
		case types.KindInt:
			if v.Kind != types.KindInt {
				return hf.kindError(i, v)
			}
			binary.LittleEndian.PutUint64(dst, uint64(v.I))
		case types.KindFloat:
			f := v.F
			switch v.Kind {
			case types.KindInt:
				f = float64(v.I)
			case types.KindFloat:
			default:
				return hf.kindError(i, v)
			}
			binary.LittleEndian.PutUint64(dst, math.Float64bits(f))
		case types.KindChar:
			if v.Kind != types.KindChar {
				return hf.kindError(i, v)
			}
			if len(v.S) > fl.size {
				return errors.Wrapf(ErrSchema, "table %s column %s: %d bytes exceed CHAR(%d)",
					hf.tableName, hf.schema.Columns[i].Name, len(v.S), fl.size)
			}
			binary.LittleEndian.PutUint16(dst, uint16(len(v.S)))
			n := copy(dst[2:2+fl.size], v.S)
			clear(dst[2+n : 2+fl.size])
		}
	}
	return nil
}

func (hf *HeapFile) kindError(i int, v types.Value) error {
	return errors.Wrapf(ErrSchema, "table %s column %s: %s value for %s column",
		hf.tableName, hf.schema.Columns[i].Name, v.Kind, hf.layout[i].kind)
}

// field decodes column i of a row slot.
func (hf *HeapFile) field(row []byte, i int) types.Value {
	fl := hf.layout[i]
	src := row[fl.off:]
	switch fl.kind {
	case types.KindInt:
		return types.IntValue(int64(binary.LittleEndian.Uint64(src)))
	case types.KindFloat:
		return types.FloatValue(math.Float64frombits(binary.LittleEndian.Uint64(src)))
	default:
		n := int(binary.LittleEndian.Uint16(src))
		return types.CharValue(string(src[2 : 2+n]))
	}
}

func (hf *HeapFile) Decode(row []byte) []types.Value {
	vals := make([]types.Value, len(hf.layout))
	for i := range hf.layout {
		vals[i] = hf.field(row, i)
	}
	return vals
}
