package types

// BlockType tags what an arena file stores.
type BlockType uint8

const (
	BlockTypeUnknown BlockType = iota
	BlockTypeRows
	BlockTypeRBNode
	BlockTypeMetadata
)

func (b BlockType) String() string {
	switch b {
	case BlockTypeRows:
		return "rows"
	case BlockTypeRBNode:
		return "rbtree"
	case BlockTypeMetadata:
		return "meta"
	}
	return "unknown"
}

const (
	MagicTable uint32 = 0xE7FCFDFA
	MagicIndex uint32 = 0xE7FCFDFB

	ArenaHeaderSize = 64
)
