package txn

import (
	"sync"

	"github.com/RoaringBitmap/roaring/v2"
	"go.uber.org/zap"
)

type TxnState uint8

const (
	TxnActive TxnState = iota
	TxnCommitted
	TxnAborted
)

func (s TxnState) String() string {
	switch s {
	case TxnActive:
		return "active"
	case TxnCommitted:
		return "committed"
	}
	return "aborted"
}

// Transaction belongs to a single goroutine at a time.
type Transaction struct {
	ID    uint64
	State TxnState

	// per table row ids this transaction inserted / deleted
	newRows map[string]*roaring.Bitmap
	delRows map[string]*roaring.Bitmap
}

type TxnManager struct {
	nextID     uint64
	activeTxns map[uint64]*Transaction // all currently active transactions
	logger     *zap.Logger
	mu         sync.RWMutex
}
