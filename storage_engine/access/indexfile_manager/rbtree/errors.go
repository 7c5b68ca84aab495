package rbtree

import (
	diskmanager "ArenaDB/storage_engine/disk_manager"

	"github.com/cockroachdb/errors"
)

var (
	ErrOutOfMemory  = diskmanager.ErrOutOfMemory
	ErrDuplicateKey = errors.New("duplicate key")
	ErrCorruptLink  = errors.New("corrupt index link")
	ErrBadFilter    = errors.New("invalid index filter")
)
