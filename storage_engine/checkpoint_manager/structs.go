package checkpoint

import "sync"

// CheckpointManager owns the checkpoint file of one database directory.
type CheckpointManager struct {
	checkpointPath string
	mu             sync.RWMutex
}

// Checkpoint records how the database was last left.
type Checkpoint struct {
	Clean     bool              `json:"clean"`     // closed normally, no transaction left pending
	Timestamp int64             `json:"timestamp"` // unix seconds of the write
	Rows      map[string]uint32 `json:"rows,omitempty"`
}
