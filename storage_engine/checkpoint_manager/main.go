package checkpoint

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
)

/*
Checkpoint manager keeps checkpoint.json in the database root.
The engine writes Clean=false when it opens a database and Clean=true after
a normal close. Finding Clean=false on open means the last process died
with transactions in flight, and their rows must be reclaimed.
*/

func NewCheckpointManager(dbPath string) *CheckpointManager {
	return &CheckpointManager{
		checkpointPath: filepath.Join(dbPath, "checkpoint.json"),
	}
}

func (cm *CheckpointManager) Path() string { return cm.checkpointPath }

// SaveCheckpoint atomically replaces the checkpoint file.
func (cm *CheckpointManager) SaveCheckpoint(cp Checkpoint) error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	cp.Timestamp = time.Now().Unix()
	data, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal checkpoint")
	}

	// write temp, fsync, rename over the old file, fsync the directory
	tempPath := cm.checkpointPath + ".tmp"
	tempFile, err := os.OpenFile(tempPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return errors.Wrap(err, "failed to create temp checkpoint")
	}
	if _, err := tempFile.Write(data); err != nil {
		tempFile.Close()
		return errors.Wrap(err, "failed to write temp checkpoint")
	}
	if err := tempFile.Sync(); err != nil {
		tempFile.Close()
		return errors.Wrap(err, "failed to sync temp checkpoint")
	}
	if err := tempFile.Close(); err != nil {
		return errors.Wrap(err, "failed to close temp checkpoint")
	}
	if err := os.Rename(tempPath, cm.checkpointPath); err != nil {
		return errors.Wrap(err, "failed to rename checkpoint")
	}
	if dir, err := os.Open(filepath.Dir(cm.checkpointPath)); err == nil {
		dir.Sync()
		dir.Close()
	}
	return nil
}

// LoadCheckpoint reads the checkpoint. A missing or unreadable file loads as
// not clean.
func (cm *CheckpointManager) LoadCheckpoint() (Checkpoint, error) {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	data, err := os.ReadFile(cm.checkpointPath)
	switch {
	case os.IsNotExist(err):
		return Checkpoint{}, nil
	case err != nil:
		return Checkpoint{}, errors.Wrap(err, "failed to read checkpoint")
	}
	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return Checkpoint{}, nil
	}
	return cp, nil
}
