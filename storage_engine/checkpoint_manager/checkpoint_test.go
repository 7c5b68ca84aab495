package checkpoint

import (
	"os"
	"testing"
)

func TestSaveAndLoadCheckpoint(t *testing.T) {
	cm := NewCheckpointManager(t.TempDir())

	cp, err := cm.LoadCheckpoint()
	if err != nil {
		t.Fatalf("Failed to load missing checkpoint: %v", err)
	}
	if cp.Clean {
		t.Errorf("missing checkpoint loaded as clean")
	}

	if err := cm.SaveCheckpoint(Checkpoint{Clean: true, Rows: map[string]uint32{"students": 7}}); err != nil {
		t.Fatalf("Failed to save checkpoint: %v", err)
	}
	cp, err = cm.LoadCheckpoint()
	if err != nil {
		t.Fatalf("Failed to load checkpoint: %v", err)
	}
	if !cp.Clean || cp.Rows["students"] != 7 || cp.Timestamp == 0 {
		t.Errorf("loaded %+v", cp)
	}
	if _, err := os.Stat(cm.Path() + ".tmp"); !os.IsNotExist(err) {
		t.Errorf("temp checkpoint left behind: %v", err)
	}

	if err := os.WriteFile(cm.Path(), []byte("{not json"), 0644); err != nil {
		t.Fatalf("Failed to corrupt checkpoint: %v", err)
	}
	cp, err = cm.LoadCheckpoint()
	if err != nil || cp.Clean {
		t.Errorf("corrupt checkpoint: %+v %v, want not clean", cp, err)
	}
}
