package bufferpool

import (
	"testing"

	"ArenaDB/types"
)

func TestRowCachePutGetEvict(t *testing.T) {
	c, err := NewRowCache(Config{MaxRows: 128})
	if err != nil {
		t.Fatalf("Failed to create cache: %v", err)
	}
	defer c.Close()

	vals := []types.Value{types.IntValue(7), types.CharValue("ada")}
	c.Put(1, 42, vals)
	c.Wait()

	got, ok := c.Get(1, 42)
	if !ok {
		t.Fatalf("cached row missing")
	}
	if len(got) != 2 || got[0].I != 7 || got[1].S != "ada" {
		t.Errorf("cached row = %v", got)
	}
	if _, ok := c.Get(2, 42); ok {
		t.Errorf("row of another file served from cache")
	}

	c.Evict(1, 42)
	if _, ok := c.Get(1, 42); ok {
		t.Errorf("evicted row still cached")
	}
	if s := c.Stats(); s.Hits != 1 || s.Misses != 2 {
		t.Errorf("stats = %+v, want 1 hit, 2 misses", s)
	}
}

func TestKeySeparatesFiles(t *testing.T) {
	if Key(1, 5) == Key(2, 5) || Key(1, 5) == Key(1, 6) {
		t.Errorf("cache keys collide")
	}
}
