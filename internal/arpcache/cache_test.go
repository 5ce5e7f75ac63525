package arpcache

import (
	"testing"
	"time"
)

func TestInsertThenLookup(t *testing.T) {
	c := New()
	now := time.Now()
	mac := [6]byte{1, 2, 3, 4, 5, 6}
	if !c.Insert(0x0a000001, mac, now) {
		t.Fatal("insert into empty cache should succeed")
	}
	got, ok := c.Lookup(0x0a000001)
	if !ok || got != mac {
		t.Errorf("Lookup = %v, %v; want %v, true", got, ok, mac)
	}
	if _, ok := c.Lookup(0x0a000002); ok {
		t.Error("Lookup for absent IP should miss")
	}
}

func TestInsertCoalescesSameIP(t *testing.T) {
	c := New()
	now := time.Now()
	ip := uint32(0x0a000001)
	c.Insert(ip, [6]byte{1}, now)
	c.Insert(ip, [6]byte{2}, now.Add(time.Second))
	if c.Len() != 1 {
		t.Errorf("Len() = %d, want 1 after coalescing insert", c.Len())
	}
	got, _ := c.Lookup(ip)
	if got != ([6]byte{2}) {
		t.Errorf("Lookup after coalesce = %v, want overwritten mac", got)
	}
}

func TestInsertDropsWhenFull(t *testing.T) {
	c := New()
	now := time.Now()
	for i := 0; i < Capacity; i++ {
		if !c.Insert(uint32(i+1), [6]byte{byte(i)}, now) {
			t.Fatalf("insert %d should succeed while cache has room", i)
		}
	}
	if c.Len() != Capacity {
		t.Fatalf("Len() = %d, want %d", c.Len(), Capacity)
	}
	if c.Insert(uint32(Capacity+1), [6]byte{0xff}, now) {
		t.Error("insert into full cache should be dropped, not written out of bounds")
	}
	if c.Len() != Capacity {
		t.Errorf("Len() changed after dropped insert: %d", c.Len())
	}
}

func TestSweepInvalidatesStaleEntries(t *testing.T) {
	c := New()
	t0 := time.Now()
	c.Insert(1, [6]byte{1}, t0)
	c.Sweep(t0.Add(StaleTime - time.Second))
	if _, ok := c.Lookup(1); !ok {
		t.Error("entry should still be valid just under StaleTime")
	}
	c.Sweep(t0.Add(StaleTime + time.Second))
	if _, ok := c.Lookup(1); ok {
		t.Error("entry should be invalidated once older than StaleTime")
	}
}

func TestSweepIdempotent(t *testing.T) {
	c := New()
	t0 := time.Now()
	c.Insert(1, [6]byte{1}, t0)
	later := t0.Add(StaleTime + time.Minute)
	c.Sweep(later)
	lenAfterFirst := c.Len()
	c.Sweep(later)
	if c.Len() != lenAfterFirst {
		t.Errorf("second sweep changed Len(): %d -> %d", lenAfterFirst, c.Len())
	}
}

func TestIndexOfAndMACAt(t *testing.T) {
	c := New()
	now := time.Now()
	mac := [6]byte{9, 9, 9, 9, 9, 9}
	c.Insert(42, mac, now)
	idx := c.IndexOf(42)
	if idx < 0 {
		t.Fatal("IndexOf should find the inserted entry")
	}
	got, ok := c.MACAt(idx)
	if !ok || got != mac {
		t.Errorf("MACAt(%d) = %v, %v; want %v, true", idx, got, ok, mac)
	}
	if c.IndexOf(9999) != -1 {
		t.Error("IndexOf for absent IP should return -1")
	}
}

func TestValidEntriesNeverExceedsCapacity(t *testing.T) {
	c := New()
	now := time.Now()
	for i := 0; i < Capacity+50; i++ {
		c.Insert(uint32(i+1), [6]byte{byte(i)}, now)
	}
	if len(c.ValidEntries()) > Capacity {
		t.Errorf("ValidEntries() returned %d entries, cap is %d", len(c.ValidEntries()), Capacity)
	}
}
