package spoofguard

import (
	"log/slog"
	"os"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestARPConflictRecordsFirstOccurrence(t *testing.T) {
	g := New(testLogger())
	g.ARPConflict(0x0a000001, [6]byte{0, 1, 2, 3, 4, 5}, [6]byte{6, 7, 8, 9, 10, 11})

	conflicts := g.Conflicts()
	if len(conflicts) != 1 {
		t.Fatalf("conflicts = %d, want 1", len(conflicts))
	}
	if conflicts[0].IP != "10.0.0.1" {
		t.Errorf("IP = %q, want 10.0.0.1", conflicts[0].IP)
	}
	if conflicts[0].Count != 1 {
		t.Errorf("Count = %d, want 1", conflicts[0].Count)
	}
}

func TestARPConflictAccumulatesCount(t *testing.T) {
	g := New(testLogger())
	ip := uint32(0x0a000001)
	g.ARPConflict(ip, [6]byte{0, 1, 2, 3, 4, 5}, [6]byte{6, 7, 8, 9, 10, 11})
	g.ARPConflict(ip, [6]byte{6, 7, 8, 9, 10, 11}, [6]byte{12, 13, 14, 15, 16, 17})

	conflicts := g.Conflicts()
	if len(conflicts) != 1 {
		t.Fatalf("conflicts = %d, want 1 (same IP deduped)", len(conflicts))
	}
	if conflicts[0].Count != 2 {
		t.Errorf("Count = %d, want 2", conflicts[0].Count)
	}
	if conflicts[0].NewMAC != "0c:0d:0e:0f:10:11" {
		t.Errorf("NewMAC = %q, want latest binding", conflicts[0].NewMAC)
	}
}

func TestIsGratuitous(t *testing.T) {
	if !IsGratuitous(0x0a000001, 0x0a000001) {
		t.Error("equal sender/target IP should be gratuitous")
	}
	if IsGratuitous(0x0a000001, 0x0a000002) {
		t.Error("differing sender/target IP should not be gratuitous")
	}
}
