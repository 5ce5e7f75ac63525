package healthmon

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/athena-router/athena-router/internal/topo"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestMonitorWithoutSocketReportsUnreachable(t *testing.T) {
	m := &Monitor{logger: testLogger(), interval: time.Second, timeout: time.Millisecond, statuses: make(map[string]Status)}

	routes := topo.NewTable([]topo.Route{
		{Dest: 0, Gateway: ip4Uint32(10, 0, 0, 1), Interface: "eth0"},
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	m.probeAll(ctx, routes)

	statuses := m.Statuses()
	if len(statuses) != 1 {
		t.Fatalf("statuses = %d, want 1", len(statuses))
	}
	if statuses[0].Reachable {
		t.Error("expected unreachable with no ICMP socket available")
	}
	if statuses[0].Gateway != "10.0.0.1" {
		t.Errorf("Gateway = %q, want 10.0.0.1", statuses[0].Gateway)
	}
}

func TestMonitorSkipsRoutesWithoutGateway(t *testing.T) {
	m := &Monitor{logger: testLogger(), interval: time.Second, timeout: time.Millisecond, statuses: make(map[string]Status)}

	routes := topo.NewTable([]topo.Route{
		{Dest: ip4Uint32(192, 168, 1, 0), Gateway: 0, Interface: "eth1"},
	})

	m.probeAll(context.Background(), routes)

	if len(m.Statuses()) != 0 {
		t.Error("expected no statuses for a directly-connected route with no gateway")
	}
}

func TestMonitorDedupesSharedGateway(t *testing.T) {
	m := &Monitor{logger: testLogger(), interval: time.Second, timeout: time.Millisecond, statuses: make(map[string]Status)}

	gw := ip4Uint32(10, 0, 0, 1)
	routes := topo.NewTable([]topo.Route{
		{Dest: 0, Gateway: gw, Interface: "eth0"},
		{Dest: ip4Uint32(172, 16, 0, 0), Gateway: gw, Interface: "eth0"},
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	m.probeAll(ctx, routes)

	if len(m.Statuses()) != 1 {
		t.Errorf("statuses = %d, want 1 (shared gateway deduped)", len(m.Statuses()))
	}
}

func ip4Uint32(a, b, c, d byte) uint32 {
	return uint32(a)<<24 | uint32(b)<<16 | uint32(c)<<8 | uint32(d)
}
