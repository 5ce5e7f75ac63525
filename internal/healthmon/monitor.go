// Package healthmon periodically probes each configured route's
// gateway over ICMP (RFC 792) echo and exposes the result as a
// Prometheus gauge and an in-memory status table for the admin API.
// It never touches the dispatch path: an unreachable gateway changes
// nothing about routing or cache invariants, only what this package
// reports.
package healthmon

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"golang.org/x/net/icmp"
	"golang.org/x/net/ipv4"

	"github.com/athena-router/athena-router/internal/metrics"
	"github.com/athena-router/athena-router/internal/topo"
)

// Status is the last known reachability of one gateway.
type Status struct {
	Gateway     string    `json:"gateway"`
	Interface   string    `json:"interface"`
	Reachable   bool      `json:"reachable"`
	LastChecked time.Time `json:"last_checked"`
	RTT         string    `json:"rtt,omitempty"`
}

// Monitor probes every distinct gateway in the route table on a timer.
type Monitor struct {
	conn      *icmp.PacketConn
	available bool
	logger    *slog.Logger
	interval  time.Duration
	timeout   time.Duration
	seq       uint16

	mu       sync.RWMutex
	statuses map[string]Status
}

// New opens the ICMP socket and builds a Monitor. If the socket cannot
// be opened (missing CAP_NET_RAW), probes always report unreachable
// rather than failing startup.
func New(logger *slog.Logger, interval, timeout time.Duration) *Monitor {
	m := &Monitor{
		logger:   logger,
		interval: interval,
		timeout:  timeout,
		statuses: make(map[string]Status),
	}

	conn, err := icmp.ListenPacket("ip4:icmp", "0.0.0.0")
	if err != nil {
		logger.Warn("healthmon: failed to open ICMP socket, gateway probing disabled",
			"error", err, "hint", "grant CAP_NET_RAW or run as root")
		return m
	}
	m.conn = conn
	m.available = true
	return m
}

// Close releases the ICMP socket.
func (m *Monitor) Close() error {
	if m.conn != nil {
		return m.conn.Close()
	}
	return nil
}

// Run probes every gateway in routes on m.interval until ctx is done.
func (m *Monitor) Run(ctx context.Context, routes *topo.Table) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.probeAll(ctx, routes)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.probeAll(ctx, routes)
		}
	}
}

func (m *Monitor) probeAll(ctx context.Context, routes *topo.Table) {
	seen := make(map[uint32]struct{})
	for _, r := range routes.All() {
		if r.Gateway == 0 {
			continue
		}
		if _, ok := seen[r.Gateway]; ok {
			continue
		}
		seen[r.Gateway] = struct{}{}

		gw := ip4String(r.Gateway)
		probeCtx, cancel := context.WithTimeout(ctx, m.timeout)
		ok, rtt, err := m.probe(probeCtx, gw)
		cancel()
		if err != nil {
			m.logger.Debug("healthmon probe error", "gateway", gw, "error", err)
		}

		m.mu.Lock()
		m.statuses[gw] = Status{
			Gateway:     gw,
			Interface:   r.Interface,
			Reachable:   ok,
			LastChecked: time.Now(),
			RTT:         rtt.String(),
		}
		m.mu.Unlock()

		value := 0.0
		if ok {
			value = 1.0
		}
		metrics.GatewayReachable.WithLabelValues(gw).Set(value)
	}
}

// probe sends one ICMP echo request and waits for a reply or timeout.
func (m *Monitor) probe(ctx context.Context, targetIP string) (bool, time.Duration, error) {
	if !m.available {
		return false, 0, nil
	}

	m.mu.Lock()
	m.seq++
	seq := m.seq
	m.mu.Unlock()

	start := time.Now()
	msg := &icmp.Message{
		Type: ipv4.ICMPTypeEcho,
		Code: 0,
		Body: &icmp.Echo{
			ID:   os.Getpid() & 0xffff,
			Seq:  int(seq),
			Data: []byte("athena-healthmon"),
		},
	}
	msgBytes, err := msg.Marshal(nil)
	if err != nil {
		return false, 0, fmt.Errorf("marshalling ICMP echo: %w", err)
	}

	dst := &net.IPAddr{IP: net.ParseIP(targetIP)}
	if deadline, ok := ctx.Deadline(); ok {
		if err := m.conn.SetDeadline(deadline); err != nil {
			return false, 0, fmt.Errorf("setting ICMP deadline: %w", err)
		}
	}
	if _, err := m.conn.WriteTo(msgBytes, dst); err != nil {
		return false, 0, fmt.Errorf("sending ICMP echo to %s: %w", targetIP, err)
	}

	buf := make([]byte, 1500)
	for {
		select {
		case <-ctx.Done():
			return false, time.Since(start), nil
		default:
		}

		n, _, err := m.conn.ReadFrom(buf)
		if err != nil {
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				return false, time.Since(start), nil
			}
			return false, 0, fmt.Errorf("reading ICMP reply: %w", err)
		}

		reply, err := icmp.ParseMessage(1, buf[:n])
		if err != nil {
			continue
		}
		if reply.Type != ipv4.ICMPTypeEchoReply {
			continue
		}
		if echo, ok := reply.Body.(*icmp.Echo); ok {
			if echo.ID == os.Getpid()&0xffff && echo.Seq == int(seq) {
				return true, time.Since(start), nil
			}
		}
	}
}

// Statuses returns a snapshot of every gateway's last known state.
func (m *Monitor) Statuses() []Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Status, 0, len(m.statuses))
	for _, s := range m.statuses {
		out = append(out, s)
	}
	return out
}

func ip4String(ip uint32) string {
	return fmt.Sprintf("%d.%d.%d.%d", byte(ip>>24), byte(ip>>16), byte(ip>>8), byte(ip))
}
