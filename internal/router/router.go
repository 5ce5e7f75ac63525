// Package router implements the datapath core: the dispatcher, ARP
// (RFC 826) and ICMP (RFC 792) handlers, IP (RFC 791) local-delivery
// handler, and forwarder, wired to the ARP cache (internal/arpcache)
// and pending-packet cache (internal/pending).
package router

import (
	"io"
	"log/slog"
	"time"

	"github.com/athena-router/athena-router/internal/arpcache"
	"github.com/athena-router/athena-router/internal/metrics"
	"github.com/athena-router/athena-router/internal/pending"
	"github.com/athena-router/athena-router/internal/topo"
)

// Sender is the host's transmit primitive: best-effort, may fail. The
// router never retries a send itself; a send failure is logged and the
// resource released as if the send succeeded.
type Sender interface {
	Send(frame []byte, ifaceName string) error
}

// AuditSink records notable datapath events for later review.
// Optional; with a nil sink the events are not recorded anywhere.
type AuditSink interface {
	RecordEvent(event, ip, mac, iface, reason string)
}

// ConflictObserver is notified when an ARP-reply insert would bind an
// IP already held by a different MAC in a valid slot. Optional; the
// zero Router works without one.
type ConflictObserver interface {
	ARPConflict(ip uint32, oldMAC, newMAC [6]byte)
}

// Router holds the process-wide datapath state: the immutable topology
// configured at startup plus the two mutable caches, passed explicitly
// to every operation rather than kept as module globals.
type Router struct {
	ifaces *topo.Interfaces
	routes *topo.Table
	arp    *arpcache.Cache
	pend   *pending.Cache
	sender Sender
	logger *slog.Logger
	guard  ConflictObserver
	audit  AuditSink
}

// Option configures optional Router collaborators.
type Option func(*Router)

// WithLogger overrides the default discard logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Router) { r.logger = l }
}

// WithConflictObserver wires the ARP spoof/conflict guard. It is
// purely advisory: its presence never changes a dispatch outcome.
func WithConflictObserver(o ConflictObserver) Option {
	return func(r *Router) { r.guard = o }
}

// WithAuditSink wires the audit event log.
func WithAuditSink(a AuditSink) Option {
	return func(r *Router) { r.audit = a }
}

// WithARPCache overrides the default ARP cache, for deployments that
// configure a non-default cache.arp_stale_time.
func WithARPCache(c *arpcache.Cache) Option {
	return func(r *Router) { r.arp = c }
}

// WithPendingCache overrides the default pending-packet cache, for
// deployments that configure a non-default cache.pending_retry_period
// or cache.max_arp_attempts.
func WithPendingCache(c *pending.Cache) Option {
	return func(r *Router) { r.pend = c }
}

// New constructs a Router with fresh, empty ARP and pending caches.
func New(ifaces *topo.Interfaces, routes *topo.Table, sender Sender, opts ...Option) *Router {
	r := &Router{
		ifaces: ifaces,
		routes: routes,
		arp:    arpcache.New(),
		pend:   pending.New(),
		sender: sender,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ARPCache exposes the ARP cache read-only, for the admin API and
// health tooling.
func (r *Router) ARPCache() *arpcache.Cache { return r.arp }

// PendingCache exposes the pending-packet cache read-only, for the
// admin API.
func (r *Router) PendingCache() *pending.Cache { return r.pend }

// Interfaces returns the configured interface set.
func (r *Router) Interfaces() *topo.Interfaces { return r.ifaces }

// Routes returns the configured route table.
func (r *Router) Routes() *topo.Table { return r.routes }

func (r *Router) send(frame []byte, ifaceName string) {
	if err := r.sender.Send(frame, ifaceName); err != nil {
		r.logger.Warn("send failed", "interface", ifaceName, "error", err)
	}
}

func (r *Router) drop(reason string, args ...any) {
	metrics.FramesDropped.WithLabelValues(reason).Inc()
	r.logger.Debug("dropped frame", append([]any{"reason", reason}, args...)...)
}

func (r *Router) auditEvent(event, ip, mac, iface, reason string) {
	if r.audit == nil {
		return
	}
	r.audit.RecordEvent(event, ip, mac, iface, reason)
}

func (r *Router) refreshGauges() {
	metrics.ARPCacheEntries.Set(float64(r.arp.Len()))
	metrics.PendingCacheEntries.Set(float64(r.pend.Len()))
}

// clock is the single reading of wall-clock time a Dispatch call makes
// for every timestamp it produces this cycle (sweep, ARP-reply
// cached_at, park's enqueued_at); re-using one sample across all three
// within a single, single-threaded dispatch is equivalent and simpler
// than sampling three times in a row.
type clock = time.Time
