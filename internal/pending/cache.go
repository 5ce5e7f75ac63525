// Package pending implements the pending-packet cache: a fixed-capacity
// queue of IPv4 frames parked while the router waits for ARP (RFC 826)
// to resolve their next hop.
package pending

import (
	"time"

	"github.com/athena-router/athena-router/internal/topo"
	"github.com/athena-router/athena-router/pkg/wire"
)

// Capacity is the fixed number of slots in the cache.
const Capacity = 256

// MaxARPAttempts is the highest attempt count at which a parked frame
// is still retried; once its count exceeds this the router gives up on
// it. Counting the request sent at park time, up to MaxARPAttempts+1
// ARP requests are emitted per parked frame.
const MaxARPAttempts = 5

// RetryPeriod is the nominal spacing between retry ARP requests. The
// actual gate is "(now - enqueued_at) mod RetryPeriod < 1s", which
// only opens a one-second window once per period and only fires when
// some unrelated drain call happens to land inside it — this is the
// specified behavior, not a simplification.
const RetryPeriod = 3 * time.Second

type entry struct {
	frame       [wire.MaxFrameLen]byte
	frameLen    int // 0 means the slot is free
	nextHop     topo.Route
	targetIP    uint32
	arpAttempts uint8
	enqueuedAt  time.Time
}

// Cache is the fixed-size pending-packet queue.
type Cache struct {
	slots          [Capacity]entry
	retryPeriod    time.Duration
	maxARPAttempts uint8
}

// New returns an empty pending-packet cache using the package's
// default RetryPeriod and MaxARPAttempts.
func New() *Cache {
	return &Cache{retryPeriod: RetryPeriod, maxARPAttempts: MaxARPAttempts}
}

// NewWithRetry returns an empty pending-packet cache with a
// caller-supplied retry period and attempt limit, for deployments that
// override cache.pending_retry_period / cache.max_arp_attempts.
func NewWithRetry(retryPeriod time.Duration, maxAttempts uint8) *Cache {
	return &Cache{retryPeriod: retryPeriod, maxARPAttempts: maxAttempts}
}

// MaxAttempts returns the cache's configured attempt ceiling.
func (c *Cache) MaxAttempts() uint8 { return c.maxARPAttempts }

// Park copies frame into the first free slot, tagging it with the
// route it is waiting on and the resolved next-hop IP being ARPed for
// (route.Gateway, or the frame's own destination IP for a
// directly-connected route whose Gateway is zero). Returns false
// (frame dropped) if no slot is free.
func (c *Cache) Park(frame []byte, route topo.Route, targetIP uint32, now time.Time) bool {
	if len(frame) == 0 || len(frame) > wire.MaxFrameLen {
		return false
	}
	for i := range c.slots {
		s := &c.slots[i]
		if s.frameLen == 0 {
			copy(s.frame[:], frame)
			s.frameLen = len(frame)
			s.nextHop = route
			s.targetIP = targetIP
			s.arpAttempts = 1
			s.enqueuedAt = now
			return true
		}
	}
	return false
}

// Slot is a read-only snapshot of one occupied pending-cache entry,
// identified by its stable index: indices double as handles for the
// drain path.
type Slot struct {
	Index       int
	Frame       []byte
	NextHop     topo.Route
	TargetIP    uint32
	ARPAttempts uint8
	EnqueuedAt  time.Time
}

// Occupied returns a snapshot of every currently occupied slot, in
// index order. The frame byte slices are copies, safe to hold onto
// after a subsequent Free/retry.
func (c *Cache) Occupied() []Slot {
	out := make([]Slot, 0, Capacity)
	for i := range c.slots {
		s := &c.slots[i]
		if s.frameLen == 0 {
			continue
		}
		frame := make([]byte, s.frameLen)
		copy(frame, s.frame[:s.frameLen])
		out = append(out, Slot{
			Index:       i,
			Frame:       frame,
			NextHop:     s.nextHop,
			TargetIP:    s.targetIP,
			ARPAttempts: s.arpAttempts,
			EnqueuedAt:  s.enqueuedAt,
		})
	}
	return out
}

// IncrementAttempts bumps the retry counter on an occupied slot found
// via Occupied. A no-op if the slot has since been freed.
func (c *Cache) IncrementAttempts(index int) {
	if index < 0 || index >= Capacity {
		return
	}
	if c.slots[index].frameLen != 0 {
		c.slots[index].arpAttempts++
	}
}

// Free releases a slot back to the pool. Idempotent.
func (c *Cache) Free(index int) {
	if index < 0 || index >= Capacity {
		return
	}
	c.slots[index] = entry{}
}

// Len returns the number of currently occupied slots (0..Capacity),
// exercised by the occupancy metric.
func (c *Cache) Len() int {
	n := 0
	for i := range c.slots {
		if c.slots[i].frameLen != 0 {
			n++
		}
	}
	return n
}

// RetryDue reports whether a slot parked at enqueuedAt should emit
// another ARP request as of now: ⌊now − enqueued_at⌋ mod RetryPeriod
// < 1s.
func RetryDue(enqueuedAt, now time.Time) bool {
	return retryDue(enqueuedAt, now, RetryPeriod)
}

// RetryDue is the same gate as the package-level RetryDue, using this
// cache's configured retry period instead of the package default.
func (c *Cache) RetryDue(enqueuedAt, now time.Time) bool {
	return retryDue(enqueuedAt, now, c.retryPeriod)
}

func retryDue(enqueuedAt, now time.Time, period time.Duration) bool {
	elapsed := now.Sub(enqueuedAt)
	if elapsed < 0 {
		return false
	}
	return elapsed%period < time.Second
}
