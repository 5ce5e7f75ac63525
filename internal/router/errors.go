package router

import "errors"

// The router's error taxonomy. All of these are local to a single
// dispatch call: Dispatch itself returns no error, and the
// caller-visible effects are limited to what gets sent and what gets
// logged/counted.
var (
	// ErrMalformedFrame: length below what's needed for the classifying
	// headers. Policy: drop, count.
	ErrMalformedFrame = errors.New("router: malformed frame")

	// ErrNoRoute: no routing-table entry matches and no default is
	// configured (only possible with an empty route table). Policy: drop.
	ErrNoRoute = errors.New("router: no route")

	// ErrNoInterfaceMatch: an ARP request targets no locally configured
	// IP. Observable only as a drop — no reply is sent.
	ErrNoInterfaceMatch = errors.New("router: arp target matches no local interface")

	// ErrARPCacheFull: ARP cache insert found no free or matching slot.
	// Policy: drop silently.
	ErrARPCacheFull = errors.New("router: arp cache full")

	// ErrPendingCacheFull: pending-packet cache had no free slot.
	// Policy: drop silently.
	ErrPendingCacheFull = errors.New("router: pending cache full")

	// ErrUnsupportedL4: the IPv4 protocol terminates at us but isn't
	// ICMP (TCP/UDP delivered locally). Policy: emit ICMP port-unreachable.
	ErrUnsupportedL4 = errors.New("router: unsupported l4 protocol for local delivery")
)
