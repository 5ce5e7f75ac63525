package router

import (
	"time"

	"github.com/athena-router/athena-router/internal/metrics"
	"github.com/athena-router/athena-router/internal/topo"
	"github.com/athena-router/athena-router/pkg/wire"
)

// handleARP processes an ARP (RFC 826) frame received on iface: a
// request asking for one of our addresses gets a reply, a reply gets
// cached and used to drain the pending-packet cache.
func (r *Router) handleARP(frame []byte, iface topo.Interface, now time.Time) {
	hdr, err := wire.ParseARP(frame)
	if err != nil {
		r.drop("malformed", "stage", "arp")
		return
	}

	switch hdr.Op {
	case wire.ARPOpRequest:
		r.handleARPRequest(hdr, iface)
	case wire.ARPOpReply:
		r.handleARPReply(hdr, now)
	default:
		r.drop("unsupported_arp_op")
	}
}

// handleARPRequest answers a request whose target IP matches any
// locally configured interface, not only the receiving one — the
// original router's handleArp() walks every configured interface
// looking for the match, since a request can legitimately arrive on
// one interface asking about an address owned by another. The reply
// is still transmitted out the receiving interface.
func (r *Router) handleARPRequest(hdr wire.ARPHeader, recv topo.Interface) {
	target, ok := r.ifaces.ByIP(hdr.TargetIP)
	if !ok {
		r.drop("arp_no_interface_match")
		return
	}

	buf := make([]byte, wire.ARPFrameLen)
	err := wire.PutARP(buf, hdr.SenderMAC, target.MAC, wire.ARPOpReply,
		target.MAC, target.IP, hdr.SenderMAC, hdr.SenderIP)
	if err != nil {
		r.drop("malformed", "stage", "arp_reply_build")
		return
	}

	metrics.ARPRepliesSent.Inc()
	r.send(buf, recv.Name)
}

// handleARPReply inserts the binding into the ARP cache and, on
// success, attempts to drain every pending-packet slot waiting on it.
func (r *Router) handleARPReply(hdr wire.ARPHeader, now time.Time) {
	if r.guard != nil {
		if existingMAC, ok := r.arp.Lookup(hdr.SenderIP); ok && existingMAC != hdr.SenderMAC {
			metrics.ARPConflictsDetected.Inc()
			r.guard.ARPConflict(hdr.SenderIP, existingMAC, hdr.SenderMAC)
			r.auditEvent("arp_conflict", ip4String(hdr.SenderIP), macString(hdr.SenderMAC), "", "sender mac differs from cached binding")
		}
	}

	if !r.arp.Insert(hdr.SenderIP, hdr.SenderMAC, now) {
		r.drop("arp_cache_full")
		return
	}

	r.drain(now)
}
