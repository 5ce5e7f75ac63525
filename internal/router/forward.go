package router

import (
	"time"

	"github.com/athena-router/athena-router/internal/metrics"
	"github.com/athena-router/athena-router/internal/pending"
	"github.com/athena-router/athena-router/internal/topo"
	"github.com/athena-router/athena-router/pkg/wire"
)

// forward handles an IPv4 frame whose destination is not one of our
// own addresses: look up a route, resolve the next hop's MAC via the
// ARP cache, and either rewrite+send or park it pending ARP
// resolution. TTL and the IPv4 checksum are left untouched — only the
// Ethernet header changes hop to hop.
func (r *Router) forward(frame []byte, ip wire.IPv4Header, now time.Time) {
	route, ok := r.routes.Lookup(ip.DstIP)
	if !ok {
		r.drop("no_route")
		return
	}

	outIface, ok := r.ifaces.ByName(route.Interface)
	if !ok {
		r.drop("no_route", "reason", "route_interface_unconfigured")
		return
	}

	nextHopIP := route.Gateway
	if nextHopIP == 0 {
		nextHopIP = ip.DstIP
	}

	mac, ok := r.arp.Lookup(nextHopIP)
	if !ok {
		r.park(frame, route, nextHopIP, now)
		return
	}

	if err := wire.PutEthernet(frame, mac, outIface.MAC, wire.EtherTypeIPv4); err != nil {
		r.drop("malformed", "stage", "forward_rewrite")
		return
	}

	metrics.FramesForwarded.WithLabelValues(outIface.Name).Inc()
	r.send(frame, outIface.Name)
}

// park stores the frame in the pending-packet cache and fires the
// first ARP request for its next hop.
func (r *Router) park(frame []byte, route topo.Route, nextHopIP uint32, now time.Time) {
	if !r.pend.Park(frame, route, nextHopIP, now) {
		r.drop("pending_cache_full")
		return
	}
	r.sendARPRequest(route.Interface, nextHopIP)
}

// drain walks every occupied pending slot: a slot whose target now
// resolves in the ARP cache is forwarded and freed; a slot still
// unresolved but due for a retry (attempts not above MaxARPAttempts)
// gets another ARP request; a slot whose attempts exceed MaxARPAttempts is
// answered with ICMP host-unreachable and freed. This mirrors the
// original router's checkCachedPackets() sweep, except here it is
// triggered by an ARP reply rather than run on a timer, since the
// caches are only ever touched from within Dispatch.
func (r *Router) drain(now time.Time) {
	for _, slot := range r.pend.Occupied() {
		mac, resolved := r.arp.Lookup(slot.TargetIP)

		switch {
		case slot.ARPAttempts > r.pend.MaxAttempts():
			r.sendPendingUnreachable(slot)
			r.pend.Free(slot.Index)

		case resolved:
			r.forwardParked(slot, mac)
			r.pend.Free(slot.Index)

		case r.pend.RetryDue(slot.EnqueuedAt, now):
			r.pend.IncrementAttempts(slot.Index)
			r.sendARPRequest(slot.NextHop.Interface, slot.TargetIP)
		}
	}
}

func (r *Router) forwardParked(slot pending.Slot, nextHopMAC [6]byte) {
	outIface, ok := r.ifaces.ByName(slot.NextHop.Interface)
	if !ok {
		return
	}
	if err := wire.PutEthernet(slot.Frame, nextHopMAC, outIface.MAC, wire.EtherTypeIPv4); err != nil {
		return
	}
	metrics.FramesForwarded.WithLabelValues(outIface.Name).Inc()
	r.send(slot.Frame, outIface.Name)
}

// sendARPRequest broadcasts an ARP request for targetIP out iface,
// sourced from that interface's own address.
func (r *Router) sendARPRequest(ifaceName string, targetIP uint32) {
	iface, ok := r.ifaces.ByName(ifaceName)
	if !ok {
		return
	}
	buf := make([]byte, wire.ARPFrameLen)
	var zeroMAC [6]byte
	err := wire.PutARP(buf, wire.BroadcastMAC, iface.MAC, wire.ARPOpRequest,
		iface.MAC, iface.IP, zeroMAC, targetIP)
	if err != nil {
		return
	}
	metrics.ARPRequestsSent.Inc()
	r.send(buf, iface.Name)
}

// sendPendingUnreachable answers a pending slot that exhausted its ARP
// attempts with an ICMP host-unreachable. Per the original router's
// icmpSendUnreachable(), the message is sourced from the next hop's
// outgoing interface (its own IP and MAC), addressed at layer 2 to the
// Ethernet source address recorded in the original stalled frame —
// the pending entry has no record of which interface the frame first
// arrived on, so that is the only address available to send it back to.
func (r *Router) sendPendingUnreachable(slot pending.Slot) {
	outIface, ok := r.ifaces.ByName(slot.NextHop.Interface)
	if !ok {
		return
	}
	origEth, err := wire.ParseEthernet(slot.Frame)
	if err != nil {
		return
	}
	origIP, err := wire.ParseIPv4(slot.Frame)
	if err != nil {
		return
	}

	buf := make([]byte, wire.ICMPUnreachableFrameLen)
	offending := wire.OffendingPayload(slot.Frame)
	if err := wire.BuildICMPUnreachable(buf, wire.ICMPCodeHostUnreachable, outIface.IP, origIP.SrcIP, offending[:]); err != nil {
		return
	}
	if err := wire.PutEthernet(buf, origEth.Src, outIface.MAC, wire.EtherTypeIPv4); err != nil {
		return
	}

	metrics.ICMPUnreachableSent.WithLabelValues(itoa(wire.ICMPCodeHostUnreachable)).Inc()
	r.auditEvent("arp_exhausted", ip4String(slot.TargetIP), "", slot.NextHop.Interface, "arp_attempts exceeded max")
	r.send(buf, outIface.Name)
}
