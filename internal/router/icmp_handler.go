package router

import (
	"github.com/athena-router/athena-router/internal/metrics"
	"github.com/athena-router/athena-router/internal/topo"
	"github.com/athena-router/athena-router/pkg/wire"
)

// handleLocalICMP answers an ICMP (RFC 792) message addressed to us.
// Only echo request gets a reply; anything else ICMP-typed
// terminating here is silently dropped, matching handleIcmp() in the
// original router, which only ever branches on ICMP_ECHO_REQUEST.
func (r *Router) handleLocalICMP(frame []byte, ip wire.IPv4Header, recv topo.Interface) {
	icmp, err := wire.ParseICMP(frame)
	if err != nil {
		r.drop("malformed", "stage", "icmp")
		return
	}
	if icmp.Type != wire.ICMPTypeEchoRequest {
		r.drop("unhandled_icmp_type", "type", icmp.Type)
		return
	}

	origEth, err := wire.ParseEthernet(frame)
	if err != nil {
		r.drop("malformed", "stage", "icmp_echo")
		return
	}

	frameLen := len(frame)
	if err := wire.RewriteICMPEchoReply(frame, frameLen); err != nil {
		r.drop("malformed", "stage", "icmp_echo_rewrite")
		return
	}
	if err := wire.PutIPv4(frame, 64, wire.IPProtocolICMP, recv.IP, ip.SrcIP, uint16(frameLen-wire.EthernetHeaderLen)); err != nil {
		r.drop("malformed", "stage", "icmp_echo_ip_rewrite")
		return
	}
	if err := wire.PutEthernet(frame, origEth.Src, recv.MAC, wire.EtherTypeIPv4); err != nil {
		r.drop("malformed", "stage", "icmp_echo_eth_rewrite")
		return
	}

	metrics.ICMPEchoRepliesSent.Inc()
	r.send(frame, recv.Name)
}

// sendPortUnreachable answers a locally-addressed TCP/UDP datagram
// with ICMP destination-port-unreachable, sourced from the interface
// the original datagram arrived on.
func (r *Router) sendPortUnreachable(frame []byte, ip wire.IPv4Header, recv topo.Interface) {
	origEth, err := wire.ParseEthernet(frame)
	if err != nil {
		r.drop("malformed", "stage", "port_unreachable")
		return
	}

	buf := make([]byte, wire.ICMPUnreachableFrameLen)
	offending := wire.OffendingPayload(frame)
	if err := wire.BuildICMPUnreachable(buf, wire.ICMPCodePortUnreachable, recv.IP, ip.SrcIP, offending[:]); err != nil {
		r.drop("malformed", "stage", "port_unreachable_build")
		return
	}
	if err := wire.PutEthernet(buf, origEth.Src, recv.MAC, wire.EtherTypeIPv4); err != nil {
		r.drop("malformed", "stage", "port_unreachable_eth")
		return
	}

	metrics.ICMPUnreachableSent.WithLabelValues(itoa(wire.ICMPCodePortUnreachable)).Inc()
	r.auditEvent("icmp_unreachable", ip4String(ip.SrcIP), "", recv.Name, "unsupported l4 protocol")
	r.send(buf, recv.Name)
}
