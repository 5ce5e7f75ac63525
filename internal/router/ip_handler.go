package router

import (
	"time"

	"github.com/athena-router/athena-router/internal/topo"
	"github.com/athena-router/athena-router/pkg/wire"
)

// handleIPv4 handles an IPv4 (RFC 791) frame: local delivery when the
// destination IP is the receiving interface's own address, otherwise
// the forwarder. Local delivery is keyed to recv, the interface the
// frame actually arrived on, not any configured interface — a frame
// addressed to a different interface's IP is forwarded, not delivered.
func (r *Router) handleIPv4(frame []byte, recv topo.Interface, now time.Time) {
	ip, err := wire.ParseIPv4(frame)
	if err != nil {
		r.drop("malformed", "stage", "ipv4")
		return
	}

	if ip.DstIP == recv.IP {
		r.handleLocalIPv4(frame, ip, recv)
		return
	}

	r.forward(frame, ip, now)
}

// handleLocalIPv4 answers traffic addressed to us: ICMP echo requests
// get a reply, anything else terminating here gets an ICMP
// port-unreachable, since the router has no listening transport-layer
// services of its own.
func (r *Router) handleLocalIPv4(frame []byte, ip wire.IPv4Header, recv topo.Interface) {
	switch ip.Protocol {
	case wire.IPProtocolICMP:
		r.handleLocalICMP(frame, ip, recv)
	default:
		r.sendPortUnreachable(frame, ip, recv)
	}
}
