package router

import (
	"time"

	"github.com/athena-router/athena-router/internal/metrics"
	"github.com/athena-router/athena-router/pkg/wire"
)

// Dispatch classifies and processes one received frame against four
// rules. The Ethernet destination address is not examined by any of
// them:
//
//  1. EtherType ARP -> ARP handler (broadcast or unicast alike).
//  2. EtherType IPv4 with destination IP equal to the receiving
//     interface's IP -> local delivery.
//  3. Any other EtherType IPv4 frame -> forwarder.
//  4. Anything else -> drop, no counters beyond FramesDropped.
//
// now is the single time sample used for every timestamp this dispatch
// produces (sweep, cache inserts, park).
func (r *Router) Dispatch(frame []byte, recvInterface string, now time.Time) {
	start := now
	r.arp.Sweep(now)
	metrics.ARPSweepDuration.Observe(time.Since(start).Seconds())
	defer r.refreshGauges()

	iface, ok := r.ifaces.ByName(recvInterface)
	if !ok {
		r.drop("unknown_interface", "interface", recvInterface)
		return
	}

	eth, err := wire.ParseEthernet(frame)
	if err != nil {
		r.drop("malformed", "stage", "ethernet")
		return
	}

	metrics.FramesReceived.WithLabelValues(eth.EtherType.String()).Inc()

	switch eth.EtherType {
	case wire.EtherTypeARP:
		r.handleARP(frame, iface, now)
	case wire.EtherTypeIPv4:
		r.handleIPv4(frame, iface, now)
	default:
		r.drop("unsupported_ethertype", "ether_type", eth.EtherType.String())
	}
}
