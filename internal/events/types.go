// Package events provides a non-blocking fan-out bus for notable
// datapath events, consumed by the admin API's SSE stream.
package events

import "time"

// EventType names one kind of router-datapath event.
type EventType string

const (
	EventFrameForwarded EventType = "frame.forwarded"
	EventFrameDropped   EventType = "frame.dropped"
	EventARPResolved    EventType = "arp.resolved"
	EventARPConflict    EventType = "arp.conflict"
	EventARPExhausted   EventType = "arp.exhausted"
	EventICMPUnreach    EventType = "icmp.unreachable"
	EventGatewayDown    EventType = "gateway.down"
	EventGatewayUp      EventType = "gateway.up"
)

// Event is the payload broadcast on the bus.
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	IP        string    `json:"ip,omitempty"`
	MAC       string    `json:"mac,omitempty"`
	Interface string    `json:"interface,omitempty"`
	Reason    string    `json:"reason,omitempty"`
}
