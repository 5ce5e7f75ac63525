// Package metrics defines the Prometheus metrics for the router
// datapath. All metrics use the "athena_router_" prefix.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "athena_router"

// --- Frame metrics ---

var (
	// FramesReceived counts frames handed to the dispatcher, by EtherType.
	FramesReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "frames_received_total",
		Help:      "Total frames received by the dispatcher, by ether type.",
	}, []string{"ether_type"})

	// FramesDropped counts frames dropped, by reason.
	FramesDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "frames_dropped_total",
		Help:      "Total frames dropped, by reason.",
	}, []string{"reason"})

	// FramesForwarded counts frames successfully forwarded, by outgoing interface.
	FramesForwarded = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "frames_forwarded_total",
		Help:      "Total frames forwarded, by outgoing interface.",
	}, []string{"interface"})
)

// --- ARP metrics ---

var (
	ARPRequestsSent = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "arp_requests_sent_total",
		Help:      "Total ARP requests emitted (initial parks and retries).",
	})

	ARPRepliesSent = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "arp_replies_sent_total",
		Help:      "Total ARP replies emitted in answer to requests for our own IPs.",
	})

	ARPCacheEntries = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "arp_cache_entries",
		Help:      "Current number of valid ARP cache entries.",
	})

	ARPSweepDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "arp_cache_sweep_duration_seconds",
		Help:      "Duration of each ARP cache staleness sweep.",
		Buckets:   prometheus.DefBuckets,
	})

	ARPConflictsDetected = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "arp_conflicts_detected_total",
		Help:      "Total ARP replies observed binding an IP to a MAC different from its existing valid cache entry.",
	})
)

// --- Pending cache / ICMP metrics ---

var (
	PendingCacheEntries = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "pending_cache_entries",
		Help:      "Current number of occupied pending-packet cache slots.",
	})

	ICMPUnreachableSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "icmp_unreachable_sent_total",
		Help:      "Total ICMP destination-unreachable messages emitted, by code.",
	}, []string{"code"})

	ICMPEchoRepliesSent = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "icmp_echo_replies_sent_total",
		Help:      "Total ICMP echo replies emitted.",
	})
)

// --- Health monitor metrics ---

var (
	GatewayReachable = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "gateway_reachable",
		Help:      "1 if the last health probe to a gateway succeeded, 0 otherwise.",
	}, []string{"gateway"})
)

// --- Admin API / event bus metrics ---

var (
	EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_published_total",
		Help:      "Total events published to the admin API event bus, by type.",
	}, []string{"type"})

	EventBufferDrops = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "event_buffer_drops_total",
		Help:      "Total events dropped because the event bus buffer was full.",
	})

	SSEConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "sse_connections",
		Help:      "Current number of connected admin API SSE clients.",
	})

	APIRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "api_requests_total",
		Help:      "Total admin API HTTP requests, by method, path, and status.",
	}, []string{"method", "path", "status"})

	APIRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "api_request_duration_seconds",
		Help:      "Admin API HTTP request duration, by method and path.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path"})
)
