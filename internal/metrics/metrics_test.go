package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsRegistered(t *testing.T) {
	FramesReceived.WithLabelValues("ipv4").Inc()
	FramesDropped.WithLabelValues("malformed").Inc()
	FramesForwarded.WithLabelValues("eth0").Inc()
	ARPRequestsSent.Inc()
	ARPRepliesSent.Inc()
	ARPCacheEntries.Set(3)
	ARPConflictsDetected.Inc()
	PendingCacheEntries.Set(1)
	ICMPUnreachableSent.WithLabelValues("1").Inc()
	ICMPEchoRepliesSent.Inc()
	GatewayReachable.WithLabelValues("10.0.0.1").Set(1)

	if got := testutil.ToFloat64(ARPCacheEntries); got != 3 {
		t.Errorf("ARPCacheEntries = %v, want 3", got)
	}
	if got := testutil.ToFloat64(PendingCacheEntries); got != 1 {
		t.Errorf("PendingCacheEntries = %v, want 1", got)
	}
}

func TestMetricsNamespace(t *testing.T) {
	mfs, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}

	for _, mf := range mfs {
		name := mf.GetName()
		if strings.HasPrefix(name, "go_") ||
			strings.HasPrefix(name, "process_") ||
			strings.HasPrefix(name, "promhttp_") {
			continue
		}
		if !strings.HasPrefix(name, "athena_router_") {
			t.Errorf("metric %q does not have athena_router_ prefix", name)
		}
	}
}
