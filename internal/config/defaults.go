package config

import "time"

// Default configuration values.
const (
	DefaultLogLevel          = "info"
	DefaultMetricsPath       = "/metrics"
	DefaultARPStaleTime      = 15 * time.Second
	DefaultPendingRetryPeriod = 3 * time.Second
	DefaultMaxARPAttempts    = 5
	DefaultHealthMonInterval = 5 * time.Second
	DefaultHealthMonTimeout  = 1 * time.Second
	DefaultDNSAnnotateTimeout = 500 * time.Millisecond
	DefaultAPIListen         = "0.0.0.0:8067"
	DefaultAuditPath         = "/var/lib/athena-router/audit.db"
	DefaultSessionExpiry     = 24 * time.Hour
)
