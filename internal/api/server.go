// Package api provides the admin HTTP API: read-mostly operational
// visibility into the router's interfaces, routes, ARP and pending
// caches, gateway health, and a live event stream.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/athena-router/athena-router/internal/audit"
	"github.com/athena-router/athena-router/internal/config"
	"github.com/athena-router/athena-router/internal/dnsannotate"
	"github.com/athena-router/athena-router/internal/events"
	"github.com/athena-router/athena-router/internal/healthmon"
	"github.com/athena-router/athena-router/internal/macvendor"
	"github.com/athena-router/athena-router/internal/router"
	"github.com/athena-router/athena-router/internal/spoofguard"
)

// Server is the admin HTTP API server.
type Server struct {
	cfg        config.APIConfig
	rtr        *router.Router
	bus        *events.Bus
	auditLog   *audit.Log
	healthmon  *healthmon.Monitor
	guard      *spoofguard.Guard
	vendorDB   *macvendor.DB
	resolver   *dnsannotate.Resolver
	logger     *slog.Logger
	httpServer *http.Server
	auth       *AuthMiddleware
	sseHub     *SSEHub
	radiusAuth RadiusAuthenticator
	startTime  time.Time
	version    string
}

// NewServer creates a new admin API server.
func NewServer(cfg config.APIConfig, rtr *router.Router, bus *events.Bus, logger *slog.Logger, opts ...ServerOption) *Server {
	s := &Server{
		cfg:       cfg,
		rtr:       rtr,
		bus:       bus,
		logger:    logger,
		startTime: time.Now(),
		version:   "dev",
	}
	for _, opt := range opts {
		opt(s)
	}

	s.auth = NewAuthMiddleware(cfg, logger)
	if s.radiusAuth != nil {
		s.auth = s.auth.WithRADIUS(s.radiusAuth)
	}
	s.sseHub = NewSSEHub(bus, logger)

	return s
}

// ServerOption configures optional Server collaborators.
type ServerOption func(*Server)

// WithAuditLog wires the persistent event log for the /audit endpoint.
func WithAuditLog(a *audit.Log) ServerOption { return func(s *Server) { s.auditLog = a } }

// WithHealthMonitor wires the gateway reachability prober.
func WithHealthMonitor(h *healthmon.Monitor) ServerOption {
	return func(s *Server) { s.healthmon = h }
}

// WithSpoofGuard wires the ARP conflict guard.
func WithSpoofGuard(g *spoofguard.Guard) ServerOption { return func(s *Server) { s.guard = g } }

// WithMACVendorDB wires the MAC vendor lookup table.
func WithMACVendorDB(db *macvendor.DB) ServerOption { return func(s *Server) { s.vendorDB = db } }

// WithDNSAnnotate wires the best-effort reverse-DNS resolver.
func WithDNSAnnotate(r *dnsannotate.Resolver) ServerOption {
	return func(s *Server) { s.resolver = r }
}

// WithVersion sets the server version string reported by /health.
func WithVersion(v string) ServerOption { return func(s *Server) { s.version = v } }

// WithRADIUSAuth wires a RADIUS backend as a fallback for admin login.
func WithRADIUSAuth(r RadiusAuthenticator) ServerOption {
	return func(s *Server) { s.radiusAuth = r }
}

// Listen binds the API server to its configured address.
func (s *Server) Listen() (net.Listener, error) {
	mux := http.NewServeMux()
	s.registerRoutes(mux)

	s.httpServer = &http.Server{
		Handler:     newMetricsMiddleware(mux),
		ReadTimeout: 30 * time.Second,
		IdleTimeout: 120 * time.Second,
	}

	ln, err := net.Listen("tcp", s.cfg.Listen)
	if err != nil {
		return nil, fmt.Errorf("binding API server to %s: %w", s.cfg.Listen, err)
	}

	go s.sseHub.Run()

	s.logger.Info("admin API listening", "address", ln.Addr().String())
	return ln, nil
}

// Serve accepts connections on the listener. Blocks until shutdown.
func (s *Server) Serve(ln net.Listener) error {
	if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("admin API: %w", err)
	}
	return nil
}

// Start is a convenience that calls Listen + Serve. Blocks until shutdown.
func (s *Server) Start() error {
	ln, err := s.Listen()
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Stop gracefully shuts down the API server.
func (s *Server) Stop(ctx context.Context) error {
	s.sseHub.Stop()
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /api/v1/health", s.handleHealth)

	mux.HandleFunc("POST /api/v1/auth/login", s.auth.handleLogin)
	mux.HandleFunc("POST /api/v1/auth/logout", s.auth.handleLogout)
	mux.HandleFunc("GET /api/v1/auth/me", s.auth.handleMe)

	mux.HandleFunc("GET /api/v1/interfaces", s.auth.RequireAuth(s.handleInterfaces))
	mux.HandleFunc("GET /api/v1/routes", s.auth.RequireAuth(s.handleRoutes))
	mux.HandleFunc("GET /api/v1/arp", s.auth.RequireAuth(s.handleARPTable))
	mux.HandleFunc("GET /api/v1/pending", s.auth.RequireAuth(s.handlePending))
	mux.HandleFunc("GET /api/v1/stats", s.auth.RequireAuth(s.handleStats))
	mux.HandleFunc("GET /api/v1/healthmon", s.auth.RequireAuth(s.handleHealthmon))
	mux.HandleFunc("GET /api/v1/conflicts", s.auth.RequireAuth(s.handleConflicts))
	mux.HandleFunc("GET /api/v1/audit", s.auth.RequireAuth(s.handleAudit))
	mux.HandleFunc("GET /api/v1/events/stream", s.auth.RequireAuth(s.handleSSE))
}
