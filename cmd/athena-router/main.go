// athena-router — a single-threaded IPv4 router datapath with ARP
// resolution, ICMP local delivery, and an admin HTTP API.
package main

import (
	"context"
	"flag"
	"fmt"
	nethttp "net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/athena-router/athena-router/internal/api"
	"github.com/athena-router/athena-router/internal/arpcache"
	"github.com/athena-router/athena-router/internal/audit"
	"github.com/athena-router/athena-router/internal/config"
	"github.com/athena-router/athena-router/internal/dnsannotate"
	"github.com/athena-router/athena-router/internal/events"
	"github.com/athena-router/athena-router/internal/healthmon"
	"github.com/athena-router/athena-router/internal/hostshim"
	"github.com/athena-router/athena-router/internal/logging"
	"github.com/athena-router/athena-router/internal/macvendor"
	"github.com/athena-router/athena-router/internal/metrics"
	"github.com/athena-router/athena-router/internal/pending"
	radiusauth "github.com/athena-router/athena-router/internal/radius"
	"github.com/athena-router/athena-router/internal/router"
	"github.com/athena-router/athena-router/internal/spoofguard"
)

func main() {
	configPath := flag.String("config", "/etc/athena-router/config.toml", "path to configuration file")
	debugPort := flag.String("debug-port", "", "enable pprof debug server on this port (e.g. 6060)")
	flag.Parse()

	if *debugPort != "" {
		runtime.SetMutexProfileFraction(5)
		runtime.SetBlockProfileRate(1)
		go func() {
			addr := "0.0.0.0:" + *debugPort
			fmt.Fprintf(os.Stderr, "pprof debug server on http://%s/debug/pprof/\n", addr)
			if err := nethttp.ListenAndServe(addr, nil); err != nil {
				fmt.Fprintf(os.Stderr, "pprof server failed: %v\n", err)
			}
		}()
	}

	go func() {
		sigUsr1 := make(chan os.Signal, 1)
		signal.Notify(sigUsr1, syscall.SIGUSR1)
		for range sigUsr1 {
			buf := make([]byte, 64*1024*1024)
			n := runtime.Stack(buf, true)
			path := "/tmp/athena-router-goroutines.txt"
			if err := os.WriteFile(path, buf[:n], 0644); err != nil {
				fmt.Fprintf(os.Stderr, "failed to write goroutine dump: %v\n", err)
			} else {
				fmt.Fprintf(os.Stderr, "goroutine dump written to %s (%d bytes)\n", path, n)
			}
		}
	}()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		os.Exit(1)
	}

	logger := logging.Setup(cfg.Server.LogLevel, os.Stdout)
	logger.Info("athena-router starting", "config", *configPath, "interfaces", len(cfg.Interfaces))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ifaces, routes := cfg.Topology()

	ifaceNames := make([]string, 0, len(cfg.Interfaces))
	for _, ifc := range cfg.Interfaces {
		ifaceNames = append(ifaceNames, ifc.Name)
	}
	host, err := hostshim.Open(ifaceNames)
	if err != nil {
		logger.Error("failed to open interfaces", "error", err)
		os.Exit(1)
	}
	defer host.Close()

	var auditLog *audit.Log
	if cfg.Audit.Enabled {
		auditLog, err = audit.Open(cfg.Audit.Path)
		if err != nil {
			logger.Error("failed to open audit log", "error", err)
			os.Exit(1)
		}
		defer auditLog.Close()
		logger.Info("audit log opened", "path", cfg.Audit.Path)
	}

	bus := events.NewBus(1000, logger)
	go bus.Start()
	defer bus.Stop()

	var guard *spoofguard.Guard
	if cfg.SpoofGuard.Enabled {
		guard = spoofguard.New(logger)
	}

	rtrOpts := []router.Option{
		router.WithLogger(logger),
		router.WithAuditSink(multiSink{a: auditLog, b: bus}),
		router.WithARPCache(arpcache.NewWithStaleTime(cfg.ARPStaleTime())),
		router.WithPendingCache(pending.NewWithRetry(cfg.PendingRetryPeriod(), uint8(cfg.Cache.MaxARPAttempts))),
	}
	if guard != nil {
		rtrOpts = append(rtrOpts, router.WithConflictObserver(multiObserver{guard: guard, bus: bus}))
	}

	rtr := router.New(ifaces, routes, host, rtrOpts...)

	var mon *healthmon.Monitor
	if cfg.HealthMon.Enabled {
		interval, _ := time.ParseDuration(cfg.HealthMon.Interval)
		timeout, _ := time.ParseDuration(cfg.HealthMon.Timeout)
		mon = healthmon.New(logger, interval, timeout)
		defer mon.Close()
		go mon.Run(ctx, routes)
	}

	vendorDB := macvendor.NewDB()

	var resolver *dnsannotate.Resolver
	if cfg.DNSAnnotate.Enabled {
		timeout, _ := time.ParseDuration(cfg.DNSAnnotate.Timeout)
		resolver = dnsannotate.New(cfg.DNSAnnotate.Resolver, timeout)
	}

	var apiServer *api.Server
	if cfg.API.Enabled {
		apiOpts := []api.ServerOption{
			api.WithMACVendorDB(vendorDB),
		}
		if auditLog != nil {
			apiOpts = append(apiOpts, api.WithAuditLog(auditLog))
		}
		if mon != nil {
			apiOpts = append(apiOpts, api.WithHealthMonitor(mon))
		}
		if guard != nil {
			apiOpts = append(apiOpts, api.WithSpoofGuard(guard))
		}
		if resolver != nil {
			apiOpts = append(apiOpts, api.WithDNSAnnotate(resolver))
		}
		if cfg.API.RADIUS.Enabled {
			admin := radiusauth.NewAdminAuthenticator(cfg.API.RADIUS.ServerAddress, cfg.API.RADIUS.Secret, cfg.API.RADIUS.NASIdentifier, logger)
			apiOpts = append(apiOpts, api.WithRADIUSAuth(admin))
		}

		apiServer = api.NewServer(cfg.API, rtr, bus, logger, apiOpts...)
		ln, err := apiServer.Listen()
		if err != nil {
			logger.Error("FATAL: admin API failed to start", "error", err)
			os.Exit(1)
		}
		go func() {
			if err := apiServer.Serve(ln); err != nil {
				logger.Error("admin API failed", "error", err)
			}
		}()
	}

	metrics.ARPCacheEntries.Set(0)
	metrics.PendingCacheEntries.Set(0)

	logger.Info("athena-router ready", "interfaces", ifaceNames, "routes", len(routes.All()))

	go func() {
		if err := host.Serve(ctx, func(f hostshim.Frame) {
			rtr.Dispatch(f.Data, f.Interface, f.At)
		}); err != nil && ctx.Err() == nil {
			logger.Error("frame serve loop exited", "error", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("received shutdown signal", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	cancel()
	if apiServer != nil {
		apiServer.Stop(shutdownCtx)
	}

	logger.Info("athena-router stopped")
}

// multiSink fans a datapath audit event out to the persistent audit
// log and the live event bus, tolerating either being nil.
type multiSink struct {
	a *audit.Log
	b *events.Bus
}

func (m multiSink) RecordEvent(event, ip, mac, iface, reason string) {
	if m.a != nil {
		m.a.RecordEvent(event, ip, mac, iface, reason)
	}
	if m.b != nil {
		m.b.RecordEvent(event, ip, mac, iface, reason)
	}
}

// multiObserver fans an ARP conflict out to the in-memory guard and the
// live event bus.
type multiObserver struct {
	guard *spoofguard.Guard
	bus   *events.Bus
}

func (m multiObserver) ARPConflict(ip uint32, oldMAC, newMAC [6]byte) {
	m.guard.ARPConflict(ip, oldMAC, newMAC)
	m.bus.ARPConflict(ip, oldMAC, newMAC)
}
