// Package config handles TOML configuration parsing, validation, and
// defaulting for athena-router.
package config

import (
	"encoding/binary"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/athena-router/athena-router/internal/topo"
)

// Config is the top-level configuration for athena-router.
type Config struct {
	Server     ServerConfig      `toml:"server"`
	Interfaces []InterfaceConfig `toml:"interface"`
	Routes     []RouteConfig     `toml:"route"`
	Cache      CacheConfig       `toml:"cache"`
	HealthMon  HealthMonConfig   `toml:"healthmon"`
	SpoofGuard SpoofGuardConfig  `toml:"spoofguard"`
	DNSAnnotate DNSAnnotateConfig `toml:"dnsannotate"`
	API        APIConfig         `toml:"api"`
	Audit      AuditConfig       `toml:"audit"`
}

// ServerConfig holds process-wide settings.
type ServerConfig struct {
	LogLevel    string `toml:"log_level"`
	MetricsPath string `toml:"metrics_path"`
}

// InterfaceConfig is one configured router interface, before MAC/IP
// string parsing.
type InterfaceConfig struct {
	Name string `toml:"name"`
	MAC  string `toml:"mac"`
	IP   string `toml:"ip"`
}

// RouteConfig is one configured route. Netmask is parsed and kept but
// never consulted by lookup — see topo.Route.
type RouteConfig struct {
	Dest      string `toml:"dest"`
	Gateway   string `toml:"gateway"`
	Netmask   string `toml:"netmask"`
	Interface string `toml:"interface"`
}

// CacheConfig tunes the ARP and pending-packet caches. Defaults match
// the package-level constants in arpcache and pending; overridable so
// tests can shrink the staleness/retry windows.
type CacheConfig struct {
	ARPStaleTime       string `toml:"arp_stale_time"`
	PendingRetryPeriod string `toml:"pending_retry_period"`
	MaxARPAttempts     int    `toml:"max_arp_attempts"`
}

// HealthMonConfig controls the gateway reachability prober.
type HealthMonConfig struct {
	Enabled  bool   `toml:"enabled"`
	Interval string `toml:"interval"`
	Timeout  string `toml:"timeout"`
}

// SpoofGuardConfig controls ARP conflict/gratuitous-ARP alerting.
type SpoofGuardConfig struct {
	Enabled  bool   `toml:"enabled"`
	LogLevel string `toml:"log_level"`
}

// DNSAnnotateConfig controls best-effort reverse-DNS on the ARP table.
type DNSAnnotateConfig struct {
	Enabled  bool   `toml:"enabled"`
	Resolver string `toml:"resolver"`
	Timeout  string `toml:"timeout"`
}

// APIConfig holds the admin HTTP API's settings.
type APIConfig struct {
	Enabled bool           `toml:"enabled"`
	Listen  string         `toml:"listen"`
	Auth    APIAuthConfig  `toml:"auth"`
	Session SessionConfig  `toml:"session"`
	RADIUS  RADIUSConfig   `toml:"radius"`
}

// APIAuthConfig holds local-user auth settings for the admin API.
type APIAuthConfig struct {
	AuthToken string       `toml:"auth_token"`
	Users     []UserConfig `toml:"users"`
}

// SessionConfig tunes the admin API's cookie-session behavior.
type SessionConfig struct {
	CookieName string `toml:"cookie_name"`
	Expiry     string `toml:"expiry"`
	Secure     bool   `toml:"secure"`
}

// UserConfig is one local admin-API user.
type UserConfig struct {
	Username     string `toml:"username"`
	PasswordHash string `toml:"password_hash"`
	Role         string `toml:"role"`
}

// RADIUSConfig configures the optional RADIUS AAA backend for admin login.
type RADIUSConfig struct {
	Enabled       bool   `toml:"enabled"`
	ServerAddress string `toml:"server_address"`
	Secret        string `toml:"secret"`
	NASIdentifier string `toml:"nas_identifier"`
}

// AuditConfig configures the BoltDB-backed event log.
type AuditConfig struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Load reads and parses a TOML config file, applies defaults, and validates it.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	cfg := &Config{}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.LogLevel == "" {
		cfg.Server.LogLevel = DefaultLogLevel
	}
	if cfg.Server.MetricsPath == "" {
		cfg.Server.MetricsPath = DefaultMetricsPath
	}
	if cfg.Cache.ARPStaleTime == "" {
		cfg.Cache.ARPStaleTime = DefaultARPStaleTime.String()
	}
	if cfg.Cache.PendingRetryPeriod == "" {
		cfg.Cache.PendingRetryPeriod = DefaultPendingRetryPeriod.String()
	}
	if cfg.Cache.MaxARPAttempts == 0 {
		cfg.Cache.MaxARPAttempts = DefaultMaxARPAttempts
	}
	if cfg.HealthMon.Interval == "" {
		cfg.HealthMon.Interval = DefaultHealthMonInterval.String()
	}
	if cfg.HealthMon.Timeout == "" {
		cfg.HealthMon.Timeout = DefaultHealthMonTimeout.String()
	}
	if cfg.SpoofGuard.LogLevel == "" {
		cfg.SpoofGuard.LogLevel = DefaultLogLevel
	}
	if cfg.DNSAnnotate.Timeout == "" {
		cfg.DNSAnnotate.Timeout = DefaultDNSAnnotateTimeout.String()
	}
	if cfg.API.Listen == "" {
		cfg.API.Listen = DefaultAPIListen
	}
	if cfg.API.Session.CookieName == "" {
		cfg.API.Session.CookieName = "athena_session"
	}
	if cfg.API.Session.Expiry == "" {
		cfg.API.Session.Expiry = DefaultSessionExpiry.String()
	}
	if cfg.Audit.Path == "" {
		cfg.Audit.Path = DefaultAuditPath
	}
}

func validate(cfg *Config) error {
	if len(cfg.Interfaces) == 0 {
		return fmt.Errorf("at least one [[interface]] must be configured")
	}
	seen := make(map[string]bool, len(cfg.Interfaces))
	for _, ifc := range cfg.Interfaces {
		if ifc.Name == "" {
			return fmt.Errorf("interface entry missing name")
		}
		if seen[ifc.Name] {
			return fmt.Errorf("duplicate interface name %q", ifc.Name)
		}
		seen[ifc.Name] = true
		if _, err := net.ParseMAC(ifc.MAC); err != nil {
			return fmt.Errorf("interface %s: invalid mac %q: %w", ifc.Name, ifc.MAC, err)
		}
		if ip := net.ParseIP(ifc.IP); ip == nil || ip.To4() == nil {
			return fmt.Errorf("interface %s: invalid ipv4 address %q", ifc.Name, ifc.IP)
		}
	}
	if len(cfg.Routes) == 0 {
		return fmt.Errorf("at least one [[route]] must be configured (the first is the default)")
	}
	for i, r := range cfg.Routes {
		if !seen[r.Interface] {
			return fmt.Errorf("route %d: interface %q is not configured", i, r.Interface)
		}
		if ip := net.ParseIP(r.Gateway); ip == nil || ip.To4() == nil {
			return fmt.Errorf("route %d: invalid gateway %q", i, r.Gateway)
		}
	}
	if _, err := time.ParseDuration(cfg.Cache.ARPStaleTime); err != nil {
		return fmt.Errorf("cache.arp_stale_time: %w", err)
	}
	if _, err := time.ParseDuration(cfg.Cache.PendingRetryPeriod); err != nil {
		return fmt.Errorf("cache.pending_retry_period: %w", err)
	}
	return nil
}

func ip4ToUint32(s string) uint32 {
	v4 := net.ParseIP(s).To4()
	return binary.BigEndian.Uint32(v4)
}

func mac6(s string) [6]byte {
	hw, _ := net.ParseMAC(s)
	var out [6]byte
	copy(out[:], hw)
	return out
}

// Topology builds the immutable router.Interfaces/Table from the
// validated config. Call only after Load has returned successfully.
func (cfg *Config) Topology() (*topo.Interfaces, *topo.Table) {
	ifaces := make([]topo.Interface, len(cfg.Interfaces))
	for i, ifc := range cfg.Interfaces {
		ifaces[i] = topo.Interface{Name: ifc.Name, MAC: mac6(ifc.MAC), IP: ip4ToUint32(ifc.IP)}
	}
	routes := make([]topo.Route, len(cfg.Routes))
	for i, r := range cfg.Routes {
		var dest, netmask uint32
		if r.Dest != "" {
			dest = ip4ToUint32(r.Dest)
		}
		if r.Netmask != "" {
			netmask = ip4ToUint32(r.Netmask)
		}
		routes[i] = topo.Route{
			Dest:      dest,
			Gateway:   ip4ToUint32(r.Gateway),
			Netmask:   netmask,
			Interface: r.Interface,
		}
	}
	return topo.NewInterfaces(ifaces), topo.NewTable(routes)
}

// ARPStaleTime parses the configured ARP staleness window.
func (cfg *Config) ARPStaleTime() time.Duration {
	d, _ := time.ParseDuration(cfg.Cache.ARPStaleTime)
	return d
}

// PendingRetryPeriod parses the configured pending-cache retry spacing.
func (cfg *Config) PendingRetryPeriod() time.Duration {
	d, _ := time.ParseDuration(cfg.Cache.PendingRetryPeriod)
	return d
}
