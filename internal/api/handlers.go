package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/athena-router/athena-router/internal/arpcache"
	"github.com/athena-router/athena-router/internal/audit"
)

func ip4String(ip uint32) string {
	return fmt.Sprintf("%d.%d.%d.%d", byte(ip>>24), byte(ip>>16), byte(ip>>8), byte(ip))
}

func macString(mac [6]byte) string {
	return fmt.Sprintf("%02x:%02x:%02x:%02x:%02x:%02x", mac[0], mac[1], mac[2], mac[3], mac[4], mac[5])
}

// handleHealth reports process liveness, unauthenticated.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	JSONResponse(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"version":    s.version,
		"uptime_sec": int(time.Since(s.startTime).Seconds()),
	})
}

type interfaceView struct {
	Name string `json:"name"`
	MAC  string `json:"mac"`
	IP   string `json:"ip"`
}

// handleInterfaces lists the configured interfaces.
func (s *Server) handleInterfaces(w http.ResponseWriter, r *http.Request) {
	all := s.rtr.Interfaces().All()
	out := make([]interfaceView, 0, len(all))
	for _, iface := range all {
		out = append(out, interfaceView{Name: iface.Name, MAC: macString(iface.MAC), IP: ip4String(iface.IP)})
	}
	JSONResponse(w, http.StatusOK, out)
}

type routeView struct {
	Dest      string `json:"dest"`
	Gateway   string `json:"gateway"`
	Netmask   string `json:"netmask"`
	Interface string `json:"interface"`
	IsDefault bool   `json:"is_default"`
}

// handleRoutes lists the configured route table, in configured order
// (the first entry is the fallback default, per topo.Table.Lookup).
func (s *Server) handleRoutes(w http.ResponseWriter, r *http.Request) {
	all := s.rtr.Routes().All()
	out := make([]routeView, 0, len(all))
	for i, rt := range all {
		out = append(out, routeView{
			Dest:      ip4String(rt.Dest),
			Gateway:   ip4String(rt.Gateway),
			Netmask:   ip4String(rt.Netmask),
			Interface: rt.Interface,
			IsDefault: i == 0,
		})
	}
	JSONResponse(w, http.StatusOK, out)
}

type arpEntryView struct {
	IP        string `json:"ip"`
	MAC       string `json:"mac"`
	Vendor    string `json:"vendor,omitempty"`
	Hostname  string `json:"hostname,omitempty"`
	CachedAt  string `json:"cached_at"`
	AgeSecond int    `json:"age_seconds"`
}

// handleARPTable dumps the ARP cache, annotated with MAC vendor and
// reverse-DNS hostname when those resolvers are wired.
func (s *Server) handleARPTable(w http.ResponseWriter, r *http.Request) {
	entries := s.rtr.ARPCache().ValidEntries()
	out := make([]arpEntryView, 0, len(entries))
	now := time.Now()
	for _, e := range entries {
		v := arpEntryView{
			IP:        ip4String(e.IP),
			MAC:       macString(e.MAC),
			CachedAt:  e.CachedAt.UTC().Format(time.RFC3339),
			AgeSecond: int(now.Sub(e.CachedAt).Seconds()),
		}
		if s.vendorDB != nil {
			v.Vendor = s.vendorDB.LookupHW(e.MAC)
		}
		if s.resolver != nil {
			v.Hostname = s.resolver.Lookup(e.IP)
		}
		out = append(out, v)
	}
	JSONResponse(w, http.StatusOK, map[string]any{
		"entries":  out,
		"count":    len(out),
		"capacity": arpcache.Capacity,
	})
}

type pendingSlotView struct {
	Index        int    `json:"index"`
	TargetIP     string `json:"target_ip"`
	NextHopIface string `json:"next_hop_interface"`
	ARPAttempts  uint8  `json:"arp_attempts"`
	MaxAttempts  uint8  `json:"max_attempts"`
	EnqueuedAt   string `json:"enqueued_at"`
	FrameBytes   int    `json:"frame_bytes"`
}

// handlePending dumps the pending-packet cache.
func (s *Server) handlePending(w http.ResponseWriter, r *http.Request) {
	cache := s.rtr.PendingCache()
	slots := cache.Occupied()
	out := make([]pendingSlotView, 0, len(slots))
	for _, sl := range slots {
		out = append(out, pendingSlotView{
			Index:        sl.Index,
			TargetIP:     ip4String(sl.TargetIP),
			NextHopIface: sl.NextHop.Interface,
			ARPAttempts:  sl.ARPAttempts,
			MaxAttempts:  cache.MaxAttempts(),
			EnqueuedAt:   sl.EnqueuedAt.UTC().Format(time.RFC3339),
			FrameBytes:   len(sl.Frame),
		})
	}
	JSONResponse(w, http.StatusOK, map[string]any{
		"slots": out,
		"count": len(out),
	})
}

// handleStats returns current cache occupancy, a lightweight
// complement to the Prometheus /metrics endpoint for dashboards that
// want a single cheap poll.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	JSONResponse(w, http.StatusOK, map[string]any{
		"arp_cache_entries":     s.rtr.ARPCache().Len(),
		"pending_cache_entries": s.rtr.PendingCache().Len(),
		"interfaces":            len(s.rtr.Interfaces().All()),
		"routes":                len(s.rtr.Routes().All()),
	})
}

// handleHealthmon reports gateway reachability, if a monitor is wired.
func (s *Server) handleHealthmon(w http.ResponseWriter, r *http.Request) {
	if s.healthmon == nil {
		JSONResponse(w, http.StatusOK, map[string]any{"enabled": false, "gateways": []string{}})
		return
	}
	statuses := s.healthmon.Statuses()
	JSONResponse(w, http.StatusOK, map[string]any{"enabled": true, "gateways": statuses})
}

// handleConflicts reports observed ARP binding conflicts, if a guard
// is wired.
func (s *Server) handleConflicts(w http.ResponseWriter, r *http.Request) {
	if s.guard == nil {
		JSONResponse(w, http.StatusOK, []any{})
		return
	}
	JSONResponse(w, http.StatusOK, s.guard.Conflicts())
}

// handleAudit queries the persistent audit log, if one is wired.
// Accepts optional "event", "since" (RFC3339), and "limit" query params.
func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request) {
	if s.auditLog == nil {
		JSONResponse(w, http.StatusOK, []any{})
		return
	}

	q := r.URL.Query()
	params := audit.QueryParams{Event: audit.EventType(q.Get("event"))}
	if since := q.Get("since"); since != "" {
		if t, err := time.Parse(time.RFC3339, since); err == nil {
			params.Since = t
		}
	}
	if limit := q.Get("limit"); limit != "" {
		if n, err := strconv.Atoi(limit); err == nil {
			params.Limit = n
		}
	}

	records, err := s.auditLog.Query(params)
	if err != nil {
		JSONError(w, http.StatusInternalServerError, "audit_query_failed", err.Error())
		return
	}
	JSONResponse(w, http.StatusOK, records)
}

