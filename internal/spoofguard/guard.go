// Package spoofguard records IP/MAC binding conflicts seen in ARP
// (RFC 826) replies. It implements router.ConflictObserver and is
// purely advisory: it never changes the ARP cache's insert/coalesce
// behavior, only logs, counts, and records for the admin API. It also
// provides IsGratuitous for classifying an ARP announcement; the
// router's ARP path does not call it, so gratuitous replies are cached
// like any other reply.
package spoofguard

import (
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Conflict is one observed IP bound to more than one MAC.
type Conflict struct {
	IP        string    `json:"ip"`
	OldMAC    string    `json:"old_mac"`
	NewMAC    string    `json:"new_mac"`
	Count     int       `json:"count"`
	FirstSeen time.Time `json:"first_seen"`
	LastSeen  time.Time `json:"last_seen"`
}

// Guard tracks observed ARP conflicts in memory.
type Guard struct {
	logger *slog.Logger

	mu        sync.RWMutex
	conflicts map[string]*Conflict
}

// New builds a Guard that logs at logger.
func New(logger *slog.Logger) *Guard {
	return &Guard{
		logger:    logger,
		conflicts: make(map[string]*Conflict),
	}
}

// ARPConflict records an IP bound to more than one MAC: the router
// calls it when an ARP reply's sender MAC differs from the MAC already
// cached for that IP. Called from within Dispatch, so this must never
// block.
func (g *Guard) ARPConflict(ip uint32, oldMAC, newMAC [6]byte) {
	ipStr := ip4String(ip)
	oldStr := macString(oldMAC)
	newStr := macString(newMAC)
	now := time.Now()

	g.mu.Lock()
	c, exists := g.conflicts[ipStr]
	if exists {
		c.OldMAC = oldStr
		c.NewMAC = newStr
		c.Count++
		c.LastSeen = now
	} else {
		c = &Conflict{IP: ipStr, OldMAC: oldStr, NewMAC: newStr, Count: 1, FirstSeen: now, LastSeen: now}
		g.conflicts[ipStr] = c
	}
	g.mu.Unlock()

	g.logger.Warn("arp conflict detected", "ip", ipStr, "old_mac", oldStr, "new_mac", newStr)
}

// IsGratuitous reports whether an ARP reply with this sender/target IP
// pair is a gratuitous announcement rather than a genuine reply to a
// request — sender and target protocol address are equal.
func IsGratuitous(senderIP, targetIP uint32) bool {
	return senderIP == targetIP
}

// Conflicts returns a snapshot of every observed conflict.
func (g *Guard) Conflicts() []Conflict {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]Conflict, 0, len(g.conflicts))
	for _, c := range g.conflicts {
		out = append(out, *c)
	}
	return out
}

func ip4String(ip uint32) string {
	return fmt.Sprintf("%d.%d.%d.%d", byte(ip>>24), byte(ip>>16), byte(ip>>8), byte(ip))
}

func macString(mac [6]byte) string {
	return fmt.Sprintf("%02x:%02x:%02x:%02x:%02x:%02x", mac[0], mac[1], mac[2], mac[3], mac[4], mac[5])
}
