// Package dnsannotate does best-effort reverse-DNS (RFC 1035 PTR)
// lookups to label ARP table entries with a hostname guess in the
// admin API. It never runs on the dispatch path; a failed or slow
// lookup is silently ignored and simply leaves an entry unlabeled.
package dnsannotate

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/miekg/dns"
)

// Resolver performs reverse-DNS (PTR) lookups against one upstream
// server with a short, fixed timeout, caching negative and positive
// results so the admin API doesn't re-query on every poll.
type Resolver struct {
	upstream string
	timeout  time.Duration
	client   *dns.Client

	mu    sync.RWMutex
	cache map[uint32]cacheEntry
}

type cacheEntry struct {
	hostname string
	expires  time.Time
}

const cacheTTL = 5 * time.Minute

// New builds a Resolver querying upstream (host:port, default port 53).
func New(upstream string, timeout time.Duration) *Resolver {
	if !strings.Contains(upstream, ":") {
		upstream = upstream + ":53"
	}
	return &Resolver{
		upstream: upstream,
		timeout:  timeout,
		client:   &dns.Client{Timeout: timeout},
		cache:    make(map[uint32]cacheEntry),
	}
}

// Lookup returns a best-effort hostname for ip, or "" if none is known
// or the lookup fails or times out.
func (r *Resolver) Lookup(ip uint32) string {
	r.mu.RLock()
	entry, ok := r.cache[ip]
	r.mu.RUnlock()
	if ok && time.Now().Before(entry.expires) {
		return entry.hostname
	}

	name, err := r.queryPTR(ip)
	if err != nil {
		name = ""
	}

	r.mu.Lock()
	r.cache[ip] = cacheEntry{hostname: name, expires: time.Now().Add(cacheTTL)}
	r.mu.Unlock()

	return name
}

func (r *Resolver) queryPTR(ip uint32) (string, error) {
	arpa := reverseName(ip)
	msg := new(dns.Msg)
	msg.SetQuestion(arpa, dns.TypePTR)
	msg.RecursionDesired = true

	resp, _, err := r.client.Exchange(msg, r.upstream)
	if err != nil {
		return "", fmt.Errorf("dnsannotate: exchange: %w", err)
	}
	for _, ans := range resp.Answer {
		if ptr, ok := ans.(*dns.PTR); ok {
			return strings.TrimSuffix(ptr.Ptr, "."), nil
		}
	}
	return "", nil
}

func reverseName(ip uint32) string {
	a, b, c, d := byte(ip>>24), byte(ip>>16), byte(ip>>8), byte(ip)
	return fmt.Sprintf("%d.%d.%d.%d.in-addr.arpa.", d, c, b, a)
}
