// Package audit provides a persistent, append-only record of notable
// datapath events — ARP exhaustion, ICMP port-unreachable emission,
// ARP binding conflicts — for post-mortem review across restarts.
// EventInterfaceDown is defined but no component records it. It never
// persists ARP or pending-cache *state*: both caches always start
// empty on boot. Stored in a dedicated BoltDB file,
// separate from any other router state.
package audit

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

var bucketEvents = []byte("events")

// EventType names one kind of audited event.
type EventType string

const (
	EventARPExhausted    EventType = "arp_exhausted"
	EventICMPUnreachable EventType = "icmp_unreachable"
	EventInterfaceDown   EventType = "interface_down"
	EventARPConflict     EventType = "arp_conflict"
)

// Record is one audit log entry.
type Record struct {
	ID        uint64    `json:"id"`
	Timestamp string    `json:"timestamp"`
	Event     EventType `json:"event"`
	IP        string    `json:"ip,omitempty"`
	MAC       string    `json:"mac,omitempty"`
	Interface string    `json:"interface,omitempty"`
	Reason    string    `json:"reason,omitempty"`
}

// QueryParams filters a Query call. The zero value matches everything.
type QueryParams struct {
	Event EventType
	Since time.Time
	Limit int
}

// Log is an append-only, BoltDB-backed event log.
type Log struct {
	db *bolt.DB
}

// Open opens (creating if needed) the audit database at path.
func Open(path string) (*Log, error) {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("audit: opening %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketEvents)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("audit: creating bucket: %w", err)
	}
	return &Log{db: db}, nil
}

// Close closes the underlying database.
func (l *Log) Close() error {
	return l.db.Close()
}

// Append persists rec with an auto-incrementing ID and the current time
// stamped in, if the caller left Timestamp blank.
func (l *Log) Append(rec Record) error {
	if rec.Timestamp == "" {
		rec.Timestamp = time.Now().UTC().Format(time.RFC3339Nano)
	}
	return l.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketEvents)
		id, err := b.NextSequence()
		if err != nil {
			return fmt.Errorf("audit: next id: %w", err)
		}
		rec.ID = id
		data, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("audit: marshal: %w", err)
		}
		return b.Put(uint64Key(id), data)
	})
}

// Query returns matching records, oldest first. A zero QueryParams
// returns every record.
func (l *Log) Query(p QueryParams) ([]Record, error) {
	var out []Record
	err := l.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketEvents).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var rec Record
			if err := json.Unmarshal(v, &rec); err != nil {
				continue
			}
			if p.Event != "" && rec.Event != p.Event {
				continue
			}
			if !p.Since.IsZero() {
				ts, err := time.Parse(time.RFC3339Nano, rec.Timestamp)
				if err == nil && ts.Before(p.Since) {
					continue
				}
			}
			out = append(out, rec)
			if p.Limit > 0 && len(out) >= p.Limit {
				break
			}
		}
		return nil
	})
	return out, err
}

// RecordEvent implements router.AuditSink, persisting a datapath event
// as an audit Record. Append failures are ignored: an audit sink must
// never affect the dispatch path it observes.
func (l *Log) RecordEvent(event, ip, mac, iface, reason string) {
	l.Append(Record{
		Event:     EventType(event),
		IP:        ip,
		MAC:       mac,
		Interface: iface,
		Reason:    reason,
	})
}

func uint64Key(id uint64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, id)
	return k
}
