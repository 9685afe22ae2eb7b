// Package lsdb implements the Link-State Database: the set of per-origin
// LSDBEntry records the daemon accumulates from flooded LSAs, with
// sequence-number dedup and age-based purge (spec §3, §4.3/§4.4).
package lsdb

import (
	"time"

	"github.com/qosrouted/routingd/qos"
)

// LinkSnapshot is one local link's priced state (spec §3): a local link
// exists iff the neighbor is up and Cost is finite.
type LinkSnapshot struct {
	Cost      float64
	Sample    qos.Sample
	UpdatedAt time.Time
}

// Differs reports whether snapshot differs materially from other per
// spec §4.4: cost delta > costDelta, or any QoS component delta exceeds
// qosComponentDelta. Addition/removal is the caller's responsibility
// since it compares whole link maps, not individual snapshots.
func (s LinkSnapshot) Differs(other LinkSnapshot, costDelta, qosComponentDelta float64) bool {
	if absDelta(s.Cost, other.Cost) > costDelta {
		return true
	}
	return !s.Sample.Equivalent(other.Sample, qosComponentDelta)
}

func absDelta(a, b float64) float64 {
	d := a - b
	if d < 0 {
		return -d
	}
	return d
}

// Entry is one origin's advertised topology and prefixes (spec §3).
type Entry struct {
	Origin     string
	Seq        uint64
	Links      map[string]LinkSnapshot
	Prefixes   []string
	ReceivedAt time.Time
}

// Clone returns a deep copy, since SPF and flooding take a private
// snapshot under the state mutex and compute outside it (spec §4.6
// Ordering guarantees).
func (e Entry) Clone() Entry {
	links := make(map[string]LinkSnapshot, len(e.Links))
	for k, v := range e.Links {
		links[k] = v
	}
	prefixes := make([]string, len(e.Prefixes))
	copy(prefixes, e.Prefixes)
	return Entry{
		Origin:     e.Origin,
		Seq:        e.Seq,
		Links:      links,
		Prefixes:   prefixes,
		ReceivedAt: e.ReceivedAt,
	}
}

// LinksEqual reports whether two link maps are identical in membership
// and snapshot contents (cost, QoS sample and UpdatedAt).
func LinksEqual(a, b map[string]LinkSnapshot) bool {
	if len(a) != len(b) {
		return false
	}
	for k, av := range a {
		bv, ok := b[k]
		if !ok || av != bv {
			return false
		}
	}
	return true
}

// DB is the Link-State Database. All mutation must happen under the
// daemon's state mutex; DB itself holds no lock of its own (spec §4.6:
// a single state mutex guards the LSDB along with the rest of the
// daemon's shared state).
type DB struct {
	entries map[string]Entry
	selfID  string
}

// New creates an LSDB seeded with the self entry at seq=1, per spec §3
// Lifecycle: "The self LSDBEntry is created at start with seq=1, empty
// links, and the configured local prefix set".
func New(selfID string, now time.Time, localPrefixes []string) *DB {
	prefixes := make([]string, len(localPrefixes))
	copy(prefixes, localPrefixes)
	return &DB{
		selfID: selfID,
		entries: map[string]Entry{
			selfID: {
				Origin:     selfID,
				Seq:        1,
				Links:      map[string]LinkSnapshot{},
				Prefixes:   prefixes,
				ReceivedAt: now,
			},
		},
	}
}

// Self returns a deep copy of the self entry.
func (d *DB) Self() Entry {
	return d.entries[d.selfID].Clone()
}

// Get returns a deep copy of origin's entry and whether it exists.
func (d *DB) Get(origin string) (Entry, bool) {
	e, ok := d.entries[origin]
	if !ok {
		return Entry{}, false
	}
	return e.Clone(), true
}

// AcceptResult is the outcome of offering an inbound LSA to the LSDB,
// per spec §4.4 steps 1-3.
type AcceptResult int

const (
	// Rejected means the LSA's seq did not advance the known state;
	// it must not be re-flooded.
	Rejected AcceptResult = iota
	// Accepted means the entry was installed; the caller re-floods it
	// with a decremented TTL unless that TTL has reached 0.
	Accepted
)

// Offer applies an inbound LSA under the "only the highest seq seen is
// retained" invariant (spec §3). A strictly greater seq always
// replaces; an equal seq is rejected (already known); a lesser seq is
// rejected (stale). Never ages out the self entry.
func (d *DB) Offer(origin string, seq uint64, links map[string]LinkSnapshot, prefixes []string, now time.Time) AcceptResult {
	existing, ok := d.entries[origin]
	if ok && seq <= existing.Seq {
		return Rejected
	}
	linksCopy := make(map[string]LinkSnapshot, len(links))
	for k, v := range links {
		linksCopy[k] = v
	}
	prefixesCopy := make([]string, len(prefixes))
	copy(prefixesCopy, prefixes)
	d.entries[origin] = Entry{
		Origin:     origin,
		Seq:        seq,
		Links:      linksCopy,
		Prefixes:   prefixesCopy,
		ReceivedAt: now,
	}
	return Accepted
}

// PublishSelf installs a freshly built self entry, bumping seq by
// exactly 1 over the previous self seq (spec §4.4 LSA emission).
func (d *DB) PublishSelf(links map[string]LinkSnapshot, prefixes []string, now time.Time) Entry {
	prev := d.entries[d.selfID]
	linksCopy := make(map[string]LinkSnapshot, len(links))
	for k, v := range links {
		linksCopy[k] = v
	}
	prefixesCopy := make([]string, len(prefixes))
	copy(prefixesCopy, prefixes)
	next := Entry{
		Origin:     d.selfID,
		Seq:        prev.Seq + 1,
		Links:      linksCopy,
		Prefixes:   prefixesCopy,
		ReceivedAt: now,
	}
	d.entries[d.selfID] = next
	return next.Clone()
}

// Purge removes non-self entries whose ReceivedAt is older than maxAge
// relative to now (spec §3: "entries older than LSA_MAX_AGE ... from
// non-self origins are purged; the self entry is never aged out").
// Returns the origins removed.
func (d *DB) Purge(now time.Time, maxAge time.Duration) []string {
	var removed []string
	for origin, e := range d.entries {
		if origin == d.selfID {
			continue
		}
		if now.Sub(e.ReceivedAt) > maxAge {
			delete(d.entries, origin)
			removed = append(removed, origin)
		}
	}
	return removed
}

// Snapshot returns a deep copy of every entry, keyed by origin. SPF and
// flooding decisions are computed from a snapshot taken under the
// mutex and executed outside it (spec §4.6).
func (d *DB) Snapshot() map[string]Entry {
	out := make(map[string]Entry, len(d.entries))
	for k, v := range d.entries {
		out[k] = v.Clone()
	}
	return out
}

// SelfID returns the router ID this LSDB was created for.
func (d *DB) SelfID() string {
	return d.selfID
}
