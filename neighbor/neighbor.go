// Package neighbor models the daemon's statically configured neighbor set
// and the per-neighbor adjacency state machine (spec §3, §4.6). The set of
// neighbors never changes after load; only their liveness and latest QoS
// sample do.
package neighbor

import (
	"net/netip"
	"time"

	"github.com/qosrouted/routingd/qos"
)

// Config is a single neighbor's immutable identity, derived once from the
// daemon configuration at load time.
type Config struct {
	RouterID      string
	Addr          netip.Addr
	Port          int
	Interface     string // optional, empty if unset
	BandwidthMbps float64
	BandwidthSet  bool
}

// State is one neighbor's mutable liveness and QoS state. IsUp holds iff
// now-LastHello <= dead_interval; callers refresh it via EvaluateDeadline rather
// than comparing timestamps themselves, so the invariant lives in one
// place.
type State struct {
	Config    Config
	Sample    qos.Sample
	LastHello time.Time
	HelloSeen bool // false until the first Hello is ever received
	IsUp      bool
}

// NewState starts a neighbor DOWN with an unusable sample, matching spec
// §3: an adjacency begins down and only a valid Hello brings it up.
func NewState(cfg Config) *State {
	return &State{
		Config: cfg,
		Sample: qos.Unusable(cfg.BandwidthMbps, cfg.BandwidthSet),
	}
}

// Transition is the result of evaluating liveness against the current
// time: whether the adjacency flipped, and in which direction.
type Transition int

const (
	NoChange Transition = iota
	WentUp
	WentDown
)

// ObserveHello records receipt of a valid Hello (spec §4.4 Hello
// handling). Returns WentUp if this is a false->true transition.
func (s *State) ObserveHello(now time.Time) Transition {
	wasUp := s.IsUp
	s.LastHello = now
	s.HelloSeen = true
	s.IsUp = true
	if !wasUp {
		return WentUp
	}
	return NoChange
}

// EvaluateDeadline applies dead-interval expiry (spec §4.4 dead
// detection). Returns WentDown if the neighbor just expired; on
// expiry the sample is reset to unusable and the bandwidth hint is
// preserved since it is configuration, not a measurement.
func (s *State) EvaluateDeadline(now time.Time, deadInterval time.Duration) Transition {
	if !s.IsUp {
		return NoChange
	}
	if !s.HelloSeen || now.Sub(s.LastHello) <= deadInterval {
		return NoChange
	}
	s.IsUp = false
	s.Sample = qos.Unusable(s.Config.BandwidthMbps, s.Config.BandwidthSet)
	return WentDown
}

// UpdateSample records a fresh probe result, whether the neighbor is up
// or down. Probe
// failures alone never flip adjacency state (spec §4.6 Failure modes);
// only missing Hellos do.
func (s *State) UpdateSample(sample qos.Sample) {
	s.Sample = sample
}

// Table is the daemon's full, statically keyed neighbor set.
type Table struct {
	byID map[string]*State
	// order preserves configuration order for deterministic iteration
	// (flooding fan-out, self-LSA link enumeration).
	order []string
}

// NewTable builds a Table from the loaded neighbor configs. Order of
// cfgs is preserved for deterministic fan-out.
func NewTable(cfgs []Config) *Table {
	t := &Table{byID: make(map[string]*State, len(cfgs)), order: make([]string, 0, len(cfgs))}
	for _, cfg := range cfgs {
		t.byID[cfg.RouterID] = NewState(cfg)
		t.order = append(t.order, cfg.RouterID)
	}
	return t
}

// Get returns the neighbor state for id, or nil if id is not a
// configured neighbor. Callers must treat a nil return as "unknown
// neighbor", per spec §4.4's silent-drop rule for unknown ids.
func (t *Table) Get(id string) *State {
	return t.byID[id]
}

// Known reports whether id is a statically configured neighbor.
func (t *Table) Known(id string) bool {
	_, ok := t.byID[id]
	return ok
}

// All returns the neighbor states in configuration order. The returned
// slice shares State pointers with the table; callers mutate them only
// under the daemon's state mutex.
func (t *Table) All() []*State {
	out := make([]*State, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, t.byID[id])
	}
	return out
}

// AddrPort resolves a neighbor's UDP destination.
func (c Config) AddrPort() netip.AddrPort {
	return netip.AddrPortFrom(c.Addr, uint16(c.Port))
}
