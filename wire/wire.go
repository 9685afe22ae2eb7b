// Package wire defines the daemon's on-the-wire JSON packet schema (spec
// §6) and the codec between it and the LSDB/neighbor types. Grounded on
// the teacher's pkt-layer role (a thin, explicit wire struct with its own
// encode/decode), adapted from the teacher's binary TLV scheme to the
// spec's JSON schema.
package wire

import (
	"encoding/json"
	"fmt"

	"github.com/qosrouted/routingd/lsdb"
	"github.com/qosrouted/routingd/qos"
)

const (
	TypeHello = "hello"
	TypeLSA   = "lsa"
)

// envelope is decoded first to dispatch on "type" before committing to
// either concrete packet shape.
type envelope struct {
	Type string `json:"type"`
}

// Hello is the §6 Hello payload: {"type":"hello","router_id":"<id>","timestamp":<float>}.
type Hello struct {
	RouterID  string  `json:"router_id"`
	Timestamp float64 `json:"timestamp"`
}

// linkWire is one entry of an LSA's "links" map.
type linkWire struct {
	Cost          float64  `json:"cost"`
	LatencyMS     float64  `json:"latency_ms"`
	JitterMS      float64  `json:"jitter_ms"`
	LossPercent   float64  `json:"loss_percent"`
	BandwidthMbps *float64 `json:"bandwidth_mbps"`
}

// lsaWire is the raw §6 LSA shape, decoded before translation to
// lsdb.Entry/LinkSnapshot.
type lsaWire struct {
	Type     string              `json:"type"`
	Origin   string              `json:"origin"`
	Seq      uint64              `json:"seq"`
	TTL      int                 `json:"ttl"`
	Prefixes []string            `json:"prefixes"`
	Links    map[string]linkWire `json:"links"`
}

// LSA is the decoded, application-facing LSA packet.
type LSA struct {
	Origin   string
	Seq      uint64
	TTL      int
	Prefixes []string
	Links    map[string]lsdb.LinkSnapshot
}

// EncodeHello marshals a Hello packet.
func EncodeHello(h Hello) ([]byte, error) {
	return json.Marshal(struct {
		Type string `json:"type"`
		Hello
	}{Type: TypeHello, Hello: h})
}

// EncodeLSA marshals an LSA packet from an lsdb.Entry plus the TTL to
// send it with (TTL is per-transmission, not part of the LSDB entry).
func EncodeLSA(e lsdb.Entry, ttl int) ([]byte, error) {
	links := make(map[string]linkWire, len(e.Links))
	for neighbor, snap := range e.Links {
		lw := linkWire{
			Cost:        snap.Cost,
			LatencyMS:   snap.Sample.LatencyMS,
			JitterMS:    snap.Sample.JitterMS,
			LossPercent: snap.Sample.LossPercent,
		}
		if snap.Sample.BandwidthKnown {
			bw := snap.Sample.BandwidthMbps
			lw.BandwidthMbps = &bw
		}
		links[neighbor] = lw
	}
	prefixes := e.Prefixes
	if prefixes == nil {
		prefixes = []string{}
	}
	return json.Marshal(lsaWire{
		Type:     TypeLSA,
		Origin:   e.Origin,
		Seq:      e.Seq,
		TTL:      ttl,
		Prefixes: prefixes,
		Links:    links,
	})
}

// PacketType inspects the "type" field without committing to a full
// decode, so the receiver can dispatch to DecodeHello or DecodeLSA.
func PacketType(data []byte) (string, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return "", fmt.Errorf("wire: malformed packet: %w", err)
	}
	return env.Type, nil
}

// DecodeHello unmarshals a Hello packet.
func DecodeHello(data []byte) (Hello, error) {
	var h Hello
	if err := json.Unmarshal(data, &h); err != nil {
		return Hello{}, fmt.Errorf("wire: malformed hello: %w", err)
	}
	if h.RouterID == "" {
		return Hello{}, fmt.Errorf("wire: hello missing router_id")
	}
	return h, nil
}

// DecodeLSA unmarshals and validates an LSA packet (spec §6 field
// shapes); seq must be >= 1 and ttl >= 0 per the wire schema.
func DecodeLSA(data []byte) (LSA, error) {
	var raw lsaWire
	if err := json.Unmarshal(data, &raw); err != nil {
		return LSA{}, fmt.Errorf("wire: malformed lsa: %w", err)
	}
	if raw.Origin == "" {
		return LSA{}, fmt.Errorf("wire: lsa missing origin")
	}
	if raw.Seq < 1 {
		return LSA{}, fmt.Errorf("wire: lsa seq must be >= 1, got %d", raw.Seq)
	}
	if raw.TTL < 0 {
		return LSA{}, fmt.Errorf("wire: lsa ttl must be >= 0, got %d", raw.TTL)
	}

	links := make(map[string]lsdb.LinkSnapshot, len(raw.Links))
	for neighbor, lw := range raw.Links {
		sample := qos.Sample{
			LatencyMS:   lw.LatencyMS,
			JitterMS:    lw.JitterMS,
			LossPercent: lw.LossPercent,
		}
		if lw.BandwidthMbps != nil {
			sample.BandwidthMbps = *lw.BandwidthMbps
			sample.BandwidthKnown = true
		}
		links[neighbor] = lsdb.LinkSnapshot{Cost: lw.Cost, Sample: sample}
	}

	prefixes := raw.Prefixes
	if prefixes == nil {
		prefixes = []string{}
	}

	return LSA{
		Origin:   raw.Origin,
		Seq:      raw.Seq,
		TTL:      raw.TTL,
		Prefixes: prefixes,
		Links:    links,
	}, nil
}

// WithDecrementedTTL returns a copy of l with TTL reduced by one, for
// re-flooding (spec §4.4 step 5).
func (l LSA) WithDecrementedTTL() LSA {
	out := l
	out.TTL = l.TTL - 1
	return out
}

// ToEntry converts a decoded LSA into an lsdb.Entry ready for Offer.
func (l LSA) ToEntry() (string, uint64, map[string]lsdb.LinkSnapshot, []string) {
	return l.Origin, l.Seq, l.Links, l.Prefixes
}
