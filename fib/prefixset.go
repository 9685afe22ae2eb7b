// Package fib reconciles the daemon's desired forwarding table against
// the host kernel routing table (spec §4.5). PrefixSet and
// InstalledRoutes are backed by gaissmai/bart's compressed trie for
// longest-prefix-match-capable membership and route bookkeeping;
// Reconciler.Sync implements the idempotent add/withdraw algorithm, and
// NetlinkFIB programs the kernel via vishvananda/netlink.
package fib

import (
	"net/netip"

	"github.com/gaissmai/bart"
)

// PrefixSet is a set of IPv4 CIDRs, used for the router's local
// (connected) prefix set (spec §4.5 step 2: "Exclude any prefix that is
// in the local prefix set").
type PrefixSet struct {
	t bart.Table[struct{}]
}

// NewPrefixSet builds a PrefixSet from CIDR strings, skipping any that
// fail to parse (config validation is rtconfig's job; this stays
// permissive for callers that have already validated).
func NewPrefixSet(cidrs []string) PrefixSet {
	var ps PrefixSet
	for _, c := range cidrs {
		if pfx, err := netip.ParsePrefix(c); err == nil {
			ps.t.Insert(pfx, struct{}{})
		}
	}
	return ps
}

// Contains reports whether pfx is exactly present in the set.
func (ps *PrefixSet) Contains(pfx netip.Prefix) bool {
	_, ok := ps.t.Get(pfx)
	return ok
}

// ContainsAddr reports whether ip falls under any prefix in the set
// (longest-prefix-match membership, the bart.Table's native query).
func (ps *PrefixSet) ContainsAddr(ip netip.Addr) bool {
	return ps.t.Contains(ip)
}
