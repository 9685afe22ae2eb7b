package fib

import (
	"net/netip"

	"github.com/gaissmai/bart"
)

// Route is the forwarding decision installed for one destination
// prefix: a next-hop IPv4 address and the outbound interface of the
// first-hop neighbor (spec §4.5 step 3: "desired = {prefix ->
// (next_hop_ip, interface_of_first_hop)}").
type Route struct {
	NextHop   netip.Addr
	Interface string
}

// Equal reports whether r installs to the same next hop and interface
// as other (spec §4.5 step 4's "differs from next_hop_ip" check; the
// interface is included since a next-hop reachable through a different
// interface is a different kernel route).
func (r Route) Equal(other Route) bool {
	return r.NextHop == other.NextHop && r.Interface == other.Interface
}

// InstalledRoutes is the daemon's record of what it believes is
// currently programmed into the kernel FIB (spec §3: InstalledRoutes).
// It is not read from the kernel; it is the reconciler's own ledger,
// updated only after a successful install/withdraw.
type InstalledRoutes struct {
	t bart.Table[Route]
}

// Get returns the installed route for pfx, if any.
func (ir *InstalledRoutes) Get(pfx netip.Prefix) (Route, bool) {
	return ir.t.Get(pfx)
}

// Set records pfx as installed with route r.
func (ir *InstalledRoutes) Set(pfx netip.Prefix, r Route) {
	ir.t.Insert(pfx, r)
}

// Delete removes pfx's record.
func (ir *InstalledRoutes) Delete(pfx netip.Prefix) {
	ir.t.Delete(pfx)
}

// Prefixes returns every currently recorded prefix, for step 5's
// withdraw-if-no-longer-desired scan.
func (ir *InstalledRoutes) Prefixes() []netip.Prefix {
	out := make([]netip.Prefix, 0, ir.t.Size())
	for pfx := range ir.t.All() {
		out = append(out, pfx)
	}
	return out
}
