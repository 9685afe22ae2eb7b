package fib

import (
	"net/netip"

	"github.com/qosrouted/routingd/util/obslog"
)

// Installer programs the host kernel's routing table. NetlinkFIB is the
// production implementation; tests substitute a fake to assert on the
// sequence of Add/Delete calls without root privileges or a real
// network namespace.
type Installer interface {
	// Add installs a route to pfx via route.NextHop through
	// route.Interface. It must be safe to call on a prefix that is
	// already installed to a different route (callers always Delete
	// first per spec §4.5 step 4).
	Add(pfx netip.Prefix, route Route) error
	// Delete withdraws any route to pfx. Deleting an absent route must
	// not be treated as an error by callers relying on idempotence.
	Delete(pfx netip.Prefix) error
}

// Reconciler drives spec §4.5 steps 4-5: given a desired prefix->Route
// mapping (already filtered of local/connected prefixes per step 2),
// it installs what's missing or changed and withdraws what's no longer
// wanted, keeping InstalledRoutes as its own ledger of kernel state.
type Reconciler struct {
	installer Installer
	installed InstalledRoutes
	logger    *obslog.Logger
}

// NewReconciler builds a Reconciler with an empty InstalledRoutes
// ledger (spec §4.6 Start: the daemon begins with nothing installed).
func NewReconciler(installer Installer, logger *obslog.Logger) *Reconciler {
	return &Reconciler{installer: installer, logger: logger}
}

// Sync applies spec §4.5 steps 4-5 against desired. It is idempotent:
// calling Sync twice with the same desired performs no FIB operations
// on the second call, since InstalledRoutes already reflects the first
// call's successful installs.
func (r *Reconciler) Sync(desired map[netip.Prefix]Route) {
	for pfx, want := range desired {
		current, ok := r.installed.Get(pfx)
		if ok && current.Equal(want) {
			continue
		}
		if ok {
			if err := r.installer.Delete(pfx); err != nil {
				r.logger.Warnf("fib delete %s before replace: %v", pfx, err)
			}
		}
		if err := r.installer.Add(pfx, want); err != nil {
			r.logger.Warnf("fib add %s via %s: %v", pfx, want.NextHop, err)
			continue
		}
		r.installed.Set(pfx, want)
	}

	for _, pfx := range r.installed.Prefixes() {
		if _, stillWanted := desired[pfx]; stillWanted {
			continue
		}
		if err := r.installer.Delete(pfx); err != nil {
			r.logger.Warnf("fib withdraw %s: %v", pfx, err)
			continue
		}
		r.installed.Delete(pfx)
	}
}

// WithdrawAll removes every installed route (spec §4.6 Stop: "withdraw
// every installed route").
func (r *Reconciler) WithdrawAll() {
	for _, pfx := range r.installed.Prefixes() {
		if err := r.installer.Delete(pfx); err != nil {
			r.logger.Warnf("fib withdraw %s during shutdown: %v", pfx, err)
			continue
		}
		r.installed.Delete(pfx)
	}
}

// Installed exposes the current ledger, chiefly for tests and metrics.
func (r *Reconciler) Installed() *InstalledRoutes {
	return &r.installed
}
