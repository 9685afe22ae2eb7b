// Package flood implements LSA acceptance, split-horizon re-flooding, and
// Hello/LSA emission (spec §4.4). It is deliberately socket-agnostic: the
// daemon package supplies a sock.Socket and resolves inbound source
// addresses to neighbor IDs, so this package's decision logic is testable
// without a live network stack.
package flood

import (
	"time"

	"github.com/qosrouted/routingd/lsdb"
)

// Decision is the outcome of offering an inbound LSA to the LSDB, per
// spec §4.4 LSA acceptance rules.
type Decision struct {
	// Store reports whether the LSDB was updated with this LSA.
	Store bool
	// Reflood reports whether the packet must be re-flooded (with TTL
	// already decremented) to every neighbor but the sender.
	Reflood bool
	// ForwardTTL is the TTL to re-flood with, valid only if Reflood.
	ForwardTTL int
}

// AcceptLSA applies spec §4.4 steps 1-5 to an inbound LSA already
// decoded from the wire. selfID identifies this router so self-
// originated LSAs looping back are discarded (step 1).
func AcceptLSA(db *lsdb.DB, selfID, origin string, seq uint64, incomingTTL int, links map[string]lsdb.LinkSnapshot, prefixes []string, now time.Time) Decision {
	if origin == selfID {
		return Decision{}
	}

	forwardTTL := incomingTTL - 1

	res := db.Offer(origin, seq, links, prefixes, now)
	if res == lsdb.Rejected {
		return Decision{}
	}

	if forwardTTL <= 0 {
		return Decision{Store: true}
	}

	return Decision{Store: true, Reflood: true, ForwardTTL: forwardTTL}
}

// MaterialChange reports whether newLinks differs from oldLinks enough
// to warrant a new self LSA (spec §4.4): addition, removal, cost delta
// > costDelta, or any QoS component delta > qosComponentDelta.
func MaterialChange(oldLinks, newLinks map[string]lsdb.LinkSnapshot, costDelta, qosComponentDelta float64) bool {
	if len(oldLinks) != len(newLinks) {
		return true
	}
	for neighborID, newSnap := range newLinks {
		oldSnap, ok := oldLinks[neighborID]
		if !ok {
			return true
		}
		if oldSnap.Differs(newSnap, costDelta, qosComponentDelta) {
			return true
		}
	}
	return false
}
