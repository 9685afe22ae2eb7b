package flood

import (
	"net/netip"
	"time"

	"github.com/qosrouted/routingd/lsdb"
	"github.com/qosrouted/routingd/neighbor"
	"github.com/qosrouted/routingd/sock"
	"github.com/qosrouted/routingd/util/obslog"
	"github.com/qosrouted/routingd/wire"
)

// Transport sends Hello and LSA packets over a sock.Socket to the
// statically configured neighbor set. It holds no protocol state of its
// own; callers (the daemon's workers) decide when to call it while
// holding or having released the state mutex as spec §5 requires ("no
// held lock spans a blocking system call").
type Transport struct {
	socket    sock.Socket
	neighbors *neighbor.Table
	selfID    string
	logger    *obslog.Logger
}

// NewTransport builds a Transport bound to socket and the neighbor set.
func NewTransport(socket sock.Socket, neighbors *neighbor.Table, selfID string, logger *obslog.Logger) *Transport {
	return &Transport{socket: socket, neighbors: neighbors, selfID: selfID, logger: logger}
}

// SendHello emits a Hello to every configured neighbor (spec §4.6 Hello
// worker). UDP send errors are dropped silently per spec §4.6 ("the
// next hello/LSA round retries").
func (tr *Transport) SendHello(now time.Time) {
	hello := wire.Hello{RouterID: tr.selfID, Timestamp: float64(now.UnixNano()) / 1e9}
	data, err := wire.EncodeHello(hello)
	if err != nil {
		tr.logger.Errorf("encode hello: %v", err)
		return
	}
	for _, n := range tr.neighbors.All() {
		if sendErr := tr.socket.SendTo(n.Config.AddrPort(), data); sendErr != nil {
			tr.logger.Debugf("send hello to %s failed: %v", n.Config.RouterID, sendErr)
		}
	}
}

// FloodSelf sends entry as a freshly originated LSA to every configured
// neighbor with ttl=LSA_TTL_HOPS (spec §4.4 LSA emission).
func (tr *Transport) FloodSelf(entry lsdb.Entry, ttl int) {
	tr.floodTo(entry, ttl, "")
}

// Reflood re-sends entry to every neighbor except excludeID (split
// horizon, spec §4.4 step 5).
func (tr *Transport) Reflood(entry lsdb.Entry, ttl int, excludeID string) {
	tr.floodTo(entry, ttl, excludeID)
}

func (tr *Transport) floodTo(entry lsdb.Entry, ttl int, excludeID string) {
	data, err := wire.EncodeLSA(entry, ttl)
	if err != nil {
		tr.logger.Errorf("encode lsa for origin %s: %v", entry.Origin, err)
		return
	}
	for _, n := range tr.neighbors.All() {
		if n.Config.RouterID == excludeID {
			continue
		}
		if sendErr := tr.socket.SendTo(n.Config.AddrPort(), data); sendErr != nil {
			tr.logger.Debugf("send lsa to %s failed: %v", n.Config.RouterID, sendErr)
		}
	}
}

// ResolveSender maps an inbound datagram's source address to a
// configured neighbor's router ID, for split-horizon lookup (spec §4.4:
// re-flood "except the neighbor from which it arrived (split-horizon by
// source address lookup in NeighborConfig)"). Hellos are validated by
// their router_id, not through this lookup.
func ResolveSender(neighbors *neighbor.Table, addr netip.AddrPort) (string, bool) {
	for _, n := range neighbors.All() {
		if n.Config.AddrPort().Addr() == addr.Addr() {
			return n.Config.RouterID, true
		}
	}
	return "", false
}
