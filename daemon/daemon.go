// Package daemon wires every other package into the running control
// plane: configuration loading, the three long-running workers
// (receiver/hello/metric), state locking, change-detection, and FIB
// reconciliation orchestration. Grounded on the teacher's main.go
// (socket open, worker goroutine launch, startup address log line) and
// original_source's OSPFGamingDaemon (hello/metric/receiver loop
// bodies, _sync_kernel_routes's prefix-collection algorithm), with the
// teacher's bare running flag generalized to a context.Context plus
// sync.WaitGroup per DESIGN.md's recorded concurrency REDESIGN.
package daemon

import (
	"context"
	"fmt"
	"math"
	"net"
	"net/netip"
	"sync"
	"time"

	"github.com/qosrouted/routingd/common"
	"github.com/qosrouted/routingd/fib"
	"github.com/qosrouted/routingd/flood"
	"github.com/qosrouted/routingd/lsdb"
	"github.com/qosrouted/routingd/metrics"
	"github.com/qosrouted/routingd/neighbor"
	"github.com/qosrouted/routingd/qos"
	"github.com/qosrouted/routingd/rtconfig"
	"github.com/qosrouted/routingd/sock"
	"github.com/qosrouted/routingd/spf"
	"github.com/qosrouted/routingd/util/obslog"
	"github.com/qosrouted/routingd/util/observer"
	"github.com/qosrouted/routingd/wire"
)

// inboundBuffer is how many unprocessed packets the receiver worker may
// queue before the socket's notifier starts dropping them (spec §5: the
// receiver is the sole reader and must never block the socket's read
// loop).
const inboundBuffer = 256

// Daemon owns a single router instance's full runtime state. Every
// mutation of neighbors, db, routes, or the reconciler's installed-route
// ledger happens under mu; SPF and FIB reconciliation read a snapshot
// taken under mu and run outside it (spec §5 ordering guarantees).
type Daemon struct {
	cfg        rtconfig.Config
	logger     *obslog.Logger
	metricsReg *metrics.Registry

	socket        sock.Socket
	neighbors     *neighbor.Table
	transport     *flood.Transport
	prober        qos.Prober
	reconciler    *fib.Reconciler
	localPrefixes fib.PrefixSet

	mu         sync.Mutex
	db         *lsdb.DB
	localLinks map[string]lsdb.LinkSnapshot
	routes     spf.Table

	wg sync.WaitGroup
}

// New builds an unstarted Daemon from cfg. now is the reference time
// used to seed the self LSDB entry (spec §3 Lifecycle).
func New(cfg rtconfig.Config, logger *obslog.Logger, reg *metrics.Registry, prober qos.Prober, installer fib.Installer, now time.Time) *Daemon {
	neighbors := neighbor.NewTable(cfg.Neighbors)
	socket := sock.NewUDPSocket(logger.With("sock"))
	transport := flood.NewTransport(socket, neighbors, cfg.RouterID, logger.With("flood"))

	return &Daemon{
		cfg:           cfg,
		logger:        logger,
		metricsReg:    reg,
		socket:        socket,
		neighbors:     neighbors,
		transport:     transport,
		prober:        prober,
		reconciler:    fib.NewReconciler(instrumentedInstaller{inner: installer, reg: reg}, logger.With("fib")),
		localPrefixes: fib.NewPrefixSet(cfg.LocalPrefixes),
		db:            lsdb.New(cfg.RouterID, now, cfg.LocalPrefixes),
		localLinks:    map[string]lsdb.LinkSnapshot{},
	}
}

// Start opens the UDP socket, launches the three workers, floods the
// initial self LSA, and returns once everything is running (spec §4.6
// Start). It does not block; callers run until ctx is canceled, then
// call Stop.
func (d *Daemon) Start(ctx context.Context) error {
	d.logger.Infof("starting routing daemon for %s", d.cfg.RouterID)
	logAvailableAddresses(d.logger)

	localAddr, err := d.socket.Open(ctx, net.IP(d.cfg.ListenIP.AsSlice()), d.cfg.ListenPort)
	if err != nil {
		return fmt.Errorf("daemon: open socket: %w", err)
	}
	d.logger.Infof("listening on %s", localAddr)

	inbound := observer.NewChanObserver[*sock.RawPacket](inboundBuffer)
	d.socket.Subscribe(inbound)

	d.wg.Add(3)
	go d.receiverLoop(ctx, inbound.C())
	go d.helloLoop(ctx)
	go d.metricLoop(ctx)

	d.floodInitialLSA()

	return nil
}

// Routes returns the routing table produced by the most recently
// completed SPF run.
func (d *Daemon) Routes() spf.Table {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make(spf.Table, len(d.routes))
	for k, v := range d.routes {
		out[k] = v
	}
	return out
}

// Stop unblocks every worker, waits for them to exit, and withdraws
// every installed route (spec §4.6 Stop). ctx should already be
// canceled by the caller before calling Stop.
func (d *Daemon) Stop() {
	_ = d.socket.Close()
	d.wg.Wait()
	d.reconciler.WithdrawAll()
	d.logger.Infof("routing daemon for %s stopped", d.cfg.RouterID)
}

// instrumentedInstaller wraps a fib.Installer to record
// fib_operations_total{result}, keeping metrics observation out of the
// fib package itself (fib.Reconciler stays usable without a metrics
// dependency).
type instrumentedInstaller struct {
	inner fib.Installer
	reg   *metrics.Registry
}

func (i instrumentedInstaller) Add(pfx netip.Prefix, route fib.Route) error {
	err := i.inner.Add(pfx, route)
	if i.reg != nil {
		i.reg.RecordFIBOperation(err == nil)
	}
	return err
}

func (i instrumentedInstaller) Delete(pfx netip.Prefix) error {
	err := i.inner.Delete(pfx)
	if i.reg != nil {
		i.reg.RecordFIBOperation(err == nil)
	}
	return err
}

func (d *Daemon) receiverLoop(ctx context.Context, inbound <-chan *sock.RawPacket) {
	defer d.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case pkt, ok := <-inbound:
			if !ok {
				return
			}
			d.handlePacket(pkt)
		}
	}
}

func (d *Daemon) handlePacket(pkt *sock.RawPacket) {
	packetType, err := wire.PacketType(pkt.Data)
	if err != nil {
		d.logger.Debugf("malformed packet from %s: %v", pkt.Addr, err)
		return
	}
	switch packetType {
	case wire.TypeHello:
		d.handleHello(pkt)
	case wire.TypeLSA:
		d.handleLSA(pkt)
	default:
		d.logger.Debugf("unknown packet type %q from %s", packetType, pkt.Addr)
	}
}

func (d *Daemon) handleHello(pkt *sock.RawPacket) {
	hello, err := wire.DecodeHello(pkt.Data)
	if err != nil {
		d.logger.Debugf("malformed hello from %s: %v", pkt.Addr, err)
		return
	}
	state := d.neighbors.Get(hello.RouterID)
	if state == nil {
		return // spec §4.4: silently drop hellos from unknown ids
	}
	if hello.RouterID == d.cfg.RouterID {
		return // spec §4.4: silently drop hellos from self
	}

	d.mu.Lock()
	transition := state.ObserveHello(time.Now())
	d.mu.Unlock()

	if transition == neighbor.WentUp {
		d.logger.Infof("%s established adjacency with %s", d.cfg.RouterID, hello.RouterID)
	}
}

func (d *Daemon) handleLSA(pkt *sock.RawPacket) {
	lsa, err := wire.DecodeLSA(pkt.Data)
	if err != nil {
		d.logger.Debugf("malformed lsa from %s: %v", pkt.Addr, err)
		return
	}

	origin, seq, links, prefixes := lsa.ToEntry()

	d.mu.Lock()
	decision := flood.AcceptLSA(d.db, d.cfg.RouterID, origin, seq, lsa.TTL, links, prefixes, time.Now())
	d.mu.Unlock()

	if !decision.Store {
		return
	}

	d.recomputeAndReconcile()

	if decision.Reflood {
		excludeID, _ := flood.ResolveSender(d.neighbors, pkt.Addr)
		d.mu.Lock()
		entry, _ := d.db.Get(origin)
		d.mu.Unlock()
		d.transport.Reflood(entry, decision.ForwardTTL, excludeID)
		if d.metricsReg != nil {
			d.metricsReg.RecordLSAFlooded(false)
		}
	}
}

func (d *Daemon) helloLoop(ctx context.Context) {
	defer d.wg.Done()
	ticker := time.NewTicker(d.cfg.HelloInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := time.Now()
			d.transport.SendHello(now)
			d.checkDeadNeighbors(now)
		}
	}
}

// checkDeadNeighbors implements spec §4.4 dead detection: scans every
// neighbor, flips any expired adjacency down, drops its local link, and
// republishes the self LSA if anything changed.
func (d *Daemon) checkDeadNeighbors(now time.Time) {
	var expired []string
	d.mu.Lock()
	for _, state := range d.neighbors.All() {
		if state.EvaluateDeadline(now, d.cfg.DeadInterval) == neighbor.WentDown {
			id := state.Config.RouterID
			delete(d.localLinks, id)
			expired = append(expired, id)
		}
	}
	d.mu.Unlock()

	if len(expired) == 0 {
		return
	}
	for _, id := range expired {
		d.logger.Warnf("%s lost adjacency to %s", d.cfg.RouterID, id)
	}
	d.republishSelfLSA(now)
}

func (d *Daemon) metricLoop(ctx context.Context) {
	defer d.wg.Done()
	ticker := time.NewTicker(d.cfg.MetricInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.runMetricPass(ctx)
		}
	}
}

// runMetricPass implements spec §4.4/§5's metric worker body: probe
// every configured neighbor (serialized, one at a time, per spec §5
// "blocks in the Probe call ... serialized by design to avoid saturating
// the local link"), reprice the link of each up neighbor (dropping it
// when the neighbor is down or the cost is +Inf), and republish the self
// LSA iff something changed materially. Local link snapshots are tracked in d.localLinks
// independent of the committed self LSDB entry, so a non-material
// update never bumps the self sequence (original_source's
// _update_local_link/_update_local_lsa split).
func (d *Daemon) runMetricPass(ctx context.Context) {
	now := time.Now()

	d.mu.Lock()
	oldLinks := make(map[string]lsdb.LinkSnapshot, len(d.localLinks))
	newLinks := make(map[string]lsdb.LinkSnapshot, len(d.localLinks))
	for id, snap := range d.localLinks {
		oldLinks[id] = snap
		newLinks[id] = snap
	}
	d.mu.Unlock()

	for _, state := range d.neighbors.All() {
		cfg := state.Config
		sample := d.prober.Probe(ctx, cfg.Addr.String(), d.cfg.PingCount, d.cfg.PingInterval, cfg.BandwidthMbps, cfg.BandwidthSet)

		d.mu.Lock()
		state.UpdateSample(sample)
		isUp := state.IsUp
		d.mu.Unlock()

		if !isUp {
			delete(newLinks, cfg.RouterID)
			continue
		}

		cost := qos.ComputeCost(sample, d.cfg.Weights, d.cfg.Bounds)
		if math.IsInf(cost, 1) {
			delete(newLinks, cfg.RouterID)
			continue
		}
		newLinks[cfg.RouterID] = lsdb.LinkSnapshot{Cost: cost, Sample: sample, UpdatedAt: now}
	}

	d.mu.Lock()
	d.localLinks = newLinks
	d.mu.Unlock()

	if flood.MaterialChange(oldLinks, newLinks, d.cfg.CostDelta, d.cfg.QoSComponentDelta) {
		d.republishSelfLSA(now)
	}

	d.purgeStaleLSAs(now)
}

// republishSelfLSA bumps the self LSA sequence from the current
// d.localLinks snapshot, floods it to every neighbor, and triggers
// SPF/FIB reconciliation (spec §4.4 LSA emission).
func (d *Daemon) republishSelfLSA(now time.Time) {
	d.mu.Lock()
	links := make(map[string]lsdb.LinkSnapshot, len(d.localLinks))
	for k, v := range d.localLinks {
		links[k] = v
	}
	entry := d.db.PublishSelf(links, d.cfg.LocalPrefixes, now)
	d.mu.Unlock()

	d.transport.FloodSelf(entry, common.LSATTLHops)
	if d.metricsReg != nil {
		d.metricsReg.RecordLSAFlooded(true)
	}
	d.recomputeAndReconcile()
}

func (d *Daemon) floodInitialLSA() {
	d.mu.Lock()
	entry := d.db.Self()
	d.mu.Unlock()
	d.transport.FloodSelf(entry, common.LSATTLHops)
	if d.metricsReg != nil {
		d.metricsReg.RecordLSAFlooded(true)
	}
}

func (d *Daemon) purgeStaleLSAs(now time.Time) {
	d.mu.Lock()
	removed := d.db.Purge(now, common.LSAMaxAge)
	d.mu.Unlock()

	if len(removed) == 0 {
		return
	}
	d.logger.Infof("%s removed stale LSAs: %v", d.cfg.RouterID, removed)
	d.recomputeAndReconcile()
}

// recomputeAndReconcile implements spec §5's "snapshot under lock,
// compute without lock, apply under lock" pattern: SPF and FIB
// reconciliation both read a private deep copy taken under mu and do
// their work outside it.
func (d *Daemon) recomputeAndReconcile() {
	d.mu.Lock()
	snapshot := d.db.Snapshot()
	d.mu.Unlock()

	routes := spf.Compute(snapshot, d.cfg.RouterID)
	if d.metricsReg != nil {
		d.metricsReg.RecordSPFRun()
	}

	desired := d.buildDesiredRoutes(routes, snapshot)
	d.reconciler.Sync(desired)

	d.mu.Lock()
	d.routes = routes
	if d.metricsReg != nil {
		up := 0
		for _, state := range d.neighbors.All() {
			if state.IsUp {
				up++
			}
		}
		d.metricsReg.SetNeighborsUp(up)
	}
	d.mu.Unlock()
}

// buildDesiredRoutes implements spec §4.5 steps 1-3: for each reachable
// destination, resolve its first hop's neighbor IP and interface, collect
// its advertised prefix set (route_mappings ∪ LSDB prefixes ∪ inferred
// /24 link prefix as a last resort, per original_source's
// _collect_prefixes), and exclude anything in the local prefix set.
func (d *Daemon) buildDesiredRoutes(routes spf.Table, snapshot map[string]lsdb.Entry) map[netip.Prefix]fib.Route {
	desired := make(map[netip.Prefix]fib.Route)

	for destination, route := range routes {
		neighborState := d.neighbors.Get(route.FirstHop)
		if neighborState == nil {
			continue
		}
		nextHop := fib.Route{
			NextHop:   neighborState.Config.Addr,
			Interface: neighborState.Config.Interface,
		}

		for _, cidr := range d.collectPrefixes(destination, snapshot) {
			pfx, err := netip.ParsePrefix(cidr)
			if err != nil {
				continue
			}
			if d.localPrefixes.Contains(pfx) {
				continue
			}
			desired[pfx] = nextHop
		}
	}

	return desired
}

func (d *Daemon) collectPrefixes(routerID string, snapshot map[string]lsdb.Entry) []string {
	seen := make(map[string]struct{})
	var out []string

	add := func(cidr string) {
		if _, ok := seen[cidr]; ok {
			return
		}
		seen[cidr] = struct{}{}
		out = append(out, cidr)
	}

	for _, cidr := range d.cfg.RouteMappings[routerID] {
		add(cidr)
	}
	if entry, ok := snapshot[routerID]; ok {
		for _, cidr := range entry.Prefixes {
			add(cidr)
		}
	}
	if len(out) == 0 {
		if state := d.neighbors.Get(routerID); state != nil {
			if inferred, ok := inferLinkPrefix(state.Config.Addr); ok {
				add(inferred)
			}
		}
	}
	return out
}

// inferLinkPrefix derives a /24 covering addr, the same last-resort
// prefix inference original_source's _infer_link_prefix performs when
// neither route_mappings nor the neighbor's own LSA advertises
// anything.
func inferLinkPrefix(addr netip.Addr) (string, bool) {
	if !addr.Is4() {
		return "", false
	}
	pfx := netip.PrefixFrom(addr, 24).Masked()
	return pfx.String(), true
}

// logAvailableAddresses logs every up IPv4 interface address at
// startup, an informational aid carried over from the teacher's
// printAvailableNetworkAddresses (not a protocol requirement).
func logAvailableAddresses(logger *obslog.Logger) {
	interfaces, err := net.Interfaces()
	if err != nil {
		logger.Warnf("failed to list network interfaces: %v", err)
		return
	}
	for _, iface := range interfaces {
		if iface.Flags&net.FlagUp == 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, a := range addrs {
			ipNet, ok := a.(*net.IPNet)
			if !ok || ipNet.IP.To4() == nil {
				continue
			}
			logger.Debugf("interface %s: %s", iface.Name, ipNet.IP)
		}
	}
}
