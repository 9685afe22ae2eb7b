package flood

import (
	"context"
	"net"
	"net/netip"
	"testing"
	"time"

	"github.com/qosrouted/routingd/lsdb"
	"github.com/qosrouted/routingd/neighbor"
	"github.com/qosrouted/routingd/sock"
	"github.com/qosrouted/routingd/util/obslog"
	"github.com/qosrouted/routingd/util/observer"
	"github.com/qosrouted/routingd/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSocket struct {
	sent []sentPacket
}

type sentPacket struct {
	addr netip.AddrPort
	data []byte
}

func (f *fakeSocket) Open(ctx context.Context, ip net.IP, port int) (netip.AddrPort, error) {
	return netip.AddrPort{}, nil
}
func (f *fakeSocket) LocalAddr() netip.AddrPort { return netip.AddrPort{} }
func (f *fakeSocket) SendTo(addr netip.AddrPort, data []byte) error {
	f.sent = append(f.sent, sentPacket{addr: addr, data: append([]byte(nil), data...)})
	return nil
}
func (f *fakeSocket) Subscribe(obs observer.Observer[*sock.RawPacket]) {}
func (f *fakeSocket) Close() error                                     { return nil }

func newTestNeighbors() *neighbor.Table {
	return neighbor.NewTable([]neighbor.Config{
		{RouterID: "R2", Addr: netip.MustParseAddr("10.0.0.2"), Port: 55000},
		{RouterID: "R3", Addr: netip.MustParseAddr("10.0.0.3"), Port: 55000},
	})
}

func TestTransport_SendHello_ReachesEveryNeighbor(t *testing.T) {
	socket := &fakeSocket{}
	tr := NewTransport(socket, newTestNeighbors(), "R1", obslog.New(discard{}, obslog.LevelError, "R1"))

	tr.SendHello(time.Now())

	assert.Len(t, socket.sent, 2)
	hello, err := wire.DecodeHello(socket.sent[0].data)
	require.NoError(t, err)
	assert.Equal(t, "R1", hello.RouterID)
}

func TestTransport_Reflood_ExcludesSender(t *testing.T) {
	socket := &fakeSocket{}
	tr := NewTransport(socket, newTestNeighbors(), "R1", obslog.New(discard{}, obslog.LevelError, "R1"))

	entry := lsdb.Entry{Origin: "R4", Seq: 2, Links: map[string]lsdb.LinkSnapshot{}}
	tr.Reflood(entry, 5, "R2")

	assert.Len(t, socket.sent, 1)
	assert.Equal(t, newTestNeighbors().Get("R3").Config.AddrPort(), socket.sent[0].addr)
}

func TestTransport_FloodSelf_SendsToAll(t *testing.T) {
	socket := &fakeSocket{}
	tr := NewTransport(socket, newTestNeighbors(), "R1", obslog.New(discard{}, obslog.LevelError, "R1"))

	entry := lsdb.Entry{Origin: "R1", Seq: 1, Links: map[string]lsdb.LinkSnapshot{}}
	tr.FloodSelf(entry, 8)

	assert.Len(t, socket.sent, 2)
}

func TestResolveSender_FindsConfiguredNeighbor(t *testing.T) {
	neighbors := newTestNeighbors()
	addr := netip.AddrPortFrom(netip.MustParseAddr("10.0.0.2"), 40000)

	id, ok := ResolveSender(neighbors, addr)
	assert.True(t, ok)
	assert.Equal(t, "R2", id)
}

func TestResolveSender_UnknownAddrNotFound(t *testing.T) {
	neighbors := newTestNeighbors()
	addr := netip.AddrPortFrom(netip.MustParseAddr("192.168.1.1"), 40000)

	_, ok := ResolveSender(neighbors, addr)
	assert.False(t, ok)
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }
