package neighbor

import (
	"net/netip"
	"testing"
	"time"

	"github.com/qosrouted/routingd/qos"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(id string) Config {
	return Config{
		RouterID: id,
		Addr:     netip.MustParseAddr("10.0.0.2"),
		Port:     55000,
	}
}

func TestNewState_StartsDown(t *testing.T) {
	s := NewState(testConfig("R2"))
	assert.False(t, s.IsUp)
	assert.Equal(t, 100.0, s.Sample.LossPercent)
}

func TestObserveHello_FirstHelloTransitionsUp(t *testing.T) {
	s := NewState(testConfig("R2"))
	now := time.Now()

	trans := s.ObserveHello(now)

	assert.Equal(t, WentUp, trans)
	assert.True(t, s.IsUp)
	assert.Equal(t, now, s.LastHello)
}

func TestObserveHello_SubsequentHelloIsNoChange(t *testing.T) {
	s := NewState(testConfig("R2"))
	now := time.Now()
	s.ObserveHello(now)

	trans := s.ObserveHello(now.Add(time.Second))

	assert.Equal(t, NoChange, trans)
	assert.True(t, s.IsUp)
}

func TestEvaluateDeadline_ExpiresAfterDeadInterval(t *testing.T) {
	s := NewState(testConfig("R2"))
	start := time.Now()
	s.ObserveHello(start)

	noChange := s.EvaluateDeadline(start.Add(2*time.Second), 3*time.Second)
	assert.Equal(t, NoChange, noChange)
	assert.True(t, s.IsUp)

	wentDown := s.EvaluateDeadline(start.Add(5*time.Second+100*time.Millisecond), 3*time.Second)
	assert.Equal(t, WentDown, wentDown)
	assert.False(t, s.IsUp)
	assert.True(t, s.Sample.LossPercent == 100)
}

func TestEvaluateDeadline_NeverUpIsNoChange(t *testing.T) {
	s := NewState(testConfig("R2"))
	trans := s.EvaluateDeadline(time.Now(), time.Second)
	assert.Equal(t, NoChange, trans)
}

func TestEvaluateDeadline_AlreadyDownIsNoChange(t *testing.T) {
	s := NewState(testConfig("R2"))
	start := time.Now()
	s.ObserveHello(start)
	s.EvaluateDeadline(start.Add(10*time.Second), 3*time.Second)
	require.False(t, s.IsUp)

	trans := s.EvaluateDeadline(start.Add(20*time.Second), 3*time.Second)
	assert.Equal(t, NoChange, trans)
}

func TestUpdateSample_DoesNotAffectAdjacency(t *testing.T) {
	s := NewState(testConfig("R2"))
	s.ObserveHello(time.Now())

	s.UpdateSample(qos.Unusable(0, false))

	assert.True(t, s.IsUp)
	assert.Equal(t, 100.0, s.Sample.LossPercent)
}

func TestTable_KnownAndGet(t *testing.T) {
	tbl := NewTable([]Config{testConfig("R2"), testConfig("R3")})

	assert.True(t, tbl.Known("R2"))
	assert.False(t, tbl.Known("R9"))
	require.NotNil(t, tbl.Get("R2"))
	assert.Nil(t, tbl.Get("R9"))
}

func TestTable_AllPreservesOrder(t *testing.T) {
	tbl := NewTable([]Config{testConfig("R2"), testConfig("R3"), testConfig("R4")})

	ids := make([]string, 0, 3)
	for _, s := range tbl.All() {
		ids = append(ids, s.Config.RouterID)
	}

	assert.Equal(t, []string{"R2", "R3", "R4"}, ids)
}

func TestConfig_AddrPort(t *testing.T) {
	cfg := testConfig("R2")
	ap := cfg.AddrPort()
	assert.Equal(t, uint16(55000), ap.Port())
}
