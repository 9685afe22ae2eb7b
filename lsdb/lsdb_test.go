package lsdb

import (
	"testing"
	"time"

	"github.com/qosrouted/routingd/qos"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_SeedsSelfEntryAtSeq1(t *testing.T) {
	now := time.Now()
	db := New("R1", now, []string{"10.0.1.0/24"})

	self := db.Self()
	assert.Equal(t, uint64(1), self.Seq)
	assert.Empty(t, self.Links)
	assert.Equal(t, []string{"10.0.1.0/24"}, self.Prefixes)
}

func TestOffer_HigherSeqReplaces(t *testing.T) {
	db := New("R1", time.Now(), nil)
	now := time.Now()

	res := db.Offer("R2", 5, map[string]LinkSnapshot{"R1": {Cost: 10}}, nil, now)
	assert.Equal(t, Accepted, res)

	entry, ok := db.Get("R2")
	require.True(t, ok)
	assert.Equal(t, uint64(5), entry.Seq)
}

func TestOffer_EqualOrLowerSeqRejected(t *testing.T) {
	db := New("R1", time.Now(), nil)
	now := time.Now()
	db.Offer("R2", 5, nil, nil, now)

	assert.Equal(t, Rejected, db.Offer("R2", 5, nil, nil, now))
	assert.Equal(t, Rejected, db.Offer("R2", 4, nil, nil, now))
	assert.Equal(t, Accepted, db.Offer("R2", 6, nil, nil, now))
}

func TestPublishSelf_IncrementsSeqByOne(t *testing.T) {
	db := New("R1", time.Now(), nil)

	e1 := db.PublishSelf(map[string]LinkSnapshot{"R2": {Cost: 5}}, []string{"10.0.1.0/24"}, time.Now())
	assert.Equal(t, uint64(2), e1.Seq)

	e2 := db.PublishSelf(map[string]LinkSnapshot{"R2": {Cost: 6}}, []string{"10.0.1.0/24"}, time.Now())
	assert.Equal(t, uint64(3), e2.Seq)
}

func TestPurge_RemovesStaleNonSelfEntries(t *testing.T) {
	start := time.Now()
	db := New("R1", start, nil)
	db.Offer("R2", 1, nil, nil, start)
	db.Offer("R3", 1, nil, nil, start.Add(200*time.Second))

	removed := db.Purge(start.Add(300*time.Second), 120*time.Second)

	assert.ElementsMatch(t, []string{"R2"}, removed)
	_, ok := db.Get("R2")
	assert.False(t, ok)
	_, ok = db.Get("R3")
	assert.True(t, ok)
	_, ok = db.Get("R1")
	assert.True(t, ok, "self entry must never age out")
}

func TestSnapshot_IsIndependentDeepCopy(t *testing.T) {
	db := New("R1", time.Now(), []string{"10.0.1.0/24"})
	db.Offer("R2", 1, map[string]LinkSnapshot{"R1": {Cost: 3}}, []string{"10.0.2.0/24"}, time.Now())

	snap := db.Snapshot()
	snap["R2"].Links["R1"] = LinkSnapshot{Cost: 999}

	entry, _ := db.Get("R2")
	assert.Equal(t, 3.0, entry.Links["R1"].Cost, "mutating the snapshot must not affect the live LSDB")
}

func TestLinkSnapshot_Differs(t *testing.T) {
	a := LinkSnapshot{Cost: 10, Sample: qos.Sample{LatencyMS: 5, JitterMS: 1, LossPercent: 0}}

	withinDelta := a
	withinDelta.Cost = 10.2
	assert.False(t, a.Differs(withinDelta, 0.5, 1.0))

	costDiff := a
	costDiff.Cost = 11
	assert.True(t, a.Differs(costDiff, 0.5, 1.0))

	qosDiff := a
	qosDiff.Sample.LatencyMS = 10
	assert.True(t, a.Differs(qosDiff, 0.5, 1.0))
}

func TestLinksEqual(t *testing.T) {
	a := map[string]LinkSnapshot{"R2": {Cost: 1}, "R3": {Cost: 2}}
	b := map[string]LinkSnapshot{"R2": {Cost: 1}, "R3": {Cost: 2}}
	c := map[string]LinkSnapshot{"R2": {Cost: 1}}

	assert.True(t, LinksEqual(a, b))
	assert.False(t, LinksEqual(a, c))
}
