package qos

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeCost_ZeroEverythingAtReferenceBandwidth(t *testing.T) {
	s := Sample{LatencyMS: 0, JitterMS: 0, LossPercent: 0, BandwidthMbps: 1000, BandwidthKnown: true}
	w := Weights{Latency: 25, Jitter: 35, Loss: 30, Bandwidth: 10}
	b := Bounds{LatencyMaxMS: 100, JitterMaxMS: 20, LossMaxPercent: 100, BandwidthRefMbps: 1000}

	assert.Equal(t, 0.0, ComputeCost(s, w, b))
}

func TestComputeCost_ScenarioB_LossIncreasesCost(t *testing.T) {
	w := Weights{Latency: 25, Jitter: 35, Loss: 30, Bandwidth: 10}
	b := Bounds{LatencyMaxMS: 100, JitterMaxMS: 20, LossMaxPercent: 100, BandwidthRefMbps: 1000}

	s1 := Sample{LatencyMS: 20, JitterMS: 2, LossPercent: 0, BandwidthMbps: 1000, BandwidthKnown: true}
	s2 := s1
	s2.LossPercent = 10

	cost1 := ComputeCost(s1, w, b)
	cost2 := ComputeCost(s2, w, b)

	assert.InDelta(t, 8.5, cost1, 1e-9)
	assert.InDelta(t, 11.5, cost2, 1e-9)
	assert.Greater(t, cost2, cost1)
}

func TestComputeCost_MissingBandwidthForcesWorstTerm(t *testing.T) {
	w := Weights{Latency: 0, Jitter: 0, Loss: 0, Bandwidth: 1}
	b := Bounds{LatencyMaxMS: 100, JitterMaxMS: 20, LossMaxPercent: 100, BandwidthRefMbps: 1000}

	known := Sample{LossPercent: 0, BandwidthMbps: 1000, BandwidthKnown: true}
	unknown := Sample{LossPercent: 0, BandwidthKnown: false}

	assert.Equal(t, 0.0, ComputeCost(known, w, b))
	assert.Equal(t, 100.0, ComputeCost(unknown, w, b))
}

func TestComputeCost_InfiniteOnUnusableLink(t *testing.T) {
	w := Weights{Latency: 25, Jitter: 35, Loss: 30, Bandwidth: 10}
	b := Bounds{LatencyMaxMS: 100, JitterMaxMS: 20, LossMaxPercent: 100, BandwidthRefMbps: 1000}

	cases := []Sample{
		{LossPercent: 100},
		{LatencyMS: math.Inf(1), LossPercent: 0},
		{JitterMS: math.Inf(1), LossPercent: 0},
	}
	for _, s := range cases {
		assert.True(t, math.IsInf(ComputeCost(s, w, b), 1))
	}
}

func TestComputeCost_Deterministic(t *testing.T) {
	w := Weights{Latency: 25, Jitter: 35, Loss: 30, Bandwidth: 10}
	b := Bounds{LatencyMaxMS: 100, JitterMaxMS: 20, LossMaxPercent: 100, BandwidthRefMbps: 1000}
	s := Sample{LatencyMS: 14.2, JitterMS: 3.1, LossPercent: 2.5, BandwidthMbps: 500, BandwidthKnown: true}

	first := ComputeCost(s, w, b)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, ComputeCost(s, w, b))
	}
}

func TestSample_Equivalent(t *testing.T) {
	base := Sample{LatencyMS: 10, JitterMS: 2, LossPercent: 0}

	small := base
	small.LatencyMS += 0.5
	assert.True(t, base.Equivalent(small, 1.0))

	big := base
	big.LatencyMS += 5
	assert.False(t, base.Equivalent(big, 1.0))

	bothUnusable := Sample{LatencyMS: math.Inf(1), JitterMS: math.Inf(1), LossPercent: 100}
	assert.True(t, bothUnusable.Equivalent(Unusable(0, false), 1.0))
}
