package qos

import "math"

// Weights are the non-negative per-component weights of compute_cost (spec
// §4.2); their sum must be positive.
type Weights struct {
	Latency   float64
	Jitter    float64
	Loss      float64
	Bandwidth float64
}

// Bounds are the per-component normalization ceilings (spec §4.2).
type Bounds struct {
	LatencyMaxMS     float64
	JitterMaxMS      float64
	LossMaxPercent   float64
	BandwidthRefMbps float64
}

// ComputeCost maps a QoS sample to a scalar edge weight in [0,100], or
// +Inf when the link is unusable. Deterministic and side-effect free
// (spec §4.2, Testable Properties "compute_cost ... is deterministic").
func ComputeCost(s Sample, w Weights, b Bounds) float64 {
	if s.LossPercent >= 100 || math.IsInf(s.LatencyMS, 1) || math.IsInf(s.JitterMS, 1) {
		return math.Inf(1)
	}

	latencyTerm := minF(s.LatencyMS/b.LatencyMaxMS, 1)
	jitterTerm := minF(s.JitterMS/b.JitterMaxMS, 1)
	lossTerm := minF(s.LossPercent/b.LossMaxPercent, 1)

	var bandwidthTerm float64
	if !s.BandwidthKnown || s.BandwidthMbps <= 0 {
		bandwidthTerm = 1
	} else {
		bandwidthTerm = 1 - minF(s.BandwidthMbps/b.BandwidthRefMbps, 1)
	}

	weightSum := w.Latency + w.Jitter + w.Loss + w.Bandwidth
	weighted := w.Latency*latencyTerm + w.Jitter*jitterTerm + w.Loss*lossTerm + w.Bandwidth*bandwidthTerm

	return 100 * weighted / weightSum
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
