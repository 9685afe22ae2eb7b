// Package qos measures and prices per-link Quality-of-Service: Probe
// gathers a QoSSample from a neighbor address, and ComputeCost turns a
// sample into the scalar edge weight spf.Compute consumes. Grounded
// on original_source's metrics.py (measure_link_quality/compute_qos_cost)
// and spec §4.1-§4.2.
package qos

import "math"

// Sample is a single QoS measurement for one link, per spec §3. LossPercent
// is always finite and in [0,100]; latency/jitter may be +Inf (unusable).
// Bandwidth is a static hint supplied by configuration, not measured, so its
// absence is tracked explicitly rather than encoded as a float sentinel.
type Sample struct {
	LatencyMS      float64
	JitterMS       float64
	LossPercent    float64
	BandwidthMbps  float64
	BandwidthKnown bool
}

// Unusable is the sample a failed probe or a dead neighbor reports (spec
// §3 invariant: loss=100 => link treated as unusable).
func Unusable(bandwidthMbps float64, bandwidthKnown bool) Sample {
	return Sample{
		LatencyMS:      math.Inf(1),
		JitterMS:       math.Inf(1),
		LossPercent:    100,
		BandwidthMbps:  bandwidthMbps,
		BandwidthKnown: bandwidthKnown,
	}
}

// Equivalent reports whether two samples differ by less than the given
// material-change thresholds (spec §4.4). It does not compare bandwidth:
// bandwidth is a static configuration hint, never a measured delta.
//
// math.Abs(Inf-Inf) is NaN, and every NaN comparison is false, so two
// infinite values on the same field compare equivalent without a special
// case; a finite-vs-infinite pair yields Abs(...)=+Inf, which always
// exceeds the threshold as intended.
func (s Sample) Equivalent(other Sample, qosComponentDelta float64) bool {
	if math.Abs(s.LatencyMS-other.LatencyMS) > qosComponentDelta {
		return false
	}
	if math.Abs(s.JitterMS-other.JitterMS) > qosComponentDelta {
		return false
	}
	if math.Abs(s.LossPercent-other.LossPercent) > qosComponentDelta {
		return false
	}
	return true
}
