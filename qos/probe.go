package qos

import (
	"context"
	"math"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// perPacketRTT matches one "time=X ms" reply line, as emitted per echo by
// both iputils and BusyBox ping. Grounded on original_source's metrics.py,
// which parses the same ping(8) textual output.
var perPacketRTT = regexp.MustCompile(`(?i)time[=<]([\d.]+)\s*ms`)

// packetLoss matches the summary "N% packet loss" line.
var packetLoss = regexp.MustCompile(`([\d.]+)%\s*packet loss`)

// rttSummary matches the summary "rtt min/avg/max/mdev = a/b/c/d ms" line.
// mdev is absent on BusyBox ping, hence the optional trailing group (same
// pattern metrics.py uses).
var rttSummary = regexp.MustCompile(`=\s*([\d.]+)/([\d.]+)/([\d.]+)(?:/([\d.]+))?`)

// Prober runs an external round-trip probe. Production code uses
// ExecProber; tests substitute a fake to avoid depending on the host's
// ping binary and network stack.
type Prober interface {
	Probe(ctx context.Context, addr string, count int, interval time.Duration, bandwidthMbps float64, bandwidthKnown bool) Sample
}

// ExecProber shells out to the system ping binary, per spec §4.1/§6: the
// daemon only consumes the external probe capability's result shape, never
// the ICMP implementation itself.
type ExecProber struct{}

func (ExecProber) Probe(ctx context.Context, addr string, count int, interval time.Duration, bandwidthMbps float64, bandwidthKnown bool) Sample {
	return runPing(ctx, addr, count, interval, bandwidthMbps, bandwidthKnown)
}

func runPing(ctx context.Context, addr string, count int, interval time.Duration, bandwidthMbps float64, bandwidthKnown bool) Sample {
	intervalSeconds := interval.Seconds()
	if intervalSeconds <= 0 {
		intervalSeconds = 0.2
	}

	cmd := exec.CommandContext(ctx, "ping",
		"-c", strconv.Itoa(count),
		"-i", strconv.FormatFloat(intervalSeconds, 'f', -1, 64),
		addr,
	)
	out, _ := cmd.CombinedOutput() // execution error is reflected by unparsable output below
	return parsePingOutput(string(out), count, bandwidthMbps, bandwidthKnown)
}

func parsePingOutput(output string, count int, bandwidthMbps float64, bandwidthKnown bool) Sample {
	lossMatch := packetLoss.FindStringSubmatch(output)
	rttMatch := rttSummary.FindStringSubmatch(output)

	if lossMatch == nil && rttMatch == nil {
		return Unusable(bandwidthMbps, bandwidthKnown)
	}

	perPacket := parsePerPacketSamples(output)

	lossPercent := 100.0
	if lossMatch != nil {
		if v, err := strconv.ParseFloat(lossMatch[1], 64); err == nil {
			lossPercent = v
		}
	} else if count > 0 {
		// No explicit loss line (unusual); derive loss from how many of
		// the requested echoes actually produced a reply line.
		lossPercent = 100 * (1 - float64(len(perPacket))/float64(count))
	}

	if lossPercent >= 100 {
		return Unusable(bandwidthMbps, bandwidthKnown)
	}

	latencyMS, ok := latencyFrom(rttMatch, perPacket)
	if !ok {
		return Unusable(bandwidthMbps, bandwidthKnown)
	}

	jitterMS := jitterFrom(perPacket, rttMatch)

	return Sample{
		LatencyMS:      latencyMS,
		JitterMS:       jitterMS,
		LossPercent:    lossPercent,
		BandwidthMbps:  bandwidthMbps,
		BandwidthKnown: bandwidthKnown,
	}
}

func parsePerPacketSamples(output string) []float64 {
	matches := perPacketRTT.FindAllStringSubmatch(output, -1)
	samples := make([]float64, 0, len(matches))
	for _, m := range matches {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			samples = append(samples, v)
		}
	}
	return samples
}

func latencyFrom(rttMatch []string, perPacket []float64) (float64, bool) {
	if rttMatch != nil {
		if v, err := strconv.ParseFloat(rttMatch[2], 64); err == nil {
			return v, true
		}
	}
	if len(perPacket) > 0 {
		return mean(perPacket), true
	}
	return 0, false
}

// jitterFrom implements the spec §4.1 fallback chain: population stddev of
// per-packet RTTs when >=2 samples are available, else the tool-reported
// mdev, else max-min.
func jitterFrom(perPacket []float64, rttMatch []string) float64 {
	if len(perPacket) >= 2 {
		return populationStdDev(perPacket)
	}
	if rttMatch != nil && strings.TrimSpace(rttMatch[4]) != "" {
		if v, err := strconv.ParseFloat(rttMatch[4], 64); err == nil {
			return v
		}
	}
	if len(perPacket) == 0 {
		return 0
	}
	lo, hi := perPacket[0], perPacket[0]
	for _, v := range perPacket[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return hi - lo
}

func mean(samples []float64) float64 {
	var sum float64
	for _, v := range samples {
		sum += v
	}
	return sum / float64(len(samples))
}

func populationStdDev(samples []float64) float64 {
	m := mean(samples)
	var variance float64
	for _, v := range samples {
		d := v - m
		variance += d * d
	}
	variance /= float64(len(samples))
	return math.Sqrt(variance)
}
