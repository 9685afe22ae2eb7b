// Package common holds protocol-wide constants shared across packages,
// following the teacher's common/config.go role (a single home for magic
// numbers referenced by more than one package).
package common

import "time"

const (
	// LSATTLHops is the hop budget a freshly originated LSA carries
	// (spec §6).
	LSATTLHops = 8

	// LSAMaxAge is how long a non-self LSDB entry survives without being
	// refreshed before it is purged (spec §3, §6).
	LSAMaxAge = 120 * time.Second

	// DefaultListenPort is the UDP port the daemon binds when the config
	// omits listen_port (spec §6).
	DefaultListenPort = 55000

	// DefaultHelloInterval, DefaultDeadInterval, DefaultMetricInterval
	// are the spec §6 defaults for the three timer-driven workers.
	DefaultHelloInterval  = 5 * time.Second
	DefaultDeadInterval   = 20 * time.Second
	DefaultMetricInterval = 30 * time.Second

	// DefaultPingCount and DefaultPingInterval parameterize qos.Probe
	// when the config omits them (spec §6).
	DefaultPingCount    = 10
	DefaultPingInterval = 200 * time.Millisecond

	// DefaultLossMaxPercent is the cost-function normalization ceiling
	// for loss, which spec §6 defaults independently of the other three
	// normalization bounds (which have no defaults and must be
	// configured).
	DefaultLossMaxPercent = 100.0

	// DefaultCostDelta and DefaultQoSComponentDelta are the spec §4.4
	// material-change thresholds; see DESIGN.md's "material-change
	// thresholds" Open Question decision for why these are exposed as
	// configuration but never permitted to be zero.
	DefaultCostDelta         = 0.5
	DefaultQoSComponentDelta = 1.0

	// ReadBufferBytes is the maximum UDP datagram size, for sizing
	// inbound read buffers. sock/socket.go sizes its buffer with its own
	// readBufferBytes constant of the same value.
	ReadBufferBytes = 65535
)
