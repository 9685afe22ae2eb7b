// Package rtconfig loads and validates the daemon's JSON configuration
// file (spec §6) into the concrete types the rest of the daemon
// consumes (neighbor.Config, qos.Weights/Bounds, route_mappings, local
// prefixes). Grounded on the teacher's common/config.go (a single home
// for protocol constants/defaults) and original_source's
// OSPFGamingDaemon._load_config / parse_args.
package rtconfig

import (
	"encoding/json"
	"fmt"
	"net/netip"
	"os"
	"time"

	"github.com/qosrouted/routingd/common"
	"github.com/qosrouted/routingd/neighbor"
	"github.com/qosrouted/routingd/qos"
)

// StaticBandwidth is an operator-populated fallback catalog consulted
// only when a neighbor entry omits bandwidth. Empty by default, it
// changes no behavior from spec.md's "optional nominal bandwidth"
// unless an operator build populates it, mirroring original_source's
// STATIC_BANDWIDTH table.
var StaticBandwidth = map[string]float64{}

// rawNeighbor is the on-wire shape of one neighbors[] entry.
type rawNeighbor struct {
	ID        string   `json:"id"`
	IP        string   `json:"ip"`
	Port      *int     `json:"port"`
	Interface string   `json:"interface"`
	Bandwidth *float64 `json:"bandwidth"`
}

// rawWeights is weights_percent.
type rawWeights struct {
	Latency   float64 `json:"latency"`
	Jitter    float64 `json:"jitter"`
	Loss      float64 `json:"loss"`
	Bandwidth float64 `json:"bandwidth"`
}

// rawNormalization is the normalization block.
type rawNormalization struct {
	LatencyMaxMS     float64  `json:"latency_max_ms"`
	JitterMaxMS      float64  `json:"jitter_max_ms"`
	LossMaxPercent   *float64 `json:"loss_max_percent"`
	BandwidthRefMbps float64  `json:"bandwidth_ref_mbps"`
}

// rawThresholds holds the spec §4.4 material-change thresholds; absent
// from the spec's base wire schema, added here since DESIGN.md records
// them as operator-tunable rather than hardcoded.
type rawThresholds struct {
	CostDelta         *float64 `json:"cost_delta"`
	QoSComponentDelta *float64 `json:"qos_component_delta"`
}

// rawConfig mirrors the full spec §6 JSON configuration document.
type rawConfig struct {
	RouterID       string              `json:"router_id"`
	ListenIP       string              `json:"listen_ip"`
	ListenPort     int                 `json:"listen_port"`
	HelloInterval  float64             `json:"hello_interval"`
	DeadInterval   float64             `json:"dead_interval"`
	MetricInterval float64             `json:"metric_interval"`
	PingCount      int                 `json:"ping_count"`
	PingInterval   float64             `json:"ping_interval"`
	WeightsPercent rawWeights          `json:"weights_percent"`
	Normalization  rawNormalization    `json:"normalization"`
	Thresholds     rawThresholds       `json:"change_thresholds"`
	LocalPrefixes  []string            `json:"local_prefixes"`
	RouteMappings  map[string][]string `json:"route_mappings"`
	Neighbors      []rawNeighbor       `json:"neighbors"`
	MetricsAddr    string              `json:"metrics_addr"`
}

// Config is the validated, typed configuration the daemon runs with.
type Config struct {
	RouterID          string
	ListenIP          netip.Addr
	ListenPort        int
	HelloInterval     time.Duration
	DeadInterval      time.Duration
	MetricInterval    time.Duration
	PingCount         int
	PingInterval      time.Duration
	Weights           qos.Weights
	Bounds            qos.Bounds
	CostDelta         float64
	QoSComponentDelta float64
	LocalPrefixes     []string
	RouteMappings     map[string][]string
	Neighbors         []neighbor.Config
	MetricsAddr       string
}

// DefaultPath is used by cmd/routingd when --config is omitted,
// matching original_source's default ("Graceful --config default path"
// in SPEC_FULL §11): spec.md calls the flag "required in practice" but
// does not forbid a default.
const DefaultPath = "config/config.json"

// Load reads and validates the configuration file at path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("rtconfig: read %s: %w", path, err)
	}

	var raw rawConfig
	if err := json.Unmarshal(data, &raw); err != nil {
		return Config{}, fmt.Errorf("rtconfig: parse %s: %w", path, err)
	}

	return validate(raw)
}

func validate(raw rawConfig) (Config, error) {
	if raw.RouterID == "" {
		return Config{}, fmt.Errorf("rtconfig: router_id is required")
	}

	listenIP := netip.MustParseAddr("0.0.0.0")
	if raw.ListenIP != "" {
		ip, err := netip.ParseAddr(raw.ListenIP)
		if err != nil {
			return Config{}, fmt.Errorf("rtconfig: invalid listen_ip %q: %w", raw.ListenIP, err)
		}
		listenIP = ip
	}

	listenPort := raw.ListenPort
	if listenPort == 0 {
		listenPort = common.DefaultListenPort
	}

	helloInterval := durationOrDefault(raw.HelloInterval, common.DefaultHelloInterval)
	deadInterval := durationOrDefault(raw.DeadInterval, common.DefaultDeadInterval)
	metricInterval := durationOrDefault(raw.MetricInterval, common.DefaultMetricInterval)

	pingCount := raw.PingCount
	if pingCount == 0 {
		pingCount = common.DefaultPingCount
	}
	pingInterval := durationOrDefault(raw.PingInterval, common.DefaultPingInterval)

	weights := qos.Weights{
		Latency:   raw.WeightsPercent.Latency,
		Jitter:    raw.WeightsPercent.Jitter,
		Loss:      raw.WeightsPercent.Loss,
		Bandwidth: raw.WeightsPercent.Bandwidth,
	}
	if weights.Latency+weights.Jitter+weights.Loss+weights.Bandwidth <= 0 {
		return Config{}, fmt.Errorf("rtconfig: weights_percent must sum to a positive value")
	}

	lossMax := common.DefaultLossMaxPercent
	if raw.Normalization.LossMaxPercent != nil {
		lossMax = *raw.Normalization.LossMaxPercent
	}
	bounds := qos.Bounds{
		LatencyMaxMS:     raw.Normalization.LatencyMaxMS,
		JitterMaxMS:      raw.Normalization.JitterMaxMS,
		LossMaxPercent:   lossMax,
		BandwidthRefMbps: raw.Normalization.BandwidthRefMbps,
	}
	if bounds.LatencyMaxMS <= 0 || bounds.JitterMaxMS <= 0 || bounds.BandwidthRefMbps <= 0 {
		return Config{}, fmt.Errorf("rtconfig: normalization bounds must be positive")
	}

	costDelta := common.DefaultCostDelta
	if raw.Thresholds.CostDelta != nil {
		costDelta = *raw.Thresholds.CostDelta
	}
	qosDelta := common.DefaultQoSComponentDelta
	if raw.Thresholds.QoSComponentDelta != nil {
		qosDelta = *raw.Thresholds.QoSComponentDelta
	}
	if costDelta <= 0 || qosDelta <= 0 {
		return Config{}, fmt.Errorf("rtconfig: change_thresholds must be positive (zero risks an LSA storm)")
	}

	neighbors, err := validateNeighbors(raw.Neighbors, listenPort)
	if err != nil {
		return Config{}, err
	}

	for _, cidr := range raw.LocalPrefixes {
		if _, err := netip.ParsePrefix(cidr); err != nil {
			return Config{}, fmt.Errorf("rtconfig: invalid local_prefixes entry %q: %w", cidr, err)
		}
	}

	return Config{
		RouterID:          raw.RouterID,
		ListenIP:          listenIP,
		ListenPort:        listenPort,
		HelloInterval:     helloInterval,
		DeadInterval:      deadInterval,
		MetricInterval:    metricInterval,
		PingCount:         pingCount,
		PingInterval:      pingInterval,
		Weights:           weights,
		Bounds:            bounds,
		CostDelta:         costDelta,
		QoSComponentDelta: qosDelta,
		LocalPrefixes:     raw.LocalPrefixes,
		RouteMappings:     raw.RouteMappings,
		Neighbors:         neighbors,
		MetricsAddr:       raw.MetricsAddr,
	}, nil
}

func validateNeighbors(raw []rawNeighbor, defaultPort int) ([]neighbor.Config, error) {
	out := make([]neighbor.Config, 0, len(raw))
	for _, n := range raw {
		if n.ID == "" {
			return nil, fmt.Errorf("rtconfig: neighbor entry missing id")
		}
		addr, err := netip.ParseAddr(n.IP)
		if err != nil {
			return nil, fmt.Errorf("rtconfig: neighbor %s: invalid ip %q: %w", n.ID, n.IP, err)
		}
		port := defaultPort
		if n.Port != nil {
			port = *n.Port
		}
		cfg := neighbor.Config{
			RouterID:  n.ID,
			Addr:      addr,
			Port:      port,
			Interface: n.Interface,
		}
		switch {
		case n.Bandwidth != nil:
			cfg.BandwidthMbps = *n.Bandwidth
			cfg.BandwidthSet = true
		default:
			if bw, ok := StaticBandwidth[n.ID]; ok {
				cfg.BandwidthMbps = bw
				cfg.BandwidthSet = true
			}
		}
		out = append(out, cfg)
	}
	return out, nil
}

func durationOrDefault(seconds float64, fallback time.Duration) time.Duration {
	if seconds <= 0 {
		return fallback
	}
	return time.Duration(seconds * float64(time.Second))
}
