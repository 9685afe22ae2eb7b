// Command routingd runs one router instance of the QoS-aware link-state
// control plane. Grounded on jhkimqd-chaos-utils's cmd/chaos-runner: a
// root cobra.Command with persistent flags and an Execute() call from
// main, generalized from that tool's chaos-scenario flags to this
// daemon's --config/--log-level/--metrics-addr surface (spec §6).
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/qosrouted/routingd/daemon"
	"github.com/qosrouted/routingd/fib"
	"github.com/qosrouted/routingd/metrics"
	"github.com/qosrouted/routingd/qos"
	"github.com/qosrouted/routingd/rtconfig"
	"github.com/qosrouted/routingd/util/obslog"
)

var (
	configPath  string
	logLevel    string
	metricsAddr string
)

var rootCmd = &cobra.Command{
	Use:   "routingd",
	Short: "QoS-aware link-state routing daemon",
	Long: `routingd maintains adjacencies with a statically configured set of
neighbors, prices each link from live latency/jitter/loss/bandwidth
measurements, floods the result as link-state advertisements, and
reconciles the host kernel's routing table against the shortest-path
tree it computes.`,
	RunE: run,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", rtconfig.DefaultPath, "path to the daemon's JSON configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", string(obslog.LevelInfo), "log level (DEBUG, INFO, WARNING, ERROR, CRITICAL)")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "address to serve Prometheus metrics on, overrides the config file's metrics_addr when set")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	level, err := obslog.ParseLevel(logLevel)
	if err != nil {
		return err
	}

	cfg, err := rtconfig.Load(configPath)
	if err != nil {
		return fmt.Errorf("routingd: %w", err)
	}

	logger := obslog.New(os.Stderr, level, cfg.RouterID)

	if metricsAddr != "" {
		cfg.MetricsAddr = metricsAddr
	}

	var reg *metrics.Registry
	if cfg.MetricsAddr != "" {
		reg = metrics.New(cfg.RouterID)
		metricsServer := metrics.NewServer(cfg.MetricsAddr, reg, logger.With("metrics"))
		go metricsServer.Start(cmd.Context())
	}

	d := daemon.New(cfg, logger, reg, qos.ExecProber{}, fib.NewNetlinkFIB(), time.Now())

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := d.Start(ctx); err != nil {
		return fmt.Errorf("routingd: %w", err)
	}

	<-ctx.Done()
	d.Stop()
	return nil
}
