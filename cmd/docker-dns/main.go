package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	dnsserver "github.com/parapanda/docker-dns/pkg/dns"
	"github.com/parapanda/docker-dns/pkg/events"
	"github.com/parapanda/docker-dns/pkg/log"
	"github.com/parapanda/docker-dns/pkg/metrics"
	"github.com/parapanda/docker-dns/pkg/monitor"
	"github.com/parapanda/docker-dns/pkg/nametable"
	"github.com/parapanda/docker-dns/pkg/runtime"
	"github.com/parapanda/docker-dns/pkg/types"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "docker-dns",
	Short: "docker-dns - automatic DNS for Docker containers",
	Long: `docker-dns is a self-updating DNS server for Docker hosts.

It watches the Docker event stream and keeps a name table in sync with the
running containers, so <container-name>.<domain> resolves automatically as
containers start, stop, and are renamed. Names it does not own are forwarded
to upstream resolvers when any are configured.`,
	Version: Version,
	RunE:    runServe,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"docker-dns version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	rootCmd.Flags().String("listen", dnsserver.DefaultListenAddr, "UDP address to answer DNS queries on")
	rootCmd.Flags().String("domain", monitor.DefaultDomain, "Base domain appended to container names")
	rootCmd.Flags().String("network", "", "Only track containers with this network mode")
	rootCmd.Flags().StringSlice("resolver", nil, "Upstream DNS server for unknown names (repeatable; empty disables recursion)")
	rootCmd.Flags().StringSlice("record", nil, "Static record as name:address (repeatable)")
	rootCmd.Flags().String("metrics-addr", "", "HTTP address for Prometheus metrics (empty disables)")
	rootCmd.Flags().String("config", "", "YAML configuration file (flags override file values)")
	rootCmd.Flags().String("log-level", "info", "Log level: debug, info, warn, error")
	rootCmd.Flags().Bool("log-json", false, "Log in JSON format")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	log.Init(log.Config{
		Level:      log.Level(cfg.LogLevel),
		JSONOutput: cfg.LogJSON,
	})
	logger := log.WithComponent("main")

	// Invalid static records are the one fatal configuration error class:
	// fail before serving begins.
	staticRecords, err := types.ParseStaticRecords(cfg.Records)
	if err != nil {
		return err
	}

	broker := events.NewBroker()
	broker.Start()
	defer broker.Stop()

	table := nametable.New(broker)

	collector := metrics.NewCollector(table, broker)
	collector.Start()
	defer collector.Stop()

	docker, err := runtime.NewDockerRuntime()
	if err != nil {
		return err
	}
	defer docker.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	server := dnsserver.NewServer(table, &dnsserver.Config{
		ListenAddr: cfg.Listen,
		Upstream:   normalizeResolvers(cfg.Resolvers),
	})
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("failed to start DNS server: %v", err)
	}

	if cfg.MetricsAddr != "" {
		go serveMetrics(cfg.MetricsAddr)
	}

	mon := monitor.New(docker, table, monitor.Config{
		Domain:        cfg.Domain,
		Network:       cfg.Network,
		StaticRecords: staticRecords,
	})

	monErr := make(chan error, 1)
	go func() {
		monErr <- mon.Run(ctx)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info().Str("signal", sig.String()).Msg("shutting down")
	case err := <-monErr:
		if err != nil && err != context.Canceled {
			logger.Error().Err(err).Msg("monitor stopped")
		}
	}

	if err := server.Stop(); err != nil {
		logger.Error().Err(err).Msg("error stopping DNS server")
	}
	cancel()
	return nil
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Logger.Error().
			Err(err).
			Str("component", "metrics").
			Msg("metrics endpoint failed")
	}
}

// normalizeResolvers appends the default DNS port to bare upstream addresses
func normalizeResolvers(resolvers []string) []string {
	out := make([]string, 0, len(resolvers))
	for _, r := range resolvers {
		if _, _, err := net.SplitHostPort(r); err != nil {
			r = net.JoinHostPort(r, "53")
		}
		out = append(out, r)
	}
	return out
}
