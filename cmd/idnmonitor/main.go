package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/skypro1111/idn-stream-player/internal/config"
	"github.com/skypro1111/idn-stream-player/internal/metrics"
	"github.com/skypro1111/idn-stream-player/internal/protocol"
	"github.com/skypro1111/idn-stream-player/internal/server"
)

const serviceName = "idnmonitor"

// Set at build time.
var version = "dev"

func main() {
	if err := newRootCmd(run).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func newRootCmd(run func(context.Context, *config.Config) error) *cobra.Command {
	var (
		configPath     string
		bindAddress    string
		udpPort        int
		sessionTimeout int
		httpEnabled    bool
		httpAddress    string
		httpPort       int
		logLevel       string
		logFormat      string
	)

	cmd := &cobra.Command{
		Use:   "idnmonitor",
		Short: "Receive and check IDN-Stream traffic",
		Long: `idnmonitor listens for IDN-Hello packets on UDP, checks sequence numbers,
reassembles fragmented frames and reports per client statistics in the log
and, optionally, over HTTP.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Default()
			if configPath != "" {
				loaded, err := config.Load(configPath)
				if err != nil {
					return err
				}
				cfg = loaded
			}

			changed := cmd.Flags().Changed
			if changed("bind") {
				cfg.Monitor.BindAddress = bindAddress
			}
			if changed("port") {
				cfg.Monitor.UDPPort = udpPort
			}
			if changed("session-timeout") {
				cfg.Monitor.SessionTimeout = sessionTimeout
			}
			if changed("http") {
				cfg.HTTP.Enabled = httpEnabled
			}
			if changed("http-address") {
				cfg.HTTP.Address = httpAddress
			}
			if changed("http-port") {
				cfg.HTTP.Port = httpPort
			}
			if changed("log-level") {
				cfg.Logging.Level = logLevel
			}
			if changed("log-format") {
				cfg.Logging.Format = logFormat
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return run(ctx, cfg)
		},
	}

	fs := cmd.Flags()
	fs.StringVarP(&configPath, "config", "c", "", "Path to a YAML configuration file")
	fs.StringVar(&bindAddress, "bind", "0.0.0.0", "Address to listen on")
	fs.IntVarP(&udpPort, "port", "p", protocol.DefaultPort, "UDP port to listen on")
	fs.IntVar(&sessionTimeout, "session-timeout", 10, "Seconds of silence before a session is dropped")
	fs.BoolVar(&httpEnabled, "http", false, "Serve statistics and metrics over HTTP")
	fs.StringVar(&httpAddress, "http-address", "127.0.0.1", "HTTP status server address")
	fs.IntVar(&httpPort, "http-port", 8081, "HTTP status server port")
	fs.StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn or error")
	fs.StringVar(&logFormat, "log-format", "text", "Log format: text or json")

	return cmd
}

func run(ctx context.Context, cfg *config.Config) error {
	logger, logCloser, err := cfg.Logging.NewLogger()
	if err != nil {
		return err
	}
	defer logCloser.Close()

	logger.Info("Monitor starting",
		slog.String("service", serviceName),
		slog.String("version", version),
		slog.String("bind_address", cfg.Monitor.BindAddress),
		slog.Int("udp_port", cfg.Monitor.UDPPort),
	)

	appMetrics := metrics.NewMetrics(nil)
	monitor := server.NewMonitor(cfg.Monitor, logger, appMetrics)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return monitor.Run(gctx)
	})

	if cfg.HTTP.Enabled {
		httpServer := server.NewHTTPServer(cfg.HTTP, logger, cfg, server.HTTPServerOptions{
			Service: serviceName,
			Status:  func() any { return monitor.GetStatistics() },
			Metrics: appMetrics,
		})
		g.Go(func() error {
			return httpServer.Run(gctx)
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	stats := monitor.GetStatistics()
	logger.Info("Final monitor statistics",
		slog.Uint64("packets_received", stats.PacketsReceived),
		slog.Uint64("packets_processed", stats.PacketsProcessed),
		slog.Uint64("parse_errors", stats.ParseErrors),
		slog.Uint64("sessions_closed", stats.SessionsClosed),
		slog.Int("active_sessions", stats.ActiveSessions),
	)
	return nil
}
