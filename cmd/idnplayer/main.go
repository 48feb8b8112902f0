package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/skypro1111/idn-stream-player/internal/config"
	"github.com/skypro1111/idn-stream-player/internal/metrics"
	"github.com/skypro1111/idn-stream-player/internal/player"
	"github.com/skypro1111/idn-stream-player/internal/protocol"
	"github.com/skypro1111/idn-stream-player/internal/server"
	"github.com/skypro1111/idn-stream-player/internal/transport"
)

const serviceName = "idnplayer"

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// flags holds the command line values that override the configuration file
type flags struct {
	configPath string

	server      string
	port        int
	clientGroup int
	serviceID   int
	frameRate   int
	jitterFree  bool
	scanSpeed   int
	colorShift  int
	hold        int

	file    string
	scale   float32
	mirrorX bool
	mirrorY bool
	palette string

	s3Region   string
	s3Endpoint string

	httpEnabled bool
	httpAddress string
	httpPort    int

	logLevel  string
	logFormat string
	logOutput string
}

func main() {
	rootCmd := newRootCmd(run)
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func newRootCmd(run func(context.Context, *config.Config) error) *cobra.Command {
	f := &flags{}

	cmd := &cobra.Command{
		Use:   "idnplayer [file]",
		Short: "Stream an ILDA file to an IDN server",
		Long: `idnplayer decodes an ILDA (IDTF) laser show file and streams its frames
to an IDN-Hello server as IDN-Stream discrete graphic frames.

Single frame files are kept on display for the hold time. The session is
always closed when streaming ends, also on Ctrl-C.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				if err := cmd.Flags().Set("file", args[0]); err != nil {
					return err
				}
			}

			cfg, err := loadConfig(cmd, f)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return run(ctx, cfg)
		},
	}

	fs := cmd.Flags()
	fs.StringVarP(&f.configPath, "config", "c", "", "Path to a YAML configuration file")

	fs.StringVarP(&f.server, "server", "s", "", "IP address or host name of the IDN-Hello server")
	fs.IntVar(&f.port, "port", protocol.DefaultPort, "UDP port of the IDN-Hello server")
	fs.IntVar(&f.clientGroup, "client-group", 0, "Client group (0..15)")
	fs.IntVar(&f.serviceID, "service-id", 0, "Service id (0..255, 0 for the default service)")
	fs.IntVar(&f.frameRate, "frame-rate", config.DefaultFrameRate, "Frames per second, at least 5")
	fs.BoolVar(&f.jitterFree, "jitter-free", false, "Scan frames only once to match the frame rate")
	fs.IntVar(&f.scanSpeed, "scan-speed", config.DefaultScanSpeed, "Points per second")
	fs.IntVar(&f.colorShift, "color-shift", 0, "Number of points the color lags behind the position")
	fs.IntVar(&f.hold, "hold", config.DefaultHold, "Seconds to display single frame files")

	fs.StringVarP(&f.file, "file", "f", "", "ILDA file to play, a local path or s3://bucket/key")
	fs.Float32Var(&f.scale, "scale", 1.0, "Coordinate scale factor")
	fs.BoolVar(&f.mirrorX, "mirror-x", false, "Mirror the x axis")
	fs.BoolVar(&f.mirrorY, "mirror-y", false, "Mirror the y axis")
	fs.StringVar(&f.palette, "palette", "default", "Initial palette: default (IDTF) or standard (ILDA)")
	fs.StringVar(&f.s3Region, "s3-region", config.DefaultS3Region, "Region of s3:// input files")
	fs.StringVar(&f.s3Endpoint, "s3-endpoint", "", "Custom endpoint for s3:// input files, uses path style addressing")

	fs.BoolVar(&f.httpEnabled, "http", false, "Serve status and metrics over HTTP while streaming")
	fs.StringVar(&f.httpAddress, "http-address", "127.0.0.1", "HTTP status server address")
	fs.IntVar(&f.httpPort, "http-port", 8080, "HTTP status server port")

	fs.StringVar(&f.logLevel, "log-level", "info", "Log level: debug, info, warn or error")
	fs.StringVar(&f.logFormat, "log-format", "text", "Log format: text or json")
	fs.StringVar(&f.logOutput, "log-output", "stderr", "Log output: stdout, stderr or a file path")

	return cmd
}

// loadConfig reads the configuration file, if any, and applies the flags
// given on the command line on top of it.
func loadConfig(cmd *cobra.Command, f *flags) (*config.Config, error) {
	cfg := config.Default()
	if f.configPath != "" {
		loaded, err := config.Load(f.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	changed := cmd.Flags().Changed
	if changed("server") {
		cfg.Stream.Server = f.server
	}
	if changed("port") {
		cfg.Stream.Port = f.port
	}
	if changed("client-group") {
		cfg.Stream.ClientGroup = f.clientGroup
	}
	if changed("service-id") {
		cfg.Stream.ServiceID = f.serviceID
	}
	if changed("frame-rate") {
		cfg.Stream.FrameRate = f.frameRate
	}
	if changed("jitter-free") {
		cfg.Stream.JitterFree = f.jitterFree
	}
	if changed("scan-speed") {
		cfg.Stream.ScanSpeed = f.scanSpeed
	}
	if changed("color-shift") {
		cfg.Stream.ColorShift = f.colorShift
	}
	if changed("hold") {
		cfg.Stream.Hold = f.hold
	}
	if changed("file") {
		cfg.Input.File = f.file
	}
	if changed("scale") {
		cfg.Input.Scale = f.scale
	}
	if changed("mirror-x") {
		cfg.Input.MirrorX = f.mirrorX
	}
	if changed("mirror-y") {
		cfg.Input.MirrorY = f.mirrorY
	}
	if changed("palette") {
		cfg.Input.Palette = f.palette
	}
	if changed("s3-region") {
		cfg.Input.S3.Region = f.s3Region
	}
	if changed("s3-endpoint") {
		cfg.Input.S3.Endpoint = f.s3Endpoint
		cfg.Input.S3.PathStyle = true
	}
	if changed("http") {
		cfg.HTTP.Enabled = f.httpEnabled
	}
	if changed("http-address") {
		cfg.HTTP.Address = f.httpAddress
	}
	if changed("http-port") {
		cfg.HTTP.Port = f.httpPort
	}
	if changed("log-level") {
		cfg.Logging.Level = f.logLevel
	}
	if changed("log-format") {
		cfg.Logging.Format = f.logFormat
	}
	if changed("log-output") {
		cfg.Logging.Output = f.logOutput
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Stream.Server == "" {
		return nil, errors.New("no IDN-Hello server given, use --server")
	}
	if cfg.Input.File == "" {
		return nil, errors.New("no ILDA file given, use --file")
	}
	return cfg, nil
}

// run streams the configured file and serves the status endpoints meanwhile.
func run(ctx context.Context, cfg *config.Config) error {
	logger, logCloser, err := cfg.Logging.NewLogger()
	if err != nil {
		return err
	}
	defer logCloser.Close()

	logger.Info("Player starting",
		slog.String("service", serviceName),
		slog.String("version", version),
		slog.String("server", cfg.Stream.Server),
		slog.Int("port", cfg.Stream.Port),
		slog.Int("client_group", cfg.Stream.ClientGroup),
		slog.String("file", cfg.Input.File),
	)

	sender, err := transport.NewUDPSender(cfg.Stream.Server, cfg.Stream.Port)
	if err != nil {
		return err
	}
	defer sender.Close()

	appMetrics := metrics.NewMetrics(nil)
	p := player.New(cfg, sender, transport.NewMonotonicClock(), logger, appMetrics)

	g, gctx := errgroup.WithContext(ctx)

	// The status server lives as long as the run.
	httpCtx, stopHTTP := context.WithCancel(gctx)
	defer stopHTTP()

	g.Go(func() error {
		defer stopHTTP()
		return p.Run(gctx)
	})

	if cfg.HTTP.Enabled {
		httpServer := server.NewHTTPServer(cfg.HTTP, logger, cfg, server.HTTPServerOptions{
			Service: serviceName,
			Status:  func() any { return p.Status() },
			Metrics: appMetrics,
		})
		g.Go(func() error {
			return httpServer.Run(httpCtx)
		})
	}

	err = g.Wait()
	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		logger.Info("Streaming interrupted", slog.String("run_id", p.RunID()))
		return nil
	}
	return err
}
