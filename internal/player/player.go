package player

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/skypro1111/idn-stream-player/internal/config"
	"github.com/skypro1111/idn-stream-player/internal/ilda"
	"github.com/skypro1111/idn-stream-player/internal/metrics"
	"github.com/skypro1111/idn-stream-player/internal/source"
	"github.com/skypro1111/idn-stream-player/internal/stream"
)

const (
	tracerName = "idn-stream-player"

	// KeepaliveInterval is the time between keepalives while holding a
	// single frame.
	KeepaliveInterval = 100 * time.Millisecond
)

// State is the lifecycle state of a run
type State string

const (
	StateIdle      State = "idle"
	StateStreaming State = "streaming"
	StateHolding   State = "holding"
	StateClosed    State = "closed"
	StateFailed    State = "failed"
)

// Status is a snapshot of the player for the status server
type Status struct {
	RunID     string              `json:"run_id"`
	State     State               `json:"state"`
	File      string              `json:"file,omitempty"`
	StartedAt time.Time           `json:"started_at,omitzero"`
	Elapsed   string              `json:"elapsed,omitempty"`
	Decoded   ilda.Stats          `json:"decoded"`
	Session   stream.SessionStats `json:"session"`
	Error     string              `json:"error,omitempty"`
}

// Player streams one ILDA file to one IDN server and closes the session.
type Player struct {
	config  *config.Config
	session *stream.Session
	encoder *stream.Encoder
	clock   stream.Clock
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  trace.Tracer
	runID   string

	mu        sync.RWMutex
	state     State
	file      string
	startedAt time.Time
	decoded   ilda.Stats
	lastErr   error
}

// New creates a player sending through sender. m may be nil.
func New(cfg *config.Config, sender stream.Sender, clock stream.Clock, logger *slog.Logger, m *metrics.Metrics) *Player {
	if logger == nil {
		logger = slog.Default()
	}

	runID := uuid.NewString()
	logger = logger.With(slog.String("run_id", runID))

	session := stream.NewSession(sender, clock, uint8(cfg.Stream.ClientGroup), logger, m)
	encoder := stream.NewEncoder(session, stream.EncoderConfig{
		ServiceID:   uint8(cfg.Stream.ServiceID),
		FramePeriod: cfg.Stream.GetFramePeriod(),
		ScanSpeed:   uint32(cfg.Stream.ScanSpeed),
		ColorShift:  cfg.Stream.ColorShift,
		JitterFree:  cfg.Stream.JitterFree,
	}, logger, m)

	return &Player{
		config:  cfg,
		session: session,
		encoder: encoder,
		clock:   clock,
		logger:  logger,
		metrics: m,
		tracer:  otel.Tracer(tracerName),
		runID:   runID,
		state:   StateIdle,
	}
}

// RunID returns the identifier attached to the logs and spans of this player
func (p *Player) RunID() string {
	return p.runID
}

// Run opens the configured input file, local or s3://, and streams it.
func (p *Player) Run(ctx context.Context) error {
	path := p.config.Input.File
	if path == "" {
		return errors.New("no input file configured")
	}

	f, err := source.Open(ctx, path, p.config.Input.S3)
	if err != nil {
		p.fail(err)
		return err
	}
	defer f.Close()

	p.mu.Lock()
	p.file = path
	p.mu.Unlock()

	return p.RunReader(ctx, f)
}

// RunReader streams the ILDA data read from r. A file holding a single frame
// is kept alive for the configured hold time. The session is always closed,
// also when decoding fails or ctx is cancelled.
func (p *Player) RunReader(ctx context.Context, r io.Reader) error {
	ctx, span := p.tracer.Start(ctx, "player.run",
		trace.WithAttributes(
			attribute.String("player.run_id", p.runID),
			attribute.String("player.file", p.config.Input.File),
			attribute.Int("idn.client_group", p.config.Stream.ClientGroup),
			attribute.Int("idn.frame_rate", p.config.Stream.FrameRate),
		),
	)
	defer span.End()

	p.mu.Lock()
	p.state = StateStreaming
	p.startedAt = time.Now()
	p.mu.Unlock()

	p.logger.Info("Streaming started",
		slog.String("file", p.config.Input.File),
		slog.Int("frame_rate", p.config.Stream.FrameRate),
		slog.Int("scan_speed", p.config.Stream.ScanSpeed),
		slog.Int("color_shift", p.config.Stream.ColorShift),
		slog.Bool("jitter_free", p.config.Stream.JitterFree),
	)

	decoder := ilda.NewDecoder(p.decoderOptions())
	consumer := &tracingConsumer{ctx: ctx, tracer: p.tracer, next: p.encoder}

	err := decoder.Decode(r, consumer)
	consumer.endFrame(err)

	p.mu.Lock()
	p.decoded = decoder.Stats()
	p.mu.Unlock()

	if err != nil {
		if kind := ilda.KindName(err); kind != "" {
			p.metrics.RecordDecodeError(kind)
		}
	} else if p.encoder.FrameCount() == 1 {
		err = p.hold(ctx)
	}

	closeErr := p.encoder.Close()
	if closeErr != nil {
		if err == nil {
			err = closeErr
		} else {
			p.logger.Error("Failed to close session", slog.String("error", closeErr.Error()))
		}
	}

	stats := p.session.Stats()
	span.SetAttributes(
		attribute.Int64("player.frames", int64(stats.Frames)),
		attribute.Int64("idn.packets", int64(stats.Packets)),
	)

	if err != nil {
		p.fail(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	p.mu.Lock()
	p.state = StateClosed
	p.mu.Unlock()
	span.SetStatus(codes.Ok, "")

	p.logger.Info("Streaming finished",
		slog.Uint64("frames", stats.Frames),
		slog.Uint64("packets", stats.Packets),
		slog.Uint64("bytes", stats.Bytes),
		slog.Uint64("keepalives", stats.Keepalives),
		slog.Duration("elapsed", time.Since(p.startTime())),
	)
	return nil
}

// hold keeps a single frame file on display by sending keepalives. A hold of
// zero skips it.
func (p *Player) hold(ctx context.Context) error {
	iterations := int(p.config.Stream.GetHoldDuration() / KeepaliveInterval)
	if iterations <= 0 {
		return nil
	}

	p.mu.Lock()
	p.state = StateHolding
	p.mu.Unlock()

	p.logger.Info("Holding single frame", slog.Duration("hold", p.config.Stream.GetHoldDuration()))

	for i := 0; i < iterations; i++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("hold interrupted: %w", err)
		}
		p.clock.Sleep(KeepaliveInterval)
		if err := p.encoder.SendVoid(); err != nil {
			return err
		}
	}
	return nil
}

// Status returns a snapshot of the run. Safe for concurrent use.
func (p *Player) Status() Status {
	p.mu.RLock()
	defer p.mu.RUnlock()

	s := Status{
		RunID:     p.runID,
		State:     p.state,
		File:      p.file,
		StartedAt: p.startedAt,
		Decoded:   p.decoded,
		Session:   p.session.Stats(),
	}
	if !p.startedAt.IsZero() {
		s.Elapsed = time.Since(p.startedAt).Round(time.Millisecond).String()
	}
	if p.lastErr != nil {
		s.Error = p.lastErr.Error()
	}
	return s
}

// decoderOptions maps the input config onto the decoder options.
func (p *Player) decoderOptions() ilda.Options {
	in := p.config.Input
	opts := ilda.DefaultOptions()
	opts.XScale = ilda.AxisScale(in.Scale, in.MirrorX)
	opts.YScale = ilda.AxisScale(in.Scale, in.MirrorY)
	opts.Palette = in.GetPaletteOption()
	opts.Logger = p.logger
	return opts
}

func (p *Player) fail(err error) {
	p.mu.Lock()
	p.state = StateFailed
	p.lastErr = err
	p.mu.Unlock()
}

func (p *Player) startTime() time.Time {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.startedAt
}

// tracingConsumer stops decoding between frames once ctx is done and wraps
// every frame in a span.
type tracingConsumer struct {
	ctx     context.Context
	tracer  trace.Tracer
	next    ilda.FrameConsumer
	span    trace.Span
	frame   int
	samples int
}

func (c *tracingConsumer) OpenFrame() error {
	if err := c.ctx.Err(); err != nil {
		return err
	}

	_, c.span = c.tracer.Start(c.ctx, "player.frame",
		trace.WithAttributes(attribute.Int("player.frame_index", c.frame)))
	c.samples = 0

	if err := c.next.OpenFrame(); err != nil {
		c.endFrame(err)
		return err
	}
	return nil
}

func (c *tracingConsumer) PutSample(x, y int16, r, g, b uint8) error {
	c.samples++
	return c.next.PutSample(x, y, r, g, b)
}

func (c *tracingConsumer) PushFrame() error {
	err := c.next.PushFrame()
	c.endFrame(err)
	if err == nil {
		c.frame++
	}
	return err
}

// endFrame ends the open frame span, if any.
func (c *tracingConsumer) endFrame(err error) {
	if c.span == nil {
		return
	}
	c.span.SetAttributes(attribute.Int("player.samples", c.samples))
	if err != nil {
		c.span.RecordError(err)
		c.span.SetStatus(codes.Error, err.Error())
	}
	c.span.End()
	c.span = nil
}
