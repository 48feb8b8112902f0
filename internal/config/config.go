package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/chewxy/math32"
	"gopkg.in/yaml.v3"

	"github.com/skypro1111/idn-stream-player/internal/palette"
	"github.com/skypro1111/idn-stream-player/internal/protocol"
)

// Limits and defaults of the stream parameters
const (
	DefaultFrameRate  = 30
	MinFrameRate      = 5
	DefaultScanSpeed  = 30000
	DefaultHold       = 5
	MaxClientGroup    = 15
	MaxScale          = 256
	DefaultBufferSize = 0x10000
	DefaultS3Region   = "us-east-1"
	MaxColorShift     = 255
)

// Config represents the complete player and monitor configuration
type Config struct {
	Stream  StreamConfig  `yaml:"stream"`
	Input   InputConfig   `yaml:"input"`
	Monitor MonitorConfig `yaml:"monitor"`
	HTTP    HTTPConfig    `yaml:"http"`
	Logging LoggingConfig `yaml:"logging"`
}

// StreamConfig contains the IDN-Stream target and pacing parameters
type StreamConfig struct {
	Server      string `yaml:"server"`
	Port        int    `yaml:"port"`
	ClientGroup int    `yaml:"client_group"`
	ServiceID   int    `yaml:"service_id"`
	FrameRate   int    `yaml:"frame_rate"` // frames per second
	JitterFree  bool   `yaml:"jitter_free"`
	ScanSpeed   int    `yaml:"scan_speed"`  // samples per second
	ColorShift  int    `yaml:"color_shift"` // samples
	Hold        int    `yaml:"hold"`        // seconds, single frame files only
}

// InputConfig contains the ILDA file and coordinate transformation
type InputConfig struct {
	File    string   `yaml:"file"` // Local path or s3://bucket/key
	Scale   float32  `yaml:"scale"`
	MirrorX bool     `yaml:"mirror_x"`
	MirrorY bool     `yaml:"mirror_y"`
	Palette string   `yaml:"palette"` // "default" or "standard"
	S3      S3Config `yaml:"s3"`
}

// S3Config locates the object store for s3:// input files. Credentials are
// taken from AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY and AWS_SESSION_TOKEN.
type S3Config struct {
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"` // Empty for AWS
	PathStyle bool   `yaml:"path_style"`
}

// MonitorConfig contains the IDN monitor UDP listener configuration
type MonitorConfig struct {
	BindAddress    string `yaml:"bind_address"`
	UDPPort        int    `yaml:"udp_port"`
	BufferSize     int    `yaml:"buffer_size"`
	SessionTimeout int    `yaml:"session_timeout"` // seconds
}

// HTTPConfig contains HTTP status server configuration
type HTTPConfig struct {
	Port    int    `yaml:"port"`
	Address string `yaml:"address"`
	Enabled bool   `yaml:"enabled"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Stream: StreamConfig{
			Port:        protocol.DefaultPort,
			FrameRate:   DefaultFrameRate,
			ScanSpeed:   DefaultScanSpeed,
			Hold:        DefaultHold,
			ClientGroup: 0,
			ServiceID:   0,
		},
		Input: InputConfig{
			Scale:   1.0,
			Palette: "default",
			S3:      S3Config{Region: DefaultS3Region},
		},
		Monitor: MonitorConfig{
			BindAddress:    "0.0.0.0",
			UDPPort:        protocol.DefaultPort,
			BufferSize:     DefaultBufferSize,
			SessionTimeout: 10,
		},
		HTTP: HTTPConfig{
			Port:    8080,
			Address: "127.0.0.1",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
	}
}

// Load reads and parses the configuration file on top of the defaults
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// Validate performs comprehensive validation of the configuration. The input
// file and the server address are checked by the commands that need them.
func (c *Config) Validate() error {
	if err := c.Stream.Validate(); err != nil {
		return fmt.Errorf("stream config: %w", err)
	}

	if err := c.Input.Validate(); err != nil {
		return fmt.Errorf("input config: %w", err)
	}

	if err := c.Monitor.Validate(); err != nil {
		return fmt.Errorf("monitor config: %w", err)
	}

	if err := c.HTTP.Validate(); err != nil {
		return fmt.Errorf("http config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	return nil
}

// Validate validates stream configuration
func (s *StreamConfig) Validate() error {
	if s.Port < 1 || s.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", s.Port)
	}

	if s.ClientGroup < 0 || s.ClientGroup > MaxClientGroup {
		return fmt.Errorf("client_group must be between 0 and %d, got %d", MaxClientGroup, s.ClientGroup)
	}

	if s.ServiceID < 0 || s.ServiceID > 255 {
		return fmt.Errorf("service_id must be between 0 and 255, got %d", s.ServiceID)
	}

	if s.FrameRate < MinFrameRate {
		return fmt.Errorf("frame_rate must be at least %d, got %d", MinFrameRate, s.FrameRate)
	}

	if s.ScanSpeed < 1 {
		return fmt.Errorf("scan_speed must be positive, got %d", s.ScanSpeed)
	}

	if s.ColorShift < 0 || s.ColorShift > MaxColorShift {
		return fmt.Errorf("color_shift must be between 0 and %d, got %d", MaxColorShift, s.ColorShift)
	}

	if s.Hold < 0 {
		return fmt.Errorf("hold cannot be negative, got %d", s.Hold)
	}

	return nil
}

// Validate validates input configuration
func (i *InputConfig) Validate() error {
	if math32.IsNaN(i.Scale) || math32.IsInf(i.Scale, 0) || math32.Abs(i.Scale) > MaxScale {
		return fmt.Errorf("scale must be a finite value within +/-%d, got %v", MaxScale, i.Scale)
	}

	if _, err := palette.ParseOption(i.Palette); err != nil {
		return fmt.Errorf("palette: %w", err)
	}

	if strings.HasPrefix(i.File, "s3://") && i.S3.Region == "" {
		return fmt.Errorf("s3 region is required for %s", i.File)
	}

	return nil
}

// Validate validates monitor configuration
func (m *MonitorConfig) Validate() error {
	if m.UDPPort < 1 || m.UDPPort > 65535 {
		return fmt.Errorf("udp_port must be between 1 and 65535, got %d", m.UDPPort)
	}

	if m.BindAddress == "" {
		return fmt.Errorf("bind_address cannot be empty")
	}

	if m.BufferSize < protocol.PacketHeaderSize+protocol.MaxMessageLen {
		return fmt.Errorf("buffer_size must hold a full IDN message (%d bytes), got %d",
			protocol.PacketHeaderSize+protocol.MaxMessageLen, m.BufferSize)
	}

	if m.SessionTimeout < 1 {
		return fmt.Errorf("session_timeout must be at least 1 second, got %d", m.SessionTimeout)
	}

	return nil
}

// Validate validates HTTP configuration
func (h *HTTPConfig) Validate() error {
	if h.Enabled {
		if h.Port < 1 || h.Port > 65535 {
			return fmt.Errorf("http port must be between 1 and 65535, got %d", h.Port)
		}

		if h.Address == "" {
			return fmt.Errorf("http address cannot be empty when HTTP is enabled")
		}
	}

	return nil
}

// Validate validates logging configuration
func (l *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[l.Level] {
		return fmt.Errorf("level must be one of [debug, info, warn, error], got '%s'", l.Level)
	}

	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("format must be 'json' or 'text', got '%s'", l.Format)
	}

	// Anything but stdout and stderr is a file path.
	if l.Output == "" {
		return fmt.Errorf("output cannot be empty")
	}

	return nil
}

// GetFramePeriod returns the target time between frames
func (s *StreamConfig) GetFramePeriod() time.Duration {
	return time.Second / time.Duration(s.FrameRate)
}

// GetHoldDuration returns the hold time as a time.Duration
func (s *StreamConfig) GetHoldDuration() time.Duration {
	return time.Duration(s.Hold) * time.Second
}

// GetPaletteOption returns the initial palette selection
func (i *InputConfig) GetPaletteOption() palette.Option {
	opt, err := palette.ParseOption(i.Palette)
	if err != nil {
		return palette.OptionIDTFDefault
	}
	return opt
}

// GetSessionTimeoutDuration returns the monitor session timeout as a time.Duration
func (m *MonitorConfig) GetSessionTimeoutDuration() time.Duration {
	return time.Duration(m.SessionTimeout) * time.Second
}
