package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/chewxy/math32"

	"github.com/skypro1111/idn-stream-player/internal/palette"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Expected default config to be valid, got: %v", err)
	}

	if cfg.Stream.Port != 7255 {
		t.Errorf("Expected port 7255, got %d", cfg.Stream.Port)
	}
	if cfg.Stream.FrameRate != 30 || cfg.Stream.ScanSpeed != 30000 || cfg.Stream.Hold != 5 {
		t.Errorf("Unexpected stream defaults %+v", cfg.Stream)
	}
	if cfg.Input.Scale != 1.0 || cfg.Input.Palette != "default" {
		t.Errorf("Unexpected input defaults %+v", cfg.Input)
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name     string
		modify   func(*Config)
		errorMsg string
	}{
		{"valid configuration", func(c *Config) {}, ""},
		{"port too high", func(c *Config) { c.Stream.Port = 70000 }, "port must be between"},
		{"client group too high", func(c *Config) { c.Stream.ClientGroup = 16 }, "client_group"},
		{"negative client group", func(c *Config) { c.Stream.ClientGroup = -1 }, "client_group"},
		{"service id too high", func(c *Config) { c.Stream.ServiceID = 256 }, "service_id"},
		{"frame rate below minimum", func(c *Config) { c.Stream.FrameRate = 4 }, "frame_rate must be at least 5"},
		{"minimum frame rate", func(c *Config) { c.Stream.FrameRate = 5 }, ""},
		{"zero scan speed", func(c *Config) { c.Stream.ScanSpeed = 0 }, "scan_speed"},
		{"negative color shift", func(c *Config) { c.Stream.ColorShift = -1 }, "color_shift"},
		{"color shift too large", func(c *Config) { c.Stream.ColorShift = MaxColorShift + 1 }, "color_shift"},
		{"negative hold", func(c *Config) { c.Stream.Hold = -1 }, "hold"},
		{"negative scale", func(c *Config) { c.Input.Scale = -2 }, ""},
		{"scale too large", func(c *Config) { c.Input.Scale = 300 }, "scale"},
		{"scale NaN", func(c *Config) { c.Input.Scale = math32.NaN() }, "scale"},
		{"scale infinite", func(c *Config) { c.Input.Scale = math32.Inf(1) }, "scale"},
		{"unknown palette", func(c *Config) { c.Input.Palette = "rainbow" }, "palette"},
		{"standard palette", func(c *Config) { c.Input.Palette = "standard" }, ""},
		{"s3 input without region", func(c *Config) { c.Input.File = "s3://shows/a.ild"; c.Input.S3.Region = "" }, "s3 region"},
		{"local input without region", func(c *Config) { c.Input.File = "a.ild"; c.Input.S3.Region = "" }, ""},
		{"monitor buffer too small", func(c *Config) { c.Monitor.BufferSize = 1500 }, "buffer_size"},
		{"monitor empty bind address", func(c *Config) { c.Monitor.BindAddress = "" }, "bind_address"},
		{"http enabled without port", func(c *Config) { c.HTTP.Enabled = true; c.HTTP.Port = 0 }, "http port"},
		{"http disabled without port", func(c *Config) { c.HTTP.Port = 0 }, ""},
		{"invalid log level", func(c *Config) { c.Logging.Level = "trace" }, "level must be one of"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			err := cfg.Validate()

			if tt.errorMsg == "" {
				if err != nil {
					t.Errorf("Expected no error but got: %v", err)
				}
				return
			}
			if err == nil {
				t.Errorf("Expected error but got none")
			} else if !strings.Contains(err.Error(), tt.errorMsg) {
				t.Errorf("Expected error to contain '%s', got '%s'", tt.errorMsg, err.Error())
			}
		})
	}
}

func TestConfigLoad(t *testing.T) {
	tempDir := t.TempDir()

	tests := []struct {
		name        string
		configYAML  string
		expectError bool
		errorMsg    string
		validate    func(*Config) bool
	}{
		{
			name: "valid config file",
			configYAML: `
stream:
  server: "192.168.1.20"
  client_group: 3
  service_id: 1
  frame_rate: 25
  jitter_free: true
  scan_speed: 20000
  color_shift: 2
  hold: 10
input:
  file: "show.ild"
  scale: 0.5
  mirror_x: true
  palette: "standard"
http:
  enabled: true
  port: 9090
  address: "0.0.0.0"
logging:
  level: "debug"
  format: "json"
  output: "stdout"
`,
			validate: func(c *Config) bool {
				return c.Stream.Server == "192.168.1.20" && c.Stream.ClientGroup == 3 &&
					c.Stream.FrameRate == 25 && c.Stream.JitterFree && c.Stream.ColorShift == 2 &&
					c.Input.Scale == 0.5 && c.Input.MirrorX && c.HTTP.Port == 9090 &&
					c.Stream.Port == 7255 // Default kept
			},
		},
		{
			name:       "partial file keeps defaults",
			configYAML: "stream:\n  server: \"10.0.0.1\"\n",
			validate: func(c *Config) bool {
				return c.Stream.FrameRate == DefaultFrameRate && c.Input.Scale == 1 && c.Logging.Level == "info"
			},
		},
		{
			name: "invalid YAML syntax",
			configYAML: `
stream:
  frame_rate: fast
`,
			expectError: true,
			errorMsg:    "failed to parse",
		},
		{
			name: "invalid value",
			configYAML: `
stream:
  frame_rate: 2
`,
			expectError: true,
			errorMsg:    "frame_rate",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configPath := filepath.Join(tempDir, "config.yaml")
			if err := os.WriteFile(configPath, []byte(tt.configYAML), 0644); err != nil {
				t.Fatalf("Failed to create test config file: %v", err)
			}

			config, err := Load(configPath)

			if tt.expectError {
				if err == nil {
					t.Errorf("Expected error but got none")
				} else if !strings.Contains(err.Error(), tt.errorMsg) {
					t.Errorf("Expected error to contain '%s', got '%s'", tt.errorMsg, err.Error())
				}
				return
			}
			if err != nil {
				t.Fatalf("Expected no error but got: %v", err)
			}
			if tt.validate != nil && !tt.validate(config) {
				t.Errorf("Validation failed for config: %+v", config)
			}
		})
	}
}

func TestConfigLoadNonexistentFile(t *testing.T) {
	_, err := Load("nonexistent.yaml")
	if err == nil {
		t.Fatalf("Expected error for nonexistent file but got none")
	}
	if !strings.Contains(err.Error(), "failed to read config file") {
		t.Errorf("Expected error about reading file, got: %v", err)
	}
}

func TestHelpers(t *testing.T) {
	s := StreamConfig{FrameRate: 30, Hold: 5}
	if s.GetFramePeriod() != 33333333*time.Nanosecond {
		t.Errorf("Expected 33.333333ms, got %v", s.GetFramePeriod())
	}
	if s.GetHoldDuration() != 5*time.Second {
		t.Errorf("Expected 5 seconds, got %v", s.GetHoldDuration())
	}

	in := InputConfig{Scale: 0.5, MirrorY: true, Palette: "standard"}
	if in.GetPaletteOption() != palette.OptionILDAStandard {
		t.Errorf("Expected standard palette, got %v", in.GetPaletteOption())
	}

	m := MonitorConfig{SessionTimeout: 10}
	if m.GetSessionTimeoutDuration() != 10*time.Second {
		t.Errorf("Expected 10 seconds, got %v", m.GetSessionTimeoutDuration())
	}
}
