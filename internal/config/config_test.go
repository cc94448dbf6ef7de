package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func validConfig() *Config {
	cfg := Default()
	cfg.Transcription.APIKey = "test-key"
	return cfg
}

func TestDefaultConfigValidates(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Expected default config with API key to validate, got: %v", err)
	}

	if cfg.Analysis.HopLength != 512 || cfg.Analysis.FrameLength != 2048 {
		t.Errorf("Unexpected frame parameters: %d/%d", cfg.Analysis.FrameLength, cfg.Analysis.HopLength)
	}
	if cfg.Analysis.PitchVariationThreshold != 20 || cfg.Analysis.IntensityVariationThreshold != 5 {
		t.Errorf("Unexpected style thresholds: %v/%v",
			cfg.Analysis.PitchVariationThreshold, cfg.Analysis.IntensityVariationThreshold)
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(*Config)
		expectError bool
		errorMsg    string
	}{
		{
			name:        "valid configuration",
			mutate:      func(*Config) {},
			expectError: false,
		},
		{
			name:        "invalid http port",
			mutate:      func(c *Config) { c.HTTP.Port = 70000 },
			expectError: true,
			errorMsg:    "http port must be between 1 and 65535",
		},
		{
			name:        "zero upload limit",
			mutate:      func(c *Config) { c.Audio.MaxFileSizeMB = 0 },
			expectError: true,
			errorMsg:    "max_file_size_mb must be at least 1",
		},
		{
			name:        "even median window",
			mutate:      func(c *Config) { c.Analysis.MedianWindow = 4 },
			expectError: true,
			errorMsg:    "median_window must be a positive odd number",
		},
		{
			name:        "hop longer than frame",
			mutate:      func(c *Config) { c.Analysis.HopLength = 4096 },
			expectError: true,
			errorMsg:    "hop_length must be between 1 and frame_length",
		},
		{
			name:        "inverted pitch range",
			mutate:      func(c *Config) { c.Analysis.MaxPitch = 40 },
			expectError: true,
			errorMsg:    "max_pitch",
		},
		{
			name:        "zero extraction timeout",
			mutate:      func(c *Config) { c.Timeouts.Extraction = 0 },
			expectError: true,
			errorMsg:    "extraction must be at least 1 second",
		},
		{
			name:        "missing api key",
			mutate:      func(c *Config) { c.Transcription.APIKey = "" },
			expectError: true,
			errorMsg:    "api_key cannot be empty",
		},
		{
			name: "missing api key with transcription disabled",
			mutate: func(c *Config) {
				c.Transcription.APIKey = ""
				c.Transcription.Enabled = false
			},
			expectError: false,
		},
		{
			name:        "unknown transcription mode",
			mutate:      func(c *Config) { c.Transcription.Mode = "streaming" },
			expectError: true,
			errorMsg:    "mode must be 'combined' or 'separate'",
		},
		{
			name:        "invalid log level",
			mutate:      func(c *Config) { c.Logging.Level = "verbose" },
			expectError: true,
			errorMsg:    "level must be one of",
		},
		{
			name:        "zero dpi",
			mutate:      func(c *Config) { c.Visualization.DPI = 0 },
			expectError: true,
			errorMsg:    "dpi must be at least 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.expectError {
				if err == nil {
					t.Errorf("Expected error but got none")
				} else if tt.errorMsg != "" && !strings.Contains(err.Error(), tt.errorMsg) {
					t.Errorf("Expected error to contain '%s', got '%s'", tt.errorMsg, err.Error())
				}
			} else if err != nil {
				t.Errorf("Expected no error but got: %v", err)
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
		check       func(t *testing.T, c *Config)
	}{
		{
			name: "partial file keeps defaults",
			configYAML: `
http:
  port: 9000
transcription:
  api_key: "file-key"
  mode: separate
`,
			check: func(t *testing.T, c *Config) {
				if c.HTTP.Port != 9000 {
					t.Errorf("Expected port 9000, got %d", c.HTTP.Port)
				}
				if c.Transcription.Mode != ModeSeparate {
					t.Errorf("Expected separate mode, got %s", c.Transcription.Mode)
				}
				if c.Audio.MaxFileSizeMB != 50 {
					t.Errorf("Expected default max file size, got %d", c.Audio.MaxFileSizeMB)
				}
				if c.Analysis.MedianWindow != 5 {
					t.Errorf("Expected default median window, got %d", c.Analysis.MedianWindow)
				}
			},
		},
		{
			name: "invalid yaml",
			configYAML: `
http:
  port: [not a number
`,
			expectError: true,
			errorMsg:    "failed to parse config file",
		},
		{
			name: "fails validation",
			configYAML: `
transcription:
  api_key: "file-key"
analysis:
  median_window: 0
`,
			expectError: true,
			errorMsg:    "config validation failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configPath := filepath.Join(tempDir, strings.ReplaceAll(tt.name, " ", "_")+".yaml")
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
			if tt.check != nil {
				tt.check(t, config)
			}
		})
	}
}

func TestParseDefersValidation(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte("logging:\n  level: debug\n"), 0644); err != nil {
		t.Fatalf("Failed to create test config file: %v", err)
	}

	cfg, err := Parse(configPath)
	if err != nil {
		t.Fatalf("Parse should not validate, got: %v", err)
	}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("Expected validation to fail without an API key")
	}

	cfg.Transcription.APIKey = "env-key"
	if err := cfg.Validate(); err != nil {
		t.Errorf("Expected override to fix validation, got: %v", err)
	}
}

func TestConfigLoadNonexistentFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	if err == nil {
		t.Errorf("Expected error for nonexistent file but got none")
	}
	if !strings.Contains(err.Error(), "failed to read config file") {
		t.Errorf("Expected error about reading file, got: %v", err)
	}
}

func TestDurationHelpers(t *testing.T) {
	cfg := Default()

	if cfg.Timeouts.GetExtractionDuration() != 60*time.Second {
		t.Errorf("Expected 60 seconds, got %v", cfg.Timeouts.GetExtractionDuration())
	}

	if cfg.Timeouts.GetTranscriptionDuration() != 30*time.Second {
		t.Errorf("Expected 30 seconds, got %v", cfg.Timeouts.GetTranscriptionDuration())
	}

	if cfg.Timeouts.GetReportDuration() != 30*time.Second {
		t.Errorf("Expected 30 seconds, got %v", cfg.Timeouts.GetReportDuration())
	}

	if cfg.HTTP.GetReadTimeoutDuration() != 120*time.Second {
		t.Errorf("Expected 120 seconds, got %v", cfg.HTTP.GetReadTimeoutDuration())
	}

	if cfg.Audio.GetMaxFileSizeBytes() != 50*1024*1024 {
		t.Errorf("Expected 50 MiB, got %d", cfg.Audio.GetMaxFileSizeBytes())
	}

	if cfg.Audio.GetDownsampleThresholdBytes() != 10*1024*1024 {
		t.Errorf("Expected 10 MiB, got %d", cfg.Audio.GetDownsampleThresholdBytes())
	}
}
