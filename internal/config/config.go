package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete service configuration
type Config struct {
	HTTP          HTTPConfig          `yaml:"http"`
	Audio         AudioConfig         `yaml:"audio"`
	Analysis      AnalysisConfig      `yaml:"analysis"`
	Timeouts      TimeoutsConfig      `yaml:"timeouts"`
	Transcription TranscriptionConfig `yaml:"transcription"`
	Visualization VisualizationConfig `yaml:"visualization"`
	Logging       LoggingConfig       `yaml:"logging"`
}

// HTTPConfig contains HTTP API server configuration
type HTTPConfig struct {
	Port           int      `yaml:"port"`
	Address        string   `yaml:"address"`
	ReadTimeout    int      `yaml:"read_timeout"`  // seconds
	WriteTimeout   int      `yaml:"write_timeout"` // seconds
	TempDir        string   `yaml:"temp_dir"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// AudioConfig contains upload and decoding parameters
type AudioConfig struct {
	MaxFileSizeMB         int      `yaml:"max_file_size_mb"`
	SupportedFormats      []string `yaml:"supported_formats"`
	DownsampleThresholdMB int      `yaml:"downsample_threshold_mb"`
	DownsampleRate        int      `yaml:"downsample_rate"`
	FFmpegPath            string   `yaml:"ffmpeg_path"`
	FFprobePath           string   `yaml:"ffprobe_path"`
	Workers               int      `yaml:"workers"`
	QueueSize             int      `yaml:"queue_size"`
}

// AnalysisConfig contains the acoustic feature extraction parameters
type AnalysisConfig struct {
	FrameLength                 int     `yaml:"frame_length"` // samples
	HopLength                   int     `yaml:"hop_length"`   // samples
	MinPitch                    float64 `yaml:"min_pitch"`    // Hz
	MaxPitch                    float64 `yaml:"max_pitch"`    // Hz
	PitchFloor                  float64 `yaml:"pitch_floor"`  // Hz
	PeakThreshold               float64 `yaml:"peak_threshold"`
	MedianWindow                int     `yaml:"median_window"` // frames
	BlockSize                   int     `yaml:"block_size"`    // frames
	PitchVariationThreshold     float64 `yaml:"pitch_variation_threshold"`
	IntensityVariationThreshold float64 `yaml:"intensity_variation_threshold"`
}

// TimeoutsConfig bounds the blocking phases of a single analysis
type TimeoutsConfig struct {
	Extraction    int `yaml:"extraction"`    // seconds
	Transcription int `yaml:"transcription"` // seconds
	Report        int `yaml:"report"`        // seconds
	Shutdown      int `yaml:"shutdown"`      // seconds
}

// TranscriptionConfig contains generative model API configuration
type TranscriptionConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Endpoint      string `yaml:"endpoint"`
	APIKey        string `yaml:"api_key"`
	Model         string `yaml:"model"`
	Mode          string `yaml:"mode"`
	MaxConcurrent int    `yaml:"max_concurrent"`
}

// VisualizationConfig controls the pitch contour image
type VisualizationConfig struct {
	Enabled  bool    `yaml:"enabled"`
	Width    float64 `yaml:"width"`  // inches
	Height   float64 `yaml:"height"` // inches
	DPI      int     `yaml:"dpi"`
	MaxPitch float64 `yaml:"max_pitch"` // Hz
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

const (
	ModeCombined = "combined"
	ModeSeparate = "separate"
)

// Default returns a configuration that runs the service without a config file.
func Default() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Port:           8000,
			Address:        "0.0.0.0",
			ReadTimeout:    120,
			WriteTimeout:   180,
			AllowedOrigins: []string{"*"},
		},
		Audio: AudioConfig{
			MaxFileSizeMB:         50,
			SupportedFormats:      []string{".mp3", ".wav", ".m4a", ".flac"},
			DownsampleThresholdMB: 10,
			DownsampleRate:        22050,
			FFmpegPath:            "ffmpeg",
			FFprobePath:           "ffprobe",
			Workers:               4,
			QueueSize:             16,
		},
		Analysis: AnalysisConfig{
			FrameLength:                 2048,
			HopLength:                   512,
			MinPitch:                    50,
			MaxPitch:                    800,
			PitchFloor:                  50,
			PeakThreshold:               0.1,
			MedianWindow:                5,
			BlockSize:                   100,
			PitchVariationThreshold:     20,
			IntensityVariationThreshold: 5,
		},
		Timeouts: TimeoutsConfig{
			Extraction:    60,
			Transcription: 30,
			Report:        30,
			Shutdown:      10,
		},
		Transcription: TranscriptionConfig{
			Enabled:       true,
			Endpoint:      "https://generativelanguage.googleapis.com/v1beta",
			Model:         "gemini-2.0-flash",
			Mode:          ModeCombined,
			MaxConcurrent: 8,
		},
		Visualization: VisualizationConfig{
			Enabled:  true,
			Width:    10,
			Height:   5,
			DPI:      72,
			MaxPitch: 800,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// Parse reads the configuration file on top of Default without validating it,
// so callers can apply overrides (flags, environment) before Validate.
func Parse(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return config, nil
}

// Load reads, parses and validates the configuration file
func Load(path string) (*Config, error) {
	config, err := Parse(path)
	if err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// Validate performs comprehensive validation of the configuration
func (c *Config) Validate() error {
	if err := c.HTTP.Validate(); err != nil {
		return fmt.Errorf("http config: %w", err)
	}

	if err := c.Audio.Validate(); err != nil {
		return fmt.Errorf("audio config: %w", err)
	}

	if err := c.Analysis.Validate(); err != nil {
		return fmt.Errorf("analysis config: %w", err)
	}

	if err := c.Timeouts.Validate(); err != nil {
		return fmt.Errorf("timeouts config: %w", err)
	}

	if err := c.Transcription.Validate(); err != nil {
		return fmt.Errorf("transcription config: %w", err)
	}

	if err := c.Visualization.Validate(); err != nil {
		return fmt.Errorf("visualization config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	return nil
}

// Validate validates HTTP configuration
func (h *HTTPConfig) Validate() error {
	if h.Port < 1 || h.Port > 65535 {
		return fmt.Errorf("http port must be between 1 and 65535, got %d", h.Port)
	}

	if h.Address == "" {
		return fmt.Errorf("http address cannot be empty")
	}

	if h.ReadTimeout < 1 {
		return fmt.Errorf("read_timeout must be at least 1 second, got %d", h.ReadTimeout)
	}

	if h.WriteTimeout < 1 {
		return fmt.Errorf("write_timeout must be at least 1 second, got %d", h.WriteTimeout)
	}

	return nil
}

// Validate validates audio configuration
func (a *AudioConfig) Validate() error {
	if a.MaxFileSizeMB < 1 {
		return fmt.Errorf("max_file_size_mb must be at least 1, got %d", a.MaxFileSizeMB)
	}

	if len(a.SupportedFormats) == 0 {
		return fmt.Errorf("supported_formats cannot be empty")
	}

	if a.DownsampleThresholdMB < 0 {
		return fmt.Errorf("downsample_threshold_mb cannot be negative, got %d", a.DownsampleThresholdMB)
	}

	if a.DownsampleRate < 8000 {
		return fmt.Errorf("downsample_rate must be at least 8000 Hz, got %d", a.DownsampleRate)
	}

	if a.FFmpegPath == "" {
		return fmt.Errorf("ffmpeg_path cannot be empty")
	}

	if a.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", a.Workers)
	}

	if a.QueueSize < 0 {
		return fmt.Errorf("queue_size cannot be negative, got %d", a.QueueSize)
	}

	return nil
}

// Validate validates analysis configuration
func (a *AnalysisConfig) Validate() error {
	if a.FrameLength < 64 {
		return fmt.Errorf("frame_length must be at least 64 samples, got %d", a.FrameLength)
	}

	if a.HopLength < 1 || a.HopLength > a.FrameLength {
		return fmt.Errorf("hop_length must be between 1 and frame_length (%d), got %d", a.FrameLength, a.HopLength)
	}

	if a.MinPitch <= 0 {
		return fmt.Errorf("min_pitch must be positive, got %f", a.MinPitch)
	}

	if a.MaxPitch <= a.MinPitch {
		return fmt.Errorf("max_pitch (%f) must be greater than min_pitch (%f)", a.MaxPitch, a.MinPitch)
	}

	if a.PitchFloor < 0 {
		return fmt.Errorf("pitch_floor cannot be negative, got %f", a.PitchFloor)
	}

	if a.PeakThreshold < 0 || a.PeakThreshold >= 1 {
		return fmt.Errorf("peak_threshold must be in [0, 1), got %f", a.PeakThreshold)
	}

	if a.MedianWindow < 1 || a.MedianWindow%2 == 0 {
		return fmt.Errorf("median_window must be a positive odd number, got %d", a.MedianWindow)
	}

	if a.BlockSize < 1 {
		return fmt.Errorf("block_size must be at least 1, got %d", a.BlockSize)
	}

	if a.PitchVariationThreshold < 0 || a.IntensityVariationThreshold < 0 {
		return fmt.Errorf("variation thresholds cannot be negative")
	}

	return nil
}

// Validate validates timeout configuration
func (t *TimeoutsConfig) Validate() error {
	if t.Extraction < 1 {
		return fmt.Errorf("extraction must be at least 1 second, got %d", t.Extraction)
	}

	if t.Transcription < 1 {
		return fmt.Errorf("transcription must be at least 1 second, got %d", t.Transcription)
	}

	if t.Report < 1 {
		return fmt.Errorf("report must be at least 1 second, got %d", t.Report)
	}

	if t.Shutdown < 0 {
		return fmt.Errorf("shutdown cannot be negative, got %d", t.Shutdown)
	}

	return nil
}

// Validate validates transcription configuration
func (t *TranscriptionConfig) Validate() error {
	if !t.Enabled {
		return nil
	}

	if t.Endpoint == "" {
		return fmt.Errorf("endpoint cannot be empty")
	}

	if t.APIKey == "" {
		return fmt.Errorf("api_key cannot be empty (set GOOGLE_API_KEY)")
	}

	if t.Model == "" {
		return fmt.Errorf("model cannot be empty")
	}

	if t.Mode != ModeCombined && t.Mode != ModeSeparate {
		return fmt.Errorf("mode must be '%s' or '%s', got '%s'", ModeCombined, ModeSeparate, t.Mode)
	}

	if t.MaxConcurrent < 1 {
		return fmt.Errorf("max_concurrent must be at least 1, got %d", t.MaxConcurrent)
	}

	return nil
}

// Validate validates visualization configuration
func (v *VisualizationConfig) Validate() error {
	if !v.Enabled {
		return nil
	}

	if v.Width <= 0 || v.Height <= 0 {
		return fmt.Errorf("width and height must be positive, got %fx%f", v.Width, v.Height)
	}

	if v.DPI < 1 {
		return fmt.Errorf("dpi must be at least 1, got %d", v.DPI)
	}

	if v.MaxPitch <= 0 {
		return fmt.Errorf("max_pitch must be positive, got %f", v.MaxPitch)
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

	// Any other output value is treated as a file path.
	if l.Output == "" {
		return fmt.Errorf("output cannot be empty")
	}

	return nil
}

// GetReadTimeoutDuration returns the HTTP read timeout as a time.Duration
func (h *HTTPConfig) GetReadTimeoutDuration() time.Duration {
	return time.Duration(h.ReadTimeout) * time.Second
}

// GetWriteTimeoutDuration returns the HTTP write timeout as a time.Duration
func (h *HTTPConfig) GetWriteTimeoutDuration() time.Duration {
	return time.Duration(h.WriteTimeout) * time.Second
}

// GetMaxFileSizeBytes returns the upload limit in bytes
func (a *AudioConfig) GetMaxFileSizeBytes() int64 {
	return int64(a.MaxFileSizeMB) << 20
}

// GetDownsampleThresholdBytes returns the size above which uploads are resampled
func (a *AudioConfig) GetDownsampleThresholdBytes() int64 {
	return int64(a.DownsampleThresholdMB) << 20
}

// GetExtractionDuration returns the decode and feature extraction timeout
func (t *TimeoutsConfig) GetExtractionDuration() time.Duration {
	return time.Duration(t.Extraction) * time.Second
}

// GetTranscriptionDuration returns the transcription call timeout
func (t *TimeoutsConfig) GetTranscriptionDuration() time.Duration {
	return time.Duration(t.Transcription) * time.Second
}

// GetReportDuration returns the report generation call timeout
func (t *TimeoutsConfig) GetReportDuration() time.Duration {
	return time.Duration(t.Report) * time.Second
}

// GetShutdownDuration returns the graceful shutdown budget
func (t *TimeoutsConfig) GetShutdownDuration() time.Duration {
	return time.Duration(t.Shutdown) * time.Second
}
