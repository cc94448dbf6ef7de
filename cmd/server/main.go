package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"gonum.org/v1/plot/vg"

	"github.com/sprov-ai/sprov-audio-service/internal/analysis"
	"github.com/sprov-ai/sprov-audio-service/internal/audio"
	"github.com/sprov-ai/sprov-audio-service/internal/cli"
	"github.com/sprov-ai/sprov-audio-service/internal/config"
	"github.com/sprov-ai/sprov-audio-service/internal/metrics"
	"github.com/sprov-ai/sprov-audio-service/internal/pipeline"
	"github.com/sprov-ai/sprov-audio-service/internal/server"
	"github.com/sprov-ai/sprov-audio-service/internal/transcription"
	"github.com/sprov-ai/sprov-audio-service/internal/visualization"
)

const (
	defaultConfigPath = "configs/config.yaml"
	serviceName       = "sprov-audio-service"
)

var version = "1.0.0"

// CLI defines the command-line interface
type CLI struct {
	Config  string           `short:"c" default:"${config_path}" help:"Path to YAML config file. Built-in defaults are used when the default file is missing."`
	APIKey  string           `name:"api-key" env:"GOOGLE_API_KEY" help:"Generative model API key."`
	Version kong.VersionFlag `short:"v" help:"Show version information"`

	Serve   ServeCmd   `cmd:"" default:"1" help:"Run the HTTP API server (default)."`
	Analyze AnalyzeCmd `cmd:"" help:"Analyze one recording and print the report."`
}

// ServeCmd runs the HTTP API
type ServeCmd struct{}

// AnalyzeCmd runs one analysis offline
type AnalyzeCmd struct {
	File    string `arg:"" name:"file" type:"existingfile" help:"Audio file to analyze (.wav, .mp3, .m4a, .flac)."`
	JSON    bool   `help:"Print the report as JSON."`
	Plot    string `type:"path" help:"Write the pitch contour PNG to this path."`
	NoModel bool   `name:"no-model" help:"Skip the transcript and report model calls."`
}

func main() {
	cliArgs := &CLI{}
	ctx := kong.Parse(cliArgs,
		kong.Name("sprov"),
		kong.Description("Speech delivery analysis: pitch, intensity, style, transcript and coaching report"),
		kong.UsageOnError(),
		kong.Vars{
			"version":     version,
			"config_path": defaultConfigPath,
		},
	)

	if err := ctx.Run(cliArgs); err != nil {
		cli.PrintError(err.Error())
		os.Exit(1)
	}
}

// loadConfig reads the config file, falling back to defaults when the default path is absent,
// and applies command-line overrides before validating.
func loadConfig(c *CLI, disableModel bool) (*config.Config, error) {
	cfg, err := config.Parse(c.Config)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) || c.Config != defaultConfigPath {
			return nil, err
		}
		cfg = config.Default()
	}

	if c.APIKey != "" {
		cfg.Transcription.APIKey = c.APIKey
	}
	if disableModel {
		cfg.Transcription.Enabled = false
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Run starts the HTTP server and blocks until a shutdown signal
func (s *ServeCmd) Run(c *CLI) error {
	cfg, err := loadConfig(c, false)
	if err != nil {
		return err
	}

	logger := initLogger(cfg.Logging)

	logger.Info("Service starting",
		slog.String("service", serviceName),
		slog.String("version", version),
		slog.String("config_path", c.Config),
	)

	// Log configuration summary (without sensitive data)
	logger.Info("Configuration loaded",
		slog.String("address", fmt.Sprintf("%s:%d", cfg.HTTP.Address, cfg.HTTP.Port)),
		slog.Int("max_file_size_mb", cfg.Audio.MaxFileSizeMB),
		slog.Int("workers", cfg.Audio.Workers),
		slog.Bool("transcription_enabled", cfg.Transcription.Enabled),
		slog.String("transcription_mode", cfg.Transcription.Mode),
		slog.String("model", cfg.Transcription.Model),
		slog.String("log_level", cfg.Logging.Level),
	)

	appMetrics := metrics.NewMetrics(prometheus.DefaultRegisterer)
	logger.Info("Prometheus metrics initialized")

	svc, client, err := buildService(cfg, appMetrics, logger)
	if err != nil {
		return err
	}

	httpServer := server.NewHTTPServer(cfg, logger, svc, appMetrics, prometheus.DefaultGatherer)
	if err := httpServer.Start(); err != nil {
		svc.Close()
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	// Setup signal handling for graceful shutdown
	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Service started successfully, waiting for signals...")
	<-sigCtx.Done()

	logger.Info("Starting graceful shutdown...")

	// Stop HTTP server first (stop accepting new requests)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Timeouts.GetShutdownDuration())
	defer cancel()
	if err := httpServer.Stop(shutdownCtx); err != nil {
		logger.Error("Error stopping HTTP server", slog.String("error", err.Error()))
	}

	svc.Close()
	if client != nil {
		client.Close()
	}

	stats := svc.GetStats()
	logger.Info("Final service statistics",
		slog.Uint64("analyses_total", stats.AnalysesTotal),
		slog.Uint64("analyses_succeeded", stats.AnalysesSucceeded),
		slog.Uint64("analyses_failed", stats.AnalysesFailed),
		slog.Uint64("model_failures", stats.ModelFailures),
	)

	logger.Info("Service stopped")
	return nil
}

// Run analyses one file and prints the result
func (a *AnalyzeCmd) Run(c *CLI) error {
	cfg, err := loadConfig(c, a.NoModel)
	if err != nil {
		return err
	}

	// Keep stdout for the report.
	logCfg := cfg.Logging
	if logCfg.Output == "stdout" || logCfg.Output == "" {
		logCfg.Output = "stderr"
	}
	logger := initLogger(logCfg)

	if a.Plot != "" {
		cfg.Visualization.Enabled = true
	}

	svc, client, err := buildService(cfg, metrics.NewMetrics(prometheus.NewRegistry()), logger)
	if err != nil {
		return err
	}
	defer svc.Close()
	if client != nil {
		defer client.Close()
	}

	info, err := os.Stat(a.File)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report, err := svc.Analyze(ctx, pipeline.Upload{
		RequestID: uuid.NewString(),
		Path:      a.File,
		Filename:  filepath.Base(a.File),
		Size:      info.Size(),
	})
	if err != nil {
		return err
	}

	if a.Plot != "" && report.PitchContourImage != nil {
		png, err := base64.StdEncoding.DecodeString(*report.PitchContourImage)
		if err != nil {
			return fmt.Errorf("failed to decode pitch contour image: %w", err)
		}
		if err := os.WriteFile(a.Plot, png, 0644); err != nil {
			return fmt.Errorf("failed to write pitch contour image: %w", err)
		}
	}

	if a.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	cli.PrintReport(os.Stdout, report)
	return nil
}

// buildService wires the decoder, extractor, model client and pipeline from configuration.
// The returned client is nil when transcription is disabled.
func buildService(cfg *config.Config, m *metrics.Metrics, logger *slog.Logger) (*pipeline.Service, *transcription.Client, error) {
	decoder := audio.NewDecoder(audio.DecoderConfig{
		FFmpegPath:          cfg.Audio.FFmpegPath,
		FFprobePath:         cfg.Audio.FFprobePath,
		Timeout:             cfg.Timeouts.GetExtractionDuration(),
		DownsampleThreshold: cfg.Audio.GetDownsampleThresholdBytes(),
		DownsampleRate:      cfg.Audio.DownsampleRate,
	}, logger)
	if err := decoder.CheckTools(); err != nil {
		// PCM WAV still decodes in-process, so this is not fatal.
		logger.Warn("ffmpeg tools unavailable, compressed formats will fail", "error", err)
	}

	params := analysis.Params{
		FrameLength:   cfg.Analysis.FrameLength,
		HopLength:     cfg.Analysis.HopLength,
		MinFreq:       cfg.Analysis.MinPitch,
		MaxFreq:       cfg.Analysis.MaxPitch,
		PitchFloor:    cfg.Analysis.PitchFloor,
		PeakThreshold: cfg.Analysis.PeakThreshold,
		MedianWindow:  cfg.Analysis.MedianWindow,
		BlockSize:     cfg.Analysis.BlockSize,
		Thresholds: analysis.Thresholds{
			PitchVariation:     cfg.Analysis.PitchVariationThreshold,
			IntensityVariation: cfg.Analysis.IntensityVariationThreshold,
		},
	}
	extractor, err := analysis.NewExtractor(params)
	if err != nil {
		return nil, nil, err
	}

	var model pipeline.Model
	var client *transcription.Client
	if cfg.Transcription.Enabled {
		client, err = transcription.NewClient(transcription.Config{
			Endpoint:      cfg.Transcription.Endpoint,
			APIKey:        cfg.Transcription.APIKey,
			Model:         cfg.Transcription.Model,
			Timeout:       cfg.Timeouts.GetTranscriptionDuration() + cfg.Timeouts.GetReportDuration(),
			MaxConcurrent: cfg.Transcription.MaxConcurrent,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create model client: %w", err)
		}
		model = pipeline.Model{Transcriber: client, Reporter: client, Combined: client}
		logger.Info("Model client initialized",
			slog.String("endpoint", cfg.Transcription.Endpoint),
			slog.String("model", cfg.Transcription.Model),
			slog.String("mode", cfg.Transcription.Mode),
		)
	} else {
		logger.Warn("Transcription disabled, transcripts and reports will carry failure messages")
	}

	svc := pipeline.NewService(pipeline.Config{
		Mode:                 cfg.Transcription.Mode,
		ExtractionTimeout:    cfg.Timeouts.GetExtractionDuration(),
		TranscriptionTimeout: cfg.Timeouts.GetTranscriptionDuration(),
		ReportTimeout:        cfg.Timeouts.GetReportDuration(),
		RenderPlot:           cfg.Visualization.Enabled,
		Plot: visualization.Options{
			Width:    vg.Length(cfg.Visualization.Width) * vg.Inch,
			Height:   vg.Length(cfg.Visualization.Height) * vg.Inch,
			DPI:      cfg.Visualization.DPI,
			MaxPitch: cfg.Visualization.MaxPitch,
		},
		Workers:   cfg.Audio.Workers,
		QueueSize: cfg.Audio.QueueSize,
	}, decoder, extractor, model, m, logger)

	return svc, client, nil
}

// initLogger creates and configures the structured logger based on configuration
func initLogger(cfg config.LoggingConfig) *slog.Logger {
	// Parse log level
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	}

	// Determine output destination
	var output *os.File
	switch cfg.Output {
	case "stderr":
		output = os.Stderr
	case "stdout", "":
		output = os.Stdout
	default:
		// Assume it's a file path
		file, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file %s: %v, falling back to stdout\n", cfg.Output, err)
			output = os.Stdout
		} else {
			output = file
		}
	}

	var handler slog.Handler
	switch cfg.Format {
	case "json":
		handler = slog.NewJSONHandler(output, opts)
	default:
		handler = slog.NewTextHandler(output, opts)
	}

	return slog.New(handler)
}
