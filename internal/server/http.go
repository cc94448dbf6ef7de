package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sprov-ai/sprov-audio-service/internal/config"
	"github.com/sprov-ai/sprov-audio-service/internal/metrics"
	"github.com/sprov-ai/sprov-audio-service/internal/pipeline"
)

const (
	serviceName    = "Sprov AI Audio Analysis API"
	serviceVersion = "1.0.0"
)

// Analyzer runs the analysis of a received upload
type Analyzer interface {
	Analyze(ctx context.Context, up pipeline.Upload) (*pipeline.Report, error)
	GetStats() pipeline.Stats
}

// HTTPServer provides the analysis API and the monitoring endpoints
type HTTPServer struct {
	server   *http.Server
	engine   *gin.Engine
	logger   *slog.Logger
	config   *config.Config
	analyzer Analyzer
	metrics  *metrics.Metrics
	gatherer prometheus.Gatherer

	maxUploadBytes int64
	formats        []string

	startTime time.Time
}

// NewHTTPServer creates a new HTTP API server. gatherer backs /metrics; nil means the
// default registry.
func NewHTTPServer(cfg *config.Config, logger *slog.Logger, analyzer Analyzer, m *metrics.Metrics, gatherer prometheus.Gatherer) *HTTPServer {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	formats := make([]string, 0, len(cfg.Audio.SupportedFormats))
	for _, f := range cfg.Audio.SupportedFormats {
		formats = append(formats, strings.ToLower(f))
	}

	h := &HTTPServer{
		logger:         logger.With("component", "http_server"),
		config:         cfg,
		analyzer:       analyzer,
		metrics:        m,
		gatherer:       gatherer,
		maxUploadBytes: cfg.Audio.GetMaxFileSizeBytes(),
		formats:        formats,
		startTime:      time.Now(),
	}

	h.engine = gin.New()
	h.setupRoutes(h.engine)

	h.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.HTTP.Address, cfg.HTTP.Port),
		Handler:      h.engine,
		ReadTimeout:  cfg.HTTP.GetReadTimeoutDuration(),
		WriteTimeout: cfg.HTTP.GetWriteTimeoutDuration(),
		IdleTimeout:  60 * time.Second,
	}

	return h
}

// Handler returns the routed handler, mainly for tests
func (h *HTTPServer) Handler() http.Handler {
	return h.engine
}

// setupRoutes configures HTTP API routes
func (h *HTTPServer) setupRoutes(r *gin.Engine) {
	r.Use(gin.Recovery(), h.cors())

	// Prometheus metrics endpoint (no metrics needed for metrics endpoint)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{})))

	// Everything registered from here on, unmatched paths included, is measured.
	r.Use(h.withMetrics())

	r.GET("/", h.handleRoot)
	r.GET("/health", h.handleHealth)
	r.GET("/healthz", h.handleHealth)
	r.GET("/config", h.handleConfig)
	r.GET("/stats", h.handleStats)

	r.POST("/analyze-audio/", h.handleAnalyze)
	r.POST("/test-audio/", h.handleTestAudio)
}

// withMetrics records request count, duration and errors per route
func (h *HTTPServer) withMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()

		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		status := c.Writer.Status()

		h.metrics.RecordHTTPRequest(c.Request.Method, endpoint, strconv.Itoa(status), time.Since(startTime).Seconds())

		if status >= 400 {
			errorType := "client_error"
			if status >= 500 {
				errorType = "server_error"
			}
			h.metrics.RecordHTTPError(c.Request.Method, endpoint, errorType)
		}
	}
}

// cors allows browser clients from the configured origins and answers preflights
func (h *HTTPServer) cors() gin.HandlerFunc {
	anyOrigin := slices.Contains(h.config.HTTP.AllowedOrigins, "*")

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		switch {
		case anyOrigin:
			c.Header("Access-Control-Allow-Origin", "*")
		case origin != "" && slices.Contains(h.config.HTTP.AllowedOrigins, origin):
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Vary", "Origin")
		}
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// Start starts the HTTP server
func (h *HTTPServer) Start() error {
	h.logger.Info("Starting HTTP API server",
		slog.String("address", h.server.Addr),
	)

	go func() {
		if err := h.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			h.logger.Error("HTTP server error", slog.String("error", err.Error()))
		}
	}()

	return nil
}

// Stop gracefully stops the HTTP server
func (h *HTTPServer) Stop(ctx context.Context) error {
	h.logger.Info("Stopping HTTP API server...")

	return h.server.Shutdown(ctx)
}

func (h *HTTPServer) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"message": "API is running",
		"uptime":  time.Since(h.startTime).String(),
	})
}

// handleConfig returns the configuration without the model API key
func (h *HTTPServer) handleConfig(c *gin.Context) {
	cfg := h.config

	c.JSON(http.StatusOK, gin.H{
		"http": gin.H{
			"port":          cfg.HTTP.Port,
			"address":       cfg.HTTP.Address,
			"read_timeout":  cfg.HTTP.ReadTimeout,
			"write_timeout": cfg.HTTP.WriteTimeout,
		},
		"audio": gin.H{
			"max_file_size_mb":        cfg.Audio.MaxFileSizeMB,
			"supported_formats":       cfg.Audio.SupportedFormats,
			"downsample_threshold_mb": cfg.Audio.DownsampleThresholdMB,
			"downsample_rate":         cfg.Audio.DownsampleRate,
			"workers":                 cfg.Audio.Workers,
			"queue_size":              cfg.Audio.QueueSize,
		},
		"analysis": gin.H{
			"frame_length":                  cfg.Analysis.FrameLength,
			"hop_length":                    cfg.Analysis.HopLength,
			"min_pitch":                     cfg.Analysis.MinPitch,
			"max_pitch":                     cfg.Analysis.MaxPitch,
			"median_window":                 cfg.Analysis.MedianWindow,
			"block_size":                    cfg.Analysis.BlockSize,
			"pitch_variation_threshold":     cfg.Analysis.PitchVariationThreshold,
			"intensity_variation_threshold": cfg.Analysis.IntensityVariationThreshold,
		},
		"timeouts": gin.H{
			"extraction":    cfg.Timeouts.Extraction,
			"transcription": cfg.Timeouts.Transcription,
			"report":        cfg.Timeouts.Report,
		},
		"transcription": gin.H{
			"enabled":        cfg.Transcription.Enabled,
			"endpoint":       cfg.Transcription.Endpoint,
			"model":          cfg.Transcription.Model,
			"mode":           cfg.Transcription.Mode,
			"max_concurrent": cfg.Transcription.MaxConcurrent,
		},
		"visualization": gin.H{
			"enabled": cfg.Visualization.Enabled,
			"dpi":     cfg.Visualization.DPI,
		},
		"logging": gin.H{
			"level":  cfg.Logging.Level,
			"format": cfg.Logging.Format,
		},
	})
}

func (h *HTTPServer) handleStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"uptime":    time.Since(h.startTime).String(),
		"timestamp": time.Now().UTC(),
		"analysis":  h.analyzer.GetStats(),
	})
}

// handleRoot describes the API
func (h *HTTPServer) handleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": serviceName,
		"version": serviceVersion,
		"endpoints": gin.H{
			"analyze_audio": "/analyze-audio/ (POST)",
			"test_audio":    "/test-audio/ (POST)",
			"health":        "/health (GET)",
			"healthz":       "/healthz (GET)",
			"config":        "/config (GET)",
			"stats":         "/stats (GET)",
			"metrics":       "/metrics (GET)",
		},
		"usage": "Upload an audio file to /analyze-audio/ to get analysis results",
		"limits": gin.H{
			"max_file_size":     fmt.Sprintf("%dMB", h.config.Audio.MaxFileSizeMB),
			"supported_formats": h.formats,
		},
	})
}
