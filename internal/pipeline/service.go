package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/sprov-ai/sprov-audio-service/internal/analysis"
	"github.com/sprov-ai/sprov-audio-service/internal/audio"
	"github.com/sprov-ai/sprov-audio-service/internal/config"
	"github.com/sprov-ai/sprov-audio-service/internal/metrics"
	"github.com/sprov-ai/sprov-audio-service/internal/transcription"
	"github.com/sprov-ai/sprov-audio-service/internal/visualization"
)

// Config controls the orchestration
type Config struct {
	Mode                 string // config.ModeCombined or config.ModeSeparate
	ExtractionTimeout    time.Duration
	TranscriptionTimeout time.Duration
	ReportTimeout        time.Duration
	RenderPlot           bool
	Plot                 visualization.Options
	Workers              int
	QueueSize            int
}

// SignalDecoder turns an uploaded file into a signal
type SignalDecoder interface {
	DecodeFile(ctx context.Context, path string) (*audio.Signal, error)
}

// Model groups the generative model collaborators. A nil member makes the steps
// that need it report ErrModelUnavailable.
type Model struct {
	Transcriber transcription.Transcriber
	Reporter    transcription.ReportGenerator
	Combined    transcription.CombinedAnalyzer
}

// Upload is a received file on local disk. The caller owns Path and removes it.
type Upload struct {
	RequestID string
	Path      string
	Filename  string
	Size      int64
}

// PitchAnalysis is the pitch section of a report
type PitchAnalysis struct {
	AveragePitchHz   float64   `json:"average_pitch_hz"`
	PitchVariation   float64   `json:"pitch_variation"`
	TotalFrames      int       `json:"total_frames"`
	ValidPitchFrames int       `json:"valid_pitch_frames"`
	AveragePitches   []float64 `json:"average_pitches"`
}

// IntensityAnalysis is the intensity section of a report
type IntensityAnalysis struct {
	AverageIntensity   float64 `json:"average_intensity"`
	IntensityVariation float64 `json:"intensity_variation"`
}

// Report is the result of one analysis
type Report struct {
	RequestID          string            `json:"request_id"`
	Filename           string            `json:"filename"`
	SampleRate         int               `json:"sample_rate"`
	DurationSeconds    float64           `json:"duration_seconds"`
	PitchAnalysis      PitchAnalysis     `json:"pitch_analysis"`
	IntensityAnalysis  IntensityAnalysis `json:"intensity_analysis"`
	SpeechStyle        analysis.Style    `json:"speech_style"`
	StutteringDetected bool              `json:"stuttering_detected"`
	PitchContourImage  *string           `json:"pitch_contour_image"`
	Transcript         string            `json:"transcript"`
	AIReport           string            `json:"ai_report"`
	TranscriptFailed   bool              `json:"transcript_failed"`
	ReportFailed       bool              `json:"report_failed"`
	ProcessingTime     float64           `json:"processing_time_seconds"`
}

// Stats represents service statistics
type Stats struct {
	AnalysesTotal     uint64                     `json:"analyses_total"`
	AnalysesSucceeded uint64                     `json:"analyses_succeeded"`
	AnalysesFailed    uint64                     `json:"analyses_failed"`
	ModelFailures     uint64                     `json:"model_failures"`
	Pool              PoolStats                  `json:"pool"`
	Model             *transcription.ClientStats `json:"model,omitempty"`
}

// Service runs analyses. It is safe for concurrent use.
type Service struct {
	config    Config
	decoder   SignalDecoder
	extractor *analysis.Extractor
	model     Model
	pool      *Pool
	metrics   *metrics.Metrics
	logger    *slog.Logger

	// Statistics
	analysesTotal     uint64
	analysesSucceeded uint64
	analysesFailed    uint64
	modelFailures     uint64
	mu                sync.RWMutex
}

// NewService creates the service and starts its worker pool
func NewService(cfg Config, decoder SignalDecoder, extractor *analysis.Extractor, model Model, m *metrics.Metrics, logger *slog.Logger) *Service {
	if cfg.Mode == "" {
		cfg.Mode = config.ModeCombined
	}
	if cfg.ExtractionTimeout <= 0 {
		cfg.ExtractionTimeout = 60 * time.Second
	}
	if cfg.TranscriptionTimeout <= 0 {
		cfg.TranscriptionTimeout = 30 * time.Second
	}
	if cfg.ReportTimeout <= 0 {
		cfg.ReportTimeout = 30 * time.Second
	}

	return &Service{
		config:    cfg,
		decoder:   decoder,
		extractor: extractor,
		model:     model,
		pool:      NewPool(cfg.Workers, cfg.QueueSize, m, logger),
		metrics:   m,
		logger:    logger.With("component", "pipeline"),
	}
}

// Analyze runs the full analysis of one upload. Only format, decode and extraction
// problems fail the call; model failures are reported in the text fields.
func (s *Service) Analyze(ctx context.Context, up Upload) (*Report, error) {
	start := time.Now()
	logger := s.logger.With("request_id", up.RequestID, "filename", up.Filename)

	report, err := s.analyze(ctx, up, logger)

	s.mu.Lock()
	s.analysesTotal++
	if err != nil {
		s.analysesFailed++
	} else {
		s.analysesSucceeded++
	}
	s.mu.Unlock()

	outcome := outcomeOf(err)
	s.metrics.RecordAnalysis(outcome, time.Since(start).Seconds())

	if err != nil {
		logger.Warn("Analysis failed", "outcome", outcome, "error", err, "elapsed", time.Since(start))
		return nil, err
	}

	report.ProcessingTime = time.Since(start).Seconds()
	logger.Info("Analysis completed",
		"duration_seconds", report.DurationSeconds,
		"speech_style", report.SpeechStyle,
		"stuttering_detected", report.StutteringDetected,
		"transcript_failed", report.TranscriptFailed,
		"elapsed", time.Since(start))

	return report, nil
}

func (s *Service) analyze(ctx context.Context, up Upload, logger *slog.Logger) (*Report, error) {
	if !audio.SupportedExtension(up.Filename) {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, audio.Extension(up.Filename))
	}

	features, err := s.extract(ctx, up.Path)
	if err != nil {
		return nil, err
	}

	summary := features.Summary
	report := &Report{
		RequestID:       up.RequestID,
		Filename:        up.Filename,
		SampleRate:      summary.SampleRate,
		DurationSeconds: summary.DurationSeconds,
		PitchAnalysis: PitchAnalysis{
			AveragePitchHz:   summary.AveragePitch,
			PitchVariation:   summary.PitchVariation,
			TotalFrames:      summary.TotalFrames,
			ValidPitchFrames: summary.VoicedFrames,
			AveragePitches:   features.BlockAverages,
		},
		IntensityAnalysis: IntensityAnalysis{
			AverageIntensity:   summary.AverageIntensity,
			IntensityVariation: summary.IntensityVariation,
		},
		SpeechStyle: features.Style,
	}

	if s.config.RenderPlot {
		img, err := visualization.RenderPitchContour(features.Pitch, features.HopLength, features.SampleRate,
			summary.AveragePitch, s.config.Plot)
		if err != nil {
			s.metrics.RecordPlotFailure()
			logger.Warn("Pitch contour rendering failed", "error", err)
		} else {
			report.PitchContourImage = &img
		}
	}

	transcript, aiReport, reportFailed := s.consultModel(ctx, up, features, logger)
	report.Transcript = transcript.Text
	report.TranscriptFailed = transcript.Failed
	report.StutteringDetected = transcript.RepetitionDetected
	report.AIReport = aiReport
	report.ReportFailed = reportFailed

	if transcript.RepetitionDetected {
		s.metrics.RecordRepetition()
	}

	return report, nil
}

// extract decodes and analyses the file on the worker pool under the extraction timeout
func (s *Service) extract(ctx context.Context, path string) (*analysis.Features, error) {
	extractCtx, cancel := context.WithTimeout(ctx, s.config.ExtractionTimeout)
	defer cancel()

	start := time.Now()
	features, err := Run(extractCtx, s.pool, func(jobCtx context.Context) (*analysis.Features, error) {
		sig, err := s.decoder.DecodeFile(jobCtx, path)
		if err != nil {
			return nil, err
		}
		return s.extractor.Extract(jobCtx, sig)
	})
	if err != nil {
		// A caller that went away owns the failure, whatever the decoder wrapped it in.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			return nil, fmt.Errorf("%w after %s", ErrExtractionTimeout, s.config.ExtractionTimeout)
		case errors.Is(err, analysis.ErrEmptySignal):
			return nil, fmt.Errorf("%w: %v", ErrUnprocessableAudio, err)
		}
		return nil, err
	}

	s.metrics.RecordExtraction(time.Since(start).Seconds(), features.Summary.DurationSeconds, string(features.Style))
	return features, nil
}

// consultModel obtains the transcript and narrative report. Failures are replaced by
// the fixed failure messages and never propagate.
func (s *Service) consultModel(ctx context.Context, up Upload, f *analysis.Features, logger *slog.Logger) (analysis.Transcript, string, bool) {
	data, err := os.ReadFile(up.Path)
	if err != nil {
		logger.Error("Failed to read upload for model", "error", err)
		s.recordModelFailure()
		return analysis.Transcript{Text: transcription.FailedTranscript(err), Failed: true},
			transcription.FailedReport(err), true
	}

	input := transcription.AudioInput{
		Data:     data,
		MIMEType: audio.MIMEType(audio.Extension(up.Filename)),
		Filename: up.Filename,
	}
	features := reportInput(f)

	if s.config.Mode == config.ModeSeparate {
		return s.consultSeparate(ctx, input, features, logger)
	}
	return s.consultCombined(ctx, input, features, logger)
}

func (s *Service) consultCombined(ctx context.Context, input transcription.AudioInput, features transcription.ReportInput, logger *slog.Logger) (analysis.Transcript, string, bool) {
	err := ErrModelUnavailable
	var text, report string

	if s.model.Combined != nil {
		// One call does both jobs, so it gets both budgets.
		callCtx, cancel := context.WithTimeout(ctx, s.config.TranscriptionTimeout+s.config.ReportTimeout)
		start := time.Now()
		text, report, err = s.model.Combined.AnalyzeSpeech(callCtx, input, features)
		cancel()
		s.metrics.RecordModelCall("combined", callOutcome(err), time.Since(start).Seconds())
	}

	if err != nil {
		logger.Warn("Combined model call failed", "error", err)
		s.recordModelFailure()
		return analysis.Transcript{Text: transcription.FailedTranscript(err), Failed: true},
			transcription.FailedReport(err), true
	}

	return transcriptOf(text), report, false
}

func (s *Service) consultSeparate(ctx context.Context, input transcription.AudioInput, features transcription.ReportInput, logger *slog.Logger) (analysis.Transcript, string, bool) {
	var transcript analysis.Transcript

	err := ErrModelUnavailable
	var text string
	if s.model.Transcriber != nil {
		callCtx, cancel := context.WithTimeout(ctx, s.config.TranscriptionTimeout)
		start := time.Now()
		text, err = s.model.Transcriber.Transcribe(callCtx, input)
		cancel()
		s.metrics.RecordModelCall("transcribe", callOutcome(err), time.Since(start).Seconds())
	}

	if err != nil {
		logger.Warn("Transcription failed", "error", err)
		s.recordModelFailure()
		transcript = analysis.Transcript{Text: transcription.FailedTranscript(err), Failed: true}
	} else {
		transcript = transcriptOf(text)
	}

	features.Transcript = transcript.Text
	features.RepetitionDetected = transcript.RepetitionDetected

	err = ErrModelUnavailable
	var report string
	if s.model.Reporter != nil {
		callCtx, cancel := context.WithTimeout(ctx, s.config.ReportTimeout)
		start := time.Now()
		report, err = s.model.Reporter.GenerateReport(callCtx, features)
		cancel()
		s.metrics.RecordModelCall("report", callOutcome(err), time.Since(start).Seconds())
	}

	if err != nil {
		logger.Warn("Report generation failed", "error", err)
		s.recordModelFailure()
		return transcript, transcription.FailedReport(err), true
	}

	return transcript, report, false
}

func transcriptOf(text string) analysis.Transcript {
	return analysis.Transcript{
		Text:               text,
		RepetitionDetected: analysis.DetectRepetition(text),
	}
}

func reportInput(f *analysis.Features) transcription.ReportInput {
	return transcription.ReportInput{
		AveragePitch:       f.Summary.AveragePitch,
		PitchVariation:     f.Summary.PitchVariation,
		AverageIntensity:   f.Summary.AverageIntensity,
		IntensityVariation: f.Summary.IntensityVariation,
		DurationSeconds:    f.Summary.DurationSeconds,
		SpeechStyle:        string(f.Style),
		BlockAverages:      f.BlockAverages,
	}
}

func (s *Service) recordModelFailure() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.modelFailures++
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrUnsupportedFormat):
		return "unsupported_format"
	case errors.Is(err, ErrUnprocessableAudio):
		return "unprocessable"
	case errors.Is(err, ErrExtractionTimeout):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "cancelled"
	default:
		return "error"
	}
}

func callOutcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "error"
	}
}

// GetStats returns current service statistics
func (s *Service) GetStats() Stats {
	s.mu.RLock()
	stats := Stats{
		AnalysesTotal:     s.analysesTotal,
		AnalysesSucceeded: s.analysesSucceeded,
		AnalysesFailed:    s.analysesFailed,
		ModelFailures:     s.modelFailures,
	}
	s.mu.RUnlock()

	stats.Pool = s.pool.GetStats()

	if src, ok := s.model.Transcriber.(interface {
		GetStats() transcription.ClientStats
	}); ok {
		ms := src.GetStats()
		stats.Model = &ms
	}

	return stats
}

// Close stops the worker pool after queued jobs finish
func (s *Service) Close() {
	s.pool.Close()
}
