package server

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/sprov-ai/sprov-audio-service/internal/analysis"
	"github.com/sprov-ai/sprov-audio-service/internal/audio"
	"github.com/sprov-ai/sprov-audio-service/internal/audio/audiotest"
	"github.com/sprov-ai/sprov-audio-service/internal/config"
	"github.com/sprov-ai/sprov-audio-service/internal/metrics"
	"github.com/sprov-ai/sprov-audio-service/internal/pipeline"
	"github.com/sprov-ai/sprov-audio-service/internal/transcription"
	"github.com/sprov-ai/sprov-audio-service/internal/visualization"
)

// stalledModel never answers before its context ends
type stalledModel struct{}

func (stalledModel) Transcribe(ctx context.Context, in transcription.AudioInput) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func (stalledModel) GenerateReport(ctx context.Context, in transcription.ReportInput) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func (stalledModel) AnalyzeSpeech(ctx context.Context, a transcription.AudioInput, in transcription.ReportInput) (string, string, error) {
	<-ctx.Done()
	return "", "", ctx.Err()
}

func newPipelineServer(t *testing.T, decoderConfig audio.DecoderConfig) *testServer {
	t.Helper()

	extractor, err := analysis.NewExtractor(analysis.DefaultParams())
	if err != nil {
		t.Fatal(err)
	}

	m := metrics.NewMetrics(prometheus.NewRegistry())
	svc := pipeline.NewService(pipeline.Config{
		Mode:                 config.ModeSeparate,
		ExtractionTimeout:    10 * time.Second,
		TranscriptionTimeout: 50 * time.Millisecond,
		ReportTimeout:        50 * time.Millisecond,
		RenderPlot:           true,
		Plot:                 visualization.DefaultOptions(),
		Workers:              1,
		QueueSize:            1,
	}, audio.NewDecoder(decoderConfig, discardLogger()), extractor,
		pipeline.Model{Transcriber: stalledModel{}, Reporter: stalledModel{}, Combined: stalledModel{}},
		m, discardLogger())
	t.Cleanup(svc.Close)

	return newTestServer(t, svc, nil)
}

func TestPipelineModelTimeoutStillSucceeds(t *testing.T) {
	srv := newPipelineServer(t, audio.DecoderConfig{})

	wavPath := audiotest.WriteWAV(t, t.TempDir(), "tone.wav", audiotest.Sine(220, 0.5, 16000, 1.0), 16000)
	data, err := os.ReadFile(wavPath)
	if err != nil {
		t.Fatal(err)
	}

	rec := srv.do(uploadRequest(t, "/analyze-audio/", "file", filepath.Base(wavPath), data))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	body := decodeBody(t, rec)
	if transcript, _ := body["transcript"].(string); !strings.HasPrefix(transcript, "Transcription failed: ") {
		t.Errorf("Expected transcript sentinel, got %q", transcript)
	}
	if report, _ := body["ai_report"].(string); !strings.HasPrefix(report, "AI analysis failed: ") {
		t.Errorf("Expected report sentinel, got %q", report)
	}
	if body["stuttering_detected"] != false {
		t.Error("Expected no repetition for a failed transcript")
	}

	pitch, _ := body["pitch_analysis"].(map[string]any)
	if avg, _ := pitch["average_pitch_hz"].(float64); avg < 200 || avg > 240 {
		t.Errorf("Expected average pitch near 220 Hz, got %v", pitch["average_pitch_hz"])
	}
	if img, _ := body["pitch_contour_image"].(string); img == "" {
		t.Error("Expected a pitch contour image")
	}

	srv.assertTempDirEmpty(t)
}

func TestPipelineCorruptAudioIsUnprocessable(t *testing.T) {
	srv := newPipelineServer(t, audio.DecoderConfig{})

	rec := srv.do(uploadRequest(t, "/analyze-audio/", "file", "broken.wav", []byte("definitely not a wav file")))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("Expected 422, got %d: %s", rec.Code, rec.Body.String())
	}
	srv.assertTempDirEmpty(t)
}

func TestPipelineMissingDecoderIsServerError(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "bin")
	srv := newPipelineServer(t, audio.DecoderConfig{
		FFmpegPath:  filepath.Join(missing, "ffmpeg"),
		FFprobePath: filepath.Join(missing, "ffprobe"),
	})

	rec := srv.do(uploadRequest(t, "/analyze-audio/", "file", "speech.mp3", []byte("ID3 not really mp3")))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("Expected 500, got %d: %s", rec.Code, rec.Body.String())
	}
	if msg, _ := decodeBody(t, rec)["error"].(string); !strings.HasPrefix(msg, "Audio analysis failed: ") {
		t.Errorf("Expected internal error message, got %q", msg)
	}
	srv.assertTempDirEmpty(t)
}
