package analysis

import (
	"math"
	"reflect"
	"testing"

	"github.com/sprov-ai/sprov-audio-service/internal/audio"
)

func TestSummarizeVoicedOnly(t *testing.T) {
	sig := &audio.Signal{Samples: make([]float64, 2048), SampleRate: 1024}
	smoothed := []float64{0, 100, 200, 0}
	rms := []float64{0.1, 0.3, 0.1, 0.3}

	s := Summarize(smoothed, rms, sig)

	if s.AveragePitch != 150 {
		t.Errorf("Expected average pitch 150, got %f", s.AveragePitch)
	}
	if math.Abs(s.PitchVariation-50) > 1e-9 {
		t.Errorf("Expected population std 50, got %f", s.PitchVariation)
	}
	if math.Abs(s.AverageIntensity-0.2) > 1e-9 {
		t.Errorf("Expected average intensity 0.2, got %f", s.AverageIntensity)
	}
	if math.Abs(s.IntensityVariation-0.1) > 1e-9 {
		t.Errorf("Expected intensity std 0.1, got %f", s.IntensityVariation)
	}
	if s.TotalFrames != 4 || s.VoicedFrames != 2 {
		t.Errorf("Expected 4 total / 2 voiced frames, got %d / %d", s.TotalFrames, s.VoicedFrames)
	}
	if s.DurationSeconds != 2 || s.SampleRate != 1024 {
		t.Errorf("Unexpected duration %f or rate %d", s.DurationSeconds, s.SampleRate)
	}
}

func TestSummarizeNoVoicedFrames(t *testing.T) {
	sig := &audio.Signal{Samples: make([]float64, 100), SampleRate: 8000}

	s := Summarize([]float64{0, 0, 0}, []float64{0, 0, 0}, sig)
	if s.AveragePitch != 0 || s.PitchVariation != 0 {
		t.Errorf("Expected zero pitch statistics, got %f / %f", s.AveragePitch, s.PitchVariation)
	}
	if s.VoicedFrames != 0 {
		t.Errorf("Expected no voiced frames, got %d", s.VoicedFrames)
	}

	empty := Summarize(nil, nil, sig)
	for name, v := range map[string]float64{
		"average pitch":       empty.AveragePitch,
		"pitch variation":     empty.PitchVariation,
		"average intensity":   empty.AverageIntensity,
		"intensity variation": empty.IntensityVariation,
	} {
		if v != 0 || math.IsNaN(v) {
			t.Errorf("Expected %s to be 0, got %f", name, v)
		}
	}
}

func TestSummarizeSingleVoicedFrame(t *testing.T) {
	sig := &audio.Signal{Samples: make([]float64, 10), SampleRate: 10}
	s := Summarize([]float64{0, 180, 0}, []float64{0.5, 0.5, 0.5}, sig)
	if s.AveragePitch != 180 || s.PitchVariation != 0 {
		t.Errorf("Expected 180 Hz with no variation, got %f / %f", s.AveragePitch, s.PitchVariation)
	}
}

func TestBlockAverages(t *testing.T) {
	tests := []struct {
		name  string
		track []float64
		block int
		want  []float64
	}{
		{
			name:  "partial last block",
			track: []float64{100, 0, 200, 0, 0, 0, 0, 0, 300},
			block: 4,
			want:  []float64{150, 0, 300},
		},
		{
			name:  "exact blocks",
			track: []float64{120, 140, 0, 0},
			block: 2,
			want:  []float64{130, 0},
		},
		{
			name:  "empty track",
			track: nil,
			block: 100,
			want:  []float64{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BlockAverages(tt.track, tt.block)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}
