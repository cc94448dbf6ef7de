package analysis

import (
	"context"
	"errors"
	"fmt"

	"github.com/sprov-ai/sprov-audio-service/internal/audio"
)

// ErrEmptySignal is returned when there are no samples to analyse
var ErrEmptySignal = errors.New("signal has no samples")

// Features is everything extracted from one signal
type Features struct {
	Pitch         []float64 // Hz per frame, median-smoothed, 0 = unvoiced
	RMS           []float64
	BlockAverages []float64
	Summary       Summary
	Style         Style
	HopLength     int
	SampleRate    int
}

// Extractor runs the feature pipeline with fixed parameters. It is safe for
// concurrent use.
type Extractor struct {
	params Params
}

// NewExtractor validates params and returns an Extractor
func NewExtractor(params Params) (*Extractor, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid analysis parameters: %w", err)
	}
	return &Extractor{params: params}, nil
}

// Extract tracks pitch, smooths it, measures intensity, summarises and classifies.
func (e *Extractor) Extract(ctx context.Context, sig *audio.Signal) (*Features, error) {
	if sig == nil || sig.Len() == 0 {
		return nil, ErrEmptySignal
	}
	if sig.SampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate %d", sig.SampleRate)
	}

	raw, err := TrackPitch(ctx, sig, e.params)
	if err != nil {
		return nil, err
	}

	smoothed := MedianFilter(raw, e.params.MedianWindow)
	rms := FrameRMS(sig, e.params.FrameLength, e.params.HopLength)
	summary := Summarize(smoothed, rms, sig)

	return &Features{
		Pitch:         smoothed,
		RMS:           rms,
		BlockAverages: BlockAverages(smoothed, e.params.BlockSize),
		Summary:       summary,
		Style:         Classify(summary, e.params.Thresholds),
		HopLength:     e.params.HopLength,
		SampleRate:    sig.SampleRate,
	}, nil
}
