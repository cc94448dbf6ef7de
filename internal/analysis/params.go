package analysis

import "fmt"

// Params controls feature extraction
type Params struct {
	FrameLength   int     // STFT and RMS window, samples
	HopLength     int     // frame step, samples
	MinFreq       float64 // lowest pitch candidate, Hz
	MaxFreq       float64 // exclusive upper bound for pitch candidates, Hz
	PitchFloor    float64 // estimates at or below this are unvoiced
	PeakThreshold float64 // fraction of the frame maximum a peak must exceed
	MedianWindow  int     // odd smoothing window, frames
	BlockSize     int     // frames per block average
	Thresholds    Thresholds
}

// Thresholds separate Monotonous from Dynamic speech
type Thresholds struct {
	PitchVariation     float64 // Hz
	IntensityVariation float64
}

// DefaultParams returns the standard extraction parameters
func DefaultParams() Params {
	return Params{
		FrameLength:   2048,
		HopLength:     512,
		MinFreq:       50,
		MaxFreq:       800,
		PitchFloor:    50,
		PeakThreshold: 0.1,
		MedianWindow:  5,
		BlockSize:     100,
		Thresholds: Thresholds{
			PitchVariation:     20,
			IntensityVariation: 5,
		},
	}
}

// Validate checks that the parameters describe a usable analysis
func (p Params) Validate() error {
	if p.FrameLength < 4 {
		return fmt.Errorf("frame length must be at least 4 samples, got %d", p.FrameLength)
	}
	if p.HopLength < 1 {
		return fmt.Errorf("hop length must be positive, got %d", p.HopLength)
	}
	if p.MinFreq <= 0 || p.MaxFreq <= p.MinFreq {
		return fmt.Errorf("invalid pitch range [%f, %f)", p.MinFreq, p.MaxFreq)
	}
	if p.MedianWindow < 1 || p.MedianWindow%2 == 0 {
		return fmt.Errorf("median window must be a positive odd number, got %d", p.MedianWindow)
	}
	if p.BlockSize < 1 {
		return fmt.Errorf("block size must be positive, got %d", p.BlockSize)
	}
	return nil
}
