package analysis

import (
	"context"
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"

	"github.com/sprov-ai/sprov-audio-service/internal/audio"
)

// cancellation is checked once per this many frames
const ctxCheckInterval = 64

// TrackPitch returns one pitch estimate in Hz per centered frame, 0 for unvoiced frames.
// It stops early with ctx.Err() when the context is cancelled.
func TrackPitch(ctx context.Context, sig *audio.Signal, p Params) ([]float64, error) {
	n := frameCount(sig.Len(), p.HopLength)
	track := make([]float64, n)

	win := window.Hann(p.FrameLength)
	frame := make([]float64, p.FrameLength)
	mag := make([]float64, p.FrameLength/2+1)

	rate := float64(sig.SampleRate)
	binHz := rate / float64(p.FrameLength)

	// Bins whose centre frequency lies in [MinFreq, MaxFreq), kept clear of the
	// spectrum edges so both neighbours exist.
	lo := int(math.Ceil(p.MinFreq / binHz))
	hi := int(math.Ceil(p.MaxFreq/binHz)) - 1
	if lo < 1 {
		lo = 1
	}
	if hi > len(mag)-2 {
		hi = len(mag) - 2
	}

	for i := 0; i < n; i++ {
		if i%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		fillFrame(frame, sig.Samples, i, p.HopLength)
		for k := range frame {
			frame[k] *= win[k]
		}
		spectrum := fft.FFTReal(frame)
		peak := 0.0
		for k := range mag {
			mag[k] = cmplx.Abs(spectrum[k])
			if mag[k] > peak {
				peak = mag[k]
			}
		}

		f := strongestPeak(mag, lo, hi, p.PeakThreshold*peak, binHz)
		if f > p.PitchFloor {
			track[i] = f
		}
	}

	return track, nil
}

// strongestPeak returns the frequency of the local maximum in mag[lo..hi] with the
// largest parabolically interpolated magnitude, or 0 when no bin exceeds ref.
func strongestPeak(mag []float64, lo, hi int, ref, binHz float64) float64 {
	bestMag := 0.0
	bestFreq := 0.0

	for k := lo; k <= hi; k++ {
		s := mag[k]
		if s <= ref || s <= mag[k-1] || s < mag[k+1] {
			continue
		}

		avg := 0.5 * (mag[k+1] - mag[k-1])
		curv := 2*s - mag[k+1] - mag[k-1]
		shift := 0.0
		if math.Abs(curv) > 1e-12 {
			shift = avg / curv
		}

		m := s + 0.5*avg*shift
		if m > bestMag {
			bestMag = m
			bestFreq = (float64(k) + shift) * binHz
		}
	}

	return bestFreq
}
