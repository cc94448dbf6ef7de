package analysis

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/sprov-ai/sprov-audio-service/internal/audio"
)

// Summary holds the scalar features of one recording. All fields are finite.
type Summary struct {
	AveragePitch       float64 // Hz, voiced frames only
	PitchVariation     float64 // population standard deviation, Hz
	AverageIntensity   float64 // mean frame RMS
	IntensityVariation float64 // population standard deviation of frame RMS
	TotalFrames        int
	VoicedFrames       int
	DurationSeconds    float64
	SampleRate         int
}

// Summarize computes pitch statistics over voiced frames of the smoothed track and
// intensity statistics over every frame. Empty inputs yield zeros.
func Summarize(smoothed, rms []float64, sig *audio.Signal) Summary {
	voiced := Voiced(smoothed)

	s := Summary{
		TotalFrames:     len(smoothed),
		VoicedFrames:    len(voiced),
		DurationSeconds: sig.Duration(),
		SampleRate:      sig.SampleRate,
	}

	if len(voiced) > 0 {
		s.AveragePitch, s.PitchVariation = stat.PopMeanStdDev(voiced, nil)
	}
	if len(rms) > 0 {
		s.AverageIntensity, s.IntensityVariation = stat.PopMeanStdDev(rms, nil)
	}

	s.AveragePitch = finite(s.AveragePitch)
	s.PitchVariation = finite(s.PitchVariation)
	s.AverageIntensity = finite(s.AverageIntensity)
	s.IntensityVariation = finite(s.IntensityVariation)

	return s
}

// Voiced returns the non-zero values of a pitch track.
func Voiced(track []float64) []float64 {
	voiced := make([]float64, 0, len(track))
	for _, v := range track {
		if v > 0 {
			voiced = append(voiced, v)
		}
	}
	return voiced
}

// BlockAverages returns the mean voiced pitch of each consecutive block of frames.
// Blocks without voiced frames report 0.
func BlockAverages(track []float64, block int) []float64 {
	if block < 1 || len(track) == 0 {
		return []float64{}
	}

	out := make([]float64, 0, (len(track)+block-1)/block)
	for start := 0; start < len(track); start += block {
		end := min(start+block, len(track))
		voiced := Voiced(track[start:end])
		if len(voiced) == 0 {
			out = append(out, 0)
			continue
		}
		out = append(out, finite(stat.Mean(voiced, nil)))
	}
	return out
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
