package analysis

import (
	"math"

	"github.com/sprov-ai/sprov-audio-service/internal/audio"
)

// FrameRMS returns the root-mean-square energy of each centered frame.
// It uses the same framing as TrackPitch, so both tracks have equal length.
func FrameRMS(sig *audio.Signal, frameLength, hop int) []float64 {
	n := frameCount(sig.Len(), hop)
	rms := make([]float64, n)
	frame := make([]float64, frameLength)

	for i := 0; i < n; i++ {
		fillFrame(frame, sig.Samples, i, hop)
		var sum float64
		for _, v := range frame {
			sum += v * v
		}
		rms[i] = math.Sqrt(sum / float64(frameLength))
	}

	return rms
}
