package audio

// Resample converts the signal to targetRate using linear interpolation.
// The input is returned unchanged when the rates already match.
func Resample(sig *Signal, targetRate int) *Signal {
	if sig == nil || targetRate <= 0 || sig.SampleRate == targetRate || sig.SampleRate <= 0 {
		return sig
	}

	ratio := float64(targetRate) / float64(sig.SampleRate)
	outLen := int(float64(len(sig.Samples)) * ratio)
	out := make([]float64, outLen)

	last := len(sig.Samples) - 1
	for i := range out {
		pos := float64(i) / ratio
		idx := int(pos)
		if idx >= last {
			out[i] = sig.Samples[last]
			continue
		}
		frac := pos - float64(idx)
		out[i] = sig.Samples[idx]*(1-frac) + sig.Samples[idx+1]*frac
	}

	return &Signal{Samples: out, SampleRate: targetRate}
}
