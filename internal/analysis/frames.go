package analysis

// frameCount is the number of centered frames for n samples at the given hop.
// Frame i is centered on sample i*hop.
func frameCount(n, hop int) int {
	return 1 + n/hop
}

// fillFrame copies frame i into dst, zero padding outside the signal.
func fillFrame(dst, samples []float64, i, hop int) {
	start := i*hop - len(dst)/2
	for k := range dst {
		j := start + k
		if j < 0 || j >= len(samples) {
			dst[k] = 0
		} else {
			dst[k] = samples[j]
		}
	}
}
