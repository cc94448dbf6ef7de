package analysis

import "sort"

// MedianFilter smooths a pitch track with a centered median over window frames.
// Positions outside the track count as 0, so every output value is either taken
// from its neighbourhood or 0 near the edges. An even window is widened by one;
// a window below 2 returns a copy.
func MedianFilter(track []float64, window int) []float64 {
	out := make([]float64, len(track))
	if window < 2 {
		copy(out, track)
		return out
	}
	if window%2 == 0 {
		window++
	}

	half := window / 2
	buf := make([]float64, window)
	for i := range track {
		for k := -half; k <= half; k++ {
			j := i + k
			if j < 0 || j >= len(track) {
				buf[k+half] = 0
			} else {
				buf[k+half] = track[j]
			}
		}
		sort.Float64s(buf)
		out[i] = buf[half]
	}

	return out
}
