package analysis

import "testing"

func TestClassify(t *testing.T) {
	thresholds := DefaultParams().Thresholds

	tests := []struct {
		name      string
		pitch     float64
		intensity float64
		want      Style
	}{
		{"both just below", 19.999, 4.999, StyleMonotonous},
		{"pitch just above", 20.001, 4.999, StyleDynamic},
		{"intensity just above", 19.999, 5.001, StyleDynamic},
		{"pitch at threshold", 20, 0, StyleDynamic},
		{"intensity at threshold", 0, 5, StyleDynamic},
		{"silence", 0, 0, StyleMonotonous},
		{"lively", 45, 0.02, StyleDynamic},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Summary{PitchVariation: tt.pitch, IntensityVariation: tt.intensity}
			if got := Classify(s, thresholds); got != tt.want {
				t.Errorf("Classify(%v, %v) = %s, want %s", tt.pitch, tt.intensity, got, tt.want)
			}
		})
	}
}
