package analysis

// Style is the coarse speaking style label
type Style string

const (
	StyleMonotonous Style = "Monotonous"
	StyleDynamic    Style = "Dynamic"
)

// Classify labels speech Monotonous only when both variations fall strictly below
// their thresholds.
func Classify(s Summary, t Thresholds) Style {
	if s.PitchVariation < t.PitchVariation && s.IntensityVariation < t.IntensityVariation {
		return StyleMonotonous
	}
	return StyleDynamic
}
