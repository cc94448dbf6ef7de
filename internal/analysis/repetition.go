package analysis

import "strings"

// Transcript is the text returned by the transcription step
type Transcript struct {
	Text               string
	RepetitionDetected bool
	// Failed is set when Text is a failure message rather than speech.
	Failed bool
}

// DetectRepetition reports whether two adjacent whitespace-separated tokens are
// identical. Comparison is exact, so case and punctuation matter ("the the" matches,
// "The the" and "the, the" do not). This is a crude heuristic, not stutter detection.
func DetectRepetition(text string) bool {
	words := strings.Fields(text)
	for i := 1; i < len(words); i++ {
		if words[i] == words[i-1] {
			return true
		}
	}
	return false
}
