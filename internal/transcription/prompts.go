package transcription

import (
	"fmt"
	"strings"
)

const (
	transcribePrompt = "Please transcribe this recording:"

	transcriptMarker = "TRANSCRIPT:"
	analysisMarker   = "ANALYSIS:"

	// UnparsedReport is returned as the report when a combined response lacks the markers
	UnparsedReport = "Analysis completed but format parsing failed."
)

func reportPrompt(in ReportInput) string {
	var b strings.Builder
	b.WriteString("You are a helpful and informative AI assistant.\n")
	b.WriteString("Construct a detailed report for the current results and the steps for improvements in each sector of the current report.\n")
	b.WriteString("Instead of giving individual values for the parameters, give them a score (from 0 to +5 for higher than average and from 0 to -5 for less than average) and then give a chart containing all the parameters and their score depending on the level of fluctuation.\n")
	b.WriteString("The report must contain at least some comments about each individual parameter present in the current result and display the transcript as it is.\n\n")
	b.WriteString("Current Results:\n")
	writeMetrics(&b, in)
	fmt.Fprintf(&b, "- Stuttering detected: %t\n", in.RepetitionDetected)
	if len(in.BlockAverages) > 0 {
		avgs := make([]string, len(in.BlockAverages))
		for i, v := range in.BlockAverages {
			avgs[i] = fmt.Sprintf("%.1f", v)
		}
		fmt.Fprintf(&b, "- Average pitches per block (Hz): %s\n", strings.Join(avgs, ", "))
	}
	b.WriteString("\nCurrent Transcript:\n")
	b.WriteString(in.Transcript)
	return b.String()
}

func combinedPrompt(in ReportInput) string {
	var b strings.Builder
	b.WriteString("Please analyze this audio recording and provide:\n\n")
	b.WriteString("1. TRANSCRIPTION: Transcribe the speech accurately\n")
	b.WriteString("2. ANALYSIS: Based on the transcript and these metrics:\n")
	writeMetrics(&b, in)
	b.WriteString("\nProvide a concise but comprehensive analysis covering:\n")
	b.WriteString("- Speech clarity\n")
	b.WriteString("- Pitch and tone feedback\n")
	b.WriteString("- Speaking pace\n")
	b.WriteString("- Communication effectiveness\n")
	b.WriteString("- 2-3 specific improvement suggestions\n\n")
	fmt.Fprintf(&b, "Format as: \"%s [text]\" followed by \"%s [feedback]\"\n", transcriptMarker, analysisMarker)
	return b.String()
}

func writeMetrics(b *strings.Builder, in ReportInput) {
	fmt.Fprintf(b, "- Average pitch: %.1f Hz\n", in.AveragePitch)
	fmt.Fprintf(b, "- Pitch variation: %.2f\n", in.PitchVariation)
	fmt.Fprintf(b, "- Average intensity: %.4f\n", in.AverageIntensity)
	fmt.Fprintf(b, "- Intensity variation: %.4f\n", in.IntensityVariation)
	fmt.Fprintf(b, "- Duration: %.2f seconds\n", in.DurationSeconds)
	fmt.Fprintf(b, "- Speech style: %s\n", in.SpeechStyle)
}

// ParseCombined splits a combined response into transcript and report. Without both
// markers the whole text is the transcript and the report is UnparsedReport.
func ParseCombined(text string) (transcript, report string) {
	text = strings.TrimSpace(text)
	if !strings.Contains(text, transcriptMarker) || !strings.Contains(text, analysisMarker) {
		return text, UnparsedReport
	}

	before, after, _ := strings.Cut(text, analysisMarker)
	transcript = strings.TrimSpace(strings.ReplaceAll(before, transcriptMarker, ""))
	report = strings.TrimSpace(after)
	return transcript, report
}
