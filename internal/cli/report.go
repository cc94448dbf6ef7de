package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/sprov-ai/sprov-audio-service/internal/pipeline"
)

// PrintReport writes a human-readable summary of an analysis
func PrintReport(w io.Writer, r *pipeline.Report) {
	fmt.Fprintln(w, TitleStyle.Render("Speech analysis: "+r.Filename))

	printField(w, "Duration", fmt.Sprintf("%.2f s @ %d Hz", r.DurationSeconds, r.SampleRate))
	printField(w, "Speech style", string(r.SpeechStyle))
	printField(w, "Repetition detected", yesNo(r.StutteringDetected))
	printField(w, "Processing time", fmt.Sprintf("%.2f s", r.ProcessingTime))
	fmt.Fprintln(w)

	fmt.Fprintln(w, SectionStyle.Render("Pitch"))
	printField(w, "Average", fmt.Sprintf("%.1f Hz", r.PitchAnalysis.AveragePitchHz))
	printField(w, "Variation", fmt.Sprintf("%.2f", r.PitchAnalysis.PitchVariation))
	printField(w, "Voiced frames", fmt.Sprintf("%d of %d", r.PitchAnalysis.ValidPitchFrames, r.PitchAnalysis.TotalFrames))
	if len(r.PitchAnalysis.AveragePitches) > 0 {
		blocks := make([]string, len(r.PitchAnalysis.AveragePitches))
		for i, v := range r.PitchAnalysis.AveragePitches {
			blocks[i] = fmt.Sprintf("%.0f", v)
		}
		printField(w, "Block averages (Hz)", strings.Join(blocks, " "))
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, SectionStyle.Render("Intensity"))
	printField(w, "Average", fmt.Sprintf("%.4f", r.IntensityAnalysis.AverageIntensity))
	printField(w, "Variation", fmt.Sprintf("%.4f", r.IntensityAnalysis.IntensityVariation))
	fmt.Fprintln(w)

	printText(w, "Transcript", r.Transcript, r.TranscriptFailed)
	printText(w, "Report", r.AIReport, r.ReportFailed)
}

func printText(w io.Writer, title, text string, failed bool) {
	fmt.Fprintln(w, SectionStyle.Render(title))
	if failed {
		fmt.Fprintln(w, BodyStyle.Render(ErrorStyle.Render(text)))
	} else {
		fmt.Fprintln(w, BodyStyle.Render(text))
	}
	fmt.Fprintln(w)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
