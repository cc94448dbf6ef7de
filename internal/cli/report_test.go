package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/sprov-ai/sprov-audio-service/internal/analysis"
	"github.com/sprov-ai/sprov-audio-service/internal/pipeline"
)

func TestPrintReport(t *testing.T) {
	report := &pipeline.Report{
		Filename:        "talk.wav",
		SampleRate:      16000,
		DurationSeconds: 12.5,
		PitchAnalysis: pipeline.PitchAnalysis{
			AveragePitchHz:   182.34,
			PitchVariation:   25.5,
			TotalFrames:      391,
			ValidPitchFrames: 300,
			AveragePitches:   []float64{180, 190},
		},
		SpeechStyle:        analysis.StyleDynamic,
		StutteringDetected: true,
		Transcript:         "so so we begin",
		AIReport:           "AI analysis failed: deadline exceeded",
		ReportFailed:       true,
	}

	var buf bytes.Buffer
	PrintReport(&buf, report)
	out := buf.String()

	for _, want := range []string{
		"talk.wav",
		"12.50 s @ 16000 Hz",
		"Dynamic",
		"182.3 Hz",
		"300 of 391",
		"180 190",
		"so so we begin",
		"AI analysis failed: deadline exceeded",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected output to contain %q\n%s", want, out)
		}
	}
}

func TestPrintReportOmitsEmptyBlocks(t *testing.T) {
	var buf bytes.Buffer
	PrintReport(&buf, &pipeline.Report{Filename: "silence.wav", SpeechStyle: analysis.StyleMonotonous})

	if strings.Contains(buf.String(), "Block averages") {
		t.Error("Block averages should be omitted when there are none")
	}
}
