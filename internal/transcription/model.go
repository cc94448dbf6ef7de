package transcription

import (
	"context"
	"fmt"
)

// AudioInput is the original upload sent to the model
type AudioInput struct {
	Data     []byte
	MIMEType string
	Filename string
}

// ReportInput carries the measured features the report comments on
type ReportInput struct {
	Transcript         string
	AveragePitch       float64
	PitchVariation     float64
	AverageIntensity   float64
	IntensityVariation float64
	DurationSeconds    float64
	SpeechStyle        string
	RepetitionDetected bool
	BlockAverages      []float64
}

// Transcriber turns speech into text
type Transcriber interface {
	Transcribe(ctx context.Context, audio AudioInput) (string, error)
}

// ReportGenerator writes narrative feedback from features and a transcript
type ReportGenerator interface {
	GenerateReport(ctx context.Context, in ReportInput) (string, error)
}

// CombinedAnalyzer transcribes and reports in a single model call. The transcript in
// the returned pair comes from the model; the input's Transcript field is ignored.
type CombinedAnalyzer interface {
	AnalyzeSpeech(ctx context.Context, audio AudioInput, in ReportInput) (transcript, report string, err error)
}

// FailedTranscript is the text substituted for a transcript when transcription fails
func FailedTranscript(err error) string {
	return fmt.Sprintf("Transcription failed: %v", err)
}

// FailedReport is the text substituted for a report when report generation fails
func FailedReport(err error) string {
	return fmt.Sprintf("AI analysis failed: %v", err)
}
