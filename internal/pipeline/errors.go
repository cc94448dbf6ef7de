package pipeline

import (
	"errors"

	"github.com/sprov-ai/sprov-audio-service/internal/audio"
)

var (
	// ErrUnsupportedFormat is returned for uploads whose extension is not accepted
	ErrUnsupportedFormat = errors.New("unsupported audio format")

	// ErrFileTooLarge is returned when an upload exceeds the size limit
	ErrFileTooLarge = errors.New("file too large")

	// ErrUnprocessableAudio is returned when the upload cannot be decoded or holds no samples
	ErrUnprocessableAudio = audio.ErrUnprocessableAudio

	// ErrExtractionTimeout is returned when decoding and feature extraction overrun their budget
	ErrExtractionTimeout = errors.New("feature extraction timed out")

	// ErrPoolClosed is returned for work submitted after shutdown began
	ErrPoolClosed = errors.New("worker pool is closed")

	// ErrModelUnavailable is substituted when no model client is configured
	ErrModelUnavailable = errors.New("model client not configured")
)
