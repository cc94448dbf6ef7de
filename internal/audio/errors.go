package audio

import (
	"errors"
	"fmt"
)

// ErrUnprocessableAudio is matched by every decode failure.
var ErrUnprocessableAudio = errors.New("unprocessable audio")

// ErrDecoderUnavailable means an external decoder binary could not be run.
// It is a server fault and never wrapped in a DecodeError.
var ErrDecoderUnavailable = errors.New("audio decoder unavailable")

// DecodeError describes why a file could not be turned into a Signal.
type DecodeError struct {
	Path   string
	Format string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode %s file %s: %v", e.Format, e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrUnprocessableAudio) true for any DecodeError.
func (e *DecodeError) Is(target error) bool {
	return target == ErrUnprocessableAudio
}
