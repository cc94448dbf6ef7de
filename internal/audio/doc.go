// Package audio turns uploaded recordings into mono floating point signals.
// WAV files are parsed in-process; compressed formats (MP3, M4A, FLAC) are decoded
// through an ffmpeg subprocess. Large uploads are resampled to a lower rate before analysis.
package audio
