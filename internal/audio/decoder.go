package audio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/go-audio/wav"
)

const wavFormatPCM = 1

// DecoderConfig holds decoder settings
type DecoderConfig struct {
	FFmpegPath  string
	FFprobePath string
	Timeout     time.Duration

	// Files larger than DownsampleThreshold bytes are resampled to DownsampleRate.
	// A zero threshold disables resampling.
	DownsampleThreshold int64
	DownsampleRate      int
}

// Decoder turns files on disk into mono signals
type Decoder struct {
	config DecoderConfig
	logger *slog.Logger
}

// NewDecoder creates a decoder
func NewDecoder(config DecoderConfig, logger *slog.Logger) *Decoder {
	if config.FFmpegPath == "" {
		config.FFmpegPath = "ffmpeg"
	}
	if config.FFprobePath == "" {
		config.FFprobePath = "ffprobe"
	}
	return &Decoder{
		config: config,
		logger: logger.With("component", "audio_decoder"),
	}
}

// DecodeFile decodes the file at path into a mono signal at its native rate,
// or at the configured downsample rate when the file exceeds the threshold.
func (d *Decoder) DecodeFile(ctx context.Context, path string) (*Signal, error) {
	format := Extension(path)

	info, err := os.Stat(path)
	if err != nil {
		return nil, &DecodeError{Path: path, Format: format, Err: err}
	}
	if info.Size() == 0 {
		return nil, &DecodeError{Path: path, Format: format, Err: errors.New("file is empty")}
	}

	targetRate := 0
	if d.config.DownsampleThreshold > 0 && info.Size() > d.config.DownsampleThreshold {
		targetRate = d.config.DownsampleRate
	}

	if d.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.config.Timeout)
		defer cancel()
	}

	start := time.Now()

	var sig *Signal
	if format == ".wav" {
		sig, err = d.decodeWAV(ctx, path, targetRate)
	} else {
		sig, err = d.decodeFFmpeg(ctx, path, targetRate)
	}
	if errors.Is(err, ErrDecoderUnavailable) {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if err != nil {
		return nil, &DecodeError{Path: path, Format: format, Err: err}
	}

	if sig.Len() == 0 {
		return nil, &DecodeError{Path: path, Format: format, Err: errors.New("no audio samples decoded")}
	}

	d.logger.Debug("Decoded audio file",
		"format", format,
		"file_size", info.Size(),
		"sample_rate", sig.SampleRate,
		"samples", sig.Len(),
		"duration", sig.Duration(),
		"resampled", targetRate > 0,
		"elapsed", time.Since(start))

	return sig, nil
}

// decodeWAV parses PCM WAV in-process. Non-PCM WAV (float, ADPCM) goes through ffmpeg.
func (d *Decoder) decodeWAV(ctx context.Context, path string, targetRate int) (*Signal, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, errors.New("invalid WAV file")
	}

	if dec.WavAudioFormat != wavFormatPCM {
		d.logger.Debug("WAV is not integer PCM, falling back to ffmpeg", "wav_format", dec.WavAudioFormat)
		return d.decodeFFmpeg(ctx, path, targetRate)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to read PCM data: %w", err)
	}
	if buf == nil || buf.Format == nil {
		return nil, errors.New("WAV file has no format information")
	}

	channels := buf.Format.NumChannels
	if channels < 1 {
		return nil, fmt.Errorf("invalid channel count: %d", channels)
	}

	bitDepth := int(dec.BitDepth)
	if bitDepth < 8 || bitDepth > 32 {
		return nil, fmt.Errorf("unsupported bit depth: %d", bitDepth)
	}

	sig := &Signal{
		Samples:    downmix(buf.Data, channels, bitDepth),
		SampleRate: buf.Format.SampleRate,
	}

	if targetRate > 0 {
		sig = Resample(sig, targetRate)
	}

	return sig, nil
}

// downmix averages interleaved integer frames into one normalised channel.
func downmix(data []int, channels, bitDepth int) []float64 {
	scale := float64(int64(1) << (bitDepth - 1))
	offset := 0.0
	if bitDepth == 8 {
		// 8-bit WAV is unsigned
		offset = scale
	}

	frames := len(data) / channels
	out := make([]float64, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		for c := 0; c < channels; c++ {
			sum += (float64(data[i*channels+c]) - offset) / scale
		}
		out[i] = sum / float64(channels)
	}
	return out
}
