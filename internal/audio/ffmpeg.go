package audio

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const toolWaitDelay = time.Second

// decodeFFmpeg decodes any container ffmpeg understands to mono float64 PCM.
// Without a target rate the stream's native rate is kept, which requires a probe.
func (d *Decoder) decodeFFmpeg(ctx context.Context, path string, targetRate int) (*Signal, error) {
	rate := targetRate
	if rate <= 0 {
		probed, err := d.probeSampleRate(ctx, path)
		if err != nil {
			return nil, err
		}
		rate = probed
	}

	args := []string{
		"-v", "error",
		"-i", path,
		"-map", "0:a:0",
		"-vn",
		"-f", "f64le", // raw float64 little-endian
		"-ac", "1",
		"-ar", strconv.Itoa(rate),
		"pipe:1",
	}

	output, err := runTool(ctx, d.config.FFmpegPath, args...)
	if err != nil {
		return nil, err
	}

	return &Signal{Samples: bytesToFloat64(output), SampleRate: rate}, nil
}

func (d *Decoder) probeSampleRate(ctx context.Context, path string) (int, error) {
	args := []string{
		"-v", "quiet",
		"-print_format", "json",
		"-show_streams",
		"-select_streams", "a:0",
		path,
	}

	output, err := runTool(ctx, d.config.FFprobePath, args...)
	if err != nil {
		return 0, err
	}

	return parseProbeSampleRate(output)
}

// CheckTools resolves the configured ffmpeg and ffprobe binaries.
// A failure wraps ErrDecoderUnavailable for each missing binary.
func (d *Decoder) CheckTools() error {
	var errs []error
	for _, bin := range []string{d.config.FFmpegPath, d.config.FFprobePath} {
		if _, err := exec.LookPath(bin); err != nil {
			errs = append(errs, fmt.Errorf("%w: %w", ErrDecoderUnavailable, err))
		}
	}
	return errors.Join(errs...)
}

// runTool runs bin and returns its stdout. A binary that cannot be started
// yields ErrDecoderUnavailable rather than a decode failure.
func runTool(ctx context.Context, bin string, args ...string) ([]byte, error) {
	name := filepath.Base(bin)

	cmd := exec.CommandContext(ctx, bin, args...)
	// Bounds Wait when a killed wrapper leaves a child holding stdout.
	cmd.WaitDelay = toolWaitDelay
	output, err := cmd.Output()
	if err == nil {
		return output, nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, fmt.Errorf("%s interrupted: %w", name, ctxErr)
	}
	var exitError *exec.ExitError
	if errors.As(err, &exitError) {
		return nil, fmt.Errorf("%s failed: %w, stderr: %s", name, err, strings.TrimSpace(string(exitError.Stderr)))
	}
	if errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
		return nil, fmt.Errorf("%w: %w", ErrDecoderUnavailable, err)
	}
	return nil, fmt.Errorf("%s failed: %w", name, err)
}

func parseProbeSampleRate(jsonData []byte) (int, error) {
	var probe struct {
		Streams []struct {
			CodecType  string `json:"codec_type"`
			SampleRate string `json:"sample_rate"`
		} `json:"streams"`
	}

	if err := json.Unmarshal(jsonData, &probe); err != nil {
		return 0, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	if len(probe.Streams) == 0 {
		return 0, errors.New("no audio streams found")
	}

	stream := probe.Streams[0]
	if stream.CodecType != "audio" {
		return 0, fmt.Errorf("stream is not audio type: %s", stream.CodecType)
	}

	rate, err := strconv.Atoi(stream.SampleRate)
	if err != nil || rate <= 0 {
		return 0, fmt.Errorf("invalid sample rate %q", stream.SampleRate)
	}

	return rate, nil
}

func bytesToFloat64(data []byte) []float64 {
	samples := make([]float64, len(data)/8)
	for i := range samples {
		bits := binary.LittleEndian.Uint64(data[i*8:])
		samples[i] = math.Float64frombits(bits)
	}
	return samples
}
