// Package audiotest writes synthetic recordings for tests.
package audiotest

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// Sine returns duration seconds of a sine tone at freq Hz with the given peak amplitude.
func Sine(freq, amplitude float64, sampleRate int, duration float64) []float64 {
	n := int(duration * float64(sampleRate))
	samples := make([]float64, n)
	for i := range samples {
		t := float64(i) / float64(sampleRate)
		samples[i] = amplitude * math.Sin(2*math.Pi*freq*t)
	}
	return samples
}

// Silence returns duration seconds of digital silence.
func Silence(sampleRate int, duration float64) []float64 {
	return make([]float64, int(duration*float64(sampleRate)))
}

// WriteWAV writes mono 16-bit PCM samples to dir/name and returns the path.
func WriteWAV(t testing.TB, dir, name string, samples []float64, sampleRate int) string {
	t.Helper()
	return WriteMultiChannelWAV(t, dir, name, [][]float64{samples}, sampleRate)
}

// WriteMultiChannelWAV writes one 16-bit PCM channel per slice, interleaved.
// All channels must have the same length.
func WriteMultiChannelWAV(t testing.TB, dir, name string, channels [][]float64, sampleRate int) string {
	t.Helper()

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create WAV fixture: %v", err)
	}
	defer f.Close()

	numChans := len(channels)
	frames := len(channels[0])
	data := make([]int, frames*numChans)
	for i := 0; i < frames; i++ {
		for c := 0; c < numChans; c++ {
			v := channels[c][i]
			if v > 1 {
				v = 1
			} else if v < -1 {
				v = -1
			}
			data[i*numChans+c] = int(v * math.MaxInt16)
		}
	}

	encode(t, f, data, sampleRate, 16, numChans, 1)
	return path
}

// WriteFloatWAV writes mono 32-bit IEEE float samples (WAVE format 3) to dir/name.
func WriteFloatWAV(t testing.TB, dir, name string, samples []float64, sampleRate int) string {
	t.Helper()

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create WAV fixture: %v", err)
	}
	defer f.Close()

	data := make([]int, len(samples))
	for i, v := range samples {
		data[i] = int(math.Float32bits(float32(v)))
	}

	encode(t, f, data, sampleRate, 32, 1, 3)
	return path
}

func encode(t testing.TB, f *os.File, data []int, sampleRate, bitDepth, numChans, audioFormat int) {
	t.Helper()

	enc := wav.NewEncoder(f, sampleRate, bitDepth, numChans, audioFormat)
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: numChans, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: bitDepth,
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("failed to write WAV fixture: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("failed to finalise WAV fixture: %v", err)
	}
}
