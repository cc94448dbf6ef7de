// Package visualization renders the pitch contour chart returned with each analysis.
package visualization

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image/color"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/sprov-ai/sprov-audio-service/internal/analysis"
)

// ErrEmptyTrack is returned when there is nothing to draw
var ErrEmptyTrack = errors.New("pitch track is empty")

// Options controls the rendered image
type Options struct {
	Width    vg.Length
	Height   vg.Length
	DPI      int
	MaxPitch float64 // upper bound of the y axis, Hz
}

// DefaultOptions returns a 10x5 inch chart at 72 dpi capped at 800 Hz
func DefaultOptions() Options {
	return Options{
		Width:    10 * vg.Inch,
		Height:   5 * vg.Inch,
		DPI:      72,
		MaxPitch: 800,
	}
}

var (
	contourColor = color.RGBA{B: 200, A: 180}
	averageColor = color.RGBA{R: 220, A: 140}
	gridColor    = color.Gray{Y: 220}
)

// RenderPitchContour draws pitch against time (frame*hop/sampleRate seconds) with a
// dashed line at average when it is positive, and returns the PNG base64 encoded.
func RenderPitchContour(track []float64, hop, sampleRate int, average float64, opts Options) (string, error) {
	if len(track) == 0 {
		return "", ErrEmptyTrack
	}
	if hop <= 0 || sampleRate <= 0 {
		return "", fmt.Errorf("invalid frame timing: hop %d, sample rate %d", hop, sampleRate)
	}

	def := DefaultOptions()
	if opts.Width <= 0 || opts.Height <= 0 {
		opts.Width, opts.Height = def.Width, def.Height
	}
	if opts.DPI <= 0 {
		opts.DPI = def.DPI
	}

	p := plot.New()
	p.Title.Text = "Pitch Analysis"
	p.X.Label.Text = "Time (s)"
	p.Y.Label.Text = "Pitch (Hz)"

	grid := plotter.NewGrid()
	grid.Vertical.Color = gridColor
	grid.Horizontal.Color = gridColor
	p.Add(grid)

	pts := make(plotter.XYs, len(track))
	for i, f := range track {
		pts[i].X = float64(i*hop) / float64(sampleRate)
		pts[i].Y = f
	}

	line, err := plotter.NewLine(pts)
	if err != nil {
		return "", fmt.Errorf("failed to build contour line: %w", err)
	}
	line.Color = contourColor
	line.Width = vg.Points(1)
	p.Add(line)
	p.Legend.Add("Pitch Contour", line)

	if average > 0 {
		avg := plotter.NewFunction(func(float64) float64 { return average })
		avg.Color = averageColor
		avg.Width = vg.Points(1)
		avg.Dashes = []vg.Length{vg.Points(6), vg.Points(3)}
		avg.XMin = 0
		avg.XMax = pts[len(pts)-1].X
		p.Add(avg)
		p.Legend.Add(fmt.Sprintf("Average (%.1f Hz)", average), avg)
	}
	p.Legend.Top = true

	p.Y.Min = 0
	if voiced := analysis.Voiced(track); len(voiced) > 0 {
		top := floats.Max(voiced) * 1.1
		if opts.MaxPitch > 0 && top > opts.MaxPitch {
			top = opts.MaxPitch
		}
		p.Y.Max = top
	} else if opts.MaxPitch > 0 {
		p.Y.Max = opts.MaxPitch
	}

	canvas := vgimg.NewWith(
		vgimg.UseWH(opts.Width, opts.Height),
		vgimg.UseDPI(opts.DPI),
		vgimg.UseBackgroundColor(color.White),
	)
	p.Draw(draw.New(canvas))

	var buf bytes.Buffer
	if _, err := (vgimg.PngCanvas{Canvas: canvas}).WriteTo(&buf); err != nil {
		return "", fmt.Errorf("failed to encode PNG: %w", err)
	}

	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
