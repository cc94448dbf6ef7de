// Package pipeline orchestrates one analysis: decode and feature extraction on a bounded
// worker pool, the pitch contour image, the model-backed transcript and report, and the
// repetition check. Model failures never fail the analysis; they are replaced by fixed
// failure messages so acoustic results are always returned.
package pipeline
