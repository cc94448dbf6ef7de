// Package analysis extracts prosodic features from a decoded signal: a pitch track,
// its median-smoothed form, frame intensity, summary statistics and a speaking style label.
//
// Pitch is estimated per frame from the Hann-windowed short-time spectrum by picking the
// strongest parabolically interpolated peak between MinFreq and MaxFreq. Frames whose
// estimate does not exceed PitchFloor are unvoiced and carry 0.
package analysis
