// Package normalise computes per-stream loudness adjustments for the
// two-pass measure-then-correct workflow. It parses the measurement output
// of the external FFmpeg engine, derives the gain to apply, and renders the
// filter option strings consumed by the second pass. It never touches
// audio samples itself.
package normalise

import "strconv"

// Statistics is the measurement state of one audio stream. Exactly one
// measurement family is populated per normalisation run: PeakRMS for the
// volumedetect first pass, EBU for the loudnorm first pass. A nil
// Statistics means the first pass has not run yet.
type Statistics interface {
	statistics()
}

// PeakRMS holds the volumedetect first-pass measurements.
type PeakRMS struct {
	MeanDB float64 // mean_volume
	MaxDB  float64 // max_volume
}

func (PeakRMS) statistics() {}

// EBU holds the loudnorm first-pass measurement report.
type EBU struct {
	Report *EBUReport
}

func (EBU) statistics() {}

// EBUReport is the JSON report printed by the loudnorm filter with
// print_format=json. FFmpeg serialises every numeric field as a string, so
// the struct keeps them as strings and coerces on read.
type EBUReport struct {
	InputI            string `json:"input_i"`
	InputTP           string `json:"input_tp"`
	InputLRA          string `json:"input_lra"`
	InputThresh       string `json:"input_thresh"`
	OutputI           string `json:"output_i"`
	OutputTP          string `json:"output_tp"`
	OutputLRA         string `json:"output_lra"`
	OutputThresh      string `json:"output_thresh"`
	NormalizationType string `json:"normalization_type"`
	TargetOffset      string `json:"target_offset"`
}

// MeasuredI returns the measured integrated loudness (LUFS).
func (r *EBUReport) MeasuredI() float64 { return coerce(r.InputI) }

// MeasuredLRA returns the measured loudness range (LU).
func (r *EBUReport) MeasuredLRA() float64 { return coerce(r.InputLRA) }

// MeasuredTP returns the measured true peak (dBTP).
func (r *EBUReport) MeasuredTP() float64 { return coerce(r.InputTP) }

// MeasuredThresh returns the measured threshold (LUFS).
func (r *EBUReport) MeasuredThresh() float64 { return coerce(r.InputThresh) }

// coerce converts a string-typed loudnorm value to float64. ParseLoudnorm
// validates the four measured fields up front, so a failure here cannot
// occur for reports it returned.
func coerce(s string) float64 {
	f, _ := strconv.ParseFloat(s, 64)
	return f
}
