package logging

import (
	"fmt"
	"math"
	"os"
	"strings"
	"time"
)

// StreamReport summarises the normalisation of one audio stream. Fields
// that do not apply to the stream's measurement mode are NaN and render as
// the missing-value placeholder.
type StreamReport struct {
	StreamIndex int
	Mode        string // normalisation type applied

	// volumedetect measurements
	MeanDB       float64
	MaxDB        float64
	AdjustmentDB float64
	ClipsBy      float64 // predicted post-adjustment peak; > 0 clips

	// loudnorm measurements
	MeasuredI      float64
	MeasuredLRA    float64
	MeasuredTP     float64
	MeasuredThresh float64

	// Filter is the rendered second-pass filter option string.
	Filter string
}

// NewStreamReport returns a report with every measurement unset.
func NewStreamReport(index int, mode string) StreamReport {
	nan := math.NaN()
	return StreamReport{
		StreamIndex:    index,
		Mode:           mode,
		MeanDB:         nan,
		MaxDB:          nan,
		AdjustmentDB:   nan,
		ClipsBy:        nan,
		MeasuredI:      nan,
		MeasuredLRA:    nan,
		MeasuredTP:     nan,
		MeasuredThresh: nan,
	}
}

// FileReport summarises a whole normalisation run for one media file.
type FileReport struct {
	Input   string
	Output  string
	Streams []StreamReport
}

// Render produces the human-readable report text.
func (r *FileReport) Render() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Normalisation report\n")
	fmt.Fprintf(&sb, "  Input:  %s\n", r.Input)
	fmt.Fprintf(&sb, "  Output: %s\n", r.Output)
	sb.WriteString("\n")

	if len(r.Streams) == 0 {
		sb.WriteString("No audio streams normalised.\n")
		return sb.String()
	}

	table := &MetricTable{}
	for _, s := range r.Streams {
		table.Headers = append(table.Headers, fmt.Sprintf("Stream %d", s.StreamIndex))
	}

	addRow := func(label string, unit string, pick func(StreamReport) string) {
		values := make([]string, len(r.Streams))
		for i, s := range r.Streams {
			values[i] = pick(s)
		}
		table.AddRow(label, values, unit)
	}

	addRow("Mode", "", func(s StreamReport) string { return s.Mode })
	addRow("Mean volume", "dB", func(s StreamReport) string { return FormatMetric(s.MeanDB, 1) })
	addRow("Max volume", "dB", func(s StreamReport) string { return FormatMetric(s.MaxDB, 1) })
	addRow("Adjustment", "dB", func(s StreamReport) string { return FormatMetricSigned(s.AdjustmentDB, 1) })
	addRow("Integrated loudness", "LUFS", func(s StreamReport) string { return FormatMetric(s.MeasuredI, 1) })
	addRow("Loudness range", "LU", func(s StreamReport) string { return FormatMetric(s.MeasuredLRA, 1) })
	addRow("True peak", "dBTP", func(s StreamReport) string { return FormatMetric(s.MeasuredTP, 1) })
	addRow("Threshold", "LUFS", func(s StreamReport) string { return FormatMetric(s.MeasuredThresh, 1) })

	sb.WriteString(table.String())
	sb.WriteString("\n")

	for _, s := range r.Streams {
		if !math.IsNaN(s.ClipsBy) && s.ClipsBy > 0 {
			fmt.Fprintf(&sb, "Stream %d: adjustment will lead to clipping of %.1f dB\n", s.StreamIndex, s.ClipsBy)
		}
	}
	for _, s := range r.Streams {
		if s.Filter != "" {
			fmt.Fprintf(&sb, "Stream %d second pass: %s\n", s.StreamIndex, s.Filter)
		}
	}

	return sb.String()
}

// Write saves the rendered report next to the output file, with a
// timestamp header.
func (r *FileReport) Write() (string, error) {
	path := r.Output + ".report.log"
	content := fmt.Sprintf("# Generated %s\n\n%s", time.Now().Format(time.RFC3339), r.Render())
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("writing report %s: %w", path, err)
	}
	return path, nil
}
