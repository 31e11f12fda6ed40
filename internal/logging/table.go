package logging

import (
	"fmt"
	"math"
	"strings"
)

// MetricRow is a single row in a measurement table. Values are
// pre-formatted strings, one per column, so rows can mix precisions.
type MetricRow struct {
	Label  string   // e.g. "Max volume"
	Values []string // one per stream column
	Unit   string   // e.g. "dB", "LUFS", "" for unitless
}

// MetricTable formats aligned measurement columns, one column per audio
// stream. Labels are left-aligned, values right-aligned, units appended
// after the last column.
type MetricTable struct {
	Headers []string
	Rows    []MetricRow
}

// AddRow appends a row with pre-formatted values.
func (t *MetricTable) AddRow(label string, values []string, unit string) {
	t.Rows = append(t.Rows, MetricRow{Label: label, Values: values, Unit: unit})
}

// MissingValue is the placeholder for unavailable measurements.
const MissingValue = "-"

// FormatMetric formats a measurement with the given precision. NaN and
// infinities render as the missing-value placeholder.
func FormatMetric(value float64, decimals int) string {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return MissingValue
	}
	return fmt.Sprintf("%.*f", decimals, value)
}

// FormatMetricSigned formats a gain change with an explicit sign, e.g.
// "+2.5" or "-1.2".
func FormatMetricSigned(value float64, decimals int) string {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return MissingValue
	}
	return fmt.Sprintf("%+.*f", decimals, value)
}

// String renders the table with aligned columns.
func (t *MetricTable) String() string {
	if len(t.Rows) == 0 {
		return ""
	}

	labelWidth := 0
	for _, row := range t.Rows {
		if len(row.Label) > labelWidth {
			labelWidth = len(row.Label)
		}
	}

	valueWidths := make([]int, len(t.Headers))
	for i, header := range t.Headers {
		valueWidths[i] = len(header)
	}
	for _, row := range t.Rows {
		for i, val := range row.Values {
			if i < len(valueWidths) && len(val) > valueWidths[i] {
				valueWidths[i] = len(val)
			}
		}
	}

	var sb strings.Builder

	// Header row: label column is blank.
	sb.WriteString(strings.Repeat(" ", labelWidth+2))
	for i, header := range t.Headers {
		sb.WriteString(fmt.Sprintf("%*s  ", valueWidths[i], header))
	}
	sb.WriteString("\n")

	for _, row := range t.Rows {
		sb.WriteString(fmt.Sprintf("%-*s  ", labelWidth, row.Label))
		for i := 0; i < len(t.Headers); i++ {
			val := MissingValue
			if i < len(row.Values) && row.Values[i] != "" {
				val = row.Values[i]
			}
			sb.WriteString(fmt.Sprintf("%*s  ", valueWidths[i], val))
		}
		if row.Unit != "" {
			sb.WriteString(row.Unit)
		}
		sb.WriteString("\n")
	}

	return sb.String()
}
