package normalise

import (
	"strconv"
	"strings"
)

// FilterOptions is an ordered key/value set rendered in the option syntax
// FFmpeg filter graphs accept: key=value:key=value. Rendering preserves
// insertion order so the produced strings are deterministic; the engine
// itself does not care about the order.
type FilterOptions struct {
	pairs [][2]string
}

// Set appends a key/value pair.
func (o *FilterOptions) Set(key, value string) *FilterOptions {
	o.pairs = append(o.pairs, [2]string{key, value})
	return o
}

// SetLevel appends a key with a decibel/LUFS value.
func (o *FilterOptions) SetLevel(key string, value float64) *FilterOptions {
	return o.Set(key, formatLevel(value))
}

// String renders the options as key=value:key=value, escaping values that
// contain the syntax's reserved characters.
func (o *FilterOptions) String() string {
	parts := make([]string, 0, len(o.pairs))
	for _, kv := range o.pairs {
		parts = append(parts, kv[0]+"="+escapeValue(kv[1]))
	}
	return strings.Join(parts, ":")
}

// escapeValue backslash-escapes the characters that terminate or quote an
// option value inside a filter graph expression.
func escapeValue(v string) string {
	if !strings.ContainsAny(v, `:'\`) {
		return v
	}
	var b strings.Builder
	for _, r := range v {
		switch r {
		case ':', '\'', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// formatLevel renders a level value as a plain decimal with the sign
// included when negative. Whole numbers keep one decimal digit (-24.0, not
// -24) to match the option strings the measurement report round-trips.
func formatLevel(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

// VolumeFilter renders the second-pass volume filter for a computed
// peak/RMS adjustment.
func VolumeFilter(gain Gain) string {
	return "volume=" + formatLevel(gain.DB)
}

// FirstPassEBU renders the loudnorm filter options for the measurement
// pass: target parameters plus print_format=json so the engine emits the
// structured report this package parses.
func FirstPassEBU(policy Policy) string {
	opts := &FilterOptions{}
	opts.SetLevel("i", policy.TargetLevel)
	opts.SetLevel("lra", policy.LoudnessRangeTarget)
	opts.SetLevel("tp", policy.TruePeak)
	opts.SetLevel("offset", policy.Offset)
	opts.Set("print_format", "json")
	if policy.DualMono {
		opts.Set("dual_mono", "true")
	}
	return "loudnorm=" + opts.String()
}

// SecondPassEBU renders the loudnorm filter options for the corrective
// pass: the target parameters followed by the four measured values from the
// first-pass report, linear mode, and the JSON report again so the second
// pass can be diagnosed. Fails with PrerequisiteError when the first pass
// has not populated the report.
func SecondPassEBU(policy Policy, report *EBUReport) (string, error) {
	if report == nil {
		return "", &PrerequisiteError{Step: "the loudnorm measurement pass"}
	}

	opts := &FilterOptions{}
	opts.SetLevel("i", policy.TargetLevel)
	opts.SetLevel("lra", policy.LoudnessRangeTarget)
	opts.SetLevel("tp", policy.TruePeak)
	opts.SetLevel("offset", policy.Offset)
	opts.SetLevel("measured_i", report.MeasuredI())
	opts.SetLevel("measured_lra", report.MeasuredLRA())
	opts.SetLevel("measured_tp", report.MeasuredTP())
	opts.SetLevel("measured_thresh", report.MeasuredThresh())
	opts.Set("linear", "true")
	opts.Set("print_format", "json")
	if policy.DualMono {
		opts.Set("dual_mono", "true")
	}

	return "loudnorm=" + opts.String(), nil
}
