package normalise

import "fmt"

// ParseError reports that an expected measurement pattern or the structured
// loudnorm report was absent or malformed in the engine output. It is fatal
// for the affected stream; there is no fallback measurement.
type ParseError struct {
	Input   string // input file or description of the measured source
	Missing string // which value or marker could not be found
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("could not parse %s from measurement output of %s", e.Missing, e.Input)
}

// PrerequisiteError reports that a second-pass computation was invoked
// before the first pass populated its statistics. This is an ordering bug
// in the caller, never a recoverable condition.
type PrerequisiteError struct {
	Step string // the first-pass step that has not run
}

func (e *PrerequisiteError) Error() string {
	return fmt.Sprintf("first pass not run, %s must be called first", e.Step)
}

// UnsupportedPolicyError reports that the gain calculator was invoked with
// a normalisation type it does not handle. EBU normalisation never computes
// a single gain; it feeds the measured values straight into the second-pass
// loudnorm options.
type UnsupportedPolicyError struct {
	Type string
}

func (e *UnsupportedPolicyError) Error() string {
	return fmt.Sprintf("can only compute adjustment for peak and RMS normalisation, not %q", e.Type)
}
