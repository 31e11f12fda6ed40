package normalise

// Type selects the normalisation algorithm.
type Type string

const (
	// TypeEBU is two-pass EBU R128 loudness normalisation via loudnorm.
	TypeEBU Type = "ebu"
	// TypeRMS brings the measured mean volume to the target level.
	TypeRMS Type = "rms"
	// TypePeak brings the measured maximum volume to the target level.
	TypePeak Type = "peak"
)

// Types lists the valid normalisation types, default first.
var Types = []Type{TypeEBU, TypeRMS, TypePeak}

// Valid reports whether t is a known normalisation type.
func (t Type) Valid() bool {
	for _, known := range Types {
		if t == known {
			return true
		}
	}
	return false
}

// Policy is the read-only normalisation configuration passed into each
// operation. TargetLevel is in dB for peak/RMS and LUFS for EBU; the
// remaining fields apply to EBU normalisation only.
type Policy struct {
	Type                Type
	TargetLevel         float64 // dB / LUFS (default -24)
	LoudnessRangeTarget float64 // LU (default 7)
	TruePeak            float64 // dBTP (default -2)
	Offset              float64 // LU gain applied before the limiter
	DualMono            bool    // measure mono input as dual-mono
}

// DefaultPolicy mirrors the documented CLI defaults.
func DefaultPolicy() Policy {
	return Policy{
		Type:                TypeEBU,
		TargetLevel:         -24.0,
		LoudnessRangeTarget: 7.0,
		TruePeak:            -2.0,
		Offset:              0.0,
	}
}
