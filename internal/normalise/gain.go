package normalise

// Gain is the uniform decibel adjustment computed for one stream, together
// with the measured peak it was derived from so clipping risk can be
// reported.
type Gain struct {
	DB    float64 // adjustment to apply
	maxDB float64 // measured max_volume before adjustment
}

// ClipsBy returns the predicted post-adjustment peak level. A value above
// zero means the corrected signal will exceed full scale by that many dB.
func (g Gain) ClipsBy() float64 {
	return g.maxDB + g.DB
}

// Clips reports whether applying the gain is predicted to clip. A peak of
// exactly 0 dB does not clip.
func (g Gain) Clips() bool {
	return g.ClipsBy() > 0
}

// Adjustment computes the gain that brings the measured statistics to the
// policy's target level.
//
// Peak policy targets max_volume, RMS policy targets mean_volume. Both
// require a completed volumedetect first pass; calling with nil or EBU
// statistics fails with PrerequisiteError. EBU normalisation never takes
// this path and fails with UnsupportedPolicyError.
//
// Clipping risk is advisory: the caller surfaces a warning when
// Gain.Clips() is true, but the adjustment is applied regardless.
func Adjustment(stats Statistics, policy Policy) (Gain, error) {
	if policy.Type != TypePeak && policy.Type != TypeRMS {
		return Gain{}, &UnsupportedPolicyError{Type: string(policy.Type)}
	}

	measured, ok := stats.(*PeakRMS)
	if !ok || measured == nil {
		return Gain{}, &PrerequisiteError{Step: "the volumedetect measurement pass"}
	}

	gain := Gain{maxDB: measured.MaxDB}
	switch policy.Type {
	case TypePeak:
		gain.DB = policy.TargetLevel - measured.MaxDB
	case TypeRMS:
		gain.DB = policy.TargetLevel - measured.MeanDB
	}

	return gain, nil
}
