// Package config holds the normalisation and encoding settings, with
// defaults matching the documented CLI behaviour and optional overrides
// from a TOML file.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/linuxmatters/loudhailer/internal/normalise"
)

// Settings is the full run configuration. The zero value is not usable;
// start from Default.
type Settings struct {
	// Normalisation policy
	NormalisationType   string  `toml:"normalisation_type"`
	TargetLevel         float64 `toml:"target_level"`
	LoudnessRangeTarget float64 `toml:"loudness_range_target"`
	TruePeak            float64 `toml:"true_peak"`
	Offset              float64 `toml:"offset"`
	DualMono            bool    `toml:"dual_mono"`

	// Audio encoding
	AudioCodec   string `toml:"audio_codec"`   // empty selects PCM by input bit depth
	AudioBitrate string `toml:"audio_bitrate"` // e.g. "192k", empty for codec default
	SampleRate   string `toml:"sample_rate"`   // Hz, empty keeps input rate

	// Other output streams
	VideoCodec      string `toml:"video_codec"`
	VideoDisable    bool   `toml:"video_disable"`
	SubtitleDisable bool   `toml:"subtitle_disable"`
	MetadataDisable bool   `toml:"metadata_disable"`

	// Output format
	ExtraOutputOptions []string `toml:"extra_output_options"`
	OutputFormat       string   `toml:"output_format"`
	OutputFolder       string   `toml:"output_folder"`
	Extension          string   `toml:"extension"`

	// Run behaviour
	Force  bool `toml:"force"`
	DryRun bool `toml:"-"`
	Logs   bool `toml:"logs"`
	Jobs   int  `toml:"jobs"`
}

// Default returns the documented defaults: EBU normalisation to -24 LUFS,
// video copied, outputs written to ./normalized as Matroska.
func Default() Settings {
	policy := normalise.DefaultPolicy()
	return Settings{
		NormalisationType:   string(policy.Type),
		TargetLevel:         policy.TargetLevel,
		LoudnessRangeTarget: policy.LoudnessRangeTarget,
		TruePeak:            policy.TruePeak,
		Offset:              policy.Offset,
		VideoCodec:          "copy",
		OutputFolder:        "normalized",
		Extension:           "mkv",
		Jobs:                1,
	}
}

// Load reads a TOML file over the defaults. Keys absent from the file keep
// their default values.
func Load(path string) (Settings, error) {
	settings := Default()
	meta, err := toml.DecodeFile(path, &settings)
	if err != nil {
		return Settings{}, fmt.Errorf("reading config %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Settings{}, fmt.Errorf("unknown key %q in config %s", undecoded[0], path)
	}
	return settings, nil
}

// Policy extracts the read-only normalisation policy passed into the core
// operations.
func (s Settings) Policy() normalise.Policy {
	return normalise.Policy{
		Type:                normalise.Type(s.NormalisationType),
		TargetLevel:         s.TargetLevel,
		LoudnessRangeTarget: s.LoudnessRangeTarget,
		TruePeak:            s.TruePeak,
		Offset:              s.Offset,
		DualMono:            s.DualMono,
	}
}

// Validate checks the documented ranges before any engine work starts.
func (s Settings) Validate() error {
	policy := s.Policy()
	if !policy.Type.Valid() {
		return fmt.Errorf("unknown normalisation type %q", s.NormalisationType)
	}
	if policy.Type == normalise.TypeEBU {
		if s.TargetLevel < -70.0 || s.TargetLevel > -5.0 {
			return fmt.Errorf("target level %.1f out of range -70.0..-5.0 LUFS", s.TargetLevel)
		}
		if s.LoudnessRangeTarget < 1.0 || s.LoudnessRangeTarget > 20.0 {
			return fmt.Errorf("loudness range target %.1f out of range 1.0..20.0 LU", s.LoudnessRangeTarget)
		}
		if s.TruePeak < -9.0 || s.TruePeak > 0.0 {
			return fmt.Errorf("true peak %.1f out of range -9.0..0.0 dBTP", s.TruePeak)
		}
		if s.Offset < -99.0 || s.Offset > 99.0 {
			return fmt.Errorf("offset %.1f out of range -99.0..99.0 LU", s.Offset)
		}
	}
	if s.Jobs < 1 {
		return fmt.Errorf("jobs must be at least 1, got %d", s.Jobs)
	}
	if s.Extension == "" {
		return fmt.Errorf("output extension must not be empty")
	}
	return nil
}

// ParseExtraOptions decodes the extra output options CLI value, a JSON
// list of ffmpeg arguments without leading dashes stripped, e.g.
// `["-vbr", "3"]`.
func ParseExtraOptions(raw string) ([]string, error) {
	if raw == "" {
		return nil, nil
	}
	var opts []string
	if err := json.Unmarshal([]byte(raw), &opts); err != nil {
		return nil, fmt.Errorf("extra output options must be a JSON list of strings: %w", err)
	}
	return opts, nil
}

// EnsureOutputFolder creates the default output folder when it does not
// exist yet. Returns true when it had to be created.
func EnsureOutputFolder(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return false, fmt.Errorf("creating output folder %s: %w", path, err)
	}
	return true, nil
}
