package normalise

import (
	"errors"
	"testing"
)

const volumeDetectOutput = `Input #0, wav, from 'episode.wav':
  Duration: 00:01:52.01, bitrate: 1411 kb/s
Output #0, null, to '/dev/null':
[Parsed_volumedetect_0 @ 0x5591] n_samples: 4935680
[Parsed_volumedetect_0 @ 0x5591] mean_volume: -27.2 dB
[Parsed_volumedetect_0 @ 0x5591] max_volume: -8.3 dB
[Parsed_volumedetect_0 @ 0x5591] histogram_8db: 23
video:0kB audio:19280kB subtitle:0kB other streams:0kB
`

func TestParseVolumeDetect(t *testing.T) {
	t.Run("typical_output", func(t *testing.T) {
		stats, err := ParseVolumeDetect("episode.wav", volumeDetectOutput)
		if err != nil {
			t.Fatalf("ParseVolumeDetect failed: %v", err)
		}
		if stats.MeanDB != -27.2 {
			t.Errorf("MeanDB = %v, want -27.2", stats.MeanDB)
		}
		if stats.MaxDB != -8.3 {
			t.Errorf("MaxDB = %v, want -8.3", stats.MaxDB)
		}
	})

	t.Run("idempotent", func(t *testing.T) {
		first, err := ParseVolumeDetect("episode.wav", volumeDetectOutput)
		if err != nil {
			t.Fatalf("ParseVolumeDetect failed: %v", err)
		}
		second, err := ParseVolumeDetect("episode.wav", volumeDetectOutput)
		if err != nil {
			t.Fatalf("ParseVolumeDetect failed: %v", err)
		}
		if *first != *second {
			t.Errorf("repeated parse differs: %+v vs %+v", first, second)
		}
	})

	t.Run("first_match_wins", func(t *testing.T) {
		output := "mean_volume: -20.0 dB\nmax_volume: -5.0 dB\n" +
			"mean_volume: -10.0 dB\nmax_volume: -1.0 dB\n"
		stats, err := ParseVolumeDetect("episode.wav", output)
		if err != nil {
			t.Fatalf("ParseVolumeDetect failed: %v", err)
		}
		if stats.MeanDB != -20.0 || stats.MaxDB != -5.0 {
			t.Errorf("got mean=%v max=%v, want first occurrences -20.0 and -5.0",
				stats.MeanDB, stats.MaxDB)
		}
	})

	t.Run("missing_values", func(t *testing.T) {
		cases := []struct {
			name    string
			output  string
			missing string
		}{
			{"no_mean", "max_volume: -8.3 dB\n", "mean volume"},
			{"no_max", "mean_volume: -27.2 dB\n", "max volume"},
			{"empty", "", "mean volume"},
			{"unrelated_text", "frame=  100 fps= 25\n", "mean volume"},
		}

		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				_, err := ParseVolumeDetect("episode.wav", tc.output)
				var parseErr *ParseError
				if !errors.As(err, &parseErr) {
					t.Fatalf("expected ParseError, got %v", err)
				}
				if parseErr.Missing != tc.missing {
					t.Errorf("Missing = %q, want %q", parseErr.Missing, tc.missing)
				}
				if parseErr.Input != "episode.wav" {
					t.Errorf("Input = %q, want episode.wav", parseErr.Input)
				}
			})
		}
	})
}

const loudnormOutput = `Input #0, wav, from 'episode.wav':
  Duration: 00:01:52.01, bitrate: 1411 kb/s
size=N/A time=00:01:52.01 bitrate=N/A speed= 312x
[Parsed_loudnorm_0 @ 0x5591f2b3c800]
{
	"input_i" : "-23.50",
	"input_tp" : "-1.20",
	"input_lra" : "7.10",
	"input_thresh" : "-34.00",
	"output_i" : "-23.95",
	"output_tp" : "-3.11",
	"output_lra" : "6.30",
	"output_thresh" : "-34.39",
	"normalization_type" : "dynamic",
	"target_offset" : "-0.05"
}
`

func TestParseLoudnorm(t *testing.T) {
	t.Run("typical_output", func(t *testing.T) {
		report, err := ParseLoudnorm("episode.wav", loudnormOutput)
		if err != nil {
			t.Fatalf("ParseLoudnorm failed: %v", err)
		}
		if got := report.MeasuredI(); got != -23.5 {
			t.Errorf("MeasuredI = %v, want -23.5", got)
		}
		if got := report.MeasuredTP(); got != -1.2 {
			t.Errorf("MeasuredTP = %v, want -1.2", got)
		}
		if got := report.MeasuredLRA(); got != 7.1 {
			t.Errorf("MeasuredLRA = %v, want 7.1", got)
		}
		if got := report.MeasuredThresh(); got != -34.0 {
			t.Errorf("MeasuredThresh = %v, want -34.0", got)
		}
		if report.NormalizationType != "dynamic" {
			t.Errorf("NormalizationType = %q, want dynamic", report.NormalizationType)
		}
	})

	t.Run("no_marker", func(t *testing.T) {
		_, err := ParseLoudnorm("episode.wav", "size=N/A time=00:01:52.01\n")
		var parseErr *ParseError
		if !errors.As(err, &parseErr) {
			t.Fatalf("expected ParseError, got %v", err)
		}
		if parseErr.Missing != "loudnorm stats" {
			t.Errorf("Missing = %q, want loudnorm stats", parseErr.Missing)
		}
	})

	t.Run("malformed_json", func(t *testing.T) {
		output := "[Parsed_loudnorm_0 @ 0x1]\n{ not json }\n"
		if _, err := ParseLoudnorm("episode.wav", output); err == nil {
			t.Fatal("expected error for malformed JSON")
		}
	})

	t.Run("non_numeric_measurement", func(t *testing.T) {
		output := "[Parsed_loudnorm_0 @ 0x1]\n" +
			`{"input_i": "n/a", "input_tp": "-1.2", "input_lra": "7.1", "input_thresh": "-34.0"}`
		_, err := ParseLoudnorm("episode.wav", output)
		var parseErr *ParseError
		if !errors.As(err, &parseErr) {
			t.Fatalf("expected ParseError for non-numeric field, got %v", err)
		}
	})
}
