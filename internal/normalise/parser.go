package normalise

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

// Text patterns emitted by the volumedetect filter. The decimal point is
// locale-independent in FFmpeg's stats output.
var (
	meanVolumeRe = regexp.MustCompile(`mean_volume: ([\-\d\.]+) dB`)
	maxVolumeRe  = regexp.MustCompile(`max_volume: ([\-\d\.]+) dB`)
)

// loudnormMarker introduces the JSON report block in loudnorm first-pass
// output. The full line looks like "[Parsed_loudnorm_0 @ 0x...]".
const loudnormMarker = "[Parsed_loudnorm"

// ParseVolumeDetect extracts the mean and max volume from the combined
// output of a volumedetect measurement run. When a pattern occurs more than
// once, the first occurrence wins; with one volumedetect instance per
// invocation there is only ever one.
//
// input names the measured source and is used in error messages only.
func ParseVolumeDetect(input, output string) (*PeakRMS, error) {
	mean := meanVolumeRe.FindStringSubmatch(output)
	if mean == nil {
		return nil, &ParseError{Input: input, Missing: "mean volume"}
	}
	max := maxVolumeRe.FindStringSubmatch(output)
	if max == nil {
		return nil, &ParseError{Input: input, Missing: "max volume"}
	}

	meanDB, err := strconv.ParseFloat(mean[1], 64)
	if err != nil {
		return nil, &ParseError{Input: input, Missing: "mean volume"}
	}
	maxDB, err := strconv.ParseFloat(max[1], 64)
	if err != nil {
		return nil, &ParseError{Input: input, Missing: "max volume"}
	}

	return &PeakRMS{MeanDB: meanDB, MaxDB: maxDB}, nil
}

// ParseLoudnorm extracts the JSON report from the combined output of a
// loudnorm first-pass run. The report is everything after the line that
// starts with the loudnorm marker. The four measured fields must be present
// and numeric; anything else is a parse failure for the stream.
func ParseLoudnorm(input, output string) (*EBUReport, error) {
	lines := strings.Split(output, "\n")

	start := -1
	for i, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), loudnormMarker) {
			start = i
			break
		}
	}
	if start == -1 {
		return nil, &ParseError{Input: input, Missing: "loudnorm stats"}
	}

	var report EBUReport
	body := strings.Join(lines[start+1:], "\n")
	if err := json.Unmarshal([]byte(body), &report); err != nil {
		return nil, &ParseError{Input: input, Missing: "loudnorm stats"}
	}

	for _, field := range []string{report.InputI, report.InputLRA, report.InputTP, report.InputThresh} {
		if _, err := strconv.ParseFloat(field, 64); err != nil {
			return nil, &ParseError{Input: input, Missing: "loudnorm stats"}
		}
	}

	return &report, nil
}
