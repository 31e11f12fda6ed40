package ffmpeg

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/linuxmatters/loudhailer/internal/media"
)

// ffprobe's JSON report. Numeric fields arrive as strings for the most
// part; bits_per_sample is a real integer but often 0 for compressed
// codecs, in which case bits_per_raw_sample carries the source depth.
type probeReport struct {
	Streams []probeStream `json:"streams"`
}

type probeStream struct {
	Index            int    `json:"index"`
	CodecType        string `json:"codec_type"`
	SampleRate       string `json:"sample_rate"`
	BitsPerSample    int    `json:"bits_per_sample"`
	BitsPerRawSample string `json:"bits_per_raw_sample"`
}

// Inspect enumerates the elementary streams of the input file and builds
// their descriptors. Unknown codec types are skipped; they are neither
// normalised nor mapped to the output.
func (e *Engine) Inspect(ctx context.Context, path string) ([]*media.Stream, error) {
	output, err := e.Probe(ctx,
		"-v", "error",
		"-show_streams",
		"-of", "json",
		path,
	)
	if err != nil {
		return nil, err
	}
	streams, err := parseProbeReport(output)
	if err != nil {
		return nil, fmt.Errorf("inspecting %s: %w", path, err)
	}
	return streams, nil
}

func parseProbeReport(output string) ([]*media.Stream, error) {
	var report probeReport
	if err := json.Unmarshal([]byte(output), &report); err != nil {
		return nil, fmt.Errorf("unreadable ffprobe report: %w", err)
	}

	var streams []*media.Stream
	for _, s := range report.Streams {
		switch s.CodecType {
		case "video":
			streams = append(streams, media.NewStream(media.KindVideo, s.Index))
		case "subtitle":
			streams = append(streams, media.NewStream(media.KindSubtitle, s.Index))
		case "audio":
			sampleRate, _ := strconv.Atoi(s.SampleRate)
			bitDepth := s.BitsPerSample
			if bitDepth == 0 && s.BitsPerRawSample != "" {
				bitDepth, _ = strconv.Atoi(s.BitsPerRawSample)
			}
			streams = append(streams, media.NewAudioStream(s.Index, sampleRate, bitDepth))
		}
	}
	return streams, nil
}
