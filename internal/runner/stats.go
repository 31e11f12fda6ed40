package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/linuxmatters/loudhailer/internal/media"
	"github.com/linuxmatters/loudhailer/internal/normalise"
)

// StreamStats is the measurement summary for one audio stream. Exactly one
// of the volumedetect pair or the EBU report is populated, depending on
// the normalisation type.
type StreamStats struct {
	InputFile  string               `json:"input_file"`
	OutputFile string               `json:"output_file"`
	StreamID   int                  `json:"stream_id"`
	MeanVolume *float64             `json:"mean_volume,omitempty"`
	MaxVolume  *float64             `json:"max_volume,omitempty"`
	EBU        *normalise.EBUReport `json:"ebu_pass1,omitempty"`
}

// MeasureOnly runs just the measurement pass for every audio stream of one
// file and returns the collected statistics. Nothing is written.
func (r *Runner) MeasureOnly(ctx context.Context, file *media.File) ([]StreamStats, error) {
	streams, err := r.Engine.Inspect(ctx, file.Input)
	if err != nil {
		return nil, err
	}
	file.Streams = streams

	audio := file.AudioStreams()
	if len(audio) == 0 {
		return nil, fmt.Errorf("no audio streams in %s", file.Input)
	}

	policy := r.Settings.Policy()
	stats := make([]StreamStats, 0, len(audio))
	for _, stream := range audio {
		if err := r.measure(ctx, file, stream, policy); err != nil {
			return nil, err
		}

		s := StreamStats{InputFile: file.Input, OutputFile: file.Output, StreamID: stream.Index}
		switch measured := stream.Audio.Stats.(type) {
		case *normalise.EBU:
			s.EBU = measured.Report
		case *normalise.PeakRMS:
			mean, max := measured.MeanDB, measured.MaxDB
			s.MeanVolume, s.MaxVolume = &mean, &max
		}
		stats = append(stats, s)
	}
	return stats, nil
}

// WriteStats renders collected statistics as indented JSON.
func WriteStats(w io.Writer, stats []StreamStats) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(stats)
}
