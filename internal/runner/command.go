package runner

import (
	"fmt"
	"strings"

	"github.com/linuxmatters/loudhailer/internal/config"
	"github.com/linuxmatters/loudhailer/internal/ffmpeg"
	"github.com/linuxmatters/loudhailer/internal/logging"
	"github.com/linuxmatters/loudhailer/internal/media"
	"github.com/linuxmatters/loudhailer/internal/normalise"
)

// streamFilter pairs an audio stream with the second-pass filter computed
// for it. The slice order decides the filter graph labels [a0], [a1], ...
// and the output stream order.
type streamFilter struct {
	stream *media.Stream
	filter string
}

// measureArgs builds the first-pass command: run a single audio stream
// through a measurement filter, discard every frame, keep only the
// statistics the filter prints.
func measureArgs(input string, streamIndex int, filter string) []string {
	return []string{
		"-nostdin", "-y",
		"-i", input,
		"-filter_complex", fmt.Sprintf("[0:%d]%s", streamIndex, filter),
		"-vn", "-sn",
		"-f", "null", ffmpeg.NullOutput,
	}
}

// secondPassArgs builds the corrective command. Every audio stream passes
// through its filter; video and subtitle streams are copied or dropped per
// the settings.
func secondPassArgs(file *media.File, filters []streamFilter, settings config.Settings, sink logging.Sink) []string {
	args := []string{"-nostdin", "-y", "-i", file.Input}

	parts := make([]string, 0, len(filters))
	for n, sf := range filters {
		parts = append(parts, fmt.Sprintf("[0:%d]%s[a%d]", sf.stream.Index, sf.filter, n))
	}
	args = append(args, "-filter_complex", strings.Join(parts, ";"))

	if settings.VideoDisable {
		args = append(args, "-vn")
	} else if video := file.Video(); len(video) > 0 {
		for _, v := range video {
			args = append(args, "-map", fmt.Sprintf("0:%d", v.Index))
		}
		args = append(args, "-c:v", settings.VideoCodec)
	}

	for n := range filters {
		args = append(args, "-map", fmt.Sprintf("[a%d]", n))
	}
	for n, sf := range filters {
		args = append(args, fmt.Sprintf("-c:a:%d", n), audioCodec(sf.stream, settings, sink))
	}
	if settings.AudioBitrate != "" {
		args = append(args, "-b:a", settings.AudioBitrate)
	}
	if settings.SampleRate != "" {
		args = append(args, "-ar", settings.SampleRate)
	}

	if settings.SubtitleDisable {
		args = append(args, "-sn")
	} else {
		for _, s := range file.Subtitles() {
			args = append(args, "-map", fmt.Sprintf("0:%d", s.Index))
		}
		if len(file.Subtitles()) > 0 {
			args = append(args, "-c:s", "copy")
		}
	}

	if settings.MetadataDisable {
		args = append(args, "-map_metadata", "-1")
	}
	args = append(args, settings.ExtraOutputOptions...)
	if settings.OutputFormat != "" {
		args = append(args, "-f", settings.OutputFormat)
	}

	return append(args, file.Output)
}

// audioCodec picks the encoder for one output audio stream: the configured
// codec when set, otherwise a PCM codec matching the input bit depth.
func audioCodec(stream *media.Stream, settings config.Settings, sink logging.Sink) string {
	if settings.AudioCodec != "" {
		return settings.AudioCodec
	}
	codec, warn := normalise.PCMCodec(stream.Audio.BitDepth)
	if warn != nil {
		sink.Warnf("%s: %v", stream, warn)
	}
	return codec
}
