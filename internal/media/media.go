// Package media models the files and elementary streams the normaliser
// works on. Stream identity is established once by ffprobe inspection and
// never changes; only the audio measurement state is populated later.
package media

import (
	"fmt"
	"path/filepath"

	"github.com/linuxmatters/loudhailer/internal/normalise"
)

// Kind tags the stream type. Only audio streams carry extra state.
type Kind string

const (
	KindVideo    Kind = "video"
	KindAudio    Kind = "audio"
	KindSubtitle Kind = "subtitle"
)

// Stream identifies one elementary stream within its parent file.
type Stream struct {
	Kind  Kind
	Index int // stream index within the input, as addressed by [0:<index>]

	// Audio is set for audio streams only.
	Audio *AudioState
}

// AudioState is the audio-only stream state: static properties discovered
// during inspection plus the first-pass measurement result.
type AudioState struct {
	SampleRate int // Hz, 0 when unknown
	BitDepth   int // bits per sample, 0 when unknown

	// Stats is nil until the first measurement pass has run.
	Stats normalise.Statistics
}

// NewAudioStream builds an audio stream descriptor.
func NewAudioStream(index, sampleRate, bitDepth int) *Stream {
	return &Stream{
		Kind:  KindAudio,
		Index: index,
		Audio: &AudioState{SampleRate: sampleRate, BitDepth: bitDepth},
	}
}

// NewStream builds a descriptor for a non-audio stream.
func NewStream(kind Kind, index int) *Stream {
	return &Stream{Kind: kind, Index: index}
}

func (s *Stream) String() string {
	return fmt.Sprintf("%s stream %d", s.Kind, s.Index)
}

// File is one input/output pair with the streams discovered in the input.
type File struct {
	Input   string
	Output  string
	Streams []*Stream
}

// Name returns the input's base name for display and error messages.
func (f *File) Name() string {
	return filepath.Base(f.Input)
}

// AudioStreams returns the audio streams in input order.
func (f *File) AudioStreams() []*Stream {
	var audio []*Stream
	for _, s := range f.Streams {
		if s.Kind == KindAudio {
			audio = append(audio, s)
		}
	}
	return audio
}

// Video returns the video streams in input order.
func (f *File) Video() []*Stream {
	var video []*Stream
	for _, s := range f.Streams {
		if s.Kind == KindVideo {
			video = append(video, s)
		}
	}
	return video
}

// Subtitles returns the subtitle streams in input order.
func (f *File) Subtitles() []*Stream {
	var subs []*Stream
	for _, s := range f.Streams {
		if s.Kind == KindSubtitle {
			subs = append(subs, s)
		}
	}
	return subs
}
