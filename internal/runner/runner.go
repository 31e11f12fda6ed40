// Package runner drives the two-pass normalisation of a batch of media
// files: inspect the input, measure every audio stream, compute the
// corrective filter per stream, then re-encode in a single second pass.
package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/linuxmatters/loudhailer/internal/config"
	"github.com/linuxmatters/loudhailer/internal/logging"
	"github.com/linuxmatters/loudhailer/internal/media"
	"github.com/linuxmatters/loudhailer/internal/normalise"
)

// Engine is the slice of the FFmpeg wrapper the runner needs. It is an
// interface so tests can substitute canned measurement output.
type Engine interface {
	Run(ctx context.Context, args ...string) (string, error)
	Inspect(ctx context.Context, path string) ([]*media.Stream, error)
}

// Runner processes media files against one settings snapshot.
type Runner struct {
	Engine   Engine
	Settings config.Settings
	Sink     logging.Sink
	Notify   Notify
}

// New builds a runner. A nil sink discards all diagnostics.
func New(engine Engine, settings config.Settings, sink logging.Sink) *Runner {
	if sink == nil {
		sink = logging.Discard()
	}
	return &Runner{Engine: engine, Settings: settings, Sink: sink}
}

// Process normalises the batch, running up to Settings.Jobs files in
// parallel. A failing file does not stop the others; the per-file errors
// are joined into the returned error. Cancelling the context stops the
// whole batch.
func (r *Runner) Process(ctx context.Context, files []*media.File) error {
	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(r.Settings.Jobs)

	var mu sync.Mutex
	var failures []error

	for i, file := range files {
		i, file := i, file
		group.Go(func() error {
			r.notify(Event{FileIndex: i, File: file.Name(), Stage: StageMeasuring})

			skipped, err := r.processFile(ctx, i, file)
			if ctx.Err() != nil {
				return ctx.Err()
			}

			stage := StageDone
			if skipped {
				stage = StageSkipped
			}
			r.notify(Event{FileIndex: i, File: file.Name(), Stage: stage, Output: file.Output, Err: err})

			if err != nil {
				mu.Lock()
				failures = append(failures, fmt.Errorf("%s: %w", file.Name(), err))
				mu.Unlock()
			}
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return err
	}
	return errors.Join(failures...)
}

// processFile runs both passes for one file. The skipped return is true
// when an existing output was left untouched.
func (r *Runner) processFile(ctx context.Context, index int, file *media.File) (skipped bool, err error) {
	if file.Input == file.Output {
		return false, fmt.Errorf("output would overwrite input %s", file.Input)
	}
	if !r.Settings.Force && !r.Settings.DryRun {
		if _, statErr := os.Stat(file.Output); statErr == nil {
			r.Sink.Warnf("output %s exists, skipping (use force to overwrite)", file.Output)
			return true, nil
		}
	}

	streams, err := r.Engine.Inspect(ctx, file.Input)
	if err != nil {
		return false, err
	}
	file.Streams = streams

	audio := file.AudioStreams()
	if len(audio) == 0 {
		return false, fmt.Errorf("no audio streams in %s", file.Input)
	}

	policy := r.Settings.Policy()
	report := &logging.FileReport{Input: file.Input, Output: file.Output}

	filters := make([]streamFilter, 0, len(audio))
	for _, stream := range audio {
		if err := r.measure(ctx, file, stream, policy); err != nil {
			return false, err
		}
		filter, streamReport, err := r.correction(file, stream, policy)
		if err != nil {
			return false, err
		}
		filters = append(filters, streamFilter{stream: stream, filter: filter})
		report.Streams = append(report.Streams, streamReport)
	}

	r.notify(Event{FileIndex: index, File: file.Name(), Stage: StageNormalising})

	args := secondPassArgs(file, filters, r.Settings, r.Sink)
	if r.Settings.DryRun {
		r.Sink.Infof("dry run: ffmpeg %s", strings.Join(args, " "))
		return false, nil
	}
	if _, err := r.Engine.Run(ctx, args...); err != nil {
		return false, err
	}
	r.Sink.Debugf("%s normalised to %s", file.Name(), file.Output)

	if r.Settings.Logs {
		path, err := report.Write()
		if err != nil {
			r.Sink.Warnf("could not write report for %s: %v", file.Name(), err)
		} else {
			r.Sink.Infof("wrote report %s", path)
		}
	}
	return false, nil
}

// measure runs the first pass for one audio stream and stores the parsed
// statistics on the stream.
func (r *Runner) measure(ctx context.Context, file *media.File, stream *media.Stream, policy normalise.Policy) error {
	filter := "volumedetect"
	if policy.Type == normalise.TypeEBU {
		filter = normalise.FirstPassEBU(policy)
	}
	r.Sink.Debugf("%s: measuring %s with %s", file.Name(), stream, filter)

	output, err := r.Engine.Run(ctx, measureArgs(file.Input, stream.Index, filter)...)
	if err != nil {
		return err
	}

	if policy.Type == normalise.TypeEBU {
		ebuReport, err := normalise.ParseLoudnorm(file.Input, output)
		if err != nil {
			return err
		}
		stream.Audio.Stats = &normalise.EBU{Report: ebuReport}
		return nil
	}

	stats, err := normalise.ParseVolumeDetect(file.Input, output)
	if err != nil {
		return err
	}
	stream.Audio.Stats = stats
	return nil
}

// correction turns a stream's measured statistics into its second-pass
// filter string and the matching report row.
func (r *Runner) correction(file *media.File, stream *media.Stream, policy normalise.Policy) (string, logging.StreamReport, error) {
	streamReport := logging.NewStreamReport(stream.Index, string(policy.Type))

	switch stats := stream.Audio.Stats.(type) {
	case *normalise.EBU:
		filter, err := normalise.SecondPassEBU(policy, stats.Report)
		if err != nil {
			return "", streamReport, err
		}
		streamReport.MeasuredI = stats.Report.MeasuredI()
		streamReport.MeasuredLRA = stats.Report.MeasuredLRA()
		streamReport.MeasuredTP = stats.Report.MeasuredTP()
		streamReport.MeasuredThresh = stats.Report.MeasuredThresh()
		streamReport.Filter = filter
		return filter, streamReport, nil

	case *normalise.PeakRMS:
		gain, err := normalise.Adjustment(stats, policy)
		if err != nil {
			return "", streamReport, err
		}
		if gain.Clips() {
			r.Sink.Warnf("%s: adjusting %s by %.1f dB will lead to clipping of %.1f dB",
				file.Name(), stream, gain.DB, gain.ClipsBy())
		}
		filter := normalise.VolumeFilter(gain)
		streamReport.MeanDB = stats.MeanDB
		streamReport.MaxDB = stats.MaxDB
		streamReport.AdjustmentDB = gain.DB
		streamReport.ClipsBy = gain.ClipsBy()
		streamReport.Filter = filter
		return filter, streamReport, nil

	default:
		return "", streamReport, &normalise.PrerequisiteError{Step: "the measurement pass"}
	}
}
