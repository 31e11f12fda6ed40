package runner

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/linuxmatters/loudhailer/internal/config"
	"github.com/linuxmatters/loudhailer/internal/logging"
	"github.com/linuxmatters/loudhailer/internal/media"
)

// fakeEngine records every invocation and serves canned measurement
// output for the first pass.
type fakeEngine struct {
	mu      sync.Mutex
	streams []*media.Stream
	measure string
	runs    [][]string
}

func (f *fakeEngine) Run(_ context.Context, args ...string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runs = append(f.runs, args)
	for _, a := range args {
		if a == "null" {
			return f.measure, nil
		}
	}
	return "", nil
}

func (f *fakeEngine) Inspect(context.Context, string) ([]*media.Stream, error) {
	return f.streams, nil
}

func (f *fakeEngine) lastRun() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.runs) == 0 {
		return nil
	}
	return f.runs[len(f.runs)-1]
}

const fakeVolumeDetect = `[Parsed_volumedetect_0 @ 0x1] n_samples: 100
[Parsed_volumedetect_0 @ 0x1] mean_volume: -20.0 dB
[Parsed_volumedetect_0 @ 0x1] max_volume: -10.0 dB
`

const fakeLoudnorm = `size=N/A time=00:01:52.01 bitrate=N/A
[Parsed_loudnorm_0 @ 0x1]
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

func testFile(t *testing.T) *media.File {
	t.Helper()
	return &media.File{
		Input:  "episode.wav",
		Output: filepath.Join(t.TempDir(), "episode.mkv"),
	}
}

func peakSettings() config.Settings {
	settings := config.Default()
	settings.NormalisationType = "peak"
	settings.TargetLevel = -5.0
	return settings
}

func TestProcessPeak(t *testing.T) {
	engine := &fakeEngine{
		streams: []*media.Stream{media.NewAudioStream(0, 44100, 16)},
		measure: fakeVolumeDetect,
	}
	file := testFile(t)

	r := New(engine, peakSettings(), nil)
	if err := r.Process(context.Background(), []*media.File{file}); err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	if len(engine.runs) != 2 {
		t.Fatalf("got %d runs, want measurement + second pass", len(engine.runs))
	}

	first := strings.Join(engine.runs[0], " ")
	if !strings.Contains(first, "[0:0]volumedetect") {
		t.Errorf("first pass missing volumedetect: %q", first)
	}
	if !strings.Contains(first, "-f null") {
		t.Errorf("first pass should discard output: %q", first)
	}

	second := strings.Join(engine.runs[1], " ")
	if !strings.Contains(second, "[0:0]volume=5.0[a0]") {
		t.Errorf("second pass missing volume filter: %q", second)
	}
	if !strings.Contains(second, "-c:a:0 pcm_s16le") {
		t.Errorf("second pass missing PCM codec: %q", second)
	}
	if got := engine.runs[1][len(engine.runs[1])-1]; got != file.Output {
		t.Errorf("second pass output = %q, want %q", got, file.Output)
	}
}

func TestProcessEBU(t *testing.T) {
	engine := &fakeEngine{
		streams: []*media.Stream{media.NewAudioStream(1, 48000, 24)},
		measure: fakeLoudnorm,
	}
	file := testFile(t)

	r := New(engine, config.Default(), nil)
	if err := r.Process(context.Background(), []*media.File{file}); err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	first := strings.Join(engine.runs[0], " ")
	if !strings.Contains(first, "[0:1]loudnorm=i=-24.0:lra=7.0:tp=-2.0:offset=0.0:print_format=json") {
		t.Errorf("first pass missing loudnorm options: %q", first)
	}

	second := strings.Join(engine.lastRun(), " ")
	if !strings.Contains(second, "measured_i=-23.5:measured_lra=7.1:measured_tp=-1.2:measured_thresh=-34.0:linear=true") {
		t.Errorf("second pass missing measured values: %q", second)
	}
	if !strings.Contains(second, "-c:a:0 pcm_s24le") {
		t.Errorf("second pass missing PCM codec for 24-bit input: %q", second)
	}
}

func TestProcessSkipsExistingOutput(t *testing.T) {
	engine := &fakeEngine{
		streams: []*media.Stream{media.NewAudioStream(0, 44100, 16)},
		measure: fakeVolumeDetect,
	}
	file := testFile(t)
	if err := os.WriteFile(file.Output, []byte("previous run"), 0o644); err != nil {
		t.Fatal(err)
	}

	sink := &logging.Memory{}
	var events []Event
	r := New(engine, peakSettings(), sink)
	r.Notify = func(e Event) { events = append(events, e) }

	if err := r.Process(context.Background(), []*media.File{file}); err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	if len(engine.runs) != 0 {
		t.Errorf("engine invoked %d times for a skipped file", len(engine.runs))
	}
	if len(sink.Warnings) != 1 || !strings.Contains(sink.Warnings[0], "skipping") {
		t.Errorf("Warnings = %v, want skip warning", sink.Warnings)
	}
	if len(events) == 0 || events[len(events)-1].Stage != StageSkipped {
		t.Errorf("events = %v, want final StageSkipped", events)
	}
}

func TestProcessForceOverwrites(t *testing.T) {
	engine := &fakeEngine{
		streams: []*media.Stream{media.NewAudioStream(0, 44100, 16)},
		measure: fakeVolumeDetect,
	}
	file := testFile(t)
	if err := os.WriteFile(file.Output, []byte("previous run"), 0o644); err != nil {
		t.Fatal(err)
	}

	settings := peakSettings()
	settings.Force = true
	r := New(engine, settings, nil)
	if err := r.Process(context.Background(), []*media.File{file}); err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if len(engine.runs) != 2 {
		t.Errorf("got %d runs, want 2 with force enabled", len(engine.runs))
	}
}

func TestProcessDryRun(t *testing.T) {
	engine := &fakeEngine{
		streams: []*media.Stream{media.NewAudioStream(0, 44100, 16)},
		measure: fakeVolumeDetect,
	}
	file := testFile(t)

	settings := peakSettings()
	settings.DryRun = true
	sink := &logging.Memory{}
	r := New(engine, settings, sink)
	if err := r.Process(context.Background(), []*media.File{file}); err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	if len(engine.runs) != 1 {
		t.Fatalf("got %d runs, want measurement only in dry run", len(engine.runs))
	}
	if len(sink.Infos) != 1 || !strings.Contains(sink.Infos[0], "dry run") {
		t.Errorf("Infos = %v, want dry run command echo", sink.Infos)
	}
	if !strings.Contains(sink.Infos[0], file.Output) {
		t.Errorf("dry run echo missing output path: %q", sink.Infos[0])
	}
}

func TestProcessWarnsAboutClipping(t *testing.T) {
	engine := &fakeEngine{
		streams: []*media.Stream{media.NewAudioStream(0, 44100, 16)},
		measure: "mean_volume: -20.0 dB\nmax_volume: -1.0 dB\n",
	}
	file := testFile(t)

	settings := peakSettings()
	settings.NormalisationType = "rms"
	settings.TargetLevel = -15.0 // +5 dB onto a -1 dB peak
	sink := &logging.Memory{}

	r := New(engine, settings, sink)
	if err := r.Process(context.Background(), []*media.File{file}); err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	if len(sink.Warnings) != 1 || !strings.Contains(sink.Warnings[0], "clipping of 4.0 dB") {
		t.Errorf("Warnings = %v, want clipping warning", sink.Warnings)
	}
	// The gain is applied regardless.
	second := strings.Join(engine.lastRun(), " ")
	if !strings.Contains(second, "volume=5.0") {
		t.Errorf("second pass missing volume filter: %q", second)
	}
}

func TestProcessNoAudioStreams(t *testing.T) {
	engine := &fakeEngine{
		streams: []*media.Stream{media.NewStream(media.KindVideo, 0)},
	}
	file := testFile(t)

	r := New(engine, peakSettings(), nil)
	err := r.Process(context.Background(), []*media.File{file})
	if err == nil || !strings.Contains(err.Error(), "no audio streams") {
		t.Fatalf("Process = %v, want no audio streams error", err)
	}
}

func TestProcessRefusesInPlace(t *testing.T) {
	engine := &fakeEngine{
		streams: []*media.Stream{media.NewAudioStream(0, 44100, 16)},
		measure: fakeVolumeDetect,
	}
	file := &media.File{Input: "episode.wav", Output: "episode.wav"}

	r := New(engine, peakSettings(), nil)
	err := r.Process(context.Background(), []*media.File{file})
	if err == nil || !strings.Contains(err.Error(), "overwrite input") {
		t.Fatalf("Process = %v, want overwrite refusal", err)
	}
}

func TestProcessContinuesAfterFailure(t *testing.T) {
	engine := &fakeEngine{
		streams: []*media.Stream{media.NewAudioStream(0, 44100, 16)},
		measure: "garbage without measurements\n",
	}
	bad := testFile(t)
	alsoBad := testFile(t)

	r := New(engine, peakSettings(), nil)
	err := r.Process(context.Background(), []*media.File{bad, alsoBad})
	if err == nil {
		t.Fatal("expected joined parse errors")
	}
	// Both files were attempted: one measurement run each.
	if len(engine.runs) != 2 {
		t.Errorf("got %d runs, want one measurement attempt per file", len(engine.runs))
	}
}

func TestProcessStageEvents(t *testing.T) {
	engine := &fakeEngine{
		streams: []*media.Stream{media.NewAudioStream(0, 44100, 16)},
		measure: fakeVolumeDetect,
	}
	file := testFile(t)

	var events []Event
	r := New(engine, peakSettings(), nil)
	r.Notify = func(e Event) { events = append(events, e) }

	if err := r.Process(context.Background(), []*media.File{file}); err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	want := []Stage{StageMeasuring, StageNormalising, StageDone}
	if len(events) != len(want) {
		t.Fatalf("got %d events, want %d", len(events), len(want))
	}
	for i, stage := range want {
		if events[i].Stage != stage {
			t.Errorf("event %d stage = %q, want %q", i, events[i].Stage, stage)
		}
	}
	if events[2].Output != file.Output {
		t.Errorf("done event output = %q, want %q", events[2].Output, file.Output)
	}
}

func TestMeasureOnly(t *testing.T) {
	t.Run("peak_rms", func(t *testing.T) {
		engine := &fakeEngine{
			streams: []*media.Stream{media.NewAudioStream(0, 44100, 16)},
			measure: fakeVolumeDetect,
		}
		file := testFile(t)

		r := New(engine, peakSettings(), nil)
		stats, err := r.MeasureOnly(context.Background(), file)
		if err != nil {
			t.Fatalf("MeasureOnly failed: %v", err)
		}
		if len(stats) != 1 {
			t.Fatalf("got %d stats, want 1", len(stats))
		}
		if stats[0].MeanVolume == nil || *stats[0].MeanVolume != -20.0 {
			t.Errorf("MeanVolume = %v, want -20", stats[0].MeanVolume)
		}
		if stats[0].MaxVolume == nil || *stats[0].MaxVolume != -10.0 {
			t.Errorf("MaxVolume = %v, want -10", stats[0].MaxVolume)
		}
		if stats[0].EBU != nil {
			t.Error("EBU report set for a volumedetect measurement")
		}
		if len(engine.runs) != 1 {
			t.Errorf("got %d runs, want measurement only", len(engine.runs))
		}
	})

	t.Run("ebu", func(t *testing.T) {
		engine := &fakeEngine{
			streams: []*media.Stream{media.NewAudioStream(0, 44100, 16)},
			measure: fakeLoudnorm,
		}
		file := testFile(t)

		r := New(engine, config.Default(), nil)
		stats, err := r.MeasureOnly(context.Background(), file)
		if err != nil {
			t.Fatalf("MeasureOnly failed: %v", err)
		}
		if stats[0].EBU == nil || stats[0].EBU.InputI != "-23.50" {
			t.Errorf("EBU report = %+v, want input_i -23.50", stats[0].EBU)
		}
		if stats[0].MeanVolume != nil {
			t.Error("MeanVolume set for an EBU measurement")
		}
	})
}
