package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/linuxmatters/loudhailer/internal/cli"
	"github.com/linuxmatters/loudhailer/internal/config"
	"github.com/linuxmatters/loudhailer/internal/ffmpeg"
	"github.com/linuxmatters/loudhailer/internal/logging"
	"github.com/linuxmatters/loudhailer/internal/media"
	"github.com/linuxmatters/loudhailer/internal/runner"
	"github.com/linuxmatters/loudhailer/internal/ui"
)

var (
	version = "0.0.1"
)

// CLI defines the command-line interface. Normalisation and encoding flags
// are pointers so an explicit flag can be told apart from an absent one:
// flags override the config file, which overrides the defaults.
type CLI struct {
	Version bool   `short:"v" help:"Show version information"`
	Config  string `short:"c" type:"path" help:"Path to TOML config file (optional)"`

	Output       []string `short:"o" type:"path" help:"Output file names, one per input file"`
	OutputFolder *string  `help:"Folder for output files when -o is not given (default: normalized)"`
	Extension    *string  `help:"Output file extension when -o is not given (default: mkv)"`
	Force        bool     `short:"f" help:"Overwrite existing output files"`
	DryRun       bool     `short:"n" help:"Print the second-pass commands without running them"`
	PrintStats   bool     `short:"p" help:"Measure only and print statistics as JSON"`

	NormalisationType   *string  `help:"Normalisation type: ebu, rms or peak (default: ebu)"`
	TargetLevel         *float64 `short:"t" help:"Target level in LUFS (ebu) or dB (rms, peak) (default: -24)"`
	LoudnessRangeTarget *float64 `help:"EBU loudness range target in LU (default: 7)"`
	TruePeak            *float64 `help:"EBU maximum true peak in dBTP (default: -2)"`
	Offset              *float64 `help:"EBU offset in LU (default: 0)"`
	DualMono            *bool    `help:"Treat mono input as dual-mono"`

	AudioCodec         *string `help:"Output audio codec (default: PCM matching the input bit depth)"`
	AudioBitrate       *string `help:"Output audio bitrate, e.g. 192k"`
	SampleRate         *string `help:"Output sample rate in Hz"`
	VideoCodec         *string `help:"Output video codec (default: copy)"`
	VideoDisable       *bool   `help:"Drop video streams"`
	SubtitleDisable    *bool   `help:"Drop subtitle streams"`
	MetadataDisable    *bool   `help:"Drop metadata"`
	ExtraOutputOptions string  `help:"Extra output options as a JSON list, e.g. '[\"-vbr\", \"3\"]'"`
	OutputFormat       *string `help:"Force the output container format"`

	Jobs  *int `short:"j" help:"Number of files to process in parallel (default: 1)"`
	Logs  bool `help:"Save a normalisation report next to each output"`
	Plain bool `help:"Plain console output instead of the TUI"`
	Debug bool `short:"d" help:"Show debug output (plain mode)"`

	Files []string `arg:"" name:"files" help:"Media files to normalise" type:"existingfile" optional:""`
}

func main() {
	cliArgs := &CLI{}
	kctx := kong.Parse(cliArgs,
		kong.Name("loudhailer"),
		kong.Description("Batch loudness normaliser for audio and video files"),
		kong.UsageOnError(),
		kong.Vars{
			"version": version,
		},
		kong.Help(cli.StyledHelpPrinter(kong.HelpOptions{Compact: true})),
	)

	// Handle version flag
	if cliArgs.Version {
		cli.PrintVersion(version)
		os.Exit(0)
	}

	// Validate input
	if len(cliArgs.Files) == 0 {
		cli.PrintError("No input files specified")
		kctx.PrintUsage(false)
		os.Exit(1)
	}

	settings, err := buildSettings(cliArgs)
	if err != nil {
		cli.PrintError(err.Error())
		os.Exit(1)
	}

	files, err := pairOutputs(cliArgs, settings)
	if err != nil {
		cli.PrintError(err.Error())
		os.Exit(1)
	}

	engine, err := ffmpeg.NewEngine()
	if err != nil {
		cli.PrintError(err.Error())
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch {
	case cliArgs.PrintStats:
		err = runPrintStats(ctx, cliArgs, engine, settings, files)
	case cliArgs.Plain || settings.DryRun:
		err = runPlain(ctx, cliArgs, engine, settings, files)
	default:
		err = runTUI(ctx, engine, settings, files)
	}
	if err != nil {
		cli.PrintError(err.Error())
		os.Exit(1)
	}
}

// buildSettings layers defaults, the optional config file, and the
// explicitly given flags, then validates the result.
func buildSettings(cliArgs *CLI) (config.Settings, error) {
	settings := config.Default()
	if cliArgs.Config != "" {
		loaded, err := config.Load(cliArgs.Config)
		if err != nil {
			return config.Settings{}, err
		}
		settings = loaded
	}

	setString(&settings.NormalisationType, cliArgs.NormalisationType)
	setFloat(&settings.TargetLevel, cliArgs.TargetLevel)
	setFloat(&settings.LoudnessRangeTarget, cliArgs.LoudnessRangeTarget)
	setFloat(&settings.TruePeak, cliArgs.TruePeak)
	setFloat(&settings.Offset, cliArgs.Offset)
	setBool(&settings.DualMono, cliArgs.DualMono)

	setString(&settings.AudioCodec, cliArgs.AudioCodec)
	setString(&settings.AudioBitrate, cliArgs.AudioBitrate)
	setString(&settings.SampleRate, cliArgs.SampleRate)
	setString(&settings.VideoCodec, cliArgs.VideoCodec)
	setBool(&settings.VideoDisable, cliArgs.VideoDisable)
	setBool(&settings.SubtitleDisable, cliArgs.SubtitleDisable)
	setBool(&settings.MetadataDisable, cliArgs.MetadataDisable)
	setString(&settings.OutputFormat, cliArgs.OutputFormat)
	setString(&settings.OutputFolder, cliArgs.OutputFolder)
	setString(&settings.Extension, cliArgs.Extension)
	setInt(&settings.Jobs, cliArgs.Jobs)

	if cliArgs.ExtraOutputOptions != "" {
		opts, err := config.ParseExtraOptions(cliArgs.ExtraOutputOptions)
		if err != nil {
			return config.Settings{}, err
		}
		settings.ExtraOutputOptions = opts
	}

	if cliArgs.Force {
		settings.Force = true
	}
	if cliArgs.DryRun {
		settings.DryRun = true
	}
	if cliArgs.Logs {
		settings.Logs = true
	}

	if err := settings.Validate(); err != nil {
		return config.Settings{}, err
	}
	return settings, nil
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

func setFloat(dst *float64, src *float64) {
	if src != nil {
		*dst = *src
	}
}

func setBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}

func setInt(dst *int, src *int) {
	if src != nil {
		*dst = *src
	}
}

// pairOutputs maps every input file to its output path: the -o list when
// given, otherwise the output folder with the configured extension.
func pairOutputs(cliArgs *CLI, settings config.Settings) ([]*media.File, error) {
	if len(cliArgs.Output) > 0 && len(cliArgs.Output) != len(cliArgs.Files) {
		return nil, fmt.Errorf("number of output files (%d) has to match the number of input files (%d)",
			len(cliArgs.Output), len(cliArgs.Files))
	}

	useFolder := len(cliArgs.Output) == 0
	if useFolder && !settings.DryRun && !cliArgs.PrintStats {
		if _, err := config.EnsureOutputFolder(settings.OutputFolder); err != nil {
			return nil, err
		}
	}

	files := make([]*media.File, 0, len(cliArgs.Files))
	for i, input := range cliArgs.Files {
		var output string
		if useFolder {
			base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
			output = filepath.Join(settings.OutputFolder, base+"."+settings.Extension)
		} else {
			output = cliArgs.Output[i]
		}
		files = append(files, &media.File{Input: input, Output: output})
	}
	return files, nil
}

// runPrintStats measures every file and prints the statistics as JSON. In
// TUI mode a spinner shows while the measurements run.
func runPrintStats(ctx context.Context, cliArgs *CLI, engine runner.Engine, settings config.Settings, files []*media.File) error {
	sink := consoleSink(cliArgs)
	r := runner.New(engine, settings, sink)

	measure := func() ([]runner.StreamStats, error) {
		var all []runner.StreamStats
		for _, file := range files {
			stats, err := r.MeasureOnly(ctx, file)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", file.Name(), err)
			}
			all = append(all, stats...)
		}
		return all, nil
	}

	if cliArgs.Plain {
		stats, err := measure()
		if err != nil {
			return err
		}
		return runner.WriteStats(os.Stdout, stats)
	}

	p := tea.NewProgram(ui.NewMeasureModel())
	var stats []runner.StreamStats
	var measureErr error
	go func() {
		for _, file := range files {
			p.Send(ui.MeasureStartMsg{FilePath: file.Input})
			fileStats, err := r.MeasureOnly(ctx, file)
			if err != nil {
				measureErr = fmt.Errorf("%s: %w", file.Name(), err)
				break
			}
			stats = append(stats, fileStats...)
		}
		p.Send(ui.MeasureCompleteMsg{Error: measureErr})
	}()
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("UI error: %w", err)
	}
	if measureErr != nil {
		return measureErr
	}
	return runner.WriteStats(os.Stdout, stats)
}

// runPlain processes the batch with console output only.
func runPlain(ctx context.Context, cliArgs *CLI, engine runner.Engine, settings config.Settings, files []*media.File) error {
	r := runner.New(engine, settings, consoleSink(cliArgs))
	return r.Process(ctx, files)
}

// runTUI processes the batch behind the Bubbletea progress display.
func runTUI(ctx context.Context, engine runner.Engine, settings config.Settings, files []*media.File) error {
	inputs := make([]string, len(files))
	for i, f := range files {
		inputs[i] = f.Input
	}
	model := ui.NewModel(inputs)
	p := tea.NewProgram(model, tea.WithAltScreen())

	r := runner.New(engine, settings, &tuiSink{p: p})
	r.Notify = func(e runner.Event) {
		switch e.Stage {
		case runner.StageMeasuring:
			p.Send(ui.FileStartMsg{FileIndex: e.FileIndex, FileName: e.File})
		case runner.StageNormalising:
			p.Send(ui.FileStageMsg{FileIndex: e.FileIndex, Stage: string(e.Stage)})
		case runner.StageDone, runner.StageSkipped:
			p.Send(ui.FileCompleteMsg{
				FileIndex:  e.FileIndex,
				OutputPath: e.Output,
				Skipped:    e.Stage == runner.StageSkipped,
				Error:      e.Err,
			})
		}
	}

	var runErr error
	go func() {
		runErr = r.Process(ctx, files)
		p.Send(ui.AllCompleteMsg{})
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("UI error: %w", err)
	}
	return runErr
}

// consoleSink builds the plain-mode diagnostics sink.
func consoleSink(cliArgs *CLI) logging.Sink {
	level := logging.LevelInfo
	if cliArgs.Debug {
		level = logging.LevelDebug
	}
	return logging.NewConsole(os.Stderr, level)
}

// tuiSink forwards runner warnings into the progress display.
type tuiSink struct {
	p *tea.Program
}

func (s *tuiSink) Infof(string, ...any)  {}
func (s *tuiSink) Debugf(string, ...any) {}

func (s *tuiSink) Warnf(format string, args ...any) {
	s.p.Send(ui.WarningMsg{Text: fmt.Sprintf(format, args...)})
}
