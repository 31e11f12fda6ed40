// Package ffmpeg locates and invokes the external FFmpeg tools. Every
// invocation is context-cancellable and captures the combined stdout and
// stderr text, which is where FFmpeg prints its measurement statistics.
package ffmpeg

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Engine wraps the resolved ffmpeg and ffprobe binaries.
type Engine struct {
	FFmpeg  string
	FFprobe string
}

// NewEngine resolves the ffmpeg and ffprobe binaries. The FFMPEG_PATH and
// FFPROBE_PATH environment variables override PATH lookup.
func NewEngine() (*Engine, error) {
	ffmpegBin, err := resolve("FFMPEG_PATH", "ffmpeg")
	if err != nil {
		return nil, err
	}
	ffprobeBin, err := resolve("FFPROBE_PATH", "ffprobe")
	if err != nil {
		return nil, err
	}
	return &Engine{FFmpeg: ffmpegBin, FFprobe: ffprobeBin}, nil
}

func resolve(envVar, name string) (string, error) {
	if path := os.Getenv(envVar); path != "" {
		return path, nil
	}
	path, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("%s not found in PATH: %w", name, err)
	}
	return path, nil
}

// Run invokes ffmpeg with the given arguments and returns its combined
// output. Cancelling the context kills the in-flight process; the
// cancellation is returned as ctx.Err(), never as a downstream parse
// failure.
func (e *Engine) Run(ctx context.Context, args ...string) (string, error) {
	return run(ctx, e.FFmpeg, args)
}

// Probe invokes ffprobe and returns its stdout.
func (e *Engine) Probe(ctx context.Context, args ...string) (string, error) {
	return run(ctx, e.FFprobe, args)
}

func run(ctx context.Context, bin string, args []string) (string, error) {
	cmd := exec.CommandContext(ctx, bin, args...)

	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf

	err := cmd.Run()
	if ctx.Err() != nil {
		return buf.String(), ctx.Err()
	}
	if err != nil {
		return buf.String(), fmt.Errorf("%s failed: %w: %s", bin, err, outputTail(buf.String()))
	}
	return buf.String(), nil
}

// outputTail trims captured output to its last few lines, which is where
// FFmpeg reports the actual failure.
func outputTail(output string) string {
	lines := strings.Split(strings.TrimSpace(output), "\n")
	const keep = 4
	if len(lines) > keep {
		lines = lines[len(lines)-keep:]
	}
	return strings.Join(lines, " | ")
}

// NullOutput is the discard target for measurement-only invocations.
var NullOutput = os.DevNull
