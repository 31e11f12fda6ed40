// Package logging provides the observability sink the normaliser reports
// through, plus rendering of per-file normalisation reports. The sink is a
// capability handed to each component rather than a package-global logger,
// so warnings are testable and never change control flow.
package logging

import (
	"fmt"
	"io"
	"sync"
)

// Level controls how much a sink emits.
type Level int

const (
	LevelWarn Level = iota // warnings only (default)
	LevelInfo              // progress information
	LevelDebug             // raw engine output and command lines
)

// Sink receives diagnostic events. Warnings are advisory: emitting one
// never alters the pipeline's behaviour.
type Sink interface {
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Debugf(format string, args ...any)
}

// Console writes events to a writer, honouring the configured level.
// Writes are serialised so concurrent file workers can share one sink.
type Console struct {
	mu    sync.Mutex
	out   io.Writer
	level Level
}

// NewConsole creates a console sink writing to out.
func NewConsole(out io.Writer, level Level) *Console {
	return &Console{out: out, level: level}
}

func (c *Console) Infof(format string, args ...any) {
	c.emit(LevelInfo, "", format, args...)
}

func (c *Console) Warnf(format string, args ...any) {
	c.emit(LevelWarn, "WARNING: ", format, args...)
}

func (c *Console) Debugf(format string, args ...any) {
	c.emit(LevelDebug, "", format, args...)
}

func (c *Console) emit(level Level, prefix, format string, args ...any) {
	if level > c.level {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, prefix+format+"\n", args...)
}

// Memory records events for inspection. Used by tests and by the UI to
// replay warnings after the programme exits the alternate screen.
type Memory struct {
	mu       sync.Mutex
	Infos    []string
	Warnings []string
	Debugs   []string
}

func (m *Memory) Infof(format string, args ...any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Infos = append(m.Infos, fmt.Sprintf(format, args...))
}

func (m *Memory) Warnf(format string, args ...any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Warnings = append(m.Warnings, fmt.Sprintf(format, args...))
}

func (m *Memory) Debugf(format string, args ...any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Debugs = append(m.Debugs, fmt.Sprintf(format, args...))
}

type discard struct{}

func (discard) Infof(string, ...any)  {}
func (discard) Warnf(string, ...any)  {}
func (discard) Debugf(string, ...any) {}

// Discard returns a sink that drops everything.
func Discard() Sink { return discard{} }
