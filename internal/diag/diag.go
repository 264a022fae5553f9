// Package diag carries the human-readable diagnostic stream of a
// configuration run: informational lines (resolved architecture, chosen
// strategy) and warnings (optional backend unavailable).
package diag

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Level is the severity of a diagnostic line.
type Level int

const (
	// Info lines describe decisions.
	Info Level = iota
	// Warn lines describe a degraded but valid outcome.
	Warn
)

func (l Level) String() string {
	switch l {
	case Info:
		return "info"
	case Warn:
		return "warning"
	default:
		return fmt.Sprintf("Level(%d)", int(l))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *Level) UnmarshalText(text []byte) error {
	switch string(text) {
	case "info":
		*l = Info
	case "warning":
		*l = Warn
	default:
		return fmt.Errorf("unknown diagnostic level %q", text)
	}
	return nil
}

// Line is one diagnostic.
type Line struct {
	Level Level  `json:"level"`
	Text  string `json:"text"`
}

func (l Line) String() string {
	return l.Level.String() + ": " + l.Text
}

// Infof builds an informational line.
func Infof(format string, args ...any) Line {
	return Line{Level: Info, Text: fmt.Sprintf(format, args...)}
}

// Warnf builds a warning line.
func Warnf(format string, args ...any) Line {
	return Line{Level: Warn, Text: fmt.Sprintf(format, args...)}
}

// Sink receives diagnostic lines.
type Sink interface {
	Emit(Line)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Line)

// Emit calls f(line).
func (f SinkFunc) Emit(line Line) { f(line) }

// Discard drops every line.
var Discard Sink = SinkFunc(func(Line) {})

// Recorder keeps every emitted line in order. It is safe for concurrent use.
type Recorder struct {
	mu    sync.Mutex
	lines []Line
}

// Emit appends line.
func (r *Recorder) Emit(line Line) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = append(r.lines, line)
}

// Lines returns a copy of the recorded lines.
func (r *Recorder) Lines() []Line {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Line, len(r.lines))
	copy(out, r.lines)
	return out
}

// Count returns how many lines of the given level were recorded.
func (r *Recorder) Count(level Level) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, l := range r.lines {
		if l.Level == level {
			n++
		}
	}
	return n
}

// Logger forwards lines to a slog.Logger: Info at slog.LevelInfo, Warn at
// slog.LevelWarn.
func Logger(logger *slog.Logger) Sink {
	return SinkFunc(func(line Line) {
		level := slog.LevelInfo
		if line.Level == Warn {
			level = slog.LevelWarn
		}
		logger.Log(context.Background(), level, line.Text)
	})
}

// Multi fans a line out to every non-nil sink in order.
func Multi(sinks ...Sink) Sink {
	var live []Sink
	for _, s := range sinks {
		if s != nil {
			live = append(live, s)
		}
	}
	return SinkFunc(func(line Line) {
		for _, s := range live {
			s.Emit(line)
		}
	})
}
