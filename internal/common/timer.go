// Package common provides small helpers shared by the pipeline stages.
package common

import (
	"log/slog"
	"time"
)

// Timer measures one pipeline stage. The first Stop fixes the elapsed time.
type Timer struct {
	name    string
	start   time.Time
	elapsed time.Duration
	stopped bool
}

// StartTimer starts a timer for the named stage.
func StartTimer(name string) *Timer {
	return &Timer{name: name, start: time.Now()}
}

// Stop stops the timer and returns the elapsed duration. Later calls return
// the same value.
func (t *Timer) Stop() time.Duration {
	if !t.stopped {
		t.elapsed = time.Since(t.start)
		t.stopped = true
	}
	return t.elapsed
}

// Elapsed is the final duration once stopped, the running time before.
func (t *Timer) Elapsed() time.Duration {
	if t.stopped {
		return t.elapsed
	}
	return time.Since(t.start)
}

// Name returns the stage name.
func (t *Timer) Name() string { return t.name }

// LogValue renders the timer as a group of stage name and milliseconds.
func (t *Timer) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("stage", t.name),
		slog.Float64("ms", float64(t.Elapsed().Microseconds())/1000),
	)
}
