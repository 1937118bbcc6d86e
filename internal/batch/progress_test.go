package batch

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNoOpProgressCallback(t *testing.T) {
	callback := NoOpProgressCallback{}
	callback.OnStart(10)
	callback.OnProgress(5, 10)
	callback.OnComplete()
	callback.OnError(3, assert.AnError)
}

func TestConsoleProgressCallback(t *testing.T) {
	var buf bytes.Buffer
	callback := NewConsoleProgressCallback(&buf, "Scan: ").WithUpdateInterval(time.Nanosecond)

	callback.OnStart(10)
	assert.Contains(t, buf.String(), "Scan: 0/10 (0.0%)")

	buf.Reset()
	callback.OnProgress(5, 10)
	assert.Contains(t, buf.String(), "5/10")
	assert.Contains(t, buf.String(), "50.0%")

	buf.Reset()
	callback.OnComplete()
	assert.Contains(t, buf.String(), "Scan: Completed")

	buf.Reset()
	callback.OnError(3, assert.AnError)
	assert.Contains(t, buf.String(), "Scan: Error at file 3")
}

func TestConsoleProgressCallback_ZeroTotal(t *testing.T) {
	var buf bytes.Buffer
	callback := NewConsoleProgressCallback(&buf, "")
	callback.OnProgress(0, 0)
	assert.Empty(t, buf.String())
}

func TestLogProgressCallback(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	callback := NewLogProgressCallback(logger, slog.LevelInfo).WithInterval(2)

	callback.OnStart(3)
	callback.OnProgress(1, 3)
	assert.NotContains(t, buf.String(), "batch progress")
	callback.OnProgress(2, 3)
	assert.Contains(t, buf.String(), "batch progress")
	callback.OnError(3, assert.AnError)
	assert.Contains(t, buf.String(), "batch file skipped")
	callback.OnComplete()
	assert.Contains(t, buf.String(), "batch completed")
}
