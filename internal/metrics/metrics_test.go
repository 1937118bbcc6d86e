package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/snscan/internal/ocr"
	"github.com/MeKo-Tech/snscan/internal/pipeline"
)

func TestRecorder_Counts(t *testing.T) {
	r := New()
	r.ObserveScan(ocr.ModeSparse, pipeline.PassColor, 10*time.Millisecond, nil)
	r.ObserveScan(ocr.ModeSparse, pipeline.PassGray, 10*time.Millisecond, assert.AnError)
	r.ObserveScan(ocr.ModeSingleLine, pipeline.PassColor, time.Millisecond, nil)
	r.ObserveCandidate(pipeline.OutcomeAgree)
	r.ObserveCandidate(pipeline.OutcomeAgree)
	r.ObserveCandidate(pipeline.OutcomeFallback)
	r.ObserveFile(true, time.Second)
	r.ObserveFile(false, time.Second)
	r.ObserveSkipped()

	assert.InDelta(t, 1, testutil.ToFloat64(r.scansTotal.WithLabelValues("sparse", "gray", "error")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(r.scansTotal.WithLabelValues("single-line", "color", "ok")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(r.candidatesTotal.WithLabelValues("agree")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(r.filesTotal.WithLabelValues("unrecognized")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(r.skippedTotal), 0)
	assert.Equal(t, 2, testutil.CollectAndCount(r.scanDuration))
}

func TestRecorder_WriteFile(t *testing.T) {
	r := New()
	r.ObserveFile(true, time.Second)

	path := filepath.Join(t.TempDir(), "out", "snscan.prom")
	require.NoError(t, r.WriteFile(path))

	data, err := os.ReadFile(path) //nolint:gosec // G304: test path
	require.NoError(t, err)
	assert.Contains(t, string(data), `snscan_files_total{result="recognized"} 1`)

	require.Error(t, r.WriteFile(""))
}
