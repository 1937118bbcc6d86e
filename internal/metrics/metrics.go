// Package metrics collects run statistics in a private Prometheus registry
// and writes them in the text exposition format at the end of a batch.
package metrics

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/MeKo-Tech/snscan/internal/ocr"
	"github.com/MeKo-Tech/snscan/internal/pipeline"
)

// Recorder implements pipeline.Recorder and the batch counters.
type Recorder struct {
	reg *prometheus.Registry

	scansTotal      *prometheus.CounterVec
	scanDuration    *prometheus.HistogramVec
	candidatesTotal *prometheus.CounterVec
	filesTotal      *prometheus.CounterVec
	fileDuration    prometheus.Histogram
	skippedTotal    prometheus.Counter
}

var _ pipeline.Recorder = (*Recorder)(nil)

// New creates a recorder with its own registry.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Recorder{
		reg: reg,
		scansTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "snscan_ocr_scans_total",
				Help: "Total number of OCR engine invocations",
			},
			[]string{"mode", "pass", "status"},
		),
		scanDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "snscan_ocr_scan_duration_seconds",
				Help:    "OCR engine invocation duration in seconds",
				Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 25},
			},
			[]string{"mode"},
		),
		candidatesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "snscan_candidates_total",
				Help: "Serial candidates by reconciliation outcome",
			},
			[]string{"outcome"}, // agree, mismatch, fallback
		),
		filesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "snscan_files_total",
				Help: "Processed files by result",
			},
			[]string{"result"}, // recognized, unrecognized
		),
		fileDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "snscan_file_duration_seconds",
				Help:    "Per-file processing duration in seconds",
				Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 25, 50, 100},
			},
		),
		skippedTotal: f.NewCounter(
			prometheus.CounterOpts{
				Name: "snscan_files_skipped_total",
				Help: "Files skipped because they could not be decoded",
			},
		),
	}
}

// Registry exposes the underlying registry, mainly for tests.
func (r *Recorder) Registry() *prometheus.Registry { return r.reg }

func (r *Recorder) ObserveScan(mode ocr.Mode, pass pipeline.Pass, d time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	r.scansTotal.WithLabelValues(mode.String(), string(pass), status).Inc()
	r.scanDuration.WithLabelValues(mode.String()).Observe(d.Seconds())
}

func (r *Recorder) ObserveCandidate(outcome string) {
	r.candidatesTotal.WithLabelValues(outcome).Inc()
}

func (r *Recorder) ObserveFile(recognized bool, d time.Duration) {
	result := "unrecognized"
	if recognized {
		result = "recognized"
	}
	r.filesTotal.WithLabelValues(result).Inc()
	r.fileDuration.Observe(d.Seconds())
}

// ObserveSkipped counts a file the batch runner could not decode.
func (r *Recorder) ObserveSkipped() { r.skippedTotal.Inc() }

// WriteFile writes all metrics to path in the node-exporter textfile format.
func (r *Recorder) WriteFile(path string) error {
	if path == "" {
		return errors.New("metrics: empty path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("metrics: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, r.reg); err != nil {
		return fmt.Errorf("metrics: write %s: %w", path, err)
	}
	return nil
}
