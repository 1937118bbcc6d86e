package pipeline

import (
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/MeKo-Tech/snscan/internal/ocr"
)

// Profiler is an in-process Recorder that totals stage timings and outcomes
// across a run. It is safe for concurrent use.
type Profiler struct {
	files        atomic.Int64
	unrecognized atomic.Int64
	fileNs       atomic.Int64

	scans      atomic.Int64
	scanErrors atomic.Int64
	grayScans  atomic.Int64
	sparseNs   atomic.Int64
	lineNs     atomic.Int64

	agree    atomic.Int64
	mismatch atomic.Int64
	fallback atomic.Int64
}

var _ Recorder = (*Profiler)(nil)

func (p *Profiler) ObserveScan(mode ocr.Mode, pass Pass, d time.Duration, err error) {
	p.scans.Add(1)
	if err != nil {
		p.scanErrors.Add(1)
	}
	if mode == ocr.ModeSingleLine {
		p.lineNs.Add(d.Nanoseconds())
		return
	}
	p.sparseNs.Add(d.Nanoseconds())
	if pass == PassGray {
		p.grayScans.Add(1)
	}
}

func (p *Profiler) ObserveCandidate(outcome string) {
	switch outcome {
	case OutcomeAgree:
		p.agree.Add(1)
	case OutcomeMismatch:
		p.mismatch.Add(1)
	case OutcomeFallback:
		p.fallback.Add(1)
	}
}

func (p *Profiler) ObserveFile(recognized bool, d time.Duration) {
	p.files.Add(1)
	if !recognized {
		p.unrecognized.Add(1)
	}
	p.fileNs.Add(d.Nanoseconds())
}

// ProfileSnapshot is a point-in-time copy of a Profiler.
type ProfileSnapshot struct {
	Files        int64
	Unrecognized int64
	Scans        int64
	ScanErrors   int64
	GrayRetries  int64
	Agree        int64
	Mismatch     int64
	Fallback     int64
	Sparse       time.Duration
	SingleLine   time.Duration
	Total        time.Duration
}

// Snapshot copies the current totals.
func (p *Profiler) Snapshot() ProfileSnapshot {
	return ProfileSnapshot{
		Files:        p.files.Load(),
		Unrecognized: p.unrecognized.Load(),
		Scans:        p.scans.Load(),
		ScanErrors:   p.scanErrors.Load(),
		GrayRetries:  p.grayScans.Load(),
		Agree:        p.agree.Load(),
		Mismatch:     p.mismatch.Load(),
		Fallback:     p.fallback.Load(),
		Sparse:       time.Duration(p.sparseNs.Load()),
		SingleLine:   time.Duration(p.lineNs.Load()),
		Total:        time.Duration(p.fileNs.Load()),
	}
}

// Candidates is the number of reconciled or fallen-back candidates.
func (s ProfileSnapshot) Candidates() int64 { return s.Agree + s.Mismatch + s.Fallback }

// PerFile is the mean processing time per file, zero before the first file.
func (s ProfileSnapshot) PerFile() time.Duration {
	if s.Files == 0 {
		return 0
	}
	return s.Total / time.Duration(s.Files)
}

func (s ProfileSnapshot) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int64("files", s.Files),
		slog.Int64("unrecognized", s.Unrecognized),
		slog.Int64("candidates", s.Candidates()),
		slog.Int64("mismatch", s.Mismatch),
		slog.Int64("fallback", s.Fallback),
		slog.Int64("scans", s.Scans),
		slog.Int64("scan_errors", s.ScanErrors),
		slog.Int64("gray_retries", s.GrayRetries),
		slog.Int64("sparse_ms", s.Sparse.Milliseconds()),
		slog.Int64("line_ms", s.SingleLine.Milliseconds()),
		slog.Int64("per_file_ms", s.PerFile().Milliseconds()),
	)
}

// multiRecorder fans observations out to several recorders.
type multiRecorder []Recorder

func (m multiRecorder) ObserveScan(mode ocr.Mode, pass Pass, d time.Duration, err error) {
	for _, r := range m {
		r.ObserveScan(mode, pass, d, err)
	}
}

func (m multiRecorder) ObserveCandidate(outcome string) {
	for _, r := range m {
		r.ObserveCandidate(outcome)
	}
}

func (m multiRecorder) ObserveFile(recognized bool, d time.Duration) {
	for _, r := range m {
		r.ObserveFile(recognized, d)
	}
}
