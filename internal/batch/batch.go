// Package batch enumerates input images and feeds them, one at a time and in
// order, through the serial pipeline.
package batch

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/MeKo-Tech/snscan/internal/pipeline"
	"github.com/MeKo-Tech/snscan/internal/utils"
)

// ErrNoImages is returned when discovery finds nothing to process.
var ErrNoImages = errors.New("no image files found")

// Processor runs the per-file pipeline. *pipeline.Orchestrator implements it.
type Processor interface {
	ProcessImage(name string, img image.Image) *pipeline.ImageResult
}

// Sink receives finalized results in file order.
type Sink interface {
	Write(res *pipeline.ImageResult) error
}

// SkipRecorder counts undecodable files; *metrics.Recorder implements it.
type SkipRecorder interface {
	ObserveSkipped()
}

// Loader decodes one file.
type Loader func(path string) (image.Image, error)

func loadImage(path string) (image.Image, error) {
	img, _, err := utils.LoadImage(path)
	return img, err
}

// Skipped is a file that produced no records.
type Skipped struct {
	File File
	Err  error
}

// Result holds the outcome of a run.
type Result struct {
	Files    []File
	Images   []*pipeline.ImageResult
	Skipped  []Skipped
	Duration time.Duration
}

// Records flattens all records in file order.
func (r *Result) Records() []pipeline.Record {
	var out []pipeline.Record
	for _, img := range r.Images {
		out = append(out, img.Records...)
	}
	return out
}

// Runner processes files sequentially.
type Runner struct {
	proc     Processor
	sinks    []Sink
	progress ProgressCallback
	skips    SkipRecorder
	load     Loader
	logger   *slog.Logger
}

// RunnerOption customizes a Runner.
type RunnerOption func(*Runner)

// WithSink appends a result sink.
func WithSink(s Sink) RunnerOption {
	return func(r *Runner) {
		if s != nil {
			r.sinks = append(r.sinks, s)
		}
	}
}

// WithProgress sets the progress reporter.
func WithProgress(p ProgressCallback) RunnerOption {
	return func(r *Runner) {
		if p != nil {
			r.progress = p
		}
	}
}

// WithSkipRecorder counts skipped files.
func WithSkipRecorder(s SkipRecorder) RunnerOption {
	return func(r *Runner) { r.skips = s }
}

// WithLoader replaces the image decoder.
func WithLoader(l Loader) RunnerOption {
	return func(r *Runner) {
		if l != nil {
			r.load = l
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) RunnerOption {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRunner returns a runner around proc.
func NewRunner(proc Processor, opts ...RunnerOption) *Runner {
	r := &Runner{
		proc:     proc,
		progress: NoOpProgressCallback{},
		load:     loadImage,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run processes files in order. A file that fails to decode is logged,
// counted and skipped; it never stops the batch. Only sink errors are
// returned.
func (r *Runner) Run(files []File) (*Result, error) {
	if len(files) == 0 {
		return nil, ErrNoImages
	}

	start := time.Now()
	res := &Result{Files: files}
	r.progress.OnStart(len(files))

	for i, f := range files {
		img, err := r.load(f.Path)
		if err != nil {
			r.logger.Error("skipping unreadable file", "file", f.Name, "error", err)
			res.Skipped = append(res.Skipped, Skipped{File: f, Err: err})
			if r.skips != nil {
				r.skips.ObserveSkipped()
			}
			r.progress.OnError(i+1, err)
			r.progress.OnProgress(i+1, len(files))
			continue
		}

		ir := r.proc.ProcessImage(f.Name, img)
		res.Images = append(res.Images, ir)
		for _, s := range r.sinks {
			if err := s.Write(ir); err != nil {
				res.Duration = time.Since(start)
				return res, fmt.Errorf("write results for %s: %w", f.Name, err)
			}
		}
		r.progress.OnProgress(i+1, len(files))
	}

	r.progress.OnComplete()
	res.Duration = time.Since(start)
	return res, nil
}

// Stats summarizes a run.
type Stats struct {
	Files        int
	Processed    int
	Skipped      int
	Recognized   int
	Unrecognized int
	Records      int
	Mismatches   int
	Duration     time.Duration
}

// Stats computes summary counters.
func (r *Result) Stats() Stats {
	s := Stats{Files: len(r.Files), Processed: len(r.Images), Skipped: len(r.Skipped), Duration: r.Duration}
	for _, img := range r.Images {
		if img.Recognized() {
			s.Recognized++
		} else {
			s.Unrecognized++
		}
		for _, rec := range img.Records {
			s.Records++
			if rec.Mismatch {
				s.Mismatches++
			}
		}
	}
	return s
}
