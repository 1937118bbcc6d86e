// Package pipeline implements the two-pass serial extraction: whole-image
// scan, candidate selection, per-candidate refinement and reconciliation.
package pipeline

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/MeKo-Tech/snscan/internal/common"
	"github.com/MeKo-Tech/snscan/internal/ocr"
	"github.com/MeKo-Tech/snscan/internal/serial"
	"github.com/MeKo-Tech/snscan/internal/utils"
)

// Candidate outcomes reported to a Recorder.
const (
	OutcomeAgree    = "agree"
	OutcomeMismatch = "mismatch"
	OutcomeFallback = "fallback"
)

// Config holds everything the orchestrator needs besides its collaborators.
type Config struct {
	Preprocess   utils.PreprocessConfig
	Refine       RefinerConfig
	Policy       string
	FlagMismatch bool
}

// DefaultConfig returns the tuned defaults.
func DefaultConfig() Config {
	return Config{
		Preprocess: utils.DefaultPreprocessConfig(),
		Refine:     DefaultRefinerConfig(),
		Policy:     PolicyShorter,
	}
}

// ScanHook is invoked after the scan step of every file, with the image the
// candidates were found on. Errors are logged and otherwise ignored.
type ScanHook interface {
	OnScan(name string, img image.Image, candidates []Candidate) error
}

// ScanHookFunc adapts a function to ScanHook.
type ScanHookFunc func(name string, img image.Image, candidates []Candidate) error

func (f ScanHookFunc) OnScan(name string, img image.Image, candidates []Candidate) error {
	return f(name, img, candidates)
}

// Recorder receives per-stage observations. metrics.Recorder implements it.
type Recorder interface {
	ObserveScan(mode ocr.Mode, pass Pass, d time.Duration, err error)
	ObserveCandidate(outcome string)
	ObserveFile(recognized bool, d time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) ObserveScan(ocr.Mode, Pass, time.Duration, error) {}
func (nopRecorder) ObserveCandidate(string)                          {}
func (nopRecorder) ObserveFile(bool, time.Duration)                  {}

// Orchestrator runs the per-file state machine. It is not safe for
// concurrent use because the OCR engine is not.
type Orchestrator struct {
	cfg      Config
	scanner  *Scanner
	canon    *serial.Canonicalizer
	refiner  *Refiner
	prep     *utils.Preprocessor
	policy   Policy
	hook     ScanHook
	recorder Recorder
	logger   *slog.Logger
	profile  *Profiler
}

// Option customizes an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger; slog.Default() is used otherwise.
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithScanHook installs a hook called after every scan step.
func WithScanHook(h ScanHook) Option {
	return func(o *Orchestrator) { o.hook = h }
}

// WithRecorder installs a metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(o *Orchestrator) {
		if r != nil {
			o.recorder = r
		}
	}
}

// WithPolicy overrides the policy named in Config.
func WithPolicy(p Policy) Option {
	return func(o *Orchestrator) {
		if p != nil {
			o.policy = p
		}
	}
}

// New builds an orchestrator around engine and canon.
func New(cfg Config, engine ocr.Engine, canon *serial.Canonicalizer, opts ...Option) (*Orchestrator, error) {
	if engine == nil {
		return nil, errors.New("pipeline: engine is required")
	}
	if canon == nil {
		return nil, errors.New("pipeline: canonicalizer is required")
	}
	policy, err := NewPolicy(cfg.Policy, cfg.FlagMismatch)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	o := &Orchestrator{
		cfg:      cfg,
		scanner:  NewScanner(engine),
		canon:    canon,
		refiner:  NewRefiner(cfg.Refine),
		prep:     utils.NewPreprocessor(cfg.Preprocess),
		policy:   policy,
		recorder: nopRecorder{},
		logger:   slog.Default(),
		profile:  &Profiler{},
	}
	for _, opt := range opts {
		opt(o)
	}
	o.recorder = multiRecorder{o.profile, o.recorder}
	return o, nil
}

// Policy returns the active reconciliation policy.
func (o *Orchestrator) Policy() Policy { return o.policy }

// Profile returns the run totals observed so far.
func (o *Orchestrator) Profile() *Profiler { return o.profile }

// ProcessImage runs every stage after decoding and returns the finalized
// records for one file. It never returns nil.
func (o *Orchestrator) ProcessImage(name string, img image.Image) *ImageResult {
	total := common.StartTimer("total")
	res := &ImageResult{Filename: name}
	log := o.logger.With("file", name)
	if img == nil {
		res.Records = []Record{unrecognized(name, nil)}
		o.recorder.ObserveFile(false, total.Stop())
		return res
	}
	b := img.Bounds()
	res.Width, res.Height = b.Dx(), b.Dy()

	scanTimer := common.StartTimer("scan")
	color := o.prep.Preprocess(img)
	passImg, candidates := o.firstPass(log, color)
	res.Processing.ScanNs = scanTimer.Stop().Nanoseconds()
	res.Candidates = candidates
	if len(candidates) > 0 {
		res.Pass = candidates[0].Pass
	}

	if o.hook != nil {
		if err := o.hook.OnScan(name, passImg, candidates); err != nil {
			log.Warn("scan hook failed", "error", err)
		}
	}

	if len(candidates) == 0 {
		log.Info("no serial candidates found")
		res.Records = []Record{unrecognized(name, passImg)}
		d := total.Stop()
		res.Processing.TotalNs = d.Nanoseconds()
		o.recorder.ObserveFile(false, d)
		return res
	}

	refineTimer := common.StartTimer("refine")
	res.Records = make([]Record, 0, len(candidates))
	for _, c := range candidates {
		res.Records = append(res.Records, o.refineCandidate(log, name, passImg, c))
	}
	res.Processing.RefineNs = refineTimer.Stop().Nanoseconds()

	d := total.Stop()
	res.Processing.TotalNs = d.Nanoseconds()
	log.Debug("file processed", "candidates", len(candidates), "scan", scanTimer, "refine", refineTimer, "total", total)
	o.recorder.ObserveFile(true, d)
	return res
}

// firstPass scans the colour image and, only if nothing matched, its
// grayscale conversion once. It returns the image the result came from.
func (o *Orchestrator) firstPass(log *slog.Logger, color *image.NRGBA) (image.Image, []Candidate) {
	tokens, err := o.scan(color, ocr.ModeSparse, PassColor)
	if err != nil {
		log.Error("color scan failed", "error", err)
		return color, nil
	}
	if c := SelectCandidates(tokens, o.canon, PassColor); len(c) > 0 {
		return color, c
	}

	gray := utils.Grayscale(color)
	log.Debug("no candidates in color pass, retrying grayscale", "tokens", len(tokens))
	tokens, err = o.scan(gray, ocr.ModeSparse, PassGray)
	if err != nil {
		log.Error("grayscale scan failed", "error", err)
		return gray, nil
	}
	return gray, SelectCandidates(tokens, o.canon, PassGray)
}

func (o *Orchestrator) scan(img image.Image, mode ocr.Mode, pass Pass) ([]ocr.Token, error) {
	start := time.Now()
	tokens, err := o.scanner.Scan(img, mode)
	o.recorder.ObserveScan(mode, pass, time.Since(start), err)
	return tokens, err
}

// refineCandidate produces the record for one candidate. Failures stay
// local: the first-pass text is reported on its own. src is the image the
// candidate was scanned from (smoothed, and grayscale after a retry), not the
// decoded original, so the box coordinates and pixels match the first pass.
func (o *Orchestrator) refineCandidate(log *slog.Logger, name string, src image.Image, c Candidate) Record {
	cand := c
	rec := Record{
		Filename:   name,
		Text:       c.Text,
		FirstPass:  c.Text,
		Confidence: c.Confidence,
		Candidate:  &cand,
	}
	log = log.With("index", c.Index, "first", c.Text)

	region, err := o.refiner.Refine(src, c.Box)
	if err != nil {
		log.Warn("refinement failed, using first pass", "error", err)
		o.recorder.ObserveCandidate(OutcomeFallback)
		return rec
	}
	rec.Thumbnail = region.Crop

	tokens, err := o.scan(region.Canvas, ocr.ModeSingleLine, c.Pass)
	if err != nil {
		log.Warn("second pass failed, using first pass", "error", err)
		o.recorder.ObserveCandidate(OutcomeFallback)
		return rec
	}

	raw, conf := lineText(tokens)
	second := Reading{Confidence: conf}
	if text, ok := o.canon.Canonicalize(raw); ok {
		second.Text = text
		rec.SecondPass = text
	} else {
		rec.SecondPass = serial.Substitute(raw)
	}

	d := o.policy.Reconcile(Reading{Text: c.Text, Confidence: c.Confidence}, second)
	rec.Text = d.Text
	rec.Note = d.Note
	rec.Mismatch = d.Mismatch
	if d.Text == second.Text && second.Text != "" && d.Text != c.Text {
		rec.Confidence = second.Confidence
	}
	if d.Mismatch {
		rec.Review = region.Canvas
		o.recorder.ObserveCandidate(OutcomeMismatch)
	} else {
		o.recorder.ObserveCandidate(OutcomeAgree)
	}
	log.Info("candidate reconciled", "second", rec.SecondPass, "text", rec.Text, "mismatch", d.Mismatch)
	return rec
}

func unrecognized(name string, scanned image.Image) Record {
	return Record{Filename: name, Note: NoteUnrecognized, Review: scanned}
}
