package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/MeKo-Tech/snscan/internal/batch"
	"github.com/MeKo-Tech/snscan/internal/config"
	"github.com/MeKo-Tech/snscan/internal/metrics"
	"github.com/MeKo-Tech/snscan/internal/ocr"
	"github.com/MeKo-Tech/snscan/internal/pipeline"
	"github.com/MeKo-Tech/snscan/internal/report"
	"github.com/MeKo-Tech/snscan/internal/utils"
)

// newEngine is swapped out by tests.
var newEngine = ocr.New

// now is swapped out by tests.
var now = time.Now

// scanCmd represents the scan command.
var scanCmd = &cobra.Command{
	Use:   "scan [paths...]",
	Short: "Extract serial numbers from images and directories",
	Long: `Scan the given image files and directories for serial numbers.

Directories are listed in lexical order; files whose names start with "." or
"~" are ignored. Every decodable image yields at least one record: either one
per serial candidate, or a single "unrecognized" record.

Supported formats: JPEG, PNG, GIF, BMP, TIFF, WEBP

Examples:
  snscan scan photos/
  snscan scan photos/ --recursive --include "*.jpg"
  snscan scan label.jpg --format json --output-file result.json
  snscan scan photos/ --output-dir auto --flag-mismatch
  snscan scan photos/ --sn-only`,
	Args: cobra.MinimumNArgs(1),
	RunE: runScanCommand,
}

func init() {
	d := config.DefaultConfig()
	f := scanCmd.Flags()

	// Serial grammar
	f.String("pattern", d.Serial.Pattern, "serial number regular expression")
	f.StringSlice("family", d.Serial.Families, "correction rule families to apply")
	f.String("rules-file", "", "YAML file with additional correction rule families")

	// Engine
	f.String("backend", d.Engine.Backend, "OCR backend (exec, gosseract)")
	f.String("tesseract", d.Engine.Binary, "tesseract executable (exec backend)")
	f.String("tessdata", "", "tessdata directory")
	f.StringSlice("lang", d.Engine.Languages, "languages for the whole-image pass")

	// Reconciliation
	f.String("policy", d.Reconcile.Policy, "reconciliation policy (confidence, first, second, shorter)")
	f.Bool("flag-mismatch", d.Reconcile.FlagMismatch, "note records whose two readings disagree")

	// Output
	f.StringP("format", "f", d.Output.Format, "report format (csv, json, text)")
	f.StringP("output-dir", "o", d.Output.Dir, `directory for the report and images ("auto" for output_YYYYMMDDhhmmss)`)
	f.String("output-file", d.Output.File, "report file (default <output-dir>/output.<ext>, or stdout)")
	f.Bool("thumbnails", d.Output.Thumbnails, "save a thumbnail per candidate")
	f.Bool("review-images", d.Output.ReviewImages, "save images that need manual review")
	f.Bool("overlays", d.Output.Overlays, "save candidate box overlays")
	f.Bool("sn-only", d.Output.SerialOnly, "print only the accepted serial numbers")
	f.String("metrics-file", d.MetricsFile, "write Prometheus text metrics to this file")

	// Discovery
	f.BoolP("recursive", "r", d.Batch.Recursive, "descend into subdirectories")
	f.StringSlice("include", nil, "include only files matching these glob patterns")
	f.StringSlice("exclude", nil, "exclude files matching these glob patterns")
	f.Bool("progress", d.Batch.Progress, "show a progress bar on stderr")

	for key, name := range map[string]string{
		"serial.pattern":          "pattern",
		"serial.families":         "family",
		"serial.rules_file":       "rules-file",
		"engine.backend":          "backend",
		"engine.binary":           "tesseract",
		"engine.tessdata_dir":     "tessdata",
		"engine.languages":        "lang",
		"reconcile.policy":        "policy",
		"reconcile.flag_mismatch": "flag-mismatch",
		"output.format":           "format",
		"output.dir":              "output-dir",
		"output.file":             "output-file",
		"output.thumbnails":       "thumbnails",
		"output.review_images":    "review-images",
		"output.overlays":         "overlays",
		"output.serial_only":      "sn-only",
		"metrics_file":            "metrics-file",
		"batch.recursive":         "recursive",
		"batch.include":           "include",
		"batch.exclude":           "exclude",
		"batch.progress":          "progress",
	} {
		_ = viper.BindPFlag(key, f.Lookup(name))
	}

	rootCmd.AddCommand(scanCmd)
}

// reportExt maps a report format to its file extension.
func reportExt(format string) string {
	if format == report.FormatText {
		return "txt"
	}
	return format
}

// reportPath is where the report goes; empty means stdout.
func reportPath(cfg *config.Config, outDir string) string {
	if cfg.Output.File != "" {
		return cfg.Output.File
	}
	if outDir == "" {
		return ""
	}
	return filepath.Join(outDir, "output."+reportExt(cfg.Output.Format))
}

func runScanCommand(cmd *cobra.Command, args []string) error {
	cfg, err := GetConfig()
	if err != nil {
		return err
	}
	logger := slog.Default()

	canon, err := cfg.Canonicalizer()
	if err != nil {
		return fmt.Errorf("failed to build serial rules: %w", err)
	}

	files, err := batch.Discover(args, cfg.DiscoverOptions())
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return batch.ErrNoImages
	}

	engine, err := newEngine(cfg.Engine.Backend, cfg.EngineOptions())
	if err != nil {
		return fmt.Errorf("failed to start OCR engine: %w", err)
	}
	defer func() {
		if cerr := engine.Close(); cerr != nil {
			logger.Warn("failed to close OCR engine", "error", cerr)
		}
	}()

	outDir := report.ResolveOutputDir(cfg.Output.Dir, now())
	rec := metrics.New()

	opts := []pipeline.Option{pipeline.WithLogger(logger), pipeline.WithRecorder(rec)}
	if cfg.Output.Overlays && outDir != "" {
		opts = append(opts, pipeline.WithScanHook(pipeline.NewOverlayWriter(outDir)))
	}
	orch, err := pipeline.New(cfg.PipelineConfig(), engine, canon, opts...)
	if err != nil {
		return err
	}

	collector := &report.Collector{}
	runOpts := []batch.RunnerOption{
		batch.WithSink(collector),
		batch.WithSkipRecorder(rec),
		batch.WithLogger(logger),
		batch.WithProgress(progressFor(cfg, cmd.ErrOrStderr(), logger)),
	}
	if outDir != "" && (cfg.Output.Thumbnails || cfg.Output.ReviewImages) {
		runOpts = append(runOpts, batch.WithSink(&report.ImageWriter{
			Dir:        outDir,
			Thumbnails: cfg.Output.Thumbnails,
			Review:     cfg.Output.ReviewImages,
		}))
	}

	path := reportPath(cfg, outDir)
	switch {
	case cfg.Output.SerialOnly:
		runOpts = append(runOpts, batch.WithSink(&report.ConsoleWriter{Out: cmd.OutOrStdout(), SerialOnly: true}))
	case path != "":
		runOpts = append(runOpts, batch.WithSink(&report.ConsoleWriter{Out: cmd.OutOrStdout()}))
	}

	logger.Info("starting scan",
		"files", len(files),
		"policy", orch.Policy().Name(),
		"families", canon.Families(),
		"smoothing", utils.SmoothingBackend,
		"output_dir", outDir)

	result, err := batch.NewRunner(orch, runOpts...).Run(files)
	if err != nil {
		return err
	}

	if path != "" || !cfg.Output.SerialOnly {
		content, err := collector.Render(cfg.Output.Format)
		if err != nil {
			return err
		}
		if err := report.Save(content, path, cmd.OutOrStdout()); err != nil {
			return err
		}
	}

	if cfg.MetricsFile != "" {
		if err := rec.WriteFile(cfg.MetricsFile); err != nil {
			return err
		}
	}

	stats := result.Stats()
	logger.Info("scan complete",
		"files", stats.Files,
		"processed", stats.Processed,
		"skipped", stats.Skipped,
		"recognized", stats.Recognized,
		"unrecognized", stats.Unrecognized,
		"records", stats.Records,
		"mismatches", stats.Mismatches,
		"duration", stats.Duration.String(),
		"report", path)
	logger.Debug("profile", "stats", orch.Profile().Snapshot())

	if stats.Processed == 0 {
		return errors.New("no image could be decoded")
	}
	return nil
}

func progressFor(cfg *config.Config, stderr io.Writer, logger *slog.Logger) batch.ProgressCallback {
	if cfg.Batch.Progress {
		return batch.NewConsoleProgressCallback(stderr, "Scanning")
	}
	return batch.NewLogProgressCallback(logger, slog.LevelDebug)
}
