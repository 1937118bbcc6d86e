package config

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/MeKo-Tech/snscan/internal/batch"
	"github.com/MeKo-Tech/snscan/internal/ocr"
	"github.com/MeKo-Tech/snscan/internal/pipeline"
	"github.com/MeKo-Tech/snscan/internal/report"
	"github.com/MeKo-Tech/snscan/internal/serial"
	"github.com/MeKo-Tech/snscan/internal/utils"
)

// Config is the complete snscan configuration. It is loaded from defaults,
// a snscan.yaml file, SNSCAN_* environment variables and command-line flags,
// in increasing order of precedence.
type Config struct {
	LogLevel string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	Verbose  bool   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`

	Engine     EngineConfig     `mapstructure:"engine" yaml:"engine" json:"engine"`
	Serial     SerialConfig     `mapstructure:"serial" yaml:"serial" json:"serial"`
	Preprocess PreprocessConfig `mapstructure:"preprocess" yaml:"preprocess" json:"preprocess"`
	Refine     RefineConfig     `mapstructure:"refine" yaml:"refine" json:"refine"`
	Reconcile  ReconcileConfig  `mapstructure:"reconcile" yaml:"reconcile" json:"reconcile"`
	Output     OutputConfig     `mapstructure:"output" yaml:"output" json:"output"`
	Batch      BatchConfig      `mapstructure:"batch" yaml:"batch" json:"batch"`

	// MetricsFile receives Prometheus text metrics at the end of a run.
	MetricsFile string `mapstructure:"metrics_file" yaml:"metrics_file" json:"metrics_file"`
}

// EngineConfig selects and tunes the OCR backend.
type EngineConfig struct {
	Backend       string   `mapstructure:"backend" yaml:"backend" json:"backend"`
	Binary        string   `mapstructure:"binary" yaml:"binary" json:"binary"`
	TessdataDir   string   `mapstructure:"tessdata_dir" yaml:"tessdata_dir" json:"tessdata_dir"`
	Languages     []string `mapstructure:"languages" yaml:"languages" json:"languages"`
	LineLanguages []string `mapstructure:"line_languages" yaml:"line_languages" json:"line_languages"`
	OEM           int      `mapstructure:"oem" yaml:"oem" json:"oem"`
	Whitelist     string   `mapstructure:"whitelist" yaml:"whitelist" json:"whitelist"`
}

// SerialConfig describes the serial grammar.
type SerialConfig struct {
	Pattern   string   `mapstructure:"pattern" yaml:"pattern" json:"pattern"`
	Families  []string `mapstructure:"families" yaml:"families" json:"families"`
	RulesFile string   `mapstructure:"rules_file" yaml:"rules_file" json:"rules_file"`
}

// PreprocessConfig mirrors utils.PreprocessConfig.
type PreprocessConfig struct {
	BlurSigma           float64 `mapstructure:"blur_sigma" yaml:"blur_sigma" json:"blur_sigma"`
	BilateralDiameter   int     `mapstructure:"bilateral_diameter" yaml:"bilateral_diameter" json:"bilateral_diameter"`
	BilateralSigmaColor float64 `mapstructure:"bilateral_sigma_color" yaml:"bilateral_sigma_color" json:"bilateral_sigma_color"`
	BilateralSigmaSpace float64 `mapstructure:"bilateral_sigma_space" yaml:"bilateral_sigma_space" json:"bilateral_sigma_space"`
}

// RefineConfig sizes the second-pass canvas.
type RefineConfig struct {
	Inset  int `mapstructure:"inset" yaml:"inset" json:"inset"`
	Margin int `mapstructure:"margin" yaml:"margin" json:"margin"`
}

// ReconcileConfig selects the reconciliation strategy.
type ReconcileConfig struct {
	Policy       string `mapstructure:"policy" yaml:"policy" json:"policy"`
	FlagMismatch bool   `mapstructure:"flag_mismatch" yaml:"flag_mismatch" json:"flag_mismatch"`
}

// OutputConfig controls reports and saved images.
type OutputConfig struct {
	Format string `mapstructure:"format" yaml:"format" json:"format"`
	// Dir receives the report, thumbnails and review images; "auto" picks
	// output_YYYYMMDDhhmmss. Empty writes the report to stdout only.
	Dir          string `mapstructure:"dir" yaml:"dir" json:"dir"`
	File         string `mapstructure:"file" yaml:"file" json:"file"`
	Thumbnails   bool   `mapstructure:"thumbnails" yaml:"thumbnails" json:"thumbnails"`
	ReviewImages bool   `mapstructure:"review_images" yaml:"review_images" json:"review_images"`
	Overlays     bool   `mapstructure:"overlays" yaml:"overlays" json:"overlays"`
	SerialOnly   bool   `mapstructure:"serial_only" yaml:"serial_only" json:"serial_only"`
}

// BatchConfig controls file discovery and progress.
type BatchConfig struct {
	Recursive bool     `mapstructure:"recursive" yaml:"recursive" json:"recursive"`
	Include   []string `mapstructure:"include" yaml:"include" json:"include"`
	Exclude   []string `mapstructure:"exclude" yaml:"exclude" json:"exclude"`
	Progress  bool     `mapstructure:"progress" yaml:"progress" json:"progress"`
}

// DefaultConfig returns the tuned defaults.
func DefaultConfig() Config {
	eng := ocr.DefaultOptions()
	pre := utils.DefaultPreprocessConfig()
	ref := pipeline.DefaultRefinerConfig()
	return Config{
		LogLevel: "info",
		Engine: EngineConfig{
			Backend:       ocr.BackendExec,
			Binary:        eng.Binary,
			Languages:     eng.Languages,
			LineLanguages: eng.LineLanguages,
			OEM:           eng.OEM,
		},
		Serial: SerialConfig{
			Pattern:  serial.DefaultPattern,
			Families: []string{serial.FamilySamsung},
		},
		Preprocess: PreprocessConfig{
			BlurSigma:           pre.BlurSigma,
			BilateralDiameter:   pre.BilateralDiameter,
			BilateralSigmaColor: pre.BilateralSigmaColor,
			BilateralSigmaSpace: pre.BilateralSigmaSpace,
		},
		Refine:    RefineConfig{Inset: ref.Inset, Margin: ref.Margin},
		Reconcile: ReconcileConfig{Policy: pipeline.PolicyShorter},
		Output: OutputConfig{
			Format:       report.FormatCSV,
			Thumbnails:   true,
			ReviewImages: true,
		},
	}
}

var validLogLevels = []string{"debug", "info", "warn", "error"}

// Validate validates the configuration and returns the first error found.
func (c *Config) Validate() error {
	if !slices.Contains(validLogLevels, strings.ToLower(c.LogLevel)) {
		return fmt.Errorf("invalid log level %q, must be one of: %s", c.LogLevel, strings.Join(validLogLevels, ", "))
	}

	switch c.Engine.Backend {
	case ocr.BackendExec, ocr.BackendGosseract:
	default:
		return fmt.Errorf("invalid engine backend %q, must be one of: %s, %s", c.Engine.Backend, ocr.BackendExec, ocr.BackendGosseract)
	}
	if c.Engine.OEM < 0 || c.Engine.OEM > 3 {
		return fmt.Errorf("engine.oem must be between 0 and 3, got %d", c.Engine.OEM)
	}
	if len(c.Engine.Languages) == 0 {
		return errors.New("engine.languages must not be empty")
	}

	if _, err := regexp.Compile(c.Serial.Pattern); err != nil {
		return fmt.Errorf("invalid serial pattern: %w", err)
	}

	if c.Refine.Inset < 0 {
		return fmt.Errorf("refine.inset must be non-negative, got %d", c.Refine.Inset)
	}
	if c.Refine.Margin < 0 {
		return fmt.Errorf("refine.margin must be non-negative, got %d", c.Refine.Margin)
	}
	if c.Preprocess.BlurSigma < 0 || c.Preprocess.BilateralDiameter < 0 {
		return errors.New("preprocess values must be non-negative")
	}

	if _, err := pipeline.NewPolicy(c.Reconcile.Policy, c.Reconcile.FlagMismatch); err != nil {
		return err
	}
	if !slices.Contains(report.Formats(), c.Output.Format) {
		return fmt.Errorf("invalid output format %q, must be one of: %s", c.Output.Format, strings.Join(report.Formats(), ", "))
	}
	return nil
}

// EngineOptions converts the engine section.
func (c *Config) EngineOptions() ocr.Options {
	return ocr.Options{
		Binary:        c.Engine.Binary,
		TessdataDir:   c.Engine.TessdataDir,
		Languages:     c.Engine.Languages,
		LineLanguages: c.Engine.LineLanguages,
		OEM:           c.Engine.OEM,
		Whitelist:     c.Engine.Whitelist,
	}
}

// PipelineConfig converts the pipeline-related sections.
func (c *Config) PipelineConfig() pipeline.Config {
	return pipeline.Config{
		Preprocess: utils.PreprocessConfig{
			BlurSigma:           c.Preprocess.BlurSigma,
			BilateralDiameter:   c.Preprocess.BilateralDiameter,
			BilateralSigmaColor: c.Preprocess.BilateralSigmaColor,
			BilateralSigmaSpace: c.Preprocess.BilateralSigmaSpace,
		},
		Refine:       pipeline.RefinerConfig{Inset: c.Refine.Inset, Margin: c.Refine.Margin},
		Policy:       c.Reconcile.Policy,
		FlagMismatch: c.Reconcile.FlagMismatch,
	}
}

// Canonicalizer builds the serial canonicalizer, loading the optional rules
// file into a copy of the built-in registry.
func (c *Config) Canonicalizer() (*serial.Canonicalizer, error) {
	reg := serial.DefaultRegistry()
	if c.Serial.RulesFile != "" {
		if err := serial.LoadRulesFile(c.Serial.RulesFile, reg); err != nil {
			return nil, err
		}
	}
	return serial.New(c.Serial.Pattern, reg, c.Serial.Families...)
}

// DiscoverOptions converts the batch section.
func (c *Config) DiscoverOptions() batch.DiscoverOptions {
	return batch.DiscoverOptions{
		Recursive:       c.Batch.Recursive,
		IncludePatterns: c.Batch.Include,
		ExcludePatterns: c.Batch.Exclude,
	}
}
