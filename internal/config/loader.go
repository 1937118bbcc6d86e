// Package config loads snscan configuration with viper.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	// ConfigFileName is the base name for configuration files (without extension).
	ConfigFileName = "snscan"

	// EnvPrefix is the prefix for environment variables.
	EnvPrefix = "SNSCAN"
)

// Loader handles loading configuration from various sources.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a loader on the global viper instance, which is where
// the root command binds its flags.
func NewLoader() *Loader {
	return &Loader{v: viper.GetViper()}
}

// NewLoaderWith creates a loader on v.
func NewLoaderWith(v *viper.Viper) *Loader {
	return &Loader{v: v}
}

// Load reads defaults, the first snscan.yaml found on the search path and
// the environment, then validates the result.
func (l *Loader) Load() (*Config, error) {
	return l.LoadWithFile("")
}

// LoadWithFile is Load with an explicit configuration file. An empty path
// searches the standard locations.
func (l *Loader) LoadWithFile(configFile string) (*Config, error) {
	cfg, err := l.load(configFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// LoadWithoutValidation loads configuration without validating it.
func (l *Loader) LoadWithoutValidation(configFile string) (*Config, error) {
	return l.load(configFile)
}

func (l *Loader) load(configFile string) (*Config, error) {
	if configFile != "" {
		if _, err := os.Stat(configFile); os.IsNotExist(err) {
			return nil, fmt.Errorf("config file does not exist: %s", configFile)
		}
		l.v.SetConfigFile(configFile)
	} else {
		l.v.SetConfigName(ConfigFileName)
		l.v.SetConfigType("yaml")
		l.addConfigPaths()
	}

	l.setupEnvironmentVariables()
	l.setDefaults()

	if err := l.v.ReadInConfig(); err != nil {
		// A missing file is fine when searching; defaults and env still apply.
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := l.v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return &config, nil
}

// ConfigFileUsed returns the path of the config file used, if any.
func (l *Loader) ConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

// Viper returns the underlying viper instance.
func (l *Loader) Viper() *viper.Viper {
	return l.v
}

// addConfigPaths adds the standard configuration search paths.
func (l *Loader) addConfigPaths() {
	for _, p := range GetConfigSearchPaths() {
		l.v.AddConfigPath(p)
	}
}

// setupEnvironmentVariables configures environment variable handling.
func (l *Loader) setupEnvironmentVariables() {
	l.v.SetEnvPrefix(EnvPrefix)
	l.v.AutomaticEnv()
	// Replace dots and dashes with underscores in env var names
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
}

// setDefaults registers every key so that env vars and Unmarshal see it.
func (l *Loader) setDefaults() {
	d := DefaultConfig()

	l.v.SetDefault("log_level", d.LogLevel)
	l.v.SetDefault("verbose", d.Verbose)
	l.v.SetDefault("metrics_file", d.MetricsFile)

	l.v.SetDefault("engine.backend", d.Engine.Backend)
	l.v.SetDefault("engine.binary", d.Engine.Binary)
	l.v.SetDefault("engine.tessdata_dir", d.Engine.TessdataDir)
	l.v.SetDefault("engine.languages", d.Engine.Languages)
	l.v.SetDefault("engine.line_languages", d.Engine.LineLanguages)
	l.v.SetDefault("engine.oem", d.Engine.OEM)
	l.v.SetDefault("engine.whitelist", d.Engine.Whitelist)

	l.v.SetDefault("serial.pattern", d.Serial.Pattern)
	l.v.SetDefault("serial.families", d.Serial.Families)
	l.v.SetDefault("serial.rules_file", d.Serial.RulesFile)

	l.v.SetDefault("preprocess.blur_sigma", d.Preprocess.BlurSigma)
	l.v.SetDefault("preprocess.bilateral_diameter", d.Preprocess.BilateralDiameter)
	l.v.SetDefault("preprocess.bilateral_sigma_color", d.Preprocess.BilateralSigmaColor)
	l.v.SetDefault("preprocess.bilateral_sigma_space", d.Preprocess.BilateralSigmaSpace)

	l.v.SetDefault("refine.inset", d.Refine.Inset)
	l.v.SetDefault("refine.margin", d.Refine.Margin)

	l.v.SetDefault("reconcile.policy", d.Reconcile.Policy)
	l.v.SetDefault("reconcile.flag_mismatch", d.Reconcile.FlagMismatch)

	l.v.SetDefault("output.format", d.Output.Format)
	l.v.SetDefault("output.dir", d.Output.Dir)
	l.v.SetDefault("output.file", d.Output.File)
	l.v.SetDefault("output.thumbnails", d.Output.Thumbnails)
	l.v.SetDefault("output.review_images", d.Output.ReviewImages)
	l.v.SetDefault("output.overlays", d.Output.Overlays)
	l.v.SetDefault("output.serial_only", d.Output.SerialOnly)

	l.v.SetDefault("batch.recursive", d.Batch.Recursive)
	l.v.SetDefault("batch.include", d.Batch.Include)
	l.v.SetDefault("batch.exclude", d.Batch.Exclude)
	l.v.SetDefault("batch.progress", d.Batch.Progress)
}

// GetConfigSearchPaths returns the paths where configuration files are searched.
func GetConfigSearchPaths() []string {
	paths := []string{"."}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, home)
	}

	if configDir, exists := os.LookupEnv("XDG_CONFIG_HOME"); exists {
		paths = append(paths, filepath.Join(configDir, "snscan"))
	} else if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "snscan"))
	}

	paths = append(paths, "/etc/snscan")
	return paths
}

// GenerateDefaultConfigFile writes the defaults as YAML. It refuses to
// overwrite an existing file unless force is set.
func GenerateDefaultConfigFile(filename string, force bool) error {
	if filename == "" {
		filename = ConfigFileName + ".yaml"
	}
	if !force {
		if _, err := os.Stat(filename); err == nil {
			return fmt.Errorf("config file already exists: %s", filename)
		}
	}

	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return fmt.Errorf("failed to marshal default config: %w", err)
	}
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	if err := os.WriteFile(filename, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
