package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// chdir switches to dir for the duration of the test.
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoad_NoConfigFile(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("HOME", t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := NewLoaderWith(viper.New()).Load()
	require.NoError(t, err)
	assertDefaults(t, cfg)
}

func assertDefaults(t *testing.T, cfg *Config) {
	t.Helper()
	d := DefaultConfig()
	assert.Equal(t, d.LogLevel, cfg.LogLevel)
	assert.Equal(t, d.Engine, cfg.Engine)
	assert.Equal(t, d.Serial.Pattern, cfg.Serial.Pattern)
	assert.Equal(t, d.Serial.Families, cfg.Serial.Families)
	assert.Equal(t, d.Preprocess, cfg.Preprocess)
	assert.Equal(t, d.Refine, cfg.Refine)
	assert.Equal(t, d.Reconcile, cfg.Reconcile)
	assert.Equal(t, d.Output, cfg.Output)
	assert.Empty(t, cfg.Batch.Include)
	assert.False(t, cfg.Batch.Recursive)
}

func TestLoad_FileFromSearchPath(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "snscan.yaml"), []byte(`
serial:
  pattern: "R[A-Z0-9]{12}"
refine:
  margin: 16
reconcile:
  flag_mismatch: true
`), 0o600))

	l := NewLoaderWith(viper.New())
	cfg, err := l.Load()
	require.NoError(t, err)
	assert.Equal(t, "R[A-Z0-9]{12}", cfg.Serial.Pattern)
	assert.Equal(t, 16, cfg.Refine.Margin)
	assert.Equal(t, 4, cfg.Refine.Inset, "unset keys keep defaults")
	assert.True(t, cfg.Reconcile.FlagMismatch)
	assert.Contains(t, l.ConfigFileUsed(), "snscan.yaml")
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("SNSCAN_REFINE_MARGIN", "8")
	t.Setenv("SNSCAN_RECONCILE_POLICY", "confidence")
	t.Setenv("SNSCAN_ENGINE_BINARY", "/opt/tesseract")

	cfg, err := NewLoaderWith(viper.New()).Load()
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Refine.Margin)
	assert.Equal(t, "confidence", cfg.Reconcile.Policy)
	assert.Equal(t, "/opt/tesseract", cfg.Engine.Binary)
}

func TestLoadWithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("output:\n  format: json\n"), 0o600))

	cfg, err := NewLoaderWith(viper.New()).LoadWithFile(path)
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.Output.Format)

	_, err = NewLoaderWith(viper.New()).LoadWithFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}

func TestLoadWithFile_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("refine:\n  inset: -3\n"), 0o600))

	_, err := NewLoaderWith(viper.New()).LoadWithFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")

	cfg, err := NewLoaderWith(viper.New()).LoadWithoutValidation(path)
	require.NoError(t, err)
	assert.Equal(t, -3, cfg.Refine.Inset)
}

func TestGenerateDefaultConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "snscan.yaml")
	require.NoError(t, GenerateDefaultConfigFile(path, false))

	data, err := os.ReadFile(path) //nolint:gosec // G304: test path
	require.NoError(t, err)
	var decoded Config
	require.NoError(t, yaml.Unmarshal(data, &decoded))
	assertDefaults(t, &decoded)

	require.Error(t, GenerateDefaultConfigFile(path, false))
	require.NoError(t, GenerateDefaultConfigFile(path, true))

	cfg, err := NewLoaderWith(viper.New()).LoadWithFile(path)
	require.NoError(t, err)
	assertDefaults(t, cfg)
}

func TestGetConfigSearchPaths(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	paths := GetConfigSearchPaths()
	assert.Equal(t, ".", paths[0])
	assert.Contains(t, paths, filepath.Join("/xdg", "snscan"))
	assert.Equal(t, "/etc/snscan", paths[len(paths)-1])
}
