package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/snscan/internal/config"
)

// resetFlags restores every flag of c and its children to its default, since
// the command tree is package global.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			var def []string
			if f.DefValue != "[]" {
				def = splitDefault(f.DefValue)
			}
			_ = sv.Replace(def)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// splitDefault parses the "[a,b]" form pflag uses for slice defaults.
func splitDefault(def string) []string {
	return strings.Split(strings.Trim(def, "[]"), ",")
}

// execute runs the root command with args and returns its combined output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	t.Cleanup(func() {
		resetFlags(rootCmd)
		globalConfig = nil
		// Drop values read from a --config file by this run.
		v := GetConfigLoader().Viper()
		v.SetConfigType("yaml")
		_ = v.ReadConfig(strings.NewReader(""))
	})

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestRootCommand(t *testing.T) {
	assert.NotNil(t, rootCmd)
	assert.Equal(t, "snscan", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestRootCommandHelp(t *testing.T) {
	output, err := execute(t, "--help")
	require.NoError(t, err)
	assert.Contains(t, output, "two passes")
	assert.Contains(t, output, "Available Commands:")
	assert.Contains(t, output, "scan")
	assert.Contains(t, output, "rules")
}

func TestRootCommandVersion(t *testing.T) {
	output, err := execute(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, output, "snscan ")
	assert.Contains(t, output, "(commit ")
}

func TestRootCommandFlags(t *testing.T) {
	flags := rootCmd.PersistentFlags()
	for _, name := range []string{"config", "verbose", "log-level", "version"} {
		assert.NotNil(t, flags.Lookup(name), name)
	}
	assert.Equal(t, "v", flags.Lookup("verbose").Shorthand)
}

func TestLogLevel(t *testing.T) {
	cfg := config.DefaultConfig()
	assert.Equal(t, "INFO", logLevel(&cfg).String())

	cfg.LogLevel = "WARN"
	assert.Equal(t, "WARN", logLevel(&cfg).String())

	cfg.Verbose = true
	assert.Equal(t, "DEBUG", logLevel(&cfg).String())
}

func TestRootCommandInvalidConfigFile(t *testing.T) {
	_, err := execute(t, "rules", "--config", "does-not-exist.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config file does not exist")
}
