package cmd

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/snscan/internal/serial"
)

// rulesCmd lists the correction rule families.
var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List serial correction rule families",
	Long: `List the built-in correction rule families and those loaded from a rules
file. Families enabled in the current configuration are marked with "*".

Examples:
  snscan rules
  snscan rules --rules-file lg.yaml`,
	Args: cobra.NoArgs,
	RunE: runRulesCommand,
}

func init() {
	rulesCmd.Flags().String("rules-file", "", "YAML file with additional correction rule families")
	rootCmd.AddCommand(rulesCmd)
}

func runRulesCommand(cmd *cobra.Command, _ []string) error {
	cfg, err := GetConfig()
	if err != nil {
		return err
	}

	path := cfg.Serial.RulesFile
	if cmd.Flags().Changed("rules-file") {
		path, _ = cmd.Flags().GetString("rules-file")
	}

	reg := serial.DefaultRegistry()
	if path != "" {
		if err := serial.LoadRulesFile(path, reg); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "pattern: %s\n", cfg.Serial.Pattern)
	for _, family := range reg.Families() {
		mark := " "
		if slices.Contains(cfg.Serial.Families, family) {
			mark = "*"
		}
		rules, err := reg.Rules(family)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(out, "%s %s (%d rules)\n", mark, family, len(rules))
		for _, r := range rules {
			_, _ = fmt.Fprintf(out, "    - %s\n", r.Name)
		}
	}
	return nil
}
