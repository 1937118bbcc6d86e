package cmd

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/snscan/internal/ocr"
)

// checkCmd verifies that the configured OCR engine can be started.
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify that the OCR engine is installed and working",
	Long: `Start the configured OCR backend and run one recognition on a blank
image. A failure here means "scan" would fail before processing any file.

Examples:
  snscan check
  SNSCAN_ENGINE_BINARY=/opt/tesseract/bin/tesseract snscan check`,
	Args: cobra.NoArgs,
	RunE: runCheckCommand,
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

func runCheckCommand(cmd *cobra.Command, _ []string) error {
	cfg, err := GetConfig()
	if err != nil {
		return err
	}

	engine, err := newEngine(cfg.Engine.Backend, cfg.EngineOptions())
	if err != nil {
		return err
	}
	defer func() { _ = engine.Close() }()

	blank := image.NewGray(image.Rect(0, 0, 64, 32))
	draw.Draw(blank, blank.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	for _, mode := range []ocr.Mode{ocr.ModeSparse, ocr.ModeSingleLine} {
		if _, err := engine.Recognize(blank, mode); err != nil {
			return fmt.Errorf("%s recognition failed: %w", mode, err)
		}
		slog.Debug("engine probe ok", "mode", mode.String())
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "OCR engine OK (backend: %s)\n", cfg.Engine.Backend)
	return nil
}
