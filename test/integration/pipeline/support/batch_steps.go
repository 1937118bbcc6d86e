package support

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cucumber/godog"

	"github.com/MeKo-Tech/snscan/internal/batch"
	"github.com/MeKo-Tech/snscan/internal/report"
	"github.com/MeKo-Tech/snscan/internal/testutil"
	"github.com/MeKo-Tech/snscan/internal/utils"
)

// RegisterBatchSteps registers the directory scanning steps.
func (testCtx *TestContext) RegisterBatchSteps(sc *godog.ScenarioContext) {
	sc.Step(`^the directory contains a label "([^"]*)"$`, testCtx.theDirectoryContainsALabel)
	sc.Step(`^the directory contains an unreadable file "([^"]*)"$`, testCtx.theDirectoryContainsAnUnreadableFile)
	sc.Step(`^the directory is scanned$`, testCtx.theDirectoryIsScanned)
	sc.Step(`^the directory is scanned as "([^"]*)"$`, testCtx.theDirectoryIsScannedAs)
	sc.Step(`^(\d+) files? (?:was|were) processed and (\d+) skipped$`, testCtx.filesWereProcessedAndSkipped)
	sc.Step(`^"([^"]*)" was skipped$`, testCtx.wasSkipped)
	sc.Step(`^the report contains the line "([^"]*)"$`, testCtx.theReportContainsTheLine)
	sc.Step(`^the report does not mention "([^"]*)"$`, testCtx.theReportDoesNotMention)
	sc.Step(`^the scan fails with "([^"]*)"$`, testCtx.theScanFailsWith)
}

func (testCtx *TestContext) inputDir() string {
	return filepath.Join(testCtx.TempDir, "in")
}

func (testCtx *TestContext) theDirectoryContainsALabel(name string) error {
	img, _ := testutil.GenerateLabelImage(testutil.DefaultLabelConfig())
	return utils.SaveImage(img, filepath.Join(testCtx.inputDir(), name))
}

func (testCtx *TestContext) theDirectoryContainsAnUnreadableFile(name string) error {
	path := filepath.Join(testCtx.inputDir(), name)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	return os.WriteFile(path, []byte("definitely not an image"), 0o600)
}

func (testCtx *TestContext) theDirectoryIsScanned() error {
	return testCtx.theDirectoryIsScannedAs(report.FormatCSV)
}

func (testCtx *TestContext) theDirectoryIsScannedAs(format string) error {
	if err := os.MkdirAll(testCtx.inputDir(), 0o750); err != nil {
		return err
	}
	files, err := batch.Discover([]string{testCtx.inputDir()}, batch.DiscoverOptions{})
	if err != nil {
		return err
	}
	orch, err := testCtx.orchestrator()
	if err != nil {
		return err
	}

	collector := &report.Collector{}
	testCtx.Batch, testCtx.LastError = batch.NewRunner(orch, batch.WithSink(collector)).Run(files)
	if testCtx.LastError != nil {
		return nil
	}
	testCtx.Report, err = collector.Render(format)
	return err
}

func (testCtx *TestContext) filesWereProcessedAndSkipped(processed, skipped int) error {
	if testCtx.LastError != nil {
		return fmt.Errorf("scan failed: %w", testCtx.LastError)
	}
	s := testCtx.Batch.Stats()
	if s.Processed != processed || s.Skipped != skipped {
		return fmt.Errorf("expected %d processed and %d skipped, got %d and %d", processed, skipped, s.Processed, s.Skipped)
	}
	return nil
}

func (testCtx *TestContext) wasSkipped(name string) error {
	if testCtx.Batch == nil {
		return errors.New("no batch was run")
	}
	for _, s := range testCtx.Batch.Skipped {
		if s.File.Name == name {
			return nil
		}
	}
	return fmt.Errorf("%s was not skipped", name)
}

func (testCtx *TestContext) theReportContainsTheLine(line string) error {
	for _, l := range strings.Split(testCtx.Report, "\n") {
		if l == line {
			return nil
		}
	}
	return fmt.Errorf("report has no line %q:\n%s", line, testCtx.Report)
}

func (testCtx *TestContext) theReportDoesNotMention(text string) error {
	if strings.Contains(testCtx.Report, text) {
		return fmt.Errorf("report mentions %q:\n%s", text, testCtx.Report)
	}
	return nil
}

func (testCtx *TestContext) theScanFailsWith(msg string) error {
	if testCtx.LastError == nil {
		return fmt.Errorf("expected scan to fail with %q", msg)
	}
	if !strings.Contains(testCtx.LastError.Error(), msg) {
		return fmt.Errorf("expected error containing %q, got %v", msg, testCtx.LastError)
	}
	return nil
}
