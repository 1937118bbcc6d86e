package support

import (
	"errors"
	"fmt"
	"image/color"
	"strings"

	"github.com/cucumber/godog"

	"github.com/MeKo-Tech/snscan/internal/ocr"
	"github.com/MeKo-Tech/snscan/internal/testutil"
)

const defaultConfidence = 80

// tokenBox stacks scanned words down the left side of a label image.
func tokenBox(i int) ocr.Box {
	return ocr.Box{X: 20, Y: 20 + i*30, W: 200, H: 16}
}

// words turns a space separated reading into tokens.
func words(text string, conf int) []ocr.Token {
	fields := strings.Fields(text)
	out := make([]ocr.Token, 0, len(fields))
	for i, f := range fields {
		out = append(out, testutil.Tok(f, conf, tokenBox(i)))
	}
	return out
}

// RegisterPipelineSteps registers the single-image steps.
func (testCtx *TestContext) RegisterPipelineSteps(sc *godog.ScenarioContext) {
	sc.Step(`^the "([^"]*)" correction rules$`, testCtx.theCorrectionRules)
	sc.Step(`^no correction rules$`, testCtx.noCorrectionRules)
	sc.Step(`^the reconciliation policy is "([^"]*)"$`, testCtx.theReconciliationPolicyIs)
	sc.Step(`^mismatches are flagged$`, testCtx.mismatchesAreFlagged)

	sc.Step(`^a label image "([^"]*)"$`, testCtx.aLabelImage)
	sc.Step(`^a blank image "([^"]*)"$`, testCtx.aBlankImage)

	sc.Step(`^the whole-image scan reads "([^"]*)"$`, testCtx.theWholeImageScanReads)
	sc.Step(`^the whole-image scan reads "([^"]*)" with confidence (\d+)$`, testCtx.theWholeImageScanReadsWithConfidence)
	sc.Step(`^the whole-image scan finds nothing$`, testCtx.theWholeImageScanFindsNothing)
	sc.Step(`^the whole-image scan fails$`, testCtx.theWholeImageScanFails)
	sc.Step(`^the single-line scan reads "([^"]*)"$`, testCtx.theSingleLineScanReads)
	sc.Step(`^the single-line scan reads "([^"]*)" with confidence (\d+)$`, testCtx.theSingleLineScanReadsWithConfidence)
	sc.Step(`^the single-line scan fails$`, testCtx.theSingleLineScanFails)

	sc.Step(`^the image is processed$`, testCtx.theImageIsProcessed)

	sc.Step(`^(\d+) records? (?:is|are) produced$`, testCtx.recordsAreProduced)
	sc.Step(`^record (\d+) has text "([^"]*)"$`, testCtx.recordHasText)
	sc.Step(`^record (\d+) has note "([^"]*)"$`, testCtx.recordHasNote)
	sc.Step(`^record (\d+) has no note$`, testCtx.recordHasNoNote)
	sc.Step(`^record (\d+) has readings "([^"]*)" and "([^"]*)"$`, testCtx.recordHasReadings)
	sc.Step(`^record (\d+) is (not )?a mismatch$`, testCtx.recordIsAMismatch)
	sc.Step(`^record (\d+) has confidence (\d+)$`, testCtx.recordHasConfidence)
	sc.Step(`^the engine ran (\d+) whole-image scans? and (\d+) single-line scans?$`, testCtx.theEngineRan)
}

func (testCtx *TestContext) theCorrectionRules(family string) error {
	testCtx.Families = []string{family}
	return nil
}

func (testCtx *TestContext) noCorrectionRules() error {
	testCtx.Families = nil
	return nil
}

func (testCtx *TestContext) theReconciliationPolicyIs(name string) error {
	testCtx.Policy = name
	return nil
}

func (testCtx *TestContext) mismatchesAreFlagged() error {
	testCtx.FlagMismatch = true
	return nil
}

func (testCtx *TestContext) aLabelImage(name string) error {
	img, _ := testutil.GenerateLabelImage(testutil.DefaultLabelConfig())
	testCtx.Image = img
	testCtx.ImageName = name
	return nil
}

func (testCtx *TestContext) aBlankImage(name string) error {
	testCtx.Image = testutil.CreateTestImage(testutil.SmallSize.Width, testutil.SmallSize.Height, color.White)
	testCtx.ImageName = name
	return nil
}

func (testCtx *TestContext) theWholeImageScanReads(text string) error {
	return testCtx.theWholeImageScanReadsWithConfidence(text, defaultConfidence)
}

func (testCtx *TestContext) theWholeImageScanReadsWithConfidence(text string, conf int) error {
	testCtx.Engine.OnSparse(testutil.Response{Tokens: words(text, conf)})
	return nil
}

func (testCtx *TestContext) theWholeImageScanFindsNothing() error {
	testCtx.Engine.OnSparse(testutil.Response{})
	return nil
}

func (testCtx *TestContext) theWholeImageScanFails() error {
	testCtx.Engine.OnSparse(testutil.Response{Err: testutil.ErrScripted})
	return nil
}

func (testCtx *TestContext) theSingleLineScanReads(text string) error {
	return testCtx.theSingleLineScanReadsWithConfidence(text, defaultConfidence)
}

func (testCtx *TestContext) theSingleLineScanReadsWithConfidence(text string, conf int) error {
	testCtx.Engine.OnLine(testutil.Response{Tokens: words(text, conf)})
	return nil
}

func (testCtx *TestContext) theSingleLineScanFails() error {
	testCtx.Engine.OnLine(testutil.Response{Err: testutil.ErrScripted})
	return nil
}

func (testCtx *TestContext) theImageIsProcessed() error {
	orch, err := testCtx.orchestrator()
	if err != nil {
		return err
	}
	testCtx.Result = orch.ProcessImage(testCtx.ImageName, testCtx.Image)
	return nil
}

func (testCtx *TestContext) recordsAreProduced(n int) error {
	if testCtx.Result == nil {
		return errors.New("no image was processed")
	}
	if got := len(testCtx.Result.Records); got != n {
		return fmt.Errorf("expected %d records, got %d", n, got)
	}
	return nil
}

func (testCtx *TestContext) recordHasText(n int, text string) error {
	r, err := testCtx.record(n)
	if err != nil {
		return err
	}
	if r.Text != text {
		return fmt.Errorf("record %d: expected text %q, got %q", n, text, r.Text)
	}
	return nil
}

func (testCtx *TestContext) recordHasNote(n int, note string) error {
	r, err := testCtx.record(n)
	if err != nil {
		return err
	}
	if r.Note != note {
		return fmt.Errorf("record %d: expected note %q, got %q", n, note, r.Note)
	}
	return nil
}

func (testCtx *TestContext) recordHasNoNote(n int) error {
	return testCtx.recordHasNote(n, "")
}

func (testCtx *TestContext) recordHasReadings(n int, first, second string) error {
	r, err := testCtx.record(n)
	if err != nil {
		return err
	}
	if r.FirstPass != first || r.SecondPass != second {
		return fmt.Errorf("record %d: expected readings %q/%q, got %q/%q", n, first, second, r.FirstPass, r.SecondPass)
	}
	return nil
}

func (testCtx *TestContext) recordIsAMismatch(n int, not string) error {
	r, err := testCtx.record(n)
	if err != nil {
		return err
	}
	want := not == ""
	if r.Mismatch != want {
		return fmt.Errorf("record %d: expected mismatch=%v, got %v", n, want, r.Mismatch)
	}
	return nil
}

func (testCtx *TestContext) recordHasConfidence(n, conf int) error {
	r, err := testCtx.record(n)
	if err != nil {
		return err
	}
	if r.Confidence != conf {
		return fmt.Errorf("record %d: expected confidence %d, got %d", n, conf, r.Confidence)
	}
	return nil
}

func (testCtx *TestContext) theEngineRan(sparse, line int) error {
	if got := testCtx.Engine.CallsFor(ocr.ModeSparse); got != sparse {
		return fmt.Errorf("expected %d whole-image scans, got %d", sparse, got)
	}
	if got := testCtx.Engine.CallsFor(ocr.ModeSingleLine); got != line {
		return fmt.Errorf("expected %d single-line scans, got %d", line, got)
	}
	return nil
}
