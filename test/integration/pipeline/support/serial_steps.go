package support

import (
	"fmt"

	"github.com/cucumber/godog"
)

// RegisterSerialSteps registers the canonicalization steps.
func (testCtx *TestContext) RegisterSerialSteps(sc *godog.ScenarioContext) {
	sc.Step(`^the reading "([^"]*)" is canonicalized$`, testCtx.theReadingIsCanonicalized)
	sc.Step(`^the serial is "([^"]*)"$`, testCtx.theSerialIs)
	sc.Step(`^the reading is rejected$`, testCtx.theReadingIsRejected)
}

func (testCtx *TestContext) theReadingIsCanonicalized(raw string) error {
	canon, err := testCtx.canonicalizer()
	if err != nil {
		return err
	}
	testCtx.Canonical, testCtx.Accepted = canon.Canonicalize(raw)
	return nil
}

func (testCtx *TestContext) theSerialIs(want string) error {
	if !testCtx.Accepted {
		return fmt.Errorf("expected serial %q, reading was rejected", want)
	}
	if testCtx.Canonical != want {
		return fmt.Errorf("expected serial %q, got %q", want, testCtx.Canonical)
	}
	return nil
}

func (testCtx *TestContext) theReadingIsRejected() error {
	if testCtx.Accepted {
		return fmt.Errorf("expected rejection, got %q", testCtx.Canonical)
	}
	return nil
}
