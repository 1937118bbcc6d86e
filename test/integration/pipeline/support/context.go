// Package support holds the step definitions of the pipeline feature suite.
// Scenarios drive the real orchestrator, batch runner and report code against
// a scripted OCR engine, so no Tesseract installation is needed.
package support

import (
	"errors"
	"fmt"
	"image"
	"os"

	"github.com/MeKo-Tech/snscan/internal/batch"
	"github.com/MeKo-Tech/snscan/internal/pipeline"
	"github.com/MeKo-Tech/snscan/internal/serial"
	"github.com/MeKo-Tech/snscan/internal/testutil"
)

// TestContext holds the state of one scenario.
type TestContext struct {
	// Configuration
	Families     []string
	Policy       string
	FlagMismatch bool

	// Inputs
	Engine    *testutil.ScriptedEngine
	Image     image.Image
	ImageName string
	TempDir   string

	// Outcomes
	Result    *pipeline.ImageResult
	Canonical string
	Accepted  bool
	Batch     *batch.Result
	Report    string
	LastError error
}

// NewTestContext creates a context with the default Samsung setup.
func NewTestContext() (*TestContext, error) {
	dir, err := os.MkdirTemp("", "snscan-features-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	return &TestContext{
		Families: []string{serial.FamilySamsung},
		Policy:   pipeline.PolicyShorter,
		Engine:   testutil.NewScriptedEngine(),
		TempDir:  dir,
	}, nil
}

// Cleanup removes the scenario's temporary files.
func (testCtx *TestContext) Cleanup() error {
	if testCtx.TempDir == "" {
		return nil
	}
	return os.RemoveAll(testCtx.TempDir)
}

func (testCtx *TestContext) canonicalizer() (*serial.Canonicalizer, error) {
	return serial.New(serial.DefaultPattern, serial.DefaultRegistry(), testCtx.Families...)
}

func (testCtx *TestContext) orchestrator() (*pipeline.Orchestrator, error) {
	canon, err := testCtx.canonicalizer()
	if err != nil {
		return nil, err
	}
	cfg := pipeline.DefaultConfig()
	cfg.Policy = testCtx.Policy
	cfg.FlagMismatch = testCtx.FlagMismatch
	return pipeline.New(cfg, testCtx.Engine, canon)
}

func (testCtx *TestContext) record(n int) (pipeline.Record, error) {
	if testCtx.Result == nil {
		return pipeline.Record{}, errors.New("no image was processed")
	}
	if n < 1 || n > len(testCtx.Result.Records) {
		return pipeline.Record{}, fmt.Errorf("record %d requested, %d produced", n, len(testCtx.Result.Records))
	}
	return testCtx.Result.Records[n-1], nil
}
