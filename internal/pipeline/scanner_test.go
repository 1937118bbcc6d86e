package pipeline

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/snscan/internal/ocr"
	"github.com/MeKo-Tech/snscan/internal/serial"
	"github.com/MeKo-Tech/snscan/internal/testutil"
)

func samsung(t *testing.T) *serial.Canonicalizer {
	t.Helper()
	c, err := serial.New(serial.DefaultPattern, serial.DefaultRegistry(), serial.FamilySamsung)
	require.NoError(t, err)
	return c
}

func TestSelectCandidates_KeepsScanOrderAndIndex(t *testing.T) {
	tokens := []ocr.Token{
		testutil.Tok("MODEL", 95, ocr.Box{X: 1, Y: 1, W: 10, H: 5}),
		testutil.Tok("S/N:RS4T1067RRR", 71, ocr.Box{X: 5, Y: 20, W: 60, H: 8}),
		testutil.Tok("220V", 90, ocr.Box{}),
		testutil.Tok("RABCDEFGH1O", 64, ocr.Box{X: 5, Y: 40, W: 60, H: 8}),
	}
	got := SelectCandidates(tokens, samsung(t), PassColor)
	require.Len(t, got, 2)

	assert.Equal(t, Candidate{Index: 1, Text: "R54T1067RRR", Confidence: 71, Box: tokens[1].Box, Pass: PassColor}, got[0])
	assert.Equal(t, 3, got[1].Index)
	assert.Equal(t, "RABCDEFGH10", got[1].Text)
	assert.NotContains(t, got[1].Text, "O")
}

func TestSelectCandidates_None(t *testing.T) {
	assert.Empty(t, SelectCandidates(nil, samsung(t), PassGray))
	assert.Empty(t, SelectCandidates([]ocr.Token{testutil.Tok("R123", 99, ocr.Box{})}, samsung(t), PassGray))
}

func TestScanner_PassesMode(t *testing.T) {
	eng := testutil.NewScriptedEngine().OnLine(testutil.Response{Tokens: []ocr.Token{testutil.Tok("x", 1, ocr.Box{})}})
	toks, err := NewScanner(eng).Scan(testutil.CreateTestImage(4, 4, color.White), ocr.ModeSingleLine)
	require.NoError(t, err)
	assert.Len(t, toks, 1)
	assert.Equal(t, 1, eng.CallsFor(ocr.ModeSingleLine))
}

func TestLineText(t *testing.T) {
	text, conf := lineText([]ocr.Token{{Text: "R54T10", Confidence: 80}, {Text: "67RRR", Confidence: 60}})
	assert.Equal(t, "R54T1067RRR", text)
	assert.Equal(t, 60, conf)

	text, conf = lineText(nil)
	assert.Empty(t, text)
	assert.Zero(t, conf)
}
