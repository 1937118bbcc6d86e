package testutil

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/snscan/internal/ocr"
)

func TestScriptedEngine_QueuesPerMode(t *testing.T) {
	e := NewScriptedEngine().
		OnSparse(Response{Tokens: []ocr.Token{Tok("a", 90, ocr.Box{})}}, Response{Err: ErrScripted}).
		OnLine(Response{Tokens: []ocr.Token{Tok("b", 80, ocr.Box{})}})
	img := CreateTestImage(4, 4, color.White)

	toks, err := e.Recognize(img, ocr.ModeSingleLine)
	require.NoError(t, err)
	assert.Equal(t, "b", toks[0].Text)

	toks, err = e.Recognize(img, ocr.ModeSparse)
	require.NoError(t, err)
	assert.Equal(t, "a", toks[0].Text)

	_, err = e.Recognize(img, ocr.ModeSparse)
	require.ErrorIs(t, err, ErrScripted)

	toks, err = e.Recognize(img, ocr.ModeSparse)
	require.NoError(t, err)
	assert.Empty(t, toks)

	assert.Equal(t, 3, e.CallsFor(ocr.ModeSparse))
	assert.Equal(t, 1, e.CallsFor(ocr.ModeSingleLine))
	assert.Equal(t, img.Bounds(), e.Calls()[0].Bounds)

	require.NoError(t, e.Close())
	assert.True(t, e.Closed())
}
