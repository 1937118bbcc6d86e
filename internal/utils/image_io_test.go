package utils

import (
	"errors"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsSupportedImage(t *testing.T) {
	assert.True(t, IsSupportedImage("a/b/label.PNG"))
	assert.True(t, IsSupportedImage("scan.tiff"))
	assert.True(t, IsSupportedImage("photo.webp"))
	assert.False(t, IsSupportedImage("notes.txt"))
	assert.False(t, IsSupportedImage("noext"))
}

func TestFlatName(t *testing.T) {
	assert.Equal(t, "a.png", FlatName("a.png"))
	assert.Equal(t, "left_a.png", FlatName("left/a.png"))
	assert.Equal(t, "x_y_a.png", FlatName(filepath.Join("x", "y", "a.png")))
}

func TestLoadImage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "label.png")
	require.NoError(t, imaging.Save(imaging.New(40, 20, color.White), path))

	img, meta, err := LoadImage(path)
	require.NoError(t, err)
	assert.Equal(t, 40, img.Bounds().Dx())
	assert.Equal(t, "png", meta.Format)
	assert.Equal(t, 20, meta.Height)
	assert.Positive(t, meta.SizeBytes)
}

func TestLoadImage_Errors(t *testing.T) {
	dir := t.TempDir()

	_, _, err := LoadImage("")
	require.Error(t, err)

	_, _, err = LoadImage(filepath.Join(dir, "missing.png"))
	var ipe *ImageProcessingError
	require.ErrorAs(t, err, &ipe)
	assert.Equal(t, "load", ipe.Operation)
	assert.True(t, errors.Is(err, os.ErrNotExist))

	garbage := filepath.Join(dir, "broken.jpg")
	require.NoError(t, os.WriteFile(garbage, []byte("not really a jpeg"), 0o600))
	_, _, err = LoadImage(garbage)
	require.ErrorAs(t, err, &ipe)
	assert.Equal(t, "decode", ipe.Operation)
}

func TestSaveImage(t *testing.T) {
	dir := t.TempDir()
	img := imaging.New(10, 10, color.Black)

	require.NoError(t, SaveImage(img, filepath.Join(dir, "nested", "out.jpg")))
	_, err := os.Stat(filepath.Join(dir, "nested", "out.jpg"))
	require.NoError(t, err)

	require.NoError(t, SaveImage(img, filepath.Join(dir, "out.raw")))
	_, err = os.Stat(filepath.Join(dir, "out.png"))
	require.NoError(t, err)

	require.Error(t, SaveImage(nil, filepath.Join(dir, "nil.png")))
}
