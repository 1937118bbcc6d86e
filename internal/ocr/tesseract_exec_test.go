package ocr

import (
	"errors"
	"image"
	"image/color"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleTSV = "level\tpage_num\tblock_num\tpar_num\tline_num\tword_num\tleft\ttop\twidth\theight\tconf\ttext\n" +
	"1\t1\t0\t0\t0\t0\t0\t0\t640\t480\t-1\t\n" +
	"4\t1\t1\t1\t1\t0\t10\t20\t300\t30\t-1\t\n" +
	"5\t1\t1\t1\t1\t1\t10\t20\t40\t30\t91.5\tS/N:\n" +
	"5\t1\t1\t1\t1\t2\t60\t20\t200\t30\t88.2\tR54T1067RRR\n" +
	"5\t1\t2\t1\t1\t1\t15\t100\t50\t25\t-1\t \n" +
	"5\t1\t2\t1\t1\t2\t70\t100\t80\t25\t42\tMODEL\n"

func TestParseTSV(t *testing.T) {
	rows, err := ParseTSV(strings.NewReader(sampleTSV))
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "S/N:", rows[0].Text)
	assert.Equal(t, 92, rows[0].Confidence)
	assert.Equal(t, Box{X: 60, Y: 20, W: 200, H: 30}, rows[1].Box)
	assert.Equal(t, 88, rows[1].Confidence)
	assert.Equal(t, 2, rows[2].Block)
	assert.Equal(t, "MODEL", rows[2].Text)
}

func TestParseTSV_Malformed(t *testing.T) {
	_, err := ParseTSV(strings.NewReader("5\t1\t1\n"))
	require.Error(t, err)

	_, err = ParseTSV(strings.NewReader("5\t1\t1\t1\t1\t1\tx\t20\t40\t30\t91\tABC\n"))
	require.Error(t, err)
}

func TestRowsToTokens_SingleLineJoinsWords(t *testing.T) {
	rows, err := ParseTSV(strings.NewReader(sampleTSV))
	require.NoError(t, err)

	words := rowsToTokens(rows, ModeSparse)
	assert.Len(t, words, 3)

	lines := rowsToTokens(rows, ModeSingleLine)
	require.Len(t, lines, 2)
	assert.Equal(t, "S/N: R54T1067RRR", lines[0].Text)
	assert.Equal(t, 88, lines[0].Confidence)
	assert.Equal(t, Box{X: 10, Y: 20, W: 250, H: 30}, lines[0].Box)
	assert.Equal(t, "MODEL", lines[1].Text)
}

func TestExecEngineArgs(t *testing.T) {
	opts := DefaultOptions()
	opts.TessdataDir = "/usr/share/tessdata"
	opts.Whitelist = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	e := &execEngine{binary: "tesseract", opts: opts}

	sparse := strings.Join(e.args(ModeSparse), " ")
	assert.Contains(t, sparse, "-l eng+kor")
	assert.Contains(t, sparse, "--psm 11")
	assert.Contains(t, sparse, "--oem 3")
	assert.Contains(t, sparse, "--tessdata-dir /usr/share/tessdata")
	assert.Contains(t, sparse, "tessedit_char_whitelist=0123")
	assert.True(t, strings.HasSuffix(sparse, " tsv"))

	line := strings.Join(e.args(ModeSingleLine), " ")
	assert.Contains(t, line, "-l eng ")
	assert.Contains(t, line, "--psm 7")
}

func TestExecEngineRecognize(t *testing.T) {
	var gotStdin []byte
	e := &execEngine{
		binary: "tesseract",
		opts:   DefaultOptions(),
		run: func(name string, stdin []byte, args ...string) ([]byte, []byte, error) {
			gotStdin = stdin
			return []byte(sampleTSV), nil, nil
		},
	}
	img := imaging.New(64, 32, color.White)

	tokens, err := e.Recognize(img, ModeSparse)
	require.NoError(t, err)
	assert.Len(t, tokens, 3)
	assert.True(t, len(gotStdin) > 8 && string(gotStdin[1:4]) == "PNG", "stdin should carry a PNG")
}

func TestExecEngineRecognize_Errors(t *testing.T) {
	e := &execEngine{
		binary: "tesseract",
		opts:   DefaultOptions(),
		run: func(string, []byte, ...string) ([]byte, []byte, error) {
			return nil, []byte("Error in pixReadMem"), errors.New("exit status 1")
		},
	}

	_, err := e.Recognize(nil, ModeSparse)
	require.Error(t, err)

	_, err = e.Recognize(image.NewGray(image.Rect(0, 0, 0, 0)), ModeSparse)
	require.Error(t, err)

	_, err = e.Recognize(imaging.New(8, 8, color.White), ModeSingleLine)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pixReadMem")
}

func TestNew_UnknownAndMissing(t *testing.T) {
	_, err := New("paddle", DefaultOptions())
	require.ErrorIs(t, err, ErrEngineUnavailable)

	opts := DefaultOptions()
	opts.Binary = "/nonexistent/tesseract-binary"
	_, err = New(BackendExec, opts)
	require.ErrorIs(t, err, ErrEngineUnavailable)
}
