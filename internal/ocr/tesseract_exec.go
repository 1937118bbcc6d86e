package ocr

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"os/exec"
	"strconv"
	"strings"
)

// runFunc executes a command with stdin and returns stdout and stderr.
type runFunc func(name string, stdin []byte, args ...string) ([]byte, []byte, error)

// runCommand has no deadline: a hung tesseract blocks the caller.
func runCommand(name string, stdin []byte, args ...string) ([]byte, []byte, error) {
	cmd := exec.Command(name, args...) //nolint:gosec // G204: binary comes from operator configuration
	cmd.Stdin = bytes.NewReader(stdin)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

// execEngine drives the tesseract command line tool and parses its TSV output.
type execEngine struct {
	binary string
	opts   Options
	run    runFunc
}

func newExecEngine(opts Options) (*execEngine, error) {
	bin := opts.Binary
	if bin == "" {
		bin = "tesseract"
	}
	path, err := exec.LookPath(bin)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrEngineUnavailable, bin, err)
	}
	e := &execEngine{binary: path, opts: opts, run: runCommand}
	if _, _, err := e.run(e.binary, nil, "--version"); err != nil {
		return nil, fmt.Errorf("%w: %s --version: %w", ErrEngineUnavailable, path, err)
	}
	return e, nil
}

func (e *execEngine) args(mode Mode) []string {
	args := []string{
		"stdin", "stdout",
		"-l", e.opts.languages(mode),
		"--psm", strconv.Itoa(PageSegMode(mode)),
	}
	if e.opts.OEM >= 0 {
		args = append(args, "--oem", strconv.Itoa(e.opts.OEM))
	}
	if e.opts.TessdataDir != "" {
		args = append(args, "--tessdata-dir", e.opts.TessdataDir)
	}
	if e.opts.Whitelist != "" {
		args = append(args, "-c", "tessedit_char_whitelist="+e.opts.Whitelist)
	}
	return append(args, "tsv")
}

// Recognize encodes img as PNG, pipes it through tesseract and returns word
// tokens (ModeSparse) or line tokens (ModeSingleLine).
func (e *execEngine) Recognize(img image.Image, mode Mode) ([]Token, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, errors.New("ocr: empty image")
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("ocr: encode png: %w", err)
	}
	out, stderr, err := e.run(e.binary, buf.Bytes(), e.args(mode)...)
	if err != nil {
		return nil, fmt.Errorf("ocr: tesseract %s: %w: %s", mode, err, strings.TrimSpace(string(stderr)))
	}
	rows, err := ParseTSV(bytes.NewReader(out))
	if err != nil {
		return nil, err
	}
	return rowsToTokens(rows, mode), nil
}

func (e *execEngine) Close() error { return nil }

// TSVRow is one word-level line of tesseract's TSV output.
type TSVRow struct {
	Block, Par, Line, Word int
	Token
}

const tsvColumns = 12

// ParseTSV reads tesseract TSV output and returns the non-empty word rows
// (level 5) in output order.
func ParseTSV(r io.Reader) ([]TSVRow, error) {
	var rows []TSVRow
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		ln := strings.TrimRight(sc.Text(), "\r")
		if ln == "" || strings.HasPrefix(ln, "level\t") {
			continue
		}
		cols := strings.Split(ln, "\t")
		if len(cols) < tsvColumns-1 {
			return nil, fmt.Errorf("ocr: tsv line %d: want %d columns, got %d", lineNo, tsvColumns, len(cols))
		}
		if cols[0] != "5" || len(cols) < tsvColumns {
			continue
		}
		text := strings.TrimSpace(strings.Join(cols[tsvColumns-1:], "\t"))
		if text == "" {
			continue
		}
		ints := make([]int, 10)
		for i := range ints {
			v, err := strconv.Atoi(cols[i])
			if err != nil {
				return nil, fmt.Errorf("ocr: tsv line %d column %d: %w", lineNo, i+1, err)
			}
			ints[i] = v
		}
		conf, err := strconv.ParseFloat(cols[10], 64)
		if err != nil {
			return nil, fmt.Errorf("ocr: tsv line %d confidence: %w", lineNo, err)
		}
		rows = append(rows, TSVRow{
			Block: ints[2], Par: ints[3], Line: ints[4], Word: ints[5],
			Token: Token{
				Text:       text,
				Confidence: clampConfidence(conf),
				Box:        Box{X: ints[6], Y: ints[7], W: ints[8], H: ints[9]},
			},
		})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("ocr: read tsv: %w", err)
	}
	return rows, nil
}

func rowsToTokens(rows []TSVRow, mode Mode) []Token {
	words := make([]Token, len(rows))
	for i, r := range rows {
		words[i] = r.Token
	}
	if mode != ModeSingleLine {
		return words
	}
	lineKeys := make(map[[3]int]int)
	return JoinLines(words, func(i int) int {
		k := [3]int{rows[i].Block, rows[i].Par, rows[i].Line}
		id, ok := lineKeys[k]
		if !ok {
			id = len(lineKeys)
			lineKeys[k] = id
		}
		return id
	})
}
