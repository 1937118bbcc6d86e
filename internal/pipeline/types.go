package pipeline

import (
	"image"

	"github.com/MeKo-Tech/snscan/internal/ocr"
)

// Pass identifies which whole-image scan produced a candidate.
type Pass string

const (
	PassColor Pass = "color"
	PassGray  Pass = "gray"
)

// Review notes attached to records.
const (
	NoteNone         = ""
	NoteUnrecognized = "unrecognized"
	NoteMismatch     = "mismatch"
)

// Candidate is a first-pass token whose canonical text matched the serial pattern.
type Candidate struct {
	// Index of the token in the scan output.
	Index      int     `json:"index"`
	Text       string  `json:"text"`
	Confidence int     `json:"confidence"`
	Box        ocr.Box `json:"box"`
	Pass       Pass    `json:"pass"`
}

// Record is one report row. Records are never modified after ProcessImage
// returns them.
type Record struct {
	Filename   string `json:"file"`
	Text       string `json:"text"`
	Note       string `json:"note,omitempty"`
	FirstPass  string `json:"first_pass,omitempty"`
	SecondPass string `json:"second_pass,omitempty"`
	Mismatch   bool   `json:"mismatch"`
	Confidence int    `json:"confidence"`

	Candidate *Candidate `json:"candidate,omitempty"`
	// Thumbnail is the refined crop of the candidate, or nil.
	Thumbnail image.Image `json:"-"`
	// Review holds the image a human should look at when the readings
	// disagree (refined canvas) or nothing was found (scanned image).
	Review image.Image `json:"-"`
}

// ImageResult groups the records of one input file.
type ImageResult struct {
	Filename   string      `json:"file"`
	Width      int         `json:"width"`
	Height     int         `json:"height"`
	Pass       Pass        `json:"pass,omitempty"`
	Candidates []Candidate `json:"candidates"`
	Records    []Record    `json:"records"`
	Processing struct {
		ScanNs   int64 `json:"scan_ns"`
		RefineNs int64 `json:"refine_ns"`
		TotalNs  int64 `json:"total_ns"`
	} `json:"processing"`
}

// Recognized reports whether at least one candidate was found.
func (r *ImageResult) Recognized() bool { return len(r.Candidates) > 0 }
