// Package report renders batch results as CSV, JSON or text and writes the
// per-candidate thumbnails and review images next to them.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/MeKo-Tech/snscan/internal/pipeline"
)

// Output formats.
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
	FormatText = "text"
)

// Formats lists the accepted format names.
func Formats() []string { return []string{FormatCSV, FormatJSON, FormatText} }

// CSVHeader is the column layout of the CSV report.
var CSVHeader = []string{"file", "text", "first", "second", "mismatch", "note", "confidence"}

// Format renders results in the named format.
func Format(results []*pipeline.ImageResult, format string) (string, error) {
	switch format {
	case FormatJSON:
		return formatJSON(results)
	case FormatCSV, "":
		return formatCSV(results)
	case FormatText:
		return formatText(results), nil
	default:
		return "", fmt.Errorf("unknown output format %q", format)
	}
}

func formatJSON(results []*pipeline.ImageResult) (string, error) {
	out := struct {
		Images []*pipeline.ImageResult `json:"images"`
	}{Images: results}
	if out.Images == nil {
		out.Images = []*pipeline.ImageResult{}
	}
	bts, err := json.MarshalIndent(out, "", "  ")
	return string(bts), err
}

func formatCSV(results []*pipeline.ImageResult) (string, error) {
	var output strings.Builder
	writer := csv.NewWriter(&output)
	if err := writer.Write(CSVHeader); err != nil {
		return "", err
	}
	for _, res := range results {
		if res == nil {
			continue
		}
		for _, r := range res.Records {
			mismatch := ""
			if r.Mismatch {
				mismatch = "1"
			}
			row := []string{r.Filename, r.Text, r.FirstPass, r.SecondPass, mismatch, r.Note, strconv.Itoa(r.Confidence)}
			if err := writer.Write(row); err != nil {
				return "", err
			}
		}
	}
	writer.Flush()
	return output.String(), writer.Error()
}

func formatText(results []*pipeline.ImageResult) string {
	var output strings.Builder
	for i, res := range results {
		if res == nil {
			continue
		}
		if i > 0 {
			output.WriteString("\n")
		}
		fmt.Fprintf(&output, "# %s\n", res.Filename)
		for _, r := range res.Records {
			output.WriteString(RecordLine(r))
			output.WriteString("\n")
		}
	}
	return output.String()
}

// RecordLine renders one record the way the console shows it.
func RecordLine(r pipeline.Record) string {
	if r.Note == pipeline.NoteUnrecognized {
		return "unrecognized - needs review"
	}
	line := r.FirstPass + " > " + r.SecondPass
	if r.Text != r.FirstPass {
		line += " => " + r.Text
	}
	if r.Mismatch {
		line += " (mismatch)"
	}
	return line
}

// SerialsOnly renders one accepted serial per line.
func SerialsOnly(results []*pipeline.ImageResult) string {
	var output strings.Builder
	for _, res := range results {
		if res == nil {
			continue
		}
		for _, r := range res.Records {
			if r.Text != "" {
				output.WriteString(r.Text)
				output.WriteString("\n")
			}
		}
	}
	return output.String()
}
