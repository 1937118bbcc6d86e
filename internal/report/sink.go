package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/MeKo-Tech/snscan/internal/pipeline"
	"github.com/MeKo-Tech/snscan/internal/utils"
)

// AutoOutputDir makes ResolveOutputDir pick a timestamped directory.
const AutoOutputDir = "auto"

// ResolveOutputDir maps "auto" to output_YYYYMMDDhhmmss.
func ResolveOutputDir(dir string, now time.Time) string {
	if dir == AutoOutputDir {
		return "output_" + now.Format("20060102150405")
	}
	return dir
}

// Collector keeps every result in memory for the final report.
type Collector struct {
	results []*pipeline.ImageResult
}

func (c *Collector) Write(res *pipeline.ImageResult) error {
	c.results = append(c.results, res)
	return nil
}

// Results returns the collected results in file order.
func (c *Collector) Results() []*pipeline.ImageResult { return c.results }

// Render formats the collected results.
func (c *Collector) Render(format string) (string, error) { return Format(c.results, format) }

// Save writes content to path, or to stdout when path is empty.
func Save(content, path string, stdout io.Writer) error {
	if path == "" {
		_, err := fmt.Fprint(stdout, content)
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	return nil
}

// ImageWriter saves candidate thumbnails and review images as each file is
// finalized.
type ImageWriter struct {
	Dir        string
	Thumbnails bool
	Review     bool
}

// ThumbnailPath is the file for candidate index of name.
func (w *ImageWriter) ThumbnailPath(name string, index int) string {
	base := utils.FlatName(name)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(w.Dir, "thumb_"+stem+"_"+strconv.Itoa(index)+".png")
}

// ReviewPath is the n-th (0-based) review image of name: review_<file>,
// then review_<stem>_<n><ext>.
func (w *ImageWriter) ReviewPath(name string, n int) string {
	base := utils.FlatName(name)
	if n == 0 {
		return filepath.Join(w.Dir, "review_"+base)
	}
	ext := filepath.Ext(base)
	return filepath.Join(w.Dir, "review_"+strings.TrimSuffix(base, ext)+"_"+strconv.Itoa(n)+ext)
}

func (w *ImageWriter) Write(res *pipeline.ImageResult) error {
	reviews := 0
	for _, r := range res.Records {
		if w.Thumbnails && r.Thumbnail != nil && r.Candidate != nil {
			if err := utils.SaveImage(r.Thumbnail, w.ThumbnailPath(res.Filename, r.Candidate.Index)); err != nil {
				return err
			}
		}
		if w.Review && r.Review != nil {
			if err := utils.SaveImage(r.Review, w.ReviewPath(res.Filename, reviews)); err != nil {
				return err
			}
			reviews++
		}
	}
	return nil
}

// ConsoleWriter echoes results while the batch runs. In serial-only mode it
// prints nothing but accepted serials.
type ConsoleWriter struct {
	Out        io.Writer
	SerialOnly bool
}

func (c *ConsoleWriter) Write(res *pipeline.ImageResult) error {
	if c.SerialOnly {
		_, err := fmt.Fprint(c.Out, SerialsOnly([]*pipeline.ImageResult{res}))
		return err
	}
	if _, err := fmt.Fprintf(c.Out, "* %s\n", res.Filename); err != nil {
		return err
	}
	for _, r := range res.Records {
		if _, err := fmt.Fprintf(c.Out, "  %s\n", RecordLine(r)); err != nil {
			return err
		}
	}
	return nil
}
