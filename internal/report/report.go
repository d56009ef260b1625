// Package report collects per-file compression outcomes and renders
// the aggregate summary shown after a run.
package report

import (
	"fmt"
	"strings"
	"time"
)

// Result describes one successfully compressed file.
type Result struct {
	Path           string // absolute source path
	RelPath        string // source path relative to the scanned root
	OutputPath     string // compressed sibling path
	Algorithm      string
	OriginalSize   int64
	CompressedSize int64
}

// Ratio returns the compressed size as a percentage of the original.
// A zero-byte original reports 100: there is nothing to divide by and
// no reduction to claim.
func (r Result) Ratio() float64 {
	return ratio(r.CompressedSize, r.OriginalSize)
}

// FileError describes one file the pipeline could not compress. Op
// names the step that failed: stat, read, compress or write.
type FileError struct {
	Path string
	Op   string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Path, e.Op, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

// Report is the aggregate outcome of one pipeline run. Totals are the
// sums of the per-file sizes; the total ratio derives from those sums,
// never from averaging the per-file ratios.
type Report struct {
	Results         []Result
	Errors          []*FileError
	Skipped         int // eligible files left alone by the freshness cache
	Duration        time.Duration
	TotalOriginal   int64
	TotalCompressed int64
}

// Summarize folds per-file outcomes into a Report.
func Summarize(results []Result, errors []*FileError, skipped int, duration time.Duration) *Report {
	rep := &Report{
		Results:  results,
		Errors:   errors,
		Skipped:  skipped,
		Duration: duration,
	}
	for _, res := range results {
		rep.TotalOriginal += res.OriginalSize
		rep.TotalCompressed += res.CompressedSize
	}
	return rep
}

// TotalRatio returns the summed compressed size as a percentage of the
// summed original size.
func (r *Report) TotalRatio() float64 {
	return ratio(r.TotalCompressed, r.TotalOriginal)
}

// Render returns the column-aligned per-file table with a totals row,
// followed by the skip count and one line per failed file.
func (r *Report) Render() string {
	var b strings.Builder
	b.WriteString("Compression summary:\n")

	if len(r.Results) == 0 {
		b.WriteString("  no files compressed\n")
	} else {
		rows := make([][4]string, 0, len(r.Results)+1)
		for _, res := range r.Results {
			rows = append(rows, [4]string{
				res.RelPath,
				FormatBytes(res.OriginalSize),
				FormatBytes(res.CompressedSize),
				fmt.Sprintf("%.2f%%", res.Ratio()),
			})
		}
		rows = append(rows, [4]string{
			"total",
			FormatBytes(r.TotalOriginal),
			FormatBytes(r.TotalCompressed),
			fmt.Sprintf("%.2f%%", r.TotalRatio()),
		})

		var widths [4]int
		for _, row := range rows {
			for i, cell := range row {
				if len(cell) > widths[i] {
					widths[i] = len(cell)
				}
			}
		}
		for _, row := range rows {
			fmt.Fprintf(&b, "  %-*s  %*s -> %*s  %*s\n",
				widths[0], row[0],
				widths[1], row[1],
				widths[2], row[2],
				widths[3], row[3])
		}
	}

	if r.Skipped > 0 {
		fmt.Fprintf(&b, "  skipped %d unchanged file(s)\n", r.Skipped)
	}
	for _, fe := range r.Errors {
		fmt.Fprintf(&b, "  failed %s (%s): %v\n", fe.Path, fe.Op, fe.Err)
	}
	fmt.Fprintf(&b, "  completed in %v", r.Duration.Round(time.Millisecond))

	return b.String()
}

func ratio(compressed, original int64) float64 {
	if original == 0 {
		return 100
	}
	return 100 * float64(compressed) / float64(original)
}

// FormatBytes returns a human-readable string for a byte count.
func FormatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
