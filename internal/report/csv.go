// Package report formats verification results as CSV and as a plain-text
// diagnostic report. Pure formatting; all decisions are made upstream.
package report

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/lidianycs/cerca/internal/reference"
)

// csvHeader is the fixed first row of every export.
const csvHeader = "ID;Verified;Status;Match Score;PDF Title;PDF Authors;DB Title;DB Authors;Identifier"

// DefaultCSVName returns the timestamped default export file name,
// e.g. cerca_results_20260831_1405.csv.
func DefaultCSVName(t time.Time) string {
	return "cerca_results_" + t.Format("20060102_1504") + ".csv"
}

// WriteCSV writes one semicolon-delimited row per record after the header.
func WriteCSV(w io.Writer, recs []*reference.Record) error {
	if _, err := fmt.Fprintln(w, csvHeader); err != nil {
		return err
	}
	for _, rec := range recs {
		fields := []string{
			strconv.Itoa(rec.ID),
			strconv.FormatBool(rec.Verified),
			rec.Status.String(),
			strconv.Itoa(rec.MatchScore),
			rec.PDFTitle,
			rec.PDFAuthors,
			rec.DBTitle,
			rec.DBAuthors,
			rec.DetectedDOI,
		}
		for i, f := range fields {
			fields[i] = escapeCSV(f)
		}
		if _, err := fmt.Fprintln(w, strings.Join(fields, ";")); err != nil {
			return err
		}
	}
	return nil
}

// ExportCSV writes the export to path, creating or truncating the file.
func ExportCSV(path string, recs []*reference.Record) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating csv: %w", err)
	}
	if err := WriteCSV(f, recs); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// escapeCSV doubles internal quotes and wraps the field in quotes when it
// contains a comma, quote, or newline.
func escapeCSV(field string) string {
	escaped := strings.ReplaceAll(field, `"`, `""`)
	if strings.ContainsAny(escaped, ",\"\n") {
		return `"` + escaped + `"`
	}
	return escaped
}
