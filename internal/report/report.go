package report

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/lidianycs/cerca/internal/reference"
)

const reviewThreshold = 80

const reportDivider = "=================================================="

// NeedsReview reports whether a record lands in the diagnostics section.
// NOT_FOUND records are excluded because exhaustion flags them verified.
func NeedsReview(rec *reference.Record) bool {
	return rec.MatchScore < reviewThreshold && !rec.Verified
}

// WriteReport writes the plain-text diagnostic report. fileName is the
// document the batch came from; now stamps the header.
func WriteReport(w io.Writer, recs []*reference.Record, fileName string, now time.Time) error {
	var sb strings.Builder

	total := len(recs)
	verified := 0
	for _, rec := range recs {
		if rec.Verified {
			verified++
		}
	}
	suspicious := total - verified

	sb.WriteString("CERCA - INTEGRITY DIAGNOSTIC REPORT\n")
	sb.WriteString("Generated: " + now.Format("2006-01-02 15:04") + "\n")
	sb.WriteString("File: " + fileName + "\n")
	sb.WriteString("* DISCLAIMER: This software is an experimental tool intended\n" +
		" to help verify bibliographic references, but is not 100% accurate. \n" +
		"It does not replace manual verification. Always check the original source.\n")
	sb.WriteString(reportDivider + "\n\n")

	sb.WriteString("SUMMARY\n")
	sb.WriteString("-------\n")
	fmt.Fprintf(&sb, "Total References: %d\n", total)
	fmt.Fprintf(&sb, "Verified:         %d\n", verified)
	fmt.Fprintf(&sb, "Review Needed:    %d\n", suspicious)

	sb.WriteString("\n" + reportDivider + "\n")
	sb.WriteString("DIAGNOSTICS: ITEMS REQUIRING ATTENTION\n")
	sb.WriteString(reportDivider + "\n\n")

	if suspicious == 0 {
		sb.WriteString("No issues detected. All references verified with high confidence.\n")
	} else {
		for _, rec := range recs {
			if !NeedsReview(rec) {
				continue
			}
			fmt.Fprintf(&sb, "#%d\n", rec.ID)
			sb.WriteString("DIAGNOSIS: " + Diagnose(rec) + "\n")
			sb.WriteString("--------------------------------------------------\n")
			sb.WriteString("   PDF Title:   " + rec.PDFTitle + "\n")
			sb.WriteString("   PDF Authors: " + rec.PDFAuthors + "\n")
			if rec.DBTitle != "" {
				sb.WriteString("\n")
				sb.WriteString("   DB Title:    " + rec.DBTitle + "\n")
				sb.WriteString("   DB Authors:  " + rec.DBAuthors + "\n")
				fmt.Fprintf(&sb, "   Similarity:  %d%%\n", rec.MatchScore)
			}
			if rec.DetectedDOI != "" {
				sb.WriteString("   PDF DOI:     " + rec.DetectedDOI + "\n")
			}
			sb.WriteString("\n")
		}
	}

	sb.WriteString(reportDivider + "\n")
	sb.WriteString("End of Report\n")

	_, err := io.WriteString(w, sb.String())
	return err
}

// ExportReport writes the diagnostic report to path.
func ExportReport(path string, recs []*reference.Record, fileName string, now time.Time) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating report: %w", err)
	}
	if err := WriteReport(f, recs, fileName, now); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Diagnose picks the explanation for a low-confidence record. Rules are
// ordered from most to least specific; the first that applies wins.
func Diagnose(rec *reference.Record) string {
	if rec.DBTitle == "" {
		return "NO MATCH FOUND. This paper does not appear in the queried databases."
	}

	if rec.DetectedDOI != "" && rec.MatchScore < 40 {
		return "POTENTIAL DOI HIJACKING. The DOI provided points to a completely different paper."
	}

	pdfAuth := strings.ToLower(rec.PDFAuthors)
	dbAuth := strings.ToLower(rec.DBAuthors)
	if fields := strings.Fields(pdfAuth); rec.MatchScore > 60 && len(fields) > 0 && dbAuth != "" {
		firstAuthor := strings.ReplaceAll(fields[0], ",", "")
		if !strings.Contains(dbAuth, firstAuthor) {
			return "AUTHOR MISMATCH. Titles are similar, but the author lists do not match."
		}
	}

	if rec.MatchScore < 50 {
		return fmt.Sprintf("SIGNIFICANT TITLE MISMATCH. Database record differs by %d%%.", 100-rec.MatchScore)
	}

	return "LOW CONFIDENCE MATCH. Verify spelling or formatting."
}
