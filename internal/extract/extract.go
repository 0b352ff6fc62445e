// Package extract pulls citation entries out of manuscripts.
package extract

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/lidianycs/cerca/internal/reference"
)

// ErrInvalidDocument is returned when the input cannot be read as a PDF
// (encrypted, corrupted, or not a PDF at all).
var ErrInvalidDocument = errors.New("invalid document")

// Extractor produces citation records from a document on disk.
type Extractor interface {
	Extract(path string) ([]*reference.Record, error)
}

// doiPattern matches 10.XXXX/... identifiers embedded in citation text.
var doiPattern = regexp.MustCompile(`10\.\d{4,9}/[^\s<>"{}|\\^~\[\]` + "`" + `]+`)

// entryStart matches the leading marker of a numbered reference entry,
// e.g. "[12]" or "7." at the start of a line.
var entryStart = regexp.MustCompile(`^\s*(\[\d+\]|\d+\.)\s+`)

// PDFExtractor reads the references section of a PDF manuscript.
type PDFExtractor struct{}

// NewPDFExtractor returns an extractor backed by the pure-Go PDF reader.
func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{}
}

// Extract returns one record per reference entry found in the document.
// A readable PDF with no recognizable references yields an empty slice
// and a nil error.
func (e *PDFExtractor) Extract(path string) ([]*reference.Record, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	defer f.Close()

	var builder strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		builder.WriteString(text)
		builder.WriteString("\n")
	}

	return ParseReferences(builder.String()), nil
}

// ParseReferences scans full-document text for the references section and
// splits it into individual entries. The last "References"/"Bibliography"
// heading wins, since manuscripts may mention the word earlier in prose.
func ParseReferences(text string) []*reference.Record {
	section := referencesSection(text)
	if section == "" {
		return nil
	}

	entries := splitEntries(section)
	records := make([]*reference.Record, 0, len(entries))
	for i, entry := range entries {
		authors, title := ParseLine(entry)
		doi := FindDOI(entry)
		records = append(records, reference.New(i+1, authors, title, entry, doi))
	}
	return records
}

// referencesSection returns the text after the last references heading,
// or "" when no heading is present.
func referencesSection(text string) string {
	lower := strings.ToLower(text)
	idx := -1
	for _, heading := range []string{"references", "bibliography"} {
		if i := strings.LastIndex(lower, heading); i > idx {
			idx = i + len(heading)
		}
	}
	if idx < 0 {
		return ""
	}
	return text[idx:]
}

// splitEntries groups section lines into entries, starting a new entry at
// each numbered marker. Lines without a marker continue the current entry
// (PDF text extraction wraps entries across lines).
func splitEntries(section string) []string {
	var entries []string
	var current strings.Builder

	flush := func() {
		entry := strings.TrimSpace(current.String())
		current.Reset()
		// Fragments shorter than a plausible citation are layout noise.
		if len(entry) >= 20 {
			entries = append(entries, entry)
		}
	}

	for _, line := range strings.Split(section, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if entryStart.MatchString(line) {
			flush()
			current.WriteString(entryStart.ReplaceAllString(line, ""))
			continue
		}
		if current.Len() > 0 {
			current.WriteString(" ")
			current.WriteString(line)
		}
	}
	flush()
	return entries
}

// FindDOI returns the first valid DOI in text, or "".
func FindDOI(text string) string {
	for _, match := range doiPattern.FindAllString(text, -1) {
		match = strings.TrimRight(match, ".,;:)")
		if isValidDOI(match) {
			return match
		}
	}
	return ""
}

func isValidDOI(doi string) bool {
	if len(doi) < 10 {
		return false
	}
	if !strings.HasPrefix(doi, "10.") {
		return false
	}
	slash := strings.Index(doi, "/")
	return slash != -1 && slash < len(doi)-1
}
