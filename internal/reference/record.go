// Package reference defines the citation record under verification and its
// status state machine.
package reference

import "github.com/lidianycs/cerca/internal/match"

// Sentinel values used when extraction could not determine a field.
const (
	UnknownTitle   = "Unknown Title"
	UnknownAuthors = "Unknown Authors"
)

// Record is one citation under verification. The PDF-side fields hold what
// was extracted from the manuscript; the DB-side fields hold the best
// candidate any source has produced so far.
//
// A Record is a plain mutable entity owned by the orchestrator for the
// duration of a batch. It is not safe for concurrent mutation; all writes
// during a batch come from the single verification worker, and observers
// are notified through the OnChange subscription list.
type Record struct {
	ID          int    `json:"id"`
	RawText     string `json:"raw_text"`
	PDFTitle    string `json:"pdf_title"`
	PDFAuthors  string `json:"pdf_authors"` // semicolon-joined display string
	DetectedDOI string `json:"detected_doi,omitempty"`

	DBTitle    string `json:"db_title"`
	DBAuthors  string `json:"db_authors"`
	MatchScore int    `json:"match_score"`
	Status     Status `json:"status"`
	Verified   bool   `json:"verified"`

	listeners []func(*Record)
}

// New creates a WAITING record. Empty authors or title fall back to the
// "Unknown Authors" / "Unknown Title" sentinels.
func New(id int, authors, title, rawText, doi string) *Record {
	if authors == "" {
		authors = UnknownAuthors
	}
	if title == "" {
		title = UnknownTitle
	}
	return &Record{
		ID:          id,
		RawText:     rawText,
		PDFTitle:    title,
		PDFAuthors:  authors,
		DetectedDOI: doi,
		Status:      StatusWaiting,
	}
}

// OnChange registers a listener invoked after every mutation that goes
// through one of the Set methods.
func (r *Record) OnChange(fn func(*Record)) {
	r.listeners = append(r.listeners, fn)
}

func (r *Record) notify() {
	for _, fn := range r.listeners {
		fn(r)
	}
}

// HasStructuredTitle reports whether extraction produced a usable title.
// When it did not, comparisons fall back to the raw citation text.
func (r *Record) HasStructuredTitle() bool {
	return r.PDFTitle != "" && r.PDFTitle != UnknownTitle
}

// SetStatus sets the status directly. Used by the orchestrator for the
// SEARCHING transition; terminal states are derived from the score.
func (r *Record) SetStatus(s Status) {
	r.Status = s
	r.notify()
}

// SetCandidate writes a source's best candidate onto the record. The
// status is recomputed from the score, and a score above the pass
// threshold marks the record verified. Callers only invoke this for
// candidates that cleared the display threshold, so an earlier, better
// match is never overwritten by a later weak one.
func (r *Record) SetCandidate(title, authors string, score int) {
	r.DBTitle = title
	r.DBAuthors = authors
	r.MatchScore = score
	r.Status = StatusFromScore(score)
	if score > match.PassThreshold {
		r.Verified = true
	}
	r.notify()
}

// SetVerified toggles the verified flag. Checking forces PASS regardless
// of score; unchecking recomputes the status from the stored score. This
// is also how the orchestrator settles the final state after a cascade,
// and how a user override is applied afterwards.
func (r *Record) SetVerified(v bool) {
	r.Verified = v
	if v {
		r.Status = StatusPass
	} else {
		r.Status = StatusFromScore(r.MatchScore)
	}
	r.notify()
}

// MarkNotFound puts the record into the terminal exhausted state: no
// source produced a usable candidate. The record is flagged verified so it
// does not show up as actionable, which also keeps it out of the
// diagnostic report's needs-review bucket.
func (r *Record) MarkNotFound() {
	r.Status = StatusNotFound
	r.MatchScore = 0
	r.Verified = true
	r.notify()
}
