// Package sources implements the metadata source adapters used by the
// verification cascade. Each adapter builds a query from a citation record,
// calls one external HTTP/JSON endpoint, extracts the top-ranked candidate,
// and scores it against the record through the shared apply path. The
// adapters differ only in endpoint shape, authentication, and retry policy.
package sources

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/lidianycs/cerca/internal/match"
	"github.com/lidianycs/cerca/internal/reference"
	"github.com/lidianycs/cerca/internal/similarity"
)

// DefaultTimeout bounds each HTTP round trip. There is no end-to-end
// deadline per record; a hung call is cut off by the client timeout only.
const DefaultTimeout = 10 * time.Second

// maxQueryLen bounds free-text queries built from raw citation text.
const maxQueryLen = 200

// minQueryLen is the shortest query worth sending to any source.
const minQueryLen = 5

// UnknownCandidate is the sentinel title for a candidate with no title field.
const UnknownCandidate = "Unknown"

// Source is one metadata source in the verification cascade.
//
// Verify mutates the record only when the computed composite score clears
// the display threshold, and reports whether such a candidate was found.
// Failures (network, parse, auth, exhausted retries) never propagate past
// the adapter as a panic; they come back as a diagnostic error alongside
// found=false so the cascade can continue.
type Source interface {
	Name() string
	Verify(ctx context.Context, rec *reference.Record) (bool, error)
}

// Conditional is implemented by sources that are only worth querying for
// some records. The orchestrator skips a conditional source when Eligible
// returns false.
type Conditional interface {
	Eligible(rec *reference.Record) bool
}

// candidate is the metadata a source extracted from its top-ranked result.
type candidate struct {
	Title      string
	Authors    string // joined with "; "
	Identifier string // DOI or URL, when the source provides one
}

// queryTerm returns the free-text query for a record: the structured title
// when extraction found one, otherwise the raw citation text truncated to a
// bounded length. The second return reports whether the raw fallback was
// taken, which switches title scoring to partial matching.
func queryTerm(rec *reference.Record) (string, bool) {
	if rec.HasStructuredTitle() && len(rec.PDFTitle) >= minQueryLen {
		return rec.PDFTitle, false
	}
	raw := rec.RawText
	if len(raw) > maxQueryLen {
		raw = raw[:maxQueryLen]
	}
	return raw, true
}

// cleanQuery strips punctuation that confuses search endpoints, leaving
// letters, digits and single spaces.
func cleanQuery(s string) string {
	var sb strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			sb.WriteRune(r)
		default:
			sb.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(sb.String()), " ")
}

// doiLike reports whether a detected identifier is worth an exact lookup.
func doiLike(id string) bool {
	return strings.Contains(id, "10.")
}

// apply scores a candidate against the record and writes it back when the
// composite score clears the display threshold. Returns whether the
// candidate was usable. authorFloor is the adapter's canonical floor below
// which author similarity stops corroborating the title.
func apply(log zerolog.Logger, source string, rec *reference.Record, cand candidate, authorFloor int) bool {
	title := cand.Title
	if title == "" {
		title = UnknownCandidate
	}

	rawFallback := !rec.HasStructuredTitle()
	citationText := rec.PDFTitle
	if rawFallback {
		citationText = rec.RawText
	}

	titleScore := match.TitleScore(title, citationText, rawFallback)
	authorScore := similarity.TokenSortRatio(cand.Authors, rec.PDFAuthors)
	score := match.Score(titleScore, authorScore, authorFloor)

	if score <= match.DisplayThreshold {
		log.Debug().
			Str("source", source).
			Int("record", rec.ID).
			Int("score", score).
			Str("candidate", title).
			Msg("candidate below display threshold")
		return false
	}

	rec.SetCandidate(title, cand.Authors, score)
	log.Info().
		Str("source", source).
		Int("record", rec.ID).
		Int("score", score).
		Str("candidate", title).
		Str("identifier", cand.Identifier).
		Msg("match found")
	return true
}
