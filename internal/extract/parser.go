package extract

import (
	"regexp"
	"strings"
)

// minLineLen is the shortest pasted line treated as a citation.
const minLineLen = 5

var (
	numberPrefix = regexp.MustCompile(`^[\[\(]?\d+[\]\)]?[.,:]?\s*`)
	quotedTitle  = regexp.MustCompile(`[“"]([^”"]+)[”"]`)
)

// ParseLines converts pasted text into authors/title pairs, one per
// non-empty line. Lines too short to be citations are skipped.
func ParseLines(text string) [][2]string {
	var out [][2]string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if len(line) < minLineLen {
			continue
		}
		authors, title := ParseLine(line)
		out = append(out, [2]string{authors, title})
	}
	return out
}

// ParseLine splits one citation line into a best-effort authors string and
// title. When no structure is recognizable the cleaned line itself becomes
// the title and authors is empty.
func ParseLine(line string) (authors, title string) {
	cleaned := strings.TrimSpace(numberPrefix.ReplaceAllString(line, ""))

	// A quoted span is almost always the title; everything before it is
	// the author list.
	if m := quotedTitle.FindStringSubmatchIndex(cleaned); m != nil {
		title = trimCitation(cleaned[m[2]:m[3]])
		authors = trimCitation(cleaned[:m[0]])
		return authors, title
	}

	// "Authors. Title. Venue..." — first sentence authors, second title.
	parts := strings.SplitN(cleaned, ". ", 3)
	if len(parts) >= 2 && looksLikeAuthors(parts[0]) {
		return trimCitation(parts[0]), trimCitation(parts[1])
	}

	return "", trimCitation(cleaned)
}

// trimCitation strips the trailing punctuation left over from splitting.
func trimCitation(s string) string {
	return strings.TrimRight(strings.TrimSpace(s), ".,;")
}

// looksLikeAuthors reports whether a sentence reads like an author list:
// short, comma- or "and"-separated, no digits.
func looksLikeAuthors(s string) bool {
	if len(s) > 120 || strings.ContainsAny(s, "0123456789") {
		return false
	}
	return strings.Contains(s, ",") || strings.Contains(s, " and ") ||
		strings.Contains(s, "&") || len(strings.Fields(s)) <= 4
}
