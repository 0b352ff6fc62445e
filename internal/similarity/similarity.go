// Package similarity provides normalized string-similarity primitives used
// to compare citation metadata against candidate records from bibliographic
// databases. All functions return an integer score in [0, 100] and perform
// no I/O.
package similarity

import (
	"sort"
	"strings"
	"unicode"
)

// Ratio returns the full-string similarity of a and b as a percentage,
// based on normalized Levenshtein edit distance. Identical strings score
// 100; completely disjoint strings score 0.
func Ratio(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 && len(rb) == 0 {
		return 100
	}
	if len(ra) == 0 || len(rb) == 0 {
		return 0
	}

	dist := levenshtein(ra, rb)
	maxLen := len(ra)
	if len(rb) > maxLen {
		maxLen = len(rb)
	}

	return roundPercent(1.0 - float64(dist)/float64(maxLen))
}

// PartialRatio returns the best Ratio of the shorter string against any
// equal-length window of the longer string. It is the right comparison when
// one side contains extra tokens (e.g. a full citation line compared to a
// bare title): a clean substring match scores 100 even though the
// surrounding text differs.
func PartialRatio(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 && len(rb) == 0 {
		return 100
	}
	if len(ra) == 0 || len(rb) == 0 {
		return 0
	}

	shorter, longer := ra, rb
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}

	best := 0
	for i := 0; i+len(shorter) <= len(longer); i++ {
		window := longer[i : i+len(shorter)]
		dist := levenshtein(shorter, window)
		score := roundPercent(1.0 - float64(dist)/float64(len(shorter)))
		if score > best {
			best = score
		}
		if best == 100 {
			break
		}
	}
	return best
}

// TokenSortRatio tokenizes both strings, lowercases and strips punctuation,
// sorts the tokens, and compares the rejoined strings with Ratio. The result
// is insensitive to token order, so "Smith, John; Doe, Jane" and
// "Jane Doe; John Smith" compare as equal.
func TokenSortRatio(a, b string) int {
	return Ratio(normalizeTokens(a), normalizeTokens(b))
}

// normalizeTokens lowercases s, replaces non-alphanumeric runes with
// spaces, and returns the sorted tokens joined by single spaces.
func normalizeTokens(s string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(r)
		} else {
			sb.WriteRune(' ')
		}
	}

	tokens := strings.Fields(sb.String())
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}

// levenshtein computes the edit distance between two rune slices using two
// rolling rows, O(len(s1)*len(s2)) time and O(len(s2)) space.
func levenshtein(s1, s2 []rune) int {
	if len(s1) == 0 {
		return len(s2)
	}
	if len(s2) == 0 {
		return len(s1)
	}

	prev := make([]int, len(s2)+1)
	curr := make([]int, len(s2)+1)

	for j := 0; j <= len(s2); j++ {
		prev[j] = j
	}

	for i := 1; i <= len(s1); i++ {
		curr[0] = i
		for j := 1; j <= len(s2); j++ {
			cost := 1
			if s1[i-1] == s2[j-1] {
				cost = 0
			}
			curr[j] = min3(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}

	return prev[len(s2)]
}

func min3(a, b, c int) int {
	m := a
	if b < m {
		m = b
	}
	if c < m {
		m = c
	}
	return m
}

func roundPercent(f float64) int {
	p := int(f*100 + 0.5)
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
