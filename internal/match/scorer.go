// Package match combines title and author similarity into a single
// confidence score and defines the thresholds that govern how a score is
// interpreted downstream.
package match

import (
	"math"
	"strings"

	"github.com/lidianycs/cerca/internal/similarity"
)

const (
	// DisplayThreshold is the minimum composite score at which a candidate
	// is worth writing back onto a record at all.
	DisplayThreshold = 50

	// PassThreshold is the composite score above which (exclusive) a match
	// is considered confidently correct.
	PassThreshold = 75
)

// Score combines a title similarity and an author similarity, both in
// [0, 100], into a composite confidence score.
//
// When the author similarity falls below authorFloor, the result is the
// title similarity capped at 50: title phrasing collisions are common, and
// author agreement is the stronger corroborating signal, so a title-only
// match can never clear the display threshold on its own. Otherwise the
// result is a 60/40 weighted blend of title and author similarity.
func Score(titleSim, authorSim, authorFloor int) int {
	if authorSim < authorFloor {
		if titleSim < DisplayThreshold {
			return titleSim
		}
		return DisplayThreshold
	}
	return int(math.Round(0.6*float64(titleSim) + 0.4*float64(authorSim)))
}

// TitleScore compares a candidate title against the citation-side text.
// When the citation has a structured title, a full-string comparison is
// used. When falling back to the raw citation text, a partial (substring)
// comparison is used instead, since the raw text carries extra tokens
// (authors, venue, year) that a full-string comparison would unfairly
// penalize.
func TitleScore(candidateTitle, citationText string, rawFallback bool) int {
	a := strings.ToLower(candidateTitle)
	b := strings.ToLower(citationText)
	if rawFallback {
		return similarity.PartialRatio(a, b)
	}
	return similarity.Ratio(a, b)
}
