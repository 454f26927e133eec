package workflow

import (
	"math"
	"strings"
	"time"
	"unicode"

	"github.com/agnivade/levenshtein"
)

// Similarity helpers shared by match scoring and duplicate detection. All of
// them return values in [0, 1] and are pure functions of their inputs.

// TextSimilarity is normalized edit distance: 1 - levenshtein/maxLen over the
// lowercased, trimmed inputs. Empty input on either side scores 0.
func TextSimilarity(a, b string) float64 {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}
	maxLen := len([]rune(a))
	if l := len([]rune(b)); l > maxLen {
		maxLen = l
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1 - float64(dist)/float64(maxLen)
}

var stopWords = map[string]bool{
	"the": true, "and": true, "for": true, "with": true, "was": true,
	"has": true, "had": true, "its": true, "this": true, "that": true,
	"near": true, "from": true, "have": true, "are": true, "but": true,
	"not": true, "can": true, "all": true, "one": true, "two": true,
}

// tokenize lowercases, splits on non-alphanumerics and drops stop words and
// tokens shorter than 3 characters.
func tokenize(s string) map[string]bool {
	tokens := map[string]bool{}
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, f := range fields {
		if len(f) <= 2 || stopWords[f] {
			continue
		}
		tokens[f] = true
	}
	return tokens
}

// KeywordOverlap is Jaccard similarity over the token sets of both inputs.
func KeywordOverlap(a, b string) float64 {
	ta := tokenize(a)
	tb := tokenize(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}
	intersection := 0
	for tok := range ta {
		if tb[tok] {
			intersection++
		}
	}
	union := len(ta) + len(tb) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// SemanticSimilarity blends edit distance with keyword overlap. The keyword
// side dominates so reworded descriptions of the same item still score high.
func SemanticSimilarity(a, b string) float64 {
	return 0.4*TextSimilarity(a, b) + 0.6*KeywordOverlap(a, b)
}

const temporalWindowDays = 7.0

// TemporalProximity decays linearly from 1 at zero distance to 0 at seven
// days, and stays 0 beyond the window.
func TemporalProximity(a, b time.Time) float64 {
	diffDays := math.Abs(a.Sub(b).Hours()) / 24
	if diffDays > temporalWindowDays {
		return 0
	}
	return 1 - diffDays/temporalWindowDays
}

// SpatialProximity compares free-text locations by edit distance. There is
// no geocoding; "Main Library" vs "main library " still scores 1.
func SpatialProximity(a, b string) float64 {
	return TextSimilarity(a, b)
}
