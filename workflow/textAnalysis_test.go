package workflow

import (
	"math"
	"testing"
	"time"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestTextSimilarity_IdenticalAndEmpty(t *testing.T) {
	if got := TextSimilarity("iPhone 13", "iphone 13"); got != 1 {
		t.Fatalf("case-insensitive identical strings: expected 1, got %v", got)
	}
	if got := TextSimilarity("  wallet  ", "wallet"); got != 1 {
		t.Fatalf("whitespace should be trimmed: expected 1, got %v", got)
	}
	if got := TextSimilarity("", "wallet"); got != 0 {
		t.Fatalf("empty input: expected 0, got %v", got)
	}
	if got := TextSimilarity("", ""); got != 0 {
		t.Fatalf("both empty: expected 0, got %v", got)
	}
}

func TestTextSimilarity_EditDistance(t *testing.T) {
	// "cat" vs "bat": distance 1, maxLen 3.
	if got := TextSimilarity("cat", "bat"); !almostEqual(got, 1-1.0/3.0) {
		t.Fatalf("expected %v, got %v", 1-1.0/3.0, got)
	}
	// Completely different strings of same length score 0.
	if got := TextSimilarity("abc", "xyz"); got != 0 {
		t.Fatalf("disjoint strings: expected 0, got %v", got)
	}
}

func TestTextSimilarity_Range(t *testing.T) {
	pairs := [][2]string{
		{"black leather wallet", "brown wallet"},
		{"a", "abcdefghij"},
		{"samsung galaxy s21", "samsung galaxy"},
	}
	for _, p := range pairs {
		got := TextSimilarity(p[0], p[1])
		if got < 0 || got > 1 {
			t.Fatalf("TextSimilarity(%q, %q) = %v out of [0,1]", p[0], p[1], got)
		}
	}
}

func TestKeywordOverlap(t *testing.T) {
	// Tokens: {black, leather, wallet} vs {black, wallet}: 2/3.
	got := KeywordOverlap("black leather wallet", "black wallet")
	if !almostEqual(got, 2.0/3.0) {
		t.Fatalf("expected 2/3, got %v", got)
	}

	if got := KeywordOverlap("red bag", "blue phone"); got != 0 {
		t.Fatalf("no shared tokens: expected 0, got %v", got)
	}
	if got := KeywordOverlap("wallet", "wallet"); got != 1 {
		t.Fatalf("identical single token: expected 1, got %v", got)
	}
}

func TestKeywordOverlap_StopWordsAndShortTokens(t *testing.T) {
	// "the", "at" and single/double letter tokens contribute nothing.
	got := KeywordOverlap("the wallet at", "wallet")
	if got != 1 {
		t.Fatalf("stop words should be ignored: expected 1, got %v", got)
	}
	if got := KeywordOverlap("a an at", "of to in"); got != 0 {
		t.Fatalf("only droppable tokens: expected 0, got %v", got)
	}
}

func TestSemanticSimilarity_Blend(t *testing.T) {
	a, b := "black leather wallet", "black wallet"
	want := 0.4*TextSimilarity(a, b) + 0.6*KeywordOverlap(a, b)
	if got := SemanticSimilarity(a, b); !almostEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestTemporalProximity(t *testing.T) {
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	if got := TemporalProximity(base, base); got != 1 {
		t.Fatalf("same instant: expected 1, got %v", got)
	}
	// 3.5 days apart: 1 - 3.5/7 = 0.5.
	if got := TemporalProximity(base, base.Add(84*time.Hour)); !almostEqual(got, 0.5) {
		t.Fatalf("3.5 days: expected 0.5, got %v", got)
	}
	// Order must not matter.
	if got := TemporalProximity(base.Add(84*time.Hour), base); !almostEqual(got, 0.5) {
		t.Fatalf("symmetric: expected 0.5, got %v", got)
	}
	// Beyond the window.
	if got := TemporalProximity(base, base.AddDate(0, 0, 8)); got != 0 {
		t.Fatalf("8 days: expected 0, got %v", got)
	}
	// Exactly at the window edge.
	if got := TemporalProximity(base, base.AddDate(0, 0, 7)); got != 0 {
		t.Fatalf("7 days: expected 0, got %v", got)
	}
}

func TestSpatialProximity(t *testing.T) {
	if got := SpatialProximity("Central Library", "central library "); got != 1 {
		t.Fatalf("exact match after folding: expected 1, got %v", got)
	}
	if got := SpatialProximity("", "anywhere"); got != 0 {
		t.Fatalf("empty location: expected 0, got %v", got)
	}
	got := SpatialProximity("main street bus stop", "bus stop on main street")
	if got <= 0 || got > 1 {
		t.Fatalf("related locations should score in (0,1]: got %v", got)
	}
}
