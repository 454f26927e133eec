package workflow

import (
	"testing"
	"time"

	"github.com/mmdatafocus/lostfound_backend/models"
)

func TestDateSimilarity_Ladder(t *testing.T) {
	base := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	cases := []struct {
		days int
		want float64
	}{
		{0, 1.0},
		{1, 0.8},
		{2, 0.6},
		{3, 0.4},
		{4, 0},
		{10, 0},
	}
	for _, c := range cases {
		if got := dateSimilarity(base, base.AddDate(0, 0, c.days)); !almostEqual(got, c.want) {
			t.Fatalf("%d days apart: expected %v, got %v", c.days, c.want, got)
		}
		// Symmetry.
		if got := dateSimilarity(base.AddDate(0, 0, c.days), base); !almostEqual(got, c.want) {
			t.Fatalf("%d days apart (reversed): expected %v, got %v", c.days, c.want, got)
		}
	}
}

func TestTimeSimilarity_Ladder(t *testing.T) {
	cases := []struct {
		a, b string
		want float64
	}{
		{"14:00", "14:30", 1.0},
		{"14:00", "15:00", 1.0},
		{"14:00", "15:30", 0.7},
		{"14:00", "17:00", 0.5},
		{"14:00", "19:30", 0.3},
		{"08:00", "20:00", 0},
	}
	for _, c := range cases {
		if got := timeSimilarity(c.a, c.b); !almostEqual(got, c.want) {
			t.Fatalf("timeSimilarity(%q, %q): expected %v, got %v", c.a, c.b, c.want, got)
		}
	}
}

func dupTestPair() (*models.NewFoundItem, *models.FoundItem) {
	date := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	input := &models.NewFoundItem{
		ItemName:    "silver house key",
		Category:    "keys",
		Description: "single silver house key on a red keyring",
		Location:    "science building entrance",
		DateFound:   date,
		TimeFound:   "14:00",
	}
	existing := &models.FoundItem{
		ID:          7,
		ItemName:    "silver house key",
		Category:    "keys",
		Description: "single silver house key on a red keyring",
		Location:    "science building entrance",
		DateFound:   date,
		TimeFound:   "14:30",
	}
	return input, existing
}

func TestCalculateItemSimilarity_IdenticalReports(t *testing.T) {
	input, existing := dupTestPair()
	got := calculateItemSimilarity(input, existing)
	if !almostEqual(got, 1) {
		t.Fatalf("identical reports half an hour apart: expected 1, got %v", got)
	}
}

func TestCalculateItemSimilarity_AboveThreshold(t *testing.T) {
	input, existing := dupTestPair()
	// Same item reported a day later, slightly reworded.
	existing.Description = "silver house key with red keyring"
	existing.DateFound = input.DateFound.AddDate(0, 0, 1)

	got := calculateItemSimilarity(input, existing)
	if got < 0.85 {
		t.Fatalf("near-identical reports should clear the duplicate threshold, got %v", got)
	}
}

func TestCalculateItemSimilarity_MissingTimeRenormalizes(t *testing.T) {
	input, existing := dupTestPair()
	existing.TimeFound = ""

	got := calculateItemSimilarity(input, existing)
	// Every remaining component is perfect, so dropping the time weight must
	// still yield 1 after renormalization.
	if !almostEqual(got, 1) {
		t.Fatalf("expected 1 after weight renormalization, got %v", got)
	}
}

func TestFindDuplicate_FirstMatchWins(t *testing.T) {
	cfg := testMatchingConfig()
	input, newest := dupTestPair()
	older := *newest
	older.ID = 3

	// Both clear the threshold; the scan must stop at the first (newest)
	// candidate rather than looking for the best.
	got := findDuplicate(cfg, input, []*models.FoundItem{newest, &older})
	if got == nil || got.ID != newest.ID {
		t.Fatalf("expected first candidate %d, got %+v", newest.ID, got)
	}
}

func TestFindDuplicate_ThresholdFromConfig(t *testing.T) {
	cfg := testMatchingConfig()
	cfg.DuplicateScoreThreshold = 1.1
	input, existing := dupTestPair()

	if got := findDuplicate(cfg, input, []*models.FoundItem{existing}); got != nil {
		t.Fatalf("an unreachable threshold must yield no duplicate, got %+v", got)
	}
}

func TestCalculateItemSimilarity_DifferentItems(t *testing.T) {
	input, existing := dupTestPair()
	existing.ItemName = "blue umbrella"
	existing.Description = "large blue golf umbrella"
	existing.Location = "cafeteria"

	got := calculateItemSimilarity(input, existing)
	if got >= 0.85 {
		t.Fatalf("unrelated reports must not merge, got %v", got)
	}
}
