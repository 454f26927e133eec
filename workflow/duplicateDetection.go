package workflow

import (
	"context"
	"math"
	"time"

	"github.com/mmdatafocus/lostfound_backend/config"
	"github.com/mmdatafocus/lostfound_backend/models"
)

// Composite weights for duplicate detection. When either report lacks a
// time-of-day the time weight is dropped and the remainder renormalized.
const (
	dupWeightName        = 0.35
	dupWeightLocation    = 0.30
	dupWeightDescription = 0.20
	dupWeightDate        = 0.10
	dupWeightTime        = 0.05
)

// dateSimilarity is a step ladder over days between the two sightings.
func dateSimilarity(a, b time.Time) float64 {
	diffDays := math.Abs(a.Sub(b).Hours()) / 24
	switch {
	case diffDays == 0:
		return 1.0
	case diffDays <= 1:
		return 0.8
	case diffDays <= 2:
		return 0.6
	case diffDays <= 3:
		return 0.4
	default:
		return 0
	}
}

// timeSimilarity is a step ladder over the gap between two "HH:MM" times of
// day. Unparseable input counts as absent and is handled by the caller.
func timeSimilarity(a, b string) float64 {
	ta, errA := time.Parse("15:04", a)
	tb, errB := time.Parse("15:04", b)
	if errA != nil || errB != nil {
		return 0
	}
	diff := math.Abs(ta.Sub(tb).Hours())
	switch {
	case diff <= 1:
		return 1.0
	case diff <= 2:
		return 0.7
	case diff <= 4:
		return 0.5
	case diff <= 6:
		return 0.3
	default:
		return 0
	}
}

// calculateItemSimilarity computes the composite similarity between a new
// found submission and an existing found report.
func calculateItemSimilarity(input *models.NewFoundItem, existing *models.FoundItem) float64 {
	nameScore := TextSimilarity(input.ItemName, existing.ItemName)
	locationScore := TextSimilarity(input.Location, existing.Location)
	descScore := KeywordOverlap(input.Description, existing.Description)
	dateScore := dateSimilarity(input.DateFound, existing.DateFound)

	total := dupWeightName*nameScore +
		dupWeightLocation*locationScore +
		dupWeightDescription*descScore +
		dupWeightDate*dateScore
	usedWeight := dupWeightName + dupWeightLocation + dupWeightDescription + dupWeightDate

	if input.TimeFound != "" && existing.TimeFound != "" {
		total += dupWeightTime * timeSimilarity(input.TimeFound, existing.TimeFound)
		usedWeight += dupWeightTime
	}

	return total / usedWeight
}

// findDuplicate applies the first-match policy: candidates arrive newest
// first and the scan stops at the first one clearing the threshold, not the
// best one.
func findDuplicate(cfg *config.MatchingConfig, input *models.NewFoundItem, candidates []*models.FoundItem) *models.FoundItem {
	for _, candidate := range candidates {
		if calculateItemSimilarity(input, candidate) >= cfg.DuplicateScoreThreshold {
			return candidate
		}
	}
	return nil
}

// CheckForDuplicates scans recent found reports in the same category and
// returns the first one the new submission duplicates, newest first. Any
// lookup error is logged and swallowed; duplicate detection must never block
// a report from being filed.
func CheckForDuplicates(ctx context.Context, cfg *config.MatchingConfig, input *models.NewFoundItem) *models.FoundItem {
	since := time.Now().UTC().AddDate(0, 0, -cfg.DuplicateLookbackDays)

	candidates, err := models.GetDuplicateCandidates(ctx, input.Category, since)
	if err != nil {
		config.LogError(config.GetLogger(), "workflow", "CheckForDuplicates", "candidate scan", input.Category, err)
		return nil
	}

	duplicate := findDuplicate(cfg, input, candidates)
	if duplicate != nil {
		config.GetLogger().WithField("foundItemId", duplicate.ID).
			WithField("score", calculateItemSimilarity(input, duplicate)).
			Info("duplicate found report detected")
	}
	return duplicate
}
