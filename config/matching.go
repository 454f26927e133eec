package config

import (
	"os"
	"strconv"
	"strings"
	"sync"
)

// MatchingConfig holds every threshold the scoring and duplicate-detection
// code consumes. It is loaded once from the environment and passed in
// explicitly; the scoring code has no ambient globals.
type MatchingConfig struct {
	// ImageSimilarityThreshold and TextSimilarityThreshold are recognized for
	// forward compatibility; the current formulas do not gate on them.
	ImageSimilarityThreshold float64
	TextSimilarityThreshold  float64

	// MatchScoreThreshold is the minimum aggregate score for a match.
	MatchScoreThreshold float64

	// DuplicateScoreThreshold is the minimum composite similarity for a new
	// found report to be merged into an earlier one.
	DuplicateScoreThreshold float64

	// DuplicateLookbackDays bounds how far back the duplicate scan looks.
	DuplicateLookbackDays int
}

var (
	matchingCfg     *MatchingConfig
	matchingCfgOnce sync.Once
)

// GetMatchingConfig returns the process-wide matching configuration.
func GetMatchingConfig() *MatchingConfig {
	matchingCfgOnce.Do(func() {
		matchingCfg = &MatchingConfig{
			ImageSimilarityThreshold: floatFromEnv("IMAGE_SIMILARITY_THRESHOLD", 0.75),
			TextSimilarityThreshold:  floatFromEnv("TEXT_SIMILARITY_THRESHOLD", 0.60),
			MatchScoreThreshold:      floatFromEnv("MATCH_SCORE_THRESHOLD", 0.70),
			DuplicateScoreThreshold:  0.85,
			DuplicateLookbackDays:    7,
		}
	})
	return matchingCfg
}

func floatFromEnv(key string, def float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}
