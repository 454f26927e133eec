package workflow

import (
	"strings"

	"github.com/mmdatafocus/lostfound_backend/config"
	"github.com/mmdatafocus/lostfound_backend/models"
)

// Component weights of the aggregate match score. They sum to 1.
const (
	weightName        = 0.25
	weightImage       = 0.30
	weightDescription = 0.25
	weightCategory    = 0.10
	weightTemporal    = 0.05
	weightSpatial     = 0.05
)

// Minimum name similarity before any other component is considered.
const nameScoreGate = 0.4

// Gate reject reasons.
const (
	RejectCategoryMismatch = "category mismatch"
	RejectNameTooDifferent = "name too different"
)

// ScoreBreakdown carries the per-component scores behind a match decision,
// mostly for logging and the match audit columns. RejectReason is set only
// when a hard gate fired.
type ScoreBreakdown struct {
	Name        float64 `json:"name"`
	Image       float64 `json:"image"`
	Description float64 `json:"description"`
	Category    float64 `json:"category"`
	Temporal    float64 `json:"temporal"`
	Spatial     float64 `json:"spatial"`
	Total       float64 `json:"total"`

	RejectReason string `json:"reject_reason,omitempty"`
}

// CalculateMatchScore scores one lost/found pair. Two hard gates apply before
// any weighting: differing categories and weak name similarity both yield a
// zero, non-matching breakdown.
func CalculateMatchScore(cfg *config.MatchingConfig, lost *models.LostItem, found *models.FoundItem) (ScoreBreakdown, bool) {
	var b ScoreBreakdown

	if !strings.EqualFold(strings.TrimSpace(lost.Category), strings.TrimSpace(found.Category)) {
		b.RejectReason = RejectCategoryMismatch
		return b, false
	}
	b.Category = 1

	b.Name = SemanticSimilarity(lost.ItemName, found.ItemName)
	if b.Name < nameScoreGate {
		return ScoreBreakdown{RejectReason: RejectNameTooDifferent}, false
	}

	b.Description = SemanticSimilarity(lost.Description, found.Description)
	b.Temporal = TemporalProximity(lost.DateLost, found.DateFound)
	b.Spatial = SpatialProximity(lost.Location, found.Location)

	// A missing embedding on either side, or a dimension mismatch, degrades
	// the image component to zero rather than failing the pair.
	imageScore, err := CosineSimilarity(lost.Embedding(), found.Embedding())
	if err != nil {
		config.LogError(config.GetLogger(), "workflow", "CalculateMatchScore", "image similarity", map[string]int{
			"lostItemId": lost.ID, "foundItemId": found.ID,
		}, err)
		imageScore = 0
	}
	b.Image = imageScore

	b.Total = weightName*b.Name +
		weightImage*b.Image +
		weightDescription*b.Description +
		weightCategory*b.Category +
		weightTemporal*b.Temporal +
		weightSpatial*b.Spatial
	if b.Total > 1 {
		b.Total = 1
	}

	return b, b.Total >= cfg.MatchScoreThreshold
}
