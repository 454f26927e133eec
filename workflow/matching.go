package workflow

import (
	"context"
	"errors"
	"sort"

	"github.com/mmdatafocus/lostfound_backend/config"
	"github.com/mmdatafocus/lostfound_backend/models"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// scoredCandidate pairs a candidate report id with its score breakdown.
type scoredCandidate struct {
	id        int
	userId    int
	breakdown ScoreBreakdown
}

// sortCandidates orders best score first; equal scores break on the lower
// report id so concurrent scans pick the same winner.
func sortCandidates(cands []scoredCandidate) {
	sort.Slice(cands, func(i, j int) bool {
		if cands[i].breakdown.Total != cands[j].breakdown.Total {
			return cands[i].breakdown.Total > cands[j].breakdown.Total
		}
		return cands[i].id < cands[j].id
	})
}

// AutoMatchLostItem scans pending found reports for a newly filed lost report
// and records the best match above threshold. It is meant to run in the
// background after the report insert commits; all failures are logged, never
// surfaced to the reporter.
func AutoMatchLostItem(ctx context.Context, lostItemId int) {
	logger := config.GetLogger()
	cfg := config.GetMatchingConfig()

	lost, err := models.GetLostItemById(ctx, lostItemId)
	if err != nil {
		config.LogError(logger, "workflow", "AutoMatchLostItem", "load report", lostItemId, err)
		return
	}
	if lost.Status != models.ItemStatusPending {
		return
	}

	candidates, err := models.GetPendingFoundItemsByCategory(ctx, lost.Category)
	if err != nil {
		config.LogError(logger, "workflow", "AutoMatchLostItem", "candidate scan", lostItemId, err)
		return
	}

	scored := make([]scoredCandidate, 0, len(candidates))
	for _, found := range candidates {
		if breakdown, ok := CalculateMatchScore(cfg, lost, found); ok {
			scored = append(scored, scoredCandidate{id: found.ID, userId: found.UserId, breakdown: breakdown})
		}
	}
	if len(scored) == 0 {
		return
	}
	sortCandidates(scored)

	winner, match, err := claimBestMatch(ctx, lost.Category, scored, func(candidateId int) *models.Match {
		return &models.Match{LostItemId: lost.ID, FoundItemId: candidateId}
	}, func(tx *gorm.DB) error {
		return models.ClaimPendingLostItem(tx, lost.ID)
	}, models.ClaimPendingFoundItem)
	if err != nil {
		config.LogError(logger, "workflow", "AutoMatchLostItem", "claim match", lostItemId, err)
		return
	}
	if match == nil {
		return
	}

	logger.WithFields(logrus.Fields{
		"matchId":     match.ID,
		"lostItemId":  lost.ID,
		"foundItemId": winner.id,
		"score":       winner.breakdown.Total,
	}).Info("match recorded")

	notifyMatchParties(ctx, match.ID, lost.UserId, winner.userId)
}

// AutoMatchFoundItem is the mirror scan for a newly filed found report.
func AutoMatchFoundItem(ctx context.Context, foundItemId int) {
	logger := config.GetLogger()
	cfg := config.GetMatchingConfig()

	found, err := models.GetFoundItemById(ctx, foundItemId)
	if err != nil {
		config.LogError(logger, "workflow", "AutoMatchFoundItem", "load report", foundItemId, err)
		return
	}
	if found.Status != models.ItemStatusPending || found.IsMerged {
		return
	}

	candidates, err := models.GetPendingLostItemsByCategory(ctx, found.Category)
	if err != nil {
		config.LogError(logger, "workflow", "AutoMatchFoundItem", "candidate scan", foundItemId, err)
		return
	}

	scored := make([]scoredCandidate, 0, len(candidates))
	for _, lost := range candidates {
		if breakdown, ok := CalculateMatchScore(cfg, lost, found); ok {
			scored = append(scored, scoredCandidate{id: lost.ID, userId: lost.UserId, breakdown: breakdown})
		}
	}
	if len(scored) == 0 {
		return
	}
	sortCandidates(scored)

	winner, match, err := claimBestMatch(ctx, found.Category, scored, func(candidateId int) *models.Match {
		return &models.Match{LostItemId: candidateId, FoundItemId: found.ID}
	}, func(tx *gorm.DB) error {
		return models.ClaimPendingFoundItem(tx, found.ID)
	}, models.ClaimPendingLostItem)
	if err != nil {
		config.LogError(logger, "workflow", "AutoMatchFoundItem", "claim match", foundItemId, err)
		return
	}
	if match == nil {
		return
	}

	logger.WithFields(logrus.Fields{
		"matchId":     match.ID,
		"lostItemId":  winner.id,
		"foundItemId": found.ID,
		"score":       winner.breakdown.Total,
	}).Info("match recorded")

	notifyMatchParties(ctx, match.ID, winner.userId, found.UserId)
}

// claimBestMatch runs the claim protocol: one transaction under the category
// advisory lock, a CAS claim of the new report, then CAS claims of candidates
// best-first until one sticks. A lost race on the new report means another
// scan already consumed it; that is a clean no-op, not an error.
//
// claimCandidate must target the opposite table from claimSelf. Lost and
// found ids come from independent sequences and can collide numerically, so
// the candidate's table is never inferable from the id alone.
func claimBestMatch(
	ctx context.Context,
	category string,
	scored []scoredCandidate,
	buildMatch func(candidateId int) *models.Match,
	claimSelf func(tx *gorm.DB) error,
	claimCandidate func(tx *gorm.DB, id int) error,
) (scoredCandidate, *models.Match, error) {

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return scoredCandidate{}, nil, tx.Error
	}
	defer func() {
		if r := recover(); r != nil {
			ReleaseMatchScanLock(tx, category)
			tx.Rollback()
			panic(r)
		}
	}()

	if err := AcquireMatchScanLock(tx, category); err != nil {
		tx.Rollback()
		return scoredCandidate{}, nil, err
	}

	if err := claimSelf(tx); err != nil {
		ReleaseMatchScanLock(tx, category)
		tx.Rollback()
		if errors.Is(err, models.ErrReportConsumed) {
			return scoredCandidate{}, nil, nil
		}
		return scoredCandidate{}, nil, err
	}

	winner, claimed, err := claimFirstAvailable(scored, func(id int) error {
		return claimCandidate(tx, id)
	})
	if err != nil {
		ReleaseMatchScanLock(tx, category)
		tx.Rollback()
		return scoredCandidate{}, nil, err
	}
	if !claimed {
		// Every candidate was consumed while we scored. Leave the new report
		// pending for the next scan.
		ReleaseMatchScanLock(tx, category)
		tx.Rollback()
		return scoredCandidate{}, nil, nil
	}

	match := buildMatch(winner.id)
	match.MatchScore = winner.breakdown.Total
	match.ImageSimilarity = winner.breakdown.Image
	match.TextSimilarity = winner.breakdown.Name
	if err := models.InsertMatch(tx, match); err != nil {
		ReleaseMatchScanLock(tx, category)
		tx.Rollback()
		return scoredCandidate{}, nil, err
	}

	// Advisory locks are not transactional; release before commit on the same
	// connection.
	ReleaseMatchScanLock(tx, category)
	if err := tx.Commit().Error; err != nil {
		return scoredCandidate{}, nil, err
	}
	return winner, match, nil
}

// claimFirstAvailable walks the sorted candidates and claims the first one
// still pending. A consumed candidate moves the walk to the next entry; any
// other claim error aborts.
func claimFirstAvailable(scored []scoredCandidate, claim func(id int) error) (scoredCandidate, bool, error) {
	for _, cand := range scored {
		if err := claim(cand.id); err != nil {
			if errors.Is(err, models.ErrReportConsumed) {
				continue
			}
			return scoredCandidate{}, false, err
		}
		return cand, true, nil
	}
	return scoredCandidate{}, false, nil
}

func notifyMatchParties(ctx context.Context, matchId, lostUserId, foundUserId int) {
	models.NotifyMatchFound(ctx, matchId, lostUserId,
		"Potential Match Found",
		"We found an item that may be yours. Answer the finder's secret question to verify ownership.")
	models.NotifyMatchFound(ctx, matchId, foundUserId,
		"Potential Match Found",
		"An item you reported found may belong to someone. They will verify ownership through your secret question.")
}
