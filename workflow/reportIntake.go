package workflow

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/mmdatafocus/lostfound_backend/config"
	"github.com/mmdatafocus/lostfound_backend/models"
	"github.com/mmdatafocus/lostfound_backend/utils"
)

// matchScanTimeout bounds the background scan a report submission kicks off.
const matchScanTimeout = 2 * time.Minute

// backgroundScanContext builds a fresh context for the post-commit match scan.
// The request context dies with the HTTP response, so the scan carries its own
// lifetime plus the identity and a new correlation id for log stitching.
func backgroundScanContext(ctx context.Context) (context.Context, context.CancelFunc) {
	scanCtx := context.Background()
	if userId, ok := utils.GetUserIdFromContext(ctx); ok {
		scanCtx = utils.SetUserIdInContext(scanCtx, userId)
	}
	scanCtx = utils.SetCorrelationIdInContext(scanCtx, uuid.NewString())
	return context.WithTimeout(scanCtx, matchScanTimeout)
}

// SubmitLostReport files a lost report and kicks off matching in the
// background. The report is durable before the scan starts; a crashed scan
// loses nothing, the report stays pending for the next scan.
func SubmitLostReport(ctx context.Context, input *models.NewLostItem) (*models.LostItem, error) {
	item, err := models.CreateLostItem(ctx, input)
	if err != nil {
		return nil, err
	}

	scanCtx, cancel := backgroundScanContext(ctx)
	go func() {
		defer cancel()
		AutoMatchLostItem(scanCtx, item.ID)
	}()

	return item, nil
}

// FoundReportResult tells the caller whether their submission created a new
// report or was folded into an existing one.
type FoundReportResult struct {
	Item       *models.FoundItem `json:"item"`
	Duplicate  bool              `json:"duplicate"`
	MergedInto *int              `json:"merged_into,omitempty"`
}

// SubmitFoundReport files a found report. A submission that duplicates a
// recent report in the same category is merged into it instead of creating a
// second row; merge bookkeeping failures fall back to normal creation so the
// report is never dropped.
func SubmitFoundReport(ctx context.Context, input *models.NewFoundItem) (*FoundReportResult, error) {
	logger := config.GetLogger()

	if original := CheckForDuplicates(ctx, config.GetMatchingConfig(), input); original != nil {
		reporterId, _ := utils.GetUserIdFromContext(ctx)
		if err := models.MergeDuplicateReport(ctx, original.ID, reporterId); err != nil {
			config.LogError(logger, "workflow", "SubmitFoundReport", "merge duplicate", original.ID, err)
		} else {
			merged, err := models.GetFoundItemById(ctx, original.ID)
			if err != nil {
				return nil, err
			}
			originalId := original.ID
			return &FoundReportResult{Item: merged, Duplicate: true, MergedInto: &originalId}, nil
		}
	}

	item, err := models.CreateFoundItem(ctx, input)
	if err != nil {
		return nil, err
	}

	scanCtx, cancel := backgroundScanContext(ctx)
	go func() {
		defer cancel()
		AutoMatchFoundItem(scanCtx, item.ID)
	}()

	return &FoundReportResult{Item: item}, nil
}
