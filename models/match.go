package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mmdatafocus/lostfound_backend/config"
	"github.com/mmdatafocus/lostfound_backend/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrReportConsumed signals a lost CAS race: the report was pending when the
// candidate scan read it but is no longer pending at claim time.
var ErrReportConsumed = errors.New("report is no longer pending")

type Match struct {
	ID          int `gorm:"primary_key" json:"id"`
	LostItemId  int `gorm:"index;not null" json:"lost_item_id"`
	FoundItemId int `gorm:"index;not null" json:"found_item_id"`

	// Aggregate score plus the audited component scores.
	MatchScore      float64 `gorm:"type:decimal(5,4);not null" json:"match_score"`
	ImageSimilarity float64 `gorm:"type:decimal(5,4)" json:"image_similarity"`
	TextSimilarity  float64 `gorm:"type:decimal(5,4)" json:"text_similarity"`

	Status               MatchStatus `gorm:"size:50;index;default:matched" json:"status"`
	VerificationAttempts int         `gorm:"default:0" json:"verification_attempts"`
	VerifiedAt           *time.Time  `json:"verified_at,omitempty"`
	CreatedAt            time.Time   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt            time.Time   `gorm:"autoUpdateTime" json:"updated_at"`
}

// ClaimPendingLostItem flips a lost report pending -> matched with a
// conditional update. Both claims and the match insert must share one
// transaction so no intermediate state is observable.
func ClaimPendingLostItem(tx *gorm.DB, id int) error {
	res := tx.Model(&LostItem{}).
		Where("id = ? AND status = ?", id, ItemStatusPending).
		Update("status", ItemStatusMatched)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrReportConsumed
	}
	return nil
}

func ClaimPendingFoundItem(tx *gorm.DB, id int) error {
	res := tx.Model(&FoundItem{}).
		Where("id = ? AND status = ?", id, ItemStatusPending).
		Update("status", ItemStatusMatched)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrReportConsumed
	}
	return nil
}

func InsertMatch(tx *gorm.DB, m *Match) error {
	m.Status = MatchStatusMatched
	return tx.Create(m).Error
}

// VerificationResult is the user-facing outcome of one answer attempt.
type VerificationResult struct {
	Verified          bool   `json:"verified"`
	AttemptsRemaining int    `json:"attempts_remaining"`
	Message           string `json:"message"`
}

// VerifyMatch processes one ownership-verification attempt. The attempt
// counter increment, the comparison bookkeeping and any state transition run
// in one transaction under a row lock, so concurrent attempts serialize and
// the counter can never pass MaxVerificationAttempts.
func VerifyMatch(ctx context.Context, matchId int, answer string) (*VerificationResult, error) {

	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok {
		return nil, errors.New("user id is required")
	}
	if answer == "" {
		return nil, utils.ErrorValidation
	}

	db := config.GetDB()

	var result *VerificationResult
	var verifiedLostUserId, verifiedFoundUserId int

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {

		var match Match
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&match, matchId).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return utils.ErrorRecordNotFound
			}
			return err
		}

		var lost LostItem
		if err := tx.First(&lost, match.LostItemId).Error; err != nil {
			return err
		}
		var found FoundItem
		if err := tx.First(&found, match.FoundItemId).Error; err != nil {
			return err
		}

		if lost.UserId != userId && found.UserId != userId {
			return utils.ErrorForbidden
		}

		// No further attempts once escalated or exhausted.
		if match.VerificationAttempts >= MaxVerificationAttempts || match.Status == MatchStatusAdminReview {
			return utils.ErrorAttemptsExhausted
		}
		if match.Status != MatchStatusMatched {
			return utils.ErrorValidation
		}

		correct := utils.CompareSecretAnswer(found.SecretAnswerHash, answer) == nil

		// The increment happens regardless of outcome, inside this same
		// transaction as the comparison bookkeeping.
		attempts := match.VerificationAttempts + 1
		if err := tx.Model(&Match{}).Where("id = ?", match.ID).
			Update("verification_attempts", attempts).Error; err != nil {
			return err
		}

		if correct {
			now := time.Now().UTC()
			if err := tx.Model(&Match{}).Where("id = ?", match.ID).
				Updates(map[string]interface{}{
					"status":      MatchStatusVerified,
					"verified_at": now,
				}).Error; err != nil {
				return err
			}
			if err := tx.Model(&LostItem{}).Where("id = ?", match.LostItemId).
				Update("status", ItemStatusClosed).Error; err != nil {
				return err
			}
			if err := tx.Model(&FoundItem{}).Where("id = ?", match.FoundItemId).
				Update("status", ItemStatusClosed).Error; err != nil {
				return err
			}
			verifiedLostUserId = lost.UserId
			verifiedFoundUserId = found.UserId
			result = &VerificationResult{
				Verified:          true,
				AttemptsRemaining: MaxVerificationAttempts - attempts,
				Message:           "Ownership verified! Both parties will be notified.",
			}
			return nil
		}

		remaining := MaxVerificationAttempts - attempts
		if remaining <= 0 {
			if err := CreateAdminCase(tx, match.ID, "Maximum verification attempts (3) exceeded"); err != nil {
				return err
			}
			if err := tx.Model(&Match{}).Where("id = ?", match.ID).
				Update("status", MatchStatusAdminReview).Error; err != nil {
				return err
			}
			result = &VerificationResult{
				Verified:          false,
				AttemptsRemaining: 0,
				Message:           "Maximum verification attempts (3) exceeded. This case has been escalated to admin review.",
			}
			return nil
		}

		plural := "s"
		if remaining == 1 {
			plural = ""
		}
		result = &VerificationResult{
			Verified:          false,
			AttemptsRemaining: remaining,
			Message:           fmt.Sprintf("Incorrect answer. You have %d attempt%s remaining.", remaining, plural),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Notifications are best-effort and must not affect the verification
	// outcome that is already committed.
	if result.Verified {
		matchRef := matchId
		notifyQuietly(ctx, verifiedLostUserId, NotificationTypeOwnershipVerified,
			"Ownership Verified", "Your ownership claim was verified. Pickup details are now available.", &matchRef)
		notifyQuietly(ctx, verifiedFoundUserId, NotificationTypeOwnershipVerified,
			"Ownership Verified", "The owner of the item you found has been verified.", &matchRef)
	}

	return result, nil
}

// MatchInfo is the per-user view of a match. Secret and pickup fields are
// filtered by side: the lost-report owner sees the finder's secret question,
// and the pickup location only after the match is verified.
type MatchInfo struct {
	ID                   int         `json:"id"`
	MatchScore           float64     `json:"match_score"`
	Status               MatchStatus `json:"status"`
	MatchedAt            time.Time   `json:"matched_at"`
	VerificationAttempts int         `json:"verification_attempts"`

	YourItem    MatchSideInfo `json:"your_item"`
	MatchedItem MatchSideInfo `json:"matched_item"`

	RequiresVerification bool   `json:"requires_verification"`
	SecretQuestion       string `json:"secret_question,omitempty"`
	WhereToFind          string `json:"where_to_find,omitempty"`
}

type MatchSideInfo struct {
	Type     string `json:"type"`
	ItemName string `json:"item_name"`
	Category string `json:"category"`
	ImageUrl string `json:"image_url,omitempty"`
}

type matchRow struct {
	ID                   int
	MatchScore           float64
	Status               MatchStatus
	VerificationAttempts int
	CreatedAt            time.Time

	LostItemName  string
	LostCategory  string
	LostImageUrl  string
	LostUserId    int
	FoundItemName string
	FoundCategory string
	FoundImageUrl string
	FoundUserId   int
	SecretQ       string
	WhereToFind   string
}

// GetMatchesForUser lists every match the user is party to, newest first.
func GetMatchesForUser(ctx context.Context) ([]*MatchInfo, error) {

	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok {
		return nil, errors.New("user id is required")
	}

	db := config.GetDB()
	var rows []matchRow
	err := db.WithContext(ctx).Raw(
		`SELECT m.id, m.match_score, m.status, m.verification_attempts, m.created_at,
		        li.item_name AS lost_item_name, li.category AS lost_category,
		        li.image_url AS lost_image_url, li.user_id AS lost_user_id,
		        fi.item_name AS found_item_name, fi.category AS found_category,
		        fi.image_url AS found_image_url, fi.user_id AS found_user_id,
		        fi.secret_question AS secret_q, fi.where_to_find AS where_to_find
		 FROM matches m
		 JOIN lost_items li ON m.lost_item_id = li.id
		 JOIN found_items fi ON m.found_item_id = fi.id
		 WHERE li.user_id = ? OR fi.user_id = ?
		 ORDER BY m.created_at DESC`,
		userId, userId,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	infos := make([]*MatchInfo, 0, len(rows))
	for _, r := range rows {
		isLostReporter := r.LostUserId == userId

		lostSide := MatchSideInfo{Type: "lost", ItemName: r.LostItemName, Category: r.LostCategory, ImageUrl: r.LostImageUrl}
		foundSide := MatchSideInfo{Type: "found", ItemName: r.FoundItemName, Category: r.FoundCategory, ImageUrl: r.FoundImageUrl}

		info := &MatchInfo{
			ID:                   r.ID,
			MatchScore:           r.MatchScore,
			Status:               r.Status,
			MatchedAt:            r.CreatedAt,
			VerificationAttempts: r.VerificationAttempts,
			RequiresVerification: r.Status == MatchStatusMatched,
		}
		if isLostReporter {
			info.YourItem = lostSide
			info.MatchedItem = foundSide
			info.SecretQuestion = r.SecretQ
			// Pickup details stay withheld until ownership is verified.
			if r.Status == MatchStatusVerified {
				info.WhereToFind = r.WhereToFind
			}
		} else {
			info.YourItem = foundSide
			info.MatchedItem = lostSide
		}
		infos = append(infos, info)
	}
	return infos, nil
}

// GetMatchById returns a match only to one of its parties.
func GetMatchById(ctx context.Context, matchId int) (*Match, error) {

	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok {
		return nil, errors.New("user id is required")
	}

	db := config.GetDB()
	var match Match
	if err := db.WithContext(ctx).First(&match, matchId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}

	var lost LostItem
	if err := db.WithContext(ctx).First(&lost, match.LostItemId).Error; err != nil {
		return nil, err
	}
	var found FoundItem
	if err := db.WithContext(ctx).First(&found, match.FoundItemId).Error; err != nil {
		return nil, err
	}
	if lost.UserId != userId && found.UserId != userId {
		return nil, utils.ErrorForbidden
	}
	return &match, nil
}

func notifyQuietly(ctx context.Context, userId int, ntype NotificationType, title, message string, matchId *int) {
	if err := CreateNotification(ctx, userId, ntype, title, message, matchId); err != nil {
		config.LogError(config.GetLogger(), "models", "notifyQuietly", "create notification", userId, err)
	}
}
