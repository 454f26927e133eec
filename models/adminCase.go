package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/mmdatafocus/lostfound_backend/config"
	"github.com/mmdatafocus/lostfound_backend/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AdminCase struct {
	ID         int        `gorm:"primary_key" json:"id"`
	MatchId    int        `gorm:"index;not null" json:"match_id"`
	Reason     string     `gorm:"type:text;not null" json:"reason"`
	Status     CaseStatus `gorm:"size:50;index;default:pending" json:"status"`
	Resolution string     `gorm:"type:text" json:"resolution,omitempty"`
	ResolvedBy *int       `json:"resolved_by,omitempty"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
	CreatedAt  time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// CreateAdminCase opens an escalation for a match. It runs on the caller's
// transaction so the case and the match status flip commit together.
func CreateAdminCase(tx *gorm.DB, matchId int, reason string) error {
	c := AdminCase{
		MatchId: matchId,
		Reason:  reason,
		Status:  CaseStatusPending,
	}
	return tx.Create(&c).Error
}

// AdminCaseInfo is the review queue entry: the case joined with enough match
// and report context for an admin to decide without extra lookups.
type AdminCaseInfo struct {
	ID        int        `json:"id"`
	MatchId   int        `json:"match_id"`
	Reason    string     `json:"reason"`
	Status    CaseStatus `json:"status"`
	CreatedAt time.Time  `json:"created_at"`

	MatchScore           float64     `json:"match_score"`
	MatchStatus          MatchStatus `json:"match_status"`
	VerificationAttempts int         `json:"verification_attempts"`

	LostItemName   string `json:"lost_item_name"`
	LostUserId     int    `json:"lost_user_id"`
	LostDetail     string `json:"lost_detail"`
	FoundItemName  string `json:"found_item_name"`
	FoundUserId    int    `json:"found_user_id"`
	SecretQuestion string `json:"secret_question"`
}

// GetPendingAdminCases lists unresolved escalations, oldest first.
func GetPendingAdminCases(ctx context.Context) ([]*AdminCaseInfo, error) {
	if isAdmin, _ := utils.GetIsAdminFromContext(ctx); !isAdmin {
		return nil, utils.ErrorForbidden
	}

	db := config.GetDB()
	var cases []*AdminCaseInfo
	err := db.WithContext(ctx).Raw(
		`SELECT ac.id, ac.match_id, ac.reason, ac.status, ac.created_at,
		        m.match_score, m.status AS match_status, m.verification_attempts,
		        li.item_name AS lost_item_name, li.user_id AS lost_user_id,
		        li.secret_detail AS lost_detail,
		        fi.item_name AS found_item_name, fi.user_id AS found_user_id,
		        fi.secret_question AS secret_question
		 FROM admin_cases ac
		 JOIN matches m ON ac.match_id = m.id
		 JOIN lost_items li ON m.lost_item_id = li.id
		 JOIN found_items fi ON m.found_item_id = fi.id
		 WHERE ac.status = ?
		 ORDER BY ac.created_at ASC`,
		CaseStatusPending,
	).Scan(&cases).Error
	if err != nil {
		return nil, err
	}
	return cases, nil
}

type ResolveCaseInput struct {
	Resolution string `json:"resolution" binding:"required"`
	Verified   bool   `json:"verified"`
}

// ResolveAdminCase closes an escalation. A verified resolution behaves like a
// successful verification (match verified, both reports closed); a rejection
// only marks the match rejected, leaving the reports for re-matching by hand.
func ResolveAdminCase(ctx context.Context, caseId int, input *ResolveCaseInput) (*AdminCase, error) {

	if isAdmin, _ := utils.GetIsAdminFromContext(ctx); !isAdmin {
		return nil, utils.ErrorForbidden
	}
	adminId, ok := utils.GetUserIdFromContext(ctx)
	if !ok {
		return nil, errors.New("user id is required")
	}
	if strings.TrimSpace(input.Resolution) == "" {
		return nil, utils.ErrorValidation
	}

	db := config.GetDB()

	var resolved AdminCase
	var notifyUserIds []int
	var matchRef int

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {

		var c AdminCase
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&c, caseId).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return utils.ErrorRecordNotFound
			}
			return err
		}
		if c.Status != CaseStatusPending {
			return utils.ErrorValidation
		}

		var match Match
		if err := tx.First(&match, c.MatchId).Error; err != nil {
			return err
		}

		newMatchStatus := MatchStatusRejected
		if input.Verified {
			newMatchStatus = MatchStatusVerified
		}

		now := time.Now().UTC()
		matchUpdates := map[string]interface{}{"status": newMatchStatus}
		if input.Verified {
			matchUpdates["verified_at"] = now
		}
		if err := tx.Model(&Match{}).Where("id = ?", match.ID).
			Updates(matchUpdates).Error; err != nil {
			return err
		}

		if input.Verified {
			if err := tx.Model(&LostItem{}).Where("id = ?", match.LostItemId).
				Update("status", ItemStatusClosed).Error; err != nil {
				return err
			}
			if err := tx.Model(&FoundItem{}).Where("id = ?", match.FoundItemId).
				Update("status", ItemStatusClosed).Error; err != nil {
				return err
			}
		}

		if err := tx.Model(&AdminCase{}).Where("id = ?", c.ID).
			Updates(map[string]interface{}{
				"status":      CaseStatusResolved,
				"resolution":  input.Resolution,
				"resolved_by": adminId,
				"resolved_at": now,
			}).Error; err != nil {
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
		notifyUserIds = []int{lost.UserId, found.UserId}
		matchRef = match.ID

		resolved = c
		resolved.Status = CaseStatusResolved
		resolved.Resolution = input.Resolution
		resolved.ResolvedBy = &adminId
		resolved.ResolvedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}

	outcome := "rejected"
	if input.Verified {
		outcome = "verified"
	}
	for _, uid := range notifyUserIds {
		notifyQuietly(ctx, uid, NotificationTypeAdminResolved,
			"Admin Review Complete",
			"An administrator reviewed your disputed match. Outcome: "+outcome+". "+input.Resolution,
			&matchRef)
	}

	return &resolved, nil
}
