package models

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/mmdatafocus/lostfound_backend/config"
	"github.com/mmdatafocus/lostfound_backend/utils"
	"gorm.io/gorm"
)

type FoundItem struct {
	ID               int        `gorm:"primary_key" json:"id"`
	UserId           int        `gorm:"index;not null" json:"user_id"`
	ItemName         string     `gorm:"size:255;not null" json:"item_name" binding:"required"`
	Category         string     `gorm:"size:100;index;not null" json:"category" binding:"required"`
	Description      string     `gorm:"type:text;not null" json:"description" binding:"required"`
	Location         string     `gorm:"size:255;not null" json:"location" binding:"required"`
	DateFound        time.Time  `gorm:"not null" json:"date_found" binding:"required"`
	TimeFound        string     `gorm:"size:5" json:"time_found"`
	ImageUrl         string     `gorm:"type:text" json:"image_url"`
	ImageFeatures    string     `gorm:"type:longtext" json:"-"`
	SecretQuestion   string     `gorm:"type:text;not null" json:"secret_question"`
	SecretAnswerHash string     `gorm:"type:text;not null" json:"-"`
	WhereToFind      string     `gorm:"type:text;not null" json:"-"`
	Status           ItemStatus `gorm:"size:50;index;default:pending" json:"status"`

	// Duplicate bookkeeping. A merged report is excluded from all future
	// matching and duplicate scans; MergedWithId is a back-reference only.
	IsMerged           bool   `gorm:"index;default:false" json:"is_merged"`
	MergedWithId       *int   `json:"merged_with_id,omitempty"`
	DuplicateCount     int    `gorm:"default:1" json:"duplicate_count"`
	DuplicateReporters string `gorm:"type:text" json:"-"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewFoundItem struct {
	ItemName       string    `json:"item_name" binding:"required"`
	Category       string    `json:"category" binding:"required"`
	Description    string    `json:"description" binding:"required"`
	Location       string    `json:"location" binding:"required"`
	DateFound      time.Time `json:"date_found" binding:"required"`
	TimeFound      string    `json:"time_found"`
	SecretQuestion string    `json:"secret_question" binding:"required"`
	SecretAnswer   string    `json:"secret_answer" binding:"required"`
	WhereToFind    string    `json:"where_to_find" binding:"required"`

	// Filled by the upload path, not the client.
	ImageUrl      string `json:"-"`
	ImageFeatures string `json:"-"`
}

func (fi FoundItem) Embedding() []float64 {
	return decodeEmbedding(fi.ImageFeatures)
}

func (input NewFoundItem) validate() error {
	if strings.TrimSpace(input.ItemName) == "" ||
		strings.TrimSpace(input.Category) == "" ||
		strings.TrimSpace(input.Description) == "" ||
		strings.TrimSpace(input.Location) == "" ||
		strings.TrimSpace(input.SecretQuestion) == "" ||
		strings.TrimSpace(input.SecretAnswer) == "" ||
		strings.TrimSpace(input.WhereToFind) == "" ||
		input.DateFound.IsZero() {
		return utils.ErrorValidation
	}
	if err := validateTimeOfDay(input.TimeFound); err != nil {
		return err
	}
	return nil
}

func CreateFoundItem(ctx context.Context, input *NewFoundItem) (*FoundItem, error) {

	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok {
		return nil, errors.New("user id is required")
	}

	if err := input.validate(); err != nil {
		return nil, err
	}

	hash, err := utils.HashSecretAnswer(input.SecretAnswer)
	if err != nil {
		return nil, err
	}

	item := FoundItem{
		UserId:           userId,
		ItemName:         input.ItemName,
		Category:         input.Category,
		Description:      input.Description,
		Location:         input.Location,
		DateFound:        input.DateFound,
		TimeFound:        input.TimeFound,
		ImageUrl:         input.ImageUrl,
		ImageFeatures:    input.ImageFeatures,
		SecretQuestion:   input.SecretQuestion,
		SecretAnswerHash: string(hash),
		WhereToFind:      input.WhereToFind,
		Status:           ItemStatusPending,
		DuplicateCount:   1,
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func GetFoundItems(ctx context.Context, filter ItemFilter) ([]*FoundItem, error) {
	var items []*FoundItem
	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Model(&FoundItem{})
	if filter.Category != "" {
		dbCtx = dbCtx.Where("category = ?", filter.Category)
	}
	if filter.Status != "" {
		dbCtx = dbCtx.Where("status = ?", filter.Status)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		dbCtx = dbCtx.Where("item_name LIKE ? OR description LIKE ?", like, like)
	}
	if err := dbCtx.Order("created_at DESC").Limit(config.SearchLimit).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func GetFoundItemById(ctx context.Context, id int) (*FoundItem, error) {
	var item FoundItem
	db := config.GetDB()
	if err := db.WithContext(ctx).First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &item, nil
}

func DeleteFoundItem(ctx context.Context, id int) error {
	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok {
		return errors.New("user id is required")
	}

	db := config.GetDB()
	res := db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userId).Delete(&FoundItem{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return utils.ErrorRecordNotFound
	}
	return nil
}

// GetPendingFoundItemsByCategory returns the match-candidate pool for a new
// lost report. Merged reports never participate in matching.
func GetPendingFoundItemsByCategory(ctx context.Context, category string) ([]*FoundItem, error) {
	var items []*FoundItem
	db := config.GetDB()
	err := db.WithContext(ctx).
		Where("category = ? AND status = ? AND is_merged = ?", category, ItemStatusPending, false).
		Order("id ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// GetDuplicateCandidates returns the duplicate-scan pool: same category, not
// closed, not already merged, found within the lookback window, newest first.
func GetDuplicateCandidates(ctx context.Context, category string, since time.Time) ([]*FoundItem, error) {
	var items []*FoundItem
	db := config.GetDB()
	err := db.WithContext(ctx).
		Where("category = ?", category).
		Where("status <> ?", ItemStatusClosed).
		Where("is_merged = ?", false).
		Where("date_found >= ?", since).
		Order("created_at DESC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// MergeDuplicateReport folds a new submission into originalId as a single
// atomic statement: bump the counter and append the reporter id to the JSON
// list. The reporter list intentionally allows repeats when the same finder
// reports twice.
func MergeDuplicateReport(ctx context.Context, originalId int, reporterUserId int) error {
	db := config.GetDB()
	res := db.WithContext(ctx).Exec(
		`UPDATE found_items
		 SET duplicate_count = duplicate_count + 1,
		     duplicate_reporters = JSON_ARRAY_APPEND(IF(duplicate_reporters IS NULL OR duplicate_reporters = '', '[]', duplicate_reporters), '$', ?)
		 WHERE id = ? AND is_merged = false`,
		reporterUserId, originalId,
	)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return utils.ErrorRecordNotFound
	}
	return nil
}
