package models

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/mmdatafocus/lostfound_backend/config"
	"github.com/mmdatafocus/lostfound_backend/utils"
	"gorm.io/gorm"
)

type LostItem struct {
	ID            int        `gorm:"primary_key" json:"id"`
	UserId        int        `gorm:"index;not null" json:"user_id"`
	ItemName      string     `gorm:"size:255;not null" json:"item_name" binding:"required"`
	Category      string     `gorm:"size:100;index;not null" json:"category" binding:"required"`
	Description   string     `gorm:"type:text;not null" json:"description" binding:"required"`
	Location      string     `gorm:"size:255;not null" json:"location" binding:"required"`
	DateLost      time.Time  `gorm:"not null" json:"date_lost" binding:"required"`
	TimeLost      string     `gorm:"size:5" json:"time_lost"`
	ImageUrl      string     `gorm:"type:text" json:"image_url"`
	ImageFeatures string     `gorm:"type:longtext" json:"-"`
	SecretDetail  string     `gorm:"type:text;not null" json:"-"`
	Status        ItemStatus `gorm:"size:50;index;default:pending" json:"status"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewLostItem struct {
	ItemName     string    `json:"item_name" binding:"required"`
	Category     string    `json:"category" binding:"required"`
	Description  string    `json:"description" binding:"required"`
	Location     string    `json:"location" binding:"required"`
	DateLost     time.Time `json:"date_lost" binding:"required"`
	TimeLost     string    `json:"time_lost"`
	SecretDetail string    `json:"secret_detail" binding:"required"`

	// Filled by the upload path, not the client.
	ImageUrl      string `json:"-"`
	ImageFeatures string `json:"-"`
}

// Embedding decodes the stored feature vector; nil when the feature extractor
// was unavailable at report time.
func (li LostItem) Embedding() []float64 {
	return decodeEmbedding(li.ImageFeatures)
}

func decodeEmbedding(s string) []float64 {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var v []float64
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil
	}
	return v
}

// EncodeEmbedding serializes a feature vector for storage; empty string when
// the vector is absent.
func EncodeEmbedding(v []float64) string {
	if len(v) == 0 {
		return ""
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}

func (input NewLostItem) validate() error {
	if strings.TrimSpace(input.ItemName) == "" ||
		strings.TrimSpace(input.Category) == "" ||
		strings.TrimSpace(input.Description) == "" ||
		strings.TrimSpace(input.Location) == "" ||
		strings.TrimSpace(input.SecretDetail) == "" ||
		input.DateLost.IsZero() {
		return utils.ErrorValidation
	}
	if err := validateTimeOfDay(input.TimeLost); err != nil {
		return err
	}
	return nil
}

func CreateLostItem(ctx context.Context, input *NewLostItem) (*LostItem, error) {

	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok {
		return nil, errors.New("user id is required")
	}

	if err := input.validate(); err != nil {
		return nil, err
	}

	item := LostItem{
		UserId:        userId,
		ItemName:      input.ItemName,
		Category:      input.Category,
		Description:   input.Description,
		Location:      input.Location,
		DateLost:      input.DateLost,
		TimeLost:      input.TimeLost,
		ImageUrl:      input.ImageUrl,
		ImageFeatures: input.ImageFeatures,
		SecretDetail:  input.SecretDetail,
		Status:        ItemStatusPending,
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

type ItemFilter struct {
	Category string
	Status   ItemStatus
	Search   string
}

func GetLostItems(ctx context.Context, filter ItemFilter) ([]*LostItem, error) {
	var items []*LostItem
	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Model(&LostItem{})
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

func GetLostItemById(ctx context.Context, id int) (*LostItem, error) {
	var item LostItem
	db := config.GetDB()
	if err := db.WithContext(ctx).First(&item, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &item, nil
}

// DeleteLostItem removes a report, but only for its owner.
func DeleteLostItem(ctx context.Context, id int) error {
	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok {
		return errors.New("user id is required")
	}

	db := config.GetDB()
	res := db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userId).Delete(&LostItem{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return utils.ErrorRecordNotFound
	}
	return nil
}

// GetPendingLostItemsByCategory returns the match-candidate pool for a new
// found report, oldest report first.
func GetPendingLostItemsByCategory(ctx context.Context, category string) ([]*LostItem, error) {
	var items []*LostItem
	db := config.GetDB()
	err := db.WithContext(ctx).
		Where("category = ? AND status = ?", category, ItemStatusPending).
		Order("id ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// validateTimeOfDay accepts "" or "HH:MM" (24h).
func validateTimeOfDay(s string) error {
	if s == "" {
		return nil
	}
	if _, err := time.Parse("15:04", s); err != nil {
		return utils.ErrorValidation
	}
	return nil
}
