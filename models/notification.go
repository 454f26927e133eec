package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mmdatafocus/lostfound_backend/config"
	"github.com/mmdatafocus/lostfound_backend/utils"
)

type Notification struct {
	ID        int              `gorm:"primary_key" json:"id"`
	UserId    int              `gorm:"index;not null" json:"user_id"`
	Type      NotificationType `gorm:"size:50;not null" json:"type"`
	Title     string           `gorm:"size:255;not null" json:"title"`
	Message   string           `gorm:"type:text;not null" json:"message"`
	MatchId   *int             `json:"match_id,omitempty"`
	IsRead    bool             `gorm:"index;default:false" json:"is_read"`
	CreatedAt time.Time        `gorm:"autoCreateTime" json:"created_at"`
}

func notifUnreadKey(userId int) string {
	return fmt.Sprintf("notifUnread:%d", userId)
}

// CreateNotification inserts an in-app notification and fans it out to the
// pub/sub topic when one is configured. Callers treat the whole thing as
// best-effort; the triggering operation is already committed.
func CreateNotification(ctx context.Context, userId int, ntype NotificationType, title, message string, matchId *int) error {
	n := Notification{
		UserId:  userId,
		Type:    ntype,
		Title:   title,
		Message: message,
		MatchId: matchId,
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&n).Error; err != nil {
		return err
	}

	// The cached unread count is stale now.
	if err := config.RemoveRedisKey(notifUnreadKey(userId)); err != nil {
		config.LogError(config.GetLogger(), "models", "CreateNotification", "invalidate unread cache", userId, err)
	}

	if config.PubSubEnabled() {
		correlationId, _ := utils.GetCorrelationIdFromContext(ctx)
		event := &config.NotificationEvent{
			UserId:        userId,
			Type:          string(ntype),
			Title:         title,
			Message:       message,
			MatchId:       matchId,
			CorrelationId: correlationId,
			CreatedAt:     n.CreatedAt,
		}
		if err := config.PublishNotificationEvent(ctx, event); err != nil {
			config.LogError(config.GetLogger(), "models", "CreateNotification", "publish event", userId, err)
		}
	}
	return nil
}

// NotifyMatchFound is the best-effort match announcement used by the matching
// workflow after a match commits.
func NotifyMatchFound(ctx context.Context, matchId, userId int, title, message string) {
	matchRef := matchId
	if err := CreateNotification(ctx, userId, NotificationTypeMatchFound, title, message, &matchRef); err != nil {
		config.LogError(config.GetLogger(), "models", "NotifyMatchFound", "create notification", userId, err)
	}
}

func GetNotifications(ctx context.Context, unreadOnly bool) ([]*Notification, error) {
	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok {
		return nil, errors.New("user id is required")
	}

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Where("user_id = ?", userId)
	if unreadOnly {
		dbCtx = dbCtx.Where("is_read = ?", false)
	}

	var notifications []*Notification
	if err := dbCtx.Order("created_at DESC").Find(&notifications).Error; err != nil {
		return nil, err
	}
	return notifications, nil
}

func MarkNotificationAsRead(ctx context.Context, id int) error {
	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok {
		return errors.New("user id is required")
	}

	db := config.GetDB()
	res := db.WithContext(ctx).Model(&Notification{}).
		Where("id = ? AND user_id = ?", id, userId).
		Update("is_read", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return utils.ErrorRecordNotFound
	}
	_ = config.RemoveRedisKey(notifUnreadKey(userId))
	return nil
}

func MarkAllNotificationsAsRead(ctx context.Context) error {
	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok {
		return errors.New("user id is required")
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Model(&Notification{}).
		Where("user_id = ? AND is_read = ?", userId, false).
		Update("is_read", true).Error; err != nil {
		return err
	}
	_ = config.RemoveRedisKey(notifUnreadKey(userId))
	return nil
}

// GetUnreadNotificationCount serves the badge counter, cached for a minute.
func GetUnreadNotificationCount(ctx context.Context) (int64, error) {
	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok {
		return 0, errors.New("user id is required")
	}

	key := notifUnreadKey(userId)
	var cached int64
	if found, err := config.GetRedisObject(key, &cached); err == nil && found {
		return cached, nil
	}

	db := config.GetDB()
	var count int64
	if err := db.WithContext(ctx).Model(&Notification{}).
		Where("user_id = ? AND is_read = ?", userId, false).
		Count(&count).Error; err != nil {
		return 0, err
	}

	if err := config.SetRedisObject(key, count, time.Minute); err != nil {
		config.LogError(config.GetLogger(), "models", "GetUnreadNotificationCount", "cache count", userId, err)
	}
	return count, nil
}
