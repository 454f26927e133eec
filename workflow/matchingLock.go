package workflow

import (
	"fmt"

	"gorm.io/gorm"
)

// AcquireMatchScanLock serializes match scans per category across instances
// using MySQL advisory locks. GET_LOCK is connection-scoped, so this must be
// called on the same *gorm.DB transaction that claims the reports.
func AcquireMatchScanLock(tx *gorm.DB, category string) error {
	lockName := fmt.Sprintf("matchscan:%s", category)
	var ok int
	if err := tx.Raw("SELECT GET_LOCK(?, 30)", lockName).Scan(&ok).Error; err != nil {
		return err
	}
	if ok != 1 {
		return fmt.Errorf("could not acquire match scan lock for category=%s", category)
	}
	return nil
}

func ReleaseMatchScanLock(tx *gorm.DB, category string) {
	lockName := fmt.Sprintf("matchscan:%s", category)
	var _ok int
	_ = tx.Raw("SELECT RELEASE_LOCK(?)", lockName).Scan(&_ok).Error
}
