package models

import (
	"github.com/mmdatafocus/lostfound_backend/config"
)

func MigrateTable() error {
	db := config.GetDB()
	return db.AutoMigrate(
		&User{},
		&LostItem{},
		&FoundItem{},
		&Match{},
		&AdminCase{},
		&Notification{},
	)
}
