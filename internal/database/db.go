package database

import (
	"log"

	"solicitudes/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// NewConnection initializes a new connection pool using GORM
func NewConnection(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	// Auto-migrate core models
	err = db.AutoMigrate(
		&model.User{},
		&model.RefreshToken{},
		&model.Request{},
		&model.Participant{},
		&model.Attachment{},
		&model.HistoryEntry{},
	)
	if err != nil {
		log.Println("WARNING: Failed to auto-migrate models:", err)
	}

	// A restart orphans any transition that was awaiting confirmation; clear
	// the flags so those requests accept transitions again.
	if err := db.Model(&model.Request{}).
		Where("locked = ?", true).
		Update("locked", false).Error; err != nil {
		log.Println("WARNING: Failed to clear stale request locks:", err)
	}

	return db, nil
}
