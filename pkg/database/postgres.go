package database

import (
	"fmt"

	"github.com/Eursukkul/consultation-booking/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// activeSlotIndex allows one pending or confirmed booking per origin slot.
// Concurrent inserts for the same slot are serialized here.
const activeSlotIndex = `
	CREATE UNIQUE INDEX IF NOT EXISTS idx_bookings_active_slot
	ON bookings (origin_date, origin_time)
	WHERE status IN ('pending', 'confirmed')
`

func NewPostgresDB(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.Booking{}, &models.Contact{}); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	if err := db.Exec(activeSlotIndex).Error; err != nil {
		return fmt.Errorf("create slot index: %w", err)
	}
	return nil
}
