package models

import (
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/rentora/backoffice/internal/idempotency"
)

// BookingMetricDaily counts bookings per property/unit per calendar day.
type BookingMetricDaily struct {
	ID                uint           `gorm:"primaryKey" json:"id"`
	PropertyID        uuid.UUID      `gorm:"type:uuid;not null" json:"property_id"`
	UnitID            uuid.UUID      `gorm:"type:uuid;not null" json:"unit_id"`
	Date              datatypes.Date `gorm:"not null" json:"date"`
	TotalBookings     int            `gorm:"not null;default:0" json:"total_bookings"`
	ConfirmedBookings int            `gorm:"not null;default:0" json:"confirmed_bookings"`
	CancelledBookings int            `gorm:"not null;default:0" json:"cancelled_bookings"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

// VacancyMetricMonthly tracks occupied days per property/unit per month.
// AvailableDays is fixed at 30, matching the accounting proration basis.
type VacancyMetricMonthly struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	PropertyID    uuid.UUID `gorm:"type:uuid;not null" json:"property_id"`
	UnitID        uuid.UUID `gorm:"type:uuid;not null" json:"unit_id"`
	Year          int       `gorm:"not null" json:"year"`
	Month         int       `gorm:"not null" json:"month"`
	OccupiedDays  int       `gorm:"not null;default:0" json:"occupied_days"`
	AvailableDays int       `gorm:"not null;default:30" json:"available_days"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func Migrate(db *gorm.DB) {
	if err := db.AutoMigrate(&BookingMetricDaily{}, &VacancyMetricMonthly{}, &idempotency.ProcessedMessage{}); err != nil {
		log.Fatalf("failed to auto-migrate: %v", err)
	}

	db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_booking_metric_key
		ON booking_metric_dailies (property_id, unit_id, date)
	`)
	db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_vacancy_metric_key
		ON vacancy_metric_monthlies (property_id, unit_id, year, month)
	`)
}
