package models

import (
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type BookingStatus string

const (
	StatusPending   BookingStatus = "pending"
	StatusConfirmed BookingStatus = "confirmed"
	StatusCancelled BookingStatus = "cancelled"
	StatusCompleted BookingStatus = "completed"
)

type Booking struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	TenantUserID uuid.UUID      `gorm:"type:uuid;not null;index" json:"tenant_user_id"`
	PropertyID   uuid.UUID      `gorm:"type:uuid;not null" json:"property_id"`
	UnitID       *uuid.UUID     `gorm:"type:uuid" json:"unit_id,omitempty"`
	StartDate    datatypes.Date `gorm:"not null" json:"start_date"`
	EndDate      datatypes.Date `gorm:"not null" json:"end_date"`
	Status       BookingStatus  `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	Notes        string         `json:"notes,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (b *Booking) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

type LogEventType string

const (
	LogEventCreated      LogEventType = "created"
	LogEventConfirmed    LogEventType = "confirmed"
	LogEventCancelled    LogEventType = "cancelled"
	LogEventCompleted    LogEventType = "completed"
	LogEventNotesUpdated LogEventType = "notes_updated"
	LogEventDeleted      LogEventType = "deleted"
)

// BookingLog is append-only: one row per transition, never mutated. There is
// deliberately no update or delete path for it anywhere in the service.
type BookingLog struct {
	ID          uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	BookingID   uuid.UUID    `gorm:"type:uuid;not null;index" json:"booking_id"`
	EventType   LogEventType `gorm:"type:varchar(20);not null" json:"event_type"`
	Notes       string       `json:"notes,omitempty"`
	ActorUserID uuid.UUID    `gorm:"type:uuid;not null" json:"actor_user_id"`
	CreatedAt   time.Time    `json:"created_at"`
}

func (l *BookingLog) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

// CanStaffTransition is the staff side of the state machine.
func CanStaffTransition(from, to BookingStatus) bool {
	switch {
	case from == StatusPending && to == StatusConfirmed:
		return true
	case from == StatusPending && to == StatusCancelled:
		return true
	case from == StatusConfirmed && to == StatusCancelled:
		return true
	case from == StatusConfirmed && to == StatusCompleted:
		return true
	}
	return false
}

// CanTenantTransition is the tenant side: cancellation only, and never out of
// a finalized state.
func CanTenantTransition(from, to BookingStatus) bool {
	if to != StatusCancelled {
		return false
	}
	return from == StatusPending || from == StatusConfirmed
}

// LogEventForStatus maps a target status to its audit event type.
func LogEventForStatus(status BookingStatus) LogEventType {
	switch status {
	case StatusConfirmed:
		return LogEventConfirmed
	case StatusCancelled:
		return LogEventCancelled
	case StatusCompleted:
		return LogEventCompleted
	}
	return LogEventNotesUpdated
}

func Migrate(db *gorm.DB) {
	if err := db.AutoMigrate(&Booking{}, &BookingLog{}); err != nil {
		log.Fatalf("failed to auto-migrate: %v", err)
	}

	// Speeds up the conflict query; availability checks hit this constantly.
	db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_booking_availability
		ON bookings (property_id, unit_id, start_date, end_date)
		WHERE status = 'confirmed' AND deleted_at IS NULL
	`)
}
