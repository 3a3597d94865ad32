package models

import (
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/rentora/backoffice/internal/idempotency"
)

type NotificationType string

const (
	TypeBookingConfirmed NotificationType = "booking_confirmed"
)

type NotificationChannel string

const (
	ChannelInApp NotificationChannel = "in_app"
)

type NotificationStatus string

const (
	StatusPending NotificationStatus = "pending"
	StatusSent    NotificationStatus = "sent"
)

type Notification struct {
	ID              uuid.UUID           `gorm:"type:uuid;primaryKey" json:"id"`
	RecipientUserID uuid.UUID           `gorm:"type:uuid;not null;index" json:"recipient_user_id"`
	Type            NotificationType    `gorm:"type:varchar(30);not null" json:"type"`
	Channel         NotificationChannel `gorm:"type:varchar(20);not null" json:"channel"`
	Title           string              `gorm:"not null" json:"title"`
	Message         string              `gorm:"not null" json:"message"`
	Metadata        datatypes.JSON      `json:"metadata,omitempty"`
	Status          NotificationStatus  `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	IsRead          bool                `gorm:"not null;default:false" json:"is_read"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}

func Migrate(db *gorm.DB) {
	if err := db.AutoMigrate(&Notification{}, &idempotency.ProcessedMessage{}); err != nil {
		log.Fatalf("failed to auto-migrate: %v", err)
	}
}
