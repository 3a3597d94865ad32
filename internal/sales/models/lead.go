package models

import (
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rentora/backoffice/internal/idempotency"
)

type LeadStatus string

const (
	LeadNew              LeadStatus = "new"
	LeadContacted        LeadStatus = "contacted"
	LeadViewingScheduled LeadStatus = "viewing_scheduled"
	LeadViewingDone      LeadStatus = "viewing_done"
	LeadConverted        LeadStatus = "converted"
	LeadLost             LeadStatus = "lost"
)

type Lead struct {
	ID               uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	TenantUserID     *uuid.UUID `gorm:"type:uuid;index" json:"tenant_user_id,omitempty"`
	FullName         string     `gorm:"not null" json:"full_name"`
	PhoneNumber      string     `gorm:"not null" json:"phone_number"`
	Email            string     `json:"email,omitempty"`
	Source           string     `gorm:"not null" json:"source"`
	PropertyID       uuid.UUID  `gorm:"type:uuid;not null" json:"property_id"`
	UnitID           *uuid.UUID `gorm:"type:uuid" json:"unit_id,omitempty"`
	Notes            string     `json:"notes,omitempty"`
	Status           LeadStatus `gorm:"type:varchar(30);not null;default:'new'" json:"status"`
	AssignedToUserID *uuid.UUID `gorm:"type:uuid" json:"assigned_to_user_id,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

func (l *Lead) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

// Open reports whether the lead can still be converted.
func (l *Lead) Open() bool {
	return l.Status != LeadConverted && l.Status != LeadLost
}

func Migrate(db *gorm.DB) {
	if err := db.AutoMigrate(&Lead{}, &idempotency.ProcessedMessage{}); err != nil {
		log.Fatalf("failed to auto-migrate: %v", err)
	}
}
