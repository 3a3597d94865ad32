package models

import (
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/rentora/backoffice/internal/idempotency"
)

type PaymentStatus string

const (
	PaymentUnpaid PaymentStatus = "unpaid"
	PaymentPaid   PaymentStatus = "paid"
)

type InvoiceType string

const (
	InvoiceRent InvoiceType = "rent"
)

type Invoice struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	BookingID    uuid.UUID       `gorm:"type:uuid;not null" json:"booking_id"`
	TenantUserID uuid.UUID       `gorm:"type:uuid;not null" json:"tenant_user_id"`
	PropertyID   uuid.UUID       `gorm:"type:uuid;not null" json:"property_id"`
	Amount       decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"amount"`
	DueDate      datatypes.Date  `gorm:"not null" json:"due_date"`
	Status       PaymentStatus   `gorm:"type:varchar(20);not null;default:'unpaid'" json:"status"`
	Type         InvoiceType     `gorm:"type:varchar(20);not null" json:"type"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

func (i *Invoice) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// UnitRate is a monthly rate with an inclusive effective window. Nil bounds
// are open-ended. The "current" rate for a date is derived from the full set
// of records, never stored.
type UnitRate struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	PropertyID    uuid.UUID       `gorm:"type:uuid;not null" json:"property_id"`
	UnitID        uuid.UUID       `gorm:"type:uuid;not null;index" json:"unit_id"`
	Rate          decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"rate"`
	EffectiveFrom *datatypes.Date `json:"effective_from,omitempty"`
	EffectiveTo   *datatypes.Date `json:"effective_to,omitempty"`
	IsActive      bool            `gorm:"not null;default:true" json:"is_active"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func (r *UnitRate) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

func Migrate(db *gorm.DB) {
	if err := db.AutoMigrate(&Invoice{}, &UnitRate{}, &idempotency.ProcessedMessage{}); err != nil {
		log.Fatalf("failed to auto-migrate: %v", err)
	}

	// Second guard against duplicate rent invoices, independent of the
	// idempotency ledger.
	db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_invoice_booking_type
		ON invoices (booking_id, type)
	`)
}
