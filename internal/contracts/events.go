// Package contracts holds the message schemas shared between the booking
// service and its consumers. Fields are additive-only: removing or renaming
// one breaks every consumer's queue.
package contracts

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	RoutingKeyBookingConfirmed = "booking.confirmed"
	RoutingKeyBookingCancelled = "booking.cancelled"
)

// BookingConfirmed is published exactly once per booking, when it transitions
// from pending to confirmed. Delivery is at-least-once; consumers deduplicate
// on MessageID.
type BookingConfirmed struct {
	BookingID    uuid.UUID      `json:"booking_id"`
	TenantUserID uuid.UUID      `json:"tenant_user_id"`
	PropertyID   uuid.UUID      `json:"property_id"`
	UnitID       uuid.UUID      `json:"unit_id"`
	StartDate    datatypes.Date `json:"start_date"`
	EndDate      datatypes.Date `json:"end_date"`
}

// MessageID is the fact's identity: one logical confirmation per booking.
func (e BookingConfirmed) MessageID() string {
	return e.BookingID.String()
}

// Days returns the inclusive day count of the booked range.
func (e BookingConfirmed) Days() int {
	start := time.Time(e.StartDate)
	end := time.Time(e.EndDate)
	return int(end.Sub(start).Hours()/24) + 1
}

// EachDay calls fn for every calendar day in [StartDate, EndDate].
func (e BookingConfirmed) EachDay(fn func(day time.Time)) {
	end := time.Time(e.EndDate)
	for d := time.Time(e.StartDate); !d.After(end); d = d.AddDate(0, 0, 1) {
		fn(d)
	}
}

// BookingCancelled is published when a booking with an assigned unit is
// cancelled. Only analytics consumes it today.
type BookingCancelled struct {
	BookingID   uuid.UUID `json:"booking_id"`
	PropertyID  uuid.UUID `json:"property_id"`
	UnitID      uuid.UUID `json:"unit_id"`
	CancelledAt time.Time `json:"cancelled_at"`
}

func (e BookingCancelled) MessageID() string {
	return "cancel-" + e.BookingID.String()
}
