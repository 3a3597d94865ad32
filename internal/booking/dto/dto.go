package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/rentora/backoffice/internal/booking/models"
)

// Dates cross the API as plain yyyy-mm-dd strings.
const DateLayout = "2006-01-02"

type CreateBookingRequest struct {
	PropertyID   uuid.UUID  `json:"property_id"`
	UnitID       *uuid.UUID `json:"unit_id,omitempty"`
	StartDate    string     `json:"start_date"`
	EndDate      string     `json:"end_date"`
	Notes        string     `json:"notes,omitempty"`
	TenantUserID *uuid.UUID `json:"tenant_user_id,omitempty"` // staff only
}

type UpdateBookingStatusRequest struct {
	Status models.BookingStatus `json:"status"`
	Notes  string               `json:"notes,omitempty"`
}

type BookingResponse struct {
	ID           uuid.UUID            `json:"id"`
	TenantUserID uuid.UUID            `json:"tenant_user_id"`
	PropertyID   uuid.UUID            `json:"property_id"`
	UnitID       *uuid.UUID           `json:"unit_id,omitempty"`
	StartDate    string               `json:"start_date"`
	EndDate      string               `json:"end_date"`
	Status       models.BookingStatus `json:"status"`
	Notes        string               `json:"notes,omitempty"`
	CreatedAt    time.Time            `json:"created_at"`
	UpdatedAt    time.Time            `json:"updated_at"`
}

type BookingLogResponse struct {
	ID          uuid.UUID           `json:"id"`
	BookingID   uuid.UUID           `json:"booking_id"`
	EventType   models.LogEventType `json:"event_type"`
	Notes       string              `json:"notes,omitempty"`
	ActorUserID uuid.UUID           `json:"actor_user_id"`
	CreatedAt   time.Time           `json:"created_at"`
}

type AvailabilityResponse struct {
	PropertyID           uuid.UUID  `json:"property_id"`
	UnitID               uuid.UUID  `json:"unit_id"`
	StartDate            string     `json:"start_date"`
	EndDate              string     `json:"end_date"`
	IsAvailable          bool       `json:"is_available"`
	ConflictingBookingID *uuid.UUID `json:"conflicting_booking_id,omitempty"`
}

type ConflictResponse struct {
	Message              string    `json:"message"`
	ConflictingBookingID uuid.UUID `json:"conflicting_booking_id"`
}

func ToBookingResponse(b *models.Booking) BookingResponse {
	return BookingResponse{
		ID:           b.ID,
		TenantUserID: b.TenantUserID,
		PropertyID:   b.PropertyID,
		UnitID:       b.UnitID,
		StartDate:    time.Time(b.StartDate).Format(DateLayout),
		EndDate:      time.Time(b.EndDate).Format(DateLayout),
		Status:       b.Status,
		Notes:        b.Notes,
		CreatedAt:    b.CreatedAt,
		UpdatedAt:    b.UpdatedAt,
	}
}

func ToBookingLogResponse(l *models.BookingLog) BookingLogResponse {
	return BookingLogResponse{
		ID:          l.ID,
		BookingID:   l.BookingID,
		EventType:   l.EventType,
		Notes:       l.Notes,
		ActorUserID: l.ActorUserID,
		CreatedAt:   l.CreatedAt,
	}
}
