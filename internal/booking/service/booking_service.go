package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/rentora/backoffice/internal/auth"
	"github.com/rentora/backoffice/internal/booking/client"
	"github.com/rentora/backoffice/internal/booking/models"
	"github.com/rentora/backoffice/internal/booking/repository"
	"github.com/rentora/backoffice/internal/contracts"
)

var (
	ErrBookingNotFound   = errors.New("booking not found")
	ErrInvalidDateRange  = errors.New("end date must be on or after start date")
	ErrUnitNotInProperty = errors.New("unit does not belong to the property")
	ErrUnitRequired      = errors.New("cannot confirm a booking without a unit")
	ErrTenantRequired    = errors.New("tenant_user_id is required for staff callers")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrForbidden         = errors.New("caller is not allowed to perform this action")

	// ErrEventPublish marks a booking whose state change committed but whose
	// fact could not be handed to the broker. The transition stands; the
	// fact needs an operational replay.
	ErrEventPublish = errors.New("booking updated but event publish failed")
)

// ConflictError reports an overlapping confirmed booking on the same unit.
type ConflictError struct {
	ConflictingBookingID uuid.UUID
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("unit is not available for the selected date range (conflicts with booking %s)", e.ConflictingBookingID)
}

type EventPublisher interface {
	Publish(routingKey, messageID string, payload any) error
}

type CreateBookingInput struct {
	TenantUserID *uuid.UUID // staff may create on behalf; tenants must not supply
	PropertyID   uuid.UUID
	UnitID       *uuid.UUID
	StartDate    datatypes.Date
	EndDate      datatypes.Date
	Notes        string
}

type BookingService interface {
	CreateBooking(ctx context.Context, actor auth.Actor, in CreateBookingInput) (*models.Booking, error)
	GetBooking(ctx context.Context, actor auth.Actor, id uuid.UUID) (*models.Booking, error)
	ListByTenant(ctx context.Context, actor auth.Actor, tenantUserID uuid.UUID) ([]models.Booking, error)
	UpdateStatus(ctx context.Context, actor auth.Actor, id uuid.UUID, status models.BookingStatus, notes string) (*models.Booking, error)
	SoftDelete(ctx context.Context, actor auth.Actor, id uuid.UUID) error
	ListLogs(ctx context.Context, actor auth.Actor, bookingID uuid.UUID) ([]models.BookingLog, error)
	CheckAvailability(ctx context.Context, propertyID, unitID uuid.UUID, start, end datatypes.Date) (*uuid.UUID, error)
}

type bookingService struct {
	repo           repository.BookingRepository
	propertyClient client.PropertyClient
	publisher      EventPublisher
}

func NewBookingService(repo repository.BookingRepository, propertyClient client.PropertyClient, publisher EventPublisher) BookingService {
	return &bookingService{
		repo:           repo,
		propertyClient: propertyClient,
		publisher:      publisher,
	}
}

func (s *bookingService) CreateBooking(ctx context.Context, actor auth.Actor, in CreateBookingInput) (*models.Booking, error) {
	tenantUserID, err := resolveTenant(actor, in.TenantUserID)
	if err != nil {
		return nil, err
	}

	if time.Time(in.EndDate).Before(time.Time(in.StartDate)) {
		return nil, ErrInvalidDateRange
	}

	if in.UnitID != nil && s.propertyClient != nil {
		ok, err := s.propertyClient.UnitBelongsToProperty(ctx, actor.Token, in.PropertyID, *in.UnitID)
		if err != nil {
			return nil, fmt.Errorf("verify unit ownership: %w", err)
		}
		if !ok {
			return nil, ErrUnitNotInProperty
		}
	}

	// Advisory availability check. The hard gate runs again at confirmation,
	// under the row lock.
	if in.UnitID != nil {
		conflictID, err := s.repo.FindConfirmedConflict(ctx, nil, in.PropertyID, *in.UnitID, in.StartDate, in.EndDate, nil)
		if err != nil {
			return nil, err
		}
		if conflictID != nil {
			return nil, &ConflictError{ConflictingBookingID: *conflictID}
		}
	}

	booking := &models.Booking{
		TenantUserID: tenantUserID,
		PropertyID:   in.PropertyID,
		UnitID:       in.UnitID,
		StartDate:    in.StartDate,
		EndDate:      in.EndDate,
		Notes:        in.Notes,
		Status:       models.StatusPending,
	}

	// Retried create requests return the original pending booking.
	existing, err := s.repo.FindPendingDuplicate(ctx, booking)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	err = s.repo.Transaction(ctx, func(tx *gorm.DB) error {
		if err := s.repo.Create(ctx, tx, booking); err != nil {
			return err
		}
		return s.repo.CreateLog(ctx, tx, &models.BookingLog{
			BookingID:   booking.ID,
			EventType:   models.LogEventCreated,
			Notes:       in.Notes,
			ActorUserID: actor.UserID,
		})
	})
	if err != nil {
		return nil, err
	}

	return booking, nil
}

func (s *bookingService) GetBooking(ctx context.Context, actor auth.Actor, id uuid.UUID) (*models.Booking, error) {
	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	if !canAccessTenant(actor, booking.TenantUserID) {
		return nil, ErrForbidden
	}
	return booking, nil
}

func (s *bookingService) ListByTenant(ctx context.Context, actor auth.Actor, tenantUserID uuid.UUID) ([]models.Booking, error) {
	if !canAccessTenant(actor, tenantUserID) {
		return nil, ErrForbidden
	}
	return s.repo.FindByTenant(ctx, tenantUserID)
}

// UpdateStatus runs one state transition. The booking row is re-read under an
// exclusive lock and, for confirmation, the conflict detector runs again
// inside that lock: an advisory check at creation time proves nothing by the
// time staff confirm.
func (s *bookingService) UpdateStatus(ctx context.Context, actor auth.Actor, id uuid.UUID, status models.BookingStatus, notes string) (*models.Booking, error) {
	var (
		booking        *models.Booking
		previousStatus models.BookingStatus
	)

	err := s.repo.Transaction(ctx, func(tx *gorm.DB) error {
		var err error
		booking, err = s.repo.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBookingNotFound
			}
			return err
		}

		if !canAccessTenant(actor, booking.TenantUserID) {
			return ErrForbidden
		}

		previousStatus = booking.Status

		if actor.IsTenant() {
			if status != models.StatusCancelled {
				return ErrForbidden
			}
			if !models.CanTenantTransition(booking.Status, status) {
				return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, booking.Status, status)
			}
		} else {
			if !actor.CanManage() {
				return ErrForbidden
			}
			if !models.CanStaffTransition(booking.Status, status) {
				return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, booking.Status, status)
			}
		}

		if status == models.StatusConfirmed {
			if booking.UnitID == nil {
				return ErrUnitRequired
			}
			conflictID, err := s.repo.FindConfirmedConflict(ctx, tx, booking.PropertyID, *booking.UnitID, booking.StartDate, booking.EndDate, &booking.ID)
			if err != nil {
				return err
			}
			if conflictID != nil {
				return &ConflictError{ConflictingBookingID: *conflictID}
			}
		}

		var notesPtr *string
		if notes != "" {
			notesPtr = &notes
			booking.Notes = notes
		}
		if err := s.repo.UpdateStatus(ctx, tx, booking.ID, status, notesPtr); err != nil {
			return err
		}
		booking.Status = status

		return s.repo.CreateLog(ctx, tx, &models.BookingLog{
			BookingID:   booking.ID,
			EventType:   models.LogEventForStatus(status),
			Notes:       notes,
			ActorUserID: actor.UserID,
		})
	})
	if err != nil {
		return nil, err
	}

	// Publication happens strictly after commit. A crash here loses the
	// fact until replayed; a crash after Publish may duplicate it. Either
	// way consumers dedupe on the message identity.
	if err := s.publishTransition(previousStatus, booking); err != nil {
		return booking, err
	}

	return booking, nil
}

func (s *bookingService) publishTransition(previous models.BookingStatus, booking *models.Booking) error {
	if s.publisher == nil {
		return nil
	}

	switch {
	case previous != models.StatusConfirmed && booking.Status == models.StatusConfirmed:
		evt := contracts.BookingConfirmed{
			BookingID:    booking.ID,
			TenantUserID: booking.TenantUserID,
			PropertyID:   booking.PropertyID,
			UnitID:       *booking.UnitID,
			StartDate:    booking.StartDate,
			EndDate:      booking.EndDate,
		}
		if err := s.publisher.Publish(contracts.RoutingKeyBookingConfirmed, evt.MessageID(), evt); err != nil {
			log.Printf("[BookingService] publish booking.confirmed for %s failed: %v", booking.ID, err)
			return fmt.Errorf("%w: %v", ErrEventPublish, err)
		}

	case booking.Status == models.StatusCancelled && booking.UnitID != nil:
		evt := contracts.BookingCancelled{
			BookingID:   booking.ID,
			PropertyID:  booking.PropertyID,
			UnitID:      *booking.UnitID,
			CancelledAt: time.Now().UTC(),
		}
		if err := s.publisher.Publish(contracts.RoutingKeyBookingCancelled, evt.MessageID(), evt); err != nil {
			log.Printf("[BookingService] publish booking.cancelled for %s failed: %v", booking.ID, err)
			return fmt.Errorf("%w: %v", ErrEventPublish, err)
		}
	}

	return nil
}

func (s *bookingService) SoftDelete(ctx context.Context, actor auth.Actor, id uuid.UUID) error {
	if !actor.CanManage() {
		return ErrForbidden
	}

	return s.repo.Transaction(ctx, func(tx *gorm.DB) error {
		booking, err := s.repo.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrBookingNotFound
			}
			return err
		}

		if err := s.repo.SoftDelete(ctx, tx, booking.ID); err != nil {
			return err
		}
		return s.repo.CreateLog(ctx, tx, &models.BookingLog{
			BookingID:   booking.ID,
			EventType:   models.LogEventDeleted,
			ActorUserID: actor.UserID,
		})
	})
}

func (s *bookingService) ListLogs(ctx context.Context, actor auth.Actor, bookingID uuid.UUID) ([]models.BookingLog, error) {
	booking, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	if !canAccessTenant(actor, booking.TenantUserID) {
		return nil, ErrForbidden
	}
	return s.repo.FindLogs(ctx, bookingID)
}

// CheckAvailability is the advisory availability surface. Returns the
// conflicting booking id, or nil if the range is free.
func (s *bookingService) CheckAvailability(ctx context.Context, propertyID, unitID uuid.UUID, start, end datatypes.Date) (*uuid.UUID, error) {
	if time.Time(end).Before(time.Time(start)) {
		return nil, ErrInvalidDateRange
	}
	return s.repo.FindConfirmedConflict(ctx, nil, propertyID, unitID, start, end, nil)
}

func resolveTenant(actor auth.Actor, requested *uuid.UUID) (uuid.UUID, error) {
	if actor.IsTenant() {
		// Tenants book for themselves only.
		if requested != nil && *requested != actor.UserID {
			return uuid.Nil, ErrForbidden
		}
		return actor.UserID, nil
	}

	if !actor.CanManage() {
		return uuid.Nil, ErrForbidden
	}
	if requested == nil || *requested == uuid.Nil {
		return uuid.Nil, ErrTenantRequired
	}
	return *requested, nil
}

func canAccessTenant(actor auth.Actor, tenantUserID uuid.UUID) bool {
	if actor.IsTenant() {
		return actor.UserID == tenantUserID
	}
	return actor.CanManage()
}
