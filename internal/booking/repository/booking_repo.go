package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/rentora/backoffice/internal/booking/models"
)

type BookingRepository interface {
	Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error
	Create(ctx context.Context, tx *gorm.DB, booking *models.Booking) error
	CreateLog(ctx context.Context, tx *gorm.DB, log *models.BookingLog) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Booking, error)
	FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Booking, error)
	FindByTenant(ctx context.Context, tenantUserID uuid.UUID) ([]models.Booking, error)
	FindPendingDuplicate(ctx context.Context, booking *models.Booking) (*models.Booking, error)
	FindConfirmedConflict(ctx context.Context, tx *gorm.DB, propertyID, unitID uuid.UUID, start, end datatypes.Date, excludeID *uuid.UUID) (*uuid.UUID, error)
	UpdateStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, status models.BookingStatus, notes *string) error
	SoftDelete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error
	FindLogs(ctx context.Context, bookingID uuid.UUID) ([]models.BookingLog, error)
}

type bookingRepository struct {
	db *gorm.DB
}

func NewBookingRepository(db *gorm.DB) BookingRepository {
	return &bookingRepository{db: db}
}

func (r *bookingRepository) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func (r *bookingRepository) Create(ctx context.Context, tx *gorm.DB, booking *models.Booking) error {
	return tx.WithContext(ctx).Create(booking).Error
}

func (r *bookingRepository) CreateLog(ctx context.Context, tx *gorm.DB, log *models.BookingLog) error {
	return tx.WithContext(ctx).Create(log).Error
}

func (r *bookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	var booking models.Booking
	if err := r.db.WithContext(ctx).First(&booking, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &booking, nil
}

// FindByIDForUpdate acquires a row-level lock on the booking within the given
// transaction. Confirmation re-checks availability under this lock.
func (r *bookingRepository) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Booking, error) {
	var booking models.Booking
	if err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&booking, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *bookingRepository) FindByTenant(ctx context.Context, tenantUserID uuid.UUID) ([]models.Booking, error) {
	var bookings []models.Booking
	err := r.db.WithContext(ctx).
		Where("tenant_user_id = ?", tenantUserID).
		Order("created_at DESC").
		Find(&bookings).Error
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

// FindPendingDuplicate returns an existing pending booking with the same
// tenant, property, unit and dates, if one exists. Retried create requests
// get the original booking back instead of a duplicate.
func (r *bookingRepository) FindPendingDuplicate(ctx context.Context, booking *models.Booking) (*models.Booking, error) {
	q := r.db.WithContext(ctx).
		Where("tenant_user_id = ? AND property_id = ? AND start_date = ? AND end_date = ? AND status = ?",
			booking.TenantUserID, booking.PropertyID, booking.StartDate, booking.EndDate, models.StatusPending)

	if booking.UnitID != nil {
		q = q.Where("unit_id = ?", *booking.UnitID)
	} else {
		q = q.Where("unit_id IS NULL")
	}

	var existing models.Booking
	if err := q.Order("created_at DESC").First(&existing).Error; err != nil {
		return nil, err
	}
	return &existing, nil
}

// FindConfirmedConflict reports the id of a confirmed booking whose inclusive
// date range overlaps [start, end] on the same property unit. Ranges that
// merely touch count as overlapping: same-day turnover is not allowed. Only
// committed confirmed bookings participate; pending ones never block.
//
// tx may be nil for an advisory check outside a transaction.
func (r *bookingRepository) FindConfirmedConflict(ctx context.Context, tx *gorm.DB, propertyID, unitID uuid.UUID, start, end datatypes.Date, excludeID *uuid.UUID) (*uuid.UUID, error) {
	db := r.db
	if tx != nil {
		db = tx
	}

	q := db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("property_id = ? AND unit_id = ? AND status = ?", propertyID, unitID, models.StatusConfirmed).
		Where("start_date <= ? AND ? <= end_date", end, start)

	if excludeID != nil {
		q = q.Where("id <> ?", *excludeID)
	}

	var ids []uuid.UUID
	if err := q.Limit(1).Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}
	return &ids[0], nil
}

func (r *bookingRepository) UpdateStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, status models.BookingStatus, notes *string) error {
	updates := map[string]any{"status": status}
	if notes != nil && *notes != "" {
		updates["notes"] = *notes
	}
	return tx.WithContext(ctx).
		Model(&models.Booking{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *bookingRepository) SoftDelete(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	return tx.WithContext(ctx).Delete(&models.Booking{}, "id = ?", id).Error
}

func (r *bookingRepository) FindLogs(ctx context.Context, bookingID uuid.UUID) ([]models.BookingLog, error) {
	var logs []models.BookingLog
	err := r.db.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Order("created_at ASC").
		Find(&logs).Error
	if err != nil {
		return nil, err
	}
	return logs, nil
}
