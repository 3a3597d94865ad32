package repository

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/rentora/backoffice/internal/analytics/models"
)

// BumpDailyMetric increments counters on the (property, unit, date) row,
// creating it on first touch. Existing rows are read under FOR UPDATE so two
// different messages touching the same key don't lose increments.
func BumpDailyMetric(tx *gorm.DB, propertyID, unitID uuid.UUID, date datatypes.Date, confirmed, cancelled int) error {
	var metric models.BookingMetricDaily
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("property_id = ? AND unit_id = ? AND date = ?", propertyID, unitID, date).
		First(&metric).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return tx.Create(&models.BookingMetricDaily{
			PropertyID:        propertyID,
			UnitID:            unitID,
			Date:              date,
			TotalBookings:     1,
			ConfirmedBookings: confirmed,
			CancelledBookings: cancelled,
		}).Error
	}
	if err != nil {
		return err
	}

	return tx.Model(&metric).Updates(map[string]any{
		"total_bookings":     gorm.Expr("total_bookings + 1"),
		"confirmed_bookings": gorm.Expr("confirmed_bookings + ?", confirmed),
		"cancelled_bookings": gorm.Expr("cancelled_bookings + ?", cancelled),
	}).Error
}

// BumpOccupiedDay increments the occupied-day counter on the
// (property, unit, year, month) row, creating it on first touch.
func BumpOccupiedDay(tx *gorm.DB, propertyID, unitID uuid.UUID, day time.Time) error {
	year, month := day.Year(), int(day.Month())

	var metric models.VacancyMetricMonthly
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("property_id = ? AND unit_id = ? AND year = ? AND month = ?", propertyID, unitID, year, month).
		First(&metric).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return tx.Create(&models.VacancyMetricMonthly{
			PropertyID:    propertyID,
			UnitID:        unitID,
			Year:          year,
			Month:         month,
			OccupiedDays:  1,
			AvailableDays: 30,
		}).Error
	}
	if err != nil {
		return err
	}

	return tx.Model(&metric).
		Update("occupied_days", gorm.Expr("occupied_days + 1")).Error
}
