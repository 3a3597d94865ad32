package consumer

import (
	"context"
	"encoding/json"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/rentora/backoffice/internal/accounting/models"
	"github.com/rentora/backoffice/internal/accounting/rates"
	"github.com/rentora/backoffice/internal/contracts"
	"github.com/rentora/backoffice/internal/idempotency"
)

var daysPerMonth = decimal.NewFromInt(30)

// BookingConfirmedConsumer creates one prorated rent invoice per confirmed
// booking.
type BookingConfirmedConsumer struct {
	db *gorm.DB
}

func NewBookingConfirmedConsumer(db *gorm.DB) *BookingConfirmedConsumer {
	return &BookingConfirmedConsumer{db: db}
}

func (c *BookingConfirmedConsumer) Start(msgs <-chan amqp.Delivery) {
	go func() {
		for msg := range msgs {
			c.handleMessage(msg)
		}
		log.Println("[AccountingConsumer] channel closed, stopping consumer")
	}()
}

func (c *BookingConfirmedConsumer) handleMessage(msg amqp.Delivery) {
	var evt contracts.BookingConfirmed
	if err := json.Unmarshal(msg.Body, &evt); err != nil {
		log.Printf("[AccountingConsumer] failed to unmarshal: %v", err)
		msg.Nack(false, false)
		return
	}

	if err := c.Handle(context.Background(), idempotency.DeliveryMessageID(msg, evt.MessageID()), evt); err != nil {
		log.Printf("[AccountingConsumer] failed to process booking %s: %v", evt.BookingID, err)
		msg.Nack(false, true) // requeue for redelivery
		return
	}

	msg.Ack(false)
}

func (c *BookingConfirmedConsumer) Handle(ctx context.Context, msgID string, evt contracts.BookingConfirmed) error {
	return idempotency.Process(ctx, c.db, msgID, func(tx *gorm.DB) error {
		// Unique (booking_id, type) guards invoices independently of the
		// ledger; an existing invoice means there is nothing left to do.
		var count int64
		if err := tx.Model(&models.Invoice{}).
			Where("booking_id = ? AND type = ?", evt.BookingID, models.InvoiceRent).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}

		var records []models.UnitRate
		if err := tx.Where("unit_id = ?", evt.UnitID).Find(&records).Error; err != nil {
			return err
		}

		amount := decimal.Zero
		if rate := rates.ActiveAt(records, time.Time(evt.StartDate)); rate != nil {
			amount = Prorate(rate.Rate, evt.Days())
		} else {
			// Missing rate is an anticipated gap, not a failure: bill zero
			// and flag for an operator instead of blocking the booking.
			log.Printf("[AccountingConsumer] no active rate for unit %s (property %s), creating invoice with amount 0",
				evt.UnitID, evt.PropertyID)
		}

		invoice := models.Invoice{
			BookingID:    evt.BookingID,
			TenantUserID: evt.TenantUserID,
			PropertyID:   evt.PropertyID,
			Amount:       amount,
			DueDate:      evt.StartDate, // rent is due before move-in
			Status:       models.PaymentUnpaid,
			Type:         models.InvoiceRent,
		}
		if err := tx.Create(&invoice).Error; err != nil {
			return err
		}

		log.Printf("[AccountingConsumer] created rent invoice %s for booking %s, amount %s",
			invoice.ID, evt.BookingID, amount.StringFixed(2))
		return nil
	})
}

// Prorate computes a partial monthly charge: rate / 30 * days, rounded to
// two decimal places. days is the inclusive day count of the booking.
func Prorate(monthlyRate decimal.Decimal, days int) decimal.Decimal {
	return monthlyRate.Div(daysPerMonth).Mul(decimal.NewFromInt(int64(days))).Round(2)
}
