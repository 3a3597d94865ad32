package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	amqp "github.com/rabbitmq/amqp091-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/rentora/backoffice/internal/contracts"
	"github.com/rentora/backoffice/internal/idempotency"
	"github.com/rentora/backoffice/internal/sales/models"
)

// BookingConfirmedConsumer converts the matching open lead when a booking is
// confirmed. Matching is best-effort: no lead, no error.
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
		log.Println("[SalesConsumer] channel closed, stopping consumer")
	}()
}

func (c *BookingConfirmedConsumer) handleMessage(msg amqp.Delivery) {
	var evt contracts.BookingConfirmed
	if err := json.Unmarshal(msg.Body, &evt); err != nil {
		log.Printf("[SalesConsumer] failed to unmarshal: %v", err)
		msg.Nack(false, false)
		return
	}

	if err := c.Handle(context.Background(), idempotency.DeliveryMessageID(msg, evt.MessageID()), evt); err != nil {
		log.Printf("[SalesConsumer] failed to process booking %s: %v", evt.BookingID, err)
		msg.Nack(false, true)
		return
	}

	msg.Ack(false)
}

func (c *BookingConfirmedConsumer) Handle(ctx context.Context, msgID string, evt contracts.BookingConfirmed) error {
	return idempotency.Process(ctx, c.db, msgID, func(tx *gorm.DB) error {
		var lead models.Lead
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("tenant_user_id = ? AND property_id = ? AND unit_id = ?",
				evt.TenantUserID, evt.PropertyID, evt.UnitID).
			Where("status NOT IN ?", []models.LeadStatus{models.LeadConverted, models.LeadLost}).
			First(&lead).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				log.Printf("[SalesConsumer] no matching lead for booking %s, skipping conversion", evt.BookingID)
				return nil
			}
			return err
		}

		return tx.Model(&lead).Updates(map[string]any{
			"status": models.LeadConverted,
			"notes":  AppendConversionNote(lead.Notes, evt.BookingID.String()),
		}).Error
	})
}

// AppendConversionNote adds the audit trail line referencing the booking that
// converted the lead.
func AppendConversionNote(notes, bookingID string) string {
	note := fmt.Sprintf("[Auto-converted from BookingId:%s]", bookingID)
	if notes == "" {
		return note
	}
	return strings.TrimSpace(notes + "\n" + note)
}
