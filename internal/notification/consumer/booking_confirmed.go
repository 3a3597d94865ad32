package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"gorm.io/gorm"

	"github.com/rentora/backoffice/internal/contracts"
	"github.com/rentora/backoffice/internal/idempotency"
	"github.com/rentora/backoffice/internal/notification/models"
)

// BookingConfirmedConsumer creates one in-app notification for the tenant
// per confirmed booking.
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
		log.Println("[NotificationConsumer] channel closed, stopping consumer")
	}()
}

func (c *BookingConfirmedConsumer) handleMessage(msg amqp.Delivery) {
	var evt contracts.BookingConfirmed
	if err := json.Unmarshal(msg.Body, &evt); err != nil {
		log.Printf("[NotificationConsumer] failed to unmarshal: %v", err)
		msg.Nack(false, false)
		return
	}

	if err := c.Handle(context.Background(), idempotency.DeliveryMessageID(msg, evt.MessageID()), evt); err != nil {
		log.Printf("[NotificationConsumer] failed to process booking %s: %v", evt.BookingID, err)
		msg.Nack(false, true)
		return
	}

	msg.Ack(false)
}

func (c *BookingConfirmedConsumer) Handle(ctx context.Context, msgID string, evt contracts.BookingConfirmed) error {
	return idempotency.Process(ctx, c.db, msgID, func(tx *gorm.DB) error {
		metadata, err := json.Marshal(map[string]string{
			"booking_id":  evt.BookingID.String(),
			"property_id": evt.PropertyID.String(),
			"unit_id":     evt.UnitID.String(),
			"start_date":  time.Time(evt.StartDate).Format("2006-01-02"),
			"end_date":    time.Time(evt.EndDate).Format("2006-01-02"),
		})
		if err != nil {
			return err
		}

		notification := models.Notification{
			RecipientUserID: evt.TenantUserID,
			Type:            models.TypeBookingConfirmed,
			Channel:         models.ChannelInApp,
			Title:           "Booking Confirmed",
			Message:         ConfirmationMessage(evt),
			Metadata:        metadata,
			Status:          models.StatusPending,
		}
		if err := tx.Create(&notification).Error; err != nil {
			return err
		}

		log.Printf("[NotificationConsumer] created notification %s for tenant %s",
			notification.ID, evt.TenantUserID)
		return nil
	})
}

// ConfirmationMessage renders the tenant-facing text for a confirmed range.
func ConfirmationMessage(evt contracts.BookingConfirmed) string {
	const layout = "Jan 02, 2006"
	return fmt.Sprintf("Your booking has been confirmed for %s to %s.",
		time.Time(evt.StartDate).Format(layout),
		time.Time(evt.EndDate).Format(layout))
}
