package consumer

import (
	"context"
	"encoding/json"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/rentora/backoffice/internal/analytics/repository"
	"github.com/rentora/backoffice/internal/contracts"
	"github.com/rentora/backoffice/internal/idempotency"
)

// BookingEventsConsumer maintains the daily booking counters and monthly
// vacancy aggregates from booking.confirmed and booking.cancelled facts.
type BookingEventsConsumer struct {
	db *gorm.DB

	// now is swapped in tests; metric dates for cancellations come from it.
	now func() time.Time
}

func NewBookingEventsConsumer(db *gorm.DB) *BookingEventsConsumer {
	return &BookingEventsConsumer{db: db, now: time.Now}
}

func (c *BookingEventsConsumer) Start(msgs <-chan amqp.Delivery) {
	go func() {
		for msg := range msgs {
			c.handleMessage(msg)
		}
		log.Println("[AnalyticsConsumer] channel closed, stopping consumer")
	}()
}

func (c *BookingEventsConsumer) handleMessage(msg amqp.Delivery) {
	var err error
	switch msg.RoutingKey {
	case contracts.RoutingKeyBookingConfirmed:
		var evt contracts.BookingConfirmed
		if err = json.Unmarshal(msg.Body, &evt); err != nil {
			log.Printf("[AnalyticsConsumer] failed to unmarshal %s: %v", msg.RoutingKey, err)
			msg.Nack(false, false)
			return
		}
		err = c.HandleConfirmed(context.Background(), idempotency.DeliveryMessageID(msg, evt.MessageID()), evt)
	case contracts.RoutingKeyBookingCancelled:
		var evt contracts.BookingCancelled
		if err = json.Unmarshal(msg.Body, &evt); err != nil {
			log.Printf("[AnalyticsConsumer] failed to unmarshal %s: %v", msg.RoutingKey, err)
			msg.Nack(false, false)
			return
		}
		err = c.HandleCancelled(context.Background(), idempotency.DeliveryMessageID(msg, evt.MessageID()), evt)
	default:
		log.Printf("[AnalyticsConsumer] unexpected routing key %s, dropping", msg.RoutingKey)
		msg.Nack(false, false)
		return
	}

	if err != nil {
		log.Printf("[AnalyticsConsumer] failed to process %s: %v", msg.RoutingKey, err)
		msg.Nack(false, true)
		return
	}

	msg.Ack(false)
}

func (c *BookingEventsConsumer) HandleConfirmed(ctx context.Context, msgID string, evt contracts.BookingConfirmed) error {
	return idempotency.Process(ctx, c.db, msgID, func(tx *gorm.DB) error {
		metricDate := datatypes.Date(c.now().UTC().Truncate(24 * time.Hour))
		if err := repository.BumpDailyMetric(tx, evt.PropertyID, evt.UnitID, metricDate, 1, 0); err != nil {
			return err
		}

		var dayErr error
		evt.EachDay(func(day time.Time) {
			if dayErr != nil {
				return
			}
			dayErr = repository.BumpOccupiedDay(tx, evt.PropertyID, evt.UnitID, day)
		})
		return dayErr
	})
}

func (c *BookingEventsConsumer) HandleCancelled(ctx context.Context, msgID string, evt contracts.BookingCancelled) error {
	return idempotency.Process(ctx, c.db, msgID, func(tx *gorm.DB) error {
		metricDate := datatypes.Date(evt.CancelledAt.UTC().Truncate(24 * time.Hour))
		return repository.BumpDailyMetric(tx, evt.PropertyID, evt.UnitID, metricDate, 0, 1)
	})
}
