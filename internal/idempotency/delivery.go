package idempotency

import amqp "github.com/rabbitmq/amqp091-go"

// DeliveryMessageID prefers the broker-assigned message id and falls back to
// the fact's own identity, so deduplication works even for messages injected
// without properties.
func DeliveryMessageID(msg amqp.Delivery, fallback string) string {
	if msg.MessageId != "" {
		return msg.MessageId
	}
	return fallback
}
