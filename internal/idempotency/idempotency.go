// Package idempotency bounds message effects to at-most-once per message
// identity. Every consuming service keeps its own processed_messages table in
// its own database; the unique index on message_id is the only
// synchronization between concurrent deliveries.
package idempotency

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

// ProcessedMessage records that a message identity has been fully applied.
// Its existence implies the effect was committed in the same transaction.
type ProcessedMessage struct {
	ID          uint      `gorm:"primaryKey"`
	MessageID   string    `gorm:"uniqueIndex;not null"`
	ProcessedAt time.Time `gorm:"not null"`
}

// alreadyApplied aborts the transaction without surfacing an error: a
// concurrent delivery won the ledger insert, so our effect must be rolled
// back, not committed twice.
var alreadyApplied = errors.New("message already applied")

// Process applies effect exactly once for the given message identity.
//
// A redelivered message hits the fast-path ledger check and returns nil
// without touching the effect. Otherwise the effect and the ledger insert
// run in one transaction: if the effect fails nothing is recorded and the
// broker may redeliver; if the ledger insert hits the unique index a
// concurrent delivery already applied the effect and this attempt rolls back
// and reports success.
func Process(ctx context.Context, db *gorm.DB, messageID string, effect func(tx *gorm.DB) error) error {
	var count int64
	if err := db.WithContext(ctx).
		Model(&ProcessedMessage{}).
		Where("message_id = ?", messageID).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := effect(tx); err != nil {
			return err
		}

		record := ProcessedMessage{MessageID: messageID, ProcessedAt: time.Now().UTC()}
		if err := tx.Create(&record).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return alreadyApplied
			}
			return err
		}
		return nil
	})

	if errors.Is(err, alreadyApplied) {
		return nil
	}
	return err
}
