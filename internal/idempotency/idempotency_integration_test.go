//go:build integration

package idempotency

import (
	"fmt"
	"log"
	"os"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testDB *gorm.DB

func TestMain(m *testing.M) {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		getEnv("TEST_DB_HOST", "localhost"),
		getEnv("TEST_DB_PORT", "5434"),
		getEnv("TEST_DB_USER", "postgres"),
		getEnv("TEST_DB_PASSWORD", "postgres"),
		getEnv("TEST_DB_NAME", "booking_test_db"),
	)

	var err error
	testDB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		log.Fatalf("failed to connect to test database: %v", err)
	}

	testDB.Exec("DROP TABLE IF EXISTS effect_rows")
	testDB.Exec("DROP TABLE IF EXISTS processed_messages")

	if err := testDB.AutoMigrate(&ProcessedMessage{}, &effectRow{}); err != nil {
		log.Fatalf("failed to auto-migrate test database: %v", err)
	}

	code := m.Run()

	testDB.Exec("DROP TABLE IF EXISTS effect_rows")
	testDB.Exec("DROP TABLE IF EXISTS processed_messages")

	os.Exit(code)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// effectRow stands in for a consumer's real side effect.
type effectRow struct {
	ID        uint   `gorm:"primaryKey"`
	MessageID string `gorm:"not null"`
}

func cleanTables() {
	testDB.Exec("DELETE FROM effect_rows")
	testDB.Exec("DELETE FROM processed_messages")
}

func countRows(t *testing.T, model any, messageID string) int64 {
	t.Helper()
	var count int64
	require.NoError(t, testDB.Model(model).Where("message_id = ?", messageID).Count(&count).Error)
	return count
}

func TestProcess_SequentialRedelivery(t *testing.T) {
	cleanTables()
	const msgID = "booking-123"

	var calls int
	effect := func(tx *gorm.DB) error {
		calls++
		return tx.Create(&effectRow{MessageID: msgID}).Error
	}

	require.NoError(t, Process(t.Context(), testDB, msgID, effect))
	require.NoError(t, Process(t.Context(), testDB, msgID, effect))
	require.NoError(t, Process(t.Context(), testDB, msgID, effect))

	assert.Equal(t, 1, calls, "effect must run once")
	assert.Equal(t, int64(1), countRows(t, &effectRow{}, msgID))
	assert.Equal(t, int64(1), countRows(t, &ProcessedMessage{}, msgID))
}

func TestProcess_ConcurrentDelivery(t *testing.T) {
	cleanTables()
	const msgID = "booking-456"

	var applied atomic.Int32
	var wg sync.WaitGroup
	workers := 10

	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			err := Process(t.Context(), testDB, msgID, func(tx *gorm.DB) error {
				applied.Add(1)
				return tx.Create(&effectRow{MessageID: msgID}).Error
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	// The effect callback may run more than once, but only one run commits.
	assert.Equal(t, int64(1), countRows(t, &effectRow{}, msgID), "exactly one committed effect")
	assert.Equal(t, int64(1), countRows(t, &ProcessedMessage{}, msgID), "exactly one ledger row")
	assert.GreaterOrEqual(t, applied.Load(), int32(1))
}

func TestProcess_FailedEffectLeavesNoLedgerRow(t *testing.T) {
	cleanTables()
	const msgID = "booking-789"

	boom := fmt.Errorf("transient failure")
	err := Process(t.Context(), testDB, msgID, func(tx *gorm.DB) error {
		if err := tx.Create(&effectRow{MessageID: msgID}).Error; err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	assert.Equal(t, int64(0), countRows(t, &effectRow{}, msgID), "failed effect rolled back")
	assert.Equal(t, int64(0), countRows(t, &ProcessedMessage{}, msgID), "no ledger row, broker may redeliver")

	// The redelivery then succeeds.
	require.NoError(t, Process(t.Context(), testDB, msgID, func(tx *gorm.DB) error {
		return tx.Create(&effectRow{MessageID: msgID}).Error
	}))
	assert.Equal(t, int64(1), countRows(t, &effectRow{}, msgID))
}
