package contracts

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"gorm.io/datatypes"
)

func confirmed(start, end time.Time) BookingConfirmed {
	return BookingConfirmed{
		BookingID: uuid.New(),
		StartDate: datatypes.Date(start),
		EndDate:   datatypes.Date(end),
	}
}

func TestBookingConfirmed_Days(t *testing.T) {
	tests := []struct {
		name  string
		start time.Time
		end   time.Time
		want  int
	}{
		{"single day", day(2026, 1, 1), day(2026, 1, 1), 1},
		{"jan 1 to jan 10", day(2026, 1, 1), day(2026, 1, 10), 10},
		{"across month boundary", day(2026, 1, 25), day(2026, 2, 3), 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, confirmed(tt.start, tt.end).Days())
		})
	}
}

func TestBookingConfirmed_EachDay(t *testing.T) {
	evt := confirmed(day(2026, 1, 30), day(2026, 2, 2))

	var days []time.Time
	evt.EachDay(func(d time.Time) { days = append(days, d) })

	assert.Equal(t, []time.Time{
		day(2026, 1, 30), day(2026, 1, 31), day(2026, 2, 1), day(2026, 2, 2),
	}, days)
}

func TestMessageIDs(t *testing.T) {
	id := uuid.New()

	assert.Equal(t, id.String(), BookingConfirmed{BookingID: id}.MessageID())
	assert.Equal(t, "cancel-"+id.String(), BookingCancelled{BookingID: id}.MessageID())
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
