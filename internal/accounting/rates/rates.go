// Package rates resolves the rate that applies to a unit on a given date.
// Resolution is a pure function over the unit's rate records; callers load
// the records and decide what to do when nothing applies.
package rates

import (
	"time"

	"github.com/rentora/backoffice/internal/accounting/models"
)

// ActiveAt returns the first active rate whose inclusive effective window
// contains asOf, or nil. A nil EffectiveFrom or EffectiveTo leaves that side
// of the window open.
func ActiveAt(records []models.UnitRate, asOf time.Time) *models.UnitRate {
	for i := range records {
		r := &records[i]
		if !r.IsActive {
			continue
		}
		if r.EffectiveFrom != nil && asOf.Before(time.Time(*r.EffectiveFrom)) {
			continue
		}
		if r.EffectiveTo != nil && asOf.After(time.Time(*r.EffectiveTo)) {
			continue
		}
		return r
	}
	return nil
}
