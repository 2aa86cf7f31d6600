package product

import (
	"math"
	"time"
)

// DaysLeft computes ceil((expiry date - current date) in days). The result
// is negative once the expiry date has passed. Both operands are truncated
// to calendar dates first so the time-of-day never shifts the boundary; the
// same formula is used whether the value comes from the days_left view or a
// local computation.
func DaysLeft(expiryDate, now time.Time) int {
	expiry := time.Date(expiryDate.Year(), expiryDate.Month(), expiryDate.Day(), 0, 0, 0, 0, time.UTC)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	return int(math.Ceil(expiry.Sub(today).Hours() / 24))
}
