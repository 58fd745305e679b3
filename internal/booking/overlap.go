package booking

import (
	"time"

	"wypozyczalnia/internal/models"
)

// Reservation instants must fall inside [MinTime, MaxTime]. Outside it they no longer
// fit the store's int64 nanosecond columns.
var (
	MinTime = time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)
	MaxTime = time.Date(2200, 1, 1, 0, 0, 0, 0, time.UTC)
)

// ValidInterval reports whether from < to and both ends lie inside [MinTime, MaxTime].
func ValidInterval(from, to time.Time) bool {
	return from.Before(to) && !from.Before(MinTime) && !to.After(MaxTime)
}

func inWindow(t time.Time) bool {
	return t.IsZero() || (!t.Before(MinTime) && !t.After(MaxTime))
}

// Overlaps reports whether [aFrom, aTo) and [bFrom, bTo) share at least one instant.
// Touching boundaries do not overlap.
func Overlaps(aFrom, aTo, bFrom, bTo time.Time) bool {
	return aFrom.Before(bTo) && bFrom.Before(aTo)
}

// CountOverlaps counts reservations of itemID overlapping [from, to).
// The reservation with id excludeID is skipped; pass 0 when admitting a new reservation.
func CountOverlaps(reservations []models.Reservation, itemID int64, from, to time.Time, excludeID int64) int {
	count := 0
	for i := range reservations {
		r := &reservations[i]
		if r.ItemID != itemID {
			continue
		}
		if excludeID != 0 && r.ID == excludeID {
			continue
		}
		if Overlaps(r.From, r.To, from, to) {
			count++
		}
	}
	return count
}
