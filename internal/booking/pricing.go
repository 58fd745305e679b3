package booking

import (
	"math"
	"time"
)

// StudentDiscountFactor is applied to the base price of student reservations.
const StudentDiscountFactor = 0.8

// Price returns hours * pricePerHour, discounted for students,
// rounded half away from zero to two decimal places.
func Price(from, to time.Time, pricePerHour float64, isStudent bool) float64 {
	hours := to.Sub(from).Hours()
	if hours <= 0 || pricePerHour <= 0 {
		return 0
	}

	total := hours * pricePerHour
	if isStudent {
		total *= StudentDiscountFactor
	}
	return roundCents(total)
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
