package models

import "time"

// CustomerKind distinguishes regular customers from discounted students.
type CustomerKind string

const (
	CustomerRegular CustomerKind = "regular"
	CustomerStudent CustomerKind = "student"
)

// CustomerKindOf maps the request-level student flag to a CustomerKind.
func CustomerKindOf(isStudent bool) CustomerKind {
	if isStudent {
		return CustomerStudent
	}
	return CustomerRegular
}

// Reservation holds one unit of an item for the half-open interval [From, To).
type Reservation struct {
	ID           int64        `json:"id"`
	ItemID       int64        `json:"item_id"`
	UserID       int64        `json:"user_id"`
	From         time.Time    `json:"from"`
	To           time.Time    `json:"to"`
	Customer     CustomerKind `json:"customer"`
	StudentEmail string       `json:"student_email,omitempty"`
	TotalPrice   float64      `json:"total_price"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// IsStudent reports whether the student discount applies.
func (r *Reservation) IsStudent() bool {
	return r.Customer == CustomerStudent
}

// Duration returns the length of the reservation.
func (r *Reservation) Duration() time.Duration {
	return r.To.Sub(r.From)
}

// OverlapsWith checks if this reservation overlaps with another one.
// Intervals are half-open, so back-to-back reservations do not overlap.
func (r *Reservation) OverlapsWith(other *Reservation) bool {
	return r.From.Before(other.To) && other.From.Before(r.To)
}

// ContainsTime reports whether t falls inside [From, To).
func (r *Reservation) ContainsTime(t time.Time) bool {
	return !t.Before(r.From) && t.Before(r.To)
}
