package booking

import (
	"context"
	"time"

	"wypozyczalnia/internal/models"
)

// Reader is the read side shared by Store and Tx.
//
// Implementations return ErrItemNotFound or ErrReservationNotFound for missing rows,
// and an error matching ErrConcurrencyConflict when the write lock cannot be obtained in time.
type Reader interface {
	GetItem(ctx context.Context, id int64) (*models.EquipmentItem, error)
	GetReservation(ctx context.Context, id int64) (*models.Reservation, error)
	// CountOverlapping counts reservations of itemID overlapping [from, to), skipping excludeID.
	CountOverlapping(ctx context.Context, itemID int64, from, to time.Time, excludeID int64) (int, error)
}

// Tx is the transactional boundary the admission critical section runs in.
type Tx interface {
	Reader
	InsertReservation(ctx context.Context, r *models.Reservation) error
	UpdateReservation(ctx context.Context, r *models.Reservation) error
	SetItemQuantity(ctx context.Context, itemID int64, quantity int) error
}

// Store is the persistence collaborator of the Service.
type Store interface {
	Reader
	ListReservations(ctx context.Context, filter ReservationFilter) ([]models.Reservation, error)
	DeleteReservation(ctx context.Context, id int64) error
	// WithTx runs fn in a write transaction, committing when fn returns nil.
	WithTx(ctx context.Context, fn func(tx Tx) error) error
}

// ReservationFilter narrows ListReservations. Zero fields are ignored.
// From and To select reservations overlapping [From, To).
type ReservationFilter struct {
	ItemID int64
	UserID int64
	From   time.Time
	To     time.Time
}

// Matches reports whether r passes the filter.
func (f ReservationFilter) Matches(r *models.Reservation) bool {
	if f.ItemID != 0 && r.ItemID != f.ItemID {
		return false
	}
	if f.UserID != 0 && r.UserID != f.UserID {
		return false
	}
	if !f.From.IsZero() && !r.To.After(f.From) {
		return false
	}
	if !f.To.IsZero() && !r.From.Before(f.To) {
		return false
	}
	return true
}

// EventPublisher receives reservation lifecycle events.
type EventPublisher interface {
	Publish(eventType string, payload any)
}
