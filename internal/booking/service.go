package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"wypozyczalnia/internal/events"
	"wypozyczalnia/internal/lock"
	"wypozyczalnia/internal/metrics"
	"wypozyczalnia/internal/models"

	"github.com/rs/zerolog"
)

const (
	defaultAdmissionTimeout = 5 * time.Second
	outcomeCommitted        = "COMMITTED"
)

// Request asks the engine to admit a new reservation, or to re-admit an existing one when EditingID is set.
type Request struct {
	ItemID       int64
	UserID       int64
	From         time.Time
	To           time.Time
	IsStudent    bool
	StudentEmail string
	EditingID    int64
}

// Availability is an advisory snapshot of an item's load over an interval.
type Availability struct {
	ItemID    int64 `json:"item_id"`
	Quantity  int   `json:"quantity"`
	Reserved  int   `json:"reserved"`
	Available int   `json:"available"`
}

// Options tunes a Service.
type Options struct {
	// AdmissionTimeout bounds the lock wait plus the transaction. Defaults to 5s.
	AdmissionTimeout time.Duration
	Now              func() time.Time
}

// Service is the admission controller. Capacity checks and commits for one item never interleave.
type Service struct {
	store     Store
	locker    lock.Locker
	publisher EventPublisher
	timeout   time.Duration
	now       func() time.Time
	logger    zerolog.Logger
}

// NewService wires the admission controller. publisher may be nil.
func NewService(store Store, locker lock.Locker, publisher EventPublisher, logger *zerolog.Logger, opts Options) *Service {
	if opts.AdmissionTimeout <= 0 {
		opts.AdmissionTimeout = defaultAdmissionTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		store:     store,
		locker:    locker,
		publisher: publisher,
		timeout:   opts.AdmissionTimeout,
		now:       opts.Now,
		logger:    logger.With().Str("component", "booking").Logger(),
	}
}

// Admit validates req, checks capacity under the item's lock and persists the reservation.
func (s *Service) Admit(ctx context.Context, req Request) (*models.Reservation, error) {
	started := time.Now()
	res, err := s.admit(ctx, req)

	outcome := outcomeCommitted
	if err != nil {
		outcome = RejectionCode(err)
	}
	metrics.ObserveAdmission(outcome, time.Since(started))

	var ev *zerolog.Event
	switch {
	case err == nil:
		ev = s.logger.Info()
	case IsRejection(err):
		ev = s.logger.Info().Str("reason", err.Error())
	default:
		ev = s.logger.Error().Err(err)
	}
	ev.Int64("item_id", req.ItemID).
		Int64("user_id", req.UserID).
		Int64("editing_id", req.EditingID).
		Str("outcome", outcome).
		Msg("admission")

	if err != nil {
		return nil, err
	}

	evType := events.ReservationCreated
	if req.EditingID != 0 {
		evType = events.ReservationUpdated
	}
	s.publish(evType, res)
	return res, nil
}

func (s *Service) admit(ctx context.Context, req Request) (*models.Reservation, error) {
	if !ValidInterval(req.From, req.To) {
		return nil, ErrInvalidInterval
	}
	if err := ValidateStudent(req.IsStudent, req.StudentEmail); err != nil {
		return nil, err
	}

	item, err := s.store.GetItem(ctx, req.ItemID)
	if err != nil {
		return nil, s.classify("get item", err)
	}
	if !item.IsActive {
		return nil, ErrItemNotFound
	}
	if req.EditingID != 0 {
		if _, err := s.store.GetReservation(ctx, req.EditingID); err != nil {
			return nil, s.classify("get reservation", err)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	release, err := s.acquire(ctx, item.ID)
	if err != nil {
		return nil, err
	}
	defer release()

	var committed *models.Reservation
	err = s.store.WithTx(ctx, func(tx Tx) error {
		// Quantity may have changed while waiting for the lock.
		current, err := tx.GetItem(ctx, item.ID)
		if err != nil {
			return err
		}
		if !current.IsActive {
			return ErrItemNotFound
		}

		var existing *models.Reservation
		if req.EditingID != 0 {
			existing, err = tx.GetReservation(ctx, req.EditingID)
			if err != nil {
				return err
			}
		}

		count, err := tx.CountOverlapping(ctx, current.ID, req.From, req.To, req.EditingID)
		if err != nil {
			return err
		}
		if count >= current.Quantity {
			return ErrCapacityExceeded
		}

		now := s.now().UTC()
		r := &models.Reservation{
			ItemID:     current.ID,
			UserID:     req.UserID,
			From:       req.From.UTC(),
			To:         req.To.UTC(),
			Customer:   models.CustomerKindOf(req.IsStudent),
			TotalPrice: Price(req.From, req.To, current.PricePerHour, req.IsStudent),
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if req.IsStudent {
			r.StudentEmail = req.StudentEmail
		}

		if existing == nil {
			if err := tx.InsertReservation(ctx, r); err != nil {
				return err
			}
		} else {
			r.ID = existing.ID
			r.UserID = existing.UserID
			r.CreatedAt = existing.CreatedAt
			if err := tx.UpdateReservation(ctx, r); err != nil {
				return err
			}
		}
		committed = r
		return nil
	})
	if err != nil {
		return nil, s.classify("commit reservation", err)
	}
	return committed, nil
}

// Delete hard-deletes a reservation. Removal only frees capacity, so no lock is taken.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.store.DeleteReservation(ctx, id); err != nil {
		err = s.classify("delete reservation", err)
		if !IsRejection(err) {
			s.logger.Error().Err(err).Int64("reservation_id", id).Msg("delete failed")
		}
		return err
	}

	metrics.IncReservationDeleted()
	s.logger.Info().Int64("reservation_id", id).Msg("reservation deleted")
	s.publish(events.ReservationDeleted, map[string]int64{"id": id})
	return nil
}

// SetItemQuantity changes an item's capacity under the same lock admissions take.
// Existing reservations are kept even when they exceed the new quantity.
func (s *Service) SetItemQuantity(ctx context.Context, itemID int64, quantity int) error {
	if quantity < 0 || quantity > models.MaxItemQuantity {
		return fmt.Errorf("%w: must be between 0 and %d, got %d", ErrInvalidQuantity, models.MaxItemQuantity, quantity)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	release, err := s.acquire(ctx, itemID)
	if err != nil {
		return err
	}
	defer release()

	err = s.store.WithTx(ctx, func(tx Tx) error {
		if _, err := tx.GetItem(ctx, itemID); err != nil {
			return err
		}
		return tx.SetItemQuantity(ctx, itemID, quantity)
	})
	if err != nil {
		return s.classify("set item quantity", err)
	}

	s.logger.Info().Int64("item_id", itemID).Int("quantity", quantity).Msg("item quantity changed")
	s.publish(events.ItemQuantityChanged, map[string]int64{"item_id": itemID, "quantity": int64(quantity)})
	return nil
}

// Get returns a reservation by id.
func (s *Service) Get(ctx context.Context, id int64) (*models.Reservation, error) {
	r, err := s.store.GetReservation(ctx, id)
	if err != nil {
		return nil, s.classify("get reservation", err)
	}
	return r, nil
}

// List returns reservations matching filter ordered by start time.
func (s *Service) List(ctx context.Context, filter ReservationFilter) ([]models.Reservation, error) {
	if !inWindow(filter.From) || !inWindow(filter.To) {
		return nil, ErrInvalidInterval
	}
	list, err := s.store.ListReservations(ctx, filter)
	if err != nil {
		return nil, s.classify("list reservations", err)
	}
	return list, nil
}

// Availability reports how many units of an item are free for [from, to).
// The answer is advisory; only Admit decides.
func (s *Service) Availability(ctx context.Context, itemID int64, from, to time.Time) (*Availability, error) {
	if !ValidInterval(from, to) {
		return nil, ErrInvalidInterval
	}

	item, err := s.store.GetItem(ctx, itemID)
	if err != nil {
		return nil, s.classify("get item", err)
	}

	reserved, err := s.store.CountOverlapping(ctx, itemID, from, to, 0)
	if err != nil {
		return nil, s.classify("count overlapping", err)
	}

	free := item.Quantity - reserved
	if free < 0 || !item.IsActive {
		free = 0
	}
	return &Availability{
		ItemID:    item.ID,
		Quantity:  item.Quantity,
		Reserved:  reserved,
		Available: free,
	}, nil
}

func (s *Service) acquire(ctx context.Context, itemID int64) (func(), error) {
	started := time.Now()
	release, err := s.locker.Acquire(ctx, lock.ItemKey(itemID))
	metrics.ObserveLockWait(time.Since(started))
	if err != nil {
		if errors.Is(err, lock.ErrNotAcquired) {
			return nil, fmt.Errorf("%w: %v", ErrConcurrencyConflict, err)
		}
		return nil, &StorageError{Op: "acquire item lock", Err: err}
	}
	return release, nil
}

// classify keeps engine errors as they are and wraps everything else as a storage failure.
func (s *Service) classify(op string, err error) error {
	switch {
	case errors.Is(err, ErrItemNotFound),
		errors.Is(err, ErrReservationNotFound),
		errors.Is(err, ErrCapacityExceeded),
		errors.Is(err, ErrConcurrencyConflict),
		errors.Is(err, ErrStorageFailure):
		return err
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %s: %v", ErrConcurrencyConflict, op, err)
	default:
		return &StorageError{Op: op, Err: err}
	}
}

func (s *Service) publish(eventType string, payload any) {
	if s.publisher == nil {
		return
	}
	s.publisher.Publish(eventType, payload)
}
