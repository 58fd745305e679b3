package booking

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"wypozyczalnia/internal/models"
)

// memStore is an in-memory Store. Its transactions do not serialize anything,
// so overbooking protection in tests comes from the Service alone.
type memStore struct {
	mu           sync.Mutex
	items        map[int64]models.EquipmentItem
	reservations map[int64]models.Reservation
	nextID       int64

	insertErr error
	txErr     error
	// countDelay widens the check-then-act window.
	countDelay time.Duration
}

func newMemStore(items ...models.EquipmentItem) *memStore {
	m := &memStore{
		items:        make(map[int64]models.EquipmentItem),
		reservations: make(map[int64]models.Reservation),
		nextID:       1,
	}
	for _, it := range items {
		m.items[it.ID] = it
	}
	return m
}

func (m *memStore) GetItem(_ context.Context, id int64) (*models.EquipmentItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[id]
	if !ok {
		return nil, ErrItemNotFound
	}
	return &it, nil
}

func (m *memStore) GetReservation(_ context.Context, id int64) (*models.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reservations[id]
	if !ok {
		return nil, ErrReservationNotFound
	}
	return &r, nil
}

func (m *memStore) CountOverlapping(_ context.Context, itemID int64, from, to time.Time, excludeID int64) (int, error) {
	m.mu.Lock()
	all := make([]models.Reservation, 0, len(m.reservations))
	for _, r := range m.reservations {
		all = append(all, r)
	}
	delay := m.countDelay
	m.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	return CountOverlaps(all, itemID, from, to, excludeID), nil
}

func (m *memStore) ListReservations(_ context.Context, filter ReservationFilter) ([]models.Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Reservation, 0)
	for _, r := range m.reservations {
		if filter.Matches(&r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].From.Before(out[j].From) })
	return out, nil
}

func (m *memStore) DeleteReservation(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.reservations[id]; !ok {
		return ErrReservationNotFound
	}
	delete(m.reservations, id)
	return nil
}

func (m *memStore) WithTx(_ context.Context, fn func(tx Tx) error) error {
	if m.txErr != nil {
		return m.txErr
	}
	return fn(m)
}

func (m *memStore) InsertReservation(_ context.Context, r *models.Reservation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return m.insertErr
	}
	r.ID = m.nextID
	m.nextID++
	m.reservations[r.ID] = *r
	return nil
}

func (m *memStore) UpdateReservation(_ context.Context, r *models.Reservation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.reservations[r.ID]; !ok {
		return ErrReservationNotFound
	}
	m.reservations[r.ID] = *r
	return nil
}

func (m *memStore) SetItemQuantity(_ context.Context, itemID int64, quantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[itemID]
	if !ok {
		return ErrItemNotFound
	}
	it.Quantity = quantity
	m.items[itemID] = it
	return nil
}

func (m *memStore) all() []models.Reservation {
	list, _ := m.ListReservations(context.Background(), ReservationFilter{})
	return list
}

// failingLocker never grants a lock.
type failingLocker struct{ err error }

func (f failingLocker) Acquire(context.Context, string) (func(), error) {
	return nil, f.err
}

// noLocker grants every lock immediately.
type noLocker struct{}

func (noLocker) Acquire(context.Context, string) (func(), error) {
	return func() {}, nil
}

type recordedEvent struct {
	Type    string
	Payload any
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (p *recordingPublisher) Publish(eventType string, payload any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, recordedEvent{Type: eventType, Payload: payload})
}

var errDiskFull = errors.New("disk full")
