package booking

import (
	"math/rand"
	"testing"
	"time"

	"wypozyczalnia/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name                   string
		aFrom, aTo, bFrom, bTo time.Time
		want                   bool
	}{
		{"adjacent before", at(10, 0), at(12, 0), at(8, 0), at(10, 0), false},
		{"adjacent after", at(10, 0), at(12, 0), at(12, 0), at(14, 0), false},
		{"disjoint", at(10, 0), at(11, 0), at(13, 0), at(14, 0), false},
		{"partial", at(10, 0), at(12, 0), at(11, 0), at(13, 0), true},
		{"nested", at(10, 0), at(12, 0), at(10, 30), at(11, 0), true},
		{"same", at(10, 0), at(12, 0), at(10, 0), at(12, 0), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Overlaps(tt.aFrom, tt.aTo, tt.bFrom, tt.bTo))
			assert.Equal(t, tt.want, Overlaps(tt.bFrom, tt.bTo, tt.aFrom, tt.aTo))
		})
	}
}

func TestOverlaps_MatchesDefinition(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 1000; i++ {
		a1 := at(0, rng.Intn(600))
		a2 := a1.Add(time.Duration(1+rng.Intn(120)) * time.Minute)
		b1 := at(0, rng.Intn(600))
		b2 := b1.Add(time.Duration(1+rng.Intn(120)) * time.Minute)

		want := a1.Before(b2) && b1.Before(a2)
		assert.Equal(t, want, Overlaps(a1, a2, b1, b2))
		if a2.Equal(b1) {
			assert.False(t, Overlaps(a1, a2, b1, b2))
		}
	}
}

func TestCountOverlaps(t *testing.T) {
	reservations := []models.Reservation{
		{ID: 1, ItemID: 1, From: at(9, 0), To: at(11, 0)},
		{ID: 2, ItemID: 1, From: at(9, 0), To: at(11, 0)},
		{ID: 3, ItemID: 1, From: at(11, 0), To: at(12, 0)},
		{ID: 4, ItemID: 2, From: at(9, 0), To: at(11, 0)},
	}

	assert.Equal(t, 2, CountOverlaps(reservations, 1, at(10, 0), at(10, 30), 0))
	assert.Equal(t, 1, CountOverlaps(reservations, 1, at(10, 0), at(10, 30), 2))
	assert.Equal(t, 3, CountOverlaps(reservations, 1, at(10, 0), at(11, 30), 0))
	assert.Equal(t, 0, CountOverlaps(reservations, 1, at(12, 0), at(13, 0), 0))
	assert.Equal(t, 1, CountOverlaps(reservations, 2, at(8, 0), at(9, 30), 0))
	assert.Equal(t, 0, CountOverlaps(nil, 1, at(8, 0), at(9, 30), 0))
}
