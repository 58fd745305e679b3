package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRegisterIsIdempotent(t *testing.T) {
	assert.NotPanics(t, func() {
		Register()
		Register()
	})
}

func TestObserveAdmission(t *testing.T) {
	before := testutil.ToFloat64(admissions.WithLabelValues("CAPACITY_EXCEEDED"))

	ObserveAdmission("CAPACITY_EXCEEDED", 3*time.Millisecond)
	ObserveAdmission("CAPACITY_EXCEEDED", time.Millisecond)

	assert.Equal(t, before+2, testutil.ToFloat64(admissions.WithLabelValues("CAPACITY_EXCEEDED")))
}

func TestCounters(t *testing.T) {
	deleted := testutil.ToFloat64(reservationsDeleted)
	IncReservationDeleted()
	assert.Equal(t, deleted+1, testutil.ToFloat64(reservationsDeleted))

	http := testutil.ToFloat64(httpRequests.WithLabelValues("items"))
	IncHTTP("items")
	assert.Equal(t, http+1, testutil.ToFloat64(httpRequests.WithLabelValues("items")))

	limited := testutil.ToFloat64(rateLimited)
	IncRateLimited()
	assert.Equal(t, limited+1, testutil.ToFloat64(rateLimited))
}
