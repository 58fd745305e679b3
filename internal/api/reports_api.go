package api

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"wypozyczalnia/internal/booking"
	"wypozyczalnia/internal/metrics"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// handleReservationReport streams the XLSX export. Admin only.
// Without from/to the current calendar month is exported.
// GET /api/reports/reservations.xlsx?from=&to=
func (s *HTTPServer) handleReservationReport(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("reports_reservations")

	if s.reports == nil {
		writeError(w, http.StatusNotFound, CodeNotFound, "reports are disabled")
		return
	}

	userID, ok := actingUser(w, r)
	if !ok {
		return
	}
	if err := s.access.RequireAdmin(r.Context(), userID); err != nil {
		s.writeEngineError(w, err)
		return
	}

	from, to, ok := parseWindow(w, r, false)
	if !ok {
		return
	}
	if from.IsZero() {
		now := time.Now().UTC()
		from = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	}
	if to.IsZero() {
		to = from.AddDate(0, 1, 0)
	}
	if !booking.ValidInterval(from, to) {
		writeError(w, http.StatusUnprocessableEntity, booking.CodeInvalidInterval, booking.ErrInvalidInterval.Error())
		return
	}

	// A failed export answers with a JSON error, never a truncated file.
	var buf bytes.Buffer
	if err := s.reports.WriteReservationReport(r.Context(), &buf, from, to); err != nil {
		s.writeEngineError(w, err)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="reservations_%s_%s.xlsx"`,
		from.Format("20060102"), to.Format("20060102")))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
