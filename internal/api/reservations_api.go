package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"wypozyczalnia/internal/booking"
	"wypozyczalnia/internal/metrics"
)

// ReservationRequest is the body of POST and PUT /api/reservations.
type ReservationRequest struct {
	ItemID       int64     `json:"item_id"`
	From         time.Time `json:"from"` // RFC3339
	To           time.Time `json:"to"`   // RFC3339
	IsStudent    bool      `json:"is_student"`
	StudentEmail string    `json:"student_email,omitempty"`
}

// handleCreateReservation admits a new reservation for the acting user.
// POST /api/reservations
func (s *HTTPServer) handleCreateReservation(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("reservations_create")

	userID, ok := actingUser(w, r)
	if !ok {
		return
	}
	req, ok := decodeReservation(w, r)
	if !ok {
		return
	}

	res, err := s.engine.Admit(r.Context(), booking.Request{
		ItemID:       req.ItemID,
		UserID:       userID,
		From:         req.From,
		To:           req.To,
		IsStudent:    req.IsStudent,
		StudentEmail: req.StudentEmail,
	})
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// handleUpdateReservation re-admits an existing reservation with new parameters. Admin only.
// PUT /api/reservations/{id}
func (s *HTTPServer) handleUpdateReservation(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("reservations_update")

	id, ok := pathID(w, r)
	if !ok {
		return
	}
	userID, ok := actingUser(w, r)
	if !ok {
		return
	}
	if err := s.access.CanModifyReservation(r.Context(), userID); err != nil {
		s.writeEngineError(w, err)
		return
	}
	req, ok := decodeReservation(w, r)
	if !ok {
		return
	}

	res, err := s.engine.Admit(r.Context(), booking.Request{
		ItemID:       req.ItemID,
		UserID:       userID,
		From:         req.From,
		To:           req.To,
		IsStudent:    req.IsStudent,
		StudentEmail: req.StudentEmail,
		EditingID:    id,
	})
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleDeleteReservation hard-deletes a reservation. Admin only.
// DELETE /api/reservations/{id}
func (s *HTTPServer) handleDeleteReservation(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("reservations_delete")

	id, ok := pathID(w, r)
	if !ok {
		return
	}
	userID, ok := actingUser(w, r)
	if !ok {
		return
	}
	if err := s.access.CanModifyReservation(r.Context(), userID); err != nil {
		s.writeEngineError(w, err)
		return
	}

	if err := s.engine.Delete(r.Context(), id); err != nil {
		s.writeEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleGetReservation returns one reservation.
// GET /api/reservations/{id}
func (s *HTTPServer) handleGetReservation(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("reservations_get")

	id, ok := pathID(w, r)
	if !ok {
		return
	}
	res, err := s.engine.Get(r.Context(), id)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleListReservations lists reservations ordered by start.
// GET /api/reservations?item_id=&user_id=&from=&to=
func (s *HTTPServer) handleListReservations(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("reservations_list")

	var filter booking.ReservationFilter
	q := r.URL.Query()

	for name, dst := range map[string]*int64{"item_id": &filter.ItemID, "user_id": &filter.UserID} {
		v := q.Get(name)
		if v == "" {
			continue
		}
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, CodeBadRequest, "invalid "+name)
			return
		}
		*dst = n
	}

	from, to, ok := parseWindow(w, r, false)
	if !ok {
		return
	}
	filter.From, filter.To = from, to

	list, err := s.engine.List(r.Context(), filter)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func decodeReservation(w http.ResponseWriter, r *http.Request) (*ReservationRequest, bool) {
	var req ReservationRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "invalid JSON body")
		return nil, false
	}
	if req.ItemID <= 0 {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "item_id is required")
		return nil, false
	}
	return &req, true
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "invalid id")
		return 0, false
	}
	return id, true
}

func actingUser(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.Header.Get(headerUserID), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, CodeBadRequest, headerUserID+" header is required")
		return 0, false
	}
	return id, true
}

// parseWindow reads the RFC3339 from/to query parameters.
func parseWindow(w http.ResponseWriter, r *http.Request, required bool) (from, to time.Time, ok bool) {
	q := r.URL.Query()
	for name, dst := range map[string]*time.Time{"from": &from, "to": &to} {
		v := q.Get(name)
		if v == "" {
			if required {
				writeError(w, http.StatusBadRequest, CodeBadRequest, name+" is required")
				return time.Time{}, time.Time{}, false
			}
			continue
		}
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, CodeBadRequest, "invalid "+name+"; expected RFC3339")
			return time.Time{}, time.Time{}, false
		}
		*dst = t
	}
	return from, to, true
}
