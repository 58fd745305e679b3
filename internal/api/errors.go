package api

import (
	"net/http"

	"wypozyczalnia/internal/booking"
	"wypozyczalnia/shared/access"
)

// Codes for failures that happen before the engine is reached.
const (
	CodeBadRequest   = "BAD_REQUEST"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"
	CodeRateLimited  = "RATE_LIMITED"
	CodeNotFound     = "NOT_FOUND"
)

// statusFor maps an engine rejection code to its HTTP status.
func statusFor(code string) int {
	switch code {
	case booking.CodeInvalidInterval, booking.CodeMissingEmail, booking.CodeInvalidDomain, booking.CodeInvalidQuantity:
		return http.StatusUnprocessableEntity
	case booking.CodeItemNotFound, booking.CodeReservationNotFound:
		return http.StatusNotFound
	case booking.CodeCapacityExceeded, booking.CodeConcurrencyConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeEngineError renders an error returned by the engine or an Authorizer.
func (s *HTTPServer) writeEngineError(w http.ResponseWriter, err error) {
	if access.IsAccessDenied(err) {
		writeError(w, http.StatusForbidden, CodeForbidden, err.Error())
		return
	}

	code := booking.RejectionCode(err)
	status := statusFor(code)

	message := err.Error()
	if status == http.StatusInternalServerError {
		s.logger.Error().Err(err).Msg("request failed")
		message = "internal storage failure"
	}
	if code == booking.CodeConcurrencyConflict {
		w.Header().Set("Retry-After", "1")
	}
	writeError(w, status, code, message)
}
