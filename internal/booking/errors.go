package booking

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInterval         = errors.New("invalid interval: from must be before to, both between 1970 and 2200")
	ErrStudentValidationFailed = errors.New("student validation failed")
	ErrMissingEmail            = errors.New("student email is required")
	ErrInvalidDomain           = errors.New("student email domain must contain \"student\"")
	ErrItemNotFound            = errors.New("item not found")
	ErrReservationNotFound     = errors.New("reservation not found")
	ErrCapacityExceeded        = errors.New("item is fully booked for the requested interval")
	ErrConcurrencyConflict     = errors.New("concurrent admission conflict, retry")
	ErrInvalidQuantity         = errors.New("invalid item quantity")
	ErrStorageFailure          = errors.New("storage failure")
)

// StudentValidationError carries the reason a student claim was rejected.
type StudentValidationError struct {
	Reason error
}

func (e *StudentValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrStudentValidationFailed, e.Reason)
}

func (e *StudentValidationError) Unwrap() error { return e.Reason }

func (e *StudentValidationError) Is(target error) bool {
	return target == ErrStudentValidationFailed
}

// StorageError wraps a persistence failure. It is never retried by the engine.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrStorageFailure, e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) Is(target error) bool {
	return target == ErrStorageFailure
}

// Rejection codes returned to the request layer.
const (
	CodeInvalidInterval     = "INVALID_INTERVAL"
	CodeMissingEmail        = "MISSING_EMAIL"
	CodeInvalidDomain       = "INVALID_DOMAIN"
	CodeItemNotFound        = "ITEM_NOT_FOUND"
	CodeReservationNotFound = "RESERVATION_NOT_FOUND"
	CodeCapacityExceeded    = "CAPACITY_EXCEEDED"
	CodeConcurrencyConflict = "CONCURRENCY_CONFLICT"
	CodeInvalidQuantity     = "INVALID_QUANTITY"
	CodeStorageFailure      = "STORAGE_FAILURE"
)

// RejectionCode maps an engine error to a stable code. Unknown errors map to STORAGE_FAILURE.
func RejectionCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidInterval):
		return CodeInvalidInterval
	case errors.Is(err, ErrMissingEmail):
		return CodeMissingEmail
	case errors.Is(err, ErrInvalidDomain):
		return CodeInvalidDomain
	case errors.Is(err, ErrItemNotFound):
		return CodeItemNotFound
	case errors.Is(err, ErrReservationNotFound):
		return CodeReservationNotFound
	case errors.Is(err, ErrCapacityExceeded):
		return CodeCapacityExceeded
	case errors.Is(err, ErrConcurrencyConflict):
		return CodeConcurrencyConflict
	case errors.Is(err, ErrInvalidQuantity):
		return CodeInvalidQuantity
	default:
		return CodeStorageFailure
	}
}

// IsRejection reports whether err is an expected, user-facing outcome rather than an internal fault.
func IsRejection(err error) bool {
	return err != nil && RejectionCode(err) != CodeStorageFailure
}
