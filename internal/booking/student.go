package booking

import "strings"

// ValidateStudent checks the student claim of a reservation request.
// Non-students always pass. A student needs an email whose domain contains "student".
func ValidateStudent(isStudent bool, email string) error {
	if !isStudent {
		return nil
	}

	email = strings.TrimSpace(email)
	if email == "" {
		return &StudentValidationError{Reason: ErrMissingEmail}
	}

	// The domain is what follows the first '@', up to any further '@'.
	_, rest, ok := strings.Cut(email, "@")
	if !ok {
		return &StudentValidationError{Reason: ErrInvalidDomain}
	}

	domain, _, _ := strings.Cut(rest, "@")
	if domain == "" || !strings.Contains(strings.ToLower(domain), "student") {
		return &StudentValidationError{Reason: ErrInvalidDomain}
	}
	return nil
}
