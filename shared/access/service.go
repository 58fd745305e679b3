// Package access decides what an authenticated caller may do.
package access

import (
	"context"
	"errors"
	"fmt"

	"wypozyczalnia/internal/models"

	"github.com/rs/zerolog"
)

// RoleRepository looks up stored user roles. found is false for unknown users.
type RoleRepository interface {
	UserRole(ctx context.Context, userID int64) (role models.Role, found bool, err error)
}

// Service resolves roles from the configured admin list and the users table.
type Service struct {
	roles  RoleRepository
	admins map[int64]struct{}
	logger zerolog.Logger
}

// NewService creates a new access control service. Users listed in admins are always admins.
func NewService(roles RoleRepository, admins []int64, logger zerolog.Logger) *Service {
	set := make(map[int64]struct{}, len(admins))
	for _, id := range admins {
		set[id] = struct{}{}
	}
	return &Service{
		roles:  roles,
		admins: set,
		logger: logger.With().Str("component", "access").Logger(),
	}
}

// Role returns the caller's role. Unknown users are regular users.
func (s *Service) Role(ctx context.Context, userID int64) (models.Role, error) {
	if _, ok := s.admins[userID]; ok {
		return models.RoleAdmin, nil
	}
	if s.roles == nil {
		return models.RoleUser, nil
	}

	role, found, err := s.roles.UserRole(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("look up role of user %d: %w", userID, err)
	}
	if !found {
		return models.RoleUser, nil
	}
	return role, nil
}

// IsAdmin checks if a user is an administrator.
func (s *Service) IsAdmin(ctx context.Context, userID int64) (bool, error) {
	role, err := s.Role(ctx, userID)
	if err != nil {
		return false, err
	}
	return role == models.RoleAdmin, nil
}

// RequireAdmin returns an *AccessDeniedError unless userID is an administrator.
func (s *Service) RequireAdmin(ctx context.Context, userID int64) error {
	ok, err := s.IsAdmin(ctx, userID)
	if err != nil {
		return fmt.Errorf("checking admin status: %w", err)
	}
	if !ok {
		s.logger.Warn().Int64("user_id", userID).Msg("admin action denied")
		return &AccessDeniedError{Reason: "only administrators may do this"}
	}
	return nil
}

// CanModifyReservation reports whether userID may edit or delete existing reservations.
// Only administrators can.
func (s *Service) CanModifyReservation(ctx context.Context, userID int64) error {
	return s.RequireAdmin(ctx, userID)
}

// AccessDeniedError is returned when user access is denied.
type AccessDeniedError struct {
	Reason string
}

func (e *AccessDeniedError) Error() string {
	return e.Reason
}

// IsAccessDenied checks if error is access denied.
func IsAccessDenied(err error) bool {
	var denied *AccessDeniedError
	return errors.As(err, &denied)
}
