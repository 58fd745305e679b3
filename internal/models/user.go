package models

import (
	"fmt"
	"strings"
)

// Role is the access level of a user.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// ParseRole converts a raw role name into a Role.
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleUser, "":
		return RoleUser, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// User is an account that can hold reservations.
type User struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Role Role   `json:"role"`
}
