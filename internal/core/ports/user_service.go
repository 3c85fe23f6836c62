package ports

import (
	"context"

	"github.com/estateline/crm-api/internal/core/domain"
)

// UpdateUserInput carries an admin-side user edit. Password is optional;
// when present it replaces the stored hash. Switching Role to "manager" or
// "admin" clears ManagerID; Role "user" requires one.
type UpdateUserInput struct {
	ID        string
	Name      string
	Email     string
	Password  string
	Role      string
	ManagerID string
}

// UpdateProfileInput is the self-service subset of a user edit.
type UpdateProfileInput struct {
	UserID   string
	Name     string
	Email    string
	Password string
}

// UserService defines admin and self-service account operations.
type UserService interface {
	ListUsers(ctx context.Context, filter ListUsersFilter) ([]*domain.User, error)
	Managers(ctx context.Context) ([]*domain.User, error)
	// AvailableUsers returns assignable agents (role "user"), scoped to the
	// caller's team when the caller is a manager.
	AvailableUsers(ctx context.Context, caller Caller) ([]*domain.User, error)
	UpdateUser(ctx context.Context, input UpdateUserInput) (*domain.User, error)
	UpdateProfile(ctx context.Context, input UpdateProfileInput) (*domain.User, error)
}
