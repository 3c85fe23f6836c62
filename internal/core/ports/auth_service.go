package ports

import (
	"context"

	"github.com/estateline/crm-api/internal/core/domain"
)

// RegisterInput carries a create-user payload. ManagerID is required when
// Role is "user" and must be empty otherwise.
type RegisterInput struct {
	Name      string
	Email     string
	Password  string
	Role      string
	ManagerID string
}

// AuthService implements registration, login and token-derived identity.
type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*domain.User, error)
	Login(ctx context.Context, email, password string) (string, *domain.User, error)
	CurrentUser(ctx context.Context, userID string) (*domain.User, error)
}
