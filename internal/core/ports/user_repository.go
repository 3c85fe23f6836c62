package ports

import (
	"context"

	"github.com/estateline/crm-api/internal/core/domain"
)

// ListUsersFilter narrows the user listing.
type ListUsersFilter struct {
	Search string // substring match on name or email
	Role   string // exact role, empty = all
}

// UserRepository defines persistence operations for user accounts.
type UserRepository interface {
	Create(ctx context.Context, u *domain.User) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context, filter ListUsersFilter) ([]*domain.User, error)
	Update(ctx context.Context, u *domain.User) error
	// TeamMemberIDs returns the IDs of all users reporting to the manager.
	TeamMemberIDs(ctx context.Context, managerID string) ([]string, error)
}
