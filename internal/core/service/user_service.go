package service

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/estateline/crm-api/internal/core/domain"
	"github.com/estateline/crm-api/internal/core/ports"
)

// UserService implements admin account management and profile self-updates.
type UserService struct {
	users  ports.UserRepository
	logger zerolog.Logger
}

func NewUserService(users ports.UserRepository, logger zerolog.Logger) *UserService {
	return &UserService{users: users, logger: logger}
}

func (s *UserService) ListUsers(ctx context.Context, filter ports.ListUsersFilter) ([]*domain.User, error) {
	return s.users.List(ctx, filter)
}

func (s *UserService) Managers(ctx context.Context) ([]*domain.User, error) {
	return s.users.List(ctx, ports.ListUsersFilter{Role: domain.RoleManager})
}

// AvailableUsers returns assignable agents. Managers only see their own team.
func (s *UserService) AvailableUsers(ctx context.Context, caller ports.Caller) ([]*domain.User, error) {
	agents, err := s.users.List(ctx, ports.ListUsersFilter{Role: domain.RoleUser})
	if err != nil {
		return nil, err
	}
	if caller.Role != domain.RoleManager {
		return agents, nil
	}
	team := agents[:0]
	for _, u := range agents {
		if u.ManagerID == caller.UserID {
			team = append(team, u)
		}
	}
	return team, nil
}

func (s *UserService) UpdateUser(ctx context.Context, input ports.UpdateUserInput) (*domain.User, error) {
	user, err := s.users.FindByID(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	if input.Role != "" && !domain.ValidRole(input.Role) {
		return nil, domain.ErrInvalidCredentials
	}

	if input.Name != "" {
		user.Name = input.Name
	}
	if input.Email != "" {
		user.Email = strings.ToLower(input.Email)
	}
	if input.Role != "" {
		user.Role = input.Role
	}

	switch user.Role {
	case domain.RoleUser:
		managerID := input.ManagerID
		if managerID == "" {
			managerID = user.ManagerID
		}
		if managerID == "" {
			return nil, domain.ErrManagerRequired
		}
		if managerID == user.ID {
			return nil, domain.ErrNotAManager
		}
		manager, err := s.users.FindByID(ctx, managerID)
		if err != nil {
			return nil, err
		}
		if manager.Role != domain.RoleManager {
			return nil, domain.ErrNotAManager
		}
		user.ManagerID = managerID
	default:
		// promoting to manager or admin clears any previous manager link
		user.ManagerID = ""
	}

	if input.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = string(hash)
	}

	user.UpdatedAt = time.Now().UTC()
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info().Str("user_id", user.ID).Str("role", user.Role).Msg("user updated")
	return user, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, input ports.UpdateProfileInput) (*domain.User, error) {
	user, err := s.users.FindByID(ctx, input.UserID)
	if err != nil {
		return nil, err
	}

	if input.Name != "" {
		user.Name = input.Name
	}
	if input.Email != "" {
		user.Email = strings.ToLower(input.Email)
	}
	if input.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = string(hash)
	}

	user.UpdatedAt = time.Now().UTC()
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
