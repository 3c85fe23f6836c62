package service

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/estateline/crm-api/internal/core/domain"
	"github.com/estateline/crm-api/internal/core/ports"
)

const testSecret = "test-secret"

func TestAuthService_Register_AgentRequiresManager(t *testing.T) {
	users := newStubUserRepo()
	svc := NewAuthService(users, testSecret, time.Hour)

	_, err := svc.Register(context.Background(), ports.RegisterInput{
		Name: "Arun", Email: "arun@example.com", Password: "secret123", Role: domain.RoleUser,
	})
	if err != domain.ErrManagerRequired {
		t.Fatalf("expected ErrManagerRequired, got %v", err)
	}
}

func TestAuthService_Register_ManagerMustHaveManagerRole(t *testing.T) {
	users := newStubUserRepo()
	users.seed(domain.User{ID: "agent_9", Name: "NotAManager", Email: "n@example.com", Role: domain.RoleUser})
	svc := NewAuthService(users, testSecret, time.Hour)

	_, err := svc.Register(context.Background(), ports.RegisterInput{
		Name: "Arun", Email: "arun@example.com", Password: "secret123",
		Role: domain.RoleUser, ManagerID: "agent_9",
	})
	if err != domain.ErrNotAManager {
		t.Fatalf("expected ErrNotAManager, got %v", err)
	}
}

func TestAuthService_Register_ClearsManagerForNonAgents(t *testing.T) {
	users := newStubUserRepo()
	users.seed(domain.User{ID: "mgr_1", Name: "Meera", Email: "m@example.com", Role: domain.RoleManager})
	svc := NewAuthService(users, testSecret, time.Hour)

	created, err := svc.Register(context.Background(), ports.RegisterInput{
		Name: "Second Manager", Email: "m2@example.com", Password: "secret123",
		Role: domain.RoleManager, ManagerID: "mgr_1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.ManagerID != "" {
		t.Errorf("manager must not carry a manager reference: %q", created.ManagerID)
	}
}

func TestAuthService_Register_RejectsUnknownRole(t *testing.T) {
	svc := NewAuthService(newStubUserRepo(), testSecret, time.Hour)

	_, err := svc.Register(context.Background(), ports.RegisterInput{
		Name: "X", Email: "x@example.com", Password: "secret123", Role: "superuser",
	})
	if err != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthService_LoginRoundTrip(t *testing.T) {
	users := newStubUserRepo()
	svc := NewAuthService(users, testSecret, time.Hour)

	created, err := svc.Register(context.Background(), ports.RegisterInput{
		Name: "Meera", Email: "Meera@Example.com", Password: "secret123", Role: domain.RoleManager,
	})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	token, user, err := svc.Login(context.Background(), "meera@example.com", "secret123")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if user.ID != created.ID {
		t.Errorf("wrong user returned: %s", user.ID)
	}

	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(testSecret), nil
	})
	if err != nil || !parsed.Valid {
		t.Fatalf("token does not parse: %v", err)
	}
	if claims["role"] != domain.RoleManager || claims["user_id"] != created.ID {
		t.Errorf("unexpected claims: %+v", claims)
	}
	if _, ok := claims["exp"]; !ok {
		t.Error("token must carry an expiry")
	}
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	users := newStubUserRepo()
	svc := NewAuthService(users, testSecret, time.Hour)

	if _, err := svc.Register(context.Background(), ports.RegisterInput{
		Name: "Meera", Email: "meera@example.com", Password: "secret123", Role: domain.RoleManager,
	}); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	_, _, err := svc.Login(context.Background(), "meera@example.com", "wrong")
	if err != domain.ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthService_Login_UnknownUser(t *testing.T) {
	svc := NewAuthService(newStubUserRepo(), testSecret, time.Hour)

	_, _, err := svc.Login(context.Background(), "ghost@example.com", "secret123")
	if err != domain.ErrUserNotFound {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}
