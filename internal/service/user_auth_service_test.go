package service

import (
	"errors"
	"testing"
	"time"

	"github.com/beanpass/internal/config"
	"github.com/beanpass/internal/constants"
)

func newAuthServiceForTest(t *testing.T) (*UserAuthService, *serviceFixture) {
	t.Helper()
	f := newServiceFixture(t, "user_auth")
	cfg := &config.Config{
		JWT:      config.JWTConfig{SecretKey: "auth-test-secret-0123456789abcdefgh", ExpireHours: 2},
		Security: config.SecurityConfig{PasswordPolicy: config.PasswordPolicyConfig{MinLength: 8}},
	}
	svc := NewUserAuthService(cfg, f.userRepo)
	svc.now = func() time.Time { return time.Now() }
	return svc, f
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _ := newAuthServiceForTest(t)

	result, err := svc.Register(RegisterInput{Email: " Ana@Example.com ", Password: "long-enough", Role: "partner"})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if result.User.Email != "ana@example.com" || result.User.Role != constants.RolePartner {
		t.Fatalf("unexpected user: %+v", result.User)
	}
	if result.User.DisplayName != "ana" {
		t.Fatalf("display name should default to email local part, got %q", result.User.DisplayName)
	}

	claims, err := svc.ParseUserJWT(result.Token)
	if err != nil {
		t.Fatalf("parse jwt failed: %v", err)
	}
	if claims.UserID != result.User.ID || claims.Role != constants.RolePartner {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	if _, err := svc.Register(RegisterInput{Email: "ana@example.com", Password: "long-enough"}); !errors.Is(err, ErrEmailExists) {
		t.Fatalf("duplicate email want exists, got %v", err)
	}

	login, err := svc.Login("ANA@example.com", "long-enough")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if login.User.LastLoginAt == nil {
		t.Fatalf("login should stamp last_login_at")
	}
	if _, err := svc.Login("ana@example.com", "wrong-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password want invalid credentials, got %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newAuthServiceForTest(t)

	if _, err := svc.Register(RegisterInput{Email: "not-an-email", Password: "long-enough"}); !errors.Is(err, ErrInvalidEmail) {
		t.Fatalf("want invalid email, got %v", err)
	}
	if _, err := svc.Register(RegisterInput{Email: "b@example.com", Password: "short"}); !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("want weak password, got %v", err)
	}
	if _, err := svc.Register(RegisterInput{Email: "c@example.com", Password: "long-enough", Role: "admin"}); !errors.Is(err, ErrInvalidRole) {
		t.Fatalf("want invalid role, got %v", err)
	}
}

func TestResolveAuthStateWithoutCache(t *testing.T) {
	svc, f := newAuthServiceForTest(t)
	user := f.createUser(t, "dora@example.com", constants.RoleCustomer)

	state, err := svc.ResolveAuthState(t.Context(), user.ID)
	if err != nil {
		t.Fatalf("resolve auth state failed: %v", err)
	}
	if state.UserID != user.ID || state.Role != constants.RoleCustomer || state.Status != constants.UserStatusActive {
		t.Fatalf("unexpected state: %+v", state)
	}
	if _, err := svc.ResolveAuthState(t.Context(), 9999); !errors.Is(err, ErrUserProfileNotFound) {
		t.Fatalf("missing user want not found, got %v", err)
	}
	if _, err := svc.ParseUserJWT("garbage"); !errors.Is(err, ErrTokenInvalid) {
		t.Fatalf("garbage token want invalid, got %v", err)
	}
}
