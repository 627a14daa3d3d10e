package auth

import (
	"context"
	"errors"
	"testing"

	domain "github.com/shopnest/backend/internal/domain/user"
	"github.com/shopnest/backend/internal/infrastructure/memory"
	"github.com/shopnest/backend/internal/infrastructure/token"
)

type seqIDs struct{ n int }

func (g *seqIDs) NewUID() string {
	g.n++
	return "u-" + string(rune('0'+g.n))
}

func newTestService() *Service {
	users := memory.NewUserRepository()
	tokens := token.NewManager("access-secret", "refresh-secret")
	return NewService(users, tokens, &seqIDs{})
}

func validRegisterInput() RegisterInput {
	return RegisterInput{
		Name:     "Ada",
		Email:    "ada@example.com",
		Password: "hunter22",
		Role:     domain.RoleCustomer,
	}
}

func TestRegisterThenLogin(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	registered, err := svc.Register(ctx, validRegisterInput())
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if registered.User.PasswordHash == "hunter22" {
		t.Error("password stored in plain text")
	}
	if registered.Tokens.AccessToken == "" || registered.Tokens.RefreshToken == "" {
		t.Error("token pair not issued")
	}

	loggedIn, err := svc.Login(ctx, "ada@example.com", "hunter22")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if loggedIn.User.UID != registered.User.UID {
		t.Errorf("login resolved a different user: %s", loggedIn.User.UID)
	}
	if loggedIn.User.LastLoggedIn.IsZero() {
		t.Error("last login not recorded")
	}
}

func TestRegister_WeakPassword(t *testing.T) {
	svc := newTestService()

	input := validRegisterInput()
	input.Password = "short"

	if _, err := svc.Register(context.Background(), input); !errors.Is(err, ErrWeakPassword) {
		t.Errorf("expected ErrWeakPassword, got %v", err)
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	if _, err := svc.Register(ctx, validRegisterInput()); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := svc.Register(ctx, validRegisterInput()); !errors.Is(err, domain.ErrAlreadyExists) {
		t.Errorf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	if _, err := svc.Register(ctx, validRegisterInput()); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := svc.Login(ctx, "ada@example.com", "wrong-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLogin_UnknownEmail(t *testing.T) {
	svc := newTestService()

	// Unknown email and wrong password are indistinguishable to the caller.
	if _, err := svc.Login(context.Background(), "nobody@example.com", "whatever"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestVerifyIssuedToken(t *testing.T) {
	svc := newTestService()

	result, err := svc.Register(context.Background(), validRegisterInput())
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	identity, err := svc.Verify(result.Tokens.AccessToken)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if identity.UID != result.User.UID || identity.Role != string(domain.RoleCustomer) {
		t.Errorf("identity = %+v", identity)
	}

	// A refresh token is not an access token.
	if _, err := svc.Verify(result.Tokens.RefreshToken); !errors.Is(err, token.ErrInvalidToken) {
		t.Errorf("refresh token accepted as access token: %v", err)
	}
}
