// Package auth covers registration and login: bcrypt credential hashing and
// JWT pair issuance.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	domain "github.com/shopnest/backend/internal/domain/user"
	"github.com/shopnest/backend/internal/infrastructure/token"
	"github.com/shopnest/backend/internal/pkg/logging"
)

var (
	ErrInvalidCredentials = errors.New("auth: invalid email or password")
	ErrWeakPassword       = errors.New("auth: password must be at least 6 characters")
)

const minPasswordLen = 6

type IDGenerator interface {
	NewUID() string
}

type Service struct {
	users  domain.Repository
	tokens *token.Manager
	ids    IDGenerator
}

func NewService(users domain.Repository, tokens *token.Manager, ids IDGenerator) *Service {
	return &Service{users: users, tokens: tokens, ids: ids}
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Image    string
	Role     domain.Role
}

type AuthResult struct {
	User   *domain.User
	Tokens token.Pair
}

func (s *Service) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	logger := logging.FromContext(ctx).With(zap.String("component", "auth_service"))

	if len(input.Password) < minPasswordLen {
		return nil, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("auth: hash password: %w", err)
	}

	u, err := domain.New(s.ids.NewUID(), input.Name, input.Email, string(hash), input.Image, input.Role)
	if err != nil {
		return nil, err
	}

	if err := s.users.Insert(ctx, u); err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			return nil, err
		}
		logger.Error("user_insert_failed", zap.Error(err))
		return nil, fmt.Errorf("auth: insert user: %w", err)
	}

	pair, err := s.tokens.Issue(token.Identity{UID: u.UID, Email: u.Email, Role: string(u.Role)})
	if err != nil {
		return nil, err
	}

	logger.Info("user_registered", zap.String("uid", u.UID))
	return &AuthResult{User: u, Tokens: pair}, nil
}

func (s *Service) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	logger := logging.FromContext(ctx).With(zap.String("component", "auth_service"))

	u, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	pair, err := s.tokens.Issue(token.Identity{UID: u.UID, Email: u.Email, Role: string(u.Role)})
	if err != nil {
		return nil, err
	}

	u.LastLoggedIn = time.Now().UTC()
	u.UpdatedAt = u.LastLoggedIn
	if err := s.users.Update(ctx, u); err != nil {
		logger.Warn("last_login_update_failed", zap.String("uid", u.UID), zap.Error(err))
	}

	logger.Info("user_logged_in", zap.String("uid", u.UID))
	return &AuthResult{User: u, Tokens: pair}, nil
}

// Verify resolves a bearer access token to the identity it carries.
func (s *Service) Verify(raw string) (token.Identity, error) {
	return s.tokens.VerifyAccess(raw)
}
