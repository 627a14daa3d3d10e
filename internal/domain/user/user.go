package user

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrNotFound      = errors.New("user: not found")
	ErrAlreadyExists = errors.New("user: already exists")
	ErrValidation    = errors.New("user: invalid input")
)

type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

const defaultImage = "https://via.placeholder.com/150"

type User struct {
	UID           string    `json:"uid"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	PasswordHash  string    `json:"-"`
	Image         string    `json:"image"`
	Role          Role      `json:"role"`
	EmailVerified bool      `json:"emailVerified"`
	LastLoggedIn  time.Time `json:"lastLoggedIn"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func New(uid, name, email, passwordHash, image string, role Role) (*User, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))

	if l := len(name); l < 3 || l > 50 {
		return nil, fmt.Errorf("%w: name must be 3 to 50 characters", ErrValidation)
	}
	if !strings.Contains(email, "@") || !strings.Contains(email, ".") {
		return nil, fmt.Errorf("%w: invalid email", ErrValidation)
	}
	if role == "" {
		role = RoleCustomer
	}
	if role != RoleCustomer && role != RoleAdmin {
		return nil, fmt.Errorf("%w: invalid role", ErrValidation)
	}
	if image == "" {
		image = defaultImage
	}

	now := time.Now().UTC()
	return &User{
		UID:          uid,
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		Image:        image,
		Role:         role,
		LastLoggedIn: now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}
