package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	domain "github.com/shopnest/backend/internal/domain/user"
)

type UserRepository struct {
	mu      sync.RWMutex
	byUID   map[string]*domain.User
	byEmail map[string]string
}

func NewUserRepository() *UserRepository {
	return &UserRepository{
		byUID:   make(map[string]*domain.User),
		byEmail: make(map[string]string),
	}
}

func (r *UserRepository) Insert(ctx context.Context, u *domain.User) error {
	_ = ctx
	if u == nil || u.UID == "" {
		return fmt.Errorf("user repository: uid is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	email := strings.ToLower(u.Email)
	if _, exists := r.byUID[u.UID]; exists {
		return domain.ErrAlreadyExists
	}
	if _, exists := r.byEmail[email]; exists {
		return domain.ErrAlreadyExists
	}

	r.byUID[u.UID] = u.Clone()
	r.byEmail[email] = u.UID
	return nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	uid, ok := r.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return r.byUID[uid].Clone(), nil
}

func (r *UserRepository) FindByUID(ctx context.Context, uid string) (*domain.User, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byUID[uid]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return u.Clone(), nil
}

func (r *UserRepository) Update(ctx context.Context, u *domain.User) error {
	_ = ctx
	if u == nil || u.UID == "" {
		return fmt.Errorf("user repository: uid is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byUID[u.UID]; !exists {
		return domain.ErrNotFound
	}
	r.byUID[u.UID] = u.Clone()
	r.byEmail[strings.ToLower(u.Email)] = u.UID
	return nil
}
