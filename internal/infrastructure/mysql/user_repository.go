package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	domain "github.com/shopnest/backend/internal/domain/user"
)

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Insert(ctx context.Context, u *domain.User) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users
			(uid, name, email, password_hash, image, role, email_verified, last_logged_in, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.UID, u.Name, u.Email, u.PasswordHash, u.Image, u.Role,
		u.EmailVerified, u.LastLoggedIn, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		if isDuplicateKey(err) {
			return domain.ErrAlreadyExists
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.findBy(ctx, "email", email)
}

func (r *UserRepository) FindByUID(ctx context.Context, uid string) (*domain.User, error) {
	return r.findBy(ctx, "uid", uid)
}

func (r *UserRepository) Update(ctx context.Context, u *domain.User) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET name = ?, email = ?, password_hash = ?, image = ?, role = ?, email_verified = ?, last_logged_in = ?, updated_at = ?
		WHERE uid = ?`,
		u.Name, u.Email, u.PasswordHash, u.Image, u.Role,
		u.EmailVerified, u.LastLoggedIn, u.UpdatedAt, u.UID,
	)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		if _, err := r.FindByUID(ctx, u.UID); err != nil {
			return err
		}
	}
	return nil
}

func (r *UserRepository) findBy(ctx context.Context, column, value string) (*domain.User, error) {
	var u domain.User
	query := fmt.Sprintf(`
		SELECT uid, name, email, password_hash, image, role, email_verified, last_logged_in, created_at, updated_at
		FROM users WHERE %s = ?`, column)
	err := r.db.QueryRowContext(ctx, query, value).Scan(
		&u.UID, &u.Name, &u.Email, &u.PasswordHash, &u.Image, &u.Role,
		&u.EmailVerified, &u.LastLoggedIn, &u.CreatedAt, &u.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}
	return &u, nil
}
