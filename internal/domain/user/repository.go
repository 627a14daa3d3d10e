package user

import "context"

type Repository interface {
	Insert(ctx context.Context, u *User) error
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByUID(ctx context.Context, uid string) (*User, error)
	Update(ctx context.Context, u *User) error
}
