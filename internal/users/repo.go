package users

import "context"

type Repo interface {
	// Create inserts a new user. ErrEmailTaken when the email is in use.
	Create(ctx context.Context, user User) error
	// Upsert inserts or updates the user by ID, keeping CreatedAt and any password hash.
	Upsert(ctx context.Context, user User) error
	GetByID(ctx context.Context, userID string) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	Delete(ctx context.Context, userID string) (bool, error)
}
