package users

import (
	"context"
	"time"

	"sortir-backend/internal/shared/storage/jsondb"
)

// JSONRepo keeps users in the "users" section of the shared JSON file.
type JSONRepo struct {
	col *jsondb.Collection[map[string]User]
}

func NewJSONRepo(f *jsondb.File) *JSONRepo {
	return &JSONRepo{col: jsondb.NewCollection[map[string]User](f, "users")}
}

func (r *JSONRepo) Create(ctx context.Context, user User) error {
	return r.col.Update(ctx, func(data *map[string]User) error {
		next, err := createUser(*data, user)
		if err != nil {
			return err
		}
		*data = next
		return nil
	})
}

func (r *JSONRepo) Upsert(ctx context.Context, user User) error {
	return r.col.Update(ctx, func(data *map[string]User) error {
		next, err := upsertUser(*data, user, time.Now().UTC())
		if err != nil {
			return err
		}
		*data = next
		return nil
	})
}

func (r *JSONRepo) GetByID(ctx context.Context, userID string) (User, error) {
	var user User
	err := r.col.View(ctx, func(data map[string]User) error {
		u, ok := data[userID]
		if !ok {
			return ErrNotFound
		}
		user = u
		return nil
	})
	return user, err
}

func (r *JSONRepo) GetByEmail(ctx context.Context, email string) (User, error) {
	var user User
	err := r.col.View(ctx, func(data map[string]User) error {
		u, ok := findByEmail(data, email)
		if !ok {
			return ErrNotFound
		}
		user = u
		return nil
	})
	return user, err
}

func (r *JSONRepo) Delete(ctx context.Context, userID string) (bool, error) {
	var found bool
	err := r.col.Update(ctx, func(data *map[string]User) error {
		if _, found = (*data)[userID]; found {
			delete(*data, userID)
		}
		return nil
	})
	return found, err
}

var _ Repo = (*JSONRepo)(nil)
