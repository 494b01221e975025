package users

import (
	"context"
	"sync"
	"time"
)

type MemoryRepo struct {
	mu    sync.RWMutex
	users map[string]User
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{users: make(map[string]User)}
}

func (r *MemoryRepo) Create(ctx context.Context, user User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	next, err := createUser(r.users, user)
	if err != nil {
		return err
	}
	r.users = next
	return nil
}

func (r *MemoryRepo) Upsert(ctx context.Context, user User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	next, err := upsertUser(r.users, user, time.Now().UTC())
	if err != nil {
		return err
	}
	r.users = next
	return nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, userID string) (User, error) {
	if err := ctx.Err(); err != nil {
		return User{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.users[userID]
	if !ok {
		return User{}, ErrNotFound
	}
	return user, nil
}

func (r *MemoryRepo) GetByEmail(ctx context.Context, email string) (User, error) {
	if err := ctx.Err(); err != nil {
		return User{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if user, ok := findByEmail(r.users, email); ok {
		return user, nil
	}
	return User{}, ErrNotFound
}

func (r *MemoryRepo) Delete(ctx context.Context, userID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[userID]; !ok {
		return false, nil
	}
	delete(r.users, userID)
	return true, nil
}

func createUser(users map[string]User, user User) (map[string]User, error) {
	if users == nil {
		users = map[string]User{}
	}
	if _, ok := findByEmail(users, user.Email); ok {
		return nil, ErrEmailTaken
	}
	users[user.ID] = user
	return users, nil
}

func upsertUser(users map[string]User, user User, now time.Time) (map[string]User, error) {
	if users == nil {
		users = map[string]User{}
	}
	if other, ok := findByEmail(users, user.Email); ok && other.ID != user.ID {
		return nil, ErrEmailTaken
	}
	if existing, ok := users[user.ID]; ok {
		user.CreatedAt = existing.CreatedAt
		if user.PasswordHash == "" {
			user.PasswordHash = existing.PasswordHash
		}
	} else if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	users[user.ID] = user
	return users, nil
}

func findByEmail(users map[string]User, email string) (User, bool) {
	for _, u := range users {
		if u.Email == email {
			return u, true
		}
	}
	return User{}, false
}

var _ Repo = (*MemoryRepo)(nil)
