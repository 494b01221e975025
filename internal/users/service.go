package users

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"sortir-backend/internal/shared/telemetry"
)

const MinPasswordLength = 8

// MaxPasswordBytes is the longest input bcrypt accepts.
const MaxPasswordBytes = 72

type Service struct {
	Repo Repo
	Now  func() time.Time
	// bcrypt cost; tests lower it
	Cost int
}

func NewService(repo Repo) *Service {
	return &Service{Repo: repo, Cost: bcrypt.DefaultCost}
}

// NormalizeEmail trims and lower-cases an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Signup registers an email/password account.
func (s *Service) Signup(ctx context.Context, email, password string) (User, error) {
	email = NormalizeEmail(email)
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return User{}, fmt.Errorf("%w: a valid email is required", ErrInvalidInput)
	}
	if len(password) < MinPasswordLength {
		return User{}, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, MinPasswordLength)
	}
	if len(password) > MaxPasswordBytes {
		return User{}, fmt.Errorf("%w: password must be at most %d bytes", ErrInvalidInput, MaxPasswordBytes)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost())
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}

	now := s.now()
	user := User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		Provider:     ProviderPassword,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.Repo.Create(ctx, user); err != nil {
		return User{}, err
	}
	telemetry.Info("user.signup", map[string]any{"user_id": user.ID})
	return user, nil
}

// Login checks credentials. Unknown emails and wrong passwords are reported alike.
func (s *Service) Login(ctx context.Context, email, password string) (User, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return User{}, fmt.Errorf("%w: email and password are required", ErrInvalidInput)
	}
	user, err := s.Repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return User{}, ErrInvalidCredentials
		}
		return User{}, err
	}
	if user.PasswordHash == "" {
		return User{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return User{}, ErrInvalidCredentials
	}
	return user, nil
}

// UpsertFromAuth persists an identity asserted by an external provider.
func (s *Service) UpsertFromAuth(ctx context.Context, user User) error {
	if s == nil || s.Repo == nil {
		return errors.New("users service not configured")
	}
	user.Email = NormalizeEmail(user.Email)
	if strings.TrimSpace(user.ID) == "" || user.Email == "" {
		return fmt.Errorf("%w: user id and email are required", ErrInvalidInput)
	}
	return s.Repo.Upsert(ctx, user)
}

func (s *Service) GetByID(ctx context.Context, userID string) (User, error) {
	if s == nil || s.Repo == nil {
		return User{}, errors.New("users service not configured")
	}
	if strings.TrimSpace(userID) == "" {
		return User{}, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	return s.Repo.GetByID(ctx, userID)
}

func (s *Service) Delete(ctx context.Context, userID string) (bool, error) {
	if strings.TrimSpace(userID) == "" {
		return false, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	return s.Repo.Delete(ctx, userID)
}

func (s *Service) cost() int {
	if s.Cost < bcrypt.MinCost {
		return bcrypt.DefaultCost
	}
	return s.Cost
}

func (s *Service) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now()
}
