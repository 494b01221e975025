package account

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"sortir-backend/internal/shared/telemetry"
)

// DocumentRemover deletes every document an owner has.
type DocumentRemover interface {
	DeleteAllForUser(ctx context.Context, userID string) (int, error)
}

// UserRemover deletes the user record.
type UserRemover interface {
	Delete(ctx context.Context, userID string) (bool, error)
}

type Service struct {
	Docs  DocumentRemover
	Users UserRemover
}

type DeleteResult struct {
	DeletedDocuments int  `json:"deletedDocuments"`
	UserDeleted      bool `json:"userDeleted"`
}

var ErrInvalidInput = errors.New("invalid input")

func NewService(docs DocumentRemover, users UserRemover) *Service {
	return &Service{Docs: docs, Users: users}
}

// Delete tears down the account. Documents go first so a failure leaves the
// user able to sign in and retry.
func (s *Service) Delete(ctx context.Context, userID string) (DeleteResult, error) {
	if strings.TrimSpace(userID) == "" {
		return DeleteResult{}, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}

	n, err := s.Docs.DeleteAllForUser(ctx, userID)
	if err != nil {
		return DeleteResult{DeletedDocuments: n}, fmt.Errorf("delete documents: %w", err)
	}

	deleted, err := s.Users.Delete(ctx, userID)
	if err != nil {
		return DeleteResult{DeletedDocuments: n}, fmt.Errorf("delete user: %w", err)
	}

	telemetry.Info("account.deleted", map[string]any{
		"user_id":           userID,
		"deleted_documents": n,
		"user_deleted":      deleted,
	})
	return DeleteResult{DeletedDocuments: n, UserDeleted: deleted}, nil
}
