package documents

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"sortir-backend/internal/extract"
	"sortir-backend/internal/shared/metrics"
	"sortir-backend/internal/shared/storage/object"
	"sortir-backend/internal/shared/telemetry"
	"sortir-backend/internal/shared/util"
)

// DefaultMaxUploadBytes caps uploads when no limit is configured.
const DefaultMaxUploadBytes int64 = 20 << 20

// UploadInput is one file received from a client.
type UploadInput struct {
	FileName    string
	ContentType string
	Data        []byte
}

// Service contains business logic for documents.
type Service struct {
	Store          object.ObjectStore
	Repo           Repo
	MaxUploadBytes int64
	Extract        func(ctx context.Context, data []byte) (string, error)
	Now            func() time.Time
}

// NewService wires a Service with PDF extraction.
func NewService(store object.ObjectStore, repo Repo, maxUploadBytes int64) *Service {
	if maxUploadBytes <= 0 {
		maxUploadBytes = DefaultMaxUploadBytes
	}
	return &Service{
		Store:          store,
		Repo:           repo,
		MaxUploadBytes: maxUploadBytes,
		Extract:        extract.ExtractPDF,
		Now:            func() time.Time { return time.Now().UTC() },
	}
}

// Upload validates the file, extracts its text and stores both.
// Errors: ErrInvalidInput, ErrUnsupportedType, ErrTooLarge, extract.ErrExtraction, ErrStorage.
func (s *Service) Upload(ctx context.Context, userID string, in UploadInput) (Document, error) {
	doc, err := s.upload(ctx, userID, in)
	metrics.IncUpload(uploadOutcome(err))
	if err != nil {
		return Document{}, err
	}
	telemetry.Info("document.uploaded", map[string]any{
		"user_id":    userID,
		"file_name":  doc.FileName,
		"size_bytes": doc.SizeBytes,
		"text_chars": len([]rune(doc.Text)),
	})
	return doc, nil
}

func (s *Service) upload(ctx context.Context, userID string, in UploadInput) (Document, error) {
	if strings.TrimSpace(userID) == "" {
		return Document{}, fmt.Errorf("%w: owner is required", ErrInvalidInput)
	}
	if strings.TrimSpace(in.FileName) == "" || len(in.Data) == 0 {
		return Document{}, fmt.Errorf("%w: file is required", ErrInvalidInput)
	}
	if !extract.IsPDF(in.FileName, in.ContentType) {
		return Document{}, ErrUnsupportedType
	}
	if int64(len(in.Data)) > s.maxUpload() {
		return Document{}, ErrTooLarge
	}
	fileName, err := util.SanitizeFileName(in.FileName)
	if err != nil {
		return Document{}, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	text, err := s.Extract(ctx, in.Data)
	if err != nil {
		return Document{}, err
	}

	return s.Put(ctx, userID, fileName, text, in.Data)
}

// Put stores raw bytes under a fresh object key and then records the
// metadata, replacing any document with the same name. If recording fails the
// new object is removed, so a failed Put leaves the previous state intact.
func (s *Service) Put(ctx context.Context, userID, fileName, text string, raw []byte) (Document, error) {
	key, size, mimeType, err := s.Store.Save(ctx, userID, fileName, bytes.NewReader(raw))
	if err != nil {
		return Document{}, fmt.Errorf("%w: save object: %w", ErrStorage, err)
	}

	now := s.now()
	doc := Document{
		ID:              uuid.NewString(),
		UserID:          userID,
		FileName:        fileName,
		Text:            text,
		MimeType:        mimeType,
		SizeBytes:       size,
		StorageProvider: s.Store.Provider(),
		StorageKey:      key,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	prev, err := s.Repo.Upsert(ctx, doc)
	if err != nil {
		s.removeObject(ctx, key, "upsert_failed")
		return Document{}, fmt.Errorf("%w: upsert: %w", ErrStorage, err)
	}

	if prev != nil {
		doc.ID = prev.ID
		doc.CreatedAt = prev.CreatedAt
		if prev.StorageKey != "" && prev.StorageKey != key {
			s.removeObject(ctx, prev.StorageKey, "replaced")
		}
	}
	return doc, nil
}

// List returns the owner's documents in upload order.
func (s *Service) List(ctx context.Context, userID string) ([]Document, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, fmt.Errorf("%w: owner is required", ErrInvalidInput)
	}
	docs, err := s.Repo.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: list: %w", ErrStorage, err)
	}
	return docs, nil
}

// Get returns one document by name.
func (s *Service) Get(ctx context.Context, userID, fileName string) (Document, error) {
	name, err := lookupName(userID, fileName)
	if err != nil {
		return Document{}, err
	}
	doc, err := s.Repo.Get(ctx, userID, name)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Document{}, ErrNotFound
		}
		return Document{}, fmt.Errorf("%w: get: %w", ErrStorage, err)
	}
	return doc, nil
}

// Open returns the document and a reader over its original bytes.
func (s *Service) Open(ctx context.Context, userID, fileName string) (Document, io.ReadCloser, error) {
	doc, err := s.Get(ctx, userID, fileName)
	if err != nil {
		return Document{}, nil, err
	}
	rc, err := s.Store.Open(ctx, doc.StorageKey)
	if err != nil {
		telemetry.Error("document.open_failed", map[string]any{
			"user_id":     userID,
			"file_name":   doc.FileName,
			"storage_key": doc.StorageKey,
			"error":       err,
		})
		return Document{}, nil, fmt.Errorf("%w: open object: %w", ErrStorage, err)
	}
	return doc, rc, nil
}

// Delete removes the metadata entry first and then its bytes, so no entry ever
// points at a missing object. It reports false when nothing was stored.
func (s *Service) Delete(ctx context.Context, userID, fileName string) (bool, error) {
	name, err := lookupName(userID, fileName)
	if err != nil {
		return false, err
	}
	doc, found, err := s.Repo.Delete(ctx, userID, name)
	if err != nil {
		return false, fmt.Errorf("%w: delete: %w", ErrStorage, err)
	}
	if !found {
		return false, nil
	}
	if err := s.Store.Delete(context.WithoutCancel(ctx), doc.StorageKey); err != nil {
		telemetry.Error("document.object_delete_failed", map[string]any{
			"user_id":     userID,
			"file_name":   doc.FileName,
			"storage_key": doc.StorageKey,
			"error":       err,
		})
		return true, fmt.Errorf("%w: delete object: %w", ErrStorage, err)
	}
	telemetry.Info("document.deleted", map[string]any{"user_id": userID, "file_name": doc.FileName})
	return true, nil
}

// DeleteAllForUser removes every document the owner has and returns how many there were.
func (s *Service) DeleteAllForUser(ctx context.Context, userID string) (int, error) {
	if strings.TrimSpace(userID) == "" {
		return 0, fmt.Errorf("%w: owner is required", ErrInvalidInput)
	}
	docs, err := s.Repo.DeleteAllForUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("%w: delete all: %w", ErrStorage, err)
	}
	var errs []error
	for _, doc := range docs {
		if err := s.Store.Delete(context.WithoutCancel(ctx), doc.StorageKey); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return len(docs), fmt.Errorf("%w: delete objects: %w", ErrStorage, errors.Join(errs...))
	}
	return len(docs), nil
}

func (s *Service) removeObject(ctx context.Context, key, reason string) {
	if err := s.Store.Delete(context.WithoutCancel(ctx), key); err != nil {
		telemetry.Warn("document.object_cleanup_failed", map[string]any{
			"storage_key": key,
			"reason":      reason,
			"error":       err,
		})
	}
}

func (s *Service) maxUpload() int64 {
	if s.MaxUploadBytes <= 0 {
		return DefaultMaxUploadBytes
	}
	return s.MaxUploadBytes
}

func (s *Service) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now()
}

func lookupName(userID, fileName string) (string, error) {
	if strings.TrimSpace(userID) == "" {
		return "", fmt.Errorf("%w: owner is required", ErrInvalidInput)
	}
	name, err := util.SanitizeFileName(fileName)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return name, nil
}

func uploadOutcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrUnsupportedType):
		return "unsupported"
	case errors.Is(err, ErrTooLarge):
		return "too_large"
	case errors.Is(err, extract.ErrExtraction):
		return "extraction"
	case errors.Is(err, ErrStorage):
		return "storage"
	default:
		return "invalid"
	}
}
