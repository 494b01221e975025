package documents

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const documentColumns = `id, user_id, file_name, text, mime_type, size_bytes, storage_provider, storage_key, created_at, updated_at`

// Upsert serializes writers of the same (user, file) with a transaction-scoped
// advisory lock, so the returned previous document is the one this write
// actually replaced, including a concurrent first upload of the same name.
func (r *PGRepo) Upsert(ctx context.Context, doc Document) (*Document, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	const lockQuery = `SELECT pg_advisory_xact_lock(hashtext($1), hashtext($2))`
	if _, err := tx.ExecContext(ctx, lockQuery, doc.UserID, doc.FileName); err != nil {
		return nil, fmt.Errorf("lock: %w", err)
	}

	const selectQuery = `
SELECT ` + documentColumns + `
FROM documents
WHERE user_id = $1 AND file_name = $2
FOR UPDATE`
	var prev *Document
	existing, err := scanDocument(tx.QueryRowContext(ctx, selectQuery, doc.UserID, doc.FileName))
	switch {
	case err == nil:
		prev = &existing
	case errors.Is(err, sql.ErrNoRows):
	default:
		return nil, fmt.Errorf("select existing: %w", err)
	}

	const upsertQuery = `
INSERT INTO documents (` + documentColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (user_id, file_name) DO UPDATE SET
  text = EXCLUDED.text,
  mime_type = EXCLUDED.mime_type,
  size_bytes = EXCLUDED.size_bytes,
  storage_provider = EXCLUDED.storage_provider,
  storage_key = EXCLUDED.storage_key,
  updated_at = EXCLUDED.updated_at`
	if _, err := tx.ExecContext(ctx, upsertQuery,
		doc.ID,
		doc.UserID,
		doc.FileName,
		doc.Text,
		nullableString(doc.MimeType),
		doc.SizeBytes,
		doc.StorageProvider,
		doc.StorageKey,
		doc.CreatedAt,
		doc.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("upsert: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return prev, nil
}

func (r *PGRepo) List(ctx context.Context, userID string) ([]Document, error) {
	const query = `
SELECT ` + documentColumns + `
FROM documents
WHERE user_id = $1
ORDER BY created_at ASC, id ASC`
	rows, err := r.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	return collectDocuments(rows)
}

func (r *PGRepo) Get(ctx context.Context, userID, fileName string) (Document, error) {
	const query = `
SELECT ` + documentColumns + `
FROM documents
WHERE user_id = $1 AND file_name = $2
LIMIT 1`
	doc, err := scanDocument(r.DB.QueryRowContext(ctx, query, userID, fileName))
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, ErrNotFound
	}
	return doc, err
}

func (r *PGRepo) Delete(ctx context.Context, userID, fileName string) (Document, bool, error) {
	const query = `
DELETE FROM documents
WHERE user_id = $1 AND file_name = $2
RETURNING ` + documentColumns
	doc, err := scanDocument(r.DB.QueryRowContext(ctx, query, userID, fileName))
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, false, nil
	}
	if err != nil {
		return Document{}, false, err
	}
	return doc, true, nil
}

func (r *PGRepo) DeleteAllForUser(ctx context.Context, userID string) ([]Document, error) {
	const query = `
DELETE FROM documents
WHERE user_id = $1
RETURNING ` + documentColumns
	rows, err := r.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	return collectDocuments(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (Document, error) {
	var doc Document
	var mimeType sql.NullString
	err := row.Scan(
		&doc.ID,
		&doc.UserID,
		&doc.FileName,
		&doc.Text,
		&mimeType,
		&doc.SizeBytes,
		&doc.StorageProvider,
		&doc.StorageKey,
		&doc.CreatedAt,
		&doc.UpdatedAt,
	)
	if err != nil {
		return Document{}, err
	}
	if mimeType.Valid {
		doc.MimeType = mimeType.String
	}
	return doc, nil
}

func collectDocuments(rows *sql.Rows) ([]Document, error) {
	defer rows.Close()
	out := []Document{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

var _ Repo = (*PGRepo)(nil)
