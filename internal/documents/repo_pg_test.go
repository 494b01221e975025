package documents

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

var documentColumnNames = []string{
	"id", "user_id", "file_name", "text", "mime_type", "size_bytes",
	"storage_provider", "storage_key", "created_at", "updated_at",
}

func newPGRepoWithMock(t *testing.T) (*PGRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return &PGRepo{DB: db}, mock
}

func sampleDocument(now time.Time) Document {
	return Document{
		ID:              "doc-1",
		UserID:          "user-1",
		FileName:        "report.pdf",
		Text:            "quarterly numbers",
		MimeType:        "application/pdf",
		SizeBytes:       1234,
		StorageProvider: "local",
		StorageKey:      "abc/key_report.pdf",
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func TestPGRepoUpsertInsertsNewDocument(t *testing.T) {
	repo, mock := newPGRepoWithMock(t)
	doc := sampleDocument(time.Now().UTC())

	mock.ExpectBegin()
	mock.ExpectExec("pg_advisory_xact_lock").
		WithArgs(doc.UserID, doc.FileName).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("FOR UPDATE").
		WithArgs(doc.UserID, doc.FileName).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec("INSERT INTO documents").
		WithArgs(doc.ID, doc.UserID, doc.FileName, doc.Text, doc.MimeType, doc.SizeBytes,
			doc.StorageProvider, doc.StorageKey, doc.CreatedAt, doc.UpdatedAt).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	prev, err := repo.Upsert(context.Background(), doc)
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if prev != nil {
		t.Fatalf("expected no previous document, got %+v", prev)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoUpsertReturnsReplacedDocument(t *testing.T) {
	repo, mock := newPGRepoWithMock(t)
	old := sampleDocument(time.Now().Add(-time.Hour).UTC())
	doc := sampleDocument(time.Now().UTC())
	doc.ID = "doc-2"
	doc.StorageKey = "abc/new_report.pdf"

	mock.ExpectBegin()
	mock.ExpectExec("pg_advisory_xact_lock").
		WithArgs(doc.UserID, doc.FileName).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("FOR UPDATE").
		WithArgs(doc.UserID, doc.FileName).
		WillReturnRows(sqlmock.NewRows(documentColumnNames).AddRow(
			old.ID, old.UserID, old.FileName, old.Text, old.MimeType, old.SizeBytes,
			old.StorageProvider, old.StorageKey, old.CreatedAt, old.UpdatedAt,
		))
	mock.ExpectExec("ON CONFLICT").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	prev, err := repo.Upsert(context.Background(), doc)
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if prev == nil || prev.StorageKey != old.StorageKey || prev.ID != old.ID {
		t.Fatalf("expected previous document %+v, got %+v", old, prev)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoUpsertRollsBackOnInsertError(t *testing.T) {
	repo, mock := newPGRepoWithMock(t)
	doc := sampleDocument(time.Now().UTC())

	mock.ExpectBegin()
	mock.ExpectExec("pg_advisory_xact_lock").
		WithArgs(doc.UserID, doc.FileName).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("FOR UPDATE").WillReturnError(sql.ErrNoRows)
	mock.ExpectExec("INSERT INTO documents").WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	if _, err := repo.Upsert(context.Background(), doc); err == nil {
		t.Fatalf("expected error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoGetReturnsNotFound(t *testing.T) {
	repo, mock := newPGRepoWithMock(t)

	mock.ExpectQuery("SELECT id, user_id, file_name").
		WithArgs("user-1", "missing.pdf").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), "user-1", "missing.pdf")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoListScansNullMimeType(t *testing.T) {
	repo, mock := newPGRepoWithMock(t)
	now := time.Now().UTC()

	mock.ExpectQuery("ORDER BY created_at ASC").
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows(documentColumnNames).
			AddRow("doc-1", "user-1", "a.pdf", "alpha", nil, 10, "local", "k1", now, now).
			AddRow("doc-2", "user-1", "b.pdf", "beta", "application/pdf", 20, "s3", "k2", now, now))

	docs, err := repo.List(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(docs) != 2 || docs[0].FileName != "a.pdf" || docs[1].FileName != "b.pdf" {
		t.Fatalf("unexpected docs: %+v", docs)
	}
	if docs[0].MimeType != "" || docs[1].MimeType != "application/pdf" {
		t.Fatalf("unexpected mime types: %q %q", docs[0].MimeType, docs[1].MimeType)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoDeleteReportsMissing(t *testing.T) {
	repo, mock := newPGRepoWithMock(t)

	mock.ExpectQuery("DELETE FROM documents").
		WithArgs("user-1", "gone.pdf").
		WillReturnError(sql.ErrNoRows)

	_, found, err := repo.Delete(context.Background(), "user-1", "gone.pdf")
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if found {
		t.Fatalf("expected found=false")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoDeleteAllForUserReturnsRemoved(t *testing.T) {
	repo, mock := newPGRepoWithMock(t)
	now := time.Now().UTC()

	mock.ExpectQuery("DELETE FROM documents").
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows(documentColumnNames).
			AddRow("doc-1", "user-1", "a.pdf", "alpha", "application/pdf", 10, "local", "k1", now, now))

	docs, err := repo.DeleteAllForUser(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("DeleteAllForUser: %v", err)
	}
	if len(docs) != 1 || docs[0].StorageKey != "k1" {
		t.Fatalf("unexpected docs: %+v", docs)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoUpsertLocksBeforeLookup(t *testing.T) {
	repo, mock := newPGRepoWithMock(t)
	doc := sampleDocument(time.Now().UTC())

	mock.ExpectBegin()
	mock.ExpectExec("pg_advisory_xact_lock").
		WithArgs(doc.UserID, doc.FileName).
		WillReturnError(errors.New("lock timeout"))
	mock.ExpectRollback()

	if _, err := repo.Upsert(context.Background(), doc); err == nil {
		t.Fatalf("expected lock error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}
