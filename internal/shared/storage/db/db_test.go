package db

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"io/fs"
	"strings"
	"sync"
	"testing"
	"time"
)

type nopDriver struct{}

func (d nopDriver) Open(name string) (driver.Conn, error) {
	return nopConn{}, nil
}

type nopConn struct{}

func (nopConn) Prepare(query string) (driver.Stmt, error) { return nil, errors.New("not supported") }
func (nopConn) Close() error                              { return nil }
func (nopConn) Begin() (driver.Tx, error)                 { return nil, errors.New("not supported") }
func (nopConn) Ping(ctx context.Context) error            { return nil }

var registerTestDriverOnce sync.Once

func withTestDriver(t *testing.T) {
	t.Helper()
	registerTestDriverOnce.Do(func() {
		sql.Register("dbtest", nopDriver{})
	})
	prev := openDB
	openDB = func(name, dsn string) (*sql.DB, error) {
		return sql.Open("dbtest", dsn)
	}
	t.Cleanup(func() { openDB = prev })
}

func TestConnectRequiresURL(t *testing.T) {
	if _, err := Connect(context.Background(), "  ", DefaultServerOptions()); err == nil {
		t.Fatalf("expected error for empty url")
	}
}

func TestOptionsFromEnvAppliesOverrides(t *testing.T) {
	withTestDriver(t)

	t.Setenv("DB_MAX_OPEN_CONNS", "7")
	t.Setenv("DB_MAX_IDLE_CONNS", "3")
	t.Setenv("DB_CONN_MAX_LIFETIME", "20m")
	t.Setenv("DB_CONN_MAX_IDLE_TIME", "45s")
	t.Setenv("DB_PING_TIMEOUT", "1s")

	opts := OptionsFromEnv(DefaultServerOptions())
	db, err := Connect(context.Background(), "ignored", opts)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer db.Close()

	if got := db.Stats().MaxOpenConnections; got != 7 {
		t.Fatalf("expected MaxOpenConnections=7, got %d", got)
	}
	if opts.MaxIdleConns != 3 {
		t.Fatalf("expected MaxIdleConns=3, got %d", opts.MaxIdleConns)
	}
	if opts.ConnMaxLifetime != 20*time.Minute {
		t.Fatalf("expected ConnMaxLifetime=20m, got %s", opts.ConnMaxLifetime)
	}
	if opts.ConnMaxIdleTime != 45*time.Second {
		t.Fatalf("expected ConnMaxIdleTime=45s, got %s", opts.ConnMaxIdleTime)
	}
	if opts.PingTimeout != time.Second {
		t.Fatalf("expected PingTimeout=1s, got %s", opts.PingTimeout)
	}
}

func TestOptionsFromEnvIgnoresInvalid(t *testing.T) {
	t.Setenv("DB_MAX_OPEN_CONNS", "lots")
	t.Setenv("DB_PING_TIMEOUT", "soon")

	opts := OptionsFromEnv(DefaultMigrateOptions())
	if opts.MaxOpenConns != 1 || opts.PingTimeout != 5*time.Second {
		t.Fatalf("expected defaults to survive invalid overrides, got %+v", opts)
	}
}

func TestEmbeddedMigrations(t *testing.T) {
	body, err := fs.ReadFile(migrationFiles, "migrations/00001_init.sql")
	if err != nil {
		t.Fatalf("read migration: %v", err)
	}
	for _, want := range []string{"+goose Up", "+goose Down", "CREATE TABLE IF NOT EXISTS documents", "UNIQUE (user_id, file_name)"} {
		if !strings.Contains(string(body), want) {
			t.Fatalf("migration missing %q", want)
		}
	}
}

func TestRunMigrationsNilDB(t *testing.T) {
	if err := RunMigrations(context.Background(), nil); err != nil {
		t.Fatalf("expected nil db to be a no-op, got %v", err)
	}
}
