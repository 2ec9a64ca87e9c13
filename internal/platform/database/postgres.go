package database

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	"chall_zone/internal/platform/config"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver
	"github.com/sirupsen/logrus"
)

//go:embed schema.sql
var schemaSQL string

//go:embed seed.sql
var seedSQL string

const schemaProbe = `SELECT to_regclass('public.users') IS NOT NULL`

// Manager owns the connection pool. Callers never share a connection: each
// request borrows one through WithConn and gives it back on every exit path.
type Manager struct {
	db  *sql.DB
	log *logrus.Logger
}

// NewManager wraps an already opened pool.
func NewManager(db *sql.DB, log *logrus.Logger) *Manager {
	return &Manager{db: db, log: log}
}

// Open connects to PostgreSQL, verifies the connection and initializes the
// schema and seed categories when the store is empty.
func Open(ctx context.Context, cfg *config.Config, log *logrus.Logger) (*Manager, error) {
	db, err := sql.Open("pgx", cfg.DBConnStr)
	if err != nil {
		return nil, fmt.Errorf("database.Open: %w", err)
	}

	db.SetMaxOpenConns(cfg.DBMaxOpenConns)
	db.SetMaxIdleConns(cfg.DBMaxOpenConns)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("database.Open ping: %w", err)
	}

	m := NewManager(db, log)
	if err := m.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}

	log.WithField("host", cfg.DBHost).Info("connected to PostgreSQL")
	return m, nil
}

// EnsureSchema creates the tables and seed categories on first use. Nothing
// else may run against the store before it returns.
func (m *Manager) EnsureSchema(ctx context.Context) error {
	var exists bool
	if err := m.db.QueryRowContext(ctx, schemaProbe).Scan(&exists); err != nil {
		return fmt.Errorf("database.EnsureSchema probe: %w", err)
	}
	if exists {
		return nil
	}

	m.log.Info("empty store, creating schema and seed data")
	return m.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
			return fmt.Errorf("database.EnsureSchema schema: %w", err)
		}
		if _, err := tx.ExecContext(ctx, seedSQL); err != nil {
			return fmt.Errorf("database.EnsureSchema seed: %w", err)
		}
		return nil
	})
}

// WithConn borrows a dedicated connection for the duration of fn.
func (m *Manager) WithConn(ctx context.Context, fn func(conn *sql.Conn) error) error {
	conn, err := m.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("database.WithConn acquire: %w", err)
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			m.log.WithError(cerr).Warn("failed to release connection")
		}
	}()
	return fn(conn)
}

// WithTx runs fn in a transaction on the pool, committing only when fn
// succeeds.
func (m *Manager) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("database.WithTx begin: %w", err)
	}
	defer tx.Rollback() // no-op after commit

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("database.WithTx commit: %w", err)
	}
	return nil
}

// DB exposes the pool for health checks and pool statistics.
func (m *Manager) DB() *sql.DB {
	return m.db
}

func (m *Manager) Close() {
	if m.db != nil {
		m.db.Close()
		m.log.Info("database connection closed")
	}
}
