package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"chall_zone/internal/common"
)

// DBTX is the handle a Repository runs statements on. *sql.DB, *sql.Conn and
// *sql.Tx all satisfy it.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type txBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// StatementObserver is told about every catalog statement execution.
type StatementObserver interface {
	ObserveStatement(name string, err error)
}

type noopObserver struct{}

func (noopObserver) ObserveStatement(string, error) {}

// Repository is the data access layer for one request. It is bound to a
// single handle and must not be shared between concurrent requests when that
// handle is a connection or a transaction.
type Repository struct {
	q        DBTX
	observer StatementObserver
	now      func() time.Time
}

type Option func(*Repository)

// WithObserver reports statement outcomes, typically to Prometheus.
func WithObserver(o StatementObserver) Option {
	return func(r *Repository) {
		if o != nil {
			r.observer = o
		}
	}
}

// WithClock overrides the clock used to stamp created columns.
func WithClock(now func() time.Time) Option {
	return func(r *Repository) { r.now = now }
}

func New(q DBTX, opts ...Option) *Repository {
	r := &Repository{q: q, observer: noopObserver{}, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Repository) bind(q DBTX) *Repository {
	return &Repository{q: q, observer: r.observer, now: r.now}
}

// InTx runs fn against a transaction-bound copy of r. A repository that is
// already bound to a transaction reuses it, so operations compose.
func (r *Repository) InTx(ctx context.Context, fn func(tx *Repository) error) error {
	if _, ok := r.q.(*sql.Tx); ok {
		return fn(r)
	}
	b, ok := r.q.(txBeginner)
	if !ok {
		return fmt.Errorf("repository.InTx: %T cannot begin a transaction: %w", r.q, common.ErrStorage)
	}

	tx, err := b.BeginTx(ctx, nil)
	if err != nil {
		return common.StorageFailure("repository.InTx begin", err)
	}
	defer tx.Rollback() // no-op after commit

	if err := fn(r.bind(tx)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return common.StorageFailure("repository.InTx commit", err)
	}
	return nil
}

func (r *Repository) exec(ctx context.Context, name string, args ...any) (sql.Result, error) {
	res, err := r.q.ExecContext(ctx, statement(name), args...)
	r.observer.ObserveStatement(name, err)
	return res, err
}

// execAffecting runs an update or delete and reports NotFound when no row
// matched.
func (r *Repository) execAffecting(ctx context.Context, name string, entity common.Entity, key any, args ...any) error {
	res, err := r.exec(ctx, name, args...)
	if err != nil {
		return storageErr(name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storageErr(name, err)
	}
	if n == 0 {
		return common.NotFound(entity, key)
	}
	return nil
}

func (r *Repository) query(ctx context.Context, name string, args ...any) (*sql.Rows, error) {
	rows, err := r.q.QueryContext(ctx, statement(name), args...)
	r.observer.ObserveStatement(name, err)
	return rows, err
}

// scanOne runs a single-row statement into dest. sql.ErrNoRows is returned
// untouched so callers can turn it into the right NotFound.
func (r *Repository) scanOne(ctx context.Context, name string, args []any, dest ...any) error {
	err := r.q.QueryRowContext(ctx, statement(name), args...).Scan(dest...)
	if errors.Is(err, sql.ErrNoRows) {
		r.observer.ObserveStatement(name, nil)
		return err
	}
	r.observer.ObserveStatement(name, err)
	return err
}

func (r *Repository) exists(ctx context.Context, name string, arg any) (bool, error) {
	var ok bool
	if err := r.scanOne(ctx, name, []any{arg}, &ok); err != nil {
		return false, storageErr(name, err)
	}
	return ok, nil
}

func (r *Repository) created() int64 {
	return r.now().Unix()
}

// storageErr classifies a driver error. Errors that already carry a domain
// meaning pass through.
func storageErr(op string, err error) error {
	if errors.Is(err, common.ErrNotFound) || errors.Is(err, common.ErrConflict) ||
		errors.Is(err, common.ErrStorage) || errors.Is(err, common.ErrSubmissionsClosed) {
		return err
	}
	return common.StorageFailure(op, err)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern turns free text into an ILIKE substring pattern with the
// wildcard characters of the input taken literally.
func containsPattern(text string) string {
	return "%" + likeEscaper.Replace(text) + "%"
}

func nullableID(id *int64) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *id, Valid: true}
}
