package common

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound           = errors.New("requested resource not found")
	ErrUnauthorized       = errors.New("unauthorized access")
	ErrForbidden          = errors.New("forbidden access")
	ErrBadRequest         = errors.New("bad request")
	ErrConflict           = errors.New("resource conflict") // e.g., username already exists
	ErrValidation         = errors.New("validation failed")
	ErrStorage            = errors.New("storage failure")
	ErrInvalidTargetKind  = errors.New("invalid content kind")
	ErrStatsIntegrity     = errors.New("vote statistics query returned no row")
	ErrSubmissionsClosed  = errors.New("challenge does not accept submissions")
	ErrServiceUnavailable = errors.New("service unavailable") // e.g. redis down
)

// Entity names the kind of record a typed error refers to.
type Entity string

const (
	EntityUser       Entity = "user"
	EntityProfile    Entity = "profile"
	EntityAsset      Entity = "asset"
	EntityCategory   Entity = "category"
	EntityChallenge  Entity = "challenge"
	EntityComment    Entity = "comment"
	EntitySubmission Entity = "submission"
)

// NotFoundError reports a lookup on a nonexistent id or username.
type NotFoundError struct {
	Entity Entity
	Key    any
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s '%v' not found", e.Entity, e.Key)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// AlreadyExistsError reports a uniqueness violation on creation.
type AlreadyExistsError struct {
	Entity Entity
	Key    any
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("%s '%v' already exists", e.Entity, e.Key)
}

func (e *AlreadyExistsError) Unwrap() error { return ErrConflict }

func NotFound(entity Entity, key any) error {
	return &NotFoundError{Entity: entity, Key: key}
}

func AlreadyExists(entity Entity, key any) error {
	return &AlreadyExistsError{Entity: entity, Key: key}
}

// IsNotFound reports whether err is a NotFoundError for the given entity.
func IsNotFound(err error, entity Entity) bool {
	var nf *NotFoundError
	return errors.As(err, &nf) && nf.Entity == entity
}

// StorageFailure wraps an unclassified driver error so callers can match
// ErrStorage while the cause stays inspectable.
func StorageFailure(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStorage, err)
}

// IsUniqueViolation reports whether err carries a PostgreSQL unique_violation.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// HTTPStatusFromError maps domain errors to HTTP status codes.
func HTTPStatusFromError(err error) int {
	if err == nil {
		return http.StatusOK
	}
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrUnauthorized) {
		return http.StatusUnauthorized
	}
	if errors.Is(err, ErrForbidden) || errors.Is(err, ErrSubmissionsClosed) {
		return http.StatusForbidden
	}
	if errors.Is(err, ErrBadRequest) || errors.Is(err, ErrValidation) {
		return http.StatusBadRequest
	}
	if errors.Is(err, ErrConflict) || IsUniqueViolation(err) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrServiceUnavailable) {
		return http.StatusServiceUnavailable
	}

	// ErrInvalidTargetKind, ErrStatsIntegrity and ErrStorage are contract
	// violations or infrastructure failures.
	return http.StatusInternalServerError
}

// Errorf creates a new error with formatting, useful for wrapping.
func Errorf(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}
