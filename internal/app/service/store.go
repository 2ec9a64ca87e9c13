package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"chall_zone/internal/common"
	"chall_zone/internal/domain/model"
	"chall_zone/internal/domain/permission"
	"chall_zone/internal/domain/repository"
	"chall_zone/internal/platform/database"
)

// Store hands each call a repository bound to its own pooled connection. The
// connection is returned when fn returns, whatever the outcome.
type Store interface {
	Do(ctx context.Context, fn func(repo *repository.Repository) error) error
}

type connStore struct {
	db   *database.Manager
	opts []repository.Option
}

func NewStore(db *database.Manager, opts ...repository.Option) Store {
	return &connStore{db: db, opts: opts}
}

func (s *connStore) Do(ctx context.Context, fn func(repo *repository.Repository) error) error {
	return s.db.WithConn(ctx, func(conn *sql.Conn) error {
		return fn(repository.New(conn, s.opts...))
	})
}

// loadActor reads the caller from storage so permission decisions never run
// on stale token data. A token for a user that no longer exists is
// unauthorized.
func loadActor(ctx context.Context, repo *repository.Repository, userID int64) (*model.User, *permission.Actor, error) {
	user, err := repo.GetUserByID(ctx, userID)
	if err != nil {
		if common.IsNotFound(err, common.EntityUser) {
			return nil, nil, fmt.Errorf("user %d: %w", userID, common.ErrUnauthorized)
		}
		return nil, nil, err
	}
	return user, permission.ActorOf(user), nil
}

// validateCategory rejects ids outside the live category set.
func validateCategory(ctx context.Context, repo *repository.Repository, categoryID int64) error {
	ok, err := repo.CategoryExists(ctx, categoryID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: unknown category %d", common.ErrValidation, categoryID)
	}
	return nil
}

func requireFound(ok bool, err error, entity common.Entity, id int64) error {
	if err != nil {
		return err
	}
	if !ok {
		return common.NotFound(entity, id)
	}
	return nil
}

var errEmptyField = errors.New("must not be empty")

func requireText(field, value string) error {
	if value == "" {
		return fmt.Errorf("%w: %s %w", common.ErrValidation, field, errEmptyField)
	}
	return nil
}
