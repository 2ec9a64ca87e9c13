package repository

import (
	"context"
	"database/sql"
	"errors"

	"chall_zone/internal/common"
	"chall_zone/internal/domain/model"
)

func (r *Repository) UserExists(ctx context.Context, username string) (bool, error) {
	return r.exists(ctx, stmtUserExists, username)
}

// CreateUser stores a new user together with its empty profile. Nothing is
// written when the username is taken.
func (r *Repository) CreateUser(ctx context.Context, username, passwordHash string) (*model.User, error) {
	user := &model.User{Username: username, PasswordHash: passwordHash}

	err := r.InTx(ctx, func(tx *Repository) error {
		if err := tx.scanOne(ctx, stmtCreateUser, []any{username, passwordHash}, &user.ID); err != nil {
			if common.IsUniqueViolation(err) {
				return common.AlreadyExists(common.EntityUser, username)
			}
			return storageErr(stmtCreateUser, err)
		}
		user.Profile.UserID = user.ID
		if err := tx.scanOne(ctx, stmtCreateProfile, []any{user.ID}, &user.Profile.ID); err != nil {
			return storageErr(stmtCreateProfile, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *Repository) GetUser(ctx context.Context, username string) (*model.User, error) {
	return r.getUser(ctx, stmtGetUser, username)
}

func (r *Repository) GetUserByID(ctx context.Context, id int64) (*model.User, error) {
	return r.getUser(ctx, stmtGetUserByID, id)
}

func (r *Repository) getUser(ctx context.Context, name string, key any) (*model.User, error) {
	var row userRow
	if err := r.scanOne(ctx, name, []any{key}, row.dest()...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.NotFound(common.EntityUser, key)
		}
		return nil, storageErr(name, err)
	}
	return row.user(name)
}

// EditUser replaces the editable columns of a user.
func (r *Repository) EditUser(ctx context.Context, id int64, fields model.UserEditable) error {
	err := r.execAffecting(ctx, stmtEditUser, common.EntityUser, id,
		fields.Username, fields.PasswordHash, fields.RequireNewPassword, id)
	if err != nil && common.IsUniqueViolation(err) {
		return common.AlreadyExists(common.EntityUser, fields.Username)
	}
	return err
}

// SearchUsers matches text anywhere in the username, ignoring case.
func (r *Repository) SearchUsers(ctx context.Context, text string, page int) ([]model.UserSummary, error) {
	rows, err := r.query(ctx, stmtSearchUsers, containsPattern(text), model.PageSize, model.PageOffset(page))
	if err != nil {
		return nil, storageErr(stmtSearchUsers, err)
	}
	defer rows.Close()

	users := []model.UserSummary{}
	for rows.Next() {
		var (
			u     model.UserSummary
			image sql.NullInt64
		)
		if err := rows.Scan(&u.ID, &u.Username, &u.IsAdmin, &image); err != nil {
			return nil, storageErr(stmtSearchUsers, err)
		}
		u.ImageAssetID = optionalInt64(image)
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(stmtSearchUsers, err)
	}
	return users, nil
}

func (r *Repository) GetProfile(ctx context.Context, userID int64) (*model.Profile, error) {
	return r.profile(ctx, stmtGetProfile, userID)
}

// LockProfile reads the profile and holds its row until the surrounding
// transaction ends. Use it inside InTx before swapping asset references.
func (r *Repository) LockProfile(ctx context.Context, userID int64) (*model.Profile, error) {
	return r.profile(ctx, stmtLockProfile, userID)
}

func (r *Repository) profile(ctx context.Context, name string, userID int64) (*model.Profile, error) {
	p := &model.Profile{UserID: userID}
	var image, banner sql.NullInt64
	err := r.scanOne(ctx, name, []any{userID}, &p.ID, &p.Description, &image, &banner)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.NotFound(common.EntityProfile, userID)
		}
		return nil, storageErr(name, err)
	}
	p.ImageAssetID = optionalInt64(image)
	p.BannerAssetID = optionalInt64(banner)
	return p, nil
}

// EditProfile swaps the profile's description and asset references. Assets
// that are no longer referenced are left for the caller to delete once this
// change is committed.
func (r *Repository) EditProfile(ctx context.Context, userID int64, fields model.ProfileEditable) error {
	return r.execAffecting(ctx, stmtEditProfile, common.EntityProfile, userID,
		fields.Description, nullableID(fields.ImageAssetID), nullableID(fields.BannerAssetID), userID)
}
