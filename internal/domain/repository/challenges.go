package repository

import (
	"context"
	"database/sql"
	"errors"

	"chall_zone/internal/common"
	"chall_zone/internal/domain/model"
)

// GetChallenges returns one page of challenges, newest first, optionally
// restricted to a category. Vote totals and the viewer's own vote come from
// the same statement.
func (r *Repository) GetChallenges(ctx context.Context, viewerID int64, categoryID *int64, page int) ([]*model.ChallengeHusk, error) {
	return r.challengeList(ctx, stmtGetFullChallenges,
		viewerID, nullableID(categoryID), model.PageSize, model.PageOffset(page))
}

// SearchChallenges is GetChallenges narrowed to challenges whose title or
// body contains text, ignoring case.
func (r *Repository) SearchChallenges(ctx context.Context, text string, viewerID int64, categoryID *int64, page int) ([]*model.ChallengeHusk, error) {
	return r.challengeList(ctx, stmtSearchChallenges,
		viewerID, nullableID(categoryID), containsPattern(text), model.PageSize, model.PageOffset(page))
}

func (r *Repository) challengeList(ctx context.Context, name string, args ...any) ([]*model.ChallengeHusk, error) {
	rows, err := r.query(ctx, name, args...)
	if err != nil {
		return nil, storageErr(name, err)
	}
	defer rows.Close()

	challenges := []*model.ChallengeHusk{}
	for rows.Next() {
		var row challengeRow
		if err := rows.Scan(row.dest()...); err != nil {
			return nil, storageErr(name, err)
		}
		h, err := row.husk(name)
		if err != nil {
			return nil, err
		}
		challenges = append(challenges, h)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(name, err)
	}
	return challenges, nil
}

func (r *Repository) GetChallenge(ctx context.Context, viewerID, id int64) (*model.ChallengeHusk, error) {
	var row challengeRow
	if err := r.scanOne(ctx, stmtGetFullChallenge, []any{viewerID, id}, row.dest()...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.NotFound(common.EntityChallenge, id)
		}
		return nil, storageErr(stmtGetFullChallenge, err)
	}
	return row.husk(stmtGetFullChallenge)
}

func (r *Repository) ChallengeExists(ctx context.Context, id int64) (bool, error) {
	return r.exists(ctx, stmtChallengeExists, id)
}

// CreateChallenge stores a challenge stamped with the current time. The
// category must already have been checked with CategoryExists.
func (r *Repository) CreateChallenge(ctx context.Context, authorID int64, fields model.ChallengeEditable) (int64, error) {
	var id int64
	args := []any{r.created(), fields.Title, fields.Body, fields.CategoryID, authorID, fields.AcceptsSubmissions}
	if err := r.scanOne(ctx, stmtCreateChallenge, args, &id); err != nil {
		return 0, storageErr(stmtCreateChallenge, err)
	}
	return id, nil
}

func (r *Repository) EditChallenge(ctx context.Context, id int64, fields model.ChallengeEditable) error {
	return r.execAffecting(ctx, stmtEditChallenge, common.EntityChallenge, id,
		fields.Title, fields.Body, fields.CategoryID, fields.AcceptsSubmissions, id)
}

// RemoveChallenge deletes a challenge with everything hanging off it: votes on
// its replies, the replies, the replies' script assets, its own votes and
// finally the row itself. All or nothing.
func (r *Repository) RemoveChallenge(ctx context.Context, id int64) error {
	return r.InTx(ctx, func(tx *Repository) error {
		if _, err := tx.exec(ctx, stmtRemoveChallengeReplyVotes, id); err != nil {
			return storageErr(stmtRemoveChallengeReplyVotes, err)
		}
		if _, err := tx.exec(ctx, stmtRemoveChallengeComments, id); err != nil {
			return storageErr(stmtRemoveChallengeComments, err)
		}

		assets, err := tx.removedAssets(ctx, stmtRemoveChallengeSubmissions, id)
		if err != nil {
			return err
		}
		for _, assetID := range assets {
			if err := tx.DeleteAsset(ctx, assetID); err != nil && !common.IsNotFound(err, common.EntityAsset) {
				return err
			}
		}

		if _, err := tx.exec(ctx, stmtRemoveChallengeVotes, id); err != nil {
			return storageErr(stmtRemoveChallengeVotes, err)
		}
		return tx.execAffecting(ctx, stmtRemoveChallenge, common.EntityChallenge, id, id)
	})
}

// removedAssets runs a delete that returns solution_asset_id for each removed
// row and collects the non-null ids.
func (r *Repository) removedAssets(ctx context.Context, name string, id int64) ([]int64, error) {
	rows, err := r.query(ctx, name, id)
	if err != nil {
		return nil, storageErr(name, err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var assetID sql.NullInt64
		if err := rows.Scan(&assetID); err != nil {
			return nil, storageErr(name, err)
		}
		if assetID.Valid {
			ids = append(ids, assetID.Int64)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(name, err)
	}
	return ids, nil
}
