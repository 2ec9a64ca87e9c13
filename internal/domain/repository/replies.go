package repository

import (
	"context"
	"database/sql"
	"errors"

	"chall_zone/internal/common"
	"chall_zone/internal/domain/model"
)

// CreateComment stores a comment under challengeID. The parent must already
// have been checked with ChallengeExists.
func (r *Repository) CreateComment(ctx context.Context, authorID, challengeID int64, body string) (int64, error) {
	var id int64
	if err := r.scanOne(ctx, stmtCreateComment, []any{r.created(), challengeID, body, authorID}, &id); err != nil {
		return 0, storageErr(stmtCreateComment, err)
	}
	return id, nil
}

func (r *Repository) GetComment(ctx context.Context, viewerID, id int64) (*model.CommentHusk, error) {
	item, err := r.feedOne(ctx, stmtGetComment, common.EntityComment, viewerID, id)
	if err != nil {
		return nil, err
	}
	c, ok := item.(*model.CommentHusk)
	if !ok {
		return nil, common.Errorf("%s: got %s row: %w", stmtGetComment, item.Kind(), common.ErrStorage)
	}
	return c, nil
}

func (r *Repository) CommentExists(ctx context.Context, id int64) (bool, error) {
	return r.exists(ctx, stmtCommentExists, id)
}

func (r *Repository) EditComment(ctx context.Context, id int64, fields model.CommentEditable) error {
	return r.execAffecting(ctx, stmtEditComment, common.EntityComment, id, fields.Body, id)
}

// RemoveComment deletes a comment and the votes cast on it.
func (r *Repository) RemoveComment(ctx context.Context, id int64) error {
	return r.InTx(ctx, func(tx *Repository) error {
		if _, err := tx.exec(ctx, stmtRemoveAllCommentVotes, id); err != nil {
			return storageErr(stmtRemoveAllCommentVotes, err)
		}
		return tx.execAffecting(ctx, stmtRemoveComment, common.EntityComment, id, id)
	})
}

// CreateSubmission stores a submission and its optional script. The parent
// challenge is locked and re-read inside the transaction so a submission is
// never attached to a challenge that stopped accepting them.
func (r *Repository) CreateSubmission(ctx context.Context, authorID, challengeID int64, title, body string, script *model.ScriptUpload) (int64, error) {
	var id int64
	err := r.InTx(ctx, func(tx *Repository) error {
		var accepts bool
		if err := tx.scanOne(ctx, stmtChallengeAcceptsSubmissions, []any{challengeID}, &accepts); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return common.NotFound(common.EntityChallenge, challengeID)
			}
			return storageErr(stmtChallengeAcceptsSubmissions, err)
		}
		if !accepts {
			return common.ErrSubmissionsClosed
		}

		var assetID *int64
		if script != nil {
			created, err := tx.CreateAsset(ctx, script.Filename, script.Bytes)
			if err != nil {
				return err
			}
			assetID = &created
		}

		args := []any{tx.created(), challengeID, title, body, nullableID(assetID), authorID}
		if err := tx.scanOne(ctx, stmtCreateSubmission, args, &id); err != nil {
			return storageErr(stmtCreateSubmission, err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (r *Repository) GetSubmission(ctx context.Context, viewerID, id int64) (*model.SubmissionHusk, error) {
	item, err := r.feedOne(ctx, stmtGetSubmission, common.EntitySubmission, viewerID, id)
	if err != nil {
		return nil, err
	}
	s, ok := item.(*model.SubmissionHusk)
	if !ok {
		return nil, common.Errorf("%s: got %s row: %w", stmtGetSubmission, item.Kind(), common.ErrStorage)
	}
	return s, nil
}

func (r *Repository) SubmissionExists(ctx context.Context, id int64) (bool, error) {
	return r.exists(ctx, stmtSubmissionExists, id)
}

// EditSubmission updates title and body and resolves the script reference:
// an explicit ScriptID wins, an uploaded Script replaces the current asset,
// neither keeps it. A replaced asset is created and referenced before the old
// one is deleted.
func (r *Repository) EditSubmission(ctx context.Context, id int64, fields model.SubmissionEditable) error {
	return r.InTx(ctx, func(tx *Repository) error {
		var current sql.NullInt64
		if err := tx.scanOne(ctx, stmtGetSubmissionAsset, []any{id}, &current); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return common.NotFound(common.EntitySubmission, id)
			}
			return storageErr(stmtGetSubmissionAsset, err)
		}

		next := optionalInt64(current)
		var retired *int64
		switch {
		case fields.ScriptID != nil:
			next = fields.ScriptID
		case fields.Script != nil:
			created, err := tx.CreateAsset(ctx, fields.Script.Filename, fields.Script.Bytes)
			if err != nil {
				return err
			}
			retired, next = next, &created
		}

		if err := tx.execAffecting(ctx, stmtEditSubmission, common.EntitySubmission, id,
			fields.Title, fields.Body, nullableID(next), id); err != nil {
			return err
		}

		if retired != nil {
			if err := tx.DeleteAsset(ctx, *retired); err != nil && !common.IsNotFound(err, common.EntityAsset) {
				return err
			}
		}
		return nil
	})
}

// RemoveSubmission deletes a submission, the votes cast on it and its script
// asset, in that order.
func (r *Repository) RemoveSubmission(ctx context.Context, id int64) error {
	return r.InTx(ctx, func(tx *Repository) error {
		if _, err := tx.exec(ctx, stmtRemoveAllSubmissionVotes, id); err != nil {
			return storageErr(stmtRemoveAllSubmissionVotes, err)
		}

		var asset sql.NullInt64
		if err := tx.scanOne(ctx, stmtRemoveSubmission, []any{id}, &asset); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return common.NotFound(common.EntitySubmission, id)
			}
			return storageErr(stmtRemoveSubmission, err)
		}

		if asset.Valid {
			if err := tx.DeleteAsset(ctx, asset.Int64); err != nil && !common.IsNotFound(err, common.EntityAsset) {
				return err
			}
		}
		return nil
	})
}
