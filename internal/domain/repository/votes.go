package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"chall_zone/internal/common"
	"chall_zone/internal/domain/model"
)

var (
	voteStatements = map[model.ContentKind]string{
		model.KindChallenge:  stmtCreateVoteForChallenge,
		model.KindComment:    stmtCreateVoteForComment,
		model.KindSubmission: stmtCreateVoteForSubmission,
	}
	unvoteStatements = map[model.ContentKind]string{
		model.KindChallenge:  stmtRemoveVoteFromChallenge,
		model.KindComment:    stmtRemoveVoteFromComment,
		model.KindSubmission: stmtRemoveVoteFromSubmission,
	}
)

// VoteFor records voterID's vote on target. Voting twice is a no-op and the
// target is not required to exist.
func (r *Repository) VoteFor(ctx context.Context, target model.VoteTarget, voterID int64) error {
	return r.voteExec(ctx, voteStatements, target, voterID)
}

// RemoveVoteFrom withdraws voterID's vote on target, if any.
func (r *Repository) RemoveVoteFrom(ctx context.Context, target model.VoteTarget, voterID int64) error {
	return r.voteExec(ctx, unvoteStatements, target, voterID)
}

func (r *Repository) voteExec(ctx context.Context, byKind map[model.ContentKind]string, target model.VoteTarget, voterID int64) error {
	name, ok := byKind[target.Kind]
	if !ok {
		return fmt.Errorf("repository vote: %w: %s", common.ErrInvalidTargetKind, target.Kind)
	}
	if _, err := r.exec(ctx, name, target.ID, voterID); err != nil {
		return storageErr(name, err)
	}
	return nil
}

// GetReceivedVotes counts the votes cast on content userID authored.
func (r *Repository) GetReceivedVotes(ctx context.Context, userID int64) (model.VoteStats, error) {
	return r.voteStats(ctx, stmtGetReceivedVotes, userID)
}

// GetGivenVotes counts the votes userID cast, ghost votes included.
func (r *Repository) GetGivenVotes(ctx context.Context, userID int64) (model.VoteStats, error) {
	return r.voteStats(ctx, stmtGetGivenVotes, userID)
}

func (r *Repository) voteStats(ctx context.Context, name string, userID int64) (model.VoteStats, error) {
	var s model.VoteStats
	if err := r.scanOne(ctx, name, []any{userID}, &s.Challenge, &s.Comment, &s.Submission); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.VoteStats{}, fmt.Errorf("%s: %w", name, common.ErrStatsIntegrity)
		}
		return model.VoteStats{}, storageErr(name, err)
	}
	return s, nil
}
