package repository

import (
	"context"
	"database/sql"
	"errors"

	"chall_zone/internal/common"
	"chall_zone/internal/domain/model"
)

// GetChallengeReplies returns one page of the comments and submissions of a
// challenge merged into a single timeline, newest first. The merge, ordering
// and paging all happen in one statement.
func (r *Repository) GetChallengeReplies(ctx context.Context, viewerID, challengeID int64, page int) ([]model.Reply, error) {
	items, err := r.feed(ctx, stmtGetChallengeReplies, viewerID, challengeID, model.PageSize, model.PageOffset(page))
	if err != nil {
		return nil, err
	}

	replies := make([]model.Reply, 0, len(items))
	for _, item := range items {
		reply, ok := item.(model.Reply)
		if !ok {
			return nil, common.Errorf("%s: %s row in a reply feed: %w", stmtGetChallengeReplies, item.Kind(), common.ErrStorage)
		}
		replies = append(replies, reply)
	}
	return replies, nil
}

// GetUserContent returns one page of everything a user authored: challenges,
// comments and submissions, newest first.
func (r *Repository) GetUserContent(ctx context.Context, viewerID, userID int64, page int) ([]model.FeedItem, error) {
	return r.feed(ctx, stmtGetUserContent, viewerID, userID, model.PageSize, model.PageOffset(page))
}

func (r *Repository) feed(ctx context.Context, name string, args ...any) ([]model.FeedItem, error) {
	rows, err := r.query(ctx, name, args...)
	if err != nil {
		return nil, storageErr(name, err)
	}
	defer rows.Close()

	items := []model.FeedItem{}
	for rows.Next() {
		var row feedRow
		if err := rows.Scan(row.dest()...); err != nil {
			return nil, storageErr(name, err)
		}
		item, err := row.item(name)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr(name, err)
	}
	return items, nil
}

func (r *Repository) feedOne(ctx context.Context, name string, entity common.Entity, viewerID, id int64) (model.FeedItem, error) {
	var row feedRow
	if err := r.scanOne(ctx, name, []any{viewerID, id}, row.dest()...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.NotFound(entity, id)
		}
		return nil, storageErr(name, err)
	}
	return row.item(name)
}
