package repository

import (
	"database/sql"
	"fmt"

	"chall_zone/internal/common"
	"chall_zone/internal/domain/model"
)

// columns converts nullable scan carriers into record fields. The first NULL
// found in a required column is kept as the row error.
type columns struct {
	stmt string
	err  error
}

func (c *columns) missing(col string) {
	if c.err == nil {
		c.err = fmt.Errorf("%s: unexpected NULL in column %s: %w", c.stmt, col, common.ErrStorage)
	}
}

func (c *columns) int64(col string, v sql.NullInt64) int64 {
	if !v.Valid {
		c.missing(col)
	}
	return v.Int64
}

func (c *columns) string(col string, v sql.NullString) string {
	if !v.Valid {
		c.missing(col)
	}
	return v.String
}

func (c *columns) bool(col string, v sql.NullBool) bool {
	if !v.Valid {
		c.missing(col)
	}
	return v.Bool
}

func optionalInt64(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	id := v.Int64
	return &id
}

func optionalString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

// challengeRow matches challengeColumns.
type challengeRow struct {
	id                 sql.NullInt64
	created            sql.NullInt64
	title              sql.NullString
	body               sql.NullString
	acceptsSubmissions sql.NullBool
	categoryID         sql.NullInt64
	categoryName       sql.NullString
	authorID           sql.NullInt64
	authorName         sql.NullString
	authorImageID      sql.NullInt64
	votes              sql.NullInt64
	hasMyVote          sql.NullBool
}

func (r *challengeRow) dest() []any {
	return []any{
		&r.id, &r.created, &r.title, &r.body, &r.acceptsSubmissions,
		&r.categoryID, &r.categoryName, &r.authorID, &r.authorName,
		&r.authorImageID, &r.votes, &r.hasMyVote,
	}
}

func (r *challengeRow) husk(stmt string) (*model.ChallengeHusk, error) {
	c := columns{stmt: stmt}
	h := &model.ChallengeHusk{
		ID:                 c.int64("id", r.id),
		Created:            c.int64("created", r.created),
		Title:              c.string("title", r.title),
		Body:               c.string("body", r.body),
		AcceptsSubmissions: c.bool("accepts_submissions", r.acceptsSubmissions),
		CategoryID:         c.int64("category_id", r.categoryID),
		CategoryName:       c.string("category_name", r.categoryName),
		AuthorID:           c.int64("author_id", r.authorID),
		AuthorName:         c.string("author_name", r.authorName),
		AuthorImageID:      optionalInt64(r.authorImageID),
		Votes:              c.int64("vote_count", r.votes),
		HasMyVote:          c.bool("has_my_vote", r.hasMyVote),
	}
	if c.err != nil {
		return nil, c.err
	}
	h.Slug = model.ChallengeSlug(h.Title)
	return h, nil
}

// feedRow matches the shared column shape of the feed selects.
type feedRow struct {
	kind               sql.NullString
	id                 sql.NullInt64
	created            sql.NullInt64
	title              sql.NullString
	body               sql.NullString
	challengeID        sql.NullInt64
	categoryID         sql.NullInt64
	categoryName       sql.NullString
	acceptsSubmissions sql.NullBool
	authorID           sql.NullInt64
	authorName         sql.NullString
	authorImageID      sql.NullInt64
	votes              sql.NullInt64
	hasMyVote          sql.NullBool
	solutionAssetID    sql.NullInt64
	solutionFilename   sql.NullString
}

func (r *feedRow) dest() []any {
	return []any{
		&r.kind, &r.id, &r.created, &r.title, &r.body, &r.challengeID,
		&r.categoryID, &r.categoryName, &r.acceptsSubmissions,
		&r.authorID, &r.authorName, &r.authorImageID, &r.votes, &r.hasMyVote,
		&r.solutionAssetID, &r.solutionFilename,
	}
}

// challenge projects the challenge columns of a feed row.
func (r *feedRow) challenge() *challengeRow {
	return &challengeRow{
		id:                 r.id,
		created:            r.created,
		title:              r.title,
		body:               r.body,
		acceptsSubmissions: r.acceptsSubmissions,
		categoryID:         r.categoryID,
		categoryName:       r.categoryName,
		authorID:           r.authorID,
		authorName:         r.authorName,
		authorImageID:      r.authorImageID,
		votes:              r.votes,
		hasMyVote:          r.hasMyVote,
	}
}

// item builds the husk named by the kind column, checking only the columns
// that kind requires.
func (r *feedRow) item(stmt string) (model.FeedItem, error) {
	c := columns{stmt: stmt}
	kind, err := model.ParseContentKind(c.string("kind", r.kind))
	if c.err != nil {
		return nil, c.err
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", stmt, err)
	}

	var item model.FeedItem
	switch kind {
	case model.KindChallenge:
		h, err := r.challenge().husk(stmt)
		if err != nil {
			return nil, err
		}
		return h, nil
	case model.KindComment:
		item = &model.CommentHusk{
			ID:            c.int64("id", r.id),
			Created:       c.int64("created", r.created),
			Body:          c.string("body", r.body),
			ChallengeID:   c.int64("challenge_id", r.challengeID),
			AuthorID:      c.int64("author_id", r.authorID),
			AuthorName:    c.string("author_name", r.authorName),
			AuthorImageID: optionalInt64(r.authorImageID),
			Votes:         c.int64("vote_count", r.votes),
			HasMyVote:     c.bool("has_my_vote", r.hasMyVote),
		}
	case model.KindSubmission:
		item = &model.SubmissionHusk{
			ID:               c.int64("id", r.id),
			Created:          c.int64("created", r.created),
			ChallengeID:      c.int64("challenge_id", r.challengeID),
			Title:            c.string("title", r.title),
			Body:             c.string("body", r.body),
			AuthorID:         c.int64("author_id", r.authorID),
			AuthorName:       c.string("author_name", r.authorName),
			AuthorImageID:    optionalInt64(r.authorImageID),
			SolutionAssetID:  optionalInt64(r.solutionAssetID),
			SolutionFilename: optionalString(r.solutionFilename),
			Votes:            c.int64("vote_count", r.votes),
			HasMyVote:        c.bool("has_my_vote", r.hasMyVote),
		}
	default:
		return nil, fmt.Errorf("%s: %w: %s", stmt, common.ErrInvalidTargetKind, kind)
	}

	if c.err != nil {
		return nil, c.err
	}
	return item, nil
}

// userRow matches userColumns.
type userRow struct {
	id                 sql.NullInt64
	username           sql.NullString
	passwordHash       sql.NullString
	requireNewPassword sql.NullBool
	isAdmin            sql.NullBool
	profileID          sql.NullInt64
	description        sql.NullString
	imageAssetID       sql.NullInt64
	bannerAssetID      sql.NullInt64
}

func (r *userRow) dest() []any {
	return []any{
		&r.id, &r.username, &r.passwordHash, &r.requireNewPassword, &r.isAdmin,
		&r.profileID, &r.description, &r.imageAssetID, &r.bannerAssetID,
	}
}

// user requires the joined profile: a user is never stored without one.
func (r *userRow) user(stmt string) (*model.User, error) {
	c := columns{stmt: stmt}
	u := &model.User{
		ID:                 c.int64("id", r.id),
		Username:           c.string("username", r.username),
		PasswordHash:       c.string("password_hash", r.passwordHash),
		RequireNewPassword: c.bool("require_new_password", r.requireNewPassword),
		IsAdmin:            c.bool("is_admin", r.isAdmin),
	}
	u.Profile = model.Profile{
		ID:            c.int64("profile_id", r.profileID),
		UserID:        u.ID,
		Description:   c.string("description", r.description),
		ImageAssetID:  optionalInt64(r.imageAssetID),
		BannerAssetID: optionalInt64(r.bannerAssetID),
	}
	if c.err != nil {
		return nil, c.err
	}
	return u, nil
}
