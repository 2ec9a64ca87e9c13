//go:build integration

package repository

import (
	"context"
	"database/sql"
	"io"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"chall_zone/internal/common"
	"chall_zone/internal/domain/model"
	"chall_zone/internal/platform/database"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openIntegrationRepo connects to TEST_DATABASE_URL, wipes the content tables
// and returns a repository whose clock ticks one second per statement that
// stamps a row, so creation order is total.
func openIntegrationRepo(t *testing.T) *Repository {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	db, err := sql.Open("pgx", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	log := logrus.New()
	log.SetOutput(io.Discard)
	ctx := context.Background()
	require.NoError(t, database.NewManager(db, log).EnsureSchema(ctx))

	_, err = db.ExecContext(ctx, `TRUNCATE votes, comments, submissions, challenges, profiles, assets, users RESTART IDENTITY CASCADE`)
	require.NoError(t, err)

	var tick atomic.Int64
	tick.Store(1700000000)
	clock := func() time.Time { return time.Unix(tick.Add(1), 0) }
	return New(db, WithClock(clock))
}

func mustUser(t *testing.T, repo *Repository, name string) *model.User {
	t.Helper()
	u, err := repo.CreateUser(context.Background(), name, "hash-"+name)
	require.NoError(t, err)
	return u
}

func mustChallenge(t *testing.T, repo *Repository, author int64, title string, category int64, accepts bool) int64 {
	t.Helper()
	id, err := repo.CreateChallenge(context.Background(), author, model.ChallengeEditable{
		Title: title, Body: "body of " + title, CategoryID: category, AcceptsSubmissions: accepts,
	})
	require.NoError(t, err)
	return id
}

func TestIntegrationUsers(t *testing.T) {
	repo := openIntegrationRepo(t)
	ctx := context.Background()

	alice := mustUser(t, repo, "alice")
	got, err := repo.GetUser(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, got.ID)
	assert.Empty(t, got.Profile.Description)
	assert.Nil(t, got.Profile.ImageAssetID)
	assert.Nil(t, got.Profile.BannerAssetID)

	_, err = repo.CreateUser(ctx, "alice", "other")
	assert.ErrorIs(t, err, common.ErrConflict)

	var users int
	require.NoError(t, repo.q.QueryRowContext(ctx, `SELECT count(*) FROM users`).Scan(&users))
	assert.Equal(t, 1, users)
}

func TestIntegrationChallengeListing(t *testing.T) {
	repo := openIntegrationRepo(t)
	ctx := context.Background()
	alice := mustUser(t, repo, "alice")

	var created []int64
	for i := 0; i < 25; i++ {
		category := int64(1 + i%2)
		created = append(created, mustChallenge(t, repo, alice.ID, "challenge", category, false))
	}

	page0, err := repo.GetChallenges(ctx, model.AnonymousViewer, nil, 0)
	require.NoError(t, err)
	page1, err := repo.GetChallenges(ctx, model.AnonymousViewer, nil, 1)
	require.NoError(t, err)
	require.Len(t, page0, model.PageSize)
	require.Len(t, page1, model.PageSize)

	seen := map[int64]bool{}
	for i, c := range append(page0, page1...) {
		assert.Equal(t, created[len(created)-1-i], c.ID)
		assert.False(t, seen[c.ID])
		seen[c.ID] = true
	}

	one := int64(1)
	filtered, err := repo.GetChallenges(ctx, model.AnonymousViewer, &one, 0)
	require.NoError(t, err)
	for i, c := range filtered {
		assert.Equal(t, int64(1), c.CategoryID)
		if i > 0 {
			assert.GreaterOrEqual(t, filtered[i-1].Created, c.Created)
		}
	}
}

func TestIntegrationVotes(t *testing.T) {
	repo := openIntegrationRepo(t)
	ctx := context.Background()
	alice := mustUser(t, repo, "alice")
	bob := mustUser(t, repo, "bob")
	id := mustChallenge(t, repo, alice.ID, "Evalception", 1, true)
	target := model.VoteTarget{Kind: model.KindChallenge, ID: id}

	require.NoError(t, repo.VoteFor(ctx, target, bob.ID))
	require.NoError(t, repo.VoteFor(ctx, target, bob.ID))
	c, err := repo.GetChallenge(ctx, bob.ID, id)
	require.NoError(t, err)
	assert.True(t, c.HasMyVote)
	assert.Equal(t, int64(1), c.Votes)

	require.NoError(t, repo.RemoveVoteFrom(ctx, target, bob.ID))
	c, err = repo.GetChallenge(ctx, bob.ID, id)
	require.NoError(t, err)
	assert.False(t, c.HasMyVote)
	assert.Zero(t, c.Votes)

	// ghost vote
	require.NoError(t, repo.VoteFor(ctx, model.VoteTarget{Kind: model.KindComment, ID: 999999}, bob.ID))
	given, err := repo.GetGivenVotes(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), given.Comment)
}

func TestIntegrationRepliesAndSubmissionEdit(t *testing.T) {
	repo := openIntegrationRepo(t)
	ctx := context.Background()
	alice := mustUser(t, repo, "alice")
	bob := mustUser(t, repo, "bob")
	challenge := mustChallenge(t, repo, alice.ID, "Evalception", 1, true)

	commentID, err := repo.CreateComment(ctx, alice.ID, challenge, "first")
	require.NoError(t, err)
	subID, err := repo.CreateSubmission(ctx, bob.ID, challenge, "short", "", &model.ScriptUpload{Filename: "a.py", Bytes: []byte("print(1)")})
	require.NoError(t, err)

	replies, err := repo.GetChallengeReplies(ctx, model.AnonymousViewer, challenge, 0)
	require.NoError(t, err)
	require.Len(t, replies, 2)
	assert.Equal(t, model.KindSubmission, replies[0].Kind())
	assert.Equal(t, subID, replies[0].ItemID())
	assert.Equal(t, model.KindComment, replies[1].Kind())
	assert.Equal(t, commentID, replies[1].ItemID())

	before, err := repo.GetSubmission(ctx, bob.ID, subID)
	require.NoError(t, err)
	require.NotNil(t, before.SolutionAssetID)

	require.NoError(t, repo.EditSubmission(ctx, subID, model.SubmissionEditable{
		Title: "shorter", Script: &model.ScriptUpload{Filename: "b.py", Bytes: []byte("1")},
	}))
	after, err := repo.GetSubmission(ctx, bob.ID, subID)
	require.NoError(t, err)
	require.NotNil(t, after.SolutionAssetID)
	assert.NotEqual(t, *before.SolutionAssetID, *after.SolutionAssetID)

	_, err = repo.GetAsset(ctx, *before.SolutionAssetID)
	assert.True(t, common.IsNotFound(err, common.EntityAsset))

	closed := mustChallenge(t, repo, alice.ID, "No scripts", 1, false)
	_, err = repo.CreateSubmission(ctx, bob.ID, closed, "nope", "", nil)
	assert.ErrorIs(t, err, common.ErrSubmissionsClosed)

	require.NoError(t, repo.RemoveChallenge(ctx, challenge))
	_, err = repo.GetAsset(ctx, *after.SolutionAssetID)
	assert.True(t, common.IsNotFound(err, common.EntityAsset))
	ok, err := repo.CommentExists(ctx, commentID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestIntegrationEvalceptionScenario(t *testing.T) {
	repo := openIntegrationRepo(t)
	ctx := context.Background()
	alice := mustUser(t, repo, "alice")
	bob := mustUser(t, repo, "bob")
	carol := mustUser(t, repo, "carol")

	challenge := mustChallenge(t, repo, alice.ID, "Evalception", 1, true)
	subID, err := repo.CreateSubmission(ctx, bob.ID, challenge, "eval(eval)", "", &model.ScriptUpload{Filename: "solve.py", Bytes: []byte("eval(input())")})
	require.NoError(t, err)

	replies, err := repo.GetChallengeReplies(ctx, alice.ID, challenge, 0)
	require.NoError(t, err)
	require.Len(t, replies, 1)
	sub, ok := replies[0].(*model.SubmissionHusk)
	require.True(t, ok)
	assert.Equal(t, bob.ID, sub.AuthorID)
	assert.Zero(t, sub.Votes)

	require.NoError(t, repo.VoteFor(ctx, model.VoteTarget{Kind: model.KindSubmission, ID: subID}, alice.ID))

	forAlice, err := repo.GetSubmission(ctx, alice.ID, subID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), forAlice.Votes)
	assert.True(t, forAlice.HasMyVote)

	forCarol, err := repo.GetSubmission(ctx, carol.ID, subID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), forCarol.Votes)
	assert.False(t, forCarol.HasMyVote)

	received, err := repo.GetReceivedVotes(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), received.Submission)
}

func TestIntegrationSearchIgnoresCase(t *testing.T) {
	repo := openIntegrationRepo(t)
	ctx := context.Background()
	alice := mustUser(t, repo, "alice")
	mustUser(t, repo, "AliBaba")
	mustUser(t, repo, "bob")
	eval := mustChallenge(t, repo, alice.ID, "Evalception", 1, true)
	mustChallenge(t, repo, alice.ID, "Quine", 1, false)
	mustChallenge(t, repo, alice.ID, "100% golf_", 2, false)

	found, err := repo.SearchChallenges(ctx, "EVAL", model.AnonymousViewer, nil, 0)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, eval, found[0].ID)

	two := int64(2)
	found, err = repo.SearchChallenges(ctx, "eval", model.AnonymousViewer, &two, 0)
	require.NoError(t, err)
	assert.Empty(t, found)

	// wildcards in the search text match literally
	found, err = repo.SearchChallenges(ctx, "0% GOLF_", model.AnonymousViewer, nil, 0)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "100% golf_", found[0].Title)

	found, err = repo.SearchChallenges(ctx, "%", model.AnonymousViewer, nil, 0)
	require.NoError(t, err)
	assert.Len(t, found, 1)

	users, err := repo.SearchUsers(ctx, "ALI", 0)
	require.NoError(t, err)
	names := []string{}
	for _, u := range users {
		names = append(names, u.Username)
	}
	assert.ElementsMatch(t, []string{"alice", "AliBaba"}, names)
}

func TestIntegrationUserContentMergesKinds(t *testing.T) {
	repo := openIntegrationRepo(t)
	ctx := context.Background()
	alice := mustUser(t, repo, "alice")
	bob := mustUser(t, repo, "bob")

	other := mustChallenge(t, repo, alice.ID, "Evalception", 1, true)
	own := mustChallenge(t, repo, bob.ID, "Quine", 1, false)
	commentID, err := repo.CreateComment(ctx, bob.ID, other, "nice one")
	require.NoError(t, err)
	subID, err := repo.CreateSubmission(ctx, bob.ID, other, "eval(eval)", "", nil)
	require.NoError(t, err)
	_, err = repo.CreateComment(ctx, alice.ID, other, "not bob")
	require.NoError(t, err)

	items, err := repo.GetUserContent(ctx, alice.ID, bob.ID, 0)
	require.NoError(t, err)
	require.Len(t, items, 3)

	assert.Equal(t, model.KindSubmission, items[0].Kind())
	assert.Equal(t, subID, items[0].ItemID())
	assert.Equal(t, model.KindComment, items[1].Kind())
	assert.Equal(t, commentID, items[1].ItemID())
	assert.Equal(t, model.KindChallenge, items[2].Kind())
	assert.Equal(t, own, items[2].ItemID())
	for i := 1; i < len(items); i++ {
		assert.GreaterOrEqual(t, items[i-1].CreatedAt(), items[i].CreatedAt())
	}

	challenge, ok := items[2].(*model.ChallengeHusk)
	require.True(t, ok)
	assert.Equal(t, "quine", challenge.Slug)
	assert.Equal(t, "Code Golf", challenge.CategoryName)
}

func TestIntegrationConcurrentProfileEditsLockRow(t *testing.T) {
	repo := openIntegrationRepo(t)
	ctx := context.Background()
	alice := mustUser(t, repo, "alice")

	locked := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- repo.InTx(ctx, func(tx *Repository) error {
			if _, err := tx.LockProfile(ctx, alice.ID); err != nil {
				return err
			}
			close(locked)
			<-release
			return tx.EditProfile(ctx, alice.ID, model.ProfileEditable{Description: "first"})
		})
	}()
	<-locked

	second := make(chan *model.Profile, 1)
	go func() {
		var seen *model.Profile
		err := repo.InTx(ctx, func(tx *Repository) error {
			var err error
			seen, err = tx.LockProfile(ctx, alice.ID)
			return err
		})
		if err != nil {
			seen = nil
		}
		second <- seen
	}()

	select {
	case <-second:
		t.Fatal("second lock acquired while the first transaction held the row")
	case <-time.After(200 * time.Millisecond):
	}
	close(release)
	require.NoError(t, <-done)
	seen := <-second
	require.NotNil(t, seen)
	assert.Equal(t, "first", seen.Description)
}
