package repository

import "fmt"

// Logical statement names. The layer above the catalog never builds SQL.
const (
	stmtUserExists     = "user_exists"
	stmtCreateUser     = "create_user"
	stmtGetUser        = "get_user"
	stmtGetUserByID    = "get_user_by_id"
	stmtEditUser       = "edit_user"
	stmtSearchUsers    = "search_users"
	stmtCreateProfile  = "create_profile"
	stmtGetProfile     = "get_profile"
	stmtLockProfile    = "lock_profile"
	stmtEditProfile    = "edit_profile"
	stmtCreateAsset    = "create_asset"
	stmtGetAsset       = "get_asset"
	stmtDeleteAsset    = "delete_asset"
	stmtGetCategories  = "get_categories"
	stmtCategoryExists = "category_exists"

	stmtGetFullChallenges           = "get_full_challenges"
	stmtGetFullChallenge            = "get_full_challenge"
	stmtSearchChallenges            = "search_challenges"
	stmtChallengeExists             = "challenge_exists"
	stmtChallengeAcceptsSubmissions = "challenge_accepts_submissions"
	stmtCreateChallenge             = "create_challenge"
	stmtEditChallenge               = "edit_challenge"
	stmtRemoveChallenge             = "remove_challenge"
	stmtRemoveChallengeVotes        = "remove_challenge_votes"
	stmtRemoveChallengeReplyVotes   = "remove_challenge_reply_votes"
	stmtRemoveChallengeComments     = "remove_challenge_comments"
	stmtRemoveChallengeSubmissions  = "remove_challenge_submissions"

	stmtCreateVoteForChallenge    = "create_vote_for_challenge"
	stmtCreateVoteForComment      = "create_vote_for_comment"
	stmtCreateVoteForSubmission   = "create_vote_for_submission"
	stmtRemoveVoteFromChallenge   = "remove_vote_from_challenge"
	stmtRemoveVoteFromComment     = "remove_vote_from_comment"
	stmtRemoveVoteFromSubmission  = "remove_vote_from_submission"
	stmtRemoveAllCommentVotes     = "remove_all_comment_votes"
	stmtRemoveAllSubmissionVotes  = "remove_all_submission_votes"
	stmtGetReceivedVotes          = "get_received_votes"
	stmtGetGivenVotes             = "get_given_votes"

	stmtCreateComment = "create_comment"
	stmtGetComment    = "get_comment"
	stmtCommentExists = "comment_exists"
	stmtEditComment   = "edit_comment"
	stmtRemoveComment = "remove_comment"

	stmtCreateSubmission       = "create_submission"
	stmtGetSubmission          = "get_submission"
	stmtSubmissionExists       = "submission_exists"
	stmtGetSubmissionAsset     = "get_submission_asset"
	stmtEditSubmission         = "edit_submission"
	stmtRemoveSubmission       = "remove_submission"

	stmtGetChallengeReplies = "get_challenge_replies"
	stmtGetUserContent      = "get_user_content"
)

// Shared fragments. They are concatenated at package init, never per call.
const (
	challengeColumns = `
            C.id,
            C.created,
            C.title,
            C.body,
            C.accepts_submissions,
            CC.id AS category_id,
            CC.name AS category_name,
            U.id AS author_id,
            U.username AS author_name,
            P.image_asset_id AS author_image_id,
            COALESCE(VC.vote_count, 0) AS vote_count,
            EXISTS (
                SELECT 1 FROM votes MV WHERE MV.challenge_id = C.id AND MV.voter_id = $1
            ) AS has_my_vote`

	challengeJoins = `
        FROM challenges C
        JOIN challenge_categories CC ON C.category_id = CC.id
        JOIN users U ON C.author_id = U.id
        LEFT JOIN profiles P ON P.user_id = U.id
        LEFT JOIN (
            SELECT challenge_id, COUNT(*) AS vote_count
            FROM votes
            WHERE challenge_id IS NOT NULL
            GROUP BY challenge_id
        ) AS VC ON VC.challenge_id = C.id`

	// Feed rows share one column shape across kinds:
	// kind, id, created, title, body, challenge_id, category_id,
	// category_name, accepts_submissions, author_id, author_name,
	// author_image_id, vote_count, has_my_vote, solution_asset_id,
	// solution_filename.
	commentFeedSelect = `
        SELECT
            'comment'::text AS kind,
            CM.id,
            CM.created,
            NULL::text AS title,
            CM.body,
            CM.challenge_id,
            NULL::bigint AS category_id,
            NULL::text AS category_name,
            NULL::boolean AS accepts_submissions,
            U.id AS author_id,
            U.username AS author_name,
            P.image_asset_id AS author_image_id,
            COALESCE(VC.vote_count, 0) AS vote_count,
            EXISTS (
                SELECT 1 FROM votes MV WHERE MV.comment_id = CM.id AND MV.voter_id = $1
            ) AS has_my_vote,
            NULL::bigint AS solution_asset_id,
            NULL::text AS solution_filename
        FROM comments CM
        JOIN users U ON CM.author_id = U.id
        LEFT JOIN profiles P ON P.user_id = U.id
        LEFT JOIN (
            SELECT comment_id, COUNT(*) AS vote_count
            FROM votes
            WHERE comment_id IS NOT NULL
            GROUP BY comment_id
        ) AS VC ON VC.comment_id = CM.id`

	submissionFeedSelect = `
        SELECT
            'submission'::text AS kind,
            S.id,
            S.created,
            S.title,
            S.body,
            S.challenge_id,
            NULL::bigint AS category_id,
            NULL::text AS category_name,
            NULL::boolean AS accepts_submissions,
            U.id AS author_id,
            U.username AS author_name,
            P.image_asset_id AS author_image_id,
            COALESCE(VC.vote_count, 0) AS vote_count,
            EXISTS (
                SELECT 1 FROM votes MV WHERE MV.submission_id = S.id AND MV.voter_id = $1
            ) AS has_my_vote,
            S.solution_asset_id,
            A.filename AS solution_filename
        FROM submissions S
        JOIN users U ON S.author_id = U.id
        LEFT JOIN profiles P ON P.user_id = U.id
        LEFT JOIN assets A ON A.id = S.solution_asset_id
        LEFT JOIN (
            SELECT submission_id, COUNT(*) AS vote_count
            FROM votes
            WHERE submission_id IS NOT NULL
            GROUP BY submission_id
        ) AS VC ON VC.submission_id = S.id`

	challengeFeedSelect = `
        SELECT
            'challenge'::text AS kind,
            C.id,
            C.created,
            C.title,
            C.body,
            C.id AS challenge_id,
            CC.id AS category_id,
            CC.name AS category_name,
            C.accepts_submissions,
            U.id AS author_id,
            U.username AS author_name,
            P.image_asset_id AS author_image_id,
            COALESCE(VC.vote_count, 0) AS vote_count,
            EXISTS (
                SELECT 1 FROM votes MV WHERE MV.challenge_id = C.id AND MV.voter_id = $1
            ) AS has_my_vote,
            NULL::bigint AS solution_asset_id,
            NULL::text AS solution_filename` + challengeJoins

	// Ties on created are broken by kind and id so pages never overlap.
	feedOrder = `
        ORDER BY created DESC, kind ASC, id DESC`

	userColumns = `
            U.id,
            U.username,
            U.password_hash,
            U.require_new_password,
            U.is_admin,
            P.id AS profile_id,
            P.description,
            P.image_asset_id,
            P.banner_asset_id
        FROM users U
        LEFT JOIN profiles P ON P.user_id = U.id`
)

// statements maps every logical operation to its parameterized text.
var statements = map[string]string{
	stmtUserExists: `SELECT EXISTS (SELECT 1 FROM users WHERE username = $1)`,

	stmtCreateUser: `INSERT INTO users (username, password_hash, require_new_password, is_admin)
        VALUES ($1, $2, FALSE, FALSE) RETURNING id`,

	stmtGetUser: `SELECT` + userColumns + `
        WHERE U.username = $1`,

	stmtGetUserByID: `SELECT` + userColumns + `
        WHERE U.id = $1`,

	stmtEditUser: `UPDATE users SET username = $1, password_hash = $2, require_new_password = $3 WHERE id = $4`,

	stmtSearchUsers: `
        SELECT U.id, U.username, U.is_admin, P.image_asset_id
        FROM users U
        LEFT JOIN profiles P ON P.user_id = U.id
        WHERE U.username ILIKE $1 ESCAPE '\'
        ORDER BY U.username ASC, U.id ASC
        LIMIT $2 OFFSET $3`,

	stmtCreateProfile: `INSERT INTO profiles (user_id, description, image_asset_id, banner_asset_id)
        VALUES ($1, '', NULL, NULL) RETURNING id`,

	stmtGetProfile: `SELECT id, description, image_asset_id, banner_asset_id FROM profiles WHERE user_id = $1`,

	stmtLockProfile: `SELECT id, description, image_asset_id, banner_asset_id FROM profiles WHERE user_id = $1 FOR UPDATE`,

	stmtEditProfile: `UPDATE profiles SET description = $1, image_asset_id = $2, banner_asset_id = $3 WHERE user_id = $4`,

	stmtCreateAsset: `INSERT INTO assets (filename, value) VALUES ($1, $2) RETURNING id`,

	stmtGetAsset: `SELECT filename, value FROM assets WHERE id = $1`,

	stmtDeleteAsset: `DELETE FROM assets WHERE id = $1`,

	stmtGetCategories: `SELECT id, name FROM challenge_categories ORDER BY id ASC`,

	stmtCategoryExists: `SELECT EXISTS (SELECT 1 FROM challenge_categories WHERE id = $1)`,

	stmtGetFullChallenges: `
        SELECT` + challengeColumns + challengeJoins + `
        WHERE ($2::bigint IS NULL OR C.category_id = $2)
        ORDER BY C.created DESC, C.id DESC
        LIMIT $3 OFFSET $4`,

	stmtGetFullChallenge: `
        SELECT` + challengeColumns + challengeJoins + `
        WHERE C.id = $2
        LIMIT 1`,

	stmtSearchChallenges: `
        SELECT` + challengeColumns + challengeJoins + `
        WHERE ($2::bigint IS NULL OR C.category_id = $2)
            AND (C.title ILIKE $3 ESCAPE '\' OR C.body ILIKE $3 ESCAPE '\')
        ORDER BY C.created DESC, C.id DESC
        LIMIT $4 OFFSET $5`,

	stmtChallengeExists: `SELECT EXISTS (SELECT 1 FROM challenges WHERE id = $1)`,

	stmtChallengeAcceptsSubmissions: `SELECT accepts_submissions FROM challenges WHERE id = $1 FOR SHARE`,

	stmtCreateChallenge: `INSERT INTO challenges (created, title, body, category_id, author_id, accepts_submissions)
        VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,

	stmtEditChallenge: `UPDATE challenges SET title = $1, body = $2, category_id = $3, accepts_submissions = $4 WHERE id = $5`,

	stmtRemoveChallenge: `DELETE FROM challenges WHERE id = $1`,

	stmtRemoveChallengeVotes: `DELETE FROM votes WHERE challenge_id = $1`,

	stmtRemoveChallengeReplyVotes: `
        DELETE FROM votes
        WHERE comment_id IN (SELECT id FROM comments WHERE challenge_id = $1)
           OR submission_id IN (SELECT id FROM submissions WHERE challenge_id = $1)`,

	stmtRemoveChallengeComments: `DELETE FROM comments WHERE challenge_id = $1`,

	// Returns the retired script assets so they can be removed after the rows
	// that reference them are gone.
	stmtRemoveChallengeSubmissions: `DELETE FROM submissions WHERE challenge_id = $1 RETURNING solution_asset_id`,

	stmtCreateVoteForChallenge:  `INSERT INTO votes (challenge_id, voter_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
	stmtCreateVoteForComment:    `INSERT INTO votes (comment_id, voter_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
	stmtCreateVoteForSubmission: `INSERT INTO votes (submission_id, voter_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,

	stmtRemoveVoteFromChallenge:  `DELETE FROM votes WHERE challenge_id = $1 AND voter_id = $2`,
	stmtRemoveVoteFromComment:    `DELETE FROM votes WHERE comment_id = $1 AND voter_id = $2`,
	stmtRemoveVoteFromSubmission: `DELETE FROM votes WHERE submission_id = $1 AND voter_id = $2`,

	stmtRemoveAllCommentVotes:    `DELETE FROM votes WHERE comment_id = $1`,
	stmtRemoveAllSubmissionVotes: `DELETE FROM votes WHERE submission_id = $1`,

	stmtGetReceivedVotes: `
        SELECT
            (SELECT COUNT(*) FROM votes V JOIN challenges C ON V.challenge_id = C.id WHERE C.author_id = $1) AS challenge,
            (SELECT COUNT(*) FROM votes V JOIN comments CM ON V.comment_id = CM.id WHERE CM.author_id = $1) AS comment,
            (SELECT COUNT(*) FROM votes V JOIN submissions S ON V.submission_id = S.id WHERE S.author_id = $1) AS submission`,

	stmtGetGivenVotes: `
        SELECT
            COUNT(challenge_id) AS challenge,
            COUNT(comment_id) AS comment,
            COUNT(submission_id) AS submission
        FROM votes
        WHERE voter_id = $1`,

	stmtCreateComment: `INSERT INTO comments (created, challenge_id, body, author_id) VALUES ($1, $2, $3, $4) RETURNING id`,

	stmtGetComment: commentFeedSelect + `
        WHERE CM.id = $2
        LIMIT 1`,

	stmtCommentExists: `SELECT EXISTS (SELECT 1 FROM comments WHERE id = $1)`,

	stmtEditComment: `UPDATE comments SET body = $1 WHERE id = $2`,

	stmtRemoveComment: `DELETE FROM comments WHERE id = $1`,

	stmtCreateSubmission: `INSERT INTO submissions (created, challenge_id, title, body, solution_asset_id, author_id)
        VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,

	stmtGetSubmission: submissionFeedSelect + `
        WHERE S.id = $2
        LIMIT 1`,

	stmtSubmissionExists: `SELECT EXISTS (SELECT 1 FROM submissions WHERE id = $1)`,

	stmtGetSubmissionAsset: `SELECT solution_asset_id FROM submissions WHERE id = $1 FOR UPDATE`,

	stmtEditSubmission: `UPDATE submissions SET title = $1, body = $2, solution_asset_id = $3 WHERE id = $4`,

	stmtRemoveSubmission: `DELETE FROM submissions WHERE id = $1 RETURNING solution_asset_id`,

	stmtGetChallengeReplies: `
        SELECT * FROM (` + commentFeedSelect + `
        WHERE CM.challenge_id = $2
        UNION ALL` + submissionFeedSelect + `
        WHERE S.challenge_id = $2
        ) AS replies` + feedOrder + `
        LIMIT $3 OFFSET $4`,

	stmtGetUserContent: `
        SELECT * FROM (` + challengeFeedSelect + `
        WHERE C.author_id = $2
        UNION ALL` + commentFeedSelect + `
        WHERE CM.author_id = $2
        UNION ALL` + submissionFeedSelect + `
        WHERE S.author_id = $2
        ) AS content` + feedOrder + `
        LIMIT $3 OFFSET $4`,
}

// statement returns the text registered under name. An unknown name is a
// programming error.
func statement(name string) string {
	q, ok := statements[name]
	if !ok {
		panic(fmt.Sprintf("repository: no statement named %q", name))
	}
	return q
}
