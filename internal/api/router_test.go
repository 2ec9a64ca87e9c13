package api

import (
	"bytes"
	"context"
	"errors"
	"io"
	"math"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"chall_zone/internal/app/service"
	"chall_zone/internal/common/security"
	"chall_zone/internal/domain/model"
	"chall_zone/internal/platform/database"
	"chall_zone/internal/platform/metrics"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type revocations map[string]bool

func (r revocations) IsRevoked(_ context.Context, jti string) (bool, error) {
	return r[jti], nil
}

type testServer struct {
	handler http.Handler
	mock    sqlmock.Sqlmock
	tokens  *security.TokenIssuer
	revoked revocations
}

func newTestServer(t *testing.T, maxUpload int64, checks map[string]HealthCheck) *testServer {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	log := logrus.New()
	log.SetOutput(io.Discard)
	store := service.NewStore(database.NewManager(db, log))
	tokens := security.NewTokenIssuer([]byte("router-secret"), time.Hour)
	revoked := revocations{}

	h := NewRouter(Deps{
		Auth:           service.NewAuthService(store, tokens, nil, log),
		Challenges:     service.NewChallengeService(store, log),
		Replies:        service.NewReplyService(store, log),
		Votes:          service.NewVoteService(store),
		Profiles:       service.NewProfileService(store, log),
		Tokens:         tokens,
		Revocations:    revoked,
		Metrics:        metrics.New(),
		Log:            log,
		MaxUploadBytes: maxUpload,
		HealthChecks:   checks,
	})
	return &testServer{handler: h, mock: mock, tokens: tokens, revoked: revoked}
}

func (s *testServer) token(t *testing.T, userID int64, admin bool) (string, security.Claims) {
	t.Helper()
	tok, claims, err := s.tokens.Issue(userID, admin)
	require.NoError(t, err)
	return tok, claims
}

func (s *testServer) do(req *http.Request, token string) *httptest.ResponseRecorder {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	s.handler.ServeHTTP(rr, req)
	return rr
}

var userCols = []string{
	"id", "username", "password_hash", "require_new_password", "is_admin",
	"profile_id", "description", "image_asset_id", "banner_asset_id",
}

func expectUser(mock sqlmock.Sqlmock, id int64, name string) {
	mock.ExpectQuery(regexp.QuoteMeta("WHERE U.id = $1")).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(userCols).AddRow(id, name, "hash", false, false, id+100, "", nil, nil))
}

func TestHealth(t *testing.T) {
	t.Run("AllUp", func(t *testing.T) {
		srv := newTestServer(t, 1<<20, map[string]HealthCheck{
			"postgres": func(context.Context) error { return nil },
		})
		rr := srv.do(httptest.NewRequest(http.MethodGet, "/health", nil), "")
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"postgres":"ok"}`, rr.Body.String())
	})

	t.Run("DependencyDown", func(t *testing.T) {
		srv := newTestServer(t, 1<<20, map[string]HealthCheck{
			"postgres": func(context.Context) error { return nil },
			"redis":    func(context.Context) error { return errors.New("connection refused") },
		})
		rr := srv.do(httptest.NewRequest(http.MethodGet, "/health", nil), "")
		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
		assert.JSONEq(t, `{"postgres":"ok","redis":"down"}`, rr.Body.String())
	})
}

func TestMutationsRequireToken(t *testing.T) {
	srv := newTestServer(t, 1<<20, nil)

	for _, tc := range []struct{ method, path string }{
		{http.MethodPost, "/api/v1/challenges/"},
		{http.MethodDelete, "/api/v1/challenges/1"},
		{http.MethodPost, "/api/v1/challenges/1/comments"},
		{http.MethodPut, "/api/v1/comments/1"},
		{http.MethodDelete, "/api/v1/submissions/1"},
		{http.MethodPost, "/api/v1/votes/challenge/1"},
		{http.MethodPut, "/api/v1/me/profile"},
		{http.MethodPost, "/api/v1/auth/logout"},
	} {
		rr := srv.do(httptest.NewRequest(tc.method, tc.path, nil), "")
		assert.Equal(t, http.StatusUnauthorized, rr.Code, "%s %s", tc.method, tc.path)
	}

	rr := srv.do(httptest.NewRequest(http.MethodPost, "/api/v1/votes/challenge/1", nil), "not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	require.NoError(t, srv.mock.ExpectationsWereMet())
}

func TestRevokedTokenIsRejected(t *testing.T) {
	srv := newTestServer(t, 1<<20, nil)
	tok, claims := srv.token(t, 1, false)
	srv.revoked[claims.JTI] = true

	rr := srv.do(httptest.NewRequest(http.MethodPost, "/api/v1/votes/challenge/9", nil), tok)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Contains(t, rr.Body.String(), "revoked")
}

func TestAdminRoutesRejectUsers(t *testing.T) {
	srv := newTestServer(t, 1<<20, nil)
	tok, _ := srv.token(t, 2, false)

	rr := srv.do(httptest.NewRequest(http.MethodPost, "/api/v1/admin/users/bob/password-reset", nil), tok)
	assert.Equal(t, http.StatusForbidden, rr.Code)
	require.NoError(t, srv.mock.ExpectationsWereMet())
}

func TestVoteRoutes(t *testing.T) {
	t.Run("UnknownKind", func(t *testing.T) {
		srv := newTestServer(t, 1<<20, nil)
		tok, _ := srv.token(t, 1, false)

		rr := srv.do(httptest.NewRequest(http.MethodPost, "/api/v1/votes/profile/3", nil), tok)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		require.NoError(t, srv.mock.ExpectationsWereMet())
	})

	t.Run("VoteOnComment", func(t *testing.T) {
		srv := newTestServer(t, 1<<20, nil)
		tok, _ := srv.token(t, 1, false)

		expectUser(srv.mock, 1, "alice")
		srv.mock.ExpectExec(regexp.QuoteMeta("INSERT INTO votes (comment_id, voter_id)")).
			WithArgs(7, 1).
			WillReturnResult(sqlmock.NewResult(0, 1))

		rr := srv.do(httptest.NewRequest(http.MethodPost, "/api/v1/votes/comment/7", nil), tok)
		assert.Equal(t, http.StatusNoContent, rr.Code)
		require.NoError(t, srv.mock.ExpectationsWereMet())
	})

	t.Run("BadID", func(t *testing.T) {
		srv := newTestServer(t, 1<<20, nil)
		tok, _ := srv.token(t, 1, false)

		rr := srv.do(httptest.NewRequest(http.MethodDelete, "/api/v1/votes/comment/abc", nil), tok)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestPublicReadsUseAnonymousViewer(t *testing.T) {
	srv := newTestServer(t, 1<<20, nil)

	srv.mock.ExpectQuery(regexp.QuoteMeta("WHERE C.id = $2")).
		WithArgs(0, 42).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "created", "title", "body", "accepts_submissions", "category_id", "category_name",
			"author_id", "author_name", "author_image_id", "vote_count", "has_my_vote",
		}).AddRow(42, 100, "Evalception", "eval all the things", true, 1, "Code Golf", 1, "alice", nil, 3, false))

	rr := srv.do(httptest.NewRequest(http.MethodGet, "/api/v1/challenges/42", nil), "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Contains(t, rr.Body.String(), `"slug":"evalception"`)
	require.NoError(t, srv.mock.ExpectationsWereMet())
}

func TestHugePageReadsAsEmptyPage(t *testing.T) {
	srv := newTestServer(t, 1<<20, nil)

	srv.mock.ExpectQuery(regexp.QuoteMeta("FROM challenges C")).
		WithArgs(0, nil, model.PageSize, math.MaxInt/model.PageSize*model.PageSize).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "created", "title", "body", "accepts_submissions", "category_id", "category_name",
			"author_id", "author_name", "author_image_id", "vote_count", "has_my_vote",
		}))

	rr := srv.do(httptest.NewRequest(http.MethodGet, "/api/v1/challenges/?page=922337203685477581", nil), "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.JSONEq(t, `[]`, rr.Body.String())
	require.NoError(t, srv.mock.ExpectationsWereMet())
}

func TestAssetsAreServedInert(t *testing.T) {
	png := append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 16)...)

	for _, tc := range []struct {
		name        string
		value       []byte
		contentType string
		disposition string
	}{
		{"Script", []byte("<script>alert(1)</script>"), "text/plain; charset=utf-8", "inline"},
		{"Image", png, "image/png", "inline"},
		{"Binary", []byte{0xff, 0xfe, 0x00, 0x01, 0x80}, "application/octet-stream", "attachment"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			srv := newTestServer(t, 1<<20, nil)
			srv.mock.ExpectQuery(regexp.QuoteMeta("SELECT filename, value FROM assets WHERE id = $1")).
				WithArgs(5).
				WillReturnRows(sqlmock.NewRows([]string{"filename", "value"}).AddRow("solve.html", tc.value))

			rr := srv.do(httptest.NewRequest(http.MethodGet, "/api/v1/assets/5", nil), "")
			require.Equal(t, http.StatusOK, rr.Code)
			assert.Equal(t, tc.contentType, rr.Header().Get("Content-Type"))
			assert.True(t, strings.HasPrefix(rr.Header().Get("Content-Disposition"), tc.disposition))
			assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
			assert.Contains(t, rr.Header().Get("Content-Security-Policy"), "sandbox")
			assert.Equal(t, tc.value, rr.Body.Bytes())
		})
	}
}

func TestUploadTooLarge(t *testing.T) {
	srv := newTestServer(t, 512, nil)
	tok, _ := srv.token(t, 1, false)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("description", "hi"))
	part, err := mw.CreateFormFile("image", "big.png")
	require.NoError(t, err)
	_, err = part.Write(bytes.Repeat([]byte("x"), 4096))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPut, "/api/v1/me/profile", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rr := srv.do(req, tok)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
	require.NoError(t, srv.mock.ExpectationsWereMet())
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, 1<<20, nil)
	srv.do(httptest.NewRequest(http.MethodGet, "/health", nil), "")

	rr := srv.do(httptest.NewRequest(http.MethodGet, "/metrics", nil), "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `route="/health"`)
}
