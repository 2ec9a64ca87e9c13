package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"chall_zone/internal/common"
	"chall_zone/internal/common/security"
	"chall_zone/internal/domain/model"

	"github.com/go-chi/jwtauth/v5"
)

type contextKey string

const claimsCtxKey contextKey = "claims"

// RevocationChecker reports logged-out tokens.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// Authenticator rejects requests without a valid, unrevoked token. It relies
// on jwtauth.Verifier having run first.
func Authenticator(rev RevocationChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := verifiedClaims(r, rev)
			if err != nil {
				common.RespondWithError(w, common.HTTPStatusFromError(err), err.Error())
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsCtxKey, claims)))
		})
	}
}

// OptionalAuth identifies the viewer when a usable token is present and lets
// everyone else through as anonymous.
func OptionalAuth(rev RevocationChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := verifiedClaims(r, rev)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsCtxKey, claims)))
		})
	}
}

var (
	errTokenRequired = errors.New("authorization token required")
	errTokenRevoked  = errors.New("token has been revoked")
)

func verifiedClaims(r *http.Request, rev RevocationChecker) (security.Claims, error) {
	token, raw, err := jwtauth.FromContext(r.Context())
	if err != nil || token == nil {
		if err == nil || errors.Is(err, jwtauth.ErrNoTokenFound) {
			err = errTokenRequired
		}
		return security.Claims{}, fmt.Errorf("%w: %w", common.ErrUnauthorized, err)
	}

	claims, err := security.ClaimsFromMap(raw)
	if err != nil {
		return security.Claims{}, fmt.Errorf("%w: %w", common.ErrUnauthorized, err)
	}

	revoked, err := rev.IsRevoked(r.Context(), claims.JTI)
	if err != nil {
		return security.Claims{}, err
	}
	if revoked {
		return security.Claims{}, fmt.Errorf("%w: %w", common.ErrUnauthorized, errTokenRevoked)
	}
	return claims, nil
}

// AdminOnly short-circuits non-admin tokens. Services still decide on the
// freshly loaded account.
func AdminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := ClaimsFromContext(r.Context())
		if !ok || claims.Role != security.RoleAdmin {
			common.RespondWithError(w, http.StatusForbidden, "Admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func ClaimsFromContext(ctx context.Context) (security.Claims, bool) {
	claims, ok := ctx.Value(claimsCtxKey).(security.Claims)
	return claims, ok
}

// ViewerID is the authenticated user id, or the anonymous viewer.
func ViewerID(ctx context.Context) int64 {
	if claims, ok := ClaimsFromContext(ctx); ok {
		return claims.UserID
	}
	return model.AnonymousViewer
}

// WithClaims is used by tests and internal callers to fake an authenticated
// request.
func WithClaims(ctx context.Context, claims security.Claims) context.Context {
	return context.WithValue(ctx, claimsCtxKey, claims)
}
