package security

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Claims is the typed view of a session token.
type Claims struct {
	UserID    int64
	Role      string
	JTI       string
	ExpiresAt time.Time
}

// TokenIssuer signs session tokens. Its JWTAuth also drives the request
// verifier.
type TokenIssuer struct {
	auth *jwtauth.JWTAuth
	ttl  time.Duration
	now  func() time.Time
}

func NewTokenIssuer(key []byte, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{
		auth: jwtauth.New("HS256", key, nil),
		ttl:  ttl,
		now:  time.Now,
	}
}

func (t *TokenIssuer) Auth() *jwtauth.JWTAuth {
	return t.auth
}

// Issue signs a token for the user. Every token gets its own jti so it can be
// revoked on logout.
func (t *TokenIssuer) Issue(userID int64, isAdmin bool) (string, Claims, error) {
	role := RoleUser
	if isAdmin {
		role = RoleAdmin
	}
	now := t.now()
	c := Claims{
		UserID:    userID,
		Role:      role,
		JTI:       uuid.NewString(),
		ExpiresAt: now.Add(t.ttl).Truncate(time.Second),
	}

	claims := jwt.MapClaims{
		"user_id": strconv.FormatInt(userID, 10),
		"role":    role,
		"jti":     c.JTI,
		"exp":     c.ExpiresAt.Unix(),
		"iat":     now.Unix(),
	}
	_, tokenString, err := t.auth.Encode(claims)
	if err != nil {
		return "", Claims{}, fmt.Errorf("security.Issue: %w", err)
	}
	return tokenString, c, nil
}

// ClaimsFromMap reads the claims placed in the request context by the
// jwtauth verifier.
func ClaimsFromMap(claims map[string]interface{}) (Claims, error) {
	raw, ok := claims["user_id"].(string)
	if !ok {
		return Claims{}, errors.New("user_id claim is missing or not a string")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return Claims{}, fmt.Errorf("user_id claim is not numeric: %w", err)
	}
	role, ok := claims["role"].(string)
	if !ok {
		return Claims{}, errors.New("role claim is missing or not a string")
	}
	jti, ok := claims["jti"].(string)
	if !ok || jti == "" {
		return Claims{}, errors.New("jti claim is missing")
	}

	c := Claims{UserID: id, Role: role, JTI: jti}
	switch exp := claims["exp"].(type) {
	case time.Time:
		c.ExpiresAt = exp
	case float64:
		c.ExpiresAt = time.Unix(int64(exp), 0)
	case int64:
		c.ExpiresAt = time.Unix(exp, 0)
	default:
		return Claims{}, errors.New("exp claim is missing")
	}
	return c, nil
}
