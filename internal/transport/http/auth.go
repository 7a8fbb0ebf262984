package http

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/trudify/trudify-core/internal/apperrors"
)

// AccessAudience is the audience of API access tokens. Magic-link tokens
// are signed with the same secret but carry no audience, so they cannot be
// used as bearer tokens.
const AccessAudience = "trudify-api"

// TokenVerifier resolves a bearer token to a user id.
type TokenVerifier interface {
	Verify(raw string) (string, error)
}

// AccessTokens verifies HS256 access tokens issued by the auth service.
type AccessTokens struct {
	secret []byte
	now    func() time.Time
}

func NewAccessTokens(secret string) *AccessTokens {
	return &AccessTokens{secret: []byte(secret), now: time.Now}
}

func (a *AccessTokens) Verify(raw string) (string, error) {
	claims := &jwt.RegisteredClaims{}

	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}

		return a.secret, nil
	},
		jwt.WithAudience(AccessAudience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %w", apperrors.ErrUnauthorized, err)
	}

	if claims.Subject == "" {
		return "", fmt.Errorf("%w: token has no subject", apperrors.ErrUnauthorized)
	}

	return claims.Subject, nil
}

const userIDKey = contextKey("userID")

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		const op = "internal.transport.http.authenticate"

		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || strings.TrimSpace(raw) == "" {
			s.handleServiceError(w, r, op, apperrors.ErrUnauthorized)
			return
		}

		userID, err := s.tokens.Verify(strings.TrimSpace(raw))
		if err != nil {
			s.handleServiceError(w, r, op, err)
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, userID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func userIDFrom(ctx context.Context) string {
	if userID, ok := ctx.Value(userIDKey).(string); ok {
		return userID
	}

	return ""
}
