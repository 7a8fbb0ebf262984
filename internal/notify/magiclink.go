package notify

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// MagicClaims identify the user, the channel the link was sent over and
// where the frontend should redirect after signing in.
type MagicClaims struct {
	Channel  string `json:"channel"`
	Redirect string `json:"redirect"`
	jwt.RegisteredClaims
}

// MagicLinks issues signed auto-login links.
type MagicLinks struct {
	secret  []byte
	ttl     time.Duration
	baseURL string
	now     func() time.Time
}

func NewMagicLinks(secret string, ttl time.Duration, baseURL string) *MagicLinks {
	return &MagicLinks{
		secret:  []byte(secret),
		ttl:     ttl,
		baseURL: strings.TrimRight(baseURL, "/"),
		now:     time.Now,
	}
}

func (m *MagicLinks) Generate(userID, channel, destinationPath string) (string, error) {
	const op = "internal.notify.MagicLinks.Generate"

	if !strings.HasPrefix(destinationPath, "/") {
		destinationPath = "/" + destinationPath
	}

	now := m.now()
	claims := MagicClaims{
		Channel:  channel,
		Redirect: destinationPath,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("%s: failed to sign token: %w", op, err)
	}

	return m.baseURL + "/auth/magic?token=" + url.QueryEscape(token), nil
}

// Parse verifies a token taken from a generated link.
func (m *MagicLinks) Parse(token string) (*MagicClaims, error) {
	parsed, err := jwt.ParseWithClaims(token, &MagicClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}

		return m.secret, nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*MagicClaims)
	if !ok || !parsed.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}

	return claims, nil
}
