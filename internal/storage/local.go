package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken covers expired, tampered, and malformed download tokens.
// They are deliberately indistinguishable to the caller.
var ErrInvalidToken = errors.New("invalid or expired download token")

// Local serves stored objects from a directory and mints signed URLs for
// them. A signed URL embeds an HS256 token carrying only the object path
// and an expiry; redeeming it grants time-boxed retrieval of exactly that
// object and nothing else.
type Local struct {
	Root    string
	BaseURL string
	Secret  []byte
	Now     func() time.Time
}

func (s *Local) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

type downloadClaims struct {
	Path string `json:"pth"`
	jwt.RegisteredClaims
}

// MintSignedURL returns a URL redeemable for the object at path until the
// TTL elapses. Tokens are stateless; nothing is persisted per mint.
func (s *Local) MintSignedURL(path string, ttl time.Duration) (string, error) {
	now := s.now()
	claims := downloadClaims{
		Path: path,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.Secret)
	if err != nil {
		return "", fmt.Errorf("sign download token: %w", err)
	}
	return strings.TrimRight(s.BaseURL, "/") + "/downloads/" + token, nil
}

// Redeem validates a download token and returns the object path it grants.
func (s *Local) Redeem(token string) (string, error) {
	parsed, err := jwt.ParseWithClaims(token, &downloadClaims{}, func(t *jwt.Token) (interface{}, error) {
		return s.Secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())
	if err != nil || !parsed.Valid {
		return "", ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*downloadClaims)
	if !ok || claims.Path == "" {
		return "", ErrInvalidToken
	}
	return claims.Path, nil
}

// Open opens a stored object. The path is anchored under the root
// directory so a token can never name anything outside it.
func (s *Local) Open(path string) (*os.File, error) {
	clean := filepath.Clean("/" + filepath.ToSlash(path))
	return os.Open(filepath.Join(s.Root, clean))
}
