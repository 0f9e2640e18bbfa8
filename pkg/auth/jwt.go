// Package auth provides token issuing/verification and the user account
// service behind login and signup.
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/suhrabkhanauto-bit/SouthAsianArticles/pkg/models"
)

// ErrInvalidToken is returned for any token that fails to parse or validate.
var ErrInvalidToken = errors.New("invalid or expired token")

// JWTService handles token signing and verification. It also satisfies the
// live server's TokenVerifier interface, so the same credential gates both
// the REST routes and the live WebSocket.
type JWTService struct {
	secret []byte
	ttl    time.Duration
}

// NewJWTService builds a JWT helper with the given secret and token lifetime.
func NewJWTService(secret string, ttl time.Duration) *JWTService {
	return &JWTService{secret: []byte(secret), ttl: ttl}
}

// Claims is the token payload: user identity plus the registered claims.
type Claims struct {
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// Generate issues a signed HS256 token for the given user.
func (s *JWTService) Generate(user *models.User) (string, error) {
	if user == nil || user.ID == 0 {
		return "", errors.New("user id required")
	}

	claims := Claims{
		Email: strings.TrimSpace(user.Email),
		Name:  strings.TrimSpace(user.Name),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.Itoa(user.ID),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Validate parses and validates a token and returns the user embedded in it.
func (s *JWTService) Validate(token string) (*models.User, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}

	id, err := strconv.Atoi(claims.Subject)
	if err != nil || id <= 0 {
		return nil, ErrInvalidToken
	}
	return &models.User{
		ID:    id,
		Email: strings.TrimSpace(claims.Email),
		Name:  strings.TrimSpace(claims.Name),
	}, nil
}

// Verify checks a bearer credential and yields the authenticated subject.
func (s *JWTService) Verify(token string) (string, error) {
	user, err := s.Validate(token)
	if err != nil {
		return "", err
	}
	return strconv.Itoa(user.ID), nil
}
