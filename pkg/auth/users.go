package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"

	"github.com/suhrabkhanauto-bit/SouthAsianArticles/pkg/models"
)

var (
	// ErrEmailTaken indicates a signup with an already-registered email.
	ErrEmailTaken = errors.New("email already exists")

	// ErrInvalidCredentials covers both unknown email and wrong password, so
	// a caller can't probe which accounts exist.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrMissingFields indicates a request without email or password.
	ErrMissingFields = errors.New("email and password required")
)

const uniqueViolation = "23505"

// Session is a successful login or signup result.
type Session struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

// UserService manages dashboard accounts and issues their tokens.
type UserService struct {
	db  *sql.DB
	jwt *JWTService
}

// NewUserService creates a user service over the shared pool.
func NewUserService(db *sql.DB, jwt *JWTService) *UserService {
	return &UserService{db: db, jwt: jwt}
}

// Signup registers a new account with a bcrypt-hashed password and returns a
// signed session for it.
func (s *UserService) Signup(ctx context.Context, email, password, name string) (*Session, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return nil, ErrMissingFields
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	var user models.User
	err = s.db.QueryRowContext(ctx,
		`INSERT INTO users (email, password_hash, name)
		 VALUES ($1, $2, $3)
		 RETURNING id, email, COALESCE(name, ''), created_at`,
		email, string(hash), nullable(name),
	).Scan(&user.ID, &user.Email, &user.Name, &user.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return s.session(&user)
}

// Login checks the password against the stored bcrypt hash and returns a
// signed session.
func (s *UserService) Login(ctx context.Context, email, password string) (*Session, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return nil, ErrMissingFields
	}

	var user models.User
	var hash string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, email, COALESCE(name, ''), password_hash, created_at
		 FROM users WHERE email = $1`,
		email,
	).Scan(&user.ID, &user.Email, &user.Name, &hash, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	return s.session(&user)
}

func (s *UserService) session(user *models.User) (*Session, error) {
	token, err := s.jwt.Generate(user)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}
	return &Session{Token: token, User: *user}, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
