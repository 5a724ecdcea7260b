// internal/auth/users.go
//
// Player and admin accounts.
// Responsibilities:
//   - Validate signup input (username, password, optional email).
//   - Hash and verify passwords with bcrypt.
//   - Create, look up and authenticate users in SQLite.
//   - Bootstrap an admin account from configuration.

package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

// Role is the permission level of an account.
type Role string

const (
	RolePlayer Role = "PLAYER"
	RoleAdmin  Role = "ADMIN"
)

var (
	ErrUsernameTaken      = errors.New("username taken")
	ErrEmailTaken         = errors.New("email taken")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUserNotFound       = errors.New("user not found")
)

// ValidationError describes rejected signup input.
type ValidationError struct{ Msg string }

func (e *ValidationError) Error() string { return e.Msg }

type User struct {
	ID           string     `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email,omitempty"`
	Role         Role       `json:"role"`
	PasswordHash string     `json:"-"`
	CreatedAt    time.Time  `json:"createdAt"`
	LastLogin    *time.Time `json:"lastLogin,omitempty"`
}

func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }

// Signup is the input for creating an account.
type Signup struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
}

type Users struct {
	db *sql.DB
}

func NewUsers(db *sql.DB) *Users { return &Users{db: db} }

func normalizeUsername(u string) string {
	return strings.TrimSpace(u)
}

func validateSignup(u, p, email string) error {
	if len(u) < 3 || len(u) > 24 {
		return &ValidationError{"username must be 3-24 chars"}
	}
	for _, r := range u {
		if !(r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return &ValidationError{"username: letters, numbers, underscore only"}
		}
	}
	if len(p) < 8 || len(p) > 100 {
		return &ValidationError{"password must be 8-100 chars"}
	}
	if email != "" {
		at := strings.IndexByte(email, '@')
		if at < 1 || at == len(email)-1 || len(email) > 255 {
			return &ValidationError{"invalid email"}
		}
	}
	return nil
}

func hashPassword(pw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	return string(b), err
}

func checkPassword(hash, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

// Create validates s, enforces unique username/email and inserts the user.
func (s *Users) Create(ctx context.Context, in Signup, role Role) (*User, error) {
	username := normalizeUsername(in.Username)
	email := strings.TrimSpace(in.Email)
	if err := validateSignup(username, in.Password, email); err != nil {
		return nil, err
	}
	if role == "" {
		role = RolePlayer
	}

	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM users WHERE lower(username)=lower(?)`, username).Scan(&exists)
	if err == nil {
		return nil, ErrUsernameTaken
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if email != "" {
		err := s.db.QueryRowContext(ctx, `SELECT 1 FROM users WHERE lower(email)=lower(?)`, email).Scan(&exists)
		if err == nil {
			return nil, ErrEmailTaken
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
	}

	h, err := hashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	u := &User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		Role:         role,
		PasswordHash: h,
		CreatedAt:    time.Now().UTC().Truncate(time.Second),
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO users (id, username, email, password_hash, role, created_at) VALUES (?,?,?,?,?,?)`,
		u.ID, u.Username, nullString(u.Email), u.PasswordHash, string(u.Role), u.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

// Authenticate verifies the password and records the login time.
func (s *Users) Authenticate(ctx context.Context, username, pw string) (*User, error) {
	u, err := s.FindByUsername(ctx, normalizeUsername(username))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !checkPassword(u.PasswordHash, pw) {
		return nil, ErrInvalidCredentials
	}

	now := time.Now().UTC().Truncate(time.Second)
	if _, err := s.db.ExecContext(ctx, `UPDATE users SET last_login=? WHERE id=?`, now.Format(time.RFC3339), u.ID); err != nil {
		log.Warn().Err(err).Str("user", u.ID).Msg("update last_login")
	} else {
		u.LastLogin = &now
	}
	return u, nil
}

func (s *Users) FindByUsername(ctx context.Context, username string) (*User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, username, email, password_hash, role, created_at, last_login
	                                  FROM users WHERE lower(username)=lower(?)`, username)
	return scanUser(row)
}

func (s *Users) FindByID(ctx context.Context, id string) (*User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, username, email, password_hash, role, created_at, last_login
	                                  FROM users WHERE id=?`, id)
	return scanUser(row)
}

// EnsureAdmin creates username as an admin, or promotes the existing
// account with that name. The password is only used when creating.
func (s *Users) EnsureAdmin(ctx context.Context, username, pw string) (*User, error) {
	u, err := s.FindByUsername(ctx, normalizeUsername(username))
	switch {
	case errors.Is(err, ErrUserNotFound):
		return s.Create(ctx, Signup{Username: username, Password: pw}, RoleAdmin)
	case err != nil:
		return nil, err
	}
	if u.Role != RoleAdmin {
		if _, err := s.db.ExecContext(ctx, `UPDATE users SET role=? WHERE id=?`, string(RoleAdmin), u.ID); err != nil {
			return nil, err
		}
		u.Role = RoleAdmin
	}
	return u, nil
}

func scanUser(row *sql.Row) (*User, error) {
	var (
		u         User
		email     sql.NullString
		role      string
		created   string
		lastLogin sql.NullString
	)
	if err := row.Scan(&u.ID, &u.Username, &email, &u.PasswordHash, &role, &created, &lastLogin); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	u.Email = email.String
	u.Role = Role(role)
	u.CreatedAt = parseTime(created)
	if lastLogin.Valid {
		t := parseTime(lastLogin.String)
		u.LastLogin = &t
	}
	return &u, nil
}

// parseTime parses RFC3339 timestamps; on error returns zero time.
func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	return t
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
