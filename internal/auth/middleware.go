// internal/auth/middleware.go
//
// Request authentication.
// Responsibilities:
//   - Extract a token from the Authorization header or the auth cookie.
//   - Optional auth: decorate the request when a valid token is present.
//   - Require auth (401) and require admin (403) gates.
//   - Set and clear the auth cookie.

package auth

import (
	"context"
	"net/http"
	"strings"
	"time"
)

// Identity is the authenticated caller placed in the request context.
type Identity struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

func (i *Identity) IsAdmin() bool { return i != nil && i.Role == RoleAdmin }

type ctxUserKey struct{}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, ctxUserKey{}, id)
}

// FromContext returns the caller identity, if any.
func FromContext(ctx context.Context) (*Identity, bool) {
	id, _ := ctx.Value(ctxUserKey{}).(*Identity)
	return id, id != nil
}

// CookieConfig controls the auth cookie attributes.
type CookieConfig struct {
	Name   string
	Secure bool
}

// Middleware authenticates requests against the users table.
type Middleware struct {
	users  *Users
	tokens *Tokens
	cookie CookieConfig
}

func NewMiddleware(users *Users, tokens *Tokens, cookie CookieConfig) *Middleware {
	if cookie.Name == "" {
		cookie.Name = "tetris_token"
	}
	return &Middleware{users: users, tokens: tokens, cookie: cookie}
}

// identify resolves the request token to a live user. Role comes from the
// database so promotions and demotions apply without a new login.
func (m *Middleware) identify(r *http.Request) (*Identity, error) {
	tok := m.bearerOrCookie(r)
	if tok == "" {
		return nil, ErrInvalidToken
	}
	claims, err := m.tokens.Parse(tok)
	if err != nil {
		return nil, err
	}
	u, err := m.users.FindByID(r.Context(), claims.ID)
	if err != nil {
		return nil, ErrInvalidToken
	}
	return &Identity{ID: u.ID, Username: u.Username, Role: u.Role}, nil
}

// Optional decorates requests with the caller identity when a valid token
// is present. It never rejects.
func (m *Middleware) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id, err := m.identify(r); err == nil {
			r = r.WithContext(WithIdentity(r.Context(), id))
		}
		next.ServeHTTP(w, r)
	})
}

// Require rejects requests without a valid token.
func (m *Middleware) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.bearerOrCookie(r) == "" {
			http.Error(w, `{"error":"Unauthorized"}`, http.StatusUnauthorized)
			return
		}
		id, err := m.identify(r)
		if err != nil {
			http.Error(w, `{"error":"Invalid token"}`, http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
	})
}

// RequireAdmin is Require plus an admin role check.
func (m *Middleware) RequireAdmin(next http.Handler) http.Handler {
	return m.Require(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id, _ := FromContext(r.Context()); !id.IsAdmin() {
			http.Error(w, `{"error":"Forbidden"}`, http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	}))
}

// SetCookie writes the auth token cookie.
func (m *Middleware) SetCookie(w http.ResponseWriter, token string, exp time.Time) {
	http.SetCookie(w, m.cookieWith(token, exp, 0))
}

// ClearCookie deletes the auth token cookie.
func (m *Middleware) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, m.cookieWith("", time.Time{}, -1))
}

func (m *Middleware) cookieWith(value string, exp time.Time, maxAge int) *http.Cookie {
	sameSite := http.SameSiteLaxMode
	if m.cookie.Secure {
		sameSite = http.SameSiteNoneMode
	}
	return &http.Cookie{
		Name:     m.cookie.Name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.cookie.Secure,
		SameSite: sameSite,
		Expires:  exp,
		MaxAge:   maxAge,
	}
}

// bearerOrCookie extracts a bearer token from the Authorization header or
// the auth cookie.
func (m *Middleware) bearerOrCookie(r *http.Request) string {
	if a := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(a), "bearer ") {
		return strings.TrimSpace(a[7:])
	}
	if c, err := r.Cookie(m.cookie.Name); err == nil {
		return c.Value
	}
	return ""
}
