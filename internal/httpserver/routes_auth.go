// internal/httpserver/routes_auth.go
//
// Account endpoints.
//   - POST /auth/signup   → create a player account, set auth cookie
//   - POST /auth/login    → verify credentials, set auth cookie
//   - POST /auth/logout   → clear auth cookie
//   - GET  /auth/me       → current user (require auth)
//   - POST /admin/admins  → create another admin (admin only)

package httpserver

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/its-lightning/tetris/internal/auth"
)

type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type authRes struct {
	User  *auth.User `json:"user"`
	Token string     `json:"token"`
}

func (s *Server) mountAuth(r chi.Router) {
	r.Post("/auth/signup", s.handleSignup)
	r.Post("/auth/login", s.handleLogin)
	r.Post("/auth/logout", s.handleLogout)
	r.With(s.auth.Require).Get("/auth/me", s.handleMe)
	r.With(s.auth.RequireAdmin).Post("/admin/admins", s.handleCreateAdmin)
}

// handleSignup creates a player account, signs a JWT and sets the auth cookie.
func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var body auth.Signup
	if !decodeJSON(w, r, &body) {
		return
	}
	u, ok := s.createUser(w, r, body, auth.RolePlayer)
	if !ok {
		return
	}
	s.issue(w, u, http.StatusCreated)
}

// handleLogin authenticates a user and sets the auth cookie.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body loginReq
	if !decodeJSON(w, r, &body) {
		return
	}
	u, err := s.users.Authenticate(r.Context(), body.Username, body.Password)
	if err != nil {
		if !errors.Is(err, auth.ErrInvalidCredentials) {
			log.Warn().Err(err).Msg("authenticate")
		}
		http.Error(w, `{"error":"Invalid username or password"}`, http.StatusUnauthorized)
		return
	}
	s.issue(w, u, http.StatusOK)
}

// handleLogout clears the auth cookie.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.auth.ClearCookie(w)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	me, _ := auth.FromContext(r.Context())
	u, err := s.users.FindByID(r.Context(), me.ID)
	if err != nil {
		http.Error(w, `{"error":"not_found"}`, http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (s *Server) handleCreateAdmin(w http.ResponseWriter, r *http.Request) {
	var body auth.Signup
	if !decodeJSON(w, r, &body) {
		return
	}
	u, ok := s.createUser(w, r, body, auth.RoleAdmin)
	if !ok {
		return
	}
	me, _ := auth.FromContext(r.Context())
	log.Info().Str("admin", me.Username).Str("created", u.Username).Msg("admin account created")
	writeJSON(w, http.StatusCreated, u)
}

// createUser maps account errors onto HTTP responses.
func (s *Server) createUser(w http.ResponseWriter, r *http.Request, in auth.Signup, role auth.Role) (*auth.User, bool) {
	u, err := s.users.Create(r.Context(), in, role)
	if err == nil {
		return u, true
	}
	var verr *auth.ValidationError
	switch {
	case errors.As(err, &verr):
		errorJSON(w, http.StatusBadRequest, verr.Msg)
	case errors.Is(err, auth.ErrUsernameTaken):
		http.Error(w, `{"error":"Username taken"}`, http.StatusConflict)
	case errors.Is(err, auth.ErrEmailTaken):
		http.Error(w, `{"error":"Email taken"}`, http.StatusConflict)
	default:
		log.Error().Err(err).Msg("create user")
		http.Error(w, `{"error":"db_error"}`, http.StatusInternalServerError)
	}
	return nil, false
}

func (s *Server) issue(w http.ResponseWriter, u *auth.User, status int) {
	tok, exp, err := s.tokens.Issue(u)
	if err != nil {
		log.Error().Err(err).Msg("issue token")
		http.Error(w, `{"error":"sign_failed"}`, http.StatusInternalServerError)
		return
	}
	s.auth.SetCookie(w, tok, exp)
	writeJSON(w, status, authRes{User: u, Token: tok})
}
