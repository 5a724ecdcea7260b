// internal/httpserver/server.go
//
// HTTP server wiring for the Tetris backend.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs).
//   - Public endpoints: "/", "/health".
//   - Solo sessions (optional auth): /game/*, including a websocket stream.
//   - Accounts: /auth/*, admin bootstrap of further admins.
//   - Highscores and leaderboards: /api/*.
//   - Tournaments: /tournaments/*, admin create/update.
//   - Multiplayer rooms (require auth): /rooms/*, including the room websocket.
//
// Notes:
//   - CORS is origin-aware and credentials-enabled (so cookies work).
//   - Websocket routes are mounted outside the request timeout.
//   - Solo sessions are swept every SessionSweep: finished ones after
//     SessionGrace, untouched ones after SessionIdle.

package httpserver

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/its-lightning/tetris/internal/auth"
	"github.com/its-lightning/tetris/internal/config"
	"github.com/its-lightning/tetris/internal/room"
	"github.com/its-lightning/tetris/internal/scores"
	"github.com/its-lightning/tetris/internal/store"
	"github.com/its-lightning/tetris/internal/tournament"
)

const requestTimeout = 10 * time.Second

// Server bundles the router with the session registry, room manager and
// persistence stores.
type Server struct {
	r   *chi.Mux
	cfg config.Config

	store       store.Store
	rooms       *room.Manager
	users       *auth.Users
	tokens      *auth.Tokens
	auth        *auth.Middleware
	scores      *scores.Store
	tournaments *tournament.Store
	upgrader    websocket.Upgrader

	// ctx parents every solo runner; cancelled by Close.
	ctx    context.Context
	cancel context.CancelFunc
}

// New constructs a Server, installs middleware, and registers routes.
func New(cfg config.Config, db *sql.DB, st store.Store) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		r:           chi.NewRouter(),
		cfg:         cfg,
		store:       st,
		users:       auth.NewUsers(db),
		tokens:      auth.NewTokens(cfg.JWTSecret, cfg.JWTExpiry),
		scores:      scores.NewStore(db),
		tournaments: tournament.NewStore(db),
		ctx:         ctx,
		cancel:      cancel,
	}
	s.auth = auth.NewMiddleware(s.users, s.tokens, auth.CookieConfig{Name: cfg.CookieName, Secure: cfg.Production})
	s.rooms = room.NewManager(room.Options{
		Game:      cfg.GameConfig(),
		Frame:     cfg.Frame,
		SaveScore: s.recordScore,
	})
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     s.checkOrigin,
	}
	if cfg.SessionSweep > 0 {
		go s.sweepSessions(cfg.SessionSweep)
	}

	// --- middleware ---
	s.r.Use(chimw.RequestID) // add X-Request-ID
	s.r.Use(chimw.RealIP)    // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(chimw.Recoverer) // recover from panics
	s.r.Use(jsonContentType) // default JSON responses
	s.r.Use(s.cors)          // credentials-friendly CORS

	// --- websockets (long-lived, no timeout) ---
	s.r.With(s.auth.Optional).Get("/game/{id}/ws", s.handleGameWS)
	s.r.With(s.auth.Require).Get("/rooms/{code}/ws", s.handleRoomWS)

	s.r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(requestTimeout))

		// --- diagnostics ---
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"service":"tetris-go","endpoints":["/health","POST /game/new","/auth/*","/api/*","/tournaments","/rooms"]}`))
		})
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"ok":true}`))
		})

		s.mountGame(r)
		s.mountAuth(r)
		s.mountScores(r)
		s.mountTournaments(r)
		s.mountRooms(r)
	})

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"not_found","path":"`+r.URL.Path+`"}`, http.StatusNotFound)
	})

	return s
}

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// Handler returns the root http.Handler.
func (s *Server) Handler() http.Handler { return s.r }

// Users exposes the account store (admin bootstrap).
func (s *Server) Users() *auth.Users { return s.users }

// Close stops every solo runner and multiplayer room.
func (s *Server) Close() {
	s.cancel()
	s.store.Close()
	s.rooms.Close()
}

// sweepSessions evicts finished and idle solo sessions every interval
// until the server closes.
func (s *Server) sweepSessions(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.ctx.Done():
			return
		case now := <-ticker.C:
			if n := s.store.Sweep(now, s.cfg.SessionIdle, s.cfg.SessionGrace); n > 0 {
				log.Debug().Int("evicted", n).Msg("sweep solo sessions")
			}
		}
	}
}

// recordScore saves a finished game's score, attaching the active
// tournament when there is one.
func (s *Server) recordScore(ctx context.Context, playerID string, score int) error {
	var tid *int64
	t, err := s.tournaments.Active(ctx)
	switch {
	case err == nil:
		tid = &t.ID
	case !errors.Is(err, tournament.ErrNotFound):
		log.Warn().Err(err).Msg("lookup active tournament")
	}
	_, err = s.scores.Submit(ctx, playerID, score, tid)
	return err
}

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// cors enables credentialed CORS for the configured client origin.
func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Origin", s.cfg.ClientOrigin)
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ------------------------------- small util --------------------------------

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("encode response")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, `{"error":"invalid_json"}`, http.StatusBadRequest)
		return false
	}
	return true
}

// errorJSON writes {"error": msg} with proper escaping.
func errorJSON(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
