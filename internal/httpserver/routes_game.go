// internal/httpserver/routes_game.go
//
// Solo session endpoints (optional auth; guests can play).
//   - POST   /game/new          → start a session, returns {gameId}
//   - GET    /game/{id}         → current snapshot
//   - POST   /game/{id}/command → apply {command}, returns the snapshot after it
//   - DELETE /game/{id}         → abandon the session
//   - GET    /game/{id}/ws      → snapshot stream + command/press/release input
//
// Sessions owned by an account are only reachable by that account, and save
// their score automatically on game over. Finished and idle sessions are
// evicted by the server's sweep.

package httpserver

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/its-lightning/tetris/internal/auth"
	"github.com/its-lightning/tetris/internal/game"
	"github.com/its-lightning/tetris/internal/room"
	"github.com/its-lightning/tetris/internal/store"
)

type newGameRes struct {
	GameID string `json:"gameId"`
}

type commandReq struct {
	Command string `json:"command"`
}

func (s *Server) mountGame(r chi.Router) {
	r.Route("/game", func(r chi.Router) {
		r.Use(s.auth.Optional)
		r.Post("/new", s.handleNewGame)
		r.Get("/{id}", s.handleGetGame)
		r.Post("/{id}/command", s.handleCommand)
		r.Delete("/{id}", s.handleDeleteGame)
	})
}

// handleNewGame creates a Game under a Runner and registers the session.
func (s *Server) handleNewGame(w http.ResponseWriter, r *http.Request) {
	me, _ := auth.FromContext(r.Context())

	opts := []game.Option{game.WithConfig(s.cfg.GameConfig())}
	owner := ""
	if me != nil {
		owner = me.ID
		opts = append(opts, game.WithListener(game.ListenerFuncs{
			OnGameOver: func(snap game.Snapshot) { go s.autoSave(owner, snap.Score) },
		}))
	}
	g := game.New(opts...)
	runner := game.NewRunner(g, s.cfg.Frame)

	ctx, cancel := context.WithCancel(s.ctx)
	sess := store.NewSession(runner, owner, cancel)
	g.AddListener(sess)

	if err := s.store.Save(r.Context(), sess); err != nil {
		cancel()
		log.Error().Err(err).Msg("save session")
		http.Error(w, `{"error":"save_failed"}`, http.StatusInternalServerError)
		return
	}
	go func() { _ = runner.Run(ctx) }()

	writeJSON(w, http.StatusCreated, newGameRes{GameID: sess.ID()})
}

func (s *Server) autoSave(playerID string, score int) {
	ctx, cancel := context.WithTimeout(s.ctx, requestTimeout)
	defer cancel()
	if err := s.recordScore(ctx, playerID, score); err != nil {
		log.Warn().Err(err).Str("user", playerID).Msg("auto-save score")
	}
}

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	s.writeSnapshot(w, r, sess)
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var body commandReq
	if !decodeJSON(w, r, &body) {
		return
	}
	cmd, ok := game.ParseCommand(body.Command)
	if !ok {
		http.Error(w, `{"error":"unknown_command"}`, http.StatusBadRequest)
		return
	}
	if !sess.Runner.Send(cmd) {
		http.Error(w, `{"error":"busy"}`, http.StatusServiceUnavailable)
		return
	}
	// Snapshot requests queue behind the command, so this reflects it.
	s.writeSnapshot(w, r, sess)
}

func (s *Server) handleDeleteGame(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	if err := s.store.Delete(r.Context(), sess.ID()); err != nil && !errors.Is(err, store.ErrNotFound) {
		log.Warn().Err(err).Str("game", sess.ID()).Msg("delete session")
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// handleGameWS streams snapshots of a solo session and accepts input.
func (s *Server) handleGameWS(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Debug().Err(err).Msg("ws upgrade")
		return
	}
	c := newWSClient(conn)
	defer c.Close()

	snaps, unsubscribe := sess.Subscribe(wsSendBuffer)
	defer unsubscribe()

	if snap, err := sess.Runner.Snapshot(r.Context()); err == nil {
		c.Send(room.Event{Type: "state", Data: snap})
	}

	go func() {
		for {
			select {
			case snap := <-snaps:
				c.Send(room.Event{Type: "state", Data: snap})
			case <-c.done:
				return
			case <-sess.Runner.Done():
				c.Close()
				return
			}
		}
	}()

	for {
		msg, err := c.read()
		if err != nil {
			return
		}
		dispatch(c, sess.Runner, msg)
	}
}

// session loads the {id} session, enforcing ownership.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (*store.Session, bool) {
	sess, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, `{"error":"not_found"}`, http.StatusNotFound)
		return nil, false
	}
	if sess.OwnerID != "" {
		me, _ := auth.FromContext(r.Context())
		if me == nil || me.ID != sess.OwnerID {
			http.Error(w, `{"error":"Forbidden"}`, http.StatusForbidden)
			return nil, false
		}
	}
	sess.Touch()
	return sess, true
}

func (s *Server) writeSnapshot(w http.ResponseWriter, r *http.Request, sess *store.Session) {
	snap, err := sess.Runner.Snapshot(r.Context())
	if err != nil {
		http.Error(w, `{"error":"timeout"}`, http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}
