// internal/httpserver/routes_scores.go
//
// Highscore endpoints under /api.
//   - POST /api/save_score      → record a score, optionally for a tournament (auth)
//   - POST /api/save_highscore  → record a score outside any tournament (auth)
//   - GET  /api/leaderboard     → top players by best score (?limit=)
//   - GET  /api/dashboard       → leaderboard plus the caller's best and rank (auth)

package httpserver

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/its-lightning/tetris/internal/auth"
	"github.com/its-lightning/tetris/internal/scores"
	"github.com/its-lightning/tetris/internal/tournament"
)

type saveScoreReq struct {
	Score        *int   `json:"score"`
	TournamentID *int64 `json:"tournament_id"`
}

type dashboardRes struct {
	Leaderboard      []scores.Entry         `json:"leaderboard"`
	Best             *scores.Standing       `json:"best"`
	ActiveTournament *tournament.Tournament `json:"activeTournament"`
}

func (s *Server) mountScores(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.With(s.auth.Require).Post("/save_score", s.handleSaveScore(true))
		r.With(s.auth.Require).Post("/save_highscore", s.handleSaveScore(false))
		r.Get("/leaderboard", s.handleLeaderboard)
		r.With(s.auth.Require).Get("/dashboard", s.handleDashboard)
	})
}

// handleSaveScore records the caller's score. When withTournament is set a
// tournament_id may be supplied; it must name an active tournament.
func (s *Server) handleSaveScore(withTournament bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body saveScoreReq
		if !decodeJSON(w, r, &body) {
			return
		}
		if body.Score == nil || *body.Score < 0 {
			http.Error(w, `{"error":"score must be a non-negative integer"}`, http.StatusBadRequest)
			return
		}

		var tid *int64
		if withTournament && body.TournamentID != nil {
			t, err := s.tournaments.Get(r.Context(), *body.TournamentID)
			if errors.Is(err, tournament.ErrNotFound) {
				http.Error(w, `{"error":"tournament_not_found"}`, http.StatusNotFound)
				return
			}
			if err != nil {
				log.Error().Err(err).Msg("get tournament")
				http.Error(w, `{"error":"db_error"}`, http.StatusInternalServerError)
				return
			}
			if !t.IsActive(timeNow()) {
				http.Error(w, `{"error":"tournament_not_active"}`, http.StatusBadRequest)
				return
			}
			tid = &t.ID
		}

		me, _ := auth.FromContext(r.Context())
		res, err := s.scores.Submit(r.Context(), me.ID, *body.Score, tid)
		if err != nil {
			log.Error().Err(err).Str("user", me.ID).Msg("save score")
			http.Error(w, `{"error":"db_error"}`, http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	lb, err := s.scores.Leaderboard(r.Context(), queryLimit(r))
	if err != nil {
		log.Error().Err(err).Msg("leaderboard")
		http.Error(w, `{"error":"db_error"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, lb)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	me, _ := auth.FromContext(r.Context())
	lb, err := s.scores.Leaderboard(r.Context(), scores.DefaultLimit)
	if err != nil {
		log.Error().Err(err).Msg("leaderboard")
		http.Error(w, `{"error":"db_error"}`, http.StatusInternalServerError)
		return
	}
	res := dashboardRes{Leaderboard: lb}

	st, err := s.scores.PlayerStanding(r.Context(), me.ID)
	switch {
	case err == nil:
		res.Best = &st
	case !errors.Is(err, scores.ErrNoScore):
		log.Warn().Err(err).Str("user", me.ID).Msg("player standing")
	}

	if t, err := s.tournaments.Active(r.Context()); err == nil {
		res.ActiveTournament = t
	}
	writeJSON(w, http.StatusOK, res)
}

// queryLimit reads ?limit=, returning 0 (the store default) when absent or
// malformed.
func queryLimit(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || n < 0 {
		return 0
	}
	if n > 100 {
		n = 100
	}
	return n
}
