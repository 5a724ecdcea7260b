// internal/httpserver/routes_tournaments.go
//
// Tournament endpoints.
//   - GET  /tournaments                      → all tournaments, newest first
//   - GET  /tournaments/active               → the running tournament (404 if none)
//   - GET  /tournaments/{id}/leaderboard     → tournament + its leaderboard
//   - POST /admin/tournaments                → create (admin only)
//   - PUT  /admin/tournaments/{id}           → update (admin only)
//
// Dates travel as "YYYY-MM-DDTHH:MM" (datetime-local form values) in UTC.

package httpserver

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/its-lightning/tetris/internal/auth"
	"github.com/its-lightning/tetris/internal/scores"
	"github.com/its-lightning/tetris/internal/tournament"
)

// timeNow is swapped in tests.
var timeNow = time.Now

type tournamentReq struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	Enabled     *bool  `json:"enabled"`
}

// input converts form values; enabled defaults to true.
func (req tournamentReq) input() (tournament.Input, error) {
	in := tournament.Input{Name: req.Name, Description: req.Description, Enabled: true}
	if req.Enabled != nil {
		in.Enabled = *req.Enabled
	}
	var err error
	if in.Start, err = tournament.ParseFormTime(req.StartDate, time.UTC); err != nil {
		return in, err
	}
	if in.End, err = tournament.ParseFormTime(req.EndDate, time.UTC); err != nil {
		return in, err
	}
	return in, nil
}

type tournamentBoardRes struct {
	Tournament  *tournament.Tournament `json:"tournament"`
	Active      bool                   `json:"active"`
	Leaderboard []scores.Entry         `json:"leaderboard"`
}

func (s *Server) mountTournaments(r chi.Router) {
	r.Get("/tournaments", s.handleListTournaments)
	r.Get("/tournaments/active", s.handleActiveTournament)
	r.Get("/tournaments/{id}/leaderboard", s.handleTournamentLeaderboard)

	r.With(s.auth.RequireAdmin).Post("/admin/tournaments", s.handleCreateTournament)
	r.With(s.auth.RequireAdmin).Put("/admin/tournaments/{id}", s.handleUpdateTournament)
}

func (s *Server) handleListTournaments(w http.ResponseWriter, r *http.Request) {
	all, err := s.tournaments.List(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("list tournaments")
		http.Error(w, `{"error":"db_error"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, all)
}

func (s *Server) handleActiveTournament(w http.ResponseWriter, r *http.Request) {
	t, err := s.tournaments.Active(r.Context())
	if err != nil {
		s.tournamentError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleTournamentLeaderboard(w http.ResponseWriter, r *http.Request) {
	id, ok := tournamentID(w, r)
	if !ok {
		return
	}
	t, err := s.tournaments.Get(r.Context(), id)
	if err != nil {
		s.tournamentError(w, err)
		return
	}
	lb, err := s.scores.TournamentLeaderboard(r.Context(), id, queryLimit(r))
	if err != nil {
		log.Error().Err(err).Int64("tournament", id).Msg("tournament leaderboard")
		http.Error(w, `{"error":"db_error"}`, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, tournamentBoardRes{Tournament: t, Active: t.IsActive(timeNow()), Leaderboard: lb})
}

func (s *Server) handleCreateTournament(w http.ResponseWriter, r *http.Request) {
	var body tournamentReq
	if !decodeJSON(w, r, &body) {
		return
	}
	in, err := body.input()
	if err != nil {
		s.tournamentError(w, err)
		return
	}
	me, _ := auth.FromContext(r.Context())
	t, err := s.tournaments.Create(r.Context(), in, me.ID)
	if err != nil {
		s.tournamentError(w, err)
		return
	}
	log.Info().Int64("tournament", t.ID).Str("admin", me.Username).Msg("tournament created")
	writeJSON(w, http.StatusCreated, t)
}

func (s *Server) handleUpdateTournament(w http.ResponseWriter, r *http.Request) {
	id, ok := tournamentID(w, r)
	if !ok {
		return
	}
	var body tournamentReq
	if !decodeJSON(w, r, &body) {
		return
	}
	in, err := body.input()
	if err != nil {
		s.tournamentError(w, err)
		return
	}
	t, err := s.tournaments.Update(r.Context(), id, in)
	if err != nil {
		s.tournamentError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func tournamentID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, `{"error":"invalid_id"}`, http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func (s *Server) tournamentError(w http.ResponseWriter, err error) {
	var verr *tournament.ValidationError
	switch {
	case errors.As(err, &verr):
		errorJSON(w, http.StatusBadRequest, verr.Msg)
	case errors.Is(err, tournament.ErrNotFound):
		http.Error(w, `{"error":"not_found"}`, http.StatusNotFound)
	default:
		log.Error().Err(err).Msg("tournament")
		http.Error(w, `{"error":"db_error"}`, http.StatusInternalServerError)
	}
}
