// internal/scores/scores.go
//
// Highscore persistence and leaderboards.
// Responsibilities:
//   - Record every finished game's score (optionally tied to a tournament).
//   - Report whether a submission beats the player's previous best.
//   - Rank players by best score, overall and per tournament.

package scores

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const DefaultLimit = 10

var ErrNoScore = errors.New("no score recorded")

// Entry is one leaderboard row: a player's best score.
type Entry struct {
	Rank     int    `json:"rank"`
	PlayerID string `json:"playerId"`
	Username string `json:"username"`
	Score    int    `json:"score"`
}

// Result is the outcome of a submission.
type Result struct {
	Score          int  `json:"score"`
	IsNewHighscore bool `json:"is_new_highscore"`
}

// Standing is a player's best score and overall rank.
type Standing struct {
	Score int `json:"score"`
	Rank  int `json:"rank"`
}

type Store struct {
	db  *sql.DB
	now func() time.Time
}

func NewStore(db *sql.DB) *Store { return &Store{db: db, now: time.Now} }

// Submit records score for playerID. tournamentID may be nil. The result is a
// new highscore when the player had no previous row or beat their best.
func (s *Store) Submit(ctx context.Context, playerID string, score int, tournamentID *int64) (Result, error) {
	if score < 0 {
		score = 0
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Result{}, err
	}
	defer func() { _ = tx.Rollback() }()

	var best sql.NullInt64
	if err := tx.QueryRowContext(ctx,
		`SELECT MAX(score) FROM highscores WHERE player_id=?`, playerID,
	).Scan(&best); err != nil {
		return Result{}, fmt.Errorf("query best: %w", err)
	}

	var tid any
	if tournamentID != nil {
		tid = *tournamentID
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO highscores (player_id, score, tournament_id, created_at) VALUES (?,?,?,?)`,
		playerID, score, tid, s.now().UTC().Format(time.RFC3339),
	); err != nil {
		return Result{}, fmt.Errorf("insert highscore: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return Result{}, err
	}

	return Result{
		Score:          score,
		IsNewHighscore: !best.Valid || int64(score) > best.Int64,
	}, nil
}

// Leaderboard returns the top players by best score.
func (s *Store) Leaderboard(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return s.query(ctx, `
        SELECT h.player_id, u.username, MAX(h.score) AS best
        FROM highscores h JOIN users u ON u.id = h.player_id
        GROUP BY h.player_id
        ORDER BY best DESC, MIN(h.created_at) ASC
        LIMIT ?`, limit)
}

// TournamentLeaderboard ranks players by best score within one tournament.
func (s *Store) TournamentLeaderboard(ctx context.Context, tournamentID int64, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return s.query(ctx, `
        SELECT h.player_id, u.username, MAX(h.score) AS best
        FROM highscores h JOIN users u ON u.id = h.player_id
        WHERE h.tournament_id = ?
        GROUP BY h.player_id
        ORDER BY best DESC, MIN(h.created_at) ASC
        LIMIT ?`, tournamentID, limit)
}

func (s *Store) query(ctx context.Context, q string, args ...any) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Entry{}
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.PlayerID, &e.Username, &e.Score); err != nil {
			return nil, err
		}
		// Equal bests share a rank.
		if n := len(out); n > 0 && out[n-1].Score == e.Score {
			e.Rank = out[n-1].Rank
		} else {
			e.Rank = n + 1
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// PlayerStanding returns the player's best score and rank: one more than
// the number of players with a strictly higher best.
func (s *Store) PlayerStanding(ctx context.Context, playerID string) (Standing, error) {
	var best sql.NullInt64
	if err := s.db.QueryRowContext(ctx,
		`SELECT MAX(score) FROM highscores WHERE player_id=?`, playerID,
	).Scan(&best); err != nil {
		return Standing{}, err
	}
	if !best.Valid {
		return Standing{}, ErrNoScore
	}

	var above int
	if err := s.db.QueryRowContext(ctx, `
        SELECT COUNT(1) FROM (
            SELECT player_id FROM highscores GROUP BY player_id HAVING MAX(score) > ?
        )`, best.Int64,
	).Scan(&above); err != nil {
		return Standing{}, err
	}
	return Standing{Score: int(best.Int64), Rank: above + 1}, nil
}
