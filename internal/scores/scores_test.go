package scores

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/its-lightning/tetris/internal/database"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.OpenAndMigrate(context.Background(), filepath.Join(t.TempDir(), "scores.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func addUser(t *testing.T, db *sql.DB, id, name string) {
	t.Helper()
	_, err := db.Exec(`INSERT INTO users (id, username, password_hash, created_at) VALUES (?,?,?,?)`,
		id, name, "x", time.Now().UTC().Format(time.RFC3339))
	require.NoError(t, err)
}

func addTournament(t *testing.T, db *sql.DB) int64 {
	t.Helper()
	res, err := db.Exec(`INSERT INTO tournaments (name, start_date, end_date) VALUES ('Cup', '2024-01-01T00:00:00Z', '2024-12-31T00:00:00Z')`)
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)
	return id
}

func TestSubmitNewHighscore(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	addUser(t, db, "p1", "ann")
	s := NewStore(db)

	res, err := s.Submit(ctx, "p1", 500, nil)
	require.NoError(t, err)
	assert.True(t, res.IsNewHighscore)

	res, err = s.Submit(ctx, "p1", 300, nil)
	require.NoError(t, err)
	assert.False(t, res.IsNewHighscore)

	res, err = s.Submit(ctx, "p1", 500, nil)
	require.NoError(t, err)
	assert.False(t, res.IsNewHighscore, "ties do not count")

	res, err = s.Submit(ctx, "p1", 501, nil)
	require.NoError(t, err)
	assert.True(t, res.IsNewHighscore)

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(1) FROM highscores`).Scan(&n))
	assert.Equal(t, 4, n)
}

func TestSubmitUnknownPlayer(t *testing.T) {
	s := NewStore(newTestDB(t))
	_, err := s.Submit(context.Background(), "ghost", 10, nil)
	assert.Error(t, err)
}

func TestLeaderboardBestPerPlayer(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	addUser(t, db, "p1", "ann")
	addUser(t, db, "p2", "ben")
	addUser(t, db, "p3", "cat")
	s := NewStore(db)

	for _, sub := range []struct {
		id    string
		score int
	}{{"p1", 100}, {"p1", 900}, {"p2", 400}, {"p3", 700}, {"p2", 50}} {
		_, err := s.Submit(ctx, sub.id, sub.score, nil)
		require.NoError(t, err)
	}

	lb, err := s.Leaderboard(ctx, 0)
	require.NoError(t, err)
	require.Len(t, lb, 3)
	assert.Equal(t, Entry{Rank: 1, PlayerID: "p1", Username: "ann", Score: 900}, lb[0])
	assert.Equal(t, Entry{Rank: 2, PlayerID: "p3", Username: "cat", Score: 700}, lb[1])
	assert.Equal(t, Entry{Rank: 3, PlayerID: "p2", Username: "ben", Score: 400}, lb[2])

	top, err := s.Leaderboard(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, top, 1)
}

func TestLeaderboardTiesShareRank(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	addUser(t, db, "p1", "ann")
	addUser(t, db, "p2", "ben")
	addUser(t, db, "p3", "cat")
	addUser(t, db, "p4", "dan")
	s := NewStore(db)

	_, _ = s.Submit(ctx, "p1", 900, nil)
	_, _ = s.Submit(ctx, "p2", 500, nil)
	_, _ = s.Submit(ctx, "p3", 500, nil)
	_, _ = s.Submit(ctx, "p4", 100, nil)

	lb, err := s.Leaderboard(ctx, 0)
	require.NoError(t, err)
	require.Len(t, lb, 4)
	ranks := []int{lb[0].Rank, lb[1].Rank, lb[2].Rank, lb[3].Rank}
	assert.Equal(t, []int{1, 2, 2, 4}, ranks)

	for _, e := range lb {
		st, err := s.PlayerStanding(ctx, e.PlayerID)
		require.NoError(t, err)
		assert.Equal(t, e.Rank, st.Rank, "leaderboard and standing agree for %s", e.Username)
	}
}

func TestPlayerStanding(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	addUser(t, db, "p1", "ann")
	addUser(t, db, "p2", "ben")
	addUser(t, db, "p3", "cat")
	s := NewStore(db)

	_, err := s.PlayerStanding(ctx, "p1")
	assert.ErrorIs(t, err, ErrNoScore)

	_, _ = s.Submit(ctx, "p1", 200, nil)
	_, _ = s.Submit(ctx, "p2", 800, nil)
	_, _ = s.Submit(ctx, "p2", 900, nil)
	_, _ = s.Submit(ctx, "p3", 200, nil)

	st, err := s.PlayerStanding(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, Standing{Score: 200, Rank: 2}, st)

	st, err = s.PlayerStanding(ctx, "p2")
	require.NoError(t, err)
	assert.Equal(t, Standing{Score: 900, Rank: 1}, st)
}

func TestTournamentLeaderboard(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	addUser(t, db, "p1", "ann")
	addUser(t, db, "p2", "ben")
	tid := addTournament(t, db)
	s := NewStore(db)

	_, _ = s.Submit(ctx, "p1", 5000, nil)
	_, _ = s.Submit(ctx, "p1", 100, &tid)
	_, _ = s.Submit(ctx, "p2", 300, &tid)

	lb, err := s.TournamentLeaderboard(ctx, tid, 10)
	require.NoError(t, err)
	require.Len(t, lb, 2)
	assert.Equal(t, "p2", lb[0].PlayerID)
	assert.Equal(t, 100, lb[1].Score)

	empty, err := s.TournamentLeaderboard(ctx, tid+1, 10)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
