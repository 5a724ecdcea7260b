package store

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/its-lightning/tetris/internal/game"
)

func newSession(t *testing.T, owner string) (*Session, *bool) {
	t.Helper()
	g := game.New(game.WithSeed(1), game.WithLogger(zerolog.Nop()))
	stopped := false
	return NewSession(game.NewRunner(g, 0), owner, func() { stopped = true }), &stopped
}

func TestSaveGetDelete(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()
	s, stopped := newSession(t, "u1")

	require.NoError(t, st.Save(ctx, s))
	got, err := st.Get(ctx, s.ID())
	require.NoError(t, err)
	assert.Same(t, s, got)
	assert.Equal(t, "u1", got.OwnerID)

	require.NoError(t, st.Delete(ctx, s.ID()))
	assert.True(t, *stopped)

	_, err = st.Get(ctx, s.ID())
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, st.Delete(ctx, s.ID()), ErrNotFound)
}

func TestClose(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()
	a, aStopped := newSession(t, "")
	b, bStopped := newSession(t, "")
	require.NoError(t, st.Save(ctx, a))
	require.NoError(t, st.Save(ctx, b))

	st.Close()
	assert.True(t, *aStopped)
	assert.True(t, *bStopped)
	_, err := st.Get(ctx, a.ID())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSubscribe(t *testing.T) {
	s, _ := newSession(t, "")
	ch, cancel := s.Subscribe(1)

	s.StateChanged(game.Snapshot{Score: 10})
	s.StateChanged(game.Snapshot{Score: 20})

	select {
	case snap := <-ch:
		assert.Equal(t, 10, snap.Score, "full subscribers drop newer snapshots")
	case <-time.After(time.Second):
		t.Fatal("no snapshot")
	}

	cancel()
	s.StateChanged(game.Snapshot{Score: 30})
	select {
	case <-ch:
		t.Fatal("cancelled subscription still receives")
	default:
	}
}

func runningSession(t *testing.T) *Session {
	t.Helper()
	g := game.New(game.WithSeed(1), game.WithLogger(zerolog.Nop()))
	r := game.NewRunner(g, 5*time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = r.Run(ctx) }()
	s := NewSession(r, "", cancel)
	g.AddListener(s)
	return s
}

func requireStopped(t *testing.T, s *Session) {
	t.Helper()
	select {
	case <-s.Runner.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("runner still running after eviction")
	}
}

func TestSweepFinishedSession(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()
	over := runningSession(t)
	live := runningSession(t)
	require.NoError(t, st.Save(ctx, over))
	require.NoError(t, st.Save(ctx, live))

	over.GameOver(game.Snapshot{GameOver: true})

	assert.Zero(t, st.Sweep(time.Now(), time.Hour, time.Minute), "grace period not yet over")
	assert.Equal(t, 1, st.Sweep(time.Now().Add(2*time.Minute), time.Hour, time.Minute))

	requireStopped(t, over)
	_, err := st.Get(ctx, over.ID())
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = st.Get(ctx, live.ID())
	assert.NoError(t, err)
}

func TestSweepIdleSession(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()
	idle := runningSession(t)
	watched := runningSession(t)
	require.NoError(t, st.Save(ctx, idle))
	require.NoError(t, st.Save(ctx, watched))
	_, unsubscribe := watched.Subscribe(1)
	defer unsubscribe()

	later := time.Now().Add(time.Hour)
	assert.Equal(t, 1, st.Sweep(later, 30*time.Minute, time.Minute))

	requireStopped(t, idle)
	_, err := st.Get(ctx, idle.ID())
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = st.Get(ctx, watched.ID())
	assert.NoError(t, err, "streamed sessions are not idle")
}

func TestResetCancelsGracePeriod(t *testing.T) {
	s, _ := newSession(t, "")
	s.GameOver(game.Snapshot{GameOver: true})
	now := time.Now().Add(time.Minute)
	assert.True(t, s.Expired(now, 0, time.Second))

	s.StateChanged(game.Snapshot{})
	s.Touch()
	assert.False(t, s.Expired(now, 0, time.Second))
}
