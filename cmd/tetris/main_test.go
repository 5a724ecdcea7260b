package main

import (
	"context"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/its-lightning/tetris/internal/game"
)

func TestKeyAction(t *testing.T) {
	tests := []struct {
		name string
		key  tcell.Key
		r    rune
		act  action
		cmd  game.Command
	}{
		{"left arrow", tcell.KeyLeft, 0, actCommand, game.CommandMoveLeft},
		{"right arrow", tcell.KeyRight, 0, actCommand, game.CommandMoveRight},
		{"down arrow", tcell.KeyDown, 0, actCommand, game.CommandSoftDrop},
		{"up arrow", tcell.KeyUp, 0, actCommand, game.CommandRotateCW},
		{"escape", tcell.KeyEscape, 0, actCommand, game.CommandReset},
		{"h", tcell.KeyRune, 'h', actCommand, game.CommandMoveLeft},
		{"l", tcell.KeyRune, 'l', actCommand, game.CommandMoveRight},
		{"j", tcell.KeyRune, 'j', actCommand, game.CommandSoftDrop},
		{"x", tcell.KeyRune, 'x', actCommand, game.CommandRotateCW},
		{"z", tcell.KeyRune, 'z', actCommand, game.CommandRotateCCW},
		{"space", tcell.KeyRune, ' ', actCommand, game.CommandHardDrop},
		{"c", tcell.KeyRune, 'c', actCommand, game.CommandHold},
		{"r", tcell.KeyRune, 'r', actCommand, game.CommandReset},
		{"q", tcell.KeyRune, 'q', actQuit, ""},
		{"ctrl-c", tcell.KeyCtrlC, 0, actQuit, ""},
		{"unbound", tcell.KeyRune, 'p', actNone, ""},
		{"tab", tcell.KeyTab, 0, actNone, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			act, cmd := keyAction(tt.key, tt.r)
			assert.Equal(t, tt.act, act)
			assert.Equal(t, tt.cmd, cmd)
		})
	}
}

func newSimScreen(t *testing.T) tcell.SimulationScreen {
	t.Helper()
	s := tcell.NewSimulationScreen("UTF-8")
	require.NoError(t, s.Init())
	s.SetSize(80, 30)
	t.Cleanup(s.Fini)
	return s
}

func TestRenderBoardAndPanel(t *testing.T) {
	s := newSimScreen(t)
	g := game.New(game.WithSeed(3), game.WithLogger(zerolog.Nop()))
	g.HardDrop()
	snap := g.Snapshot()
	render(s, snap)

	// Some locked cell on the bottom row is painted with its piece color.
	painted := 0
	for x := 0; x < game.Cols; x++ {
		if c := snap.Cell(x, game.Rows-1); !c.Empty() {
			_, _, st, _ := s.GetContent(boardLeft+x*cellWidth, boardTop+game.Rows-1)
			_, bg, _ := st.Decompose()
			assert.Equal(t, tcell.GetColor(c.Color()), bg)
			painted++
		}
	}
	assert.Positive(t, painted)

	r, _, _, _ := s.GetContent(panelLeft, boardTop)
	assert.Equal(t, 'N', r)
	r, _, _, _ = s.GetContent(boardLeft-1, boardTop)
	assert.Equal(t, '│', r)
}

func TestPlayStopsWithContext(t *testing.T) {
	s := newSimScreen(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- play(ctx, s, game.DefaultConfig(), 5*time.Millisecond, 1, zerolog.Nop())
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("client did not quit")
	}
}
