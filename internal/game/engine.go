// internal/game/engine.go
//
// Piece controller for a single tetris session.
// Responsibilities:
//   - Own the session state: board, active/next/held piece, scorer, drop counter.
//   - Apply player commands (move, rotate, soft/hard drop, hold, reset).
//   - Lock pieces, clear rows, score, spawn the next piece, detect game over.
//   - Publish snapshots to listeners after every committed change.
//
// Notes:
//   - A Game is owned by one goroutine at a time. Runner provides the
//     serialized realtime loop used by the HTTP and terminal front ends.
//   - Reset builds a fresh session and swaps it in as a whole, so no caller
//     ever observes a half-reset game.
package game

import (
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config holds the tunable rules of a session.
type Config struct {
	Kicks           KickMode
	HoldEnabled     bool
	AutoRepeatDelay time.Duration
	AutoRepeatRate  time.Duration
}

// DefaultConfig returns SRS kicks, hold enabled and 170ms/100ms auto-repeat.
func DefaultConfig() Config {
	return Config{
		Kicks:           KickSRS,
		HoldEnabled:     true,
		AutoRepeatDelay: 170 * time.Millisecond,
		AutoRepeatRate:  100 * time.Millisecond,
	}
}

// Option configures a Game at construction.
type Option func(*Game)

func WithConfig(cfg Config) Option { return func(g *Game) { g.cfg = cfg } }

func WithLogger(l zerolog.Logger) Option { return func(g *Game) { g.log = l } }

// WithSeed makes the piece sequence reproducible.
func WithSeed(seed int64) Option {
	return func(g *Game) { g.rng = rand.New(rand.NewSource(seed)) }
}

func WithListener(l Listener) Option {
	return func(g *Game) {
		if l != nil {
			g.listeners = append(g.listeners, l)
		}
	}
}

// WithID overrides the generated session id.
func WithID(id string) Option { return func(g *Game) { g.ID = id } }

// session is everything Reset discards.
type session struct {
	board   Board
	active  Piece
	next    PieceType
	held    PieceType
	hasHeld bool
	canHold bool
	scorer  Scorer
	state   State

	dropCounter time.Duration
	repeat      [numInputs]repeatTimer

	rev          uint64 // bumped on every mutation
	overNotified bool
}

// Game is one player's simulation.
type Game struct {
	ID string

	cfg       Config
	rng       *rand.Rand
	log       zerolog.Logger
	listeners []Listener

	s *session
}

// New constructs a game and starts its first session.
func New(opts ...Option) *Game {
	g := &Game{
		ID:  uuid.NewString(),
		cfg: DefaultConfig(),
		log: log.Logger,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.rng == nil {
		g.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	g.log = g.log.With().Str("game", g.ID).Logger()
	g.Reset()
	return g
}

// Config returns the rules the game was built with.
func (g *Game) Config() Config { return g.cfg }

// AddListener registers l for future notifications.
func (g *Game) AddListener(l Listener) {
	if l != nil {
		g.listeners = append(g.listeners, l)
	}
}

// Reset discards the current session and starts a new one: empty board,
// zeroed score, level 1, and two pre-rolled pieces of different types.
func (g *Game) Reset() {
	s := &session{
		canHold: true,
		scorer:  NewScorer(),
		state:   StateSpawning,
	}
	cur := g.randomType()
	next := g.randomType()
	for next == cur {
		next = g.randomType()
	}
	s.active = g.spawn(cur)
	s.next = next
	s.state = StateActive
	if g.s != nil {
		s.rev = g.s.rev + 1
	}
	g.s = s
}

func (g *Game) randomType() PieceType {
	return PieceType(g.rng.Intn(NumPieceTypes))
}

// spawn creates a piece of type t at the spawn transform. Unknown types fall
// back to the I piece.
func (g *Game) spawn(t PieceType) Piece {
	if !t.Valid() {
		g.log.Warn().Int("type", int(t)).Msg("unknown piece type, spawning I")
		t = PieceI
	}
	return NewPiece(t)
}

// Spawn replaces the active piece with a fresh piece of type t (random when
// t is nil). It reports false, and ends the game, when the spawn position is
// already blocked.
func (g *Game) Spawn(t *PieceType) bool {
	s := g.s
	if s.state == StateGameOver {
		return false
	}
	pt := g.randomType()
	if t != nil {
		pt = *t
	}
	s.state = StateSpawning
	s.active = g.spawn(pt)
	s.rev++
	return g.checkSpawn()
}

// checkSpawn ends the game when the active piece overlaps at its spawn position.
func (g *Game) checkSpawn() bool {
	s := g.s
	if !s.board.IsOccupiable(s.active.Shape, s.active.Pos) {
		g.gameOver("spawn blocked")
		return false
	}
	s.state = StateActive
	return true
}

// Over reports whether the session has ended.
func (g *Game) Over() bool { return g.s.state == StateGameOver }

// State returns the controller state.
func (g *Game) State() State { return g.s.state }

// Active returns the active piece.
func (g *Game) Active() Piece { return g.s.active }

// Board returns a copy of the locked cells.
func (g *Game) Board() *Board { return g.s.board.Clone() }

// Scorer returns the current score, lines and level.
func (g *Game) Scorer() Scorer { return g.s.scorer }

// TryMove shifts the active piece by (dx, dy) when the target fits.
func (g *Game) TryMove(dx, dy int) bool {
	s := g.s
	if s.state != StateActive {
		return false
	}
	moved := s.active.Moved(dx, dy)
	if !s.board.IsOccupiable(moved.Shape, moved.Pos) {
		return false
	}
	s.active = moved
	s.rev++
	return true
}

func (g *Game) MoveLeft() bool  { return g.TryMove(-1, 0) }
func (g *Game) MoveRight() bool { return g.TryMove(1, 0) }

// Rotate turns the active piece using the configured kick tables. The
// rotation is applied completely or not at all.
func (g *Game) Rotate(clockwise bool) bool {
	s := g.s
	if s.state != StateActive {
		return false
	}
	p, ok := RotatePiece(&s.board, s.active, clockwise, g.cfg.Kicks)
	if !ok {
		return false
	}
	s.active = p
	s.rev++
	return true
}

// step moves the active piece down one row, locking it when it cannot move.
func (g *Game) step() bool {
	if g.TryMove(0, 1) {
		return true
	}
	if g.s.state == StateActive {
		g.lock()
	}
	return false
}

// SoftDrop is a manual one-row drop worth one point when it moves the piece.
// A blocked soft drop locks the piece.
func (g *Game) SoftDrop() bool {
	if !g.step() {
		return false
	}
	g.s.scorer.AddDrop(softDropPoints)
	return true
}

// HardDrop drops the active piece as far as it goes, awards two points per
// row and locks it. It returns the number of rows dropped.
func (g *Game) HardDrop() int {
	s := g.s
	if s.state != StateActive {
		return 0
	}
	rows := 0
	for g.TryMove(0, 1) {
		rows++
	}
	s.scorer.AddDrop(rows * hardDropPointsPerRow)
	g.lock()
	return rows
}

// Hold sets the active piece aside. With an empty slot the next piece comes
// in; otherwise the held type is swapped back in at its spawn transform.
// Only one hold is allowed between locks.
func (g *Game) Hold() bool {
	s := g.s
	if !g.cfg.HoldEnabled || !s.canHold || s.state != StateActive {
		return false
	}

	cur := s.active.Type
	s.state = StateSpawning
	if !s.hasHeld {
		s.active = g.spawn(s.next)
		s.next = g.randomType()
		s.hasHeld = true
	} else {
		s.active = g.spawn(s.held)
	}
	s.held = cur
	s.canHold = false
	s.rev++
	g.checkSpawn()
	return true
}

// lock commits the active piece, clears rows, scores and spawns the next piece.
func (g *Game) lock() {
	s := g.s
	s.state = StateLocking
	s.rev++

	res := s.board.Lock(s.active.Shape, s.active.Pos, CellOf(s.active.Type))
	if res.AboveBoard {
		g.gameOver("locked above board")
		return
	}

	cleared := s.board.ClearFullRows()
	if delta := s.scorer.AddClear(cleared); cleared > 0 {
		g.log.Debug().
			Int("rows", cleared).
			Int("points", delta).
			Int("level", s.scorer.Level).
			Msg("rows cleared")
	}
	s.canHold = true

	s.state = StateSpawning
	s.active = g.spawn(s.next)
	s.next = g.randomType()
	g.checkSpawn()
}

func (g *Game) gameOver(reason string) {
	s := g.s
	s.state = StateGameOver
	s.rev++
	g.log.Info().
		Str("reason", reason).
		Int("score", s.scorer.Score).
		Int("lines", s.scorer.Lines).
		Int("level", s.scorer.Level).
		Msg("game over")
}

// Apply performs a discrete command and notifies listeners when it changed
// the session. Commands that do not apply are no-ops; only reset does
// anything once the game is over.
func (g *Game) Apply(cmd Command) bool {
	rev := g.s.rev
	switch cmd {
	case CommandMoveLeft:
		g.MoveLeft()
	case CommandMoveRight:
		g.MoveRight()
	case CommandSoftDrop:
		g.SoftDrop()
	case CommandRotateCW:
		g.Rotate(true)
	case CommandRotateCCW:
		g.Rotate(false)
	case CommandHardDrop:
		g.HardDrop()
	case CommandHold:
		g.Hold()
	case CommandReset:
		g.Reset()
	default:
		g.log.Debug().Str("command", string(cmd)).Msg("ignoring unknown command")
		return false
	}
	return g.publish(rev)
}

// Snapshot returns a read-only copy of the session for rendering or transport.
func (g *Game) Snapshot() Snapshot {
	return g.s.snapshot(g.cfg)
}

// publish notifies listeners when the session moved past rev. It reports
// whether anything changed.
func (g *Game) publish(rev uint64) bool {
	s := g.s
	if s.rev == rev {
		return false
	}
	if len(g.listeners) == 0 {
		s.overNotified = s.state == StateGameOver
		return true
	}

	snap := g.Snapshot()
	for _, l := range g.listeners {
		l.StateChanged(snap)
	}
	if s.state == StateGameOver && !s.overNotified {
		s.overNotified = true
		for _, l := range g.listeners {
			l.GameOver(snap)
		}
	}
	return true
}
