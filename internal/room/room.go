// internal/room/room.go
//
// Multiplayer rooms.
// Responsibilities:
//   - Create rooms under short unique codes; track host, players and status.
//   - Start a match: one independent Game + Runner per player.
//   - Fan out state: own snapshot to the player, game_update to everyone else.
//   - Knock-outs, winner detection and the delayed return to the waiting room.
//   - Disconnects: player_left, host hand-over, closing and deleting rooms.
//
// Notes:
//   - Conn.Send is called with the manager lock held and must not block.
//   - Runner.Snapshot is never called under the lock; listeners running on
//     runner goroutines take the lock themselves.

package room

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/its-lightning/tetris/internal/game"
)

const (
	codeLength         = 6
	DefaultReturnDelay = 5 * time.Second
)

var (
	ErrRoomNotFound = errors.New("room not found")
	ErrGameStarted  = errors.New("game already started")
	ErrNotHost      = errors.New("only the host can start the game")
	ErrNotInRoom    = errors.New("player not in room")
)

type Status string

const (
	StatusWaiting Status = "waiting"
	StatusPlaying Status = "playing"
)

// Event is one message sent to a connected player.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// Conn delivers events to one connected player. Send must not block; it
// reports false when the event was dropped. Close is called when a newer
// connection replaces this one and must not block either.
type Conn interface {
	Send(Event) bool
	Close()
}

// Member identifies a player.
type Member struct {
	ID       string
	Username string
}

type PlayerInfo struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Connected bool   `json:"connected"`
	GameOver  bool   `json:"gameOver"`
	Score     int    `json:"score"`
}

type Info struct {
	Code    string       `json:"code"`
	HostID  string       `json:"hostId"`
	Status  Status       `json:"status"`
	Players []PlayerInfo `json:"players"`
}

// Options configures a Manager.
type Options struct {
	Game        game.Config
	Frame       time.Duration
	ReturnDelay time.Duration
	// SaveScore records a knocked-out player's final score. Optional.
	SaveScore func(ctx context.Context, playerID string, score int) error
	Logger    *zerolog.Logger
}

type player struct {
	Member
	conn   Conn
	runner *game.Runner
	cancel context.CancelFunc
	over   bool
	score  int
}

type room struct {
	code      string
	hostID    string
	status    Status
	players   map[string]*player
	order     []string
	gen       uint64
	finishing bool
}

// Manager owns every live room.
type Manager struct {
	mu    sync.Mutex
	rooms map[string]*room
	opts  Options
	log   zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

func NewManager(opts Options) *Manager {
	if opts.ReturnDelay <= 0 {
		opts.ReturnDelay = DefaultReturnDelay
	}
	l := log.Logger
	if opts.Logger != nil {
		l = *opts.Logger
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		rooms:  make(map[string]*room),
		opts:   opts,
		log:    l.With().Str("component", "room").Logger(),
		ctx:    ctx,
		cancel: cancel,
	}
}

// ---------------------------------------------------------------------------
// lifecycle

// Create opens a waiting room hosted by host. The host still has to Connect.
func (m *Manager) Create(host Member) Info {
	m.mu.Lock()
	defer m.mu.Unlock()

	code := m.newCode()
	r := &room{code: code, hostID: host.ID, status: StatusWaiting, players: map[string]*player{}}
	r.add(host)
	m.rooms[code] = r
	m.log.Info().Str("room", code).Str("host", host.Username).Msg("room created")
	return r.info()
}

func (m *Manager) newCode() string {
	const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	for {
		b := make([]byte, codeLength)
		for i := range b {
			b[i] = letters[rand.Intn(len(letters))]
		}
		if _, taken := m.rooms[string(b)]; !taken {
			return string(b)
		}
	}
}

// Get returns the room's public state.
func (m *Manager) Get(code string) (Info, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[code]
	if !ok {
		return Info{}, ErrRoomNotFound
	}
	return r.info(), nil
}

// Join checks that member may enter the room. Members already in the room
// may always rejoin; newcomers only while the room is waiting.
func (m *Manager) Join(code string, member Member) (Info, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[code]
	if !ok {
		return Info{}, ErrRoomNotFound
	}
	if _, in := r.players[member.ID]; !in && r.status != StatusWaiting {
		return Info{}, ErrGameStarted
	}
	return r.info(), nil
}

// Connect attaches conn to member, adding them to the room if needed, and
// announces them with player_joined. A second connection replaces the first.
func (m *Manager) Connect(code string, member Member, conn Conn) (Info, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[code]
	if !ok {
		return Info{}, ErrRoomNotFound
	}
	p, in := r.players[member.ID]
	if !in {
		if r.status != StatusWaiting {
			return Info{}, ErrGameStarted
		}
		p = r.add(member)
	}
	if p.conn != nil && p.conn != conn {
		p.conn.Close()
	}
	p.conn = conn

	info := r.info()
	r.broadcast(Event{Type: "player_joined", Data: map[string]any{
		"player":  PlayerInfo{ID: p.ID, Username: p.Username, Connected: true},
		"players": info.Players,
		"host_id": r.hostID,
	}}, "")
	return info, nil
}

// Disconnect removes the player owning conn. Stale connections that were
// already replaced are ignored.
func (m *Manager) Disconnect(code, playerID string, conn Conn) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[code]
	if !ok {
		return
	}
	p, in := r.players[playerID]
	if !in || p.conn != conn {
		return
	}
	p.stop()
	r.remove(playerID)
	m.log.Info().Str("room", code).Str("player", p.Username).Msg("player left")

	if len(r.players) == 0 {
		m.delete(r)
		return
	}

	if playerID == r.hostID {
		if r.status == StatusWaiting {
			r.broadcast(Event{Type: "room_closed", Data: map[string]string{"message": "Host has left the game"}}, "")
			m.delete(r)
			return
		}
		r.hostID = r.order[0]
	}

	r.broadcast(Event{Type: "player_left", Data: map[string]any{
		"player_id": p.ID,
		"username":  p.Username,
		"players":   r.info().Players,
		"host_id":   r.hostID,
	}}, "")

	if r.status == StatusPlaying && !p.over {
		m.checkFinish(r)
	}
}

func (m *Manager) delete(r *room) {
	for _, p := range r.players {
		p.stop()
	}
	r.gen++
	delete(m.rooms, r.code)
	m.log.Info().Str("room", r.code).Msg("room deleted")
}

// Close stops every runner and forgets every room.
func (m *Manager) Close() {
	m.cancel()
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rooms {
		m.delete(r)
	}
}

// ---------------------------------------------------------------------------
// match

// Start begins a match. Only the host may start, and only from waiting.
func (m *Manager) Start(code, playerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[code]
	if !ok {
		return ErrRoomNotFound
	}
	if r.hostID != playerID {
		return ErrNotHost
	}
	if r.status != StatusWaiting {
		return ErrGameStarted
	}

	r.status = StatusPlaying
	r.finishing = false
	r.gen++
	for _, id := range r.order {
		m.startPlayer(r, r.players[id])
	}
	m.log.Info().Str("room", code).Int("players", len(r.players)).Msg("game started")
	r.broadcast(Event{Type: "game_started", Data: map[string]any{"players": r.info().Players}}, "")
	return nil
}

func (m *Manager) startPlayer(r *room, p *player) {
	code, id, gen := r.code, p.ID, r.gen
	g := game.New(
		game.WithConfig(m.opts.Game),
		game.WithLogger(m.log.With().Str("room", code).Str("player", p.Username).Logger()),
		game.WithListener(game.ListenerFuncs{
			OnStateChanged: func(s game.Snapshot) { m.relay(code, id, gen, s) },
			OnGameOver:     func(s game.Snapshot) { m.knockOut(code, id, gen, s.Score) },
		}),
	)
	ctx, cancel := context.WithCancel(m.ctx)
	p.runner = game.NewRunner(g, m.opts.Frame)
	p.cancel = cancel
	p.over = false
	p.score = 0
	go func(rn *game.Runner) { _ = rn.Run(ctx) }(p.runner)
}

// relay forwards a player's snapshot: state to them, game_update to the rest.
func (m *Manager) relay(code, playerID string, gen uint64, s game.Snapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, p := m.lookup(code, playerID, gen)
	if p == nil {
		return
	}
	p.score = s.Score
	if p.conn != nil {
		p.conn.Send(Event{Type: "state", Data: s})
	}
	r.broadcast(Event{Type: "game_update", Data: map[string]any{
		"player_id": p.ID,
		"username":  p.Username,
		"state":     s,
	}}, p.ID)
}

func (m *Manager) knockOut(code, playerID string, gen uint64, score int) {
	m.mu.Lock()
	_, p := m.lookup(code, playerID, gen)
	if p == nil || p.over {
		m.mu.Unlock()
		return
	}
	p.over = true
	p.score = score
	m.mu.Unlock()

	if m.opts.SaveScore != nil {
		if err := m.opts.SaveScore(m.ctx, playerID, score); err != nil {
			m.log.Warn().Err(err).Str("player", playerID).Msg("save score")
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	r, p := m.lookup(code, playerID, gen)
	if p == nil {
		return
	}
	r.broadcast(Event{Type: "player_game_over", Data: map[string]any{
		"player_id": p.ID,
		"username":  p.Username,
		"score":     score,
	}}, "")
	m.checkFinish(r)
}

// checkFinish declares a winner when one active player remains and schedules
// the return to the waiting room once at most one is left.
func (m *Manager) checkFinish(r *room) {
	if r.finishing {
		return
	}
	var active []*player
	for _, p := range r.players {
		if !p.over {
			active = append(active, p)
		}
	}
	if len(active) > 1 {
		return
	}
	if len(active) == 1 && len(r.players) > 1 && active[0].conn != nil {
		w := active[0]
		w.conn.Send(Event{Type: "you_win", Data: map[string]any{"username": w.Username, "score": w.score}})
	}

	r.finishing = true
	code, gen := r.code, r.gen
	time.AfterFunc(m.opts.ReturnDelay, func() { m.returnToWaiting(code, gen) })
}

func (m *Manager) returnToWaiting(code string, gen uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[code]
	if !ok || r.gen != gen || r.status != StatusPlaying {
		return
	}
	for _, p := range r.players {
		p.stop()
		p.over = false
	}
	r.status = StatusWaiting
	r.finishing = false
	r.gen++
	r.broadcast(Event{Type: "return_to_waiting", Data: map[string]any{"players": r.info().Players}}, "")
}

func (m *Manager) lookup(code, playerID string, gen uint64) (*room, *player) {
	r, ok := m.rooms[code]
	if !ok || r.gen != gen || r.status != StatusPlaying {
		return nil, nil
	}
	return r, r.players[playerID]
}

// ---------------------------------------------------------------------------
// input

// Command forwards a discrete command to the player's runner. It reports
// false when the player has no running game. Reset is not allowed mid-match.
func (m *Manager) Command(code, playerID string, cmd game.Command) bool {
	if cmd == game.CommandReset {
		return false
	}
	rn := m.runnerFor(code, playerID)
	return rn != nil && rn.Send(cmd)
}

func (m *Manager) Press(code, playerID string, in game.Input) bool {
	rn := m.runnerFor(code, playerID)
	return rn != nil && rn.Press(in)
}

func (m *Manager) Release(code, playerID string, in game.Input) bool {
	rn := m.runnerFor(code, playerID)
	return rn != nil && rn.Release(in)
}

func (m *Manager) runnerFor(code, playerID string) *game.Runner {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rooms[code]
	if !ok || r.status != StatusPlaying {
		return nil
	}
	p := r.players[playerID]
	if p == nil || p.over {
		return nil
	}
	return p.runner
}

// ---------------------------------------------------------------------------
// room helpers (manager lock held)

func (r *room) add(mb Member) *player {
	p := &player{Member: mb}
	r.players[mb.ID] = p
	r.order = append(r.order, mb.ID)
	return p
}

func (r *room) remove(id string) {
	delete(r.players, id)
	for i, o := range r.order {
		if o == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// broadcast sends ev to every connected player except skip.
func (r *room) broadcast(ev Event, skip string) {
	for _, id := range r.order {
		p := r.players[id]
		if id == skip || p.conn == nil {
			continue
		}
		p.conn.Send(ev)
	}
}

func (r *room) info() Info {
	out := Info{Code: r.code, HostID: r.hostID, Status: r.status, Players: make([]PlayerInfo, 0, len(r.order))}
	for _, id := range r.order {
		p := r.players[id]
		out.Players = append(out.Players, PlayerInfo{
			ID:        p.ID,
			Username:  p.Username,
			Connected: p.conn != nil,
			GameOver:  p.over,
			Score:     p.score,
		})
	}
	return out
}

func (p *player) stop() {
	if p.cancel != nil {
		p.cancel()
	}
	p.cancel = nil
	p.runner = nil
}
