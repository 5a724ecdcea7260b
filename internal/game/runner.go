// internal/game/runner.go
//
// Realtime driver for one Game.
// Responsibilities:
//   - Own the Game inside a single goroutine (Run).
//   - Tick it on a fixed frame period with the measured elapsed time.
//   - Serialize commands, inputs and snapshot reads from other goroutines.

package game

import (
	"context"
	"time"
)

const (
	DefaultFrame    = 16 * time.Millisecond
	runnerQueueSize = 64
)

type runnerMsg struct {
	cmd     Command
	in      Input
	kind    runnerMsgKind
	reply   chan Snapshot
	release bool
}

type runnerMsgKind int

const (
	msgCommand runnerMsgKind = iota
	msgInput
	msgSnapshot
)

// Runner drives a Game in real time. All access to the game goes through
// the runner's loop once Run has started.
type Runner struct {
	game  *Game
	frame time.Duration
	msgs  chan runnerMsg
	done  chan struct{}
	now   func() time.Time
}

// NewRunner wraps g. A non-positive frame selects DefaultFrame.
func NewRunner(g *Game, frame time.Duration) *Runner {
	if frame <= 0 {
		frame = DefaultFrame
	}
	return &Runner{
		game:  g,
		frame: frame,
		msgs:  make(chan runnerMsg, runnerQueueSize),
		done:  make(chan struct{}),
		now:   time.Now,
	}
}

// ID is the id of the wrapped game.
func (r *Runner) ID() string { return r.game.ID }

// Done is closed when Run returns.
func (r *Runner) Done() <-chan struct{} { return r.done }

// Send queues a command. It never blocks and reports false when the queue
// is full or the runner has stopped.
func (r *Runner) Send(cmd Command) bool {
	return r.enqueue(runnerMsg{kind: msgCommand, cmd: cmd})
}

// Press queues a held-input press.
func (r *Runner) Press(in Input) bool {
	return r.enqueue(runnerMsg{kind: msgInput, in: in})
}

// Release queues a held-input release.
func (r *Runner) Release(in Input) bool {
	return r.enqueue(runnerMsg{kind: msgInput, in: in, release: true})
}

func (r *Runner) enqueue(m runnerMsg) bool {
	select {
	case <-r.done:
		return false
	default:
	}
	select {
	case r.msgs <- m:
		return true
	default:
		return false
	}
}

// Snapshot reads the game state through the loop. Once the runner has
// stopped it reads the game directly.
func (r *Runner) Snapshot(ctx context.Context) (Snapshot, error) {
	reply := make(chan Snapshot, 1)
	select {
	case r.msgs <- runnerMsg{kind: msgSnapshot, reply: reply}:
	case <-r.done:
		return r.game.Snapshot(), nil
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}

	select {
	case s := <-reply:
		return s, nil
	case <-r.done:
		return r.game.Snapshot(), nil
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
}

// Run drives the game until ctx is cancelled. It must be called once.
func (r *Runner) Run(ctx context.Context) error {
	defer close(r.done)

	ticker := time.NewTicker(r.frame)
	defer ticker.Stop()

	last := r.now()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case m := <-r.msgs:
			r.handle(m)
		case <-ticker.C:
			now := r.now()
			r.game.Tick(now.Sub(last))
			last = now
		}
	}
}

func (r *Runner) handle(m runnerMsg) {
	switch m.kind {
	case msgCommand:
		r.game.Apply(m.cmd)
	case msgInput:
		if m.release {
			r.game.Release(m.in)
		} else {
			r.game.Press(m.in)
		}
	case msgSnapshot:
		m.reply <- r.game.Snapshot()
	}
}
