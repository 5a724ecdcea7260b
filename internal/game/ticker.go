// internal/game/ticker.go
//
// Tick driver.
// Each Tick advances the session by an injected elapsed duration:
//   1. auto-repeat for held directional inputs,
//   2. gravity once the drop counter exceeds the level's interval,
//   3. a snapshot for the caller (and listeners, when anything changed).

package game

import "time"

type repeatTimer struct {
	held  bool
	timer time.Duration
}

// Press starts holding a directional input. The action fires once
// immediately; repeats are driven by Tick. Pressing an input that is
// already held does nothing.
func (g *Game) Press(in Input) bool {
	if in < 0 || in >= numInputs {
		return false
	}
	s := g.s
	r := &s.repeat[in]
	if r.held {
		return false
	}
	r.held = true
	r.timer = 0

	rev := s.rev
	g.fire(in)
	return g.publish(rev)
}

// Release stops holding a directional input.
func (g *Game) Release(in Input) {
	if in < 0 || in >= numInputs {
		return
	}
	g.s.repeat[in] = repeatTimer{}
}

// Held reports whether in is currently held.
func (g *Game) Held(in Input) bool {
	if in < 0 || in >= numInputs {
		return false
	}
	return g.s.repeat[in].held
}

func (g *Game) fire(in Input) {
	switch in {
	case InputLeft:
		g.MoveLeft()
	case InputRight:
		g.MoveRight()
	case InputDown:
		g.SoftDrop()
	}
}

// Tick advances the simulation by elapsed and returns the resulting snapshot.
func (g *Game) Tick(elapsed time.Duration) Snapshot {
	s := g.s
	if s.state == StateGameOver {
		return g.Snapshot()
	}
	rev := s.rev

	g.autoRepeat(elapsed)

	if s.state != StateGameOver {
		s.dropCounter += elapsed
		if s.dropCounter > DropInterval(s.scorer.Level) {
			g.step()
			s.dropCounter = 0
		}
	}

	g.publish(rev)
	return g.Snapshot()
}

// autoRepeat advances the per-direction timers. Horizontal inputs repeat
// after the delay and then every rate; down repeats after half the delay.
func (g *Game) autoRepeat(elapsed time.Duration) {
	s := g.s
	delay, rate := g.cfg.AutoRepeatDelay, g.cfg.AutoRepeatRate

	for _, in := range [...]Input{InputLeft, InputRight, InputDown} {
		r := &s.repeat[in]
		if !r.held {
			r.timer = 0
			continue
		}
		if s.state == StateGameOver {
			return
		}

		r.timer += elapsed
		threshold, rearm := delay, delay-rate
		if in == InputDown {
			threshold, rearm = delay/2, delay-rate/2
		}
		if r.timer > threshold {
			g.fire(in)
			r.timer = rearm
		}
	}
}
