package game

// Listener observes a Game. Calls happen on the goroutine driving the game
// and must not block.
type Listener interface {
	// StateChanged is called after every gravity step and committed action.
	StateChanged(Snapshot)
	// GameOver is called once per transition into the game over state.
	GameOver(Snapshot)
}

// ListenerFuncs adapts plain functions to Listener. Nil fields are skipped.
type ListenerFuncs struct {
	OnStateChanged func(Snapshot)
	OnGameOver     func(Snapshot)
}

func (f ListenerFuncs) StateChanged(s Snapshot) {
	if f.OnStateChanged != nil {
		f.OnStateChanged(s)
	}
}

func (f ListenerFuncs) GameOver(s Snapshot) {
	if f.OnGameOver != nil {
		f.OnGameOver(s)
	}
}
