// cmd/tetris/main.go
//
// Terminal client: plays a local game under a Runner and renders every
// snapshot with tcell. Rules come from the same environment as the server
// (KICK_MODE, HOLD_ENABLED, AUTO_REPEAT_*, FRAME_MS).

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rs/zerolog"

	"github.com/its-lightning/tetris/internal/config"
	"github.com/its-lightning/tetris/internal/game"
)

func main() {
	seed := flag.Int64("seed", 0, "piece sequence seed (0 = random)")
	logPath := flag.String("log", "", "write logs to this file")
	flag.Parse()

	if err := run(*seed, *logPath); err != nil {
		fmt.Fprintf(os.Stderr, "tetris: %v\n", err)
		os.Exit(1)
	}
}

func run(seed int64, logPath string) error {
	cfg := config.Load()

	var out io.Writer = io.Discard
	if logPath != "" {
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	logger := zerolog.New(out).Level(cfg.LogLevel).With().Timestamp().Logger()

	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	defer screen.Fini()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	return play(ctx, screen, cfg.GameConfig(), cfg.Frame, seed, logger)
}

// play runs one local session on screen until the player quits or ctx ends.
func play(ctx context.Context, screen tcell.Screen, rules game.Config, frame time.Duration, seed int64, logger zerolog.Logger) error {
	snaps := make(chan game.Snapshot, 1)
	opts := []game.Option{
		game.WithConfig(rules),
		game.WithLogger(logger),
		game.WithListener(game.ListenerFuncs{OnStateChanged: func(s game.Snapshot) {
			// Keep only the newest snapshot.
			select {
			case <-snaps:
			default:
			}
			snaps <- s
		}}),
	}
	if seed != 0 {
		opts = append(opts, game.WithSeed(seed))
	}
	g := game.New(opts...)
	runner := game.NewRunner(g, frame)
	render(screen, g.Snapshot())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() { _ = runner.Run(ctx) }()

	events := make(chan tcell.Event, 16)
	go func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case snap := <-snaps:
			render(screen, snap)
		case ev := <-events:
			switch ev := ev.(type) {
			case *tcell.EventResize:
				screen.Sync()
			case *tcell.EventKey:
				switch act, cmd := keyAction(ev.Key(), ev.Rune()); act {
				case actQuit:
					return nil
				case actCommand:
					runner.Send(cmd)
				}
			}
		}
	}
}
