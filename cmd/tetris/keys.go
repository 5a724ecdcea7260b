package main

import (
	"github.com/gdamore/tcell/v2"

	"github.com/its-lightning/tetris/internal/game"
)

// action is what a key press asks the client to do.
type action int

const (
	actNone action = iota
	actCommand
	actQuit
)

// keyAction maps a key (and its rune for KeyRune) to a game command. Terminals report no key
// releases, so held keys arrive as the terminal's own repeats and every
// press is a discrete command.
func keyAction(key tcell.Key, r rune) (action, game.Command) {
	switch key {
	case tcell.KeyLeft:
		return actCommand, game.CommandMoveLeft
	case tcell.KeyRight:
		return actCommand, game.CommandMoveRight
	case tcell.KeyDown:
		return actCommand, game.CommandSoftDrop
	case tcell.KeyUp:
		return actCommand, game.CommandRotateCW
	case tcell.KeyEscape:
		return actCommand, game.CommandReset
	case tcell.KeyCtrlC:
		return actQuit, ""
	case tcell.KeyRune:
	default:
		return actNone, ""
	}

	switch r {
	case 'h':
		return actCommand, game.CommandMoveLeft
	case 'l':
		return actCommand, game.CommandMoveRight
	case 'j':
		return actCommand, game.CommandSoftDrop
	case 'k', 'x':
		return actCommand, game.CommandRotateCW
	case 'z':
		return actCommand, game.CommandRotateCCW
	case ' ':
		return actCommand, game.CommandHardDrop
	case 'c':
		return actCommand, game.CommandHold
	case 'r':
		return actCommand, game.CommandReset
	case 'q':
		return actQuit, ""
	}
	return actNone, ""
}
