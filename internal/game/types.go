// internal/game/types.go
//
// Core type definitions for the tetris simulation.
// Defines:
//   - PieceType: the seven tetromino kinds (I, J, L, O, S, T, Z).
//   - Cell: a locked board cell (EMPTY or the color tag of a piece type).
//   - Point: a board or shape coordinate (x grows right, y grows down).
//   - Command / Input: discrete player commands and held directional inputs.
//   - State: the piece controller state machine.

package game

import "strconv"

// Board dimensions.
const (
	Rows = 20
	Cols = 10
)

// PieceType identifies one of the seven tetrominoes.
type PieceType int

const (
	PieceI PieceType = iota
	PieceJ
	PieceL
	PieceO
	PieceS
	PieceT
	PieceZ

	NumPieceTypes = 7
)

var pieceNames = [NumPieceTypes]string{"I", "J", "L", "O", "S", "T", "Z"}

var pieceColors = [NumPieceTypes]string{
	"#00FFFF", // I cyan
	"#0000FF", // J blue
	"#FFA500", // L orange
	"#FFFF00", // O yellow
	"#00FF00", // S green
	"#800080", // T purple
	"#FF0000", // Z red
}

// Valid reports whether t names one of the seven tetrominoes.
func (t PieceType) Valid() bool { return t >= 0 && t < NumPieceTypes }

func (t PieceType) String() string {
	if !t.Valid() {
		return "PieceType(" + strconv.Itoa(int(t)) + ")"
	}
	return pieceNames[t]
}

// Color returns the display color of the piece type.
func (t PieceType) Color() string {
	if !t.Valid() {
		return ""
	}
	return pieceColors[t]
}

// Cell is the value of one locked board cell. The zero value is empty;
// any other value is the color tag of the piece type that was locked there.
type Cell uint8

const CellEmpty Cell = 0

// CellOf returns the cell tag written when a piece of type t locks.
func CellOf(t PieceType) Cell { return Cell(t + 1) }

// Empty reports whether the cell holds no locked block.
func (c Cell) Empty() bool { return c == CellEmpty }

// PieceType returns the piece type that produced the cell.
// The second result is false for empty or unknown cells.
func (c Cell) PieceType() (PieceType, bool) {
	t := PieceType(c) - 1
	return t, c != CellEmpty && t.Valid()
}

// Color returns the cell's display color, or "" for empty cells.
func (c Cell) Color() string {
	if t, ok := c.PieceType(); ok {
		return t.Color()
	}
	return ""
}

// Point is an (x, y) offset. Rows grow downward; y < 0 is above the board.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (p Point) Add(o Point) Point { return Point{p.X + o.X, p.Y + o.Y} }

func (p Point) String() string {
	return "(" + strconv.Itoa(p.X) + "," + strconv.Itoa(p.Y) + ")"
}

// Command is a discrete player command. Every command is safe to apply in any
// state; invalid commands are no-ops.
type Command string

const (
	CommandMoveLeft  Command = "moveLeft"
	CommandMoveRight Command = "moveRight"
	CommandSoftDrop  Command = "softDrop"
	CommandRotateCW  Command = "rotateCW"
	CommandRotateCCW Command = "rotateCCW"
	CommandHardDrop  Command = "hardDrop"
	CommandHold      Command = "hold"
	CommandReset     Command = "reset"
)

// ParseCommand maps a wire name onto a Command.
func ParseCommand(s string) (Command, bool) {
	switch c := Command(s); c {
	case CommandMoveLeft, CommandMoveRight, CommandSoftDrop, CommandRotateCW,
		CommandRotateCCW, CommandHardDrop, CommandHold, CommandReset:
		return c, true
	}
	return "", false
}

// Input is a directional input that auto-repeats while held.
type Input int

const (
	InputLeft Input = iota
	InputRight
	InputDown

	numInputs = 3
)

// ParseInput maps a wire name ("left", "right", "down") onto an Input.
func ParseInput(s string) (Input, bool) {
	switch s {
	case "left":
		return InputLeft, true
	case "right":
		return InputRight, true
	case "down":
		return InputDown, true
	}
	return 0, false
}

// State is the piece controller state.
type State int

const (
	StateSpawning State = iota
	StateActive
	StateLocking
	StateGameOver
)

func (s State) String() string {
	switch s {
	case StateSpawning:
		return "spawning"
	case StateActive:
		return "active"
	case StateLocking:
		return "locking"
	case StateGameOver:
		return "game_over"
	default:
		return "State(" + strconv.Itoa(int(s)) + ")"
	}
}
