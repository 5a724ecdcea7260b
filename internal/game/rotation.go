// internal/game/rotation.go
//
// Rotation resolver.
// Responsibilities:
//   - Track the orientation state (0..3) of a piece.
//   - Provide the ordered wall-kick offsets for an orientation transition.
//   - Apply a rotation all-or-nothing against a board (first valid kick wins).

package game

import (
	"strconv"
	"strings"
)

// Rotation is the orientation state of a piece: 0 is spawn, 1 is one
// clockwise turn, 2 is two turns, 3 is one counter-clockwise turn.
type Rotation int

// Next returns the orientation reached by one turn in the given direction.
func (r Rotation) Next(clockwise bool) Rotation {
	if clockwise {
		return (r + 1) & 3
	}
	return (r + 3) & 3
}

func (r Rotation) String() string {
	switch r & 3 {
	case 0:
		return "0"
	case 1:
		return "R"
	case 2:
		return "2"
	default:
		return "L"
	}
}

// KickMode selects the wall-kick tables used by rotations.
type KickMode int

const (
	// KickSRS uses the per-transition Super Rotation System tables.
	KickSRS KickMode = iota
	// KickSimple uses one static table per piece class regardless of transition.
	KickSimple
)

// ParseKickMode accepts "srs" or "simple" (case-insensitive).
func ParseKickMode(s string) (KickMode, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "srs":
		return KickSRS, true
	case "simple":
		return KickSimple, true
	}
	return KickSRS, false
}

func (m KickMode) String() string {
	switch m {
	case KickSRS:
		return "srs"
	case KickSimple:
		return "simple"
	default:
		return "KickMode(" + strconv.Itoa(int(m)) + ")"
	}
}

// Clockwise SRS kicks indexed by source orientation, in guideline notation
// (+y is up). Converted to board space by kickTable.
var (
	srsJLSTZ = [4][]Point{
		{{0, 0}, {-1, 0}, {-1, 1}, {0, -2}, {-1, -2}}, // 0->R
		{{0, 0}, {1, 0}, {1, -1}, {0, 2}, {1, 2}},     // R->2
		{{0, 0}, {1, 0}, {1, 1}, {0, -2}, {1, -2}},    // 2->L
		{{0, 0}, {-1, 0}, {-1, -1}, {0, 2}, {-1, 2}},  // L->0
	}
	srsI = [4][]Point{
		{{0, 0}, {-2, 0}, {1, 0}, {-2, -1}, {1, 2}}, // 0->R
		{{0, 0}, {-1, 0}, {2, 0}, {-1, 2}, {2, -1}}, // R->2
		{{0, 0}, {2, 0}, {-1, 0}, {2, 1}, {-1, -2}}, // 2->L
		{{0, 0}, {1, 0}, {-2, 0}, {1, -2}, {-2, 1}}, // L->0
	}
)

// Static kicks in board space (+y is down).
var (
	simpleJLSTZ = []Point{
		{0, 0}, {-1, 0}, {1, 0},
		{0, -1}, {-1, -1}, {1, -1},
		{0, -2}, {-1, -2}, {1, -2},
	}
	simpleI = []Point{{0, 0}, {-2, 0}, {1, 0}, {-2, -1}, {1, -1}, {0, -1}}

	noKicks = []Point{{0, 0}}
)

// kickTable holds board-space offsets: [direction][from].
// direction 0 is clockwise, 1 is counter-clockwise.
type kickTable [2][4][]Point

var (
	kicksJLSTZ = buildKickTable(srsJLSTZ)
	kicksI     = buildKickTable(srsI)
)

// buildKickTable flips guideline y into board y and derives the
// counter-clockwise rows: turning CCW out of s reverses the CW
// transition (s-1)->s, so its offsets are that row negated.
func buildKickTable(cw [4][]Point) kickTable {
	var t kickTable
	for from := 0; from < 4; from++ {
		row := cw[from]
		t[0][from] = make([]Point, len(row))
		for i, p := range row {
			t[0][from][i] = Point{p.X, -p.Y}
		}
	}
	for from := 0; from < 4; from++ {
		src := t[0][(from+3)&3]
		t[1][from] = make([]Point, len(src))
		for i, p := range src {
			t[1][from][i] = Point{-p.X, -p.Y}
		}
	}
	return t
}

// Kicks returns the ordered board-space offsets to try when rotating a
// piece of type t out of orientation from. Callers must not modify the result.
func Kicks(t PieceType, from Rotation, clockwise bool, mode KickMode) []Point {
	if t == PieceO || !t.Valid() {
		return noKicks
	}
	if mode == KickSimple {
		if t == PieceI {
			return simpleI
		}
		return simpleJLSTZ
	}

	dir := 0
	if !clockwise {
		dir = 1
	}
	if t == PieceI {
		return kicksI[dir][from&3]
	}
	return kicksJLSTZ[dir][from&3]
}

// RotatePiece turns p one step and tries each kick offset in order, returning
// the first placement the board accepts. When no offset fits, p is returned
// unchanged with ok=false.
func RotatePiece(b *Board, p Piece, clockwise bool, mode KickMode) (Piece, bool) {
	if !p.Type.Valid() {
		return p, false
	}

	shape := p.Shape.Rotate(clockwise)
	for _, k := range Kicks(p.Type, p.Rotation, clockwise, mode) {
		pos := p.Pos.Add(k)
		if b.IsOccupiable(shape, pos) {
			return Piece{
				Type:     p.Type,
				Shape:    shape,
				Pos:      pos,
				Rotation: p.Rotation.Next(clockwise),
			}, true
		}
	}
	return p, false
}
