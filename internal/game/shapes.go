package game

import (
	"encoding/json"
	"strings"
)

const maxShapeSize = 4

// Shape is one rotation state of a tetromino: an N×N occupancy matrix
// addressed as [y][x] relative to the piece origin. Shapes are values;
// rotating returns a new Shape and never mutates the receiver.
type Shape struct {
	n     int
	cells [maxShapeSize][maxShapeSize]bool
}

var canonicalShapes = [NumPieceTypes]Shape{
	PieceI: shapeFromRows(
		"....",
		"####",
		"....",
		"...."),
	PieceJ: shapeFromRows(
		"#..",
		"###",
		"..."),
	PieceL: shapeFromRows(
		"..#",
		"###",
		"..."),
	PieceO: shapeFromRows(
		"##",
		"##"),
	PieceS: shapeFromRows(
		".##",
		"##.",
		"..."),
	PieceT: shapeFromRows(
		".#.",
		"###",
		"..."),
	PieceZ: shapeFromRows(
		"##.",
		".##",
		"..."),
}

// shapeFromRows builds a square shape from rows of '#' (filled) and '.' (empty).
func shapeFromRows(rows ...string) Shape {
	n := len(rows)
	if n == 0 || n > maxShapeSize {
		panic("game: invalid shape size")
	}

	s := Shape{n: n}
	for y, row := range rows {
		if len(row) != n {
			panic("game: shape rows must form a square: " + strings.Join(rows, "/"))
		}
		for x := 0; x < n; x++ {
			s.cells[y][x] = row[x] == '#'
		}
	}
	return s
}

// CanonicalShape returns the spawn orientation of t.
// Unknown types yield the zero Shape, which occupies no cells.
func CanonicalShape(t PieceType) Shape {
	if !t.Valid() {
		return Shape{}
	}
	return canonicalShapes[t]
}

// Size returns N for an N×N shape.
func (s Shape) Size() int { return s.n }

// Filled reports whether the local cell (x, y) is occupied.
func (s Shape) Filled(x, y int) bool {
	if x < 0 || y < 0 || x >= s.n || y >= s.n {
		return false
	}
	return s.cells[y][x]
}

// Cells returns the occupied local coordinates in row-major order.
func (s Shape) Cells() []Point {
	out := make([]Point, 0, 4)
	for y := 0; y < s.n; y++ {
		for x := 0; x < s.n; x++ {
			if s.cells[y][x] {
				out = append(out, Point{x, y})
			}
		}
	}
	return out
}

// RotateCW returns the shape turned 90° clockwise: new[x][N-1-y] = old[y][x].
func (s Shape) RotateCW() Shape {
	r := Shape{n: s.n}
	for y := 0; y < s.n; y++ {
		for x := 0; x < s.n; x++ {
			r.cells[x][s.n-1-y] = s.cells[y][x]
		}
	}
	return r
}

// RotateCCW returns the shape turned 90° counter-clockwise: new[N-1-x][y] = old[y][x].
func (s Shape) RotateCCW() Shape {
	r := Shape{n: s.n}
	for y := 0; y < s.n; y++ {
		for x := 0; x < s.n; x++ {
			r.cells[s.n-1-x][y] = s.cells[y][x]
		}
	}
	return r
}

func (s Shape) Rotate(clockwise bool) Shape {
	if clockwise {
		return s.RotateCW()
	}
	return s.RotateCCW()
}

// Matrix returns the shape as rows of 0/1 values.
func (s Shape) Matrix() [][]int {
	m := make([][]int, s.n)
	for y := 0; y < s.n; y++ {
		m[y] = make([]int, s.n)
		for x := 0; x < s.n; x++ {
			if s.cells[y][x] {
				m[y][x] = 1
			}
		}
	}
	return m
}

func (s Shape) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Matrix())
}

func (s Shape) String() string {
	var b strings.Builder
	for y := 0; y < s.n; y++ {
		if y > 0 {
			b.WriteRune('\n')
		}
		for x := 0; x < s.n; x++ {
			if s.cells[y][x] {
				b.WriteRune('#')
			} else {
				b.WriteRune('.')
			}
		}
	}
	return b.String()
}
