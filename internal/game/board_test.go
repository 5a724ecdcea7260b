package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// fillRow occupies every cell of row y except the listed columns.
func fillRow(b *Board, y int, c Cell, except ...int) {
	skip := make(map[int]bool, len(except))
	for _, x := range except {
		skip[x] = true
	}
	for x := 0; x < Cols; x++ {
		if !skip[x] {
			b.Set(x, y, c)
		}
	}
}

func TestBoardIsOccupiable(t *testing.T) {
	b := NewBoard()
	i := CanonicalShape(PieceI)

	cases := []struct {
		name string
		pos  Point
		want bool
	}{
		{"spawn", Point{3, 0}, true},
		{"left wall", Point{-1, 0}, false},
		{"flush right", Point{6, 0}, true},
		{"right wall", Point{7, 0}, false},
		{"floor", Point{3, 18}, true},
		{"below floor", Point{3, 19}, false},
		{"partly above", Point{3, -1}, true},
		{"fully above", Point{3, -5}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, b.IsOccupiable(i, tc.pos))
		})
	}
}

func TestBoardIsOccupiableCollision(t *testing.T) {
	b := NewBoard()
	b.Set(5, 1, CellOf(PieceZ))

	i := CanonicalShape(PieceI)
	assert.False(t, b.IsOccupiable(i, Point{3, 0}))
	assert.True(t, b.IsOccupiable(i, Point{3, 1}))

	// empty cells of the shape matrix never collide
	assert.True(t, b.IsOccupiable(i, Point{3, -1}))
}

func TestBoardOutOfRangeAccess(t *testing.T) {
	b := NewBoard()
	b.Set(-1, 0, CellOf(PieceI))
	b.Set(0, Rows, CellOf(PieceI))
	assert.Equal(t, CellEmpty, b.At(-1, 0))
	assert.Equal(t, CellEmpty, b.At(Cols, 0))
	for _, row := range b.Cells() {
		for _, c := range row {
			assert.True(t, c.Empty())
		}
	}
}

func TestBoardLock(t *testing.T) {
	b := NewBoard()
	res := b.Lock(CanonicalShape(PieceO), Point{4, 18}, CellOf(PieceO))

	assert.False(t, res.AboveBoard)
	for _, p := range []Point{{4, 18}, {5, 18}, {4, 19}, {5, 19}} {
		assert.Equal(t, CellOf(PieceO), b.At(p.X, p.Y), p.String())
	}
	assert.Equal(t, CellEmpty, b.At(3, 19))
}

func TestBoardLockAboveBoard(t *testing.T) {
	b := NewBoard()
	res := b.Lock(CanonicalShape(PieceO), Point{4, -1}, CellOf(PieceO))

	assert.True(t, res.AboveBoard)
	assert.Equal(t, CellOf(PieceO), b.At(4, 0))
	assert.Equal(t, CellOf(PieceO), b.At(5, 0))
}

func TestBoardClearFullRowsNonAdjacent(t *testing.T) {
	b := NewBoard()
	fillRow(b, 19, CellOf(PieceI))
	fillRow(b, 18, CellOf(PieceJ), 9)
	fillRow(b, 17, CellOf(PieceL))
	b.Set(5, 16, CellOf(PieceT))

	assert.Equal(t, 2, b.ClearFullRows())

	// old row 18 drops to 19, old row 16 drops to 18
	for x := 0; x < 9; x++ {
		assert.Equal(t, CellOf(PieceJ), b.At(x, 19))
	}
	assert.Equal(t, CellEmpty, b.At(9, 19))
	assert.Equal(t, CellOf(PieceT), b.At(5, 18))
	for y := 0; y < 18; y++ {
		for x := 0; x < Cols; x++ {
			assert.True(t, b.At(x, y).Empty(), "cell %d,%d", x, y)
		}
	}
}

func TestBoardClearFourRows(t *testing.T) {
	b := NewBoard()
	for y := 16; y < Rows; y++ {
		fillRow(b, y, CellOf(PieceS))
	}
	b.Set(2, 15, CellOf(PieceZ))

	assert.Equal(t, 4, b.ClearFullRows())
	assert.Equal(t, CellOf(PieceZ), b.At(2, 19))
	assert.Equal(t, 0, b.ClearFullRows())
}

func TestBoardClearNothing(t *testing.T) {
	b := NewBoard()
	fillRow(b, 19, CellOf(PieceI), 0)
	before := b.Cells()

	assert.Equal(t, 0, b.ClearFullRows())
	assert.Equal(t, before, b.Cells())
}

func TestBoardDropDistance(t *testing.T) {
	b := NewBoard()
	o := CanonicalShape(PieceO)
	assert.Equal(t, 18, b.DropDistance(o, Point{4, 0}))

	b.Set(4, 10, CellOf(PieceI))
	assert.Equal(t, 8, b.DropDistance(o, Point{4, 0}))
}
