// internal/game/board.go
//
// The playfield: a fixed Rows×Cols grid of locked cells.
// Responsibilities:
//   - Answer placement queries for a shape at a position.
//   - Write locked pieces into the grid.
//   - Remove full rows and compact the rows above them.

package game

// Board is the locked-cell grid. Row 0 is the top. The zero value is an
// empty board ready for use.
type Board struct {
	cells [Rows][Cols]Cell
}

// LockResult reports the outcome of writing a piece into the board.
type LockResult struct {
	// AboveBoard is set when part of the piece lay above row 0. Those cells
	// are not written and the game is over.
	AboveBoard bool
}

func NewBoard() *Board { return &Board{} }

// At returns the cell at (x, y). Out of range coordinates read as empty.
func (b *Board) At(x, y int) Cell {
	if !inBounds(x, y) {
		return CellEmpty
	}
	return b.cells[y][x]
}

// Set writes c at (x, y). Out of range writes are ignored.
func (b *Board) Set(x, y int, c Cell) {
	if !inBounds(x, y) {
		return
	}
	b.cells[y][x] = c
}

func inBounds(x, y int) bool {
	return x >= 0 && x < Cols && y >= 0 && y < Rows
}

// IsOccupiable reports whether shape placed with its origin at pos fits:
// every filled cell is inside the side walls, above the floor, and either
// above the top of the board or on an empty cell.
func (b *Board) IsOccupiable(shape Shape, pos Point) bool {
	n := shape.Size()
	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			if !shape.Filled(x, y) {
				continue
			}
			bx, by := pos.X+x, pos.Y+y
			if bx < 0 || bx >= Cols || by >= Rows {
				return false
			}
			if by >= 0 && b.cells[by][bx] != CellEmpty {
				return false
			}
		}
	}
	return true
}

// Lock writes c into every filled cell of shape at pos that is on the board.
func (b *Board) Lock(shape Shape, pos Point, c Cell) LockResult {
	var res LockResult
	for _, p := range shape.Cells() {
		bx, by := pos.X+p.X, pos.Y+p.Y
		if by < 0 {
			res.AboveBoard = true
			continue
		}
		b.Set(bx, by, c)
	}
	return res
}

// ClearFullRows removes every full row, shifting the rows above down and
// inserting empty rows at the top. It returns the number of rows removed.
func (b *Board) ClearFullRows() int {
	cleared := 0
	for y := Rows - 1; y >= 0; {
		if !b.rowFull(y) {
			y--
			continue
		}
		copy(b.cells[1:y+1], b.cells[0:y])
		b.cells[0] = [Cols]Cell{}
		cleared++
		// row y now holds what was above it; check it again
	}
	return cleared
}

func (b *Board) rowFull(y int) bool {
	for x := 0; x < Cols; x++ {
		if b.cells[y][x] == CellEmpty {
			return false
		}
	}
	return true
}

// Cells returns a copy of the grid as [row][col].
func (b *Board) Cells() [][]Cell {
	out := make([][]Cell, Rows)
	for y := range out {
		row := make([]Cell, Cols)
		copy(row, b.cells[y][:])
		out[y] = row
	}
	return out
}

// Clone returns an independent copy of the board.
func (b *Board) Clone() *Board {
	c := *b
	return &c
}

// DropDistance returns how many rows shape can fall from pos before it would
// no longer fit.
func (b *Board) DropDistance(shape Shape, pos Point) int {
	d := 0
	for b.IsOccupiable(shape, Point{pos.X, pos.Y + d + 1}) {
		d++
	}
	return d
}
