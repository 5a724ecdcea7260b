package game

// Piece is a tetromino placed on a board: its shape in the current
// orientation and the board position of the shape's origin.
type Piece struct {
	Type     PieceType
	Shape    Shape
	Pos      Point
	Rotation Rotation
}

// SpawnPosition centres a shape of width w horizontally at row 0.
func SpawnPosition(w int) Point {
	return Point{X: Cols/2 - w/2, Y: 0}
}

// NewPiece returns a fresh piece of type t in its canonical orientation
// at the spawn position.
func NewPiece(t PieceType) Piece {
	shape := CanonicalShape(t)
	return Piece{
		Type:  t,
		Shape: shape,
		Pos:   SpawnPosition(shape.Size()),
	}
}

// Color is the display color of the piece's type.
func (p Piece) Color() string { return p.Type.Color() }

// Blocks returns the board coordinates occupied by the piece.
func (p Piece) Blocks() []Point {
	cells := p.Shape.Cells()
	for i := range cells {
		cells[i] = cells[i].Add(p.Pos)
	}
	return cells
}

// Moved returns a copy shifted by (dx, dy).
func (p Piece) Moved(dx, dy int) Piece {
	p.Pos = p.Pos.Add(Point{dx, dy})
	return p
}
