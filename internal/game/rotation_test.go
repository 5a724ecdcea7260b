package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKicksSRSBoardSpace(t *testing.T) {
	// guideline +y is up, board +y is down
	assert.Equal(t,
		[]Point{{0, 0}, {-1, 0}, {-1, -1}, {0, 2}, {-1, 2}},
		Kicks(PieceT, 0, true, KickSRS))
	assert.Equal(t,
		[]Point{{0, 0}, {-2, 0}, {1, 0}, {-2, 1}, {1, -2}},
		Kicks(PieceI, 0, true, KickSRS))
}

func TestKicksCounterClockwiseReverseTransition(t *testing.T) {
	// R->0 reverses 0->R
	assert.Equal(t,
		[]Point{{0, 0}, {1, 0}, {1, 1}, {0, -2}, {1, -2}},
		Kicks(PieceJ, 1, false, KickSRS))
	// 0->L reverses L->0
	assert.Equal(t,
		[]Point{{0, 0}, {-1, 0}, {2, 0}, {-1, -2}, {2, 1}},
		Kicks(PieceI, 0, false, KickSRS))

	for _, pt := range []PieceType{PieceI, PieceT} {
		for from := Rotation(0); from < 4; from++ {
			cw := Kicks(pt, from, true, KickSRS)
			back := Kicks(pt, from.Next(true), false, KickSRS)
			for i := range cw {
				assert.Equal(t, Point{-cw[i].X, -cw[i].Y}, back[i])
			}
		}
	}
}

func TestKicksOPiece(t *testing.T) {
	for _, mode := range []KickMode{KickSRS, KickSimple} {
		for from := Rotation(0); from < 4; from++ {
			assert.Equal(t, []Point{{0, 0}}, Kicks(PieceO, from, true, mode))
		}
	}
}

func TestKicksSimple(t *testing.T) {
	assert.Len(t, Kicks(PieceS, 2, true, KickSimple), 9)
	assert.Len(t, Kicks(PieceI, 3, false, KickSimple), 6)
	assert.Equal(t, Point{0, -1}, Kicks(PieceZ, 0, true, KickSimple)[3])
}

func TestRotationNext(t *testing.T) {
	assert.Equal(t, Rotation(1), Rotation(0).Next(true))
	assert.Equal(t, Rotation(3), Rotation(0).Next(false))
	assert.Equal(t, Rotation(0), Rotation(3).Next(true))
	assert.Equal(t, "L", Rotation(3).String())
}

func TestParseKickMode(t *testing.T) {
	m, ok := ParseKickMode(" Simple ")
	assert.True(t, ok)
	assert.Equal(t, KickSimple, m)

	m, ok = ParseKickMode("ars")
	assert.False(t, ok)
	assert.Equal(t, KickSRS, m)
}

func TestRotatePieceIOnEmptyBoard(t *testing.T) {
	b := NewBoard()
	p := NewPiece(PieceI)
	assert.Equal(t, Point{3, 0}, p.Pos)

	r, ok := RotatePiece(b, p, true, KickSRS)
	assert.True(t, ok)
	assert.Equal(t, Point{3, 0}, r.Pos)
	assert.Equal(t, Rotation(1), r.Rotation)
	assert.Equal(t, []Point{{5, 0}, {5, 1}, {5, 2}, {5, 3}}, r.Blocks())

	back, ok := RotatePiece(b, r, false, KickSRS)
	assert.True(t, ok)
	assert.Equal(t, p, back)
}

func TestRotatePieceWallKick(t *testing.T) {
	b := NewBoard()
	p := Piece{
		Type:     PieceT,
		Shape:    CanonicalShape(PieceT).RotateCW(),
		Pos:      Point{-1, 5},
		Rotation: 1,
	}
	assert.True(t, b.IsOccupiable(p.Shape, p.Pos))

	// R->2 at (-1,5) pokes through the left wall; the second kick (+1,0) fits
	r, ok := RotatePiece(b, p, true, KickSRS)
	assert.True(t, ok)
	assert.Equal(t, Point{0, 5}, r.Pos)
	assert.Equal(t, Rotation(2), r.Rotation)
	assert.Equal(t, "...\n###\n.#.", r.Shape.String())
}

func TestRotatePieceAllOrNothing(t *testing.T) {
	b := NewBoard()
	p := NewPiece(PieceI).Moved(0, 10)
	blocks := map[Point]bool{}
	for _, c := range p.Blocks() {
		blocks[c] = true
	}
	for y := 0; y < Rows; y++ {
		for x := 0; x < Cols; x++ {
			if !blocks[Point{x, y}] {
				b.Set(x, y, CellOf(PieceZ))
			}
		}
	}

	for _, mode := range []KickMode{KickSRS, KickSimple} {
		for _, cw := range []bool{true, false} {
			r, ok := RotatePiece(b, p, cw, mode)
			assert.False(t, ok)
			assert.Equal(t, p, r)
		}
	}
}

func TestRotatePieceOKeepsPlace(t *testing.T) {
	b := NewBoard()
	p := NewPiece(PieceO)
	r, ok := RotatePiece(b, p, true, KickSRS)
	assert.True(t, ok)
	assert.Equal(t, p.Pos, r.Pos)
	assert.Equal(t, p.Shape, r.Shape)
}
