package main

import (
	"fmt"

	"github.com/gdamore/tcell/v2"

	"github.com/its-lightning/tetris/internal/game"
)

const (
	boardLeft = 2
	boardTop  = 1
	cellWidth = 2
	panelLeft = boardLeft + game.Cols*cellWidth + 4
)

var (
	styleBorder = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleText   = tcell.StyleDefault.Foreground(tcell.ColorWhite)
	styleGhost  = tcell.StyleDefault.Foreground(tcell.ColorDarkGray)
	styleTitle  = tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)
)

func blockStyle(color string) tcell.Style {
	return tcell.StyleDefault.Background(tcell.GetColor(color))
}

// render draws one snapshot: board with ghost and active piece, the next
// and hold previews, and the stats panel.
func render(s tcell.Screen, snap game.Snapshot) {
	s.Clear()
	drawBorder(s)

	for y := 0; y < game.Rows; y++ {
		for x := 0; x < game.Cols; x++ {
			if c := snap.Cell(x, y); !c.Empty() {
				drawBlock(s, x, y, blockStyle(c.Color()))
			}
		}
	}

	if p := snap.Current; p != nil && !snap.GameOver {
		for _, b := range p.Shape.Cells() {
			x, y := p.X+b.X, snap.GhostY+b.Y
			if y >= 0 && snap.Cell(x, y).Empty() {
				drawText(s, boardLeft+x*cellWidth, boardTop+y, styleGhost, "[]")
			}
		}
		for _, b := range p.Shape.Cells() {
			drawBlock(s, p.X+b.X, p.Y+b.Y, blockStyle(p.Color))
		}
	}

	row := boardTop
	drawText(s, panelLeft, row, styleTitle, "NEXT")
	drawPreview(s, panelLeft, row+1, snap.Next)
	row += 6

	hold := "HOLD"
	if !snap.CanHold {
		hold = "HOLD (used)"
	}
	drawText(s, panelLeft, row, styleTitle, hold)
	drawPreview(s, panelLeft, row+1, snap.Hold)
	row += 6

	for _, line := range []string{
		fmt.Sprintf("Score  %d", snap.Score),
		fmt.Sprintf("Level  %d", snap.Level),
		fmt.Sprintf("Lines  %d", snap.Lines),
	} {
		drawText(s, panelLeft, row, styleText, line)
		row++
	}

	row++
	if snap.GameOver {
		drawText(s, panelLeft, row, styleTitle, "GAME OVER  r: restart  q: quit")
	} else {
		drawText(s, panelLeft, row, styleBorder, "arrows/hjkl  x/z rotate  space drop  c hold  q quit")
	}
	s.Show()
}

func drawBorder(s tcell.Screen) {
	left, right := boardLeft-1, boardLeft+game.Cols*cellWidth
	bottom := boardTop + game.Rows
	for y := boardTop; y < bottom; y++ {
		s.SetContent(left, y, '│', nil, styleBorder)
		s.SetContent(right, y, '│', nil, styleBorder)
	}
	s.SetContent(left, bottom, '└', nil, styleBorder)
	s.SetContent(right, bottom, '┘', nil, styleBorder)
	for x := left + 1; x < right; x++ {
		s.SetContent(x, bottom, '─', nil, styleBorder)
	}
}

// drawBlock paints board cell (x, y); cells above the board are skipped.
func drawBlock(s tcell.Screen, x, y int, st tcell.Style) {
	if y < 0 {
		return
	}
	sx := boardLeft + x*cellWidth
	for i := 0; i < cellWidth; i++ {
		s.SetContent(sx+i, boardTop+y, ' ', nil, st)
	}
}

func drawPreview(s tcell.Screen, left, top int, p *game.PieceView) {
	if p == nil {
		drawText(s, left, top, styleBorder, "-")
		return
	}
	st := blockStyle(p.Color)
	for _, b := range p.Shape.Cells() {
		for i := 0; i < cellWidth; i++ {
			s.SetContent(left+b.X*cellWidth+i, top+b.Y, ' ', nil, st)
		}
	}
}

func drawText(s tcell.Screen, x, y int, st tcell.Style, text string) {
	for i, r := range []rune(text) {
		s.SetContent(x+i, y, r, nil, st)
	}
}
