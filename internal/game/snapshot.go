package game

// PieceView is the wire form of a piece.
type PieceView struct {
	Type     string `json:"type"`
	Shape    Shape  `json:"shape"`
	X        int    `json:"x"`
	Y        int    `json:"y"`
	Rotation int    `json:"rotation"`
	Color    string `json:"color"`
}

func viewOf(p Piece) *PieceView {
	return &PieceView{
		Type:     p.Type.String(),
		Shape:    p.Shape,
		X:        p.Pos.X,
		Y:        p.Pos.Y,
		Rotation: int(p.Rotation),
		Color:    p.Color(),
	}
}

// Snapshot is a read-only copy of a session. Board cells are 0 for empty or
// piece type + 1 for locked cells.
type Snapshot struct {
	Board        [][]int    `json:"board"`
	Current      *PieceView `json:"currentPiece"`
	GhostY       int        `json:"ghostY"`
	Next         *PieceView `json:"nextPiece"`
	Hold         *PieceView `json:"holdPiece"`
	CanHold      bool       `json:"canHold"`
	Score        int        `json:"score"`
	Level        int        `json:"level"`
	Lines        int        `json:"lines"`
	DropInterval float64    `json:"dropInterval"` // ms
	State        string     `json:"state"`
	GameOver     bool       `json:"gameOver"`
}

func (s *session) snapshot(cfg Config) Snapshot {
	board := make([][]int, Rows)
	for y := range board {
		row := make([]int, Cols)
		for x := range row {
			row[x] = int(s.board.cells[y][x])
		}
		board[y] = row
	}

	snap := Snapshot{
		Board:        board,
		Current:      viewOf(s.active),
		GhostY:       s.active.Pos.Y + s.board.DropDistance(s.active.Shape, s.active.Pos),
		Next:         viewOf(NewPiece(s.next)),
		CanHold:      cfg.HoldEnabled && s.canHold,
		Score:        s.scorer.Score,
		Level:        s.scorer.Level,
		Lines:        s.scorer.Lines,
		DropInterval: float64(DropInterval(s.scorer.Level).Microseconds()) / 1000,
		State:        s.state.String(),
		GameOver:     s.state == StateGameOver,
	}
	if s.hasHeld {
		snap.Hold = viewOf(NewPiece(s.held))
	}
	return snap
}

// Cell returns the cell value at (x, y) of the snapshot board.
func (s Snapshot) Cell(x, y int) Cell {
	if !inBounds(x, y) || len(s.Board) != Rows {
		return CellEmpty
	}
	return Cell(s.Board[y][x])
}
