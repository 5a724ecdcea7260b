package game

import (
	"math"
	"time"
)

// Points for clearing 0..4 rows at level 1.
var lineClearPoints = [5]int{0, 40, 100, 300, 1200}

const (
	hardDropPointsPerRow = 2
	softDropPoints       = 1

	linesPerLevel = 10
	frameMillis   = 16.67
	minDropMillis = 16.0
)

// Scorer tracks score, cumulative lines and level for one session.
type Scorer struct {
	Score int
	Lines int
	Level int
}

func NewScorer() Scorer { return Scorer{Level: 1} }

// ClearPoints is the score delta for clearing rows at level.
func ClearPoints(rows, level int) int {
	if rows < 0 || rows >= len(lineClearPoints) {
		return 0
	}
	return lineClearPoints[rows] * level
}

// AddClear records a lock that cleared rows and returns the points awarded.
// Points use the level in effect before the clear.
func (s *Scorer) AddClear(rows int) int {
	delta := ClearPoints(rows, s.Level)
	s.Score += delta
	if rows > 0 {
		s.Lines += rows
	}
	if lvl := LevelFor(s.Lines); lvl > s.Level {
		s.Level = lvl
	}
	return delta
}

// AddDrop awards points for manual soft drop steps or hard dropped rows.
func (s *Scorer) AddDrop(points int) {
	if points > 0 {
		s.Score += points
	}
}

// LevelFor returns floor(lines/10) + 1.
func LevelFor(lines int) int {
	if lines < 0 {
		lines = 0
	}
	return lines/linesPerLevel + 1
}

// DropInterval is the gravity period at level:
// max(16, max(1, 48 - 5*level) * 16.67) milliseconds.
func DropInterval(level int) time.Duration {
	frames := 48 - level*5
	if frames < 1 {
		frames = 1
	}
	ms := float64(frames) * frameMillis
	if ms < minDropMillis {
		ms = minDropMillis
	}
	return time.Duration(math.Round(ms * float64(time.Millisecond)))
}
