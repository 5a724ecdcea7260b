package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClearPoints(t *testing.T) {
	for _, level := range []int{1, 2, 7} {
		assert.Equal(t, 0, ClearPoints(0, level))
		assert.Equal(t, 40*level, ClearPoints(1, level))
		assert.Equal(t, 100*level, ClearPoints(2, level))
		assert.Equal(t, 300*level, ClearPoints(3, level))
		assert.Equal(t, 1200*level, ClearPoints(4, level))
	}
	assert.Equal(t, 0, ClearPoints(5, 1))
	assert.Equal(t, 0, ClearPoints(-1, 1))
}

func TestLevelFor(t *testing.T) {
	cases := map[int]int{0: 1, 9: 1, 10: 2, 19: 2, 20: 3, 125: 13, -4: 1}
	for lines, want := range cases {
		assert.Equal(t, want, LevelFor(lines), "lines=%d", lines)
	}
}

func TestScorerMonotonicLevel(t *testing.T) {
	s := NewScorer()
	prev := s.Level
	for i := 0; i < 60; i++ {
		s.AddClear(i % 5)
		assert.GreaterOrEqual(t, s.Level, prev)
		assert.Equal(t, LevelFor(s.Lines), s.Level)
		prev = s.Level
	}
}

func TestScorerAddClear(t *testing.T) {
	s := NewScorer()
	assert.Equal(t, 1200, s.AddClear(4))
	assert.Equal(t, 4, s.Lines)
	assert.Equal(t, 0, s.AddClear(0))

	s.Lines = 9
	assert.Equal(t, 40, s.AddClear(1))
	assert.Equal(t, 2, s.Level)
	assert.Equal(t, 200, s.AddClear(2))
	assert.Equal(t, 1440, s.Score)
}

func TestScorerAddDropIgnoresNegative(t *testing.T) {
	s := NewScorer()
	s.AddDrop(6)
	s.AddDrop(-3)
	assert.Equal(t, 6, s.Score)
}

func TestDropInterval(t *testing.T) {
	ms := func(d time.Duration) float64 { return float64(d) / float64(time.Millisecond) }

	assert.InDelta(t, 716.81, ms(DropInterval(1)), 0.001)
	assert.InDelta(t, 633.46, ms(DropInterval(2)), 0.001)
	assert.InDelta(t, 50.01, ms(DropInterval(9)), 0.001)
	// 48 - 5*level bottoms out at one frame
	assert.InDelta(t, 16.67, ms(DropInterval(10)), 0.001)
	assert.InDelta(t, 16.67, ms(DropInterval(40)), 0.001)
	assert.GreaterOrEqual(t, DropInterval(1000), 16*time.Millisecond)
}
