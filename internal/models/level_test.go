package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelForThresholds(t *testing.T) {
	cases := map[int]Level{
		0:       LevelExplorer,
		99:      LevelExplorer,
		100:     LevelDefender,
		499:     LevelDefender,
		500:     LevelProtector,
		999:     LevelProtector,
		1000:    LevelGuardian,
		1000000: LevelGuardian,
	}
	for points, want := range cases {
		assert.Equal(t, want, LevelFor(points), points)
	}
}

func TestLevelForMonotonic(t *testing.T) {
	prev := LevelFor(0).Rank()
	for p := 1; p <= 2000; p++ {
		rank := LevelFor(p).Rank()
		assert.GreaterOrEqual(t, rank, prev, p)
		assert.GreaterOrEqual(t, rank, 0)
		prev = rank
	}
}
