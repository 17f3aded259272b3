package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelFor(t *testing.T) {
	tests := []struct {
		xp    int
		level int
	}{
		{0, 1},
		{499, 1},
		{500, 2},
		{1499, 2},
		{1500, 3},
		{5000, 5},
		{22499, 9},
		{22500, 10},
		{1000000, 10},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.level, LevelFor(tt.xp), "xp=%d", tt.xp)
	}
}

func TestLevelForIsMonotonic(t *testing.T) {
	prev := LevelFor(0)
	for xp := 1; xp <= 30000; xp += 7 {
		level := LevelFor(xp)
		assert.GreaterOrEqual(t, level, prev, "xp=%d", xp)
		assert.LessOrEqual(t, level, MaxLevel)
		prev = level
	}
}

func TestTierFor(t *testing.T) {
	assert.Equal(t, "enchanter", TierFor(1))
	assert.Equal(t, "enchanter", TierFor(4))
	assert.Equal(t, "illuminated", TierFor(5))
	assert.Equal(t, "illuminated", TierFor(MaxLevel))
	assert.Equal(t, "conscious", TierFor(15))
	assert.Equal(t, "templar", TierFor(50))
}

func TestNextLevelXP(t *testing.T) {
	assert.Equal(t, 500, NextLevelXP(0))
	assert.Equal(t, 1500, NextLevelXP(500))
	assert.Equal(t, -1, NextLevelXP(22500))
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, 1, parseLevel(""))
	assert.Equal(t, 1, parseLevel("zero"))
	assert.Equal(t, 1, parseLevel("-3"))
	assert.Equal(t, 7, parseLevel("7"))
}
