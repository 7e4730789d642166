package progression

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelOfZeroPoints(t *testing.T) {
	c := Default()

	p := c.LevelOf(0)
	assert.Equal(t, 1, p.Level)
	assert.Equal(t, 0, p.XPInLevel)
	assert.Equal(t, c.Base, p.XPToNext)
	assert.False(t, p.IsMaxLevel)
}

func TestLevelOfThresholds(t *testing.T) {
	c := Curve{Base: 100, MaxLevel: 50}

	tests := []struct {
		points    int
		level     int
		xpInLevel int
		xpToNext  int
	}{
		{0, 1, 0, 100},
		{99, 1, 99, 1},
		{100, 2, 0, 200},   // exactly one threshold
		{150, 2, 50, 150},
		{299, 2, 199, 1},
		{300, 3, 0, 300},   // 100 + 200
		{600, 4, 0, 400},   // 100 + 200 + 300
		{601, 4, 1, 399},
	}

	for _, tc := range tests {
		p := c.LevelOf(tc.points)
		assert.Equal(t, tc.level, p.Level, "points=%d", tc.points)
		assert.Equal(t, tc.xpInLevel, p.XPInLevel, "points=%d", tc.points)
		assert.Equal(t, tc.xpToNext, p.XPToNext, "points=%d", tc.points)
		assert.False(t, p.IsMaxLevel, "points=%d", tc.points)
	}
}

func TestLevelOfMaxLevelClamp(t *testing.T) {
	c := Curve{Base: 10, MaxLevel: 3}

	// 10 + 20 = 30 points reaches level 3 exactly
	p := c.LevelOf(30)
	assert.Equal(t, 3, p.Level)
	assert.True(t, p.IsMaxLevel)
	assert.Equal(t, 0, p.XPToNext)

	// Way past the cap still clamps
	p = c.LevelOf(1_000_000)
	assert.Equal(t, 3, p.Level)
	assert.True(t, p.IsMaxLevel)
	assert.Equal(t, 0, p.XPToNext)
}

func TestLevelOfMonotonic(t *testing.T) {
	c := Default()

	prev := c.LevelOf(0)
	for points := 1; points <= 20000; points += 37 {
		p := c.LevelOf(points)
		assert.GreaterOrEqual(t, p.Level, prev.Level, "level must never decrease as points grow")
		if !p.IsMaxLevel {
			assert.Less(t, p.XPInLevel, c.Threshold(p.Level),
				"xp in level must stay below the level's threshold")
		}
		prev = p
	}
}

func TestLevelOfNegativePointsClamped(t *testing.T) {
	c := Default()

	p := c.LevelOf(-5)
	assert.Equal(t, 1, p.Level)
	assert.Equal(t, 0, p.XPInLevel)
}
