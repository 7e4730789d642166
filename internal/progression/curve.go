// Package progression maps lifetime points to levels.
//
// The threshold to advance from level L to L+1 is Base*L, so early levels
// come quickly and later ones slow down linearly. The curve is a pure
// function: same points in, same progress out, no clock, no storage.
package progression

// Defaults used by the server unless overridden by config.
const (
	DefaultBase     = 100
	DefaultMaxLevel = 50
)

// Curve holds the progression tunables.
type Curve struct {
	Base     int // XP needed to go from level 1 to level 2
	MaxLevel int // levels clamp here; XPToNext is 0 at the cap
}

// Default returns the curve used in production.
func Default() Curve {
	return Curve{Base: DefaultBase, MaxLevel: DefaultMaxLevel}
}

// Progress describes where a points total lands on the curve.
type Progress struct {
	Level      int  `json:"level"`
	XPInLevel  int  `json:"xp_in_level"`
	XPToNext   int  `json:"xp_to_next"`
	IsMaxLevel bool `json:"is_max_level"`
}

// Threshold returns the XP needed to advance from the given level.
func (c Curve) Threshold(level int) int {
	return c.Base * level
}

// LevelOf converts a lifetime points total into level progress.
// Negative points are a caller bug; they are clamped to zero rather than
// panicking so a corrupt record can't take down a request.
func (c Curve) LevelOf(points int) Progress {
	if points < 0 {
		points = 0
	}

	level := 1
	xp := points
	for level < c.MaxLevel && xp >= c.Threshold(level) {
		xp -= c.Threshold(level)
		level++
	}

	if level >= c.MaxLevel {
		return Progress{Level: c.MaxLevel, XPInLevel: xp, XPToNext: 0, IsMaxLevel: true}
	}

	return Progress{
		Level:     level,
		XPInLevel: xp,
		XPToNext:  c.Threshold(level) - xp,
	}
}
