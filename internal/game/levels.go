package game

import "time"

// LevelCharacteristics are the combat and economy stats of a spawner level.
// CostForUpgrade is only meaningful when CanUpgrade is set.
type LevelCharacteristics struct {
	BubbleMass     int           `json:"bubble_mass"`
	SpawnInterval  time.Duration `json:"spawn_interval"`
	MaxHP          int           `json:"max_hp"`
	CanUpgrade     bool          `json:"can_upgrade"`
	CostForUpgrade int           `json:"cost_for_upgrade,omitempty"`
}

// Levels maps a spawner level to its characteristics.
type Levels map[int]LevelCharacteristics

// DefaultLevels is the standard level table.
var DefaultLevels = Levels{
	1: {BubbleMass: 20, SpawnInterval: time.Second, MaxHP: 500, CanUpgrade: true, CostForUpgrade: 50},
	2: {BubbleMass: 40, SpawnInterval: time.Second, MaxHP: 700, CanUpgrade: true, CostForUpgrade: 120},
	3: {BubbleMass: 60, SpawnInterval: 800 * time.Millisecond, MaxHP: 1000},
}

// Lookup returns the characteristics for level.
func (l Levels) Lookup(level int) (LevelCharacteristics, bool) {
	c, ok := l[level]
	return c, ok
}
