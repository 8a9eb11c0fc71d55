package game

import "time"

// Neutral team marker and its color.
const (
	NoTeam      = "__NO_TEAM"
	NoTeamColor = 0x666666
)

// Spawner geometry (pixels). Spawners are drawn as squares of this size.
const (
	SpawnerSize = 30.0
)

// Movement
const (
	BubbleSpeed = 100.0 // pixels per second
)

// Economy
const (
	CoinStipend = 5
	CoinPeriod  = time.Second
	StartCoins  = 0
)

// Game timing
const (
	TickRate     = 20 // ticks per second
	TickInterval = time.Second / TickRate
)

// Room limits
const (
	MinPlayers = 2
	MaxPlayers = 8
)

// Rules holds the tunable constants of a match.
type Rules struct {
	BubbleSpeed float64
	SpawnerSize float64
	CoinStipend int
	CoinPeriod  time.Duration
	StartCoins  int
}

// DefaultRules returns the standard rule set.
func DefaultRules() Rules {
	return Rules{
		BubbleSpeed: BubbleSpeed,
		SpawnerSize: SpawnerSize,
		CoinStipend: CoinStipend,
		CoinPeriod:  CoinPeriod,
		StartCoins:  StartCoins,
	}
}
