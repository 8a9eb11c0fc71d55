package game

// Player is the coin economy of one participating team.
type Player struct {
	Team  string `json:"team" msgpack:"team"`
	Coins int    `json:"coins" msgpack:"coins"`
}

func NewPlayer(team string, startCoins int) *Player {
	return &Player{Team: team, Coins: startCoins}
}

func (p *Player) AddCoins(n int) {
	p.Coins += n
}

// RemoveCoins deducts n coins. It returns false and leaves the balance
// untouched when the balance is too small.
func (p *Player) RemoveCoins(n int) bool {
	if !p.CanAfford(n) {
		return false
	}
	p.Coins -= n
	return true
}

func (p *Player) CanAfford(n int) bool {
	return p.Coins >= n
}
