package game

import (
	"errors"
	"time"
)

var (
	ErrCannotUpgrade    = errors.New("spawner cannot be upgraded")
	ErrMaxLevel         = errors.New("spawner is at max level")
	ErrUnknownDirection = errors.New("unknown direction")
	ErrLastDirection    = errors.New("cannot disable the last enabled direction")
)

// Direction is an outgoing move of a spawner.
type Direction struct {
	Target   Position `json:"target" msgpack:"target"`
	Disabled bool     `json:"disabled" msgpack:"disabled"`
}

// productionTimer is a recurring trigger driven by world time.
type productionTimer struct {
	interval time.Duration
	elapsed  time.Duration
	stopped  bool
}

func newProductionTimer(interval time.Duration) *productionTimer {
	return &productionTimer{interval: interval}
}

// advance moves the timer forward and returns how many times it fired.
func (t *productionTimer) advance(dt time.Duration) int {
	if t.stopped || t.interval <= 0 {
		return 0
	}
	t.elapsed += dt
	fires := int(t.elapsed / t.interval)
	t.elapsed -= time.Duration(fires) * t.interval
	return fires
}

func (t *productionTimer) stop() {
	t.stopped = true
}

// TerritoryLoss is published when an owned spawner drops to zero HP.
type TerritoryLoss struct {
	Spawner *Spawner
	Team    string
}

// Spawner is a territory node. It is Neutral when Team == NoTeam and
// Owned(Team) otherwise.
type Spawner struct {
	ID       ID
	Position Position
	Team     string
	Color    uint32

	MaxHP     int
	currentHP int

	BubbleMass    int
	SpawnInterval time.Duration

	Level          int
	CanUpgrade     bool
	CostForUpgrade int

	Directions []Direction
	// ArrowsVisible is set when the observing team owns the spawner and
	// may toggle its directions.
	ArrowsVisible bool

	levels     Levels
	timer      *productionTimer
	production *Bus[*Spawner]
	prodSub    Subscription
	lost       *Bus[TerritoryLoss]
}

// NewSpawner creates a spawner at the given level with full HP. An unknown
// level leaves the stats zeroed; MapConfig.Validate rejects such maps.
func NewSpawner(info SpawnerInfo, levels Levels) *Spawner {
	s := &Spawner{
		Position:   info.Position,
		Team:       info.Team,
		Color:      info.Color,
		Level:      info.Level,
		levels:     levels,
		production: NewBus[*Spawner](),
		lost:       NewBus[TerritoryLoss](),
	}
	if s.Team == "" {
		s.Team = NoTeam
	}
	if s.Team == NoTeam {
		s.Color = NoTeamColor
	}
	for _, m := range info.PossibleMoves {
		s.Directions = append(s.Directions, Direction{Target: m})
	}
	if c, ok := levels.Lookup(info.Level); ok {
		s.apply(c)
	}
	s.currentHP = s.MaxHP
	s.restartTimer()
	return s
}

func (s *Spawner) apply(c LevelCharacteristics) {
	s.BubbleMass = c.BubbleMass
	s.SpawnInterval = c.SpawnInterval
	s.MaxHP = c.MaxHP
	s.CanUpgrade = c.CanUpgrade
	s.CostForUpgrade = 0
	if c.CanUpgrade {
		s.CostForUpgrade = c.CostForUpgrade
	}
}

// restartTimer cancels the running production timer before creating a new one.
func (s *Spawner) restartTimer() {
	if s.timer != nil {
		s.timer.stop()
	}
	s.timer = newProductionTimer(s.SpawnInterval)
}

func (s *Spawner) CurrentHP() int {
	return s.currentHP
}

func (s *Spawner) IsNeutral() bool {
	return s.Team == NoTeam
}

// HealthRatio is currentHP/maxHP capped at 1.
func (s *Spawner) HealthRatio() float64 {
	if s.MaxHP <= 0 {
		return 0
	}
	r := float64(s.currentHP) / float64(s.MaxHP)
	if r > 1 {
		return 1
	}
	return r
}

// Producing reports whether a production subscription is attached.
func (s *Spawner) Producing() bool {
	return s.production.Len() > 0
}

// AttachProduction sets the production callback, replacing any previous one.
func (s *Spawner) AttachProduction(fn func(*Spawner)) {
	s.DetachProduction()
	s.prodSub = s.production.Subscribe(fn)
}

// DetachProduction removes the production callback.
func (s *Spawner) DetachProduction() {
	if s.prodSub != 0 {
		s.production.Unsubscribe(s.prodSub)
		s.prodSub = 0
	}
}

// SubscribeOnLost registers fn to be called when the spawner loses its owner.
func (s *Spawner) SubscribeOnLost(fn func(TerritoryLoss)) Subscription {
	return s.lost.Subscribe(fn)
}

// Advance runs the production timer. Each firing runs to completion before
// the next; a firing that changes the timer stops further firings.
func (s *Spawner) Advance(dt time.Duration) int {
	t := s.timer
	fires := t.advance(dt)
	done := 0
	for i := 0; i < fires && s.timer == t && !t.stopped; i++ {
		s.production.Publish(s)
		done++
	}
	return done
}

// MakeDamage subtracts mass from the HP of an owned spawner. When HP drops to
// zero or below the spawner turns neutral and true is returned. Neutral
// spawners ignore damage.
func (s *Spawner) MakeDamage(mass int) bool {
	if s.IsNeutral() {
		return false
	}
	s.currentHP -= mass
	if s.currentHP > 0 {
		return false
	}

	team := s.Team
	s.neutralize()
	s.lost.Publish(TerritoryLoss{Spawner: s, Team: team})
	return true
}

func (s *Spawner) neutralize() {
	s.Team = NoTeam
	s.Color = NoTeamColor
	s.currentHP = s.MaxHP
	s.ArrowsVisible = false
	s.DetachProduction()
	s.restartTimer()
}

// Capture hands the spawner to team. HP is reset to full, every direction is
// re-enabled and the production timer restarts. Attaching production is left
// to the caller.
func (s *Spawner) Capture(team string, color uint32, viewer string) {
	s.Team = team
	s.Color = color
	s.currentHP = s.MaxHP
	for i := range s.Directions {
		s.Directions[i].Disabled = false
	}
	s.ArrowsVisible = viewer != "" && viewer == team
	s.restartTimer()
}

// RestoreHP heals by up to mass and returns how much was consumed.
func (s *Spawner) RestoreHP(mass int) int {
	if mass <= 0 {
		return 0
	}
	deficit := s.MaxHP - s.currentHP
	if deficit <= 0 {
		return 0
	}
	if mass > deficit {
		mass = deficit
	}
	s.currentHP += mass
	return mass
}

// NextLevel returns the characteristics the spawner would upgrade to.
func (s *Spawner) NextLevel() (LevelCharacteristics, error) {
	if !s.CanUpgrade {
		return LevelCharacteristics{}, ErrCannotUpgrade
	}
	c, ok := s.levels.Lookup(s.Level + 1)
	if !ok {
		return LevelCharacteristics{}, ErrMaxLevel
	}
	return c, nil
}

// Upgrade moves the spawner to the next level and restores HP to the new max.
func (s *Spawner) Upgrade() error {
	c, err := s.NextLevel()
	if err != nil {
		return err
	}
	s.Level++
	s.apply(c)
	s.currentHP = s.MaxHP
	s.restartTimer()
	return nil
}

// ToggleDirection flips direction i unless that would disable the last
// enabled direction.
func (s *Spawner) ToggleDirection(i int) error {
	if i < 0 || i >= len(s.Directions) {
		return ErrUnknownDirection
	}
	d := &s.Directions[i]
	if !d.Disabled && s.enabledCount() <= 1 {
		return ErrLastDirection
	}
	d.Disabled = !d.Disabled
	return nil
}

func (s *Spawner) enabledCount() int {
	n := 0
	for _, d := range s.Directions {
		if !d.Disabled {
			n++
		}
	}
	return n
}

// EnabledMoves returns the targets of the enabled directions.
func (s *Spawner) EnabledMoves() []Position {
	moves := make([]Position, 0, len(s.Directions))
	for _, d := range s.Directions {
		if !d.Disabled {
			moves = append(moves, d.Target)
		}
	}
	return moves
}

// Destroy stops production for good.
func (s *Spawner) Destroy() {
	if s.timer != nil {
		s.timer.stop()
	}
	s.DetachProduction()
	s.production.Clear()
	s.lost.Clear()
}

// SpawnerState is the presentation view of a spawner.
type SpawnerState struct {
	ID             ID          `json:"id" msgpack:"id"`
	Position       Position    `json:"position" msgpack:"position"`
	Team           string      `json:"team" msgpack:"team"`
	Color          uint32      `json:"color" msgpack:"color"`
	CurrentHP      int         `json:"current_hp" msgpack:"current_hp"`
	MaxHP          int         `json:"max_hp" msgpack:"max_hp"`
	HealthRatio    float64     `json:"health_ratio" msgpack:"health_ratio"`
	Level          int         `json:"level" msgpack:"level"`
	BubbleMass     int         `json:"bubble_mass" msgpack:"bubble_mass"`
	CanUpgrade     bool        `json:"can_upgrade" msgpack:"can_upgrade"`
	CostForUpgrade int         `json:"cost_for_upgrade,omitempty" msgpack:"cost_for_upgrade,omitempty"`
	Directions     []Direction `json:"directions" msgpack:"directions"`
	ArrowsVisible  bool        `json:"arrows_visible" msgpack:"arrows_visible"`
}

// State returns a copy of the spawner for the presentation layer.
func (s *Spawner) State() *SpawnerState {
	dirs := make([]Direction, len(s.Directions))
	copy(dirs, s.Directions)
	return &SpawnerState{
		ID:             s.ID,
		Position:       s.Position,
		Team:           s.Team,
		Color:          s.Color,
		CurrentHP:      s.currentHP,
		MaxHP:          s.MaxHP,
		HealthRatio:    s.HealthRatio(),
		Level:          s.Level,
		BubbleMass:     s.BubbleMass,
		CanUpgrade:     s.CanUpgrade,
		CostForUpgrade: s.CostForUpgrade,
		Directions:     dirs,
		ArrowsVisible:  s.ArrowsVisible,
	}
}
