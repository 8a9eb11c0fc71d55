package game

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"time"
)

var (
	ErrMatchOver         = errors.New("match is over")
	ErrSpawnerNotFound   = errors.New("spawner not found")
	ErrNotOwner          = errors.New("spawner is not owned by team")
	ErrNeutralSpawner    = errors.New("neutral spawners do not produce")
	ErrDirectionDisabled = errors.New("direction is disabled")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrUnknownTeam       = errors.New("unknown team")
)

// Options configures a World. Zero values fall back to defaults.
type Options struct {
	Rules  Rules
	Levels Levels
	Rand   *rand.Rand
	Logger *slog.Logger
	// Viewer is the observing team; spawners it owns show routing arrows.
	Viewer string
	// OnEvent, if set, is subscribed before the world publishes its
	// creation events.
	OnEvent func(Event)
}

// World is one match: the map, its spawners and bubbles, the team economies
// and the collision rules binding them.
//
// A World is not safe for concurrent use. Every command and Step must run on
// one logical thread; hosts serialise access themselves.
type World struct {
	rules  Rules
	levels Levels
	rng    *rand.Rand
	log    *slog.Logger
	viewer string

	width, height float64

	graph        *Graph
	spawners     *Arena[*Spawner]
	spawnerAt    map[Position]ID
	bubbles      *Arena[*Bubble]
	teams        []string
	players      map[string]*Player
	events       *Bus[Event]
	economyClock time.Duration
	elapsed      time.Duration

	over   bool
	winner string
	closed bool
	final  *Snapshot
}

// NewWorld builds a match from a map. Spawners owned by a team start
// producing immediately; neutral ones wait to be captured.
func NewWorld(cfg *MapConfig, opts Options) (*World, error) {
	if opts.Rules == (Rules{}) {
		opts.Rules = DefaultRules()
	}
	if opts.Levels == nil {
		opts.Levels = DefaultLevels
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if err := cfg.Validate(opts.Levels); err != nil {
		return nil, err
	}

	w := &World{
		rules:     opts.Rules,
		levels:    opts.Levels,
		rng:       opts.Rand,
		log:       opts.Logger,
		viewer:    opts.Viewer,
		width:     cfg.Width,
		height:    cfg.Height,
		graph:     NewGraph(cfg.Points),
		spawners:  NewArena[*Spawner](),
		spawnerAt: make(map[Position]ID, len(cfg.Spawners)),
		bubbles:   NewArena[*Bubble](),
		teams:     append([]string(nil), cfg.Teams...),
		players:   make(map[string]*Player, len(cfg.Teams)),
		events:    NewBus[Event](),
	}
	if opts.OnEvent != nil {
		w.events.Subscribe(opts.OnEvent)
	}

	for _, team := range w.teams {
		w.players[team] = NewPlayer(team, w.rules.StartCoins)
	}

	for _, info := range cfg.Spawners {
		s := NewSpawner(info, w.levels)
		s.ID = w.spawners.Insert(s)
		s.ArrowsVisible = w.viewer != "" && s.Team == w.viewer
		w.spawnerAt[s.Position] = s.ID
		s.SubscribeOnLost(w.onTerritoryLost)
		if !s.IsNeutral() {
			s.AttachProduction(w.produce)
		}
		w.publish(Event{Kind: EventSpawnerCreated, Spawner: s.State()})
	}

	return w, nil
}

// Subscribe registers a listener for outbound events.
func (w *World) Subscribe(fn func(Event)) Subscription {
	return w.events.Subscribe(fn)
}

// Unsubscribe removes an event listener.
func (w *World) Unsubscribe(sub Subscription) {
	w.events.Unsubscribe(sub)
}

func (w *World) publish(ev Event) {
	w.events.Publish(ev)
}

// Bounds returns the map width and height.
func (w *World) Bounds() (float64, float64) {
	return w.width, w.height
}

// Teams returns the participating teams.
func (w *World) Teams() []string {
	return append([]string(nil), w.teams...)
}

// Over returns the winner once the match has ended.
func (w *World) Over() (string, bool) {
	return w.winner, w.over
}

// Elapsed returns the simulated match time.
func (w *World) Elapsed() time.Duration {
	return w.elapsed
}

// Spawner looks up a spawner.
func (w *World) Spawner(id ID) (*Spawner, bool) {
	return w.spawners.Get(id)
}

// Spawners returns every spawner in creation order.
func (w *World) Spawners() []*Spawner {
	list := make([]*Spawner, 0, w.spawners.Len())
	w.spawners.Each(func(_ ID, s *Spawner) {
		list = append(list, s)
	})
	return list
}

// Bubble looks up a live bubble.
func (w *World) Bubble(id ID) (*Bubble, bool) {
	return w.bubbles.Get(id)
}

// Bubbles returns the live bubbles in arena order.
func (w *World) Bubbles() []*Bubble {
	list := make([]*Bubble, 0, w.bubbles.Len())
	w.bubbles.Each(func(_ ID, b *Bubble) {
		list = append(list, b)
	})
	return list
}

// BubbleCount returns the number of live bubbles.
func (w *World) BubbleCount() int {
	return w.bubbles.Len()
}

// Player returns the economy of team.
func (w *World) Player(team string) (*Player, bool) {
	p, ok := w.players[team]
	return p, ok
}

// CreateBubble spawns one bubble from an owned spawner and sends it toward
// direction. A negative direction picks one enabled direction at random.
func (w *World) CreateBubble(spawnerID ID, direction int) (ID, error) {
	if w.over {
		return NoID, ErrMatchOver
	}
	s, ok := w.spawners.Get(spawnerID)
	if !ok {
		return NoID, ErrSpawnerNotFound
	}
	if s.IsNeutral() {
		return NoID, ErrNeutralSpawner
	}

	var target Position
	if direction < 0 {
		moves := s.EnabledMoves()
		if len(moves) == 0 {
			return NoID, ErrDirectionDisabled
		}
		target = moves[RandomInt(w.rng, 0, len(moves)-1)]
	} else {
		if direction >= len(s.Directions) {
			return NoID, ErrUnknownDirection
		}
		d := s.Directions[direction]
		if d.Disabled {
			return NoID, ErrDirectionDisabled
		}
		target = d.Target
	}

	b := NewBubble(s, w.rules.BubbleSpeed)
	b.Launch(s.Position, target, launchOffset(w.rules.SpawnerSize, b.Radius()))
	b.ID = w.bubbles.Insert(b)
	w.publish(Event{Kind: EventBubbleCreated, Bubble: b.State()})
	return b.ID, nil
}

// launchOffset is the distance from a spawner's center at which a bubble of
// radius r clears the spawner square in any direction.
func launchOffset(spawnerSize, r float64) float64 {
	return spawnerSize/math.Sqrt2 + r + 1
}

// produce is the production subscription of owned spawners.
func (w *World) produce(s *Spawner) {
	if _, err := w.CreateBubble(s.ID, -1); err != nil {
		w.log.Debug("production skipped", "spawner", s.ID, "error", err)
	}
}

// ToggleDirection flips a routing direction of a spawner owned by team.
func (w *World) ToggleDirection(team string, spawnerID ID, direction int) error {
	if w.over {
		return ErrMatchOver
	}
	s, ok := w.spawners.Get(spawnerID)
	if !ok {
		return ErrSpawnerNotFound
	}
	if s.Team != team {
		return ErrNotOwner
	}
	if err := s.ToggleDirection(direction); err != nil {
		return err
	}
	w.publish(Event{Kind: EventSpawnerUpdated, Spawner: s.State()})
	return nil
}

// Upgrade spends the team's coins on the next level of an owned spawner.
// Either the balance is deducted and the level applied, or nothing changes.
func (w *World) Upgrade(team string, spawnerID ID) error {
	if w.over {
		return ErrMatchOver
	}
	s, ok := w.spawners.Get(spawnerID)
	if !ok {
		return ErrSpawnerNotFound
	}
	if s.Team != team {
		return ErrNotOwner
	}
	p, ok := w.players[team]
	if !ok {
		return ErrUnknownTeam
	}
	if _, err := s.NextLevel(); err != nil {
		return err
	}
	cost := s.CostForUpgrade
	if !p.RemoveCoins(cost) {
		return fmt.Errorf("%w: have %d, need %d", ErrInsufficientFunds, p.Coins, cost)
	}
	if err := s.Upgrade(); err != nil {
		p.AddCoins(cost)
		return err
	}

	w.log.Info("spawner upgraded", "spawner", s.ID, "team", team, "level", s.Level, "cost", cost)
	w.publish(Event{Kind: EventSpawnerUpgraded, Spawner: s.State(), Team: team})
	w.publish(Event{Kind: EventCoinsUpdated, Team: team, Coins: p.Coins})
	return nil
}

// TickEconomy pays every team its stipend.
func (w *World) TickEconomy() {
	if w.over {
		return
	}
	for _, team := range w.teams {
		p := w.players[team]
		p.AddCoins(w.rules.CoinStipend)
		w.publish(Event{Kind: EventCoinsUpdated, Team: team, Coins: p.Coins})
	}
}

// Step advances the match by dt: production timers fire, bubbles move and
// re-route at waypoints, overlaps are resolved, and the economy ticks.
func (w *World) Step(dt time.Duration) {
	if w.over || dt <= 0 {
		return
	}
	w.elapsed += dt

	for _, id := range w.spawners.IDs() {
		if s, ok := w.spawners.Get(id); ok {
			s.Advance(dt)
		}
	}

	for _, id := range w.bubbles.IDs() {
		b, ok := w.bubbles.Get(id)
		if !ok || !b.Alive() {
			continue
		}
		if b.Advance(dt) {
			w.arrive(b)
		}
	}

	w.resolveCollisions()
	if w.over {
		return
	}

	if w.rules.CoinPeriod > 0 {
		w.economyClock += dt
		for w.economyClock >= w.rules.CoinPeriod {
			w.economyClock -= w.rules.CoinPeriod
			w.TickEconomy()
		}
	}
}

// movesAt returns the outgoing moves at pos. A spawner's own routing table
// takes precedence over the map point it sits on.
func (w *World) movesAt(pos Position) []Position {
	if id, ok := w.spawnerAt[pos]; ok {
		if s, ok := w.spawners.Get(id); ok {
			return s.EnabledMoves()
		}
	}
	return w.graph.Moves(pos)
}

// arrive chains the next leg of a bubble that reached its waypoint.
func (w *World) arrive(b *Bubble) {
	if b.Cancelled() {
		return
	}
	next, ok := NextDirection(w.rng, w.movesAt(b.Position), b.MovedFrom)
	if !ok {
		w.log.Debug("bubble stranded", "bubble", b.ID, "x", b.Position.X, "y", b.Position.Y)
		return
	}
	b.MoveTo(next)
}

func (w *World) destroyBubble(b *Bubble) {
	b.Cancel()
	if w.bubbles.Remove(b.ID) {
		w.publish(Event{Kind: EventBubbleDestroyed, Bubble: b.State()})
	}
}

func (w *World) applyBubbleOutcome(b *Bubble, out BubbleOutcome) {
	if !out.Survives {
		w.destroyBubble(b)
		return
	}
	if out.Scale != 1 {
		w.publish(Event{Kind: EventBubbleResized, Bubble: b.State(), Scale: out.Scale})
	}
}

// resolveCollisions resolves each overlapping pair once, in detection order.
// Bubble-bubble overlaps are detected and resolved first, then
// bubble-spawner overlaps against the resulting state.
func (w *World) resolveCollisions() {
	ids := w.bubbles.IDs()

	var pairs [][2]ID
	for i := 0; i < len(ids); i++ {
		a, _ := w.bubbles.Get(ids[i])
		for j := i + 1; j < len(ids); j++ {
			b, _ := w.bubbles.Get(ids[j])
			if BubblesOverlap(a, b) {
				pairs = append(pairs, [2]ID{ids[i], ids[j]})
			}
		}
	}
	for _, pair := range pairs {
		a, okA := w.bubbles.Get(pair[0])
		b, okB := w.bubbles.Get(pair[1])
		if !okA || !okB {
			w.log.Debug("bubble collision skipped", "a", pair[0], "b", pair[1])
			continue
		}
		outA, outB := ResolveBubbles(a, b)
		w.applyBubbleOutcome(a, outA)
		w.applyBubbleOutcome(b, outB)
	}

	type contact struct{ bubble, spawner ID }
	var contacts []contact
	spawnerIDs := w.spawners.IDs()
	for _, bid := range w.bubbles.IDs() {
		b, _ := w.bubbles.Get(bid)
		for _, sid := range spawnerIDs {
			s, _ := w.spawners.Get(sid)
			if BubbleTouchesSpawner(b, s, w.rules.SpawnerSize) {
				contacts = append(contacts, contact{bid, sid})
			}
		}
	}
	for _, c := range contacts {
		b, okB := w.bubbles.Get(c.bubble)
		s, okS := w.spawners.Get(c.spawner)
		if !okB || !okS {
			w.log.Debug("spawner collision skipped", "bubble", c.bubble, "spawner", c.spawner)
			continue
		}
		w.resolveSpawnerContact(b, s)
		if w.over {
			return
		}
	}
}

func (w *World) resolveSpawnerContact(b *Bubble, s *Spawner) {
	team := b.Team
	out := ResolveBubbleSpawner(b, s, w.viewer)
	w.applyBubbleOutcome(b, out.Bubble)

	switch out.Contact {
	case ContactNone:
		return
	case ContactCapture:
		s.AttachProduction(w.produce)
		w.log.Info("spawner captured", "spawner", s.ID, "team", team)
		w.publish(Event{Kind: EventSpawnerCaptured, Spawner: s.State(), Team: team})
	}
	w.publish(Event{Kind: EventSpawnerUpdated, Spawner: s.State()})

	if out.Contact == ContactCapture || out.Neutralized {
		w.checkVictory()
	}
}

func (w *World) onTerritoryLost(loss TerritoryLoss) {
	w.log.Info("spawner neutralized", "spawner", loss.Spawner.ID, "team", loss.Team)
	w.publish(Event{Kind: EventSpawnerNeutralized, Spawner: loss.Spawner.State(), Team: loss.Team})
}

func (w *World) checkVictory() {
	winner, over := CheckVictory(w.Spawners())
	if !over {
		return
	}
	w.over = true
	w.winner = winner
	w.log.Info("match over", "winner", winner, "elapsed", w.elapsed)
	w.publish(Event{Kind: EventMatchOver, Team: winner})
	w.Close()
}

// Close tears the match down: every production timer stops, every bubble is
// cancelled, the entity stores are cleared and listeners are dropped. The
// last snapshot stays available. Close is idempotent.
func (w *World) Close() {
	if w.closed {
		return
	}
	w.final = w.Snapshot()
	w.closed = true
	w.over = true

	w.spawners.Each(func(_ ID, s *Spawner) {
		s.Destroy()
	})
	w.bubbles.Each(func(_ ID, b *Bubble) {
		b.Cancel()
	})
	w.spawners.Clear()
	w.bubbles.Clear()
	w.spawnerAt = map[Position]ID{}
	w.events.Clear()
}

// Snapshot is a serialisable view of the match.
type Snapshot struct {
	Elapsed  float64         `json:"elapsed" msgpack:"elapsed"`
	Spawners []*SpawnerState `json:"spawners" msgpack:"spawners"`
	Bubbles  []*BubbleState  `json:"bubbles" msgpack:"bubbles"`
	Players  []Player        `json:"players" msgpack:"players"`
	Over     bool            `json:"over" msgpack:"over"`
	Winner   string          `json:"winner,omitempty" msgpack:"winner,omitempty"`
}

// Snapshot returns the current state, or the state at teardown once closed.
func (w *World) Snapshot() *Snapshot {
	if w.closed {
		snap := *w.final
		snap.Over = w.over
		snap.Winner = w.winner
		return &snap
	}
	snap := &Snapshot{
		Elapsed:  w.elapsed.Seconds(),
		Spawners: make([]*SpawnerState, 0, w.spawners.Len()),
		Bubbles:  make([]*BubbleState, 0, w.bubbles.Len()),
		Players:  make([]Player, 0, len(w.teams)),
		Over:     w.over,
		Winner:   w.winner,
	}
	w.spawners.Each(func(_ ID, s *Spawner) {
		snap.Spawners = append(snap.Spawners, s.State())
	})
	w.bubbles.Each(func(_ ID, b *Bubble) {
		snap.Bubbles = append(snap.Bubbles, b.State())
	})
	for _, team := range w.teams {
		snap.Players = append(snap.Players, *w.players[team])
	}
	return snap
}
